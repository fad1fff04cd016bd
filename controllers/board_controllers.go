package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/rifqimaulido/pickup-app/board"
	"github.com/rifqimaulido/pickup-app/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// BoardWebSocket upgrades a staff connection to the live order board. The
// role comes from the websocket auth middleware.
func BoardWebSocket(c *gin.Context) {
	roleInterface, _ := c.Get("role")
	role, _ := roleInterface.(string)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.Errorf("websocket upgrade failed: %v", err)
		return
	}
	board.RegisterClient(conn, role)

	// Reader loop only detects disconnects; the board is push-only.
	go func() {
		defer board.UnregisterClient(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
