package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rifqimaulido/pickup-app/config"
)

// CORSMiddlewares allows the storefront origin (CORS_ALLOW_ORIGIN, "*" by
// default) and the headers the order board websocket handshake needs.
func CORSMiddlewares() gin.HandlerFunc {
	origin := config.Getenv("CORS_ALLOW_ORIGIN", "*")
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Accept, Origin, Cache-Control, X-Requested-With, Sec-WebSocket-Protocol, Sec-WebSocket-Version, Sec-WebSocket-Key, Upgrade")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, PATCH, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
