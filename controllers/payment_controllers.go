package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/rifqimaulido/pickup-app/board"
	"github.com/rifqimaulido/pickup-app/models"
	"github.com/rifqimaulido/pickup-app/services"
	"github.com/rifqimaulido/pickup-app/utils"
)

type PaymentController struct {
	DB      *gorm.DB
	Gateway *services.MidtransGateway
}

func NewPaymentController(db *gorm.DB, gateway *services.MidtransGateway) *PaymentController {
	return &PaymentController{DB: db, Gateway: gateway}
}

// GetPaymentsByOrder -> list payment attempts for one order
func (pc *PaymentController) GetPaymentsByOrder(c *gin.Context) {
	orderID := c.Param("order_id")

	var payments []models.Payment
	if err := pc.DB.Where("order_id = ?", orderID).Order("created_at asc").Find(&payments).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of payments", payments)
}

// MidtransCallback handles asynchronous payment notifications. It only
// moves a pending payment to captured or failed; order status transitions
// stay with the lifecycle manager.
func (pc *PaymentController) MidtransCallback(c *gin.Context) {
	var notif struct {
		OrderID           string `json:"order_id"`
		StatusCode        string `json:"status_code"`
		GrossAmount       string `json:"gross_amount"`
		SignatureKey      string `json:"signature_key"`
		TransactionID     string `json:"transaction_id"`
		TransactionStatus string `json:"transaction_status"`
	}
	if err := c.ShouldBindJSON(&notif); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if !pc.Gateway.ValidateSignature(notif.OrderID, notif.StatusCode, notif.GrossAmount, notif.SignatureKey) {
		utils.RespondError(c, http.StatusUnauthorized, fmt.Errorf("invalid signature"))
		return
	}

	var order models.Order
	if err := pc.DB.Where("order_number = ?", notif.OrderID).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondError(c, http.StatusNotFound, fmt.Errorf("order not found"))
			return
		}
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	var payment models.Payment
	err := pc.DB.Where("order_id = ? AND status IN ?", order.ID,
		[]string{models.PaymentStatusPending, models.PaymentStatusAuthorized}).
		First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondJSON(c, http.StatusOK, "No open payment for order", nil)
			return
		}
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	now := time.Now()
	switch notif.TransactionStatus {
	case "capture", "settlement":
		payment.Status = models.PaymentStatusCaptured
		payment.ProcessedAt = &now
	case "deny", "cancel", "expire", "failure":
		payment.Status = models.PaymentStatusFailed
	default:
		utils.RespondJSON(c, http.StatusOK, "Notification ignored", nil)
		return
	}
	if notif.TransactionID != "" {
		payment.TransactionID = notif.TransactionID
	}
	payment.UpdatedAt = now

	if err := pc.DB.Save(&payment).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	board.BroadcastPaymentUpdate(payment)
	utils.RespondJSON(c, http.StatusOK, "Payment updated", payment)
}
