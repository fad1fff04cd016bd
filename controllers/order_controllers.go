package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/rifqimaulido/pickup-app/board"
	"github.com/rifqimaulido/pickup-app/models"
	"github.com/rifqimaulido/pickup-app/services"
	"github.com/rifqimaulido/pickup-app/utils"
)

type OrderController struct {
	DB        *gorm.DB
	Orders    *services.OrderService
	Lifecycle *services.LifecycleService
}

func NewOrderController(db *gorm.DB, orders *services.OrderService, lifecycle *services.LifecycleService) *OrderController {
	return &OrderController{DB: db, Orders: orders, Lifecycle: lifecycle}
}

// statusForServiceError maps the service error taxonomy onto HTTP codes.
func statusForServiceError(err error) int {
	switch {
	case errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrDishNotFound),
		errors.Is(err, services.ErrVariantNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrSlotFullyBooked),
		errors.Is(err, services.ErrInsufficientStock),
		errors.Is(err, services.ErrPromoUsageExceeded),
		errors.Is(err, services.ErrAlreadyCancelled),
		errors.Is(err, services.ErrAlreadyPickedUp):
		return http.StatusConflict
	case services.IsValidationError(err):
		return http.StatusBadRequest
	default:
		var it *services.InvalidTransitionError
		if errors.As(err, &it) {
			return http.StatusConflict
		}
		return http.StatusInternalServerError
	}
}

// PlaceOrder -> validate + atomically create an order
func (oc *OrderController) PlaceOrder(c *gin.Context) {
	var req services.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.PlaceOrder(req)
	if err != nil {
		utils.RespondError(c, statusForServiceError(err), err)
		return
	}

	board.BroadcastOrderCreated(*order)
	utils.RespondJSON(c, http.StatusCreated, "Order placed", order)
}

// GetAllOrders -> list orders with items, newest first
func (oc *OrderController) GetAllOrders(c *gin.Context) {
	query := oc.DB.Preload("OrderItems").Preload("Payments").Order("created_at desc")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of orders", orders)
}

// GetOrderByID -> detail of one order
func (oc *OrderController) GetOrderByID(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("order_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid order id"))
		return
	}

	order, err := oc.Orders.GetOrderByID(uint(id))
	if err != nil {
		utils.RespondError(c, statusForServiceError(err), err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

// VerifyPickup -> staff scans the QR code at the counter
func (oc *OrderController) VerifyPickup(c *gin.Context) {
	code := c.Param("code")

	order, err := oc.Orders.GetOrderByNumber(code)
	if err != nil {
		utils.RespondError(c, statusForServiceError(err), err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order verified", order)
}

// UpdateOrderStatus -> staff moves an order through the lifecycle, or
// updates internal notes without a status change
func (oc *OrderController) UpdateOrderStatus(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("order_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid order id"))
		return
	}

	var req services.StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Lifecycle.UpdateStatus(uint(id), req)
	if err != nil {
		utils.RespondError(c, statusForServiceError(err), err)
		return
	}

	if req.Status != nil {
		board.BroadcastOrderUpdate(*order)
		if order.Status == models.OrderStatusReady {
			board.BroadcastStaffNotification(fmt.Sprintf("Order %s is ready for pickup", order.OrderNumber))
		}
	}
	utils.RespondJSON(c, http.StatusOK, "Order updated", order)
}

// CancelOrder -> standalone cancellation with an optional reason
func (oc *OrderController) CancelOrder(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("order_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid order id"))
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	// body is optional
	_ = c.ShouldBindJSON(&req)

	order, err := oc.Lifecycle.CancelOrder(uint(id), req.Reason)
	if err != nil {
		utils.RespondError(c, statusForServiceError(err), err)
		return
	}

	board.BroadcastOrderUpdate(*order)
	utils.RespondJSON(c, http.StatusOK, "Order cancelled", order)
}
