package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rifqimaulido/pickup-app/models"
)

// allowedTransitions is the order status state machine. picked_up and
// cancelled are terminal.
var allowedTransitions = map[string][]string{
	models.OrderStatusNew:       {models.OrderStatusPreparing, models.OrderStatusCancelled},
	models.OrderStatusPreparing: {models.OrderStatusReady, models.OrderStatusCancelled},
	models.OrderStatusReady:     {models.OrderStatusPickedUp, models.OrderStatusCancelled},
	models.OrderStatusPickedUp:  {},
	models.OrderStatusCancelled: {},
}

// DefaultCancellationNote is written to internal_notes when no reason is
// supplied.
const DefaultCancellationNote = "Order cancelled"

func transitionAllowed(from, to string) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// StatusUpdateRequest changes an order's status and/or internal notes.
// A nil Status updates notes only and triggers no side effects.
type StatusUpdateRequest struct {
	Status        *string `json:"status"`
	InternalNotes *string `json:"internal_notes"`
}

// LifecycleService is the order lifecycle manager: it enforces the status
// state machine and applies transition side effects (payment capture and
// refund, stock restoration, time-slot release) atomically with the status
// write.
type LifecycleService struct {
	db       *gorm.DB
	gateway  PaymentGateway
	notifier Notifier
}

func NewLifecycleService(db *gorm.DB, gateway PaymentGateway, notifier Notifier) *LifecycleService {
	return &LifecycleService{
		db:       db,
		gateway:  gateway,
		notifier: notifier,
	}
}

// UpdateStatus validates and applies a status transition. If any side
// effect fails, the whole transition rolls back and the order keeps its
// prior status.
func (s *LifecycleService) UpdateStatus(orderID uint, req StatusUpdateRequest) (*models.Order, error) {
	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	var order models.Order
	if err := tx.Preload("OrderItems").Preload("Payments").First(&order, orderID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	transitioned := false
	if req.Status != nil {
		target := *req.Status
		// Same-state updates are rejected like any other missing edge.
		if !transitionAllowed(order.Status, target) {
			tx.Rollback()
			return nil, &InvalidTransitionError{From: order.Status, To: target}
		}

		// Claim the transition with a guarded update before any side
		// effect runs. When a concurrent transition commits first the
		// guard misses and this one aborts without touching the gateway
		// or any counter.
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, order.Status).
			Update("status", target)
		if res.Error != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to update order status: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			tx.Rollback()
			var current models.Order
			if err := s.db.First(&current, orderID).Error; err != nil {
				return nil, fmt.Errorf("failed to reload order: %w", err)
			}
			return nil, &InvalidTransitionError{From: current.Status, To: target}
		}

		if err := s.applyTransition(tx, &order, target, req.InternalNotes); err != nil {
			tx.Rollback()
			return nil, err
		}
		transitioned = true
	}

	if !transitioned && req.InternalNotes != nil {
		order.InternalNotes = req.InternalNotes
	}

	order.UpdatedAt = time.Now()
	if err := tx.Omit(clause.Associations).Save(&order).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to save order: %w", err)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit status change: %w", err)
	}

	if transitioned {
		switch order.Status {
		case models.OrderStatusReady:
			notifyAsync(s.notifier, &order, NotifyReady)
		case models.OrderStatusCancelled:
			notifyAsync(s.notifier, &order, NotifyCancelled)
		}
	}
	return &order, nil
}

// CancelOrder is the standalone cancellation entry point. It shares the
// transition machinery, including its guard, and only translates terminal
// states into their own errors afterwards.
func (s *LifecycleService) CancelOrder(orderID uint, reason string) (*models.Order, error) {
	note := reason
	if note == "" {
		note = DefaultCancellationNote
	}
	cancelled := models.OrderStatusCancelled
	order, err := s.UpdateStatus(orderID, StatusUpdateRequest{
		Status:        &cancelled,
		InternalNotes: &note,
	})
	if err != nil {
		var it *InvalidTransitionError
		if errors.As(err, &it) {
			switch it.From {
			case models.OrderStatusCancelled:
				return nil, ErrAlreadyCancelled
			case models.OrderStatusPickedUp:
				return nil, ErrAlreadyPickedUp
			}
		}
		return nil, err
	}
	return order, nil
}

// applyTransition mutates the order in memory and applies the side effects
// of entering the new status inside tx.
func (s *LifecycleService) applyTransition(tx *gorm.DB, order *models.Order, newStatus string, notes *string) error {
	switch newStatus {
	case models.OrderStatusReady:
		if err := s.capturePendingPayments(tx, order); err != nil {
			return err
		}
	case models.OrderStatusCancelled:
		if err := s.refundPayments(tx, order); err != nil {
			return err
		}
		if err := s.restoreStock(tx, order); err != nil {
			return err
		}
		if err := s.releaseTimeSlot(tx, order); err != nil {
			return err
		}
		note := DefaultCancellationNote
		if notes != nil {
			note = *notes
		}
		order.InternalNotes = &note
	}

	if notes != nil && newStatus != models.OrderStatusCancelled {
		order.InternalNotes = notes
	}
	order.Status = newStatus
	return nil
}

// capturePendingPayments force-captures every pending payment when the
// order goes ready. Authorized payments are left to the gateway's own
// capture flow.
func (s *LifecycleService) capturePendingPayments(tx *gorm.DB, order *models.Order) error {
	for i := range order.Payments {
		p := &order.Payments[i]
		if p.Status != models.PaymentStatusPending {
			continue
		}
		charge, err := s.gateway.Capture(p.TransactionID)
		if err != nil {
			return fmt.Errorf("failed to capture payment %d: %w", p.ID, err)
		}
		p.Status = models.PaymentStatusCaptured
		p.TransactionID = charge.TransactionID
		p.ProcessedAt = charge.ProcessedAt
		p.UpdatedAt = time.Now()
		if err := tx.Save(p).Error; err != nil {
			return fmt.Errorf("failed to save payment %d: %w", p.ID, err)
		}
	}
	return nil
}

// refundPayments refunds every authorized or captured payment on
// cancellation.
func (s *LifecycleService) refundPayments(tx *gorm.DB, order *models.Order) error {
	for i := range order.Payments {
		p := &order.Payments[i]
		if p.Status != models.PaymentStatusAuthorized && p.Status != models.PaymentStatusCaptured {
			continue
		}
		charge, err := s.gateway.Refund(p.TransactionID)
		if err != nil {
			return fmt.Errorf("failed to refund payment %d: %w", p.ID, err)
		}
		p.Status = models.PaymentStatusRefunded
		p.ProcessedAt = charge.ProcessedAt
		p.UpdatedAt = time.Now()
		if err := tx.Save(p).Error; err != nil {
			return fmt.Errorf("failed to save payment %d: %w", p.ID, err)
		}
	}
	return nil
}

// restoreStock puts the ordered quantities back for every stock-tracked
// dish and reopens dishes that were closed by stock running out.
func (s *LifecycleService) restoreStock(tx *gorm.DB, order *models.Order) error {
	for _, item := range order.OrderItems {
		res := tx.Model(&models.Dish{}).
			Where("id = ? AND stock_quantity IS NOT NULL", item.DishID).
			Update("stock_quantity", gorm.Expr("stock_quantity + ?", item.Quantity))
		if res.Error != nil {
			return fmt.Errorf("failed to restore stock for dish %d: %w", item.DishID, res.Error)
		}
		if res.RowsAffected == 0 {
			continue // stock not tracked
		}
		if err := tx.Model(&models.Dish{}).
			Where("id = ? AND status = ? AND stock_quantity > 0", item.DishID, models.DishStatusOutOfStock).
			Update("status", models.DishStatusAvailable).Error; err != nil {
			return fmt.Errorf("failed to reopen dish %d: %w", item.DishID, err)
		}
	}
	return nil
}

// releaseTimeSlot frees the booked capacity unit, floored at zero.
func (s *LifecycleService) releaseTimeSlot(tx *gorm.DB, order *models.Order) error {
	res := tx.Model(&models.TimeSlot{}).
		Where("id = ? AND current_bookings > 0", order.TimeSlotID).
		Update("current_bookings", gorm.Expr("current_bookings - 1"))
	if res.Error != nil {
		return fmt.Errorf("failed to release time slot %d: %w", order.TimeSlotID, res.Error)
	}
	return nil
}
