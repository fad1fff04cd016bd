package services

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/rifqimaulido/pickup-app/models"
	"github.com/rifqimaulido/pickup-app/utils"
)

// CustomerInfo creates a guest Customer row alongside the order.
type CustomerInfo struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// OrderItemRequest is one prospective order line. Any client-supplied price
// is ignored; the engine recomputes unit prices from the catalog.
type OrderItemRequest struct {
	DishID          uint   `json:"dish_id" binding:"required"`
	VariantID       *uint  `json:"variant_id"`
	Quantity        int    `json:"quantity" binding:"required,gt=0"`
	SpecialRequests string `json:"special_requests"`
}

// PlaceOrderRequest is the input contract of the placement engine. Exactly
// one of CustomerInfo or UserID must be supplied.
type PlaceOrderRequest struct {
	CustomerInfo  *CustomerInfo      `json:"customer_info"`
	UserID        *uint              `json:"user_id"`
	PickupTime    time.Time          `json:"pickup_time" binding:"required"`
	Items         []OrderItemRequest `json:"items" binding:"required"`
	PromoCode     string             `json:"promo_code"`
	PaymentMethod string             `json:"payment_method"`
	SpecialNotes  string             `json:"special_notes"`
}

// OrderService is the order placement engine. It validates every
// cross-entity constraint and commits the multi-row write atomically:
// a failed placement leaves no customer row, no counter change and no
// order behind.
type OrderService struct {
	db       *gorm.DB
	gateway  PaymentGateway
	notifier Notifier
	taxRate  float64
}

func NewOrderService(db *gorm.DB, gateway PaymentGateway, notifier Notifier, taxRate float64) *OrderService {
	return &OrderService{
		db:       db,
		gateway:  gateway,
		notifier: notifier,
		taxRate:  taxRate,
	}
}

// PlaceOrder runs the full validate+commit sequence. Validation failures
// are returned as the typed errors in errors.go and never leave partial
// writes behind.
func (s *OrderService) PlaceOrder(req PlaceOrderRequest) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrNoItems
	}
	if (req.CustomerInfo == nil) == (req.UserID == nil) {
		return nil, ErrMissingIdentity
	}

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

	order, err := s.placeInTx(tx, req)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit order: %w", err)
	}

	notifyAsync(s.notifier, order, NotifyConfirmation)
	return order, nil
}

func (s *OrderService) placeInTx(tx *gorm.DB, req PlaceOrderRequest) (*models.Order, error) {
	now := time.Now()

	// Steps 1-3: load dishes/variants and recompute authoritative prices.
	items, err := s.priceItems(tx, req.Items)
	if err != nil {
		return nil, err
	}
	subtotal := subtotalOf(items)

	// Step 4: promo gates and clamped discount.
	var promo *models.PromoCode
	var discount float64
	if req.PromoCode != "" {
		var p models.PromoCode
		if err := tx.Where("code = ?", req.PromoCode).First(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrPromoCodeInvalid
			}
			return nil, fmt.Errorf("failed to load promo code: %w", err)
		}
		discount, err = validatePromo(&p, subtotal, now)
		if err != nil {
			return nil, err
		}
		promo = &p
	}

	// Step 5: taxed totals.
	taxAmount, totalAmount := applyTax(subtotal-discount, s.taxRate)

	// Step 6: resolve the pickup slot.
	slot, err := s.resolveSlot(tx, req.PickupTime)
	if err != nil {
		return nil, err
	}
	if slot.CurrentBookings >= slot.MaxCapacity {
		return nil, ErrSlotFullyBooked
	}

	// Commit phase. Counter mutations are guarded updates; a concurrent
	// placement that consumed the last unit makes the guard miss and the
	// whole transaction rolls back with the matching value error.
	var customerID *uint
	if req.CustomerInfo != nil {
		customer := models.Customer{
			Name:      req.CustomerInfo.Name,
			Email:     req.CustomerInfo.Email,
			Phone:     req.CustomerInfo.Phone,
			CreatedAt: now,
		}
		if err := tx.Create(&customer).Error; err != nil {
			return nil, fmt.Errorf("failed to create customer: %w", err)
		}
		customerID = &customer.ID
	}

	if err := s.decrementStock(tx, items); err != nil {
		return nil, err
	}

	res := tx.Model(&models.TimeSlot{}).
		Where("id = ? AND current_bookings < max_capacity", slot.ID).
		Update("current_bookings", gorm.Expr("current_bookings + 1"))
	if res.Error != nil {
		return nil, fmt.Errorf("failed to book time slot: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrSlotFullyBooked
	}

	if promo != nil {
		res := tx.Model(&models.PromoCode{}).
			Where("id = ? AND (max_uses IS NULL OR used_count < max_uses)", promo.ID).
			Update("used_count", gorm.Expr("used_count + 1"))
		if res.Error != nil {
			return nil, fmt.Errorf("failed to consume promo code: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, ErrPromoUsageExceeded
		}
	}

	orderNumber := utils.GenerateOrderNumber()
	order := models.Order{
		OrderNumber:  orderNumber,
		CustomerID:   customerID,
		UserID:       req.UserID,
		IsGuestOrder: customerID != nil,
		Status:       models.OrderStatusNew,
		TimeSlotID:   slot.ID,
		PickupTime:   req.PickupTime,
		TotalAmount:  totalAmount,
		TaxAmount:    taxAmount,
		SpecialNotes: req.SpecialNotes,
		QRCode:       utils.QRCodeFor(orderNumber),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := tx.Create(&order).Error; err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	for _, it := range items {
		orderItem := models.OrderItem{
			OrderID:         order.ID,
			DishID:          it.Dish.ID,
			Quantity:        it.Quantity,
			UnitPrice:       it.UnitPrice,
			TotalPrice:      it.lineTotal(),
			SpecialRequests: it.SpecialRequests,
			CreatedAt:       now,
		}
		if it.Variant != nil {
			orderItem.VariantID = &it.Variant.ID
		}
		if err := tx.Create(&orderItem).Error; err != nil {
			return nil, fmt.Errorf("failed to create order item: %w", err)
		}
		order.OrderItems = append(order.OrderItems, orderItem)
	}

	if promo != nil {
		usage := models.OrderPromoUsage{
			OrderID:         order.ID,
			PromoCodeID:     promo.ID,
			DiscountApplied: discount,
			CreatedAt:       now,
		}
		if err := tx.Create(&usage).Error; err != nil {
			return nil, fmt.Errorf("failed to record promo usage: %w", err)
		}
		order.PromoUsage = &usage
	}

	if req.PaymentMethod != "" {
		if err := s.authorizePayment(tx, &order, req.PaymentMethod); err != nil {
			return nil, err
		}
	}

	return &order, nil
}

// priceItems loads every dish (and variant) and recomputes unit prices
// server-side, preserving the caller's item order.
func (s *OrderService) priceItems(tx *gorm.DB, reqs []OrderItemRequest) ([]pricedItem, error) {
	items := make([]pricedItem, 0, len(reqs))
	for _, r := range reqs {
		if r.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive", ErrNoItems)
		}

		var dish models.Dish
		if err := tx.First(&dish, r.DishID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: dish %d", ErrDishNotFound, r.DishID)
			}
			return nil, fmt.Errorf("failed to load dish: %w", err)
		}
		if dish.Status != models.DishStatusAvailable {
			return nil, fmt.Errorf("%w: %s", ErrDishUnavailable, dish.Name)
		}
		if dish.StockTracked() && *dish.StockQuantity < r.Quantity {
			return nil, fmt.Errorf("%w: %s", ErrInsufficientStock, dish.Name)
		}

		var variant *models.DishVariant
		if r.VariantID != nil {
			var v models.DishVariant
			if err := tx.Where("id = ? AND dish_id = ?", *r.VariantID, dish.ID).First(&v).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, fmt.Errorf("%w: variant %d on dish %d", ErrVariantNotFound, *r.VariantID, dish.ID)
				}
				return nil, fmt.Errorf("failed to load variant: %w", err)
			}
			variant = &v
		}

		items = append(items, pricedItem{
			Dish:            &dish,
			Variant:         variant,
			Quantity:        r.Quantity,
			SpecialRequests: r.SpecialRequests,
			UnitPrice:       unitPriceFor(&dish, variant),
		})
	}

	return items, nil
}

// decrementStock applies guarded stock decrements for stock-tracked dishes
// and flips status to out_of_stock when a counter reaches zero. Items for
// the same dish are collapsed so the guard sees the combined quantity.
func (s *OrderService) decrementStock(tx *gorm.DB, items []pricedItem) error {
	type dishQty struct {
		dish *models.Dish
		qty  int
	}
	byDish := make(map[uint]*dishQty)
	order := make([]uint, 0, len(items))
	for _, it := range items {
		if !it.Dish.StockTracked() {
			continue
		}
		if dq, ok := byDish[it.Dish.ID]; ok {
			dq.qty += it.Quantity
			continue
		}
		byDish[it.Dish.ID] = &dishQty{dish: it.Dish, qty: it.Quantity}
		order = append(order, it.Dish.ID)
	}
	// Fixed mutation order (dish id ascending) so two concurrent
	// placements never update the same pair of rows in opposite order.
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	for _, id := range order {
		dq := byDish[id]
		res := tx.Model(&models.Dish{}).
			Where("id = ? AND stock_quantity IS NOT NULL AND stock_quantity >= ?", id, dq.qty).
			Update("stock_quantity", gorm.Expr("stock_quantity - ?", dq.qty))
		if res.Error != nil {
			return fmt.Errorf("failed to decrement stock: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", ErrInsufficientStock, dq.dish.Name)
		}

		if err := tx.Model(&models.Dish{}).
			Where("id = ? AND stock_quantity = 0", id).
			Update("status", models.DishStatusOutOfStock).Error; err != nil {
			return fmt.Errorf("failed to update dish status: %w", err)
		}
	}
	return nil
}

// resolveSlot finds the available slot containing the pickup time.
func (s *OrderService) resolveSlot(tx *gorm.DB, pickup time.Time) (*models.TimeSlot, error) {
	var slot models.TimeSlot
	err := tx.Where("start_time <= ? AND end_time > ? AND is_available = ?", pickup, pickup, true).
		First(&slot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoAvailableSlot
		}
		return nil, fmt.Errorf("failed to resolve time slot: %w", err)
	}
	return &slot, nil
}

// authorizePayment asks the gateway for an authorization and records the
// Payment row inside the placement transaction.
func (s *OrderService) authorizePayment(tx *gorm.DB, order *models.Order, method string) error {
	if method != models.PaymentMethodOnSite && method != models.PaymentMethodOnline {
		return fmt.Errorf("unsupported payment method %q", method)
	}

	charge, err := s.gateway.Authorize(order.OrderNumber, order.TotalAmount, order.TaxAmount, method)
	if err != nil {
		return fmt.Errorf("payment authorization failed: %w", err)
	}

	payment := models.Payment{
		OrderID:       order.ID,
		Amount:        order.TotalAmount,
		TaxAmount:     order.TaxAmount,
		Method:        method,
		Status:        charge.Status,
		TransactionID: charge.TransactionID,
		ProcessedAt:   charge.ProcessedAt,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	if err := tx.Create(&payment).Error; err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	order.Payments = append(order.Payments, payment)
	return nil
}

// GetOrderByID loads an order with its items and payments.
func (s *OrderService) GetOrderByID(id uint) (*models.Order, error) {
	var order models.Order
	err := s.db.Preload("OrderItems").Preload("Payments").Preload("PromoUsage").
		First(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// GetOrderByNumber looks an order up by order number or QR payload; staff
// use it to verify a pickup.
func (s *OrderService) GetOrderByNumber(number string) (*models.Order, error) {
	if len(number) > 3 && number[:3] == "QR-" {
		number = number[3:]
	}
	var order models.Order
	err := s.db.Preload("OrderItems").Preload("Payments").
		Where("order_number = ?", number).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}
