package services

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rifqimaulido/pickup-app/models"
	"github.com/rifqimaulido/pickup-app/utils"
)

var testDBSeq int64

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	utils.InitLogger()

	dsn := fmt.Sprintf("file:ordersvc%d?mode=memory&cache=shared", atomic.AddInt64(&testDBSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Customer{},
		&models.Dish{},
		&models.DishVariant{},
		&models.TimeSlot{},
		&models.PromoCode{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
		&models.OrderPromoUsage{},
	)
	require.NoError(t, err)
	return db
}

// fakeGateway records gateway calls so side effects can be asserted.
type fakeGateway struct {
	authorizeCalls int
	captureCalls   int
	refundCalls    int
	authorizeErr   error
}

func (g *fakeGateway) Authorize(orderNumber string, amount, taxAmount float64, method string) (*GatewayCharge, error) {
	g.authorizeCalls++
	if g.authorizeErr != nil {
		return nil, g.authorizeErr
	}
	status := models.PaymentStatusPending
	if method == models.PaymentMethodOnline {
		status = models.PaymentStatusAuthorized
	}
	return &GatewayCharge{
		Status:        status,
		TransactionID: fmt.Sprintf("TX-%s", orderNumber),
	}, nil
}

func (g *fakeGateway) Capture(transactionID string) (*GatewayCharge, error) {
	g.captureCalls++
	now := time.Now()
	return &GatewayCharge{
		Status:        models.PaymentStatusCaptured,
		TransactionID: transactionID,
		ProcessedAt:   &now,
	}, nil
}

func (g *fakeGateway) Refund(transactionID string) (*GatewayCharge, error) {
	g.refundCalls++
	now := time.Now()
	return &GatewayCharge{
		Status:        models.PaymentStatusRefunded,
		TransactionID: transactionID,
		ProcessedAt:   &now,
	}, nil
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string     { return &v }

// seedSlot creates a slot around the given pickup time.
func seedSlot(t *testing.T, db *gorm.DB, pickup time.Time, maxCapacity, bookings int) models.TimeSlot {
	t.Helper()
	date := time.Date(pickup.Year(), pickup.Month(), pickup.Day(), 0, 0, 0, 0, pickup.Location())
	slot := models.TimeSlot{
		Date:            date,
		StartTime:       pickup.Add(-15 * time.Minute),
		EndTime:         pickup.Add(15 * time.Minute),
		MaxCapacity:     maxCapacity,
		CurrentBookings: bookings,
		IsAvailable:     true,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	require.NoError(t, db.Create(&slot).Error)
	return slot
}

func seedDish(t *testing.T, db *gorm.DB, name string, price float64, stock *int) models.Dish {
	t.Helper()
	dish := models.Dish{
		Name:          name,
		Price:         price,
		Status:        models.DishStatusAvailable,
		StockQuantity: stock,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	require.NoError(t, db.Create(&dish).Error)
	return dish
}

func newTestOrderService(db *gorm.DB) (*OrderService, *fakeGateway) {
	gw := &fakeGateway{}
	return NewOrderService(db, gw, NewLogNotifier(), 0.08), gw
}

func guestRequest(dishID uint, qty int, pickup time.Time) PlaceOrderRequest {
	return PlaceOrderRequest{
		CustomerInfo: &CustomerInfo{Name: "Ana", Email: "ana@example.com"},
		PickupTime:   pickup,
		Items: []OrderItemRequest{
			{DishID: dishID, Quantity: qty},
		},
	}
}

func TestPlaceOrder_TotalsWithoutPromo(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestOrderService(db)

	pickup := time.Now().Add(2 * time.Hour)
	seedSlot(t, db, pickup, 10, 0)
	dish := seedDish(t, db, "Nasi Goreng", 19.99, nil)

	order, err := svc.PlaceOrder(guestRequest(dish.ID, 2, pickup))
	require.NoError(t, err)

	assert.InDelta(t, 3.1984, order.TaxAmount, 1e-9)
	assert.InDelta(t, 43.1784, order.TotalAmount, 1e-9)
	assert.Equal(t, models.OrderStatusNew, order.Status)
	assert.True(t, order.IsGuestOrder)
	require.Len(t, order.OrderItems, 1)
	assert.InDelta(t, 19.99, order.OrderItems[0].UnitPrice, 1e-9)
	assert.InDelta(t, 39.98, order.OrderItems[0].TotalPrice, 1e-9)
	assert.Contains(t, order.OrderNumber, "ORD-")
	assert.Equal(t, "QR-"+order.OrderNumber, order.QRCode)
}

func TestPlaceOrder_PercentagePromo(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestOrderService(db)

	pickup := time.Now().Add(2 * time.Hour)
	seedSlot(t, db, pickup, 10, 0)
	dish := seedDish(t, db, "Nasi Goreng", 19.99, nil)

	promo := models.PromoCode{
		Code:               "SAVE20",
		DiscountPercentage: floatPtr(20),
		ValidFrom:          time.Now().Add(-time.Hour),
		ValidUntil:         time.Now().Add(time.Hour),
		IsActive:           true,
		CreatedAt:          time.Now(),
		UpdatedAt:          time.Now(),
	}
	require.NoError(t, db.Create(&promo).Error)

	req := guestRequest(dish.ID, 2, pickup)
	req.PromoCode = "SAVE20"
	order, err := svc.PlaceOrder(req)
	require.NoError(t, err)

	// subtotal 39.98, discount 7.996, tax 2.55872
	assert.InDelta(t, 34.54272, order.TotalAmount, 1e-9)
	assert.InDelta(t, 2.55872, order.TaxAmount, 1e-9)

	require.NotNil(t, order.PromoUsage)
	assert.InDelta(t, 7.996, order.PromoUsage.DiscountApplied, 1e-9)

	var reloaded models.PromoCode
	require.NoError(t, db.First(&reloaded, promo.ID).Error)
	assert.Equal(t, 1, reloaded.UsedCount)
}

func TestPlaceOrder_FixedDiscountClampedToSubtotal(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestOrderService(db)

	pickup := time.Now().Add(2 * time.Hour)
	seedSlot(t, db, pickup, 10, 0)
	dish := seedDish(t, db, "Platter", 50, nil)

	promo := models.PromoCode{
		Code:           "BIGOFF",
		DiscountAmount: floatPtr(150),
		ValidFrom:      time.Now().Add(-time.Hour),
		ValidUntil:     time.Now().Add(time.Hour),
		IsActive:       true,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	require.NoError(t, db.Create(&promo).Error)

	req := guestRequest(dish.ID, 2, pickup) // subtotal 100
	req.PromoCode = "BIGOFF"
	order, err := svc.PlaceOrder(req)
	require.NoError(t, err)

	assert.InDelta(t, 0, order.TotalAmount, 1e-9)
	assert.InDelta(t, 0, order.TaxAmount, 1e-9)
	require.NotNil(t, order.PromoUsage)
	assert.InDelta(t, 100, order.PromoUsage.DiscountApplied, 1e-9)
}

func TestPlaceOrder_PromoGates(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestOrderService(db)

	pickup := time.Now().Add(2 * time.Hour)
	seedSlot(t, db, pickup, 10, 0)
	dish := seedDish(t, db, "Soup", 10, nil)

	promos := []models.PromoCode{
		{Code: "INACTIVE", DiscountAmount: floatPtr(5), ValidFrom: time.Now().Add(-time.Hour), ValidUntil: time.Now().Add(time.Hour), IsActive: false},
		{Code: "EXPIRED", DiscountAmount: floatPtr(5), ValidFrom: time.Now().Add(-2 * time.Hour), ValidUntil: time.Now().Add(-time.Hour), IsActive: true},
		{Code: "EXHAUSTED", DiscountAmount: floatPtr(5), MaxUses: intPtr(1), UsedCount: 1, ValidFrom: time.Now().Add(-time.Hour), ValidUntil: time.Now().Add(time.Hour), IsActive: true},
		{Code: "MINIMUM", DiscountAmount: floatPtr(5), MinimumOrderAmount: floatPtr(500), ValidFrom: time.Now().Add(-time.Hour), ValidUntil: time.Now().Add(time.Hour), IsActive: true},
	}
	for i := range promos {
		require.NoError(t, db.Create(&promos[i]).Error)
	}

	cases := []struct {
		code    string
		wantErr error
	}{
		{"MISSING", ErrPromoCodeInvalid},
		{"INACTIVE", ErrPromoCodeInvalid},
		{"EXPIRED", ErrPromoCodeExpired},
		{"EXHAUSTED", ErrPromoUsageExceeded},
		{"MINIMUM", ErrPromoMinimumNotMet},
	}
	for _, tc := range cases {
		req := guestRequest(dish.ID, 1, pickup)
		req.PromoCode = tc.code
		_, err := svc.PlaceOrder(req)
		assert.ErrorIs(t, err, tc.wantErr, "code %s", tc.code)
	}

	var orderCount int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orderCount).Error)
	assert.Zero(t, orderCount)
}

func TestPlaceOrder_StockDecrementAndOutOfStock(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestOrderService(db)

	pickup := time.Now().Add(2 * time.Hour)
	seedSlot(t, db, pickup, 10, 0)
	dish := seedDish(t, db, "Limited Dish", 12.5, intPtr(3))

	_, err := svc.PlaceOrder(guestRequest(dish.ID, 2, pickup))
	require.NoError(t, err)

	var reloaded models.Dish
	require.NoError(t, db.First(&reloaded, dish.ID).Error)
	require.NotNil(t, reloaded.StockQuantity)
	assert.Equal(t, 1, *reloaded.StockQuantity)
	assert.Equal(t, models.DishStatusAvailable, reloaded.Status)

	// Second order drains the stock exactly to zero.
	_, err = svc.PlaceOrder(guestRequest(dish.ID, 1, pickup))
	require.NoError(t, err)

	require.NoError(t, db.First(&reloaded, dish.ID).Error)
	assert.Equal(t, 0, *reloaded.StockQuantity)
	assert.Equal(t, models.DishStatusOutOfStock, reloaded.Status)
}

func TestPlaceOrder_InsufficientStock(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestOrderService(db)

	pickup := time.Now().Add(2 * time.Hour)
	slot := seedSlot(t, db, pickup, 10, 0)
	dish := seedDish(t, db, "Limited Dish", 12.5, intPtr(1))

	_, err := svc.PlaceOrder(guestRequest(dish.ID, 2, pickup))
	assert.ErrorIs(t, err, ErrInsufficientStock)

	var reloadedDish models.Dish
	require.NoError(t, db.First(&reloadedDish, dish.ID).Error)
	assert.Equal(t, 1, *reloadedDish.StockQuantity)

	var reloadedSlot models.TimeSlot
	require.NoError(t, db.First(&reloadedSlot, slot.ID).Error)
	assert.Equal(t, 0, reloadedSlot.CurrentBookings)
}

func TestPlaceOrder_DishValidation(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestOrderService(db)

	pickup := time.Now().Add(2 * time.Hour)
	seedSlot(t, db, pickup, 10, 0)

	_, err := svc.PlaceOrder(guestRequest(999, 1, pickup))
	assert.ErrorIs(t, err, ErrDishNotFound)

	unavailable := seedDish(t, db, "Off Menu", 9, nil)
	require.NoError(t, db.Model(&models.Dish{}).Where("id = ?", unavailable.ID).
		Update("status", models.DishStatusUnavailable).Error)

	_, err = svc.PlaceOrder(guestRequest(unavailable.ID, 1, pickup))
	assert.ErrorIs(t, err, ErrDishUnavailable)
}

func TestPlaceOrder_VariantPricing(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestOrderService(db)

	pickup := time.Now().Add(2 * time.Hour)
	seedSlot(t, db, pickup, 10, 0)
	dish := seedDish(t, db, "Coffee", 4, nil)
	other := seedDish(t, db, "Tea", 3, nil)

	variant := models.DishVariant{
		DishID:        dish.ID,
		Name:          "Large",
		PriceModifier: 1.5,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	require.NoError(t, db.Create(&variant).Error)

	req := guestRequest(dish.ID, 2, pickup)
	req.Items[0].VariantID = &variant.ID
	order, err := svc.PlaceOrder(req)
	require.NoError(t, err)

	require.Len(t, order.OrderItems, 1)
	assert.InDelta(t, 5.5, order.OrderItems[0].UnitPrice, 1e-9)
	assert.InDelta(t, 11, order.OrderItems[0].TotalPrice, 1e-9)

	// The variant must belong to the ordered dish.
	req = guestRequest(other.ID, 1, pickup)
	req.Items[0].VariantID = &variant.ID
	_, err = svc.PlaceOrder(req)
	assert.ErrorIs(t, err, ErrVariantNotFound)
}

func TestPlaceOrder_SlotResolution(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestOrderService(db)

	pickup := time.Now().Add(2 * time.Hour)
	dish := seedDish(t, db, "Burger", 8, nil)

	_, err := svc.PlaceOrder(guestRequest(dish.ID, 1, pickup))
	assert.ErrorIs(t, err, ErrNoAvailableSlot)

	slot := seedSlot(t, db, pickup, 5, 0)
	order, err := svc.PlaceOrder(guestRequest(dish.ID, 1, pickup))
	require.NoError(t, err)
	assert.Equal(t, slot.ID, order.TimeSlotID)

	var reloaded models.TimeSlot
	require.NoError(t, db.First(&reloaded, slot.ID).Error)
	assert.Equal(t, 1, reloaded.CurrentBookings)
}

func TestPlaceOrder_SlotFullyBooked(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestOrderService(db)

	pickup := time.Now().Add(2 * time.Hour)
	slot := seedSlot(t, db, pickup, 2, 2)
	dish := seedDish(t, db, "Burger", 8, intPtr(10))

	_, err := svc.PlaceOrder(guestRequest(dish.ID, 1, pickup))
	assert.ErrorIs(t, err, ErrSlotFullyBooked)

	// Nothing moved: no customer row, stock untouched, bookings unchanged.
	var customerCount int64
	require.NoError(t, db.Model(&models.Customer{}).Count(&customerCount).Error)
	assert.Zero(t, customerCount)

	var reloadedDish models.Dish
	require.NoError(t, db.First(&reloadedDish, dish.ID).Error)
	assert.Equal(t, 10, *reloadedDish.StockQuantity)

	var reloadedSlot models.TimeSlot
	require.NoError(t, db.First(&reloadedSlot, slot.ID).Error)
	assert.Equal(t, 2, reloadedSlot.CurrentBookings)
}

func TestPlaceOrder_UnavailableSlotIsSkipped(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestOrderService(db)

	pickup := time.Now().Add(2 * time.Hour)
	slot := seedSlot(t, db, pickup, 5, 0)
	require.NoError(t, db.Model(&models.TimeSlot{}).Where("id = ?", slot.ID).
		Update("is_available", false).Error)
	dish := seedDish(t, db, "Burger", 8, nil)

	_, err := svc.PlaceOrder(guestRequest(dish.ID, 1, pickup))
	assert.ErrorIs(t, err, ErrNoAvailableSlot)
}

func TestPlaceOrder_IdentityContract(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestOrderService(db)

	pickup := time.Now().Add(2 * time.Hour)
	seedSlot(t, db, pickup, 10, 0)
	dish := seedDish(t, db, "Burger", 8, nil)

	// Neither identity.
	req := PlaceOrderRequest{
		PickupTime: pickup,
		Items:      []OrderItemRequest{{DishID: dish.ID, Quantity: 1}},
	}
	_, err := svc.PlaceOrder(req)
	assert.ErrorIs(t, err, ErrMissingIdentity)

	// Both identities.
	user := models.User{Name: "Staff", Email: "staff@example.com", Password: "x", Role: "staff"}
	require.NoError(t, db.Create(&user).Error)
	req.CustomerInfo = &CustomerInfo{Name: "Ana"}
	req.UserID = &user.ID
	_, err = svc.PlaceOrder(req)
	assert.ErrorIs(t, err, ErrMissingIdentity)

	// Registered order carries the user id and no customer row.
	req.CustomerInfo = nil
	order, err := svc.PlaceOrder(req)
	require.NoError(t, err)
	assert.False(t, order.IsGuestOrder)
	require.NotNil(t, order.UserID)
	assert.Equal(t, user.ID, *order.UserID)

	var customerCount int64
	require.NoError(t, db.Model(&models.Customer{}).Count(&customerCount).Error)
	assert.Zero(t, customerCount)
}

func TestPlaceOrder_EmptyItems(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestOrderService(db)

	_, err := svc.PlaceOrder(PlaceOrderRequest{
		CustomerInfo: &CustomerInfo{Name: "Ana"},
		PickupTime:   time.Now().Add(time.Hour),
	})
	assert.ErrorIs(t, err, ErrNoItems)
}

func TestPlaceOrder_AuthorizesPayment(t *testing.T) {
	db := setupTestDB(t)
	svc, gw := newTestOrderService(db)

	pickup := time.Now().Add(2 * time.Hour)
	seedSlot(t, db, pickup, 10, 0)
	dish := seedDish(t, db, "Burger", 8, nil)

	req := guestRequest(dish.ID, 1, pickup)
	req.PaymentMethod = models.PaymentMethodOnSite
	order, err := svc.PlaceOrder(req)
	require.NoError(t, err)

	assert.Equal(t, 1, gw.authorizeCalls)
	require.Len(t, order.Payments, 1)
	assert.Equal(t, models.PaymentStatusPending, order.Payments[0].Status)
	assert.InDelta(t, order.TotalAmount, order.Payments[0].Amount, 1e-9)
}

func TestPlaceOrder_GatewayFailureRollsBack(t *testing.T) {
	db := setupTestDB(t)
	svc, gw := newTestOrderService(db)
	gw.authorizeErr = fmt.Errorf("gateway offline")

	pickup := time.Now().Add(2 * time.Hour)
	slot := seedSlot(t, db, pickup, 10, 0)
	dish := seedDish(t, db, "Burger", 8, intPtr(5))

	req := guestRequest(dish.ID, 1, pickup)
	req.PaymentMethod = models.PaymentMethodOnline
	_, err := svc.PlaceOrder(req)
	require.Error(t, err)

	var orderCount, customerCount int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orderCount).Error)
	require.NoError(t, db.Model(&models.Customer{}).Count(&customerCount).Error)
	assert.Zero(t, orderCount)
	assert.Zero(t, customerCount)

	var reloadedSlot models.TimeSlot
	require.NoError(t, db.First(&reloadedSlot, slot.ID).Error)
	assert.Equal(t, 0, reloadedSlot.CurrentBookings)

	var reloadedDish models.Dish
	require.NoError(t, db.First(&reloadedDish, dish.ID).Error)
	assert.Equal(t, 5, *reloadedDish.StockQuantity)
}

func TestGetOrderByNumber(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestOrderService(db)

	pickup := time.Now().Add(2 * time.Hour)
	seedSlot(t, db, pickup, 10, 0)
	dish := seedDish(t, db, "Burger", 8, nil)

	order, err := svc.PlaceOrder(guestRequest(dish.ID, 1, pickup))
	require.NoError(t, err)

	found, err := svc.GetOrderByNumber(order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)

	// The QR payload resolves to the same order.
	found, err = svc.GetOrderByNumber(order.QRCode)
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)

	_, err = svc.GetOrderByNumber("ORD-0-zzzzzz")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
