package models

import (
	"fmt"
	"time"
)

// Order statuses
const (
	OrderStatusNew       = "new"
	OrderStatusPreparing = "preparing"
	OrderStatusReady     = "ready"
	OrderStatusPickedUp  = "picked_up"
	OrderStatusCancelled = "cancelled"
)

type Order struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	OrderNumber string `gorm:"type:varchar(50);unique;not null" json:"order_number"`
	// Exactly one of CustomerID (guest) or UserID (registered) is set.
	CustomerID    *uint            `gorm:"index" json:"customer_id,omitempty"`
	Customer      *Customer        `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	UserID        *uint            `gorm:"index" json:"user_id,omitempty"`
	User          *User            `gorm:"foreignKey:UserID" json:"user,omitempty"`
	IsGuestOrder  bool             `gorm:"not null" json:"is_guest_order"`
	Status        string           `gorm:"type:varchar(20);not null;default:'new'" json:"status"`
	TimeSlotID    uint             `gorm:"not null;index" json:"time_slot_id"`
	TimeSlot      TimeSlot         `gorm:"foreignKey:TimeSlotID" json:"time_slot"`
	PickupTime    time.Time        `gorm:"not null" json:"pickup_time"`
	TotalAmount   float64          `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	TaxAmount     float64          `gorm:"type:decimal(10,2);not null" json:"tax_amount"`
	SpecialNotes  string           `gorm:"type:text" json:"special_notes"`
	InternalNotes *string          `gorm:"type:text" json:"internal_notes,omitempty"`
	QRCode        string           `gorm:"type:varchar(60);not null" json:"qr_code"`
	OrderItems    []OrderItem      `gorm:"foreignKey:OrderID" json:"order_items"`
	Payments      []Payment        `gorm:"foreignKey:OrderID" json:"payments,omitempty"`
	PromoUsage    *OrderPromoUsage `gorm:"foreignKey:OrderID" json:"promo_usage,omitempty"`
	CreatedAt     time.Time        `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time        `gorm:"not null" json:"updated_at"`
}

// IsTerminal reports whether the order is in a terminal status.
func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusPickedUp || o.Status == OrderStatusCancelled
}

// CustomerLabel returns a short identifier for notification payloads.
func (o *Order) CustomerLabel() string {
	if o.IsGuestOrder && o.CustomerID != nil {
		return fmt.Sprintf("GUEST-%d", *o.CustomerID)
	}
	if o.UserID != nil {
		return fmt.Sprintf("USER-%d", *o.UserID)
	}
	return o.OrderNumber
}
