package models

import "time"

// Payment statuses
const (
	PaymentStatusPending    = "pending"
	PaymentStatusAuthorized = "authorized"
	PaymentStatusCaptured   = "captured"
	PaymentStatusRefunded   = "refunded"
	PaymentStatusFailed     = "failed"
)

// Payment methods
const (
	PaymentMethodOnSite = "on_site"
	PaymentMethodOnline = "online"
)

// Payment represents one payment attempt for an order. An order may carry
// several rows (retried or split payments).
type Payment struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	OrderID       uint       `gorm:"not null;index" json:"order_id"`
	Order         Order      `gorm:"foreignKey:OrderID" json:"-"`
	Amount        float64    `gorm:"type:decimal(10,2);not null" json:"amount"`
	TaxAmount     float64    `gorm:"type:decimal(10,2);not null" json:"tax_amount"`
	Method        string     `gorm:"type:varchar(20);not null" json:"method"`
	Status        string     `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	TransactionID string     `gorm:"type:varchar(100)" json:"transaction_id"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
	CreatedAt     time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"not null" json:"updated_at"`
}
