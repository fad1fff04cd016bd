package models

import "time"

// OrderItem is immutable once created. UnitPrice is the dish price plus the
// variant modifier captured at order time; later catalog price changes do
// not affect it.
type OrderItem struct {
	ID              uint         `gorm:"primaryKey" json:"id"`
	OrderID         uint         `gorm:"not null;index" json:"order_id"`
	Order           Order        `gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	DishID          uint         `gorm:"not null" json:"dish_id"`
	Dish            Dish         `gorm:"foreignKey:DishID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"dish"`
	VariantID       *uint        `json:"variant_id,omitempty"`
	Variant         *DishVariant `gorm:"foreignKey:VariantID" json:"variant,omitempty"`
	Quantity        int          `gorm:"not null" json:"quantity"`
	UnitPrice       float64      `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	TotalPrice      float64      `gorm:"type:decimal(10,2);not null" json:"total_price"`
	SpecialRequests string       `gorm:"type:text" json:"special_requests"`
	CreatedAt       time.Time    `gorm:"not null" json:"created_at"`
}
