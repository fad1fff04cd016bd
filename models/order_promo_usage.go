package models

import "time"

// OrderPromoUsage records which promo code an order used and the discount
// that was applied at that time. DiscountApplied is a frozen snapshot and
// does not follow later promo-code edits.
type OrderPromoUsage struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	OrderID         uint      `gorm:"not null;uniqueIndex" json:"order_id"`
	PromoCodeID     uint      `gorm:"not null;index" json:"promo_code_id"`
	PromoCode       PromoCode `gorm:"foreignKey:PromoCodeID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"promo_code"`
	DiscountApplied float64   `gorm:"type:decimal(10,2);not null" json:"discount_applied"`
	CreatedAt       time.Time `gorm:"not null" json:"created_at"`
}
