package models

import "time"

// PromoCode is a discount rule. Exactly one of DiscountPercentage or
// DiscountAmount is set, enforced at creation time.
type PromoCode struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	Code               string     `gorm:"type:varchar(50);unique;not null" json:"code"`
	Description        string     `gorm:"type:text" json:"description"`
	DiscountPercentage *float64   `gorm:"type:decimal(5,2)" json:"discount_percentage,omitempty"`
	DiscountAmount     *float64   `gorm:"type:decimal(10,2)" json:"discount_amount,omitempty"`
	MinimumOrderAmount *float64   `gorm:"type:decimal(10,2)" json:"minimum_order_amount,omitempty"`
	MaxUses            *int       `json:"max_uses,omitempty"`
	UsedCount          int        `gorm:"not null;default:0" json:"used_count"`
	ValidFrom          time.Time  `gorm:"not null" json:"valid_from"`
	ValidUntil         time.Time  `gorm:"not null" json:"valid_until"`
	IsActive           bool       `gorm:"not null;default:true" json:"is_active"`
	CreatedAt          time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"not null" json:"updated_at"`
}

// DiscountFor computes the discount for a subtotal, clamped so it never
// exceeds the subtotal.
func (p *PromoCode) DiscountFor(subtotal float64) float64 {
	var discount float64
	if p.DiscountPercentage != nil {
		discount = subtotal * (*p.DiscountPercentage / 100)
	} else if p.DiscountAmount != nil {
		discount = *p.DiscountAmount
	}
	if discount > subtotal {
		discount = subtotal
	}
	return discount
}
