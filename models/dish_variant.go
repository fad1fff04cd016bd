package models

import "time"

// DishVariant is a priced modification of a dish (size, add-on).
// At most one variant per dish has IsDefault = true.
type DishVariant struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	DishID        uint      `gorm:"not null;index" json:"dish_id"`
	Dish          Dish      `gorm:"foreignKey:DishID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Name          string    `gorm:"type:varchar(255);not null" json:"name"`
	PriceModifier float64   `gorm:"type:decimal(10,2);not null;default:0.00" json:"price_modifier"`
	IsDefault     bool      `gorm:"not null;default:false" json:"is_default"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null" json:"updated_at"`
}
