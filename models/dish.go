package models

import "time"

// Dish statuses
const (
	DishStatusAvailable   = "available"
	DishStatusUnavailable = "unavailable"
	DishStatusOutOfStock  = "out_of_stock"
)

type Dish struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	Name        string  `gorm:"type:varchar(255);not null" json:"name"`
	Description string  `gorm:"type:text" json:"description"`
	Price       float64 `gorm:"type:decimal(10,2);not null" json:"price"`
	Status      string  `gorm:"type:varchar(20);not null;default:'available'" json:"status"`
	// StockQuantity nil = unlimited (stock not tracked for this dish)
	StockQuantity  *int          `json:"stock_quantity"`
	StockThreshold *int          `json:"stock_threshold,omitempty"`
	Variants       []DishVariant `gorm:"foreignKey:DishID" json:"variants,omitempty"`
	CreatedAt      time.Time     `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"not null" json:"updated_at"`
}

// StockTracked reports whether the dish keeps a stock counter.
func (d *Dish) StockTracked() bool {
	return d.StockQuantity != nil
}
