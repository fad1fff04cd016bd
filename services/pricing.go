package services

import (
	"time"

	"github.com/rifqimaulido/pickup-app/models"
)

// pricedItem carries the server-side recomputed price for one order line.
// The caller-supplied price is never consulted.
type pricedItem struct {
	Dish            *models.Dish
	Variant         *models.DishVariant
	Quantity        int
	SpecialRequests string
	UnitPrice       float64
}

func (p pricedItem) lineTotal() float64 {
	return p.UnitPrice * float64(p.Quantity)
}

// unitPriceFor is dish price plus variant modifier (0 without a variant).
func unitPriceFor(dish *models.Dish, variant *models.DishVariant) float64 {
	price := dish.Price
	if variant != nil {
		price += variant.PriceModifier
	}
	return price
}

func subtotalOf(items []pricedItem) float64 {
	var subtotal float64
	for _, it := range items {
		subtotal += it.lineTotal()
	}
	return subtotal
}

// validatePromo checks every promo gate against the subtotal and returns
// the clamped discount. The usage-counter gate is re-checked with a guarded
// update at commit time; this read-side check produces the user-facing
// error before any write happens.
func validatePromo(promo *models.PromoCode, subtotal float64, now time.Time) (float64, error) {
	if !promo.IsActive {
		return 0, ErrPromoCodeInvalid
	}
	if now.Before(promo.ValidFrom) || !now.Before(promo.ValidUntil) {
		return 0, ErrPromoCodeExpired
	}
	if promo.MaxUses != nil && promo.UsedCount >= *promo.MaxUses {
		return 0, ErrPromoUsageExceeded
	}
	if promo.MinimumOrderAmount != nil && subtotal < *promo.MinimumOrderAmount {
		return 0, ErrPromoMinimumNotMet
	}
	return promo.DiscountFor(subtotal), nil
}

// applyTax returns tax and total for a discounted subtotal.
func applyTax(discountedSubtotal, taxRate float64) (taxAmount, totalAmount float64) {
	taxAmount = discountedSubtotal * taxRate
	totalAmount = discountedSubtotal + taxAmount
	return taxAmount, totalAmount
}
