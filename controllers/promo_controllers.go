package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/rifqimaulido/pickup-app/models"
	"github.com/rifqimaulido/pickup-app/utils"
)

type PromoController struct {
	DB *gorm.DB
}

func NewPromoController(db *gorm.DB) *PromoController {
	return &PromoController{DB: db}
}

// GetAllPromoCodes
func (pc *PromoController) GetAllPromoCodes(c *gin.Context) {
	var promos []models.PromoCode
	if err := pc.DB.Find(&promos).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of promo codes", promos)
}

// CreatePromoCode -> staff creates a discount rule. Exactly one of
// discount_percentage or discount_amount must be given.
func (pc *PromoController) CreatePromoCode(c *gin.Context) {
	type request struct {
		Code               string    `json:"code" binding:"required"`
		Description        string    `json:"description"`
		DiscountPercentage *float64  `json:"discount_percentage"`
		DiscountAmount     *float64  `json:"discount_amount"`
		MinimumOrderAmount *float64  `json:"minimum_order_amount"`
		MaxUses            *int      `json:"max_uses"`
		ValidFrom          time.Time `json:"valid_from" binding:"required"`
		ValidUntil         time.Time `json:"valid_until" binding:"required"`
	}
	var req request
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if (req.DiscountPercentage == nil) == (req.DiscountAmount == nil) {
		utils.RespondError(c, http.StatusBadRequest,
			fmt.Errorf("exactly one of discount_percentage or discount_amount must be set"))
		return
	}
	if req.DiscountPercentage != nil && (*req.DiscountPercentage <= 0 || *req.DiscountPercentage > 100) {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("discount_percentage must be in (0, 100]"))
		return
	}
	if req.DiscountAmount != nil && *req.DiscountAmount <= 0 {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("discount_amount must be positive"))
		return
	}
	if !req.ValidFrom.Before(req.ValidUntil) {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("valid_from must be before valid_until"))
		return
	}
	if req.MaxUses != nil && *req.MaxUses <= 0 {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("max_uses must be positive"))
		return
	}

	promo := models.PromoCode{
		Code:               req.Code,
		Description:        req.Description,
		DiscountPercentage: req.DiscountPercentage,
		DiscountAmount:     req.DiscountAmount,
		MinimumOrderAmount: req.MinimumOrderAmount,
		MaxUses:            req.MaxUses,
		ValidFrom:          req.ValidFrom,
		ValidUntil:         req.ValidUntil,
		IsActive:           true,
		CreatedAt:          time.Now(),
		UpdatedAt:          time.Now(),
	}
	if err := pc.DB.Create(&promo).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Promo code created", promo)
}

// SetPromoActive -> activate/deactivate a code
func (pc *PromoController) SetPromoActive(c *gin.Context) {
	id := c.Param("promo_id")

	var promo models.PromoCode
	if err := pc.DB.First(&promo, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	var req struct {
		IsActive *bool `json:"is_active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	promo.IsActive = *req.IsActive
	promo.UpdatedAt = time.Now()
	if err := pc.DB.Save(&promo).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Promo code updated", promo)
}
