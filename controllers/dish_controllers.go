package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/rifqimaulido/pickup-app/models"
	"github.com/rifqimaulido/pickup-app/utils"
)

type DishController struct {
	DB *gorm.DB
}

func NewDishController(db *gorm.DB) *DishController {
	return &DishController{DB: db}
}

// GetAllDishes -> list dishes with variants
func (dc *DishController) GetAllDishes(c *gin.Context) {
	var dishes []models.Dish
	query := dc.DB.Preload("Variants")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Find(&dishes).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of dishes", dishes)
}

// GetDishByID -> detail of one dish
func (dc *DishController) GetDishByID(c *gin.Context) {
	id := c.Param("dish_id")

	var dish models.Dish
	if err := dc.DB.Preload("Variants").First(&dish, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Dish detail", dish)
}

// CreateDish -> staff adds a dish
func (dc *DishController) CreateDish(c *gin.Context) {
	type request struct {
		Name           string  `json:"name" binding:"required"`
		Description    string  `json:"description"`
		Price          float64 `json:"price" binding:"required,gt=0"`
		StockQuantity  *int    `json:"stock_quantity"`
		StockThreshold *int    `json:"stock_threshold"`
	}
	var req request
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if req.StockQuantity != nil && *req.StockQuantity < 0 {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("stock_quantity must not be negative"))
		return
	}

	status := models.DishStatusAvailable
	if req.StockQuantity != nil && *req.StockQuantity == 0 {
		status = models.DishStatusOutOfStock
	}

	dish := models.Dish{
		Name:           req.Name,
		Description:    req.Description,
		Price:          req.Price,
		Status:         status,
		StockQuantity:  req.StockQuantity,
		StockThreshold: req.StockThreshold,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	if err := dc.DB.Create(&dish).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Dish created", dish)
}

// UpdateDish -> staff edits name/description/price/status
func (dc *DishController) UpdateDish(c *gin.Context) {
	id := c.Param("dish_id")

	var dish models.Dish
	if err := dc.DB.First(&dish, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	type request struct {
		Name        *string  `json:"name"`
		Description *string  `json:"description"`
		Price       *float64 `json:"price"`
		Status      *string  `json:"status"`
	}
	var req request
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if req.Name != nil {
		dish.Name = *req.Name
	}
	if req.Description != nil {
		dish.Description = *req.Description
	}
	if req.Price != nil {
		if *req.Price <= 0 {
			utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("price must be positive"))
			return
		}
		dish.Price = *req.Price
	}
	if req.Status != nil {
		dish.Status = *req.Status
	}
	dish.UpdatedAt = time.Now()

	if err := dc.DB.Save(&dish).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Dish updated", dish)
}

// UpdateStock -> set the stock counter; status follows the counter unless
// the request pins one explicitly
func (dc *DishController) UpdateStock(c *gin.Context) {
	id := c.Param("dish_id")

	var dish models.Dish
	if err := dc.DB.First(&dish, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	type request struct {
		StockQuantity *int    `json:"stock_quantity"`
		Unlimited     bool    `json:"unlimited"`
		Status        *string `json:"status"`
	}
	var req request
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if req.StockQuantity != nil && *req.StockQuantity < 0 {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("stock_quantity must not be negative"))
		return
	}

	// An absent stock_quantity leaves the counter alone; untracking is an
	// explicit request.
	switch {
	case req.Unlimited:
		dish.StockQuantity = nil
	case req.StockQuantity != nil:
		dish.StockQuantity = req.StockQuantity
	}
	switch {
	case req.Status != nil:
		dish.Status = *req.Status
	case req.StockQuantity != nil && *req.StockQuantity == 0:
		dish.Status = models.DishStatusOutOfStock
	case (req.Unlimited || req.StockQuantity != nil) && dish.Status == models.DishStatusOutOfStock:
		dish.Status = models.DishStatusAvailable
	}
	dish.UpdatedAt = time.Now()

	if err := dc.DB.Save(&dish).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Stock updated", dish)
}

// DeleteDish -> refused while any order item references the dish
func (dc *DishController) DeleteDish(c *gin.Context) {
	idStr := c.Param("dish_id")
	id, _ := strconv.Atoi(idStr)

	var count int64
	if err := dc.DB.Model(&models.OrderItem{}).Where("dish_id = ?", id).Count(&count).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	if count > 0 {
		utils.RespondError(c, http.StatusConflict, fmt.Errorf("dish is referenced by existing orders"))
		return
	}

	if err := dc.DB.Delete(&models.Dish{}, id).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Dish deleted", gin.H{"dish_id": id})
}

// CreateVariant -> add a variant; setting is_default atomically unsets the
// previous default
func (dc *DishController) CreateVariant(c *gin.Context) {
	dishID, err := strconv.Atoi(c.Param("dish_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid dish id"))
		return
	}

	var dish models.Dish
	if err := dc.DB.First(&dish, dishID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	type request struct {
		Name          string  `json:"name" binding:"required"`
		PriceModifier float64 `json:"price_modifier"`
		IsDefault     bool    `json:"is_default"`
	}
	var req request
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	variant := models.DishVariant{
		DishID:        dish.ID,
		Name:          req.Name,
		PriceModifier: req.PriceModifier,
		IsDefault:     req.IsDefault,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}

	tx := dc.DB.Begin()
	if req.IsDefault {
		if err := tx.Model(&models.DishVariant{}).
			Where("dish_id = ? AND is_default = ?", dish.ID, true).
			Update("is_default", false).Error; err != nil {
			tx.Rollback()
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
	}
	if err := tx.Create(&variant).Error; err != nil {
		tx.Rollback()
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	if err := tx.Commit().Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Variant created", variant)
}

// UpdateVariant -> edit a variant's name or price modifier
func (dc *DishController) UpdateVariant(c *gin.Context) {
	dishID := c.Param("dish_id")
	variantID := c.Param("variant_id")

	var variant models.DishVariant
	if err := dc.DB.Where("id = ? AND dish_id = ?", variantID, dishID).First(&variant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondError(c, http.StatusNotFound, fmt.Errorf("variant not found for dish"))
			return
		}
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	type request struct {
		Name          *string  `json:"name"`
		PriceModifier *float64 `json:"price_modifier"`
	}
	var req request
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if req.Name != nil {
		variant.Name = *req.Name
	}
	if req.PriceModifier != nil {
		variant.PriceModifier = *req.PriceModifier
	}
	variant.UpdatedAt = time.Now()

	if err := dc.DB.Save(&variant).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Variant updated", variant)
}

// SetDefaultVariant -> swap the default flag in one transaction
func (dc *DishController) SetDefaultVariant(c *gin.Context) {
	dishID, err := strconv.Atoi(c.Param("dish_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid dish id"))
		return
	}
	variantID, err := strconv.Atoi(c.Param("variant_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid variant id"))
		return
	}

	var variant models.DishVariant
	if err := dc.DB.Where("id = ? AND dish_id = ?", variantID, dishID).First(&variant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondError(c, http.StatusNotFound, fmt.Errorf("variant not found for dish"))
			return
		}
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	tx := dc.DB.Begin()
	if err := tx.Model(&models.DishVariant{}).
		Where("dish_id = ? AND is_default = ?", dishID, true).
		Update("is_default", false).Error; err != nil {
		tx.Rollback()
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	if err := tx.Model(&models.DishVariant{}).
		Where("id = ?", variantID).
		Update("is_default", true).Error; err != nil {
		tx.Rollback()
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	if err := tx.Commit().Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	variant.IsDefault = true
	utils.RespondJSON(c, http.StatusOK, "Default variant updated", variant)
}

// DeleteVariant
func (dc *DishController) DeleteVariant(c *gin.Context) {
	dishID := c.Param("dish_id")
	variantID := c.Param("variant_id")

	res := dc.DB.Where("id = ? AND dish_id = ?", variantID, dishID).Delete(&models.DishVariant{})
	if res.Error != nil {
		utils.RespondError(c, http.StatusInternalServerError, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("variant not found for dish"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Variant deleted", gin.H{"variant_id": variantID})
}
