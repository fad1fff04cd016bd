package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/rifqimaulido/pickup-app/models"
	"github.com/rifqimaulido/pickup-app/utils"
)

type TimeSlotController struct {
	DB *gorm.DB
}

func NewTimeSlotController(db *gorm.DB) *TimeSlotController {
	return &TimeSlotController{DB: db}
}

// GetAllTimeSlots -> list slots, optionally for one date (YYYY-MM-DD)
func (tc *TimeSlotController) GetAllTimeSlots(c *gin.Context) {
	query := tc.DB.Order("start_time asc")
	if dateStr := c.Query("date"); dateStr != "" {
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid date, expected YYYY-MM-DD"))
			return
		}
		query = query.Where("date = ?", date)
	}

	var slots []models.TimeSlot
	if err := query.Find(&slots).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of time slots", slots)
}

// CreateTimeSlot -> staff opens a pickup window. End must be after start
// and the window must not overlap another slot on the same date.
func (tc *TimeSlotController) CreateTimeSlot(c *gin.Context) {
	type request struct {
		Date        string `json:"date" binding:"required"`       // YYYY-MM-DD
		StartTime   string `json:"start_time" binding:"required"` // HH:MM
		EndTime     string `json:"end_time" binding:"required"`   // HH:MM
		MaxCapacity int    `json:"max_capacity" binding:"required,gt=0"`
	}
	var req request
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid date, expected YYYY-MM-DD"))
		return
	}
	start, err := time.Parse("15:04", req.StartTime)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid start_time, expected HH:MM"))
		return
	}
	end, err := time.Parse("15:04", req.EndTime)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid end_time, expected HH:MM"))
		return
	}

	startAt := time.Date(date.Year(), date.Month(), date.Day(), start.Hour(), start.Minute(), 0, 0, time.Local)
	endAt := time.Date(date.Year(), date.Month(), date.Day(), end.Hour(), end.Minute(), 0, 0, time.Local)
	if !endAt.After(startAt) {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("end_time must be after start_time"))
		return
	}

	// No two slots on the same date may overlap.
	var overlapping int64
	if err := tc.DB.Model(&models.TimeSlot{}).
		Where("date = ? AND start_time < ? AND end_time > ?", date, endAt, startAt).
		Count(&overlapping).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	if overlapping > 0 {
		utils.RespondError(c, http.StatusConflict, fmt.Errorf("time slot overlaps an existing slot"))
		return
	}

	slot := models.TimeSlot{
		Date:        date,
		StartTime:   startAt,
		EndTime:     endAt,
		MaxCapacity: req.MaxCapacity,
		IsAvailable: true,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := tc.DB.Create(&slot).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Time slot created", slot)
}

// UpdateTimeSlot -> toggle availability or adjust capacity
func (tc *TimeSlotController) UpdateTimeSlot(c *gin.Context) {
	id := c.Param("slot_id")

	var slot models.TimeSlot
	if err := tc.DB.First(&slot, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	type request struct {
		MaxCapacity *int  `json:"max_capacity"`
		IsAvailable *bool `json:"is_available"`
	}
	var req request
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if req.MaxCapacity != nil {
		if *req.MaxCapacity < slot.CurrentBookings {
			utils.RespondError(c, http.StatusConflict,
				fmt.Errorf("max_capacity cannot drop below current bookings (%d)", slot.CurrentBookings))
			return
		}
		slot.MaxCapacity = *req.MaxCapacity
	}
	if req.IsAvailable != nil {
		slot.IsAvailable = *req.IsAvailable
	}
	slot.UpdatedAt = time.Now()

	if err := tc.DB.Save(&slot).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Time slot updated", slot)
}

// DeleteTimeSlot -> refused while the slot still holds bookings
func (tc *TimeSlotController) DeleteTimeSlot(c *gin.Context) {
	idStr := c.Param("slot_id")
	id, _ := strconv.Atoi(idStr)

	var slot models.TimeSlot
	if err := tc.DB.First(&slot, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	if slot.CurrentBookings > 0 {
		utils.RespondError(c, http.StatusConflict, fmt.Errorf("time slot still has bookings"))
		return
	}

	if err := tc.DB.Delete(&models.TimeSlot{}, id).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Time slot deleted", gin.H{"slot_id": id})
}
