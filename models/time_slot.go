package models

import "time"

// TimeSlot is a bounded pickup window with a booking capacity.
// Date is normalized to midnight; StartTime/EndTime are full timestamps on
// that date so slot resolution is a single range predicate.
type TimeSlot struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Date            time.Time `gorm:"not null;index" json:"date"`
	StartTime       time.Time `gorm:"not null" json:"start_time"`
	EndTime         time.Time `gorm:"not null" json:"end_time"`
	MaxCapacity     int       `gorm:"not null" json:"max_capacity"`
	CurrentBookings int       `gorm:"not null;default:0" json:"current_bookings"`
	IsAvailable     bool      `gorm:"not null;default:true" json:"is_available"`
	CreatedAt       time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time `gorm:"not null" json:"updated_at"`
}

// Contains reports whether the pickup time falls inside [StartTime, EndTime).
func (ts *TimeSlot) Contains(pickup time.Time) bool {
	return !pickup.Before(ts.StartTime) && pickup.Before(ts.EndTime)
}
