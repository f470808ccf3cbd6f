package models

import "time"

type BookingStatus string

const (
	StatusConfirmed  BookingStatus = "confirmed"
	StatusWaitlisted BookingStatus = "waitlisted"
	StatusCancelled  BookingStatus = "cancelled"
)

// Valid reports whether s is one of the three known statuses.
func (s BookingStatus) Valid() bool {
	switch s {
	case StatusConfirmed, StatusWaitlisted, StatusCancelled:
		return true
	}
	return false
}

// Active reports whether a booking in this status still holds or awaits a seat.
func (s BookingStatus) Active() bool {
	return s == StatusConfirmed || s == StatusWaitlisted
}

type Booking struct {
	ID               string        `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID           string        `gorm:"not null;index" json:"user_id"`
	ClassID          string        `gorm:"not null" json:"class_id"`
	SlotDate         string        `gorm:"type:varchar(10);not null" json:"slot_date"`
	SlotTime         string        `gorm:"type:varchar(8);not null" json:"slot_time"`
	Location         string        `gorm:"type:varchar(16);not null;default:'studio'" json:"location"`
	Status           BookingStatus `gorm:"type:varchar(20);not null" json:"status"`
	WaitlistPosition *int          `json:"waitlist_position,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

func (b *Booking) Slot() SlotKey {
	return SlotKey{Date: b.SlotDate, Time: b.SlotTime}
}
