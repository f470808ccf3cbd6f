package dto

import (
	"time"

	"github.com/yagniktrivedi/ekantik-studio-sub001/internal/models"
)

type BookingResponse struct {
	BookingID   string               `json:"booking_id"`
	UserID      string               `json:"user_id"`
	ClassID     string               `json:"class_id"`
	Date        string               `json:"date"`
	Time        string               `json:"time"`
	TimeDisplay string               `json:"time_display"`
	Location    string               `json:"location"`
	Status      models.BookingStatus `json:"status"`
	Position    *int                 `json:"position,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
}

type CancelBookingResponse struct {
	Status   models.BookingStatus `json:"status"`
	Promoted *string              `json:"promoted"`
}

type SlotAvailabilityResponse struct {
	ClassID        string `json:"class_id"`
	ClassName      string `json:"class_name"`
	Date           string `json:"date"`
	Time           string `json:"time"`
	Capacity       int    `json:"capacity"`
	Confirmed      int64  `json:"confirmed_count"`
	Waitlisted     int64  `json:"waitlisted_count"`
	SeatsAvailable int    `json:"seats_available"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func ToBookingResponse(b *models.Booking) BookingResponse {
	return BookingResponse{
		BookingID:   b.ID,
		UserID:      b.UserID,
		ClassID:     b.ClassID,
		Date:        b.SlotDate,
		Time:        b.SlotTime,
		TimeDisplay: b.Slot().DisplayTime(),
		Location:    b.Location,
		Status:      b.Status,
		Position:    b.WaitlistPosition,
		CreatedAt:   b.CreatedAt,
	}
}
