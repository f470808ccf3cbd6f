package dto

type CreateBookingRequest struct {
	UserID   string `json:"user_id"`
	ClassID  string `json:"class_id"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Location string `json:"location,omitempty"`
}
