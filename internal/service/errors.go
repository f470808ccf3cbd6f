package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yagniktrivedi/ekantik-studio-sub001/internal/models"
)

var (
	ErrClassNotFound       = errors.New("class not found")
	ErrClassNotBookable    = errors.New("class has no bookable capacity")
	ErrMemberNotFound      = errors.New("member not found")
	ErrBookingNotFound     = errors.New("booking not found")
	ErrAdmissionContention = errors.New("slot is busy with other admissions, retry shortly")
)

// ValidationError names the request fields that failed validation. The caller
// must correct the input and resubmit; nothing was written.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid booking request: " + strings.Join(e.Fields, ", ")
}

// DuplicateBookingError carries the booking that already holds the slot for
// this user. It is returned with no side effects.
type DuplicateBookingError struct {
	BookingID string
	Status    models.BookingStatus
}

func (e *DuplicateBookingError) Error() string {
	return fmt.Sprintf("active booking %s already exists with status %s", e.BookingID, e.Status)
}

// InvalidStateTransitionError means the requested transition is not allowed
// from the booking's current status.
type InvalidStateTransitionError struct {
	BookingID string
	From      models.BookingStatus
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("booking %s cannot be cancelled from status %s", e.BookingID, e.From)
}
