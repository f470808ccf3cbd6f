package service

import (
	"strings"
	"time"

	"github.com/yagniktrivedi/ekantik-studio-sub001/internal/dto"
	"github.com/yagniktrivedi/ekantik-studio-sub001/internal/models"
)

const (
	LocationStudio = "studio"
	LocationOnline = "online"
)

// clockLayouts are the accepted time grammars, tried in order. The 24-hour
// forms must come first so "15:04" is not rejected by the 12-hour parser.
var clockLayouts = []string{
	"15:04:05",
	"15:04",
	"3:04 PM",
	"03:04 PM",
	"3:04PM",
}

// NormalizedRequest is a booking request after validation, with the time
// canonicalized to 24-hour HH:MM:SS.
type NormalizedRequest struct {
	UserID   string
	ClassID  string
	Slot     models.SlotKey
	Location string
}

// NormalizeRequest validates a raw booking request and canonicalizes its slot
// key. All failures are reported together in one ValidationError.
func NormalizeRequest(req dto.CreateBookingRequest) (NormalizedRequest, error) {
	var bad []string

	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		bad = append(bad, "user_id")
	}
	classID := strings.TrimSpace(req.ClassID)
	if classID == "" {
		bad = append(bad, "class_id")
	}

	date, err := normalizeDate(req.Date)
	if err != nil {
		bad = append(bad, "date")
	}
	clock, err := NormalizeClock(req.Time)
	if err != nil {
		bad = append(bad, "time")
	}

	location, err := normalizeLocation(req.Location)
	if err != nil {
		bad = append(bad, "location")
	}

	if len(bad) > 0 {
		return NormalizedRequest{}, &ValidationError{Fields: bad}
	}

	return NormalizedRequest{
		UserID:   userID,
		ClassID:  classID,
		Slot:     models.SlotKey{Date: date, Time: clock},
		Location: location,
	}, nil
}

func normalizeDate(raw string) (string, error) {
	t, err := time.Parse(models.SlotDateLayout, strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	return t.Format(models.SlotDateLayout), nil
}

// NormalizeClock parses a 12-hour ("h:mm AM/PM") or 24-hour ("HH:mm[:ss]")
// time and returns the canonical HH:MM:SS form.
func NormalizeClock(raw string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	var lastErr error
	for _, layout := range clockLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.Format(models.SlotTimeLayout), nil
		}
		lastErr = err
	}
	return "", lastErr
}

func normalizeLocation(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return LocationStudio, nil
	case LocationStudio:
		return LocationStudio, nil
	case LocationOnline:
		return LocationOnline, nil
	}
	return "", &ValidationError{Fields: []string{"location"}}
}
