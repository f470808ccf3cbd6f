package models

import "time"

const (
	SlotDateLayout = "2006-01-02"
	SlotTimeLayout = "15:04:05"
)

// SlotKey identifies one concrete occurrence of a class session.
// Date is YYYY-MM-DD, Time is the canonical 24-hour HH:MM:SS form.
type SlotKey struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// Partition returns the admission partition key for this slot within a class.
// All admission decisions for the same partition are serialized; distinct
// partitions never contend.
func (k SlotKey) Partition(classID string) string {
	return classID + "|" + k.Date + "|" + k.Time
}

// StartsAt returns the wall-clock start of the slot in the given location.
func (k SlotKey) StartsAt(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(SlotDateLayout+" "+SlotTimeLayout, k.Date+" "+k.Time, loc)
}

// DisplayTime renders the canonical time in the 12-hour form shown to users,
// e.g. "18:00:00" -> "6:00 PM". Falls back to the raw value if it does not parse.
func (k SlotKey) DisplayTime() string {
	t, err := time.Parse(SlotTimeLayout, k.Time)
	if err != nil {
		return k.Time
	}
	return t.Format("3:04 PM")
}
