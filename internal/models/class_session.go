package models

import "time"

// ClassSession is the local read-only copy of a catalog class. It is synced
// from the catalog service over RabbitMQ and never mutated by the booking core.
type ClassSession struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Capacity  int       `gorm:"not null" json:"capacity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Bookable reports whether the class can accept bookings at all. The catalog
// must supply a positive capacity; there is no fallback default.
func (c *ClassSession) Bookable() bool {
	return c.Capacity > 0
}
