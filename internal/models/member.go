package models

import "time"

// Member is the local read-only copy of a studio member, synced from the
// member directory over RabbitMQ. Only existence matters to the booking core.
type Member struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
