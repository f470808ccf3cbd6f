package database

import (
	"log"

	"github.com/yagniktrivedi/ekantik-studio-sub001/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewPostgresDB(dsn string) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.ClassSession{}, &models.Member{}, &models.Booking{}); err != nil {
		log.Fatalf("failed to auto-migrate: %v", err)
	}

	// Partial unique index: at most one active booking per user and slot key.
	// Backstops the in-transaction duplicate check.
	db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_booking_active
		ON bookings (user_id, class_id, slot_date, slot_time)
		WHERE status <> 'cancelled'
	`)

	// Admission counts and waitlist scans are all per slot key.
	db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_booking_slot
		ON bookings (class_id, slot_date, slot_time, status)
	`)

	return db
}
