package repository

import (
	"context"
	"time"

	"github.com/yagniktrivedi/ekantik-studio-sub001/internal/models"
	"gorm.io/gorm"
)

type BookingRepository interface {
	Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) error
	FindByID(ctx context.Context, tx *gorm.DB, id string) (*models.Booking, error)
	FindActiveByUserAndSlot(ctx context.Context, tx *gorm.DB, userID, classID string, slot models.SlotKey) (*models.Booking, error)
	CountByStatus(ctx context.Context, tx *gorm.DB, classID string, slot models.SlotKey, status models.BookingStatus) (int64, error)
	MaxWaitlistPosition(ctx context.Context, tx *gorm.DB, classID string, slot models.SlotKey) (int, error)
	FindFirstWaitlisted(ctx context.Context, tx *gorm.DB, classID string, slot models.SlotKey) (*models.Booking, error)
	Cancel(ctx context.Context, tx *gorm.DB, id string) error
	Promote(ctx context.Context, tx *gorm.DB, id string) error
	ShiftPositionsAfter(ctx context.Context, tx *gorm.DB, classID string, slot models.SlotKey, position int) error
	FindByUser(ctx context.Context, userID string, status *models.BookingStatus, after *time.Time) ([]models.Booking, error)
	GetDB() *gorm.DB
}

type bookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) GetDB() *gorm.DB {
	return r.db
}

func (r *bookingRepository) Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) error {
	return tx.WithContext(ctx).Create(booking).Error
}

func (r *bookingRepository) FindByID(ctx context.Context, tx *gorm.DB, id string) (*models.Booking, error) {
	var booking models.Booking
	if err := tx.WithContext(ctx).Where("id = ?", id).First(&booking).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) FindActiveByUserAndSlot(ctx context.Context, tx *gorm.DB, userID, classID string, slot models.SlotKey) (*models.Booking, error) {
	var booking models.Booking
	err := tx.WithContext(ctx).
		Where("user_id = ? AND class_id = ? AND slot_date = ? AND slot_time = ? AND status <> ?",
			userID, classID, slot.Date, slot.Time, models.StatusCancelled).
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) CountByStatus(ctx context.Context, tx *gorm.DB, classID string, slot models.SlotKey, status models.BookingStatus) (int64, error) {
	var count int64
	err := tx.WithContext(ctx).
		Model(&models.Booking{}).
		Where("class_id = ? AND slot_date = ? AND slot_time = ? AND status = ?",
			classID, slot.Date, slot.Time, status).
		Count(&count).Error
	return count, err
}

// MaxWaitlistPosition returns the highest assigned position for the slot, 0 when
// the waitlist is empty. The next enqueue takes max+1, never a cached counter.
func (r *bookingRepository) MaxWaitlistPosition(ctx context.Context, tx *gorm.DB, classID string, slot models.SlotKey) (int, error) {
	var max *int
	err := tx.WithContext(ctx).
		Model(&models.Booking{}).
		Where("class_id = ? AND slot_date = ? AND slot_time = ? AND status = ?",
			classID, slot.Date, slot.Time, models.StatusWaitlisted).
		Select("MAX(waitlist_position)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return 0, nil
	}
	return *max, nil
}

// FindFirstWaitlisted returns the lowest-position waitlisted booking for promotion.
func (r *bookingRepository) FindFirstWaitlisted(ctx context.Context, tx *gorm.DB, classID string, slot models.SlotKey) (*models.Booking, error) {
	var booking models.Booking
	err := tx.WithContext(ctx).
		Where("class_id = ? AND slot_date = ? AND slot_time = ? AND status = ?",
			classID, slot.Date, slot.Time, models.StatusWaitlisted).
		Order("waitlist_position ASC, created_at ASC").
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) Cancel(ctx context.Context, tx *gorm.DB, id string) error {
	return tx.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": models.StatusCancelled, "waitlist_position": nil}).Error
}

func (r *bookingRepository) Promote(ctx context.Context, tx *gorm.DB, id string) error {
	return tx.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": models.StatusConfirmed, "waitlist_position": nil}).Error
}

// ShiftPositionsAfter closes the gap left at the given position: every
// waitlisted booking behind it moves up by one.
func (r *bookingRepository) ShiftPositionsAfter(ctx context.Context, tx *gorm.DB, classID string, slot models.SlotKey, position int) error {
	return tx.WithContext(ctx).
		Model(&models.Booking{}).
		Where("class_id = ? AND slot_date = ? AND slot_time = ? AND status = ? AND waitlist_position > ?",
			classID, slot.Date, slot.Time, models.StatusWaitlisted, position).
		Update("waitlist_position", gorm.Expr("waitlist_position - 1")).Error
}

func (r *bookingRepository) FindByUser(ctx context.Context, userID string, status *models.BookingStatus, after *time.Time) ([]models.Booking, error) {
	var bookings []models.Booking
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	if after != nil {
		q = q.Where("slot_date > ? OR (slot_date = ? AND slot_time >= ?)",
			after.Format(models.SlotDateLayout),
			after.Format(models.SlotDateLayout),
			after.Format(models.SlotTimeLayout))
	}
	if err := q.Order("slot_date ASC, slot_time ASC, created_at ASC").Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}
