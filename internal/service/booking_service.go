package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yagniktrivedi/ekantik-studio-sub001/internal/cache"
	"github.com/yagniktrivedi/ekantik-studio-sub001/internal/dto"
	"github.com/yagniktrivedi/ekantik-studio-sub001/internal/metrics"
	"github.com/yagniktrivedi/ekantik-studio-sub001/internal/models"
	"github.com/yagniktrivedi/ekantik-studio-sub001/internal/repository"
	"gorm.io/gorm"
)

// EventPublisher emits booking lifecycle events for external collaborators
// (the notification service, the CRM). A nil publisher disables publishing.
type EventPublisher interface {
	Publish(routingKey string, payload any) error
}

type BookingService interface {
	CreateBooking(ctx context.Context, req dto.CreateBookingRequest) (*models.Booking, error)
	CancelBooking(ctx context.Context, bookingID string) (cancelled, promoted *models.Booking, err error)
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	ListBookings(ctx context.Context, userID string, status *models.BookingStatus, upcoming bool) ([]models.Booking, error)
	SlotAvailability(ctx context.Context, classID, date, clock string) (*dto.SlotAvailabilityResponse, error)
}

type bookingService struct {
	bookings    repository.BookingRepository
	classes     repository.ClassRepository
	members     repository.MemberRepository
	publisher   EventPublisher
	availCache  *cache.AvailabilityCache
	lockTimeout time.Duration
	log         zerolog.Logger
}

func NewBookingService(
	bookings repository.BookingRepository,
	classes repository.ClassRepository,
	members repository.MemberRepository,
	publisher EventPublisher,
	availCache *cache.AvailabilityCache,
	lockTimeout time.Duration,
	log zerolog.Logger,
) BookingService {
	return &bookingService{
		bookings:    bookings,
		classes:     classes,
		members:     members,
		publisher:   publisher,
		availCache:  availCache,
		lockTimeout: lockTimeout,
		log:         log,
	}
}

// CreateBooking admits a booking request against the slot's capacity. The
// duplicate check, the capacity count and the insert run inside one
// transaction that holds the slot partition's advisory lock, so no two
// admission decisions for the same slot key can interleave.
func (s *bookingService) CreateBooking(ctx context.Context, req dto.CreateBookingRequest) (*models.Booking, error) {
	norm, err := NormalizeRequest(req)
	if err != nil {
		return nil, err
	}

	ok, err := s.members.Exists(ctx, norm.UserID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrMemberNotFound
	}

	class, err := s.classes.FindByID(ctx, norm.ClassID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClassNotFound
		}
		return nil, err
	}
	if !class.Bookable() {
		return nil, ErrClassNotBookable
	}

	var result *models.Booking
	err = s.bookings.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.AcquireSlotLock(tx, norm.Slot.Partition(norm.ClassID), s.lockTimeout); err != nil {
			if errors.Is(err, repository.ErrSlotLockTimeout) {
				return ErrAdmissionContention
			}
			return err
		}

		existing, err := s.bookings.FindActiveByUserAndSlot(ctx, tx, norm.UserID, norm.ClassID, norm.Slot)
		if err == nil {
			return &DuplicateBookingError{BookingID: existing.ID, Status: existing.Status}
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		confirmed, err := s.bookings.CountByStatus(ctx, tx, norm.ClassID, norm.Slot, models.StatusConfirmed)
		if err != nil {
			return err
		}

		booking := &models.Booking{
			ID:       uuid.NewString(),
			UserID:   norm.UserID,
			ClassID:  norm.ClassID,
			SlotDate: norm.Slot.Date,
			SlotTime: norm.Slot.Time,
			Location: norm.Location,
			Status:   models.StatusConfirmed,
		}
		if confirmed >= int64(class.Capacity) {
			maxPos, err := s.bookings.MaxWaitlistPosition(ctx, tx, norm.ClassID, norm.Slot)
			if err != nil {
				return err
			}
			pos := maxPos + 1
			booking.Status = models.StatusWaitlisted
			booking.WaitlistPosition = &pos
		}

		if err := s.bookings.Create(ctx, tx, booking); err != nil {
			return err
		}
		result = booking
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrAdmissionContention) {
			metrics.IncContention()
		}
		return nil, err
	}

	metrics.IncAdmission(string(result.Status))
	s.availCache.Invalidate(ctx, norm.Slot.Partition(norm.ClassID))
	s.publish("booking."+string(result.Status), result)
	s.log.Info().
		Str("booking_id", result.ID).
		Str("user_id", result.UserID).
		Str("class_id", result.ClassID).
		Str("slot", norm.Slot.Partition(norm.ClassID)).
		Str("status", string(result.Status)).
		Msg("booking admitted")
	return result, nil
}

// CancelBooking transitions an active booking to cancelled. Cancelling a
// confirmed booking promotes the lowest-position waitlisted booking, if any,
// within the same transaction; cancelling a waitlisted booking closes the gap
// it leaves in the queue. Either way the slot's waitlist positions stay
// contiguous from 1 and no intermediate state is visible outside the
// transaction.
func (s *bookingService) CancelBooking(ctx context.Context, bookingID string) (*models.Booking, *models.Booking, error) {
	var cancelled, promoted *models.Booking
	err := s.bookings.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		booking, err := s.bookings.FindByID(ctx, tx, bookingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookingNotFound
			}
			return err
		}

		if err := repository.AcquireSlotLock(tx, booking.Slot().Partition(booking.ClassID), s.lockTimeout); err != nil {
			if errors.Is(err, repository.ErrSlotLockTimeout) {
				return ErrAdmissionContention
			}
			return err
		}

		// Re-read under the slot lock; a concurrent cancellation or promotion
		// may have moved the booking since the first read.
		booking, err = s.bookings.FindByID(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if !booking.Status.Active() {
			return &InvalidStateTransitionError{BookingID: booking.ID, From: booking.Status}
		}

		wasConfirmed := booking.Status == models.StatusConfirmed
		vacated := 0
		if booking.WaitlistPosition != nil {
			vacated = *booking.WaitlistPosition
		}

		if err := s.bookings.Cancel(ctx, tx, booking.ID); err != nil {
			return err
		}
		booking.Status = models.StatusCancelled
		booking.WaitlistPosition = nil
		cancelled = booking

		if !wasConfirmed {
			// A waitlisted booking left the queue: everyone behind it moves up.
			return s.bookings.ShiftPositionsAfter(ctx, tx, booking.ClassID, booking.Slot(), vacated)
		}

		next, err := s.bookings.FindFirstWaitlisted(ctx, tx, booking.ClassID, booking.Slot())
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil // nobody waiting, the seat simply frees up
			}
			return err
		}
		nextPos := 0
		if next.WaitlistPosition != nil {
			nextPos = *next.WaitlistPosition
		}
		if err := s.bookings.Promote(ctx, tx, next.ID); err != nil {
			return err
		}
		if err := s.bookings.ShiftPositionsAfter(ctx, tx, booking.ClassID, booking.Slot(), nextPos); err != nil {
			return err
		}
		next.Status = models.StatusConfirmed
		next.WaitlistPosition = nil
		promoted = next
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrAdmissionContention) {
			metrics.IncContention()
		}
		return nil, nil, err
	}

	metrics.IncCancellation()
	s.availCache.Invalidate(ctx, cancelled.Slot().Partition(cancelled.ClassID))
	s.publish("booking.cancelled", cancelled)
	logEvt := s.log.Info().Str("booking_id", cancelled.ID).Str("class_id", cancelled.ClassID)
	if promoted != nil {
		metrics.IncPromotion()
		s.publish("booking.promoted", promoted)
		logEvt = logEvt.Str("promoted_id", promoted.ID)
	}
	logEvt.Msg("booking cancelled")
	return cancelled, promoted, nil
}

func (s *bookingService) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	booking, err := s.bookings.FindByID(ctx, s.bookings.GetDB(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return booking, nil
}

// ListBookings is a read-only projection of a user's bookings ordered by slot
// start, never touching the admission path.
func (s *bookingService) ListBookings(ctx context.Context, userID string, status *models.BookingStatus, upcoming bool) ([]models.Booking, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, &ValidationError{Fields: []string{"user_id"}}
	}
	if status != nil && !status.Valid() {
		return nil, &ValidationError{Fields: []string{"status"}}
	}
	var after *time.Time
	if upcoming {
		now := time.Now()
		after = &now
	}
	return s.bookings.FindByUser(ctx, userID, status, after)
}

// SlotAvailability reports confirmed/waitlisted counts and free seats for one
// slot. Results are served from the short-TTL cache when available.
func (s *bookingService) SlotAvailability(ctx context.Context, classID, date, clock string) (*dto.SlotAvailabilityResponse, error) {
	var bad []string
	if strings.TrimSpace(classID) == "" {
		bad = append(bad, "class_id")
	}
	normDate, err := normalizeDate(date)
	if err != nil {
		bad = append(bad, "date")
	}
	normClock, err := NormalizeClock(clock)
	if err != nil {
		bad = append(bad, "time")
	}
	if len(bad) > 0 {
		return nil, &ValidationError{Fields: bad}
	}

	slot := models.SlotKey{Date: normDate, Time: normClock}
	partition := slot.Partition(classID)
	if cached, ok := s.availCache.Get(ctx, partition); ok {
		return cached, nil
	}

	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClassNotFound
		}
		return nil, err
	}

	db := s.bookings.GetDB()
	confirmed, err := s.bookings.CountByStatus(ctx, db, classID, slot, models.StatusConfirmed)
	if err != nil {
		return nil, err
	}
	waitlisted, err := s.bookings.CountByStatus(ctx, db, classID, slot, models.StatusWaitlisted)
	if err != nil {
		return nil, err
	}

	free := class.Capacity - int(confirmed)
	if free < 0 {
		free = 0
	}
	resp := dto.SlotAvailabilityResponse{
		ClassID:        class.ID,
		ClassName:      class.Name,
		Date:           slot.Date,
		Time:           slot.Time,
		Capacity:       class.Capacity,
		Confirmed:      confirmed,
		Waitlisted:     waitlisted,
		SeatsAvailable: free,
	}
	s.availCache.Set(ctx, partition, resp)
	return &resp, nil
}

func (s *bookingService) publish(routingKey string, booking *models.Booking) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(routingKey, booking); err != nil {
		s.log.Warn().Err(err).Str("routing_key", routingKey).Msg("publish booking event")
	}
}
