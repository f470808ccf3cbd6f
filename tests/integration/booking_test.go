//go:build integration

package integration

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yagniktrivedi/ekantik-studio-sub001/internal/dto"
	"github.com/yagniktrivedi/ekantik-studio-sub001/internal/models"
	"github.com/yagniktrivedi/ekantik-studio-sub001/internal/repository"
	"github.com/yagniktrivedi/ekantik-studio-sub001/internal/service"
)

func createTestClass(t *testing.T, id, name string, capacity int) *models.ClassSession {
	t.Helper()
	class := &models.ClassSession{ID: id, Name: name, Capacity: capacity}
	require.NoError(t, testDB.Create(class).Error)
	return class
}

func createTestMembers(t *testing.T, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, testDB.Create(&models.Member{ID: id, Name: id}).Error)
	}
}

func memberIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("member-%03d", i)
	}
	return ids
}

func newBookingService() service.BookingService {
	return service.NewBookingService(
		repository.NewBookingRepository(testDB),
		repository.NewClassRepository(testDB),
		repository.NewMemberRepository(testDB),
		nil, // no publisher in tests
		nil, // no cache in tests
		3*time.Second,
		zerolog.Nop(),
	)
}

func bookingRequest(userID, classID string) dto.CreateBookingRequest {
	return dto.CreateBookingRequest{
		UserID:  userID,
		ClassID: classID,
		Date:    "2026-09-14",
		Time:    "6:00 PM",
	}
}

// waitlistPositions returns the positions of all waitlisted bookings for the
// slot, ordered ascending.
func waitlistPositions(t *testing.T, classID string) []int {
	t.Helper()
	var positions []int
	require.NoError(t, testDB.Model(&models.Booking{}).
		Where("class_id = ? AND slot_date = ? AND slot_time = ? AND status = ?",
			classID, "2026-09-14", "18:00:00", models.StatusWaitlisted).
		Order("waitlist_position ASC").
		Pluck("waitlist_position", &positions).Error)
	return positions
}

func countByStatus(t *testing.T, classID string, status models.BookingStatus) int64 {
	t.Helper()
	var count int64
	require.NoError(t, testDB.Model(&models.Booking{}).
		Where("class_id = ? AND slot_date = ? AND slot_time = ? AND status = ?",
			classID, "2026-09-14", "18:00:00", status).
		Count(&count).Error)
	return count
}

// Capacity invariant: 30 members book a 12-seat class concurrently → exactly
// 12 confirmed, 18 waitlisted with contiguous positions 1..18.
func TestConcurrentAdmission(t *testing.T) {
	cleanTables()
	class := createTestClass(t, "vinyasa-75", "Vinyasa Flow 75", 12)
	ids := memberIDs(30)
	createTestMembers(t, ids...)
	svc := newBookingService()

	var wg sync.WaitGroup
	results := make(chan *models.Booking, len(ids))
	errs := make(chan error, len(ids))

	wg.Add(len(ids))
	for _, id := range ids {
		go func(userID string) {
			defer wg.Done()
			booking, err := svc.CreateBooking(context.Background(), bookingRequest(userID, class.ID))
			if err != nil {
				errs <- err
				return
			}
			results <- booking
		}(id)
	}
	wg.Wait()
	close(results)
	close(errs)

	var confirmed, waitlisted int
	for b := range results {
		switch b.Status {
		case models.StatusConfirmed:
			confirmed++
		case models.StatusWaitlisted:
			waitlisted++
		}
	}
	for err := range errs {
		t.Fatalf("unexpected booking error: %v", err)
	}

	assert.Equal(t, 12, confirmed, "confirmed must equal capacity")
	assert.Equal(t, 18, waitlisted)
	assert.Equal(t, int64(12), countByStatus(t, class.ID, models.StatusConfirmed))

	positions := waitlistPositions(t, class.ID)
	require.Len(t, positions, 18)
	for i, pos := range positions {
		assert.Equal(t, i+1, pos, "waitlist positions must be contiguous from 1")
	}
}

// FIFO fairness: sequential waitlist arrivals get positions in creation order.
func TestWaitlistFIFO(t *testing.T) {
	cleanTables()
	class := createTestClass(t, "yin-60", "Yin Yoga 60", 1)
	createTestMembers(t, "member-a", "member-b", "member-c", "member-d")
	svc := newBookingService()

	first, err := svc.CreateBooking(context.Background(), bookingRequest("member-a", class.ID))
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, first.Status)

	for i, id := range []string{"member-b", "member-c", "member-d"} {
		b, err := svc.CreateBooking(context.Background(), bookingRequest(id, class.ID))
		require.NoError(t, err)
		assert.Equal(t, models.StatusWaitlisted, b.Status)
		require.NotNil(t, b.WaitlistPosition)
		assert.Equal(t, i+1, *b.WaitlistPosition)
	}
}

// Idempotency: the same member booking the same slot twice gets a duplicate
// error carrying the original booking.
func TestDuplicateRejected(t *testing.T) {
	cleanTables()
	class := createTestClass(t, "vinyasa-75", "Vinyasa Flow 75", 12)
	createTestMembers(t, "member-dup")
	svc := newBookingService()

	first, err := svc.CreateBooking(context.Background(), bookingRequest("member-dup", class.ID))
	require.NoError(t, err)

	_, err = svc.CreateBooking(context.Background(), bookingRequest("member-dup", class.ID))
	var dupErr *service.DuplicateBookingError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, first.ID, dupErr.BookingID)
	assert.Equal(t, models.StatusConfirmed, dupErr.Status)
}

// Concurrent duplicates: many simultaneous attempts by one member, exactly one
// booking lands.
func TestConcurrentDuplicateRejected(t *testing.T) {
	cleanTables()
	class := createTestClass(t, "vinyasa-75", "Vinyasa Flow 75", 12)
	createTestMembers(t, "member-same")
	svc := newBookingService()

	attempts := 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	successCount := 0

	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func() {
			defer wg.Done()
			_, err := svc.CreateBooking(context.Background(), bookingRequest("member-same", class.ID))
			if err == nil {
				mu.Lock()
				successCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successCount)

	var count int64
	testDB.Model(&models.Booking{}).
		Where("class_id = ? AND user_id = ? AND status <> ?", class.ID, "member-same", models.StatusCancelled).
		Count(&count)
	assert.Equal(t, int64(1), count)
}

// The capacity-2 walkthrough: A, B confirmed; C, D waitlisted at 1, 2.
// Cancel A → C promoted, D moves to 1. Cancel C → D promoted, waitlist empty.
func TestCancelPromoteScenario(t *testing.T) {
	cleanTables()
	class := createTestClass(t, "meditation-30", "Guided Meditation", 2)
	createTestMembers(t, "member-a", "member-b", "member-c", "member-d")
	svc := newBookingService()

	a, err := svc.CreateBooking(context.Background(), bookingRequest("member-a", class.ID))
	require.NoError(t, err)
	b, err := svc.CreateBooking(context.Background(), bookingRequest("member-b", class.ID))
	require.NoError(t, err)
	c, err := svc.CreateBooking(context.Background(), bookingRequest("member-c", class.ID))
	require.NoError(t, err)
	d, err := svc.CreateBooking(context.Background(), bookingRequest("member-d", class.ID))
	require.NoError(t, err)

	assert.Equal(t, models.StatusConfirmed, a.Status)
	assert.Equal(t, models.StatusConfirmed, b.Status)
	assert.Equal(t, models.StatusWaitlisted, c.Status)
	require.NotNil(t, c.WaitlistPosition)
	assert.Equal(t, 1, *c.WaitlistPosition)
	assert.Equal(t, models.StatusWaitlisted, d.Status)
	require.NotNil(t, d.WaitlistPosition)
	assert.Equal(t, 2, *d.WaitlistPosition)

	// Cancel A: C is promoted, D moves up to position 1
	cancelled, promoted, err := svc.CancelBooking(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	require.NotNil(t, promoted)
	assert.Equal(t, c.ID, promoted.ID)
	assert.Equal(t, models.StatusConfirmed, promoted.Status)

	assert.Equal(t, []int{1}, waitlistPositions(t, class.ID))
	assert.Equal(t, int64(2), countByStatus(t, class.ID, models.StatusConfirmed))

	// Cancel C (now confirmed): D is promoted, waitlist drains
	_, promoted, err = svc.CancelBooking(context.Background(), c.ID)
	require.NoError(t, err)
	require.NotNil(t, promoted)
	assert.Equal(t, d.ID, promoted.ID)

	assert.Empty(t, waitlistPositions(t, class.ID))
	assert.Equal(t, int64(2), countByStatus(t, class.ID, models.StatusConfirmed))
}

// Cancelling from the middle of the waitlist closes the gap without promotion.
func TestCancelWaitlistedReindexes(t *testing.T) {
	cleanTables()
	class := createTestClass(t, "yin-60", "Yin Yoga 60", 1)
	createTestMembers(t, "member-a", "member-b", "member-c", "member-d")
	svc := newBookingService()

	_, err := svc.CreateBooking(context.Background(), bookingRequest("member-a", class.ID))
	require.NoError(t, err)
	_, err = svc.CreateBooking(context.Background(), bookingRequest("member-b", class.ID))
	require.NoError(t, err)
	c, err := svc.CreateBooking(context.Background(), bookingRequest("member-c", class.ID))
	require.NoError(t, err)
	d, err := svc.CreateBooking(context.Background(), bookingRequest("member-d", class.ID))
	require.NoError(t, err)

	// cancel C (position 2): D slides from 3 to 2, nobody is promoted
	_, promoted, err := svc.CancelBooking(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Nil(t, promoted)

	assert.Equal(t, []int{1, 2}, waitlistPositions(t, class.ID))

	var moved models.Booking
	require.NoError(t, testDB.First(&moved, "id = ?", d.ID).Error)
	require.NotNil(t, moved.WaitlistPosition)
	assert.Equal(t, 2, *moved.WaitlistPosition)
}

// Cancelled is terminal: a second cancellation is an invalid transition.
func TestCancelTwiceRejected(t *testing.T) {
	cleanTables()
	class := createTestClass(t, "vinyasa-75", "Vinyasa Flow 75", 12)
	createTestMembers(t, "member-a")
	svc := newBookingService()

	booking, err := svc.CreateBooking(context.Background(), bookingRequest("member-a", class.ID))
	require.NoError(t, err)

	_, _, err = svc.CancelBooking(context.Background(), booking.ID)
	require.NoError(t, err)

	_, _, err = svc.CancelBooking(context.Background(), booking.ID)
	var stsErr *service.InvalidStateTransitionError
	require.ErrorAs(t, err, &stsErr)
	assert.Equal(t, models.StatusCancelled, stsErr.From)
}

// Cancelling a confirmed booking with an empty waitlist frees the seat for a
// fresh request.
func TestCancelWithEmptyWaitlistFreesSeat(t *testing.T) {
	cleanTables()
	class := createTestClass(t, "yin-60", "Yin Yoga 60", 1)
	createTestMembers(t, "member-a", "member-b")
	svc := newBookingService()

	a, err := svc.CreateBooking(context.Background(), bookingRequest("member-a", class.ID))
	require.NoError(t, err)

	_, promoted, err := svc.CancelBooking(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Nil(t, promoted)

	b, err := svc.CreateBooking(context.Background(), bookingRequest("member-b", class.ID))
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, b.Status)
}

// Unknown class and unknown member fail before any write.
func TestNotFoundPreChecks(t *testing.T) {
	cleanTables()
	createTestClass(t, "vinyasa-75", "Vinyasa Flow 75", 12)
	createTestMembers(t, "member-a")
	svc := newBookingService()

	_, err := svc.CreateBooking(context.Background(), bookingRequest("member-a", "no-such-class"))
	assert.ErrorIs(t, err, service.ErrClassNotFound)

	_, err = svc.CreateBooking(context.Background(), bookingRequest("no-such-member", "vinyasa-75"))
	assert.ErrorIs(t, err, service.ErrMemberNotFound)

	var count int64
	testDB.Model(&models.Booking{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

// A class synced without usable capacity is not bookable; no default is assumed.
func TestZeroCapacityNotBookable(t *testing.T) {
	cleanTables()
	createTestClass(t, "workshop-tba", "Workshop TBA", 0)
	createTestMembers(t, "member-a")
	svc := newBookingService()

	_, err := svc.CreateBooking(context.Background(), bookingRequest("member-a", "workshop-tba"))
	assert.ErrorIs(t, err, service.ErrClassNotBookable)
}

// Query service: status filter and upcoming flag, ordered by slot start.
func TestListBookings(t *testing.T) {
	cleanTables()
	createTestClass(t, "vinyasa-75", "Vinyasa Flow 75", 12)
	createTestMembers(t, "member-a")
	svc := newBookingService()

	mk := func(date, clock string) {
		_, err := svc.CreateBooking(context.Background(), dto.CreateBookingRequest{
			UserID:  "member-a",
			ClassID: "vinyasa-75",
			Date:    date,
			Time:    clock,
		})
		require.NoError(t, err)
	}
	mk("2020-01-06", "08:00")   // long past
	mk("2099-12-30", "7:30 AM") // far future
	mk("2099-12-30", "6:00 PM")

	all, err := svc.ListBookings(context.Background(), "member-a", nil, false)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "2020-01-06", all[0].SlotDate)
	assert.Equal(t, "07:30:00", all[1].SlotTime)
	assert.Equal(t, "18:00:00", all[2].SlotTime)

	upcoming, err := svc.ListBookings(context.Background(), "member-a", nil, true)
	require.NoError(t, err)
	require.Len(t, upcoming, 2)
	assert.Equal(t, "2099-12-30", upcoming[0].SlotDate)

	confirmed := models.StatusConfirmed
	byStatus, err := svc.ListBookings(context.Background(), "member-a", &confirmed, false)
	require.NoError(t, err)
	assert.Len(t, byStatus, 3)
}

// Availability projection reflects admissions without blocking them.
func TestSlotAvailability(t *testing.T) {
	cleanTables()
	createTestClass(t, "yin-60", "Yin Yoga 60", 2)
	createTestMembers(t, "member-a", "member-b", "member-c")
	svc := newBookingService()

	for _, id := range []string{"member-a", "member-b", "member-c"} {
		_, err := svc.CreateBooking(context.Background(), bookingRequest(id, "yin-60"))
		require.NoError(t, err)
	}

	avail, err := svc.SlotAvailability(context.Background(), "yin-60", "2026-09-14", "6:00 PM")
	require.NoError(t, err)
	assert.Equal(t, 2, avail.Capacity)
	assert.Equal(t, int64(2), avail.Confirmed)
	assert.Equal(t, int64(1), avail.Waitlisted)
	assert.Equal(t, 0, avail.SeatsAvailable)
}

// Distinct slot keys admit in parallel: filling one slot does not consume
// another slot's seats.
func TestSlotsAreIndependent(t *testing.T) {
	cleanTables()
	createTestClass(t, "vinyasa-75", "Vinyasa Flow 75", 1)
	createTestMembers(t, "member-a", "member-b")
	svc := newBookingService()

	morning := dto.CreateBookingRequest{UserID: "member-a", ClassID: "vinyasa-75", Date: "2026-09-14", Time: "08:00"}
	evening := dto.CreateBookingRequest{UserID: "member-b", ClassID: "vinyasa-75", Date: "2026-09-14", Time: "18:00"}

	a, err := svc.CreateBooking(context.Background(), morning)
	require.NoError(t, err)
	b, err := svc.CreateBooking(context.Background(), evening)
	require.NoError(t, err)

	assert.Equal(t, models.StatusConfirmed, a.Status)
	assert.Equal(t, models.StatusConfirmed, b.Status)
}
