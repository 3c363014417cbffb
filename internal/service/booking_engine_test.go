package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/turf-slot-booking/internal/apperr"
	"github.com/iliyamo/turf-slot-booking/internal/model"
	"github.com/iliyamo/turf-slot-booking/internal/repository/memstore"
	"github.com/iliyamo/turf-slot-booking/internal/store"
)

func TestCreateBookingPricesFromInventory(t *testing.T) {
	f := newFixture(t)
	v := f.approvedVenue(t, 800)

	b, err := f.book(v.ID, "14:00", 60)
	require.NoError(t, err)
	assert.Equal(t, 960, b.TotalAmount)
	assert.Equal(t, 960, b.BalanceAmount)
	assert.Equal(t, "15:00", b.EndTime)
	assert.Equal(t, model.BookingConfirmed, b.Status)
	assert.True(t, strings.HasPrefix(b.BookingCode, BookingCodePrefix))
	assert.Equal(t, []string{v.ID + "-" + today + "-a2"}, b.SlotIDs)
	assert.Equal(t, "Green Field", b.VenueName)
	assert.Nil(t, b.UserID)
	assert.True(t, bookedHours(t, f, v.ID, today)["14:00"])

	require.Len(t, f.pub.bookings, 1)
	assert.Equal(t, b.BookingCode, f.pub.bookings[0].BookingCode)
}

func TestCreateBookingConflictNamesStartTime(t *testing.T) {
	f := newFixture(t)
	v := f.approvedVenue(t, 800)

	_, err := f.book(v.ID, "06:00", 60)
	require.NoError(t, err)

	_, err = f.book(v.ID, "06:00", 120)
	var ce *apperr.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "06:00", ce.StartTime)
	assert.Contains(t, err.Error(), "06:00")

	// no partial flip of the free second hour
	assert.False(t, bookedHours(t, f, v.ID, today)["07:00"])
	assert.Len(t, f.pub.bookings, 1)
}

func TestCreateBookingConflictOnSecondHour(t *testing.T) {
	f := newFixture(t)
	v := f.approvedVenue(t, 800)

	_, err := f.book(v.ID, "19:00", 60)
	require.NoError(t, err)
	_, err = f.book(v.ID, "18:00", 120)
	var ce *apperr.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "19:00", ce.StartTime)
	assert.False(t, bookedHours(t, f, v.ID, today)["18:00"])
}

func TestNinetyMinutesOccupiesTwoSlotsBillsOneAndAHalf(t *testing.T) {
	f := newFixture(t)
	v := f.approvedVenue(t, 800)

	b, err := f.book(v.ID, "14:00", 90)
	require.NoError(t, err)
	assert.Equal(t, 960+480, b.TotalAmount)
	assert.Equal(t, "15:30", b.EndTime)
	assert.Len(t, b.SlotIDs, 2)

	hours := bookedHours(t, f, v.ID, today)
	assert.True(t, hours["14:00"])
	assert.True(t, hours["15:00"])

	_, err = f.book(v.ID, "15:00", 60)
	var ce *apperr.ConflictError
	assert.ErrorAs(t, err, &ce)
}

func TestTierBoundarySpanMixesPrices(t *testing.T) {
	f := newFixture(t)
	v := f.approvedVenue(t, 1000)

	b, err := f.book(v.ID, "17:00", 120)
	require.NoError(t, err)
	assert.Equal(t, 1200+1500, b.TotalAmount)
}

func TestConcurrentOverlappingBookingsOneWins(t *testing.T) {
	f := newFixture(t)
	v := f.approvedVenue(t, 800)

	const n = 24
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok        int
		conflicts int
	)
	for i := 0; i < n; i++ {
		start, dur := "18:00", 120
		if i%2 == 1 {
			start, dur = "19:00", 60
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.book(v.ID, start, dur)
			mu.Lock()
			defer mu.Unlock()
			var ce *apperr.ConflictError
			switch {
			case err == nil:
				ok++
			case errors.As(err, &ce):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, conflicts)
}

func TestClientTotalIsRecomputed(t *testing.T) {
	f := newFixture(t)
	v := f.approvedVenue(t, 800)

	b, err := f.engine.CreateBooking(context.Background(), BookingRequest{
		VenueID: v.ID, Date: today, StartTime: "06:00", Duration: 60,
		TotalAmount: 1, PaidAmount: 300, BalanceAmount: 0, PaymentMethod: "card", UserID: "u-1",
	})
	require.NoError(t, err)
	assert.Equal(t, 800, b.TotalAmount)
	assert.Equal(t, 300, b.PaidAmount)
	assert.Equal(t, 500, b.BalanceAmount)
	require.NotNil(t, b.UserID)
	assert.Equal(t, "u-1", *b.UserID)

	mine, err := f.engine.ListMine(context.Background(), "u-1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, b.BookingCode, mine[0].BookingCode)
}

func TestCreateBookingValidation(t *testing.T) {
	f := newFixture(t)
	v := f.approvedVenue(t, 800)
	pending := f.pendingVenue(t, 800)

	cases := []struct {
		name string
		req  BookingRequest
	}{
		{"missing venue", BookingRequest{Date: today, StartTime: "06:00", Duration: 60}},
		{"bad date", BookingRequest{VenueID: v.ID, Date: "2026-02-30", StartTime: "06:00", Duration: 60}},
		{"past date", BookingRequest{VenueID: v.ID, Date: "2026-02-28", StartTime: "06:00", Duration: 60}},
		{"half hour start", BookingRequest{VenueID: v.ID, Date: today, StartTime: "06:30", Duration: 60}},
		{"bad duration", BookingRequest{VenueID: v.ID, Date: today, StartTime: "06:00", Duration: 45}},
		{"negative paid", BookingRequest{VenueID: v.ID, Date: today, StartTime: "06:00", Duration: 60, PaidAmount: -1}},
		{"overpaid", BookingRequest{VenueID: v.ID, Date: today, StartTime: "06:00", Duration: 60, PaidAmount: 801}},
		{"before opening", BookingRequest{VenueID: v.ID, Date: today, StartTime: "05:00", Duration: 60}},
		{"past last slot", BookingRequest{VenueID: v.ID, Date: today, StartTime: "22:00", Duration: 120}},
		{"outside window", BookingRequest{VenueID: v.ID, Date: "2026-03-15", StartTime: "06:00", Duration: 60}},
		{"pending venue", BookingRequest{VenueID: pending.ID, Date: today, StartTime: "06:00", Duration: 60}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.engine.CreateBooking(context.Background(), tc.req)
			var ve *apperr.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, 400, apperr.HTTPStatus(err))
		})
	}
	for _, booked := range bookedHours(t, f, v.ID, today) {
		assert.False(t, booked)
	}
}

func TestCreateBookingUnknownVenue(t *testing.T) {
	f := newFixture(t)
	_, err := f.book("nope", "06:00", 60)
	var nf *apperr.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestUnavailableVenueCannotBeBooked(t *testing.T) {
	f := newFixture(t)
	v := f.approvedVenue(t, 800)
	_, err := f.wf.SetAvailability(context.Background(), v.OwnerID, false, v.ID, false)
	require.NoError(t, err)

	_, err = f.book(v.ID, "06:00", 60)
	var ve *apperr.ValidationError
	assert.ErrorAs(t, err, &ve)
}

type failingBookings struct {
	*memstore.Store
	err error
}

func (s failingBookings) InBookingTx(context.Context, string, string, func(store.BookingTx) error) error {
	return s.err
}

func TestStorageFailureIsNotAConflict(t *testing.T) {
	f := newFixture(t)
	v := f.approvedVenue(t, 800)
	engine := NewBookingEngine(f.st, failingBookings{f.st, errors.New("dial tcp 10.0.0.3:3306: connection refused")}, f.inv, nil, nil, zap.NewNop())

	_, err := engine.CreateBooking(context.Background(), BookingRequest{VenueID: v.ID, Date: today, StartTime: "06:00", Duration: 60})
	var se *apperr.StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 500, apperr.HTTPStatus(err))
	assert.NotContains(t, apperr.PublicMessage(err), "10.0.0.3")
}

// dupTx fails the first InsertBooking calls with ErrDuplicate.
type dupTx struct {
	store.BookingTx
	left  int
	codes []string
}

func (d *dupTx) InsertBooking(ctx context.Context, b *model.Booking) error {
	d.codes = append(d.codes, b.BookingCode)
	if d.left > 0 {
		d.left--
		return store.ErrDuplicate
	}
	return d.BookingTx.InsertBooking(ctx, b)
}

type dupBookings struct {
	*memstore.Store
	tx *dupTx
}

func (s dupBookings) InBookingTx(ctx context.Context, venueID, date string, fn func(store.BookingTx) error) error {
	return s.Store.InBookingTx(ctx, venueID, date, func(tx store.BookingTx) error {
		s.tx.BookingTx = tx
		return fn(s.tx)
	})
}

func TestDuplicateCodeIsRetried(t *testing.T) {
	f := newFixture(t)
	v := f.approvedVenue(t, 800)

	tx := &dupTx{left: 2}
	engine := NewBookingEngine(f.st, dupBookings{f.st, tx}, f.inv, nil, nil, zap.NewNop())
	b, err := engine.CreateBooking(context.Background(), BookingRequest{VenueID: v.ID, Date: today, StartTime: "06:00", Duration: 60})
	require.NoError(t, err)
	require.Len(t, tx.codes, 3)
	assert.NotEqual(t, tx.codes[0], tx.codes[1])
	assert.Equal(t, tx.codes[2], b.BookingCode)

	tx = &dupTx{left: 3}
	engine = NewBookingEngine(f.st, dupBookings{f.st, tx}, f.inv, nil, nil, zap.NewNop())
	_, err = engine.CreateBooking(context.Background(), BookingRequest{VenueID: v.ID, Date: today, StartTime: "07:00", Duration: 60})
	var se *apperr.StorageError
	assert.ErrorAs(t, err, &se)
	assert.False(t, bookedHours(t, f, v.ID, today)["07:00"])
}

func TestVerifyByCode(t *testing.T) {
	f := newFixture(t)
	v := f.approvedVenue(t, 800)
	b, err := f.book(v.ID, "20:00", 60)
	require.NoError(t, err)

	got, err := f.engine.Verify(context.Background(), strings.ToLower(b.BookingCode))
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
	assert.Equal(t, 1200, got.TotalAmount)

	_, err = f.engine.Verify(context.Background(), "TTNOPE")
	var nf *apperr.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestCodeSourceNeverRepeats(t *testing.T) {
	stalled := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	src := newCodeSource(func() time.Time { return stalled })
	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		c := src.Next()
		require.False(t, seen[c], "repeated %s", c)
		seen[c] = true
		assert.Equal(t, strings.ToUpper(c), c)
	}
}

func TestOwnerAndAdminListings(t *testing.T) {
	f := newFixture(t)
	v := f.approvedVenue(t, 800)
	other := f.approvedVenue(t, 500)
	_, err := f.book(v.ID, "06:00", 60)
	require.NoError(t, err)
	_, err = f.book(other.ID, "06:00", 60)
	require.NoError(t, err)

	mine, err := f.engine.ListForOwner(context.Background(), v.OwnerID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, v.ID, mine[0].VenueID)

	all, err := f.engine.ListAll(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
