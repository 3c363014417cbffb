package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/turf-slot-booking/internal/model"
	"github.com/iliyamo/turf-slot-booking/internal/queue"
	"github.com/iliyamo/turf-slot-booking/internal/repository/memstore"
)

// ist avoids a tzdata dependency in tests.
var ist = time.FixedZone("IST", 5*3600+1800)

// 2026-03-01 10:00 IST
var testNow = time.Date(2026, 3, 1, 4, 30, 0, 0, time.UTC)

const today = "2026-03-01"

type recordingPublisher struct {
	mu       sync.Mutex
	bookings []queue.BookingConfirmedEvent
	venues   []queue.VenueApprovedEvent
}

func (p *recordingPublisher) PublishBookingConfirmed(_ context.Context, ev queue.BookingConfirmedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bookings = append(p.bookings, ev)
	return nil
}

func (p *recordingPublisher) PublishVenueApproved(_ context.Context, ev queue.VenueApprovedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.venues = append(p.venues, ev)
	return nil
}

type fixture struct {
	st     *memstore.Store
	pub    *recordingPublisher
	inv    *Inventory
	engine *BookingEngine
	wf     *ApprovalWorkflow
	dir    *Directory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memstore.New()
	pub := &recordingPublisher{}
	log := zap.NewNop()
	inv := NewInventory(st, st, nil, log, ist, DefaultWindowDays)
	inv.Clock = func() time.Time { return testNow }
	return &fixture{
		st:     st,
		pub:    pub,
		inv:    inv,
		engine: NewBookingEngine(st, st, inv, pub, nil, log),
		wf:     NewApprovalWorkflow(st, st, inv, pub, log),
		dir:    NewDirectory(st, st),
	}
}

// approvedOwner registers a user and walks it through owner approval.
func (f *fixture) approvedOwner(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	u := &model.User{ID: uuid.NewString(), Email: uuid.NewString() + "@example.com", FullName: "Owner"}
	require.NoError(t, f.st.CreateUser(ctx, u))
	_, err := f.wf.RequestOwnerRole(ctx, u.ID)
	require.NoError(t, err)
	_, err = f.wf.ApproveOwner(ctx, u.ID)
	require.NoError(t, err)
	return u.ID
}

func (f *fixture) pendingVenue(t *testing.T, price int) *model.Venue {
	t.Helper()
	v, err := f.wf.SubmitVenue(context.Background(), f.approvedOwner(t), VenueInput{
		Name:         "Green Field",
		Address:      "12 MG Road",
		City:         "Bangalore",
		PricePerHour: price,
		SportTypes:   []string{"football"},
	})
	require.NoError(t, err)
	return v
}

func (f *fixture) approvedVenue(t *testing.T, price int) *model.Venue {
	t.Helper()
	v := f.pendingVenue(t, price)
	v, _, err := f.wf.ApproveVenue(context.Background(), v.ID)
	require.NoError(t, err)
	return v
}

func (f *fixture) book(venueID, start string, minutes int) (*model.Booking, error) {
	return f.engine.CreateBooking(context.Background(), BookingRequest{
		VenueID:       venueID,
		Date:          today,
		StartTime:     start,
		Duration:      minutes,
		PaymentMethod: "upi",
	})
}

func bookedHours(t *testing.T, f *fixture, venueID, date string) map[string]bool {
	t.Helper()
	slots, err := f.st.SlotsFor(context.Background(), venueID, date)
	require.NoError(t, err)
	out := make(map[string]bool, len(slots))
	for _, s := range slots {
		out[s.StartTime] = s.IsBooked
	}
	return out
}
