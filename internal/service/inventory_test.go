package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/turf-slot-booking/internal/apperr"
	"github.com/iliyamo/turf-slot-booking/internal/model"
	"github.com/iliyamo/turf-slot-booking/internal/store"
)

type mapCache struct {
	mu          sync.Mutex
	data        map[string][]model.Slot
	versions    map[string]int64
	invalidated []string
	failGet     bool
}

func newMapCache() *mapCache {
	return &mapCache{data: map[string][]model.Slot{}, versions: map[string]int64{}}
}

func (c *mapCache) Get(_ context.Context, venueID, date string) ([]model.Slot, bool, int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGet {
		return nil, false, 0, errors.New("redis down")
	}
	k := venueID + "|" + date
	s, ok := c.data[k]
	return s, ok, c.versions[k], nil
}

func (c *mapCache) Set(_ context.Context, venueID, date string, version int64, slots []model.Slot) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := venueID + "|" + date
	if c.versions[k] != version {
		return false, nil
	}
	c.data[k] = slots
	return true, nil
}

func (c *mapCache) Invalidate(_ context.Context, venueID string, dates ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range dates {
		k := venueID + "|" + d
		c.versions[k]++
		delete(c.data, k)
		c.invalidated = append(c.invalidated, d)
	}
	return nil
}

// stallingSlots holds the first SlotsFor call after it has read from the
// store until resume is closed.
type stallingSlots struct {
	store.SlotStore
	once   sync.Once
	read   chan struct{}
	resume chan struct{}
}

func (s *stallingSlots) SlotsFor(ctx context.Context, venueID, date string) ([]model.Slot, error) {
	out, err := s.SlotStore.SlotsFor(ctx, venueID, date)
	s.once.Do(func() {
		close(s.read)
		<-s.resume
	})
	return out, err
}

func TestSlotsForReadsThroughCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cache := newMapCache()
	inv := NewInventory(f.st, f.st, cache, zap.NewNop(), ist, DefaultWindowDays)
	inv.Clock = f.inv.Clock
	engine := NewBookingEngine(f.st, f.st, inv, nil, cache, zap.NewNop())
	wf := NewApprovalWorkflow(f.st, f.st, inv, nil, zap.NewNop())

	v := f.pendingVenue(t, 800)
	empty, err := inv.SlotsFor(ctx, v.ID, today)
	require.NoError(t, err)
	assert.Empty(t, empty)

	// approval must drop the cached empty day
	_, res, err := wf.ApproveVenue(ctx, v.ID)
	require.NoError(t, err)
	assert.Len(t, cache.invalidated, res.Days)

	slots, err := inv.SlotsFor(ctx, v.ID, today)
	require.NoError(t, err)
	require.Len(t, slots, 17)
	assert.Contains(t, cache.data, v.ID+"|"+today)

	_, err = engine.CreateBooking(ctx, BookingRequest{VenueID: v.ID, Date: today, StartTime: "06:00", Duration: 60})
	require.NoError(t, err)
	assert.NotContains(t, cache.data, v.ID+"|"+today)

	slots, err = inv.SlotsFor(ctx, v.ID, today)
	require.NoError(t, err)
	assert.True(t, slots[0].IsBooked)
}

func TestSlotsForDoesNotCacheDayReadBeforeBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.approvedVenue(t, 800)

	cache := newMapCache()
	slots := &stallingSlots{SlotStore: f.st, read: make(chan struct{}), resume: make(chan struct{})}
	inv := NewInventory(f.st, slots, cache, zap.NewNop(), ist, DefaultWindowDays)
	inv.Clock = f.inv.Clock
	engine := NewBookingEngine(f.st, f.st, inv, nil, cache, zap.NewNop())

	done := make(chan error, 1)
	go func() {
		_, err := inv.SlotsFor(ctx, v.ID, today)
		done <- err
	}()

	<-slots.read
	_, err := engine.CreateBooking(ctx, BookingRequest{VenueID: v.ID, Date: today, StartTime: "14:00", Duration: 60})
	require.NoError(t, err)
	close(slots.resume)
	require.NoError(t, <-done)

	assert.NotContains(t, cache.data, v.ID+"|"+today)
	day, err := inv.SlotsFor(ctx, v.ID, today)
	require.NoError(t, err)
	booked := map[string]bool{}
	for _, s := range day {
		booked[s.StartTime] = s.IsBooked
	}
	assert.True(t, booked["14:00"], "14:00 must read as booked once the booking committed")
}

func TestSlotsForFallsBackWhenCacheFails(t *testing.T) {
	f := newFixture(t)
	cache := newMapCache()
	cache.failGet = true
	inv := NewInventory(f.st, f.st, cache, zap.NewNop(), ist, DefaultWindowDays)
	inv.Clock = f.inv.Clock
	v := f.approvedVenue(t, 800)

	slots, err := inv.SlotsFor(context.Background(), v.ID, today)
	require.NoError(t, err)
	assert.Len(t, slots, 17)
}

func TestSlotsForInput(t *testing.T) {
	f := newFixture(t)
	_, err := f.inv.SlotsFor(context.Background(), "v", "01-03-2026")
	var ve *apperr.ValidationError
	assert.ErrorAs(t, err, &ve)

	_, err = f.inv.SlotsFor(context.Background(), "unknown", today)
	var nf *apperr.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestTodayUsesVenueTimezone(t *testing.T) {
	f := newFixture(t)
	// 20:00 UTC is already the next day in India
	f.inv.Clock = func() time.Time { return time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC) }
	assert.Equal(t, "2026-03-02", f.inv.Today())
	assert.Equal(t, "2026-03-02", f.inv.Window()[0])
	assert.Len(t, f.inv.Window(), 14)
}

func TestRunRefresherStopsOnCancel(t *testing.T) {
	f := newFixture(t)
	v := f.approvedVenue(t, 800)
	f.inv.Clock = func() time.Time { return testNow.AddDate(0, 0, 2) }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.inv.RunRefresher(ctx, time.Hour)
		close(done)
	}()
	require.Eventually(t, func() bool {
		slots, _ := f.st.SlotsFor(context.Background(), v.ID, "2026-03-16")
		return len(slots) == 17
	}, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("refresher did not stop")
	}
}
