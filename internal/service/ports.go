// Package service implements the booking core: rolling slot inventory,
// the transactional booking engine, the owner/venue approval workflow and
// the public venue directory.  Services depend only on the ports in
// internal/store and the small interfaces declared here.
package service

import (
	"context"

	"github.com/iliyamo/turf-slot-booking/internal/model"
	"github.com/iliyamo/turf-slot-booking/internal/queue"
)

// EventPublisher emits domain events after state changes commit.
// queue.Publisher and queue.NopPublisher implement it.
type EventPublisher interface {
	PublishBookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error
	PublishVenueApproved(ctx context.Context, ev queue.VenueApprovedEvent) error
}

// SlotCache is a read-through cache of a venue day.  cache.SlotCache
// implements it on Redis.  Get returns the day version alongside the
// entry; Set must be given that version and skips the write when an
// Invalidate happened in between.
type SlotCache interface {
	Get(ctx context.Context, venueID, date string) (slots []model.Slot, hit bool, version int64, err error)
	Set(ctx context.Context, venueID, date string, version int64, slots []model.Slot) (bool, error)
	Invalidate(ctx context.Context, venueID string, dates ...string) error
}

type noCache struct{}

func (noCache) Get(context.Context, string, string) ([]model.Slot, bool, int64, error) {
	return nil, false, 0, nil
}
func (noCache) Set(context.Context, string, string, int64, []model.Slot) (bool, error) {
	return false, nil
}
func (noCache) Invalidate(context.Context, string, ...string) error     { return nil }
