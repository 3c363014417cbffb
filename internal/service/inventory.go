package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/iliyamo/turf-slot-booking/internal/apperr"
	"github.com/iliyamo/turf-slot-booking/internal/model"
	"github.com/iliyamo/turf-slot-booking/internal/slotgrid"
	"github.com/iliyamo/turf-slot-booking/internal/store"
)

var tracer = otel.Tracer("github.com/iliyamo/turf-slot-booking/internal/service")

// DefaultWindowDays is the length of the rolling inventory window.
const DefaultWindowDays = 14

// Inventory reads and populates the slot inventory of venues.
type Inventory struct {
	venues store.VenueStore
	slots  store.SlotStore
	cache  SlotCache
	log    *zap.Logger
	loc    *time.Location
	days   int

	// Clock returns the current instant.  Tests replace it.
	Clock func() time.Time
}

// NewInventory wires an Inventory.  cache may be nil.
func NewInventory(venues store.VenueStore, slots store.SlotStore, cache SlotCache, log *zap.Logger, loc *time.Location, days int) *Inventory {
	if cache == nil {
		cache = noCache{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	if days <= 0 {
		days = DefaultWindowDays
	}
	return &Inventory{venues: venues, slots: slots, cache: cache, log: log, loc: loc, days: days, Clock: time.Now}
}

// Today is the current calendar date in the venue timezone.
func (i *Inventory) Today() string {
	return i.Clock().In(i.loc).Format(slotgrid.DateLayout)
}

// Window lists the dates covered by the rolling window starting today.
func (i *Inventory) Window() []string {
	return slotgrid.Window(i.Clock(), i.loc, i.days)
}

// SlotsFor returns the slots of a venue day.  The list is empty when no
// inventory was generated for that date.
func (i *Inventory) SlotsFor(ctx context.Context, venueID, date string) ([]model.Slot, error) {
	if !slotgrid.ValidDate(date) {
		return nil, apperr.Validation("date", "must be a calendar date in YYYY-MM-DD form")
	}
	if _, err := i.venues.GetByID(ctx, venueID); err != nil {
		return nil, classify("get venue", "venue", venueID, err)
	}

	// version pins the write-back below to the state read here.
	cached, ok, version, cacheErr := i.cache.Get(ctx, venueID, date)
	if cacheErr != nil {
		i.log.Warn("slot cache read failed", zap.String("venue_id", venueID), zap.String("date", date), zap.Error(cacheErr))
	} else if ok {
		return cached, nil
	}

	slots, err := i.slots.SlotsFor(ctx, venueID, date)
	if err != nil {
		i.log.Error("list slots failed", zap.String("venue_id", venueID), zap.Error(err))
		return nil, apperr.Storage("list slots", err)
	}
	if slots == nil {
		slots = []model.Slot{}
	}
	if cacheErr != nil {
		// no trustworthy version to write back with
		return slots, nil
	}
	if stored, err := i.cache.Set(ctx, venueID, date, version, slots); err != nil {
		i.log.Warn("slot cache write failed", zap.String("venue_id", venueID), zap.Error(err))
	} else if !stored {
		i.log.Debug("slot cache write skipped, day changed during read", zap.String("venue_id", venueID), zap.String("date", date))
	}
	return slots, nil
}

// PopulateResult summarises one generation run.
type PopulateResult struct {
	FirstDate string `json:"firstDate"`
	Days      int    `json:"days"`
	Created   int64  `json:"created"`
}

// Populate generates the grid for every date of the window and inserts
// the slots that do not exist yet.  Existing slots keep their booked
// flag, so Populate may run any number of times.
func (i *Inventory) Populate(ctx context.Context, v *model.Venue) (PopulateResult, error) {
	ctx, span := tracer.Start(ctx, "inventory.populate")
	defer span.End()
	span.SetAttributes(attribute.String("venue.id", v.ID))

	dates := i.Window()
	res := PopulateResult{FirstDate: dates[0], Days: len(dates)}
	for _, d := range dates {
		grid, err := slotgrid.Generate(v.ID, d, v.PricePerHour)
		if err != nil {
			return res, apperr.Validation("pricePerHour", "%v", err)
		}
		n, err := i.slots.InsertSlots(ctx, grid)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "insert slots")
			return res, apperr.Storage("insert slots", err)
		}
		res.Created += n
	}
	if err := i.cache.Invalidate(ctx, v.ID, dates...); err != nil {
		i.log.Warn("slot cache invalidate failed", zap.String("venue_id", v.ID), zap.Error(err))
	}
	span.SetAttributes(attribute.Int64("slots.created", res.Created))
	i.log.Info("inventory populated",
		zap.String("venue_id", v.ID), zap.String("from", res.FirstDate),
		zap.Int("days", res.Days), zap.Int64("created", res.Created))
	return res, nil
}

// Refresh rolls the window forward for every approved venue.  Pending
// and rejected venues are never touched.
func (i *Inventory) Refresh(ctx context.Context) (int64, error) {
	venues, err := i.venues.ListByStatus(ctx, model.ApprovalApproved)
	if err != nil {
		return 0, apperr.Storage("list approved venues", err)
	}
	var total int64
	for k := range venues {
		res, err := i.Populate(ctx, &venues[k])
		if err != nil {
			i.log.Error("inventory refresh failed", zap.String("venue_id", venues[k].ID), zap.Error(err))
			continue
		}
		total += res.Created
	}
	return total, nil
}

// RunRefresher calls Refresh immediately and then on every tick until
// ctx is cancelled.
func (i *Inventory) RunRefresher(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = 6 * time.Hour
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		if n, err := i.Refresh(ctx); err != nil {
			i.log.Warn("inventory refresh skipped", zap.Error(err))
		} else if n > 0 {
			i.log.Info("inventory window extended", zap.Int64("created", n))
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}
