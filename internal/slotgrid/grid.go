// Package slotgrid derives the fixed daily slot grid of a venue.
package slotgrid

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/iliyamo/turf-slot-booking/internal/model"
)

// DateLayout is the calendar date format used for slots and bookings.
const DateLayout = "2006-01-02"

// SlotsPerDay is the size of the grid produced for one date.
const SlotsPerDay = 17

// tier describes one pricing bracket of the day.
type tier struct {
	letter     string
	period     model.Period
	firstHour  int
	count      int
	multiplier float64
}

// tiers is the full daily grid: 06..11 at base, 12..17 at 1.2x and
// 18..22 at 1.5x.  Clients display these prices, so the table must not
// change shape.
var tiers = []tier{
	{letter: "m", period: model.PeriodMorning, firstHour: 6, count: 6, multiplier: 1.0},
	{letter: "a", period: model.PeriodAfternoon, firstHour: 12, count: 6, multiplier: 1.2},
	{letter: "e", period: model.PeriodEvening, firstHour: 18, count: 5, multiplier: 1.5},
}

var (
	ErrNegativePrice = errors.New("base price must not be negative")
	ErrInvalidDate   = errors.New("date must be YYYY-MM-DD")
	ErrMissingVenue  = errors.New("venue id is required")
)

// Generate returns the 17 slots for venueID on date.  The result depends
// only on its arguments, and slot ids are stable across calls.
func Generate(venueID, date string, basePrice int) ([]model.Slot, error) {
	if venueID == "" {
		return nil, ErrMissingVenue
	}
	if basePrice < 0 {
		return nil, ErrNegativePrice
	}
	if !ValidDate(date) {
		return nil, ErrInvalidDate
	}

	out := make([]model.Slot, 0, SlotsPerDay)
	for _, t := range tiers {
		price := TierPrice(basePrice, t.multiplier)
		for i := 0; i < t.count; i++ {
			h := t.firstHour + i
			out = append(out, model.Slot{
				ID:        SlotID(venueID, date, t.letter, i),
				VenueID:   venueID,
				Date:      date,
				StartTime: HourLabel(h),
				EndTime:   HourLabel(h + 1),
				Price:     price,
				Period:    t.period,
			})
		}
	}
	return out, nil
}

// TierPrice applies a tier multiplier with round-half-up.
func TierPrice(base int, multiplier float64) int {
	return int(math.Floor(float64(base)*multiplier + 0.5))
}

// SlotID builds the deterministic slot identifier.
func SlotID(venueID, date, letter string, index int) string {
	return fmt.Sprintf("%s-%s-%s%d", venueID, date, letter, index)
}

// HourLabel formats an hour as "HH:00".
func HourLabel(h int) string {
	return fmt.Sprintf("%02d:00", h)
}

// ValidDate reports whether s is a real calendar date in DateLayout.
func ValidDate(s string) bool {
	t, err := time.Parse(DateLayout, s)
	return err == nil && t.Format(DateLayout) == s
}

// Window lists the dates of the rolling inventory window starting at
// today (inclusive) in loc.
func Window(today time.Time, loc *time.Location, days int) []string {
	if loc == nil {
		loc = time.UTC
	}
	t := today.In(loc)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	dates := make([]string, 0, days)
	for i := 0; i < days; i++ {
		dates = append(dates, start.AddDate(0, 0, i).Format(DateLayout))
	}
	return dates
}
