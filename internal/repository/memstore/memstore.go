// Package memstore is an in-process implementation of every store port.
// It backs STORE_DRIVER=memory and the service tests.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/turf-slot-booking/internal/model"
	"github.com/iliyamo/turf-slot-booking/internal/store"
)

// Store keeps all state behind one RWMutex.  Reservations additionally
// hold a mutex per (venue, date) for the whole unit of work, which gives
// the same serialisation as row locks in MySQL.
type Store struct {
	mu       sync.RWMutex
	venues   map[string]model.Venue
	slots    map[string]model.Slot
	byDay    map[string][]string // dayKey -> slot ids
	bookings map[string]model.Booking
	codes    map[string]string // booking code -> booking id
	users    map[string]model.User
	emails   map[string]string // email -> user id
	roles    map[string]map[string]time.Time
	tokens   map[string]tokenRow
	cities   map[string]string // lower(name) -> name

	dayLocks sync.Map // dayKey -> *sync.Mutex
}

type tokenRow struct {
	userID    string
	expiresAt time.Time
	revoked   bool
}

// New returns an empty store.
func New() *Store {
	return &Store{
		venues:   map[string]model.Venue{},
		slots:    map[string]model.Slot{},
		byDay:    map[string][]string{},
		bookings: map[string]model.Booking{},
		codes:    map[string]string{},
		users:    map[string]model.User{},
		emails:   map[string]string{},
		roles:    map[string]map[string]time.Time{},
		tokens:   map[string]tokenRow{},
		cities:   map[string]string{},
	}
}

var (
	_ store.SlotStore    = (*Store)(nil)
	_ store.BookingStore = (*Store)(nil)
	_ store.VenueStore   = (*Store)(nil)
	_ store.OwnerStore   = (*Store)(nil)
	_ store.UserStore    = (*Store)(nil)
	_ store.TokenStore   = (*Store)(nil)
	_ store.CityStore    = (*Store)(nil)
)

func dayKey(venueID, date string) string { return venueID + "|" + date }

// ---- slots ----

func (s *Store) SlotsFor(_ context.Context, venueID, date string) ([]model.Slot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.slotsLocked(venueID, date), nil
}

func (s *Store) slotsLocked(venueID, date string) []model.Slot {
	ids := s.byDay[dayKey(venueID, date)]
	out := make([]model.Slot, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.slots[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out
}

// InsertSlots adds slots whose id is unknown.  Known ids keep their
// stored state, including is_booked.
func (s *Store) InsertSlots(_ context.Context, slots []model.Slot) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, sl := range slots {
		if _, ok := s.slots[sl.ID]; ok {
			continue
		}
		sl.IsBooked = false
		s.slots[sl.ID] = sl
		k := dayKey(sl.VenueID, sl.Date)
		s.byDay[k] = append(s.byDay[k], sl.ID)
		n++
	}
	return n, nil
}

// ---- bookings ----

func (s *Store) dayLock(k string) *sync.Mutex {
	m, _ := s.dayLocks.LoadOrStore(k, &sync.Mutex{})
	return m.(*sync.Mutex)
}

// InBookingTx runs fn while holding the (venue, date) lock.  Writes are
// staged on the unit and applied only after fn returns nil.
func (s *Store) InBookingTx(ctx context.Context, venueID, date string, fn func(store.BookingTx) error) error {
	lock := s.dayLock(dayKey(venueID, date))
	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	u := &unit{s: s, venueID: venueID, date: date}
	if err := fn(u); err != nil {
		return err
	}
	return s.apply(u)
}

func (s *Store) apply(u *unit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range u.bookings {
		if _, taken := s.codes[b.BookingCode]; taken {
			return store.ErrDuplicate
		}
	}
	for _, id := range u.booked {
		sl := s.slots[id]
		sl.IsBooked = true
		s.slots[id] = sl
	}
	for _, b := range u.bookings {
		s.bookings[b.ID] = b
		s.codes[b.BookingCode] = b.ID
	}
	return nil
}

// unit stages the writes of one reservation.
type unit struct {
	s        *Store
	venueID  string
	date     string
	booked   []string
	bookings []model.Booking
}

func (u *unit) LockSlots(_ context.Context) ([]model.Slot, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	return u.s.slotsLocked(u.venueID, u.date), nil
}

func (u *unit) MarkBooked(_ context.Context, slotIDs []string) error {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	for _, id := range slotIDs {
		sl, ok := u.s.slots[id]
		if !ok || sl.IsBooked || sl.VenueID != u.venueID || sl.Date != u.date {
			return store.ErrNotFound
		}
	}
	u.booked = append(u.booked, slotIDs...)
	return nil
}

func (u *unit) InsertBooking(_ context.Context, b *model.Booking) error {
	u.s.mu.RLock()
	_, taken := u.s.codes[b.BookingCode]
	u.s.mu.RUnlock()
	if taken {
		return store.ErrDuplicate
	}
	for _, staged := range u.bookings {
		if staged.BookingCode == b.BookingCode {
			return store.ErrDuplicate
		}
	}
	u.bookings = append(u.bookings, cloneBooking(*b))
	return nil
}

func (s *Store) GetByCode(_ context.Context, code string) (*model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.codes[code]
	if !ok {
		return nil, store.ErrNotFound
	}
	b := cloneBooking(s.bookings[id])
	return &b, nil
}

func (s *Store) ListByUser(_ context.Context, userID string) ([]model.Booking, error) {
	return s.filterBookings(func(b model.Booking) bool { return b.UserID != nil && *b.UserID == userID }, 0), nil
}

func (s *Store) ListByVenueOwner(_ context.Context, ownerID string) ([]model.Booking, error) {
	s.mu.RLock()
	owned := map[string]bool{}
	for id, v := range s.venues {
		if v.OwnerID == ownerID {
			owned[id] = true
		}
	}
	s.mu.RUnlock()
	return s.filterBookings(func(b model.Booking) bool { return owned[b.VenueID] }, 0), nil
}

func (s *Store) ListAll(_ context.Context, limit int) ([]model.Booking, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.filterBookings(func(model.Booking) bool { return true }, limit), nil
}

func (s *Store) filterBookings(keep func(model.Booking) bool, limit int) []model.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Booking{}
	for _, b := range s.bookings {
		if keep(b) {
			out = append(out, cloneBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func cloneBooking(b model.Booking) model.Booking {
	b.SlotIDs = append([]string(nil), b.SlotIDs...)
	if b.UserID != nil {
		uid := *b.UserID
		b.UserID = &uid
	}
	return b
}

// ---- venues ----

func (s *Store) Create(_ context.Context, v *model.Venue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.venues[v.ID]; ok {
		return store.ErrDuplicate
	}
	s.venues[v.ID] = cloneVenue(*v)
	return nil
}

func (s *Store) GetByID(_ context.Context, id string) (*model.Venue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.venues[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := cloneVenue(v)
	return &c, nil
}

func (s *Store) ListPublic(_ context.Context, f model.VenueFilter) ([]model.Venue, int64, error) {
	s.mu.RLock()
	matched := []model.Venue{}
	for _, v := range s.venues {
		if v.Bookable() && matchesFilter(v, f) {
			matched = append(matched, cloneVenue(v))
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Rating != matched[j].Rating {
			return matched[i].Rating > matched[j].Rating
		}
		return matched[i].Name < matched[j].Name
	})
	total := int64(len(matched))
	page, size := f.Page, f.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	if size > 100 {
		size = 100
	}
	start := (page - 1) * size
	if start >= len(matched) {
		return []model.Venue{}, total, nil
	}
	end := start + size
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func matchesFilter(v model.Venue, f model.VenueFilter) bool {
	if f.City != "" && !strings.EqualFold(v.City, f.City) {
		return false
	}
	if f.Sport != "" {
		found := false
		for _, sp := range v.SportTypes {
			if strings.EqualFold(sp, f.Sport) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		hay := strings.ToLower(v.Name + "\n" + v.Address + "\n" + v.Location)
		if !strings.Contains(hay, q) {
			return false
		}
	}
	return true
}

func (s *Store) ListByOwner(_ context.Context, ownerID string) ([]model.Venue, error) {
	return s.filterVenues(func(v model.Venue) bool { return v.OwnerID == ownerID }), nil
}

func (s *Store) ListByStatus(_ context.Context, status model.ApprovalStatus) ([]model.Venue, error) {
	return s.filterVenues(func(v model.Venue) bool { return v.ApprovalStatus == status }), nil
}

func (s *Store) filterVenues(keep func(model.Venue) bool) []model.Venue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Venue{}
	for _, v := range s.venues {
		if keep(v) {
			out = append(out, cloneVenue(v))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *Store) TransitionApproval(_ context.Context, id string, decide func(*model.Venue) (model.ApprovalStatus, error)) (*model.Venue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.venues[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := cloneVenue(v)
	next, err := decide(&c)
	if err != nil {
		return nil, err
	}
	v.ApprovalStatus = next
	v.UpdatedAt = time.Now().UTC()
	s.venues[id] = v
	out := cloneVenue(v)
	return &out, nil
}

func (s *Store) SetAvailability(_ context.Context, id string, available bool) (*model.Venue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.venues[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	v.IsAvailable = available
	v.UpdatedAt = time.Now().UTC()
	s.venues[id] = v
	out := cloneVenue(v)
	return &out, nil
}

func cloneVenue(v model.Venue) model.Venue {
	v.SportTypes = append([]string{}, v.SportTypes...)
	v.Amenities = append([]string{}, v.Amenities...)
	return v
}
