// Package store declares the persistence ports used by the services.  The
// MySQL repositories and the in-memory store both implement them.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/turf-slot-booking/internal/model"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique key is already taken.
	ErrDuplicate = errors.New("duplicate key")
)

// SlotStore is the inventory of generated slots.
type SlotStore interface {
	// SlotsFor lists the slots of one venue and date ordered by start time.
	SlotsFor(ctx context.Context, venueID, date string) ([]model.Slot, error)
	// InsertSlots inserts slots that do not exist yet and returns how many
	// were new.  Existing rows, booked or not, are left untouched.
	InsertSlots(ctx context.Context, slots []model.Slot) (int64, error)
}

// BookingTx is the unit of work for one reservation.  All calls run
// inside a single critical section scoped to (venue, date).
type BookingTx interface {
	// LockSlots returns every slot of the (venue, date) and holds them
	// until the unit finishes.
	LockSlots(ctx context.Context) ([]model.Slot, error)
	MarkBooked(ctx context.Context, slotIDs []string) error
	InsertBooking(ctx context.Context, b *model.Booking) error
}

// BookingStore persists bookings.
type BookingStore interface {
	// InBookingTx runs fn atomically.  If fn returns an error nothing it
	// did is kept.
	InBookingTx(ctx context.Context, venueID, date string, fn func(tx BookingTx) error) error
	GetByCode(ctx context.Context, code string) (*model.Booking, error)
	ListByUser(ctx context.Context, userID string) ([]model.Booking, error)
	ListByVenueOwner(ctx context.Context, ownerID string) ([]model.Booking, error)
	ListAll(ctx context.Context, limit int) ([]model.Booking, error)
}

// VenueStore persists venue listings.
type VenueStore interface {
	Create(ctx context.Context, v *model.Venue) error
	GetByID(ctx context.Context, id string) (*model.Venue, error)
	// ListPublic returns approved, available venues and the total count.
	ListPublic(ctx context.Context, f model.VenueFilter) ([]model.Venue, int64, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.Venue, error)
	ListByStatus(ctx context.Context, status model.ApprovalStatus) ([]model.Venue, error)
	// TransitionApproval locks the venue, asks decide for the next status
	// and writes it together with the verified flag.
	TransitionApproval(ctx context.Context, id string, decide func(v *model.Venue) (model.ApprovalStatus, error)) (*model.Venue, error)
	SetAvailability(ctx context.Context, id string, available bool) (*model.Venue, error)
}

// OwnerStore persists the owner onboarding state of users.
type OwnerStore interface {
	GetOwner(ctx context.Context, userID string) (*model.OwnerAccount, error)
	ListOwnersByStatus(ctx context.Context, status model.OwnerStatus) ([]model.OwnerAccount, error)
	// TransitionOwner locks the account, asks decide for the next status
	// and writes it.
	TransitionOwner(ctx context.Context, userID string, decide func(a *model.OwnerAccount) (model.OwnerStatus, error)) (*model.OwnerAccount, error)
}

// UserStore persists accounts and their role assignments.
type UserStore interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GrantRole(ctx context.Context, userID, role string) error
	RolesFor(ctx context.Context, userID string) ([]string, error)
}

// TokenStore persists hashed refresh tokens.
type TokenStore interface {
	StoreRefresh(ctx context.Context, userID, tokenHash string, exp time.Time) error
	// ValidateRefresh returns the owner of an active token or ErrNotFound.
	ValidateRefresh(ctx context.Context, tokenHash string) (string, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID string) error
}

// CityStore persists the directory city list.
type CityStore interface {
	ListCities(ctx context.Context) ([]string, error)
	AddCity(ctx context.Context, name string) error
	DeleteCity(ctx context.Context, name string) error
}
