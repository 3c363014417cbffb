package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/iliyamo/turf-slot-booking/internal/apperr"
	"github.com/iliyamo/turf-slot-booking/internal/model"
	"github.com/iliyamo/turf-slot-booking/internal/queue"
	"github.com/iliyamo/turf-slot-booking/internal/store"
)

// ApprovalWorkflow drives the owner and venue state machines.  Approving
// a venue is the only way inventory gets created.
type ApprovalWorkflow struct {
	owners    store.OwnerStore
	venues    store.VenueStore
	inventory *Inventory
	events    EventPublisher
	log       *zap.Logger
}

func NewApprovalWorkflow(owners store.OwnerStore, venues store.VenueStore, inv *Inventory, events EventPublisher, log *zap.Logger) *ApprovalWorkflow {
	if events == nil {
		events = queue.NopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ApprovalWorkflow{owners: owners, venues: venues, inventory: inv, events: events, log: log}
}

// ---- owners ----

// RequestOwnerRole moves a user from none to pending and grants the
// owner role.
func (w *ApprovalWorkflow) RequestOwnerRole(ctx context.Context, userID string) (*model.OwnerAccount, error) {
	return w.moveOwner(ctx, userID, model.OwnerPending)
}

func (w *ApprovalWorkflow) ApproveOwner(ctx context.Context, userID string) (*model.OwnerAccount, error) {
	return w.moveOwner(ctx, userID, model.OwnerApproved)
}

// RejectOwner is terminal.  Venues the owner already got approved stay
// listed.
func (w *ApprovalWorkflow) RejectOwner(ctx context.Context, userID string) (*model.OwnerAccount, error) {
	return w.moveOwner(ctx, userID, model.OwnerRejected)
}

func (w *ApprovalWorkflow) moveOwner(ctx context.Context, userID string, next model.OwnerStatus) (*model.OwnerAccount, error) {
	acc, err := w.owners.TransitionOwner(ctx, userID, func(a *model.OwnerAccount) (model.OwnerStatus, error) {
		return a.OwnerStatus.NextOwner(next)
	})
	if err != nil {
		return nil, classify("transition owner", "owner", userID, err)
	}
	w.log.Info("owner status changed", zap.String("user_id", userID), zap.String("status", string(acc.OwnerStatus)))
	return acc, nil
}

// OwnerStatus returns the onboarding state of userID.
func (w *ApprovalWorkflow) OwnerStatus(ctx context.Context, userID string) (*model.OwnerAccount, error) {
	acc, err := w.owners.GetOwner(ctx, userID)
	if err != nil {
		return nil, classify("get owner", "owner", userID, err)
	}
	return acc, nil
}

func (w *ApprovalWorkflow) PendingOwners(ctx context.Context) ([]model.OwnerAccount, error) {
	out, err := w.owners.ListOwnersByStatus(ctx, model.OwnerPending)
	if err != nil {
		return nil, apperr.Storage("list pending owners", err)
	}
	if out == nil {
		out = []model.OwnerAccount{}
	}
	return out, nil
}

// ---- venues ----

// VenueInput is the body of POST /v1/owner/venues.
type VenueInput struct {
	Name         string   `json:"name"`
	Location     string   `json:"location"`
	Address      string   `json:"address"`
	City         string   `json:"city"`
	PricePerHour int      `json:"pricePerHour"`
	OpeningTime  string   `json:"openingTime"`
	ClosingTime  string   `json:"closingTime"`
	SportTypes   []string `json:"sportTypes"`
	Amenities    []string `json:"amenities"`
}

func (in *VenueInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Location = strings.TrimSpace(in.Location)
	in.Address = strings.TrimSpace(in.Address)
	in.City = strings.TrimSpace(in.City)
	if in.Name == "" {
		return apperr.Validation("name", "is required")
	}
	if in.Address == "" {
		return apperr.Validation("address", "is required")
	}
	if in.City == "" {
		return apperr.Validation("city", "is required")
	}
	if in.PricePerHour <= 0 {
		return apperr.Validation("pricePerHour", "must be positive")
	}
	if in.OpeningTime == "" {
		in.OpeningTime = "06:00"
	}
	if in.ClosingTime == "" {
		in.ClosingTime = "23:00"
	}
	for field, v := range map[string]string{"openingTime": in.OpeningTime, "closingTime": in.ClosingTime} {
		if _, err := time.Parse("15:04", v); err != nil {
			return apperr.Validation(field, "must be HH:MM")
		}
	}
	in.SportTypes = cleanSet(in.SportTypes)
	in.Amenities = cleanSet(in.Amenities)
	if len(in.SportTypes) == 0 {
		return apperr.Validation("sportTypes", "at least one sport is required")
	}
	return nil
}

// cleanSet trims, drops empties and removes duplicates keeping order.
func cleanSet(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		k := strings.ToLower(s)
		if s == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, s)
	}
	return out
}

// SubmitVenue creates a pending venue for an approved owner.
func (w *ApprovalWorkflow) SubmitVenue(ctx context.Context, ownerID string, in VenueInput) (*model.Venue, error) {
	acc, err := w.owners.GetOwner(ctx, ownerID)
	if err != nil {
		return nil, classify("get owner", "owner", ownerID, err)
	}
	if acc.OwnerStatus != model.OwnerApproved {
		return nil, apperr.Forbidden("owner account is %s, venues can be listed once it is approved", acc.OwnerStatus)
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	v := &model.Venue{
		ID:             uuid.NewString(),
		OwnerID:        ownerID,
		Name:           in.Name,
		Location:       in.Location,
		Address:        in.Address,
		City:           in.City,
		PricePerHour:   in.PricePerHour,
		OpeningTime:    in.OpeningTime,
		ClosingTime:    in.ClosingTime,
		SportTypes:     in.SportTypes,
		Amenities:      in.Amenities,
		ApprovalStatus: model.ApprovalPending,
		IsAvailable:    true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := w.venues.Create(ctx, v); err != nil {
		return nil, classify("create venue", "venue", v.ID, err)
	}
	w.log.Info("venue submitted", zap.String("venue_id", v.ID), zap.String("owner_id", ownerID))
	return v, nil
}

// ApproveVenue approves a venue and generates its rolling inventory.
// Approving an approved venue re-runs generation, which only adds the
// missing days.  If generation fails the venue stays approved and the
// call can be repeated.
func (w *ApprovalWorkflow) ApproveVenue(ctx context.Context, id string) (*model.Venue, PopulateResult, error) {
	ctx, sp := tracer.Start(ctx, "approval.venue.approve")
	defer sp.End()
	sp.SetAttributes(attribute.String("venue.id", id))

	v, err := w.moveVenue(ctx, id, model.ApprovalApproved)
	if err != nil {
		return nil, PopulateResult{}, err
	}
	res, err := w.inventory.Populate(ctx, v)
	if err != nil {
		w.log.Error("inventory generation failed after approval", zap.String("venue_id", id), zap.Error(err))
		return v, res, err
	}

	ev := queue.VenueApprovedEvent{
		VenueID:      v.ID,
		VenueName:    v.Name,
		OwnerID:      v.OwnerID,
		FirstDate:    res.FirstDate,
		Days:         res.Days,
		SlotsCreated: res.Created,
		ApprovedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	if err := w.events.PublishVenueApproved(ctx, ev); err != nil {
		w.log.Warn("publish venue.approved failed", zap.String("venue_id", id), zap.Error(err))
	}
	return v, res, nil
}

// RejectVenue hides a venue.  Existing inventory and bookings are kept.
func (w *ApprovalWorkflow) RejectVenue(ctx context.Context, id string) (*model.Venue, error) {
	return w.moveVenue(ctx, id, model.ApprovalRejected)
}

func (w *ApprovalWorkflow) moveVenue(ctx context.Context, id string, next model.ApprovalStatus) (*model.Venue, error) {
	v, err := w.venues.TransitionApproval(ctx, id, func(cur *model.Venue) (model.ApprovalStatus, error) {
		return cur.ApprovalStatus.NextApproval(next)
	})
	if err != nil {
		return nil, classify("transition venue", "venue", id, err)
	}
	w.log.Info("venue status changed", zap.String("venue_id", id), zap.String("status", string(v.ApprovalStatus)))
	return v, nil
}

func (w *ApprovalWorkflow) PendingVenues(ctx context.Context) ([]model.Venue, error) {
	out, err := w.venues.ListByStatus(ctx, model.ApprovalPending)
	if err != nil {
		return nil, apperr.Storage("list pending venues", err)
	}
	return nonNilVenues(out), nil
}

// OwnerVenues lists every venue of ownerID whatever its status.
func (w *ApprovalWorkflow) OwnerVenues(ctx context.Context, ownerID string) ([]model.Venue, error) {
	out, err := w.venues.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperr.Storage("list owner venues", err)
	}
	return nonNilVenues(out), nil
}

// SetAvailability toggles isAvailable.  Only the owning account or an
// admin may do so.
func (w *ApprovalWorkflow) SetAvailability(ctx context.Context, actorID string, isAdmin bool, venueID string, available bool) (*model.Venue, error) {
	v, err := w.venues.GetByID(ctx, venueID)
	if err != nil {
		return nil, classify("get venue", "venue", venueID, err)
	}
	if !isAdmin && v.OwnerID != actorID {
		return nil, apperr.Forbidden("venue belongs to another owner")
	}
	v, err = w.venues.SetAvailability(ctx, venueID, available)
	if err != nil {
		return nil, classify("set availability", "venue", venueID, err)
	}
	return v, nil
}

func nonNilVenues(v []model.Venue) []model.Venue {
	if v == nil {
		return []model.Venue{}
	}
	return v
}
