package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/iliyamo/turf-slot-booking/internal/model"
	"github.com/iliyamo/turf-slot-booking/internal/store"
)

// VenueRepo provides CRUD and approval transitions for the venues table.
type VenueRepo struct {
	db *sql.DB
}

// NewVenueRepo returns a new VenueRepo bound to db.
func NewVenueRepo(db *sql.DB) *VenueRepo { return &VenueRepo{db: db} }

const venueColumns = `id, owner_id, name, location, address, city, price_per_hour, opening_time, closing_time,
	sport_types, amenities, approval_status, is_available, rating, created_at, updated_at`

// Create inserts a new venue.  verified is derived from the status.
func (r *VenueRepo) Create(ctx context.Context, v *model.Venue) error {
	sports, err := json.Marshal(nonNil(v.SportTypes))
	if err != nil {
		return err
	}
	amenities, err := json.Marshal(nonNil(v.Amenities))
	if err != nil {
		return err
	}
	const q = `INSERT INTO venues (id, owner_id, name, location, address, city, price_per_hour, opening_time, closing_time,
		sport_types, amenities, approval_status, verified, is_available, rating, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, q,
		v.ID, v.OwnerID, v.Name, v.Location, v.Address, v.City, v.PricePerHour, v.OpeningTime, v.ClosingTime,
		sports, amenities, string(v.ApprovalStatus), v.Verified(), v.IsAvailable, v.Rating, v.CreatedAt, v.UpdatedAt)
	return translate("create venue", err)
}

// GetByID fetches a single venue.
func (r *VenueRepo) GetByID(ctx context.Context, id string) (*model.Venue, error) {
	return getVenue(ctx, r.db, id, false)
}

// ListByOwner returns every venue of ownerID regardless of status.
func (r *VenueRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.Venue, error) {
	q := `SELECT ` + venueColumns + ` FROM venues WHERE owner_id = ? ORDER BY created_at DESC`
	out, err := scanVenues(r.db.QueryContext(ctx, q, ownerID))
	return out, translate("list owner venues", err)
}

// ListByStatus returns venues in one approval state, oldest first so the
// review queue is processed in submission order.
func (r *VenueRepo) ListByStatus(ctx context.Context, status model.ApprovalStatus) ([]model.Venue, error) {
	q := `SELECT ` + venueColumns + ` FROM venues WHERE approval_status = ? ORDER BY created_at`
	out, err := scanVenues(r.db.QueryContext(ctx, q, string(status)))
	return out, translate("list venues by status", err)
}

// TransitionApproval locks the venue row, lets decide pick the next
// status and writes approval_status and verified in one statement.
func (r *VenueRepo) TransitionApproval(ctx context.Context, id string, decide func(*model.Venue) (model.ApprovalStatus, error)) (*model.Venue, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin approval tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	v, err := getVenue(ctx, tx, id, true)
	if err != nil {
		return nil, err
	}
	next, err := decide(v)
	if err != nil {
		return nil, err
	}
	v.ApprovalStatus = next
	const q = `UPDATE venues SET approval_status = ?, verified = ? WHERE id = ?`
	if _, err := tx.ExecContext(ctx, q, string(next), v.Verified(), id); err != nil {
		return nil, translate("update approval", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit approval tx: %w", err)
	}
	committed = true
	return v, nil
}

// SetAvailability toggles is_available and returns the updated venue.
func (r *VenueRepo) SetAvailability(ctx context.Context, id string, available bool) (*model.Venue, error) {
	if _, err := r.db.ExecContext(ctx, `UPDATE venues SET is_available = ? WHERE id = ?`, available, id); err != nil {
		return nil, translate("set availability", err)
	}
	// RowsAffected is 0 both for a missing id and for an unchanged flag,
	// so existence is checked by reading the row back.
	return r.GetByID(ctx, id)
}

func getVenue(ctx context.Context, q queryer, id string, forUpdate bool) (*model.Venue, error) {
	query := `SELECT ` + venueColumns + ` FROM venues WHERE id = ?`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	list, err := scanVenues(q.QueryContext(ctx, query, id))
	if err != nil {
		return nil, translate("get venue", err)
	}
	if len(list) == 0 {
		return nil, store.ErrNotFound
	}
	return &list[0], nil
}

func scanVenues(rows *sql.Rows, err error) ([]model.Venue, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Venue{}
	for rows.Next() {
		var (
			v                 model.Venue
			sports, amenities []byte
			status            string
		)
		if err := rows.Scan(&v.ID, &v.OwnerID, &v.Name, &v.Location, &v.Address, &v.City, &v.PricePerHour,
			&v.OpeningTime, &v.ClosingTime, &sports, &amenities, &status, &v.IsAvailable, &v.Rating,
			&v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		v.ApprovalStatus = model.ApprovalStatus(status)
		if err := decodeSet(sports, &v.SportTypes); err != nil {
			return nil, err
		}
		if err := decodeSet(amenities, &v.Amenities); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func decodeSet(raw []byte, dst *[]string) error {
	*dst = []string{}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode set: %w", err)
	}
	if *dst == nil {
		*dst = []string{}
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
