package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/iliyamo/turf-slot-booking/internal/model"
	"github.com/iliyamo/turf-slot-booking/internal/store"
)

// BookingRepo provides persistence for bookings and owns the reservation
// transaction.  All timestamps are stored in UTC.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, user_id, venue_id, venue_name, venue_address, booking_date, start_time, end_time,
	duration, total_amount, paid_amount, balance_amount, payment_method, status, booking_code, slot_ids, created_at`

// InBookingTx opens a transaction, hands fn a unit bound to (venue, date)
// and commits only if fn succeeds.  The slot rows are locked by the
// first LockSlots call and stay locked until commit or rollback, which
// serialises competing reservations for the same day of a venue.  A
// transaction chosen as a deadlock victim is retried once.
func (r *BookingRepo) InBookingTx(ctx context.Context, venueID, date string, fn func(store.BookingTx) error) error {
	err := r.runBookingTx(ctx, venueID, date, fn)
	if IsDeadlock(err) {
		err = r.runBookingTx(ctx, venueID, date, fn)
	}
	return err
}

func (r *BookingRepo) runBookingTx(ctx context.Context, venueID, date string, fn func(store.BookingTx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin booking tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(&bookingUnit{tx: tx, venueID: venueID, date: date}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit booking tx: %w", err)
	}
	committed = true
	return nil
}

// bookingUnit is the store.BookingTx bound to one open transaction.
type bookingUnit struct {
	tx      *sql.Tx
	venueID string
	date    string
}

func (u *bookingUnit) LockSlots(ctx context.Context) ([]model.Slot, error) {
	return lockSlotsTx(ctx, u.tx, u.venueID, u.date)
}

func (u *bookingUnit) MarkBooked(ctx context.Context, slotIDs []string) error {
	n, err := markBookedTx(ctx, u.tx, slotIDs)
	if err != nil {
		return err
	}
	// Rows are locked, so a short count means the ids were wrong.
	if n != int64(len(slotIDs)) {
		return fmt.Errorf("mark booked: updated %d of %d slots", n, len(slotIDs))
	}
	return nil
}

func (u *bookingUnit) InsertBooking(ctx context.Context, b *model.Booking) error {
	slotIDs, err := json.Marshal(b.SlotIDs)
	if err != nil {
		return err
	}
	const q = `INSERT INTO bookings (` + bookingColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = u.tx.ExecContext(ctx, q,
		b.ID, nullString(b.UserID), b.VenueID, b.VenueName, b.VenueAddress, b.Date, b.StartTime, b.EndTime,
		b.Duration, b.TotalAmount, b.PaidAmount, b.BalanceAmount, b.PaymentMethod, string(b.Status), b.BookingCode,
		slotIDs, b.CreatedAt)
	return translate("insert booking", err)
}

// GetByCode looks a booking up by its human code.
func (r *BookingRepo) GetByCode(ctx context.Context, code string) (*model.Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE booking_code = ? LIMIT 1`
	rows, err := r.db.QueryContext(ctx, q, code)
	list, err := scanBookings(rows, err)
	if err != nil {
		return nil, translate("get booking", err)
	}
	if len(list) == 0 {
		return nil, store.ErrNotFound
	}
	return &list[0], nil
}

// ListByUser returns a player's bookings, newest first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID string) ([]model.Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = ? ORDER BY created_at DESC`
	out, err := scanBookings(r.db.QueryContext(ctx, q, userID))
	return out, translate("list user bookings", err)
}

// ListByVenueOwner returns bookings made at any venue of ownerID.
func (r *BookingRepo) ListByVenueOwner(ctx context.Context, ownerID string) ([]model.Booking, error) {
	q := `SELECT ` + prefixed("b", bookingColumns) + ` FROM bookings b
		JOIN venues v ON v.id = b.venue_id
		WHERE v.owner_id = ?
		ORDER BY b.booking_date DESC, b.start_time`
	out, err := scanBookings(r.db.QueryContext(ctx, q, ownerID))
	return out, translate("list owner bookings", err)
}

// ListAll returns the most recent bookings for the admin console.
func (r *BookingRepo) ListAll(ctx context.Context, limit int) ([]model.Booking, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `SELECT ` + bookingColumns + ` FROM bookings ORDER BY created_at DESC LIMIT ?`
	out, err := scanBookings(r.db.QueryContext(ctx, q, limit))
	return out, translate("list bookings", err)
}

func scanBookings(rows *sql.Rows, err error) ([]model.Booking, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Booking{}
	for rows.Next() {
		var (
			b       model.Booking
			userID  sql.NullString
			status  string
			slotIDs []byte
		)
		if err := rows.Scan(&b.ID, &userID, &b.VenueID, &b.VenueName, &b.VenueAddress, &b.Date, &b.StartTime, &b.EndTime,
			&b.Duration, &b.TotalAmount, &b.PaidAmount, &b.BalanceAmount, &b.PaymentMethod, &status, &b.BookingCode,
			&slotIDs, &b.CreatedAt); err != nil {
			return nil, err
		}
		if userID.Valid {
			uid := userID.String
			b.UserID = &uid
		}
		b.Status = model.BookingStatus(status)
		if len(slotIDs) > 0 {
			if err := json.Unmarshal(slotIDs, &b.SlotIDs); err != nil {
				return nil, fmt.Errorf("decode slot ids: %w", err)
			}
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func nullString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// prefixed qualifies every column of a comma separated list with alias.
func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
