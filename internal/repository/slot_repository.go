package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/turf-slot-booking/internal/model"
)

// SlotRepo encapsulates database operations for the slots table.
type SlotRepo struct {
	db *sql.DB
}

// NewSlotRepo constructs a SlotRepo given a DB handle.
func NewSlotRepo(db *sql.DB) *SlotRepo { return &SlotRepo{db: db} }

const slotColumns = `id, venue_id, slot_date, start_time, end_time, price, period, is_booked`

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SlotsFor lists the slots of a venue on a date in start-time order.
func (r *SlotRepo) SlotsFor(ctx context.Context, venueID, date string) ([]model.Slot, error) {
	const q = `SELECT ` + slotColumns + ` FROM slots WHERE venue_id = ? AND slot_date = ? ORDER BY start_time`
	out, err := scanSlots(r.db.QueryContext(ctx, q, venueID, date))
	return out, translate("load slots", err)
}

// InsertSlots bulk-inserts slots keyed by id.  A duplicate id keeps the
// stored row as is, so a booked slot never flips back to free.  The
// returned count is the number of new rows.
func (r *SlotRepo) InsertSlots(ctx context.Context, slots []model.Slot) (int64, error) {
	if len(slots) == 0 {
		return 0, nil
	}
	var b strings.Builder
	b.WriteString(`INSERT INTO slots (` + slotColumns + `) VALUES `)
	args := make([]any, 0, len(slots)*8)
	for i, s := range slots {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("(?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args, s.ID, s.VenueID, s.Date, s.StartTime, s.EndTime, s.Price, string(s.Period), false)
	}
	// id = id is a no-op update: MySQL reports 0 affected rows for it.
	b.WriteString(` ON DUPLICATE KEY UPDATE id = id`)
	res, err := r.db.ExecContext(ctx, b.String(), args...)
	if err != nil {
		return 0, translate("insert slots", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, translate("insert slots", err)
	}
	return n, nil
}

// lockSlotsTx reads every slot of (venue, date) with an exclusive row
// lock held until the transaction ends.  Ordering by primary key keeps
// lock acquisition order identical across transactions.
func lockSlotsTx(ctx context.Context, tx queryer, venueID, date string) ([]model.Slot, error) {
	const q = `SELECT ` + slotColumns + ` FROM slots WHERE venue_id = ? AND slot_date = ? ORDER BY id FOR UPDATE`
	out, err := scanSlots(tx.QueryContext(ctx, q, venueID, date))
	return out, translate("lock slots", err)
}

// markBookedTx flips the given slots to booked.  Only rows that are still
// free are updated; a short count means another writer got there first.
func markBookedTx(ctx context.Context, tx queryer, slotIDs []string) (int64, error) {
	if len(slotIDs) == 0 {
		return 0, nil
	}
	q := `UPDATE slots SET is_booked = 1 WHERE is_booked = 0 AND id IN (?` + strings.Repeat(",?", len(slotIDs)-1) + `)`
	args := make([]any, len(slotIDs))
	for i, id := range slotIDs {
		args[i] = id
	}
	res, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, translate("mark booked", err)
	}
	n, err := res.RowsAffected()
	return n, translate("mark booked", err)
}

func scanSlots(rows *sql.Rows, err error) ([]model.Slot, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Slot, 0, 17)
	for rows.Next() {
		var (
			s      model.Slot
			period string
		)
		if err := rows.Scan(&s.ID, &s.VenueID, &s.Date, &s.StartTime, &s.EndTime, &s.Price, &period, &s.IsBooked); err != nil {
			return nil, err
		}
		s.Period = model.Period(period)
		out = append(out, s)
	}
	return out, rows.Err()
}
