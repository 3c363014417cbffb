package repository

import (
	"context"
	"strings"

	"github.com/iliyamo/turf-slot-booking/internal/model"
)

// ListPublic returns approved, available venues matching f together with
// the total number of matches for pagination.
func (r *VenueRepo) ListPublic(ctx context.Context, f model.VenueFilter) ([]model.Venue, int64, error) {
	where := []string{"verified = 1", "approval_status = 'approved'", "is_available = 1"}
	args := []any{}

	if f.City != "" {
		where = append(where, "LOWER(city) = ?")
		args = append(args, strings.ToLower(f.City))
	}
	if f.Sport != "" {
		where = append(where, "JSON_CONTAINS(LOWER(sport_types), JSON_QUOTE(?))")
		args = append(args, strings.ToLower(f.Sport))
	}
	if f.Query != "" {
		where = append(where, "(LOWER(name) LIKE ? OR LOWER(address) LIKE ? OR LOWER(location) LIKE ?)")
		like := "%" + strings.ToLower(f.Query) + "%"
		args = append(args, like, like, like)
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM venues WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, translate("count venues", err)
	}

	page, size := normalizePage(f.Page, f.PageSize)
	dataSQL := `SELECT ` + venueColumns + ` FROM venues WHERE ` + cond + `
		ORDER BY rating DESC, name ASC
		LIMIT ? OFFSET ?`
	argsData := append(append([]any{}, args...), size, (page-1)*size)

	out, err := scanVenues(r.db.QueryContext(ctx, dataSQL, argsData...))
	if err != nil {
		return nil, 0, translate("list venues", err)
	}
	return out, total, nil
}

// normalizePage clamps pagination input to sane bounds.
func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	if size > 100 {
		size = 100
	}
	return page, size
}
