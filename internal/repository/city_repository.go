package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/turf-slot-booking/internal/model"
)

// CityRepo manages the directory city list.
type CityRepo struct{ db *sql.DB }

func NewCityRepo(db *sql.DB) *CityRepo { return &CityRepo{db: db} }

// ListCities returns city names in alphabetical order.  An empty table is
// seeded with model.DefaultCities first.
func (r *CityRepo) ListCities(ctx context.Context) ([]string, error) {
	names, err := r.names(ctx)
	if err != nil || len(names) > 0 {
		return names, err
	}
	for _, n := range model.DefaultCities {
		if err := r.AddCity(ctx, n); err != nil {
			return nil, err
		}
	}
	return r.names(ctx)
}

// AddCity inserts name if it is not present yet.
func (r *CityRepo) AddCity(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	_, err := r.db.ExecContext(ctx, "INSERT INTO cities (name) VALUES (?) ON DUPLICATE KEY UPDATE name = name", name)
	return translate("add city", err)
}

// DeleteCity removes name, ignoring case.
func (r *CityRepo) DeleteCity(ctx context.Context, name string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM cities WHERE LOWER(name) = LOWER(?)", strings.TrimSpace(name))
	return translate("delete city", err)
}

func (r *CityRepo) names(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT name FROM cities ORDER BY name")
	if err != nil {
		return nil, translate("list cities", err)
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, translate("list cities", err)
		}
		out = append(out, n)
	}
	return out, translate("list cities", rows.Err())
}
