package service

import (
	"context"
	"strings"

	"github.com/iliyamo/turf-slot-booking/internal/apperr"
	"github.com/iliyamo/turf-slot-booking/internal/model"
	"github.com/iliyamo/turf-slot-booking/internal/store"
)

// Directory is the public read side of venues and cities.
type Directory struct {
	venues store.VenueStore
	cities store.CityStore
}

func NewDirectory(venues store.VenueStore, cities store.CityStore) *Directory {
	return &Directory{venues: venues, cities: cities}
}

// VenuePage is one page of the public listing.
type VenuePage struct {
	Venues   []model.Venue `json:"venues"`
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"pageSize"`
}

// List returns approved and available venues matching f.
func (d *Directory) List(ctx context.Context, f model.VenueFilter) (*VenuePage, error) {
	f.City = strings.TrimSpace(f.City)
	f.Sport = strings.TrimSpace(f.Sport)
	f.Query = strings.TrimSpace(f.Query)
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > 100 {
		f.PageSize = 20
	}
	venues, total, err := d.venues.ListPublic(ctx, f)
	if err != nil {
		return nil, apperr.Storage("list venues", err)
	}
	return &VenuePage{Venues: nonNilVenues(venues), Total: total, Page: f.Page, PageSize: f.PageSize}, nil
}

// Get returns a venue that passed review.  Pending and rejected venues
// are reported as not found.
func (d *Directory) Get(ctx context.Context, id string) (*model.Venue, error) {
	v, err := d.venues.GetByID(ctx, id)
	if err != nil {
		return nil, classify("get venue", "venue", id, err)
	}
	if !v.Verified() {
		return nil, apperr.NotFound("venue", id)
	}
	return v, nil
}

func (d *Directory) Cities(ctx context.Context) ([]string, error) {
	out, err := d.cities.ListCities(ctx)
	if err != nil {
		return nil, apperr.Storage("list cities", err)
	}
	return out, nil
}

func (d *Directory) AddCity(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 80 {
		return apperr.Validation("name", "must be 1-80 characters")
	}
	return classify("add city", "city", name, d.cities.AddCity(ctx, name))
}

func (d *Directory) DeleteCity(ctx context.Context, name string) error {
	return classify("delete city", "city", name, d.cities.DeleteCity(ctx, strings.TrimSpace(name)))
}
