package model

import (
	"encoding/json"
	"time"
)

// Venue represents a bookable sports facility (a "turf") as stored in the
// `venues` table.  A venue is created by an approved owner with
// ApprovalStatus pending and only becomes visible and bookable after an
// admin approves it.
//
// Fields:
//  ID             – uuid primary key.
//  OwnerID        – user id of the owning account.
//  Name           – display name.
//  Location       – short locality label (e.g. "Koramangala").
//  Address        – full street address.
//  City           – city name used by the directory filter.
//  PricePerHour   – base hourly price used by the slot grid.
//  OpeningTime    – "HH:MM", informational.
//  ClosingTime    – "HH:MM", informational.
//  SportTypes     – sports the venue supports.
//  Amenities      – free-form amenity tags.
//  ApprovalStatus – pending, approved or rejected.
//  IsAvailable    – owner/admin toggle independent of approval.
//  Rating         – average rating, maintained outside this service.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last modification timestamp.
type Venue struct {
	ID             string         `json:"id"`
	OwnerID        string         `json:"ownerId"`
	Name           string         `json:"name"`
	Location       string         `json:"location"`
	Address        string         `json:"address"`
	City           string         `json:"city"`
	PricePerHour   int            `json:"pricePerHour"`
	OpeningTime    string         `json:"openingTime"`
	ClosingTime    string         `json:"closingTime"`
	SportTypes     []string       `json:"sportTypes"`
	Amenities      []string       `json:"amenities"`
	ApprovalStatus ApprovalStatus `json:"approvalStatus"`
	IsAvailable    bool           `json:"isAvailable"`
	Rating         float64        `json:"rating"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// Verified reports whether the venue has passed admin review.  The
// persisted `verified` column mirrors this value and is written in the
// same statement as approval_status.
func (v *Venue) Verified() bool { return v.ApprovalStatus == ApprovalApproved }

// MarshalJSON adds the derived verified flag to the wire form.
func (v Venue) MarshalJSON() ([]byte, error) {
	type plain Venue
	return json.Marshal(struct {
		plain
		Verified bool `json:"verified"`
	}{plain(v), v.Verified()})
}

// Bookable reports whether players may reserve slots at the venue.
func (v *Venue) Bookable() bool { return v.Verified() && v.IsAvailable }

// VenueFilter narrows the public directory listing.
type VenueFilter struct {
	City     string
	Sport    string
	Query    string
	Page     int
	PageSize int
}

// DefaultCities seeds the cities table the first time it is read empty.
var DefaultCities = []string{
	"Ahmedabad", "Bangalore", "Chennai", "Coimbatore", "Delhi",
	"Guntur", "Hyderabad", "Indore", "Jaipur", "Kochi",
	"Kolkata", "Kurnool", "Mumbai", "Nagpur", "Nandyal",
	"Pune", "Surat", "Tirupati", "Vijayawada", "Visakhapatnam",
}
