// Package queue defines message payloads exchanged over the message broker
// together with the publisher and the audit consumer.
package queue

// Queue names.  Each event type gets its own durable queue on the
// default exchange.
const (
	BookingConfirmedQueue = "booking.confirmed"
	VenueApprovedQueue    = "venue.approved"
)

// BookingConfirmedEvent is published after a reservation commits.  It
// carries enough for downstream consumers to log, notify or run analytics
// without reading the primary database.
type BookingConfirmedEvent struct {
	BookingID     string   `json:"booking_id"`
	BookingCode   string   `json:"booking_code"`
	UserID        string   `json:"user_id,omitempty"`
	VenueID       string   `json:"venue_id"`
	VenueName     string   `json:"venue_name"`
	Date          string   `json:"date"`
	StartTime     string   `json:"start_time"`
	EndTime       string   `json:"end_time"`
	SlotIDs       []string `json:"slot_ids"`
	TotalAmount   int      `json:"total_amount"`
	PaidAmount    int      `json:"paid_amount"`
	PaymentMethod string   `json:"payment_method"`
	ConfirmedAt   string   `json:"confirmed_at"`
}

// VenueApprovedEvent is published when an admin approves a venue and its
// inventory window has been generated.
type VenueApprovedEvent struct {
	VenueID      string `json:"venue_id"`
	VenueName    string `json:"venue_name"`
	OwnerID      string `json:"owner_id"`
	FirstDate    string `json:"first_date"`
	Days         int    `json:"days"`
	SlotsCreated int64  `json:"slots_created"`
	ApprovedAt   string `json:"approved_at"`
}
