package model

import "time"

// BookingStatus is the lifecycle state of a booking.  Only confirmed is
// produced here; completed and cancelled are set by external processes.
type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

// Booking models a row of the `bookings` table.  Venue name and address
// are snapshots taken at booking time.
//
// Fields:
//  ID            – uuid primary key.
//  UserID        – booking player, nil for guest bookings.
//  VenueID       – booked venue.
//  VenueName     – venue name at booking time.
//  VenueAddress  – venue address at booking time.
//  Date          – "YYYY-MM-DD".
//  StartTime     – "HH:00".
//  EndTime       – "HH:MM", start plus duration.
//  Duration      – minutes (60, 90 or 120).
//  TotalAmount   – price computed from the booked slots.
//  PaidAmount    – amount paid at booking.
//  BalanceAmount – TotalAmount minus PaidAmount.
//  PaymentMethod – free-form tag (upi, card, cash, ...).
//  Status        – confirmed, completed or cancelled.
//  BookingCode   – short human code used for check-in.
//  SlotIDs       – slots flipped to booked by this booking.
//  CreatedAt     – creation timestamp.
type Booking struct {
	ID            string        `json:"id"`
	UserID        *string       `json:"userId,omitempty"`
	VenueID       string        `json:"venueId"`
	VenueName     string        `json:"venueName"`
	VenueAddress  string        `json:"venueAddress"`
	Date          string        `json:"date"`
	StartTime     string        `json:"startTime"`
	EndTime       string        `json:"endTime"`
	Duration      int           `json:"duration"`
	TotalAmount   int           `json:"totalAmount"`
	PaidAmount    int           `json:"paidAmount"`
	BalanceAmount int           `json:"balanceAmount"`
	PaymentMethod string        `json:"paymentMethod"`
	Status        BookingStatus `json:"status"`
	BookingCode   string        `json:"bookingCode"`
	SlotIDs       []string      `json:"slotIds,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
}
