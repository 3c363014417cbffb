package model

import "strconv"

// Period is the pricing tier a slot belongs to.
type Period string

const (
	PeriodMorning   Period = "morning"
	PeriodAfternoon Period = "afternoon"
	PeriodEvening   Period = "evening"
)

// Slot is one bookable hour of a venue's calendar day, stored in the
// `slots` table.  The ID is derived from venue, date and tier index so
// that regenerating a day never creates duplicates.
//
// Fields:
//  ID        – "{venueID}-{date}-{m|a|e}{index}".
//  VenueID   – owning venue.
//  Date      – "YYYY-MM-DD".
//  StartTime – "HH:00".
//  EndTime   – StartTime plus one hour.
//  Price     – tier price for this hour.
//  Period    – morning, afternoon or evening.
//  IsBooked  – flips false -> true exactly once.
type Slot struct {
	ID        string `json:"id"`
	VenueID   string `json:"venueId"`
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Price     int    `json:"price"`
	Period    Period `json:"period"`
	IsBooked  bool   `json:"isBooked"`
}

// StartHour returns the hour encoded in StartTime, or -1 when malformed.
func (s Slot) StartHour() int {
	if len(s.StartTime) < 2 {
		return -1
	}
	h, err := strconv.Atoi(s.StartTime[:2])
	if err != nil || h < 0 || h > 23 {
		return -1
	}
	return h
}
