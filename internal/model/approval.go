package model

import "fmt"

// ApprovalStatus is the review state of a venue listing.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// Valid reports whether s is one of the known states.
func (s ApprovalStatus) Valid() bool {
	switch s {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return true
	}
	return false
}

// venueTransitions lists every legal move of the venue machine.
// approved -> approved is allowed so an admin can re-run inventory
// generation; rejected is terminal.
var venueTransitions = map[ApprovalStatus]map[ApprovalStatus]bool{
	ApprovalPending:  {ApprovalApproved: true, ApprovalRejected: true},
	ApprovalApproved: {ApprovalApproved: true, ApprovalRejected: true},
	ApprovalRejected: {},
}

// TransitionError describes an illegal state change.
type TransitionError struct {
	Machine string
	From    string
	To      string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s cannot move from %s to %s", e.Machine, e.From, e.To)
}

// NextApproval validates the move from s to next.
func (s ApprovalStatus) NextApproval(next ApprovalStatus) (ApprovalStatus, error) {
	if !next.Valid() || !venueTransitions[s][next] {
		return s, &TransitionError{Machine: "venue", From: string(s), To: string(next)}
	}
	return next, nil
}

// OwnerStatus is the onboarding state of an owner account.
type OwnerStatus string

const (
	OwnerNone     OwnerStatus = "none"
	OwnerPending  OwnerStatus = "pending"
	OwnerApproved OwnerStatus = "approved"
	OwnerRejected OwnerStatus = "rejected"
)

func (s OwnerStatus) Valid() bool {
	switch s {
	case OwnerNone, OwnerPending, OwnerApproved, OwnerRejected:
		return true
	}
	return false
}

var ownerTransitions = map[OwnerStatus]map[OwnerStatus]bool{
	OwnerNone:     {OwnerPending: true},
	OwnerPending:  {OwnerApproved: true, OwnerRejected: true},
	OwnerApproved: {},
	OwnerRejected: {},
}

// NextOwner validates the move from s to next.  Both approved and
// rejected are terminal.
func (s OwnerStatus) NextOwner(next OwnerStatus) (OwnerStatus, error) {
	if !next.Valid() || !ownerTransitions[s][next] {
		return s, &TransitionError{Machine: "owner", From: string(s), To: string(next)}
	}
	return next, nil
}
