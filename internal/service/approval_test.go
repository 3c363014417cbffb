package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/turf-slot-booking/internal/apperr"
	"github.com/iliyamo/turf-slot-booking/internal/model"
)

func TestApprovalGatesInventory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.pendingVenue(t, 1000)

	for _, d := range []string{today, "2026-03-05", "2026-03-14"} {
		slots, err := f.inv.SlotsFor(ctx, v.ID, d)
		require.NoError(t, err)
		assert.Empty(t, slots, d)
	}

	approved, res, err := f.wf.ApproveVenue(ctx, v.ID)
	require.NoError(t, err)
	assert.True(t, approved.Verified())
	assert.Equal(t, today, res.FirstDate)
	assert.Equal(t, 14, res.Days)
	assert.EqualValues(t, 14*17, res.Created)

	for d, want := range map[string]int{today: 17, "2026-03-14": 17, "2026-03-15": 0} {
		slots, err := f.inv.SlotsFor(ctx, v.ID, d)
		require.NoError(t, err)
		assert.Len(t, slots, want, d)
	}

	slots, err := f.inv.SlotsFor(ctx, v.ID, today)
	require.NoError(t, err)
	assert.Equal(t, 1000, slots[0].Price)
	assert.Equal(t, 1200, slots[6].Price)
	assert.Equal(t, 1500, slots[16].Price)

	require.Len(t, f.pub.venues, 1)
	assert.Equal(t, v.ID, f.pub.venues[0].VenueID)
	assert.EqualValues(t, 14*17, f.pub.venues[0].SlotsCreated)
}

func TestReapprovalKeepsBookedSlots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.approvedVenue(t, 800)
	_, err := f.book(v.ID, "14:00", 60)
	require.NoError(t, err)

	_, res, err := f.wf.ApproveVenue(ctx, v.ID)
	require.NoError(t, err)
	assert.Zero(t, res.Created)
	assert.True(t, bookedHours(t, f, v.ID, today)["14:00"])

	// the window moves one day forward and only the new day is added
	f.inv.Clock = func() time.Time { return testNow.AddDate(0, 0, 1) }
	n, err := f.inv.Refresh(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 17, n)
	assert.True(t, bookedHours(t, f, v.ID, today)["14:00"])
}

func TestRefreshSkipsUnapprovedVenues(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pending := f.pendingVenue(t, 800)
	rejected := f.pendingVenue(t, 800)
	_, err := f.wf.RejectVenue(ctx, rejected.ID)
	require.NoError(t, err)

	n, err := f.inv.Refresh(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	for _, id := range []string{pending.ID, rejected.ID} {
		slots, err := f.inv.SlotsFor(ctx, id, today)
		require.NoError(t, err)
		assert.Empty(t, slots)
	}
}

func TestVenueTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v := f.pendingVenue(t, 800)
	rej, err := f.wf.RejectVenue(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalRejected, rej.ApprovalStatus)
	assert.False(t, rej.Verified())

	_, _, err = f.wf.ApproveVenue(ctx, v.ID)
	var ce *apperr.ConflictError
	assert.ErrorAs(t, err, &ce)

	approved := f.approvedVenue(t, 800)
	_, err = f.book(approved.ID, "06:00", 60)
	require.NoError(t, err)
	rej, err = f.wf.RejectVenue(ctx, approved.ID)
	require.NoError(t, err)
	assert.False(t, rej.Verified())
	// inventory and bookings survive the rejection
	assert.True(t, bookedHours(t, f, approved.ID, today)["06:00"])

	_, _, err = f.wf.ApproveVenue(ctx, "missing")
	var nf *apperr.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestOwnerStateMachine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := &model.User{ID: uuid.NewString(), Email: "owner@example.com"}
	require.NoError(t, f.st.CreateUser(ctx, u))

	acc, err := f.wf.OwnerStatus(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OwnerNone, acc.OwnerStatus)

	_, err = f.wf.ApproveOwner(ctx, u.ID)
	var ce *apperr.ConflictError
	require.ErrorAs(t, err, &ce, "none cannot jump to approved")

	acc, err = f.wf.RequestOwnerRole(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OwnerPending, acc.OwnerStatus)
	roles, err := f.st.RolesFor(ctx, u.ID)
	require.NoError(t, err)
	assert.Contains(t, roles, model.RoleOwner)

	pending, err := f.wf.PendingOwners(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, u.ID, pending[0].UserID)

	_, err = f.wf.SubmitVenue(ctx, u.ID, VenueInput{Name: "x", Address: "y", City: "Pune", PricePerHour: 500, SportTypes: []string{"cricket"}})
	var fe *apperr.ForbiddenError
	require.ErrorAs(t, err, &fe)

	acc, err = f.wf.RejectOwner(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OwnerRejected, acc.OwnerStatus)

	_, err = f.wf.ApproveOwner(ctx, u.ID)
	require.ErrorAs(t, err, &ce, "rejected is terminal")
}

func TestApprovedOwnerCannotBeRevoked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.approvedVenue(t, 800)

	// approved is terminal for owners, so listed venues stay live
	_, err := f.wf.RejectOwner(ctx, v.OwnerID)
	var ce *apperr.ConflictError
	require.ErrorAs(t, err, &ce)

	page, err := f.dir.List(ctx, model.VenueFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
}

func TestSubmitVenueValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.approvedOwner(t)

	bad := []VenueInput{
		{Address: "a", City: "c", PricePerHour: 1, SportTypes: []string{"x"}},
		{Name: "n", City: "c", PricePerHour: 1, SportTypes: []string{"x"}},
		{Name: "n", Address: "a", PricePerHour: 1, SportTypes: []string{"x"}},
		{Name: "n", Address: "a", City: "c", PricePerHour: 0, SportTypes: []string{"x"}},
		{Name: "n", Address: "a", City: "c", PricePerHour: 1, SportTypes: []string{" "}},
		{Name: "n", Address: "a", City: "c", PricePerHour: 1, SportTypes: []string{"x"}, OpeningTime: "6am"},
	}
	for i, in := range bad {
		_, err := f.wf.SubmitVenue(ctx, owner, in)
		var ve *apperr.ValidationError
		assert.ErrorAs(t, err, &ve, "case %d", i)
	}

	v, err := f.wf.SubmitVenue(ctx, owner, VenueInput{
		Name: " Arena ", Address: "1 Park St", City: "Kolkata", PricePerHour: 600,
		SportTypes: []string{"Football", "football", "Cricket"}, Amenities: []string{"parking", ""},
	})
	require.NoError(t, err)
	assert.Equal(t, "Arena", v.Name)
	assert.Equal(t, []string{"Football", "Cricket"}, v.SportTypes)
	assert.Equal(t, []string{"parking"}, v.Amenities)
	assert.Equal(t, model.ApprovalPending, v.ApprovalStatus)
	assert.Equal(t, "06:00", v.OpeningTime)

	mine, err := f.wf.OwnerVenues(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	pending, err := f.wf.PendingVenues(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestSetAvailabilityOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.approvedVenue(t, 800)

	_, err := f.wf.SetAvailability(ctx, "someone-else", false, v.ID, false)
	var fe *apperr.ForbiddenError
	require.ErrorAs(t, err, &fe)

	got, err := f.wf.SetAvailability(ctx, "admin-id", true, v.ID, false)
	require.NoError(t, err)
	assert.False(t, got.IsAvailable)

	page, err := f.dir.List(ctx, model.VenueFilter{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}
