package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/turf-slot-booking/internal/apperr"
	"github.com/iliyamo/turf-slot-booking/internal/model"
)

func TestDirectoryListsOnlyApprovedVenues(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	approved := f.approvedVenue(t, 800)
	pending := f.pendingVenue(t, 800)

	page, err := f.dir.List(ctx, model.VenueFilter{City: "bangalore"})
	require.NoError(t, err)
	require.EqualValues(t, 1, page.Total)
	assert.Equal(t, approved.ID, page.Venues[0].ID)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.PageSize)

	page, err = f.dir.List(ctx, model.VenueFilter{City: "Pune"})
	require.NoError(t, err)
	assert.Empty(t, page.Venues)

	got, err := f.dir.Get(ctx, approved.ID)
	require.NoError(t, err)
	assert.True(t, got.Verified())

	_, err = f.dir.Get(ctx, pending.ID)
	var nf *apperr.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestDirectoryCities(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cities, err := f.dir.Cities(ctx)
	require.NoError(t, err)
	assert.Len(t, cities, len(model.DefaultCities))

	require.NoError(t, f.dir.AddCity(ctx, " Mysuru "))
	cities, err = f.dir.Cities(ctx)
	require.NoError(t, err)
	assert.Contains(t, cities, "Mysuru")

	require.NoError(t, f.dir.DeleteCity(ctx, "mysuru"))
	cities, err = f.dir.Cities(ctx)
	require.NoError(t, err)
	assert.NotContains(t, cities, "Mysuru")

	var ve *apperr.ValidationError
	assert.ErrorAs(t, f.dir.AddCity(ctx, "  "), &ve)
}
