package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/turf-slot-booking/internal/apperr"
	"github.com/iliyamo/turf-slot-booking/internal/model"
	"github.com/iliyamo/turf-slot-booking/internal/repository/memstore"
	"github.com/iliyamo/turf-slot-booking/internal/utils"
)

func TestBootstrapAdminCreatesAccount(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()

	require.NoError(t, BootstrapAdmin(ctx, st, "Ops@Example.com", "letmein", 4, zap.NewNop()))
	u, err := st.GetUserByEmail(ctx, "ops@example.com")
	require.NoError(t, err)
	assert.True(t, u.HasRole(model.RoleAdmin))
	assert.True(t, u.HasRole(model.RolePlayer))
	assert.True(t, utils.VerifyPassword(u.PasswordHash, "letmein"))

	// a restart with the same settings changes nothing
	require.NoError(t, BootstrapAdmin(ctx, st, "ops@example.com", "letmein", 4, nil))
	roles, err := st.RolesFor(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, roles, 2)
}

func TestBootstrapAdminPromotesExistingAccount(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()
	require.NoError(t, st.CreateUser(ctx, &model.User{ID: "u1", Email: "ops@example.com"}))

	require.NoError(t, BootstrapAdmin(ctx, st, "ops@example.com", "", 4, nil))
	u, err := st.GetUserByID(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, u.HasRole(model.RoleAdmin))
}

func TestBootstrapAdminNeedsPasswordForNewAccount(t *testing.T) {
	err := BootstrapAdmin(context.Background(), memstore.New(), "ops@example.com", "", 4, nil)
	var ve *apperr.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestGrantRoleByEmail(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()
	require.NoError(t, st.CreateUser(ctx, &model.User{ID: "u1", Email: "a@b.com"}))

	_, granted, err := GrantRoleByEmail(ctx, st, " A@B.com ", model.RoleOwner)
	require.NoError(t, err)
	assert.True(t, granted)
	_, granted, err = GrantRoleByEmail(ctx, st, "a@b.com", model.RoleOwner)
	require.NoError(t, err)
	assert.False(t, granted)

	_, _, err = GrantRoleByEmail(ctx, st, "a@b.com", "root")
	var ve *apperr.ValidationError
	assert.ErrorAs(t, err, &ve)

	_, _, err = GrantRoleByEmail(ctx, st, "nobody@b.com", model.RoleAdmin)
	var nf *apperr.NotFoundError
	assert.ErrorAs(t, err, &nf)
}
