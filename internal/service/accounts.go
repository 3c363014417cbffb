package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/turf-slot-booking/internal/apperr"
	"github.com/iliyamo/turf-slot-booking/internal/model"
	"github.com/iliyamo/turf-slot-booking/internal/store"
	"github.com/iliyamo/turf-slot-booking/internal/utils"
)

// GrantRoleByEmail records role for the account registered under email.
// It reports whether a new assignment was written.
func GrantRoleByEmail(ctx context.Context, users store.UserStore, email, role string) (*model.User, bool, error) {
	switch role {
	case model.RolePlayer, model.RoleOwner, model.RoleAdmin:
	default:
		return nil, false, apperr.Validation("role", "unknown role %q", role)
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, false, apperr.Validation("email", "is required")
	}
	u, err := users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, false, classify("get user", "user", email, err)
	}
	if u.HasRole(role) {
		return u, false, nil
	}
	if err := users.GrantRole(ctx, u.ID, role); err != nil {
		return nil, false, apperr.Storage("grant role", err)
	}
	u.Roles = append(u.Roles, role)
	return u, true, nil
}

// BootstrapAdmin makes email an admin at startup.  When no account uses
// that email and password is set, the account is registered first, as
// a player like any other sign-up.
func BootstrapAdmin(ctx context.Context, users store.UserStore, email, password string, cost int, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	_, err := users.GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, store.ErrNotFound):
		if password == "" {
			return apperr.Validation("ADMIN_PASSWORD", "needed to create %s", email)
		}
		if err := createAccount(ctx, users, email, password, cost); err != nil {
			return err
		}
		log.Info("admin account created", zap.String("email", email))
	case err != nil:
		return apperr.Storage("get user", err)
	}

	u, granted, err := GrantRoleByEmail(ctx, users, email, model.RoleAdmin)
	if err != nil {
		return err
	}
	if granted {
		log.Info("admin role granted", zap.String("user_id", u.ID), zap.String("email", u.Email))
	}
	return nil
}

func createAccount(ctx context.Context, users store.UserStore, email, password string, cost int) error {
	if err := utils.ValidatePassword(password); err != nil {
		return apperr.Validation("ADMIN_PASSWORD", "%v", err)
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return apperr.Storage("hash password", err)
	}
	u := &model.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		FullName:     "Administrator",
		PasswordHash: hash,
		OwnerStatus:  model.OwnerNone,
		CreatedAt:    time.Now().UTC(),
	}
	if err := users.CreateUser(ctx, u); err != nil {
		return apperr.Storage("create user", err)
	}
	if err := users.GrantRole(ctx, u.ID, model.RolePlayer); err != nil {
		return apperr.Storage("grant role", err)
	}
	return nil
}
