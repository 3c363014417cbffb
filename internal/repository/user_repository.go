package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/iliyamo/turf-slot-booking/internal/model"
)

// UserRepo persists accounts, their role assignments and the owner
// onboarding status.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// CreateUser inserts u.  PasswordHash must already be set.
func (r *UserRepo) CreateUser(ctx context.Context, u *model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.OwnerStatus == "" {
		u.OwnerStatus = model.OwnerNone
	}
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (id, email, full_name, password_hash, owner_status, created_at) VALUES (?,?,?,?,?,?)",
		u.ID, u.Email, u.FullName, u.PasswordHash, string(u.OwnerStatus), u.CreatedAt)
	if isDuplicate(err) {
		return ErrEmailExists
	}
	return translate("create user", err)
}

// GetUserByEmail fetches a user by normalized email.
func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.getUser(ctx, "email", email)
}

// GetUserByID fetches a user by id.
func (r *UserRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return r.getUser(ctx, "id", id)
}

func (r *UserRepo) getUser(ctx context.Context, column, value string) (*model.User, error) {
	var (
		u      model.User
		status string
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, email, full_name, password_hash, owner_status, created_at FROM users WHERE "+column+" = ? LIMIT 1",
		value).Scan(&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &status, &u.CreatedAt)
	if err != nil {
		return nil, translate("get user", err)
	}
	u.OwnerStatus = model.OwnerStatus(status)
	if u.Roles, err = r.RolesFor(ctx, u.ID); err != nil {
		return nil, err
	}
	return &u, nil
}

// GrantRole records a role assignment.  Granting an existing role is a
// no-op.
func (r *UserRepo) GrantRole(ctx context.Context, userID, role string) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO role_assignments (user_id, role) VALUES (?, ?) ON DUPLICATE KEY UPDATE role = role",
		userID, role)
	return translate("grant role", err)
}

// RolesFor lists the roles granted to userID.
func (r *UserRepo) RolesFor(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT role FROM role_assignments WHERE user_id = ? ORDER BY role", userID)
	if err != nil {
		return nil, translate("list roles", err)
	}
	defer rows.Close()
	roles := []string{}
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, translate("list roles", err)
		}
		roles = append(roles, role)
	}
	return roles, translate("list roles", rows.Err())
}

// GetOwner returns the owner projection of a user.
func (r *UserRepo) GetOwner(ctx context.Context, userID string) (*model.OwnerAccount, error) {
	return getOwner(ctx, r.DB, userID, false)
}

// ListOwnersByStatus lists accounts in one onboarding state.
func (r *UserRepo) ListOwnersByStatus(ctx context.Context, status model.OwnerStatus) ([]model.OwnerAccount, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, email, full_name, owner_status, updated_at FROM users WHERE owner_status = ? ORDER BY updated_at",
		string(status))
	if err != nil {
		return nil, translate("list owners", err)
	}
	defer rows.Close()
	out := []model.OwnerAccount{}
	for rows.Next() {
		var (
			a  model.OwnerAccount
			st string
		)
		if err := rows.Scan(&a.UserID, &a.Email, &a.FullName, &st, &a.UpdatedAt); err != nil {
			return nil, translate("list owners", err)
		}
		a.OwnerStatus = model.OwnerStatus(st)
		out = append(out, a)
	}
	return out, translate("list owners", rows.Err())
}

// TransitionOwner locks the user row, lets decide choose the next status
// and persists it.  Entering pending also grants the owner role in the
// same transaction.
func (r *UserRepo) TransitionOwner(ctx context.Context, userID string, decide func(*model.OwnerAccount) (model.OwnerStatus, error)) (*model.OwnerAccount, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin owner tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	a, err := getOwner(ctx, tx, userID, true)
	if err != nil {
		return nil, err
	}
	next, err := decide(a)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, "UPDATE users SET owner_status = ? WHERE id = ?", string(next), userID); err != nil {
		return nil, translate("update owner status", err)
	}
	if next == model.OwnerPending {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO role_assignments (user_id, role) VALUES (?, ?) ON DUPLICATE KEY UPDATE role = role",
			userID, model.RoleOwner); err != nil {
			return nil, translate("grant owner role", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit owner tx: %w", err)
	}
	committed = true
	a.OwnerStatus = next
	return a, nil
}

func getOwner(ctx context.Context, q queryer, userID string, forUpdate bool) (*model.OwnerAccount, error) {
	query := "SELECT id, email, full_name, owner_status, updated_at FROM users WHERE id = ?"
	if forUpdate {
		query += " FOR UPDATE"
	}
	var (
		a  model.OwnerAccount
		st string
	)
	if err := q.QueryRowContext(ctx, query, userID).Scan(&a.UserID, &a.Email, &a.FullName, &st, &a.UpdatedAt); err != nil {
		return nil, translate("get owner", err)
	}
	a.OwnerStatus = model.OwnerStatus(st)
	return &a, nil
}
