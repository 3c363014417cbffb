package repository

import (
	"context"
	"database/sql"
	"time"
)

// TokenRepo keeps refresh token hashes.  A token is live while it is
// neither revoked nor past expires_at; both checks run in SQL against
// the repo clock so tests can pin time.
type TokenRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewTokenRepo(db *sql.DB) *TokenRepo {
	return &TokenRepo{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (r *TokenRepo) StoreRefresh(ctx context.Context, userID, tokenHash string, exp time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?, ?, ?)`,
		userID, tokenHash, exp.UTC())
	return translate("store refresh token", err)
}

// ValidateRefresh returns the owner of a live token.  An unknown,
// revoked or expired token reads as store.ErrNotFound.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (string, error) {
	var userID string
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id FROM refresh_tokens
		 WHERE token_hash = ? AND revoked_at IS NULL AND expires_at > ?
		 LIMIT 1`,
		tokenHash, r.now()).Scan(&userID)
	if err != nil {
		return "", translate("validate refresh token", err)
	}
	return userID, nil
}

func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	return r.revoke(ctx, "revoke refresh token", "token_hash", tokenHash)
}

// RevokeAllForUser ends every session of a user.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID string) error {
	return r.revoke(ctx, "revoke user sessions", "user_id", userID)
}

// column is one of the two constants above, never caller input.
func (r *TokenRepo) revoke(ctx context.Context, op, column, value string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = ? WHERE `+column+` = ? AND revoked_at IS NULL`,
		r.now(), value)
	return translate(op, err)
}
