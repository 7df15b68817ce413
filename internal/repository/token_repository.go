package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/pawnics/pawnics-api/internal/models"
)

// TokenRepository persists refresh token sessions.
type TokenRepository struct {
	db *sqlx.DB
}

// NewTokenRepository creates a new instance of TokenRepository.
func NewTokenRepository(db *sqlx.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// Store inserts a refresh token session.
func (r *TokenRepository) Store(ctx context.Context, userID, token string, expiresAt time.Time, ip, userAgent string) (*models.RefreshToken, error) {
	rt := models.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		Token:     token,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
		IPAddress: ip,
		UserAgent: userAgent,
	}

	const query = `INSERT INTO refresh_tokens (id, user_id, token, expires_at, created_at, revoked, ip_address, user_agent)
		VALUES (:id, :user_id, :token, :expires_at, :created_at, false, :ip_address, :user_agent)`
	if _, err := r.db.NamedExecContext(ctx, query, rt); err != nil {
		return nil, fmt.Errorf("insert refresh token: %w", err)
	}
	return &rt, nil
}

// FindActive returns the unrevoked, unexpired session for the given token.
func (r *TokenRepository) FindActive(ctx context.Context, token string) (*models.RefreshToken, error) {
	const query = `SELECT id, user_id, token, expires_at, created_at, revoked, revoked_at, ip_address, user_agent
		FROM refresh_tokens WHERE token = $1 AND revoked = false AND expires_at > NOW() LIMIT 1`
	var rt models.RefreshToken
	if err := r.db.GetContext(ctx, &rt, query, token); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	return &rt, nil
}

// Revoke marks a token session revoked.
func (r *TokenRepository) Revoke(ctx context.Context, token string) error {
	const query = `UPDATE refresh_tokens SET revoked = true, revoked_at = $2 WHERE token = $1 AND revoked = false`
	if _, err := r.db.ExecContext(ctx, query, token, time.Now().UTC()); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// RevokeAllForUser revokes every active session of a user.
func (r *TokenRepository) RevokeAllForUser(ctx context.Context, userID string) error {
	const query = `UPDATE refresh_tokens SET revoked = true, revoked_at = $2 WHERE user_id = $1 AND revoked = false`
	if _, err := r.db.ExecContext(ctx, query, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("revoke user refresh tokens: %w", err)
	}
	return nil
}
