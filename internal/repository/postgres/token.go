package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"clicker/internal/domain"
)

// EmailTokenRepo implements repository.EmailTokenRepository
type EmailTokenRepo struct {
	db *sql.DB
}

// NewEmailTokenRepo creates a new email token repository
func NewEmailTokenRepo(db *sql.DB) *EmailTokenRepo {
	return &EmailTokenRepo{db: db}
}

// Save stores a token, replacing any pending token for the same email
func (r *EmailTokenRepo) Save(ctx context.Context, token *domain.EmailToken) error {
	query := `
		INSERT INTO email_tokens (token, email, username, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email)
		DO UPDATE SET token = EXCLUDED.token,
			username = EXCLUDED.username,
			expires_at = EXCLUDED.expires_at,
			created_at = EXCLUDED.created_at
	`
	_, err := r.db.ExecContext(ctx, query, token.Token, token.Email, token.Username, token.ExpiresAt, token.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Find returns a token by its value
func (r *EmailTokenRepo) Find(ctx context.Context, token string) (*domain.EmailToken, error) {
	query := `SELECT token, email, username, expires_at, created_at FROM email_tokens WHERE token = $1`

	var t domain.EmailToken
	err := r.db.QueryRowContext(ctx, query, token).Scan(&t.Token, &t.Email, &t.Username, &t.ExpiresAt, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &t, nil
}

// Delete removes a consumed token
func (r *EmailTokenRepo) Delete(ctx context.Context, token string) error {
	query := `DELETE FROM email_tokens WHERE token = $1`
	if _, err := r.db.ExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// DeleteExpired removes tokens that expired before now
func (r *EmailTokenRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM email_tokens WHERE expires_at <= $1`

	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return res.RowsAffected()
}
