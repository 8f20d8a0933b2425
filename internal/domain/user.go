package domain

import "time"

// User represents a registered account
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// EmailToken is a pending email verification issued on account creation
type EmailToken struct {
	Token     string    `json:"-"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"-"`
}

// Expired reports whether the token is no longer usable at now
func (t EmailToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
