package domain

import "time"

// Session is an authenticated sign-in for one user.
type Session struct {
	AccessToken string    `json:"access_token"`
	TokenID     string    `json:"-"`
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Account is the credential record behind a session.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
