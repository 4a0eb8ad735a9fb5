package core

import "time"

// Account represents one end user and their credentials.
//
// The password hash and TOTP secret never leave the server; both are
// excluded from JSON output.
type Account struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`

	// TwoFactorSecret is the base32-encoded TOTP secret. Non-empty only
	// while 2FA is enabled or mid-setup.
	TwoFactorSecret  string `json:"-"`
	TwoFactorEnabled bool   `json:"isMfaActive"`

	// TwoFactorCounter is the last TOTP time-step counter that was
	// accepted for this account. Codes at or below it are rejected,
	// which bounds replay within the validity window.
	TwoFactorCounter int64 `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Session represents an active login, established after password
// authentication and before 2FA is necessarily complete.
type Session struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	TokenHash string    `json:"-"` // Never expose in JSON
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SessionData combines the account and session behind a valid token.
// The model returned to status checks.
type SessionData struct {
	Account *Account `json:"account"`
	Session *Session `json:"session"`
}
