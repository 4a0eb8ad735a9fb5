package core

import "errors"

// Account errors
var (
	ErrDuplicateUsername  = errors.New("username already taken")        // 400 Bad Request
	ErrAccountNotFound    = errors.New("account not found")             // internal, never surfaced verbatim
	ErrInvalidCredentials = errors.New("invalid username or password")  // 401 Unauthorized
)

// Session errors
var (
	ErrNoActiveSession = errors.New("no active session") // 401
	ErrSessionExpired  = errors.New("session expired")   // 401
	ErrCacheMiss       = errors.New("session not found in cache")
)

// Two-factor errors
var (
	ErrInvalidTwoFactorCode   = errors.New("invalid two-factor code")    // 400
	ErrTwoFactorNotConfigured = errors.New("two-factor setup not found") // 400
)

// Validation errors (client input)
var (
	ErrUsernameRequired = errors.New("username is required") // 400
	ErrPasswordRequired = errors.New("password is required") // 400
	ErrPasswordTooShort = errors.New("password is too short") // 400
	ErrPasswordTooLong  = errors.New("password is too long")  // 400
)

// Config errors (server-side configuration)
var (
	ErrStorageRequired        = errors.New("storage adapter is required")  // 500
	ErrSigningSecretRequired  = errors.New("signing secret is required")   // 500
	ErrSigningSecretTooShort  = errors.New("signing secret too short")     // 500
)

// ErrStoreUnavailable wraps failures reaching the backing store. It is the
// only condition callers should treat as transient.
var ErrStoreUnavailable = errors.New("store unavailable") // 503
