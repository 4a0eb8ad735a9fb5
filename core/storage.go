package core

import (
	"context"
	"time"
)

// AccountStorage defines account-related database operations.
//
// All mutations are atomic with respect to a single account: an adapter must
// never let a concurrent setup and reset interleave into a partial secret
// update. Single-statement updates are expected, not application locks.
type AccountStorage interface {
	// CreateAccount persists a new account. Returns ErrDuplicateUsername
	// if the username is already taken.
	CreateAccount(ctx context.Context, a *Account) error

	GetAccountByUsername(ctx context.Context, username string) (*Account, error)

	// SetTwoFactorSecret replaces the account's TOTP secret. The previous
	// secret is discarded, the enabled flag is cleared, and the last-used
	// counter resets to zero, all in one write.
	SetTwoFactorSecret(ctx context.Context, username, secret string) error

	// SetTwoFactorEnabled flips the 2FA flag. Enabling requires a stored
	// secret; disabling also clears the secret and counter.
	SetTwoFactorEnabled(ctx context.Context, username string, enabled bool) error

	// SetTwoFactorCounter records the last accepted TOTP counter. The
	// counter only moves forward: a write at or below the stored value
	// must be rejected with ErrInvalidTwoFactorCode, so that concurrent
	// verifications of the same code cannot both succeed.
	SetTwoFactorCounter(ctx context.Context, username string, counter int64) error
}

// SessionStorage defines session-related database operations
type SessionStorage interface {
	CreateSession(ctx context.Context, s *Session) error
	GetSessionByHash(ctx context.Context, tokenHash string) (*Session, error)
	DeleteSessionByID(ctx context.Context, id string) error
	DeleteSessionByHash(ctx context.Context, tokenHash string) error

	// DeleteExpiredSessions removes lapsed sessions and reports how many
	// were dropped. Backends with native TTL support may return 0.
	DeleteExpiredSessions(ctx context.Context) (int, error)
}

// AuthStorage is the full storage contract a database adapter implements.
type AuthStorage interface {
	AccountStorage
	SessionStorage
}

// Cache defines session caching operations
type Cache interface {
	Get(tokenHash string) (*Session, error)
	Set(tokenHash string, session *Session) error
	Delete(tokenHash string) error
	Clear() error
}

// CacheConfig configures cache behavior
type CacheConfig struct {
	TTL     time.Duration
	MaxSize int
}

// CacheStats tracks cache performance counters
type CacheStats struct {
	Hits      int64         `json:"hits"`
	Misses    int64         `json:"misses"`
	Sets      int64         `json:"sets"`
	Deletes   int64         `json:"deletes"`
	Evictions int64         `json:"evictions"`
	Size      int           `json:"size"`
	TTL       time.Duration `json:"ttl"`
}
