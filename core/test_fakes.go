package core

import (
	"context"
	"sync"
	"time"
)

// FakeAuthStorage is a test-only fake implementing AuthStorage. It keeps
// accounts and sessions in maps and exposes error fields for behavior
// injection. Writes are serialized under one mutex, mirroring the atomicity
// the real adapters get from single-statement updates.
type FakeAuthStorage struct {
	mu       sync.RWMutex
	accounts map[string]*Account // keyed by username
	sessions map[string]*Session // keyed by token hash

	CreateAccountErr error
	GetAccountErr    error
	CreateSessionErr error
	GetSessionErr    error
	DeleteSessionErr error
}

func NewFakeAuthStorage() *FakeAuthStorage {
	return &FakeAuthStorage{
		accounts: make(map[string]*Account),
		sessions: make(map[string]*Session),
	}
}

func (f *FakeAuthStorage) CreateAccount(ctx context.Context, a *Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.CreateAccountErr != nil {
		return f.CreateAccountErr
	}
	if _, ok := f.accounts[a.Username]; ok {
		return ErrDuplicateUsername
	}

	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now
	copied := *a
	f.accounts[a.Username] = &copied
	return nil
}

func (f *FakeAuthStorage) GetAccountByUsername(ctx context.Context, username string) (*Account, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.GetAccountErr != nil {
		return nil, f.GetAccountErr
	}
	a, ok := f.accounts[username]
	if !ok {
		return nil, ErrAccountNotFound
	}
	copied := *a
	return &copied, nil
}

func (f *FakeAuthStorage) SetTwoFactorSecret(ctx context.Context, username, secret string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.accounts[username]
	if !ok {
		return ErrAccountNotFound
	}
	a.TwoFactorSecret = secret
	a.TwoFactorEnabled = false
	a.TwoFactorCounter = 0
	a.UpdatedAt = time.Now()
	return nil
}

func (f *FakeAuthStorage) SetTwoFactorEnabled(ctx context.Context, username string, enabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.accounts[username]
	if !ok {
		return ErrAccountNotFound
	}
	if enabled && a.TwoFactorSecret == "" {
		return ErrTwoFactorNotConfigured
	}
	a.TwoFactorEnabled = enabled
	if !enabled {
		a.TwoFactorSecret = ""
		a.TwoFactorCounter = 0
	}
	a.UpdatedAt = time.Now()
	return nil
}

func (f *FakeAuthStorage) SetTwoFactorCounter(ctx context.Context, username string, counter int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.accounts[username]
	if !ok {
		return ErrInvalidTwoFactorCode
	}
	// The counter only moves forward; a stalled write is a replay.
	if counter <= a.TwoFactorCounter {
		return ErrInvalidTwoFactorCode
	}
	a.TwoFactorCounter = counter
	a.UpdatedAt = time.Now()
	return nil
}

func (f *FakeAuthStorage) CreateSession(ctx context.Context, s *Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.CreateSessionErr != nil {
		return f.CreateSessionErr
	}
	copied := *s
	f.sessions[s.TokenHash] = &copied
	return nil
}

func (f *FakeAuthStorage) GetSessionByHash(ctx context.Context, tokenHash string) (*Session, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.GetSessionErr != nil {
		return nil, f.GetSessionErr
	}
	s, ok := f.sessions[tokenHash]
	if !ok {
		return nil, ErrNoActiveSession
	}
	copied := *s
	return &copied, nil
}

func (f *FakeAuthStorage) DeleteSessionByID(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.DeleteSessionErr != nil {
		return f.DeleteSessionErr
	}
	for hash, s := range f.sessions {
		if s.ID == id {
			delete(f.sessions, hash)
			return nil
		}
	}
	return nil
}

func (f *FakeAuthStorage) DeleteSessionByHash(ctx context.Context, tokenHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.DeleteSessionErr != nil {
		return f.DeleteSessionErr
	}
	delete(f.sessions, tokenHash)
	return nil
}

func (f *FakeAuthStorage) DeleteExpiredSessions(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := 0
	now := time.Now()
	for hash, s := range f.sessions {
		if now.After(s.ExpiresAt) {
			delete(f.sessions, hash)
			count++
		}
	}
	return count, nil
}

// SessionCount reports how many sessions the fake currently holds.
func (f *FakeAuthStorage) SessionCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.sessions)
}

var _ AuthStorage = (*FakeAuthStorage)(nil)
