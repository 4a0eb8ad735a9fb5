package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/smontero/gatekeep/pkg/crypto"
)

type SessionConfig struct {
	MaxAge time.Duration
}

func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		MaxAge: 24 * time.Hour,
	}
}

// SessionManager owns the session lifecycle: clients hold the raw token,
// storage only ever sees its sha256 hash.
type SessionManager struct {
	config  SessionConfig
	storage SessionStorage
	cache   Cache
	logger  *slog.Logger
}

type CreateSessionResult struct {
	Session *Session `json:"session"`
	Token   string   `json:"token"`
}

func NewSessionManager(config SessionConfig, storage SessionStorage, cache Cache, logger *slog.Logger) *SessionManager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SessionManager{
		config:  config,
		storage: storage,
		cache:   cache,
		logger:  logger,
	}
}

func (sm *SessionManager) MaxAge() time.Duration {
	return sm.config.MaxAge
}

func (sm *SessionManager) Create(ctx context.Context, username string) (*CreateSessionResult, error) {
	token, err := crypto.GenerateHashedToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	now := time.Now()
	session := &Session{
		ID:        uuid.NewString(),
		Username:  username,
		TokenHash: token.Hash,
		ExpiresAt: now.Add(sm.config.MaxAge),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := sm.storage.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &CreateSessionResult{
		Session: session,
		Token:   token.Token,
	}, nil
}

// Verify resolves a raw client token to a live session. Expired sessions are
// deleted on sight.
func (sm *SessionManager) Verify(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrNoActiveSession
	}

	tokenHash := crypto.HashToken(token)

	if sm.cache != nil {
		if session, err := sm.cache.Get(tokenHash); err == nil && session != nil {
			if time.Now().Before(session.ExpiresAt) {
				return session, nil
			}
			sm.cache.Delete(tokenHash)
		}
	}

	session, err := sm.storage.GetSessionByHash(ctx, tokenHash)
	if err != nil {
		// An unreachable backend is not a dead session; only a miss is.
		if errors.Is(err, ErrStoreUnavailable) {
			return nil, fmt.Errorf("failed to load session: %w", err)
		}
		return nil, ErrNoActiveSession
	}

	valid, err := crypto.VerifyToken(token, session.TokenHash)
	if err != nil || !valid {
		return nil, ErrNoActiveSession
	}

	if time.Now().After(session.ExpiresAt) {
		sm.storage.DeleteSessionByID(ctx, session.ID)
		return nil, ErrSessionExpired
	}

	if sm.cache != nil {
		sm.cache.Set(tokenHash, session)
	}

	return session, nil
}

// Destroy invalidates a session by its raw token. Idempotent: destroying a
// token that no longer resolves is not an error.
func (sm *SessionManager) Destroy(ctx context.Context, token string) error {
	tokenHash := crypto.HashToken(token)

	if sm.cache != nil {
		sm.cache.Delete(tokenHash)
	}

	return sm.storage.DeleteSessionByHash(ctx, tokenHash)
}

// CleanupExpired drops lapsed sessions from storage.
func (sm *SessionManager) CleanupExpired(ctx context.Context) (int, error) {
	if sm.cache != nil {
		sm.cache.Clear()
	}

	dropped, err := sm.storage.DeleteExpiredSessions(ctx)
	if err != nil {
		return 0, err
	}
	if dropped > 0 {
		sm.logger.InfoContext(ctx, "expired sessions removed", "count", dropped)
	}
	return dropped, nil
}
