// Package redis implements gatekeep's session storage on Redis. Sessions
// live under their token hash with a TTL matching their expiry, so the
// backend reclaims lapsed sessions on its own; a secondary key maps session
// IDs back to token hashes for deletion by ID.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smontero/gatekeep"
)

const defaultPrefix = "gatekeep"

type SessionStore struct {
	client redis.UniversalClient
	prefix string
}

var _ gatekeep.SessionStorage = (*SessionStore)(nil)

func NewSessionStore(client redis.UniversalClient, prefix string) *SessionStore {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &SessionStore{client: client, prefix: prefix}
}

func (s *SessionStore) sessionKey(tokenHash string) string {
	return s.prefix + ":session:" + tokenHash
}

func (s *SessionStore) idKey(id string) string {
	return s.prefix + ":session_id:" + id
}

// sessionRecord is the stored shape. The session type hides its token hash
// from JSON, but storage must keep it for verification.
type sessionRecord struct {
	gatekeep.Session
	TokenHash string `json:"tokenHash"`
}

func (s *SessionStore) CreateSession(ctx context.Context, session *gatekeep.Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return errors.New("session already expired")
	}

	blob, err := json.Marshal(sessionRecord{Session: *session, TokenHash: session.TokenHash})
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.sessionKey(session.TokenHash), blob, ttl)
	pipe.Set(ctx, s.idKey(session.ID), session.TokenHash, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return storeErr(err)
	}
	return nil
}

func (s *SessionStore) GetSessionByHash(ctx context.Context, tokenHash string) (*gatekeep.Session, error) {
	blob, err := s.client.Get(ctx, s.sessionKey(tokenHash)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, gatekeep.ErrNoActiveSession
		}
		return nil, storeErr(err)
	}

	record := &sessionRecord{}
	if err := json.Unmarshal(blob, record); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}

	session := record.Session
	session.TokenHash = record.TokenHash
	return &session, nil
}

func (s *SessionStore) DeleteSessionByID(ctx context.Context, id string) error {
	tokenHash, err := s.client.Get(ctx, s.idKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return storeErr(err)
	}

	if err := s.client.Del(ctx, s.sessionKey(tokenHash), s.idKey(id)).Err(); err != nil {
		return storeErr(err)
	}
	return nil
}

func (s *SessionStore) DeleteSessionByHash(ctx context.Context, tokenHash string) error {
	session, err := s.GetSessionByHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, gatekeep.ErrNoActiveSession) {
			return nil
		}
		return err
	}

	if err := s.client.Del(ctx, s.sessionKey(tokenHash), s.idKey(session.ID)).Err(); err != nil {
		return storeErr(err)
	}
	return nil
}

// DeleteExpiredSessions is satisfied by Redis key TTLs; there is never
// anything left to sweep.
func (s *SessionStore) DeleteExpiredSessions(ctx context.Context) (int, error) {
	return 0, nil
}

func storeErr(err error) error {
	return fmt.Errorf("%w: %w", gatekeep.ErrStoreUnavailable, err)
}
