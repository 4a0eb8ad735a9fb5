package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smontero/gatekeep"
)

func newTestStore(t *testing.T) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewSessionStore(client, "test"), mr
}

func testSession(id, tokenHash string, ttl time.Duration) *gatekeep.Session {
	now := time.Now()
	return &gatekeep.Session{
		ID:        id,
		Username:  "alice",
		TokenHash: tokenHash,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestCreateAndGetSession(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	session := testSession("session-1", "hash-1", time.Hour)
	require.NoError(t, store.CreateSession(ctx, session))

	got, err := store.GetSessionByHash(ctx, "hash-1")
	require.NoError(t, err)

	assert.Equal(t, session.ID, got.ID)
	assert.Equal(t, session.Username, got.Username)
	assert.Equal(t, session.TokenHash, got.TokenHash)
	assert.WithinDuration(t, session.ExpiresAt, got.ExpiresAt, time.Second)
}

func TestCreateSession_AlreadyExpired(t *testing.T) {
	store, _ := newTestStore(t)

	session := testSession("session-1", "hash-1", -time.Minute)
	assert.Error(t, store.CreateSession(context.Background(), session))
}

func TestGetSessionByHash_NotFound(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.GetSessionByHash(context.Background(), "no-such-hash")
	assert.ErrorIs(t, err, gatekeep.ErrNoActiveSession)
}

func TestSessionExpiresWithKeyTTL(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	session := testSession("session-1", "hash-1", time.Minute)
	require.NoError(t, store.CreateSession(ctx, session))

	mr.FastForward(2 * time.Minute)

	_, err := store.GetSessionByHash(ctx, "hash-1")
	assert.ErrorIs(t, err, gatekeep.ErrNoActiveSession)
}

func TestDeleteSessionByHash(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateSession(ctx, testSession("session-1", "hash-1", time.Hour)))
	require.NoError(t, store.DeleteSessionByHash(ctx, "hash-1"))

	_, err := store.GetSessionByHash(ctx, "hash-1")
	assert.ErrorIs(t, err, gatekeep.ErrNoActiveSession)

	// Deleting again is a no-op.
	assert.NoError(t, store.DeleteSessionByHash(ctx, "hash-1"))
}

func TestDeleteSessionByID(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateSession(ctx, testSession("session-1", "hash-1", time.Hour)))
	require.NoError(t, store.DeleteSessionByID(ctx, "session-1"))

	_, err := store.GetSessionByHash(ctx, "hash-1")
	assert.ErrorIs(t, err, gatekeep.ErrNoActiveSession)

	assert.NoError(t, store.DeleteSessionByID(ctx, "session-1"))
	assert.NoError(t, store.DeleteSessionByID(ctx, "never-existed"))
}

func TestDeleteRemovesBothKeys(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateSession(ctx, testSession("session-1", "hash-1", time.Hour)))
	require.NoError(t, store.DeleteSessionByHash(ctx, "hash-1"))

	assert.False(t, mr.Exists("test:session:hash-1"))
	assert.False(t, mr.Exists("test:session_id:session-1"))
}

func TestDeleteExpiredSessions(t *testing.T) {
	store, _ := newTestStore(t)

	// Redis reclaims sessions on its own; the sweep has nothing to report.
	count, err := store.DeleteExpiredSessions(context.Background())
	assert.NoError(t, err)
	assert.Zero(t, count)
}

func TestStoreUnavailable(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateSession(ctx, testSession("session-1", "hash-1", time.Hour)))
	mr.Close()

	_, err := store.GetSessionByHash(ctx, "hash-1")
	assert.ErrorIs(t, err, gatekeep.ErrStoreUnavailable)

	err = store.CreateSession(ctx, testSession("session-2", "hash-2", time.Hour))
	assert.ErrorIs(t, err, gatekeep.ErrStoreUnavailable)
}
