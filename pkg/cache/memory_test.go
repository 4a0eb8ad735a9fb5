package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/smontero/gatekeep/core"
)

func testSession(id string) *core.Session {
	return &core.Session{
		ID:        id,
		Username:  "alice",
		TokenHash: "hash-" + id,
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func TestInMemoryCache_SetAndGet(t *testing.T) {
	c := NewInMemoryCache(core.CacheConfig{TTL: time.Minute, MaxSize: 10})
	session := testSession("s1")

	if err := c.Set(session.TokenHash, session); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := c.Get(session.TokenHash)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ID != session.ID {
		t.Errorf("Get() ID = %q, want %q", got.ID, session.ID)
	}
}

func TestInMemoryCache_MissingKey(t *testing.T) {
	c := NewInMemoryCache(core.CacheConfig{})

	if _, err := c.Get("absent"); err != core.ErrCacheMiss {
		t.Errorf("Get() error = %v, want ErrCacheMiss", err)
	}
}

func TestInMemoryCache_TTLExpiry(t *testing.T) {
	c := NewInMemoryCache(core.CacheConfig{TTL: time.Nanosecond, MaxSize: 10})
	session := testSession("s1")

	if err := c.Set(session.TokenHash, session); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	time.Sleep(time.Millisecond)

	if _, err := c.Get(session.TokenHash); err != core.ErrCacheMiss {
		t.Errorf("Get() after TTL error = %v, want ErrCacheMiss", err)
	}
	if c.Len() != 0 {
		t.Error("expired record should be removed on Get()")
	}
}

func TestInMemoryCache_EvictsWhenFull(t *testing.T) {
	c := NewInMemoryCache(core.CacheConfig{TTL: time.Minute, MaxSize: 3})

	for i := 0; i < 5; i++ {
		s := testSession(fmt.Sprintf("s%d", i))
		if err := c.Set(s.TokenHash, s); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
	}

	if c.Len() > 3 {
		t.Errorf("Len() = %d, want at most 3", c.Len())
	}
	if c.Stats().Evictions == 0 {
		t.Error("filling past MaxSize should record evictions")
	}
}

func TestInMemoryCache_DeleteAndClear(t *testing.T) {
	c := NewInMemoryCache(core.CacheConfig{TTL: time.Minute, MaxSize: 10})
	s1, s2 := testSession("s1"), testSession("s2")
	c.Set(s1.TokenHash, s1)
	c.Set(s2.TokenHash, s2)

	if err := c.Delete(s1.TokenHash); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := c.Get(s1.TokenHash); err != core.ErrCacheMiss {
		t.Error("deleted entry should be gone")
	}

	// Deleting an absent key is not an error.
	if err := c.Delete("absent"); err != nil {
		t.Errorf("Delete() of absent key error = %v", err)
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("Len() after Clear() = %d, want 0", c.Len())
	}
}

func TestInMemoryCache_Stats(t *testing.T) {
	c := NewInMemoryCache(core.CacheConfig{TTL: time.Minute, MaxSize: 10})
	session := testSession("s1")

	c.Set(session.TokenHash, session)
	c.Get(session.TokenHash)
	c.Get("absent")
	c.Delete(session.TokenHash)

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Sets != 1 || stats.Deletes != 1 {
		t.Errorf("Stats() = %+v, want one of each", stats)
	}
	if stats.TTL != time.Minute {
		t.Errorf("Stats() TTL = %v, want %v", stats.TTL, time.Minute)
	}
}
