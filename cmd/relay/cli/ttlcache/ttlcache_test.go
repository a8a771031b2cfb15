package ttlcache

import (
	"testing"
	"time"
)

func TestGetSet(t *testing.T) {
	c := New[string, string](time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("Get on empty cache reported a hit")
	}

	c.Set("file", "key-1")
	got, ok := c.Get("file")
	if !ok || got != "key-1" {
		t.Errorf("Get = (%q, %v), want (key-1, true)", got, ok)
	}

	c.Set("file", "key-2")
	got, ok = c.Get("file")
	if !ok || got != "key-2" {
		t.Errorf("Get after overwrite = (%q, %v), want (key-2, true)", got, ok)
	}
}

func TestExpiryIsLazyAndPurges(t *testing.T) {
	now := time.Now()
	c := New(10*time.Minute, WithClock[string, string](func() time.Time { return now }))

	c.Set("file", "key")

	// Exactly at TTL the entry is still valid.
	now = now.Add(10 * time.Minute)
	if _, ok := c.Get("file"); !ok {
		t.Error("entry expired at exactly TTL, want valid")
	}

	// Past TTL the entry is absent and must be purged, not merely ignored.
	now = now.Add(time.Second)
	if _, ok := c.Get("file"); ok {
		t.Error("entry still valid past TTL")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry not purged on lookup, Len = %d", c.Len())
	}
}

func TestSetRefreshesTimestamp(t *testing.T) {
	now := time.Now()
	c := New(10*time.Minute, WithClock[string, string](func() time.Time { return now }))

	c.Set("file", "key")
	now = now.Add(9 * time.Minute)
	c.Set("file", "key")

	// 9 + 2 minutes past the first insert, 2 past the second.
	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("file"); !ok {
		t.Error("overwrite did not refresh the entry timestamp")
	}
}

func TestUnexpiredEntriesStayResident(t *testing.T) {
	c := New[string, int](time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)

	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
}

func TestMaxEntriesPrefersExpired(t *testing.T) {
	now := time.Now()
	c := New(10*time.Minute,
		WithClock[string, int](func() time.Time { return now }),
		WithMaxEntries[string, int](2))

	c.Set("old", 1)
	now = now.Add(11 * time.Minute) // "old" is now expired
	c.Set("fresh", 2)
	c.Set("extra", 3)

	if _, ok := c.Get("old"); ok {
		t.Error("expired entry survived capacity pressure")
	}
	if _, ok := c.Get("fresh"); !ok {
		t.Error("fresh entry was evicted while an expired one existed")
	}
	if _, ok := c.Get("extra"); !ok {
		t.Error("newly inserted entry missing")
	}
}

func TestMaxEntriesDropsOldest(t *testing.T) {
	now := time.Now()
	c := New(time.Hour,
		WithClock[string, int](func() time.Time { return now }),
		WithMaxEntries[string, int](2))

	c.Set("first", 1)
	now = now.Add(time.Minute)
	c.Set("second", 2)
	now = now.Add(time.Minute)
	c.Set("third", 3)

	if _, ok := c.Get("first"); ok {
		t.Error("oldest entry survived capacity pressure")
	}
	if _, ok := c.Get("second"); !ok {
		t.Error("newer entry was evicted")
	}
	if _, ok := c.Get("third"); !ok {
		t.Error("newly inserted entry missing")
	}
}

func TestOverwriteDoesNotEvictAtCapacity(t *testing.T) {
	c := New(time.Hour, WithMaxEntries[string, int](2))

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("a", 3) // overwrite, not a new key

	if _, ok := c.Get("b"); !ok {
		t.Error("overwrite of existing key evicted another entry")
	}
	if got, _ := c.Get("a"); got != 3 {
		t.Errorf("overwritten value = %d, want 3", got)
	}
}
