package cache

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache.db")
	c, err := Open(path)
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestDirListingRoundTrip(t *testing.T) {
	c := openTestCache(t)

	entries := []DirEntry{
		{Name: "a.md", IsDir: false},
		{Name: "sub", IsDir: true},
	}
	if err := c.PutDirListing("/vault/notes", 100, entries); err != nil {
		t.Fatalf("PutDirListing: %v", err)
	}

	got, hit, err := c.DirListing("/vault/notes", 100)
	if err != nil {
		t.Fatalf("DirListing: %v", err)
	}
	if !hit {
		t.Fatal("expected cache hit")
	}
	if len(got) != 2 || got[0].Name != "a.md" || got[1].Name != "sub" {
		t.Errorf("DirListing() = %+v", got)
	}
}

func TestDirListingMissOnMtimeChange(t *testing.T) {
	c := openTestCache(t)

	c.PutDirListing("/vault/notes", 100, []DirEntry{{Name: "a.md"}})

	_, hit, err := c.DirListing("/vault/notes", 200)
	if err != nil {
		t.Fatalf("DirListing: %v", err)
	}
	if hit {
		t.Error("expected cache miss after mtime change")
	}
}

func TestDirListingMissWhenAbsent(t *testing.T) {
	c := openTestCache(t)

	_, hit, err := c.DirListing("/vault/nowhere", 1)
	if err != nil {
		t.Fatalf("DirListing: %v", err)
	}
	if hit {
		t.Error("expected miss for unknown path")
	}
}

func TestInvalidateDirListing(t *testing.T) {
	c := openTestCache(t)

	c.PutDirListing("/vault/notes", 100, []DirEntry{{Name: "a.md"}})
	if err := c.InvalidateDirListing("/vault/notes"); err != nil {
		t.Fatalf("InvalidateDirListing: %v", err)
	}

	_, hit, err := c.DirListing("/vault/notes", 100)
	if err != nil {
		t.Fatalf("DirListing: %v", err)
	}
	if hit {
		t.Error("expected miss after invalidation")
	}
}

func TestRemoteSnapshotFreshness(t *testing.T) {
	c := openTestCache(t)

	now := time.Now()
	if err := c.PutRemoteSnapshot("page-1", "2026-01-01T00:00:00Z", now); err != nil {
		t.Fatalf("PutRemoteSnapshot: %v", err)
	}

	got, fresh, err := c.RemoteSnapshot("page-1", time.Hour)
	if err != nil {
		t.Fatalf("RemoteSnapshot: %v", err)
	}
	if !fresh {
		t.Error("expected fresh snapshot within maxAge")
	}
	if got != "2026-01-01T00:00:00Z" {
		t.Errorf("lastEditedTime = %q", got)
	}

	_, stale, err := c.RemoteSnapshot("page-1", -time.Hour)
	if err != nil {
		t.Fatalf("RemoteSnapshot: %v", err)
	}
	if stale {
		t.Error("expected stale snapshot with negative maxAge")
	}
}

func TestRemoteSnapshotMissing(t *testing.T) {
	c := openTestCache(t)

	_, fresh, err := c.RemoteSnapshot("unknown", time.Hour)
	if err != nil {
		t.Fatalf("RemoteSnapshot: %v", err)
	}
	if fresh {
		t.Error("expected miss for unknown page")
	}
}
