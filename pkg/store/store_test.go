package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTemp(t *testing.T, version string, retentionDays int) (*DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache.sqlite")
	db, err := Open(path, version, retentionDays)
	if err != nil {
		t.Fatalf("could not open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, path
}

func TestPutGet(t *testing.T) {
	db, _ := openTemp(t, "1.0.0", 30)
	ctx := context.Background()

	now := time.Now().UnixMilli()
	rec := &Record{Created: now, Updated: now, Visible: true, Data: []byte(`{"postsCount":5}`)}
	if err := db.Put(ctx, "alice.bsky.social", rec); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	got, err := db.Get(ctx, "alice.bsky.social")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected a record")
	}
	if got.Created != now || got.Updated != now || !got.Visible {
		t.Fatalf("record round trip mismatch: %#v", got)
	}
	if string(got.Data) != `{"postsCount":5}` {
		t.Fatalf("unexpected data: %s", got.Data)
	}
}

func TestGet_Missing(t *testing.T) {
	db, _ := openTemp(t, "1.0.0", 30)
	got, err := db.Get(context.Background(), "nobody.bsky.social")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for a missing handle, got %#v", got)
	}
}

func TestPut_Replaces(t *testing.T) {
	db, _ := openTemp(t, "1.0.0", 30)
	ctx := context.Background()

	if err := db.Put(ctx, "alice.bsky.social", &Record{Created: 1, Updated: 1}); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if err := db.Put(ctx, "alice.bsky.social", &Record{Created: 1, Updated: 2, Visible: true}); err != nil {
		t.Fatalf("second put failed: %v", err)
	}
	got, err := db.Get(ctx, "alice.bsky.social")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Updated != 2 || !got.Visible {
		t.Fatalf("expected the replacement record, got %#v", got)
	}
}

func TestRemove(t *testing.T) {
	db, _ := openTemp(t, "1.0.0", 30)
	ctx := context.Background()

	if err := db.Put(ctx, "alice.bsky.social", &Record{Created: 1, Updated: 1}); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if err := db.Remove(ctx, "alice.bsky.social"); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	got, err := db.Get(ctx, "alice.bsky.social")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != nil {
		t.Fatal("expected the record to be gone")
	}
}

func TestVersionGate_WipesOnMismatch(t *testing.T) {
	db, path := openTemp(t, "1.0.0", 30)
	ctx := context.Background()

	now := time.Now().UnixMilli()
	if err := db.Put(ctx, "alice.bsky.social", &Record{Created: now, Updated: now}); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	db.Close()

	db2, err := Open(path, "2.0.0", 30)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer db2.Close()

	got, err := db2.Get(ctx, "alice.bsky.social")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != nil {
		t.Fatal("expected a version bump to wipe the cache")
	}
}

func TestVersionGate_KeepsOnMatch(t *testing.T) {
	db, path := openTemp(t, "1.0.0", 30)
	ctx := context.Background()

	now := time.Now().UnixMilli()
	if err := db.Put(ctx, "alice.bsky.social", &Record{Created: now, Updated: now}); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	db.Close()

	db2, err := Open(path, "1.0.0", 30)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer db2.Close()

	got, err := db2.Get(ctx, "alice.bsky.social")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected the record to survive a same-version reopen")
	}
}

func TestRetentionSweep(t *testing.T) {
	db, path := openTemp(t, "1.0.0", 30)
	ctx := context.Background()

	old := time.Now().Add(-31 * 24 * time.Hour).UnixMilli()
	recent := time.Now().Add(-29 * 24 * time.Hour).UnixMilli()
	if err := db.Put(ctx, "old.bsky.social", &Record{Created: old, Updated: old}); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if err := db.Put(ctx, "recent.bsky.social", &Record{Created: recent, Updated: recent}); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	db.Close()

	db2, err := Open(path, "1.0.0", 30)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer db2.Close()

	gone, err := db2.Get(ctx, "old.bsky.social")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if gone != nil {
		t.Fatal("expected the 31 day old record to be swept")
	}
	kept, err := db2.Get(ctx, "recent.bsky.social")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if kept == nil {
		t.Fatal("expected the 29 day old record to survive")
	}
}

func TestHandles_Sorted(t *testing.T) {
	db, _ := openTemp(t, "1.0.0", 30)
	ctx := context.Background()

	for _, h := range []string{"carol.bsky.social", "alice.bsky.social", "bob.bsky.social"} {
		if err := db.Put(ctx, h, &Record{Created: 1, Updated: 1}); err != nil {
			t.Fatalf("put failed: %v", err)
		}
	}
	handles, err := db.Handles(ctx)
	if err != nil {
		t.Fatalf("handles failed: %v", err)
	}
	if len(handles) != 3 {
		t.Fatalf("expected 3 handles, got %d", len(handles))
	}
	if handles[0] != "alice.bsky.social" || handles[2] != "carol.bsky.social" {
		t.Fatalf("expected alphabetical order, got %v", handles)
	}
}

func TestGetStats(t *testing.T) {
	db, _ := openTemp(t, "1.0.0", 30)
	ctx := context.Background()

	if err := db.Put(ctx, "alice.bsky.social", &Record{Created: 10, Updated: 20, Data: []byte("{}")}); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if err := db.Put(ctx, "bob.bsky.social", &Record{Created: 5, Updated: 15}); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	stats, err := db.GetStats(ctx)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.Profiles != 2 {
		t.Fatalf("expected 2 profiles, got %d", stats.Profiles)
	}
	if stats.Fetched != 1 {
		t.Fatalf("expected 1 fetched profile, got %d", stats.Fetched)
	}
	if stats.Oldest != 5 || stats.Newest != 20 {
		t.Fatalf("unexpected oldest/newest: %d/%d", stats.Oldest, stats.Newest)
	}
}
