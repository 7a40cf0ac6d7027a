package profile

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/davestewart/bskyinfo/pkg/bsky"
	"github.com/davestewart/bskyinfo/pkg/options"
	"github.com/davestewart/bskyinfo/pkg/store"
)

type staticSource struct {
	url string
}

func (s *staticSource) Session(ctx context.Context) (*bsky.Session, error) {
	return &bsky.Session{URL: s.url, Token: "tok"}, nil
}

func absentClient(t *testing.T) *bsky.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"InvalidRequest","message":"Profile not found"}`))
	}))
	t.Cleanup(srv.Close)
	client := bsky.NewClient(&staticSource{url: srv.URL + "/"})
	if err := client.Init(context.Background()); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	return client
}

func openTemp(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "cache.sqlite"), "test", 30)
	if err != nil {
		t.Fatalf("could not open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestIsStale(t *testing.T) {
	thresholds := options.Defaults().Thresholds
	p := New("alice.bsky.social", true)
	p.Data = &bsky.ProfileData{}

	p.Updated = time.Now().Add(-6 * 24 * time.Hour).UnixMilli()
	if p.IsStale(thresholds) {
		t.Fatal("6 day old data should not be stale at a 7 day threshold")
	}
	p.Updated = time.Now().Add(-8 * 24 * time.Hour).UnixMilli()
	if !p.IsStale(thresholds) {
		t.Fatal("8 day old data should be stale at a 7 day threshold")
	}
}

func TestIsStale_NoData(t *testing.T) {
	p := New("alice.bsky.social", true)
	p.Updated = time.Now().Add(-30 * 24 * time.Hour).UnixMilli()
	if p.IsStale(options.Defaults().Thresholds) {
		t.Fatal("a profile without data is never stale, it needs a fetch instead")
	}
}

func TestIsOld(t *testing.T) {
	thresholds := options.Defaults().Thresholds
	p := New("alice.bsky.social", true)
	p.Data = &bsky.ProfileData{}
	p.Created = 1

	p.Updated = time.Now().Add(-13 * 24 * time.Hour).UnixMilli()
	if p.IsOld(thresholds) {
		t.Fatal("13 day old data should not read as old at a 14 day threshold")
	}
	p.Updated = time.Now().Add(-15 * 24 * time.Hour).UnixMilli()
	if !p.IsOld(thresholds) {
		t.Fatal("15 day old data should read as old at a 14 day threshold")
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	db := openTemp(t)
	ctx := context.Background()

	p := New("alice.bsky.social", true)
	p.Data = &bsky.ProfileData{Description: "Engineer", PostsCount: 42}
	if err := p.Save(ctx, db); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if p.Created == 0 || p.Updated == 0 {
		t.Fatal("save must stamp the timestamps")
	}

	q := New("alice.bsky.social", false)
	if err := q.Load(ctx, db); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if q.Data == nil {
		t.Fatal("expected data after load")
	}
	if q.Data.Description != "Engineer" || q.Data.PostsCount != 42 {
		t.Fatalf("data mismatch: %#v", q.Data)
	}
	if !q.Visible {
		t.Fatal("expected the persisted visible state")
	}
	if q.Created != p.Created {
		t.Fatalf("created mismatch: %d != %d", q.Created, p.Created)
	}
}

func TestSave_CreatedSetOnce(t *testing.T) {
	db := openTemp(t)
	ctx := context.Background()

	p := New("alice.bsky.social", true)
	if err := p.Save(ctx, db); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	created := p.Created

	time.Sleep(2 * time.Millisecond)
	if err := p.Save(ctx, db); err != nil {
		t.Fatalf("second save failed: %v", err)
	}
	if p.Created != created {
		t.Fatal("created must not move on later saves")
	}
	if p.Updated == created {
		t.Fatal("updated should advance on later saves")
	}
}

func TestLoad_Missing(t *testing.T) {
	db := openTemp(t)
	p := New("nobody.bsky.social", true)
	if err := p.Load(context.Background(), db); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if p.Created != 0 || p.Data != nil {
		t.Fatalf("a missing record must leave the profile untouched: %#v", p)
	}
}

func TestLoad_MalformedData(t *testing.T) {
	db := openTemp(t)
	ctx := context.Background()

	if err := db.Put(ctx, "alice.bsky.social", &store.Record{
		Created: 1, Updated: 2, Data: []byte("{not json"),
	}); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	p := New("alice.bsky.social", true)
	if err := p.Load(ctx, db); err != nil {
		t.Fatalf("malformed data must not surface as an error, got %v", err)
	}
	if p.Data != nil {
		t.Fatalf("malformed data must read as no data, got %#v", p.Data)
	}
	if p.Created != 1 {
		t.Fatal("the record timestamps should still load")
	}
}

func TestFetch_AbsentKeepsStaleData(t *testing.T) {
	client := absentClient(t)

	p := New("alice.bsky.social", true)
	p.Data = &bsky.ProfileData{PostsCount: 7}
	p.Updated = time.Now().Add(-30 * 24 * time.Hour).UnixMilli()

	if err := p.Fetch(context.Background(), client); err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if p.Data == nil || p.Data.PostsCount != 7 {
		t.Fatalf("an absent result must not clobber the stale snapshot, got %#v", p.Data)
	}
}

func TestFetch_AbsentStaysEmpty(t *testing.T) {
	client := absentClient(t)

	p := New("gone.bsky.social", true)
	if err := p.Fetch(context.Background(), client); err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if p.Data != nil {
		t.Fatalf("expected no data for an unknown handle, got %#v", p.Data)
	}
}

func TestPool_SharesInstances(t *testing.T) {
	pool := NewPool(true)
	a := pool.Get("alice.bsky.social")
	b := pool.Get("alice.bsky.social")
	if a != b {
		t.Fatal("expected the same pooled instance for one handle")
	}
	if !a.Visible {
		t.Fatal("expected the pool's visible default")
	}
}

func TestPool_Refresh_FreshDataSkipsFetch(t *testing.T) {
	db := openTemp(t)
	ctx := context.Background()

	seed := New("alice.bsky.social", true)
	seed.Data = &bsky.ProfileData{PostsCount: 7}
	if err := seed.Save(ctx, db); err != nil {
		t.Fatalf("seed save failed: %v", err)
	}

	// a nil client proves no fetch happens for fresh data
	pool := NewPool(true)
	p, err := pool.Refresh(ctx, "alice.bsky.social", db, nil, options.Defaults().Thresholds)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if p.Data == nil || p.Data.PostsCount != 7 {
		t.Fatalf("expected the cached snapshot, got %#v", p.Data)
	}
}
