package profile

import (
	"context"

	"github.com/davestewart/bskyinfo/pkg/bsky"
	"github.com/davestewart/bskyinfo/pkg/options"
	"github.com/davestewart/bskyinfo/pkg/store"
	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/sync/singleflight"
)

// Pool keeps one in-memory Profile per handle and deduplicates refreshes:
// concurrent requests for the same handle share a single in-flight fetch
// and a single instance.
type Pool struct {
	profiles       *xsync.MapOf[string, *Profile]
	flight         singleflight.Group
	visibleDefault bool
}

func NewPool(visibleDefault bool) *Pool {
	return &Pool{
		profiles:       xsync.NewMapOf[string, *Profile](),
		visibleDefault: visibleDefault,
	}
}

// Get returns the pooled profile for a handle, creating it on first
// reference.
func (pl *Pool) Get(handle string) *Profile {
	p, _ := pl.profiles.LoadOrCompute(handle, func() *Profile {
		return New(handle, pl.visibleDefault)
	})
	return p
}

// Refresh ensures the pooled profile holds usable data: it loads from the
// cache when not yet hydrated, and fetches from the API when data is missing
// or stale. A profile that is already followed on its very first fetch
// starts collapsed.
func (pl *Pool) Refresh(ctx context.Context, handle string, db *store.DB, client *bsky.Client, t options.Thresholds) (*Profile, error) {
	v, err, _ := pl.flight.Do(handle, func() (interface{}, error) {
		p := pl.Get(handle)
		if p.Created == 0 {
			if err := p.Load(ctx, db); err != nil {
				return p, err
			}
		}
		firstLoad := p.Created == 0
		if p.Data != nil && !p.IsStale(t) {
			return p, nil
		}
		if err := p.Fetch(ctx, client); err != nil {
			return p, err
		}
		if p.Data != nil {
			if firstLoad && p.Data.Following {
				p.Visible = false
			}
			if err := p.Save(ctx, db); err != nil {
				return p, err
			}
		}
		return p, nil
	})
	return v.(*Profile), err
}
