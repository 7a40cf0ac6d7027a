// Package profile models the cached, mergeable view of one user: their
// public stats snapshot plus the local UI state attached to it.
package profile

import (
	"context"
	"encoding/json"
	"time"

	"github.com/davestewart/bskyinfo/internal/utils"
	"github.com/davestewart/bskyinfo/pkg/bsky"
	"github.com/davestewart/bskyinfo/pkg/options"
	"github.com/davestewart/bskyinfo/pkg/store"
)

type Profile struct {
	Handle  string
	Data    *bsky.ProfileData // nil until the first successful fetch
	Visible bool
	Created int64 // epoch ms, set once on first save
	Updated int64 // epoch ms of the last save
}

func New(handle string, visible bool) *Profile {
	return &Profile{Handle: handle, Visible: visible}
}

// IsStale reports whether the data is old enough for a background refresh.
func (p *Profile) IsStale(t options.Thresholds) bool {
	return p.Data != nil && utils.IsOlderThan(p.Updated, t.UpdatedDays)
}

// IsOld reports whether the data is old enough to dim in the UI.
func (p *Profile) IsOld(t options.Thresholds) bool {
	return p.Data != nil && p.Created != 0 && utils.IsOlderThan(p.Updated, t.CreatedDays)
}

// Load hydrates the profile from the cache. A missing record leaves the
// profile untouched; a malformed data snapshot reads as no data, forcing a
// refetch.
func (p *Profile) Load(ctx context.Context, db *store.DB) error {
	rec, err := db.Get(ctx, p.Handle)
	if err != nil {
		return err
	}
	if rec == nil {
		return nil
	}
	p.Created = rec.Created
	p.Updated = rec.Updated
	p.Visible = rec.Visible
	if len(rec.Data) > 0 {
		var d bsky.ProfileData
		if err := json.Unmarshal(rec.Data, &d); err != nil {
			utils.Log.Warnf("Discarding malformed cached data for %s: %v", p.Handle, err)
			p.Data = nil
			return nil
		}
		p.Data = &d
	}
	return nil
}

// Save persists the profile, stamping Created on first write.
func (p *Profile) Save(ctx context.Context, db *store.DB) error {
	now := time.Now().UnixMilli()
	if p.Created == 0 {
		p.Created = now
	}
	p.Updated = now
	var raw []byte
	if p.Data != nil {
		b, err := json.Marshal(p.Data)
		if err != nil {
			return err
		}
		raw = b
	}
	return db.Put(ctx, p.Handle, &store.Record{
		Created: p.Created,
		Updated: p.Updated,
		Visible: p.Visible,
		Data:    raw,
	})
}

// Fetch replaces the data snapshot with the live API's view. An absent
// result keeps a previously loaded snapshot rather than clobbering it; Data
// ends up nil only when there was nothing cached either.
func (p *Profile) Fetch(ctx context.Context, client *bsky.Client) error {
	data, err := client.GetProfile(ctx, p.Handle)
	if err != nil {
		return err
	}
	if data == nil && p.Data != nil {
		return nil
	}
	p.Data = data
	return nil
}

// SetVisible flips the expanded state and persists it.
func (p *Profile) SetVisible(ctx context.Context, db *store.DB, state bool) error {
	p.Visible = state
	return p.Save(ctx, db)
}

// Mute mutes or unmutes this profile for the viewing account.
func (p *Profile) Mute(ctx context.Context, client *bsky.Client, state bool) error {
	if state {
		return client.MuteActor(ctx, p.Handle)
	}
	return client.UnmuteActor(ctx, p.Handle)
}
