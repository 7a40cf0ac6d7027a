package annotate

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/davestewart/bskyinfo/internal/utils"
	"github.com/davestewart/bskyinfo/pkg/bsky"
	"github.com/davestewart/bskyinfo/pkg/i18n"
	"github.com/davestewart/bskyinfo/pkg/options"
	"github.com/davestewart/bskyinfo/pkg/profile"
	"github.com/davestewart/bskyinfo/pkg/store"
)

const (
	iconMinus = `<svg xmlns="http://www.w3.org/2000/svg" fill="none" viewBox="0 0 24 24" stroke-width="1.5" stroke="currentColor" class="size-6"><path stroke-linecap="round" stroke-linejoin="round" d="M5 12h14" /></svg>`
	iconPlus  = `<svg xmlns="http://www.w3.org/2000/svg" fill="none" viewBox="0 0 24 24" stroke-width="1.5" stroke="currentColor" class="size-6"><path stroke-linecap="round" stroke-linejoin="round" d="M12 4.5v15m7.5-7.5h-15" /></svg>`
)

type Renderer struct {
	opts  *options.Options
	table *i18n.Table
}

// NewRenderer builds a renderer using the given label table; pass the
// default-language table when the page language is unsupported.
func NewRenderer(opts *options.Options, table *i18n.Table) *Renderer {
	if table == nil {
		table = i18n.Lookup(i18n.DefaultLang, i18n.DefaultLang)
	}
	return &Renderer{opts: opts, table: table}
}

// Render paints a content node from the profile's data, or an inline error
// state when no data could be loaded.
func (r *Renderer) Render(content *goquery.Selection, p *profile.Profile) {
	if p.Data == nil {
		content.SetHtml("Could not load profile!")
		content.AddClass("bfi-error")
		return
	}
	d := p.Data

	descClass := "bfi-text"
	if p.IsOld(r.opts.Thresholds) {
		descClass = "bfi-dim"
	}
	desc := Condense(d.Description, r.opts.Profile.Emojis, descClass)

	em := r.emojis(d)
	labels := r.table.Labels
	info := []string{
		makeInfo(em.Posts, labels.Posts, d.PostsCount, true),
		makeInfo(em.Followers, labels.Followers, d.FollowersCount, true),
		makeInfo(em.Following, labels.Following, d.FollowingCount, false),
	}
	htmlInfo := `<div class="bfi-info">` + strings.Join(info, "") + `</div>`

	if desc != "" {
		compact := ""
		if r.opts.Profile.Compact {
			compact = " is-compact"
		}
		content.SetHtml(`<div class="bfi-desc` + compact + `">` + desc + `</div>` + "\n\n" + htmlInfo)
	} else {
		content.SetHtml(htmlInfo)
	}

	r.updateToggle(content, p)
}

// ToggleVisible flips the expanded state, persists it, and repaints without
// refetching.
func (r *Renderer) ToggleVisible(ctx context.Context, content *goquery.Selection, p *profile.Profile, db *store.DB) error {
	if err := p.SetVisible(ctx, db, !p.Visible); err != nil {
		return err
	}
	r.Render(content, p)
	return nil
}

// updateToggle syncs the toggle control and the collapsed emoji summary on
// list annotations with the profile's visible state.
func (r *Renderer) updateToggle(content *goquery.Selection, p *profile.Profile) {
	element := content.Closest(".bfi-element")
	toggle := element.Find(".bfi-toggle")
	if toggle.Length() == 0 {
		return
	}

	summary := element.Find(".bfi-emojis")
	if p.Visible {
		toggle.SetAttr("title", "Hide")
		toggle.SetHtml(iconMinus)
		element.SetAttr("data-bfi-visible", "1")
		summary.SetHtml("")
	} else {
		toggle.SetAttr("title", "Show")
		toggle.SetHtml(iconPlus)
		element.SetAttr("data-bfi-visible", "0")
		em := r.emojis(p.Data)
		summary.SetHtml(strings.Join([]string{em.Profile, em.Posts, em.Followers, em.Following}, " "))
	}
}

type emojiSet struct {
	Profile   string
	Posts     string
	Followers string
	Following string
}

// emojis picks the decorative icons for each signal by threshold.
func (r *Renderer) emojis(d *bsky.ProfileData) emojiSet {
	icons, t := r.opts.Icons, r.opts.Thresholds
	var s emojiSet
	if d.Description != "" {
		s.Profile = makeEmoji(icons.Profile, "User has profile description")
	}
	switch {
	case d.PostsCount >= int64(t.Engaged):
		s.Posts = makeEmoji(icons.Engaged, "User is engaged")
	case d.PostsCount > int64(t.Posted):
		s.Posts = makeEmoji(icons.Posted, "User has posted")
	}
	if d.FollowersCount > d.FollowingCount {
		s.Followers = makeEmoji(icons.Popular, "User is popular")
	}
	if d.Following {
		s.Following = makeEmoji(icons.Following, "You are following this user")
	}
	return s
}

func makeEmoji(icon, title string) string {
	return `<span class="bfi-emoji" title="` + title + `">` + icon + `</span>`
}

func makeInfo(icon, label string, count int64, sep bool) string {
	s := icon + ` <span class="bfi-dim">` + label + `: ` + utils.FormatCount(count)
	if sep {
		s += " | "
	}
	return s + `</span>`
}
