package watch

import (
	"context"

	"github.com/PuerkitoBio/goquery"
	"github.com/davestewart/bskyinfo/internal/utils"
	"github.com/davestewart/bskyinfo/pkg/annotate"
	"github.com/davestewart/bskyinfo/pkg/classify"
	"github.com/davestewart/bskyinfo/pkg/i18n"
)

// Transition records one observed follow-button flip.
type Transition struct {
	Handle    string
	Following bool
}

// TrackFollows diffs the follow buttons in this snapshot against the last
// one. A label flip means the user just followed or unfollowed someone: the
// profile is re-fetched, its follower count nudged to mask the API's
// read-after-write lag, persisted, and every mounted annotation for the
// handle repainted.
func (w *Watcher) TrackFollows(ctx context.Context, doc *goquery.Document, env Env) []Transition {
	table := i18n.Lookup(i18n.Detect(doc), env.LangFallback)
	if table == nil {
		return nil
	}
	renderer := annotate.NewRenderer(w.opts, table)

	current := make(map[string]bool)
	doc.Find(`button[aria-label]`).Each(func(_ int, btn *goquery.Selection) {
		label, _ := btn.Attr("aria-label")
		var following bool
		switch label {
		case table.Aria.Following:
			following = true
		case table.Aria.Follow:
			following = false
		default:
			return
		}
		link := btn.Parent().Find(`a[href^="/profile/"]`).First()
		if link.Length() == 0 {
			return
		}
		handle := classify.Handle(link)
		if handle == "" {
			return
		}
		current[handle] = following
	})

	if w.follows == nil {
		// first snapshot only records state, a flip needs a before and after
		w.follows = current
		return nil
	}

	var transitions []Transition
	for handle, following := range current {
		prev, seen := w.follows[handle]
		w.follows[handle] = following
		if !seen || prev == following {
			continue
		}
		transitions = append(transitions, Transition{Handle: handle, Following: following})
		w.applyFollowChange(ctx, doc, renderer, handle, following)
	}
	return transitions
}

func (w *Watcher) applyFollowChange(ctx context.Context, doc *goquery.Document, renderer *annotate.Renderer, handle string, following bool) {
	if w.client == nil {
		return
	}
	p := w.pool.Get(handle)
	if err := p.Load(ctx, w.store); err != nil {
		utils.Log.Warnf("Could not load cached profile %s: %v", handle, err)
	}
	if err := p.Fetch(ctx, w.client); err != nil {
		utils.Log.Warnf("Could not refresh %s after follow change: %v", handle, err)
		return
	}
	if p.Data == nil {
		return
	}

	// the API won't have caught up with the click yet, so fake the count
	if following {
		if !p.Data.Following {
			p.Data.FollowersCount++
		}
	} else {
		p.Data.FollowersCount--
	}
	p.Data.Following = following

	// persist before repainting so the stored record is authoritative
	if err := p.Save(ctx, w.store); err != nil {
		utils.Log.Warnf("Could not save profile %s: %v", handle, err)
	}

	doc.Find(`.bfi-content[data-handle="`+handle+`"]`).Each(func(_ int, content *goquery.Selection) {
		renderer.Render(content, p)
	})
}
