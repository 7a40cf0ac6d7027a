// Package watch drives the annotation pipeline over document snapshots:
// discovering unprocessed profile links, gating them on viewport proximity,
// classifying and annotating them exactly once, and tracking follow-button
// transitions between snapshots.
package watch

import (
	"context"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/davestewart/bskyinfo/internal/utils"
	"github.com/davestewart/bskyinfo/pkg/annotate"
	"github.com/davestewart/bskyinfo/pkg/bsky"
	"github.com/davestewart/bskyinfo/pkg/classify"
	"github.com/davestewart/bskyinfo/pkg/i18n"
	"github.com/davestewart/bskyinfo/pkg/options"
	"github.com/davestewart/bskyinfo/pkg/profile"
	"github.com/davestewart/bskyinfo/pkg/store"
)

// Viewport gates processing on proximity to the visible area, deferring
// far-away links to a later pass.
type Viewport interface {
	InView(link *goquery.Selection) bool
}

// WholePage treats every link as in view; static snapshots carry no
// viewport.
type WholePage struct{}

func (WholePage) InView(*goquery.Selection) bool { return true }

// Env carries the per-document context a scan needs.
type Env struct {
	PagePath     string
	LangFallback string
	Viewport     Viewport
}

// Config wires a watcher together. Client may be nil for cache-only
// operation.
type Config struct {
	Options     *options.Options
	Store       *store.DB
	Client      *bsky.Client
	Fixer       annotate.HeightFixer
	Concurrency int // profile refresh workers, defaults to 4
}

// Stats summarizes one discovery pass.
type Stats struct {
	Discovered int // unprocessed links seen
	Annotated  int // annotation nodes spliced in
	Deferred   int // links left for a later pass (collapsed lists, off-screen)
	Refreshed  int // profiles fetched or re-fetched
}

type Watcher struct {
	opts        *options.Options
	store       *store.DB
	client      *bsky.Client
	fixer       annotate.HeightFixer
	pool        *profile.Pool
	concurrency int

	// last seen follow-button state per handle
	follows map[string]bool
}

func New(cfg Config) *Watcher {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Watcher{
		opts:        cfg.Options,
		store:       cfg.Store,
		client:      cfg.Client,
		fixer:       cfg.Fixer,
		pool:        profile.NewPool(cfg.Options.Behavior.ExpandProfiles),
		concurrency: concurrency,
	}
}

// Pool exposes the watcher's profile pool.
func (w *Watcher) Pool() *profile.Pool { return w.pool }

// Scan runs one discovery pass over the document: every unprocessed profile
// link in view is classified, annotated and rendered. Cached data paints
// first; missing or stale profiles are refreshed through the pool and
// repainted. One link's failure never halts the pass.
func (w *Watcher) Scan(ctx context.Context, doc *goquery.Document, env Env) (*Stats, error) {
	stats := &Stats{}

	table := i18n.Lookup(i18n.Detect(doc), env.LangFallback)
	classifier := classify.New(table, w.opts, env.PagePath)
	builder := annotate.NewBuilder(w.opts, w.fixer)
	renderer := annotate.NewRenderer(w.opts, table)

	viewport := env.Viewport
	if viewport == nil {
		viewport = WholePage{}
	}

	// phase 1: classify and splice, sequentially; the document is not safe
	// for concurrent mutation
	var mounted []*classify.Model
	doc.Find(classify.LinkSelector).Each(func(_ int, link *goquery.Selection) {
		stats.Discovered++
		if !viewport.InView(link) {
			stats.Deferred++
			return
		}
		model, deferred := classifier.Classify(link)
		if deferred {
			// collapsed lists must be offered again once expanded, so the
			// processed marker stays off
			stats.Deferred++
			return
		}
		link.SetAttr(classify.ProcessedAttr, "1")
		if model == nil {
			return
		}
		if !builder.Build(model) {
			utils.Log.Debugf("Skipping %s: structure drifted during build", model.Handle)
			return
		}
		mounted = append(mounted, model)
		stats.Annotated++
	})

	// paint cached data before any network round trip
	for _, m := range mounted {
		p := w.pool.Get(m.Handle)
		if p.Created == 0 {
			if err := p.Load(ctx, w.store); err != nil {
				utils.Log.Warnf("Could not load cached profile %s: %v", m.Handle, err)
			}
		}
		if p.Data != nil {
			renderer.Render(m.Content, p)
		}
	}

	// phase 2: refresh missing or stale profiles through the single-flight
	// pool, concurrently
	if w.client != nil {
		need := make(map[string]bool)
		for _, m := range mounted {
			p := w.pool.Get(m.Handle)
			if p.Data == nil || p.IsStale(w.opts.Thresholds) {
				need[m.Handle] = true
			}
		}
		if len(need) > 0 {
			handleChan := make(chan string, len(need))
			var wg sync.WaitGroup
			for i := 0; i < w.concurrency; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for h := range handleChan {
						if _, err := w.pool.Refresh(ctx, h, w.store, w.client, w.opts.Thresholds); err != nil {
							utils.Log.Warnf("Failed to refresh profile %s: %v", h, err)
						}
					}
				}()
			}
			for h := range need {
				handleChan <- h
			}
			close(handleChan)
			wg.Wait()
			stats.Refreshed = len(need)

			// phase 3: repaint with whatever the refresh produced; a failed
			// fetch paints the inline error state
			for _, m := range mounted {
				if need[m.Handle] {
					renderer.Render(m.Content, w.pool.Get(m.Handle))
				}
			}
		}
	}

	return stats, nil
}
