package annotate

import (
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/davestewart/bskyinfo/pkg/classify"
)

// HeightFixer restores an animated list container's height after content is
// spliced in.
type HeightFixer interface {
	FixHeight(list *goquery.Selection)
}

// ImmediateHeightFix resets the height in place, for static snapshots.
type ImmediateHeightFix struct{}

func (ImmediateHeightFix) FixHeight(list *goquery.Selection) {
	setHeight(list, "auto")
}

// setHeight rewrites only the height declaration of an inline style; the
// host's other declarations stay in place. An empty value removes the
// declaration.
func setHeight(sel *goquery.Selection, value string) {
	style, _ := sel.Attr("style")
	var decls []string
	for _, decl := range strings.Split(style, ";") {
		decl = strings.TrimSpace(decl)
		if decl == "" {
			continue
		}
		name, _, _ := strings.Cut(decl, ":")
		if strings.TrimSpace(name) == "height" {
			continue
		}
		decls = append(decls, decl)
	}
	if value != "" {
		decls = append(decls, "height: "+value)
	}
	sel.SetAttr("style", strings.Join(decls, "; "))
}

// ListHeightDelay is how long the host page's open animation runs before a
// re-measure is safe.
const ListHeightDelay = 200 * time.Millisecond

// DelayedHeightFix queues height resets and applies them once the host
// page's open animation would have finished. Live mode replaces the document
// every tick, so a pending fix is keyed by a profile link inside its list
// and re-resolved against whatever document is current when the delay
// elapses. Apply must run on the goroutine that mutates the document, after
// the pass that marks the lists.
type DelayedHeightFix struct {
	delay   time.Duration
	mu      sync.Mutex
	pending []pendingFix
}

type pendingFix struct {
	href string
	due  time.Time
}

func NewDelayedHeightFix(delay time.Duration) *DelayedHeightFix {
	if delay <= 0 {
		delay = ListHeightDelay
	}
	return &DelayedHeightFix{delay: delay}
}

func (f *DelayedHeightFix) FixHeight(list *goquery.Selection) {
	href, ok := list.Find(`a[href^="/profile/"]`).First().Attr("href")
	if !ok {
		return
	}
	f.mu.Lock()
	f.pending = append(f.pending, pendingFix{href: href, due: time.Now().Add(f.delay)})
	f.mu.Unlock()
}

// Apply resets every due list it can re-resolve in doc and keeps the rest
// queued. Due lists that no longer exist (collapsed again) are dropped.
func (f *DelayedHeightFix) Apply(doc *goquery.Document) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	kept := f.pending[:0]
	for _, p := range f.pending {
		if now.Before(p.due) {
			kept = append(kept, p)
			continue
		}
		list := doc.Find(`a[href="` + p.href + `"]`).Closest("." + classify.ClassList)
		if list.Length() > 0 {
			setHeight(list, "auto")
		}
	}
	f.pending = kept
}
