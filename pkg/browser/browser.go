// Package browser attaches to a running Chrome instance over the DevTools
// protocol and exposes the Bluesky tab as a snapshot source, a credential
// source and a viewport probe.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"github.com/davestewart/bskyinfo/pkg/bsky"
	"github.com/davestewart/bskyinfo/pkg/watch"
)

// AppURL is the web app origin whose tab gets watched.
const AppURL = "https://bsky.app"

type Browser struct {
	cancelAlloc   context.CancelFunc
	cancelBrowser context.CancelFunc
	cancelTab     context.CancelFunc
	tabCtx        context.Context
}

// Connect dials a Chrome debugging endpoint (e.g. ws://127.0.0.1:9222) and
// binds to the first Bluesky tab it finds.
func Connect(ctx context.Context, debugURL string) (*Browser, error) {
	allocCtx, cancelAlloc := chromedp.NewRemoteAllocator(ctx, debugURL)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	// establish the connection so target listing works
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("could not connect to browser at %s: %w", debugURL, err)
	}

	infos, err := chromedp.Targets(browserCtx)
	if err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, err
	}
	var id target.ID
	for _, info := range infos {
		if info.Type == "page" && strings.HasPrefix(info.URL, AppURL) {
			id = info.TargetID
			break
		}
	}
	if id == "" {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("no open %s tab found", AppURL)
	}

	tabCtx, cancelTab := chromedp.NewContext(browserCtx, chromedp.WithTargetID(id))
	return &Browser{
		cancelAlloc:   cancelAlloc,
		cancelBrowser: cancelBrowser,
		cancelTab:     cancelTab,
		tabCtx:        tabCtx,
	}, nil
}

func (b *Browser) Close() {
	b.cancelTab()
	b.cancelBrowser()
	b.cancelAlloc()
}

// Snapshot captures the tab's current markup and location path.
func (b *Browser) Snapshot(ctx context.Context) (*goquery.Document, string, error) {
	var outer, path string
	err := chromedp.Run(b.tabCtx,
		chromedp.OuterHTML("html", &outer, chromedp.ByQuery),
		chromedp.Evaluate(`location.pathname`, &path),
	)
	if err != nil {
		return nil, "", err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(outer))
	if err != nil {
		return nil, "", err
	}
	return doc, path, nil
}

// Session implements bsky.SessionSource by reading the app's localStorage.
func (b *Browser) Session(ctx context.Context) (*bsky.Session, error) {
	var blob string
	err := chromedp.Run(b.tabCtx,
		chromedp.Evaluate(`localStorage.getItem('BSKY_STORAGE') || ''`, &blob))
	if err != nil {
		return nil, err
	}
	if blob == "" {
		return nil, errors.New("page session storage not ready")
	}
	return bsky.ParseSession(blob)
}

// Viewport probes the live page for profile links within margin pixels of
// the visible area and returns a gate keyed on link hrefs. The probe runs
// once; take a fresh gate per snapshot.
func (b *Browser) Viewport(margin int) (watch.Viewport, error) {
	js := fmt.Sprintf(`(() => {
		const m = %d;
		const out = [];
		document.querySelectorAll('a[href^="/profile/"]').forEach(a => {
			const r = a.getBoundingClientRect();
			if (r.bottom > -m && r.top < innerHeight + m) {
				out.push(a.getAttribute('href'));
			}
		});
		return out;
	})()`, margin)

	var hrefs []string
	if err := chromedp.Run(b.tabCtx, chromedp.Evaluate(js, &hrefs)); err != nil {
		return nil, err
	}
	visible := make(map[string]bool, len(hrefs))
	for _, h := range hrefs {
		visible[h] = true
	}
	return hrefViewport(visible), nil
}

// hrefViewport gates links on the hrefs the probe saw near the viewport.
type hrefViewport map[string]bool

func (v hrefViewport) InView(link *goquery.Selection) bool {
	href, _ := link.Attr("href")
	return v[href]
}
