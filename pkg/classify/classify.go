// Package classify decides whether and how a profile link should be
// annotated.
//
// The host markup is undocumented, localized and versioned independently of
// this tool, so every structural assumption lives here, behind a single
// narrow contract: Classify takes a raw profile link and returns a model of
// the surrounding structure, or nothing. Unrecognized markup is a valid
// outcome, not an error.
package classify

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/davestewart/bskyinfo/pkg/i18n"
	"github.com/davestewart/bskyinfo/pkg/options"
)

type Type string

const (
	TypeFeed    Type = "feed"
	TypeList    Type = "list"
	TypeStarter Type = "starter"
)

// Marker classes spliced into the host markup. They double as styling hooks
// and as state carried between the two notification passes.
const (
	ClassList      = "bfi-list"
	ClassContainer = "bfi-container"
	NoHighlight    = "no-highlight"
)

// LinkSelector matches profile links that have not been processed yet.
const LinkSelector = `a[href^="/profile/"]:not([data-bfi])`

// ProcessedAttr marks a link that has been through the pipeline.
const ProcessedAttr = "data-bfi"

// Model describes one classified profile link and the structure an
// annotation attaches to. Models are ephemeral and discarded once the link
// has been annotated.
type Model struct {
	Handle  string
	Type    Type
	Element *goquery.Selection // the outer container
	Avatar  *goquery.Selection // decorative avatar block, may be nil
	Target  *goquery.Selection // anchor point for injected content
	Content *goquery.Selection // the injected node, set by the builder
	List    *goquery.Selection // enclosing list container, list type only
}

var handleRe = regexp.MustCompile(`profile/([^/]+)`)

// Handle extracts the profile handle from a link's href, or "".
func Handle(link *goquery.Selection) string {
	href, _ := link.Attr("href")
	m := handleRe.FindStringSubmatch(href)
	if m == nil {
		return ""
	}
	return m[1]
}

type Classifier struct {
	table    *i18n.Table
	opts     *options.Options
	pagePath string
}

// New builds a classifier for one document. A nil table (unsupported page
// language) makes every classification a miss.
func New(table *i18n.Table, opts *options.Options, pagePath string) *Classifier {
	return &Classifier{table: table, opts: opts, pagePath: pagePath}
}

// Classify inspects a profile link and the markup around it. A nil model
// with deferred=true means the link sits in a still-collapsed notification
// list and must be offered again later; the caller must not mark it
// processed in that case.
func (c *Classifier) Classify(link *goquery.Selection) (model *Model, deferred bool) {
	if c.table == nil {
		return nil, false
	}
	aria := c.table.Aria

	handle := Handle(link)
	if handle == "" {
		return nil, false
	}

	// starter pack cards carry their own follow button and avatar
	if strings.HasPrefix(c.pagePath, "/starter-pack/") {
		if link.Find("button").Length() > 0 {
			if avatar := findAvatar(link); avatar != nil {
				return &Model{
					Handle:  handle,
					Type:    TypeStarter,
					Element: link,
					Target:  link.Find(`[data-word-wrap="1"]`).First(),
					Avatar:  avatar,
				}, false
			}
		}
	}

	// multi-avatar roll-ups ("N others followed you") mark list elements;
	// the summary avatars themselves are never annotated
	summary := link.Closest(`[role="presentation"]`)
	if summary.Length() > 0 {
		c.markList(summary)
		return nil, false
	}

	// expanded notification list items, recognised via pass-1 markers
	list := link.Closest("." + ClassList)
	if list.Length() > 0 {
		container := link.Closest("." + ClassContainer)
		if container.Length() == 0 {
			return nil, false
		}
		// no hide-list control means the list is still collapsed
		if container.Find(`[aria-label="`+aria.ListHide+`"]`).Length() == 0 {
			return nil, true
		}
		return &Model{
			Handle:  handle,
			Type:    TypeList,
			Element: link,
			Target:  link,
			Avatar:  findAvatar(link),
			List:    list,
		}, false
	}

	// the avatar image link inside a feed item duplicates the name link
	if label, _ := link.Attr("aria-label"); label != "" && strings.Contains(label, aria.Avatar) {
		return nil, false
	}

	// feed follow notifications; only likes and follows carry a label,
	// replies don't
	element := link.Closest(`[data-testid="feedItem-by-` + handle + `"]`)
	if element.Length() > 0 && c.opts.Process.FeedFollowed {
		if label, ok := element.Attr("aria-label"); ok && strings.Contains(label, aria.FeedFollowed) {
			return &Model{
				Handle:  handle,
				Type:    TypeFeed,
				Element: element,
				Target:  link.Parent(),
				Avatar:  findAvatar(element),
			}, false
		}
	}

	return nil, false
}

// markList records pass-1 markers on a notification roll-up so a later pass
// can recognise its expanded list items. Lists whose category is disabled in
// the options never receive the container marker and stay unprocessed.
func (c *Classifier) markList(summary *goquery.Selection) {
	container := summary.Closest(`[data-testid^="feedItem-by"]`)
	if container.Length() == 0 {
		return
	}

	// the testid must go so the feed branch never claims these links
	container.RemoveAttr("data-testid")
	listNode := summary.Next()
	if listNode.Length() == 0 {
		return
	}
	listNode.AddClass(ClassList)

	label, _ := listNode.Next().Attr("aria-label")
	aria := c.table.Aria
	switch {
	case strings.Contains(label, aria.ListReposted):
		if !c.opts.Process.ListReposted {
			return
		}
	case strings.Contains(label, aria.ListLiked):
		if !c.opts.Process.ListLiked {
			return
		}
	case strings.Contains(label, aria.ListFollowed):
		if !c.opts.Process.ListFollowed {
			return
		}
	}

	container.AddClass(ClassContainer)
	if !c.opts.Behavior.HighlightLists {
		container.AddClass(NoHighlight)
	}
}

// findAvatar climbs a fixed number of ancestors from the avatar test marker.
// Returns nil when the chain is broken by unexpected markup.
func findAvatar(el *goquery.Selection) *goquery.Selection {
	marker := el.Find(`[data-testid="userAvatarImage"],[data-testid="userAvatarFallback"]`).First()
	if marker.Length() == 0 {
		return nil
	}
	avatar := marker
	for i := 0; i < 4; i++ {
		avatar = avatar.Parent()
		if avatar.Length() == 0 {
			return nil
		}
	}
	return avatar
}
