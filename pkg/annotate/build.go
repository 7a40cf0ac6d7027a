// Package annotate splices annotation blocks into classified host structures
// and paints their content from profile data. It only ever augments the
// page: no functional host element is removed or replaced.
package annotate

import (
	"html"

	"github.com/PuerkitoBio/goquery"
	"github.com/davestewart/bskyinfo/pkg/classify"
	"github.com/davestewart/bskyinfo/pkg/options"
)

type Builder struct {
	opts  *options.Options
	fixer HeightFixer
}

func NewBuilder(opts *options.Options, fixer HeightFixer) *Builder {
	if fixer == nil {
		fixer = ImmediateHeightFix{}
	}
	return &Builder{opts: opts, fixer: fixer}
}

// Build splices the annotation skeleton into the host structure and records
// the content node on the model. Returns false when the structure around the
// model has drifted too far to augment.
func (b *Builder) Build(m *classify.Model) bool {
	m.Element.AddClass("bfi-element")
	m.Target.AddClass("bfi-target")
	if m.Avatar != nil {
		m.Avatar.AddClass("bfi-avatar")
	}

	style := ""
	var parent *goquery.Selection

	switch m.Type {
	case classify.TypeFeed:
		style = ` style="margin-top: 5px"`
		parent = m.Target

	case classify.TypeList:
		// the link holds [avatar, title]; the title gets rehomed into a
		// wrapper so the annotation can sit below it
		title := m.Target.Children().Eq(1)
		if title.Length() == 0 {
			return false
		}
		title.AddClass("bfi-title")
		title.WrapHtml(`<div class="bfi-wrapper"></div>`)
		parent = title.Parent()

		visible := "0"
		if b.opts.Behavior.ExpandProfiles {
			visible = "1"
		}
		m.Element.SetAttr("data-bfi-visible", visible)

		m.Element.AppendHtml(`<button class="bfi-toggle"></button>`)
		title.Children().First().AppendHtml(`<span class="bfi-emojis"></span>`)

		// the host page animates the list open and clips anything added
		// afterwards, so its measured height has to be reset
		setHeight(m.List, "")
		b.fixer.FixHeight(m.List)

	case classify.TypeStarter:
		if m.Target.Length() == 0 {
			return false
		}
		parent = m.Target.Parent()
		m.Target.SetAttr("style", "display: none")

	default:
		return false
	}

	parent.AppendHtml(`<div class="bfi-content" data-handle="` + html.EscapeString(m.Handle) + `"` + style + `></div>`)
	m.Content = parent.ChildrenFiltered(".bfi-content").Last()
	return true
}
