// Package i18n holds the localized phrase tables used to sniff meaning out
// of the host page's accessible labels. The app's markup carries no stable
// semantic hooks for notification categories, so classification has to match
// the label text the UI renders for the detected language.
//
// An unsupported locale is a first-class outcome: Lookup returns nil and the
// classifier skips everything rather than guessing.
package i18n

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Aria holds the accessible-label phrases sniffed from the host markup.
type Aria struct {
	ListHide     string
	ListFollowed string
	ListLiked    string
	ListReposted string
	FeedFollowed string
	Avatar       string
	Follow       string
	Following    string
}

// Labels holds the visible strings rendered inside annotations.
type Labels struct {
	Posts     string
	Followers string
	Following string
}

type Table struct {
	Aria   Aria
	Labels Labels
}

// DefaultLang is the fallback locale whose table is always present.
const DefaultLang = "en"

var tables = map[string]*Table{
	"en": {
		Aria: Aria{
			ListHide:     "Hide user list",
			ListFollowed: "followed you",
			ListLiked:    "liked your post",
			ListReposted: "reposted your post",
			FeedFollowed: "followed you",
			Avatar:       " avatar",
			Follow:       "Follow",
			Following:    "Following",
		},
		Labels: Labels{
			Posts:     "Posts",
			Followers: "Followers",
			Following: "Following",
		},
	},
	"fr": {
		Aria: Aria{
			ListHide:     "Cacher la liste des comptes",
			ListFollowed: "vous ont suivi",
			ListLiked:    "aimé votre post",
			ListReposted: "republié votre post",
			FeedFollowed: "suivi votre compte",
			Avatar:       "avatar de",
			Follow:       "Suivre",
			Following:    "Suivi",
		},
		Labels: Labels{
			Posts:     "Posts",
			Followers: "Abonnés",
			Following: "Abonnements",
		},
	},
	"es": {
		Aria: Aria{
			ListHide:     "Ocultar lista de usuarios",
			ListFollowed: "más te siguieron",
			ListLiked:    `más dieron "me gusta" a tu publicación`,
			ListReposted: "más republicaron tu publicación",
			FeedFollowed: "te siguió",
			Avatar:       "avatar de",
			Follow:       "Seguir",
			Following:    "Siguiendo",
		},
		Labels: Labels{
			Posts:     "Publicaciones",
			Followers: "Seguidores",
			Following: "Siguiendo",
		},
	},
}

// Detect reads the document's declared language, stripping any region
// suffix ("fr-CA" detects as "fr"). Returns "" when no language is declared.
func Detect(doc *goquery.Document) string {
	locale := doc.Find("html").AttrOr("lang", "")
	lang, _, _ := strings.Cut(locale, "-")
	return lang
}

// Lookup returns the phrase table for a language code, falling back to the
// given fallback code. Returns nil when neither is known.
func Lookup(lang, fallback string) *Table {
	if t, ok := tables[lang]; ok {
		return t
	}
	return tables[fallback]
}
