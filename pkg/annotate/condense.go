package annotate

import (
	"regexp"
	"strings"

	"github.com/weppos/publicsuffix-go/publicsuffix"
)

var (
	// full URLs collapse to "domain/path", dropping scheme, www and any
	// trailing slash
	urlRe = regexp.MustCompile(`(https?://)(www\.)?(\S+)`)

	// descriptions break on pipes, bullets and linebreaks
	segmentRe = regexp.MustCompile("[|❯•∙⋅\n\r]+")

	emojiRe = regexp.MustCompile(`[\x{1F300}-\x{1F9FF}\x{2600}-\x{26FF}\x{2700}-\x{27BF}\x{2B00}-\x{2BFF}\x{1F1E6}-\x{1F1FF}\x{1F170}-\x{1F18D}\x{1F191}-\x{1F19A}\x{1F000}-\x{1F0FF}\x{1F100}-\x{1F1FF}\x{1F201}-\x{1F2FF}\x{1FA70}-\x{1FAFF}][\x{FE00}-\x{FE0F}\x{1F3FB}-\x{1F3FF}]?`)
)

// StripEmojis removes emoji, variation selectors and joiner characters.
func StripEmojis(text string) string {
	return strings.ReplaceAll(emojiRe.ReplaceAllString(text, ""), "\u200D", "")
}

// Condense rewrites a free-form profile description into a compact single
// line: URLs collapse to their domain and path, bullet-separated fragments
// become styled segments, empty fragments drop out. textClass styles the
// plain-text segments (normal vs dimmed).
func Condense(description string, emojis bool, textClass string) string {
	description = strings.TrimSpace(description)
	if description == "" {
		return ""
	}

	prefix := ""
	if emojis {
		prefix = "⚡️ "
	}
	description = urlRe.ReplaceAllStringFunc(description, func(raw string) string {
		m := urlRe.FindStringSubmatch(raw)
		return `<span class="bfi-url">` + prefix + strings.TrimSuffix(m[3], "/") + `</span>`
	})

	var parts []string
	for _, line := range segmentRe.Split(description, -1) {
		line = strings.TrimSpace(strings.TrimPrefix(line, "- "))
		if !emojis {
			line = strings.TrimSpace(StripEmojis(line))
		}
		if line == "" {
			continue
		}
		class := textClass
		if isBareDomain(line) {
			// scheme-less links ("example.com") get the same styling as
			// rewritten URLs
			class = "bfi-url"
			line = strings.TrimSuffix(line, "/")
		}
		parts = append(parts, `<span class="`+class+`">`+line+`</span>`)
	}

	return strings.Join(parts, ` <span class="bfi-sep">|</span> `)
}

// isBareDomain reports whether a whole segment is a scheme-less link with a
// registrable domain.
func isBareDomain(segment string) bool {
	if strings.ContainsAny(segment, " \t@<>") {
		return false
	}
	host := segment
	if i := strings.Index(host, "/"); i > 0 {
		host = host[:i]
	}
	if !strings.Contains(host, ".") {
		return false
	}
	_, err := publicsuffix.Domain(host)
	return err == nil
}
