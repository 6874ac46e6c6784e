package theatre

import (
	"html"
	"regexp"
	"strings"
	"unicode"
)

// ExcerptWords is the number of words kept by a derived excerpt.
const ExcerptWords = 55

const excerptMore = "..."

var (
	shortcodePattern = regexp.MustCompile(`\[/?[a-zA-Z_-]+[^\]]*\]`)
	tagPattern       = regexp.MustCompile(`(?s)<[^>]*>`)
	scriptPattern    = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
)

// Slugify lowercases s and joins its letter and digit runs with hyphens.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// StripShortcodes removes [shortcode] style tags, keeping enclosed text.
func StripShortcodes(s string) string {
	return shortcodePattern.ReplaceAllString(s, "")
}

// StripTags removes HTML markup, including script and style bodies, and
// decodes entities.
func StripTags(s string) string {
	s = scriptPattern.ReplaceAllString(s, "")
	s = tagPattern.ReplaceAllString(s, " ")
	return html.UnescapeString(s)
}

// TrimWords keeps the first n words of s. more is appended only when words
// were dropped.
func TrimWords(s string, n int, more string) string {
	words := strings.Fields(s)
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ") + more
}

// DeriveExcerpt builds a plain text excerpt from body.
func DeriveExcerpt(body string) string {
	return TrimWords(StripTags(StripShortcodes(body)), ExcerptWords, excerptMore)
}

func excerptFor(item *Item) string {
	if strings.TrimSpace(item.Excerpt) != "" {
		return item.Excerpt
	}
	return DeriveExcerpt(item.Body)
}
