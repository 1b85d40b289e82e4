package feed

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// summaryLen is the target length of the plain-text excerpt in runes
const summaryLen = 240

var (
	scriptRe = regexp.MustCompile(`(?is)<script\b.*?</script>`)
	styleRe  = regexp.MustCompile(`(?is)<style\b.*?</style>`)
	spaceRe  = regexp.MustCompile(`\s+`)
)

// sanitizer cleans feed HTML for storage and produces plain-text excerpts.
// bluemonday policies are safe for concurrent use, one sanitizer is shared by
// all fetches.
type sanitizer struct {
	content *bluemonday.Policy // keeps harmless formatting markup
	strip   *bluemonday.Policy // strips everything, plain text out
}

func newSanitizer() *sanitizer {
	return &sanitizer{
		content: bluemonday.UGCPolicy(),
		strip:   bluemonday.StrictPolicy(),
	}
}

// html returns the content with script/style blocks removed and the rest
// sanitized to safe user-generated-content markup
func (s *sanitizer) html(raw string) string {
	raw = scriptRe.ReplaceAllString(raw, "")
	raw = styleRe.ReplaceAllString(raw, "")
	return strings.TrimSpace(s.content.Sanitize(raw))
}

// excerpt returns a plain-text, whitespace-collapsed excerpt truncated at a
// word boundary
func (s *sanitizer) excerpt(raw string) string {
	txt := s.strip.Sanitize(raw)
	txt = html.UnescapeString(txt)
	txt = strings.TrimSpace(spaceRe.ReplaceAllString(txt, " "))

	runes := []rune(txt)
	if len(runes) <= summaryLen {
		return txt
	}
	cut := string(runes[:summaryLen])
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "..."
}
