// Package markdown holds what the markdown engines share: option names and
// the HTML sanitizer applied when "sanitize" is set.
package markdown

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// Template options understood by every markdown engine
const (
	// OptionSanitize runs the rendered HTML through a user-generated-content policy.
	OptionSanitize = "sanitize"
	// OptionEscapeHTML drops raw HTML found in the source. Defaults to true.
	OptionEscapeHTML = "escape_html"
	// OptionSmartypants enables typographic punctuation.
	OptionSmartypants = "smartypants"
)

// MimeType is the output type of the HTML markdown engines.
const MimeType = "text/html"

var ugcPolicy = sync.OnceValue(bluemonday.UGCPolicy)

// Sanitize strips anything the UGC policy does not allow.
func Sanitize(html string) string {
	return ugcPolicy().Sanitize(html)
}
