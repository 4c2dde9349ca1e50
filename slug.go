package itemize

import (
	"regexp"
	"strings"
)

var (
	slugCamelRE   = regexp.MustCompile(`([A-Z])`)
	slugSepRE     = regexp.MustCompile(`[-_ ]+`)
	slugDashesRE  = regexp.MustCompile(`--+`)
	slugTrimRE    = regexp.MustCompile(`^-|-$`)
	slugInvalidRE = regexp.MustCompile(`[^a-z0-9-]`)
)

// Slugify derives a URL-safe slug from an itemize name. CamelCase words
// are split on capitals, separators collapse to single dashes, and any
// character outside [a-z0-9-] is dropped.
func Slugify(name string) string {
	if name == "" {
		return ""
	}
	// Leading capital does not start a new word.
	s := name[:1] + slugCamelRE.ReplaceAllString(name[1:], "-$1")
	s = strings.ToLower(s)
	s = slugSepRE.ReplaceAllString(s, "-")
	s = slugDashesRE.ReplaceAllString(s, "-")
	s = slugTrimRE.ReplaceAllString(s, "")
	return slugInvalidRE.ReplaceAllString(s, "")
}
