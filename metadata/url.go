package metadata

import (
	"net/url"
	"strings"

	"github.com/fwojciec/itemize"
)

// NormalizeURL canonicalizes a URL for use as the metadata cache key:
// scheme and host are lowercased, fragments and default ports dropped.
// Returns EINVALID for relative or unparseable URLs.
func NormalizeURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", itemize.Errorf(itemize.EINVALID, "invalid URL %q: %v", raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", itemize.Errorf(itemize.EINVALID, "absolute URL required, got %q", raw)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	if (u.Scheme == "http" && strings.HasSuffix(u.Host, ":80")) ||
		(u.Scheme == "https" && strings.HasSuffix(u.Host, ":443")) {
		u.Host = u.Hostname()
	}

	return u.String(), nil
}
