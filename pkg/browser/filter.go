package browser

import (
	"strings"

	"ttscraper/pkg/models"
)

// DefaultBlockedKinds are resource kinds the feed never needs
var DefaultBlockedKinds = []models.ResourceKind{
	models.KindStylesheet,
	models.KindImage,
	models.KindMedia,
	models.KindFont,
	models.KindWebSocket,
	models.KindEventSource,
}

// RequestFilter decides which outgoing page requests are aborted
type RequestFilter struct {
	kinds map[models.ResourceKind]bool
	urls  map[string]bool
}

// NewRequestFilter blocks DefaultBlockedKinds and every request to one of
// the given endpoints. Endpoints match regardless of query string.
func NewRequestFilter(blockedURLs ...string) *RequestFilter {
	f := &RequestFilter{
		kinds: make(map[models.ResourceKind]bool, len(DefaultBlockedKinds)),
		urls:  make(map[string]bool, len(blockedURLs)),
	}
	for _, k := range DefaultBlockedKinds {
		f.kinds[k] = true
	}
	for _, u := range blockedURLs {
		if u != "" {
			f.urls[stripQuery(u)] = true
		}
	}
	return f
}

// Blocked reports whether a request of kind to url should be aborted
func (f *RequestFilter) Blocked(kind models.ResourceKind, url string) bool {
	if f.kinds[kind] {
		return true
	}
	return f.urls[stripQuery(url)]
}

func stripQuery(u string) string {
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		return u[:i]
	}
	return u
}
