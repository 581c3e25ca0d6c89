package downloader

import "net/http"

const (
	mediaAccept         = "video/webm,video/ogg,video/*;q=0.9,application/ogg;q=0.7,audio/*;q=0.6,*/*;q=0.5"
	mediaAcceptLanguage = "fr,fr-FR;q=0.8,en-US;q=0.5,en;q=0.3"
)

// FetchConfig holds the request headers sent with every media fetch.
// It is built once per session and passed to NewClient.
type FetchConfig struct {
	Headers http.Header
}

// DefaultFetchConfig returns the header set of a browser streaming a
// video element from referer
func DefaultFetchConfig(referer, userAgent string) FetchConfig {
	h := make(http.Header)
	h.Set("Accept", mediaAccept)
	h.Set("Accept-Language", mediaAcceptLanguage)
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("Pragma", "no-cache")
	h.Set("Range", "bytes=0-")
	h.Set("Referer", referer)
	h.Set("Sec-Fetch-Dest", "video")
	h.Set("Sec-Fetch-Mode", "no-cors")
	h.Set("Sec-Fetch-Site", "same-site")
	h.Set("User-Agent", userAgent)
	return FetchConfig{Headers: h}
}

// Clone returns a deep copy so callers can adjust headers without sharing
func (c FetchConfig) Clone() FetchConfig {
	return FetchConfig{Headers: c.Headers.Clone()}
}
