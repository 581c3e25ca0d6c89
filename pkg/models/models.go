package models

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Item is one downloadable video observed in a profile feed
type Item struct {
	ID           string
	Description  string
	CreateTime   int64
	AuthorHandle string
	DownloadURL  string
	Format       string
}

// Filename returns the on-disk name of the item's video
func (i Item) Filename() string {
	return fmt.Sprintf("%s.%s", i.ID, i.Format)
}

// FieldIssues names the required fields that are empty and, separately, the
// fields that end up in the file path but are not a single path element.
// Names follow the feed record keys.
func (i Item) FieldIssues() (missing, unsafe []string) {
	fields := []struct {
		name  string
		value string
		path  bool
	}{
		{"id", i.ID, true},
		{"author.uniqueId", i.AuthorHandle, true},
		{"video.downloadAddr", i.DownloadURL, false},
		{"video.format", i.Format, true},
	}
	for _, f := range fields {
		switch {
		case f.value == "":
			missing = append(missing, f.name)
		case f.path && !IsPathElement(f.value):
			unsafe = append(unsafe, f.name)
		}
	}
	return missing, unsafe
}

// IsPathElement reports whether s names exactly one entry inside a directory:
// no separators, not "." or "..", and local to that directory
func IsPathElement(s string) bool {
	if s == "" || s == "." || s == ".." || strings.ContainsAny(s, `/\`) {
		return false
	}
	return filepath.IsLocal(s)
}

func (i Item) String() string {
	return fmt.Sprintf("<Item(id='%s', description='%s')>", i.ID, i.Description)
}

// ResourceKind is the browser's classification of a network resource
type ResourceKind string

const (
	KindDocument    ResourceKind = "document"
	KindStylesheet  ResourceKind = "stylesheet"
	KindImage       ResourceKind = "image"
	KindMedia       ResourceKind = "media"
	KindFont        ResourceKind = "font"
	KindScript      ResourceKind = "script"
	KindXHR         ResourceKind = "xhr"
	KindFetch       ResourceKind = "fetch"
	KindWebSocket   ResourceKind = "websocket"
	KindEventSource ResourceKind = "eventsource"
	KindOther       ResourceKind = "other"
)

// Response is a completed network response as seen by the response observer.
// Body is read lazily so responses that are not feed-bearing never pay for it.
type Response struct {
	URL    string
	Status int
	Kind   ResourceKind
	Body   func() ([]byte, error)
}
