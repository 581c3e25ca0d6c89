// Package browser drives a Chromium page with go-rod for a single profile feed.
//
// A Session blocks non-essential subresources through a hijack router,
// reports completed network responses to one observer in arrival order, and
// implements scroll.Scroller so the terminator can drive it.
package browser
