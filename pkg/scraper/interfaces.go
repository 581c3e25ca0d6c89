package scraper

import (
	"context"

	"ttscraper/internal/downloader"
	"ttscraper/pkg/models"
	"ttscraper/pkg/scroll"
)

// Session is a rendered page the scraper can observe, navigate and scroll
type Session interface {
	scroll.Scroller
	// Observe registers fn for every completed response. Responses are
	// delivered one at a time in arrival order.
	Observe(fn func(models.Response)) error
	Navigate(ctx context.Context, url string) error
	// Close waits for the response being handled, then releases the page
	// and browser.
	Close() error
}

// Launcher opens sessions
type Launcher interface {
	Launch(ctx context.Context, headless bool) (Session, error)
}

// LauncherFunc adapts a function to Launcher
type LauncherFunc func(ctx context.Context, headless bool) (Session, error)

// Launch calls f
func (f LauncherFunc) Launch(ctx context.Context, headless bool) (Session, error) {
	return f(ctx, headless)
}

// Downloader realizes a batch of items on disk
type Downloader interface {
	DownloadBatch(ctx context.Context, items []models.Item) downloader.BatchResult
}
