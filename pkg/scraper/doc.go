// Package scraper drives a profile crawl from start to finish.
//
// A Scraper opens a browser session, registers a response observer before
// navigating, then scrolls the profile feed until it stops moving. Every
// observed response goes through the feed normalizer; the items it yields
// are handed to the download engine as one batch. Nothing that happens
// inside the observer can abort the run. Only failures to launch, navigate
// or scroll are returned to the caller.
//
//	s := scraper.New(cfg, launcher, engine, log)
//	stats, err := s.Run(ctx, "alice", true)
package scraper
