// Package ratelimit paces media downloads.
//
// SlidingWindow tracks request start times within a moving window and
// blocks callers of Wait until a slot frees up or their context ends.
// The download engine only installs a limiter when a per-minute budget is
// configured; by default downloads are not paced.
//
//	limiter := ratelimit.PerMinute(60)
//	if err := limiter.Wait(ctx); err != nil {
//	    return err
//	}
package ratelimit
