// Package scroll decides when an infinitely scrolling feed has run out.
//
// The terminator scrolls one step at a time and samples the page's vertical
// offset after each step. The feed is considered exhausted once the last
// window of samples (300 by default) are all the same value. A page that is
// static from the start still needs a full window of samples before it stops.
package scroll
