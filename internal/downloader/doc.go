// Package downloader streams videos to disk.
//
// An Engine takes the items found in one response, resolves each to
// <root>/<author>/<id>.<format>, lists every destination directory once and
// fetches whatever is missing. All fetches of a batch run concurrently and
// DownloadBatch returns only after the last one ends. Outcomes are logged,
// passed to an optional Reporter and returned as a BatchResult.
package downloader
