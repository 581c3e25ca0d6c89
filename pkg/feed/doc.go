// Package feed extracts video items from profile page network traffic.
//
// Two response shapes carry items. A server-rendered profile document embeds
// its state as JSON inside a script element; item records there refer to
// their author by key and are resolved against the page's user map. The
// paginated listing API returns JSON whose itemList records carry full
// author data. Both normalize to models.Item.
//
// Responses that match neither shape are not an error. Responses that match
// a shape but cannot be parsed return a *ClassificationError. Records that
// cannot become a valid Item are reported in Batch.Dropped.
package feed
