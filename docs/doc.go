// Package docs aggregates documentation content from remote URLs and local
// files, routing every read through the document caches.
//
// [Aggregator.LoadAll] takes a list of identifiers — URLs, local paths, or
// named sources from the [SourceTable] — loads them concurrently with
// settle-all semantics (one identifier's failure never cancels or fails the
// others), and renders the outcomes into a single string in input order.
// Remote fetches are bounded by a per-request timeout; local reads are
// confined to the configured document root.
package docs
