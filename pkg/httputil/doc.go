// Package httputil fetches remote template assets.
//
// Templates, font files, background images and map screenshots may be
// referenced by URL. [Fetcher] downloads them with a [Backoff] policy on transient
// failures and keeps the bodies in a file-backed [Cache] so repeated
// exports do not hit the network again.
//
//	f := httputil.NewFetcher(cache)
//	data, err := f.Fetch(ctx, "https://assets.example.com/dance-spec.toml")
//
// Transient failures (network errors, 5xx and 429 responses) are retried
// per [DefaultBackoff]; a Retry-After header in seconds replaces the next
// delay. A 404 is reported immediately with code NOT_FOUND.
package httputil
