// Package unsplash implements the rate-limited image search and download
// client used by the build pipeline.
//
// Search calls are metered against an hourly quota (50 requests for demo
// applications). The window starts on first use; once the quota is spent the
// next Search blocks until the window resets. Only successful searches are
// counted. Downloads hit the image CDN and do not consume quota.
//
// Both operations share one retry policy. A 401 or missing key fails at once
// with ErrCredentials. A 429 or 403 is a rate limit and is retried with linear
// backoff for at most two attempts before failing fast with ErrRateLimited.
// Any other failure is retried with a short fixed delay up to MaxRetries total
// attempts. Context cancellation surfaces as ErrInterrupted and is never
// retried.
package unsplash
