// Package tasks runs background work against the API with real-time progress reporting.
//
// # Status Polling
//
// [StatusPoller] decouples how often status is checked from how often it is
// transmitted. Every [PollerOpts.Interval] it asks the cache whether the
// pathway's status is still valid and only calls the API when it is not,
// storing the fresh result for [PollerOpts.TTL].
//
//   - [StatusPoller.Tick] : one check
//   - [StatusPoller.Run] : check on a ticker until the context ends
//   - [StatusPoller.Sweep] : check many pathways with a bounded worker pool and a rate limiter
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
// Updates use select with default so a slow consumer never stalls polling.
package tasks
