// Package transport contains the two adapters that deliver progress updates
// to the tracker.
//
// # Overview
//
//  1. PushAdapter attaches to an externally owned bidirectional event channel
//     shared with unrelated host traffic. Attachment is additive: the
//     channel's prior handler keeps running, and is invoked before the
//     adapter's own parsing. Attachment is retried on a fixed cadence with a
//     bounded attempt budget; once the budget is exhausted the adapter is
//     permanently unavailable and the tracker relies on polling alone.
//  2. Poller runs one timer per live session against the backend's status
//     endpoints, falling back from the per-download query to the bulk
//     listing, and enforces the hard per-session deadline that forces
//     TimedOut.
//
// Both adapters normalize whatever they receive into model.ProgressUpdate
// and funnel it into a single UpdateSink, the tracker's reconciliation
// entry point. Neither adapter mutates session state directly.
//
// # Error Handling
//
// Malformed channel payloads are dropped silently: the channel carries
// unrelated traffic, so a parse failure is not a protocol error. A poll tick
// where both endpoints fail leaves state unchanged; it only counts toward
// the throttled "still waiting" re-notification.
package transport
