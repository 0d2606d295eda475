// Package api contains the wire contract between the tracker and the
// backend download service.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic contract (see the Client interface) for the three
//     backend operations: RequestDownload, GetProgress, and ListDownloads.
//  2. A concrete HTTP implementation (see HTTPClient) that speaks the JSON
//     endpoints of the backend and maps transport failures and remote
//     rejections to sentinel errors.
//  3. The DTOs for both pull responses and push progress events, plus
//     normalization of either shape into a model.ProgressUpdate.
//
// # Error Handling
//
// Conditions are exposed as sentinel errors that callers can match with
// errors.Is: common.ErrUnavailable for transport-level failures and
// common.ErrRequestRejected when the remote declines to start a transfer.
//
// Concurrency & Contexts
//
// HTTPClient is safe for concurrent use. All operations accept a
// context.Context and honor cancellation/timeouts.
package api
