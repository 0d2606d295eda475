package api

import "context"

// Client is the backend contract consumed by the tracker and the pull
// adapter.
type Client interface {
	// RequestDownload asks the server to start fetching the resource. A
	// remote rejection returns the response together with an error matching
	// common.ErrRequestRejected, so callers still see the reported reason.
	RequestDownload(ctx context.Context, req DownloadRequest) (*DownloadResponse, error)

	// GetProgress queries the per-download status endpoint. The id may be
	// either the server-assigned or the client-generated identifier.
	GetProgress(ctx context.Context, id string) (*DownloadState, error)

	// ListDownloads returns the state of every download the server knows
	// about, keyed by id. Used as the poll fallback when GetProgress fails.
	ListDownloads(ctx context.Context) (map[string]DownloadState, error)
}
