package api

import "github.com/dmitrijs2005/modelfetch/internal/model"

// EventTypeProgress is the type tag that marks a channel message as a
// download progress event. Messages with any other tag belong to the host
// application and are ignored.
const EventTypeProgress = "model_download_progress"

// DownloadRequest is the body of the transfer request.
type DownloadRequest struct {
	URL      string `json:"url"`
	Folder   string `json:"folder"`
	Filename string `json:"filename,omitempty"`
	ClientID string `json:"client_id"`
}

// DownloadResponse is the server's answer to a transfer request. On
// acceptance ID carries the server-assigned identifier and Filename the
// resolved name the server will store the file under.
type DownloadResponse struct {
	Success  bool   `json:"success"`
	ID       string `json:"id,omitempty"`
	Filename string `json:"filename,omitempty"`
	Error    string `json:"error,omitempty"`
}

// DownloadState is the per-download shape shared by the progress endpoint,
// the bulk listing, and (flattened) the push event.
type DownloadState struct {
	Filename   string `json:"filename"`
	Folder     string `json:"folder"`
	TotalSize  int64  `json:"total_size"`
	Downloaded int64  `json:"downloaded"`
	Percent    int    `json:"percent"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
}

// ProgressResponse wraps DownloadState for the per-download query.
type ProgressResponse struct {
	Success  bool           `json:"success"`
	Download *DownloadState `json:"download,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// ListResponse is the bulk listing used as the poll fallback.
type ListResponse struct {
	Success   bool                     `json:"success"`
	Downloads map[string]DownloadState `json:"downloads,omitempty"`
	Error     string                   `json:"error,omitempty"`
}

// ProgressEvent is the push message the server emits on the shared event
// channel any time after acceptance.
type ProgressEvent struct {
	Type       string `json:"type"`
	DownloadID string `json:"download_id"`
	Filename   string `json:"filename"`
	Folder     string `json:"folder"`
	TotalSize  int64  `json:"total_size"`
	Downloaded int64  `json:"downloaded"`
	Percent    int    `json:"percent"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
}

// ToUpdate normalizes a pulled state into the tracker's update shape.
// A zero TotalSize means the remote has not confirmed the size yet.
func (d *DownloadState) ToUpdate(sessionID string) model.ProgressUpdate {
	status, _ := model.StatusFromWire(d.Status)
	return model.ProgressUpdate{
		SessionID:      sessionID,
		Status:         status,
		Downloaded:     d.Downloaded,
		TotalSize:      d.TotalSize,
		TotalSizeKnown: d.TotalSize > 0,
		Percent:        d.Percent,
		ResolvedName:   d.Filename,
		Error:          d.Error,
	}
}

// ToUpdate normalizes a push event into the tracker's update shape.
func (e *ProgressEvent) ToUpdate() model.ProgressUpdate {
	status, _ := model.StatusFromWire(e.Status)
	return model.ProgressUpdate{
		SessionID:      e.DownloadID,
		Status:         status,
		Downloaded:     e.Downloaded,
		TotalSize:      e.TotalSize,
		TotalSizeKnown: e.TotalSize > 0,
		Percent:        e.Percent,
		ResolvedName:   e.Filename,
		Error:          e.Error,
	}
}
