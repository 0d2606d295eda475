package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/modelfetch/internal/common"
)

const (
	pathDownloadModel    = "/api/download-model"
	pathDownloadProgress = "/api/download-progress/"
	pathDownloads        = "/api/downloads"
)

// HTTPClient implements Client against the backend's JSON endpoints.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient builds a client for the given base URL. timeout bounds each
// individual call; pass 0 to rely on caller contexts alone.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) RequestDownload(ctx context.Context, req DownloadRequest) (*DownloadResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+pathDownloadModel, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var resp DownloadResponse
	if err := c.do(httpReq, &resp); err != nil {
		return nil, err
	}

	if !resp.Success {
		reason := resp.Error
		if reason == "" {
			reason = "no reason reported"
		}
		return &resp, fmt.Errorf("%w: %s", common.ErrRequestRejected, reason)
	}
	return &resp, nil
}

func (c *HTTPClient) GetProgress(ctx context.Context, id string) (*DownloadState, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+pathDownloadProgress+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}

	var resp ProgressResponse
	if err := c.do(httpReq, &resp); err != nil {
		return nil, err
	}
	if !resp.Success || resp.Download == nil {
		return nil, fmt.Errorf("%w: progress query for %s", common.ErrUnavailable, id)
	}
	return resp.Download, nil
}

func (c *HTTPClient) ListDownloads(ctx context.Context) (map[string]DownloadState, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+pathDownloads, nil)
	if err != nil {
		return nil, err
	}

	var resp ListResponse
	if err := c.do(httpReq, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("%w: downloads listing", common.ErrUnavailable)
	}
	return resp.Downloads, nil
}

// do executes the request and decodes the JSON body into out. Network
// failures, non-2xx statuses, and undecodable bodies all map to
// common.ErrUnavailable: they are transport conditions the poller retries,
// never session failures.
func (c *HTTPClient) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s %s: %s", common.ErrUnavailable, req.Method, req.URL.Path, strings.TrimSpace(string(b)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding %s response: %v", common.ErrUnavailable, req.URL.Path, err)
	}
	return nil
}
