// Package snapshot is the collaborator client for the external frame
// source (§6 "Snapshot source"): fetches the latest JPEG for a camera
// and lists known camera ids. Grounded on the corpus's REST-client idiom
// (construct request, do, read body, check status).
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client fetches frames and stream listings from the snapshot source.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Client against baseURL with the given request timeout.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{baseURL: baseURL, httpClient: &http.Client{Timeout: timeout}}
}

// FetchFrame retrieves the latest JPEG for cameraID via
// GET {base}/api/frame.jpeg?src={camera_id}.
func (c *Client) FetchFrame(cameraID string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.httpClient.Timeout)
	defer cancel()

	reqURL := fmt.Sprintf("%s/api/frame.jpeg?src=%s", c.baseURL, url.QueryEscape(cameraID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("snapshot: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("snapshot: fetch frame for %s: %w", cameraID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read frame body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("snapshot: frame fetch for %s returned %d", cameraID, resp.StatusCode)
	}
	return body, nil
}

// StreamInfo describes one camera as reported by the snapshot source's
// stream listing.
type StreamInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ListStreams retrieves the known camera ids via GET {base}/api/streams,
// which returns a JSON object keyed by camera id (value is an
// implementation-defined descriptor, e.g. a display name or source URL).
func (c *Client) ListStreams() ([]StreamInfo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.httpClient.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/streams", nil)
	if err != nil {
		return nil, fmt.Errorf("snapshot: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("snapshot: list streams: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read streams body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("snapshot: list streams returned %d", resp.StatusCode)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("snapshot: unmarshal streams: %w", err)
	}

	streams := make([]StreamInfo, 0, len(raw))
	for id, v := range raw {
		info := StreamInfo{ID: id}
		var name string
		if json.Unmarshal(v, &name) == nil {
			info.Name = name
		} else {
			var obj struct {
				Name string `json:"name"`
			}
			if json.Unmarshal(v, &obj) == nil {
				info.Name = obj.Name
			}
		}
		streams = append(streams, info)
	}
	return streams, nil
}
