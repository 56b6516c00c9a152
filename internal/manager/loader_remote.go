package manager

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"torchserved/internal/catalog"
)

const maxRemoteResponse = 64 << 20

// ErrResponseTooLarge is returned when a remote model answers with more than
// the configured number of bytes.
var ErrResponseTooLarge = errors.New("remote: response too large")

// RemoteLoader binds model names to HTTP inference endpoints. Loading probes
// the endpoint; the handle POSTs input bytes and returns the response body.
type RemoteLoader struct {
	Client *http.Client
	// MaxResponse bounds a prediction body; 0 means 64 MiB.
	MaxResponse int64
}

// NewRemoteLoader returns a loader using client, or a client with timeout when nil.
func NewRemoteLoader(client *http.Client, timeout time.Duration) *RemoteLoader {
	if client == nil {
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &RemoteLoader{Client: client}
}

func (l *RemoteLoader) Load(ctx context.Context, a catalog.Artifact) (Handle, error) {
	if a.Endpoint == "" {
		return nil, fmt.Errorf("remote: %q has no endpoint", a.Name)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.Endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("remote: create probe: %w", err)
	}
	resp, err := l.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote: probe %s: %w", a.Endpoint, err)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
	// Any answer below 500 means something is listening; prediction
	// endpoints commonly reject GET with 405.
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("remote: probe %s: unexpected status %d", a.Endpoint, resp.StatusCode)
	}
	limit := l.MaxResponse
	if limit <= 0 {
		limit = maxRemoteResponse
	}
	return &remoteHandle{client: l.Client, endpoint: a.Endpoint, limit: limit}, nil
}

type remoteHandle struct {
	client   *http.Client
	endpoint string
	limit    int64
}

func (h *remoteHandle) Predict(ctx context.Context, input []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(input))
	if err != nil {
		return nil, fmt.Errorf("remote: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote: request: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, h.limit+1))
	if err != nil {
		return nil, fmt.Errorf("remote: read response: %w", err)
	}
	if int64(len(body)) > h.limit {
		return nil, fmt.Errorf("%w: more than %d bytes from %s", ErrResponseTooLarge, h.limit, h.endpoint)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("remote: unexpected status %d: %s", resp.StatusCode, snippet(body))
	}
	return body, nil
}

// Close releases idle connections; the remote model itself is not owned.
func (h *remoteHandle) Close() error {
	h.client.CloseIdleConnections()
	return nil
}

func snippet(b []byte) string {
	const n = 200
	b = bytes.TrimSpace(b)
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
