package dbclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxErrorBody bounds how much of a failed response is kept in the error.
const maxErrorBody = 512

// StatusError is a non-2xx response from a backend.
type StatusError struct {
	Backend string
	Code    int
	Body    string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s returned HTTP %d", e.Backend, e.Code)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

func get(ctx context.Context, hc *http.Client, backend, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return do(hc, backend, req)
}

func postJSON(ctx context.Context, hc *http.Client, backend, url string, body any) ([]byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return do(hc, backend, req)
}

func do(hc *http.Client, backend string, req *http.Request) ([]byte, error) {
	req.Header.Set("User-Agent", "buddy")
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", backend, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s read body: %w", backend, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text := strings.TrimSpace(string(body))
		if len(text) > maxErrorBody {
			text = text[:maxErrorBody]
		}
		return nil, &StatusError{Backend: backend, Code: resp.StatusCode, Body: text}
	}
	return body, nil
}
