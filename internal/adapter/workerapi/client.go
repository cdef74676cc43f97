package workerapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrUnavailable covers every way a worker call can fail: connection error,
// non-2xx status or an undecodable body. Callers treat it as "the operation
// did not happen".
var ErrUnavailable = errors.New("worker api unavailable")

// errAbsent is a 404, which some reads map to "no such record".
var errAbsent = errors.New("worker api: not found")

const DefaultTimeout = 10 * time.Second

// Client talks to the worker service that persists reminders and EVE SSO
// records. Reminders and Auth expose the two halves.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func New(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling %s %s: %w", method, path, err)
		}
		rdr = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("%w: building %s %s: %v", ErrUnavailable, method, path, err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		return errAbsent
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("%w: %s %s: status %d: %s", ErrUnavailable, method, path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding %s %s: %v", ErrUnavailable, method, path, err)
	}
	return nil
}

// unavailable folds errAbsent into ErrUnavailable for calls where a 404 has
// no meaning of its own.
func unavailable(method, path string, err error) error {
	if errors.Is(err, errAbsent) {
		return fmt.Errorf("%w: %s %s: status 404", ErrUnavailable, method, path)
	}
	return err
}
