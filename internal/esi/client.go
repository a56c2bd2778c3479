package esi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultBaseURL is the live ESI endpoint. Tests point BaseURL at an
// httptest server instead.
const DefaultBaseURL = "https://esi.evetech.net/latest"

const userAgent = "evetrade/1.0 (+https://github.com/evetrade)"

// ErrNotFound is returned for 404 responses, e.g. an unknown route or type.
var ErrNotFound = errors.New("esi: not found")

// Client is a rate-limited, retrying ESI HTTP client. ESI tolerates bursts
// but bans error-heavy clients, so requests go through a semaphore and
// transient failures are retried with a fixed wait.
type Client struct {
	BaseURL string

	http        *http.Client
	sem         chan struct{}
	maxAttempts int
	retryWait   time.Duration
	orderCache  *orderCache
}

// NewClient creates a Client with default rate limiting (20 concurrent
// requests, 5 attempts, 2s between attempts).
func NewClient() *Client {
	return &Client{
		BaseURL:     DefaultBaseURL,
		http:        &http.Client{Timeout: 30 * time.Second},
		sem:         make(chan struct{}, 20),
		maxAttempts: 5,
		retryWait:   2 * time.Second,
		orderCache:  newOrderCache(),
	}
}

// GetJSON fetches a URL and decodes the JSON body into dst, retrying
// transient failures. 4xx responses are not retried; 404 maps to
// ErrNotFound so callers can distinguish "no such route" from outages.
func (c *Client) GetJSON(url string, dst interface{}) error {
	_, err := c.getJSON(url, "", dst)
	return err
}

// getJSON is GetJSON plus response headers (needed by the order cache for
// ETag/Expires) and an optional If-None-Match value. A 304 response returns
// errNotModified with dst untouched.
func (c *Client) getJSON(url, etag string, dst interface{}) (http.Header, error) {
	c.sem <- struct{}{}
	defer func() { <-c.sem }()

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			time.Sleep(c.retryWait)
		}

		req, err := http.NewRequest("GET", url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", "application/json")
		if etag != "" {
			req.Header.Set("If-None-Match", etag)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		switch {
		case resp.StatusCode == http.StatusNotModified:
			resp.Body.Close()
			return resp.Header, errNotModified
		case resp.StatusCode == http.StatusNotFound:
			resp.Body.Close()
			return nil, fmt.Errorf("%w: %s", ErrNotFound, url)
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return nil, fmt.Errorf("esi %d: %s", resp.StatusCode, string(body))
		case resp.StatusCode != http.StatusOK:
			resp.Body.Close()
			lastErr = fmt.Errorf("esi %d: %s", resp.StatusCode, url)
			continue
		}

		header := resp.Header
		err = json.NewDecoder(resp.Body).Decode(dst)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", url, err)
		}
		return header, nil
	}
	return nil, fmt.Errorf("esi: giving up after %d attempts: %w", c.maxAttempts, lastErr)
}

// errNotModified is internal to the client/order-cache handshake.
var errNotModified = errors.New("esi: not modified")

// parseExpires reads the Expires header, falling back to a 5 minute TTL
// (the usual ESI market refresh window).
func parseExpires(h http.Header) time.Time {
	if exp := h.Get("Expires"); exp != "" {
		if t, err := time.Parse(time.RFC1123, exp); err == nil {
			return t
		}
	}
	return time.Now().Add(5 * time.Minute)
}
