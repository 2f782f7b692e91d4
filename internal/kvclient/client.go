// Package kvclient talks to the key-value server and adapts it to the
// repository's snapshot store.
package kvclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrKeyNotFound is returned by Load when nothing is stored under a key.
var ErrKeyNotFound = errors.New("key not found")

// DefaultTimeout bounds every request made by a client built without an
// explicit *http.Client.
const DefaultTimeout = 10 * time.Second

// Client registers once with the server and sends the issued token with
// every later request.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// New registers with the server at baseURL. A nil httpClient gets one with
// DefaultTimeout.
func New(ctx context.Context, baseURL string, httpClient *http.Client) (*Client, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}

	body, err := c.do(ctx, http.MethodGet, "/register", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register: %w", err)
	}
	c.token = strings.TrimSpace(string(body))
	if c.token == "" {
		return nil, errors.New("failed to register: empty token")
	}
	return c, nil
}

// Put stores value under key, replacing any previous value.
func (c *Client) Put(ctx context.Context, key string, value []byte) error {
	if _, err := c.do(ctx, http.MethodPost, "/save/"+url.PathEscape(key), value); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// Load returns the value stored under key.
func (c *Client) Load(ctx context.Context, key string) ([]byte, error) {
	body, err := c.do(ctx, http.MethodGet, "/load/"+url.PathEscape(key), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", key, err)
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrKeyNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return data, nil
}
