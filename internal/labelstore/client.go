package labelstore

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
)

// Client reads and writes label entries in a key-value HTTP service, one key
// per label under a common prefix.
type Client struct {
	baseURL    string
	apiKey     string
	prefix     string
	httpClient *http.Client
	backoff    func(attempt int) time.Duration
}

func NewClient(baseURL, apiKey, prefix string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		prefix:  strings.Trim(prefix, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		backoff: Backoff,
	}
}

// nodeRequest is the body for PUT /kv/{key}.
type nodeRequest struct {
	Value  entryValue `json:"value"`
	Source string     `json:"source,omitempty"`
}

// nodeResponse is the response from GET /kv/{key}.
type nodeResponse struct {
	Key   string          `json:"key_path"`
	Value json.RawMessage `json:"value"`
}

type entryValue struct {
	Contents string `json:"contents"`
	URL      string `json:"url,omitempty"`
}

func (c *Client) key(label string) string {
	if c.prefix == "" {
		return url.PathEscape(label)
	}
	return c.prefix + "/" + url.PathEscape(label)
}

func (c *Client) newRequest(ctx context.Context, method, u string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return req, nil
}

// Lookup implements Store. Transient failures are retried with backoff.
func (c *Client) Lookup(ctx context.Context, label string) (*Entry, error) {
	for attempt := 0; ; attempt++ {
		entry, err := c.Get(ctx, label)
		if err == nil || !IsRetryable(err) || attempt >= MaxRetries {
			return entry, err
		}
		select {
		case <-time.After(c.backoff(attempt)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Get retrieves the entry for label, or nil when there is none.
func (c *Client) Get(ctx context.Context, label string) (*Entry, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.baseURL+"/kv/"+c.key(label), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if err := statusError(resp, "get entry "+label); err != nil {
		return nil, err
	}

	var node nodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&node); err != nil {
		return nil, fmt.Errorf("decode entry: %w", err)
	}
	entry, err := decodeValue(node.Value)
	if err != nil {
		return nil, fmt.Errorf("decode entry %s: %w", label, err)
	}
	entry.Label = label
	return entry, nil
}

// decodeValue accepts either a bare string of contents or an object with
// contents and url.
func decodeValue(raw json.RawMessage) (*Entry, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return &Entry{Contents: s}, nil
	}
	var v entryValue
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return &Entry{Contents: v.Contents, URL: v.URL}, nil
}

// Put stores or replaces the entry for e.Label.
func (c *Client) Put(ctx context.Context, e Entry) error {
	body, err := json.Marshal(nodeRequest{
		Value:  entryValue{Contents: e.Contents, URL: e.URL},
		Source: "regdown",
	})
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPut, c.baseURL+"/kv/"+c.key(e.Label), bytes.NewReader(body))
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("put entry: %w", err)
	}
	defer resp.Body.Close()
	return statusError(resp, "put entry "+e.Label)
}

// Delete removes the entry for label.
func (c *Client) Delete(ctx context.Context, label string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, c.baseURL+"/kv/"+c.key(label), nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	defer resp.Body.Close()
	return statusError(resp, "delete entry "+label)
}

// List does a prefix scan over every entry under the client's prefix.
func (c *Client) List(ctx context.Context, limit int) ([]Entry, error) {
	u := c.baseURL + "/kv/*"
	if c.prefix != "" {
		u = c.baseURL + "/kv/" + c.prefix + "/*"
	}
	if limit > 0 {
		u += "?limit=" + url.QueryEscape(fmt.Sprintf("%d", limit))
	}
	req, err := c.newRequest(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer resp.Body.Close()
	if err := statusError(resp, "list entries"); err != nil {
		return nil, err
	}

	var result struct {
		Nodes []nodeResponse `json:"nodes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode entries: %w", err)
	}
	entries := make([]Entry, 0, len(result.Nodes))
	for _, n := range result.Nodes {
		e, err := decodeValue(n.Value)
		if err != nil {
			return nil, fmt.Errorf("decode entry %s: %w", n.Key, err)
		}
		e.Label = c.labelFromKey(n.Key)
		entries = append(entries, *e)
	}
	return entries, nil
}

func (c *Client) labelFromKey(key string) string {
	key = strings.TrimPrefix(key, c.prefix+"/")
	if label, err := url.PathUnescape(key); err == nil {
		return label
	}
	return key
}

// statusError maps non-2xx responses to errors; 429 and 5xx are retryable.
func statusError(resp *http.Response, op string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return fmt.Errorf("%s: %w", op, &RetryableError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		})
	}
	return fmt.Errorf("%s: status %d: %s", op, resp.StatusCode, string(respBody))
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
