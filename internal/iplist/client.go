package iplist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"unicode/utf8"

	"github.com/emirozbir/grafana-hook/internal/config"
)

// MaxBodyBytes caps how much of a downstream response body is kept.
const MaxBodyBytes = 500

type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL: cfg.IPList.Addr,
		apiKey:  cfg.IPList.APIKey,
		client: &http.Client{
			Timeout: cfg.IPList.RequestTimeout,
		},
	}
}

type IPFilterRequest struct {
	IPAddress      string `json:"ip_address"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	Reason         string `json:"reason"`
}

// Response is what the service answered, whatever the status code.
type Response struct {
	StatusCode int
	Body       string
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// CreateIPFilter posts one entry to {addr}/ip-filters/. A non-nil error means
// no HTTP response was received at all.
func (c *Client) CreateIPFilter(ctx context.Context, filter IPFilterRequest) (*Response, error) {
	url := fmt.Sprintf("%s/ip-filters/", c.baseURL)

	payload, err := json.Marshal(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ip filter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       truncateUTF8(body),
	}, nil
}

// truncateUTF8 drops a multi-byte rune cut in half by the byte limit.
func truncateUTF8(b []byte) string {
	if len(b) < MaxBodyBytes {
		return string(b)
	}
	start := len(b) - 1
	for start > 0 && start > len(b)-utf8.UTFMax && !utf8.RuneStart(b[start]) {
		start--
	}
	if !utf8.FullRune(b[start:]) {
		b = b[:start]
	}
	return string(b)
}
