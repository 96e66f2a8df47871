// Package client sends hand-built Grafana payloads to the relay, for manual
// testing of a deployment.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/emirozbir/grafana-hook/internal/models"
)

type Options struct {
	URL         string
	Token       string
	TokenHeader string
	Status      string
	AlertName   string
	Receiver    string
	IPs         []string
	Timeout     time.Duration
}

type Payload struct {
	Receiver string  `json:"receiver"`
	Status   string  `json:"status"`
	Alerts   []Alert `json:"alerts"`
}

type Alert struct {
	Labels map[string]string `json:"labels"`
}

// Result is the relay's answer. Summary is nil when the body is not a
// summary, e.g. a 401 error message.
type Result struct {
	StatusCode int
	Body       []byte
	Summary    *models.Summary
}

func (r *Result) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// BuildPayload makes one alert per IP, all sharing the same alertname.
func BuildPayload(opts Options) Payload {
	alerts := make([]Alert, 0, len(opts.IPs))
	for _, ip := range opts.IPs {
		alerts = append(alerts, Alert{Labels: map[string]string{
			"alertname": opts.AlertName,
			"ip":        ip,
		}})
	}
	return Payload{
		Receiver: opts.Receiver,
		Status:   opts.Status,
		Alerts:   alerts,
	}
}

func Send(ctx context.Context, opts Options) (*Result, error) {
	body, err := json.Marshal(BuildPayload(opts))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, opts.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(opts.TokenHeader, opts.Token)

	httpClient := &http.Client{Timeout: opts.Timeout}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	result := &Result{StatusCode: resp.StatusCode, Body: respBody}

	var summary models.Summary
	if err := json.Unmarshal(respBody, &summary); err == nil && summary.Results != nil {
		result.Summary = &summary
	}
	return result, nil
}

// CurlCommand renders an equivalent shell command for the same request.
func CurlCommand(opts Options) (string, error) {
	body, err := json.Marshal(BuildPayload(opts))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("curl -X POST %s -H %s -H %s --data-raw %s",
		shellQuote(opts.URL),
		shellQuote("Content-Type: application/json"),
		shellQuote(fmt.Sprintf("%s: %s", opts.TokenHeader, opts.Token)),
		shellQuote(string(body)),
	), nil
}

// shellQuote single-quotes s unless it only has characters safe for sh.
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || strings.ContainsRune("@%+=:,./-_", r)) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}
