package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/emirozbir/grafana-hook/internal/config"
	"github.com/emirozbir/grafana-hook/internal/iplist"
	"github.com/emirozbir/grafana-hook/internal/metrics"
	"github.com/emirozbir/grafana-hook/internal/models"
	"github.com/emirozbir/grafana-hook/internal/processor"
)

const (
	webhookPath = "/webhooks/grafana/ip-blacklist"
	testSecret  = "hook-secret"
)

type testEnv struct {
	router *gin.Engine
	calls  *atomic.Int32
}

// setupTestRouter wires the full stack against a fake blocklist service
// answering with the given handler.
func setupTestRouter(t *testing.T, downstream http.HandlerFunc) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	calls := &atomic.Int32{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		downstream(w, r)
	}))
	t.Cleanup(server.Close)

	cfg := &config.Config{
		Webhook: config.WebhookConfig{
			SharedSecret: testSecret,
			TokenHeader:  config.DefaultTokenHeader,
		},
		IPList: config.IPListConfig{
			Addr:           server.URL,
			APIKey:         "api-key",
			TimeoutSeconds: 86400,
			ReasonPrefix:   "grafana",
			RequestTimeout: 2 * time.Second,
			Concurrency:    4,
		},
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	logger := zap.NewNop()
	p := processor.NewProcessor(cfg, iplist.NewClient(cfg), m, logger)

	return &testEnv{
		router: SetupRoutes(NewHandler(p, cfg, m, logger), reg),
		calls:  calls,
	}
}

func created(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusCreated)
}

func (e *testEnv) post(body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, webhookPath, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) postAuthed(body string) *httptest.ResponseRecorder {
	return e.post(body, map[string]string{config.DefaultTokenHeader: testSecret})
}

func decodeSummary(t *testing.T, w *httptest.ResponseRecorder) models.Summary {
	t.Helper()
	var summary models.Summary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	return summary
}

func TestHealth(t *testing.T) {
	env := setupTestRouter(t, created)

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestWebhookRequiresToken(t *testing.T) {
	body := `{"status":"firing","alerts":[{"labels":{"ip":"1.2.3.4"}}]}`

	tests := []struct {
		name    string
		headers map[string]string
		message string
	}{
		{"missing", nil, "Missing webhook token"},
		{"wrong", map[string]string{config.DefaultTokenHeader: "nope"}, "Invalid webhook token"},
		{"prefix of secret", map[string]string{config.DefaultTokenHeader: testSecret[:4]}, "Invalid webhook token"},
		{"other header", map[string]string{"Authorization": "Bearer " + testSecret}, "Missing webhook token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestRouter(t, created)

			w := env.post(body, tt.headers)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), tt.message)
			assert.Zero(t, env.calls.Load())
		})
	}
}

func TestWebhookTokenCheckedBeforeBody(t *testing.T) {
	env := setupTestRouter(t, created)

	w := env.post(`{not json`, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhookRejectsBadEnvelope(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"malformed json", `{"status":"firing",`, "Invalid JSON payload"},
		{"not an object", `[1,2,3]`, "Payload must be a JSON object"},
		{"missing status", `{"alerts":[]}`, "Payload missing 'status'"},
		{"missing alerts", `{"status":"firing"}`, "Payload missing 'alerts'"},
		{"alerts not array", `{"status":"firing","alerts":{"labels":{"ip":"1.2.3.4"}}}`, "'alerts' must be an array"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestRouter(t, created)

			w := env.postAuthed(tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tt.message)
			assert.Zero(t, env.calls.Load())
		})
	}
}

func TestWebhookFiring(t *testing.T) {
	env := setupTestRouter(t, func(w http.ResponseWriter, r *http.Request) {
		var body iplist.IPFilterRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "1.2.3.4", body.IPAddress)
		assert.Equal(t, "grafana:X", body.Reason)
		assert.Equal(t, 86400, body.TimeoutSeconds)
		w.WriteHeader(http.StatusCreated)
	})

	w := env.postAuthed(`{"status":"firing","alerts":[{"labels":{"alertname":"X","ip":"1.2.3.4"}},{"labels":{"ip":"not-an-ip"}}]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	summary := decodeSummary(t, w)
	assert.Equal(t, 2, summary.ReceivedAlerts)
	assert.Equal(t, 1, summary.ValidIPs)
	assert.Equal(t, 1, summary.Attempted)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Rejected)
	require.Len(t, summary.Results, 2)
	assert.Equal(t, 1, *summary.Results[0].Index)
	assert.Equal(t, "invalid IP address", summary.Results[0].Error)
	assert.Equal(t, "1.2.3.4", summary.Results[1].IP)
	assert.Equal(t, http.StatusCreated, summary.Results[1].DownstreamStatus)
	assert.EqualValues(t, 1, env.calls.Load())
}

func TestWebhookResolved(t *testing.T) {
	env := setupTestRouter(t, created)

	w := env.postAuthed(`{"status":"resolved","alerts":[{"labels":{"ip":"1.2.3.4"}}]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"message":"ignored_status",
		"status":"resolved",
		"received_alerts":1,
		"valid_ips":0,
		"attempted":0,
		"succeeded":0,
		"failed":0,
		"rejected":0,
		"results":[]
	}`, w.Body.String())
	assert.Zero(t, env.calls.Load())
}

func TestWebhookTotalOutage(t *testing.T) {
	env := setupTestRouter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(strings.Repeat("down ", 200)))
	})

	w := env.postAuthed(`{"status":"firing","alerts":[{"labels":{"ip":"1.1.1.1"}},{"labels":{"ip":"2.2.2.2"}}]}`)
	require.Equal(t, http.StatusBadGateway, w.Code)

	summary := decodeSummary(t, w)
	assert.Equal(t, 2, summary.Attempted)
	assert.Equal(t, 0, summary.Succeeded)
	assert.Equal(t, 2, summary.Failed)
	for _, r := range summary.Results {
		assert.Equal(t, http.StatusServiceUnavailable, r.DownstreamStatus)
		assert.Len(t, r.DownstreamBody, iplist.MaxBodyBytes)
	}
}

func TestWebhookPartialFailure(t *testing.T) {
	env := setupTestRouter(t, func(w http.ResponseWriter, r *http.Request) {
		var body iplist.IPFilterRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.IPAddress == "2.2.2.2" {
			w.WriteHeader(http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	w := env.postAuthed(`{"status":"firing","alerts":[{"labels":{"ip":"1.1.1.1"}},{"labels":{"ip":"2.2.2.2"}}]}`)
	require.Equal(t, http.StatusOK, w.Code)

	summary := decodeSummary(t, w)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, "1.1.1.1", summary.Results[0].IP)
	assert.Equal(t, "2.2.2.2", summary.Results[1].IP)
	assert.Equal(t, http.StatusConflict, summary.Results[1].DownstreamStatus)
}

func TestWebhookOnlyRejections(t *testing.T) {
	env := setupTestRouter(t, created)

	w := env.postAuthed(`{"status":"firing","alerts":[{"labels":{"ip":"bad"}}]}`)
	require.Equal(t, http.StatusOK, w.Code)

	summary := decodeSummary(t, w)
	assert.Equal(t, 0, summary.Attempted)
	assert.Equal(t, 1, summary.Rejected)
	assert.Zero(t, env.calls.Load())
}

func TestWebhookKeepsCallerRequestID(t *testing.T) {
	env := setupTestRouter(t, created)

	w := env.post(`{"status":"resolved","alerts":[]}`, map[string]string{
		config.DefaultTokenHeader: testSecret,
		requestIDHeader:           "req-42",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-42", w.Header().Get(requestIDHeader))
}

func TestMetricsEndpoint(t *testing.T) {
	env := setupTestRouter(t, created)

	env.postAuthed(`{"status":"firing","alerts":[{"labels":{"ip":"1.1.1.1"}},{"labels":{"ip":"x"}}]}`)
	env.post(`{}`, nil)

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, `grafana_hook_webhooks_total{code="200"} 1`)
	assert.Contains(t, body, `grafana_hook_webhooks_total{code="401"} 1`)
	assert.Contains(t, body, `grafana_hook_dispatches_total{status="success"} 1`)
	assert.Contains(t, body, `grafana_hook_rejected_alerts_total 1`)
}
