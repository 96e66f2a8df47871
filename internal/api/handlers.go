package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/emirozbir/grafana-hook/internal/config"
	"github.com/emirozbir/grafana-hook/internal/metrics"
	"github.com/emirozbir/grafana-hook/internal/models"
	"github.com/emirozbir/grafana-hook/internal/processor"
)

type Handler struct {
	processor *processor.Processor
	config    *config.Config
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

func NewHandler(p *processor.Processor, cfg *config.Config, m *metrics.Metrics, logger *zap.Logger) *Handler {
	return &Handler{
		processor: p,
		config:    cfg,
		metrics:   m,
		logger:    logger,
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ReceiveIPBlacklistWebhook handles Grafana alert notifications whose alerts
// carry an "ip" label to be blocklisted.
func (h *Handler) ReceiveIPBlacklistWebhook(c *gin.Context) {
	logger := h.logger.With(zap.String("request_id", c.GetString(requestIDKey)))

	body, err := c.GetRawData()
	if err != nil {
		h.fail(c, logger, http.StatusBadRequest, "Invalid JSON payload: "+err.Error())
		return
	}

	payload, err := models.ParseAlertPayload(body)
	if err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			h.fail(c, logger, http.StatusBadRequest, verr.Message)
			return
		}
		h.fail(c, logger, http.StatusInternalServerError, err.Error())
		return
	}

	if ce := logger.Check(zap.DebugLevel, "received webhook payload"); ce != nil {
		raw, _ := json.Marshal(payload.Raw)
		ce.Write(zap.ByteString("payload", raw))
	}

	summary, err := h.processor.Process(c.Request.Context(), payload)
	if err != nil {
		if errors.Is(err, processor.ErrAlertsNotArray) {
			h.fail(c, logger, http.StatusBadRequest, err.Error())
			return
		}
		logger.Error("webhook processing failed", zap.Error(err))
		h.fail(c, logger, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("processed webhook",
		zap.Int("received_alerts", summary.ReceivedAlerts),
		zap.Int("attempted", summary.Attempted),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Int("rejected", summary.Rejected))

	// Every dispatch failing is reported as a delivery failure; partial
	// failures still answer 200.
	code := http.StatusOK
	if summary.TotalOutage() {
		code = http.StatusBadGateway
	}
	h.metrics.ObserveWebhook(code)
	c.JSON(code, summary)
}

func (h *Handler) fail(c *gin.Context, logger *zap.Logger, code int, message string) {
	logger.Warn("rejected webhook", zap.Int("code", code), zap.String("error", message))
	h.metrics.ObserveWebhook(code)
	c.JSON(code, gin.H{"error": message})
}

// countAborted records requests stopped by middleware, such as failed auth.
func (h *Handler) countAborted(c *gin.Context) {
	c.Next()
	if c.IsAborted() {
		h.metrics.ObserveWebhook(c.Writer.Status())
	}
}
