package processor

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/emirozbir/grafana-hook/internal/config"
	"github.com/emirozbir/grafana-hook/internal/iplist"
	"github.com/emirozbir/grafana-hook/internal/metrics"
	"github.com/emirozbir/grafana-hook/internal/models"
)

// Blocker is the part of the blocklist service the processor talks to.
type Blocker interface {
	CreateIPFilter(ctx context.Context, filter iplist.IPFilterRequest) (*iplist.Response, error)
}

type Processor struct {
	blocker Blocker
	config  *config.Config
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewProcessor(cfg *config.Config, blocker Blocker, m *metrics.Metrics, logger *zap.Logger) *Processor {
	return &Processor{
		blocker: blocker,
		config:  cfg,
		metrics: m,
		logger:  logger,
	}
}

// Process turns a firing payload into one blocklist call per unique IP and
// summarises the outcome. Payloads in any other status are acknowledged
// without side effects.
func (p *Processor) Process(ctx context.Context, payload *models.AlertPayload) (*models.Summary, error) {
	if !payload.IsFiring() {
		p.logger.Info("ignoring non-firing payload", zap.Any("status", payload.Status))
		return &models.Summary{
			Message:        models.MessageIgnoredStatus,
			Status:         payload.RawStatus(),
			ReceivedAlerts: payload.AlertCount(),
			Results:        []models.Result{},
		}, nil
	}

	ips, rejected, err := ExtractIPs(payload)
	if err != nil {
		return nil, err
	}
	if len(rejected) > 0 {
		p.metrics.ObserveRejections(len(rejected))
	}

	dispatched := p.dispatchAll(ctx, ips)

	summary := &models.Summary{
		ReceivedAlerts: payload.AlertCount(),
		ValidIPs:       ips.Len(),
		Attempted:      len(dispatched),
		Rejected:       len(rejected),
		Results:        make([]models.Result, 0, len(rejected)+len(dispatched)),
	}
	summary.Results = append(summary.Results, rejected...)
	for _, result := range dispatched {
		if result.Status == models.ResultSuccess {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
		summary.Results = append(summary.Results, result)
	}

	return summary, nil
}

// dispatchAll fans out with bounded concurrency. Each goroutine owns one
// slot of the result slice, so the output keeps first-seen IP order.
func (p *Processor) dispatchAll(ctx context.Context, ips *IPSet) []models.Result {
	results := make([]models.Result, ips.Len())

	var g errgroup.Group
	g.SetLimit(p.config.IPList.Concurrency)

	for i, ip := range ips.IPs() {
		i, ip := i, ip
		alertName := ips.AlertName(ip)
		g.Go(func() error {
			results[i] = p.dispatch(ctx, ip, alertName)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (p *Processor) dispatch(ctx context.Context, ip, alertName string) models.Result {
	ctx, cancel := context.WithTimeout(ctx, p.config.IPList.RequestTimeout)
	defer cancel()

	filter := iplist.IPFilterRequest{
		IPAddress:      ip,
		TimeoutSeconds: p.config.IPList.TimeoutSeconds,
		Reason:         fmt.Sprintf("%s:%s", p.config.IPList.ReasonPrefix, alertName),
	}

	start := time.Now()
	resp, err := p.blocker.CreateIPFilter(ctx, filter)

	var result models.Result
	switch {
	case err != nil:
		p.logger.Warn("ip filter request failed",
			zap.String("ip", ip),
			zap.Error(err))
		result = models.Result{IP: ip, Status: models.ResultFailed, Error: err.Error()}
	case resp.OK():
		p.logger.Debug("ip filter created",
			zap.String("ip", ip),
			zap.String("reason", filter.Reason),
			zap.Int("downstream_status", resp.StatusCode))
		result = models.Result{IP: ip, Status: models.ResultSuccess, DownstreamStatus: resp.StatusCode}
	default:
		p.logger.Warn("ip filter rejected by downstream",
			zap.String("ip", ip),
			zap.Int("downstream_status", resp.StatusCode))
		result = models.Result{
			IP:               ip,
			Status:           models.ResultFailed,
			DownstreamStatus: resp.StatusCode,
			DownstreamBody:   resp.Body,
		}
	}

	p.metrics.ObserveDispatch(result.Status, time.Since(start))
	return result
}
