package formatter

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/emirozbir/grafana-hook/internal/models"
)

const (
	divider      = "═══════════════════════════════════════════════════════════════"
	sectionBreak = "───────────────────────────────────────────────────────────────"
)

type Formatter struct {
	useColors bool
}

func NewFormatter(useColors bool) *Formatter {
	return &Formatter{
		useColors: useColors,
	}
}

// FormatSummary renders a webhook response for a terminal.
func (f *Formatter) FormatSummary(statusCode int, summary *models.Summary) string {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString(f.colorize(Cyan, divider))
	sb.WriteString("\n")
	sb.WriteString(f.bold(Cyan, "  IP BLACKLIST WEBHOOK RESULT"))
	sb.WriteString("  ")
	sb.WriteString(f.statusBadge(statusCode))
	sb.WriteString("\n")
	sb.WriteString(f.colorize(Cyan, divider))
	sb.WriteString("\n\n")

	if summary.Message != "" {
		sb.WriteString(fmt.Sprintf("  %s (status: %v)\n\n", f.colorize(Yellow, summary.Message), string(summary.Status)))
	}

	f.writeCounts(&sb, summary)

	if len(summary.Results) > 0 {
		f.writeResults(&sb, summary.Results)
	}

	sb.WriteString(f.colorize(Cyan, divider))
	sb.WriteString("\n")

	return sb.String()
}

func (f *Formatter) writeCounts(sb *strings.Builder, s *models.Summary) {
	sb.WriteString(f.bold(Blue, "  COUNTS"))
	sb.WriteString("\n")
	sb.WriteString(f.colorize(Gray, sectionBreak))
	sb.WriteString("\n")

	rows := []struct {
		label string
		value int
		color string
	}{
		{"Received alerts", s.ReceivedAlerts, Cyan},
		{"Valid IPs", s.ValidIPs, Cyan},
		{"Attempted", s.Attempted, Cyan},
		{"Succeeded", s.Succeeded, Green},
		{"Failed", s.Failed, Red},
		{"Rejected", s.Rejected, Yellow},
	}
	for _, row := range rows {
		sb.WriteString(fmt.Sprintf("  %-16s %s\n", row.label+":", f.colorize(row.color, fmt.Sprintf("%d", row.value))))
	}
	sb.WriteString("\n")
}

func (f *Formatter) writeResults(sb *strings.Builder, results []models.Result) {
	sb.WriteString(f.bold(Blue, "  RESULTS"))
	sb.WriteString("\n")
	sb.WriteString(f.colorize(Gray, sectionBreak))
	sb.WriteString("\n")

	for _, r := range results {
		var subject string
		switch {
		case r.Index != nil && r.IP != "":
			subject = fmt.Sprintf("alert #%d (%s)", *r.Index, r.IP)
		case r.Index != nil:
			subject = fmt.Sprintf("alert #%d", *r.Index)
		default:
			subject = r.IP
		}

		sb.WriteString(fmt.Sprintf("  %s %s\n", f.resultBadge(r.Status), f.bold(White, subject)))

		if r.DownstreamStatus != 0 {
			sb.WriteString(fmt.Sprintf("      %s\n", f.colorize(Gray, fmt.Sprintf("downstream: HTTP %d", r.DownstreamStatus))))
		}
		if r.DownstreamBody != "" {
			sb.WriteString(fmt.Sprintf("      %s\n", f.colorize(Gray, strings.TrimSpace(r.DownstreamBody))))
		}
		if r.Error != "" {
			sb.WriteString(fmt.Sprintf("      %s\n", f.colorize(Red, r.Error)))
		}
	}
	sb.WriteString("\n")
}

func (f *Formatter) resultBadge(status string) string {
	switch status {
	case models.ResultSuccess:
		return f.bold(Green, "✔ SUCCESS ")
	case models.ResultFailed:
		return f.bold(Red, "✘ FAILED  ")
	case models.ResultRejected:
		return f.bold(Yellow, "⚠ REJECTED")
	default:
		return f.bold(Gray, "• "+strings.ToUpper(status))
	}
}

func (f *Formatter) statusBadge(code int) string {
	text := fmt.Sprintf("HTTP %d %s", code, http.StatusText(code))
	switch {
	case code >= 200 && code < 300:
		return f.bold(Green, text)
	case code == http.StatusBadGateway:
		return f.bold(Red, text)
	default:
		return f.bold(Yellow, text)
	}
}

func (f *Formatter) colorize(color, text string) string {
	if !f.useColors {
		return text
	}
	return Colorize(color, text)
}

func (f *Formatter) bold(color, text string) string {
	if !f.useColors {
		return text
	}
	return BoldColorize(color, text)
}
