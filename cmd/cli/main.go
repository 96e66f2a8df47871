package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/emirozbir/grafana-hook/internal/client"
	"github.com/emirozbir/grafana-hook/internal/config"
	"github.com/emirozbir/grafana-hook/internal/formatter"
	"github.com/emirozbir/grafana-hook/internal/ui"
)

const (
	formatPretty = "pretty"
	formatJSON   = "json"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func validFormat(format string) bool {
	return format == formatPretty || format == formatJSON
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := pflag.NewFlagSet("grafana-hook-cli", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() {
		fmt.Fprintln(stderr, "Send test payloads to the grafana-hook webhook endpoint.")
		flags.PrintDefaults()
	}

	url := flags.String("url", "http://127.0.0.1:8000/webhooks/grafana/ip-blacklist", "Webhook URL")
	token := flags.String("token", "", "Webhook shared secret token (required)")
	tokenHeader := flags.String("token-header", config.DefaultTokenHeader, "Header name for webhook token")
	status := flags.String("status", "firing", "Grafana alert status")
	alertName := flags.String("alertname", "SSHGuard IP Flood", "Alert name label")
	receiver := flags.String("receiver", "webhook", "Receiver field in payload")
	ips := flags.StringArray("ip", nil, "IP to include in payload (repeatable, required)")
	timeout := flags.Duration("timeout", 10*time.Second, "HTTP timeout")
	debugCurl := flags.Bool("debug-curl", false, "Print equivalent curl command to stderr")
	outputFormat := flags.String("format", formatPretty, "Output format: 'pretty' or 'json'")
	noColor := flags.Bool("no-color", false, "Disable colored output")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *token == "" || len(*ips) == 0 {
		fmt.Fprintln(stderr, "Both --token and at least one --ip are required")
		flags.Usage()
		return 2
	}
	if !validFormat(*outputFormat) {
		fmt.Fprintf(stderr, "Unsupported --format %q: use 'pretty' or 'json'\n", *outputFormat)
		flags.Usage()
		return 2
	}

	opts := client.Options{
		URL:         *url,
		Token:       *token,
		TokenHeader: *tokenHeader,
		Status:      *status,
		AlertName:   *alertName,
		Receiver:    *receiver,
		IPs:         *ips,
		Timeout:     *timeout,
	}

	if *debugCurl {
		cmd, err := client.CurlCommand(opts)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to build curl command: %v\n", err)
			return 1
		}
		fmt.Fprintf(stderr, "DEBUG curl command: %s\n", cmd)
	}

	var progress ui.ProgressReporter = &ui.NoOpProgressReporter{}
	if *outputFormat == formatPretty {
		sp := ui.NewSpinnerProgress(stderr)
		sp.Start(fmt.Sprintf("Sending %d alert(s) to %s", len(*ips), *url))
		progress = sp
	}

	result, err := client.Send(context.Background(), opts)
	progress.Stop()
	if err != nil {
		fmt.Fprintf(stderr, "Request failed: %v\n", err)
		return 1
	}

	switch {
	case *outputFormat == formatPretty && result.Summary != nil:
		fmt.Fprintln(stdout, formatter.NewFormatter(!*noColor).FormatSummary(result.StatusCode, result.Summary))
	default:
		fmt.Fprintf(stdout, "HTTP %d\n", result.StatusCode)
		var decoded any
		if err := json.Unmarshal(result.Body, &decoded); err == nil {
			out, _ := json.MarshalIndent(decoded, "", "  ")
			fmt.Fprintln(stdout, string(out))
		} else {
			fmt.Fprintln(stdout, string(result.Body))
		}
	}

	if !result.OK() {
		return 1
	}
	return 0
}
