package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultTokenHeader  = "X-Webhook-Token"
	DefaultReasonPrefix = "grafana"
)

type Config struct {
	Server  ServerConfig
	Webhook WebhookConfig
	IPList  IPListConfig
	Debug   bool
}

type ServerConfig struct {
	Host string
	Port int
}

type WebhookConfig struct {
	SharedSecret string
	TokenHeader  string
}

type IPListConfig struct {
	Addr   string
	APIKey string
	// TimeoutSeconds is how long the blocklist service keeps an entry.
	TimeoutSeconds int
	ReasonPrefix   string
	// RequestTimeout bounds each individual call to the blocklist service.
	RequestTimeout time.Duration
	Concurrency    int
}

// envBindings maps config keys to the environment variables that set them.
var envBindings = map[string]string{
	"webhook.shared_secret":          "WEBHOOK_SHARED_SECRET",
	"webhook.token_header":           "WEBHOOK_TOKEN_HEADER",
	"iplist.addr":                    "IPLIST_ADDR",
	"iplist.api_key":                 "IPLIST_API_KEY",
	"iplist.timeout_seconds":         "IPLIST_TIMEOUT_SECONDS",
	"iplist.reason_prefix":           "IPLIST_REASON_PREFIX",
	"iplist.request_timeout_seconds": "REQUEST_TIMEOUT_SECONDS",
	"iplist.concurrency":             "IPLIST_CONCURRENCY",
	"debug":                          "DEBUG",
	"server.host":                    "SERVER_HOST",
	"server.port":                    "SERVER_PORT",
}

// Load reads an optional .env file, an optional YAML config file and the
// environment, in increasing order of precedence.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	// Set defaults
	v.SetDefault("webhook.token_header", DefaultTokenHeader)
	v.SetDefault("iplist.timeout_seconds", 86400)
	v.SetDefault("iplist.reason_prefix", DefaultReasonPrefix)
	v.SetDefault("iplist.request_timeout_seconds", 5)
	v.SetDefault("iplist.concurrency", 4)
	v.SetDefault("debug", "false")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	var (
		cfg  Config
		errs []error
	)

	cfg.Webhook.SharedSecret = required(v, "webhook.shared_secret", &errs)
	cfg.Webhook.TokenHeader = withFallback(v.GetString("webhook.token_header"), DefaultTokenHeader)

	cfg.IPList.Addr = strings.TrimRight(required(v, "iplist.addr", &errs), "/")
	cfg.IPList.APIKey = required(v, "iplist.api_key", &errs)
	cfg.IPList.TimeoutSeconds = positiveInt(v, "iplist.timeout_seconds", &errs)
	cfg.IPList.ReasonPrefix = withFallback(v.GetString("iplist.reason_prefix"), DefaultReasonPrefix)
	cfg.IPList.RequestTimeout = time.Duration(positiveInt(v, "iplist.request_timeout_seconds", &errs)) * time.Second
	cfg.IPList.Concurrency = positiveInt(v, "iplist.concurrency", &errs)

	cfg.Server.Host = strings.TrimSpace(v.GetString("server.host"))
	cfg.Server.Port = positiveInt(v, "server.port", &errs)
	if cfg.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("%s must be a valid TCP port", envBindings["server.port"]))
	}

	debug, err := ParseBool(v.GetString("debug"))
	if err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", envBindings["debug"], err))
	}
	cfg.Debug = debug

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return &cfg, nil
}

// Addr returns the host:port the server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// ParseBool accepts true/false, yes/no, on/off and 1/0 in any case.
func ParseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean value %q", raw)
	}
}

func required(v *viper.Viper, key string, errs *[]error) string {
	value := strings.TrimSpace(v.GetString(key))
	if value == "" {
		*errs = append(*errs, fmt.Errorf("missing required environment variable: %s", envBindings[key]))
	}
	return value
}

func positiveInt(v *viper.Viper, key string, errs *[]error) int {
	raw := strings.TrimSpace(v.GetString(key))
	n, err := strconv.Atoi(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s must be an integer, got %q", envBindings[key], raw))
		return 0
	}
	if n <= 0 {
		*errs = append(*errs, fmt.Errorf("%s must be greater than 0", envBindings[key]))
	}
	return n
}

func withFallback(value, fallback string) string {
	if value = strings.TrimSpace(value); value == "" {
		return fallback
	}
	return value
}
