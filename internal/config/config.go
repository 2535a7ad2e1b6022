package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Gateway modes. The mode is fixed per deployment.
const (
	ModePublic   = "public"
	ModeMerchant = "merchant"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress        string
	GatewayAddress    string
	Mode              string
	MerchantAPIKey    string
	MerchantAPISecret string

	PollInterval          time.Duration
	PollMaxAttempts       int
	PollMaxElapsed        time.Duration
	PollBackoffMultiplier float64
	PollMaxInterval       time.Duration
	RequestTimeout        time.Duration

	SessionSecret   string
	SessionTTL      time.Duration
	JanitorInterval time.Duration
	ShutdownTimeout time.Duration
	RequireOrderID  bool

	DatabaseURI    string
	RedisURL       string
	RedisChannel   string
	AllowedOrigins []string

	LogLevel string
}

const (
	defaultRunAddress            = ":3001"
	defaultMode                  = ModePublic
	defaultPollInterval          = 2 * time.Second
	defaultPollBackoffMultiplier = 1.0
	defaultPollMaxInterval       = 30 * time.Second
	defaultRequestTimeout        = 10 * time.Second
	defaultSessionSecret         = "change-me-in-production"
	defaultSessionTTL            = 30 * time.Minute
	defaultJanitorInterval       = time.Minute
	defaultShutdownTimeout       = 10 * time.Second
	defaultRedisChannel          = "checkout:signals"
	defaultAllowedOrigins        = "http://localhost:3000"
	defaultLogLevel              = "info"
)

// Load parses configuration from flags, environment variables, an optional
// .env file in the working directory and an optional YAML file.
func Load() (*Config, error) {
	lookup := envLookup(os.LookupEnv)

	dotenv, err := godotenv.Read()
	switch {
	case err == nil:
		lookup = chain(lookup, mapLookup(dotenv))
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("read .env: %w", err)
	}

	return load(os.Args[1:], lookup)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	if path, ok := lookup("CHECKOUT_CONFIG"); ok && path != "" {
		file, err := readFile(path)
		if err != nil {
			return nil, err
		}
		lookup = chain(lookup, file)
	}

	cfg := &Config{
		RunAddress:            getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		GatewayAddress:        getString(lookup, "GATEWAY_ADDRESS", ""),
		Mode:                  getString(lookup, "CHECKOUT_MODE", defaultMode),
		MerchantAPIKey:        getString(lookup, "MERCHANT_API_KEY", ""),
		MerchantAPISecret:     getString(lookup, "MERCHANT_API_SECRET", ""),
		PollInterval:          getDuration(lookup, "POLL_INTERVAL", defaultPollInterval),
		PollMaxAttempts:       getInt(lookup, "POLL_MAX_ATTEMPTS", 0),
		PollMaxElapsed:        getDuration(lookup, "POLL_MAX_ELAPSED", 0),
		PollBackoffMultiplier: getFloat(lookup, "POLL_BACKOFF_MULTIPLIER", defaultPollBackoffMultiplier),
		PollMaxInterval:       getDuration(lookup, "POLL_MAX_INTERVAL", defaultPollMaxInterval),
		RequestTimeout:        getDuration(lookup, "REQUEST_TIMEOUT", defaultRequestTimeout),
		SessionSecret:         getString(lookup, "SESSION_SECRET", defaultSessionSecret),
		SessionTTL:            getDuration(lookup, "SESSION_TTL", defaultSessionTTL),
		JanitorInterval:       getDuration(lookup, "JANITOR_INTERVAL", defaultJanitorInterval),
		ShutdownTimeout:       getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		RequireOrderID:        getBool(lookup, "REQUIRE_ORDER_ID", false),
		DatabaseURI:           getString(lookup, "DATABASE_URI", ""),
		RedisURL:              getString(lookup, "REDIS_URL", ""),
		RedisChannel:          getString(lookup, "REDIS_CHANNEL", defaultRedisChannel),
		LogLevel:              getString(lookup, "LOG_LEVEL", defaultLogLevel),
	}
	origins := getString(lookup, "ALLOWED_ORIGINS", defaultAllowedOrigins)

	fs := flag.NewFlagSet("checkout", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		pollIntervalStr    = cfg.PollInterval.String()
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
		sessionTTLStr      = cfg.SessionTTL.String()
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.GatewayAddress, "g", cfg.GatewayAddress, "Payment gateway base URL")
	fs.StringVar(&cfg.Mode, "mode", cfg.Mode, "Gateway mode: public or merchant")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN for checkout session snapshots")
	fs.StringVar(&cfg.RedisURL, "redis", cfg.RedisURL, "Redis URL for the signal relay")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn or error")
	fs.StringVar(&cfg.SessionSecret, "session-secret", cfg.SessionSecret, "Secret for signing session tokens")
	fs.StringVar(&pollIntervalStr, "poll-interval", pollIntervalStr, "Interval between payment status polls")
	fs.IntVar(&cfg.PollMaxAttempts, "poll-max-attempts", cfg.PollMaxAttempts, "Maximum status polls per payment, 0 for no limit")
	fs.StringVar(&sessionTTLStr, "session-ttl", sessionTTLStr, "Idle time before a checkout session expires")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")
	fs.StringVar(&origins, "origins", origins, "Comma separated origins allowed to call the API and subscribe to signals")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.PollInterval, err = time.ParseDuration(pollIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid poll interval: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if cfg.SessionTTL, err = time.ParseDuration(sessionTTLStr); err != nil {
		return nil, fmt.Errorf("invalid session ttl: %w", err)
	}

	secrets := []struct {
		env    string
		target *string
	}{
		{"SESSION_SECRET_FILE", &cfg.SessionSecret},
		{"MERCHANT_API_KEY_FILE", &cfg.MerchantAPIKey},
		{"MERCHANT_API_SECRET_FILE", &cfg.MerchantAPISecret},
	}
	for _, s := range secrets {
		if secretFile, ok := lookup(s.env); ok && secretFile != "" {
			content, err := os.ReadFile(secretFile)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", strings.ToLower(s.env), err)
			}
			*s.target = strings.TrimSpace(string(content))
		}
	}

	cfg.AllowedOrigins = NormalizeOrigins(splitList(origins))
	cfg.Mode = strings.ToLower(strings.TrimSpace(cfg.Mode))

	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}

	if cfg.PollMaxAttempts < 0 {
		cfg.PollMaxAttempts = 0
	}

	if cfg.PollMaxElapsed < 0 {
		cfg.PollMaxElapsed = 0
	}

	if cfg.PollBackoffMultiplier < 1 {
		cfg.PollBackoffMultiplier = defaultPollBackoffMultiplier
	}

	if cfg.PollMaxInterval < cfg.PollInterval {
		cfg.PollMaxInterval = max(cfg.PollInterval, defaultPollMaxInterval)
	}

	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}

	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}

	if cfg.JanitorInterval <= 0 {
		cfg.JanitorInterval = defaultJanitorInterval
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.GatewayAddress == "" {
		return nil, fmt.Errorf("gateway address must be provided")
	}

	switch cfg.Mode {
	case ModePublic:
	case ModeMerchant:
		if cfg.MerchantAPIKey == "" || cfg.MerchantAPISecret == "" {
			return nil, fmt.Errorf("merchant mode requires MERCHANT_API_KEY and MERCHANT_API_SECRET")
		}
	default:
		return nil, fmt.Errorf("unknown checkout mode %q", cfg.Mode)
	}

	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("session secret must be provided")
	}

	return cfg, nil
}

func chain(lookups ...envLookup) envLookup {
	return func(key string) (string, bool) {
		for _, lookup := range lookups {
			if v, ok := lookup(key); ok && v != "" {
				return v, true
			}
		}
		return "", false
	}
}

func mapLookup(values map[string]string) envLookup {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(lookup envLookup, key string, def float64) float64 {
	if v, ok := lookup(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getBool(lookup envLookup, key string, def bool) bool {
	if v, ok := lookup(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// AnyOrigin in ALLOWED_ORIGINS admits every portal origin.
const AnyOrigin = "*"

// NormalizeOrigins returns the usable portal origins: AnyOrigin and http(s)
// origins, lower-cased, without a trailing slash and without duplicates.
func NormalizeOrigins(origins []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		origin = strings.ToLower(strings.TrimRight(strings.TrimSpace(origin), "/"))
		if origin != AnyOrigin && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			continue
		}
		if _, dup := seen[origin]; dup {
			continue
		}
		seen[origin] = struct{}{}
		out = append(out, origin)
	}
	return out
}
