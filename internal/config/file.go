package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// fileConfig is the YAML layout of CHECKOUT_CONFIG. Values in it sit under
// environment variables and flags.
type fileConfig struct {
	Server struct {
		Address         string `yaml:"address"`
		ShutdownTimeout string `yaml:"shutdown_timeout"`
		AllowedOrigins  string `yaml:"allowed_origins"`
		LogLevel        string `yaml:"log_level"`
	} `yaml:"server"`
	Gateway struct {
		Address        string `yaml:"address"`
		Mode           string `yaml:"mode"`
		RequestTimeout string `yaml:"request_timeout"`
	} `yaml:"gateway"`
	Polling struct {
		Interval          string `yaml:"interval"`
		MaxAttempts       string `yaml:"max_attempts"`
		MaxElapsed        string `yaml:"max_elapsed"`
		BackoffMultiplier string `yaml:"backoff_multiplier"`
		MaxInterval       string `yaml:"max_interval"`
	} `yaml:"polling"`
	Session struct {
		TTL             string `yaml:"ttl"`
		JanitorInterval string `yaml:"janitor_interval"`
		RequireOrderID  string `yaml:"require_order_id"`
	} `yaml:"session"`
	Storage struct {
		DatabaseURI  string `yaml:"database_uri"`
		RedisURL     string `yaml:"redis_url"`
		RedisChannel string `yaml:"redis_channel"`
	} `yaml:"storage"`
}

func readFile(path string) (envLookup, error) {
	var fc fileConfig
	if err := cleanenv.ReadConfig(path, &fc); err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	return mapLookup(map[string]string{
		"RUN_ADDRESS":             fc.Server.Address,
		"SHUTDOWN_TIMEOUT":        fc.Server.ShutdownTimeout,
		"ALLOWED_ORIGINS":         fc.Server.AllowedOrigins,
		"LOG_LEVEL":               fc.Server.LogLevel,
		"GATEWAY_ADDRESS":         fc.Gateway.Address,
		"CHECKOUT_MODE":           fc.Gateway.Mode,
		"REQUEST_TIMEOUT":         fc.Gateway.RequestTimeout,
		"POLL_INTERVAL":           fc.Polling.Interval,
		"POLL_MAX_ATTEMPTS":       fc.Polling.MaxAttempts,
		"POLL_MAX_ELAPSED":        fc.Polling.MaxElapsed,
		"POLL_BACKOFF_MULTIPLIER": fc.Polling.BackoffMultiplier,
		"POLL_MAX_INTERVAL":       fc.Polling.MaxInterval,
		"SESSION_TTL":             fc.Session.TTL,
		"JANITOR_INTERVAL":        fc.Session.JanitorInterval,
		"REQUIRE_ORDER_ID":        fc.Session.RequireOrderID,
		"DATABASE_URI":            fc.Storage.DatabaseURI,
		"REDIS_URL":               fc.Storage.RedisURL,
		"REDIS_CHANNEL":           fc.Storage.RedisChannel,
	}), nil
}
