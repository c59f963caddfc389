// Package config loads application settings from an optional YAML file
// with environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTPAddr        string        `yaml:"http_addr"`
	DataDir         string        `yaml:"data_dir"`
	Timezone        string        `yaml:"timezone"`
	TickInterval    time.Duration `yaml:"tick_interval"`
	AdminChannelID  string        `yaml:"admin_channel_id"`
	AdminReportTime string        `yaml:"admin_report_time"`
	GatewayBaseURL  string        `yaml:"gateway_base_url"`
	GatewayToken    string        `yaml:"gateway_token"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

func defaults() Config {
	return Config{
		HTTPAddr:        ":8080",
		DataDir:         "data",
		Timezone:        "Asia/Tokyo",
		TickInterval:    20 * time.Second,
		AdminReportTime: "00:00",
		ShutdownTimeout: 10 * time.Second,
	}
}

// Load reads path (if it exists) and then applies environment
// overrides on top. A missing file is not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// run on defaults and env alone
		default:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg.HTTPAddr = getenv("TTODO_HTTP_ADDR", cfg.HTTPAddr)
	cfg.DataDir = getenv("TTODO_DATA_DIR", cfg.DataDir)
	cfg.Timezone = getenv("TTODO_TIMEZONE", cfg.Timezone)
	cfg.TickInterval = getdur("TTODO_TICK_INTERVAL", cfg.TickInterval)
	cfg.AdminChannelID = getenv("TTODO_ADMIN_CHANNEL_ID", cfg.AdminChannelID)
	cfg.AdminReportTime = getenv("TTODO_ADMIN_REPORT_TIME", cfg.AdminReportTime)
	cfg.GatewayBaseURL = getenv("TTODO_GATEWAY_BASE_URL", cfg.GatewayBaseURL)
	cfg.GatewayToken = getenv("TTODO_GATEWAY_TOKEN", cfg.GatewayToken)
	cfg.ShutdownTimeout = getdur("TTODO_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)

	if _, err := time.Parse("15:04", cfg.AdminReportTime); err != nil {
		return Config{}, fmt.Errorf("admin_report_time %q: want HH:MM", cfg.AdminReportTime)
	}
	return cfg, nil
}

// Location resolves the configured timezone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getdur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
