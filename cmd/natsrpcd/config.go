package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"nats-rpc/server"
)

// natsrpcd config.toml key mapping to runtime settings.
type fileConfig struct {
	NATSURL        string   `toml:"nats_url"`
	Subject        string   `toml:"subject"`
	Queue          string   `toml:"queue"`
	Service        string   `toml:"service"`
	HighWatermark  int64    `toml:"high_watermark"`
	EtcdEndpoints  []string `toml:"etcd_endpoints"`
	RateLimit      float64  `toml:"rate_limit"`
	RateLimitBurst int      `toml:"rate_limit_burst"`
}

// daemonConfig is the resolved configuration after the default overlay.
type daemonConfig struct {
	NATSURL        string
	EtcdEndpoints  []string
	RateLimit      float64
	RateLimitBurst int
	Server         server.Config
}

func defaultConfig() daemonConfig {
	return daemonConfig{
		NATSURL:        "nats://127.0.0.1:4222",
		RateLimitBurst: 1,
		Server: server.Config{
			Subject: "rpc.debug",
			Queue:   "natsrpcd",
			Service: "Debug",
		},
	}
}

// loadConfig reads a TOML config with default overlay: only keys present
// in the file override the defaults.
func loadConfig(path string) (daemonConfig, error) {
	cfg := defaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return daemonConfig{}, fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("nats_url") {
		cfg.NATSURL = strings.TrimSpace(raw.NATSURL)
	}
	if meta.IsDefined("subject") {
		cfg.Server.Subject = strings.TrimSpace(raw.Subject)
	}
	if meta.IsDefined("queue") {
		cfg.Server.Queue = strings.TrimSpace(raw.Queue)
	}
	if meta.IsDefined("service") {
		cfg.Server.Service = strings.TrimSpace(raw.Service)
	}
	if meta.IsDefined("high_watermark") {
		cfg.Server.HighWatermark = raw.HighWatermark
	}
	if meta.IsDefined("etcd_endpoints") {
		cfg.EtcdEndpoints = raw.EtcdEndpoints
	}
	if meta.IsDefined("rate_limit") {
		cfg.RateLimit = raw.RateLimit
	}
	if meta.IsDefined("rate_limit_burst") {
		cfg.RateLimitBurst = raw.RateLimitBurst
	}

	if cfg.Server.Subject == "" {
		return daemonConfig{}, fmt.Errorf("config: subject must not be empty")
	}
	return cfg, nil
}
