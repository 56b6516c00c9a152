package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// Defaults for unset fields.
const (
	DefaultGRPCAddr        = ":50051"
	DefaultHTTPAddr        = ":8080"
	DefaultLoadMode        = "async"
	DefaultLoadConcurrency = 2
	DefaultLoadTimeout     = 5 * time.Minute
	DefaultDrainTimeout    = 30 * time.Second
	DefaultMaxUploadBytes  = 32 << 20
	DefaultMaxRecvMsgSize  = 32 << 20
	DefaultGenerateTimeout = 60 * time.Second
	DefaultRedisChannel    = "torchserved:events"
	DefaultServiceName     = "torchserved"
)

// ApplyDefaults fills every zero field that has a default.
func ApplyDefaults(cfg *Config) {
	if cfg.GRPCAddr == "" {
		cfg.GRPCAddr = DefaultGRPCAddr
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = DefaultHTTPAddr
	}
	if cfg.LoadMode == "" {
		cfg.LoadMode = DefaultLoadMode
	}
	if cfg.LoadConcurrency == 0 {
		cfg.LoadConcurrency = DefaultLoadConcurrency
	}
	if cfg.LoadTimeout == 0 {
		cfg.LoadTimeout = Duration(DefaultLoadTimeout)
	}
	if cfg.DrainTimeout == 0 {
		cfg.DrainTimeout = Duration(DefaultDrainTimeout)
	}
	if cfg.MaxRecvMsgSize == 0 {
		cfg.MaxRecvMsgSize = DefaultMaxRecvMsgSize
	}
	if cfg.MaxUploadBytes == 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Generation.Timeout == 0 {
		cfg.Generation.Timeout = Duration(DefaultGenerateTimeout)
	}
	if cfg.Redis.Channel == "" {
		cfg.Redis.Channel = DefaultRedisChannel
	}
	if cfg.Consul.ServiceName == "" {
		cfg.Consul.ServiceName = DefaultServiceName
	}
	for i := range cfg.Models {
		if cfg.Models[i].Runtime == "" {
			if cfg.Models[i].Endpoint != "" {
				cfg.Models[i].Runtime = "remote"
			} else {
				cfg.Models[i].Runtime = "llama"
			}
		}
	}
}

// Validate checks the merged configuration. It runs after ApplyEnv and
// ApplyDefaults since environment values bypass the schema.
func (c Config) Validate() error {
	var errs []error
	switch c.LoadMode {
	case "async", "sync":
	default:
		errs = append(errs, fmt.Errorf("load_mode must be async or sync, got %q", c.LoadMode))
	}
	if c.LoadConcurrency < 1 {
		errs = append(errs, fmt.Errorf("load_concurrency must be >= 1, got %d", c.LoadConcurrency))
	}
	for name, d := range map[string]Duration{
		"load_timeout":    c.LoadTimeout,
		"drain_timeout":   c.DrainTimeout,
		"predict_timeout": c.PredictTimeout,
	} {
		if d < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative", name))
		}
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must be >= 0, got %d", c.Workers))
	}
	if c.MaxConcurrentStreams < 0 {
		errs = append(errs, fmt.Errorf("max_concurrent_streams must be >= 0, got %d", c.MaxConcurrentStreams))
	}
	if c.MaxRecvMsgSize < 0 || c.MaxRecvMsgSize > math.MaxInt32 {
		errs = append(errs, fmt.Errorf("max_recv_msg_size must be within [0, %d], got %d", math.MaxInt32, c.MaxRecvMsgSize))
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be console or json, got %q", c.Log.Format))
	}
	seen := map[string]bool{}
	for _, m := range c.Models {
		if err := m.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if seen[m.Name] {
			errs = append(errs, fmt.Errorf("model %q declared twice", m.Name))
		}
		seen[m.Name] = true
	}
	return errors.Join(errs...)
}
