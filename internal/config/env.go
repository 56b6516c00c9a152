package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TORCHSERVED_"

// LookupFunc matches os.LookupEnv.
type LookupFunc func(string) (string, bool)

// ApplyEnv overrides cfg with TORCHSERVED_* variables. A nil lookup reads the
// process environment.
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	get := func(key string) (string, bool) {
		v, ok := lookup(EnvPrefix + key)
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}
	str := func(key string, dst *string) {
		if v, ok := get(key); ok {
			*dst = v
		}
	}
	var errs []string
	num := func(key string, dst *int) {
		if v, ok := get(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s%s: %v", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}
	dur := func(key string, dst *Duration) {
		if v, ok := get(key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s%s: %v", EnvPrefix, key, err))
				return
			}
			*dst = Duration(d)
		}
	}

	str("GRPC_ADDR", &cfg.GRPCAddr)
	str("HTTP_ADDR", &cfg.HTTPAddr)
	str("MODELS_DIR", &cfg.ModelsDir)
	str("LOAD_MODE", &cfg.LoadMode)
	num("LOAD_CONCURRENCY", &cfg.LoadConcurrency)
	dur("LOAD_TIMEOUT", &cfg.LoadTimeout)
	dur("DRAIN_TIMEOUT", &cfg.DrainTimeout)
	dur("PREDICT_TIMEOUT", &cfg.PredictTimeout)
	num("WORKERS", &cfg.Workers)
	num("MAX_CONCURRENT_STREAMS", &cfg.MaxConcurrentStreams)
	num("MAX_RECV_MSG_SIZE", &cfg.MaxRecvMsgSize)
	str("JWT_SECRET", &cfg.JWTSecret)
	str("JWT_ISSUER", &cfg.JWTIssuer)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)
	str("LOG_FILE", &cfg.Log.File)
	str("GENERATION_BASE_URL", &cfg.Generation.BaseURL)
	str("GENERATION_API_KEY", &cfg.Generation.APIKey)
	str("GENERATION_MODEL", &cfg.Generation.Model)
	str("CONSUL_ADDRESS", &cfg.Consul.Address)
	str("REDIS_ADDR", &cfg.Redis.Addr)
	str("REDIS_CHANNEL", &cfg.Redis.Channel)
	if v, ok := get("PRIVILEGED_METHODS"); ok {
		cfg.PrivilegedMethods = splitCSV(v)
	}

	if len(errs) > 0 {
		return fmt.Errorf("environment: %s", strings.Join(errs, "; "))
	}
	return nil
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
