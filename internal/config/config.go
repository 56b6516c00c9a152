package config

import (
	"fmt"
	"time"

	"torchserved/internal/catalog"
)

// Config holds runtime parameters for the daemon.
// Zero values mean "unspecified" and are replaced by ApplyDefaults.
type Config struct {
	GRPCAddr       string             `json:"grpc_addr" yaml:"grpc_addr" toml:"grpc_addr"`
	HTTPAddr       string             `json:"http_addr" yaml:"http_addr" toml:"http_addr"`
	ModelsDir      string             `json:"models_dir" yaml:"models_dir" toml:"models_dir"`
	WatchModelsDir bool               `json:"watch_models_dir" yaml:"watch_models_dir" toml:"watch_models_dir"`
	Models         []catalog.Artifact `json:"models" yaml:"models" toml:"models"`

	LoadMode             string   `json:"load_mode" yaml:"load_mode" toml:"load_mode"`
	LoadConcurrency      int      `json:"load_concurrency" yaml:"load_concurrency" toml:"load_concurrency"`
	LoadTimeout          Duration `json:"load_timeout" yaml:"load_timeout" toml:"load_timeout"`
	DrainTimeout         Duration `json:"drain_timeout" yaml:"drain_timeout" toml:"drain_timeout"`
	PredictTimeout       Duration `json:"predict_timeout" yaml:"predict_timeout" toml:"predict_timeout"`
	Workers              int      `json:"workers" yaml:"workers" toml:"workers"`
	MaxConcurrentStreams int      `json:"max_concurrent_streams" yaml:"max_concurrent_streams" toml:"max_concurrent_streams"`
	// MaxRecvMsgSize bounds an incoming gRPC message in bytes.
	MaxRecvMsgSize int `json:"max_recv_msg_size" yaml:"max_recv_msg_size" toml:"max_recv_msg_size"`

	JWTSecret string `json:"jwt_secret" yaml:"jwt_secret" toml:"jwt_secret"`
	// JWTIssuer, when set, must match the iss claim of every token.
	JWTIssuer         string   `json:"jwt_issuer" yaml:"jwt_issuer" toml:"jwt_issuer"`
	PrivilegedMethods []string `json:"privileged_methods" yaml:"privileged_methods" toml:"privileged_methods"`

	Log            LogConfig        `json:"log" yaml:"log" toml:"log"`
	Llama          LlamaConfig      `json:"llama" yaml:"llama" toml:"llama"`
	Generation     GenerationConfig `json:"generation" yaml:"generation" toml:"generation"`
	MaxUploadBytes int64            `json:"max_upload_bytes" yaml:"max_upload_bytes" toml:"max_upload_bytes"`
	CORS           CORSConfig       `json:"cors" yaml:"cors" toml:"cors"`
	Consul         ConsulConfig     `json:"consul" yaml:"consul" toml:"consul"`
	Redis          RedisConfig      `json:"redis" yaml:"redis" toml:"redis"`
}

type LogConfig struct {
	Level  string `json:"level" yaml:"level" toml:"level"`
	Format string `json:"format" yaml:"format" toml:"format"`
	// File enables rotated file output in addition to stderr.
	File string `json:"file" yaml:"file" toml:"file"`
}

type LlamaConfig struct {
	CtxSize   int `json:"ctx_size" yaml:"ctx_size" toml:"ctx_size"`
	Threads   int `json:"threads" yaml:"threads" toml:"threads"`
	MaxTokens int `json:"max_tokens" yaml:"max_tokens" toml:"max_tokens"`
}

// GenerationConfig points /generate-text at an OpenAI-compatible server.
// An empty BaseURL disables the endpoint.
type GenerationConfig struct {
	BaseURL string   `json:"base_url" yaml:"base_url" toml:"base_url"`
	APIKey  string   `json:"api_key" yaml:"api_key" toml:"api_key"`
	Model   string   `json:"model" yaml:"model" toml:"model"`
	Timeout Duration `json:"timeout" yaml:"timeout" toml:"timeout"`
}

type CORSConfig struct {
	Enabled bool     `json:"enabled" yaml:"enabled" toml:"enabled"`
	Origins []string `json:"origins" yaml:"origins" toml:"origins"`
}

// ConsulConfig enables agent registration when Address is set.
type ConsulConfig struct {
	Address     string `json:"address" yaml:"address" toml:"address"`
	ServiceName string `json:"service_name" yaml:"service_name" toml:"service_name"`
}

// RedisConfig enables the lifecycle event stream when Addr is set.
type RedisConfig struct {
	Addr    string `json:"addr" yaml:"addr" toml:"addr"`
	Channel string `json:"channel" yaml:"channel" toml:"channel"`
}

// Duration is a time.Duration written as "30s" or "5m" in config files.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

func (d Duration) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(b), err)
	}
	*d = Duration(v)
	return nil
}
