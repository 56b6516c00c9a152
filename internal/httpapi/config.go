package httpapi

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Body limits applied when Options leaves them unset.
const (
	defaultMaxBodyBytes   int64 = 1 << 20
	defaultMaxUploadBytes int64 = 32 << 20
)

// CORSOptions configures cross-origin access (opt-in). If disabled, no CORS
// middleware is added.
type CORSOptions struct {
	Enabled bool
	Origins []string
	Methods []string
	Headers []string
}

// Options assembles the admin HTTP handler.
type Options struct {
	Service Service
	// Generator serves /generate-text; nil answers 503.
	Generator Generator
	// Serving reports whether the gRPC server accepts RPCs; nil means always.
	Serving func() bool

	// MaxBodyBytes limits JSON bodies, MaxUploadBytes multipart uploads.
	MaxBodyBytes   int64
	MaxUploadBytes int64
	CORS           CORSOptions

	// Registerer receives the HTTP collectors; Gatherer backs /metrics.
	// Both default to the prometheus globals.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer

	Logger zerolog.Logger
	// LogLevel is the default request log level: off|error|info|debug.
	LogLevel string
	// BaseContext is canceled on shutdown so upstream calls stop with it.
	BaseContext context.Context
}

func (o Options) withDefaults() Options {
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = defaultMaxBodyBytes
	}
	if o.MaxUploadBytes <= 0 {
		o.MaxUploadBytes = defaultMaxUploadBytes
	}
	if o.Registerer == nil {
		o.Registerer = prometheus.DefaultRegisterer
	}
	if o.Gatherer == nil {
		o.Gatherer = prometheus.DefaultGatherer
	}
	if o.BaseContext == nil {
		o.BaseContext = context.Background()
	}
	if len(o.CORS.Methods) == 0 {
		o.CORS.Methods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	}
	if len(o.CORS.Headers) == 0 {
		o.CORS.Headers = []string{"Content-Type", "Authorization", "X-Request-Id"}
	}
	return o
}
