package grpcapi

import (
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"torchserved/internal/auth"
	pb "torchserved/pkg/torchservepb"
)

// DefaultPrivilegedMethods require a bearer token when a decoder is configured.
var DefaultPrivilegedMethods = []string{"LoadModel", "UnloadModel"}

// Options assembles a gRPC server.
type Options struct {
	// Workers is the number of stream workers; 0 lets grpc spawn a goroutine per stream.
	Workers              uint32
	MaxConcurrentStreams uint32
	// MaxRecvMsgSize bounds an incoming message; 0 keeps grpc's 4 MiB default.
	MaxRecvMsgSize int
	// Decoder enables authentication of PrivilegedMethods; nil disables it.
	Decoder           *auth.Decoder
	PrivilegedMethods []string
	Registerer        prometheus.Registerer
	Logger            zerolog.Logger
}

// Server bundles the grpc server with its health service.
type Server struct {
	GRPC   *grpc.Server
	Health *health.Server
}

// NewServer builds a server exposing svc, grpc health and reflection.
func NewServer(svc pb.TorchServeServer, opts Options) (*Server, error) {
	privileged, err := privilegedSet(opts.PrivilegedMethods)
	if err != nil {
		return nil, err
	}
	log := opts.Logger.With().Str("component", "grpc").Logger()

	sopts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(
			recoveryInterceptor(log),
			requestIDInterceptor(),
			tracingInterceptor(otel.Tracer("torchserved/grpc")),
			loggingInterceptor(log),
			metricsInterceptor(NewMetrics(opts.Registerer)),
			authInterceptor(opts.Decoder, privileged),
		),
	}
	if opts.Workers > 0 {
		sopts = append(sopts, grpc.NumStreamWorkers(opts.Workers))
	}
	if opts.MaxConcurrentStreams > 0 {
		sopts = append(sopts, grpc.MaxConcurrentStreams(opts.MaxConcurrentStreams))
	}
	if opts.MaxRecvMsgSize > 0 {
		sopts = append(sopts, grpc.MaxRecvMsgSize(opts.MaxRecvMsgSize))
	}

	s := grpc.NewServer(sopts...)
	pb.RegisterTorchServeServer(s, svc)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(pb.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, hs)
	reflection.Register(s)

	return &Server{GRPC: s, Health: hs}, nil
}

// SetServing flips the health status of every registered service.
func (s *Server) SetServing(serving bool) {
	if serving {
		s.Health.Resume()
		return
	}
	s.Health.Shutdown()
}

// privilegedSet resolves short ("LoadModel") or full method names. nil selects
// DefaultPrivilegedMethods; an empty slice privileges nothing.
func privilegedSet(methods []string) (map[string]bool, error) {
	if methods == nil {
		methods = DefaultPrivilegedMethods
	}
	known := map[string]string{}
	for _, m := range pb.TorchServe_ServiceDesc.Methods {
		known[m.MethodName] = "/" + pb.ServiceName + "/" + m.MethodName
	}
	out := make(map[string]bool, len(methods))
	for _, m := range methods {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		if full, ok := known[m]; ok {
			out[full] = true
			continue
		}
		if strings.HasPrefix(m, "/"+pb.ServiceName+"/") {
			if _, ok := known[strings.TrimPrefix(m, "/"+pb.ServiceName+"/")]; ok {
				out[m] = true
				continue
			}
		}
		return nil, fmt.Errorf("unknown privileged method %q", m)
	}
	return out, nil
}
