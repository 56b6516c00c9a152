// Package discovery registers the gRPC endpoint with a Consul agent.
package discovery

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/consul/api"
	"github.com/rs/zerolog"
)

// Config describes the service registration.
type Config struct {
	// Address of the Consul agent, e.g. "127.0.0.1:8500" or "http://consul:8500".
	Address     string
	ServiceName string
	// ServiceID defaults to "<name>-<hostname>-<port>".
	ServiceID string
	// GRPCAddr is the advertised host:port; an empty host is advertised
	// as the agent-local address.
	GRPCAddr string
	// HealthService is checked through grpc.health.v1; empty checks the server.
	HealthService string
	Tags          []string

	CheckInterval   time.Duration
	CheckTimeout    time.Duration
	DeregisterAfter time.Duration
}

func (c Config) withDefaults() Config {
	if c.CheckInterval <= 0 {
		c.CheckInterval = 10 * time.Second
	}
	if c.CheckTimeout <= 0 {
		c.CheckTimeout = 3 * time.Second
	}
	if c.DeregisterAfter <= 0 {
		c.DeregisterAfter = time.Minute
	}
	return c
}

// Registrar owns one registration.
type Registrar struct {
	client *api.Client
	id     string
	log    zerolog.Logger
}

// Register registers the service with a gRPC health check.
func Register(cfg Config, log zerolog.Logger) (*Registrar, error) {
	cfg = cfg.withDefaults()
	if cfg.ServiceName == "" {
		return nil, fmt.Errorf("discovery: service name is required")
	}
	host, portStr, err := net.SplitHostPort(cfg.GRPCAddr)
	if err != nil {
		return nil, fmt.Errorf("discovery: grpc addr %q: %w", cfg.GRPCAddr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("discovery: grpc port %q: %w", portStr, err)
	}
	checkHost := host
	if checkHost == "" || checkHost == "0.0.0.0" || checkHost == "::" {
		checkHost = "127.0.0.1"
		host = ""
	}
	id := cfg.ServiceID
	if id == "" {
		hn, _ := os.Hostname()
		id = fmt.Sprintf("%s-%s-%d", cfg.ServiceName, hn, port)
	}

	consulCfg := api.DefaultConfig()
	if cfg.Address != "" {
		consulCfg.Address = cfg.Address
	}
	client, err := api.NewClient(consulCfg)
	if err != nil {
		return nil, fmt.Errorf("discovery: consul client: %w", err)
	}

	grpcCheck := net.JoinHostPort(checkHost, portStr)
	if cfg.HealthService != "" {
		grpcCheck += "/" + cfg.HealthService
	}
	reg := &api.AgentServiceRegistration{
		ID:      id,
		Name:    cfg.ServiceName,
		Tags:    cfg.Tags,
		Address: host,
		Port:    port,
		Check: &api.AgentServiceCheck{
			GRPC:                           grpcCheck,
			Interval:                       cfg.CheckInterval.String(),
			Timeout:                        cfg.CheckTimeout.String(),
			DeregisterCriticalServiceAfter: cfg.DeregisterAfter.String(),
		},
	}
	if err := client.Agent().ServiceRegister(reg); err != nil {
		return nil, fmt.Errorf("discovery: register %s: %w", id, err)
	}
	log.Info().Str("service_id", id).Str("check", grpcCheck).Msg("registered with consul")
	return &Registrar{client: client, id: id, log: log}, nil
}

// ID is the registered service id.
func (r *Registrar) ID() string { return r.id }

// Deregister removes the registration.
func (r *Registrar) Deregister() error {
	if err := r.client.Agent().ServiceDeregister(r.id); err != nil {
		return fmt.Errorf("discovery: deregister %s: %w", r.id, err)
	}
	r.log.Info().Str("service_id", r.id).Msg("deregistered from consul")
	return nil
}
