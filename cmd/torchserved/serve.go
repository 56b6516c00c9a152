package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"torchserved/internal/auth"
	"torchserved/internal/catalog"
	"torchserved/internal/config"
	"torchserved/internal/discovery"
	"torchserved/internal/generate"
	"torchserved/internal/grpcapi"
	"torchserved/internal/httpapi"
	"torchserved/internal/logging"
	"torchserved/internal/manager"
	pb "torchserved/pkg/torchservepb"
)

const (
	tokenCacheSize = 1024
	// shutdownGrace is added to the drain timeout when stopping servers.
	shutdownGrace     = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// serve runs the daemon until ctx is canceled or a listener fails.
func serve(ctx context.Context, cfg config.Config) error {
	log, closeLog, err := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	})
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	cat, err := catalog.New(cfg.ModelsDir, cfg.Models, log.With().Str("component", "catalog").Logger())
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	if cfg.WatchModelsDir && cat.Dir() != "" {
		go func() {
			if err := cat.Watch(runCtx); err != nil {
				log.Warn().Err(err).Str("dir", cat.Dir()).Msg("models dir watch stopped")
			}
		}()
	}

	mcfg := manager.Config{
		Catalog: cat,
		Loader: manager.RuntimeLoader{
			catalog.RuntimeLlama: manager.NewLlamaLoader(manager.LlamaOptions{
				CtxSize:   cfg.Llama.CtxSize,
				Threads:   cfg.Llama.Threads,
				MaxTokens: cfg.Llama.MaxTokens,
			}),
			catalog.RuntimeRemote: manager.NewRemoteLoader(nil, cfg.PredictTimeout.Std()),
		},
		Registerer:      prometheus.DefaultRegisterer,
		LoadMode:        manager.LoadMode(cfg.LoadMode),
		LoadConcurrency: cfg.LoadConcurrency,
		LoadTimeout:     cfg.LoadTimeout.Std(),
		DrainTimeout:    cfg.DrainTimeout.Std(),
		PredictTimeout:  cfg.PredictTimeout.Std(),
	}
	mlog := log.With().Str("component", "manager").Logger()
	mcfg.Logger = &mlog
	if cfg.Redis.Addr != "" {
		client, err := manager.NewRedisClient(cfg.Redis.Addr)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		pub := manager.NewRedisPublisher(client, cfg.Redis.Channel, 0, log.With().Str("component", "events").Logger())
		defer func() { _ = pub.Close() }()
		mcfg.Publisher = pub
	}
	mgr, err := manager.New(mcfg)
	if err != nil {
		return err
	}
	if rep := mgr.SanityCheck(); !rep.OK() {
		log.Warn().
			Bool("llama_built", rep.LlamaBuilt).
			Strs("unloadable", rep.Unloadable).
			Strs("missing", rep.Missing).
			Msg("some catalog entries cannot be loaded")
	}

	var dec *auth.Decoder
	if cfg.JWTSecret != "" {
		var aopts []auth.Option
		if cfg.JWTIssuer != "" {
			aopts = append(aopts, auth.WithIssuer(cfg.JWTIssuer))
		}
		dec, err = auth.NewDecoder([]byte(cfg.JWTSecret), tokenCacheSize, aopts...)
		if err != nil {
			return err
		}
	} else {
		log.Warn().Msg("jwt_secret is empty, privileged RPCs are not authenticated")
	}

	srv, err := grpcapi.NewServer(grpcapi.NewService(mgr, log), grpcapi.Options{
		Workers:              uint32(cfg.Workers),
		MaxConcurrentStreams: uint32(cfg.MaxConcurrentStreams),
		MaxRecvMsgSize:       cfg.MaxRecvMsgSize,
		Decoder:              dec,
		PrivilegedMethods:    cfg.PrivilegedMethods,
		Registerer:           prometheus.DefaultRegisterer,
		Logger:               log,
	})
	if err != nil {
		return err
	}
	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		_ = mgr.Close(context.Background())
		return fmt.Errorf("listen %s: %w", cfg.GRPCAddr, err)
	}

	var serving atomic.Bool
	hopts := httpapi.Options{
		Service:        mgr,
		Serving:        serving.Load,
		MaxUploadBytes: cfg.MaxUploadBytes,
		CORS:           httpapi.CORSOptions{Enabled: cfg.CORS.Enabled, Origins: cfg.CORS.Origins},
		Logger:         log,
		BaseContext:    runCtx,
	}
	if cfg.Generation.BaseURL != "" {
		hopts.Generator = generate.New(generate.Config{
			BaseURL: cfg.Generation.BaseURL,
			APIKey:  cfg.Generation.APIKey,
			Model:   cfg.Generation.Model,
			Timeout: cfg.Generation.Timeout.Std(),
		})
	}
	hsrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewMux(hopts),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 2)
	go func() {
		log.Info().Str("addr", lis.Addr().String()).Msg("grpc listening")
		if err := srv.GRPC.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc: %w", err)
		}
	}()
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http listening")
		if err := hsrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http: %w", err)
		}
	}()
	serving.Store(true)

	var reg *discovery.Registrar
	if cfg.Consul.Address != "" {
		reg, err = discovery.Register(discovery.Config{
			Address:       cfg.Consul.Address,
			ServiceName:   cfg.Consul.ServiceName,
			GRPCAddr:      cfg.GRPCAddr,
			HealthService: pb.ServiceName,
		}, log)
		if err != nil {
			log.Warn().Err(err).Str("consul", cfg.Consul.Address).Msg("service registration failed")
			reg = nil
		}
	}

	var runErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case runErr = <-errCh:
		log.Error().Err(runErr).Msg("listener failed, shutting down")
	}
	shutdown(log, cfg, srv, hsrv, mgr, reg, &serving)
	return runErr
}

// shutdown stops advertising, drains RPCs and unloads every model.
func shutdown(log zerolog.Logger, cfg config.Config, srv *grpcapi.Server, hsrv *http.Server, mgr *manager.Manager, reg *discovery.Registrar, serving *atomic.Bool) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.DrainTimeout.Std()+shutdownGrace)
	defer cancel()

	serving.Store(false)
	srv.SetServing(false)
	if reg != nil {
		if err := reg.Deregister(); err != nil {
			log.Warn().Err(err).Msg("consul deregister")
		}
	}

	stopped := make(chan struct{})
	go func() {
		srv.GRPC.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-ctx.Done():
		log.Warn().Msg("grpc graceful stop timed out, forcing")
		srv.GRPC.Stop()
	}

	if err := hsrv.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}
	if err := mgr.Close(ctx); err != nil {
		log.Warn().Err(err).Msg("unload on shutdown")
	}
	log.Info().Msg("stopped")
}
