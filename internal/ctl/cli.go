// Package ctl implements torchctl, the command-line client of the
// torchserve.v1.TorchServe service.
package ctl

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	pb "torchserved/pkg/torchservepb"
)

// Config carries the persistent flags.
type Config struct {
	Addr    string
	Token   string
	Timeout time.Duration
}

// defaultConfig reads TORCHCTL_* defaults so flags only need to override.
func defaultConfig() *Config {
	return &Config{
		Addr:    envStr("TORCHCTL_ADDR", "localhost:50051"),
		Token:   envStr("TORCHCTL_TOKEN", ""),
		Timeout: envDuration("TORCHCTL_TIMEOUT", 30*time.Second),
	}
}

// fnConnect dials the server; tests replace it with an in-process dialer.
var fnConnect = func(cfg *Config) (pb.TorchServeClient, io.Closer, error) {
	conn, err := grpc.NewClient(cfg.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, fmt.Errorf("dial %s: %w", cfg.Addr, err)
	}
	return pb.NewTorchServeClient(conn), conn, nil
}

// callContext bounds one command by --timeout and attaches the bearer token.
func callContext(parent context.Context, cfg *Config) (context.Context, context.CancelFunc) {
	ctx, cancel := parent, context.CancelFunc(func() {})
	if cfg.Timeout > 0 {
		ctx, cancel = context.WithTimeout(parent, cfg.Timeout)
	}
	if tok := strings.TrimSpace(cfg.Token); tok != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+tok)
	}
	return ctx, cancel
}

// withClient runs fn with a connected client and closes it afterwards.
func withClient(cmdCtx context.Context, cfg *Config, fn func(context.Context, pb.TorchServeClient) error) error {
	client, closer, err := fnConnect(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()
	ctx, cancel := callContext(cmdCtx, cfg)
	defer cancel()
	return fn(ctx, client)
}

// MainWithArgs runs torchctl and returns the process exit code: 2 for usage
// errors, 1 for command failures.
func MainWithArgs(args []string) int {
	return mainWith(args, os.Stdout, os.Stderr)
}

func mainWith(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		root := buildRootCmdWith(defaultConfig())
		root.SetOut(stderr)
		_ = root.Usage()
		return 2
	}
	root := buildRootCmdWith(defaultConfig())
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, "torchctl:", err)
		return 1
	}
	return 0
}
