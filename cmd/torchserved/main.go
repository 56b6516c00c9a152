package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"torchserved/internal/config"
)

// flagValues mirrors the command-line overrides. Only flags the user set are
// applied, so a config file or environment value is never clobbered by a
// flag default.
type flagValues struct {
	configPath string
	grpcAddr   string
	httpAddr   string
	modelsDir  string
	loadMode   string
	logLevel   string
	jwtSecret  string
	privileged string
	check      bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var fv flagValues
	cmd := &cobra.Command{
		Use:           "torchserved",
		Short:         "Model serving control plane",
		Long:          "torchserved loads, serves and unloads models over gRPC, with an admin HTTP surface.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := buildConfig(cmd.Flags(), fv, os.LookupEnv)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "torchserved:", err)
				return err
			}
			if fv.check {
				fmt.Fprintln(cmd.OutOrStdout(), "configuration OK")
				return nil
			}
			if err := serve(cmd.Context(), cfg); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "torchserved:", err)
				return err
			}
			return nil
		},
	}
	bindFlags(cmd.Flags(), &fv)
	return cmd
}

func bindFlags(f *pflag.FlagSet, fv *flagValues) {
	f.StringVarP(&fv.configPath, "config", "c", "", "Path to a YAML, JSON or TOML config file")
	f.StringVar(&fv.grpcAddr, "grpc-addr", config.DefaultGRPCAddr, "gRPC listen address")
	f.StringVar(&fv.httpAddr, "http-addr", config.DefaultHTTPAddr, "Admin HTTP listen address")
	f.StringVar(&fv.modelsDir, "models-dir", "", "Directory to scan for model artifacts")
	f.StringVar(&fv.loadMode, "load-mode", "async", "LoadModel behavior: async or sync")
	f.StringVar(&fv.logLevel, "log-level", "info", "Log level: trace|debug|info|warn|error")
	f.StringVar(&fv.jwtSecret, "jwt-secret", "", "HS256 secret guarding privileged RPCs")
	f.StringVar(&fv.privileged, "privileged", "", "Comma-separated RPCs that require a token; an explicit empty value exempts every RPC")
	f.BoolVar(&fv.check, "check", false, "Validate the configuration and exit")
}

// buildConfig merges file, environment and flags, in increasing precedence,
// then fills defaults and validates the result.
func buildConfig(flags *pflag.FlagSet, fv flagValues, lookup config.LookupFunc) (config.Config, error) {
	var cfg config.Config
	if fv.configPath != "" {
		c, err := config.Load(fv.configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = c
	}
	if err := config.ApplyEnv(&cfg, lookup); err != nil {
		return config.Config{}, err
	}

	if flags.Changed("grpc-addr") {
		cfg.GRPCAddr = fv.grpcAddr
	}
	if flags.Changed("http-addr") {
		cfg.HTTPAddr = fv.httpAddr
	}
	if flags.Changed("models-dir") {
		cfg.ModelsDir = fv.modelsDir
	}
	if flags.Changed("load-mode") {
		cfg.LoadMode = strings.ToLower(fv.loadMode)
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = fv.logLevel
	}
	if flags.Changed("jwt-secret") {
		cfg.JWTSecret = fv.jwtSecret
	}
	if flags.Changed("privileged") {
		// non-nil even when empty, so the built-in defaults do not apply
		cfg.PrivilegedMethods = append([]string{}, splitCSV(fv.privileged)...)
	}

	config.ApplyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
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
