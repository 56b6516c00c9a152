package ctl

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"torchserved/internal/auth"
	pb "torchserved/pkg/torchservepb"
)

// buildRootCmdWith constructs the command tree bound to cfg.
func buildRootCmdWith(cfg *Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "torchctl",
		Short:         "Manage models on a torchserved control plane",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfg.Addr, "addr", cfg.Addr, "gRPC address of torchserved (defaults TORCHCTL_ADDR or localhost:50051)")
	root.PersistentFlags().StringVar(&cfg.Token, "token", cfg.Token, "Bearer token for privileged RPCs (defaults TORCHCTL_TOKEN)")
	root.PersistentFlags().DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Per-command deadline, 0 disables")

	root.AddCommand(loadCmd(cfg), unloadCmd(cfg), statusCmd(cfg), predictCmd(cfg), tokenCmd())

	completionCmd := &cobra.Command{Use: "completion", Short: "Generate the autocompletion script for the specified shell"}
	completionCmd.AddCommand(&cobra.Command{Use: "bash", Short: "Bash completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenBashCompletion(cmd.OutOrStdout()) }})
	completionCmd.AddCommand(&cobra.Command{Use: "zsh", Short: "Zsh completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenZshCompletion(cmd.OutOrStdout()) }})
	completionCmd.AddCommand(&cobra.Command{Use: "fish", Short: "Fish completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenFishCompletion(cmd.OutOrStdout(), true) }})
	root.AddCommand(completionCmd)
	return root
}

func printStatus(w io.Writer, st *pb.ModelStatus) {
	fmt.Fprintf(w, "%s\t%s\n", st.GetModelName(), st.GetStatus())
}

func loadCmd(cfg *Config) *cobra.Command {
	var wait bool
	var poll time.Duration
	cmd := &cobra.Command{
		Use:     "load <model>",
		Short:   "Load a model from the server catalog",
		Example: "  torchctl load resnet50 --wait",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), cfg, func(ctx context.Context, c pb.TorchServeClient) error {
				st, err := c.LoadModel(ctx, &pb.ModelRequest{ModelName: args[0]})
				if err != nil {
					return err
				}
				if wait && st.GetStatus() == "Loading" {
					st, err = waitForLoad(ctx, c, args[0], poll)
					if err != nil {
						return err
					}
				}
				printStatus(cmd.OutOrStdout(), st)
				if st.GetStatus() == "Failed" {
					return fmt.Errorf("model %s failed to load", args[0])
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&wait, "wait", false, "Poll until the model leaves Loading")
	cmd.Flags().DurationVar(&poll, "poll", 500*time.Millisecond, "Polling interval for --wait")
	return cmd
}

// waitForLoad polls GetModelStatus until the state is no longer Loading.
func waitForLoad(ctx context.Context, c pb.TorchServeClient, name string, every time.Duration) (*pb.ModelStatus, error) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for %s: %w", name, ctx.Err())
		case <-t.C:
		}
		st, err := c.GetModelStatus(ctx, &pb.ModelRequest{ModelName: name})
		if err != nil {
			return nil, err
		}
		if st.GetStatus() != "Loading" {
			return st, nil
		}
	}
}

func unloadCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "unload <model>",
		Short: "Drain and unload a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), cfg, func(ctx context.Context, c pb.TorchServeClient) error {
				st, err := c.UnloadModel(ctx, &pb.ModelRequest{ModelName: args[0]})
				if err != nil {
					return err
				}
				printStatus(cmd.OutOrStdout(), st)
				return nil
			})
		},
	}
}

func statusCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "status <model>...",
		Short: "Show the lifecycle state of models",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), cfg, func(ctx context.Context, c pb.TorchServeClient) error {
				for _, name := range args {
					st, err := c.GetModelStatus(ctx, &pb.ModelRequest{ModelName: name})
					if err != nil {
						return fmt.Errorf("%s: %w", name, err)
					}
					printStatus(cmd.OutOrStdout(), st)
				}
				return nil
			})
		},
	}
}

func predictCmd(cfg *Config) *cobra.Command {
	var input, data, output string
	cmd := &cobra.Command{
		Use:     "predict <model>",
		Short:   "Run input bytes through an Available model",
		Example: "  torchctl predict resnet50 --input cat.jpg --output out.bin\n  torchctl predict llama3 --data 'Write a haiku'",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := readInput(cmd.InOrStdin(), input, data)
			if err != nil {
				return err
			}
			return withClient(cmd.Context(), cfg, func(ctx context.Context, c pb.TorchServeClient) error {
				resp, err := c.Predict(ctx, &pb.PredictRequest{ModelName: args[0], InputData: in})
				if err != nil {
					return err
				}
				if output != "" && output != "-" {
					return os.WriteFile(output, resp.GetOutputData(), 0o644)
				}
				_, err = cmd.OutOrStdout().Write(resp.GetOutputData())
				return err
			})
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "Input file, - for stdin")
	cmd.Flags().StringVar(&data, "data", "", "Inline input")
	cmd.Flags().StringVar(&output, "output", "", "Write output to file instead of stdout")
	return cmd
}

func readInput(stdin io.Reader, path, inline string) ([]byte, error) {
	switch {
	case path != "" && inline != "":
		return nil, fmt.Errorf("--input and --data are mutually exclusive")
	case path == "-":
		return io.ReadAll(stdin)
	case path != "":
		return os.ReadFile(path)
	default:
		return []byte(inline), nil
	}
}

func tokenCmd() *cobra.Command {
	var secret, subject, issuer string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an operator token for privileged RPCs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = os.Getenv("TORCHSERVED_JWT_SECRET")
			}
			if strings.TrimSpace(secret) == "" {
				return fmt.Errorf("a signing secret is required (--secret or TORCHSERVED_JWT_SECRET)")
			}
			if issuer == "" {
				issuer = os.Getenv("TORCHSERVED_JWT_ISSUER")
			}
			iss, err := auth.NewIssuer([]byte(secret), auth.WithIssuer(issuer))
			if err != nil {
				return err
			}
			tok, err := iss.Issue(subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", "", "HS256 signing secret (defaults TORCHSERVED_JWT_SECRET)")
	cmd.Flags().StringVar(&subject, "subject", "operator", "Token subject")
	cmd.Flags().StringVar(&issuer, "issuer", "", "Token issuer (defaults TORCHSERVED_JWT_ISSUER)")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	return cmd
}
