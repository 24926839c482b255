// Command agentopsd serves the health, status and metrics endpoints of the
// agent resilience stack, plus LLM and NPS analysis endpoints that run
// through it.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/jonwraymond/agentops/config"
	"github.com/jonwraymond/agentops/secret"
)

var version = "dev"

type rootFlags struct {
	configPath string
	envFile    string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "agentopsd",
		Short:         "Concurrency and resilience daemon for LLM analysis agents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", os.Getenv("AGENTOPS_CONFIG"),
		"Path to the YAML configuration file (defaults only when empty)")
	root.PersistentFlags().StringVar(&flags.envFile, "env-file", ".env",
		"Dotenv file loaded before the configuration; ignored when missing")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := loadConfig(ctx, flags)
			if err != nil {
				return err
			}
			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}

			serveErr := a.serve(ctx)

			closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			return errors.Join(serveErr, a.close(closeCtx))
		},
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration",
	}
	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Load and validate the configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(cmd.Context(), flags); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "configuration is valid")
			return nil
		},
	}
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets redacted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Context(), flags)
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(redact(*cfg))
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	configCmd.AddCommand(validateCmd, showCmd)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "agentopsd %s\n", version)
		},
	}

	root.AddCommand(serveCmd, configCmd, versionCmd)
	return root
}

// loadConfig reads the dotenv file, loads and validates the configuration
// and resolves secret references.
func loadConfig(ctx context.Context, flags *rootFlags) (*config.Config, error) {
	if flags.envFile != "" {
		if err := godotenv.Load(flags.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", flags.envFile, err)
		}
	}
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ResolveSecrets(ctx, secret.NewResolver()); err != nil {
		return nil, err
	}
	return cfg, nil
}

const redacted = "[REDACTED]"

func redact(cfg config.Config) config.Config {
	if cfg.LLM.OpenAI.APIKey != "" {
		cfg.LLM.OpenAI.APIKey = redacted
	}
	if cfg.LLM.Anthropic.APIKey != "" {
		cfg.LLM.Anthropic.APIKey = redacted
	}
	if u, err := url.Parse(cfg.Cache.RedisURL); err == nil && cfg.Cache.RedisURL != "" {
		cfg.Cache.RedisURL = u.Redacted()
	}
	return cfg
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
