package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/docscope/docscope/internal/cache"
	"github.com/docscope/docscope/internal/config"
	"github.com/docscope/docscope/internal/log"
	"github.com/docscope/docscope/internal/report"
	"github.com/spf13/cobra"
)

// loadConfig builds the effective configuration: file (if found) merged
// over defaults. An explicitly specified config file that does not exist
// is an error; a missing default file is not.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return nil, err
	}

	found := config.FindConfigFile(configPath)
	if found == "" {
		if configPath != "" {
			return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, configPath)
		}
		return config.New(), nil
	}

	cfg, err := config.Load(found)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// getVerboseFlag retrieves the verbose flag from the root command.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Root().PersistentFlags().GetBool("verbose")
	if err != nil {
		return false
	}
	return verbose
}

// setupLogger creates the redacting structured logger used by all
// commands. Verbose switches the level from Warn to Debug.
func setupLogger(cmd *cobra.Command) *slog.Logger {
	logger := log.NewLogger(os.Stderr, getVerboseFlag(cmd))
	slog.SetDefault(logger)
	return logger
}

// signalContext returns a context cancelled on SIGINT/SIGTERM so an
// interrupted crawl leaves its session resumable.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return ctx, cancel
}

// openStore opens the session store from the configuration.
func openStore(cfg *config.Config, logger *slog.Logger) (*cache.Store, error) {
	opts := []cache.Option{cache.WithLogger(logger)}
	if cfg.Cache.Compression.Enabled {
		opts = append(opts, cache.WithCompression(true, cfg.Cache.Compression.Level))
	} else {
		opts = append(opts, cache.WithCompression(false, 0))
	}

	store, err := cache.NewStore(cfg.SessionsDir(), opts...)
	if err != nil {
		return nil, fmt.Errorf("opening session store: %w", err)
	}
	return store, nil
}

// hostOf extracts the host from a crawl target for per-site config lookup.
// Targets without a scheme are treated as https.
func hostOf(target string) string {
	u, err := url.Parse(target)
	if err != nil || u.Host == "" {
		u, err = url.Parse("https://" + target)
		if err != nil {
			return ""
		}
	}
	return u.Host
}

// reportWriter builds the report writer from the output format flags.
// The returned cleanup function closes the output file when one was
// requested.
func reportWriter(cmd *cobra.Command) (report.Writer, func(), error) {
	jsonOut, err := cmd.Flags().GetBool("json")
	if err != nil {
		return nil, nil, err
	}
	markdownOut, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, nil, err
	}
	if jsonOut && markdownOut {
		return nil, nil, fmt.Errorf("--json and --markdown are mutually exclusive")
	}

	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return nil, nil, err
	}

	output := cmd.OutOrStdout()
	cleanup := func() {}
	if outputPath != "" {
		dir := filepath.Dir(outputPath)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, nil, fmt.Errorf("creating output directory: %w", err)
			}
		}
		f, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided output path is intentional
		if err != nil {
			return nil, nil, fmt.Errorf("creating output file: %w", err)
		}
		output = f
		cleanup = func() { _ = f.Close() } //nolint:errcheck // Best effort close
	}

	switch {
	case jsonOut:
		return report.NewJSONWriter(output, report.WithPrettyPrint(), report.WithVersion(getVersion())), cleanup, nil
	case markdownOut:
		return report.NewMarkdownWriter(output), cleanup, nil
	default:
		return report.NewSimpleWriter(output, report.WithVerbose(getVerboseFlag(cmd))), cleanup, nil
	}
}
