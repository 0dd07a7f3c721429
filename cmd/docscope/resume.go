package main

import (
	"fmt"

	"github.com/docscope/docscope/internal/crawler"
	"github.com/docscope/docscope/internal/pipeline"
	"github.com/spf13/cobra"
)

// NewResumeCmd creates the resume command.
func NewResumeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resume <session-id>",
		Short: "Resume an interrupted crawl session",
		Long: `Resume continues a crawl session where it left off. Already-cached pages
are kept and only the remaining URLs are fetched. Resuming a completed
session just reports its cached pages.

Find session IDs with 'docscope sessions list'.

Examples:
  # Resume an interrupted crawl
  docscope resume docs_example_com_20260830-101500_a1b2c3d4

  # Resume and write a JSON report
  docscope resume --json docs_example_com_20260830-101500_a1b2c3d4`,
		Args: cobra.ExactArgs(1),
		RunE: runResumeCmd,
	}

	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().Bool("no-history", false,
		"Skip recording the crawl in the history database")

	return cmd
}

// runResumeCmd executes the resume command.
func runResumeCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd)
	ctx, cancel := signalContext(logger)
	defer cancel()

	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}

	sessionID := args[0]
	session, ok := store.LoadSession(sessionID)
	if !ok {
		return fmt.Errorf("session not found: %s", sessionID)
	}

	writer, cleanup, err := reportWriter(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	db, err := openHistory(cmd, logger)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close() //nolint:errcheck // Best effort close
	}

	// Per-site overrides still apply on resume; auth material in
	// particular must be re-applied, it is never cached.
	siteCfg := cfg.ApplySite(hostOf(session.BaseURL))

	configOpts := []pipeline.DefaultPipelineOption{
		pipeline.WithPipelineWriters(writer),
		pipeline.WithPipelineCrawlerOptions(crawler.WithSession(sessionID)),
	}
	if db != nil {
		configOpts = append(configOpts, pipeline.WithPipelineHistory(db))
	}

	p := pipeline.DefaultPipeline(siteCfg, store,
		[]pipeline.Option{pipeline.WithLogger(logger)},
		configOpts...,
	)

	fmt.Fprintf(cmd.OutOrStdout(), "Resuming session %s (%s)...\n", sessionID, session.BaseURL)

	run := pipeline.NewRun(session.BaseURL)
	run.SessionID = sessionID
	if err := p.Execute(ctx, run); err != nil {
		return err
	}
	// The default pipeline continues on error so the report step can
	// describe a failed crawl; the failure itself lands in run.Err.
	return run.Err
}
