package main

import (
	"context"
	"fmt"

	"github.com/docscope/docscope/internal/config"
	"github.com/docscope/docscope/internal/database"
	"github.com/docscope/docscope/internal/model"
	"github.com/spf13/cobra"
)

// NewSessionsCmd creates the sessions command group.
func NewSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect and manage cached crawl sessions",
		Long: `Sessions groups commands for the on-disk crawl cache: listing sessions,
removing old ones, deleting a specific session, and browsing the crawl
history database.`,
	}

	cmd.AddCommand(newSessionsListCmd())
	cmd.AddCommand(newSessionsCleanupCmd())
	cmd.AddCommand(newSessionsDeleteCmd())
	cmd.AddCommand(newSessionsHistoryCmd())

	return cmd
}

// newSessionsListCmd creates the sessions list subcommand.
func newSessionsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached crawl sessions",
		Long: `List shows every session in the cache, newest first, with its status,
progress, and on-disk size.

Examples:
  # All sessions
  docscope sessions list

  # Only sessions that can be resumed
  docscope sessions list --status active`,
		RunE: runSessionsListCmd,
	}

	cmd.Flags().StringP("status", "s", "",
		"Filter by status (active, completed, failed)")

	return cmd
}

// runSessionsListCmd executes the sessions list subcommand.
func runSessionsListCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := setupLogger(cmd)

	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}

	statusFlag, err := cmd.Flags().GetString("status")
	if err != nil {
		return err
	}
	status := model.SessionStatus(statusFlag)
	switch status {
	case "", model.SessionActive, model.SessionCompleted, model.SessionFailed:
	default:
		return fmt.Errorf("unknown status %q (want active, completed, or failed)", statusFlag)
	}

	summaries, err := store.ListSessions(status)
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No sessions found.")
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "  %-48s  %-9s  %-11s  %-8s  %s\n",
		"Session", "Status", "Progress", "Size", "Last modified")
	for _, s := range summaries {
		fmt.Fprintf(cmd.OutOrStdout(), "  %-48s  %-9s  %-11s  %-8s  %s\n",
			s.SessionID,
			s.Status,
			fmt.Sprintf("%d/%d", s.PagesScraped, s.PagesTotal),
			formatBytes(s.SizeBytes),
			s.LastModified.Local().Format("2006-01-02 15:04"),
		)
	}

	return nil
}

// newSessionsCleanupCmd creates the sessions cleanup subcommand.
func newSessionsCleanupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove old crawl sessions",
		Long: `Cleanup deletes sessions older than the retention window. The most
recent completed sessions are always kept regardless of age, so a site's
last good crawl survives cleanup.

Examples:
  # Use the configured retention settings
  docscope sessions cleanup

  # Aggressive cleanup keeping only the 3 newest completed sessions
  docscope sessions cleanup --max-age-days 7 --keep-completed 3`,
		RunE: runSessionsCleanupCmd,
	}

	cmd.Flags().Int("max-age-days", config.DefaultMaxAgeDays,
		"Delete sessions last modified more than this many days ago")
	cmd.Flags().Int("keep-completed", config.DefaultKeepCompleted,
		"Always keep this many recent completed sessions")

	return cmd
}

// runSessionsCleanupCmd executes the sessions cleanup subcommand.
func runSessionsCleanupCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := setupLogger(cmd)

	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}

	maxAgeDays := cfg.Cache.MaxAgeDays
	if cmd.Flags().Changed("max-age-days") {
		if maxAgeDays, err = cmd.Flags().GetInt("max-age-days"); err != nil {
			return err
		}
	}
	keepCompleted := cfg.Cache.KeepCompleted
	if cmd.Flags().Changed("keep-completed") {
		if keepCompleted, err = cmd.Flags().GetInt("keep-completed"); err != nil {
			return err
		}
	}

	removed, err := store.CleanupOldSessions(maxAgeDays, keepCompleted)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d session(s).\n", removed)
	return nil
}

// newSessionsDeleteCmd creates the sessions delete subcommand.
func newSessionsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a specific crawl session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := setupLogger(cmd)

			store, err := openStore(cfg, logger)
			if err != nil {
				return err
			}

			if err := store.DeleteSession(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %s.\n", args[0])
			return nil
		},
	}
}

// newSessionsHistoryCmd creates the sessions history subcommand.
func newSessionsHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history [domain]",
		Short: "Show recorded crawl history",
		Long: `History reads the crawl history database and prints past crawls,
newest first. With a domain argument only that domain's crawls are shown;
without one, all recorded domains are listed with their latest crawl.

Examples:
  # All domains
  docscope sessions history

  # One domain's crawl history
  docscope sessions history docs.example.com`,
		Args: cobra.MaximumNArgs(1),
		RunE: runSessionsHistoryCmd,
	}
}

// runSessionsHistoryCmd executes the sessions history subcommand.
func runSessionsHistoryCmd(cmd *cobra.Command, args []string) error {
	setupLogger(cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	db, err := database.Open(config.HistoryDBDir(), database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("opening history database: %w", err)
	}
	defer db.Close() //nolint:errcheck // Best effort close

	if len(args) == 1 {
		entries, err := db.History(ctx, args[0])
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No crawl history for %s.\n", args[0])
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "  %-20s  %-9s  %-9s  %-9s  %s\n",
			"Date", "Status", "Scraped", "Failed", "Session")
		for _, e := range entries {
			fmt.Fprintf(cmd.OutOrStdout(), "  %-20s  %-9s  %-9d  %-9d  %s\n",
				e.Timestamp.Local().Format("2006-01-02 15:04"),
				e.Status, e.PagesScraped, e.PagesFailed, e.SessionID)
		}
		return nil
	}

	domains, err := db.ListDomains(ctx)
	if err != nil {
		return err
	}
	if len(domains) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No crawl history recorded.")
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "  %-32s  %-20s  %-9s  %s\n",
		"Domain", "Last crawl", "Status", "Pages")
	for _, domain := range domains {
		latest, err := db.Latest(ctx, domain)
		if err != nil || latest == nil {
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "  %-32s  %-20s  %-9s  %d/%d\n",
			domain,
			latest.Timestamp.Local().Format("2006-01-02 15:04"),
			latest.Status, latest.PagesScraped, latest.PagesTotal)
	}

	return nil
}

// formatBytes renders a byte count in a compact human form.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%cB", float64(n)/float64(div), "KMGTPE"[exp])
}
