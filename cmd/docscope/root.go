// Package main provides the entry point for the docscope CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for docscope.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docscope",
		Short: "Path-scoped website crawler with resumable sessions",
		Long: `docscope crawls a scoped section of a website (typically a documentation
subtree), extracts the readable content from each page, and caches it on disk.

Crawls are sessions: an interrupted crawl can be resumed later and only the
remaining pages are fetched. Scope rules keep the crawl inside the section
you point it at instead of wandering across the whole site.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .docscope in current or home directory)")

	// Add subcommands
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewDiscoverCmd())
	cmd.AddCommand(NewResumeCmd())
	cmd.AddCommand(NewSessionsCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
