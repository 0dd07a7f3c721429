package main

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/docscope/docscope/internal/config"
	"github.com/docscope/docscope/internal/crawler"
	"github.com/docscope/docscope/internal/model"
	"github.com/spf13/cobra"
)

// NewDiscoverCmd creates the discover command.
func NewDiscoverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discover <url>",
		Short: "List the URLs a crawl would scrape, without scraping them",
		Long: `Discover walks the site from the given URL and prints every in-scope URL
with its content classification, without fetching page content beyond what
link discovery needs.

Use it to review what a crawl would cover before committing to one.

Examples:
  # Preview a documentation crawl
  docscope discover https://example.com/docs/

  # Machine-readable output
  docscope discover --json https://example.com/docs/`,
		Args: cobra.ExactArgs(1),
		RunE: runDiscoverCmd,
	}

	cmd.Flags().IntP("depth", "d", config.DefaultMaxDepth,
		"Maximum link depth from the starting URL")
	cmd.Flags().BoolP("json", "j", false, "Output the URL list as JSON")

	return cmd
}

// discoveredURL is the JSON shape for one discovered URL.
type discoveredURL struct {
	URL  string `json:"url"`
	Type string `json:"type"`
}

// runDiscoverCmd executes the discover command.
func runDiscoverCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("depth") {
		depth, err := cmd.Flags().GetInt("depth")
		if err != nil {
			return err
		}
		cfg.Crawling.MaxDepth = depth
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd)
	ctx, cancel := signalContext(logger)
	defer cancel()

	target := args[0]
	siteCfg := cfg.ApplySite(hostOf(target))

	store, err := openStore(siteCfg, logger)
	if err != nil {
		return err
	}

	controller := crawler.New(siteCfg, store, crawler.WithLogger(logger))
	urls, classifications, err := controller.DiscoverURLs(ctx, target)
	if err != nil {
		return fmt.Errorf("discovery failed: %w", err)
	}

	jsonOut, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	if jsonOut {
		list := make([]discoveredURL, 0, len(urls))
		for _, u := range urls {
			list = append(list, discoveredURL{URL: u, Type: classifications[u].String()})
		}
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(list)
	}

	// Sort by content-type priority so documentation pages lead the list.
	sorted := make([]string, len(urls))
	copy(sorted, urls)
	sort.SliceStable(sorted, func(i, j int) bool {
		return classifications[sorted[i]].Priority() < classifications[sorted[j]].Priority()
	})

	fmt.Fprintf(cmd.OutOrStdout(), "Discovered %d URLs under %s:\n\n", len(urls), target)
	for _, u := range sorted {
		ctype := classifications[u]
		fmt.Fprintf(cmd.OutOrStdout(), "  %s %-14s %s\n", ctype.Icon(), ctype, u)
	}

	counts := make(map[model.ContentType]int)
	for _, ctype := range classifications {
		counts[ctype]++
	}
	fmt.Fprintln(cmd.OutOrStdout())
	for _, ctype := range []model.ContentType{
		model.ContentTypeDocumentation, model.ContentTypeContent,
		model.ContentTypeTechnical, model.ContentTypeNavigation,
		model.ContentTypeExcluded,
	} {
		if counts[ctype] > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s: %d\n", ctype, counts[ctype])
		}
	}

	return nil
}
