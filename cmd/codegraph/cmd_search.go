package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	searchLimit    int
	searchStrategy string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the indexed repository",
	Long: `Runs the fusion pipeline (intent classification, four-strategy
fan-out, RRF normalization, consensus boost, intent-based cutoff) unless
--strategy restricts the query to a single index plugin's native search.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", 40, "Maximum results")
	searchCmd.Flags().StringVar(&searchStrategy, "strategy", "", "Restrict to one strategy: lexical, vector, symbol, graph")
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]
	if repoID == "" {
		return fmt.Errorf("--repo is required")
	}

	eng, err := openEngine()
	if err != nil {
		return fmt.Errorf("open engine: %w", err)
	}
	defer eng.store.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if searchStrategy != "" {
		plugin, ok := eng.orch.Plugin(searchStrategy)
		if !ok {
			return fmt.Errorf("no plugin registered for strategy %q", searchStrategy)
		}
		hits, err := plugin.Search(ctx, query, searchLimit)
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}
		return printJSON(hits)
	}

	resp := eng.retriever.Search(ctx, query, searchLimit)
	if resp.Degraded {
		logger.Warn("search degraded: one or more strategies failed")
	}
	return printJSON(resp)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
