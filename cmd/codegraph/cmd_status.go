package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the Multi-Index Orchestrator's per-plugin watermark",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	eng, err := openEngine()
	if err != nil {
		return fmt.Errorf("open engine: %w", err)
	}
	defer eng.store.Close()

	return printJSON(map[string]any{
		"repo_id":       repoID,
		"watermarks":    eng.orch.Watermarks(),
		"min_watermark": eng.orch.MinWatermark(),
	})
}
