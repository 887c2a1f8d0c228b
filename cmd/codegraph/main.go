// Package main implements the codegraph CLI: index a repository into the
// Snapshot Store and Multi-Index Orchestrator, then query it through the
// Retriever's fusion pipeline or a single strategy directly.
//
// Command implementations are split across cmd_*.go files:
//   - main.go        - entry point, rootCmd, global flags
//   - engine.go      - engine wiring
//   - cmd_index.go   - indexCmd (full + incremental index)
//   - cmd_search.go  - searchCmd (fusion + single-strategy search)
//   - cmd_status.go  - statusCmd (per-plugin watermark report)
//   - cmd_serve.go   - serveCmd (HTTP server)
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"codegraph/internal/config"
	"codegraph/internal/logging"
)

var (
	verbose    bool
	workspace  string
	configPath string
	repoID     string
	snapshotID string

	logger *zap.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "codegraph",
	Short: "codegraph - multi-language code-graph indexer and retriever",
	Long: `codegraph builds a typed symbol/call/data-flow graph over a
repository's source and serves it through lexical, symbol, and graph-based
search, fused by intent.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		ws := workspace
		if ws == "" {
			ws, _ = os.Getwd()
		}
		if err := logging.Initialize(ws); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to initialize file logging: %v\n", err)
		}

		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default: current)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "codegraph.yaml", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&repoID, "repo", "", "Repository ID")
	rootCmd.PersistentFlags().StringVar(&snapshotID, "snapshot", "", "Snapshot ID (default: repo's current ref)")

	rootCmd.AddCommand(indexCmd, incrementalIndexCmd, searchCmd, statusCmd, serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
