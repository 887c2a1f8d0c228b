package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"codegraph/internal/indexer"
	"codegraph/internal/parser"
	"codegraph/internal/pipeline"
	"codegraph/internal/store"
)

var (
	indexBranch     string
	indexCommitHash string
)

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Run a full index over a repository checkout",
	Long: `Walks path (default: current directory), parses every recognized
source file, builds the chunk hierarchy, resolves cross-file references,
persists the result to the Snapshot Store, and commits the change set
through every registered index plugin.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

var incrementalIndexCmd = &cobra.Command{
	Use:   "reindex [path]",
	Short: "Re-index only the files changed since the last indexed hash",
	Long: `Like index, but skips any file whose content hash matches what
the Snapshot Store already has recorded for this (repo, snapshot) — spec.md
§4.D's early-cutoff path.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIncrementalIndex,
}

func init() {
	for _, c := range []*cobra.Command{indexCmd, incrementalIndexCmd} {
		c.Flags().StringVar(&indexBranch, "branch", "main", "Branch name recorded on the snapshot")
		c.Flags().StringVar(&indexCommitHash, "commit", "", "Commit hash recorded on the snapshot")
	}
}

func runIndex(cmd *cobra.Command, args []string) error {
	path := "."
	if len(args) == 1 {
		path = args[0]
	}
	if repoID == "" {
		return fmt.Errorf("--repo is required")
	}
	snap := snapshotID
	if snap == "" {
		snap = repoID + ":" + indexBranch
	}

	eng, err := openEngine()
	if err != nil {
		return fmt.Errorf("open engine: %w", err)
	}
	defer eng.store.Close()

	files, err := collectSourceFiles(path, eng.registry)
	if err != nil {
		return fmt.Errorf("collect files: %w", err)
	}
	logger.Info("indexing repository", zap.String("repo_id", repoID), zap.String("snapshot_id", snap), zap.Int("files", len(files)))

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := eng.store.SaveRepository(ctx, store.Repository{RepoID: repoID}); err != nil {
		return fmt.Errorf("save repository: %w", err)
	}
	if err := eng.store.SaveSnapshot(ctx, store.Snapshot{
		SnapshotID: snap,
		RepoID:     repoID,
		Branch:     indexBranch,
		CommitHash: indexCommitHash,
		CreatedAt:  time.Now(),
	}); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	run := &pipeline.RunState{RepoID: repoID, SnapshotID: snap, Files: files, ParseErrors: make(map[string]error)}
	orchestrator := pipeline.NewDefaultOrchestrator(eng.registry, eng.store, cfg.Pipeline.MaxParallelFiles)
	result, err := orchestrator.Run(ctx, run)
	if err != nil {
		return fmt.Errorf("pipeline run: %w", err)
	}
	for _, st := range result.Stages {
		logger.Info("stage complete", zap.String("stage", st.Name), zap.Duration("duration", st.Duration), zap.Error(st.Err))
	}

	session := eng.orch.BeginSession("cli", repoID, snap)
	for _, f := range files {
		session.AddChange(indexer.ChangeOp{Kind: indexer.Added, FilePath: f.Path})
	}
	commit, err := eng.orch.Commit(ctx, session.SessionID)
	eng.orch.EndSession(session.SessionID)
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	logger.Info("index complete", zap.Int64("txn_id", commit.TxnID), zap.Strings("changed", commit.Changed), zap.Int("failed_plugins", len(commit.Failed)))
	for _, f := range commit.Failed {
		logger.Warn("plugin failed on commit", zap.String("plugin", f.IndexType), zap.Error(f.Err))
	}
	return nil
}

func runIncrementalIndex(cmd *cobra.Command, args []string) error {
	path := "."
	if len(args) == 1 {
		path = args[0]
	}
	if repoID == "" {
		return fmt.Errorf("--repo is required")
	}
	snap := snapshotID
	if snap == "" {
		snap = repoID + ":" + indexBranch
	}

	eng, err := openEngine()
	if err != nil {
		return fmt.Errorf("open engine: %w", err)
	}
	defer eng.store.Close()

	allFiles, err := collectSourceFiles(path, eng.registry)
	if err != nil {
		return fmt.Errorf("collect files: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	_, toProcess := pipeline.UnchangedFiles(ctx, eng.store, repoID, snap, allFiles)
	logger.Info("incremental index", zap.Int("total", len(allFiles)), zap.Int("changed", len(toProcess)))
	if len(toProcess) == 0 {
		fmt.Println("no changed files")
		return nil
	}

	run := &pipeline.RunState{RepoID: repoID, SnapshotID: snap, Files: toProcess, ParseErrors: make(map[string]error)}
	orchestrator := pipeline.NewDefaultOrchestrator(eng.registry, eng.store, cfg.Pipeline.MaxParallelFiles)
	if _, err := orchestrator.Run(ctx, run); err != nil {
		return fmt.Errorf("pipeline run: %w", err)
	}

	session := eng.orch.BeginSession("cli", repoID, snap)
	for _, f := range toProcess {
		session.AddChange(indexer.ChangeOp{Kind: indexer.Modified, FilePath: f.Path})
	}
	commit, err := eng.orch.Commit(ctx, session.SessionID)
	eng.orch.EndSession(session.SessionID)
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	logger.Info("incremental index complete", zap.Int64("txn_id", commit.TxnID), zap.Strings("changed", commit.Changed))
	return nil
}

// collectSourceFiles walks root, keeping only files whose extension the
// parser registry recognizes.
func collectSourceFiles(root string, registry *parser.Registry) ([]pipeline.FileSource, error) {
	var out []pipeline.FileSource
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := registry.ForFile(path); !ok {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		out = append(out, pipeline.FileSource{Path: rel, Content: content})
		return nil
	})
	return out, err
}
