package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"codegraph/internal/config"
	"codegraph/internal/parser"
)

func setupCLITest(t *testing.T) {
	t.Helper()
	logger = zap.NewNop()
	cfg = config.DefaultConfig()
	cfg.Store.Adapter = "embedded"
	cfg.Store.DSN = ":memory:"
	repoID = "r1"
	snapshotID = "s1"
	t.Cleanup(func() { repoID = ""; snapshotID = "" })
}

func TestIndexCmdWalksAndCommitsAGoFile(t *testing.T) {
	setupCLITest(t)

	dir := t.TempDir()
	src := "package main\n\nfunc greet() string {\n\treturn \"hello\"\n}\n"
	if err := os.WriteFile(filepath.Join(dir, "main.go"), []byte(src), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cmd := &cobra.Command{}
	if err := runIndex(cmd, []string{dir}); err != nil {
		t.Fatalf("runIndex: %v", err)
	}
}

func TestIndexCmdRequiresRepoID(t *testing.T) {
	setupCLITest(t)
	repoID = ""

	cmd := &cobra.Command{}
	if err := runIndex(cmd, []string{t.TempDir()}); err == nil {
		t.Fatal("expected an error when --repo is unset")
	}
}

func TestStatusCmdReportsWatermarksAfterIndex(t *testing.T) {
	setupCLITest(t)

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if err := runIndex(&cobra.Command{}, []string{dir}); err != nil {
		t.Fatalf("runIndex: %v", err)
	}
	if err := runStatus(&cobra.Command{}, nil); err != nil {
		t.Fatalf("runStatus: %v", err)
	}
}

func TestCollectSourceFilesSkipsDotDirsAndUnrecognizedExtensions(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, ".git"), 0755); err != nil {
		t.Fatalf("mkdir .git: %v", err)
	}
	os.WriteFile(filepath.Join(dir, ".git", "config"), []byte("ignored"), 0644)
	os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0644)
	os.WriteFile(filepath.Join(dir, "README.md"), []byte("# not source"), 0644)

	registry := parser.DefaultRegistry()
	files, err := collectSourceFiles(dir, registry)
	if err != nil {
		t.Fatalf("collectSourceFiles: %v", err)
	}
	if len(files) != 1 || files[0].Path != "main.go" {
		t.Fatalf("expected only main.go, got %+v", files)
	}
}
