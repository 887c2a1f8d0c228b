package logging

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoggerNoopWhenDisabled(t *testing.T) {
	dir := t.TempDir()
	if err := Initialize(dir); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := Configure(false, nil, "info", false); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	l := Get(CategoryPipeline)
	l.Info("should not write anything")
	if IsDebugMode() {
		t.Fatalf("expected debug mode disabled")
	}
}

func TestLoggerWritesWhenEnabled(t *testing.T) {
	dir := t.TempDir()
	if err := Initialize(dir); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := Configure(true, nil, "debug", false); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	defer CloseAll()

	l := Get(CategoryStore)
	l.Info("hello %s", "world")

	logPath := filepath.Join(dir, ".codegraph", "logs")
	entries, err := os.ReadDir(logPath)
	if err != nil {
		t.Fatalf("read logs dir: %v", err)
	}
	if len(entries) == 0 {
		t.Fatalf("expected at least one log file to be created")
	}
}

func TestCategoryFilter(t *testing.T) {
	dir := t.TempDir()
	_ = Initialize(dir)
	_ = Configure(true, map[string]bool{string(CategoryStore): false}, "info", false)
	if IsCategoryEnabled(CategoryStore) {
		t.Fatalf("expected store category disabled")
	}
	if !IsCategoryEnabled(CategoryPipeline) {
		t.Fatalf("expected unlisted category enabled by default")
	}
}
