// Package config holds codegraph's YAML-loaded configuration, grounded on
// the teacher's DefaultConfig()+Load() pattern: typed nested sub-configs,
// a default constructor, and environment-variable overrides applied after
// the YAML merge.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"codegraph/internal/logging"
)

// Config holds all codegraph configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	Store      StoreConfig      `yaml:"store"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	PointsTo   PointsToConfig   `yaml:"points_to"`
	Importance ImportanceConfig `yaml:"importance"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Logging    LoggingConfig    `yaml:"logging"`
	Server     ServerConfig     `yaml:"server"`
}

// StoreConfig selects and configures the Snapshot Store adapter.
type StoreConfig struct {
	// Adapter is "embedded" (modernc.org/sqlite) or "server" (mattn/go-sqlite3).
	Adapter  string `yaml:"adapter"`
	DSN      string `yaml:"dsn"`
	RepoID   string `yaml:"repo_id"`
	MaxConns int    `yaml:"max_conns"`
}

// PipelineConfig tunes the Pipeline Orchestrator's concurrency and timeouts.
type PipelineConfig struct {
	MaxParallelFiles int    `yaml:"max_parallel_files"`
	StageTimeout     string `yaml:"stage_timeout"`
}

// PointsToConfig tunes the Points-to Engine's mode selection.
type PointsToConfig struct {
	Mode               string `yaml:"mode"` // "andersen", "steensgaard", "auto"
	AutoThreshold      int    `yaml:"auto_threshold"`
	WorklistBatchSize  int    `yaml:"worklist_batch_size"`
	TaintSensitive     bool   `yaml:"taint_sensitive"`
}

// ImportanceConfig tunes the Importance Engine.
type ImportanceConfig struct {
	Damping       float64 `yaml:"damping"`
	MaxIterations int     `yaml:"max_iterations"`
	Tolerance     float64 `yaml:"tolerance"`
}

// RetrievalConfig tunes Retriever/Fusion's RRF constants.
type RetrievalConfig struct {
	KVec   float64 `yaml:"k_vec"`
	KLex   float64 `yaml:"k_lex"`
	KSym   float64 `yaml:"k_sym"`
	KGraph float64 `yaml:"k_graph"`
	TopK   int     `yaml:"top_k"`
}

// LoggingConfig mirrors logging.Configure's parameters.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Categories map[string]bool `yaml:"categories"`
	Level      string          `yaml:"level"`
	JSONFormat bool            `yaml:"json_format"`
}

// ServerConfig tunes the HTTP surface (internal/server).
type ServerConfig struct {
	ListenAddr      string `yaml:"listen_addr"`
	FanoutTimeout   string `yaml:"fanout_timeout"`
	MaxIndexPayload int64  `yaml:"max_index_payload_bytes"`
}

// DefaultConfig returns the baseline configuration before YAML/env overrides.
func DefaultConfig() *Config {
	return &Config{
		Name:    "codegraph",
		Version: "0.1.0",

		Store: StoreConfig{
			Adapter:  "embedded",
			DSN:      "data/codegraph.db",
			MaxConns: 1,
		},

		Pipeline: PipelineConfig{
			MaxParallelFiles: 8,
			StageTimeout:     "5m",
		},

		PointsTo: PointsToConfig{
			Mode:              "auto",
			AutoThreshold:     3000,
			WorklistBatchSize: 256,
			TaintSensitive:    true,
		},

		Importance: ImportanceConfig{
			Damping:       0.85,
			MaxIterations: 10,
			Tolerance:     1e-4,
		},

		Retrieval: RetrievalConfig{
			KVec:   70,
			KLex:   70,
			KSym:   50,
			KGraph: 50,
			TopK:   20,
		},

		Logging: LoggingConfig{
			Level: "info",
		},

		Server: ServerConfig{
			ListenAddr:      ":8080",
			FanoutTimeout:   "10s",
			MaxIndexPayload: 64 << 20,
		},
	}
}

// Load reads YAML from path over the defaults; a missing file returns
// defaults (with env overrides still applied) rather than erroring.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	logging.Boot("loading config from %s", path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Boot("config file not found, using defaults: %s", path)
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration as YAML to path.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) applyEnvOverrides() {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		c.Store.DSN = dsn
	}
	if adapter := os.Getenv("CODEGRAPH_STORE_ADAPTER"); adapter != "" {
		c.Store.Adapter = adapter
	}
	if repo := os.Getenv("CODEGRAPH_REPO_ID"); repo != "" {
		c.Store.RepoID = repo
	}
	if level := os.Getenv("CODEGRAPH_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if mode := os.Getenv("CODEGRAPH_POINTSTO_MODE"); mode != "" {
		c.PointsTo.Mode = mode
	}
	if addr := os.Getenv("CODEGRAPH_LISTEN_ADDR"); addr != "" {
		c.Server.ListenAddr = addr
	}
}

// StageTimeoutDuration parses PipelineConfig.StageTimeout, defaulting to 5
// minutes on an unparseable value.
func (c *Config) StageTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Pipeline.StageTimeout)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}

// FanoutTimeoutDuration parses ServerConfig.FanoutTimeout, defaulting to 10
// seconds on an unparseable value.
func (c *Config) FanoutTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Server.FanoutTimeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// Validate checks invariants that would otherwise surface as a confusing
// error deep inside a store adapter or pipeline run.
func (c *Config) Validate() error {
	switch c.Store.Adapter {
	case "embedded", "server":
	default:
		return fmt.Errorf("invalid store adapter %q (valid: embedded, server)", c.Store.Adapter)
	}
	switch c.PointsTo.Mode {
	case "andersen", "steensgaard", "auto":
	default:
		return fmt.Errorf("invalid points-to mode %q (valid: andersen, steensgaard, auto)", c.PointsTo.Mode)
	}
	if c.Pipeline.MaxParallelFiles < 1 {
		return fmt.Errorf("pipeline.max_parallel_files must be >= 1")
	}
	return nil
}
