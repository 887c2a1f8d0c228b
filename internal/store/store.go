// Package store defines the Snapshot Store contract (spec.md §4.D): a
// content-addressed chunk/dependency/file-metadata store with soft-delete
// and UPSERT semantics, implemented identically by two adapters —
// internal/store/embedded (modernc.org/sqlite, single file, CLI/dev) and
// internal/store/server (mattn/go-sqlite3, the indexed production shape).
// Both share internal/store/sqlitecommon so the semantic contract lives in
// one place.
package store

import (
	"context"
	"time"

	"codegraph/internal/chunk"
)

// Repository is a (repo_id, name, remote_url) tuple.
type Repository struct {
	RepoID    string
	Name      string
	RemoteURL string
}

// Snapshot is an immutable (repo, ref) view, identified by
// "{repo_id}:{ref}".
type Snapshot struct {
	SnapshotID string
	RepoID     string
	CommitHash string
	Branch     string
	CreatedAt  time.Time
}

// Dependency is a (from_chunk_id, to_chunk_id, relationship) edge, unique on
// the triple.
type Dependency struct {
	FromChunkID  string
	ToChunkID    string
	Relationship string
	Attrs        map[string]string
}

// FileMetadata enables early-cutoff: skip re-analysis when a file's content
// hash is unchanged since the last indexed transaction.
type FileMetadata struct {
	RepoID         string
	SnapshotID     string
	FilePath       string
	ContentHash    string
	LastIndexedTxn int64
}

// SearchResult is one hit from Store.SearchContent's native full-text path.
type SearchResult struct {
	ChunkID string
	Snippet string
	Score   float64
}

// Store is the operation set every adapter implements identically. All
// operations are idempotent and return deterministic errors — never panic
// (spec.md §4.D).
type Store interface {
	SaveRepository(ctx context.Context, repo Repository) error
	SaveSnapshot(ctx context.Context, snap Snapshot) error

	SaveChunk(ctx context.Context, c chunk.Chunk) error
	SaveChunks(ctx context.Context, cs []chunk.Chunk) error

	// GetChunks returns every non-deleted chunk for (repo, snapshot).
	GetChunks(ctx context.Context, repoID, snapshotID string) ([]chunk.Chunk, error)

	// SoftDeleteFileChunks marks every chunk under path as deleted without
	// removing rows (chunks are never hard-deleted).
	SoftDeleteFileChunks(ctx context.Context, repoID, snapshotID, path string) error

	SaveFileMetadata(ctx context.Context, fm FileMetadata) error
	GetFileHash(ctx context.Context, repoID, snapshotID, path string) (string, bool, error)

	SaveDependency(ctx context.Context, d Dependency) error

	// GetTransitiveDependencies does a BFS over dependencies up to maxDepth,
	// using a visited set to avoid cycles.
	GetTransitiveDependencies(ctx context.Context, chunkID string, maxDepth int) ([]string, error)

	// SearchContent is the adapter's native full-text search, used as a
	// fallback when no dedicated lexical index plugin is registered.
	SearchContent(ctx context.Context, query string, limit int) ([]SearchResult, error)

	Close() error
}
