// Package embedded implements the Snapshot Store on modernc.org/sqlite, the
// pure-Go driver used by the CLI and embedded/dev deployments that can't
// carry a cgo toolchain (spec.md §4.D). See internal/store/server for the
// cgo-backed production adapter; both share internal/store/sqlitecommon.
package embedded

import (
	"context"
	"database/sql"

	_ "modernc.org/sqlite"

	"codegraph/internal/chunk"
	"codegraph/internal/cgerr"
	"codegraph/internal/store"
	"codegraph/internal/store/sqlitecommon"
)

// Store is the modernc.org/sqlite-backed adapter.
type Store struct {
	db *sqlitecommon.DB
}

// Open opens (creating if absent) a single-file sqlite database at path.
// path may be ":memory:" for ephemeral/test use.
func Open(path string) (*Store, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, cgerr.Wrap(cgerr.KindStorage, "embedded.Open", "open sqlite", err)
	}
	// Pure-Go driver: serialize writers to avoid SQLITE_BUSY under concurrent
	// pipeline stages (spec.md §4.E parallel L1, single-writer store).
	sqlDB.SetMaxOpenConns(1)

	db, err := sqlitecommon.Open(sqlDB, nil)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) SaveRepository(ctx context.Context, repo store.Repository) error {
	return s.db.SaveRepository(ctx, repo.RepoID, repo.Name, repo.RemoteURL)
}

func (s *Store) SaveSnapshot(ctx context.Context, snap store.Snapshot) error {
	return s.db.SaveSnapshot(ctx, snap.SnapshotID, snap.RepoID, snap.CommitHash, snap.Branch, snap.CreatedAt)
}

func (s *Store) SaveChunk(ctx context.Context, c chunk.Chunk) error {
	return s.db.SaveChunk(ctx, c)
}

func (s *Store) SaveChunks(ctx context.Context, cs []chunk.Chunk) error {
	return s.db.SaveChunks(ctx, cs)
}

func (s *Store) GetChunks(ctx context.Context, repoID, snapshotID string) ([]chunk.Chunk, error) {
	return s.db.GetChunks(ctx, repoID, snapshotID)
}

func (s *Store) SoftDeleteFileChunks(ctx context.Context, repoID, snapshotID, path string) error {
	return s.db.SoftDeleteFileChunks(ctx, repoID, snapshotID, path)
}

func (s *Store) SaveFileMetadata(ctx context.Context, fm store.FileMetadata) error {
	return s.db.SaveFileMetadata(ctx, fm.RepoID, fm.SnapshotID, fm.FilePath, fm.ContentHash, fm.LastIndexedTxn)
}

func (s *Store) GetFileHash(ctx context.Context, repoID, snapshotID, path string) (string, bool, error) {
	return s.db.GetFileHash(ctx, repoID, snapshotID, path)
}

func (s *Store) SaveDependency(ctx context.Context, d store.Dependency) error {
	return s.db.SaveDependency(ctx, d.FromChunkID, d.ToChunkID, d.Relationship, d.Attrs)
}

func (s *Store) GetTransitiveDependencies(ctx context.Context, chunkID string, maxDepth int) ([]string, error) {
	return s.db.GetTransitiveDependencies(ctx, chunkID, maxDepth)
}

func (s *Store) SearchContent(ctx context.Context, query string, limit int) ([]store.SearchResult, error) {
	hits, err := s.db.SearchContent(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	out := make([]store.SearchResult, len(hits))
	for i, h := range hits {
		// LIKE has no notion of rank; every hit ties at score 1, letting the
		// Multi-Index Orchestrator's own scoring dominate fusion (spec.md §4.N).
		out[i] = store.SearchResult{ChunkID: h.ChunkID, Snippet: h.Snippet, Score: 1.0}
	}
	return out, nil
}

var _ store.Store = (*Store)(nil)
