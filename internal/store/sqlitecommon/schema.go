// Package sqlitecommon holds the schema DDL and chunk UPSERT/soft-delete
// logic shared by the embedded (modernc.org/sqlite) and server
// (mattn/go-sqlite3) adapters, so the two adapters carry an identical
// semantic contract (spec.md §4.D invariant) instead of two parallel
// implementations.
package sqlitecommon

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"codegraph/internal/chunk"
	"codegraph/internal/cgerr"
	"codegraph/internal/logging"
)

// baseSchema is the table shape common to both adapters (spec.md §6).
const baseSchema = `
CREATE TABLE IF NOT EXISTS repositories (
	repo_id    TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	remote_url TEXT
);

CREATE TABLE IF NOT EXISTS snapshots (
	snapshot_id TEXT PRIMARY KEY,
	repo_id     TEXT NOT NULL REFERENCES repositories(repo_id),
	commit_hash TEXT,
	branch      TEXT,
	created_at  TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS chunks (
	chunk_id            TEXT PRIMARY KEY,
	repo_id             TEXT NOT NULL REFERENCES repositories(repo_id),
	snapshot_id         TEXT NOT NULL,
	kind                TEXT NOT NULL,
	file_path           TEXT,
	fqn                 TEXT,
	parent_id           TEXT,
	start_line          INTEGER,
	end_line            INTEGER,
	original_start_line INTEGER,
	content_hash        TEXT,
	content             TEXT,
	version             INTEGER NOT NULL DEFAULT 1,
	is_deleted          INTEGER NOT NULL DEFAULT 0,
	summary             TEXT,
	importance          REAL NOT NULL DEFAULT 0,
	attrs               TEXT,
	updated_at          TIMESTAMP
);

CREATE TABLE IF NOT EXISTS dependencies (
	from_chunk_id TEXT NOT NULL,
	to_chunk_id   TEXT NOT NULL,
	relationship  TEXT NOT NULL,
	attrs         TEXT,
	PRIMARY KEY (from_chunk_id, to_chunk_id, relationship)
);

CREATE TABLE IF NOT EXISTS file_metadata (
	repo_id          TEXT NOT NULL,
	snapshot_id      TEXT NOT NULL,
	file_path        TEXT NOT NULL,
	content_hash     TEXT NOT NULL,
	last_indexed_txn INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (repo_id, snapshot_id, file_path)
);
`

// baseIndexes are created on every adapter. The server adapter layers
// additional indexes on top (internal/store/server) to reach the 12+-index
// shape spec.md §4.D requires for the production adapter.
var baseIndexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_chunks_repo_snapshot_path ON chunks(repo_id, file_path, start_line, end_line)`,
	`CREATE INDEX IF NOT EXISTS idx_chunks_fqn ON chunks(repo_id, fqn)`,
	`CREATE INDEX IF NOT EXISTS idx_deps_from ON dependencies(from_chunk_id)`,
	`CREATE INDEX IF NOT EXISTS idx_deps_to ON dependencies(to_chunk_id)`,
}

// DB wraps a *sql.DB with the shared schema and operations. Both adapters
// embed it and only differ in the sql.Open driver name and the index set
// applied in Open.
type DB struct {
	SQL *sql.DB
}

// Open wraps an already-opened *sql.DB and applies the shared schema plus
// extraIndexes (adapter-specific additions).
func Open(sqlDB *sql.DB, extraIndexes []string) (*DB, error) {
	if _, err := sqlDB.Exec(baseSchema); err != nil {
		return nil, cgerr.Wrap(cgerr.KindStorage, "sqlitecommon.Open", "failed to apply base schema", err)
	}
	for _, stmt := range append(append([]string{}, baseIndexes...), extraIndexes...) {
		if _, err := sqlDB.Exec(stmt); err != nil {
			return nil, cgerr.Wrap(cgerr.KindStorage, "sqlitecommon.Open", "failed to create index: "+stmt, err)
		}
	}
	return &DB{SQL: sqlDB}, nil
}

func (d *DB) Close() error { return d.SQL.Close() }

func (d *DB) SaveRepository(ctx context.Context, repoID, name, remoteURL string) error {
	_, err := d.SQL.ExecContext(ctx, `
		INSERT INTO repositories(repo_id, name, remote_url) VALUES (?, ?, ?)
		ON CONFLICT(repo_id) DO UPDATE SET name=excluded.name, remote_url=excluded.remote_url
	`, repoID, name, remoteURL)
	if err != nil {
		return cgerr.Wrap(cgerr.KindStorage, "DB.SaveRepository", "upsert failed", err)
	}
	return nil
}

func (d *DB) SaveSnapshot(ctx context.Context, snapshotID, repoID, commitHash, branch string, createdAt time.Time) error {
	_, err := d.SQL.ExecContext(ctx, `
		INSERT INTO snapshots(snapshot_id, repo_id, commit_hash, branch, created_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(snapshot_id) DO UPDATE SET commit_hash=excluded.commit_hash, branch=excluded.branch
	`, snapshotID, repoID, commitHash, branch, createdAt)
	if err != nil {
		return cgerr.Wrap(cgerr.KindStorage, "DB.SaveSnapshot", "upsert failed", err)
	}
	return nil
}

// SaveChunk upserts a single chunk (delegates to SaveChunks for one item so
// both call sites share the exact same SQL).
func (d *DB) SaveChunk(ctx context.Context, c chunk.Chunk) error {
	return d.SaveChunks(ctx, []chunk.Chunk{c})
}

// SaveChunks upserts every chunk in cs within a single transaction. On
// conflict: overwrite content, clear is_deleted, bump version, update
// updated_at (spec.md §4.D UPSERT semantics).
func (d *DB) SaveChunks(ctx context.Context, cs []chunk.Chunk) error {
	if len(cs) == 0 {
		return nil
	}
	tx, err := d.SQL.BeginTx(ctx, nil)
	if err != nil {
		return cgerr.Wrap(cgerr.KindStorage, "DB.SaveChunks", "begin tx", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks(chunk_id, repo_id, snapshot_id, kind, file_path, fqn, parent_id,
			start_line, end_line, original_start_line, content_hash, content, version,
			is_deleted, summary, importance, attrs, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, 0, ?, ?, ?, ?)
		ON CONFLICT(chunk_id) DO UPDATE SET
			file_path=excluded.file_path,
			fqn=excluded.fqn,
			parent_id=excluded.parent_id,
			start_line=excluded.start_line,
			end_line=excluded.end_line,
			content_hash=excluded.content_hash,
			content=excluded.content,
			version=chunks.version + 1,
			is_deleted=0,
			summary=excluded.summary,
			attrs=excluded.attrs,
			updated_at=excluded.updated_at
	`)
	if err != nil {
		return cgerr.Wrap(cgerr.KindStorage, "DB.SaveChunks", "prepare", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, c := range cs {
		_, err := stmt.ExecContext(ctx, c.ChunkID, c.RepoID, c.SnapshotID, string(c.Kind), c.FilePath, c.FQN,
			nullableString(c.ParentID), c.StartLine, c.EndLine, c.OriginalStartLine, c.ContentHash, c.Content,
			c.Summary, c.Importance, encodeAttrs(c.Attrs), now)
		if err != nil {
			return cgerr.Wrap(cgerr.KindStorage, "DB.SaveChunks", "upsert chunk "+c.ChunkID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return cgerr.Wrap(cgerr.KindStorage, "DB.SaveChunks", "commit", err)
	}
	logging.StoreDebug("upserted %d chunks", len(cs))
	return nil
}

func (d *DB) GetChunks(ctx context.Context, repoID, snapshotID string) ([]chunk.Chunk, error) {
	rows, err := d.SQL.QueryContext(ctx, `
		SELECT chunk_id, repo_id, snapshot_id, kind, file_path, fqn, parent_id, start_line, end_line,
			original_start_line, content_hash, content, version, is_deleted, summary, importance, attrs
		FROM chunks WHERE repo_id = ? AND snapshot_id = ? AND is_deleted = 0
	`, repoID, snapshotID)
	if err != nil {
		return nil, cgerr.Wrap(cgerr.KindStorage, "DB.GetChunks", "query", err)
	}
	defer rows.Close()
	return scanChunks(rows)
}

func scanChunks(rows *sql.Rows) ([]chunk.Chunk, error) {
	var out []chunk.Chunk
	for rows.Next() {
		var c chunk.Chunk
		var kind, parentID, attrs sql.NullString
		var isDeleted int
		if err := rows.Scan(&c.ChunkID, &c.RepoID, &c.SnapshotID, &kind, &c.FilePath, &c.FQN, &parentID,
			&c.StartLine, &c.EndLine, &c.OriginalStartLine, &c.ContentHash, &c.Content, &c.Version,
			&isDeleted, &c.Summary, &c.Importance, &attrs); err != nil {
			return nil, cgerr.Wrap(cgerr.KindStorage, "DB.scanChunks", "scan row", err)
		}
		c.Kind = chunk.Kind(kind.String)
		c.ParentID = parentID.String
		c.IsDeleted = isDeleted != 0
		c.Attrs = decodeAttrs(attrs.String)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (d *DB) SoftDeleteFileChunks(ctx context.Context, repoID, snapshotID, path string) error {
	_, err := d.SQL.ExecContext(ctx, `
		UPDATE chunks SET is_deleted = 1, updated_at = ?
		WHERE repo_id = ? AND snapshot_id = ? AND file_path = ?
	`, time.Now().UTC(), repoID, snapshotID, path)
	if err != nil {
		return cgerr.Wrap(cgerr.KindStorage, "DB.SoftDeleteFileChunks", "update", err)
	}
	return nil
}

func (d *DB) SaveFileMetadata(ctx context.Context, repoID, snapshotID, path, contentHash string, lastIndexedTxn int64) error {
	_, err := d.SQL.ExecContext(ctx, `
		INSERT INTO file_metadata(repo_id, snapshot_id, file_path, content_hash, last_indexed_txn)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(repo_id, snapshot_id, file_path) DO UPDATE SET
			content_hash=excluded.content_hash, last_indexed_txn=excluded.last_indexed_txn
	`, repoID, snapshotID, path, contentHash, lastIndexedTxn)
	if err != nil {
		return cgerr.Wrap(cgerr.KindStorage, "DB.SaveFileMetadata", "upsert", err)
	}
	return nil
}

func (d *DB) GetFileHash(ctx context.Context, repoID, snapshotID, path string) (string, bool, error) {
	var hash string
	err := d.SQL.QueryRowContext(ctx, `
		SELECT content_hash FROM file_metadata WHERE repo_id = ? AND snapshot_id = ? AND file_path = ?
	`, repoID, snapshotID, path).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, cgerr.Wrap(cgerr.KindStorage, "DB.GetFileHash", "query", err)
	}
	return hash, true, nil
}

func (d *DB) SaveDependency(ctx context.Context, fromID, toID, relationship string, attrs map[string]string) error {
	_, err := d.SQL.ExecContext(ctx, `
		INSERT INTO dependencies(from_chunk_id, to_chunk_id, relationship, attrs) VALUES (?, ?, ?, ?)
		ON CONFLICT(from_chunk_id, to_chunk_id, relationship) DO UPDATE SET attrs=excluded.attrs
	`, fromID, toID, relationship, encodeAttrs(attrs))
	if err != nil {
		return cgerr.Wrap(cgerr.KindStorage, "DB.SaveDependency", "upsert", err)
	}
	return nil
}

// GetTransitiveDependencies BFS over dependencies up to maxDepth with a
// visited set (spec.md §4.D).
func (d *DB) GetTransitiveDependencies(ctx context.Context, chunkID string, maxDepth int) ([]string, error) {
	visited := map[string]bool{chunkID: true}
	frontier := []string{chunkID}
	var result []string

	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		placeholders := make([]string, len(frontier))
		args := make([]interface{}, len(frontier))
		for i, id := range frontier {
			placeholders[i] = "?"
			args[i] = id
		}
		query := fmt.Sprintf(`SELECT to_chunk_id FROM dependencies WHERE from_chunk_id IN (%s)`, strings.Join(placeholders, ","))
		rows, err := d.SQL.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, cgerr.Wrap(cgerr.KindStorage, "DB.GetTransitiveDependencies", "query", err)
		}
		var next []string
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return nil, cgerr.Wrap(cgerr.KindStorage, "DB.GetTransitiveDependencies", "scan", err)
			}
			if !visited[id] {
				visited[id] = true
				result = append(result, id)
				next = append(next, id)
			}
		}
		rows.Close()
		frontier = next
	}
	return result, nil
}

// SearchHit is one LIKE-matched row; adapters convert this into their public
// store.SearchResult (which additionally carries a fusion-ready Score).
type SearchHit struct {
	ChunkID string
	Snippet string
}

// SearchContent is the adapter's native full-text fallback (SQL LIKE — the
// server adapter overrides this with an FTS5 query, see
// internal/store/server).
func (d *DB) SearchContent(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	rows, err := d.SQL.QueryContext(ctx, `
		SELECT chunk_id, substr(content, 1, 200) FROM chunks
		WHERE is_deleted = 0 AND content LIKE ? LIMIT ?
	`, "%"+query+"%", limit)
	if err != nil {
		return nil, cgerr.Wrap(cgerr.KindStorage, "DB.SearchContent", "query", err)
	}
	defer rows.Close()
	var out []SearchHit
	for rows.Next() {
		var hit SearchHit
		if err := rows.Scan(&hit.ChunkID, &hit.Snippet); err != nil {
			return nil, cgerr.Wrap(cgerr.KindStorage, "DB.SearchContent", "scan", err)
		}
		out = append(out, hit)
	}
	return out, rows.Err()
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func encodeAttrs(attrs map[string]string) string {
	if len(attrs) == 0 {
		return ""
	}
	var b strings.Builder
	first := true
	for k, v := range attrs {
		if !first {
			b.WriteByte(';')
		}
		first = false
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(v)
	}
	return b.String()
}

func decodeAttrs(s string) map[string]string {
	if s == "" {
		return nil
	}
	out := make(map[string]string)
	for _, kv := range strings.Split(s, ";") {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) == 2 {
			out[parts[0]] = parts[1]
		}
	}
	return out
}
