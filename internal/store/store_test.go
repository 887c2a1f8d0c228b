package store_test

import (
	"context"
	"testing"
	"time"

	"codegraph/internal/chunk"
	"codegraph/internal/store"
	"codegraph/internal/store/embedded"
	"codegraph/internal/store/server"
)

// adapters returns one constructor per Store implementation, so every test
// in this file runs identically against both (spec.md §4.D: the two
// adapters share one semantic contract).
func adapters(t *testing.T) map[string]store.Store {
	t.Helper()
	emb, err := embedded.Open(":memory:")
	if err != nil {
		t.Fatalf("embedded.Open: %v", err)
	}
	t.Cleanup(func() { emb.Close() })

	srv, err := server.Open(":memory:")
	if err != nil {
		t.Fatalf("server.Open: %v", err)
	}
	t.Cleanup(func() { srv.Close() })

	return map[string]store.Store{"embedded": emb, "server": srv}
}

func seedRepoAndSnapshot(t *testing.T, ctx context.Context, s store.Store, repoID, snapshotID string) {
	t.Helper()
	if err := s.SaveRepository(ctx, store.Repository{RepoID: repoID, Name: "demo"}); err != nil {
		t.Fatalf("SaveRepository: %v", err)
	}
	if err := s.SaveSnapshot(ctx, store.Snapshot{SnapshotID: snapshotID, RepoID: repoID, Branch: "main", CreatedAt: time.Unix(0, 0).UTC()}); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
}

// TestIncrementalReindexSkipsUnchangedFiles is scenario S1 (spec.md §8):
// a file whose content hash is unchanged since the last indexed transaction
// is detected via GetFileHash before any chunk work is redone.
func TestIncrementalReindexSkipsUnchangedFiles(t *testing.T) {
	for name, s := range adapters(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seedRepoAndSnapshot(t, ctx, s, "r1", "r1:main")

			hash := chunk.ContentHash("func Foo() {}\n")
			if err := s.SaveFileMetadata(ctx, store.FileMetadata{
				RepoID: "r1", SnapshotID: "r1:main", FilePath: "a.go", ContentHash: hash, LastIndexedTxn: 1,
			}); err != nil {
				t.Fatalf("SaveFileMetadata: %v", err)
			}

			got, ok, err := s.GetFileHash(ctx, "r1", "r1:main", "a.go")
			if err != nil {
				t.Fatalf("GetFileHash: %v", err)
			}
			if !ok {
				t.Fatalf("expected a stored hash for a.go")
			}
			if got != hash {
				t.Fatalf("hash mismatch: got %s want %s", got, hash)
			}

			// Re-submitting the identical hash is the pipeline's early-cutoff
			// check; it should still report the same (unchanged) hash, not error.
			again, ok, err := s.GetFileHash(ctx, "r1", "r1:main", "a.go")
			if err != nil || !ok || again != hash {
				t.Fatalf("expected idempotent hash lookup, got hash=%s ok=%v err=%v", again, ok, err)
			}

			_, ok, _ = s.GetFileHash(ctx, "r1", "r1:main", "never-indexed.go")
			if ok {
				t.Fatalf("expected no stored hash for a file never indexed")
			}
		})
	}
}

// TestSoftDeleteRevive is scenario S2 (spec.md §8): deleting a file's
// chunks marks them is_deleted and excludes them from GetChunks; a
// subsequent SaveChunks for the same chunk_id revives it (is_deleted
// cleared, version bumped) rather than erroring on a stale row.
func TestSoftDeleteRevive(t *testing.T) {
	for name, s := range adapters(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seedRepoAndSnapshot(t, ctx, s, "r1", "r1:main")

			c := chunk.Chunk{
				ChunkID: chunk.ID("r1", chunk.KindFunction, "pkg.Foo"), RepoID: "r1", SnapshotID: "r1:main",
				Kind: chunk.KindFunction, FilePath: "a.go", FQN: "pkg.Foo", StartLine: 1, EndLine: 3,
				ContentHash: chunk.ContentHash("func Foo() {}"), Content: "func Foo() {}",
			}
			if err := s.SaveChunk(ctx, c); err != nil {
				t.Fatalf("SaveChunk: %v", err)
			}

			before, err := s.GetChunks(ctx, "r1", "r1:main")
			if err != nil || len(before) != 1 {
				t.Fatalf("expected 1 live chunk before delete, got %d (err=%v)", len(before), err)
			}

			if err := s.SoftDeleteFileChunks(ctx, "r1", "r1:main", "a.go"); err != nil {
				t.Fatalf("SoftDeleteFileChunks: %v", err)
			}

			afterDelete, err := s.GetChunks(ctx, "r1", "r1:main")
			if err != nil || len(afterDelete) != 0 {
				t.Fatalf("expected 0 live chunks after delete, got %d (err=%v)", len(afterDelete), err)
			}

			// Revive: same chunk_id reappears in a later commit with new content.
			c.Content = "func Foo() { return }"
			c.ContentHash = chunk.ContentHash(c.Content)
			if err := s.SaveChunk(ctx, c); err != nil {
				t.Fatalf("SaveChunk (revive): %v", err)
			}

			revived, err := s.GetChunks(ctx, "r1", "r1:main")
			if err != nil || len(revived) != 1 {
				t.Fatalf("expected 1 live chunk after revive, got %d (err=%v)", len(revived), err)
			}
			if revived[0].IsDeleted {
				t.Fatalf("expected revived chunk to have is_deleted cleared")
			}
			if revived[0].Content != "func Foo() { return }" {
				t.Fatalf("expected revived chunk to carry the new content, got %q", revived[0].Content)
			}
		})
	}
}

func TestSaveChunksUpsertOverwritesContent(t *testing.T) {
	for name, s := range adapters(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seedRepoAndSnapshot(t, ctx, s, "r1", "r1:main")

			id := chunk.ID("r1", chunk.KindFunction, "pkg.Bar")
			first := chunk.Chunk{ChunkID: id, RepoID: "r1", SnapshotID: "r1:main", Kind: chunk.KindFunction, FilePath: "b.go", FQN: "pkg.Bar", Content: "v1"}
			second := chunk.Chunk{ChunkID: id, RepoID: "r1", SnapshotID: "r1:main", Kind: chunk.KindFunction, FilePath: "b.go", FQN: "pkg.Bar", Content: "v2"}

			if err := s.SaveChunks(ctx, []chunk.Chunk{first}); err != nil {
				t.Fatalf("SaveChunks(first): %v", err)
			}
			if err := s.SaveChunks(ctx, []chunk.Chunk{second}); err != nil {
				t.Fatalf("SaveChunks(second): %v", err)
			}

			got, err := s.GetChunks(ctx, "r1", "r1:main")
			if err != nil || len(got) != 1 {
				t.Fatalf("expected exactly one chunk after upsert, got %d (err=%v)", len(got), err)
			}
			if got[0].Content != "v2" {
				t.Fatalf("expected upsert to overwrite content, got %q", got[0].Content)
			}
		})
	}
}

func TestTransitiveDependenciesBFS(t *testing.T) {
	for name, s := range adapters(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seedRepoAndSnapshot(t, ctx, s, "r1", "r1:main")

			edges := []store.Dependency{
				{FromChunkID: "a", ToChunkID: "b", Relationship: "calls"},
				{FromChunkID: "b", ToChunkID: "c", Relationship: "calls"},
				{FromChunkID: "c", ToChunkID: "a", Relationship: "calls"}, // cycle
			}
			for _, d := range edges {
				if err := s.SaveDependency(ctx, d); err != nil {
					t.Fatalf("SaveDependency: %v", err)
				}
			}

			got, err := s.GetTransitiveDependencies(ctx, "a", 5)
			if err != nil {
				t.Fatalf("GetTransitiveDependencies: %v", err)
			}
			seen := map[string]bool{}
			for _, id := range got {
				seen[id] = true
			}
			if !seen["b"] || !seen["c"] {
				t.Fatalf("expected transitive closure to include b and c, got %v", got)
			}
			if seen["a"] {
				t.Fatalf("expected the cycle back to the start node not to be re-reported, got %v", got)
			}
		})
	}
}

func TestSearchContentFindsSubstring(t *testing.T) {
	for name, s := range adapters(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seedRepoAndSnapshot(t, ctx, s, "r1", "r1:main")

			c := chunk.Chunk{ChunkID: "c1", RepoID: "r1", SnapshotID: "r1:main", Kind: chunk.KindFunction, FilePath: "a.go", FQN: "pkg.Foo", Content: "func ParseToken(s string) Token"}
			if err := s.SaveChunk(ctx, c); err != nil {
				t.Fatalf("SaveChunk: %v", err)
			}

			results, err := s.SearchContent(ctx, "ParseToken", 10)
			if err != nil {
				t.Fatalf("SearchContent: %v", err)
			}
			if len(results) != 1 || results[0].ChunkID != "c1" {
				t.Fatalf("expected one hit for c1, got %+v", results)
			}
		})
	}
}
