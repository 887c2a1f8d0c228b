package lexical_test

import (
	"context"
	"testing"

	"codegraph/internal/chunk"
	"codegraph/internal/indexer"
	"codegraph/internal/lexical"
	"codegraph/internal/store"
	"codegraph/internal/store/embedded"
)

func newTestStore(t *testing.T) *embedded.Store {
	t.Helper()
	st, err := embedded.Open(":memory:")
	if err != nil {
		t.Fatalf("embedded.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func seed(t *testing.T, st store.Store, repoID, snapshotID string, chunks []chunk.Chunk) {
	t.Helper()
	ctx := context.Background()
	if err := st.SaveRepository(ctx, store.Repository{RepoID: repoID, Name: repoID}); err != nil {
		t.Fatalf("SaveRepository: %v", err)
	}
	if err := st.SaveSnapshot(ctx, store.Snapshot{SnapshotID: snapshotID, RepoID: repoID, Branch: "main"}); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	if err := st.SaveChunks(ctx, chunks); err != nil {
		t.Fatalf("SaveChunks: %v", err)
	}
}

func fileChunk(repoID, snapshotID, path, content string) chunk.Chunk {
	return chunk.Chunk{
		ChunkID:    chunk.ID(repoID, chunk.KindFile, path),
		RepoID:     repoID,
		SnapshotID: snapshotID,
		Kind:       chunk.KindFile,
		FilePath:   path,
		FQN:        path,
		StartLine:  1,
		EndLine:    3,
		Content:    content,
	}
}

func funcChunk(repoID, snapshotID, path, fqn string, start, end int) chunk.Chunk {
	return chunk.Chunk{
		ChunkID:    chunk.ID(repoID, chunk.KindFunction, fqn),
		RepoID:     repoID,
		SnapshotID: snapshotID,
		Kind:       chunk.KindFunction,
		FilePath:   path,
		FQN:        fqn,
		StartLine:  start,
		EndLine:    end,
	}
}

func TestRebuildIndexesEveryFileAndSearchFindsToken(t *testing.T) {
	st := newTestStore(t)
	const repoID, snapID = "r1", "r1:main"
	content := "package widget\n\nfunc Render() {\n\tdraw()\n}\n"
	seed(t, st, repoID, snapID, []chunk.Chunk{
		fileChunk(repoID, snapID, "widget.go", content),
		funcChunk(repoID, snapID, "widget.go", "widget.Render", 3, 5),
	})

	idx := lexical.New(repoID, snapID, lexical.StoreProvider{Store: st}, st)
	if err := idx.Rebuild(context.Background(), repoID, snapID, 1); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if got := idx.AppliedUpTo(); got != 1 {
		t.Fatalf("AppliedUpTo: got %d, want 1", got)
	}

	hits, err := idx.Search(context.Background(), "render", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) == 0 {
		t.Fatalf("expected at least one hit for %q", "render")
	}
	if hits[0].Score != 1.0*(1.0+0.01*float64(1)) {
		// the Render line falls inside the function chunk span: exact priority tier.
		t.Fatalf("unexpected score %v for exact-chunk hit", hits[0].Score)
	}
}

func TestApplyDeltaReindexesOnlyAffectedFilesAndAdvancesWatermark(t *testing.T) {
	st := newTestStore(t)
	const repoID, snapID = "r1", "r1:main"
	seed(t, st, repoID, snapID, []chunk.Chunk{
		fileChunk(repoID, snapID, "a.go", "package a\n\nfunc Alpha() {}\n"),
		fileChunk(repoID, snapID, "b.go", "package b\n\nfunc Bravo() {}\n"),
	})

	idx := lexical.New(repoID, snapID, lexical.StoreProvider{Store: st}, st)
	if err := idx.Rebuild(context.Background(), repoID, snapID, 1); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	delta := indexer.Delta{Changes: []indexer.ChangeOp{{Kind: indexer.Modified, FilePath: "a.go"}}}
	changed, _, err := idx.ApplyDelta(context.Background(), delta, indexer.Analysis{}, 2)
	if err != nil {
		t.Fatalf("ApplyDelta: %v", err)
	}
	if !changed {
		t.Fatalf("expected ApplyDelta to report a change")
	}
	if got := idx.AppliedUpTo(); got != 2 {
		t.Fatalf("AppliedUpTo: got %d, want 2", got)
	}

	hits, err := idx.Search(context.Background(), "bravo", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) == 0 {
		t.Fatalf("expected b.go's untouched postings to still be searchable")
	}
}

func TestApplyDeltaWithNoAffectedFilesIsANoOp(t *testing.T) {
	st := newTestStore(t)
	const repoID, snapID = "r1", "r1:main"
	idx := lexical.New(repoID, snapID, lexical.StoreProvider{Store: st}, st)

	changed, cost, err := idx.ApplyDelta(context.Background(), indexer.Delta{}, indexer.Analysis{}, 5)
	if err != nil {
		t.Fatalf("ApplyDelta: %v", err)
	}
	if changed || cost != 0 {
		t.Fatalf("expected no-op delta to report unchanged/zero cost, got changed=%v cost=%d", changed, cost)
	}
	if got := idx.AppliedUpTo(); got != 5 {
		t.Fatalf("AppliedUpTo: got %d, want 5 (watermark still advances on a no-op delta)", got)
	}
}

func TestSearchFallsBackToVirtualChunkIDWhenNoChunkCoversTheLine(t *testing.T) {
	st := newTestStore(t)
	const repoID, snapID = "r1", "r1:main"
	provider := fakeProvider{content: "orphan line one\norphan line two\n"}
	idx := lexical.New(repoID, snapID, provider, st)

	if err := idx.Rebuild(context.Background(), repoID, snapID, 1); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	hits, err := idx.Search(context.Background(), "orphan", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) == 0 {
		t.Fatalf("expected hits for orphan")
	}
	for _, h := range hits {
		if h.ChunkID == "" {
			t.Fatalf("expected a synthesized virtual chunk id, got empty")
		}
	}
}

// fakeProvider hands back fixed content for every file, ignoring the Store
// entirely, exercising Rebuild/Search against a FileContentProvider that
// never reports degraded (keeps the virtual-chunk-fallback test focused on
// the "no covering chunk" path rather than the degraded-content path).
type fakeProvider struct{ content string }

func (f fakeProvider) GetFileContent(ctx context.Context, repoID, snapshotID, path string) (string, bool, error) {
	return f.content, false, nil
}

func TestRebuildOnEmptySnapshotLeavesIndexSearchable(t *testing.T) {
	st := newTestStore(t)
	const repoID, snapID = "r1", "r1:main"
	if err := st.SaveRepository(context.Background(), store.Repository{RepoID: repoID, Name: repoID}); err != nil {
		t.Fatalf("SaveRepository: %v", err)
	}
	if err := st.SaveSnapshot(context.Background(), store.Snapshot{SnapshotID: snapID, RepoID: repoID, Branch: "main"}); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	idx := lexical.New(repoID, snapID, lexical.StoreProvider{Store: st}, st)
	if err := idx.Rebuild(context.Background(), repoID, snapID, 1); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	hits, err := idx.Search(context.Background(), "anything", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected no hits on an empty snapshot, got %d", len(hits))
	}
}
