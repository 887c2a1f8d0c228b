package lexical

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"unicode"

	"codegraph/internal/chunk"
	"codegraph/internal/indexer"
	"codegraph/internal/logging"
	"codegraph/internal/store"
)

// posting is one (file, line) occurrence of a token.
type posting struct {
	filePath string
	line     int
}

// Index is the Lexical Index plugin: an in-memory inverted index over
// tokenized file content, backed by a FileContentProvider for (re)reading
// source text (spec.md §4.L).
type Index struct {
	RepoID     string
	SnapshotID string
	Provider   FileContentProvider
	Store      store.Store

	mu       sync.RWMutex
	postings map[string][]posting // token -> postings
	byFile   map[string][]string  // file path -> tokens currently indexed for it (for delete-by-file)
	chunks   []chunk.Chunk        // cached chunk list, refreshed on Rebuild/ApplyDelta

	watermark int64 // accessed via atomic, acquire/release per spec.md §5
}

// New returns a Lexical Index plugin for one repo/snapshot.
func New(repoID, snapshotID string, provider FileContentProvider, st store.Store) *Index {
	return &Index{
		RepoID:     repoID,
		SnapshotID: snapshotID,
		Provider:   provider,
		Store:      st,
		postings:   make(map[string][]posting),
		byFile:     make(map[string][]string),
	}
}

var _ indexer.IndexPlugin = (*Index)(nil)

// IndexType implements indexer.IndexPlugin.
func (idx *Index) IndexType() string { return "lexical" }

// AppliedUpTo implements indexer.IndexPlugin with acquire-ordered load.
func (idx *Index) AppliedUpTo() int64 {
	return atomic.LoadInt64(&idx.watermark)
}

func (idx *Index) advanceWatermark(txnID int64) {
	atomic.StoreInt64(&idx.watermark, txnID)
}

// ApplyDelta computes the affected file set from delta/analysis, deletes
// and re-indexes each by file path, and advances the watermark on success
// (spec.md §4.L).
func (idx *Index) ApplyDelta(ctx context.Context, delta indexer.Delta, analysis indexer.Analysis, txnID int64) (bool, int64, error) {
	start := logging.StartTimer(logging.CategoryLexical, "lexical.apply_delta")

	affected := make(map[string]bool)
	for _, c := range delta.Changes {
		affected[c.FilePath] = true
	}
	for _, f := range analysis.AffectedFiles {
		affected[f] = true
	}
	for _, r := range analysis.AffectedRegions {
		affected[r.FilePath] = true
	}
	if len(affected) == 0 {
		idx.advanceWatermark(txnID)
		start.Stop()
		return false, 0, nil
	}

	if st, err := idx.Store.GetChunks(ctx, idx.RepoID, idx.SnapshotID); err == nil {
		idx.mu.Lock()
		idx.chunks = st
		idx.mu.Unlock()
	}

	for path := range affected {
		if err := idx.reindexFile(ctx, path); err != nil {
			logging.LexicalWarn("lexical: reindex %s failed: %v", path, err)
		}
	}
	idx.advanceWatermark(txnID)
	elapsed := start.Stop()
	return true, elapsed.Milliseconds(), nil
}

// Rebuild discards the entire index and re-derives it from every chunk in
// the snapshot, grouped by file.
func (idx *Index) Rebuild(ctx context.Context, repoID, snapshotID string, txnID int64) error {
	chunks, err := idx.Store.GetChunks(ctx, repoID, snapshotID)
	if err != nil {
		return err
	}

	idx.mu.Lock()
	idx.RepoID, idx.SnapshotID = repoID, snapshotID
	idx.chunks = chunks
	idx.postings = make(map[string][]posting)
	idx.byFile = make(map[string][]string)
	idx.mu.Unlock()

	files := make(map[string]bool)
	for _, c := range chunks {
		if c.FilePath != "" {
			files[c.FilePath] = true
		}
	}
	for path := range files {
		if err := idx.reindexFile(ctx, path); err != nil {
			logging.LexicalWarn("lexical: rebuild reindex %s failed: %v", path, err)
		}
	}
	idx.advanceWatermark(txnID)
	logging.LexicalDebug("lexical: rebuilt over %d files", len(files))
	return nil
}

func (idx *Index) reindexFile(ctx context.Context, path string) error {
	idx.deleteFile(path)

	content, degraded, err := idx.Provider.GetFileContent(ctx, idx.RepoID, idx.SnapshotID, path)
	if err != nil {
		return err
	}
	if degraded {
		logging.LexicalDebug("lexical: degraded content for %s (no file-level chunk, synthesized from chunk FQNs)", path)
	}
	if content == "" {
		return nil
	}

	lines := strings.Split(content, "\n")
	idx.mu.Lock()
	defer idx.mu.Unlock()
	tokenSet := make(map[string]bool)
	for i, line := range lines {
		for _, tok := range tokenizeLine(line) {
			idx.postings[tok] = append(idx.postings[tok], posting{filePath: path, line: i + 1})
			tokenSet[tok] = true
		}
	}
	idx.byFile[path] = sortedKeys(tokenSet)
	return nil
}

// deleteFile removes every posting this file previously contributed,
// matching spec.md §4.L's "delete by file_path term" step.
func (idx *Index) deleteFile(path string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for _, tok := range idx.byFile[path] {
		kept := idx.postings[tok][:0]
		for _, p := range idx.postings[tok] {
			if p.filePath != path {
				kept = append(kept, p)
			}
		}
		if len(kept) == 0 {
			delete(idx.postings, tok)
		} else {
			idx.postings[tok] = kept
		}
	}
	delete(idx.byFile, path)
}

// tokenizeLine lowercases and splits on non-alphanumeric runes.
func tokenizeLine(line string) []string {
	var tokens []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for _, r := range line {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			cur.WriteRune(unicode.ToLower(r))
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

// Search implements indexer.IndexPlugin: tokenize query, rank (file, line)
// pairs by matching-token count, and resolve each hit to a chunk per spec.md §4.L's
// priority scheme.
func (idx *Index) Search(ctx context.Context, query string, limit int) ([]indexer.SearchHit, error) {
	queryTokens := tokenizeLine(query)
	if len(queryTokens) == 0 {
		return nil, nil
	}

	idx.mu.RLock()
	type key struct {
		file string
		line int
	}
	counts := make(map[key]int)
	for _, tok := range queryTokens {
		for _, p := range idx.postings[tok] {
			counts[key{p.filePath, p.line}]++
		}
	}
	chunksSnapshot := idx.chunks
	idx.mu.RUnlock()

	type scored struct {
		key
		matches int
	}
	var ranked []scored
	for k, c := range counts {
		ranked = append(ranked, scored{k, c})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].matches > ranked[j].matches })

	if limit <= 0 || limit > len(ranked) {
		limit = len(ranked)
	}
	out := make([]indexer.SearchHit, 0, limit)
	for _, r := range ranked[:limit] {
		chunkID, score, warned := resolveChunk(chunksSnapshot, idx.RepoID, r.file, r.line)
		if warned {
			logging.LexicalDebug("lexical: search hit %s:%d has no backing chunk, using virtual id", r.file, r.line)
		}
		out = append(out, indexer.SearchHit{FilePath: r.file, Line: r.line, ChunkID: chunkID, Score: score * (1.0 + 0.01*float64(r.matches))})
	}
	return out, nil
}
