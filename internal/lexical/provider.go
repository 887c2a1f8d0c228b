// Package lexical implements the Lexical Index (spec.md §4.L): an
// IndexPlugin (internal/indexer) backed by an in-memory inverted index over
// file content, with a degraded-fallback content provider when the
// Snapshot Store lacks a file-level chunk to reconstruct from.
package lexical

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"codegraph/internal/chunk"
	"codegraph/internal/store"
)

// FileContentProvider resolves a file's text for (re)indexing. This is
// spec.md §9 Open Question 1: rebuild's file-content reconstruction is
// implemented as this port, with a Store-backed primary and a degraded
// fallback that never fails the caller outright.
type FileContentProvider interface {
	GetFileContent(ctx context.Context, repoID, snapshotID, path string) (content string, degraded bool, err error)
}

// StoreProvider reconstructs file content from the Snapshot Store's
// file-level chunk (chunk.KindFile carries the full original source,
// internal/chunk's Builder sets Content to the file's raw text).
type StoreProvider struct {
	Store store.Store
}

// GetFileContent implements FileContentProvider primarily; when no
// file-level chunk exists it degrades to synthesizing placeholder text from
// the FQNs of whatever function/method/class chunks ARE present, one per
// line, flagged degraded so
// callers can down-rank or warn on the result.
func (p StoreProvider) GetFileContent(ctx context.Context, repoID, snapshotID, path string) (string, bool, error) {
	chunks, err := p.Store.GetChunks(ctx, repoID, snapshotID)
	if err != nil {
		return "", false, err
	}
	var fileChunk *chunk.Chunk
	var signatures []string
	for i := range chunks {
		c := &chunks[i]
		if c.FilePath != path {
			continue
		}
		if c.Kind == chunk.KindFile {
			fileChunk = c
			continue
		}
		if c.Kind == chunk.KindFunction || c.Kind == chunk.KindMethod || c.Kind == chunk.KindClass {
			signatures = append(signatures, c.FQN)
		}
	}
	if fileChunk != nil {
		return fileChunk.Content, false, nil
	}
	if len(signatures) == 0 {
		return "", true, nil
	}
	return strings.Join(signatures, "\n"), true, nil
}

// VirtualChunkScore is the fallback relevance score assigned to a search
// hit that maps to no persisted chunk at all — only a synthesized
// `virtual:{repo}:{path}:{line}` identifier (spec.md §9 Open Question 3).
// This is a documented convention, not a derived quantity.
const VirtualChunkScore = 0.5

// exactChunkScore / fileFallbackScore are the other two priority tiers
// spec.md §4.L's search contract defines.
const (
	exactChunkScore  = 1.0
	fileFallbackScore = 0.8
)

// virtualChunkID builds the synthetic identifier for a hit with no
// resolvable chunk.
func virtualChunkID(repoID, path string, line int) string {
	return fmt.Sprintf("virtual:%s:%s:%d", repoID, path, line)
}

// resolveChunk maps a (file, line) hit to a chunk ID and score per spec.md
// §4.L's priority: the narrowest function/method/class chunk containing the
// line scores 1.0; a containing file chunk scores 0.8; otherwise a
// synthetic virtual chunk ID scores VirtualChunkScore, with warned set.
func resolveChunk(chunks []chunk.Chunk, repoID, path string, line int) (chunkID string, score float64, warned bool) {
	if c, ok := chunk.FindByFileAndLine(chunks, path, line); ok {
		switch c.Kind {
		case chunk.KindFunction, chunk.KindMethod, chunk.KindClass:
			return c.ChunkID, exactChunkScore, false
		case chunk.KindFile:
			return c.ChunkID, fileFallbackScore, false
		}
	}
	return virtualChunkID(repoID, path, line), VirtualChunkScore, true
}

// sortedKeys is a small shared helper for deterministic iteration over
// token maps (search result ordering must not depend on Go's randomized
// map order).
func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
