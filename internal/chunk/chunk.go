// Package chunk builds the six-tier chunk hierarchy (repo -> project ->
// module -> file -> class -> function/method) from parsed IR and validates
// its boundaries. Chunks are the unit the Snapshot Store persists
// (internal/store); IR documents themselves are transient (internal/ir).
package chunk

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"codegraph/internal/ir"
	"codegraph/internal/logging"
)

// Kind is one of the six semantic chunk levels, plus the framework-specific
// leaf kinds spec.md §3 lists alongside them.
type Kind string

const (
	KindRepo       Kind = "repo"
	KindProject    Kind = "project"
	KindModule     Kind = "module"
	KindFile       Kind = "file"
	KindClass      Kind = "class"
	KindFunction   Kind = "function"
	KindMethod     Kind = "method"
	KindRoute      Kind = "route"
	KindService    Kind = "service"
	KindRepository Kind = "repository"
	KindConfig     Kind = "config"
	KindJob        Kind = "job"
	KindMiddleware Kind = "middleware"
)

// kindPriority breaks find_chunk_by_file_and_line ties: function=1, class=2,
// file=3 (spec.md §4.C lookup contract).
var kindPriority = map[Kind]int{
	KindFunction: 1,
	KindMethod:   1,
	KindClass:    2,
	KindFile:     3,
}

// Chunk is a persistable code unit at one semantic level.
type Chunk struct {
	ChunkID            string
	RepoID             string
	SnapshotID         string
	Kind               Kind
	FilePath           string
	FQN                string
	ParentID           string
	StartLine          int
	EndLine            int
	OriginalStartLine  int // 0 if unset; drift tracking
	ContentHash        string
	Content            string // raw source text for this chunk's span; used by full-text indexes
	Version            int
	IsDeleted          bool
	Summary            string
	Importance         float64
	Attrs              map[string]string
}

// ID builds the bare stable chunk_id string: chunk:{repo_id}:{kind}:{fqn}
// (spec.md §6 wire format). It never adds a suffix; IDWithCollisionSuffix
// builds the suffixed form.
func ID(repoID string, kind Kind, fqn string) string {
	return fmt.Sprintf("chunk:%s:%s:%s", repoID, kind, fqn)
}

// IDWithCollisionSuffix appends a short content-hash suffix, used when a
// bare ID would collide with an existing chunk of different content.
func IDWithCollisionSuffix(repoID string, kind Kind, fqn, content string) string {
	h := ContentHash(content)
	return fmt.Sprintf("%s:%s", ID(repoID, kind, fqn), h[:8])
}

// ContentHash computes the deterministic SHA-256 over normalized text
// (trailing whitespace per line and trailing blank lines stripped, so
// formatting-only churn doesn't change the hash).
func ContentHash(content string) string {
	normalized := normalize(content)
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

func normalize(content string) string {
	lines := strings.Split(content, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t\r")
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

// Builder constructs the chunk hierarchy for one repository snapshot in
// build order: repo -> projects -> modules -> files -> classes ->
// functions/methods. Each child's ParentID points to a chunk already
// produced earlier in the same build.
type Builder struct {
	RepoID     string
	SnapshotID string
}

// FileUnit is one file's parsed content handed to the builder, paired with
// the source text needed for leaf content hashing.
type FileUnit struct {
	Doc     ir.Document
	Content string
}

// Result is the chunk build output plus any boundary warnings.
type Result struct {
	Chunks   []Chunk
	Warnings []string
}

// Build constructs the full hierarchy for a set of parsed files.
func (b *Builder) Build(files []FileUnit) Result {
	var result Result

	repoChunk := Chunk{
		ChunkID:    ID(b.RepoID, KindRepo, b.RepoID),
		RepoID:     b.RepoID,
		SnapshotID: b.SnapshotID,
		Kind:       KindRepo,
		FQN:        b.RepoID,
		Version:    1,
	}
	result.Chunks = append(result.Chunks, repoChunk)

	projects := make(map[string]Chunk) // top-level dir -> project chunk
	modules := make(map[string]Chunk)  // package-like dir -> module chunk

	// Stable file order keeps stable_id/byte-equal output across re-runs.
	sort.Slice(files, func(i, j int) bool { return files[i].Doc.FilePath < files[j].Doc.FilePath })

	for _, f := range files {
		projectName := topLevelDir(f.Doc.FilePath)
		proj, ok := projects[projectName]
		if !ok {
			proj = Chunk{
				ChunkID:    ID(b.RepoID, KindProject, projectName),
				RepoID:     b.RepoID,
				SnapshotID: b.SnapshotID,
				Kind:       KindProject,
				FQN:        projectName,
				ParentID:   repoChunk.ChunkID,
				Version:    1,
			}
			projects[projectName] = proj
			result.Chunks = append(result.Chunks, proj)
		}

		moduleName := filepath.Dir(f.Doc.FilePath)
		mod, ok := modules[moduleName]
		if !ok {
			mod = Chunk{
				ChunkID:    ID(b.RepoID, KindModule, moduleName),
				RepoID:     b.RepoID,
				SnapshotID: b.SnapshotID,
				Kind:       KindModule,
				FQN:        moduleName,
				ParentID:   proj.ChunkID,
				Version:    1,
			}
			modules[moduleName] = mod
			result.Chunks = append(result.Chunks, mod)
		}

		fileChunk := Chunk{
			ChunkID:     ID(b.RepoID, KindFile, f.Doc.FilePath),
			RepoID:      b.RepoID,
			SnapshotID:  b.SnapshotID,
			Kind:        KindFile,
			FilePath:    f.Doc.FilePath,
			FQN:         f.Doc.FilePath,
			ParentID:    mod.ChunkID,
			StartLine:   1,
			EndLine:     strings.Count(f.Content, "\n") + 1,
			ContentHash: ContentHash(f.Content),
			Content:     f.Content,
			Version:     1,
		}
		result.Chunks = append(result.Chunks, fileChunk)

		classIDs := make(map[string]string) // class FQN -> chunk ID
		for _, n := range f.Doc.Nodes {
			if n.Kind != ir.KindClass {
				continue
			}
			c := Chunk{
				ChunkID:     ID(b.RepoID, KindClass, n.FQN),
				RepoID:      b.RepoID,
				SnapshotID:  b.SnapshotID,
				Kind:        KindClass,
				FilePath:    f.Doc.FilePath,
				FQN:         n.FQN,
				ParentID:    fileChunk.ChunkID,
				StartLine:   n.Span.Start.Line + 1,
				EndLine:     n.Span.End.Line + 1,
				ContentHash: ContentHash(n.Signature),
				Content:     sliceLines(f.Content, n.Span.Start.Line+1, n.Span.End.Line+1),
				Version:     1,
			}
			classIDs[n.FQN] = c.ChunkID
			result.Chunks = append(result.Chunks, c)
		}

		for _, n := range f.Doc.Nodes {
			var kind Kind
			switch n.Kind {
			case ir.KindFunction:
				kind = KindFunction
			case ir.KindMethod:
				kind = KindMethod
			default:
				continue
			}
			parent := fileChunk.ChunkID
			if idx := strings.LastIndex(n.FQN, "."); idx >= 0 {
				if pid, ok := classIDs[n.FQN[:idx]]; ok {
					parent = pid
				}
			}
			leaf := Chunk{
				ChunkID:     ID(b.RepoID, kind, n.FQN),
				RepoID:      b.RepoID,
				SnapshotID:  b.SnapshotID,
				Kind:        kind,
				FilePath:    f.Doc.FilePath,
				FQN:         n.FQN,
				ParentID:    parent,
				StartLine:   n.Span.Start.Line + 1,
				EndLine:     n.Span.End.Line + 1,
				ContentHash: ContentHash(n.Signature),
				Content:     sliceLines(f.Content, n.Span.Start.Line+1, n.Span.End.Line+1),
				Version:     1,
			}
			result.Chunks = append(result.Chunks, leaf)
		}
	}

	warnings := ValidateBoundaries(result.Chunks)
	result.Warnings = append(result.Warnings, warnings...)
	logging.ChunkDebug("built %d chunks for repo %s (%d warnings)", len(result.Chunks), b.RepoID, len(warnings))
	return result
}

// sliceLines returns the 1-indexed inclusive [start,end] line range of
// content, clamped to the available lines.
func sliceLines(content string, start, end int) string {
	lines := strings.Split(content, "\n")
	if start < 1 {
		start = 1
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start > end || start > len(lines) {
		return ""
	}
	return strings.Join(lines[start-1:end], "\n")
}

func topLevelDir(path string) string {
	parts := strings.SplitN(filepath.ToSlash(path), "/", 2)
	if len(parts) == 0 || parts[0] == "" {
		return "."
	}
	return parts[0]
}

// ValidateBoundaries runs the boundary validator from spec.md §4.C: it
// detects child-span overlap/escape beyond the parent and oversize chunks,
// emitting warnings — never errors, since a boundary issue never aborts
// indexing (it's recorded on the chunk's attrs by the caller if desired).
func ValidateBoundaries(chunks []Chunk) []string {
	const oversizeLines = 2000 // token-threshold proxy; see spec.md §4.C
	byID := make(map[string]Chunk, len(chunks))
	for _, c := range chunks {
		byID[c.ChunkID] = c
	}

	var warnings []string
	for _, c := range chunks {
		if c.ParentID == "" {
			continue
		}
		parent, ok := byID[c.ParentID]
		if !ok || parent.StartLine == 0 {
			continue // repo/project/module chunks carry no line span
		}
		if c.StartLine < parent.StartLine || c.EndLine > parent.EndLine {
			warnings = append(warnings, fmt.Sprintf(
				"chunk %s span [%d,%d] exceeds parent %s span [%d,%d]",
				c.ChunkID, c.StartLine, c.EndLine, parent.ChunkID, parent.StartLine, parent.EndLine))
		}
		if c.EndLine-c.StartLine > oversizeLines {
			warnings = append(warnings, fmt.Sprintf("chunk %s is oversize (%d lines)", c.ChunkID, c.EndLine-c.StartLine))
		}
	}
	return warnings
}

// FindByFileAndLine returns the narrowest chunk containing line in path,
// tie-broken by kind priority (function=1, class=2, file=3) then by smaller
// span (spec.md §4.C lookup contract).
func FindByFileAndLine(chunks []Chunk, path string, line int) (Chunk, bool) {
	var best Chunk
	found := false
	bestSpan := -1
	bestPriority := 99
	for _, c := range chunks {
		if c.FilePath != path || c.IsDeleted {
			continue
		}
		if line < c.StartLine || line > c.EndLine {
			continue
		}
		prio, ok := kindPriority[c.Kind]
		if !ok {
			prio = 50
		}
		span := c.EndLine - c.StartLine
		if !found || prio < bestPriority || (prio == bestPriority && span < bestSpan) {
			best, found, bestPriority, bestSpan = c, true, prio, span
		}
	}
	return best, found
}
