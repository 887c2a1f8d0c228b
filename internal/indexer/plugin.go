// Package indexer implements the Multi-Index Orchestrator (spec.md §4.M):
// the session protocol (begin_session/add_change/commit) and the
// IndexPlugin contract every index (lexical, and future vector/symbol/
// graph-flow plugins) implements, fanned out to in parallel on commit.
package indexer

import "context"

// ChangeKind classifies one file-level observation within a session.
type ChangeKind string

const (
	Added    ChangeKind = "added"
	Modified ChangeKind = "modified"
	Removed  ChangeKind = "removed"
)

// ChangeOp is one add_change observation.
type ChangeOp struct {
	Kind     ChangeKind
	FilePath string
	NodeIDs  []string // IR node IDs touched, when known
}

// Delta accumulates a session's add_change calls, in causal (call) order.
type Delta struct {
	Changes []ChangeOp
}

// Region is a source range an analysis pass flags as affected, beyond the
// file-level granularity ChangeOp already carries.
type Region struct {
	FilePath  string
	StartLine int
	EndLine   int
}

// Analysis is commit's delta-analysis output, handed to every plugin's
// ApplyDelta alongside the raw Delta.
type Analysis struct {
	AffectedFiles   []string
	AffectedRegions []Region
}

// SearchHit is one ranked result any IndexPlugin.Search returns.
type SearchHit struct {
	FilePath string
	Line     int // 0 if not line-addressable
	ChunkID  string
	Score    float64
}

// IndexPlugin is the contract every registered index implements (spec.md
// §4.L's lexical index is the first of several; vector/symbol/graph-flow
// plugins follow the same shape).
type IndexPlugin interface {
	IndexType() string

	// AppliedUpTo returns the last txn_id this plugin's watermark has
	// advanced past, read with acquire ordering.
	AppliedUpTo() int64

	// ApplyDelta re-indexes only what delta/analysis say changed, advancing
	// the watermark with release ordering on success.
	ApplyDelta(ctx context.Context, delta Delta, analysis Analysis, txnID int64) (changed bool, costMS int64, err error)

	// Rebuild discards the plugin's index entirely and re-derives it from
	// the given snapshot's chunks.
	Rebuild(ctx context.Context, repoID, snapshotID string, txnID int64) error

	Search(ctx context.Context, query string, limit int) ([]SearchHit, error)
}
