// Package ir defines the language-neutral Intermediate Representation that
// every parser front-end (internal/parser) emits and every downstream stage
// (chunking, resolution, graph construction) consumes. IR documents are
// transient within a pipeline run; only their projections (chunks, graph
// nodes) persist (internal/store).
package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// NodeKind is the semantic kind of an IRNode.
type NodeKind string

const (
	KindModule    NodeKind = "Module"
	KindFile      NodeKind = "File"
	KindClass     NodeKind = "Class"
	KindFunction  NodeKind = "Function"
	KindMethod    NodeKind = "Method"
	KindLambda    NodeKind = "Lambda"
	KindVariable  NodeKind = "Variable"
	KindParameter NodeKind = "Parameter"
	KindImport    NodeKind = "Import"
	KindCall      NodeKind = "Call"
	KindLiteral   NodeKind = "Literal"
)

// EdgeKind is the semantic kind of an IREdge.
type EdgeKind string

const (
	EdgeContains        EdgeKind = "CONTAINS"
	EdgeCalls           EdgeKind = "CALLS"
	EdgeImports         EdgeKind = "IMPORTS"
	EdgeReads           EdgeKind = "READS"
	EdgeWrites          EdgeKind = "WRITES"
	EdgeReferencesType  EdgeKind = "REFERENCES_TYPE"
	EdgeDefines         EdgeKind = "DEFINES"
	EdgeCFGNormal       EdgeKind = "CFG_NORMAL"
	EdgeCFGBranch       EdgeKind = "CFG_BRANCH"
	EdgeCFGLoopback     EdgeKind = "CFG_LOOPBACK"
	EdgeCFGException    EdgeKind = "CFG_EXCEPTION"
	EdgeDFGDefUse       EdgeKind = "DFG_DEF_USE"
)

// Position is a 0-based line, UTF-8-byte-column location.
type Position struct {
	Line   int
	Column int
}

// Span is a well-formed (Start <= End) source range.
type Span struct {
	Start Position
	End   Position
}

// Valid reports whether the span is well-formed.
func (s Span) Valid() bool {
	if s.Start.Line > s.End.Line {
		return false
	}
	if s.Start.Line == s.End.Line && s.Start.Column > s.End.Column {
		return false
	}
	return true
}

// TypeInfo captures an optional resolved or inferred type.
type TypeInfo struct {
	Name       string
	Nullable   bool
	Parameters []string // generic type parameters, if any
}

// IRNode is a language-neutral node: a symbol, import, call-site, or literal.
type IRNode struct {
	NodeID     string
	Kind       NodeKind
	FQN        string
	Name       string
	Language   string
	FilePath   string
	Span       Span
	TypeInfo   *TypeInfo
	Signature  string
	Visibility string // "public" | "private" | ""
	Attrs      map[string]string
}

// IREdge connects two IRNodes (by NodeID) or a node to an external sentinel.
type IREdge struct {
	SourceID string
	TargetID string
	Kind     EdgeKind
	Attrs    map[string]string
}

// ExternalSentinel builds the sentinel target ID for an unresolved reference.
// Sentinels are never stored as resolved edges; a resolver either rewrites
// them to a concrete NodeID or leaves them in place (internal/resolve).
func ExternalSentinel(lang, fqn string) string {
	return fmt.Sprintf("external::%s::%s", lang, fqn)
}

// IsExternalSentinel reports whether id is an external sentinel.
func IsExternalSentinel(id string) bool {
	const prefix = "external::"
	return len(id) > len(prefix) && id[:len(prefix)] == prefix
}

// Document is the parse output for a single file: its nodes and the edges
// whose source lies within it. Cross-file edges are completed by the
// resolver (internal/resolve), not the parser.
type Document struct {
	FilePath string
	Language string
	Nodes    []IRNode
	Edges    []IREdge
}

// StableNodeID computes the deterministic node ID contract from spec.md
// §4.A: hex SHA-256 over a canonical form built from (repo, lang, kind, fqn,
// span). The same fqn and source range for the same kind in the same repo
// always yields the same ID, independent of run order —
// this is what makes re-running the pipeline on an unchanged snapshot
// produce byte-equal chunk_id/stable_node_id outputs (invariant 3).
func StableNodeID(repoID, lang string, kind NodeKind, fqn string, span Span) string {
	canonical := fmt.Sprintf("%s\x00%s\x00%s\x00%s\x00%d:%d-%d:%d",
		repoID, lang, kind, fqn,
		span.Start.Line, span.Start.Column, span.End.Line, span.End.Column)
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}
