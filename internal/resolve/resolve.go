// Package resolve implements the Cross-File Resolver (spec.md §4.F): given
// every file's IR document for a repo, it resolves Import nodes to concrete
// file targets and Call edges to their callee's FQN against a whole-repo
// symbol table, rewriting external sentinels in place where a definition is
// found. Unresolved references are left as sentinels rather than dropped.
//
// Grounded on the teacher's FileScope.resolveImportPath
// (internal/world/scope.go), generalized from Go-only relative-path
// resolution to a per-language import-path heuristic table, and on its
// whole-scope symbol lookup (FileScope.GetElement) for call resolution.
package resolve

import (
	"path"
	"strings"

	"codegraph/internal/ir"
	"codegraph/internal/logging"
)

// FileNodeID is the stable target ID an IMPORTS edge is rewritten to once
// its target file is found in the repo. Kept as its own convention (rather
// than a new ir.NodeKind) since file-level nodes are a chunk-layer concept
// here (internal/chunk), not an IR one.
func FileNodeID(filePath string) string {
	return "file::" + filePath
}

// Result is the resolver's output: the input documents with their edges
// rewritten in place, plus a list of references that remained unresolved.
type Result struct {
	Docs        []ir.Document
	Unresolved  []string // sentinel IDs left unrewritten
	ResolvedN   int
}

// Resolver holds the whole-repo indexes built once per run and reused
// across every document's edge rewrite.
type Resolver struct {
	repoID string

	filesByPath map[string]bool            // every known file path in the repo
	symbolsByFQN map[string]string         // fully-qualified name -> resolved NodeID
	symbolsByName map[string][]string      // bare name -> candidate NodeIDs (ambiguous fallback)
}

// New builds a Resolver's symbol table and file index from every document
// in the repo. Must be called with ALL of the repo's parsed documents —
// cross-file resolution is only possible once every file's symbols are
// known.
func New(repoID string, docs []ir.Document) *Resolver {
	r := &Resolver{
		repoID:        repoID,
		filesByPath:   make(map[string]bool),
		symbolsByFQN:  make(map[string]string),
		symbolsByName: make(map[string][]string),
	}
	for _, doc := range docs {
		r.filesByPath[doc.FilePath] = true
		for _, n := range doc.Nodes {
			switch n.Kind {
			case ir.KindFunction, ir.KindMethod, ir.KindClass:
				r.symbolsByFQN[n.FQN] = n.NodeID
				r.symbolsByName[n.Name] = append(r.symbolsByName[n.Name], n.NodeID)
			}
		}
	}
	return r
}

// Resolve rewrites every document's CALLS and IMPORTS edges in place,
// returning the same documents plus a report of what stayed unresolved.
func (r *Resolver) Resolve(docs []ir.Document) Result {
	result := Result{Docs: docs}
	for i := range docs {
		doc := &docs[i]
		for j := range doc.Edges {
			e := &doc.Edges[j]
			if !ir.IsExternalSentinel(e.TargetID) {
				continue
			}
			switch e.Kind {
			case ir.EdgeCalls:
				if resolved, ok := r.resolveCall(e.TargetID); ok {
					e.TargetID = resolved
					result.ResolvedN++
					continue
				}
			case ir.EdgeImports:
				if resolved, ok := r.resolveImport(doc.FilePath, doc.Language, e.TargetID); ok {
					e.TargetID = resolved
					result.ResolvedN++
					continue
				}
			default:
				continue
			}
			result.Unresolved = append(result.Unresolved, e.TargetID)
		}
	}
	logging.ResolveDebug("resolved %d references, %d left unresolved", result.ResolvedN, len(result.Unresolved))
	return result
}

// resolveCall strips the sentinel wrapper to recover the raw call-target
// string, then tries an exact FQN match before falling back to a bare-name
// match (ambiguous — picks the first candidate, since a precise resolution
// would need full type information the IR doesn't carry).
func (r *Resolver) resolveCall(sentinel string) (string, bool) {
	target := sentinelFQN(sentinel)
	if id, ok := r.symbolsByFQN[target]; ok {
		return id, true
	}
	// Call targets are often a bare name ("helper()") or "receiver.Method()";
	// try the trailing segment against both tables.
	name := target
	if idx := strings.LastIndex(target, "."); idx >= 0 {
		name = target[idx+1:]
	}
	if id, ok := r.symbolsByFQN[name]; ok {
		return id, true
	}
	if candidates, ok := r.symbolsByName[name]; ok && len(candidates) > 0 {
		if len(candidates) > 1 {
			logging.ResolveDebug("ambiguous call target %q: %d candidates, picking first", target, len(candidates))
		}
		return candidates[0], true
	}
	return "", false
}

// resolveImport applies a per-language heuristic to turn an import path
// into a repo-relative file path, then checks it against the known file
// index. Relative paths (Python/TS/JS/Rust module syntax) resolve against
// the importing file's directory, grounded on the teacher's
// resolveImportPath (internal/world/scope.go).
func (r *Resolver) resolveImport(fromFile, lang, sentinel string) (string, bool) {
	target := sentinelFQN(sentinel)
	candidates := importCandidates(fromFile, lang, target)
	for _, c := range candidates {
		if r.filesByPath[c] {
			return FileNodeID(c), true
		}
	}
	return "", false
}

// importCandidates returns repo-relative file path guesses for an import
// target, most-likely first.
func importCandidates(fromFile, lang, target string) []string {
	dir := path.Dir(fromFile)
	switch lang {
	case "python", "py":
		rel := strings.ReplaceAll(target, ".", "/")
		return []string{
			path.Join(dir, rel+".py"),
			path.Join(dir, rel, "__init__.py"),
			rel + ".py",
		}
	case "typescript", "javascript", "ts":
		if !strings.HasPrefix(target, ".") {
			return nil // bare package specifier, resolved against node_modules — out of scope
		}
		base := path.Join(dir, target)
		return []string{base + ".ts", base + ".tsx", base + ".js", base + "/index.ts"}
	case "rust", "rs":
		rel := strings.ReplaceAll(strings.TrimPrefix(target, "crate::"), "::", "/")
		return []string{path.Join(dir, rel+".rs"), path.Join(dir, rel, "mod.rs")}
	case "go":
		// Go import paths are module-qualified, not file-relative; only a
		// same-repo relative form (rare, used in local replace-style imports)
		// can be matched without go.mod module-path context.
		return []string{path.Join(dir, path.Base(target))}
	default:
		return nil
	}
}

func sentinelFQN(sentinel string) string {
	const prefix = "external::"
	rest := strings.TrimPrefix(sentinel, prefix)
	if idx := strings.Index(rest, "::"); idx >= 0 {
		return rest[idx+2:]
	}
	return rest
}
