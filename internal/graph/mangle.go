// Mangle enrichment: the graph's BFS query contract is always available;
// this file adds an optional Datalog fact/rule layer over the same edges,
// used when a caller wants a transitive-closure answer expressed as a
// query rather than repeated BFS calls. Grounded on the teacher's Mangle
// Go-integration pattern (parse.Unit -> analysis.AnalyzeOneUnit ->
// engine.EvalProgramWithStats over a factstore.FactStore), used throughout
// internal/mangle and cmd/tools/mangle_check in the teacher repo.
package graph

import (
	"fmt"
	"strings"

	"github.com/google/mangle/analysis"
	"github.com/google/mangle/ast"
	_ "github.com/google/mangle/builtin"
	"github.com/google/mangle/engine"
	"github.com/google/mangle/factstore"
	"github.com/google/mangle/parse"

	"codegraph/internal/cgerr"
	"codegraph/internal/ir"
	"codegraph/internal/logging"
)

// bridgeRules derives two predicates over the base CONTAINS/CALLS/IMPORTS
// facts the graph exports: transitively_calls, the transitive closure of
// calls, and imported_by, the direct (non-transitive) inverse of imports.
const bridgeRules = `
Decl contains(From, To).
Decl calls(From, To).
Decl imports(From, To).
Decl transitively_calls(From, To).
Decl imported_by(To, From).

transitively_calls(A, B) :- calls(A, B).
transitively_calls(A, C) :- calls(A, B), transitively_calls(B, C).

imported_by(To, From) :- imports(From, To).
`

// MangleView wraps a fact store evaluated against bridgeRules over one
// graph's edges. Building it is an explicit, optional step — the BFS query
// contract on *Graph remains the always-available path (spec.md §4.G).
type MangleView struct {
	store factstore.FactStore
	info  *analysis.ProgramInfo
}

// NewMangleView exports CONTAINS/CALLS/IMPORTS edges as Mangle facts and
// evaluates the bridge rules to a fixed point.
func (g *Graph) NewMangleView() (*MangleView, error) {
	unit, err := parse.Unit(strings.NewReader(bridgeRules))
	if err != nil {
		return nil, cgerr.Wrap(cgerr.KindInvariant, "Graph.NewMangleView", "parse bridge rules", err)
	}
	info, err := analysis.AnalyzeOneUnit(unit, nil)
	if err != nil {
		return nil, cgerr.Wrap(cgerr.KindInvariant, "Graph.NewMangleView", "analyze bridge rules", err)
	}

	store := factstore.NewSimpleInMemoryStore()
	for _, edges := range g.out {
		for _, e := range edges {
			predicate, ok := factPredicate(e.Kind)
			if !ok {
				continue
			}
			from, err := ast.Name(nodeName(e.From))
			if err != nil {
				logging.GraphDebug("skipping edge fact, bad name %q: %v", e.From, err)
				continue
			}
			to, err := ast.Name(nodeName(e.To))
			if err != nil {
				logging.GraphDebug("skipping edge fact, bad name %q: %v", e.To, err)
				continue
			}
			store.Add(ast.NewAtom(predicate, from, to))
		}
	}

	if _, err := engine.EvalProgramWithStats(info, store); err != nil {
		return nil, cgerr.Wrap(cgerr.KindInvariant, "Graph.NewMangleView", "evaluate bridge rules", err)
	}
	logging.GraphDebug("mangle view evaluated over %d edges", len(g.seen))
	return &MangleView{store: store, info: info}, nil
}

func factPredicate(kind ir.EdgeKind) (string, bool) {
	switch kind {
	case ir.EdgeContains:
		return "contains", true
	case ir.EdgeCalls:
		return "calls", true
	case ir.EdgeImports:
		return "imports", true
	default:
		return "", false
	}
}

// nodeName maps a graph node ID to a Mangle name constant. Names must start
// with "/"; node IDs are hex hashes or "external::..." sentinels, neither of
// which does, so every ID is namespaced under /node/.
func nodeName(id string) string {
	return "/node/" + id
}

func unnodeName(name string) string {
	return strings.TrimPrefix(name, "/node/")
}

// TransitivelyCalls reports every node reachable from node via one or more
// CALLS edges, via the evaluated transitively_calls/2 predicate.
func (v *MangleView) TransitivelyCalls(node string) ([]string, error) {
	return v.queryRelated("transitively_calls", node)
}

// ImportedByTransitive reports every node that (directly) imports node, via
// the evaluated imported_by/2 predicate.
func (v *MangleView) ImportedByTransitive(node string) ([]string, error) {
	return v.queryRelated("imported_by", node)
}

func (v *MangleView) queryRelated(predicate, node string) ([]string, error) {
	pred := ast.PredicateSym{Symbol: predicate, Arity: 2}
	query := ast.NewQuery(pred)

	want := nodeName(node)
	var out []string
	err := v.store.GetFacts(query, func(atom ast.Atom) error {
		if len(atom.Args) != 2 {
			return nil
		}
		from, ok := atom.Args[0].(ast.Constant)
		if !ok || from.Symbol != want {
			return nil
		}
		to, ok := atom.Args[1].(ast.Constant)
		if !ok {
			return nil
		}
		out = append(out, unnodeName(to.Symbol))
		return nil
	})
	if err != nil {
		return nil, cgerr.Wrap(cgerr.KindInvariant, "MangleView.queryRelated", fmt.Sprintf("query %s failed", predicate), err)
	}
	return out, nil
}
