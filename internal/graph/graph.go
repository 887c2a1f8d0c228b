// Package graph implements the Graph Core (spec.md §4.G): every IR
// symbol/type/signature node is promoted to a graph node, IR edges become
// graph edges, and the BFS query contract (callers/callees/imports/
// imported_by/shortest_path) runs directly over adjacency maps.
package graph

import (
	"sort"
	"strings"

	"codegraph/internal/ir"
	"codegraph/internal/logging"
)

// Node is a promoted IR symbol/type/signature.
type Node struct {
	ID       string
	Kind     ir.NodeKind
	FQN      string
	Name     string
	FilePath string
	External bool // true for an unresolved external::{lang}::{fqn} sentinel node
}

// Edge connects two nodes by ID.
type Edge struct {
	From  string
	To    string
	Kind  ir.EdgeKind
	Attrs map[string]string
}

// Graph is the in-memory node/edge arena for one repo snapshot.
type Graph struct {
	nodes map[string]Node
	out   map[string][]Edge
	in    map[string][]Edge
	seen  map[string]bool // edge dedup key -> present
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]Node),
		out:   make(map[string][]Edge),
		in:    make(map[string][]Edge),
		seen:  make(map[string]bool),
	}
}

// Build promotes every symbol node from docs and derives edges from their
// IR edges (spec.md §4.G: CONTAINS from parent links, CALLS from resolved
// call-sites, IMPORTS, REFERENCES_TYPE from type annotations, READS/WRITES
// from DFG — the latter two are populated once internal/parser emits
// dataflow edges; until then Build only sees the edge kinds the parser and
// internal/resolve currently produce).
func Build(docs []ir.Document) *Graph {
	g := New()
	for _, doc := range docs {
		for _, n := range doc.Nodes {
			switch n.Kind {
			case ir.KindClass, ir.KindFunction, ir.KindMethod, ir.KindVariable, ir.KindImport:
				g.addNode(Node{ID: n.NodeID, Kind: n.Kind, FQN: n.FQN, Name: n.Name, FilePath: n.FilePath})
			}
		}
	}
	for _, doc := range docs {
		for _, e := range doc.Edges {
			g.ensureExternalNode(e.TargetID)
			g.AddEdge(Edge{From: e.SourceID, To: e.TargetID, Kind: e.Kind, Attrs: e.Attrs})
		}
	}
	logging.GraphDebug("built graph: %d nodes, %d edges recorded", len(g.nodes), len(g.seen))
	return g
}

func (g *Graph) addNode(n Node) {
	if _, exists := g.nodes[n.ID]; exists {
		return
	}
	g.nodes[n.ID] = n
}

// ensureExternalNode creates a placeholder node for a still-unresolved
// sentinel target, so every edge's endpoints exist per spec.md §3's
// IREdge invariant ("both endpoints exist... unless target is a sentinel" —
// the sentinel itself still needs SOME node identity for traversal to work).
func (g *Graph) ensureExternalNode(id string) {
	if !ir.IsExternalSentinel(id) {
		return
	}
	if _, exists := g.nodes[id]; exists {
		return
	}
	g.nodes[id] = Node{ID: id, External: true}
}

// AddEdge inserts an edge, deduplicated on (source, target, kind, attrs)
// with attrs stable-sorted into the key (spec.md §4.G normalization).
func (g *Graph) AddEdge(e Edge) {
	key := edgeKey(e)
	if g.seen[key] {
		return
	}
	g.seen[key] = true
	g.out[e.From] = append(g.out[e.From], e)
	g.in[e.To] = append(g.in[e.To], e)
}

func edgeKey(e Edge) string {
	var b strings.Builder
	b.WriteString(e.From)
	b.WriteByte('\x00')
	b.WriteString(e.To)
	b.WriteByte('\x00')
	b.WriteString(string(e.Kind))
	keys := make([]string, 0, len(e.Attrs))
	for k := range e.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteByte('\x00')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(e.Attrs[k])
	}
	return b.String()
}

// Node returns the node for id, if present.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// NodeIDs returns every node ID in the graph, order unspecified.
func (g *Graph) NodeIDs() []string {
	out := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		out = append(out, id)
	}
	return out
}

// Successors returns the IDs node has ANY outgoing edge to, regardless of
// kind — the full adjacency the Importance Engine's PageRank/HITS
// pre-computation step needs (spec.md §4.K), as opposed to Callees/
// Imports's kind-filtered views.
func (g *Graph) Successors(node string) []string {
	out := make([]string, 0, len(g.out[node]))
	for _, e := range g.out[node] {
		out = append(out, e.To)
	}
	return out
}

// Predecessors returns the IDs of nodes with ANY outgoing edge to node.
func (g *Graph) Predecessors(node string) []string {
	out := make([]string, 0, len(g.in[node]))
	for _, e := range g.in[node] {
		out = append(out, e.From)
	}
	return out
}

// Callers returns the IDs of nodes with a CALLS edge targeting node.
func (g *Graph) Callers(node string) []string {
	var out []string
	for _, e := range g.in[node] {
		if e.Kind == ir.EdgeCalls {
			out = append(out, e.From)
		}
	}
	return out
}

// Callees returns the IDs of nodes node has a CALLS edge to.
func (g *Graph) Callees(node string) []string {
	var out []string
	for _, e := range g.out[node] {
		if e.Kind == ir.EdgeCalls {
			out = append(out, e.To)
		}
	}
	return out
}

// Imports returns the IDs node has an IMPORTS edge to.
func (g *Graph) Imports(node string) []string {
	var out []string
	for _, e := range g.out[node] {
		if e.Kind == ir.EdgeImports {
			out = append(out, e.To)
		}
	}
	return out
}

// ImportedBy returns the IDs of nodes with an IMPORTS edge targeting node.
func (g *Graph) ImportedBy(node string) []string {
	var out []string
	for _, e := range g.in[node] {
		if e.Kind == ir.EdgeImports {
			out = append(out, e.From)
		}
	}
	return out
}

// ShortestPath runs a depth-limited BFS from a to b over every edge kind,
// returning the node-ID path (inclusive of both endpoints) if found within
// maxDepth hops.
func (g *Graph) ShortestPath(a, b string, maxDepth int) ([]string, bool) {
	if a == b {
		return []string{a}, true
	}
	visited := map[string]bool{a: true}
	type queueEntry struct {
		id   string
		path []string
	}
	queue := []queueEntry{{id: a, path: []string{a}}}

	for depth := 0; depth < maxDepth && len(queue) > 0; depth++ {
		var next []queueEntry
		for _, qe := range queue {
			for _, e := range g.out[qe.id] {
				if visited[e.To] {
					continue
				}
				path := append(append([]string{}, qe.path...), e.To)
				if e.To == b {
					return path, true
				}
				visited[e.To] = true
				next = append(next, queueEntry{id: e.To, path: path})
			}
		}
		queue = next
	}
	return nil, false
}
