package taint

import (
	"codegraph/internal/ir"
	"codegraph/internal/logging"
)

// Strategy distinguishes the three solver variants the engine offers. All
// three share the worklist loop, summary cache, and path-edge bookkeeping
// in Solver; they differ only in whether a call site's result is served
// from the summary cache. For a pure subset/reachability lattice (our
// label-set Fact, with no relational value domain), IDE's per-edge
// micro-functions collapse to IFDS's set-union edge functions — so IFDS and
// IDE share an implementation here and differ only in name, matching
// standard IFDS/IDE theory for this restricted lattice; the classic
// interprocedural-dataflow strategy skips summary reuse and re-walks every
// call site directly, trading precision-per-call-site speed for simplicity.
type Strategy interface {
	Name() string
	UseSummaries() bool
}

type tabulatedStrategy struct{ name string }

func (s tabulatedStrategy) Name() string        { return s.name }
func (s tabulatedStrategy) UseSummaries() bool  { return true }

type directStrategy struct{}

func (directStrategy) Name() string       { return "interprocedural-dataflow" }
func (directStrategy) UseSummaries() bool { return false }

// IFDS returns the tabulation-based strategy with call-site summary reuse.
func IFDS() Strategy { return tabulatedStrategy{name: "ifds"} }

// IDE returns the IDE strategy; see Strategy's doc comment for why it
// shares an implementation with IFDS at this lattice.
func IDE() Strategy { return tabulatedStrategy{name: "ide"} }

// InterproceduralDataflow returns the non-tabulating worklist strategy.
func InterproceduralDataflow() Strategy { return directStrategy{} }

// flowEdges are the intra/inter-procedural edge kinds a tainted fact
// propagates along. CALLS carries a fact across procedure boundaries;
// everything else is intra-procedural data/control flow.
var flowEdges = map[ir.EdgeKind]bool{
	ir.EdgeCalls:       true,
	ir.EdgeReads:       true,
	ir.EdgeWrites:      true,
	ir.EdgeDFGDefUse:   true,
	ir.EdgeCFGNormal:   true,
	ir.EdgeCFGBranch:   true,
	ir.EdgeCFGLoopback: true,
}

type pathEdge struct {
	sourceNode string
	sourceFact Label
	node       string
}

// Solver is the shared inter-procedural worklist base (spec.md §4.I): it
// owns the node adjacency, the in-flight path-edge worklist, the per-node
// accumulated facts, the call-site summary cache, and step bookkeeping used
// to reconstruct each reported Path. Strategy only decides whether a call
// site's result is looked up from the summary cache or recomputed.
type Solver struct {
	out      map[string][]ir.IREdge
	nodes    map[string]ir.IRNode
	strategy Strategy

	facts    map[string]Fact                  // node -> accumulated fact
	summary  map[string]map[Label]Fact         // callee entry -> (source label -> exit fact)
	incoming map[string]map[Label]pathEdge     // node -> label -> the edge that first delivered it
}

// NewSolver builds a solver over docs' nodes and flow edges.
func NewSolver(docs []ir.Document, strategy Strategy) *Solver {
	s := &Solver{
		out:      make(map[string][]ir.IREdge),
		nodes:    make(map[string]ir.IRNode),
		strategy: strategy,
		facts:    make(map[string]Fact),
		summary:  make(map[string]map[Label]Fact),
		incoming: make(map[string]map[Label]pathEdge),
	}
	for _, doc := range docs {
		for _, n := range doc.Nodes {
			s.nodes[n.NodeID] = n
		}
	}
	for _, doc := range docs {
		for _, e := range doc.Edges {
			if flowEdges[e.Kind] {
				s.out[e.SourceID] = append(s.out[e.SourceID], e)
			}
		}
	}
	return s
}

// Run seeds taint at every node classified SiteSource and propagates it to
// a fixpoint, returning one Path per source→sink flow discovered.
func (s *Solver) Run() []Path {
	var worklist []string
	for id, n := range s.nodes {
		if classify(n) == SiteSource {
			label := sourceLabel(n)
			if s.facts[id] == nil {
				s.facts[id] = Fact{}
			}
			if !s.facts[id][label] {
				s.facts[id][label] = true
				s.recordIncoming(id, label, pathEdge{sourceNode: id, sourceFact: label, node: id})
				worklist = append(worklist, id)
			}
		}
	}

	for len(worklist) > 0 {
		node := worklist[0]
		worklist = worklist[1:]
		cur := s.facts[node]
		for _, e := range s.out[node] {
			for label := range cur {
				if s.propagate(e, label) {
					worklist = append(worklist, e.TargetID)
				}
			}
		}
	}

	logging.TaintDebug("taint solver (%s): %d nodes carry facts", s.strategy.Name(), len(s.facts))
	return s.collectPaths()
}

// propagate applies one flow edge to one label, returning true if the
// target's fact set grew (so it needs re-visiting).
func (s *Solver) propagate(e ir.IREdge, label Label) bool {
	target := e.TargetID
	targetNode, known := s.nodes[target]
	if known && classify(targetNode) == SiteSanitizer {
		// A sanitizer consumes this label: it still becomes a visible step
		// (sanitizer-passed bookkeeping needs it) but does not re-seed the
		// label onward under the same name.
		s.recordIncoming(target, label, pathEdge{sourceNode: e.SourceID, sourceFact: label, node: target})
		return false
	}

	if s.strategy.UseSummaries() && known && (targetNode.Kind == ir.KindFunction || targetNode.Kind == ir.KindMethod) {
		if cached, ok := s.summary[target]; ok {
			if _, already := cached[label]; already {
				return false // call-site summary already applied for this label
			}
		} else {
			s.summary[target] = make(map[Label]Fact)
		}
		s.summary[target][label] = Fact{label: true}
	}

	if s.facts[target] == nil {
		s.facts[target] = Fact{}
	}
	if s.facts[target][label] {
		return false
	}
	s.facts[target][label] = true
	s.recordIncoming(target, label, pathEdge{sourceNode: e.SourceID, sourceFact: label, node: target})
	return true
}

func (s *Solver) recordIncoming(node string, label Label, edge pathEdge) {
	if s.incoming[node] == nil {
		s.incoming[node] = make(map[Label]pathEdge)
	}
	if _, ok := s.incoming[node][label]; !ok {
		s.incoming[node][label] = edge
	}
}

// collectPaths walks backward from every sink carrying a label to the
// originating source, reconstructing the step list in forward order.
func (s *Solver) collectPaths() []Path {
	var paths []Path
	for id, n := range s.nodes {
		if classify(n) != SiteSink {
			continue
		}
		for label := range s.facts[id] {
			steps, sawSanitizer, source := s.walkBack(id, label)
			if source == "" {
				continue
			}
			paths = append(paths, Path{
				Source:          source,
				Sink:            id,
				Label:           label,
				Steps:           steps,
				SanitizerPassed: sawSanitizer,
			})
		}
	}
	return paths
}

func (s *Solver) walkBack(node string, label Label) ([]Step, bool, string) {
	var reversed []Step
	sawSanitizer := false
	cur := node
	seen := map[string]bool{}
	for {
		if seen[cur] {
			break // defensive: a cycle in recorded edges must not loop forever
		}
		seen[cur] = true
		edge, ok := s.incoming[cur][label]
		if !ok {
			break
		}
		if n, known := s.nodes[cur]; known && classify(n) == SiteSanitizer {
			sawSanitizer = true
		}
		reversed = append(reversed, Step{NodeID: cur, Label: label})
		if edge.node == edge.sourceNode {
			// seeded here: this is the source node itself.
			out := make([]Step, len(reversed))
			for i, st := range reversed {
				out[len(reversed)-1-i] = st
			}
			return out, sawSanitizer, cur
		}
		cur = edge.sourceNode
	}
	return nil, sawSanitizer, ""
}
