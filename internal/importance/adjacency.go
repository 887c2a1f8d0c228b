// Package importance implements the Importance Engine (spec.md §4.K):
// PageRank, Personalized PageRank, and HITS over one shared adjacency-list
// pre-computation, plus the Smart Mode detector that picks which of the
// three to run for a given request.
package importance

import "codegraph/internal/graph"

// Adjacency is the one build-once-O(E) precomputation every algorithm
// shares: outgoing and incoming ID lists per node.
type Adjacency struct {
	Nodes []string
	Out   map[string][]string
	In    map[string][]string
}

// Build walks g once and produces both adjacency directions.
func Build(g *graph.Graph) Adjacency {
	nodes := g.NodeIDs()
	adj := Adjacency{
		Nodes: nodes,
		Out:   make(map[string][]string, len(nodes)),
		In:    make(map[string][]string, len(nodes)),
	}
	for _, id := range nodes {
		adj.Out[id] = g.Successors(id)
		adj.In[id] = g.Predecessors(id)
	}
	return adj
}
