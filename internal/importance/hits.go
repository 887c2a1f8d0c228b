package importance

import "math"

// HITSResult holds the authority and hub score for every node.
type HITSResult struct {
	Authority map[string]float64
	Hub       map[string]float64
}

// HITS runs Kleinberg's mutual-reinforcement iteration using both adjacency
// directions (spec.md §4.K): authority accumulates from hub scores of
// predecessors, hub accumulates from authority scores of successors, with
// L2 normalization each round.
func HITS(adj Adjacency, maxIter int) HITSResult {
	auth := make(map[string]float64, len(adj.Nodes))
	hub := make(map[string]float64, len(adj.Nodes))
	for _, id := range adj.Nodes {
		auth[id] = 1
		hub[id] = 1
	}

	if maxIter <= 0 {
		maxIter = 10
	}
	for iter := 0; iter < maxIter; iter++ {
		nextAuth := make(map[string]float64, len(adj.Nodes))
		for _, id := range adj.Nodes {
			var sum float64
			for _, from := range adj.In[id] {
				sum += hub[from]
			}
			nextAuth[id] = sum
		}
		normalize(nextAuth)

		nextHub := make(map[string]float64, len(adj.Nodes))
		for _, id := range adj.Nodes {
			var sum float64
			for _, to := range adj.Out[id] {
				sum += nextAuth[to]
			}
			nextHub[id] = sum
		}
		normalize(nextHub)

		auth, hub = nextAuth, nextHub
	}
	return HITSResult{Authority: auth, Hub: hub}
}

func normalize(scores map[string]float64) {
	var sumSq float64
	for _, v := range scores {
		sumSq += v * v
	}
	if sumSq == 0 {
		return
	}
	norm := math.Sqrt(sumSq)
	for k, v := range scores {
		scores[k] = v / norm
	}
}
