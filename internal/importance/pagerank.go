package importance

// PageRankOptions tunes PageRank/PPR convergence. Defaults relax the
// textbook 20 iterations / 1e-6 tolerance to 10 / 1e-4 — spec.md §4.K notes
// this is empirically <0.01% score drift for roughly 2x the speed.
type PageRankOptions struct {
	Damping    float64
	MaxIter    int
	Tolerance  float64
}

// DefaultPageRankOptions returns spec.md §4.K's tuned defaults.
func DefaultPageRankOptions() PageRankOptions {
	return PageRankOptions{Damping: 0.85, MaxIter: 10, Tolerance: 1e-4}
}

// PageRank computes the classic incoming-list random-walk score for every
// node, O(E·max_iter).
func PageRank(adj Adjacency, opts PageRankOptions) map[string]float64 {
	return personalizedWalk(adj, opts, nil)
}

// PersonalizedPageRank seeds the random walk's teleport distribution on
// seeds only (spec.md §4.K's ContextSet), so score mass concentrates around
// the seed set instead of spreading uniformly.
func PersonalizedPageRank(adj Adjacency, opts PageRankOptions, seeds []string) map[string]float64 {
	seedSet := make(map[string]bool, len(seeds))
	for _, s := range seeds {
		seedSet[s] = true
	}
	return personalizedWalk(adj, opts, seedSet)
}

// personalizedWalk implements both PageRank and PPR: seeds == nil teleports
// uniformly across every node; a non-nil seeds set teleports only within it.
func personalizedWalk(adj Adjacency, opts PageRankOptions, seeds map[string]bool) map[string]float64 {
	n := len(adj.Nodes)
	if n == 0 {
		return map[string]float64{}
	}

	teleportTargets := adj.Nodes
	if seeds != nil {
		teleportTargets = nil
		for _, id := range adj.Nodes {
			if seeds[id] {
				teleportTargets = append(teleportTargets, id)
			}
		}
		if len(teleportTargets) == 0 {
			teleportTargets = adj.Nodes // degrade to uniform if the seed set misses the graph entirely
		}
	}
	teleportMass := 1.0 / float64(len(teleportTargets))
	isTeleport := make(map[string]bool, len(teleportTargets))
	for _, id := range teleportTargets {
		isTeleport[id] = true
	}

	score := make(map[string]float64, n)
	for _, id := range adj.Nodes {
		score[id] = 1.0 / float64(n)
	}

	outDegree := make(map[string]int, n)
	for _, id := range adj.Nodes {
		outDegree[id] = len(adj.Out[id])
	}

	for iter := 0; iter < opts.MaxIter; iter++ {
		next := make(map[string]float64, n)
		var danglingMass float64
		for _, id := range adj.Nodes {
			if outDegree[id] == 0 {
				danglingMass += score[id]
			}
		}

		for _, id := range adj.Nodes {
			var incoming float64
			for _, from := range adj.In[id] {
				if outDegree[from] > 0 {
					incoming += score[from] / float64(outDegree[from])
				}
			}
			next[id] = incoming
		}

		redistributed := danglingMass / float64(n)
		var delta float64
		for _, id := range adj.Nodes {
			base := next[id] + redistributed
			var tel float64
			if isTeleport[id] {
				tel = teleportMass
			}
			val := opts.Damping*base + (1-opts.Damping)*tel
			delta += abs(val - score[id])
			next[id] = val
		}
		score = next
		if delta < opts.Tolerance {
			break
		}
	}
	return score
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
