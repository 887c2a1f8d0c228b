package importance

import (
	"codegraph/internal/graph"
	"codegraph/internal/logging"
)

// Scores is the combined output of one importance run: whichever of
// PageRank/PPR/HITS the selected Mode activated are populated, the rest
// left nil.
type Scores struct {
	Mode      Mode
	PageRank  map[string]float64
	PPR       map[string]float64
	HITS      *HITSResult
}

// Run builds the shared adjacency once and executes whichever algorithms
// ctx's Smart Mode resolves to (spec.md §4.K).
func Run(g *graph.Graph, ctx ModeDetectionContext, seeds []string) Scores {
	mode := DetectMode(ctx)
	adj := Build(g)
	opts := DefaultPageRankOptions()

	runPR, runPPR, runHITS := Algorithms(mode)
	out := Scores{Mode: mode}
	if runPR {
		out.PageRank = PageRank(adj, opts)
	}
	if runPPR {
		out.PPR = PersonalizedPageRank(adj, opts, seeds)
	}
	if runHITS {
		h := HITS(adj, opts.MaxIter)
		out.HITS = &h
	}
	logging.ImportanceDebug("importance: mode=%s nodes=%d pr=%v ppr=%v hits=%v", mode, len(adj.Nodes), runPR, runPPR, runHITS)
	return out
}
