package retriever

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"codegraph/internal/indexer"
	"codegraph/internal/logging"
)

// Retriever runs the fusion pipeline over a fixed set of per-strategy
// adapters (spec.md §4.N). Missing adapters (e.g. no vector/symbol/graph
// backend registered) are simply skipped during fan-out — a partial
// strategy set still fuses, just with fewer contributing strategies per
// result's consensus_factor.
type Retriever struct {
	adapters map[Strategy]Adapter
}

// New builds a Retriever over the given strategy adapters. A nil or absent
// entry for a strategy means that strategy never contributes.
func New(adapters map[Strategy]Adapter) *Retriever {
	return &Retriever{adapters: adapters}
}

type strategyHits struct {
	strategy Strategy
	hits     []indexer.SearchHit
	err      error
}

// Search runs the full Received → Emitted pipeline (spec.md §4.N). If the
// context is done once fan-out returns, it returns a partial result built
// from the hits gathered so far (fused and boosted, without cutoff or
// explanations), with Degraded set and State left at StateFannedOut.
func (r *Retriever) Search(ctx context.Context, query string, fanoutLimit int) Response {
	logging.RetrieverDebug("retriever: received query=%q", query)
	state := StateReceived

	probs := ClassifyIntent(query)
	state = StateClassified
	logging.RetrieverDebug("retriever: classified intent=%v", probs)

	results, degraded := r.fanOut(ctx, query, fanoutLimit)
	state = StateFannedOut
	if ctx.Err() != nil {
		partial := boost(fuse(normalize(results), probs))
		return Response{Results: partial, State: state, Degraded: true}
	}

	normalized := normalize(results)
	state = StateNormalized

	fused := fuse(normalized, probs)
	state = StateFused

	boosted := boost(fused)
	state = StateBoosted

	cutoff := intentCutoff(probs)
	sort.SliceStable(boosted, func(i, j int) bool { return boosted[i].Score > boosted[j].Score })
	if cutoff < len(boosted) {
		boosted = boosted[:cutoff]
	}
	state = StateCutoff

	for i := range boosted {
		boosted[i].Explanation = explain(boosted[i], probs)
	}
	state = StateEmitted

	logging.RetrieverDebug("retriever: emitted %d results (degraded=%v)", len(boosted), degraded)
	return Response{Results: boosted, State: state, Degraded: degraded}
}

// fanOut calls every registered adapter in parallel (spec.md §4.N step 2).
// One adapter's error never fails the others; it's logged and that
// strategy simply contributes no hits, marking the response degraded.
func (r *Retriever) fanOut(ctx context.Context, query string, limit int) (map[Strategy][]indexer.SearchHit, bool) {
	var wg sync.WaitGroup
	resultsCh := make(chan strategyHits, len(allStrategies))

	for _, s := range allStrategies {
		adapter, ok := r.adapters[s]
		if !ok || adapter == nil {
			continue
		}
		wg.Add(1)
		go func(s Strategy, adapter Adapter) {
			defer wg.Done()
			hits, err := adapter.Search(ctx, query, limit)
			resultsCh <- strategyHits{strategy: s, hits: hits, err: err}
		}(s, adapter)
	}
	go func() {
		wg.Wait()
		close(resultsCh)
	}()

	out := make(map[Strategy][]indexer.SearchHit)
	degraded := false
	for sh := range resultsCh {
		if sh.err != nil {
			logging.RetrieverDebug("retriever: strategy %s failed: %v", sh.strategy, sh.err)
			degraded = true
			continue
		}
		out[sh.strategy] = sh.hits
	}
	return out, degraded
}

// docKey identifies one fused document across strategies.
type docKey struct {
	chunkID  string
	filePath string
	line     int
}

type fusedDoc struct {
	key      docKey
	rank     map[Strategy]int
	rrfScore map[Strategy]float64
	// chunkSize is left 0: indexer.SearchHit carries no size field today:
	// wiring it needs a chunk-store lookup keyed by ChunkID, left for the
	// first caller that actually needs chunk_size in the feature vector.
	chunkSize int
	fileDepth int
}

// normalize builds per-strategy rank (0-based position in that strategy's
// result list) and RRF score for every distinct document seen across
// strategies (spec.md §4.N step 3).
func normalize(perStrategy map[Strategy][]indexer.SearchHit) map[docKey]*fusedDoc {
	docs := make(map[docKey]*fusedDoc)
	for strategy, hits := range perStrategy {
		for rank, h := range hits {
			k := docKey{chunkID: h.ChunkID, filePath: h.FilePath, line: h.Line}
			d, ok := docs[k]
			if !ok {
				d = &fusedDoc{
					key:       k,
					rank:      make(map[Strategy]int),
					rrfScore:  make(map[Strategy]float64),
					fileDepth: strings.Count(h.FilePath, "/"),
				}
				docs[k] = d
			}
			d.rank[strategy] = rank
			d.rrfScore[strategy] = rrf(strategy, rank)
		}
	}
	return docs
}

type scoredDoc struct {
	fusedDoc
	weights weightProfile
	base    float64
}

// fuse computes each document's weighted-combination base score (spec.md
// §4.N step 4).
func fuse(docs map[docKey]*fusedDoc, probs IntentProbabilities) []scoredDoc {
	w := combinedWeights(probs)
	out := make([]scoredDoc, 0, len(docs))
	for _, d := range docs {
		var base float64
		for _, s := range allStrategies {
			if score, ok := d.rrfScore[s]; ok {
				base += w.forStrategy(s) * score
			}
		}
		out = append(out, scoredDoc{fusedDoc: *d, weights: w, base: base})
	}
	return out
}

// boost applies the consensus-boost factor (spec.md §4.N step 5) and builds
// each result's fixed-order feature vector (step 7).
func boost(docs []scoredDoc) []Result {
	out := make([]Result, 0, len(docs))
	for _, d := range docs {
		numStrategies := len(d.rank)
		var rankSum, bestRank int
		first := true
		for _, rnk := range d.rank {
			rankSum += rnk
			if first || rnk < bestRank {
				bestRank = rnk
				first = false
			}
		}
		avgRank := float64(rankSum) / float64(numStrategies)
		factor := consensusFactor(numStrategies, avgRank)
		final := d.base * factor

		var fv FeatureVector
		fv[featRankVec] = float64(rankOrNeg1(d.rank, StrategyVector))
		fv[featRankLex] = float64(rankOrNeg1(d.rank, StrategyLexical))
		fv[featRankSym] = float64(rankOrNeg1(d.rank, StrategySymbol))
		fv[featRankGraph] = float64(rankOrNeg1(d.rank, StrategyGraph))
		fv[featRRFVec] = d.rrfScore[StrategyVector]
		fv[featRRFLex] = d.rrfScore[StrategyLexical]
		fv[featRRFSym] = d.rrfScore[StrategySymbol]
		fv[featRRFGraph] = d.rrfScore[StrategyGraph]
		fv[featWeightVec] = d.weights.vec
		fv[featWeightLex] = d.weights.lex
		fv[featWeightSym] = d.weights.sym
		fv[featWeightGraph] = d.weights.graph
		fv[featNumStrategies] = float64(numStrategies)
		fv[featBestRank] = float64(bestRank)
		fv[featAvgRank] = avgRank
		fv[featConsensusFactor] = factor
		fv[featChunkSize] = float64(d.chunkSize)
		fv[featFileDepth] = float64(d.fileDepth)

		out = append(out, Result{
			ChunkID:  d.key.chunkID,
			FilePath: d.key.filePath,
			Line:     d.key.line,
			Score:    final,
			Features: fv,
		})
	}
	return out
}

func rankOrNeg1(ranks map[Strategy]int, s Strategy) int {
	if r, ok := ranks[s]; ok {
		return r
	}
	return -1
}

// explain builds the optional human-readable explanation string (spec.md
// §4.N step 8).
func explain(res Result, probs IntentProbabilities) string {
	best := IntentBalanced
	bestP := -1.0
	for _, intent := range allIntents {
		if p := probs[intent]; p > bestP {
			best, bestP = intent, p
		}
	}
	return fmt.Sprintf("intent=%s(%.2f) num_strategies=%d avg_rank=%.2f consensus=%.3f",
		best, bestP, int(res.Features[featNumStrategies]), res.Features[featAvgRank], res.Features[featConsensusFactor])
}
