// Package retriever implements the hybrid retrieval layer (spec.md §4.N):
// multi-label intent classification, parallel per-strategy retrieval, RRF
// normalization, weighted combination, consensus boost, intent-based
// cutoff, and a fixed-order feature vector for downstream learning-to-rank.
package retriever

import (
	"context"

	"codegraph/internal/indexer"
)

// Intent is one of the five retrieval-intent classes a query is scored
// against; a query's classification is a probability distribution over all
// five, not a single label (spec.md §4.N step 1).
type Intent string

const (
	IntentSymbol   Intent = "symbol"
	IntentFlow     Intent = "flow"
	IntentConcept  Intent = "concept"
	IntentCode     Intent = "code"
	IntentBalanced Intent = "balanced"
)

var allIntents = []Intent{IntentSymbol, IntentFlow, IntentConcept, IntentCode, IntentBalanced}

// IntentProbabilities is a multi-label distribution over Intent, summing to
// 1 (barring floating-point slack).
type IntentProbabilities map[Intent]float64

// Strategy is one of the four retrieval strategies fanned out to in
// parallel (spec.md §4.N step 2).
type Strategy string

const (
	StrategyVector  Strategy = "vector"
	StrategyLexical Strategy = "lexical"
	StrategySymbol  Strategy = "symbol"
	StrategyGraph   Strategy = "graph"
)

var allStrategies = []Strategy{StrategyVector, StrategyLexical, StrategySymbol, StrategyGraph}

// Adapter is the per-strategy retrieval port: a thin wrapper over whatever
// backs that strategy (internal/lexical.Index for Lexical, an
// indexer.IndexPlugin-shaped external collaborator for Vector/Symbol/Graph
// — spec.md §1 names vector/symbol-graph/graph-flow search as components
// whose *interface* only is specified here).
type Adapter interface {
	Search(ctx context.Context, query string, limit int) ([]indexer.SearchHit, error)
}

// FeatureVector is the 18-float, fixed-order feature vector spec.md §4.N
// step 7 requires for every result, stable for downstream learning-to-rank.
// Field order is part of the wire contract: rank_{vec,lex,sym,graph},
// rrf_{vec,lex,sym,graph}, weight_{vec,lex,sym,graph}, num_strategies,
// best_rank, avg_rank, consensus_factor, chunk_size, file_depth.
type FeatureVector [18]float64

const (
	featRankVec = iota
	featRankLex
	featRankSym
	featRankGraph
	featRRFVec
	featRRFLex
	featRRFSym
	featRRFGraph
	featWeightVec
	featWeightLex
	featWeightSym
	featWeightGraph
	featNumStrategies
	featBestRank
	featAvgRank
	featConsensusFactor
	featChunkSize
	featFileDepth
)

// Result is one fused, boosted, feature-annotated search hit (spec.md
// §4.N's SearchHit, extended with the fusion bookkeeping).
type Result struct {
	ChunkID     string
	FilePath    string
	Line        int
	Score       float64
	Features    FeatureVector
	Explanation string
}

// State is the Retriever's pipeline state machine (spec.md §4.N: "Received
// → Classified → Fanned-out → Normalized → Fused → Boosted → Cutoff →
// Emitted").
type State string

const (
	StateReceived   State = "received"
	StateClassified State = "classified"
	StateFannedOut  State = "fanned_out"
	StateNormalized State = "normalized"
	StateFused      State = "fused"
	StateBoosted    State = "boosted"
	StateCutoff     State = "cutoff"
	StateEmitted    State = "emitted"
)

// Response is Search's return value: the final ranked, cut-off results, the
// state the pipeline reached (Emitted on success, whatever stage it was in
// when a deadline expired otherwise), and whether the result is degraded.
type Response struct {
	Results  []Result
	State    State
	Degraded bool
}
