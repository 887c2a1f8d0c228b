package retriever

import "math"

// RRF k-constants, one per strategy family (spec.md §4.N step 3).
const (
	kVector  = 70.0
	kLexical = 70.0
	kSymbol  = 50.0
	kGraph   = 50.0
)

func rrfK(s Strategy) float64 {
	switch s {
	case StrategyVector:
		return kVector
	case StrategyLexical:
		return kLexical
	case StrategySymbol:
		return kSymbol
	case StrategyGraph:
		return kGraph
	default:
		return kLexical
	}
}

// rrf computes 1 / (k + rank) for a zero-based rank (spec.md §4.N step 3).
func rrf(strategy Strategy, rank int) float64 {
	return 1.0 / (rrfK(strategy) + float64(rank))
}

// weightProfile is one intent's per-strategy combination weights (spec.md
// §4.N step 4 table).
type weightProfile struct{ vec, lex, sym, graph float64 }

var weightTable = map[Intent]weightProfile{
	IntentCode:     {vec: 0.50, lex: 0.30, sym: 0.10, graph: 0.10},
	IntentSymbol:   {vec: 0.20, lex: 0.20, sym: 0.50, graph: 0.10},
	IntentFlow:     {vec: 0.20, lex: 0.10, sym: 0.20, graph: 0.50},
	IntentConcept:  {vec: 0.70, lex: 0.20, sym: 0.05, graph: 0.05},
	IntentBalanced: {vec: 0.40, lex: 0.30, sym: 0.20, graph: 0.10},
}

// combinedWeights linearly combines each intent's weight profile by its
// classified probability (spec.md §4.N step 4: "final weights are a linear
// combination of intent-specific weight profiles... by the intent
// probabilities").
func combinedWeights(probs IntentProbabilities) weightProfile {
	var w weightProfile
	for intent, p := range probs {
		profile := weightTable[intent]
		w.vec += p * profile.vec
		w.lex += p * profile.lex
		w.sym += p * profile.sym
		w.graph += p * profile.graph
	}
	return w
}

func (w weightProfile) forStrategy(s Strategy) float64 {
	switch s {
	case StrategyVector:
		return w.vec
	case StrategyLexical:
		return w.lex
	case StrategySymbol:
		return w.sym
	case StrategyGraph:
		return w.graph
	default:
		return 0
	}
}

// intentCutoff is the intent-based top-K cutoff (spec.md §4.N step 6),
// chosen by the most probable intent in probs.
func intentCutoff(probs IntentProbabilities) int {
	best := IntentBalanced
	bestP := -1.0
	for _, intent := range allIntents {
		if p := probs[intent]; p > bestP {
			best, bestP = intent, p
		}
	}
	switch best {
	case IntentSymbol:
		return 20
	case IntentFlow:
		return 15
	case IntentConcept:
		return 60
	case IntentCode:
		return 40
	default:
		return 40
	}
}

const consensusBeta = 0.3
const consensusCap = 1.5

// consensusFactor implements spec.md §4.N step 5 exactly, reproducing S3's
// worked example: raw = 1 + β(√M - 1), capped = min(1.5, raw),
// quality = 1/(1 + avgRank/10), factor = capped * (0.5 + 0.5*quality).
func consensusFactor(numStrategies int, avgRank float64) float64 {
	raw := 1 + consensusBeta*(math.Sqrt(float64(numStrategies))-1)
	capped := math.Min(consensusCap, raw)
	quality := 1 / (1 + avgRank/10)
	return capped * (0.5 + 0.5*quality)
}
