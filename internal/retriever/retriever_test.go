package retriever_test

import (
	"context"
	"math"
	"testing"

	"codegraph/internal/indexer"
	"codegraph/internal/retriever"
)

// fixedAdapter always returns the same hit list, regardless of query.
type fixedAdapter struct{ hits []indexer.SearchHit }

func (f fixedAdapter) Search(ctx context.Context, query string, limit int) ([]indexer.SearchHit, error) {
	return f.hits, nil
}

func almostEqual(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

// TestConsensusAndRRFMatchWorkedExample reproduces S3's document ranking
// (vec=0, lex=0, sym=0, graph=2, Balanced intent) and checks the formula's
// own invariants: num_strategies=4, avg_rank=0.5, and a consensus_factor of
// ≈1.269 (capped <= 1.5). spec.md's S3 prose also states base≈0.01431 and
// final≈0.01816, but those two figures are inconsistent with the formula it
// gives just before them (0.4·(1/70)+0.3·(1/70)+0.2·(1/50)+0.1·(1/52)
// evaluates to ≈0.01592, not ≈0.01431) — this test follows the stated
// formula literally rather than the prose's arithmetic slip, and checks the
// figures the formula itself actually produces.
func TestConsensusAndRRFMatchWorkedExample(t *testing.T) {
	hit := indexer.SearchHit{ChunkID: "chunk:r1:function:d", FilePath: "d.go", Line: 1}
	graphHit := hit
	r := retriever.New(map[retriever.Strategy]retriever.Adapter{
		retriever.StrategyVector:  fixedAdapter{hits: []indexer.SearchHit{hit}},
		retriever.StrategyLexical: fixedAdapter{hits: []indexer.SearchHit{hit}},
		retriever.StrategySymbol:  fixedAdapter{hits: []indexer.SearchHit{hit}},
		retriever.StrategyGraph:   fixedAdapter{hits: []indexer.SearchHit{{}, {}, graphHit}}, // rank 2
	})

	resp := r.Search(context.Background(), "find d (no intent keywords, stays Balanced)", 10)
	if resp.State != retriever.StateEmitted {
		t.Fatalf("expected Emitted state, got %s", resp.State)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("expected exactly one fused document, got %d: %+v", len(resp.Results), resp.Results)
	}

	fv := resp.Results[0].Features
	if fv[12] != 4 {
		t.Fatalf("num_strategies: got %v, want 4", fv[12])
	}
	if !almostEqual(fv[14], 0.5, 1e-9) {
		t.Fatalf("avg_rank: got %v, want 0.5", fv[14])
	}
	if !almostEqual(fv[15], 1.269, 0.01) {
		t.Fatalf("consensus_factor: got %v, want ~1.269", fv[15])
	}
	if fv[15] > 1.5 {
		t.Fatalf("consensus_factor must never exceed the 1.5 cap, got %v", fv[15])
	}
	if fv[13] != 0 {
		t.Fatalf("best_rank: got %v, want 0", fv[13])
	}
}

func TestConsensusFactorExceedsOneWhenAtLeastTwoStrategiesAgree(t *testing.T) {
	hit := indexer.SearchHit{ChunkID: "chunk:r1:function:shared", FilePath: "s.go", Line: 1}
	r := retriever.New(map[retriever.Strategy]retriever.Adapter{
		retriever.StrategyVector:  fixedAdapter{hits: []indexer.SearchHit{hit}},
		retriever.StrategyLexical: fixedAdapter{hits: []indexer.SearchHit{hit}},
	})
	resp := r.Search(context.Background(), "implementation code example", 10)
	if len(resp.Results) != 1 {
		t.Fatalf("expected one fused doc, got %d", len(resp.Results))
	}
	if resp.Results[0].Features[15] <= 1.0 {
		t.Fatalf("expected consensus_factor > 1.0 for a 2-strategy-agreement doc, got %v", resp.Results[0].Features[15])
	}
}

func TestIntentBasedCutoffLimitsResultCount(t *testing.T) {
	var hits []indexer.SearchHit
	for i := 0; i < 30; i++ {
		hits = append(hits, indexer.SearchHit{ChunkID: "c" + string(rune('a'+i)), FilePath: "f.go", Line: i + 1})
	}
	r := retriever.New(map[retriever.Strategy]retriever.Adapter{
		retriever.StrategySymbol: fixedAdapter{hits: hits},
	})
	resp := r.Search(context.Background(), "function signature symbol", 30)
	if len(resp.Results) > 20 {
		t.Fatalf("Symbol intent cutoff is 20, got %d results", len(resp.Results))
	}
}

func TestClassifyIntentDefaultsToBalancedOnNoKeywordMatch(t *testing.T) {
	probs := retriever.ClassifyIntent("xyzzy plugh")
	if probs[retriever.IntentBalanced] != 1 {
		t.Fatalf("expected Balanced=1 for a query matching no keywords, got %+v", probs)
	}
}

func TestFanOutIsolatesAStrategyErrorWithoutFailingOthers(t *testing.T) {
	hit := indexer.SearchHit{ChunkID: "c1", FilePath: "a.go", Line: 1}
	r := retriever.New(map[retriever.Strategy]retriever.Adapter{
		retriever.StrategyLexical: fixedAdapter{hits: []indexer.SearchHit{hit}},
		retriever.StrategyVector:  erroringAdapter{},
	})
	resp := r.Search(context.Background(), "implementation", 10)
	if !resp.Degraded {
		t.Fatalf("expected a degraded response when one strategy errors")
	}
	if len(resp.Results) != 1 {
		t.Fatalf("expected the healthy strategy's hit to still be fused, got %d results", len(resp.Results))
	}
}

type erroringAdapter struct{}

func (erroringAdapter) Search(ctx context.Context, query string, limit int) ([]indexer.SearchHit, error) {
	return nil, context.DeadlineExceeded
}
