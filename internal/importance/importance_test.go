package importance_test

import (
	"testing"

	"codegraph/internal/graph"
	"codegraph/internal/importance"
	"codegraph/internal/ir"
)

func starGraph() *graph.Graph {
	g := graph.New()
	g.AddEdge(graph.Edge{From: "a", To: "hub", Kind: ir.EdgeCalls})
	g.AddEdge(graph.Edge{From: "b", To: "hub", Kind: ir.EdgeCalls})
	g.AddEdge(graph.Edge{From: "c", To: "hub", Kind: ir.EdgeCalls})
	return g
}

func TestPageRankRanksHubHighest(t *testing.T) {
	adj := importance.Build(starGraph())
	scores := importance.PageRank(adj, importance.DefaultPageRankOptions())

	if scores["hub"] <= scores["a"] {
		t.Fatalf("expected hub to outrank a, got hub=%f a=%f", scores["hub"], scores["a"])
	}
}

func TestPersonalizedPageRankConcentratesOnSeeds(t *testing.T) {
	adj := importance.Build(starGraph())
	opts := importance.DefaultPageRankOptions()

	uniform := importance.PageRank(adj, opts)
	seeded := importance.PersonalizedPageRank(adj, opts, []string{"a"})

	if seeded["a"] <= uniform["a"] {
		t.Fatalf("expected seeding on a to raise a's score relative to uniform PageRank: seeded=%f uniform=%f", seeded["a"], uniform["a"])
	}
}

func TestHITSGivesHubNodeHighestAuthority(t *testing.T) {
	adj := importance.Build(starGraph())
	result := importance.HITS(adj, 10)

	if result.Authority["hub"] <= result.Authority["a"] {
		t.Fatalf("expected hub to have higher authority than a, got hub=%f a=%f", result.Authority["hub"], result.Authority["a"])
	}
	if result.Hub["a"] <= result.Hub["hub"] {
		t.Fatalf("expected a (which points outward) to have higher hub score than hub itself, got a=%f hub=%f", result.Hub["a"], result.Hub["hub"])
	}
}

func TestDetectModePriorityOrder(t *testing.T) {
	cases := []struct {
		name string
		ctx  importance.ModeDetectionContext
		want importance.Mode
	}{
		{"initial indexing wins over everything", importance.ModeDetectionContext{IsInitialIndexing: true, AnalysisType: importance.AnalysisRefactoringPlan}, importance.ModeFast},
		{"bugfix analysis type", importance.ModeDetectionContext{AnalysisType: importance.AnalysisBugFix}, importance.ModeAI},
		{"architecture review analysis type", importance.ModeDetectionContext{AnalysisType: importance.AnalysisArchitectureView}, importance.ModeArchitecture},
		{"refactoring plan analysis type", importance.ModeDetectionContext{AnalysisType: importance.AnalysisRefactoringPlan}, importance.ModeFull},
		{"architecture review flag", importance.ModeDetectionContext{IsArchitectureReview: true}, importance.ModeArchitecture},
		{"ai agent flag", importance.ModeDetectionContext{IsAIAgent: true}, importance.ModeAI},
		{"target file present", importance.ModeDetectionContext{TargetFile: "main.go"}, importance.ModeAI},
		{"bug keyword", importance.ModeDetectionContext{Query: "why does this bug happen"}, importance.ModeAI},
		{"refactor keyword", importance.ModeDetectionContext{Query: "plan a refactor"}, importance.ModeArchitecture},
		{"small repo defaults to full", importance.ModeDetectionContext{RepoSizeLOC: 500}, importance.ModeFull},
		{"large repo with no other signal defaults to fast", importance.ModeDetectionContext{RepoSizeLOC: 50000}, importance.ModeFast},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := importance.DetectMode(tc.ctx); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestRunActivatesOnlyModeAlgorithms(t *testing.T) {
	scores := importance.Run(starGraph(), importance.ModeDetectionContext{IsArchitectureReview: true}, nil)
	if scores.Mode != importance.ModeArchitecture {
		t.Fatalf("expected architecture mode, got %s", scores.Mode)
	}
	if scores.PageRank == nil || scores.HITS == nil {
		t.Fatalf("expected PR and HITS populated for architecture mode")
	}
	if scores.PPR != nil {
		t.Fatalf("expected PPR to stay nil for architecture mode")
	}
}
