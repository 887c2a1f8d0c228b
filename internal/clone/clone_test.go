package clone_test

import (
	"fmt"
	"testing"

	"codegraph/internal/clone"
)

func TestTier1ExactGroupsIdenticalModuloFormatting(t *testing.T) {
	fragments := []clone.Fragment{
		{ChunkID: "a", Content: "func add(x, y int) int {\n  return x + y\n}"},
		{ChunkID: "b", Content: "func add(x, y int) int { return x + y }"}, // same tokens, different whitespace
		{ChunkID: "c", Content: "func sub(x, y int) int { return x - y }"},
	}

	clusters, residue := clone.Tier1Exact(fragments)
	if len(clusters) != 1 || len(clusters[0].Fragments) != 2 {
		t.Fatalf("expected one 2-member Type-1 cluster, got %+v", clusters)
	}
	if len(residue) != 1 || residue[0].ChunkID != "c" {
		t.Fatalf("expected c left in residue, got %+v", residue)
	}
}

func TestDetectBelowBaselineThresholdSkipsHybridTiers(t *testing.T) {
	fragments := make([]clone.Fragment, 10)
	for i := range fragments {
		fragments[i] = clone.Fragment{ChunkID: fmt.Sprintf("f%d", i), Content: fmt.Sprintf("func f%d() { return %d }", i, i)}
	}
	result := clone.Detect(fragments)
	if len(result.Clusters) != 0 {
		t.Fatalf("expected no clusters among 10 distinct fragments, got %+v", result.Clusters)
	}
	if len(result.Unmatched) != 10 {
		t.Fatalf("expected all 10 fragments unmatched, got %d", len(result.Unmatched))
	}
}

func TestTier2MinHashFindsRenamedNearDuplicate(t *testing.T) {
	base := "if user != nil && user . active && user . verified && count > 0 { process ( user , count ) }"
	renamed := "if person != nil && person . active && person . verified && total > 0 { process ( person , total ) }"
	fragments := []clone.Fragment{
		{ChunkID: "a", Content: base},
		{ChunkID: "b", Content: renamed},
		{ChunkID: "c", Content: "completely unrelated short fragment"},
	}

	clusters, residue := clone.Tier2MinHashLSH(fragments)
	found := false
	for _, c := range clusters {
		if len(c.Fragments) == 2 {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a or b to cluster together, got clusters=%+v residue=%+v", clusters, residue)
	}
}

func TestTier3MultiLevelMatchesInsertedStatement(t *testing.T) {
	a := clone.Fragment{ChunkID: "a", Content: "x = 1 ; y = 2 ; z = x + y ; return z"}
	b := clone.Fragment{ChunkID: "b", Content: "x = 1 ; y = 2 ; w = 3 ; z = x + y ; return z"}
	clusters, unmatched := clone.Tier3MultiLevel([]clone.Fragment{a, b})
	if len(clusters) != 1 {
		t.Fatalf("expected a near-miss cluster, got clusters=%+v unmatched=%+v", clusters, unmatched)
	}
}
