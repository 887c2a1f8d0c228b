package clone

import (
	"github.com/pmezard/go-difflib/difflib"

	"codegraph/internal/logging"
)

// tier3SimThreshold is the similarity ratio above which two residue
// fragments are judged Type-3/4 clones.
const tier3SimThreshold = 0.7

// Tier3MultiLevel is the full detector run only on the residue the cheaper
// tiers left unmatched (spec.md §4.J): a token-sequence edit-distance ratio
// stands in for full PDG + graph-isomorphism comparison. Only the normalized
// token sequences are compared; no control- or data-flow structure is.
func Tier3MultiLevel(fragments []Fragment) (clusters []Cluster, unmatched []Fragment) {
	n := len(fragments)
	used := make([]bool, n)
	tokenSeqs := make([][]string, n)
	for i, f := range fragments {
		tokenSeqs[i] = normalizeTokens(f.Content)
	}

	for i := 0; i < n; i++ {
		if used[i] {
			continue
		}
		group := []Fragment{fragments[i]}
		used[i] = true
		for j := i + 1; j < n; j++ {
			if used[j] {
				continue
			}
			if editDistanceRatio(tokenSeqs[i], tokenSeqs[j]) >= tier3SimThreshold {
				group = append(group, fragments[j])
				used[j] = true
			}
		}
		if len(group) > 1 {
			clusters = append(clusters, Cluster{Type: Type3, Fragments: group})
		} else {
			unmatched = append(unmatched, fragments[i])
		}
	}

	logging.CloneDebug("clone tier3: %d residue fragments -> %d clusters, %d unmatched", n, len(clusters), len(unmatched))
	return clusters, unmatched
}

// editDistanceRatio is go-difflib's SequenceMatcher similarity ratio over
// token sequences: 2*M/T where M is matching tokens and T the total count
// across both sequences, which approximates normalized edit distance for
// the added/removed/reordered-statement residue Tier 3 is meant to catch.
func editDistanceRatio(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	sm := difflib.NewMatcher(a, b)
	return sm.Ratio()
}
