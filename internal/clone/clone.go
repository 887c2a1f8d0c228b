package clone

// CloneType classifies a cluster by how its members diverge (spec.md §4.J).
type CloneType int

const (
	Type1 CloneType = iota + 1 // identical modulo whitespace/comments
	Type2                      // identical modulo identifier/literal renaming
	Type3                      // near-miss: added/removed/reordered statements
	Type4                      // semantically equivalent, syntactically different
)

// Fragment is one unit the clone engine compares: a chunk's ID, file
// location, and raw content. internal/chunk's function/method chunks are
// the expected source, but the engine itself only depends on this shape.
type Fragment struct {
	ChunkID  string
	FilePath string
	Content  string
}

// Cluster is a group of fragments judged to be clones of one another.
type Cluster struct {
	Type      CloneType
	Fragments []Fragment
}

// baselineFragmentThreshold is the fragment count below which the selector
// skips straight to Tier 1 only (spec.md §4.J: "< 50 fragments ⇒ baseline
// only; else hybrid" — below this scale the more expensive tiers cost more
// than they'd ever recover).
const baselineFragmentThreshold = 50

// minHashFragmentCeiling is the fragment count above which Tier 2
// (MinHash+LSH) is skipped — its all-pairs banding cost is only amortized
// below this ceiling (spec.md §4.J: "enabled only for n ≤ 500 fragments").
const minHashFragmentCeiling = 500

// Result is the engine's output: every discovered cluster, plus the
// fragments no tier matched at all.
type Result struct {
	Clusters  []Cluster
	Unmatched []Fragment
}

// Detect runs the 3-tier selector over fragments (spec.md §4.J):
//   - fewer than 50 fragments: Tier 1 only.
//   - otherwise: Tier 1, then Tier 2 (if n <= 500) over Tier 1's residue,
//     then Tier 3 over whatever residue remains.
func Detect(fragments []Fragment) Result {
	clusters, residue := Tier1Exact(fragments)
	if len(fragments) < baselineFragmentThreshold {
		return Result{Clusters: clusters, Unmatched: residue}
	}

	if len(fragments) <= minHashFragmentCeiling {
		var tier2 []Cluster
		tier2, residue = Tier2MinHashLSH(residue)
		clusters = append(clusters, tier2...)
	}

	tier3, unmatched := Tier3MultiLevel(residue)
	clusters = append(clusters, tier3...)
	return Result{Clusters: clusters, Unmatched: unmatched}
}
