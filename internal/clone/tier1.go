package clone

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// NormalizedHash is the Tier-1 fingerprint: a hash over whitespace- and
// comment-stripped tokens, O(n) per fragment (spec.md §4.J).
func NormalizedHash(content string) string {
	tokens := normalizeTokens(content)
	sum := sha256.Sum256([]byte(strings.Join(tokens, "\x00")))
	return hex.EncodeToString(sum[:])
}

// Tier1Exact groups fragments by NormalizedHash. Any group with more than
// one member is a Type-1 clone cluster; a fragment whose hash no other
// fragment shares is not put in a cluster but returned in the residue, which
// is all that later tiers need to look at.
func Tier1Exact(fragments []Fragment) (clusters []Cluster, residue []Fragment) {
	byHash := make(map[string][]Fragment)
	order := make([]string, 0)
	for _, f := range fragments {
		h := NormalizedHash(f.Content)
		if _, ok := byHash[h]; !ok {
			order = append(order, h)
		}
		byHash[h] = append(byHash[h], f)
	}
	for _, h := range order {
		group := byHash[h]
		if len(group) > 1 {
			clusters = append(clusters, Cluster{Type: Type1, Fragments: group})
		} else {
			residue = append(residue, group[0])
		}
	}
	return clusters, residue
}
