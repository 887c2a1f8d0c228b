package clone

import (
	"encoding/binary"
	"sort"

	"github.com/cespare/xxhash/v2"

	"codegraph/internal/logging"
)

const (
	shingleSize  = 5
	numHashes    = 32
	bandSize     = 4 // numHashes must be divisible by bandSize
	simThreshold = 0.6
)

// minHashSignature computes numHashes minimum hash values over a fragment's
// token shingles, one xxhash64 per seed (seed mixed into the shingle bytes
// rather than requiring a family of distinct hash functions).
func minHashSignature(tokens []string) [numHashes]uint64 {
	var sig [numHashes]uint64
	for i := range sig {
		sig[i] = ^uint64(0)
	}
	shs := shingles(tokens, shingleSize)
	if len(shs) == 0 {
		return sig
	}
	var seedBuf [8]byte
	for _, sh := range shs {
		base := xxhash.Sum64String(sh)
		for i := 0; i < numHashes; i++ {
			binary.LittleEndian.PutUint64(seedBuf[:], base)
			h := xxhash.New()
			h.Write(seedBuf[:])
			binary.LittleEndian.PutUint64(seedBuf[:], uint64(i))
			h.Write(seedBuf[:])
			v := h.Sum64()
			if v < sig[i] {
				sig[i] = v
			}
		}
	}
	return sig
}

func signatureSimilarity(a, b [numHashes]uint64) float64 {
	matches := 0
	for i := range a {
		if a[i] == b[i] {
			matches++
		}
	}
	return float64(matches) / float64(numHashes)
}

// Tier2MinHashLSH finds Type-2/3 candidate clusters among fragments via
// MinHash signatures banded for LSH candidate generation, then confirms
// each candidate pair by full signature similarity (spec.md §4.J: enabled
// only when the caller has already restricted to n <= 500 fragments).
func Tier2MinHashLSH(fragments []Fragment) (clusters []Cluster, residue []Fragment) {
	if len(fragments) == 0 {
		return nil, nil
	}

	sigs := make([][numHashes]uint64, len(fragments))
	for i, f := range fragments {
		sigs[i] = minHashSignature(normalizeTokens(f.Content))
	}

	// LSH banding: two fragments sharing an identical band are candidate
	// pairs, cutting the all-pairs comparison down to same-bucket pairs.
	buckets := make(map[string][]int)
	for i, sig := range sigs {
		for b := 0; b < numHashes; b += bandSize {
			key := bandKey(b, sig)
			buckets[key] = append(buckets[key], i)
		}
	}

	parent := make([]int, len(fragments))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[rb] = ra
		}
	}

	checked := make(map[[2]int]bool)
	for _, members := range buckets {
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				a, b := members[i], members[j]
				if a > b {
					a, b = b, a
				}
				key := [2]int{a, b}
				if checked[key] {
					continue
				}
				checked[key] = true
				if signatureSimilarity(sigs[a], sigs[b]) >= simThreshold {
					union(a, b)
				}
			}
		}
	}

	groups := make(map[int][]int)
	for i := range fragments {
		root := find(i)
		groups[root] = append(groups[root], i)
	}

	keys := make([]int, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	for _, k := range keys {
		members := groups[k]
		if len(members) < 2 {
			residue = append(residue, fragments[members[0]])
			continue
		}
		frags := make([]Fragment, len(members))
		for i, idx := range members {
			frags[i] = fragments[idx]
		}
		clusters = append(clusters, Cluster{Type: Type2, Fragments: frags})
	}

	logging.CloneDebug("clone tier2: %d fragments -> %d clusters, %d residue", len(fragments), len(clusters), len(residue))
	return clusters, residue
}

func bandKey(start int, sig [numHashes]uint64) string {
	buf := make([]byte, bandSize*8+8)
	binary.LittleEndian.PutUint64(buf[:8], uint64(start))
	for i := 0; i < bandSize; i++ {
		binary.LittleEndian.PutUint64(buf[8+i*8:], sig[start+i])
	}
	return string(buf)
}
