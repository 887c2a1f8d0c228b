package retriever

import "strings"

// intentKeywords are the lexical cues each intent's heuristic classifier
// scores a query against. This is a documented stand-in for the teacher's
// embedding-based classifier (internal/perception/semantic_classifier.go
// embeds the query and searches a learned corpus) — no embedding engine is
// in scope for this core (spec.md §1 names vector/LLM backends as external
// collaborators), so intent is scored by keyword presence instead, kept
// behind the same Intent/IntentProbabilities contract an embedding-backed
// classifier would also produce.
var intentKeywords = map[Intent][]string{
	IntentSymbol:  {"function", "method", "class", "struct", "def", "symbol", "declaration", "signature"},
	IntentFlow:    {"call", "calls", "caller", "callee", "flow", "taint", "reaches", "path", "propagate"},
	IntentConcept: {"how", "why", "what", "explain", "concept", "overview", "architecture", "design"},
	IntentCode:    {"implementation", "code", "snippet", "example", "body", "logic"},
}

// ClassifyIntent scores query against each intent's keyword set and
// normalizes the counts into a probability distribution (spec.md §4.N step
// 1). A query matching nothing at all is Balanced with probability 1, since
// that intent's weight profile is itself already a broad blend.
func ClassifyIntent(query string) IntentProbabilities {
	lower := strings.ToLower(query)
	words := strings.Fields(lower)
	wordSet := make(map[string]bool, len(words))
	for _, w := range words {
		wordSet[strings.Trim(w, ".,()[]{}:;")] = true
	}

	raw := make(map[Intent]float64, len(allIntents))
	var total float64
	for intent, keywords := range intentKeywords {
		var score float64
		for _, kw := range keywords {
			if wordSet[kw] || strings.Contains(lower, kw) {
				score++
			}
		}
		raw[intent] = score
		total += score
	}

	probs := make(IntentProbabilities, len(allIntents))
	if total == 0 {
		probs[IntentBalanced] = 1
		for _, intent := range allIntents {
			if intent != IntentBalanced {
				probs[intent] = 0
			}
		}
		return probs
	}

	// Balanced gets whatever mass the four specific intents leave, so the
	// distribution sums to 1 without a dedicated Balanced keyword set. The
	// four are normalized by their own total, so once any keyword matches
	// they sum to 1 and Balanced is 0; Balanced is 1 only when nothing
	// matches (above).
	var specificMass float64
	for _, intent := range []Intent{IntentSymbol, IntentFlow, IntentConcept, IntentCode} {
		p := raw[intent] / total
		probs[intent] = p
		specificMass += p
	}
	probs[IntentBalanced] = 1 - specificMass
	if probs[IntentBalanced] < 0 {
		probs[IntentBalanced] = 0
	}
	return probs
}
