// Package taint implements the Taint / IFDS-IDE Engine (spec.md §4.I): an
// inter-procedural worklist over a set-of-labels fact lattice, producing
// source-to-sink paths. Three solver strategies (IFDS, IDE,
// interprocedural-dataflow) share one worklist/summary-cache/path-edge base
// and differ only in whether the summary cache is used.
package taint

import (
	"codegraph/internal/ir"
)

// Label is one taint label carried by a fact (e.g. "user_input", "sql").
type Label string

// Fact is the lattice element propagated along the graph: the empty set is
// bottom (untainted), and facts merge by set union.
type Fact map[Label]bool

func (f Fact) clone() Fact {
	cp := make(Fact, len(f))
	for l := range f {
		cp[l] = true
	}
	return cp
}

func (f Fact) union(o Fact) Fact {
	out := f.clone()
	for l := range o {
		out[l] = true
	}
	return out
}

func (f Fact) equal(o Fact) bool {
	if len(f) != len(o) {
		return false
	}
	for l := range f {
		if !o[l] {
			return false
		}
	}
	return true
}

// Site classifies a node for taint seeding/sinking purposes, read off
// IRNode.Attrs (the parser or a later annotation pass tags sources, sinks,
// and sanitizers this way; spec.md leaves the tagging mechanism
// unspecified, so this package defines the convention).
type Site int

const (
	SiteNone Site = iota
	SiteSource
	SiteSink
	SiteSanitizer
)

func classify(n ir.IRNode) Site {
	switch n.Attrs["taint"] {
	case "source":
		return SiteSource
	case "sink":
		return SiteSink
	case "sanitizer":
		return SiteSanitizer
	default:
		return SiteNone
	}
}

func sourceLabel(n ir.IRNode) Label {
	if l := n.Attrs["taint_label"]; l != "" {
		return Label(l)
	}
	return Label(n.FQN)
}

// Step is one hop in a reported source-to-sink path.
type Step struct {
	NodeID string
	Kind   ir.EdgeKind // edge-kind field; Solver does not fill it in, so the steps it reports leave it empty
	Label  Label
}

// Path is one discovered source→sink flow.
type Path struct {
	Source          string
	Sink            string
	Label           Label
	Steps           []Step
	SanitizerPassed bool // true if a sanitizer site appeared anywhere on the path
}
