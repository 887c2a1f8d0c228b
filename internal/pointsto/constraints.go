// Package pointsto implements the Points-to Engine (spec.md §4.H): Andersen
// (inclusion-based, precise) and Steensgaard (unification-based, fast)
// solvers sharing one constraint model, selected by AnalysisMode.
package pointsto

import (
	"codegraph/internal/ir"
)

// ConstraintKind classifies a points-to constraint in the standard
// Andersen/Steensgaard formulation.
type ConstraintKind string

const (
	// Addr is "a = &b": a points to the allocation/object denoted by b.
	Addr ConstraintKind = "addr"
	// Copy is "a = b": a's points-to set includes everything b's does.
	Copy ConstraintKind = "copy"
	// Load is "a = *b": a's points-to set includes everything pointed to
	// by anything b points to.
	Load ConstraintKind = "load"
	// Store is "*a = b": everything a points to gains b's points-to set.
	Store ConstraintKind = "store"
)

// Constraint is one inclusion (or unification, for Steensgaard) edge over
// variable IDs. Variable IDs are IR node IDs (or synthesized object IDs for
// allocation sites without their own node, e.g. a call-site's return value).
type Constraint struct {
	Kind ConstraintKind
	LHS  string
	RHS  string
}

// ConstraintSet is a flat list of constraints plus the full variable
// universe, built once and shared read-only by every solver.
type ConstraintSet struct {
	Constraints []Constraint
	Variables   []string
}

// BuildConstraints derives a constraint set from resolved IR documents.
// Every Variable/Parameter node is a points-to variable; a WRITES edge from
// a call or literal node into a variable is an allocation-site Addr
// constraint (the call/literal stands in for the object it produces); a
// WRITES edge from one variable into another, or a DFG_DEF_USE edge, is a
// Copy constraint. This is a conservative, name-based scheme: it does not
// model field-sensitivity or array indexing (spec.md names no such
// requirement for this engine).
func BuildConstraints(docs []ir.Document) ConstraintSet {
	varSeen := make(map[string]bool)
	var vars []string
	addVar := func(id string) {
		if !varSeen[id] {
			varSeen[id] = true
			vars = append(vars, id)
		}
	}

	nodeKind := make(map[string]ir.NodeKind)
	for _, doc := range docs {
		for _, n := range doc.Nodes {
			nodeKind[n.NodeID] = n.Kind
			if n.Kind == ir.KindVariable || n.Kind == ir.KindParameter {
				addVar(n.NodeID)
			}
		}
	}

	var cs []Constraint
	for _, doc := range docs {
		for _, e := range doc.Edges {
			switch e.Kind {
			case ir.EdgeWrites:
				lhsKind, lhsIsVar := nodeKind[e.TargetID]
				if !lhsIsVar || (lhsKind != ir.KindVariable && lhsKind != ir.KindParameter) {
					continue
				}
				addVar(e.TargetID)
				switch nodeKind[e.SourceID] {
				case ir.KindVariable, ir.KindParameter:
					addVar(e.SourceID)
					cs = append(cs, Constraint{Kind: Copy, LHS: e.TargetID, RHS: e.SourceID})
				case ir.KindCall, ir.KindLiteral:
					cs = append(cs, Constraint{Kind: Addr, LHS: e.TargetID, RHS: e.SourceID})
				}
			case ir.EdgeDFGDefUse:
				lk, lok := nodeKind[e.TargetID]
				rk, rok := nodeKind[e.SourceID]
				if lok && rok && (lk == ir.KindVariable || lk == ir.KindParameter) &&
					(rk == ir.KindVariable || rk == ir.KindParameter) {
					addVar(e.TargetID)
					addVar(e.SourceID)
					cs = append(cs, Constraint{Kind: Copy, LHS: e.TargetID, RHS: e.SourceID})
				}
			}
		}
	}
	return ConstraintSet{Constraints: cs, Variables: vars}
}
