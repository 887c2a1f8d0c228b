package taint_test

import (
	"testing"

	"codegraph/internal/ir"
	"codegraph/internal/taint"
)

func directFlowDocs() []ir.Document {
	return []ir.Document{{
		FilePath: "handler.go",
		Nodes: []ir.IRNode{
			{NodeID: "n-input", Kind: ir.KindVariable, FQN: "userInput", Attrs: map[string]string{"taint": "source"}},
			{NodeID: "n-query", Kind: ir.KindCall, FQN: "db.Query", Attrs: map[string]string{"taint": "sink"}},
		},
		Edges: []ir.IREdge{
			{SourceID: "n-input", TargetID: "n-query", Kind: ir.EdgeDFGDefUse},
		},
	}}
}

func sanitizedFlowDocs() []ir.Document {
	return []ir.Document{{
		FilePath: "handler.go",
		Nodes: []ir.IRNode{
			{NodeID: "n-input", Kind: ir.KindVariable, FQN: "userInput", Attrs: map[string]string{"taint": "source"}},
			{NodeID: "n-escape", Kind: ir.KindCall, FQN: "sql.Escape", Attrs: map[string]string{"taint": "sanitizer"}},
			{NodeID: "n-query", Kind: ir.KindCall, FQN: "db.Query", Attrs: map[string]string{"taint": "sink"}},
		},
		Edges: []ir.IREdge{
			{SourceID: "n-input", TargetID: "n-escape", Kind: ir.EdgeDFGDefUse},
			{SourceID: "n-escape", TargetID: "n-query", Kind: ir.EdgeDFGDefUse},
		},
	}}
}

func TestDirectFlowReportsPath(t *testing.T) {
	for _, strat := range []taint.Strategy{taint.IFDS(), taint.IDE(), taint.InterproceduralDataflow()} {
		t.Run(strat.Name(), func(t *testing.T) {
			solver := taint.NewSolver(directFlowDocs(), strat)
			paths := solver.Run()
			if len(paths) != 1 {
				t.Fatalf("expected exactly one path, got %d: %+v", len(paths), paths)
			}
			p := paths[0]
			if p.Source != "n-input" || p.Sink != "n-query" {
				t.Fatalf("expected n-input -> n-query, got %s -> %s", p.Source, p.Sink)
			}
			if p.SanitizerPassed {
				t.Fatalf("expected no sanitizer on the direct flow path")
			}
			if len(p.Steps) == 0 {
				t.Fatalf("expected a non-empty step list")
			}
		})
	}
}

func TestSanitizerBreaksPropagationButIsRecorded(t *testing.T) {
	solver := taint.NewSolver(sanitizedFlowDocs(), taint.IFDS())
	paths := solver.Run()

	for _, p := range paths {
		if p.Sink == "n-query" {
			t.Fatalf("expected no live path to reach n-query through a sanitizer, got %+v", p)
		}
	}
}
