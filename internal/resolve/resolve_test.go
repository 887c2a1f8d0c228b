package resolve_test

import (
	"testing"

	"codegraph/internal/ir"
	"codegraph/internal/resolve"
)

func TestResolveCallRewritesExactFQNMatch(t *testing.T) {
	callee := ir.IRNode{NodeID: "n-helper", Kind: ir.KindFunction, FQN: "helper", Name: "helper"}
	caller := ir.IRNode{NodeID: "n-main", Kind: ir.KindFunction, FQN: "main", Name: "main"}
	docs := []ir.Document{
		{
			FilePath: "main.go", Language: "go",
			Nodes: []ir.IRNode{caller, callee},
			Edges: []ir.IREdge{
				{SourceID: "n-main", TargetID: ir.ExternalSentinel("go", "helper"), Kind: ir.EdgeCalls},
			},
		},
	}

	r := resolve.New("r1", docs)
	result := r.Resolve(docs)

	if result.ResolvedN != 1 {
		t.Fatalf("expected 1 resolved edge, got %d (unresolved=%v)", result.ResolvedN, result.Unresolved)
	}
	if docs[0].Edges[0].TargetID != "n-helper" {
		t.Fatalf("expected call edge rewritten to n-helper, got %s", docs[0].Edges[0].TargetID)
	}
}

func TestResolveCallLeavesTrulyUnknownAsSentinel(t *testing.T) {
	docs := []ir.Document{
		{
			FilePath: "main.go", Language: "go",
			Nodes: []ir.IRNode{{NodeID: "n-main", Kind: ir.KindFunction, FQN: "main", Name: "main"}},
			Edges: []ir.IREdge{
				{SourceID: "n-main", TargetID: ir.ExternalSentinel("go", "fmt.Println"), Kind: ir.EdgeCalls},
			},
		},
	}

	r := resolve.New("r1", docs)
	result := r.Resolve(docs)

	if result.ResolvedN != 0 {
		t.Fatalf("expected fmt.Println to remain unresolved, got ResolvedN=%d", result.ResolvedN)
	}
	if !ir.IsExternalSentinel(docs[0].Edges[0].TargetID) {
		t.Fatalf("expected unresolved call to remain a sentinel, got %s", docs[0].Edges[0].TargetID)
	}
	if len(result.Unresolved) != 1 {
		t.Fatalf("expected 1 unresolved entry, got %v", result.Unresolved)
	}
}

func TestResolveImportPythonRelative(t *testing.T) {
	docs := []ir.Document{
		{FilePath: "pkg/main.py", Language: "python"},
		{FilePath: "pkg/utils.py", Language: "python"},
	}
	docs[0].Edges = []ir.IREdge{
		{SourceID: "import-node", TargetID: ir.ExternalSentinel("python", "utils"), Kind: ir.EdgeImports},
	}

	r := resolve.New("r1", docs)
	result := r.Resolve(docs)

	if result.ResolvedN != 1 {
		t.Fatalf("expected the relative import to resolve, got %d unresolved=%v", result.ResolvedN, result.Unresolved)
	}
	want := resolve.FileNodeID("pkg/utils.py")
	if docs[0].Edges[0].TargetID != want {
		t.Fatalf("expected import target %s, got %s", want, docs[0].Edges[0].TargetID)
	}
}

func TestResolveImportBarePackageSpecifierStaysUnresolved(t *testing.T) {
	docs := []ir.Document{
		{FilePath: "src/index.ts", Language: "typescript"},
	}
	docs[0].Edges = []ir.IREdge{
		{SourceID: "import-node", TargetID: ir.ExternalSentinel("typescript", "react"), Kind: ir.EdgeImports},
	}

	r := resolve.New("r1", docs)
	result := r.Resolve(docs)

	if result.ResolvedN != 0 {
		t.Fatalf("expected bare package specifier to remain unresolved, got %d", result.ResolvedN)
	}
	if len(result.Unresolved) != 1 {
		t.Fatalf("expected 1 unresolved entry, got %v", result.Unresolved)
	}
}
