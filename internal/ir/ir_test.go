package ir

import "testing"

func TestStableNodeIDDeterministic(t *testing.T) {
	span := Span{Start: Position{Line: 10, Column: 0}, End: Position{Line: 20, Column: 1}}
	a := StableNodeID("repo1", "go", KindFunction, "pkg.Foo", span)
	b := StableNodeID("repo1", "go", KindFunction, "pkg.Foo", span)
	if a != b {
		t.Fatalf("expected stable id to be deterministic, got %q vs %q", a, b)
	}
	c := StableNodeID("repo1", "go", KindFunction, "pkg.Bar", span)
	if a == c {
		t.Fatalf("expected different fqn to change the id")
	}
}

func TestSpanValid(t *testing.T) {
	ok := Span{Start: Position{Line: 1, Column: 0}, End: Position{Line: 1, Column: 5}}
	if !ok.Valid() {
		t.Fatalf("expected valid span")
	}
	bad := Span{Start: Position{Line: 5, Column: 0}, End: Position{Line: 1, Column: 0}}
	if bad.Valid() {
		t.Fatalf("expected invalid span (start after end)")
	}
}

func TestExternalSentinel(t *testing.T) {
	s := ExternalSentinel("py", "os.path.join")
	if !IsExternalSentinel(s) {
		t.Fatalf("expected sentinel to be recognized")
	}
	if IsExternalSentinel("node:12345") {
		t.Fatalf("expected non-sentinel to not be recognized")
	}
}
