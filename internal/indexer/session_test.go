package indexer_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"codegraph/internal/indexer"
)

// fakePlugin records every ApplyDelta call it receives and optionally fails.
type fakePlugin struct {
	kind      string
	failWith  error
	watermark int64
	applied   int32
}

func (p *fakePlugin) IndexType() string      { return p.kind }
func (p *fakePlugin) AppliedUpTo() int64     { return atomic.LoadInt64(&p.watermark) }
func (p *fakePlugin) Rebuild(ctx context.Context, repoID, snapshotID string, txnID int64) error {
	return nil
}
func (p *fakePlugin) Search(ctx context.Context, query string, limit int) ([]indexer.SearchHit, error) {
	return nil, nil
}
func (p *fakePlugin) ApplyDelta(ctx context.Context, delta indexer.Delta, analysis indexer.Analysis, txnID int64) (bool, int64, error) {
	atomic.AddInt32(&p.applied, 1)
	if p.failWith != nil {
		return false, 0, p.failWith
	}
	atomic.StoreInt64(&p.watermark, txnID)
	return len(delta.Changes) > 0, 1, nil
}

func TestCommitFansOutToEveryPluginAndAdvancesWatermarks(t *testing.T) {
	orch := indexer.NewOrchestrator(4)
	lex := &fakePlugin{kind: "lexical"}
	vec := &fakePlugin{kind: "vector"}
	orch.Register(lex)
	orch.Register(vec)

	sess := orch.BeginSession("agent-1", "r1", "r1:main")
	sess.AddChange(indexer.ChangeOp{Kind: indexer.Modified, FilePath: "a.go"})
	sess.AddChange(indexer.ChangeOp{Kind: indexer.Added, FilePath: "b.go"})

	result, err := orch.Commit(context.Background(), sess.SessionID)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if len(result.Failed) != 0 {
		t.Fatalf("expected no failures, got %+v", result.Failed)
	}
	if len(result.Changed) != 2 {
		t.Fatalf("expected both plugins to report change, got %v", result.Changed)
	}
	if lex.AppliedUpTo() != result.TxnID || vec.AppliedUpTo() != result.TxnID {
		t.Fatalf("expected both watermarks to advance to txn %d, got lex=%d vec=%d", result.TxnID, lex.AppliedUpTo(), vec.AppliedUpTo())
	}
	if orch.MinWatermark() != result.TxnID {
		t.Fatalf("MinWatermark: got %d, want %d", orch.MinWatermark(), result.TxnID)
	}
}

func TestCommitKeepsIndependentPluginsOnPartialFailure(t *testing.T) {
	orch := indexer.NewOrchestrator(4)
	good := &fakePlugin{kind: "lexical"}
	bad := &fakePlugin{kind: "vector", failWith: errors.New("boom")}
	orch.Register(good)
	orch.Register(bad)

	sess := orch.BeginSession("agent-1", "r1", "r1:main")
	sess.AddChange(indexer.ChangeOp{Kind: indexer.Modified, FilePath: "a.go"})

	result, err := orch.Commit(context.Background(), sess.SessionID)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if len(result.Failed) != 1 || result.Failed[0].IndexType != "vector" {
		t.Fatalf("expected vector to be reported failed, got %+v", result.Failed)
	}
	if good.AppliedUpTo() != result.TxnID {
		t.Fatalf("expected the healthy plugin's watermark to still advance, got %d want %d", good.AppliedUpTo(), result.TxnID)
	}
	if bad.AppliedUpTo() != 0 {
		t.Fatalf("expected the failing plugin's watermark to stay put, got %d", bad.AppliedUpTo())
	}
}

func TestAddChangePreservesCallOrder(t *testing.T) {
	orch := indexer.NewOrchestrator(1)
	p := &fakePlugin{kind: "lexical"}
	orch.Register(p)

	sess := orch.BeginSession("agent-1", "r1", "r1:main")
	paths := []string{"a.go", "b.go", "c.go"}
	for _, path := range paths {
		sess.AddChange(indexer.ChangeOp{Kind: indexer.Modified, FilePath: path})
	}

	var captured indexer.Delta
	capturing := &capturingPlugin{fakePlugin: fakePlugin{kind: "lexical"}, capture: &captured}
	orch2 := indexer.NewOrchestrator(1)
	orch2.Register(capturing)
	sess2 := orch2.BeginSession("agent-1", "r1", "r1:main")
	for _, path := range paths {
		sess2.AddChange(indexer.ChangeOp{Kind: indexer.Modified, FilePath: path})
	}
	if _, err := orch2.Commit(context.Background(), sess2.SessionID); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	for i, c := range captured.Changes {
		if c.FilePath != paths[i] {
			t.Fatalf("change %d: got %s, want %s (order not preserved)", i, c.FilePath, paths[i])
		}
	}
	_ = p
}

type capturingPlugin struct {
	fakePlugin
	capture *indexer.Delta
}

func (p *capturingPlugin) ApplyDelta(ctx context.Context, delta indexer.Delta, analysis indexer.Analysis, txnID int64) (bool, int64, error) {
	*p.capture = delta
	return p.fakePlugin.ApplyDelta(ctx, delta, analysis, txnID)
}
