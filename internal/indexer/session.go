package indexer

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"codegraph/internal/logging"
)

// Session is the MVCC snapshot handle begin_session hands back: every
// add_change/commit call for an agent is scoped to the (repo, snapshot) it
// was opened against.
type Session struct {
	SessionID  string
	AgentID    string
	RepoID     string
	SnapshotID string

	mu    sync.Mutex
	delta Delta // accumulated add_change observations, in call order
}

// PluginError pairs a failed plugin with the error it returned, surfaced
// individually so a commit's other, independent plugins still keep their
// updates (spec.md §4.M).
type PluginError struct {
	IndexType string
	Err       error
}

func (e PluginError) Error() string { return fmt.Sprintf("%s: %v", e.IndexType, e.Err) }

// CommitResult is commit's aggregate outcome across every registered plugin.
type CommitResult struct {
	TxnID   int64
	CostMS  int64
	Changed []string // IndexType of every plugin that reported a change
	Failed  []PluginError
}

// Orchestrator is the Multi-Index Orchestrator (spec.md §4.M): it owns the
// session protocol (begin_session/add_change/commit) and the per-plugin txn
// watermark, fanning a commit's delta out to every registered IndexPlugin in
// parallel and keeping each plugin's result independent of the others'
// success or failure.
//
// Grounded on the teacher's errgroup.WithContext fan-out in
// internal/perception/semantic_classifier.go (parallel per-store search,
// each branch logging-and-continuing on its own failure rather than
// aborting the group) generalized from a fixed two-way fan-out to an
// arbitrary registered-plugin fan-out, bounded by a semaphore.Weighted so a
// large plugin set doesn't oversubscribe the CPU pool the spec calls for
// (spec.md §5: "work-stealing over a fixed worker pool, default = core
// count").
type Orchestrator struct {
	maxConcurrency int64

	mu       sync.RWMutex
	plugins  map[string]IndexPlugin // IndexType -> plugin
	sessions map[string]*Session

	nextTxnID int64
}

// NewOrchestrator builds an orchestrator bounding parallel plugin fan-out to
// maxConcurrency (<=0 defaults to 4).
func NewOrchestrator(maxConcurrency int) *Orchestrator {
	if maxConcurrency <= 0 {
		maxConcurrency = 4
	}
	return &Orchestrator{
		maxConcurrency: int64(maxConcurrency),
		plugins:        make(map[string]IndexPlugin),
		sessions:       make(map[string]*Session),
	}
}

// Register adds a plugin to the commit fan-out set. Not safe to call
// concurrently with BeginSession/Commit.
func (o *Orchestrator) Register(p IndexPlugin) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.plugins[p.IndexType()] = p
}

// BeginSession opens an MVCC snapshot handle for agentID.
func (o *Orchestrator) BeginSession(agentID, repoID, snapshotID string) *Session {
	s := &Session{
		SessionID:  uuid.NewString(),
		AgentID:    agentID,
		RepoID:     repoID,
		SnapshotID: snapshotID,
	}
	o.mu.Lock()
	o.sessions[s.SessionID] = s
	o.mu.Unlock()
	logging.IndexerDebug("indexer: session %s opened for agent %s on %s/%s", s.SessionID, agentID, repoID, snapshotID)
	return s
}

// AddChange accumulates one observation into the session's pending delta.
// Observations are ordered (spec.md §5): the resulting delta reflects the
// call order, never reordered or deduplicated here.
func (s *Session) AddChange(op ChangeOp) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delta.Changes = append(s.delta.Changes, op)
}

// EndSession discards a session's handle without committing.
func (o *Orchestrator) EndSession(sessionID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.sessions, sessionID)
}

// analyzeDelta derives commit's Analysis from the session's accumulated
// ChangeOps: every changed file is affected, and any node IDs carried on an
// op become file-scoped affected regions for plugins that key by region
// rather than whole-file.
func analyzeDelta(delta Delta) Analysis {
	seen := make(map[string]bool)
	var a Analysis
	for _, c := range delta.Changes {
		if !seen[c.FilePath] {
			seen[c.FilePath] = true
			a.AffectedFiles = append(a.AffectedFiles, c.FilePath)
		}
		if len(c.NodeIDs) > 0 {
			a.AffectedRegions = append(a.AffectedRegions, Region{FilePath: c.FilePath})
		}
	}
	return a
}

// Commit analyzes the session's pending delta and fans out ApplyDelta to
// every registered plugin in parallel (spec.md §4.M step 3): each plugin's
// success or failure is independent — one plugin failing never rolls back
// another's watermark advance, and every per-plugin error is surfaced
// individually in CommitResult.Failed.
func (o *Orchestrator) Commit(ctx context.Context, sessionID string) (CommitResult, error) {
	o.mu.RLock()
	session, ok := o.sessions[sessionID]
	o.mu.RUnlock()
	if !ok {
		return CommitResult{}, fmt.Errorf("indexer: unknown session %s", sessionID)
	}

	session.mu.Lock()
	delta := session.delta
	session.delta = Delta{}
	session.mu.Unlock()

	analysis := analyzeDelta(delta)
	txnID := atomic.AddInt64(&o.nextTxnID, 1)

	o.mu.RLock()
	plugins := make([]IndexPlugin, 0, len(o.plugins))
	for _, p := range o.plugins {
		plugins = append(plugins, p)
	}
	o.mu.RUnlock()

	start := logging.StartTimer(logging.CategoryIndexer, "indexer.commit")

	sem := semaphore.NewWeighted(o.maxConcurrency)
	g, gctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	var changed []string
	var failed []PluginError

	for _, p := range plugins {
		p := p
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				// Context canceled waiting for a slot: this plugin simply
				// doesn't run this commit, recorded as its own failure
				// rather than aborting siblings already in flight.
				mu.Lock()
				failed = append(failed, PluginError{IndexType: p.IndexType(), Err: err})
				mu.Unlock()
				return nil
			}
			defer sem.Release(1)

			ok, _, err := p.ApplyDelta(gctx, delta, analysis, txnID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed = append(failed, PluginError{IndexType: p.IndexType(), Err: err})
				logging.IndexerWarn("indexer: plugin %s failed on commit (txn %d): %v", p.IndexType(), txnID, err)
				return nil // independent plugin failure never aborts the group
			}
			if ok {
				changed = append(changed, p.IndexType())
			}
			return nil
		})
	}

	// Every branch returns nil (plugin errors and cancelled slot waits are
	// recorded in failed above), so g.Wait's result carries nothing; it only
	// waits for all, keeping independent results on partial failure
	// (spec.md §4.M step (d)).
	_ = g.Wait()

	elapsed := start.Stop()
	logging.IndexerDebug("indexer: commit txn=%d changed=%v failed=%d cost_ms=%d", txnID, changed, len(failed), elapsed.Milliseconds())

	return CommitResult{
		TxnID:   txnID,
		CostMS:  elapsed.Milliseconds(),
		Changed: changed,
		Failed:  failed,
	}, nil
}

// Plugin looks up a registered plugin by IndexType, for callers (the search
// surface) that need to route to one strategy directly rather than fan out.
func (o *Orchestrator) Plugin(indexType string) (IndexPlugin, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	p, ok := o.plugins[indexType]
	return p, ok
}

// Watermarks reports every registered plugin's AppliedUpTo, for status
// reporting (spec.md §6 GET /index/status/{repo_id}).
func (o *Orchestrator) Watermarks() map[string]int64 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make(map[string]int64, len(o.plugins))
	for indexType, p := range o.plugins {
		out[indexType] = p.AppliedUpTo()
	}
	return out
}

// MinWatermark returns the lowest AppliedUpTo across every registered
// plugin, letting a caller wait until all indexes have observed at least
// txnID before serving a query (spec.md §4.M: "global queries may
// optionally wait until all watermarks >= required txn").
func (o *Orchestrator) MinWatermark() int64 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	min := int64(-1)
	for _, p := range o.plugins {
		w := p.AppliedUpTo()
		if min == -1 || w < min {
			min = w
		}
	}
	if min == -1 {
		return 0
	}
	return min
}
