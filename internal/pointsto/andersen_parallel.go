package pointsto

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"codegraph/internal/logging"
)

// AndersenParallel computes the same inclusion-based fixpoint as
// AndersenSequential, but propagates each round's dirty variables over a
// work-stealing worker pool with per-variable locking (spec.md §4.H: "a
// lock-free concurrent worklist... atomic sparse bitmaps guarded by
// per-variable locks... work-stealing over a batch size"). The underlying
// fixpoint is monotone and its propagation order doesn't affect the result,
// so any worker count produces the same final points-to sets as the
// sequential solver — this is what a unit-test fixture checks. Grounded on
// the teacher's channel-semaphore worker-pool pattern
// (internal/world/deep_scan.go's EnsureDeepFacts) for the batch/work-stealing
// shape, with golang.org/x/sync/errgroup.SetLimit (as already used by
// internal/pipeline's L1 stage) bounding concurrency instead of a bare
// channel semaphore.
func AndersenParallel(ctx context.Context, cs ConstraintSet, workers, batchSize int) (PointsToSet, bool) {
	if workers <= 0 {
		workers = 4
	}
	if batchSize <= 0 {
		batchSize = 64
	}

	pts := newPointsToSet(cs.Variables)
	locks := make(map[string]*sync.Mutex, len(cs.Variables))
	for _, v := range cs.Variables {
		locks[v] = &sync.Mutex{}
	}
	lockFor := func(v string) *sync.Mutex {
		if l, ok := locks[v]; ok {
			return l
		}
		// Only reached from the single-threaded setup loop below, which
		// creates a lock for every name a constraint mentions, including an
		// Addr object ID with no Variable node of its own (e.g. a
		// call-site). Load/Store propagation locks and writes those object
		// IDs' sets, so workers always find the lock already present.
		l := &sync.Mutex{}
		locks[v] = l
		return l
	}

	copyEdges := make(map[string][]string)
	var loads, stores []Constraint
	dirty := make(map[string]bool)
	for _, c := range cs.Constraints {
		lockFor(c.LHS)
		lockFor(c.RHS)
		switch c.Kind {
		case Addr:
			l := lockFor(c.LHS)
			l.Lock()
			if pts[c.LHS] == nil {
				pts[c.LHS] = make(map[string]bool)
			}
			pts[c.LHS][c.RHS] = true
			l.Unlock()
			dirty[c.LHS] = true
		case Copy:
			copyEdges[c.RHS] = append(copyEdges[c.RHS], c.LHS)
			dirty[c.RHS] = true
		case Load:
			loads = append(loads, c)
			dirty[c.RHS] = true
		case Store:
			stores = append(stores, c)
			dirty[c.LHS] = true
		}
	}

	worklist := keysOf(dirty)
	for len(worklist) > 0 {
		if err := ctx.Err(); err != nil {
			logging.PointsToWarn("andersen parallel: %v, returning partial result", err)
			return pts, false
		}

		var nextMu sync.Mutex
		next := make(map[string]bool)
		markDirty := func(v string) {
			nextMu.Lock()
			next[v] = true
			nextMu.Unlock()
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)

		for start := 0; start < len(worklist); start += batchSize {
			end := start + batchSize
			if end > len(worklist) {
				end = len(worklist)
			}
			batch := worklist[start:end]
			g.Go(func() error {
				for _, src := range batch {
					if gctx.Err() != nil {
						return gctx.Err()
					}
					propagateCopies(src, pts, copyEdges, lockFor, markDirty)
				}
				return nil
			})
		}
		for _, c := range loads {
			c := c
			g.Go(func() error {
				propagateLoad(c, pts, lockFor, markDirty)
				return nil
			})
		}
		for _, c := range stores {
			c := c
			g.Go(func() error {
				propagateStore(c, pts, lockFor, markDirty)
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			logging.PointsToWarn("andersen parallel round aborted: %v", err)
			return pts, false
		}
		worklist = keysOf(next)
	}
	return pts, true
}

func propagateCopies(src string, pts PointsToSet, copyEdges map[string][]string, lockFor func(string) *sync.Mutex, markDirty func(string)) {
	targets := copyEdges[src]
	if len(targets) == 0 {
		return
	}
	srcLock := lockFor(src)
	srcLock.Lock()
	objs := keysOf(pts[src])
	srcLock.Unlock()
	for _, dst := range targets {
		dstLock := lockFor(dst)
		dstLock.Lock()
		if pts[dst] == nil {
			pts[dst] = make(map[string]bool)
		}
		grew := false
		for _, obj := range objs {
			if !pts[dst][obj] {
				pts[dst][obj] = true
				grew = true
			}
		}
		dstLock.Unlock()
		if grew {
			markDirty(dst)
		}
	}
}

func propagateLoad(c Constraint, pts PointsToSet, lockFor func(string) *sync.Mutex, markDirty func(string)) {
	rLock := lockFor(c.RHS)
	rLock.Lock()
	mids := keysOf(pts[c.RHS])
	rLock.Unlock()

	lLock := lockFor(c.LHS)
	grew := false
	for _, mid := range mids {
		mLock := lockFor(mid)
		mLock.Lock()
		objs := keysOf(pts[mid])
		mLock.Unlock()

		lLock.Lock()
		if pts[c.LHS] == nil {
			pts[c.LHS] = make(map[string]bool)
		}
		for _, obj := range objs {
			if !pts[c.LHS][obj] {
				pts[c.LHS][obj] = true
				grew = true
			}
		}
		lLock.Unlock()
	}
	if grew {
		markDirty(c.LHS)
	}
}

func propagateStore(c Constraint, pts PointsToSet, lockFor func(string) *sync.Mutex, markDirty func(string)) {
	lLock := lockFor(c.LHS)
	lLock.Lock()
	mids := keysOf(pts[c.LHS])
	lLock.Unlock()

	rLock := lockFor(c.RHS)
	rLock.Lock()
	objs := keysOf(pts[c.RHS])
	rLock.Unlock()

	for _, mid := range mids {
		mLock := lockFor(mid)
		mLock.Lock()
		if pts[mid] == nil {
			pts[mid] = make(map[string]bool)
		}
		grew := false
		for _, obj := range objs {
			if !pts[mid][obj] {
				pts[mid][obj] = true
				grew = true
			}
		}
		mLock.Unlock()
		if grew {
			markDirty(mid)
		}
	}
}
