package pointsto

import (
	"context"

	"codegraph/internal/logging"
)

// AnalysisMode selects which solver Analyze runs.
type AnalysisMode string

const (
	ModeAndersen    AnalysisMode = "andersen"
	ModeSteensgaard AnalysisMode = "steensgaard"
	ModeAuto        AnalysisMode = "auto"
)

// AutoThreshold is the constraint count at or above which Auto mode selects
// Steensgaard over Andersen (spec.md §4.H, tunable via internal/config's
// PointsToConfig.AutoThreshold).
const AutoThreshold = 3000

// SelectMode resolves Auto to a concrete solver. Taint-sensitive callers
// always get Andersen regardless of constraint count, since taint tracking
// needs Andersen's finer per-variable points-to sets (spec.md §4.H).
func SelectMode(mode AnalysisMode, constraintCount int, taintSensitive bool, threshold int) AnalysisMode {
	if mode != ModeAuto {
		return mode
	}
	if taintSensitive {
		return ModeAndersen
	}
	if threshold <= 0 {
		threshold = AutoThreshold
	}
	if constraintCount >= threshold {
		return ModeSteensgaard
	}
	return ModeAndersen
}

// Result is the outcome of one points-to analysis run.
type Result struct {
	Mode    AnalysisMode
	PointsTo PointsToSet
	Partial bool // true if a deadline expired before the solver converged
}

// Options configures Analyze.
type Options struct {
	Mode            AnalysisMode
	TaintSensitive  bool
	AutoThreshold   int
	ParallelWorkers int
	BatchSize       int
}

// Analyze runs the selected points-to solver over cs. On context
// cancellation or deadline expiry it returns the best-effort partial result
// accumulated so far with Result.Partial set, and never panics (spec.md
// §4.H failure mode).
func Analyze(ctx context.Context, cs ConstraintSet, opts Options) Result {
	resolved := SelectMode(opts.Mode, len(cs.Constraints), opts.TaintSensitive, opts.AutoThreshold)
	logging.PointsToDebug("pointsto: resolved mode %s for %d constraints (taint_sensitive=%v)",
		resolved, len(cs.Constraints), opts.TaintSensitive)

	switch resolved {
	case ModeSteensgaard:
		return Result{Mode: resolved, PointsTo: SteensgaardAnalysis(cs)}
	default:
		pts, complete := AndersenParallel(ctx, cs, opts.ParallelWorkers, opts.BatchSize)
		return Result{Mode: ModeAndersen, PointsTo: pts, Partial: !complete}
	}
}

// Aliases reports whether a and b may point to a common object.
func (r Result) Aliases(a, b string) bool {
	sa, sb := r.PointsTo[a], r.PointsTo[b]
	if len(sa) == 0 || len(sb) == 0 {
		return false
	}
	for obj := range sa {
		if sb[obj] {
			return true
		}
	}
	return false
}
