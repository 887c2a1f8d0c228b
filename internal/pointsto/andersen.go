package pointsto

// PointsToSet maps a variable ID to the set of object IDs it may point to.
// Object IDs here are the RHS of Addr constraints (allocation sites).
type PointsToSet map[string]map[string]bool

func newPointsToSet(vars []string) PointsToSet {
	pts := make(PointsToSet, len(vars))
	for _, v := range vars {
		pts[v] = make(map[string]bool)
	}
	return pts
}

// clone produces a deep copy that shares no maps with the original.
func (p PointsToSet) clone() PointsToSet {
	out := make(PointsToSet, len(p))
	for k, set := range p {
		cp := make(map[string]bool, len(set))
		for v := range set {
			cp[v] = true
		}
		out[k] = cp
	}
	return out
}

// Equal reports whether two points-to sets assign identical object sets to
// every variable. Used to check that the parallel Andersen solver agrees
// with the sequential reference implementation (spec.md §4.H).
func (p PointsToSet) Equal(o PointsToSet) bool {
	if len(p) != len(o) {
		return false
	}
	for v, set := range p {
		os, ok := o[v]
		if !ok || len(set) != len(os) {
			return false
		}
		for obj := range set {
			if !os[obj] {
				return false
			}
		}
	}
	return true
}

// AndersenSequential computes the inclusion-based fixpoint by repeatedly
// applying every constraint until no points-to set grows. It is the
// reference implementation the parallel solver (andersen_parallel.go) must
// match exactly on the same constraint set (spec.md §4.H).
func AndersenSequential(cs ConstraintSet) PointsToSet {
	pts := newPointsToSet(cs.Variables)

	// copyEdges[a] = [b, ...] for every Copy constraint a = b: a's set
	// must absorb b's set whenever b's set changes.
	copyEdges := make(map[string][]string)
	for _, c := range cs.Constraints {
		switch c.Kind {
		case Addr:
			if pts[c.LHS] == nil {
				pts[c.LHS] = make(map[string]bool)
			}
			pts[c.LHS][c.RHS] = true
		case Copy:
			copyEdges[c.RHS] = append(copyEdges[c.RHS], c.LHS)
		}
	}

	changed := true
	for changed {
		changed = false
		for src, targets := range copyEdges {
			for _, obj := range keysOf(pts[src]) {
				for _, dst := range targets {
					if pts[dst] == nil {
						pts[dst] = make(map[string]bool)
					}
					if !pts[dst][obj] {
						pts[dst][obj] = true
						changed = true
					}
				}
			}
		}
		// Load/Store constraints: resolve through whatever the
		// pointer-to-a-pointer variable currently points to. Conservative
		// dereference: only a flat constraint graph is modeled (see
		// BuildConstraints), so these degrade to copy propagation over
		// pts[c.RHS]'s own members acting as further copy sources.
		for _, c := range cs.Constraints {
			switch c.Kind {
			case Load:
				for _, mid := range keysOf(pts[c.RHS]) {
					for _, obj := range keysOf(pts[mid]) {
						if pts[c.LHS] == nil {
							pts[c.LHS] = make(map[string]bool)
						}
						if !pts[c.LHS][obj] {
							pts[c.LHS][obj] = true
							changed = true
						}
					}
				}
			case Store:
				for _, mid := range keysOf(pts[c.LHS]) {
					for _, obj := range keysOf(pts[c.RHS]) {
						if pts[mid] == nil {
							pts[mid] = make(map[string]bool)
						}
						if !pts[mid][obj] {
							pts[mid][obj] = true
							changed = true
						}
					}
				}
			}
		}
	}
	return pts
}

func keysOf(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
