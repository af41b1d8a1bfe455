package solver

import "sort"

// ReducePolicy decides when and how much of the learnt clause database to
// delete. Generalizes the teacher's fixed ReduceDB (sort-by-activity,
// always delete the worse half, internal/sat/solver.go) into a pluggable
// policy scoring by LBD first per spec.md §4.3, grounded on clasp's
// reduce-strategy knobs described alongside ScheduleStrategy in
// libclasp/src/solver_strategies.cpp.
type ReducePolicy struct {
	// GrowthFactor controls how much the soft learnt-count limit grows
	// after each reduction (teacher: nLearnts += nLearnts/20).
	GrowthFactor float64
	// ProtectLBD: learnt clauses with LBD <= ProtectLBD are never deleted
	// by ReduceDB, matching clasp's "glue clause" protection.
	ProtectLBD int
	limit      float64
}

// NewReducePolicy returns the spec's default LBD-then-activity policy.
func NewReducePolicy() ReducePolicy {
	return ReducePolicy{GrowthFactor: 1.05, ProtectLBD: 2}
}

// ShouldReduce reports whether the learnt DB has grown past its current
// soft limit.
func (p *ReducePolicy) ShouldReduce(numLearnts, numAssigns int) bool {
	if p.limit == 0 {
		p.limit = float64(numLearnts) + 100
	}
	return float64(numLearnts-numAssigns) >= p.limit
}

// ReduceDB deletes roughly the worse half of learnts, scoring by LBD first
// (lower is better) and activity as a tiebreak, skipping clauses that are
// locked (an antecedent of a current assignment), protected (recently
// conflict-involved), or within ProtectLBD. Grounded on the teacher's
// Solver.ReduceDB, extended with the LBD-first comparator and protection
// rules spec.md §4.3 calls for.
func (s *Solver) ReduceDB() {
	learnts := s.learnts
	sort.Slice(learnts, func(i, j int) bool {
		if learnts[i].lbd != learnts[j].lbd {
			return learnts[i].lbd > learnts[j].lbd // worse (higher LBD) first
		}
		return learnts[i].activity < learnts[j].activity
	})

	half := len(learnts) / 2
	j := 0
	for i := 0; i < len(learnts); i++ {
		c := learnts[i]
		keep := i >= half || c.locked(s) || c.protected || c.lbd <= s.reduce.ProtectLBD
		c.protected = false // protection only survives one reduce pass
		if keep {
			learnts[j] = c
			j++
		} else {
			c.remove(s)
		}
	}
	s.learnts = learnts[:j]
	s.reduce.limit = float64(len(s.learnts)) * s.reduce.GrowthFactor
}
