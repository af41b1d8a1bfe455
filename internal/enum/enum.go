// Package enum implements spec.md §4.7's model enumerator and optimizer
// (module E): once the solver reports a model, a Finder blocks it from
// being found again, and a Minimizer commits an improving bound on a
// weighted sum of literals so the next model is required to do better.
//
// Grounded on libclasp/src/model_enumerators.cpp's RecordFinder/
// BacktrackFinder split. The split survives here as two Finder
// implementations, but both operate at decision level 0: internal/solver's
// Search already fully backtracks to the root on every model
// (internal/solver/search.go), so the distinction clasp draws between
// "record" (block from the root) and "backtrack" (block from one level
// below the deepest relevant decision, without a full restart) collapses
// to a single root-level AddClause in this architecture. What each Finder
// still controls independently is which variables the blocking clause
// ranges over: BacktrackFinder requires an explicit projection, matching
// clasp's restriction that backtracking only ever makes sense relative to
// a fixed set of projection/enumeration variables.
package enum

import (
	"github.com/clasp-go/clasp/internal/lit"
	"github.com/clasp-go/clasp/internal/solver"
)

// Finder blocks the model most recently saved by s, returning the clause
// to install (via s.AddClause, by the caller) to exclude it, or nil if
// enumeration is exhausted (the blocking clause would be empty, i.e. the
// projected model has no free variable left to flip).
type Finder interface {
	Block(s *solver.Solver) []lit.Literal
}

// projectedBlock builds the clause {¬l : l true in model, l.Var() in vars}
// (or over every variable when vars is nil), the standard "negate the
// model" blocking clause of spec.md §4.7 step 1.
func projectedBlock(model []bool, vars []lit.Var) []lit.Literal {
	if vars == nil {
		block := make([]lit.Literal, 0, len(model))
		for v := 1; v < len(model); v++ { // v=0 is the reserved sentinel
			block = append(block, litFor(lit.Var(v), model[v]).Complement())
		}
		return block
	}
	block := make([]lit.Literal, 0, len(vars))
	for _, v := range vars {
		block = append(block, litFor(v, model[v]).Complement())
	}
	return block
}

func litFor(v lit.Var, val bool) lit.Literal {
	if val {
		return lit.Pos(v)
	}
	return lit.Neg(v)
}

// RecordFinder implements spec.md §4.7's "record" mode: the blocking
// clause negates the full model, or the model projected to Vars when Vars
// is non-nil.
type RecordFinder struct {
	// Vars restricts the blocking clause to these variables (e.g. output
	// atoms). Nil means every solver variable.
	Vars []lit.Var
}

func (f *RecordFinder) Block(s *solver.Solver) []lit.Literal {
	return projectedBlock(s.Model(), f.Vars)
}

// BacktrackFinder implements spec.md §4.7's "backtrack" mode. Vars must be
// the projection (or dominance) variable set the blocking clause ranges
// over; unlike RecordFinder it is never nil, matching clasp's restriction
// that backtrack-mode enumeration requires an explicit projection.
type BacktrackFinder struct {
	Vars []lit.Var
}

func (f *BacktrackFinder) Block(s *solver.Solver) []lit.Literal {
	return projectedBlock(s.Model(), f.Vars)
}

var (
	_ Finder = (*RecordFinder)(nil)
	_ Finder = (*BacktrackFinder)(nil)
)

// Minimizer commits a monotonically improving bound on a single priority
// tier of a minimize statement: sum(Weight_i * Lit_i) must not exceed the
// committed bound. Grounded on spec.md §4.7 step 3; implemented on top of
// solver.WeightConstraint rather than a bespoke "less-than" constraint, by
// complementing every literal and keeping its weight (sum(w*l) <= B  <=>
// sum(w*(1-l)) >= total-B) so the existing FTB/FFB/BFB/BTB machinery
// enforces it unconditionally (the constraint's own literal W is pinned to
// the permanently-true sentinel).
type Minimizer struct {
	lits  []lit.WeightLiteral
	total lit.WSum
	bound lit.WSum // current committed bound; WSumMax before any model
}

// WSumMax is the largest representable bound, standing in for "no bound
// committed yet".
const WSumMax = lit.WSum(1)<<62 - 1

// NewMinimizer builds a minimizer over lits (which need not be sorted).
func NewMinimizer(lits []lit.WeightLiteral) *Minimizer {
	cp := append([]lit.WeightLiteral(nil), lits...)
	var total lit.WSum
	for _, wl := range cp {
		total += lit.WSum(wl.Weight)
	}
	return &Minimizer{lits: cp, total: total, bound: WSumMax}
}

// Sum computes the current value of the weighted sum under s's model.
func (m *Minimizer) Sum(model []bool) lit.WSum {
	var sum lit.WSum
	for _, wl := range m.lits {
		if model[wl.Lit.Var()] != wl.Lit.Sign() {
			// model[v] is the value of the *positive* literal; wl.Lit is
			// true when model[v] matches the literal's own sign.
			sum += lit.WSum(wl.Weight)
		}
	}
	return sum
}

// Bound reports the currently committed bound, or WSumMax if none yet.
func (m *Minimizer) Bound() lit.WSum { return m.bound }

// Commit installs a weight constraint enforcing sum <= newBound (or
// sum <= newBound-1 when strict), tightening the search from now on. It
// must be called at decision level 0 (spec.md §4.7: "commit the bound ...
// and re-enter search"), matching RecordFinder/BacktrackFinder's own
// root-level-only restriction in this architecture.
//
// Each call installs a fresh, tighter WeightConstraint without detaching
// the previous one: the old constraint is logically implied by the new
// bound and simply becomes redundant rather than wrong, which avoids
// needing an exported "unwatch a foreign constraint" hook on
// solver.Solver purely for this one caller (documented as a deliberate
// simplification; a real clasp port maintains a single incrementally
// tightened constraint instead).
func (m *Minimizer) Commit(s *solver.Solver, newBound lit.WSum, strict bool) {
	b := newBound
	if strict {
		b--
	}
	m.bound = b

	complemented := make([]lit.WeightLiteral, len(m.lits))
	for i, wl := range m.lits {
		complemented[i] = lit.WeightLiteral{Lit: wl.Lit.Complement(), Weight: wl.Weight}
	}
	wcBound := m.total - b
	solver.NewWeightConstraint(s, lit.True(), complemented, lit.Weight(wcBound))
}

// HierarchicalMinimizer commits bounds across priority tiers in
// decreasing-priority order: every higher-priority tier is held at its
// already-achieved sum (non-strict), while the lowest tier not yet proven
// optimal is strictly improved, implementing spec.md §4.7's "hierarchical
// minimize-bound" lexicographic optimization.
type HierarchicalMinimizer struct {
	Tiers []*Minimizer // Tiers[0] is the highest priority.
}

// CommitModel reads the current model's sum on every tier and commits a
// new bound tier by tier: each tier above the last is pinned non-strictly
// at its observed value, and the last tier is strictly improved, so the
// next model found must match or beat every higher tier and strictly beat
// the final one.
func (h *HierarchicalMinimizer) CommitModel(s *solver.Solver) {
	model := s.Model()
	for i, tier := range h.Tiers {
		sum := tier.Sum(model)
		strict := i == len(h.Tiers)-1
		tier.Commit(s, sum, strict)
	}
}
