package solver

import (
	"github.com/clasp-go/clasp/internal/asg"
	"github.com/clasp-go/clasp/internal/lit"
)

// WeightConstraint implements clasp's smodels-style weight/cardinality
// constraint: W == w1*x1 + ... + wn*xn >= B, where W is the literal
// associated with the constraint (typically a rule body) and every wi is a
// strictly positive weight. A cardinality constraint is the special case
// where every weight is 1.
//
// Grounded on clasp/clasp/weight_constraint.h's four inference rules
// (FTB/BFB/FFB/BTB); the dual FFB_BTB/FTB_BFB physical literal-sharing
// trick described there is not reproduced — this recomputes sumTrue/reach
// by scanning the literal list on each propagate call instead of
// maintaining the two packed views incrementally, which keeps the Go
// shape close to Clause's simplify/propagate split rather than clasp's
// bit-level Literal::fromId XOR trick. Kept in the same package as Clause
// (internal/solver, not a separate internal/weight package) for the same
// reason the teacher never split Clause out of internal/sat: propagate and
// Reason need direct access to the solver's assignment.
type WeightConstraint struct {
	s     *Solver
	w     lit.Literal
	lits  []lit.WeightLiteral // sorted by decreasing weight
	bound lit.WSum
	total lit.WSum // sum of all weights, i.e. reach when nothing is false
}

// NewWeightConstraint builds and attaches a weight constraint. lits need
// not be pre-sorted; this sorts a copy by decreasing weight as
// WeightLitsRep::create does, so the bound-crossing scans below tend to
// terminate early on the common case of a few heavy literals.
func NewWeightConstraint(s *Solver, w lit.Literal, lits []lit.WeightLiteral, bound lit.Weight) *WeightConstraint {
	cp := append([]lit.WeightLiteral(nil), lits...)
	for i := 1; i < len(cp); i++ {
		for j := i; j > 0 && cp[j].Weight > cp[j-1].Weight; j-- {
			cp[j], cp[j-1] = cp[j-1], cp[j]
		}
	}

	var total lit.WSum
	for _, wl := range cp {
		total += lit.WSum(wl.Weight)
	}

	wc := &WeightConstraint{s: s, w: w, lits: cp, bound: lit.WSum(bound), total: total}
	wc.watchAll(s)
	return wc
}

func (wc *WeightConstraint) watchAll(s *Solver) {
	s.watch(wc, wc.w, noGuard)
	s.watch(wc, wc.w.Complement(), noGuard)
	for _, wl := range wc.lits {
		s.watch(wc, wl.Lit, noGuard)
		s.watch(wc, wl.Lit.Complement(), noGuard)
	}
}

func (wc *WeightConstraint) remove(s *Solver) {
	s.unwatch(wc, wc.w)
	s.unwatch(wc, wc.w.Complement())
	for _, wl := range wc.lits {
		s.unwatch(wc, wl.Lit)
		s.unwatch(wc, wl.Lit.Complement())
	}
}

func (wc *WeightConstraint) locked(s *Solver) bool {
	ant := s.assign.Antecedent(wc.w.Var())
	return ant.Kind == asg.Constraint && ant.Con == asg.Reasoner(wc)
}

// sums recomputes the sum of weights of currently-true literals and the
// "reach" (total weight still possibly true, i.e. total minus the sum of
// currently-false literals' weights).
func (wc *WeightConstraint) sums() (sumTrue, reach lit.WSum) {
	reach = wc.total
	for _, wl := range wc.lits {
		switch wc.s.assign.LitValue(wl.Lit) {
		case lit.TrueVal:
			sumTrue += lit.WSum(wl.Weight)
		case lit.FalseVal:
			reach -= lit.WSum(wl.Weight)
		}
	}
	return sumTrue, reach
}

// propagate re-derives every consequence of the constraint's current
// sums, regardless of which watched literal triggered the call (the
// recompute-on-demand tradeoff noted on WeightConstraint).
func (wc *WeightConstraint) propagate(s *Solver, l lit.Literal) bool {
	// Re-register the watch on l unconditionally: it is always watched
	// with noGuard (weight.go's watchAll), so the guard-true fast path in
	// propagateClausal never keeps it registered on our behalf, and the
	// queue drain that called this has already cleared l's watch list
	// for this round (solver.go propagateClausal).
	s.watch(wc, l, noGuard)
	sumTrue, reach := wc.sums()

	// FTB: enough true weight already, W must be true.
	if sumTrue >= wc.bound && s.assign.LitValue(wc.w) != lit.TrueVal {
		if !s.enqueue(wc.w, asg.ConstraintAntecedent(wc)) {
			return wc.conflict()
		}
	}
	// FFB: not enough reachable weight left, W must be false.
	if reach < wc.bound && s.assign.LitValue(wc.w) != lit.FalseVal {
		if !s.enqueue(wc.w.Complement(), asg.ConstraintAntecedent(wc)) {
			return wc.conflict()
		}
	}

	switch s.assign.LitValue(wc.w) {
	case lit.FalseVal:
		// BFB: W is false, so any unassigned literal whose truth alone
		// would push sumTrue over the bound must be false.
		for _, wl := range wc.lits {
			if s.assign.LitValue(wl.Lit) != lit.Free {
				continue
			}
			if sumTrue+lit.WSum(wl.Weight) >= wc.bound {
				if !s.enqueue(wl.Lit.Complement(), asg.ConstraintAntecedent(wc)) {
					return wc.conflict()
				}
			}
		}
	case lit.TrueVal:
		// BTB: W is true, so any unassigned literal whose falsity alone
		// would drop reach below the bound must be true.
		for _, wl := range wc.lits {
			if s.assign.LitValue(wl.Lit) != lit.Free {
				continue
			}
			if reach-lit.WSum(wl.Weight) < wc.bound {
				if !s.enqueue(wl.Lit, asg.ConstraintAntecedent(wc)) {
					return wc.conflict()
				}
			}
		}
	}

	return true
}

func (wc *WeightConstraint) conflict() bool {
	wc.s.tmpReason = wc.Reason(wc.s.tmpReason[:0], lit.Literal(0))
	return false
}

// Reason implements asg.Reasoner. A valid antecedent clause needs only
// cite a superset of the literals that actually forced the assignment —
// weakening an implication (adding more hypotheses) keeps it valid — so
// this cites every other currently-assigned participant as the literal
// that currently holds: true literals as-is and false literals negated
// (matching Clause.Reason's convention that a reason lists the true
// literals implying the asserted one). This is sound but non-minimal: it doesn't track
// which specific literals crossed the bound for a given inference, since
// the recompute-on-demand design (see sums) discards that detail.
func (wc *WeightConstraint) Reason(dst []lit.Literal, l lit.Literal) []lit.Literal {
	for _, wl := range wc.lits {
		if wl.Lit == l {
			continue
		}
		switch wc.s.assign.LitValue(wl.Lit) {
		case lit.TrueVal:
			dst = append(dst, wl.Lit)
		case lit.FalseVal:
			dst = append(dst, wl.Lit.Complement())
		}
	}
	if wc.w != l {
		switch wc.s.assign.LitValue(wc.w) {
		case lit.TrueVal:
			dst = append(dst, wc.w)
		case lit.FalseVal:
			dst = append(dst, wc.w.Complement())
		}
	}
	return dst
}

var _ propagator = (*WeightConstraint)(nil)
