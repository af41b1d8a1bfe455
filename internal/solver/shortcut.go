package solver

import (
	"github.com/clasp-go/clasp/internal/asg"
	"github.com/clasp-go/clasp/internal/lit"
)

// binaryWatch and ternaryWatch are the propagators for the implicit
// binary/ternary clause shortcuts of spec.md §4.2: rather than allocating a
// *Clause for 2- and 3-literal clauses, each watch-list entry carries just
// the other literal(s) directly, and the resulting assignment is given a
// Binary/Ternary antecedent (asg.BinaryAntecedent/TernaryAntecedent) whose
// reason is reconstructed inline by asg.Assignment.Reason — these shims
// never implement asg.Reasoner themselves.
type binaryWatch struct {
	other lit.Literal
}

func (w binaryWatch) propagate(s *Solver, l lit.Literal) bool {
	// Re-register the watch on l unconditionally, before attempting the
	// assignment: the propagation queue drain that called this has
	// already cleared l's watch list for this round (solver.go
	// propagateClausal), so the watcher must re-add itself to survive,
	// whether or not the assignment below succeeds.
	s.watch(w, l, w.other)
	falsified := l.Complement()
	if s.enqueue(w.other, asg.BinaryAntecedent(falsified)) {
		return true
	}
	s.tmpReason = append(s.tmpReason[:0], falsified.Complement(), w.other.Complement())
	return false
}

type ternaryWatch struct {
	o1, o2 lit.Literal
}

func (w ternaryWatch) propagate(s *Solver, l lit.Literal) bool {
	// Same re-registration requirement as binaryWatch.propagate above:
	// the watch list for l was cleared before this call, so w must
	// re-add itself regardless of which branch below is taken.
	s.watch(w, l, noGuard)
	v1, v2 := s.assign.LitValue(w.o1), s.assign.LitValue(w.o2)
	if v1 == lit.TrueVal || v2 == lit.TrueVal {
		return true
	}
	falsified := l.Complement()
	if v1 == lit.Free && v2 == lit.Free {
		// Both other literals are still unassigned: nothing to
		// propagate yet (two-watched-literal clauses only fire once
		// all but one literal are falsified; here we only watch one
		// of the three literals per orientation, so we must check the
		// other two's actual values before asserting).
		return true
	}
	if v1 == lit.Free {
		return w.assertOrConflict(s, w.o1, falsified, w.o2)
	}
	if v2 == lit.Free {
		return w.assertOrConflict(s, w.o2, falsified, w.o1)
	}
	// Both falsified: conflict.
	s.tmpReason = append(s.tmpReason[:0], falsified.Complement(), w.o1.Complement(), w.o2.Complement())
	return false
}

func (w ternaryWatch) assertOrConflict(s *Solver, toAssert, other1, other2 lit.Literal) bool {
	if s.enqueue(toAssert, asg.TernaryAntecedent(other1, other2)) {
		return true
	}
	s.tmpReason = append(s.tmpReason[:0], other1.Complement(), other2.Complement(), toAssert.Complement())
	return false
}

var _ propagator = binaryWatch{}
var _ propagator = ternaryWatch{}
