package solver

import (
	"strings"

	"github.com/clasp-go/clasp/internal/asg"
	"github.com/clasp-go/clasp/internal/lit"
)

// propagator is satisfied by every constraint that can sit on a watch list:
// Clause, WeightConstraint, and the binary/ternary shortcut shims.
// Grounded on the teacher's implicit contract between Solver.watchers and
// *Clause (internal/sat/solver.go, clauses.go), generalized into an
// explicit interface so every watched constraint kind can share the watch
// list machinery. Reason/locked/remove are not part of this interface:
// they are only ever invoked on the concrete *Clause/*WeightConstraint
// that sit in s.constraints/s.learnts, never through a watcher.
type propagator interface {
	// propagate is invoked when the watched literal l (the one this
	// watcher entry is registered under) has just become true.
	propagate(s *Solver, l lit.Literal) bool
}

// watcher is a clause (or weight constraint) attached to one literal's
// watch list, paired with a cached "guard" literal. If the guard is
// already true the watching constraint cannot possibly need to fire, which
// lets Propagate skip loading it entirely. Grounded on the teacher's
// watcher{clause, guard} (internal/sat/solver.go).
type watcher struct {
	con   propagator
	guard lit.Literal
}

// Clause is a >=4-literal disjunction using two-watched-literal
// propagation with a cached blocking literal. 2- and 3-literal clauses are
// stored as binary/ternary antecedents directly on the trail (see
// asg.BinaryAntecedent/TernaryAntecedent) rather than allocated here,
// unlike the teacher which always heap-allocates a *Clause — spec.md §4.2's
// antecedent tagging makes the 2/3-literal shortcut explicit and a pack
// example doesn't need to be followed for something the spec describes
// directly.
//
// Grounded on the teacher's internal/sat.Clause (clauses.go), generalized
// to depend on asg.Assignment instead of inline solver fields.
type Clause struct {
	literals []lit.Literal
	activity float64
	learnt   bool
	lbd      int
	// protected survives one reduce-DB pass regardless of activity/LBD,
	// set when the clause was involved in a recent conflict (spec.md
	// §4.3's reduce-policy "locked/protected" handling).
	protected bool
}

// NewClause builds and attaches a clause from lits, which must have at
// least 4 entries (callers route 1-3 literal clauses through unit
// enqueue / binary / ternary antecedents instead). When learnt is true,
// lits[1] is expected to already hold the literal assigned at the highest
// decision level among lits[1:], as produced by conflict analysis.
func NewClause(s *Solver, lits []lit.Literal, learnt bool) *Clause {
	c := &Clause{
		literals: append([]lit.Literal(nil), lits...),
		learnt:   learnt,
	}
	s.watch(c, c.literals[0].Complement(), c.literals[1])
	s.watch(c, c.literals[1].Complement(), c.literals[0])
	return c
}

func (c *Clause) locked(s *Solver) bool {
	v := c.literals[0].Var()
	ant := s.assign.Antecedent(v)
	return ant.Kind == asg.Constraint && ant.Con == asg.Reasoner(c)
}

func (c *Clause) remove(s *Solver) {
	s.unwatch(c, c.literals[0].Complement())
	s.unwatch(c, c.literals[1].Complement())
}

// simplify drops root-level-false literals and reports whether the clause
// is now satisfied at the root and can be discarded entirely. Grounded on
// the teacher's Clause.Simplify.
func (c *Clause) simplify(s *Solver) bool {
	j := 0
	for _, l := range c.literals {
		switch s.assign.LitValue(l) {
		case lit.TrueVal:
			return true
		case lit.FalseVal:
		default:
			c.literals[j] = l
			j++
		}
	}
	c.literals = c.literals[:j]
	return false
}

// propagate is called when l, the complement of one of c's first two
// watched literals, has just become true. It looks for a replacement
// watch among literals [2:]; if none is free or true, the other watched
// literal is asserted (or a conflict is reported). Grounded on the
// teacher's Clause.Propagate.
func (c *Clause) propagate(s *Solver, l lit.Literal) bool {
	opp := l.Complement()
	if c.literals[0] == opp {
		c.literals[0], c.literals[1] = c.literals[1], c.literals[0]
	}

	if s.assign.LitValue(c.literals[0]) == lit.TrueVal {
		s.watch(c, l, c.literals[0])
		return true
	}

	for i := 2; i < len(c.literals); i++ {
		if s.assign.LitValue(c.literals[i]) != lit.FalseVal {
			c.literals[1], c.literals[i] = c.literals[i], opp
			s.watch(c, c.literals[1].Complement(), c.literals[0])
			return true
		}
	}

	s.watch(c, l, c.literals[0])
	if s.enqueue(c.literals[0], asg.ConstraintAntecedent(c)) {
		return true
	}
	s.tmpReason = c.Reason(s.tmpReason[:0], lit.Literal(0))
	return false
}

// Reason implements asg.Reasoner. When l is the zero (sentinel) literal it
// is a conflict explanation (every clause literal negated); otherwise it
// explains why l was asserted (every literal but l, negated). Grounded on
// the teacher's ExplainFailure/ExplainAssign split.
func (c *Clause) Reason(dst []lit.Literal, l lit.Literal) []lit.Literal {
	if l.IsSentinel() {
		for _, x := range c.literals {
			dst = append(dst, x.Complement())
		}
		return dst
	}
	for _, x := range c.literals {
		if x != l {
			dst = append(dst, x.Complement())
		}
	}
	return dst
}

func (c *Clause) String() string {
	if len(c.literals) == 0 {
		return "Clause[]"
	}
	sb := strings.Builder{}
	sb.WriteString("Clause[")
	sb.WriteString(c.literals[0].String())
	for _, l := range c.literals[1:] {
		sb.WriteByte(' ')
		sb.WriteString(l.String())
	}
	sb.WriteByte(']')
	return sb.String()
}

var _ propagator = (*Clause)(nil)
