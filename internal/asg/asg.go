// Package asg implements the assignment and trail (spec component A): the
// value/level/antecedent of every variable, the ordered trail partitioned by
// decision level, and the undo hooks used by weight constraints and
// post-propagators when a level is rolled back.
//
// The design generalizes the teacher's (rhartert/yass) inline trail fields
// (Solver.assigns, Solver.trail, Solver.trailLim, Solver.reason, Solver.level)
// into a standalone type so that internal/solver's constraint machinery and
// internal/heuristic's phase saving can both depend on it without depending
// on each other.
package asg

import "github.com/clasp-go/clasp/internal/lit"

// AntecedentKind tags what produced an assignment.
type AntecedentKind uint8

const (
	// Decision marks a literal chosen by the search heuristic, opening a
	// new decision level.
	Decision AntecedentKind = iota
	// Binary/Ternary antecedents pack their "other" literal(s) directly,
	// avoiding a constraint-DB lookup for the 2- and 3-literal shortcuts
	// of spec.md §4.2.
	Binary
	Ternary
	// Constraint antecedents defer reason construction to a registered
	// Constraint (clause, weight constraint, ...).
	Constraint
)

// Reasoner is the minimal capability an antecedent constraint must expose
// so the trail can lazily regenerate its reason clause. internal/solver's
// Clause and WeightConstraint both satisfy it.
type Reasoner interface {
	// Reason appends the negation of every literal (other than the
	// asserted one, when l is non-zero) that implied l — or, when l is
	// the zero Literal, every literal that is part of the conflict — to
	// dst and returns the result.
	Reason(dst []lit.Literal, l lit.Literal) []lit.Literal
}

// Antecedent is a tagged reference to whatever produced an assignment.
type Antecedent struct {
	Kind   AntecedentKind
	Other1 lit.Literal // Binary/Ternary
	Other2 lit.Literal // Ternary only
	Con    Reasoner    // Constraint
}

// DecisionAntecedent is the antecedent of a decision literal.
var DecisionAntecedent = Antecedent{Kind: Decision}

// BinaryAntecedent builds the antecedent for a literal implied by the
// binary-clause shortcut {l, other}.
func BinaryAntecedent(other lit.Literal) Antecedent {
	return Antecedent{Kind: Binary, Other1: other}
}

// TernaryAntecedent builds the antecedent for a literal implied by the
// ternary-clause shortcut {l, o1, o2}.
func TernaryAntecedent(o1, o2 lit.Literal) Antecedent {
	return Antecedent{Kind: Ternary, Other1: o1, Other2: o2}
}

// ConstraintAntecedent builds the antecedent for a literal implied by c.
func ConstraintAntecedent(c Reasoner) Antecedent {
	return Antecedent{Kind: Constraint, Con: c}
}

// UndoListener is notified whenever UndoUntil pops past a level it
// registered interest in. Weight constraints and post-propagators
// implement this to unwind their own per-level undo stacks (spec.md §4.2,
// §4.5).
type UndoListener interface {
	UndoLevel(level int)
}

// varRecord is the per-variable assignment state.
type varRecord struct {
	value      lit.Value
	level      int32
	antecedent Antecedent
	savedPhase lit.Value
}

// Assignment tracks the value, level and antecedent of every variable plus
// the ordered trail, per spec.md §3/§4.1.
type Assignment struct {
	vars  []varRecord
	trail []lit.Literal
	// levelStart[d] is the trail index of the first literal assigned at
	// level d+1 (the root level has no entry of its own since it is never
	// undone; its literals occupy trail[:levelStart[0]]).
	levelStart []int32

	listeners []UndoListener
}

// New returns an empty assignment with no variables.
func New() *Assignment {
	return &Assignment{}
}

// Grow registers a freshly allocated variable, extending internal arrays.
// Variables must be added in increasing id order starting from 0, matching
// the monotonic allocation described in spec.md §3.
func (a *Assignment) Grow() lit.Var {
	v := lit.Var(len(a.vars))
	a.vars = append(a.vars, varRecord{value: lit.Free})
	return v
}

// NumVars returns the number of variables registered via Grow.
func (a *Assignment) NumVars() int { return len(a.vars) }

// AddUndoListener registers l to be notified on every UndoLevel call.
func (a *Assignment) AddUndoListener(l UndoListener) {
	a.listeners = append(a.listeners, l)
}

// DecisionLevel returns the current decision level (0 at the root).
func (a *Assignment) DecisionLevel() int { return len(a.levelStart) }

// TrailLen returns the number of currently assigned variables.
func (a *Assignment) TrailLen() int { return len(a.trail) }

// TrailAt returns the literal assigned at trail position i.
func (a *Assignment) TrailAt(i int) lit.Literal { return a.trail[i] }

// TrailBegin returns the half-open trail range start of level d (d >= 1).
func (a *Assignment) TrailBegin(d int) int {
	if d <= 0 {
		return 0
	}
	return int(a.levelStart[d-1])
}

// TrailEnd returns the half-open trail range end of level d.
func (a *Assignment) TrailEnd(d int) int {
	if d < a.DecisionLevel() {
		return int(a.levelStart[d])
	}
	return len(a.trail)
}

// Value returns the current truth value of v.
func (a *Assignment) Value(v lit.Var) lit.Value { return a.vars[v].value }

// LitValue returns the current truth value of literal l.
func (a *Assignment) LitValue(l lit.Literal) lit.Value {
	v := a.vars[l.Var()].value
	if l.Sign() {
		return v.Opposite()
	}
	return v
}

// Level returns the decision level at which v was assigned (0 if free or a
// top-level unit).
func (a *Assignment) Level(v lit.Var) int { return int(a.vars[v].level) }

// Antecedent returns the antecedent of v's assignment.
func (a *Assignment) Antecedent(v lit.Var) Antecedent { return a.vars[v].antecedent }

// SavedPhase returns the last value v held before being unassigned, or Free
// if it has never been assigned.
func (a *Assignment) SavedPhase(v lit.Var) lit.Value { return a.vars[v].savedPhase }

// Assign records l as true with the given antecedent at the current
// decision level. It returns true unless l's variable is already assigned
// to the opposite value (a conflict), in which case no state changes.
func (a *Assignment) Assign(l lit.Literal, ant Antecedent) bool {
	want := lit.ValueFor(l)
	cur := a.vars[l.Var()].value
	if cur == want {
		return true // already assigned, no-op
	}
	if cur != lit.Free {
		return false // conflicting assignment
	}
	a.vars[l.Var()] = varRecord{
		value:      want,
		level:      int32(a.DecisionLevel()),
		antecedent: ant,
		savedPhase: a.vars[l.Var()].savedPhase,
	}
	a.trail = append(a.trail, l)
	return true
}

// Decide opens a new decision level and assigns l as the level's decision
// literal. l must currently be unassigned.
func (a *Assignment) Decide(l lit.Literal) {
	if a.vars[l.Var()].value != lit.Free {
		panic("asg: Decide called on an already-assigned literal")
	}
	a.levelStart = append(a.levelStart, int32(len(a.trail)))
	ok := a.Assign(l, DecisionAntecedent)
	if !ok {
		panic("asg: Decide could not assign a free literal")
	}
}

// UndoUntil pops every trail literal assigned at a level above target,
// clearing its value and antecedent. Unless keepPhases is set, the saved
// phase is also cleared to Free so a stale phase never outlives the
// variable being frozen out of the search. Registered UndoListeners are
// notified once per popped level, from the top down, before that level's
// literals are cleared (so TrailBegin/TrailEnd/Value still describe it).
func (a *Assignment) UndoUntil(target int, keepPhases bool) {
	for a.DecisionLevel() > target {
		level := a.DecisionLevel()
		start := int(a.levelStart[level-1])
		for _, ls := range a.listeners {
			ls.UndoLevel(level)
		}
		for i := len(a.trail) - 1; i >= start; i-- {
			l := a.trail[i]
			v := l.Var()
			if keepPhases {
				a.vars[v].savedPhase = a.vars[v].value
			} else {
				a.vars[v].savedPhase = lit.Free
			}
			a.vars[v].value = lit.Free
			a.vars[v].level = 0
			a.vars[v].antecedent = Antecedent{}
		}
		a.trail = a.trail[:start]
		a.levelStart = a.levelStart[:level-1]
	}
}

// Reason appends the negated literals that justify v's assignment (i.e. the
// clause {lit(v)} ∪ {¬x | x ∈ reason} is the antecedent clause) to dst and
// returns the result. v must be currently assigned with a non-Decision
// antecedent.
func (a *Assignment) Reason(dst []lit.Literal, v lit.Var) []lit.Literal {
	r := a.vars[v].antecedent
	assigned := a.Pos(v)
	switch r.Kind {
	case Binary:
		return append(dst, r.Other1.Complement())
	case Ternary:
		return append(dst, r.Other1.Complement(), r.Other2.Complement())
	case Constraint:
		return r.Con.Reason(dst, assigned)
	default:
		panic("asg: Reason called on a decision literal")
	}
}

// Pos returns the literal of v that is currently assigned true (or would be
// if v became true, when v is free — used for reason reconstruction).
func (a *Assignment) Pos(v lit.Var) lit.Literal {
	if a.vars[v].value == lit.FalseVal {
		return lit.Neg(v)
	}
	return lit.Pos(v)
}
