// Package heuristic implements the pluggable decision heuristics of spec.md
// §4.6: VSIDS, BerkMin, first-free and the domain heuristic, all behind one
// Heuristic interface so internal/solver can swap them per configuration
// (mirroring clasp's Heuristic_t::create dispatch in
// libclasp/src/solver_strategies.cpp).
//
// The VSIDS priority queue is grounded directly on the teacher's
// (rhartert/yass) internal/sat/ordering.go VarOrder, which already wraps
// github.com/rhartert/yagh; the other heuristics generalize that shape
// instead of introducing a second queue implementation.
package heuristic

import "github.com/clasp-go/clasp/internal/lit"

// Env is the read-only view of solver state a heuristic needs to pick a
// literal: the variable count and current assignment (saved phases are
// kept by each heuristic itself). internal/solver.Solver satisfies it.
type Env interface {
	NumVars() int
	VarValue(v lit.Var) lit.Value
}

// Heuristic is the capability set shared by every decision strategy
// (spec.md §4.6).
type Heuristic interface {
	// NewVar registers a freshly allocated variable with its initial
	// activity and phase.
	NewVar(v lit.Var, initScore float64, initPhase lit.Value)
	// Bump increases v's activity, e.g. because it was touched during
	// conflict analysis.
	Bump(v lit.Var, amount float64)
	// Decay applies the heuristic's activity decay after a conflict.
	Decay()
	// Undo is called when v transitions back to Free during backtracking
	// so phase-saving heuristics can record its last value.
	Undo(v lit.Var, lastValue lit.Value)
	// Select returns the next literal to assign, or ok=false if every
	// variable is already assigned.
	Select(env Env) (l lit.Literal, ok bool)
}

// ConflictObserver is optionally implemented by heuristics (BerkMin) that
// need to see every newly learnt clause to drive their own bookkeeping.
type ConflictObserver interface {
	ObserveLearnt(lits []lit.Literal, activity float64)
}

// rescaleThreshold mirrors clasp's and the teacher's 1e100 activity
// overflow guard: bumping is additive and unbounded, so activities (and the
// shared increment) are periodically rescaled to keep them representable
// and keep their relative order.
const rescaleThreshold = 1e100
const rescaleFactor = 1e-100
