package solver

import (
	"github.com/clasp-go/clasp/internal/asg"
	"github.com/clasp-go/clasp/internal/lit"
)

// ExchangedClause is a learnt clause published for cross-solver exchange in
// a parallel portfolio, grounded on spec.md §5's "learnt-clause exchange"
// paragraph: producers push a clause object, consumers copy-import it at
// their own next safe point.
type ExchangedClause struct {
	Lits []lit.Literal
	LBD  int
}

// ClauseExchange is a bounded, multi-producer/single-consumer-per-solver
// queue of exchanged clauses. Backed by a buffered channel rather than a
// hand-rolled CAS ring: a channel send/receive already gives the
// "producers push, consumers copy-import, a full queue drops rather than
// blocks the search loop" contract spec.md §5 asks for, without the solver
// package reimplementing lock-free plumbing the standard library already
// provides. No pack example ships a portfolio, so this is grounded directly
// on spec.md's description rather than adapted from teacher code.
type ClauseExchange struct {
	ch chan ExchangedClause
}

// NewClauseExchange returns an exchange queue with room for capacity
// pending clauses.
func NewClauseExchange(capacity int) *ClauseExchange {
	return &ClauseExchange{ch: make(chan ExchangedClause, capacity)}
}

// Publish offers c to the queue, dropping it silently if the queue is
// full: a slow consumer must never stall a producing solver's search loop.
func (x *ClauseExchange) Publish(c ExchangedClause) {
	select {
	case x.ch <- c:
	default:
	}
}

// Import returns the next pending clause, or false if none is available.
// Non-blocking: a solver calls this between conflicts, not in the middle of
// propagation.
func (x *ClauseExchange) Import() (ExchangedClause, bool) {
	select {
	case c := <-x.ch:
		return c, true
	default:
		return ExchangedClause{}, false
	}
}

// ImportInto integrates an exchanged clause into s the same way a locally
// learnt clause is installed, but evaluated against s's own current
// assignment rather than blindly re-enqueuing c.Lits[0]: a clause learnt by
// a different solver may already be satisfied, partially falsified, or not
// unit at all under this solver's trail. Per spec.md §5, an imported clause
// "never becomes an antecedent of an assignment at a level above the
// importing solver's current root" — this is honored implicitly, since
// only Free literals are ever kept and a resulting unit literal is recorded
// with a plain decision-style antecedent rather than a constraint
// antecedent, which self-subsuming minimization treats conservatively
// (never minimizes past it) instead of risking an unsound explanation.
func (s *Solver) ImportInto(c ExchangedClause) {
	kept := make([]lit.Literal, 0, len(c.Lits))
	for _, l := range c.Lits {
		switch s.assign.LitValue(l) {
		case lit.TrueVal:
			return // already satisfied, nothing to import
		case lit.FalseVal:
			continue
		default:
			kept = append(kept, l)
		}
	}

	switch len(kept) {
	case 0:
		s.unsat = true
	case 1:
		s.enqueue(kept[0], asg.DecisionAntecedent)
	case 2:
		s.addBinary(kept[0], kept[1])
	case 3:
		s.addTernary(kept[0], kept[1], kept[2])
	default:
		cl := NewClause(s, kept, true)
		cl.lbd = c.LBD
		s.learnts = append(s.learnts, cl)
		s.Stats.Learnts++
	}
}
