package heuristic

import "github.com/clasp-go/clasp/internal/lit"

// BerkMin layers a conflict-clause stack on top of VSIDS: decisions prefer
// the highest-activity free literal in the most recently learnt clauses
// still containing an unassigned variable, falling back to the VSIDS heap
// once those stacks are exhausted. Grounded on clasp's ClaspBerkmin
// (libclasp/src/solver_strategies.cpp Heuristic_t::create), reusing the
// VSIDS activity bookkeeping for scoring.
type BerkMin struct {
	*VSIDS

	// stack holds recently learnt clauses, most recent last. ObserveLearnt
	// keeps only the maxStack most recent ones, and Select drops a clause
	// for good once none of its variables is free.
	stack      [][]lit.Literal
	maxStack   int
	decayCount int
}

// NewBerkMin returns a BerkMin heuristic with the given VSIDS decay/phase
// saving for its underlying activity scores.
func NewBerkMin(decay float64, phaseSaving bool) *BerkMin {
	return &BerkMin{
		VSIDS:    NewVSIDS(decay, phaseSaving),
		maxStack: 32,
	}
}

// ObserveLearnt implements ConflictObserver: every learnt clause is pushed
// onto the recency stack, trimmed to maxStack entries.
func (h *BerkMin) ObserveLearnt(lits []lit.Literal, activity float64) {
	cp := append([]lit.Literal(nil), lits...)
	h.stack = append(h.stack, cp)
	if len(h.stack) > h.maxStack {
		h.stack = h.stack[len(h.stack)-h.maxStack:]
	}
}

// Select scans the learnt-clause stack from most to least recent for a
// clause that still has at least one free literal, and picks the one with
// the highest VSIDS activity from it. If no such clause remains, it falls
// back to plain VSIDS selection.
func (h *BerkMin) Select(env Env) (lit.Literal, bool) {
	for i := len(h.stack) - 1; i >= 0; i-- {
		c := h.stack[i]
		best := lit.Literal(0)
		bestScore := -1.0
		free := 0
		for _, l := range c {
			if env.VarValue(l.Var()) != lit.Free {
				continue
			}
			free++
			if s := h.scores[l.Var()]; s > bestScore {
				bestScore, best = s, l
			}
		}
		if free == 0 {
			// Clause is satisfied or falsified under the current
			// assignment; drop it, it will never contribute again at
			// this search depth.
			h.stack = append(h.stack[:i], h.stack[i+1:]...)
			continue
		}
		if free >= 1 {
			return h.orientToPhase(best), true
		}
	}
	return h.VSIDS.Select(env)
}

func (h *BerkMin) orientToPhase(l lit.Literal) lit.Literal {
	v := l.Var()
	sign := h.fixed[v]
	if sign == lit.Free {
		sign = h.phases[v]
	}
	if sign == lit.FalseVal {
		return lit.Neg(v)
	}
	return lit.Pos(v)
}

var _ Heuristic = (*BerkMin)(nil)
var _ ConflictObserver = (*BerkMin)(nil)
