package heuristic

import (
	"github.com/clasp-go/clasp/internal/lit"
	"github.com/rhartert/yagh"
)

// VSIDS implements the variable-state-independent decaying sum heuristic:
// a binary heap keyed on activity (ties broken by declaration order, as
// yagh.IntMap does), with phase saving for the sign of the returned
// literal. Grounded on the teacher's VarOrder (internal/sat/ordering.go),
// generalized to satisfy the shared Heuristic interface.
type VSIDS struct {
	order *yagh.IntMap[float64]

	scores   []float64
	scoreInc float64
	decay    float64

	phases      []lit.Value
	phaseSaving bool

	fixed []lit.Value // user-forced sign preference, overrides phase saving
}

// NewVSIDS returns a VSIDS heuristic with the given activity decay (applied
// as scoreInc /= decay after each conflict, matching the teacher).
func NewVSIDS(decay float64, phaseSaving bool) *VSIDS {
	return &VSIDS{
		order:       yagh.New[float64](0),
		scoreInc:    1,
		decay:       decay,
		phaseSaving: phaseSaving,
	}
}

func (h *VSIDS) NewVar(v lit.Var, initScore float64, initPhase lit.Value) {
	if int(v) != len(h.scores) {
		panic("heuristic: variables must be registered in order")
	}
	h.scores = append(h.scores, initScore)
	h.phases = append(h.phases, initPhase)
	h.fixed = append(h.fixed, lit.Free)
	h.order.GrowBy(1)
	h.order.Put(int(v), -initScore)
}

func (h *VSIDS) Bump(v lit.Var, amount float64) {
	newScore := h.scores[v] + amount*h.scoreInc
	h.scores[v] = newScore
	if h.order.Contains(int(v)) {
		h.order.Put(int(v), -newScore)
	}
	if newScore > rescaleThreshold {
		h.rescale()
	}
}

func (h *VSIDS) Decay() {
	h.scoreInc /= h.decay
	if h.scoreInc > rescaleThreshold {
		h.rescale()
	}
}

func (h *VSIDS) rescale() {
	h.scoreInc *= rescaleFactor
	for v, s := range h.scores {
		ns := s * rescaleFactor
		h.scores[v] = ns
		if h.order.Contains(v) {
			h.order.Put(v, -ns)
		}
	}
}

func (h *VSIDS) Undo(v lit.Var, lastValue lit.Value) {
	if h.phaseSaving {
		h.phases[v] = lastValue
	}
	h.order.Put(int(v), -h.scores[v])
}

// SetFixedPreference pins the sign VSIDS returns for v regardless of phase
// saving, implementing the "user-fixed preference if present" override of
// spec.md §4.6.
func (h *VSIDS) SetFixedPreference(v lit.Var, sign lit.Value) {
	h.fixed[v] = sign
}

func (h *VSIDS) Select(env Env) (lit.Literal, bool) {
	for {
		next, ok := h.order.Pop()
		if !ok {
			return 0, false
		}
		v := lit.Var(next.Elem)
		if env.VarValue(v) != lit.Free {
			continue // stale entry, already assigned
		}
		return h.litFor(v), true
	}
}

func (h *VSIDS) litFor(v lit.Var) lit.Literal {
	sign := h.fixed[v]
	if sign == lit.Free {
		sign = h.phases[v]
	}
	if sign == lit.FalseVal {
		return lit.Neg(v)
	}
	return lit.Pos(v)
}

// Undo makes v a candidate again through the heap's Put, which re-adds v
// if it had been popped (yagh.IntMap.Put upserts).
var _ Heuristic = (*VSIDS)(nil)
