package heuristic

import "github.com/clasp-go/clasp/internal/lit"

// FirstFree picks the lowest-numbered unassigned variable and its saved
// phase (or positive, if never assigned). It exists mainly as a cheap
// baseline for crosschecking the weighted heuristics and for inputs where
// the overhead of activity bookkeeping isn't worth it, matching clasp's
// SelectFirst strategy named alongside Berkmin/Vsids in
// libclasp/src/solver_strategies.cpp.
type FirstFree struct {
	phases []lit.Value
	fixed  []lit.Value
}

func NewFirstFree() *FirstFree {
	return &FirstFree{}
}

func (h *FirstFree) NewVar(v lit.Var, initScore float64, initPhase lit.Value) {
	h.phases = append(h.phases, initPhase)
	h.fixed = append(h.fixed, lit.Free)
}

func (h *FirstFree) Bump(v lit.Var, amount float64) {}

func (h *FirstFree) Decay() {}

func (h *FirstFree) Undo(v lit.Var, lastValue lit.Value) {
	h.phases[v] = lastValue
}

func (h *FirstFree) SetFixedPreference(v lit.Var, sign lit.Value) {
	h.fixed[v] = sign
}

func (h *FirstFree) Select(env Env) (lit.Literal, bool) {
	for i := 0; i < env.NumVars(); i++ {
		v := lit.Var(i)
		if env.VarValue(v) != lit.Free {
			continue
		}
		sign := h.fixed[v]
		if sign == lit.Free {
			sign = h.phases[v]
		}
		if sign == lit.FalseVal {
			return lit.Neg(v), true
		}
		return lit.Pos(v), true
	}
	return 0, false
}

var _ Heuristic = (*FirstFree)(nil)
