package heuristic

import "github.com/clasp-go/clasp/internal/lit"

// DomainMod is a single user-declared per-atom modification (spec.md §4.6):
// level orders modifiers when several target the same variable (the
// highest-level modifier active at a given point wins), factor and init are
// applied as overlays on top of the base VSIDS activity, and sign, when set,
// overrides phase saving unconditionally.
type DomainMod struct {
	Var    lit.Var
	Level  int32
	Factor float64 // overlay on bump: added if Additive is set, multiplied otherwise
	Init   float64 // one-shot initial-activity bump
	Sign   lit.Value
	Additive bool
}

// Domain wraps a VSIDS instance and overlays domain modifications on top of
// its activity updates and sign selection, per spec.md's "additive/
// multiplicative overlays on VSIDS activity with sign override". Grounded on
// the teacher's VarOrder for the base activity machinery; the overlay
// bookkeeping itself has no teacher analogue and is built directly from the
// spec.
type Domain struct {
	*VSIDS

	mods     map[lit.Var][]DomainMod // sorted ascending by Level
	applied  map[lit.Var]bool
}

func NewDomain(decay float64, phaseSaving bool) *Domain {
	return &Domain{
		VSIDS: NewVSIDS(decay, phaseSaving),
		mods:  make(map[lit.Var][]DomainMod),
	}
}

// AddModification registers m, keeping each variable's modifier list sorted
// by ascending Level so the highest-level entry is always last.
func (h *Domain) AddModification(m DomainMod) {
	list := h.mods[m.Var]
	i := len(list)
	for i > 0 && list[i-1].Level > m.Level {
		i--
	}
	list = append(list, DomainMod{})
	copy(list[i+1:], list[i:])
	list[i] = m
	h.mods[m.Var] = list
}

func (h *Domain) NewVar(v lit.Var, initScore float64, initPhase lit.Value) {
	h.VSIDS.NewVar(v, initScore, initPhase)
}

// Bump applies the base VSIDS bump, then the highest-level active
// modification for v, if any: Init is a one-shot additive bump applied only
// the first time the variable is bumped after registration, Factor scales
// every subsequent bump (additive if Additive is set, multiplicative
// otherwise).
func (h *Domain) Bump(v lit.Var, amount float64) {
	h.VSIDS.Bump(v, amount)

	mods := h.mods[v]
	if len(mods) == 0 {
		return
	}
	m := mods[len(mods)-1] // highest level wins

	if m.Init != 0 && !h.applied[v] {
		if h.applied == nil {
			h.applied = make(map[lit.Var]bool)
		}
		h.applied[v] = true
		h.VSIDS.scores[v] += m.Init
		if h.VSIDS.order.Contains(int(v)) {
			h.VSIDS.order.Put(int(v), -h.VSIDS.scores[v])
		}
	}
	if m.Factor != 0 {
		var overlay float64
		if m.Additive {
			overlay = m.Factor * h.VSIDS.scoreInc
		} else {
			overlay = h.VSIDS.scores[v] * (m.Factor - 1)
		}
		h.VSIDS.scores[v] += overlay
		if h.VSIDS.order.Contains(int(v)) {
			h.VSIDS.order.Put(int(v), -h.VSIDS.scores[v])
		}
	}
}

// Select defers to VSIDS for the candidate variable, but honors a
// domain-declared Sign override ahead of phase saving.
func (h *Domain) Select(env Env) (lit.Literal, bool) {
	for {
		next, ok := h.VSIDS.order.Pop()
		if !ok {
			return 0, false
		}
		v := lit.Var(next.Elem)
		if env.VarValue(v) != lit.Free {
			continue
		}
		if mods := h.mods[v]; len(mods) > 0 {
			if sign := mods[len(mods)-1].Sign; sign != lit.Free {
				if sign == lit.FalseVal {
					return lit.Neg(v), true
				}
				return lit.Pos(v), true
			}
		}
		return h.VSIDS.litFor(v), true
	}
}

var _ Heuristic = (*Domain)(nil)
