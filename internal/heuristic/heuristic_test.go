package heuristic

import (
	"testing"

	"github.com/clasp-go/clasp/internal/lit"
)

// fakeEnv is a minimal Env backed by a slice of values, for exercising
// Select without a real solver.
type fakeEnv struct {
	values []lit.Value
}

func newFakeEnv(n int) *fakeEnv {
	v := make([]lit.Value, n)
	return &fakeEnv{values: v}
}

func (e *fakeEnv) NumVars() int                    { return len(e.values) }
func (e *fakeEnv) VarValue(v lit.Var) lit.Value     { return e.values[v] }
func (e *fakeEnv) assign(v lit.Var, val lit.Value)  { e.values[v] = val }

func TestVSIDSSelectPicksHighestActivity(t *testing.T) {
	h := NewVSIDS(0.95, true)
	env := newFakeEnv(3)
	for i := 0; i < 3; i++ {
		h.NewVar(lit.Var(i), 0, lit.Free)
	}

	h.Bump(lit.Var(2), 10)
	h.Bump(lit.Var(1), 1)

	l, ok := h.Select(env)
	if !ok || l.Var() != 2 {
		t.Fatalf("Select() = %v, ok=%v, want var 2", l, ok)
	}
}

func TestVSIDSSkipsAssignedVariables(t *testing.T) {
	h := NewVSIDS(0.95, true)
	env := newFakeEnv(2)
	h.NewVar(0, 5, lit.Free)
	h.NewVar(1, 1, lit.Free)

	env.assign(0, lit.TrueVal)

	l, ok := h.Select(env)
	if !ok || l.Var() != 1 {
		t.Fatalf("Select() = %v, ok=%v, want var 1", l, ok)
	}
}

func TestVSIDSPhaseSaving(t *testing.T) {
	h := NewVSIDS(0.95, true)
	env := newFakeEnv(1)
	h.NewVar(0, 1, lit.Free)

	h.Undo(0, lit.FalseVal)

	l, ok := h.Select(env)
	if !ok || !l.Sign() {
		t.Fatalf("Select() = %v, want negative literal after FalseVal phase save", l)
	}
}

func TestVSIDSFixedPreferenceOverridesPhase(t *testing.T) {
	h := NewVSIDS(0.95, true)
	env := newFakeEnv(1)
	h.NewVar(0, 1, lit.Free)
	h.Undo(0, lit.TrueVal)
	h.SetFixedPreference(0, lit.FalseVal)

	l, ok := h.Select(env)
	if !ok || !l.Sign() {
		t.Fatalf("Select() = %v, want fixed-preference negative literal", l)
	}
}

func TestVSIDSExhausted(t *testing.T) {
	h := NewVSIDS(0.95, true)
	env := newFakeEnv(1)
	h.NewVar(0, 1, lit.Free)
	env.assign(0, lit.TrueVal)

	if _, ok := h.Select(env); ok {
		t.Error("Select() should report ok=false when every variable is assigned")
	}
}

func TestVSIDSRescale(t *testing.T) {
	h := NewVSIDS(0.95, false)
	env := newFakeEnv(1)
	h.NewVar(0, 0, lit.Free)

	h.scores[0] = rescaleThreshold * 2
	h.Bump(0, 1)

	if h.scores[0] >= rescaleThreshold {
		t.Errorf("score = %v, want rescaled below threshold", h.scores[0])
	}
	if _, ok := h.Select(env); !ok {
		t.Error("Select() should still find the rescaled variable")
	}
}

func TestBerkMinFallsBackToVSIDS(t *testing.T) {
	h := NewBerkMin(0.95, true)
	env := newFakeEnv(2)
	h.NewVar(0, 0, lit.Free)
	h.NewVar(1, 0, lit.Free)
	h.Bump(1, 5)

	l, ok := h.Select(env)
	if !ok || l.Var() != 1 {
		t.Fatalf("Select() = %v, want fallback to highest VSIDS activity var 1", l)
	}
}

func TestBerkMinPrefersRecentLearntClause(t *testing.T) {
	h := NewBerkMin(0.95, true)
	env := newFakeEnv(3)
	for i := 0; i < 3; i++ {
		h.NewVar(lit.Var(i), 0, lit.Free)
	}
	h.Bump(2, 100) // var 2 has the highest global activity

	h.ObserveLearnt([]lit.Literal{lit.Pos(0), lit.Neg(1)}, 1)

	l, ok := h.Select(env)
	if !ok {
		t.Fatal("Select() should succeed")
	}
	if l.Var() != 0 && l.Var() != 1 {
		t.Errorf("Select() = %v, want a variable from the recent learnt clause", l)
	}
}

func TestBerkMinDropsSatisfiedClauseFromStack(t *testing.T) {
	h := NewBerkMin(0.95, true)
	env := newFakeEnv(2)
	h.NewVar(0, 0, lit.Free)
	h.NewVar(1, 0, lit.Free)
	h.ObserveLearnt([]lit.Literal{lit.Pos(0), lit.Neg(1)}, 1)

	env.assign(0, lit.TrueVal)
	env.assign(1, lit.TrueVal)

	l, ok := h.Select(env)
	if ok {
		t.Errorf("Select() = %v, ok=%v, want ok=false (all variables assigned)", l, ok)
	}
}

func TestFirstFreePicksLowestIndex(t *testing.T) {
	h := NewFirstFree()
	env := newFakeEnv(3)
	for i := 0; i < 3; i++ {
		h.NewVar(lit.Var(i), 0, lit.Free)
	}
	env.assign(0, lit.TrueVal)

	l, ok := h.Select(env)
	if !ok || l.Var() != 1 {
		t.Fatalf("Select() = %v, want var 1", l)
	}
}

func TestDomainInitOverlayAppliesOnce(t *testing.T) {
	h := NewDomain(0.95, true)
	env := newFakeEnv(2)
	h.NewVar(0, 0, lit.Free)
	h.NewVar(1, 0, lit.Free)

	h.AddModification(DomainMod{Var: 0, Level: 1, Init: 50})

	h.Bump(0, 1)
	afterFirst := h.scores[0]
	h.Bump(0, 1)
	afterSecond := h.scores[0]

	if afterFirst < 50 {
		t.Errorf("first bump should include the one-shot Init overlay, got %v", afterFirst)
	}
	if afterSecond-afterFirst >= 50 {
		t.Errorf("Init overlay should only apply once, deltas were %v then %v", afterFirst, afterSecond-afterFirst)
	}
}

func TestDomainSignOverride(t *testing.T) {
	h := NewDomain(0.95, true)
	env := newFakeEnv(1)
	h.NewVar(0, 1, lit.Free)
	h.Undo(0, lit.TrueVal) // phase saving says positive

	h.AddModification(DomainMod{Var: 0, Level: 1, Sign: lit.FalseVal})

	l, ok := h.Select(env)
	if !ok || !l.Sign() {
		t.Fatalf("Select() = %v, want domain sign override to force a negative literal", l)
	}
}

func TestDomainHighestLevelModifierWins(t *testing.T) {
	h := NewDomain(0.95, true)
	env := newFakeEnv(1)
	h.NewVar(0, 1, lit.Free)

	h.AddModification(DomainMod{Var: 0, Level: 1, Sign: lit.FalseVal})
	h.AddModification(DomainMod{Var: 0, Level: 5, Sign: lit.TrueVal})

	l, ok := h.Select(env)
	if !ok || l.Sign() {
		t.Fatalf("Select() = %v, want the level-5 modifier (TrueVal) to win over level-1", l)
	}
}
