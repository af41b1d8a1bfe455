package solver

import (
	"testing"

	"github.com/clasp-go/clasp/internal/heuristic"
	"github.com/clasp-go/clasp/internal/lit"
)

func newTestSolver(n int) (*Solver, []lit.Var) {
	s := New(Options{
		Heuristic: heuristic.NewVSIDS(0.95, true),
		Restart:   NewGeometricRestart(100, 1.5),
		Reduce:    NewReducePolicy(),
	})
	vars := make([]lit.Var, n)
	for i := range vars {
		vars[i] = s.NewVar(0, lit.Free)
	}
	return s, vars
}

func TestUnitPropagationThroughClauses(t *testing.T) {
	s, v := newTestSolver(4)

	if !s.AddClause([]lit.Literal{lit.Pos(v[0]), lit.Pos(v[1]), lit.Pos(v[2]), lit.Pos(v[3])}) {
		t.Fatal("AddClause should succeed")
	}
	s.assume(lit.Neg(v[0]))
	s.assume(lit.Neg(v[1]))
	s.assume(lit.Neg(v[2]))
	if conflict := s.propagate(); conflict != nil {
		t.Fatalf("unexpected conflict: %v", conflict)
	}
	if s.assign.Value(v[3]) != lit.TrueVal {
		t.Errorf("var3 = %v, want TrueVal (forced by the 4-literal clause)", s.assign.Value(v[3]))
	}
}

func TestBinaryShortcutPropagation(t *testing.T) {
	s, v := newTestSolver(2)
	if !s.AddClause([]lit.Literal{lit.Pos(v[0]), lit.Pos(v[1])}) {
		t.Fatal("AddClause should succeed")
	}
	s.assume(lit.Neg(v[0]))
	if conflict := s.propagate(); conflict != nil {
		t.Fatalf("unexpected conflict: %v", conflict)
	}
	if s.assign.Value(v[1]) != lit.TrueVal {
		t.Errorf("var1 = %v, want TrueVal via binary shortcut", s.assign.Value(v[1]))
	}
}

func TestTernaryShortcutPropagation(t *testing.T) {
	s, v := newTestSolver(3)
	if !s.AddClause([]lit.Literal{lit.Pos(v[0]), lit.Pos(v[1]), lit.Pos(v[2])}) {
		t.Fatal("AddClause should succeed")
	}
	s.assume(lit.Neg(v[0]))
	s.assume(lit.Neg(v[1]))
	if conflict := s.propagate(); conflict != nil {
		t.Fatalf("unexpected conflict: %v", conflict)
	}
	if s.assign.Value(v[2]) != lit.TrueVal {
		t.Errorf("var2 = %v, want TrueVal via ternary shortcut", s.assign.Value(v[2]))
	}
}

func TestClauseDetectsConflict(t *testing.T) {
	s, v := newTestSolver(2)
	s.AddClause([]lit.Literal{lit.Pos(v[0]), lit.Pos(v[1])})
	s.assume(lit.Neg(v[0]))
	s.assume(lit.Neg(v[1]))
	if conflict := s.propagate(); conflict == nil {
		t.Fatal("expected a conflict from the binary clause")
	}
}

func TestSearchFindsSatisfiableModel(t *testing.T) {
	s, v := newTestSolver(2)
	s.AddClause([]lit.Literal{lit.Pos(v[0]), lit.Pos(v[1])})
	s.AddClause([]lit.Literal{lit.Neg(v[0]), lit.Neg(v[1])})

	status := s.Search()
	if status != StatusSatisfiable {
		t.Fatalf("Search() = %v, want StatusSatisfiable", status)
	}
	model := s.Model()
	if model[v[0]] == model[v[1]] {
		t.Errorf("model should satisfy exactly one of var0/var1, got %v", model)
	}
}

func TestSearchDetectsUnsat(t *testing.T) {
	s, v := newTestSolver(1)
	s.AddClause([]lit.Literal{lit.Pos(v[0])})
	s.AddClause([]lit.Literal{lit.Neg(v[0])})

	if status := s.Search(); status != StatusUnsatisfiable {
		t.Fatalf("Search() = %v, want StatusUnsatisfiable", status)
	}
}

func TestSearchLongerClauseRequiringBackjump(t *testing.T) {
	s, v := newTestSolver(4)
	// Pigeonhole-ish constraints forcing at least one conflict+backjump
	// before a model is found.
	s.AddClause([]lit.Literal{lit.Pos(v[0]), lit.Pos(v[1])})
	s.AddClause([]lit.Literal{lit.Pos(v[1]), lit.Pos(v[2])})
	s.AddClause([]lit.Literal{lit.Pos(v[2]), lit.Pos(v[3])})
	s.AddClause([]lit.Literal{lit.Neg(v[0]), lit.Neg(v[3])})

	status := s.Search()
	if status != StatusSatisfiable {
		t.Fatalf("Search() = %v, want StatusSatisfiable", status)
	}
}

func TestNumVarsReservesSentinel(t *testing.T) {
	s, _ := newTestSolver(1)
	if s.NumVars() != 2 {
		t.Fatalf("NumVars() = %d, want 2 (reserved sentinel + one client var)", s.NumVars())
	}
}
