// Package solver implements the CDCL search engine (spec component S), its
// constraint database (clauses and weight constraints, component C/W) and
// post-propagator pipeline (component P). It is the generalization of the
// teacher's (rhartert/yass) internal/sat package: the trail and heuristic
// have been pulled out into internal/asg and internal/heuristic so this
// package can depend on them through narrow interfaces instead of owning
// every concern inline.
package solver

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/clasp-go/clasp/internal/asg"
	"github.com/clasp-go/clasp/internal/heuristic"
	"github.com/clasp-go/clasp/internal/lit"
)

// Options configures a Solver. Grounded on the teacher's Options/
// DefaultOptions (internal/sat/solver.go), extended with the restart/reduce
// policies and post-propagators spec.md §4.3/§4.5 add on top.
type Options struct {
	Heuristic    heuristic.Heuristic
	Restart      RestartPolicy
	Reduce       ReducePolicy
	MaxConflicts int64
	Timeout      time.Duration
}

// DefaultOptions mirrors the teacher's conservative defaults.
func DefaultOptions() Options {
	return Options{
		Heuristic:    heuristic.NewVSIDS(0.95, true),
		Restart:      NewGeometricRestart(100, 1.5),
		Reduce:       NewReducePolicy(),
		MaxConflicts: -1,
		Timeout:      -1,
	}
}

// Solver is the CDCL search engine: assignment trail, constraint database,
// watch lists, decision heuristic and the search loop tying them together.
type Solver struct {
	assign *asg.Assignment
	heur   heuristic.Heuristic

	watchers [][]watcher
	propQ    *Queue[lit.Literal]

	constraints []*Clause // root-level (non-learnt) clauses, for Simplify
	learnts     []*Clause

	clauseInc   float64
	clauseDecay float64

	seen resetSet

	post []PostPropagator

	restart RestartPolicy
	reduce  ReducePolicy

	unsat bool

	hasStopCond  bool
	maxConflicts int64
	timeout      time.Duration
	startTime    time.Time

	// interrupted is the lock-free cancellation flag of spec.md §5:
	// Interrupt sets it asynchronously; shouldStop polls it at the same
	// per-iteration safe point it checks the conflict/timeout budget at,
	// which covers the conflict-analysis, restart and reduce call sites
	// since all three are reached only through the top of this loop.
	interrupted atomic.Bool

	Stats Statistics

	tmpReason   []lit.Literal
	tmpLearnts  []lit.Literal
	tmpWatchers []watcher

	// model holds the most recently found total assignment, as plain
	// booleans indexed by variable id (spec.md's enumerator reads this).
	model []bool
}

// Statistics is the pull-aggregated counters exposed to internal/context,
// generalizing the teacher's inline TotalConflicts/TotalRestarts/
// TotalIterations fields into a reusable struct.
type Statistics struct {
	Conflicts   int64
	Restarts    int64
	Iterations  int64
	Propagations int64
	Learnts     int64
	Decisions   int64
}

// New returns an empty solver (no variables) configured with ops.
func New(ops Options) *Solver {
	s := &Solver{
		assign:      asg.New(),
		heur:        ops.Heuristic,
		propQ:       NewQueue[lit.Literal](128),
		clauseInc:   1,
		clauseDecay: 0.999,
		restart:     ops.Restart,
		reduce:      ops.Reduce,
	}
	if ops.MaxConflicts >= 0 {
		s.hasStopCond = true
		s.maxConflicts = ops.MaxConflicts
	}
	if ops.Timeout >= 0 {
		s.hasStopCond = true
		s.timeout = ops.Timeout
	}
	s.assign.AddUndoListener(undoListenerFunc(s.undoLevel))

	// Variable 0 is reserved as lit.SentinelVar (the always-true root
	// variable): consume it here so every client-allocated variable from
	// NewVar starts at 1, matching lit.go's "allocated implicitly and
	// never appears in client-visible clauses" contract.
	s.watchers = append(s.watchers, nil, nil)
	s.seen.Grow()
	v := s.assign.Grow()
	s.heur.NewVar(v, 0, lit.Free)
	s.enqueue(lit.Pos(v), asg.DecisionAntecedent)

	return s
}

// undoListenerFunc adapts a plain function to asg.UndoListener.
type undoListenerFunc func(level int)

func (f undoListenerFunc) UndoLevel(level int) { f(level) }

// undoLevel notifies the decision heuristic and post-propagators whenever
// UndoUntil pops a level, restoring phase-saving state and letting
// constraints unwind their own per-level bookkeeping (spec.md §4.2/§4.5).
func (s *Solver) undoLevel(level int) {
	begin, end := s.assign.TrailBegin(level), s.assign.TrailEnd(level)
	for i := end - 1; i >= begin; i-- {
		v := s.assign.TrailAt(i).Var()
		s.heur.Undo(v, s.assign.Value(v))
	}
	for _, p := range s.post {
		p.UndoLevel(s, level)
	}
}

// NewVar allocates a fresh variable and registers it with every dependent
// subsystem (trail, heuristic, watch lists), generalizing the teacher's
// Solver.AddVariable.
func (s *Solver) NewVar(initScore float64, initPhase lit.Value) lit.Var {
	v := s.assign.Grow()
	s.watchers = append(s.watchers, nil, nil)
	s.seen.Grow()
	s.heur.NewVar(v, initScore, initPhase)
	return v
}

func (s *Solver) NumVars() int       { return s.assign.NumVars() }
func (s *Solver) NumAssigns() int    { return s.assign.TrailLen() }
func (s *Solver) NumConstraints() int { return len(s.constraints) }
func (s *Solver) NumLearnts() int    { return len(s.learnts) }
func (s *Solver) DecisionLevel() int { return s.assign.DecisionLevel() }

// VarValue implements heuristic.Env.
func (s *Solver) VarValue(v lit.Var) lit.Value { return s.assign.Value(v) }

// LitValue returns the current truth value of l.
func (s *Solver) LitValue(l lit.Literal) lit.Value { return s.assign.LitValue(l) }

// AddPostPropagator registers p, keeping the slice sorted by ascending
// priority as spec.md §4.5 requires ("higher runs later").
func (s *Solver) AddPostPropagator(p PostPropagator) {
	i := len(s.post)
	for i > 0 && s.post[i-1].Priority() > p.Priority() {
		i--
	}
	s.post = append(s.post, nil)
	copy(s.post[i+1:], s.post[i:])
	s.post[i] = p
	if err := p.Init(s); err != nil {
		s.unsat = true
	}
}

func watchIndex(l lit.Literal) int { return int(l.ID()) }

func (s *Solver) watch(c propagator, watch, guard lit.Literal) {
	i := watchIndex(watch)
	s.watchers[i] = append(s.watchers[i], watcher{con: c, guard: guard})
}

func (s *Solver) unwatch(c propagator, watch lit.Literal) {
	i := watchIndex(watch)
	list := s.watchers[i]
	j := 0
	for k := 0; k < len(list); k++ {
		if list[k].con != c {
			list[j] = list[k]
			j++
		}
	}
	s.watchers[i] = list[:j]
}

// enqueue records l as a new fact with antecedent ant, pushing it onto the
// propagation queue. Returns false on conflict (mirrors asg.Assign).
func (s *Solver) enqueue(l lit.Literal, ant asg.Antecedent) bool {
	if !s.assign.Assign(l, ant) {
		return false
	}
	s.propQ.Push(l)
	return true
}

// AddClause adds a root-level clause. Unit clauses are enqueued directly;
// 2- and 3-literal clauses use the binary/ternary antecedent shortcut;
// longer clauses allocate a *Clause. Returns false if the clause is
// trivially or immediately unsatisfiable, in which case the solver is
// marked unsat. Grounded on the teacher's Solver.AddClause + NewClause's
// root-level simplification (internal/sat/clauses.go).
func (s *Solver) AddClause(lits []lit.Literal) bool {
	if s.DecisionLevel() != 0 {
		panic("solver: AddClause called above the root level")
	}

	seen := make(map[lit.Literal]struct{}, len(lits))
	kept := lits[:0]
	for _, l := range lits {
		if _, dup := seen[l.Complement()]; dup {
			return true // tautology, trivially satisfied
		}
		if _, dup := seen[l]; dup {
			continue
		}
		switch s.assign.LitValue(l) {
		case lit.TrueVal:
			return true // satisfied at the root
		case lit.FalseVal:
			continue // drop root-false literal
		}
		seen[l] = struct{}{}
		kept = append(kept, l)
	}

	switch len(kept) {
	case 0:
		s.unsat = true
		return false
	case 1:
		if !s.enqueue(kept[0], asg.DecisionAntecedent) {
			s.unsat = true
			return false
		}
	case 2:
		s.addBinary(kept[0], kept[1])
	case 3:
		s.addTernary(kept[0], kept[1], kept[2])
	default:
		c := NewClause(s, kept, false)
		s.constraints = append(s.constraints, c)
	}
	return true
}

// addBinary and addTernary install the implicit clause shortcuts of
// spec.md §4.2: rather than allocating a Clause, each literal is given a
// direct Binary/Ternary antecedent that is only materialized into a reason
// clause lazily, by asg.Assignment.Reason, when conflict analysis actually
// needs it.
//
// Because these shortcuts aren't watched via the general watcher list, they
// are instead checked eagerly whenever either literal is falsified: both
// orientations are pushed as pseudo-constraints onto per-literal watch
// lists using the same watcher machinery, with a propagator shim
// (binaryWatch/ternaryWatch) that enqueues the other literal(s) directly.
func (s *Solver) addBinary(a, b lit.Literal) {
	s.watch(binaryWatch{other: b}, a.Complement(), b)
	s.watch(binaryWatch{other: a}, b.Complement(), a)
}

// noGuard is used where a watcher has no useful cached blocker: lit.False
// is permanently false (its variable, the sentinel, is fixed true at the
// root), so the guard check in propagateClausal never short-circuits it.
var noGuard = lit.False()

func (s *Solver) addTernary(a, b, c lit.Literal) {
	s.watch(ternaryWatch{o1: b, o2: c}, a.Complement(), noGuard)
	s.watch(ternaryWatch{o1: a, o2: c}, b.Complement(), noGuard)
	s.watch(ternaryWatch{o1: a, o2: b}, c.Complement(), noGuard)
}

// propagate drains the propagation queue over the clausal constraint
// database, then (once it's empty) runs the post-propagator pipeline to a
// combined fixpoint, per spec.md §4.5's driver loop. Returns the
// conflicting constraint's reason, or nil if a fixpoint with no conflict
// was reached.
func (s *Solver) propagate() []lit.Literal {
	for {
		if conflict := s.propagateClausal(); conflict != nil {
			return conflict
		}
		progressed, conflict := s.runPostPropagators()
		if conflict != nil {
			return conflict
		}
		if !progressed {
			return nil
		}
	}
}

func (s *Solver) propagateClausal() []lit.Literal {
	for s.propQ.Size() > 0 {
		l := s.propQ.Pop()
		s.Stats.Propagations++
		idx := watchIndex(l)

		s.tmpWatchers = s.tmpWatchers[:0]
		s.tmpWatchers = append(s.tmpWatchers, s.watchers[idx]...)
		s.watchers[idx] = s.watchers[idx][:0]

		for i, w := range s.tmpWatchers {
			if s.assign.LitValue(w.guard) == lit.TrueVal {
				s.watchers[idx] = append(s.watchers[idx], w)
				continue
			}
			if w.con.propagate(s, l) {
				continue
			}
			// Conflict: keep remaining watchers, stop draining, and
			// report the reason the propagator stashed in s.tmpReason.
			s.watchers[idx] = append(s.watchers[idx], s.tmpWatchers[i+1:]...)
			s.propQ.Clear()
			reason := append([]lit.Literal(nil), s.tmpReason...)
			return reason
		}
	}
	return nil
}

func (s *Solver) runPostPropagators() (progressed bool, conflict []lit.Literal) {
	for _, p := range s.post {
		for {
			status := p.PropagateFixpoint(s)
			switch status {
			case PPConflict:
				return false, s.tmpReason
			case PPProgress:
				progressed = true
				if s.propQ.Size() > 0 {
					return true, nil // let clausal propagation drain first
				}
				continue
			default: // PPFixpoint
			}
			break
		}
	}
	return progressed, nil
}

// Simplify removes root-level-satisfied clauses, called whenever the
// search returns to decision level 0. Grounded on the teacher's
// Solver.Simplify.
func (s *Solver) Simplify() bool {
	if s.DecisionLevel() != 0 {
		panic("solver: Simplify called above the root level")
	}
	if conflict := s.propagate(); conflict != nil {
		s.unsat = true
		return false
	}
	s.simplifyClauses(&s.learnts)
	s.simplifyClauses(&s.constraints)
	for _, p := range s.post {
		p.Simplify(s, false)
	}
	return true
}

func (s *Solver) simplifyClauses(clauses *[]*Clause) {
	list := *clauses
	j := 0
	for i := range list {
		if list[i].simplify(s) {
			list[i].remove(s)
		} else {
			list[j] = list[i]
			j++
		}
	}
	*clauses = list[:j]
}

func (s *Solver) shouldStop() bool {
	if s.interrupted.Load() {
		return true
	}
	if !s.hasStopCond {
		return false
	}
	if s.maxConflicts >= 0 && s.Stats.Conflicts >= s.maxConflicts {
		return true
	}
	if s.timeout >= 0 && time.Since(s.startTime) >= s.timeout {
		return true
	}
	return false
}

// Interrupt asynchronously requests that Search return StatusUnknown at its
// next safe point (spec.md §4.8/§5). Safe to call from any goroutine.
func (s *Solver) Interrupt() { s.interrupted.Store(true) }

// ClearInterrupt resets the interrupt flag, allowing a subsequent Search
// call to run to completion again; called by the driver after it has
// observed and reported an interrupted Search.
func (s *Solver) ClearInterrupt() { s.interrupted.Store(false) }

// Interrupted reports whether Interrupt was called and not yet cleared.
func (s *Solver) Interrupted() bool { return s.interrupted.Load() }

func (s *Solver) cancelUntil(level int) {
	s.assign.UndoUntil(level, true)
}

func (s *Solver) assume(l lit.Literal) bool {
	s.assign.Decide(l)
	s.propQ.Push(l)
	s.Stats.Decisions++
	return true
}

// Assume pushes l as a new decision (spec.md §4.8's start(): "push all
// assumptions as decisions"), for the driver to call once per assumption
// literal before propagating. Exported so internal/driver can drive
// assumptions without owning the solver's internals.
func (s *Solver) Assume(l lit.Literal) bool { return s.assume(l) }

// Propagate drains the propagation queue and post-propagator pipeline,
// returning the conflicting reason clause or nil. Exported for
// internal/driver's assumption handling in Start, which must propagate
// after each pushed assumption outside of the Search loop.
func (s *Solver) Propagate() []lit.Literal { return s.propagate() }

// CancelUntil unwinds the trail back to level, exported for
// internal/driver's Stop/Start bookkeeping.
func (s *Solver) CancelUntil(level int) { s.cancelUntil(level) }

// Unsat reports whether the solver has proved the problem unsatisfiable at
// the root, set by AddClause or Search hitting a root-level conflict.
func (s *Solver) Unsat() bool { return s.unsat }

// Model returns the most recently found total assignment.
func (s *Solver) Model() []bool { return s.model }

func (s *Solver) saveModel() {
	model := make([]bool, s.NumVars())
	for v := range model {
		val := s.assign.Value(lit.Var(v))
		if val == lit.Free {
			panic("solver: saveModel called on a partial assignment")
		}
		model[v] = val == lit.TrueVal
	}
	s.model = model
}

func (s *Solver) String() string {
	return fmt.Sprintf("Solver[vars=%d constraints=%d learnts=%d]", s.NumVars(), s.NumConstraints(), s.NumLearnts())
}
