package solver

import (
	"time"

	"github.com/clasp-go/clasp/internal/asg"
	"github.com/clasp-go/clasp/internal/heuristic"
	"github.com/clasp-go/clasp/internal/lit"
)

// Status is the result of a bounded Search call.
type Status uint8

const (
	StatusUnknown Status = iota
	StatusSatisfiable
	StatusUnsatisfiable
)

// Search runs CDCL search until it finds a model, proves unsatisfiability,
// or a stop condition (conflict budget, timeout, or an external interrupt
// checked via shouldStop) is hit. Generalizes the teacher's Solver.Search
// (internal/sat/solver.go): decide/propagate/analyze/backjump stays the
// same shape, but restart and reduce scheduling are now pluggable
// policies instead of the teacher's fixed geometric growth.
func (s *Solver) Search() Status {
	if s.unsat {
		return StatusUnsatisfiable
	}
	if s.startTime.IsZero() {
		s.startTime = time.Now()
	}

	conflictsSinceRestart := int64(0)

	for !s.shouldStop() {
		s.Stats.Iterations++

		conflict := s.propagate()
		if conflict != nil {
			s.Stats.Conflicts++
			conflictsSinceRestart++

			if s.DecisionLevel() == 0 {
				s.unsat = true
				return StatusUnsatisfiable
			}

			learnt, backtrackLevel, lbd := s.analyze(conflict)
			s.cancelUntil(backtrackLevel)
			s.record(learnt, lbd)

			s.heur.Decay()
			if dyn, ok := s.restart.(*DynamicRestart); ok {
				dyn.Observe(lbd)
			}

			if s.restart.ShouldRestart(conflictsSinceRestart, lbd) {
				s.cancelUntil(0)
				s.restart.Reset()
				conflictsSinceRestart = 0
			}
			continue
		}

		if s.DecisionLevel() == 0 {
			s.Simplify()
		}

		if s.reduce.ShouldReduce(len(s.learnts), s.NumAssigns()) {
			s.ReduceDB()
		}

		if s.NumAssigns() == s.NumVars() {
			if !s.runIsModelChecks() {
				continue // a post-propagator forced a conflict via a new clause
			}
			s.saveModel()
			s.cancelUntil(0)
			return StatusSatisfiable
		}

		l, ok := s.heur.Select(s)
		if !ok {
			// Every variable assigned without NumAssigns matching
			// NumVars can only happen if NewVar was called mid-search;
			// treat it the same as a found model.
			s.saveModel()
			s.cancelUntil(0)
			return StatusSatisfiable
		}
		s.assume(l)
	}

	return StatusUnknown
}

func (s *Solver) runIsModelChecks() bool {
	for _, p := range s.post {
		if !p.IsModel(s) {
			return false
		}
	}
	return true
}

// record builds and installs a learnt clause from lits (lits[0] is the
// asserting first-UIP literal), enqueuing it immediately since it is unit
// at the new decision level. Generalizes the teacher's Solver.record to
// also route 1-3 literal learnt clauses through the unit/binary/ternary
// shortcuts and to stamp the new Clause's LBD.
func (s *Solver) record(lits []lit.Literal, lbd int) {
	if obs, ok := s.heur.(heuristic.ConflictObserver); ok {
		obs.ObserveLearnt(lits, 0)
	}
	switch len(lits) {
	case 1:
		s.enqueue(lits[0], asg.DecisionAntecedent)
	case 2:
		s.addBinary(lits[0], lits[1])
		s.enqueue(lits[0], asg.BinaryAntecedent(lits[1]))
	case 3:
		s.addTernary(lits[0], lits[1], lits[2])
		s.enqueue(lits[0], asg.TernaryAntecedent(lits[1], lits[2]))
	default:
		c := NewClause(s, lits, true)
		c.lbd = lbd
		c.protected = true
		s.enqueue(lits[0], asg.ConstraintAntecedent(c))
		s.learnts = append(s.learnts, c)
		s.Stats.Learnts++
	}
}

// analyze performs first-UIP conflict analysis: walking the trail backward
// from the conflict, following each falsified literal's antecedent,
// counting how many literals assigned at the current decision level
// remain "open" until exactly one does (the first unique implication
// point). Kept nearly verbatim from the teacher's Solver.analyze
// (internal/sat/solver.go) but generalized to ask asg.Assignment for
// antecedents instead of inlined solver arrays, and extended with LBD
// computation and self-subsuming minimization (spec.md §4.3 step 5).
//
// Returns the learnt clause (first-UIP literal first), the backtrack
// level, and the clause's LBD.
func (s *Solver) analyze(conflict []lit.Literal) ([]lit.Literal, int, int) {
	s.tmpLearnts = s.tmpLearnts[:1] // slot 0 reserved for the FUIP
	s.seen.Clear()

	pending := 0
	backtrackLevel := 0
	nextTrailIdx := s.NumAssigns() - 1
	reasonLits := conflict

	var uip lit.Literal

	for {
		for _, q := range reasonLits {
			v := q.Var()
			if s.seen.Contains(int(v)) {
				continue
			}
			s.seen.Add(int(v))
			s.heur.Bump(v, 1)

			if s.assign.Level(v) == s.DecisionLevel() {
				pending++
				continue
			}
			s.tmpLearnts = append(s.tmpLearnts, q.Complement())
			if lvl := s.assign.Level(v); lvl > backtrackLevel {
				backtrackLevel = lvl
			}
		}

		// Walk back to the next seen literal on the trail.
		var v lit.Var
		for {
			uip = s.assign.TrailAt(nextTrailIdx)
			nextTrailIdx--
			v = uip.Var()
			if s.seen.Contains(int(v)) {
				break
			}
		}

		pending--
		if pending <= 0 {
			break
		}
		reasonLits = s.assign.Reason(s.tmpReason[:0], v)
	}

	s.tmpLearnts[0] = uip.Complement()

	learnt := s.minimize(s.tmpLearnts)
	// NewClause watches learnt[1], so it must hold the literal assigned at
	// the highest level among learnt[1:] (the backtrack level).
	for i := 2; i < len(learnt); i++ {
		if s.assign.Level(learnt[i].Var()) > s.assign.Level(learnt[1].Var()) {
			learnt[1], learnt[i] = learnt[i], learnt[1]
		}
	}
	lbd := s.computeLBD(learnt)
	return learnt, backtrackLevel, lbd
}

// computeLBD counts the number of distinct decision levels represented in
// the learnt clause, the literal-block-distance metric spec.md §4.3 asks
// for and clasp uses throughout its reduce/restart heuristics. It uses a
// small local set rather than s.seen, which still holds the
// variable-membership marks analyze's minimization pass depends on.
func (s *Solver) computeLBD(lits []lit.Literal) int {
	seenLevels := make(map[int]struct{}, len(lits))
	for _, l := range lits {
		lvl := s.assign.Level(l.Var())
		if lvl == 0 {
			continue
		}
		seenLevels[lvl] = struct{}{}
	}
	return len(seenLevels)
}

// minimize applies recursive self-subsuming minimization: a non-FUIP
// literal is dropped from the learnt clause if every literal in its
// antecedent is itself already in the clause (seen), since the dropped
// literal is then implied by the rest of the clause. Grounded on spec.md
// §4.3 step 5's description directly; no pack example implements clause
// minimization.
func (s *Solver) minimize(lits []lit.Literal) []lit.Literal {
	out := lits[:1]
	for _, l := range lits[1:] {
		if !s.isRedundant(l) {
			out = append(out, l)
		}
	}
	return out
}

// isRedundant reports whether l's variable's antecedent is fully
// subsumed by the set of variables already marked seen (i.e. every
// literal implying l's assignment is itself part of the learnt clause, a
// root-level fact, or itself already proven redundant).
func (s *Solver) isRedundant(l lit.Literal) bool {
	v := l.Var()
	ant := s.assign.Antecedent(v)
	if ant.Kind == asg.Decision {
		return false
	}

	stack := []lit.Var{v}
	// Variables reached here are marked seen only once l is proven
	// redundant, so a failed check leaves no marks behind.
	visited := map[lit.Var]bool{}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		curAnt := s.assign.Antecedent(cur)
		if curAnt.Kind == asg.Decision {
			return false
		}
		reason := s.assign.Reason(nil, cur)
		for _, r := range reason {
			rv := r.Var()
			if rv == l.Var() || s.seen.Contains(int(rv)) || visited[rv] {
				continue
			}
			if s.assign.Level(rv) == 0 {
				continue
			}
			rAnt := s.assign.Antecedent(rv)
			if rAnt.Kind == asg.Decision {
				return false
			}
			stack = append(stack, rv)
			visited[rv] = true
		}
	}
	for rv := range visited {
		s.seen.Add(int(rv))
	}
	return true
}
