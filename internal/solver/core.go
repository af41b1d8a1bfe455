package solver

import (
	"github.com/clasp-go/clasp/internal/asg"
	"github.com/clasp-go/clasp/internal/lit"
)

// AssumptionCore walks every antecedent reachable from conflict back to its
// root decisions and returns the subset of decision literals whose variable
// is in assumeVars — the "unsat core" spec.md §4.8 describes for start():
// "the subset of assumptions appearing in the conflict analysis". Unlike
// analyze, this does not compute a first-UIP learnt clause or a backtrack
// level; it only needs to identify which assumptions are implicated, so a
// plain reachability walk over antecedents suffices.
func (s *Solver) AssumptionCore(conflict []lit.Literal, assumeVars map[lit.Var]bool) []lit.Literal {
	seen := make(map[lit.Var]bool)
	var core []lit.Literal
	stack := append([]lit.Literal(nil), conflict...)

	for len(stack) > 0 {
		l := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		v := l.Var()
		if seen[v] {
			continue
		}
		seen[v] = true

		if s.assign.Level(v) == 0 {
			continue // root fact, not an assumption
		}

		ant := s.assign.Antecedent(v)
		if ant.Kind == asg.Decision {
			if assumeVars[v] {
				core = append(core, s.assign.Pos(v))
			}
			continue
		}
		stack = append(stack, s.assign.Reason(nil, v)...)
	}
	return core
}
