// Package context implements spec.md §4.8's shared context (module X): the
// problem's variable pool, its immutable top-level constraint list, the
// output/projection atom sets, a pull-aggregated statistics sink, and the
// step-literal bookkeeping incremental solving needs.
//
// Grounded on the "SharedContext owns what several solvers in a portfolio
// all read" idea spec.md §5 describes; no pack example ships a shared,
// read-only problem-state type separate from its solver, since the teacher
// is a single-shot, single-solver program. This package is new, composed
// directly out of internal/solver and internal/lit rather than adapted
// from a specific teacher file.
package context

import (
	"fmt"

	"github.com/clasp-go/clasp/internal/lit"
	"github.com/clasp-go/clasp/internal/solver"
)

// OutputAtom names a projected atom and the condition (conjunction,
// represented as the literals that must all hold) under which it is true,
// per the ASPIF Output directive (spec.md §6.1).
type OutputAtom struct {
	Name      string
	Condition []lit.Literal
}

// SharedContext owns the state that is immutable once search begins and
// would otherwise need to be threaded through every solver in a portfolio:
// the variable pool (via its one Solver, in this single-solver-per-process
// build), the top-level constraint list, output/projection bookkeeping and
// pull-based statistics. Per spec.md §5, mutation is only permitted while
// the context is unfrozen — i.e. after a driver's stop() (Unfreeze) and
// before the next start() (Freeze) — never while a solver is mid-search.
type SharedContext struct {
	solver *solver.Solver

	outputs    []OutputAtom
	projection []lit.Var

	frozen bool

	stepLit  lit.Literal
	hasStep  bool
	stepSeq  int
}

// New wraps s, which must not yet have started search.
func New(s *solver.Solver) *SharedContext {
	return &SharedContext{solver: s}
}

// Solver returns the underlying solver for the driver to run search on.
func (c *SharedContext) Solver() *solver.Solver { return c.solver }

// Freeze forbids further extension (NewVar/AddClause/AddOutput/...),
// called by the driver before entering Search. Unfreeze is called once
// the driver has stopped, allowing the next incremental step to extend the
// problem.
func (c *SharedContext) Freeze()   { c.frozen = true }
func (c *SharedContext) Unfreeze() { c.frozen = false }

func (c *SharedContext) requireUnfrozen(op string) {
	if c.frozen {
		panic(fmt.Sprintf("context: %s called while frozen (search in progress)", op))
	}
}

// NewVar allocates a fresh problem variable.
func (c *SharedContext) NewVar() lit.Var {
	c.requireUnfrozen("NewVar")
	return c.solver.NewVar(0, lit.Free)
}

// AddClause installs a root-level clause into the shared, read-only
// constraint database.
func (c *SharedContext) AddClause(lits []lit.Literal) bool {
	c.requireUnfrozen("AddClause")
	return c.solver.AddClause(lits)
}

// AddWeightConstraint installs a root-level weight/cardinality constraint.
func (c *SharedContext) AddWeightConstraint(w lit.Literal, lits []lit.WeightLiteral, bound lit.Weight) {
	c.requireUnfrozen("AddWeightConstraint")
	solver.NewWeightConstraint(c.solver, w, lits, bound)
}

// AddOutput records an Output directive (ASPIF tag 4): name is true under
// condition.
func (c *SharedContext) AddOutput(name string, condition []lit.Literal) {
	c.requireUnfrozen("AddOutput")
	c.outputs = append(c.outputs, OutputAtom{Name: name, Condition: append([]lit.Literal(nil), condition...)})
}

// Outputs returns every registered output atom.
func (c *SharedContext) Outputs() []OutputAtom { return c.outputs }

// SetProjection records the Project directive's atom set (ASPIF tag 3).
// The CLI uses it as the variable set of its enum.RecordFinder's blocking
// clauses; model printing does not filter by it.
func (c *SharedContext) SetProjection(vars []lit.Var) {
	c.requireUnfrozen("SetProjection")
	c.projection = append([]lit.Var(nil), vars...)
}

// Projection returns the projection variable set, or nil if none was set.
func (c *SharedContext) Projection() []lit.Var { return c.projection }

// NewStep allocates a fresh step literal and unit-assumes it true for the
// duration of the upcoming incremental step, per spec.md §4.8: rules
// introduced for this step should carry stepLit.Complement() as an extra
// disjunct in their clauses so that EndStep's single unit clause
// invalidates all of them at once, without a sweep over the constraint
// database.
func (c *SharedContext) NewStep() lit.Literal {
	c.requireUnfrozen("NewStep")
	v := c.solver.NewVar(0, lit.Free)
	c.solver.AddClause([]lit.Literal{lit.Pos(v)}) // unit-assumed true for the step
	c.stepLit = lit.Pos(v)
	c.hasStep = true
	c.stepSeq++
	return c.stepLit
}

// StepLiteral returns the literal of the current incremental step, valid
// until the next EndStep.
func (c *SharedContext) StepLiteral() (lit.Literal, bool) { return c.stepLit, c.hasStep }

// EndStep releases the current step literal by asserting it false at the
// root: every clause that carried stepLit.Complement() as a disjunct is
// instantly satisfied and effectively dead, without walking the
// constraint database to find and delete them (spec.md §4.8).
func (c *SharedContext) EndStep() {
	if !c.hasStep {
		return
	}
	c.solver.AddClause([]lit.Literal{c.stepLit.Complement()})
	c.hasStep = false
}

// Stats returns a pull-aggregated snapshot of the underlying solver's
// counters (spec.md §5: "aggregation is pull-based between steps").
func (c *SharedContext) Stats() solver.Statistics { return c.solver.Stats }
