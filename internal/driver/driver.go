// Package driver implements spec.md §4.8's solving algorithm driver
// (module R): the public start/next/stop/more/interrupt shape that turns a
// bare internal/solver.Solver into a re-entrant, assumption-aware,
// enumerate-and-optimize solving loop. Grounded on clasp's
// clasp/solve_algorithms.h SolveAlgorithm/BasicSolve split: start() pushes
// assumptions and computes an unsat core on immediate conflict, next()
// resumes search and applies the enumerator/optimizer between models, and
// interrupt() is a lock-free flag forwarded straight to
// internal/solver.Solver.Interrupt.
package driver

import (
	"github.com/clasp-go/clasp/internal/context"
	"github.com/clasp-go/clasp/internal/enum"
	"github.com/clasp-go/clasp/internal/lit"
	"github.com/clasp-go/clasp/internal/solver"
)

// Result is what Start/Next report back to the caller after each step.
type Result struct {
	Status solver.Status

	// Model is the most recently found total assignment (valid only when
	// Status == solver.StatusSatisfiable), indexed by lit.Var.
	Model []bool

	// Exhausted is true once the search space is proved empty: either
	// unsatisfiable, or every model satisfying the enumeration limit (if
	// any) has already been reported.
	Exhausted bool

	// Interrupted is true when Status == solver.StatusUnknown because
	// Interrupt was called, rather than a conflict/timeout budget.
	Interrupted bool

	// Core is the unsat core computed by Start when an assumption
	// conflicts immediately: the subset of the pushed assumptions that
	// participated in the conflict (spec.md §4.8).
	Core []lit.Literal

	// ModelsFound is the running count of models committed so far in this
	// Start/Stop bracket.
	ModelsFound int
}

// Driver runs one incremental step's worth of search over ctx, applying an
// optional Finder (model blocking, spec.md §4.7 modes 1/2) and an optional
// HierarchicalMinimizer (mode 3) between models.
type Driver struct {
	ctx       *context.SharedContext
	finder    enum.Finder
	minimizer *enum.HierarchicalMinimizer
	enumLimit int // 0 = unlimited

	started      bool
	assumeVars   map[lit.Var]bool
	exhausted    bool
	interrupted  bool
	limitReached bool
	modelsFound  int
}

// New returns a Driver over ctx. finder may be nil (no blocking — a single
// Next() call either confirms sat/unsat and the caller is responsible for
// stopping), and minimizer may be nil (no optimization).
func New(ctx *context.SharedContext, finder enum.Finder, minimizer *enum.HierarchicalMinimizer, enumLimit int) *Driver {
	return &Driver{ctx: ctx, finder: finder, minimizer: minimizer, enumLimit: enumLimit}
}

// Start pushes every assumption literal as a decision and propagates,
// mirroring spec.md §4.8's start(ctx, assumptions, onModel) (the onModel
// callback itself is the caller's business: Start/Next just hand back a
// Result). If any assumption conflicts with the problem at its current
// level — including the degenerate case of an assumption already false at
// the root — Start stops immediately with StatusUnsatisfiable and a
// non-nil Core, without entering Next's search loop at all.
func (d *Driver) Start(assumptions []lit.Literal) Result {
	s := d.ctx.Solver()
	if s.DecisionLevel() != 0 {
		panic("driver: Start called while a previous step is still active")
	}

	d.ctx.Freeze()
	d.started = true
	d.exhausted = false
	d.interrupted = false
	d.limitReached = false
	d.modelsFound = 0
	s.ClearInterrupt()

	d.assumeVars = make(map[lit.Var]bool, len(assumptions))
	for _, l := range assumptions {
		d.assumeVars[l.Var()] = true
	}

	for _, l := range assumptions {
		switch s.LitValue(l) {
		case lit.FalseVal:
			// Boundary case of spec.md §8: "Assumption literal already
			// false at level 0 returns unsat,exhausted with unsat core =
			// {that literal}."
			d.exhausted = true
			return Result{Status: solver.StatusUnsatisfiable, Exhausted: true, Core: []lit.Literal{l}}
		case lit.TrueVal:
			continue // already implied; no decision needed for it
		}
		s.Assume(l)
		if conflict := s.Propagate(); conflict != nil {
			d.exhausted = true
			core := s.AssumptionCore(conflict, d.assumeVars)
			return Result{Status: solver.StatusUnsatisfiable, Exhausted: true, Core: core}
		}
	}

	return Result{Status: solver.StatusUnknown}
}

// Next resumes search until the next model, proof of unsatisfiability, or a
// stop condition. Between models it applies the Finder's blocking clause
// and the Minimizer's bound commit, per spec.md §4.7.
func (d *Driver) Next() Result {
	s := d.ctx.Solver()

	status := s.Search()
	switch status {
	case solver.StatusSatisfiable:
		d.modelsFound++
		model := append([]bool(nil), s.Model()...)

		if d.minimizer != nil {
			d.minimizer.CommitModel(s)
		}
		if d.finder != nil {
			block := d.finder.Block(s)
			if len(block) == 0 || !s.AddClause(block) {
				d.exhausted = true
			}
		}
		if d.enumLimit > 0 && d.modelsFound >= d.enumLimit {
			d.limitReached = true
		}

		return Result{
			Status:      status,
			Model:       model,
			Exhausted:   d.exhausted,
			ModelsFound: d.modelsFound,
		}

	case solver.StatusUnsatisfiable:
		d.exhausted = true
		return Result{Status: status, Exhausted: true, ModelsFound: d.modelsFound}

	default: // solver.StatusUnknown
		if s.Interrupted() {
			d.interrupted = true
			return Result{Status: status, Interrupted: true, ModelsFound: d.modelsFound}
		}
		return Result{Status: status, ModelsFound: d.modelsFound}
	}
}

// Stop undoes to level 0 and releases the frozen context, per spec.md
// §4.8's stop(): "undo to level 0, release pending commit clauses" (the
// commit clauses themselves are root-level AddClause calls already made by
// Next/the minimizer, so nothing further needs releasing beyond the undo —
// see DESIGN.md).
func (d *Driver) Stop() {
	s := d.ctx.Solver()
	s.CancelUntil(0)
	d.ctx.Unfreeze()
	d.started = false
}

// More reports whether the search space was neither exhausted nor
// interrupted nor halted by the enumeration limit, i.e. whether a further
// Next() call could plausibly find something.
func (d *Driver) More() bool {
	return d.started && !d.exhausted && !d.interrupted && !d.limitReached
}

// Interrupt asynchronously requests cancellation, forwarded directly to the
// underlying solver's lock-free flag (spec.md §5).
func (d *Driver) Interrupt() {
	d.ctx.Solver().Interrupt()
}

// ModelsFound returns the running count of models committed in the current
// Start/Stop bracket.
func (d *Driver) ModelsFound() int { return d.modelsFound }
