package solver

// PPStatus is the result of a single PostPropagator.PropagateFixpoint call.
type PPStatus uint8

const (
	// PPFixpoint reports the post-propagator has nothing more to do at
	// this trail position.
	PPFixpoint PPStatus = iota
	// PPProgress reports the post-propagator assigned at least one new
	// literal; the solver re-enters clausal propagation before calling
	// back into the pipeline.
	PPProgress
	// PPConflict reports the post-propagator detected a conflict; the
	// reason must already be in Solver's conflict-reason buffer (set via
	// the same s.tmpReason convention clauses use).
	PPConflict
)

// PostPropagator is spec.md §4.5's pluggable post-propagator contract:
// components that run once clausal unit propagation has drained, such as
// an ASP unfounded-set checker or a theory "check" hook. Grounded on
// spec.md's own description directly — no pack example has this
// abstraction, since the teacher is SAT-only and never needs a second
// propagation stage.
type PostPropagator interface {
	// Priority orders the pipeline; higher runs later.
	Priority() int
	// Init is called once, by AddPostPropagator, and may fail (e.g. if
	// it detects a root-level conflict while initializing).
	Init(s *Solver) error
	// PropagateFixpoint is called after clausal propagation drains. It
	// must iterate internally until either it can do no more at this
	// trail position, or a new literal was assigned (in which case it
	// returns PPProgress so the clausal propagator can drain that first;
	// the driver re-enters PropagateFixpoint afterwards).
	PropagateFixpoint(s *Solver) PPStatus
	// IsModel is called once the assignment is total, allowing a final
	// check (e.g. ASP stability). It may add clauses and force a
	// conflict by returning false.
	IsModel(s *Solver) bool
	// UndoLevel is called whenever a decision level this propagator
	// registered interest in is undone.
	UndoLevel(s *Solver, level int)
	// Simplify is offered a chance to drop root-level-satisfied state;
	// shuffle hints that clause orders may be permuted freely.
	Simplify(s *Solver, shuffle bool)
	// CancelPropagation cooperatively aborts a PropagateFixpoint call in
	// progress, clearing any partial work.
	CancelPropagation()
}

// UnitCheckPropagator is a trivial reference PostPropagator that always
// accepts the current assignment as a model. It stands in for the
// unfounded-set/minimize/theory propagators spec.md places out of scope
// (spec.md §1), exercising the pipeline machinery end to end without
// implementing any of the excluded domain logic itself.
type UnitCheckPropagator struct {
	priority int
}

func NewUnitCheckPropagator(priority int) *UnitCheckPropagator {
	return &UnitCheckPropagator{priority: priority}
}

func (p *UnitCheckPropagator) Priority() int               { return p.priority }
func (p *UnitCheckPropagator) Init(s *Solver) error         { return nil }
func (p *UnitCheckPropagator) PropagateFixpoint(s *Solver) PPStatus { return PPFixpoint }
func (p *UnitCheckPropagator) IsModel(s *Solver) bool       { return true }
func (p *UnitCheckPropagator) UndoLevel(s *Solver, level int) {}
func (p *UnitCheckPropagator) Simplify(s *Solver, shuffle bool) {}
func (p *UnitCheckPropagator) CancelPropagation() {}

var _ PostPropagator = (*UnitCheckPropagator)(nil)
