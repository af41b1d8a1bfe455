package solver

// RestartPolicy decides, after each conflict, whether the search should
// restart (undo to decision level 0 and start choosing fresh decisions).
// Grounded on clasp's ScheduleStrategy (libclasp/src/solver_strategies.cpp),
// generalizing the teacher's fixed "numConflicts += numConflicts/10"
// geometric bump (internal/sat/solver.go Solve) into a pluggable interface
// covering geometric, arithmetic, Luby and EMA-based block restarts.
type RestartPolicy interface {
	// ShouldRestart is consulted once per conflict and reports whether a
	// restart should happen now.
	ShouldRestart(conflictsSinceRestart int64, lbd int) bool
	// Reset is called right after a restart to prepare the next one.
	Reset()
}

// GeometricRestart restarts every base * factor^k conflicts, growing the
// interval geometrically after each restart. This generalizes the
// teacher's inline numConflicts growth into a standalone, reusable policy.
type GeometricRestart struct {
	base    int64
	factor  float64
	next    int64
}

func NewGeometricRestart(base int64, factor float64) *GeometricRestart {
	r := &GeometricRestart{base: base, factor: factor}
	r.next = base
	return r
}

func (r *GeometricRestart) ShouldRestart(conflictsSinceRestart int64, lbd int) bool {
	return conflictsSinceRestart >= r.next
}

func (r *GeometricRestart) Reset() {
	r.next = int64(float64(r.next) * r.factor)
	if r.next < r.base {
		r.next = r.base
	}
}

// ArithmeticRestart restarts every base + k*increment conflicts.
type ArithmeticRestart struct {
	base, increment, next int64
}

func NewArithmeticRestart(base, increment int64) *ArithmeticRestart {
	return &ArithmeticRestart{base: base, increment: increment, next: base}
}

func (r *ArithmeticRestart) ShouldRestart(conflictsSinceRestart int64, lbd int) bool {
	return conflictsSinceRestart >= r.next
}

func (r *ArithmeticRestart) Reset() {
	r.next += r.increment
}

// LubyRestart restarts on the classic Luby sequence scaled by unit,
// grounded on clasp's ScheduleStrategy::luby.
type LubyRestart struct {
	unit int64
	k    int
}

func NewLubyRestart(unit int64) *LubyRestart {
	return &LubyRestart{unit: unit, k: 1}
}

func (r *LubyRestart) ShouldRestart(conflictsSinceRestart int64, lbd int) bool {
	return conflictsSinceRestart >= r.unit*luby(r.k)
}

func (r *LubyRestart) Reset() {
	r.k++
}

// luby returns the k-th term (1-indexed) of the Luby sequence
// 1,1,2,1,1,2,4,1,1,2,1,1,2,4,8,...
func luby(k int) int64 {
	k-- // the search below works on the 0-indexed position
	// Find the sequence of the form 2^n - 1 that k falls in.
	size, seq := int64(1), 0
	for size < int64(k)+1 {
		seq++
		size = 2*size + 1
	}
	for size-1 != int64(k) {
		size = (size - 1) / 2
		seq--
		k = k % int(size)
	}
	return 1 << uint(seq)
}

// DynamicRestart implements clasp's glucose-style block restart: it tracks
// a short-window EMA of learnt-clause LBD and a long-window global average,
// and signals a restart whenever the short-term average spikes above the
// long-term one by the given margin, meaning recent conflicts are
// "harder" than the historical norm. Grounded on
// libclasp/src/solver_strategies.cpp's SumQueue/dynamic restart scheme,
// reusing the teacher's sat.EMA for both windows.
type DynamicRestart struct {
	shortTerm EMA
	longTerm  EMA
	margin    float64
	minConflicts int64
}

// EMA is an exponential moving average, lifted from the teacher's
// sat.EMA (sat/avg.go) so internal/solver doesn't need to depend on the
// sat package for one small helper.
type EMA struct {
	decay float64
	value float64
	init  bool
}

func NewEMA(decay float64) EMA { return EMA{decay: decay} }

func (e *EMA) Add(x float64) {
	if !e.init {
		e.init = true
		e.value = x
		return
	}
	e.value = e.decay*e.value + x*(1-e.decay)
}

func (e *EMA) Val() float64 { return e.value }

func NewDynamicRestart(margin float64, minConflicts int64) *DynamicRestart {
	return &DynamicRestart{
		shortTerm:    NewEMA(0.75),
		longTerm:     NewEMA(0.999),
		margin:       margin,
		minConflicts: minConflicts,
	}
}

// Observe feeds a freshly learnt clause's LBD into both averages; the
// search loop calls this once per conflict before consulting
// ShouldRestart.
func (r *DynamicRestart) Observe(lbd int) {
	r.shortTerm.Add(float64(lbd))
	r.longTerm.Add(float64(lbd))
}

func (r *DynamicRestart) ShouldRestart(conflictsSinceRestart int64, lbd int) bool {
	if conflictsSinceRestart < r.minConflicts {
		return false
	}
	return r.shortTerm.Val() > r.longTerm.Val()*r.margin
}

func (r *DynamicRestart) Reset() {
	r.shortTerm = NewEMA(0.75)
}
