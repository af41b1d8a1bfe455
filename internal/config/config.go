// Package config assembles the CLI-visible option surface of spec.md §6.2
// (the subset relevant to the solver core: configuration presets, seed,
// model/opt-mode, restart and reduce specs, heuristic choice, time limit,
// parallel mode) into the solver.Options/heuristic.Heuristic values the
// engine actually runs with.
//
// Mirrors the teacher's Options/DefaultOptions pattern (internal/sat's
// Solver construction in rhartert/yass): a flat struct with a package-level
// DefaultOptions value, validated and normalized by a Prepare method, the
// way clasp's SolverStrategies::prepare()/SolveParams::prepare() normalize
// incompatible combinations (libclasp/src/solver_strategies.cpp).
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/clasp-go/clasp/internal/heuristic"
	"github.com/clasp-go/clasp/internal/solver"
)

// OptMode is the --opt-mode flag of spec.md §6.2.
type OptMode uint8

const (
	OptIgnore OptMode = iota
	OptOptimize
	OptEnumerate
	OptEnumOpt
)

func (m OptMode) String() string {
	switch m {
	case OptOptimize:
		return "optimize"
	case OptEnumerate:
		return "enumerate"
	case OptEnumOpt:
		return "enum-opt"
	default:
		return "ignore"
	}
}

// ParseOptMode parses the --opt-mode flag value.
func ParseOptMode(s string) (OptMode, error) {
	switch s {
	case "", "ignore":
		return OptIgnore, nil
	case "optimize":
		return OptOptimize, nil
	case "enumerate":
		return OptEnumerate, nil
	case "enum-opt":
		return OptEnumOpt, nil
	default:
		return OptIgnore, fmt.Errorf("config: unknown opt-mode %q", s)
	}
}

// Options is the flat configuration struct a driver/solver run is built
// from, mirroring the CLI flags of spec.md §6.2 that bear on the core
// (everything else — help, version, the full option-grammar — stays out of
// scope per spec.md §1).
type Options struct {
	Configuration string // preset bundle name; stored but not interpreted
	Seed          uint32
	Models        int // 0 = all
	OptModeFlag   OptMode
	Restarts      string // e.g. "x,100,1.5", "+,100,10", "L,100,1", "D,100,1,0.7", "no"
	Deletion      string // "<strategy>,<frac>,<lbd-protect>"
	DelInitPct    float64
	DelMax        int
	HeuristicName string // "vsids" | "berkmin" | "domain" | "none"
	ScoreDecay    float64
	TimeLimit     time.Duration
	ParallelN     int
	ParallelSplit bool
}

// DefaultOptions mirrors the teacher's conservative defaults, extended with
// spec.md §6.2's additional knobs.
func DefaultOptions() Options {
	return Options{
		Models:        1,
		OptModeFlag:   OptIgnore,
		Restarts:      "x,100,1.5",
		Deletion:      "lbd,0.5,2",
		DelInitPct:    1.0 / 3.0,
		DelMax:        -1,
		HeuristicName: "vsids",
		ScoreDecay:    0.95,
		TimeLimit:     -1,
		ParallelN:     1,
	}
}

// Prepare validates and normalizes o in place, the way clasp's
// SolverStrategies::prepare() resolves incompatible combinations, returning
// a descriptive UsageError (spec.md §7) on anything it cannot reconcile.
func (o *Options) Prepare() error {
	if o.Models < 0 {
		return fmt.Errorf("config: models must be >= 0, got %d", o.Models)
	}
	if o.ScoreDecay <= 0 || o.ScoreDecay >= 1 {
		return fmt.Errorf("config: score-res decay must be in (0,1), got %f", o.ScoreDecay)
	}
	if o.ParallelN <= 0 {
		o.ParallelN = 1
	}
	if o.DelInitPct < 0 || o.DelInitPct > 1 {
		return fmt.Errorf("config: del-init must be a percentage in [0,1], got %f", o.DelInitPct)
	}
	// supp-models yes -> no is documented in spec.md §9 as an open policy
	// question; we resolve it without an error: enum-opt together with
	// models=1 is normalized to models=0 (see DESIGN.md).
	if o.OptModeFlag == OptEnumOpt && o.Models == 1 {
		o.Models = 0 // enum-opt implies "every optimum", like clasp does
	}
	return nil
}

// BuildSolverOptions lowers o into a solver.Options ready to hand to
// solver.New, resolving the restart/reduce specs and heuristic name.
func (o Options) BuildSolverOptions() (solver.Options, error) {
	restart, err := ParseRestartSpec(o.Restarts)
	if err != nil {
		return solver.Options{}, err
	}
	reduce, err := ParseReduceSpec(o.Deletion)
	if err != nil {
		return solver.Options{}, err
	}
	h, err := NewHeuristic(o.HeuristicName, o.ScoreDecay)
	if err != nil {
		return solver.Options{}, err
	}

	ops := solver.DefaultOptions()
	ops.Heuristic = h
	ops.Restart = restart
	ops.Reduce = reduce
	ops.MaxConflicts = -1
	ops.Timeout = o.TimeLimit
	return ops, nil
}

// NewHeuristic dispatches on name, grounded on clasp's Heuristic_t::create
// (libclasp/src/solver_strategies.cpp).
func NewHeuristic(name string, decay float64) (heuristic.Heuristic, error) {
	switch name {
	case "", "vsids":
		return heuristic.NewVSIDS(decay, true), nil
	case "berkmin":
		return heuristic.NewBerkMin(decay, true), nil
	case "domain":
		return heuristic.NewDomain(decay, true), nil
	case "none":
		return heuristic.NewFirstFree(), nil
	default:
		return nil, fmt.Errorf("config: unknown heuristic %q", name)
	}
}

// ParseRestartSpec parses the --restarts=<spec> flag of spec.md §6.2 into a
// solver.RestartPolicy.
//
//	x,base,grow     geometric
//	+,base,add      arithmetic
//	L,base,limit    luby
//	D,base,limitInit,K  dynamic/EMA block restart
//	no              restarts disabled
func ParseRestartSpec(spec string) (solver.RestartPolicy, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" || spec == "no" {
		return noRestart{}, nil
	}
	parts := strings.Split(spec, ",")
	kind := parts[0]
	args := parts[1:]

	switch kind {
	case "x":
		base, grow, err := parseBaseFloat(args, "x")
		if err != nil {
			return nil, err
		}
		return solver.NewGeometricRestart(base, grow), nil
	case "+":
		base, add, err := parseBaseInt(args, "+")
		if err != nil {
			return nil, err
		}
		return solver.NewArithmeticRestart(base, add), nil
	case "L":
		base, err := parseSingleInt(args, "L")
		if err != nil {
			return nil, err
		}
		return solver.NewLubyRestart(base), nil
	case "D":
		if len(args) < 2 {
			return nil, fmt.Errorf("config: restart spec %q needs base,K", spec)
		}
		base, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("config: bad restart base in %q: %w", spec, err)
		}
		k, err := strconv.ParseFloat(args[len(args)-1], 64)
		if err != nil {
			return nil, fmt.Errorf("config: bad restart K in %q: %w", spec, err)
		}
		return solver.NewDynamicRestart(k, base), nil
	default:
		return nil, fmt.Errorf("config: unknown restart kind %q in %q", kind, spec)
	}
}

func parseBaseFloat(args []string, kind string) (int64, float64, error) {
	if len(args) != 2 {
		return 0, 0, fmt.Errorf("config: restart spec %q needs base,factor", kind)
	}
	base, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("config: bad restart base %q: %w", args[0], err)
	}
	factor, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("config: bad restart factor %q: %w", args[1], err)
	}
	return base, factor, nil
}

func parseBaseInt(args []string, kind string) (int64, int64, error) {
	if len(args) != 2 {
		return 0, 0, fmt.Errorf("config: restart spec %q needs base,add", kind)
	}
	base, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("config: bad restart base %q: %w", args[0], err)
	}
	add, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("config: bad restart add %q: %w", args[1], err)
	}
	return base, add, nil
}

func parseSingleInt(args []string, kind string) (int64, error) {
	if len(args) < 1 {
		return 0, fmt.Errorf("config: restart spec %q needs a base", kind)
	}
	base, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("config: bad restart base %q: %w", args[0], err)
	}
	return base, nil
}

// noRestart never fires: restarts disabled entirely ("no" in spec.md §6.2).
type noRestart struct{}

func (noRestart) ShouldRestart(int64, int) bool { return false }
func (noRestart) Reset()                        {}

var _ solver.RestartPolicy = noRestart{}

// ParseReduceSpec parses the --deletion=<strategy>,<frac>,<lbd-protect>
// flag of spec.md §6.2 into a solver.ReducePolicy. Only the "lbd" strategy
// (score by LBD first, spec.md §4.3) is implemented; any other name is a
// UsageError since no alternative scoring function is part of this spec.
func ParseReduceSpec(spec string) (solver.ReducePolicy, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return solver.NewReducePolicy(), nil
	}
	parts := strings.Split(spec, ",")
	if parts[0] != "lbd" {
		return solver.ReducePolicy{}, fmt.Errorf("config: unknown deletion strategy %q", parts[0])
	}
	p := solver.NewReducePolicy()
	if len(parts) >= 2 {
		// frac isn't separately modeled by ReducePolicy (it always splits
		// the DB in half); accepted and validated for CLI compatibility,
		// but otherwise unused — see DESIGN.md.
		if _, err := strconv.ParseFloat(parts[1], 64); err != nil {
			return solver.ReducePolicy{}, fmt.Errorf("config: bad deletion fraction %q: %w", parts[1], err)
		}
	}
	if len(parts) >= 3 {
		lbd, err := strconv.Atoi(parts[2])
		if err != nil {
			return solver.ReducePolicy{}, fmt.Errorf("config: bad lbd-protect %q: %w", parts[2], err)
		}
		p.ProtectLBD = lbd
	}
	return p, nil
}
