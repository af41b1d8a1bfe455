package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/clasp-go/clasp/internal/aspif"
	"github.com/clasp-go/clasp/internal/config"
	cctx "github.com/clasp-go/clasp/internal/context"
	"github.com/clasp-go/clasp/internal/driver"
	"github.com/clasp-go/clasp/internal/enum"
	"github.com/clasp-go/clasp/internal/parsers"
	"github.com/clasp-go/clasp/internal/solver"
)

var (
	flagCPUProfile = flag.Bool("cpuprof", false, "save pprof CPU profile in cpuprof")
	flagMemProfile = flag.Bool("memprof", false, "save pprof memory profile in memprof")

	flagConfiguration = flag.String("configuration", "", "preset bundle for heuristic, restart, reduce")
	flagSeed          = flag.Uint("seed", 0, "RNG seed for phase-init randomization")
	flagModels        = flag.Int("models", 1, "number of models to find (0 = all)")
	flagOptMode       = flag.String("opt-mode", "ignore", "ignore|optimize|enumerate|enum-opt")
	flagRestarts      = flag.String("restarts", "x,100,1.5", "restart schedule spec")
	flagDeletion      = flag.String("deletion", "lbd,0.5,2", "learnt-clause deletion spec")
	flagDelInit       = flag.Float64("del-init", 1.0/3.0, "initial deletion fraction")
	flagDelMax        = flag.Int("del-max", -1, "maximum learnt DB size (-1 = unbounded)")
	flagHeuristic     = flag.String("heuristic", "vsids", "vsids|berkmin|domain|none")
	flagScoreRes      = flag.Float64("score-res", 0.95, "activity decay factor")
	flagTimeLimit     = flag.Float64("time-limit", -1, "wall-clock budget in seconds (<0 = unbounded)")
)

// Exit codes, spec.md §6.3.
const (
	exitUnknown     = 0
	exitInterrupted = 1
	exitSAT         = 10
	exitExhausted   = 20
	exitInternal    = 65
	exitUsage       = 128
)

func buildOptions() (config.Options, error) {
	mode, err := config.ParseOptMode(*flagOptMode)
	if err != nil {
		return config.Options{}, err
	}

	o := config.DefaultOptions()
	o.Configuration = *flagConfiguration
	o.Seed = uint32(*flagSeed)
	o.Models = *flagModels
	o.OptModeFlag = mode
	o.Restarts = *flagRestarts
	o.Deletion = *flagDeletion
	o.DelInitPct = *flagDelInit
	o.DelMax = *flagDelMax
	o.HeuristicName = *flagHeuristic
	o.ScoreDecay = *flagScoreRes
	o.TimeLimit = -1
	if *flagTimeLimit >= 0 {
		o.TimeLimit = time.Duration(*flagTimeLimit * float64(time.Second))
	}
	return o, nil
}

// loadInstance ingests path into ctx: DIMACS CNF for a ".cnf"/".cnf.gz"
// suffix (internal/parsers, the secondary ingest path), ASPIF otherwise
// (internal/aspif, the primary ground wire format of spec.md §6.1). Returns
// the minimize statement built from the program, if any.
func loadInstance(path string, ctx *cctx.SharedContext) (*enum.HierarchicalMinimizer, error) {
	if strings.HasSuffix(path, ".cnf") || strings.HasSuffix(path, ".cnf.gz") {
		return nil, parsers.LoadDIMACS(path, strings.HasSuffix(path, ".gz"), ctx)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open instance: %w", err)
	}
	defer f.Close()

	prog := aspif.NewProgram(ctx)
	rd := aspif.NewReader(f)
	if _, err := rd.ReadHeader(); err != nil {
		return nil, fmt.Errorf("could not parse instance: %w", err)
	}
	for {
		done, err := rd.ReadStep(prog)
		if err != nil {
			return nil, fmt.Errorf("could not parse instance: %w", err)
		}
		if done {
			break
		}
	}
	return prog.Finalize(), nil
}

// run drives one full solve, printing one "v ..." model line per model
// found, then a "c models: ..." line and, when the search space was
// exhausted, a "c status: ..." line, returning the process exit code of
// spec.md §6.3. A search that ends unknown or interrupted returns before
// the summary lines are printed.
func run(path string, opts config.Options) (int, error) {
	if err := opts.Prepare(); err != nil {
		return exitUsage, err
	}
	solverOpts, err := opts.BuildSolverOptions()
	if err != nil {
		return exitUsage, err
	}

	s := solver.New(solverOpts)
	ctx := cctx.New(s)

	minimizer, err := loadInstance(path, ctx)
	if err != nil {
		return exitInternal, err
	}
	if opts.OptModeFlag == config.OptIgnore {
		minimizer = nil
	}

	var finder enum.Finder
	if opts.Models != 1 {
		finder = &enum.RecordFinder{Vars: ctx.Projection()}
	}

	d := driver.New(ctx, finder, minimizer, opts.Models)
	defer d.Stop()

	res := d.Start(nil)
	if res.Status == solver.StatusUnknown {
		res = d.Next()
	}
	modelsFound := 0
	for res.Status != solver.StatusUnsatisfiable {
		if res.Status == solver.StatusUnknown {
			if res.Interrupted {
				return exitInterrupted, nil
			}
			return exitUnknown, nil
		}

		modelsFound++
		printModel(ctx, res.Model)

		if finder == nil || !d.More() {
			break
		}
		res = d.Next()
	}

	fmt.Printf("c models: %d\n", modelsFound)
	if modelsFound > 0 {
		if res.Exhausted {
			fmt.Println("c status: exhausted")
			return exitExhausted, nil
		}
		return exitSAT, nil
	}
	fmt.Println("c status: unsatisfiable")
	return exitExhausted, nil
}

// printModel prints every output atom true in model (spec.md §6.1's Output
// directive), or every true solver variable when no Output directives were
// registered (the DIMACS CNF ingest path has no atom names).
func printModel(ctx *cctx.SharedContext, model []bool) {
	outputs := ctx.Outputs()
	if len(outputs) == 0 {
		fmt.Print("v")
		for v := 1; v < len(model); v++ {
			if model[v] {
				fmt.Printf(" %d", v)
			}
		}
		fmt.Println()
		return
	}

	fmt.Print("v")
	for _, o := range outputs {
		holds := true
		for _, l := range o.Condition {
			if model[l.Var()] == l.Sign() {
				holds = false
				break
			}
		}
		if holds {
			fmt.Printf(" %s", o.Name)
		}
	}
	fmt.Println()
}

func main() {
	flag.Parse()
	if flag.NArg() == 0 || flag.Arg(0) == "" {
		fmt.Fprintln(os.Stderr, "missing instance file")
		os.Exit(exitUsage)
	}
	path := flag.Arg(0)

	opts, err := buildOptions()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUsage)
	}

	if *flagCPUProfile {
		f, err := os.Create("cpuprof")
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	t := time.Now()
	code, err := run(path, opts)
	elapsed := time.Since(t)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	fmt.Printf("c time (sec): %f\n", elapsed.Seconds())

	if *flagMemProfile {
		if f, ferr := os.Create("memprof"); ferr == nil {
			pprof.WriteHeapProfile(f)
			f.Close()
		}
	}

	os.Exit(code)
}
