package aspif

import (
	"fmt"

	"github.com/clasp-go/clasp/internal/context"
	"github.com/clasp-go/clasp/internal/enum"
	"github.com/clasp-go/clasp/internal/heuristic"
	"github.com/clasp-go/clasp/internal/lit"
)

// Program implements Builder, lowering each ASPIF directive into
// internal/context.SharedContext's constraint database. Grounded on
// liblp/src/aspif.cpp's reader-to-ProgramBuilder split, generalized here to
// target the Go solver's clause/weight-constraint machinery directly
// instead of clasp's intermediate Asp::LogicProgram.
//
// Rule lowering adds, for every rule, only the implication from its
// (possibly Tseitin-encoded) body literal to its head (for a choice rule,
// from each head atom to the body). No clause ties an atom back to the
// bodies of the rules that define it (no Clark completion), and no
// unfounded-set check is run, so an atom can be true in a model without
// any rule supporting it. Completion and the unfounded-set check are the
// dependency-graph checker spec.md §1 places out of scope (see DESIGN.md).
type Program struct {
	ctx  *context.SharedContext
	vars map[int32]lit.Var

	minTiers map[int32][]lit.WeightLiteral // priority -> accumulated weighted literals

	domain    []heuristic.DomainMod
	assumes   []lit.Literal
	externals map[int32]ExternalValue
	edges     [][2]int32
	theory    [][]int64
}

// NewProgram returns a Program lowering directives into ctx.
func NewProgram(ctx *context.SharedContext) *Program {
	return &Program{
		ctx:       ctx,
		vars:      make(map[int32]lit.Var),
		minTiers:  make(map[int32][]lit.WeightLiteral),
		externals: make(map[int32]ExternalValue),
	}
}

// atomVar returns the context variable for ASPIF atom id, allocating one on
// first use. Atom ids are positive per spec.md §6.1.
func (p *Program) atomVar(id int32) lit.Var {
	if id <= 0 {
		panic(fmt.Sprintf("aspif: non-positive atom id %d", id))
	}
	if v, ok := p.vars[id]; ok {
		return v
	}
	v := p.ctx.NewVar()
	p.vars[id] = v
	return v
}

// litFor converts a signed ASPIF literal (positive = atom true, negative =
// atom false; 0 is forbidden per spec.md §6.1) into a lit.Literal.
func (p *Program) litFor(x int32) lit.Literal {
	if x == 0 {
		panic("aspif: literal 0 is forbidden")
	}
	if x < 0 {
		return lit.Neg(p.atomVar(-x))
	}
	return lit.Pos(p.atomVar(x))
}

func (p *Program) litsFor(xs []int32) []lit.Literal {
	out := make([]lit.Literal, len(xs))
	for i, x := range xs {
		out[i] = p.litFor(x)
	}
	return out
}

// bodyLiteral returns a literal that is true iff r's body holds, allocating
// a fresh auxiliary variable and the Tseitin/weight-constraint encoding
// that defines it (spec.md §3's "body atoms" and §4.2's weight
// constraints). A normal body with a single positive literal and no
// negation is returned directly without an auxiliary, the common case for
// facts and simple rules.
func (p *Program) bodyLiteral(r Rule) lit.Literal {
	if r.Sum {
		return p.sumBodyLiteral(r.Bound, r.Weights)
	}
	if len(r.Body) == 0 {
		return lit.True() // empty normal body is vacuously true (a fact)
	}
	if len(r.Body) == 1 {
		return p.litFor(r.Body[0])
	}
	return p.conjunctionLiteral(p.litsFor(r.Body))
}

// conjunctionLiteral builds a fresh body literal B with B <-> (l1 /\ ... /\
// ln): the forward direction (¬B ∨ li) for each i, and the backward
// direction (B ∨ ¬l1 ∨ ... ∨ ¬ln), the standard Tseitin encoding of a
// rule body's conjunction (clasp's Asp::Rule::bodyLit construction).
func (p *Program) conjunctionLiteral(lits []lit.Literal) lit.Literal {
	b := lit.Pos(p.ctx.NewVar())
	back := make([]lit.Literal, 0, len(lits)+1)
	back = append(back, b)
	for _, l := range lits {
		p.ctx.AddClause([]lit.Literal{b.Complement(), l})
		back = append(back, l.Complement())
	}
	p.ctx.AddClause(back)
	return b
}

// sumBodyLiteral builds a fresh literal W and installs a weight constraint
// W == sum(wi*li) >= bound (spec.md §4.2), reusing solver.WeightConstraint
// directly instead of a bespoke Tseitin encoding for the sum body.
func (p *Program) sumBodyLiteral(bound int32, wlits []WeightedLiteral) lit.Literal {
	w := lit.Pos(p.ctx.NewVar())
	lits := make([]lit.WeightLiteral, len(wlits))
	for i, wl := range wlits {
		lits[i] = lit.WeightLiteral{Lit: p.litFor(wl.Lit), Weight: wl.Weight}
	}
	p.ctx.AddWeightConstraint(w, lits, bound)
	return w
}

// Rule implements Builder.
func (p *Program) Rule(r Rule) error {
	body := p.bodyLiteral(r)

	if len(r.Head) == 0 {
		// Integrity constraint: the body must never hold.
		p.ctx.AddClause([]lit.Literal{body.Complement()})
		return nil
	}

	if r.Choice {
		// {a1,...,ak} :- body. Each ai may be true only if body holds;
		// nothing forces it (that's the "choice").
		for _, h := range r.Head {
			p.ctx.AddClause([]lit.Literal{p.litFor(h).Complement(), body})
		}
		return nil
	}

	if len(r.Head) == 1 {
		// a :- body. (body -> a only; see the type doc for what this
		// lowering leaves out.)
		p.ctx.AddClause([]lit.Literal{body.Complement(), p.litFor(r.Head[0])})
		return nil
	}

	// Disjunctive: body -> (a1 v ... v ak).
	clause := make([]lit.Literal, 0, len(r.Head)+1)
	clause = append(clause, body.Complement())
	for _, h := range r.Head {
		clause = append(clause, p.litFor(h))
	}
	p.ctx.AddClause(clause)
	return nil
}

// Minimize implements Builder, accumulating weighted literals by priority
// tier for Finalize to turn into a enum.HierarchicalMinimizer.
func (p *Program) Minimize(priority int32, wlits []WeightedLiteral) error {
	for _, wl := range wlits {
		p.minTiers[priority] = append(p.minTiers[priority], lit.WeightLiteral{
			Lit:    p.litFor(wl.Lit),
			Weight: wl.Weight,
		})
	}
	return nil
}

// Project implements Builder.
func (p *Program) Project(atoms []int32) error {
	vars := make([]lit.Var, len(atoms))
	for i, a := range atoms {
		vars[i] = p.atomVar(a)
	}
	p.ctx.SetProjection(vars)
	return nil
}

// Output implements Builder.
func (p *Program) Output(name string, condition []int32) error {
	p.ctx.AddOutput(name, p.litsFor(condition))
	return nil
}

// External implements Builder. True/False immediately fix the atom's value
// at the root with a unit clause; Free/Release add nothing, so a value
// fixed by an earlier True/False directive for the same atom stays fixed.
func (p *Program) External(atom int32, value ExternalValue) error {
	p.externals[atom] = value
	v := p.atomVar(atom)
	switch value {
	case ExternalTrueVal:
		p.ctx.AddClause([]lit.Literal{lit.Pos(v)})
	case ExternalFalseVal:
		p.ctx.AddClause([]lit.Literal{lit.Neg(v)})
	}
	return nil
}

// Assume implements Builder: recorded for the driver's Start call (spec.md
// §4.8).
func (p *Program) Assume(lits []int32) error {
	p.assumes = append(p.assumes, p.litsFor(lits)...)
	return nil
}

// Assumptions returns every literal accumulated via Assume directives.
func (p *Program) Assumptions() []lit.Literal { return p.assumes }

// Heuristic implements Builder, translating the directive into a
// heuristic.DomainMod for the caller to register with a heuristic.Domain
// instance (Program itself has no heuristic reference: spec.md §4.6 keeps
// the heuristic and the program builder as separate collaborators).
func (p *Program) Heuristic(mod HeuristicMod, atom int32, bias, priority int32, condition []int32) error {
	dm := heuristic.DomainMod{
		Var:   p.atomVar(atom),
		Level: priority,
	}
	switch mod {
	case ModLevel:
		// Level alone carries no bias/sign; still recorded so later,
		// lower-priority modifiers of the same atom are correctly
		// shadowed by AddModification's level ordering.
	case ModSign:
		if bias > 0 {
			dm.Sign = lit.TrueVal
		} else {
			dm.Sign = lit.FalseVal
		}
	case ModFactor:
		dm.Factor = float64(bias)
	case ModInit:
		dm.Init = float64(bias)
	case ModTrue:
		dm.Sign = lit.TrueVal
	case ModFalse:
		dm.Sign = lit.FalseVal
	}
	p.domain = append(p.domain, dm)
	return nil
}

// DomainMods returns every Heuristic directive translated into a
// heuristic.DomainMod, for the caller to register.
func (p *Program) DomainMods() []heuristic.DomainMod { return p.domain }

// Edge implements Builder. Acyclicity checking is the dependency-graph
// propagator family spec.md §1 places out of scope; edges are recorded
// only so a future acyclicity post-propagator could consume them.
func (p *Program) Edge(u, v int32, condition []int32) error {
	p.edges = append(p.edges, [2]int32{u, v})
	return nil
}

// Theory implements Builder. Payload is opaque per spec.md's Non-goals;
// recorded verbatim in case a future theory post-propagator needs it.
func (p *Program) Theory(raw []int64) error {
	p.theory = append(p.theory, raw)
	return nil
}

// Comment implements Builder.
func (p *Program) Comment(text string) error { return nil }

// Finalize builds a hierarchical minimizer from every Minimize directive
// seen so far, tiers ordered by ascending ASPIF priority (lower number is
// higher priority, matching clasp's minimize-statement convention), or nil
// if no Minimize directive was read.
func (p *Program) Finalize() *enum.HierarchicalMinimizer {
	if len(p.minTiers) == 0 {
		return nil
	}
	priorities := make([]int32, 0, len(p.minTiers))
	for prio := range p.minTiers {
		priorities = append(priorities, prio)
	}
	for i := 1; i < len(priorities); i++ {
		for j := i; j > 0 && priorities[j] < priorities[j-1]; j-- {
			priorities[j], priorities[j-1] = priorities[j-1], priorities[j]
		}
	}
	tiers := make([]*enum.Minimizer, len(priorities))
	for i, prio := range priorities {
		tiers[i] = enum.NewMinimizer(p.minTiers[prio])
	}
	return &enum.HierarchicalMinimizer{Tiers: tiers}
}

var _ Builder = (*Program)(nil)
