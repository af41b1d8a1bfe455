// Package parsers loads plain DIMACS CNF instances as a secondary ingest
// path alongside internal/aspif's ASPIF reader, and reads DIMACS-shaped
// model files for golden-output regression tests. Adapted from the
// teacher's root parsers/parsers.go: the gzip-aware file opening and the
// github.com/rhartert/dimacs-backed Builder plumbing are kept nearly
// verbatim, but the target is now internal/context.SharedContext's
// NewVar/AddClause instead of the teacher's bespoke SATSolver interface, and
// clauses are built from internal/lit.Literal instead of sat.Literal.
package parsers

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"

	"github.com/rhartert/dimacs"

	"github.com/clasp-go/clasp/internal/context"
	"github.com/clasp-go/clasp/internal/lit"
)

func reader(filename string, gzipped bool) (io.ReadCloser, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	rc := io.ReadCloser(file)
	if gzipped {
		rc, err = gzip.NewReader(rc)
		if err != nil {
			return nil, err
		}
	}
	return rc, nil
}

// LoadDIMACS parses the DIMACS CNF file at filename and installs its
// variables and clauses into ctx.
func LoadDIMACS(filename string, gzipped bool, ctx *context.SharedContext) error {
	rc, err := reader(filename, gzipped)
	if err != nil {
		return fmt.Errorf("error reading file %q: %s", filename, err)
	}
	defer rc.Close()

	b := &builder{ctx: ctx}
	return dimacs.ReadBuilder(rc, b)
}

// builder wraps a SharedContext to implement dimacs.Builder.
type builder struct {
	ctx  *context.SharedContext
	vars []lit.Var // vars[i] is the context variable for DIMACS var i+1
}

func (b *builder) Problem(problem string, nVars int, nClauses int) error {
	if problem != "cnf" {
		return fmt.Errorf("not a CNF problem")
	}
	b.vars = make([]lit.Var, nVars)
	for i := range b.vars {
		b.vars[i] = b.ctx.NewVar()
	}
	return nil
}

func (b *builder) Clause(tmpClause []int) error {
	clause := make([]lit.Literal, len(tmpClause))
	for i, l := range tmpClause {
		if l < 0 {
			clause[i] = lit.Neg(b.vars[-l-1])
		} else {
			clause[i] = lit.Pos(b.vars[l-1])
		}
	}
	b.ctx.AddClause(clause)
	return nil
}

func (b *builder) Comment(_ string) error {
	return nil // ignore comments
}

// ReadModels returns the list of models (if any) contained in the given
// file, in the teacher's model-file-as-DIMACS-clauses golden-test
// convention (yass_test.go's TestSolveAll): each "clause" line is one
// model's literals, positive entries true and negative entries false.
func ReadModels(filename string) ([][]bool, error) {
	rc, err := reader(filename, false)
	if err != nil {
		return nil, fmt.Errorf("error reading file %q: %s", filename, err)
	}
	defer rc.Close()

	b := &modelBuilder{}
	if err := dimacs.ReadBuilder(rc, b); err != nil {
		return nil, err
	}
	return b.models, nil
}

type modelBuilder struct {
	models [][]bool
}

func (b *modelBuilder) Problem(problem string, nVars int, nClauses int) error {
	return fmt.Errorf("model files should not have problem lines")
}

func (b *modelBuilder) Comment(_ string) error {
	return nil
}

func (b *modelBuilder) Clause(tmpClause []int) error {
	model := make([]bool, len(tmpClause))
	for i, l := range tmpClause {
		model[i] = l > 0
	}
	b.models = append(b.models, model)
	return nil
}
