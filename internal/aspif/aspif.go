// Package aspif reads the ASPIF ground wire format of spec.md §6.1: the
// line-oriented directive stream a grounder emits once it has compiled a
// first-order ASP program down to ground rules. Parsing is the producer
// side of the boundary spec.md §1 calls out explicitly ("treated as a
// producer of the wire format"); this package is the consumer, lowering
// directives into a internal/context.SharedContext through the Builder
// interface (see program.go).
//
// Modeled on liblp/src/aspif.cpp's AspifInput::doParse directive dispatch:
// one switch over the leading integer tag per line, each case reading a
// fixed or length-prefixed payload. No pack example ships an ASPIF reader
// (the teacher is plain DIMACS SAT), so the token-level parsing is built
// directly from spec.md §6.1's directive table.
package aspif

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// WeightedLiteral pairs a signed ASPIF literal with its integer weight, the
// wire-level shape of a sum-body or minimize entry before it is lowered
// into a lit.WeightLiteral.
type WeightedLiteral struct {
	Lit    int32
	Weight int32
}

// HeuristicMod is the modifier field of an ASPIF Heuristic directive (tag
// 7).
type HeuristicMod uint8

const (
	ModLevel HeuristicMod = iota
	ModSign
	ModFactor
	ModInit
	ModTrue
	ModFalse
)

// ExternalValue is the value field of an ASPIF External directive (tag 5).
type ExternalValue uint8

const (
	ExternalFreeVal ExternalValue = iota
	ExternalTrueVal
	ExternalFalseVal
	ExternalRelease
)

// Rule is the payload of an ASPIF Rule directive (tag 1). Exactly one of
// (Body, Weights) is populated, selected by Sum.
type Rule struct {
	Choice bool // ht: false = disjunctive, true = choice
	Head   []int32

	Sum     bool
	Body    []int32 // normal body literals (Sum == false)
	Bound   int32   // sum bound (Sum == true)
	Weights []WeightedLiteral
}

// Builder receives one call per ASPIF directive, in stream order. It is
// the lowering boundary spec.md §6.1 describes; internal/aspif.Program
// (program.go) is the concrete implementation feeding a
// internal/context.SharedContext.
type Builder interface {
	Rule(r Rule) error
	Minimize(priority int32, wlits []WeightedLiteral) error
	Project(atoms []int32) error
	Output(name string, condition []int32) error
	External(atom int32, value ExternalValue) error
	Assume(lits []int32) error
	Heuristic(mod HeuristicMod, atom int32, bias, priority int32, condition []int32) error
	Edge(u, v int32, condition []int32) error
	Theory(raw []int64) error
	Comment(text string) error
}

const (
	tagRule      = 1
	tagMinimize  = 2
	tagProject   = 3
	tagOutput    = 4
	tagExternal  = 5
	tagAssume    = 6
	tagHeuristic = 7
	tagEdge      = 8
	tagTheory    = 9
	tagComment   = 10
)

// Reader scans an ASPIF byte stream directive by directive.
type Reader struct {
	tok *tokenizer
}

// NewReader wraps r.
func NewReader(r io.Reader) *Reader {
	return &Reader{tok: newTokenizer(r)}
}

// ReadHeader consumes the mandatory "asp 1 0 0 [incremental]" header line
// and reports whether the incremental flag was present.
func (rd *Reader) ReadHeader() (incremental bool, err error) {
	line, err := rd.tok.nextLine()
	if err != nil {
		return false, fmt.Errorf("aspif: reading header: %w", err)
	}
	fields := strings.Fields(line)
	if len(fields) < 4 || fields[0] != "asp" {
		return false, fmt.Errorf("aspif: malformed header %q", line)
	}
	for _, f := range fields[4:] {
		if f == "incremental" {
			incremental = true
		}
	}
	return incremental, nil
}

// ReadStep reads directives into b until the step's trailing "0" separator
// (spec.md §6.1: "Step separator is a line containing 0") or EOF. done is
// true once the stream is exhausted (no further steps to read).
func (rd *Reader) ReadStep(b Builder) (done bool, err error) {
	for {
		tag, ok, err := rd.tok.nextIntOrEOF()
		if err != nil {
			return false, err
		}
		if !ok {
			return true, nil
		}
		if tag == 0 {
			return false, nil
		}
		if err := rd.dispatch(int(tag), b); err != nil {
			return false, err
		}
	}
}

func (rd *Reader) dispatch(tag int, b Builder) error {
	switch tag {
	case tagRule:
		return rd.readRule(b)
	case tagMinimize:
		return rd.readMinimize(b)
	case tagProject:
		return rd.readProject(b)
	case tagOutput:
		return rd.readOutput(b)
	case tagExternal:
		return rd.readExternal(b)
	case tagAssume:
		return rd.readAssume(b)
	case tagHeuristic:
		return rd.readHeuristic(b)
	case tagEdge:
		return rd.readEdge(b)
	case tagTheory:
		return rd.readTheory(b)
	case tagComment:
		text, err := rd.tok.nextLine()
		if err != nil {
			return fmt.Errorf("aspif: comment: %w", err)
		}
		return b.Comment(text)
	default:
		return fmt.Errorf("aspif: unknown directive tag %d", tag)
	}
}

func (rd *Reader) readRule(b Builder) error {
	ht, err := rd.tok.nextInt()
	if err != nil {
		return fmt.Errorf("aspif: rule ht: %w", err)
	}
	head, err := rd.tok.nextIntVector()
	if err != nil {
		return fmt.Errorf("aspif: rule head: %w", err)
	}
	bodyType, err := rd.tok.nextInt()
	if err != nil {
		return fmt.Errorf("aspif: rule body type: %w", err)
	}

	r := Rule{Choice: ht == 1, Head: head}
	switch bodyType {
	case 0:
		body, err := rd.tok.nextIntVector()
		if err != nil {
			return fmt.Errorf("aspif: rule normal body: %w", err)
		}
		r.Body = body
	case 1:
		r.Sum = true
		bound, err := rd.tok.nextInt()
		if err != nil {
			return fmt.Errorf("aspif: rule sum bound: %w", err)
		}
		r.Bound = int32(bound)
		n, err := rd.tok.nextInt()
		if err != nil {
			return fmt.Errorf("aspif: rule sum length: %w", err)
		}
		wlits := make([]WeightedLiteral, n)
		for i := range wlits {
			l, err := rd.tok.nextInt()
			if err != nil {
				return fmt.Errorf("aspif: rule sum literal: %w", err)
			}
			w, err := rd.tok.nextInt()
			if err != nil {
				return fmt.Errorf("aspif: rule sum weight: %w", err)
			}
			wlits[i] = WeightedLiteral{Lit: int32(l), Weight: int32(w)}
		}
		r.Weights = wlits
	default:
		return fmt.Errorf("aspif: unknown body type %d", bodyType)
	}
	return b.Rule(r)
}

func (rd *Reader) readMinimize(b Builder) error {
	prio, err := rd.tok.nextInt()
	if err != nil {
		return fmt.Errorf("aspif: minimize priority: %w", err)
	}
	n, err := rd.tok.nextInt()
	if err != nil {
		return fmt.Errorf("aspif: minimize length: %w", err)
	}
	wlits := make([]WeightedLiteral, n)
	for i := range wlits {
		l, err := rd.tok.nextInt()
		if err != nil {
			return fmt.Errorf("aspif: minimize literal: %w", err)
		}
		w, err := rd.tok.nextInt()
		if err != nil {
			return fmt.Errorf("aspif: minimize weight: %w", err)
		}
		wlits[i] = WeightedLiteral{Lit: int32(l), Weight: int32(w)}
	}
	return b.Minimize(int32(prio), wlits)
}

func (rd *Reader) readProject(b Builder) error {
	atoms, err := rd.tok.nextIntVector()
	if err != nil {
		return fmt.Errorf("aspif: project: %w", err)
	}
	return b.Project(atoms)
}

func (rd *Reader) readOutput(b Builder) error {
	n, err := rd.tok.nextInt()
	if err != nil {
		return fmt.Errorf("aspif: output string length: %w", err)
	}
	name, err := rd.tok.nextString(int(n))
	if err != nil {
		return fmt.Errorf("aspif: output string: %w", err)
	}
	cond, err := rd.tok.nextIntVector()
	if err != nil {
		return fmt.Errorf("aspif: output condition: %w", err)
	}
	return b.Output(name, cond)
}

func (rd *Reader) readExternal(b Builder) error {
	atom, err := rd.tok.nextInt()
	if err != nil {
		return fmt.Errorf("aspif: external atom: %w", err)
	}
	v, err := rd.tok.nextInt()
	if err != nil {
		return fmt.Errorf("aspif: external value: %w", err)
	}
	if v < 0 || v > 3 {
		return fmt.Errorf("aspif: external value out of range: %d", v)
	}
	return b.External(int32(atom), ExternalValue(v))
}

func (rd *Reader) readAssume(b Builder) error {
	lits, err := rd.tok.nextIntVector()
	if err != nil {
		return fmt.Errorf("aspif: assume: %w", err)
	}
	return b.Assume(lits)
}

func (rd *Reader) readHeuristic(b Builder) error {
	mod, err := rd.tok.nextInt()
	if err != nil {
		return fmt.Errorf("aspif: heuristic modifier: %w", err)
	}
	atom, err := rd.tok.nextInt()
	if err != nil {
		return fmt.Errorf("aspif: heuristic atom: %w", err)
	}
	bias, err := rd.tok.nextInt()
	if err != nil {
		return fmt.Errorf("aspif: heuristic bias: %w", err)
	}
	prio, err := rd.tok.nextInt()
	if err != nil {
		return fmt.Errorf("aspif: heuristic priority: %w", err)
	}
	cond, err := rd.tok.nextIntVector()
	if err != nil {
		return fmt.Errorf("aspif: heuristic condition: %w", err)
	}
	if mod < 0 || mod > 5 {
		return fmt.Errorf("aspif: heuristic modifier out of range: %d", mod)
	}
	return b.Heuristic(HeuristicMod(mod), int32(atom), int32(bias), int32(prio), cond)
}

func (rd *Reader) readEdge(b Builder) error {
	u, err := rd.tok.nextInt()
	if err != nil {
		return fmt.Errorf("aspif: edge u: %w", err)
	}
	v, err := rd.tok.nextInt()
	if err != nil {
		return fmt.Errorf("aspif: edge v: %w", err)
	}
	cond, err := rd.tok.nextIntVector()
	if err != nil {
		return fmt.Errorf("aspif: edge condition: %w", err)
	}
	return b.Edge(int32(u), int32(v), cond)
}

// readTheory parses the remainder of the line as a flat vector of integers.
// Theory directives nest term/element/atom encodings whose payload spec.md
// §9's Open Questions leaves underspecified beyond pure Boolean clauses;
// this keeps the directive byte-structurally parseable (so a stream mixing
// theory atoms with ordinary rules doesn't desync) without interpreting
// the payload, per spec.md's Non-goals.
func (rd *Reader) readTheory(b Builder) error {
	line, err := rd.tok.nextLine()
	if err != nil {
		return fmt.Errorf("aspif: theory: %w", err)
	}
	fields := strings.Fields(line)
	raw := make([]int64, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return fmt.Errorf("aspif: theory field %q: %w", f, err)
		}
		raw = append(raw, n)
	}
	return b.Theory(raw)
}

// tokenizer reads whitespace-delimited integers and, for the Output
// directive's length-prefixed string, a fixed-width raw byte span. It
// treats the whole stream as one token sequence rather than strictly
// line-oriented records, except where a directive's payload specifically
// calls for reading to end-of-line (Comment, Theory).
type tokenizer struct {
	r *bufio.Reader
}

func newTokenizer(r io.Reader) *tokenizer {
	return &tokenizer{r: bufio.NewReader(r)}
}

func (t *tokenizer) skipSpace() error {
	for {
		c, err := t.r.ReadByte()
		if err != nil {
			return err
		}
		if c != ' ' && c != '\t' && c != '\n' && c != '\r' {
			t.r.UnreadByte()
			return nil
		}
	}
}

// nextInt reads the next whitespace-delimited signed integer token.
func (t *tokenizer) nextInt() (int64, error) {
	v, ok, err := t.nextIntOrEOF()
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, io.ErrUnexpectedEOF
	}
	return v, nil
}

// nextIntOrEOF is like nextInt but reports ok=false at a clean EOF (no
// token at all) rather than erroring, for the top-level directive-tag loop.
func (t *tokenizer) nextIntOrEOF() (int64, bool, error) {
	if err := t.skipSpace(); err != nil {
		if err == io.EOF {
			return 0, false, nil
		}
		return 0, false, err
	}

	var sb []byte
	for {
		c, err := t.r.ReadByte()
		if err != nil {
			if err == io.EOF {
				break
			}
			return 0, false, err
		}
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			t.r.UnreadByte()
			break
		}
		if c != '-' && (c < '0' || c > '9') {
			return 0, false, fmt.Errorf("aspif: unexpected character %q in integer token", c)
		}
		sb = append(sb, c)
	}
	if len(sb) == 0 {
		return 0, false, io.ErrUnexpectedEOF
	}
	n, err := strconv.ParseInt(string(sb), 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("aspif: malformed integer %q: %w", sb, err)
	}
	return n, true, nil
}

// nextIntVector reads a length prefix followed by that many integers, the
// "length-prefixed vector" shape used throughout spec.md §6.1.
func (t *tokenizer) nextIntVector() ([]int32, error) {
	n, err := t.nextInt()
	if err != nil {
		return nil, err
	}
	out := make([]int32, n)
	for i := range out {
		v, err := t.nextInt()
		if err != nil {
			return nil, err
		}
		out[i] = int32(v)
	}
	return out, nil
}

// nextString reads exactly n raw bytes after skipping exactly one
// whitespace separator, for the Output directive's "string length +
// string" payload.
func (t *tokenizer) nextString(n int) (string, error) {
	c, err := t.r.ReadByte()
	if err != nil {
		return "", err
	}
	if c != ' ' && c != '\t' {
		t.r.UnreadByte()
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(t.r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// nextLine reads the remainder of the current line (used for the header
// and for Comment/Theory directive payloads), skipping at most one leading
// whitespace separator and not including the trailing newline.
func (t *tokenizer) nextLine() (string, error) {
	c, err := t.r.ReadByte()
	if err != nil && err != io.EOF {
		return "", err
	}
	if err == nil && c != ' ' && c != '\t' {
		t.r.UnreadByte()
	}
	line, err := t.r.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
