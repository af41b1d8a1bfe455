package aspif

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// recordingBuilder captures every call made to it, for asserting the
// Reader dispatches directives with the fields spec.md §6.1 describes.
type recordingBuilder struct {
	rules      []Rule
	minimize   []minimizeCall
	project    [][]int32
	outputs    []outputCall
	externals  []externalCall
	assumes    [][]int32
	heuristics []heuristicCall
	edges      [][2]int32
	theory     [][]int64
	comments   []string
}

type minimizeCall struct {
	Priority int32
	WLits    []WeightedLiteral
}

type outputCall struct {
	Name      string
	Condition []int32
}

type externalCall struct {
	Atom  int32
	Value ExternalValue
}

type heuristicCall struct {
	Mod       HeuristicMod
	Atom      int32
	Bias      int32
	Priority  int32
	Condition []int32
}

func (b *recordingBuilder) Rule(r Rule) error {
	b.rules = append(b.rules, r)
	return nil
}
func (b *recordingBuilder) Minimize(prio int32, wlits []WeightedLiteral) error {
	b.minimize = append(b.minimize, minimizeCall{prio, wlits})
	return nil
}
func (b *recordingBuilder) Project(atoms []int32) error {
	b.project = append(b.project, atoms)
	return nil
}
func (b *recordingBuilder) Output(name string, condition []int32) error {
	b.outputs = append(b.outputs, outputCall{name, condition})
	return nil
}
func (b *recordingBuilder) External(atom int32, value ExternalValue) error {
	b.externals = append(b.externals, externalCall{atom, value})
	return nil
}
func (b *recordingBuilder) Assume(lits []int32) error {
	b.assumes = append(b.assumes, lits)
	return nil
}
func (b *recordingBuilder) Heuristic(mod HeuristicMod, atom int32, bias, prio int32, cond []int32) error {
	b.heuristics = append(b.heuristics, heuristicCall{mod, atom, bias, prio, cond})
	return nil
}
func (b *recordingBuilder) Edge(u, v int32, condition []int32) error {
	b.edges = append(b.edges, [2]int32{u, v})
	return nil
}
func (b *recordingBuilder) Theory(raw []int64) error {
	b.theory = append(b.theory, raw)
	return nil
}
func (b *recordingBuilder) Comment(text string) error {
	b.comments = append(b.comments, text)
	return nil
}

var _ Builder = (*recordingBuilder)(nil)

func TestReadHeader(t *testing.T) {
	rd := NewReader(strings.NewReader("asp 1 0 0\n0\n"))
	inc, err := rd.ReadHeader()
	if err != nil {
		t.Fatalf("ReadHeader() error = %v", err)
	}
	if inc {
		t.Errorf("ReadHeader() incremental = true, want false")
	}
}

func TestReadHeaderIncremental(t *testing.T) {
	rd := NewReader(strings.NewReader("asp 1 0 0 incremental\n0\n"))
	inc, err := rd.ReadHeader()
	if err != nil {
		t.Fatalf("ReadHeader() error = %v", err)
	}
	if !inc {
		t.Errorf("ReadHeader() incremental = false, want true")
	}
}

// TestReadStepFact parses "a." followed by "b :- a." — the two rules of
// spec.md §8's end-to-end scenario 1.
func TestReadStepFact(t *testing.T) {
	in := "asp 1 0 0\n" +
		"1 0 1 1 0 0\n" +
		"1 0 1 2 0 1 1\n" +
		"0\n"
	rd := NewReader(strings.NewReader(in))
	if _, err := rd.ReadHeader(); err != nil {
		t.Fatalf("ReadHeader() error = %v", err)
	}

	b := &recordingBuilder{}
	done, err := rd.ReadStep(b)
	if err != nil {
		t.Fatalf("ReadStep() error = %v", err)
	}
	if done {
		t.Fatalf("ReadStep() done = true, want false (step terminator was a bare 0, not EOF)")
	}

	want := []Rule{
		{Choice: false, Head: []int32{1}, Body: []int32{}},
		{Choice: false, Head: []int32{2}, Body: []int32{1}},
	}
	if diff := cmp.Diff(want, b.rules, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("rules mismatch (-want +got):\n%s", diff)
	}
}

// TestReadStepChoice parses the choice rule + integrity constraint of
// spec.md §8's scenario 2.
func TestReadStepChoice(t *testing.T) {
	in := "asp 1 0 0\n" +
		"1 1 2 1 2 0 0\n" +
		"1 0 0 0 2 -1 -2\n" +
		"0\n"
	rd := NewReader(strings.NewReader(in))
	if _, err := rd.ReadHeader(); err != nil {
		t.Fatalf("ReadHeader() error = %v", err)
	}

	b := &recordingBuilder{}
	if _, err := rd.ReadStep(b); err != nil {
		t.Fatalf("ReadStep() error = %v", err)
	}

	if len(b.rules) != 2 {
		t.Fatalf("len(rules) = %d, want 2", len(b.rules))
	}
	if !b.rules[0].Choice || len(b.rules[0].Head) != 2 {
		t.Errorf("rules[0] = %+v, want a 2-atom choice rule", b.rules[0])
	}
	if len(b.rules[1].Head) != 0 || len(b.rules[1].Body) != 2 {
		t.Errorf("rules[1] = %+v, want a headless 2-literal integrity constraint", b.rules[1])
	}
}

func TestReadStepSumBody(t *testing.T) {
	// a :- 2 <= {1=1, 2=3}. (a sum-body rule over atoms 1 and 2).
	in := "asp 1 0 0\n" +
		"1 0 1 1 1 2 2 1 1 2 3\n" +
		"0\n"
	rd := NewReader(strings.NewReader(in))
	if _, err := rd.ReadHeader(); err != nil {
		t.Fatalf("ReadHeader() error = %v", err)
	}
	b := &recordingBuilder{}
	if _, err := rd.ReadStep(b); err != nil {
		t.Fatalf("ReadStep() error = %v", err)
	}
	if len(b.rules) != 1 || !b.rules[0].Sum {
		t.Fatalf("rules = %+v, want one sum-body rule", b.rules)
	}
	r := b.rules[0]
	if r.Bound != 2 || len(r.Weights) != 2 {
		t.Errorf("rule = %+v, want bound=2 and 2 weighted literals", r)
	}
}

func TestReadOutput(t *testing.T) {
	in := "asp 1 0 0\n" +
		"4 3 foo 1 1\n" +
		"0\n"
	rd := NewReader(strings.NewReader(in))
	if _, err := rd.ReadHeader(); err != nil {
		t.Fatalf("ReadHeader() error = %v", err)
	}
	b := &recordingBuilder{}
	if _, err := rd.ReadStep(b); err != nil {
		t.Fatalf("ReadStep() error = %v", err)
	}
	if len(b.outputs) != 1 {
		t.Fatalf("len(outputs) = %d, want 1", len(b.outputs))
	}
	if b.outputs[0].Name != "foo" {
		t.Errorf("outputs[0].Name = %q, want %q", b.outputs[0].Name, "foo")
	}
	if diff := cmp.Diff([]int32{1}, b.outputs[0].Condition); diff != "" {
		t.Errorf("outputs[0].Condition mismatch (-want +got):\n%s", diff)
	}
}

func TestReadComment(t *testing.T) {
	in := "asp 1 0 0\n" +
		"10 this is a comment\n" +
		"0\n"
	rd := NewReader(strings.NewReader(in))
	if _, err := rd.ReadHeader(); err != nil {
		t.Fatalf("ReadHeader() error = %v", err)
	}
	b := &recordingBuilder{}
	if _, err := rd.ReadStep(b); err != nil {
		t.Fatalf("ReadStep() error = %v", err)
	}
	if len(b.comments) != 1 || b.comments[0] != "this is a comment" {
		t.Errorf("comments = %v, want [%q]", b.comments, "this is a comment")
	}
}

func TestReadStepReturnsDoneAtEOF(t *testing.T) {
	rd := NewReader(strings.NewReader("asp 1 0 0\n"))
	if _, err := rd.ReadHeader(); err != nil {
		t.Fatalf("ReadHeader() error = %v", err)
	}
	b := &recordingBuilder{}
	done, err := rd.ReadStep(b)
	if err != nil {
		t.Fatalf("ReadStep() error = %v", err)
	}
	if !done {
		t.Errorf("ReadStep() done = false, want true at EOF")
	}
}

func TestReadMultiStepIncremental(t *testing.T) {
	// Step 1: a. Step 2: b :- a.
	in := "asp 1 0 0 incremental\n" +
		"1 0 1 1 0 0\n" +
		"0\n" +
		"1 0 1 2 0 1 1\n" +
		"0\n"
	rd := NewReader(strings.NewReader(in))
	inc, err := rd.ReadHeader()
	if err != nil || !inc {
		t.Fatalf("ReadHeader() = (%v, %v), want (true, nil)", inc, err)
	}

	b1 := &recordingBuilder{}
	done, err := rd.ReadStep(b1)
	if err != nil || done {
		t.Fatalf("ReadStep() step1 = (%v, %v), want (false, nil)", done, err)
	}
	if len(b1.rules) != 1 {
		t.Fatalf("step1 rules = %+v, want 1 rule", b1.rules)
	}

	b2 := &recordingBuilder{}
	done, err = rd.ReadStep(b2)
	if err != nil {
		t.Fatalf("ReadStep() step2 error = %v", err)
	}
	if len(b2.rules) != 1 || b2.rules[0].Head[0] != 2 {
		t.Fatalf("step2 rules = %+v, want one rule with head atom 2", b2.rules)
	}
}
