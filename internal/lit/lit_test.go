package lit

import "testing"

func TestPosNeg(t *testing.T) {
	v := Var(7)
	p, n := Pos(v), Neg(v)

	if p.Var() != v || n.Var() != v {
		t.Fatalf("Var() mismatch: got %d/%d, want %d", p.Var(), n.Var(), v)
	}
	if p.Sign() {
		t.Error("Pos literal should not be signed")
	}
	if !n.Sign() {
		t.Error("Neg literal should be signed")
	}
	if p.Complement() != n || n.Complement() != p {
		t.Error("Complement should swap Pos and Neg")
	}
}

func TestFlagIgnoredByEquality(t *testing.T) {
	l := Pos(3)
	flagged := l.Flag()

	if !flagged.Flagged() {
		t.Fatal("Flag() should set the flag bit")
	}
	if !l.Equal(flagged) {
		t.Error("flag bit must not affect equality")
	}
	if l.ID() != flagged.ID() {
		t.Error("flag bit must not affect ID")
	}
	if unflagged := flagged.Unflag(); unflagged.Flagged() {
		t.Error("Unflag() should clear the flag bit")
	}
}

func TestIntRoundTrip(t *testing.T) {
	cases := []int32{1, -1, 42, -42, 1000}
	for _, x := range cases {
		l := FromInt(x)
		if got := l.ToInt(); got != x {
			t.Errorf("FromInt(%d).ToInt() = %d, want %d", x, got, x)
		}
	}
}

func TestSentinel(t *testing.T) {
	if !True().IsSentinel() || !False().IsSentinel() {
		t.Error("True()/False() must be sentinel literals")
	}
	if True().Sign() {
		t.Error("True() must be positive")
	}
	if !False().Sign() {
		t.Error("False() must be negative")
	}
}

func TestValueFor(t *testing.T) {
	if ValueFor(Pos(1)) != TrueVal {
		t.Error("ValueFor(positive) should be TrueVal")
	}
	if ValueFor(Neg(1)) != FalseVal {
		t.Error("ValueFor(negative) should be FalseVal")
	}
	if TrueVal.Opposite() != FalseVal || FalseVal.Opposite() != TrueVal || Free.Opposite() != Free {
		t.Error("Opposite() mapping is wrong")
	}
}

func TestLess(t *testing.T) {
	a, b := Pos(1), Pos(2)
	if !a.Less(b) || b.Less(a) {
		t.Error("Less should order by id")
	}
}
