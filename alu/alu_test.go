package alu

import (
	"testing"

	"github.com/rcornwell/t3vm/ternary"
)

func w(v int64) ternary.Word { return ternary.WordFromInt(v, 20) }

func TestAddCommutative(t *testing.T) {
	for _, pair := range [][2]int64{{3, 5}, {-7, 12}, {0, 0}, {364, -364}} {
		a, b := w(pair[0]), w(pair[1])
		if Add(a, b).Decimal() != Add(b, a).Decimal() {
			t.Errorf("Add not commutative for %v", pair)
		}
	}
}

func TestAddAssociative(t *testing.T) {
	a, b, c := w(5), w(-9), w(17)
	lhs := Add(Add(a, b), c)
	rhs := Add(a, Add(b, c))
	if lhs.Decimal() != rhs.Decimal() {
		t.Errorf("Add not associative: %d != %d", lhs.Decimal(), rhs.Decimal())
	}
}

func TestAddNegIsZero(t *testing.T) {
	for _, v := range []int64{0, 1, -1, 42, -1000} {
		a := w(v)
		sum := Add(a, Neg(a))
		if sum.Decimal() != 0 {
			t.Errorf("Add(%d, Neg(%d)) = %d, want 0", v, v, sum.Decimal())
		}
	}
}

func TestSubMatchesDecimal(t *testing.T) {
	for _, pair := range [][2]int64{{10, 3}, {-5, 5}, {0, 7}} {
		a, b := w(pair[0]), w(pair[1])
		got := Sub(a, b).Decimal()
		want := pair[0] - pair[1]
		if got != want {
			t.Errorf("Sub(%d,%d) = %d, want %d", pair[0], pair[1], got, want)
		}
	}
}

func TestMulCommutativeAndCorrect(t *testing.T) {
	for _, pair := range [][2]int64{{3, 5}, {-4, 7}, {0, 9}, {-6, -6}} {
		a, b := w(pair[0]), w(pair[1])
		gotAB := Mul(a, b).Decimal()
		gotBA := Mul(b, a).Decimal()
		want := pair[0] * pair[1]
		if gotAB != want || gotBA != want {
			t.Errorf("Mul(%d,%d) = %d/%d, want %d", pair[0], pair[1], gotAB, gotBA, want)
		}
	}
}

func TestDivRemainderBound(t *testing.T) {
	for _, pair := range [][2]int64{{17, 5}, {-17, 5}, {17, -5}, {-17, -5}, {2, 9}, {0, 4}} {
		a, b := w(pair[0]), w(pair[1])
		q, r, err := Div(a, b)
		if err != nil {
			t.Fatalf("Div(%d,%d): %v", pair[0], pair[1], err)
		}
		reconstructed := Add(Mul(q, b), r).Decimal()
		if reconstructed != pair[0] {
			t.Errorf("Div(%d,%d): q*b+r = %d, want %d", pair[0], pair[1], reconstructed, pair[0])
		}
		bAbs := pair[1]
		if bAbs < 0 {
			bAbs = -bAbs
		}
		rAbs := r.Decimal()
		if rAbs < 0 {
			rAbs = -rAbs
		}
		if 2*rAbs > bAbs {
			t.Errorf("Div(%d,%d): |r|=%d exceeds |b|/2=%d", pair[0], pair[1], rAbs, bAbs/2)
		}
	}
}

func TestDivByZero(t *testing.T) {
	if _, _, err := Div(w(5), w(0)); err != ErrDivisionByZero {
		t.Errorf("expected ErrDivisionByZero, got %v", err)
	}
}

func TestAbs(t *testing.T) {
	if Abs(w(-9)).Decimal() != 9 || Abs(w(9)).Decimal() != 9 || Abs(w(0)).Decimal() != 0 {
		t.Error("Abs incorrect")
	}
}

func TestLogicOps(t *testing.T) {
	a := ternary.WordFromTrits([]ternary.Trit{ternary.Positive, ternary.Negative, ternary.Neutral})
	b := ternary.WordFromTrits([]ternary.Trit{ternary.Negative, ternary.Negative, ternary.Positive})
	and := And(a, b)
	if and.TritAt(0) != ternary.Negative || and.TritAt(1) != ternary.Negative || and.TritAt(2) != ternary.Neutral {
		t.Errorf("And mismatch: %v", and.Trits())
	}
	or := Or(a, b)
	if or.TritAt(0) != ternary.Positive || or.TritAt(1) != ternary.Negative || or.TritAt(2) != ternary.Positive {
		t.Errorf("Or mismatch: %v", or.Trits())
	}
	xor := Xor(a, b)
	if xor.TritAt(0) != ternary.Positive || xor.TritAt(1) != ternary.Neutral || xor.TritAt(2) != ternary.Positive {
		t.Errorf("Xor mismatch: %v", xor.Trits())
	}
}

func TestCmpAndTest(t *testing.T) {
	if Cmp(w(3), w(7)) != -1 || Cmp(w(7), w(3)) != 1 || Cmp(w(3), w(3)) != 0 {
		t.Error("Cmp incorrect")
	}
	if Test(w(5)) != 1 || Test(w(-5)) != -1 || Test(w(0)) != 0 {
		t.Error("Test incorrect")
	}
}

func TestShiftsAndRotates(t *testing.T) {
	a := w(5) // 9 - 3 - 1: trits 0..2 are -1, -1, +1
	if Tshl(a, 2).Decimal() != 45 {
		t.Errorf("Tshl(5,2) = %d, want 45", Tshl(a, 2).Decimal())
	}
	if Tshr(w(45), 2).Decimal() != 5 {
		t.Errorf("Tshr(45,2) = %d, want 5", Tshr(w(45), 2).Decimal())
	}
	if Tshl(a, 0).Decimal() != 5 || Tshl(a, -1).Decimal() != 5 {
		t.Error("Tshl with n<=0 must be identity")
	}

	small := ternary.WordFromInt(1, 3) // "100" -> trit0=1
	rotated := Rotl(small, 1)
	if rotated.Decimal() != 3 {
		t.Errorf("Rotl(1,1) over length 3 = %d, want 3", rotated.Decimal())
	}
	back := Rotr(rotated, 1)
	if back.Decimal() != small.Decimal() {
		t.Errorf("Rotr did not invert Rotl: %d != %d", back.Decimal(), small.Decimal())
	}
}

func TestNandConsAny(t *testing.T) {
	allOnes := ternary.WordFromTrits([]ternary.Trit{ternary.Positive, ternary.Positive})
	if Nand(allOnes, allOnes).Decimal() != Not(And(allOnes, allOnes)).Decimal() {
		t.Error("Nand definition mismatch")
	}
	if Any(allOnes, allOnes).Decimal() != Or(allOnes, allOnes).Decimal() {
		t.Error("Any definition mismatch")
	}
}
