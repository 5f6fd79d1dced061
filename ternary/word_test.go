package ternary

import "testing"

func TestWordFromIntRoundTrip(t *testing.T) {
	for _, v := range []int64{0, 1, -1, 5, -5, 12, -12, 364, -364, 7174453, -7174453} {
		w := WordFromInt(v, 15)
		if w.Decimal() != v {
			t.Errorf("WordFromInt(%d).Decimal() = %d", v, w.Decimal())
		}
	}
}

func TestWordEqualityTruncatesTrailingZero(t *testing.T) {
	a := WordFromInt(5, 3)
	b := WordFromInt(5, 10)
	if !a.Equal(b) {
		t.Errorf("expected equal words by decimal value, got %d vs %d", a.Decimal(), b.Decimal())
	}
}

func TestWordCompare(t *testing.T) {
	a := WordFromInt(3, 5)
	b := WordFromInt(7, 5)
	if a.Compare(b) != -1 || b.Compare(a) != 1 || a.Compare(a) != 0 {
		t.Error("Compare did not order by decimal value")
	}
}

func TestWordTritAtOutOfRangeIsZero(t *testing.T) {
	w := WordFromInt(1, 2)
	if w.TritAt(10) != Neutral {
		t.Error("expected Neutral for out-of-range TritAt")
	}
}
