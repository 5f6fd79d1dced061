/*
 * T3VM - Fixed-width balanced ternary words.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package ternary

import "strings"

// Word is an ordered sequence of trits, least-significant at index 0, with
// an explicit length. Its decimal value is Σ trits[i]·3^i.
type Word struct {
	trits []Trit
}

// NewWord returns a zero-valued word of the given length.
func NewWord(length int) Word {
	if length < 0 {
		length = 0
	}
	return Word{trits: make([]Trit, length)}
}

// WordFromTrits copies trits (least-significant first) into a new Word.
func WordFromTrits(trits []Trit) Word {
	cp := make([]Trit, len(trits))
	copy(cp, trits)
	return Word{trits: cp}
}

// WordFromInt encodes value as balanced ternary, padded or truncated to
// length trits.
func WordFromInt(value int64, length int) Word {
	w := NewWord(length)
	neg := value < 0
	if neg {
		value = -value
	}
	for i := 0; i < length; i++ {
		if value == 0 {
			break
		}
		r := value % 3
		value /= 3
		switch r {
		case 0:
			w.trits[i] = Neutral
		case 1:
			w.trits[i] = Positive
		case 2:
			w.trits[i] = Negative
			value++
		}
	}
	if neg {
		for i := range w.trits {
			w.trits[i] = -w.trits[i]
		}
	}
	return w
}

// Len returns the word's explicit trit length.
func (w Word) Len() int { return len(w.trits) }

// TritAt returns the trit at position i, or Neutral if i is outside the
// word's length (this is how ALU ops "align at the shorter" operand).
func (w Word) TritAt(i int) Trit {
	if i < 0 || i >= len(w.trits) {
		return Neutral
	}
	return w.trits[i]
}

// WithTrit returns a copy of w with position i set to t, growing the word
// if necessary.
func (w Word) WithTrit(i int, t Trit) Word {
	n := len(w.trits)
	if i >= n {
		n = i + 1
	}
	out := make([]Trit, n)
	copy(out, w.trits)
	out[i] = t
	return Word{trits: out}
}

// Trits returns a defensive copy of the underlying trit slice,
// least-significant first.
func (w Word) Trits() []Trit {
	cp := make([]Trit, len(w.trits))
	copy(cp, w.trits)
	return cp
}

// Decimal returns Σ trits[i]·3^i.
func (w Word) Decimal() int64 {
	var v int64
	pow := int64(1)
	for _, t := range w.trits {
		v += int64(t) * pow
		pow *= 3
	}
	return v
}

// Trimmed returns a copy with trailing (most-significant) zero trits
// removed. Equal and Compare do not call it: they compare decimal values,
// which trailing zero trits do not change.
func (w Word) Trimmed() Word {
	n := len(w.trits)
	for n > 0 && w.trits[n-1] == Neutral {
		n--
	}
	return Word{trits: append([]Trit(nil), w.trits[:n]...)}
}

// Equal compares two words by decimal value, per §3.
func (w Word) Equal(o Word) bool { return w.Decimal() == o.Decimal() }

// Compare returns -1, 0, or +1 per decimal ordering.
func (w Word) Compare(o Word) int {
	a, b := w.Decimal(), o.Decimal()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// IsZero reports whether the word's decimal value is zero.
func (w Word) IsZero() bool { return w.Decimal() == 0 }

// Resize returns a copy of w truncated or zero-extended to length n.
func (w Word) Resize(n int) Word {
	out := make([]Trit, n)
	copy(out, w.trits[:min(n, len(w.trits))])
	return Word{trits: out}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// String renders the symbolic form, most-significant trit first.
func (w Word) String() string {
	var b strings.Builder
	for i := len(w.trits) - 1; i >= 0; i-- {
		b.WriteByte(w.trits[i].Symbol())
	}
	if b.Len() == 0 {
		return ""
	}
	return b.String()
}
