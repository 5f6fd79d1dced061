/*
 * T3VM - Arithmetic/logic unit: pure functions over TritWords.
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

// Package alu implements the T3VM arithmetic/logic unit: stateless
// functions over ternary.Word values (§4.2).
package alu

import (
	"errors"

	"github.com/rcornwell/t3vm/ternary"
)

// ErrDivisionByZero is returned by Div when the divisor's decimal value is
// zero.
var ErrDivisionByZero = errors.New("alu: division by zero")

func maxLen(a, b ternary.Word) int {
	if a.Len() > b.Len() {
		return a.Len()
	}
	return b.Len()
}

// Add computes a+b with per-trit carry propagation, extending the result
// by one trit to hold a final carry.
func Add(a, b ternary.Word) ternary.Word {
	n := maxLen(a, b)
	out := ternary.NewWord(n + 1)
	carry := ternary.Neutral
	for i := 0; i < n; i++ {
		s := a.TritAt(i).Int() + b.TritAt(i).Int() + carry.Int()
		switch {
		case s > 1:
			out = out.WithTrit(i, ternary.Trit(s-3))
			carry = ternary.Positive
		case s < -1:
			out = out.WithTrit(i, ternary.Trit(s+3))
			carry = ternary.Negative
		default:
			out = out.WithTrit(i, ternary.Trit(s))
			carry = ternary.Neutral
		}
	}
	out = out.WithTrit(n, carry)
	return out
}

// Neg is the trit-wise value flip.
func Neg(a ternary.Word) ternary.Word {
	out := ternary.NewWord(a.Len())
	for i := 0; i < a.Len(); i++ {
		out = out.WithTrit(i, a.TritAt(i).Not())
	}
	return out
}

// Sub computes a-b as Add(a, Neg(b)).
func Sub(a, b ternary.Word) ternary.Word {
	return Add(a, Neg(b))
}

// Abs returns Neg(a) when a is negative, else a.
func Abs(a ternary.Word) ternary.Word {
	if a.Decimal() < 0 {
		return Neg(a)
	}
	return a
}

// Mul computes a*b by shift-and-add over each non-zero trit of b.
func Mul(a, b ternary.Word) ternary.Word {
	result := ternary.NewWord(a.Len() + b.Len() + 1)
	for i := 0; i < b.Len(); i++ {
		bt := b.TritAt(i)
		if bt == ternary.Neutral {
			continue
		}
		shifted := Tshl(a, i)
		if bt == ternary.Positive {
			result = Add(result, shifted)
		} else {
			result = Sub(result, shifted)
		}
	}
	return result
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// Div performs signed balanced-ternary division, returning (quotient,
// remainder) with |remainder| <= |b|/2. When |a| < |b| it returns (0, a)
// without consulting the divisor further. Fails with ErrDivisionByZero
// when b's decimal value is 0.
func Div(a, b ternary.Word) (ternary.Word, ternary.Word, error) {
	bd := b.Decimal()
	if bd == 0 {
		return ternary.Word{}, ternary.Word{}, ErrDivisionByZero
	}
	ad := a.Decimal()
	length := a.Len()
	if abs64(ad) < abs64(bd) {
		return ternary.WordFromInt(0, length), a, nil
	}
	q := ad / bd
	r := ad - q*bd
	half := abs64(bd)
	for 2*abs64(r) > half {
		if (r > 0) == (bd > 0) {
			q++
		} else {
			q--
		}
		r = ad - q*bd
	}
	return ternary.WordFromInt(q, length), ternary.WordFromInt(r, length), nil
}

func logic(a, b ternary.Word, op func(x, y ternary.Trit) ternary.Trit) ternary.Word {
	n := maxLen(a, b)
	out := ternary.NewWord(n)
	for i := 0; i < n; i++ {
		out = out.WithTrit(i, op(a.TritAt(i), b.TritAt(i)))
	}
	return out
}

// And is the position-wise ternary minimum.
func And(a, b ternary.Word) ternary.Word { return logic(a, b, ternary.Trit.And) }

// Or is the position-wise ternary maximum.
func Or(a, b ternary.Word) ternary.Word { return logic(a, b, ternary.Trit.Or) }

// Xor is the position-wise exclusive-or.
func Xor(a, b ternary.Word) ternary.Word { return logic(a, b, ternary.Trit.Xor) }

// Not is the trit-wise value flip, identical to Neg but kept distinct as
// the dedicated logic-category operation.
func Not(a ternary.Word) ternary.Word { return Neg(a) }

// Nand is not(and(a,b)).
func Nand(a, b ternary.Word) ternary.Word { return Not(And(a, b)) }

// Cons is or(not(a), b).
func Cons(a, b ternary.Word) ternary.Word { return Or(Not(a), b) }

// Any is or(a,b).
func Any(a, b ternary.Word) ternary.Word { return Or(a, b) }

// Cmp returns -1, 0, or +1 comparing decimal values of a and b.
func Cmp(a, b ternary.Word) int { return a.Compare(b) }

// Test returns the sign of a's decimal value: -1, 0, or +1.
func Test(a ternary.Word) int {
	d := a.Decimal()
	switch {
	case d < 0:
		return -1
	case d > 0:
		return 1
	default:
		return 0
	}
}

// Tshl returns a shifted left (toward more significant trits) by n
// positions, i.e. a·3^n. n <= 0 is identity.
func Tshl(a ternary.Word, n int) ternary.Word {
	if n <= 0 {
		return a
	}
	out := ternary.NewWord(a.Len() + n)
	for i := 0; i < a.Len(); i++ {
		out = out.WithTrit(i+n, a.TritAt(i))
	}
	return out
}

// Tshr returns a shifted right (toward less significant trits, truncating)
// by n positions, i.e. a÷3^n. n <= 0 is identity.
func Tshr(a ternary.Word, n int) ternary.Word {
	if n <= 0 {
		return a
	}
	length := a.Len() - n
	if length < 0 {
		length = 0
	}
	out := ternary.NewWord(length)
	for i := 0; i < length; i++ {
		out = out.WithTrit(i, a.TritAt(i+n))
	}
	return out
}

// Rotl rotates a's trits left by n positions modulo a's fixed length.
// n <= 0 is identity.
func Rotl(a ternary.Word, n int) ternary.Word {
	length := a.Len()
	if n <= 0 || length == 0 {
		return a
	}
	n %= length
	out := ternary.NewWord(length)
	for i := 0; i < length; i++ {
		out = out.WithTrit((i+n)%length, a.TritAt(i))
	}
	return out
}

// Rotr rotates a's trits right by n positions modulo a's fixed length.
// n <= 0 is identity.
func Rotr(a ternary.Word, n int) ternary.Word {
	length := a.Len()
	if n <= 0 || length == 0 {
		return a
	}
	n %= length
	return Rotl(a, length-n)
}
