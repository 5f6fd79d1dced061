/*
 * T3VM - Balanced ternary digit.
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

// Package ternary implements the balanced-ternary digit and fixed-width
// word types that the rest of T3VM is built on.
package ternary

import (
	"errors"
	"strings"
)

// Trit is a single balanced-ternary digit: Negative (-1), Neutral (0), or
// Positive (+1). A Trit has identity only as its value; there is no
// mutable state.
type Trit int8

const (
	Negative Trit = -1
	Neutral  Trit = 0
	Positive Trit = 1
)

// ErrInvalidTrit is a host/bug error: it indicates a corrupted literal or
// decode path handed a value outside {-1, 0, 1}.
var ErrInvalidTrit = errors.New("ternary: invalid trit value")

// NewTrit validates v and returns the corresponding Trit.
func NewTrit(v int) (Trit, error) {
	switch v {
	case -1, 0, 1:
		return Trit(v), nil
	default:
		return 0, ErrInvalidTrit
	}
}

// MustTrit panics on an invalid value; used for literals known at compile
// time to be valid.
func MustTrit(v int) Trit {
	t, err := NewTrit(v)
	if err != nil {
		panic(err)
	}
	return t
}

var charAlphabet = map[byte]Trit{'-': Negative, '0': Neutral, '+': Positive}

var wordAliases = map[string]Trit{
	"negative": Negative, "neutral": Neutral, "positive": Positive,
	"false": Negative, "unknown": Neutral, "true": Positive,
}

// TritFromChar parses the single-character alphabet {'-', '0', '+'}.
func TritFromChar(c byte) (Trit, error) {
	if t, ok := charAlphabet[c]; ok {
		return t, nil
	}
	return 0, ErrInvalidTrit
}

// TritFromString parses a numeric string ("-1", "0", "1") or one of the
// English aliases (negative/neutral/positive, false/unknown/true).
func TritFromString(s string) (Trit, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if t, ok := wordAliases[s]; ok {
		return t, nil
	}
	switch s {
	case "-1":
		return Negative, nil
	case "0":
		return Neutral, nil
	case "1":
		return Positive, nil
	}
	return 0, ErrInvalidTrit
}

// Int returns the signed integer value of the trit.
func (t Trit) Int() int { return int(t) }

// Neg returns the value-flip of t.
func (t Trit) Neg() Trit { return -t }

// Abs returns the absolute value of t.
func (t Trit) Abs() Trit {
	if t < 0 {
		return -t
	}
	return t
}

// IsTruthy reports whether t is +1.
func (t Trit) IsTruthy() bool { return t == Positive }

// IsFalsy reports whether t is -1.
func (t Trit) IsFalsy() bool { return t == Negative }

// IsUnknown reports whether t is 0.
func (t Trit) IsUnknown() bool { return t == Neutral }

// String renders the numeric form, e.g. "-1", "0", "1".
func (t Trit) String() string {
	switch t {
	case Negative:
		return "-1"
	case Neutral:
		return "0"
	case Positive:
		return "1"
	default:
		return "?"
	}
}

// Symbol renders the single-character symbolic form used in dumps.
func (t Trit) Symbol() byte {
	switch t {
	case Negative:
		return '-'
	case Positive:
		return '+'
	default:
		return '0'
	}
}

// Single-trit lookup tables (§4.1). Indexed [a+1][b+1].

var addTable = [3][3]Trit{
	{-1, -1, 0},
	{-1, 0, 1},
	{0, 1, 1},
}

var subTable = [3][3]Trit{
	{0, -1, -1},
	{1, 0, -1},
	{1, 1, 0},
}

var mulTable = [3][3]Trit{
	{1, 0, -1},
	{0, 0, 0},
	{-1, 0, 1},
}

var andTable = [3][3]Trit{
	{-1, -1, -1},
	{-1, 0, 0},
	{-1, 0, 1},
}

var orTable = [3][3]Trit{
	{-1, 0, 1},
	{0, 0, 1},
	{1, 1, 1},
}

var xorTable = [3][3]Trit{
	{0, -1, 1},
	{-1, 0, 1},
	{1, 1, 0},
}

func idx(t Trit) int { return int(t) + 1 }

// Add is the single-trit, carry-truncating sum from the §4.1 table; the
// ALU's TritWord Add handles the carry chain.
func (t Trit) Add(o Trit) Trit { return addTable[idx(t)][idx(o)] }

// Sub is the single-trit difference from the §4.1 table.
func (t Trit) Sub(o Trit) Trit { return subTable[idx(t)][idx(o)] }

// Mul is the single-trit product from the §4.1 table.
func (t Trit) Mul(o Trit) Trit { return mulTable[idx(t)][idx(o)] }

// And is ternary minimum.
func (t Trit) And(o Trit) Trit { return andTable[idx(t)][idx(o)] }

// Or is ternary maximum.
func (t Trit) Or(o Trit) Trit { return orTable[idx(t)][idx(o)] }

// Xor is the §4.1 exclusive-or table.
func (t Trit) Xor(o Trit) Trit { return xorTable[idx(t)][idx(o)] }

// Not is the value flip.
func (t Trit) Not() Trit { return -t }
