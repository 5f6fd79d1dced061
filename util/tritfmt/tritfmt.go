/*
 * T3VM - Convert ternary words to strings.
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

// Package tritfmt renders ternary.Word and ternary.Trit values into
// strings.Builder, the way util/hex renders the teacher's binary words.
package tritfmt

import (
	"strconv"
	"strings"

	"github.com/rcornwell/t3vm/ternary"
)

// FormatWord writes w's symbolic trit form, most-significant first.
func FormatWord(str *strings.Builder, w ternary.Word) {
	for i := w.Len() - 1; i >= 0; i-- {
		str.WriteByte(w.TritAt(i).Symbol())
	}
}

// FormatGrouped writes w's symbolic trit form in groups of 3, separated by
// spaces, most-significant group first. The groups are fixed at 3 trits
// and do not follow the instruction fields (the opcode field is 4 trits).
func FormatGrouped(str *strings.Builder, w ternary.Word) {
	n := w.Len()
	for i := n - 1; i >= 0; i-- {
		str.WriteByte(w.TritAt(i).Symbol())
		if i%3 == 0 && i != 0 {
			str.WriteByte(' ')
		}
	}
}

// FormatDecimal writes w's decimal value.
func FormatDecimal(str *strings.Builder, w ternary.Word) {
	str.WriteString(strconv.FormatInt(w.Decimal(), 10))
}

// FormatTrit writes a single trit's symbolic form.
func FormatTrit(str *strings.Builder, t ternary.Trit) {
	str.WriteByte(t.Symbol())
}

// FormatTrits writes a raw trit slice's symbolic form, most-significant
// first (callers pass slices already in that order; unlike Word, there is
// no implicit reversal).
func FormatTrits(str *strings.Builder, trits []ternary.Trit) {
	for _, t := range trits {
		str.WriteByte(t.Symbol())
	}
}
