/*
 * T3VM - T3-ISA instruction encoding and decoding.
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

// Package isa defines the T3-ISA fixed-width 27-trit instruction encoding,
// the opcode enumeration, and disassembly.
//
// The opcode field is widened to 4 trits (trits 0-3) from the 3-trit field
// a naive reading of the category table would suggest: 37 named opcodes
// cannot fit in 27 values. The immediate field absorbs the difference,
// shrinking from 15 to 14 trits; total instruction width stays 27 trits.
package isa

import (
	"fmt"

	"github.com/rcornwell/t3vm/ternary"
)

// Field boundaries, in trits, least-significant first.
const (
	OpcodeStart = 0
	OpcodeWidth = 4
	Reg1Start   = OpcodeStart + OpcodeWidth
	Reg2Start   = Reg1Start + 3
	Reg3Start   = Reg2Start + 3
	ImmStart    = Reg3Start + 3
	ImmWidth    = 27 - ImmStart
	TotalWidth  = 27
)

// Opcodes, numbered by category order per the T3-ISA enumeration. The
// numeric assignment is binding: reordering breaks program portability.
const (
	LOAD = iota
	STORE
	MOVE
	LOADI
	PUSH
	POP

	ADD
	SUB
	MUL
	DIV
	NEG
	ABS

	NAND
	CONS
	ANY
	NOT

	CMP
	TEST

	JMP
	JZ
	JN
	JP
	CALL
	RET
	CALLI

	TSHL
	TSHR
	ROTL
	ROTR

	SYSCALL
	HALT
	NOP
	BREAK

	PRINT
	INPUT
	PRINTI
	PRINTS
)

var mnemonics = map[int]string{
	LOAD: "LOAD", STORE: "STORE", MOVE: "MOVE", LOADI: "LOADI", PUSH: "PUSH", POP: "POP",
	ADD: "ADD", SUB: "SUB", MUL: "MUL", DIV: "DIV", NEG: "NEG", ABS: "ABS",
	NAND: "NAND", CONS: "CONS", ANY: "ANY", NOT: "NOT",
	CMP: "CMP", TEST: "TEST",
	JMP: "JMP", JZ: "JZ", JN: "JN", JP: "JP", CALL: "CALL", RET: "RET", CALLI: "CALLI",
	TSHL: "TSHL", TSHR: "TSHR", ROTL: "ROTL", ROTR: "ROTR",
	SYSCALL: "SYSCALL", HALT: "HALT", NOP: "NOP", BREAK: "BREAK",
	PRINT: "PRINT", INPUT: "INPUT", PRINTI: "PRINTI", PRINTS: "PRINTS",
}

// Mnemonic returns the textual opcode name, or "???" if unknown.
func Mnemonic(op int) string {
	if m, ok := mnemonics[op]; ok {
		return m
	}
	return "???"
}

// Register index constants, per the eleven named general/special registers
// addressable via a 3-trit register field (0..10); FLAGS is a twelfth
// register not reachable through this field.
const (
	R0 = iota
	R1
	R2
	R3
	R4
	R5
	R6
	R7
	PC
	SP
	FP
)

var regNames = map[int]string{
	R0: "R0", R1: "R1", R2: "R2", R3: "R3", R4: "R4", R5: "R5", R6: "R6", R7: "R7",
	PC: "PC", SP: "SP", FP: "FP",
}

// RegName renders a register index as its textual name, or "R<n>" if out
// of the named range (decode never rejects an out-of-range index; the
// VM's register file does).
func RegName(r int) string {
	if n, ok := regNames[r]; ok {
		return n
	}
	return fmt.Sprintf("R%d", r)
}

// Instruction is the decoded form of one 27-trit word.
type Instruction struct {
	Op   int
	Reg1 int
	Reg2 int
	Reg3 int
	Imm  int64
}

func fieldWord(v int64, width int) ternary.Word {
	return ternary.WordFromInt(v, width)
}

// Encode packs an Instruction into its 27-trit wire form.
func Encode(i Instruction) ternary.Word {
	out := ternary.NewWord(TotalWidth)
	place := func(start, width int, value int64) {
		fw := fieldWord(value, width)
		for k := 0; k < width; k++ {
			out = out.WithTrit(start+k, fw.TritAt(k))
		}
	}
	place(OpcodeStart, OpcodeWidth, int64(i.Op))
	place(Reg1Start, 3, int64(i.Reg1))
	place(Reg2Start, 3, int64(i.Reg2))
	place(Reg3Start, 3, int64(i.Reg3))
	place(ImmStart, ImmWidth, i.Imm)
	return out
}

// Decode unpacks a 27-trit word into an Instruction. Decode never fails:
// unknown opcodes and out-of-range register indices are returned verbatim
// for the VM to fault on at dispatch time.
func Decode(w ternary.Word) Instruction {
	extract := func(start, width int) ternary.Word {
		trits := make([]ternary.Trit, width)
		for k := 0; k < width; k++ {
			trits[k] = w.TritAt(start + k)
		}
		return ternary.WordFromTrits(trits)
	}
	return Instruction{
		Op:   int(extract(OpcodeStart, OpcodeWidth).Decimal()),
		Reg1: int(extract(Reg1Start, 3).Decimal()),
		Reg2: int(extract(Reg2Start, 3).Decimal()),
		Reg3: int(extract(Reg3Start, 3).Decimal()),
		Imm:  extract(ImmStart, ImmWidth).Decimal(),
	}
}
