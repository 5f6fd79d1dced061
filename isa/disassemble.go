/*
 * T3VM - T3-ISA disassembly.
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

package isa

import (
	"fmt"
	"strings"
)

// operandShape describes how many of {reg1, reg2, reg3, imm} an opcode's
// text form shows, and in what order.
type operandShape int

const (
	shapeNone operandShape = iota
	shapeR1
	shapeR1R2
	shapeR1R2R3
	shapeR1Imm
	shapeImm
	shapeR1R2Imm
)

var shapes = map[int]operandShape{
	LOAD: shapeR1R2, STORE: shapeR1R2, MOVE: shapeR1R2, LOADI: shapeR1Imm, PUSH: shapeR1, POP: shapeR1,
	ADD: shapeR1R2R3, SUB: shapeR1R2R3, MUL: shapeR1R2R3, DIV: shapeR1R2R3, NEG: shapeR1R2, ABS: shapeR1R2,
	NAND: shapeR1R2R3, CONS: shapeR1R2R3, ANY: shapeR1R2R3, NOT: shapeR1R2,
	CMP: shapeR1R2, TEST: shapeR1,
	JMP: shapeImm, JZ: shapeR1Imm, JN: shapeR1Imm, JP: shapeR1Imm, CALL: shapeR1, RET: shapeNone, CALLI: shapeImm,
	TSHL: shapeR1R2Imm, TSHR: shapeR1R2Imm, ROTL: shapeR1R2Imm, ROTR: shapeR1R2Imm,
	SYSCALL: shapeImm, HALT: shapeNone, NOP: shapeNone, BREAK: shapeNone,
	PRINT: shapeR1, INPUT: shapeR1, PRINTI: shapeImm, PRINTS: shapeImm,
}

// Disassemble renders an Instruction as "MNEMONIC op1, op2, op3" per §6.
func Disassemble(i Instruction) string {
	mnemonic := Mnemonic(i.Op)
	shape, ok := shapes[i.Op]
	if !ok {
		return mnemonic
	}
	var operands []string
	switch shape {
	case shapeNone:
	case shapeR1:
		operands = []string{RegName(i.Reg1)}
	case shapeR1R2:
		operands = []string{RegName(i.Reg1), RegName(i.Reg2)}
	case shapeR1R2R3:
		operands = []string{RegName(i.Reg1), RegName(i.Reg2), RegName(i.Reg3)}
	case shapeR1Imm:
		operands = []string{RegName(i.Reg1), fmt.Sprintf("#%d", i.Imm)}
	case shapeImm:
		operands = []string{fmt.Sprintf("#%d", i.Imm)}
	case shapeR1R2Imm:
		operands = []string{RegName(i.Reg1), RegName(i.Reg2), fmt.Sprintf("#%d", i.Imm)}
	}
	if len(operands) == 0 {
		return mnemonic
	}
	return mnemonic + " " + strings.Join(operands, ", ")
}
