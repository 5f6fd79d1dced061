package isa

import "testing"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []Instruction{
		{Op: LOAD, Reg1: 1, Reg2: 2, Reg3: 0, Imm: 0},
		{Op: ADD, Reg1: 3, Reg2: 4, Reg3: 5, Imm: 0},
		{Op: LOADI, Reg1: R0, Reg2: 0, Reg3: 0, Imm: 12345},
		{Op: LOADI, Reg1: R0, Reg2: 0, Reg3: 0, Imm: -12345},
		{Op: PRINTS, Reg1: 0, Reg2: 0, Reg3: 0, Imm: -(3*3*3*3*3*3*3*3*3*3*3*3*3*3 - 1) / 2},
		{Op: HALT},
		{Op: BREAK},
	}
	for _, in := range cases {
		w := Encode(in)
		if w.Len() != TotalWidth {
			t.Fatalf("Encode width = %d, want %d", w.Len(), TotalWidth)
		}
		out := Decode(w)
		if out != in {
			t.Errorf("round trip mismatch: got %+v, want %+v", out, in)
		}
	}
}

func TestOpcodeNumberingMatchesCategoryOrder(t *testing.T) {
	expected := []int{
		LOAD, STORE, MOVE, LOADI, PUSH, POP,
		ADD, SUB, MUL, DIV, NEG, ABS,
		NAND, CONS, ANY, NOT,
		CMP, TEST,
		JMP, JZ, JN, JP, CALL, RET, CALLI,
		TSHL, TSHR, ROTL, ROTR,
		SYSCALL, HALT, NOP, BREAK,
		PRINT, INPUT, PRINTI, PRINTS,
	}
	for i, op := range expected {
		if op != i {
			t.Errorf("opcode at category position %d = %d, want %d", i, op, i)
		}
	}
	if len(expected) != 37 {
		t.Fatalf("expected 37 opcodes, got %d", len(expected))
	}
}

func TestDisassembleFormats(t *testing.T) {
	cases := []struct {
		in   Instruction
		want string
	}{
		{Instruction{Op: LOAD, Reg1: R1, Reg2: R2}, "LOAD R1, R2"},
		{Instruction{Op: LOADI, Reg1: R0, Imm: 7}, "LOADI R0, #7"},
		{Instruction{Op: ADD, Reg1: R0, Reg2: R1, Reg3: R2}, "ADD R0, R1, R2"},
		{Instruction{Op: JMP, Imm: 42}, "JMP #42"},
		{Instruction{Op: RET}, "RET"},
		{Instruction{Op: HALT}, "HALT"},
		{Instruction{Op: TSHL, Reg1: R0, Reg2: R1, Imm: 2}, "TSHL R0, R1, #2"},
	}
	for _, c := range cases {
		if got := Disassemble(c.in); got != c.want {
			t.Errorf("Disassemble(%+v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestImmediateFieldRange(t *testing.T) {
	max := int64(1)
	for i := 0; i < ImmWidth; i++ {
		max *= 3
	}
	max = (max - 1) / 2
	in := Instruction{Op: LOADI, Reg1: R0, Imm: max}
	if out := Decode(Encode(in)); out.Imm != max {
		t.Errorf("max immediate round trip failed: got %d, want %d", out.Imm, max)
	}
	in.Imm = -max
	if out := Decode(Encode(in)); out.Imm != -max {
		t.Errorf("min immediate round trip failed: got %d, want %d", out.Imm, -max)
	}
}
