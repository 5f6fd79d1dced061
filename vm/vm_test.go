package vm

import (
	"testing"

	"github.com/rcornwell/t3vm/isa"
	"github.com/rcornwell/t3vm/memory"
	"github.com/rcornwell/t3vm/ternary"
)

func assemble(insts []isa.Instruction) []ternary.Word {
	out := make([]ternary.Word, len(insts))
	for i, ins := range insts {
		out[i] = isa.Encode(ins)
	}
	return out
}

func newTestVM(t *testing.T) *TVM {
	t.Helper()
	return New(memory.New(4000), 1)
}

// TestScenarioS1Addition: LOADI R0,#5; LOADI R1,#7; ADD R2,R0,R1; HALT.
// After running, R2 decimal = 12, PC = 4, halted.
func TestScenarioS1Addition(t *testing.T) {
	v := newTestVM(t)
	prog := []isa.Instruction{
		{Op: isa.LOADI, Reg1: isa.R0, Imm: 5},
		{Op: isa.LOADI, Reg1: isa.R1, Imm: 7},
		{Op: isa.ADD, Reg1: isa.R2, Reg2: isa.R0, Reg3: isa.R1},
		{Op: isa.HALT},
	}
	if err := v.LoadProgram(assemble(prog)); err != nil {
		t.Fatal(err)
	}
	if _, err := v.Run(100); err != nil {
		t.Fatal(err)
	}
	if !v.Halted() {
		t.Fatal("expected halted")
	}
	if got := v.Regs.R[isa.R2].Decimal(); got != 12 {
		t.Errorf("R2 = %d, want 12", got)
	}
	if v.Regs.PC != 4 {
		t.Errorf("PC = %d, want 4", v.Regs.PC)
	}
}

// TestScenarioS2SignedWrap: LOADI R0,#-4; LOADI R1,#4; ADD R2,R0,R1;
// TEST R2; HALT. Expected: R2 decimal = 0, FLAGS = 0.
func TestScenarioS2SignedWrap(t *testing.T) {
	v := newTestVM(t)
	prog := []isa.Instruction{
		{Op: isa.LOADI, Reg1: isa.R0, Imm: -4},
		{Op: isa.LOADI, Reg1: isa.R1, Imm: 4},
		{Op: isa.ADD, Reg1: isa.R2, Reg2: isa.R0, Reg3: isa.R1},
		{Op: isa.TEST, Reg1: isa.R2},
		{Op: isa.HALT},
	}
	if err := v.LoadProgram(assemble(prog)); err != nil {
		t.Fatal(err)
	}
	if _, err := v.Run(100); err != nil {
		t.Fatal(err)
	}
	if got := v.Regs.R[isa.R2].Decimal(); got != 0 {
		t.Errorf("R2 = %d, want 0", got)
	}
	if v.Regs.Flags != ternary.Neutral {
		t.Errorf("FLAGS = %v, want 0", v.Regs.Flags)
	}
}

// TestScenarioS3Loop decrements R0 from 3 to 0 with SUB/JZ/JMP. Expected:
// terminates with R0 = 0 and an executed instruction count at least the
// loop count (3).
func TestScenarioS3Loop(t *testing.T) {
	v := newTestVM(t)
	prog := []isa.Instruction{
		{Op: isa.LOADI, Reg1: isa.R0, Imm: 3},
		{Op: isa.LOADI, Reg1: isa.R1, Imm: 1},
		{Op: isa.SUB, Reg1: isa.R0, Reg2: isa.R0, Reg3: isa.R1}, // loop:
		{Op: isa.JZ, Reg1: isa.R0, Imm: 5},
		{Op: isa.JMP, Imm: 2},
		{Op: isa.HALT},
	}
	if err := v.LoadProgram(assemble(prog)); err != nil {
		t.Fatal(err)
	}
	if _, err := v.Run(1000); err != nil {
		t.Fatal(err)
	}
	if !v.Halted() {
		t.Fatal("expected halted")
	}
	if got := v.Regs.R[isa.R0].Decimal(); got != 0 {
		t.Errorf("R0 = %d, want 0", got)
	}
	if v.InstructionCount() < 3 {
		t.Errorf("instruction count = %d, want >= 3", v.InstructionCount())
	}
}

// TestCmpSignInvariant checks invariant 10: CMP(a,a) sets FLAGS=0, and
// CMP(a,b) followed by CMP(b,a) sets FLAGS to opposite signs (or both
// zero).
func TestCmpSignInvariant(t *testing.T) {
	v := newTestVM(t)
	v.Regs.R[isa.R0] = ternary.WordFromInt(5, RegWidth)
	v.Regs.R[isa.R1] = ternary.WordFromInt(5, RegWidth)
	if _, err := hCmp(v, isa.Instruction{Reg1: isa.R0, Reg2: isa.R1}); err != nil {
		t.Fatal(err)
	}
	if v.Regs.Flags != ternary.Neutral {
		t.Errorf("CMP(a,a) FLAGS = %v, want 0", v.Regs.Flags)
	}

	v.Regs.R[isa.R1] = ternary.WordFromInt(9, RegWidth)
	if _, err := hCmp(v, isa.Instruction{Reg1: isa.R0, Reg2: isa.R1}); err != nil {
		t.Fatal(err)
	}
	f1 := v.Regs.Flags
	if _, err := hCmp(v, isa.Instruction{Reg1: isa.R1, Reg2: isa.R0}); err != nil {
		t.Fatal(err)
	}
	f2 := v.Regs.Flags
	if !((f1 == -f2) || (f1 == ternary.Neutral && f2 == ternary.Neutral)) {
		t.Errorf("CMP(a,b)=%v CMP(b,a)=%v, want opposite signs", f1, f2)
	}
}

func TestDivisionByZeroFaults(t *testing.T) {
	v := newTestVM(t)
	prog := []isa.Instruction{
		{Op: isa.LOADI, Reg1: isa.R0, Imm: 10},
		{Op: isa.LOADI, Reg1: isa.R1, Imm: 0},
		{Op: isa.DIV, Reg1: isa.R2, Reg2: isa.R0, Reg3: isa.R1},
	}
	if err := v.LoadProgram(assemble(prog)); err != nil {
		t.Fatal(err)
	}
	_, err := v.Run(10)
	f, ok := err.(*Fault)
	if !ok {
		t.Fatalf("expected *Fault, got %v", err)
	}
	if f.Kind != DivisionByZero {
		t.Errorf("fault kind = %v, want DivisionByZero", f.Kind)
	}
}

func TestPushPopRoundTrip(t *testing.T) {
	v := newTestVM(t)
	prog := []isa.Instruction{
		{Op: isa.LOADI, Reg1: isa.R0, Imm: 42},
		{Op: isa.PUSH, Reg1: isa.R0},
		{Op: isa.POP, Reg1: isa.R1},
		{Op: isa.HALT},
	}
	if err := v.LoadProgram(assemble(prog)); err != nil {
		t.Fatal(err)
	}
	if _, err := v.Run(100); err != nil {
		t.Fatal(err)
	}
	if got := v.Regs.R[isa.R1].Decimal(); got != 42 {
		t.Errorf("R1 = %d, want 42", got)
	}
}

func TestBreakpointHaltsBeforeExecution(t *testing.T) {
	v := newTestVM(t)
	prog := []isa.Instruction{
		{Op: isa.LOADI, Reg1: isa.R0, Imm: 1},
		{Op: isa.LOADI, Reg1: isa.R1, Imm: 2},
		{Op: isa.HALT},
	}
	if err := v.LoadProgram(assemble(prog)); err != nil {
		t.Fatal(err)
	}
	v.SetBreakpoint(1)
	n, err := v.Run(100)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("executed %d instructions before breakpoint, want 1", n)
	}
	if !v.InDebug() {
		t.Error("expected InDebug() after hitting breakpoint")
	}
	if got := v.Regs.R[isa.R1].Decimal(); got != 0 {
		t.Errorf("R1 = %d, want 0 (not yet executed)", got)
	}
	v.Resume()
	if _, err := v.Run(100); err != nil {
		t.Fatal(err)
	}
	if got := v.Regs.R[isa.R1].Decimal(); got != 2 {
		t.Errorf("R1 after resume = %d, want 2", got)
	}
}

func TestCallRetRoundTrip(t *testing.T) {
	v := newTestVM(t)
	prog := []isa.Instruction{
		{Op: isa.CALLI, Imm: 3},
		{Op: isa.LOADI, Reg1: isa.R1, Imm: 99},
		{Op: isa.HALT},
		{Op: isa.LOADI, Reg1: isa.R0, Imm: 7}, // callee at pc=3
		{Op: isa.RET},
	}
	if err := v.LoadProgram(assemble(prog)); err != nil {
		t.Fatal(err)
	}
	if _, err := v.Run(100); err != nil {
		t.Fatal(err)
	}
	if got := v.Regs.R[isa.R0].Decimal(); got != 7 {
		t.Errorf("R0 = %d, want 7", got)
	}
	if got := v.Regs.R[isa.R1].Decimal(); got != 99 {
		t.Errorf("R1 = %d, want 99", got)
	}
}
