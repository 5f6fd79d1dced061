/*
 * T3VM - Fetch-decode-execute core.
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

// Package vm implements the TVM: register file, fetch-decode-execute
// loop, breakpoints/watchpoints, and the step/run host API.
//
// TVM is an instance struct, not a package-level singleton, so a host
// can run multiple VMs concurrently (each with its own Memory).
package vm

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/rcornwell/t3vm/alu"
	"github.com/rcornwell/t3vm/isa"
	"github.com/rcornwell/t3vm/memory"
	"github.com/rcornwell/t3vm/process"
	"github.com/rcornwell/t3vm/ternary"
)

// RegWidth is the fixed width, in trits, of every register.
const RegWidth = 27

// FaultKind enumerates T3VM's architectural faults.
type FaultKind int

const (
	PageFault FaultKind = iota
	ProtectionViolation
	DivisionByZero
	StackOverflow
	StackUnderflow
	UnknownOpcode
	InvalidInstruction
)

func (k FaultKind) String() string {
	switch k {
	case PageFault:
		return "PageFault"
	case ProtectionViolation:
		return "ProtectionViolation"
	case DivisionByZero:
		return "DivisionByZero"
	case StackOverflow:
		return "StackOverflow"
	case StackUnderflow:
		return "StackUnderflow"
	case UnknownOpcode:
		return "UnknownOpcode"
	case InvalidInstruction:
		return "InvalidInstruction"
	default:
		return "UnknownFault"
	}
}

// Fault is an architectural fault, attributed to the instruction address
// active when it occurred. Faults are returned, never panicked: they are
// program errors, not host bugs.
type Fault struct {
	Kind FaultKind
	PID  int64
	PC   int64
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s at pc=%d (pid=%d)", f.Kind, f.PC, f.PID)
}

// ErrAddressOutOfRange surfaces memory.ErrAddressOutOfRange as a host
// precondition violation rather than an architectural fault when no
// process context attributes it; callers that DO have a pid should
// instead translate this into a *Fault.
var ErrAddressOutOfRange = memory.ErrAddressOutOfRange

// Registers is the TVM's register file: R0-R7, PC, SP, FP, FLAGS. R0-R7
// are full 27-trit Words; PC (instruction units), SP and FP (trit
// addresses) are plain integers; FLAGS is a single signed trit.
type Registers struct {
	R     [8]ternary.Word
	PC    int64
	SP    int64
	FP    int64
	Flags ternary.Trit
}

// IORing is a bounded FIFO of Words backing PRINT/INPUT.
type IORing struct {
	buf   []ternary.Word
	limit int
}

// NewIORing constructs a ring bounded to limit entries.
func NewIORing(limit int) *IORing { return &IORing{limit: limit} }

// Push enqueues w, dropping the oldest entry if the ring is full.
func (r *IORing) Push(w ternary.Word) {
	if len(r.buf) >= r.limit {
		r.buf = r.buf[1:]
	}
	r.buf = append(r.buf, w)
}

// Pop dequeues the oldest Word, or the zero Word if empty.
func (r *IORing) Pop() ternary.Word {
	if len(r.buf) == 0 {
		return ternary.NewWord(RegWidth)
	}
	w := r.buf[0]
	r.buf = r.buf[1:]
	return w
}

// Len reports the number of queued entries.
func (r *IORing) Len() int { return len(r.buf) }

// Watchpoint is a callback invoked when a named register changes.
type Watchpoint func(reg string, old, new int64)

// TVM is one virtual machine instance: register file, backing Memory,
// program length, breakpoints, watchpoints, and I/O rings.
type TVM struct {
	Regs    Registers
	Mem     *memory.Memory
	PID     int64
	ProgLen int64 // in instructions

	halted        bool
	debug         bool
	skipBreakOnce bool
	breaks        map[int64]bool
	watches       map[string]Watchpoint

	Input  *IORing
	Output *IORing

	instrCount int64
	cycleCount int64
}

// New constructs a TVM over mem, with PC=0, SP at the high end of the
// stack segment, FP=SP, FLAGS=0.
func New(mem *memory.Memory, pid int64) *TVM {
	stack := mem.SegmentRange(memory.Stack)
	sp := stack.Start + stack.Size
	return &TVM{
		Mem:     mem,
		PID:     pid,
		breaks:  make(map[int64]bool),
		watches: make(map[string]Watchpoint),
		Input:   NewIORing(256),
		Output:  NewIORing(256),
		Regs: Registers{
			SP: sp,
			FP: sp,
		},
	}
}

// LoadProgram writes code (a sequence of already-encoded 27-trit words)
// into the code segment starting at address 0, and resets PC.
func (v *TVM) LoadProgram(code []ternary.Word) error {
	base := v.Mem.SegmentRange(memory.Code).Start
	for i, w := range code {
		if err := v.Mem.StoreWord(base+int64(i)*isa.TotalWidth, w.Resize(isa.TotalWidth)); err != nil {
			return err
		}
	}
	v.ProgLen = int64(len(code))
	v.Regs.PC = 0
	v.halted = false
	return nil
}

// Halted reports whether the TVM has executed HALT or run off the end
// of the program.
func (v *TVM) Halted() bool { return v.halted }

// SetBreakpoint arms a breakpoint at the given PC value.
func (v *TVM) SetBreakpoint(pc int64) { v.breaks[pc] = true }

// ClearBreakpoint disarms a breakpoint.
func (v *TVM) ClearBreakpoint(pc int64) { delete(v.breaks, pc) }

// SetWatchpoint installs a callback fired when register name changes.
func (v *TVM) SetWatchpoint(name string, cb Watchpoint) { v.watches[name] = cb }

// InDebug reports whether the TVM is sitting at a breakpoint or BREAK
// instruction, awaiting single-step.
func (v *TVM) InDebug() bool { return v.debug }

// Resume clears debug mode so Step can proceed past a breakpoint/BREAK.
// The instruction sitting at the current PC executes once before any
// breakpoint there is re-armed, so resuming from a breakpoint doesn't
// immediately retrigger it.
func (v *TVM) Resume() {
	v.debug = false
	v.skipBreakOnce = true
}

// InstructionCount returns the cumulative executed-instruction counter.
func (v *TVM) InstructionCount() int64 { return v.instrCount }

// CycleCount returns the cumulative cycle counter (here, one per
// instruction; the platform has no sub-instruction timing model).
func (v *TVM) CycleCount() int64 { return v.cycleCount }

// ResetSnapshot returns the register state a freshly created process
// starts from: PC=0, SP/FP at the high end of the stack segment, FLAGS=0
// — the same values New uses to initialize a bare TVM.
func (v *TVM) ResetSnapshot() process.RegisterSnapshot {
	stack := v.Mem.SegmentRange(memory.Stack)
	sp := stack.Start + stack.Size
	return process.RegisterSnapshot{SP: sp, FP: sp}
}

// SaveSnapshot captures the live register file into a PCB-storable
// snapshot, widening each trit register down to its decimal value.
func (v *TVM) SaveSnapshot() process.RegisterSnapshot {
	var r [8]int64
	for i := range v.Regs.R {
		r[i] = v.Regs.R[i].Decimal()
	}
	return process.RegisterSnapshot{
		R:     r,
		PC:    v.Regs.PC,
		SP:    v.Regs.SP,
		FP:    v.Regs.FP,
		Flags: int64(v.Regs.Flags),
	}
}

// LoadSnapshot installs s as the live register file, narrowing each
// decimal value back to RegWidth trits.
func (v *TVM) LoadSnapshot(s process.RegisterSnapshot) {
	for i := range s.R {
		v.Regs.R[i] = ternary.WordFromInt(s.R[i], RegWidth)
	}
	v.Regs.PC = s.PC
	v.Regs.SP = s.SP
	v.Regs.FP = s.FP
	v.Regs.Flags = ternary.Trit(s.Flags)
}

// Step executes exactly one instruction. It returns (false, nil) when
// halted, (false, fault) on an architectural fault, and (true, nil)
// after a normal dispatch. A hit breakpoint enters debug mode and
// returns without executing (no state change) until Resume is called.
func (v *TVM) Step() (bool, error) {
	if v.halted {
		return false, nil
	}
	if v.ProgLen > 0 && v.Regs.PC >= v.ProgLen {
		v.halted = true
		return false, nil
	}
	if v.debug {
		return false, nil
	}
	if v.breaks[v.Regs.PC] && !v.skipBreakOnce {
		v.debug = true
		slog.Debug("breakpoint hit", "pid", v.PID, "pc", v.Regs.PC)
		return false, nil
	}
	v.skipBreakOnce = false

	addr := v.Regs.PC * isa.TotalWidth
	word, err := v.Mem.LoadWord(addr, isa.TotalWidth)
	if err != nil {
		return false, &Fault{Kind: InvalidInstruction, PID: v.PID, PC: v.Regs.PC}
	}
	inst := isa.Decode(word)

	branched, err := v.dispatch(inst)
	if err != nil {
		if f, ok := err.(*Fault); ok {
			slog.Error("fault", "kind", f.Kind, "pid", f.PID, "pc", f.PC)
		}
		return false, err
	}
	if !branched {
		v.Regs.PC++
	}
	v.instrCount++
	v.cycleCount++
	return true, nil
}

// Run executes up to max instructions, stopping early on halt, a hit
// breakpoint, or a fault. It returns the number of instructions actually
// executed.
func (v *TVM) Run(max int64) (int64, error) {
	var n int64
	for n < max {
		if v.halted || v.debug {
			break
		}
		ok, err := v.Step()
		if err != nil {
			return n, err
		}
		if !ok {
			break
		}
		n++
	}
	return n, nil
}

func (v *TVM) reg(i int) ternary.Word {
	switch {
	case i >= isa.R0 && i <= isa.R7:
		return v.Regs.R[i]
	case i == isa.PC:
		return ternary.WordFromInt(v.Regs.PC, RegWidth)
	case i == isa.SP:
		return ternary.WordFromInt(v.Regs.SP, RegWidth)
	case i == isa.FP:
		return ternary.WordFromInt(v.Regs.FP, RegWidth)
	default:
		return ternary.NewWord(RegWidth)
	}
}

func (v *TVM) setReg(i int, w ternary.Word) {
	old := v.reg(i).Decimal()
	switch {
	case i >= isa.R0 && i <= isa.R7:
		v.Regs.R[i] = w.Resize(RegWidth)
	case i == isa.PC:
		v.Regs.PC = w.Decimal()
	case i == isa.SP:
		v.Regs.SP = w.Decimal()
	case i == isa.FP:
		v.Regs.FP = w.Decimal()
	default:
		return
	}
	if cb, ok := v.watches[isa.RegName(i)]; ok {
		cb(isa.RegName(i), old, w.Decimal())
	}
}

// dispatch executes one decoded instruction against the opcode-indexed
// table, returning whether PC was already updated by the handler.
func (v *TVM) dispatch(inst isa.Instruction) (bool, error) {
	h, ok := handlers[inst.Op]
	if !ok {
		return false, &Fault{Kind: UnknownOpcode, PID: v.PID, PC: v.Regs.PC}
	}
	return h(v, inst)
}

type handlerFunc func(v *TVM, inst isa.Instruction) (bool, error)

var handlers = map[int]handlerFunc{
	isa.LOAD:    hLoad,
	isa.STORE:   hStore,
	isa.MOVE:    hMove,
	isa.LOADI:   hLoadI,
	isa.PUSH:    hPush,
	isa.POP:     hPop,
	isa.ADD:     hBinALU(alu.Add),
	isa.SUB:     hBinALU(alu.Sub),
	isa.MUL:     hBinALU(alu.Mul),
	isa.DIV:     hDiv,
	isa.NEG:     hUnaryALU(alu.Neg),
	isa.ABS:     hUnaryALU(alu.Abs),
	isa.NAND:    hBinALU(alu.Nand),
	isa.CONS:    hBinALU(alu.Cons),
	isa.ANY:     hBinALU(alu.Any),
	isa.NOT:     hUnaryALU(alu.Not),
	isa.CMP:     hCmp,
	isa.TEST:    hTest,
	isa.JMP:     hJmp,
	isa.JZ:      hBranch(func(t ternary.Trit) bool { return t == ternary.Neutral }),
	isa.JN:      hBranch(func(t ternary.Trit) bool { return t == ternary.Negative }),
	isa.JP:      hBranch(func(t ternary.Trit) bool { return t == ternary.Positive }),
	isa.CALL:    hCall,
	isa.RET:     hRet,
	isa.CALLI:   hCallI,
	isa.TSHL:    hShiftRotate(alu.Tshl),
	isa.TSHR:    hShiftRotate(alu.Tshr),
	isa.ROTL:    hShiftRotate(alu.Rotl),
	isa.ROTR:    hShiftRotate(alu.Rotr),
	isa.SYSCALL: hSyscall,
	isa.HALT:    hHalt,
	isa.NOP:     hNop,
	isa.BREAK:   hBreak,
	isa.PRINT:   hPrint,
	isa.INPUT:   hInput,
	isa.PRINTI:  hPrintI,
	isa.PRINTS:  hPrintS,
}

func hLoad(v *TVM, inst isa.Instruction) (bool, error) {
	addr := v.reg(inst.Reg2).Decimal()
	w, err := v.Mem.LoadWord(addr, RegWidth)
	if err != nil {
		return false, &Fault{Kind: PageFault, PID: v.PID, PC: v.Regs.PC}
	}
	v.setReg(inst.Reg1, w)
	return false, nil
}

func hStore(v *TVM, inst isa.Instruction) (bool, error) {
	addr := v.reg(inst.Reg1).Decimal()
	if err := v.Mem.StoreWord(addr, v.reg(inst.Reg2)); err != nil {
		return false, &Fault{Kind: PageFault, PID: v.PID, PC: v.Regs.PC}
	}
	return false, nil
}

func hMove(v *TVM, inst isa.Instruction) (bool, error) {
	v.setReg(inst.Reg1, v.reg(inst.Reg2))
	return false, nil
}

func hLoadI(v *TVM, inst isa.Instruction) (bool, error) {
	v.setReg(inst.Reg1, ternary.WordFromInt(inst.Imm, RegWidth))
	return false, nil
}

// The stack grows down from the high end of the stack segment (where SP
// is initialized, see New): PUSH decrements SP before storing, POP loads
// before incrementing SP back toward that high end.

func hPush(v *TVM, inst isa.Instruction) (bool, error) {
	stack := v.Mem.SegmentRange(memory.Stack)
	newSP := v.Regs.SP - RegWidth
	if newSP < stack.Start {
		return false, &Fault{Kind: StackOverflow, PID: v.PID, PC: v.Regs.PC}
	}
	if err := v.Mem.StoreWord(newSP, v.reg(inst.Reg1)); err != nil {
		return false, &Fault{Kind: StackOverflow, PID: v.PID, PC: v.Regs.PC}
	}
	v.Regs.SP = newSP
	return false, nil
}

func hPop(v *TVM, inst isa.Instruction) (bool, error) {
	stack := v.Mem.SegmentRange(memory.Stack)
	top := stack.Start + stack.Size
	if v.Regs.SP+RegWidth > top {
		return false, &Fault{Kind: StackUnderflow, PID: v.PID, PC: v.Regs.PC}
	}
	w, err := v.Mem.LoadWord(v.Regs.SP, RegWidth)
	if err != nil {
		return false, &Fault{Kind: StackUnderflow, PID: v.PID, PC: v.Regs.PC}
	}
	v.Regs.SP += RegWidth
	v.setReg(inst.Reg1, w)
	return false, nil
}

func hBinALU(op func(a, b ternary.Word) ternary.Word) handlerFunc {
	return func(v *TVM, inst isa.Instruction) (bool, error) {
		v.setReg(inst.Reg1, op(v.reg(inst.Reg2), v.reg(inst.Reg3)).Resize(RegWidth))
		return false, nil
	}
}

func hUnaryALU(op func(a ternary.Word) ternary.Word) handlerFunc {
	return func(v *TVM, inst isa.Instruction) (bool, error) {
		v.setReg(inst.Reg1, op(v.reg(inst.Reg2)).Resize(RegWidth))
		return false, nil
	}
}

func hDiv(v *TVM, inst isa.Instruction) (bool, error) {
	q, _, err := alu.Div(v.reg(inst.Reg2), v.reg(inst.Reg3))
	if err != nil {
		return false, &Fault{Kind: DivisionByZero, PID: v.PID, PC: v.Regs.PC}
	}
	v.setReg(inst.Reg1, q.Resize(RegWidth))
	return false, nil
}

func hCmp(v *TVM, inst isa.Instruction) (bool, error) {
	v.Regs.Flags = ternary.Trit(alu.Cmp(v.reg(inst.Reg1), v.reg(inst.Reg2)))
	return false, nil
}

func hTest(v *TVM, inst isa.Instruction) (bool, error) {
	v.Regs.Flags = ternary.Trit(alu.Test(v.reg(inst.Reg1)))
	return false, nil
}

func hJmp(v *TVM, inst isa.Instruction) (bool, error) {
	v.Regs.PC = inst.Imm
	return true, nil
}

func hBranch(cond func(t ternary.Trit) bool) handlerFunc {
	return func(v *TVM, inst isa.Instruction) (bool, error) {
		if cond(ternary.Trit(alu.Test(v.reg(inst.Reg1)))) {
			v.Regs.PC = inst.Imm
			return true, nil
		}
		return false, nil
	}
}

func pushReturnAddr(v *TVM) error {
	stack := v.Mem.SegmentRange(memory.Stack)
	newSP := v.Regs.SP - RegWidth
	if newSP < stack.Start {
		return errors.New("stack overflow")
	}
	if err := v.Mem.StoreWord(newSP, ternary.WordFromInt(v.Regs.PC+1, RegWidth)); err != nil {
		return err
	}
	v.Regs.SP = newSP
	return nil
}

func hCall(v *TVM, inst isa.Instruction) (bool, error) {
	if err := pushReturnAddr(v); err != nil {
		return false, &Fault{Kind: StackOverflow, PID: v.PID, PC: v.Regs.PC}
	}
	v.Regs.PC = v.reg(inst.Reg1).Decimal()
	return true, nil
}

func hCallI(v *TVM, inst isa.Instruction) (bool, error) {
	if err := pushReturnAddr(v); err != nil {
		return false, &Fault{Kind: StackOverflow, PID: v.PID, PC: v.Regs.PC}
	}
	v.Regs.PC = inst.Imm
	return true, nil
}

func hRet(v *TVM, inst isa.Instruction) (bool, error) {
	stack := v.Mem.SegmentRange(memory.Stack)
	top := stack.Start + stack.Size
	if v.Regs.SP+RegWidth > top {
		return false, &Fault{Kind: StackUnderflow, PID: v.PID, PC: v.Regs.PC}
	}
	w, err := v.Mem.LoadWord(v.Regs.SP, RegWidth)
	if err != nil {
		return false, &Fault{Kind: StackUnderflow, PID: v.PID, PC: v.Regs.PC}
	}
	v.Regs.SP += RegWidth
	v.Regs.PC = w.Decimal()
	return true, nil
}

func hShiftRotate(op func(a ternary.Word, n int) ternary.Word) handlerFunc {
	return func(v *TVM, inst isa.Instruction) (bool, error) {
		v.setReg(inst.Reg1, op(v.reg(inst.Reg2), int(inst.Imm)).Resize(RegWidth))
		return false, nil
	}
}

func hSyscall(v *TVM, inst isa.Instruction) (bool, error) {
	// Transfers control to the external syscall dispatcher, which is the
	// host's responsibility to wire in; the core only surfaces the
	// syscall number via FLAGS-adjacent R0 convention and lets the host
	// resolve blocking through the Scheduler.
	v.Regs.R[isa.R0] = ternary.WordFromInt(inst.Imm, RegWidth)
	return false, nil
}

func hHalt(v *TVM, inst isa.Instruction) (bool, error) {
	v.halted = true
	return false, nil
}

func hNop(v *TVM, inst isa.Instruction) (bool, error) {
	return false, nil
}

func hBreak(v *TVM, inst isa.Instruction) (bool, error) {
	v.debug = true
	return false, nil
}

func hPrint(v *TVM, inst isa.Instruction) (bool, error) {
	v.Output.Push(v.reg(inst.Reg1))
	return false, nil
}

func hInput(v *TVM, inst isa.Instruction) (bool, error) {
	v.setReg(inst.Reg1, v.Input.Pop())
	return false, nil
}

func hPrintI(v *TVM, inst isa.Instruction) (bool, error) {
	v.Output.Push(ternary.WordFromInt(inst.Imm, RegWidth))
	return false, nil
}

func hPrintS(v *TVM, inst isa.Instruction) (bool, error) {
	v.Output.Push(ternary.WordFromInt(inst.Imm, RegWidth))
	return false, nil
}
