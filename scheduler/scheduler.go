/*
 * T3VM - Preemptive process scheduler.
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

// Package scheduler implements the PCB table and the five scheduling
// policies (round-robin, priority, multilevel, SJF, FCFS) with
// time-quantum preemption and context-switch sequencing.
package scheduler

import (
	"errors"
	"log/slog"

	"github.com/rcornwell/t3vm/process"
	"github.com/rcornwell/t3vm/protection"
	"github.com/rcornwell/t3vm/vm"
)

// Policy selects among the five scheduling disciplines.
type Policy int

const (
	RoundRobin Policy = iota
	Priority
	Multilevel
	SJF
	FCFS
)

func (p Policy) String() string {
	switch p {
	case RoundRobin:
		return "round-robin"
	case Priority:
		return "priority"
	case Multilevel:
		return "multilevel"
	case SJF:
		return "sjf"
	case FCFS:
		return "fcfs"
	default:
		return "unknown"
	}
}

// DefaultQuantum is the default tick count before quantum-based
// preemption.
const DefaultQuantum = 100

// ErrUnknownPID is returned by operations on a pid not in the PCB table.
var ErrUnknownPID = errors.New("scheduler: unknown pid")

// Stats accumulates lifetime scheduler counters.
type Stats struct {
	ContextSwitches int64
	Preemptions     int64
}

// Scheduler owns the PCB table and queue bookkeeping for one VM's
// process set. It is not safe for concurrent use; the concurrency model
// (§5) confines scheduler mutation to a single thread.
type Scheduler struct {
	policy   Policy
	quantum  int
	pcbs     map[int64]*process.PCB
	ready    []int64
	blocked  []int64
	priQueue [4][]int64
	running  int64 // 0 means none; pids start at 1
	nextPID  int64
	stats    Stats
	tvm      *vm.TVM
}

// AttachTVM binds the TVM instance a context switch saves the outgoing
// process's registers from and loads the incoming process's registers
// into. Without an attached TVM (tests that only exercise PCB bookkeeping)
// Schedule/Tick still run the policy and queue transitions, just without
// touching any register file.
func (s *Scheduler) AttachTVM(t *vm.TVM) { s.tvm = t }

// saveRunning copies the attached TVM's live register file into the
// currently running PCB's snapshot, if both exist. Call this before any
// transition that clears s.running, so the outgoing process's state
// survives until it is next dispatched.
func (s *Scheduler) saveRunning() {
	if s.tvm == nil || s.running == 0 {
		return
	}
	if p, ok := s.pcbs[s.running]; ok {
		p.Registers = s.tvm.SaveSnapshot()
	}
}

// New constructs an empty scheduler using the given policy and quantum.
func New(policy Policy, quantum int) *Scheduler {
	if quantum <= 0 {
		quantum = DefaultQuantum
	}
	return &Scheduler{
		policy:  policy,
		quantum: quantum,
		pcbs:    make(map[int64]*process.PCB),
		nextPID: 1,
	}
}

// CreateProcess allocates a pid, constructs a ready PCB, and enqueues it.
func (s *Scheduler) CreateProcess(name string, priority int) *process.PCB {
	pid := s.nextPID
	s.nextPID++
	p := process.New(pid, name, 0, priority, protection.User)
	if s.tvm != nil {
		p.Registers = s.tvm.ResetSnapshot()
	}
	s.pcbs[pid] = p
	s.enqueueReady(pid)
	return p
}

func (s *Scheduler) enqueueReady(pid int64) {
	s.ready = append(s.ready, pid)
	if s.policy == Multilevel {
		level := s.clampPriority(s.pcbs[pid].Priority)
		s.priQueue[level] = append(s.priQueue[level], pid)
	}
}

func (s *Scheduler) clampPriority(p int) int {
	if p < 0 {
		return 0
	}
	if p > 3 {
		return 3
	}
	return p
}

func removePID(list []int64, pid int64) []int64 {
	out := list[:0]
	for _, v := range list {
		if v != pid {
			out = append(out, v)
		}
	}
	return out
}

// Terminate marks pid terminated and removes it from all queues. If it
// was running, schedule-next fires immediately.
func (s *Scheduler) Terminate(pid int64) error {
	p, ok := s.pcbs[pid]
	if !ok {
		return ErrUnknownPID
	}
	p.Terminate()
	s.ready = removePID(s.ready, pid)
	s.blocked = removePID(s.blocked, pid)
	for i := range s.priQueue {
		s.priQueue[i] = removePID(s.priQueue[i], pid)
	}
	if s.running == pid {
		s.running = 0
		s.Schedule()
	}
	return nil
}

// Block marks pid blocked and moves it from ready to the blocked queue.
// If it was running, schedule-next fires immediately.
func (s *Scheduler) Block(pid int64) error {
	p, ok := s.pcbs[pid]
	if !ok {
		return ErrUnknownPID
	}
	p.State = process.Blocked
	s.ready = removePID(s.ready, pid)
	for i := range s.priQueue {
		s.priQueue[i] = removePID(s.priQueue[i], pid)
	}
	wasRunning := s.running == pid
	if wasRunning {
		s.saveRunning()
		s.running = 0
	}
	s.blocked = append(s.blocked, pid)
	if wasRunning {
		s.Schedule()
	}
	return nil
}

// Unblock moves pid from blocked back to ready.
func (s *Scheduler) Unblock(pid int64) error {
	p, ok := s.pcbs[pid]
	if !ok {
		return ErrUnknownPID
	}
	p.State = process.Ready
	s.blocked = removePID(s.blocked, pid)
	s.enqueueReady(pid)
	return nil
}

// PCB returns the PCB for pid, if present.
func (s *Scheduler) PCB(pid int64) (*process.PCB, bool) {
	p, ok := s.pcbs[pid]
	return p, ok
}

// Running returns the currently running pid, or 0 if none.
func (s *Scheduler) Running() int64 { return s.running }

// Schedule selects the next pid per policy and performs a context
// switch, returning the newly running pid (0 if none runnable).
func (s *Scheduler) Schedule() int64 {
	next := s.pick()
	if next == 0 {
		return 0
	}
	s.switchTo(next)
	return next
}

func (s *Scheduler) pick() int64 {
	switch s.policy {
	case RoundRobin, FCFS:
		return s.popReadyHead()
	case Priority:
		return s.popMaxPriority()
	case Multilevel:
		return s.popMultilevelHead()
	case SJF:
		return s.popMinPriority()
	default:
		return s.popReadyHead()
	}
}

// popReadyHead pops and returns the ready queue's head pid. The dispatched
// pid leaves the ready queue entirely (it becomes running); round-robin
// rotation happens when a running process is preempted back to ready and
// appended at the tail, not here.
func (s *Scheduler) popReadyHead() int64 {
	if len(s.ready) == 0 {
		return 0
	}
	pid := s.ready[0]
	s.ready = s.ready[1:]
	return pid
}

func (s *Scheduler) popMaxPriority() int64 {
	if len(s.ready) == 0 {
		return 0
	}
	best := 0
	for i, pid := range s.ready {
		if s.pcbs[pid].Priority > s.pcbs[s.ready[best]].Priority {
			best = i
		}
	}
	pid := s.ready[best]
	s.ready = append(s.ready[:best], s.ready[best+1:]...)
	return pid
}

func (s *Scheduler) popMinPriority() int64 {
	if len(s.ready) == 0 {
		return 0
	}
	best := 0
	for i, pid := range s.ready {
		if s.pcbs[pid].Priority < s.pcbs[s.ready[best]].Priority {
			best = i
		}
	}
	pid := s.ready[best]
	s.ready = append(s.ready[:best], s.ready[best+1:]...)
	return pid
}

func (s *Scheduler) popMultilevelHead() int64 {
	for level := 3; level >= 0; level-- {
		if len(s.priQueue[level]) > 0 {
			pid := s.priQueue[level][0]
			s.priQueue[level] = s.priQueue[level][1:]
			s.ready = removePID(s.ready, pid)
			return pid
		}
	}
	return 0
}

// switchTo loads the incoming pid's snapshot into the running slot,
// zeroes its quantum counter, and bumps the context-switch counter. Any
// outgoing process has already been moved out of the running slot (and,
// if still ready, back onto the ready queue) by the caller — Terminate,
// Block, and Tick each own that transition for their own reason code.
func (s *Scheduler) switchTo(pid int64) {
	incoming := s.pcbs[pid]
	incoming.State = process.Running
	incoming.QuantumUsed = 0
	if s.tvm != nil {
		s.tvm.LoadSnapshot(incoming.Registers)
	}
	s.running = pid
	s.stats.ContextSwitches++
	slog.Debug("context switch", "pid", pid, "switches", s.stats.ContextSwitches)
}

// Tick advances the running process's quantum counter; at or past the
// configured quantum it preempts (running -> ready, appended to the
// ready queue's tail) and invokes Schedule. Returns true if a
// preemption occurred.
func (s *Scheduler) Tick() bool {
	if s.running == 0 {
		return false
	}
	p := s.pcbs[s.running]
	p.QuantumUsed++
	p.Counters.CPUTime++
	if p.QuantumUsed < s.quantum {
		return false
	}
	p.State = process.Ready
	s.enqueueReady(p.PID)
	s.saveRunning()
	s.running = 0
	s.stats.Preemptions++
	slog.Debug("quantum expired, preempting", "pid", p.PID, "quantum", s.quantum)
	s.Schedule()
	return true
}

// Statistics returns a copy of the scheduler's lifetime counters.
func (s *Scheduler) Statistics() Stats { return s.stats }

// PIDs returns every pid currently in the PCB table, for invariant
// checks (the union of ready+blocked+running+terminated+zombie pids is
// exactly the PCB set).
func (s *Scheduler) PIDs() []int64 {
	out := make([]int64, 0, len(s.pcbs))
	for pid := range s.pcbs {
		out = append(out, pid)
	}
	return out
}
