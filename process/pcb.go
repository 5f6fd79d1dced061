/*
 * T3VM - Process control block.
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

// Package process defines the Process Control Block and its lifecycle.
// The Scheduler is the sole owner of PCB state and register snapshots;
// the TVM mutates only the snapshot of the currently running PCB,
// publishing it back on context switch.
package process

import "github.com/rcornwell/t3vm/protection"

// State is a PCB's lifecycle state.
type State int

const (
	Ready State = iota
	Running
	Blocked
	Zombie
	Terminated
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Blocked:
		return "blocked"
	case Zombie:
		return "zombie"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// RegisterSnapshot is the saved register file of a non-running process.
type RegisterSnapshot struct {
	R      [8]int64
	PC     int64
	SP     int64
	FP     int64
	Flags  int64
}

// SegmentDescriptor records one memory-segment allocation owned by a
// process: its virtual start, size, and the set of virtual pages backing
// it.
type SegmentDescriptor struct {
	Start int64
	Size  int64
	Pages []int64
}

// Counters accumulates a process's cumulative cost statistics.
type Counters struct {
	CPUTime        int64
	ContextSwitches int64
	PageFaults     int64
	Syscalls       int64
	IO             int64
}

// PCB is one process's full control block.
type PCB struct {
	PID      int64
	Name     string
	ParentPID int64
	Children []int64

	State    State
	Priority int
	Security protection.Security

	Registers RegisterSnapshot

	Code, Data, Stack, Heap SegmentDescriptor
	MemoryLimit             int64

	FileDescriptors map[int]string

	Counters Counters

	PermissionFlags uint32
	PendingSignals  []int
	SignalHandlers  map[int]string
	ResourceQuotas  map[string]int64
	Environment     map[string]string
	WorkingDir      string
	Umask           uint32
	Argv            []string
	Envp            []string
	Capabilities    map[string]bool
	HardLimits      map[string]int64

	QuantumUsed int
}

// New constructs a fresh PCB in the Ready state.
func New(pid int64, name string, parentPID int64, priority int, security protection.Security) *PCB {
	return &PCB{
		PID:             pid,
		Name:            name,
		ParentPID:       parentPID,
		State:           Ready,
		Priority:        priority,
		Security:        security,
		FileDescriptors: make(map[int]string),
		SignalHandlers:  make(map[int]string),
		ResourceQuotas:  make(map[string]int64),
		Environment:     make(map[string]string),
		Capabilities:    make(map[string]bool),
		HardLimits:      make(map[string]int64),
	}
}

// AddChild records a child pid.
func (p *PCB) AddChild(pid int64) { p.Children = append(p.Children, pid) }

// Terminate transitions the PCB to Terminated from any state.
func (p *PCB) Terminate() { p.State = Terminated }

// Reap transitions a Terminated PCB to Zombie, where it awaits reaping
// by its parent.
func (p *PCB) Reap() {
	if p.State == Terminated {
		p.State = Zombie
	}
}
