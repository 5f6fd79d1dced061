/*
 * T3VM - Interactive console session.
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

// Package console implements the interactive operator interface over one
// TVM: a liner-based prompt loop (reader.go) driving a small command
// dispatch table (parser.go) that steps, runs, and inspects the machine.
package console

import (
	"github.com/rcornwell/t3vm/scheduler"
	"github.com/rcornwell/t3vm/vm"
)

// Session bundles the state a console command needs: the TVM being
// driven and, when present, the scheduler multiplexing several of them.
type Session struct {
	VM        *vm.TVM
	Scheduler *scheduler.Scheduler
}

// NewSession constructs a console session over a single, unscheduled TVM.
func NewSession(v *vm.TVM) *Session {
	return &Session{VM: v}
}

// NewScheduledSession constructs a console session whose step/run commands
// also tick s, so quantum preemption and context switches exercise v.
func NewScheduledSession(v *vm.TVM, s *scheduler.Scheduler) *Session {
	return &Session{VM: v, Scheduler: s}
}

// run executes up to max instructions against the session's VM. With no
// attached Scheduler it is a plain TVM.Run. With one attached, it single
// steps and ticks the scheduler after every instruction, so a quantum
// expiry preempts the running process and loads the next one's register
// snapshot into the VM mid-run, the way a timer interrupt would.
func (sess *Session) run(max int64) (int64, error) {
	if sess.Scheduler == nil {
		return sess.VM.Run(max)
	}
	var n int64
	for n < max {
		if sess.VM.Halted() || sess.VM.InDebug() {
			break
		}
		ok, err := sess.VM.Step()
		if err != nil {
			return n, err
		}
		if !ok {
			break
		}
		n++
		sess.Scheduler.Tick()
	}
	return n, nil
}
