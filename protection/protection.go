/*
 * T3VM - Per-address memory protection.
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

// Package protection implements the per-address protection map:
// level/security stamping, access checks, and a bounded violation log.
package protection

// Level is a per-address protection level.
type Level int

const (
	None Level = iota
	ReadOnly
	ReadWrite
	Execute
	RWX
)

// Security is a caller's security level; higher values can access
// entries requiring lower-or-equal security.
type Security int

const (
	User Security = iota
	Kernel
	Supervisor
)

func (s Security) String() string {
	switch s {
	case User:
		return "user"
	case Kernel:
		return "kernel"
	case Supervisor:
		return "supervisor"
	default:
		return "unknown"
	}
}

// AccessKind is the kind of access being checked.
type AccessKind int

const (
	Read AccessKind = iota
	Write
	Exec
)

func (k AccessKind) permittedBy(l Level) bool {
	switch k {
	case Read:
		return l == ReadOnly || l == ReadWrite || l == RWX
	case Write:
		return l == ReadWrite || l == RWX
	case Exec:
		return l == Execute || l == RWX
	default:
		return false
	}
}

// entry is one protected address's stamped level/security requirement.
type entry struct {
	level    Level
	required Security
}

// Violation is one logged denial.
type Violation struct {
	Addr     int64
	Kind     AccessKind
	Caller   Security
	Required Security
}

const violationRingSize = 1000

// Map is the address -> protection entry table, plus the bounded
// violation ring and counter. Addresses with no entry are unrestricted.
type Map struct {
	entries    map[int64]entry
	violations []Violation
	ringHead   int
	violated   int64
}

// New constructs an empty protection map.
func New() *Map {
	return &Map{entries: make(map[int64]entry)}
}

// Set stamps every address in [start, start+size) with level and the
// required security.
func (m *Map) Set(start, size int64, level Level, required Security) {
	for a := start; a < start+size; a++ {
		m.entries[a] = entry{level: level, required: required}
	}
}

// Clear removes protection stamps from [start, start+size).
func (m *Map) Clear(start, size int64) {
	for a := start; a < start+size; a++ {
		delete(m.entries, a)
	}
}

// Check reports whether caller at callerSecurity may perform kind over
// [addr, addr+size). Unstamped addresses are always allowed. The first
// denial along the range is logged; Check returns false immediately.
func (m *Map) Check(addr, size int64, kind AccessKind, callerSecurity Security) bool {
	for a := addr; a < addr+size; a++ {
		e, ok := m.entries[a]
		if !ok {
			continue
		}
		if callerSecurity < e.required || !kind.permittedBy(e.level) {
			m.logViolation(Violation{Addr: a, Kind: kind, Caller: callerSecurity, Required: e.required})
			return false
		}
	}
	return true
}

func (m *Map) logViolation(v Violation) {
	if len(m.violations) < violationRingSize {
		m.violations = append(m.violations, v)
	} else {
		m.violations[m.ringHead] = v
		m.ringHead = (m.ringHead + 1) % violationRingSize
	}
	m.violated++
}

// Violations returns a defensive copy of the current violation ring,
// oldest-retained first.
func (m *Map) Violations() []Violation {
	out := make([]Violation, 0, len(m.violations))
	out = append(out, m.violations[m.ringHead:]...)
	out = append(out, m.violations[:m.ringHead]...)
	return out
}

// ViolationCount returns the cumulative number of denials, which may
// exceed len(Violations()) once the ring has wrapped.
func (m *Map) ViolationCount() int64 { return m.violated }
