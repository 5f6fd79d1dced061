/*
 * T3VM - Segmented linear ternary memory.
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

// Package memory implements the linear trit array backing a single TVM
// instance: one contiguous array of trits partitioned into five fixed
// segments (code, data, stack, heap, kernel).
//
// Unlike the teacher's package-level memory singleton, Memory here is an
// instance struct: the platform allows multiple coexisting VMs, each with
// its own address space.
package memory

import (
	"errors"
	"fmt"

	"github.com/rcornwell/t3vm/ternary"
)

// PageSize is the fixed page width in trits.
const PageSize = 27

// SegmentID identifies one of the five fixed memory segments.
type SegmentID int

const (
	Code SegmentID = iota
	Data
	Stack
	Heap
	Kernel
	numSegments
)

func (s SegmentID) String() string {
	switch s {
	case Code:
		return "code"
	case Data:
		return "data"
	case Stack:
		return "stack"
	case Heap:
		return "heap"
	case Kernel:
		return "kernel"
	default:
		return "unknown"
	}
}

// Segment describes one region's [Start, Start+Size) trit range.
type Segment struct {
	Start int64
	Size  int64
}

// ErrAddressOutOfRange is returned when an address or range is not fully
// contained within the memory's total size.
var ErrAddressOutOfRange = errors.New("memory: address out of range")

// ErrSegmentSizeMismatch is returned by CopySegment when the two segments
// differ in size.
var ErrSegmentSizeMismatch = errors.New("memory: segment size mismatch")

// Memory is one VM's linear trit array. It is not safe for concurrent use
// without external synchronization; callers serialize access the way the
// TVM fetch loop does, one instruction dispatch at a time.
type Memory struct {
	trits    []ternary.Trit
	size     int64
	pages    int64
	segments [numSegments]Segment
}

// New constructs a Memory of total size n trits, rounded up to a whole
// number of 27-trit pages, and lays out the five fixed segments: code,
// data, stack, heap each floor(pages/4), kernel = remainder.
func New(n int64) *Memory {
	if n <= 0 {
		n = PageSize
	}
	pages := (n + PageSize - 1) / PageSize
	quarter := pages / 4
	total := pages * PageSize

	m := &Memory{
		trits: make([]ternary.Trit, total),
		size:  total,
		pages: pages,
	}

	offset := int64(0)
	for _, seg := range []SegmentID{Code, Data, Stack, Heap} {
		m.segments[seg] = Segment{Start: offset, Size: quarter * PageSize}
		offset += quarter * PageSize
	}
	m.segments[Kernel] = Segment{Start: offset, Size: total - offset}
	return m
}

// Size returns the total memory size in trits.
func (m *Memory) Size() int64 { return m.size }

// Pages returns the total page count.
func (m *Memory) Pages() int64 { return m.pages }

// SegmentRange returns the [start, start+size) trit range of a segment.
func (m *Memory) SegmentRange(s SegmentID) Segment { return m.segments[s] }

func (m *Memory) checkAddr(addr int64) error {
	if addr < 0 || addr >= m.size {
		return fmt.Errorf("%w: %d", ErrAddressOutOfRange, addr)
	}
	return nil
}

func (m *Memory) checkRange(addr, length int64) error {
	if addr < 0 || length < 0 || addr+length > m.size {
		return fmt.Errorf("%w: [%d,%d)", ErrAddressOutOfRange, addr, addr+length)
	}
	return nil
}

// LoadTrit reads the trit at addr.
func (m *Memory) LoadTrit(addr int64) (ternary.Trit, error) {
	if err := m.checkAddr(addr); err != nil {
		return ternary.Neutral, err
	}
	return m.trits[addr], nil
}

// StoreTrit writes t at addr.
func (m *Memory) StoreTrit(addr int64, t ternary.Trit) error {
	if err := m.checkAddr(addr); err != nil {
		return err
	}
	m.trits[addr] = t
	return nil
}

// LoadWord reads length trits starting at addr, least-significant first,
// into a Word. Crossing a segment boundary is permitted; only the total
// size bounds the read.
func (m *Memory) LoadWord(addr int64, length int) (ternary.Word, error) {
	if err := m.checkRange(addr, int64(length)); err != nil {
		return ternary.Word{}, err
	}
	trits := make([]ternary.Trit, length)
	copy(trits, m.trits[addr:addr+int64(length)])
	return ternary.WordFromTrits(trits), nil
}

// StoreWord writes w's trits starting at addr.
func (m *Memory) StoreWord(addr int64, w ternary.Word) error {
	if err := m.checkRange(addr, int64(w.Len())); err != nil {
		return err
	}
	copy(m.trits[addr:addr+int64(w.Len())], w.Trits())
	return nil
}

// CopySegment copies src's contents into dst; both must be equal size.
func (m *Memory) CopySegment(src, dst SegmentID) error {
	s, d := m.segments[src], m.segments[dst]
	if s.Size != d.Size {
		return ErrSegmentSizeMismatch
	}
	copy(m.trits[d.Start:d.Start+d.Size], m.trits[s.Start:s.Start+s.Size])
	return nil
}

// ClearSegment zeroes every trit in the given segment.
func (m *Memory) ClearSegment(s SegmentID) {
	seg := m.segments[s]
	for i := seg.Start; i < seg.Start+seg.Size; i++ {
		m.trits[i] = ternary.Neutral
	}
}

// Dump returns a defensive copy of trits in [addr, addr+length) for debug
// inspection.
func (m *Memory) Dump(addr int64, length int) (ternary.Word, error) {
	return m.LoadWord(addr, length)
}
