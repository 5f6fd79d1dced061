/*
 * T3VM - Mark-and-sweep garbage collector over registered heap objects.
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

// Package gc implements mark-and-sweep collection over an explicit
// object table rooted in a caller-managed root set. The collector reads
// heap memory through a Reader it does not own.
package gc

import "time"

// ReferenceStride is the number of trits scanned per candidate reference
// during the mark phase: the width of an instruction's immediate
// (address) field, so any heap address fits in one slice. An object
// smaller than the stride is read as one shorter slice, so its body is
// still scanned.
const ReferenceStride = 14

// Reader is the subset of memory access the collector needs to scan
// object bodies for candidate references. MemoryManager implements it.
type Reader interface {
	ReadTrits(addr int64, length int) ([]int8, error)
}

// Writer lets the sweep phase zero a reclaimed object's memory.
// MemoryManager implements it.
type Writer interface {
	ClearTrits(addr, size int64) error
}

// Object is one registered heap allocation.
type Object struct {
	Base      int64
	Size      int64
	Kind      string
	Marked    bool
	Timestamp int64
}

// Collector owns the object table and root set for one heap.
type Collector struct {
	objects   map[int64]*Object
	roots     map[int64]bool
	nextID    int64
	mem       Reader
	writer    Writer
	threshold float64
	minPeriod time.Duration
	lastRun   time.Time
	heapSize  int64
	stats     Stats
}

// Stats accumulates lifetime collector counters.
type Stats struct {
	Collections int64
	Reclaimed   int64
	LastCount   int
}

// New constructs a collector reading through mem, over a heap of
// heapSize trits, with the default 0.8 usage threshold and 1s minimum
// interval between collections.
func New(mem Reader, writer Writer, heapSize int64) *Collector {
	return &Collector{
		objects:   make(map[int64]*Object),
		roots:     make(map[int64]bool),
		mem:       mem,
		writer:    writer,
		threshold: 0.8,
		minPeriod: time.Second,
		heapSize:  heapSize,
	}
}

// Register adds a new object spanning [base, base+size) and returns its
// id.
func (c *Collector) Register(base, size int64, kind string) int64 {
	id := c.nextID
	c.nextID++
	c.objects[id] = &Object{Base: base, Size: size, Kind: kind}
	return id
}

// Unregister removes an object outright, without waiting for a sweep.
func (c *Collector) Unregister(id int64) {
	delete(c.objects, id)
	delete(c.roots, id)
}

// AddRoot marks id as implicitly live.
func (c *Collector) AddRoot(id int64) { c.roots[id] = true }

// RemoveRoot drops id from the root set; it remains live only if some
// other root reaches it.
func (c *Collector) RemoveRoot(id int64) { delete(c.roots, id) }

func (c *Collector) heapUsage() float64 {
	if c.heapSize == 0 {
		return 0
	}
	var used int64
	for _, o := range c.objects {
		used += o.Size
	}
	return float64(used) / float64(c.heapSize)
}

// ShouldCollect reports whether automatic collection policy (heap usage
// >= threshold and the minimum interval has elapsed since the last run,
// measured against now) would trigger a collection.
func (c *Collector) ShouldCollect(now time.Time) bool {
	if c.heapUsage() < c.threshold {
		return false
	}
	if c.lastRun.IsZero() {
		return true
	}
	return now.Sub(c.lastRun) >= c.minPeriod
}

// Collect runs one mark-and-sweep pass unconditionally and returns the
// count of reclaimed objects. ForceCollect is an alias kept for callers
// that want to bypass ShouldCollect explicitly.
func (c *Collector) Collect(now time.Time) int {
	for _, o := range c.objects {
		o.Marked = false
	}
	for id := range c.roots {
		c.mark(id)
	}
	reclaimed := 0
	for id, o := range c.objects {
		if o.Marked {
			continue
		}
		c.zero(o)
		delete(c.objects, id)
		delete(c.roots, id)
		reclaimed++
	}
	c.lastRun = now
	c.stats.Collections++
	c.stats.Reclaimed += int64(reclaimed)
	c.stats.LastCount = reclaimed
	return reclaimed
}

// ForceCollect runs Collect regardless of policy; it is what a host
// exposes as a manual "collect now" control.
func (c *Collector) ForceCollect(now time.Time) int { return c.Collect(now) }

func (c *Collector) mark(id int64) {
	o, ok := c.objects[id]
	if !ok || o.Marked {
		return
	}
	o.Marked = true
	if c.mem == nil {
		return
	}
	for off := int64(0); off < o.Size; off += ReferenceStride {
		n := int64(ReferenceStride)
		if off+n > o.Size {
			n = o.Size - off
		}
		trits, err := c.mem.ReadTrits(o.Base+off, int(n))
		if err != nil {
			continue
		}
		candidate := decodeDecimal(trits)
		for refID, ref := range c.objects {
			if ref.Base == candidate {
				c.mark(refID)
				break
			}
		}
	}
}

func decodeDecimal(trits []int8) int64 {
	var v int64
	pow := int64(1)
	for _, t := range trits {
		v += int64(t) * pow
		pow *= 3
	}
	return v
}

func (c *Collector) zero(o *Object) {
	if c.writer == nil {
		return
	}
	_ = c.writer.ClearTrits(o.Base, o.Size)
}

// Objects returns the live object count, for diagnostics.
func (c *Collector) Objects() int { return len(c.objects) }

// ObjectStats returns a copy of one registered object's bookkeeping.
func (c *Collector) ObjectStats(id int64) (Object, bool) {
	o, ok := c.objects[id]
	if !ok {
		return Object{}, false
	}
	return *o, true
}

// Statistics returns a copy of the collector's lifetime counters.
func (c *Collector) Statistics() Stats { return c.stats }
