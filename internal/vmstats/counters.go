// This file is part of glulxcore.
//
// glulxcore is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// glulxcore is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with glulxcore.  If not, see <https://www.gnu.org/licenses/>.

// Package vmstats is the VM's runtime-introspection surface: a set of
// atomic activity counters the dispatcher, heap and undo ring update at
// opcode boundaries, and an optional live HTTP dashboard (statsview)
// that graphs them while a story runs.
package vmstats

import "sync/atomic"

// Counters is the set of activity gauges the VM maintains. All fields
// are updated with atomic operations: the dashboard's HTTP goroutine
// reads them while the dispatch loop runs.
type Counters struct {
	pathHits     int64
	pathCompiles int64
	heapBlocks   int64
	undoDepth    int64
}

// NewCounters returns a zeroed counter set.
func NewCounters() *Counters {
	return &Counters{}
}

// PathHit records a path-cache hit.
func (c *Counters) PathHit() { atomic.AddInt64(&c.pathHits, 1) }

// PathCompile records a path compilation (cache miss or RAM path).
func (c *Counters) PathCompile() { atomic.AddInt64(&c.pathCompiles, 1) }

// SetHeapBlocks records the current number of live heap blocks.
func (c *Counters) SetHeapBlocks(n int) { atomic.StoreInt64(&c.heapBlocks, int64(n)) }

// SetUndoDepth records the current undo-ring occupancy.
func (c *Counters) SetUndoDepth(n int) { atomic.StoreInt64(&c.undoDepth, int64(n)) }

// PathHits returns the number of path-cache hits so far.
func (c *Counters) PathHits() int64 { return atomic.LoadInt64(&c.pathHits) }

// PathCompiles returns the number of path compilations so far.
func (c *Counters) PathCompiles() int64 { return atomic.LoadInt64(&c.pathCompiles) }

// HeapBlocks returns the current number of live heap blocks.
func (c *Counters) HeapBlocks() int64 { return atomic.LoadInt64(&c.heapBlocks) }

// UndoDepth returns the current undo-ring occupancy.
func (c *Counters) UndoDepth() int64 { return atomic.LoadInt64(&c.undoDepth) }
