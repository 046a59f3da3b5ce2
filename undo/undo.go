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


// Package undo implements the Glulx save-undo snapshot ring: a bounded
// history of complete machine states, each a deep clone of RAM, the
// call stack, and heap metadata.
//
// The ring is a fixed-size circular history, oldest entry silently
// discarded once it is full. Every snapshot is fully deep: RAM, each
// frame with its value stack and locals, and the heap bookkeeping maps
// are all copied, so no later mutation can reach back into history.
package undo

import (
	"github.com/erkyrath/glulxcore/frame"
	"github.com/erkyrath/glulxcore/heap"
	"github.com/erkyrath/glulxcore/internal/curated"
	"github.com/erkyrath/glulxcore/internal/logger"
)

// Snapshot is one saved machine state. DestType/DestAddr record the
// store destination of the saveundo opcode that took the snapshot, so
// that the restore can deliver -1 through it.
type Snapshot struct {
	RAM    []byte
	EndMem uint32
	PC     uint32

	DestType uint8
	DestAddr uint32

	Frames []*frame.Frame

	Heap heap.State
}

// Ring is a bounded circular buffer of snapshots, oldest discarded once
// capacity is exceeded.
type Ring struct {
	entries []Snapshot
	cap     int
}

// NewRing returns an empty ring bounded at capacity entries.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = 10
	}
	return &Ring{cap: capacity}
}

// Len returns the number of snapshots currently held.
func (r *Ring) Len() int {
	return len(r.entries)
}

// Push records a new snapshot, discarding the oldest if the ring is full.
func (r *Ring) Push(s Snapshot) {
	r.entries = append(r.entries, s)
	if len(r.entries) > r.cap {
		logger.Logf("undo", "ring full at %d entries, discarding oldest", r.cap)
		r.entries = r.entries[1:]
	}
}

// Pop removes and returns the most recent snapshot.
func (r *Ring) Pop() (Snapshot, error) {
	n := len(r.entries)
	if n == 0 {
		return Snapshot{}, curated.Errorf("undo", "no snapshot to restore")
	}
	s := r.entries[n-1]
	r.entries = r.entries[:n-1]
	return s, nil
}

// Build deep-clones the given state into a new Snapshot, copying only
// RAM ([ramstart, endmem); the caller passes that slice directly
// since only it owns ramstart).
func Build(ram []byte, endMem, pc uint32, destType uint8, destAddr uint32, frames []*frame.Frame, h *heap.Heap) Snapshot {
	ramCopy := make([]byte, len(ram))
	copy(ramCopy, ram)

	framesCopy := make([]*frame.Frame, len(frames))
	for i, f := range frames {
		framesCopy[i] = f.Clone()
	}

	return Snapshot{
		RAM:      ramCopy,
		EndMem:   endMem,
		PC:       pc,
		DestType: destType,
		DestAddr: destAddr,
		Frames:   framesCopy,
		Heap:     h.Export(),
	}
}
