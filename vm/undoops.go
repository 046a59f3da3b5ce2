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

// saveundo/restoreundo: deep snapshots of RAM, frames
// and heap bookkeeping, held in a bounded ring.
package vm

import (
	"github.com/erkyrath/glulxcore/undo"
)

// SaveUndo takes a snapshot of the current machine state. The PC has
// already been advanced past the saveundo instruction by its handler,
// so the snapshot resumes there; destType/destAddr record where -1 is
// delivered on restore.
func (s *State) SaveUndo(destType uint8, destAddr uint32) (bool, error) {
	s.undo.Push(undo.Build(s.mem.RAMSlice(), s.mem.EndMem(), s.pc, destType, destAddr, s.frames, s.heap))
	s.stats.SetUndoDepth(s.undo.Len())
	return true, nil
}

// RestoreUndo pops the most recent snapshot and reinstates it: RAM
// (with the protected range re-applied), endmem, PC, every frame, and
// the heap maps. The saveundo that took the snapshot then receives -1
// through its recorded store destination. Returns false
// when there is nothing to restore.
func (s *State) RestoreUndo() (bool, error) {
	snap, err := s.undo.Pop()
	if err != nil {
		return false, nil
	}
	s.stats.SetUndoDepth(s.undo.Len())
	s.reinstate(snap)
	return true, nil
}

// reinstate replaces the live machine state with a snapshot's.
func (s *State) reinstate(snap undo.Snapshot) {
	protected := s.mem.CopyProtectedRange()
	s.mem.ReplaceRAM(snap.RAM)
	s.mem.PasteProtectedRange(protected)

	s.frames = s.frames[:0]
	for _, f := range snap.Frames {
		s.frames = append(s.frames, f.Clone())
	}
	s.off.Discard()

	s.heap.Import(snap.Heap)
	s.stats.SetHeapBlocks(s.heap.Count())

	s.pc = snap.PC
	s.storeDest(snap.DestType, snap.DestAddr, 0xFFFFFFFF)
}
