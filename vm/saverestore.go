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

// The save/restore opcodes, routed to the host's external serializer
// rather than stubbed out. The wire format is this interpreter's
// own: it serializes the same snapshot the undo ring keeps, prefixed
// with the game signature so a mismatched file is rejected on restore.
package vm

import (
	"bytes"
	"encoding/binary"

	"github.com/erkyrath/glulxcore/frame"
	"github.com/erkyrath/glulxcore/heap"
	"github.com/erkyrath/glulxcore/undo"
)

var saveMagic = [4]byte{'G', 'C', 'S', 'V'}

// Save serializes the machine state through the host's SaveStore. With
// no store wired, save reports failure (result 1) rather than lying
// about success. destType/destAddr are recorded so the matching restore
// delivers -1 through them.
func (s *State) Save(destType uint8, destAddr uint32) (bool, error) {
	if s.saveStore == nil {
		return false, nil
	}

	snap := undo.Build(s.mem.RAMSlice(), s.mem.EndMem(), s.pc, destType, destAddr, s.frames, s.heap)
	data, err := serializeSnapshot(s.Signature(), snap)
	if err != nil {
		return false, fatalf("host", "serializing save state", err)
	}

	ok, err := s.saveStore.Save(data)
	if err != nil {
		return false, fatalf("host", "save store rejected state", err)
	}
	return ok, nil
}

// Restore retrieves a snapshot from the host's SaveStore and reinstates
// it. Returns false (result 1) when there is nothing to restore or no
// store is wired; a malformed or mismatched file is a host-layer fatal
// error.
func (s *State) Restore() (bool, error) {
	if s.saveStore == nil {
		return false, nil
	}

	data, ok, err := s.saveStore.Restore()
	if err != nil {
		return false, fatalf("host", "save store failed to restore", err)
	}
	if !ok {
		return false, nil
	}

	snap, err := deserializeSnapshot(s.Signature(), data)
	if err != nil {
		return false, err
	}
	s.reinstate(snap)
	return true, nil
}

func serializeSnapshot(signature string, snap undo.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(saveMagic[:])
	writeBytes(&buf, []byte(signature))

	w := func(v uint32) { binary.Write(&buf, binary.BigEndian, v) }
	w(snap.EndMem)
	w(snap.PC)
	w(uint32(snap.DestType))
	w(snap.DestAddr)
	writeBytes(&buf, snap.RAM)

	w(uint32(len(snap.Frames)))
	for _, f := range snap.Frames {
		w(f.FuncAddr)
		w(f.Depth)
		w(f.FrameStart)
		w(f.FrameLen)
		writeBytes(&buf, f.Locals)
		w(uint32(len(f.LocalsIndex)))
		for _, slot := range f.LocalsIndex {
			w(uint32(slot.Size))
			w(slot.BytePos)
		}
		w(uint32(len(f.Stack)))
		for _, v := range f.Stack {
			w(v)
		}
	}

	writeHeapState(&buf, snap.Heap)
	return buf.Bytes(), nil
}

func deserializeSnapshot(signature string, data []byte) (undo.Snapshot, error) {
	r := &reader{data: data}

	var magic [4]byte
	copy(magic[:], r.bytesN(4))
	if magic != saveMagic {
		return undo.Snapshot{}, fatalf("host", "not a saved state file")
	}
	if string(r.lenBytes()) != signature {
		return undo.Snapshot{}, fatalf("host", "saved state belongs to a different game")
	}

	var snap undo.Snapshot
	snap.EndMem = r.u32()
	snap.PC = r.u32()
	snap.DestType = uint8(r.u32())
	snap.DestAddr = r.u32()
	snap.RAM = append([]byte(nil), r.lenBytes()...)

	nframes := r.u32()
	for i := uint32(0); i < nframes; i++ {
		f := &frame.Frame{}
		f.FuncAddr = r.u32()
		f.Depth = r.u32()
		f.FrameStart = r.u32()
		f.FrameLen = r.u32()
		f.Locals = append([]byte(nil), r.lenBytes()...)
		nslots := r.u32()
		for j := uint32(0); j < nslots; j++ {
			size := uint8(r.u32())
			pos := r.u32()
			f.LocalsIndex = append(f.LocalsIndex, frame.LocalSlot{Size: size, BytePos: pos})
		}
		nstack := r.u32()
		for j := uint32(0); j < nstack; j++ {
			f.Stack = append(f.Stack, r.u32())
		}
		snap.Frames = append(snap.Frames, f)
	}

	snap.Heap = readHeapState(r)
	if r.failed {
		return undo.Snapshot{}, fatalf("host", "truncated saved state file")
	}
	return snap, nil
}

func writeBytes(buf *bytes.Buffer, b []byte) {
	binary.Write(buf, binary.BigEndian, uint32(len(b)))
	buf.Write(b)
}

func writeHeapState(buf *bytes.Buffer, hs heap.State) {
	w := func(v uint32) { binary.Write(buf, binary.BigEndian, v) }
	w(hs.HeapStart)
	if hs.Active {
		w(1)
	} else {
		w(0)
	}
	writeMap(buf, hs.UsedHeads)
	writeMap(buf, hs.FreeHeads)
	writeMap(buf, hs.FreeTails)
}

func writeMap(buf *bytes.Buffer, m map[uint32]uint32) {
	w := func(v uint32) { binary.Write(buf, binary.BigEndian, v) }
	w(uint32(len(m)))
	for k, v := range m {
		w(k)
		w(v)
	}
}

func readHeapState(r *reader) heap.State {
	hs := heap.State{}
	hs.HeapStart = r.u32()
	hs.Active = r.u32() != 0
	hs.UsedHeads = readMap(r)
	hs.FreeHeads = readMap(r)
	hs.FreeTails = readMap(r)
	return hs
}

func readMap(r *reader) map[uint32]uint32 {
	n := r.u32()
	m := make(map[uint32]uint32, n)
	for i := uint32(0); i < n; i++ {
		k := r.u32()
		v := r.u32()
		m[k] = v
	}
	return m
}

// reader is a failure-latching cursor over a saved state's bytes.
type reader struct {
	data   []byte
	pos    int
	failed bool
}

func (r *reader) bytesN(n int) []byte {
	if r.pos+n > len(r.data) {
		r.failed = true
		return make([]byte, n)
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *reader) u32() uint32 {
	return binary.BigEndian.Uint32(r.bytesN(4))
}

func (r *reader) lenBytes() []byte {
	n := r.u32()
	if r.failed || int(n) > len(r.data)-r.pos {
		r.failed = true
		return nil
	}
	return r.bytesN(int(n))
}
