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

// State is the single owning record of the machine: every VM register,
// the call stack, the heap, the undo ring, and the ROM path/function
// caches hang off one value, passed explicitly rather than living
// behind package-level globals.
package vm

import (
	"github.com/erkyrath/glulxcore/compiler"
	"github.com/erkyrath/glulxcore/frame"
	"github.com/erkyrath/glulxcore/glk"
	"github.com/erkyrath/glulxcore/heap"
	"github.com/erkyrath/glulxcore/internal/curated"
	"github.com/erkyrath/glulxcore/internal/prefs"
	"github.com/erkyrath/glulxcore/internal/vmstats"
	"github.com/erkyrath/glulxcore/loader"
	"github.com/erkyrath/glulxcore/strdec"
	"github.com/erkyrath/glulxcore/undo"
)

// IOSys mode values.
const (
	IOSysNull   uint32 = 0
	IOSysFilter uint32 = 1
	IOSysGlk    uint32 = 2
)

// State is the whole Glulx machine: registers, memory, call stack, heap,
// undo ring, and path caches.
type State struct {
	mem *Memory

	header   loader.Header
	romImage []byte // pristine bytes, for Verify and Restart

	pc          uint32
	stringtable uint32
	iosysmode   uint32
	iosysrock   uint32

	frames []*frame.Frame
	off    compiler.Offstack

	romFuncs map[uint32]*VMFunc
	textEnvs map[uint32]*strdec.TextEnv

	heap *heap.Heap
	undo *undo.Ring

	rng       randSource
	glkDisp   glk.Dispatcher
	saveStore glk.SaveStore

	options *prefs.Options
	stats   *vmstats.Counters

	accelFuncs  map[uint32]uint32
	accelParams map[uint32]uint32

	done       bool
	quit       bool
	terminated bool
	quitErr    error
}

// New constructs a State from a freshly loaded, validated image and a
// host-provided Glk dispatcher. It does not run anything; call Init to
// bring the machine to its first suspension point.
func New(hdr loader.Header, image []byte, dispatcher glk.Dispatcher, saveStore glk.SaveStore, opts *prefs.Options) *State {
	if opts == nil {
		opts = prefs.NewOptions()
	}
	romImage := make([]byte, len(image))
	copy(romImage, image)

	// the live image extends to origendmem, zero-filled past the file's
	// own bytes.
	initial := make([]byte, hdr.OrigEndMem)
	copy(initial, image)

	s := &State{
		mem:         NewMemory(initial, hdr.RAMStart, hdr.OrigEndMem),
		header:      hdr,
		romImage:    romImage,
		stringtable: hdr.OrigStringTable,
		iosysmode:   IOSysNull,
		romFuncs:    make(map[uint32]*VMFunc),
		textEnvs:    make(map[uint32]*strdec.TextEnv),
		heap:        heap.New(),
		undo:        undo.NewRing(opts.UndoMaxEntries.Get()),
		glkDisp:     dispatcher,
		saveStore:   saveStore,
		options:     opts,
		stats:       vmstats.NewCounters(),
		accelFuncs:  make(map[uint32]uint32),
		accelParams: make(map[uint32]uint32),
	}
	s.rng = newRandSource(int32(opts.RandomSeed.Get()))
	return s
}

// Stats exposes the VM's activity counters, for the optional vmstats
// dashboard and for the host's own introspection.
func (s *State) Stats() *vmstats.Counters { return s.stats }

// HeapState returns a deep copy of the heap's bookkeeping, for hosts
// and debug tooling.
func (s *State) HeapState() heap.State { return s.heap.Export() }

// --- memory image passthrough (opcode.Machine) ---

func (s *State) Mem1(addr uint32) uint8     { return s.mem.Mem1(addr) }
func (s *State) Mem2(addr uint32) uint16    { return s.mem.Mem2(addr) }
func (s *State) Mem4(addr uint32) uint32    { return s.mem.Mem4(addr) }
func (s *State) MemW1(addr uint32, v uint8)  { s.mem.MemW1(addr, v) }
func (s *State) MemW2(addr uint32, v uint16) { s.mem.MemW2(addr, v) }
func (s *State) MemW4(addr uint32, v uint32) { s.mem.MemW4(addr, v) }

// RAMStart satisfies decode.Mem, used when resolving local/memory
// operands during path compilation and execution.
func (s *State) RAMStart() uint32 { return s.mem.RAMStart() }

// --- registers ---

func (s *State) PC() uint32     { return s.pc }
func (s *State) SetPC(pc uint32) { s.pc = pc }

func (s *State) StringTbl() uint32        { return s.stringtable }
func (s *State) SetStringTbl(addr uint32) { s.stringtable = addr }

func (s *State) IOSysMode() uint32 { return s.iosysmode }
func (s *State) IOSysRock() uint32 { return s.iosysrock }

// SetIOSys implements setiosys. A mode outside {0,1,2} is simply
// stored; the first stream opcode to run against it fails.
func (s *State) SetIOSys(mode, rock uint32) {
	s.iosysmode = mode
	s.iosysrock = rock
}

// --- call stack ---

// CurrentFrame returns the innermost (most recent) call frame.
func (s *State) CurrentFrame() *frame.Frame {
	return s.frames[len(s.frames)-1]
}

func (s *State) frameDepth() int { return len(s.frames) }

// Quit implements the quit opcode: the machine is done executing and
// will not be resumed.
func (s *State) Quit() {
	s.done = true
	s.quit = true
}

// Done reports whether the dispatch loop should stop.
func (s *State) Done() bool { return s.done }

// --- offstack-backed value stack (decode.Stack) ---

// Push defers v onto the offstack, standing in for the frame's real
// value stack until the next flush.
func (s *State) Push(v uint32) { s.off.Push(v) }

// Pop consumes from the offstack first, falling through to the current
// frame's real value stack once the offstack is empty.
func (s *State) Pop() uint32 {
	if s.off.Len() > 0 {
		return s.off.Pop()
	}
	return s.CurrentFrame().Pop()
}

func (s *State) flushOffstack() {
	s.off.Flush(s.CurrentFrame())
}

// PushStub pushes a call stub through the offstack-aware path so any
// pending deferred values are flushed first; a stub must land on the
// real stack at a well-known position. The frame-start
// word is always the current frame's, whatever the caller filled in.
func (s *State) PushStub(stub frame.CallStub) {
	s.flushOffstack()
	fr := s.CurrentFrame()
	stub.FrameStart = fr.FrameStart
	fr.PushStub(stub)
}

// --- direct stack-manipulation opcodes ---

func (s *State) StackCount() uint32 {
	return uint32(s.off.Len() + s.CurrentFrame().Count())
}

func (s *State) StackPeek(i uint32) uint32 {
	if int(i) < s.off.Len() {
		return s.off.Peek(int(i))
	}
	return s.CurrentFrame().Peek(int(i) - s.off.Len())
}

func (s *State) StackSwap() {
	s.off.Swap(s.CurrentFrame())
}

func (s *State) StackCopy(n uint32) {
	s.flushOffstack()
	s.CurrentFrame().Copy(int(n))
}

func (s *State) StackRoll(n uint32, places int32) {
	s.flushOffstack()
	s.CurrentFrame().Roll(int(n), int(places))
}

// --- misc memory-opcode helpers ---

func (s *State) MZero(length, addr uint32) {
	for i := uint32(0); i < length; i++ {
		s.mem.MemW1(addr+i, 0)
	}
}

// MCopy copies length bytes from src to dest, resolving overlap the same
// way the spec's testable property demands: forward when dest < src,
// backward otherwise.
func (s *State) MCopy(length, src, dest uint32) {
	if dest < src {
		for i := uint32(0); i < length; i++ {
			s.mem.MemW1(dest+i, s.mem.Mem1(src+i))
		}
		return
	}
	for i := length; i > 0; i-- {
		s.mem.MemW1(dest+i-1, s.mem.Mem1(src+i-1))
	}
}

func (s *State) Protect(start, length uint32) {
	s.mem.SetProtectedRange(start, length)
}

func (s *State) MemSize() uint32 { return s.mem.EndMem() }

func (s *State) SetMemSize(newLen uint32) error {
	return s.mem.ChangeMemSize(newLen, false, s.heap.Active())
}

// --- heap opcodes ---

// heapResizer adapts *Memory's 3-argument ChangeMemSize (which also
// gates external setmemsize calls against an active heap) to the
// 2-argument shape heap.MemoryResizer declares: heap-driven resizes are
// always internal and never subject to that gate.
type heapResizer struct{ mem *Memory }

func (r heapResizer) EndMem() uint32 { return r.mem.EndMem() }
func (r heapResizer) ChangeMemSize(newLen uint32, internal bool) error {
	return r.mem.ChangeMemSize(newLen, internal, false)
}

func (s *State) Malloc(size uint32) (uint32, error) {
	addr, err := s.heap.Malloc(heapResizer{s.mem}, size)
	s.stats.SetHeapBlocks(s.heap.Count())
	return addr, err
}

func (s *State) MFree(addr uint32) error {
	err := s.heap.Free(heapResizer{s.mem}, addr)
	s.stats.SetHeapBlocks(s.heap.Count())
	return err
}

// --- accelerated-function opcodes ---

// AccelFunc and AccelParam record their arguments but never change how a
// call is dispatched: accelerated functions are always run through the
// ordinary interpreter. Real Glulx games tolerate this (they only lose
// the speedup). The recorded mappings are kept on the State but nothing
// reads them back, and gestalt reports no acceleration support.
func (s *State) AccelFunc(index, addr uint32)  { s.accelFuncs[index] = addr }
func (s *State) AccelParam(index, value uint32) { s.accelParams[index] = value }

// fatalf forwards to the internal curated package so other files in this
// package can report fatal errors without importing curated themselves
// at every call site.
func fatalf(tag, format string, args ...interface{}) error {
	return curated.Errorf(tag, format, args...)
}
