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

// VMFunc, the per-function metadata record: starting address, function
// type, locals format, derived locals index, and the three per-iosys
// path caches. ROM functions are memoized in State.romFuncs; RAM
// functions are built fresh on every call and thrown away, since the
// bytes they were parsed from may since have changed.
package vm

import (
	"github.com/erkyrath/glulxcore/compiler"
	"github.com/erkyrath/glulxcore/frame"
	"github.com/erkyrath/glulxcore/internal/curated"
)

// Function type bytes.
const (
	FuncTypeStackArgs uint8 = 0xC0
	FuncTypeLocalArgs uint8 = 0xC1
)

// VMFunc is the metadata the dispatcher and path compiler need to run
// calls into one Glulx function.
type VMFunc struct {
	Addr      uint32
	FuncType  uint8
	CodeStart uint32

	LocalsIndex   []frame.LocalSlot
	LocalsLen     uint32 // unaligned byte length of the locals area
	AlignedLocals uint32 // locals area length, rounded up to 4 bytes
	RawFormatLen  uint32 // locals-format bytes, zero-padded to 4 bytes

	// Paths caches one compiled Path per (iosysmode, entry pc).
	Paths [3]map[uint32]compiler.Path
	// Known records addresses already established as path-entry points
	// for this function, so compiler.Decode knows where to stop.
	Known map[uint32]bool
}

func newVMFunc(addr uint32) *VMFunc {
	return &VMFunc{
		Addr:  addr,
		Known: make(map[uint32]bool),
		Paths: [3]map[uint32]compiler.Path{
			make(map[uint32]compiler.Path),
			make(map[uint32]compiler.Path),
			make(map[uint32]compiler.Path),
		},
	}
}

// buildVMFunc parses the function header at addr: a function-type byte
// followed by a locals-format list of (size, count) byte pairs terminated
// by (0, 0), padded to a 4-byte boundary.
func buildVMFunc(mem *Memory, addr uint32) (*VMFunc, error) {
	fn := newVMFunc(addr)

	fn.FuncType = mem.Mem1(addr)
	if fn.FuncType != FuncTypeStackArgs && fn.FuncType != FuncTypeLocalArgs {
		return nil, curated.Errorf("opcode", "unrecognised function type %#x at %#x", fn.FuncType, addr)
	}

	pos := addr + 1
	var rawLen uint32
	var bytePos uint32

	for {
		size := mem.Mem1(pos)
		count := mem.Mem1(pos + 1)
		pos += 2
		rawLen += 2

		if size == 0 && count == 0 {
			break
		}
		if size != 1 && size != 2 && size != 4 {
			return nil, curated.Errorf("opcode", "invalid locals size %d at %#x", size, pos-2)
		}

		if size > 1 && bytePos%uint32(size) != 0 {
			bytePos += uint32(size) - bytePos%uint32(size)
		}
		for i := uint8(0); i < count; i++ {
			fn.LocalsIndex = append(fn.LocalsIndex, frame.LocalSlot{Size: size, BytePos: bytePos})
			bytePos += uint32(size)
		}
	}

	fn.LocalsLen = bytePos
	fn.AlignedLocals = (bytePos + 3) &^ 3
	// the raw format bytes are zero-padded to a word boundary in the
	// frame's serialized form only; in the image the code follows the
	// terminating (0,0) pair immediately.
	fn.RawFormatLen = (rawLen + 3) &^ 3
	fn.CodeStart = addr + 1 + rawLen

	return fn, nil
}

// getVMFunc resolves addr to a VMFunc, memoizing ROM functions globally
// and constructing RAM functions fresh every time.
func (s *State) getVMFunc(addr uint32) (*VMFunc, error) {
	if addr < s.mem.RAMStart() {
		if fn, ok := s.romFuncs[addr]; ok {
			return fn, nil
		}
		fn, err := buildVMFunc(s.mem, addr)
		if err != nil {
			return nil, err
		}
		s.romFuncs[addr] = fn
		return fn, nil
	}
	return buildVMFunc(s.mem, addr)
}

// pathCache returns the path cache for the given iosysmode, or nil for
// an out-of-range mode (the caller should treat that as "never cache").
func (fn *VMFunc) pathCache(iosysmode uint32) map[uint32]compiler.Path {
	if int(iosysmode) >= len(fn.Paths) {
		return nil
	}
	return fn.Paths[iosysmode]
}
