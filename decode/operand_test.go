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

package decode_test

import (
	"testing"

	"github.com/erkyrath/glulxcore/decode"
	"github.com/erkyrath/glulxcore/internal/test"
)

// sliceMem is a throwaway decode.Mem over a byte slice with a fixed
// ramstart.
type sliceMem struct {
	bytes    []byte
	ramstart uint32
}

func (m *sliceMem) Mem1(addr uint32) uint8 { return m.bytes[addr] }
func (m *sliceMem) Mem2(addr uint32) uint16 {
	return uint16(m.bytes[addr])<<8 | uint16(m.bytes[addr+1])
}
func (m *sliceMem) Mem4(addr uint32) uint32 {
	return uint32(m.bytes[addr])<<24 | uint32(m.bytes[addr+1])<<16 |
		uint32(m.bytes[addr+2])<<8 | uint32(m.bytes[addr+3])
}
func (m *sliceMem) MemW1(addr uint32, v uint8) { m.bytes[addr] = v }
func (m *sliceMem) MemW2(addr uint32, v uint16) {
	m.bytes[addr] = byte(v >> 8)
	m.bytes[addr+1] = byte(v)
}
func (m *sliceMem) MemW4(addr uint32, v uint32) {
	m.bytes[addr] = byte(v >> 24)
	m.bytes[addr+1] = byte(v >> 16)
	m.bytes[addr+2] = byte(v >> 8)
	m.bytes[addr+3] = byte(v)
}
func (m *sliceMem) RAMStart() uint32 { return m.ramstart }

// fakeLocals records local traffic.
type fakeLocals struct {
	vals map[uint32]uint32
}

func (l *fakeLocals) LocalGet(i uint32) uint32 { return l.vals[i] }
func (l *fakeLocals) LocalSet(i uint32, v uint32) {
	l.vals[i] = v
}

// fakeStack is a plain slice stack.
type fakeStack struct {
	vals []uint32
}

func (s *fakeStack) Pop() uint32 {
	v := s.vals[len(s.vals)-1]
	s.vals = s.vals[:len(s.vals)-1]
	return v
}
func (s *fakeStack) Push(v uint32) { s.vals = append(s.vals, v) }

func TestModeNibbles(t *testing.T) {
	// three operands packed into two bytes, low nibble first.
	mem := &sliceMem{bytes: []byte{0x81, 0x03}}

	modes, next, err := decode.DecodeModeNibbles(mem, 0, 3)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, next, uint32(2))
	test.ExpectEquality(t, modes[0], uint8(1))
	test.ExpectEquality(t, modes[1], uint8(8))
	test.ExpectEquality(t, modes[2], uint8(3))
}

func TestModeNibblesInvalid(t *testing.T) {
	mem := &sliceMem{bytes: []byte{0x04}} // mode 4 is not assigned

	_, _, err := decode.DecodeModeNibbles(mem, 0, 1)
	test.ExpectFailure(t, err)
}

func TestFieldSignExtension(t *testing.T) {
	mem := &sliceMem{bytes: []byte{0xFF, 0xFF, 0x80}}

	f, next, err := decode.DecodeField(mem, 0, 1, 4)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, next, uint32(1))
	test.ExpectEquality(t, f.Value, uint32(0xFFFFFFFF))

	f, _, err = decode.DecodeField(mem, 1, 2, 4)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, f.Value, uint32(0xFFFFFF80))
}

func TestFieldRAMRelative(t *testing.T) {
	mem := &sliceMem{bytes: []byte{0x10}, ramstart: 0x200}

	f, _, err := decode.DecodeField(mem, 0, 13, 4)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, f.Value, uint32(0x210))
}

func TestLoadStoreModes(t *testing.T) {
	mem := &sliceMem{bytes: make([]byte, 32), ramstart: 16}
	locals := &fakeLocals{vals: map[uint32]uint32{4: 77}}
	stack := &fakeStack{vals: []uint32{42}}

	test.ExpectEquality(t, decode.Load(mem, locals, stack, decode.Field{Mode: 0, ArgSize: 4}), uint32(0))
	test.ExpectEquality(t, decode.Load(mem, locals, stack, decode.Field{Mode: 1, Value: 9, ArgSize: 4}), uint32(9))
	test.ExpectEquality(t, decode.Load(mem, locals, stack, decode.Field{Mode: 8, ArgSize: 4}), uint32(42))
	test.ExpectEquality(t, decode.Load(mem, locals, stack, decode.Field{Mode: 9, Value: 4, ArgSize: 4}), uint32(77))

	mem.MemW4(8, 0xCAFEBABE)
	test.ExpectEquality(t, decode.Load(mem, locals, stack, decode.Field{Mode: 7, Value: 8, ArgSize: 4}), uint32(0xCAFEBABE))

	decode.Store(mem, locals, stack, decode.Field{Mode: 8, ArgSize: 4}, 11)
	test.ExpectEquality(t, stack.Pop(), uint32(11))

	decode.Store(mem, locals, stack, decode.Field{Mode: 9, Value: 4, ArgSize: 4}, 13)
	test.ExpectEquality(t, locals.vals[4], uint32(13))

	decode.Store(mem, locals, stack, decode.Field{Mode: 5, Value: 20, ArgSize: 4}, 0x01020304)
	test.ExpectEquality(t, mem.Mem4(20), uint32(0x01020304))
}

func TestMemoryAccessWidthFollowsArgSize(t *testing.T) {
	mem := &sliceMem{bytes: make([]byte, 16)}
	mem.MemW4(0, 0xAABBCCDD)

	// a 1-byte address field does not imply a 1-byte access: the data
	// width comes from the opcode.
	f := decode.Field{Mode: 5, Value: 0, ArgSize: 4}
	test.ExpectEquality(t, decode.Load(mem, nil, nil, f), uint32(0xAABBCCDD))

	f.ArgSize = 2
	test.ExpectEquality(t, decode.Load(mem, nil, nil, f), uint32(0xAABB))

	f.ArgSize = 1
	test.ExpectEquality(t, decode.Load(mem, nil, nil, f), uint32(0xAA))

	decode.Store(mem, nil, nil, decode.Field{Mode: 5, Value: 8, ArgSize: 2}, 0x1234)
	test.ExpectEquality(t, mem.Mem2(8), uint16(0x1234))
	test.ExpectEquality(t, mem.Mem1(10), uint8(0)) // no spill past the width
}
