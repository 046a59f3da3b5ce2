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

package strdec_test

import (
	"testing"

	"github.com/erkyrath/glulxcore/frame"
	"github.com/erkyrath/glulxcore/internal/test"
	"github.com/erkyrath/glulxcore/strdec"
)

// fakeHost backs the decoder with a byte slice and records output and
// sub-function entries.
type fakeHost struct {
	mem    []byte
	mode   strdec.IOSysMode
	rock   uint32
	pc     uint32
	fr     *frame.Frame
	out    []rune
	enters []enter
}

type enter struct {
	addr uint32
	args []uint32
}

func (h *fakeHost) Mem1(addr uint32) uint8 { return h.mem[addr] }
func (h *fakeHost) Mem4(addr uint32) uint32 {
	return uint32(h.mem[addr])<<24 | uint32(h.mem[addr+1])<<16 |
		uint32(h.mem[addr+2])<<8 | uint32(h.mem[addr+3])
}
func (h *fakeHost) IOSysMode() strdec.IOSysMode { return h.mode }
func (h *fakeHost) IOSysRock() uint32           { return h.rock }
func (h *fakeHost) PC() uint32                  { return h.pc }
func (h *fakeHost) SetPC(pc uint32)             { h.pc = pc }
func (h *fakeHost) PutGlk(ch rune) error {
	h.out = append(h.out, ch)
	return nil
}
func (h *fakeHost) CurrentFrame() *frame.Frame { return h.fr }
func (h *fakeHost) EnterFunction(addr uint32, args []uint32) error {
	h.enters = append(h.enters, enter{addr, args})
	return nil
}

// buildTable assembles a string table whose tree encodes: 0 -> 'A',
// 10 -> terminator, 11 -> 'B'. Returns the table address and a host
// over the assembled memory.
func buildTable() (*fakeHost, uint32) {
	mem := make([]byte, 0x100)
	put4 := func(addr, v uint32) {
		mem[addr] = byte(v >> 24)
		mem[addr+1] = byte(v >> 16)
		mem[addr+2] = byte(v >> 8)
		mem[addr+3] = byte(v)
	}

	const table = 0x10
	const root = 0x30
	const leafA = 0x40
	const branch2 = 0x44
	const leafTerm = 0x50
	const leafB = 0x54

	put4(table, 0x60)  // table length
	put4(table+4, 5)   // node count
	put4(table+8, root)

	mem[root] = 0x00
	put4(root+1, leafA)
	put4(root+5, branch2)

	mem[leafA] = 0x02
	mem[leafA+1] = 'A'

	mem[branch2] = 0x00
	put4(branch2+1, leafTerm)
	put4(branch2+5, leafB)

	mem[leafTerm] = 0x01

	mem[leafB] = 0x02
	mem[leafB+1] = 'B'

	h := &fakeHost{
		mem:  mem,
		mode: strdec.IOSysGlk,
		pc:   0x999,
		fr:   frame.NewFrame(nil, nil, 0, 0, 8),
	}
	return h, table
}

// putString writes a compressed 0xE1 string with the given bits, packed
// least-significant first.
func putString(h *fakeHost, addr uint32, bits ...int) {
	h.mem[addr] = 0xE1
	for i, b := range bits {
		if b != 0 {
			h.mem[addr+1+uint32(i/8)] |= 1 << (i % 8)
		}
	}
}

func TestDecodeGlk(t *testing.T) {
	h, table := buildTable()
	tree := strdec.BuildTree(h, table, uint32(len(h.mem)))

	// "AB" then terminator: 0, 11, 10.
	putString(h, 0x80, 0, 1, 1, 1, 0)

	pure, err := strdec.Print(h, tree, 0x80)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, pure, true)
	test.ExpectEquality(t, string(h.out), "AB")
	test.ExpectEquality(t, h.fr.Count(), 0)
	test.ExpectEquality(t, h.pc, uint32(0x999))
}

func TestDecodeNull(t *testing.T) {
	h, table := buildTable()
	h.mode = strdec.IOSysNull
	tree := strdec.BuildTree(h, table, uint32(len(h.mem)))

	putString(h, 0x80, 0, 1, 1, 1, 0)

	_, err := strdec.Print(h, tree, 0x80)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, len(h.out), 0)
}

func TestDecodeFilterSuspends(t *testing.T) {
	h, table := buildTable()
	h.mode = strdec.IOSysFilter
	h.rock = 0xF00
	tree := strdec.BuildTree(h, table, uint32(len(h.mem)))

	putString(h, 0x80, 0, 1, 1, 1, 0)

	pure, err := strdec.Print(h, tree, 0x80)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, pure, false)

	// the filter function was entered with 'A' under a terminator stub
	// and a resume stub.
	test.ExpectEquality(t, len(h.enters), 1)
	test.ExpectEquality(t, h.enters[0].addr, uint32(0xF00))
	test.ExpectEquality(t, h.enters[0].args[0], uint32('A'))
	test.ExpectEquality(t, h.fr.Count(), 8)

	// play the part of the dispatcher: the filter function returned, so
	// pop the resume stub and continue decoding.
	stub := h.fr.PopStub()
	test.ExpectEquality(t, stub.DestType, frame.DestResumeString)

	err = strdec.ResumeCompressed(h, tree, stub.ReturnPC, stub.DestAddr)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, len(h.enters), 2)
	test.ExpectEquality(t, h.enters[1].args[0], uint32('B'))

	// after the final character's callback, the terminator stub ends
	// the string and restores the PC.
	stub = h.fr.PopStub()
	err = strdec.ResumeCompressed(h, tree, stub.ReturnPC, stub.DestAddr)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, len(h.enters), 2)
	test.ExpectEquality(t, h.fr.Count(), 0)
	test.ExpectEquality(t, h.pc, uint32(0x999))
}

func TestEmbeddedCString(t *testing.T) {
	h, table := buildTable()
	tree := strdec.BuildTree(h, table, uint32(len(h.mem)))

	// repoint leaf 'B' to a C-string node "hi".
	h.mem[0x54] = 0x03
	h.mem[0x55] = 'h'
	h.mem[0x56] = 'i'
	h.mem[0x57] = 0

	// "A" then the C-string, then terminator.
	putString(h, 0x80, 0, 1, 1, 1, 0)

	_, err := strdec.Print(h, tree, 0x80)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, string(h.out), "Ahi")
	test.ExpectEquality(t, h.fr.Count(), 0)
	test.ExpectEquality(t, h.pc, uint32(0x999))
}

func TestIndirectFunction(t *testing.T) {
	h, table := buildTable()
	tree := strdec.BuildTree(h, table, uint32(len(h.mem)))

	// repoint leaf 'B' to an indirect reference to a function object.
	const fn = 0xA0
	h.mem[fn] = 0xC1
	h.mem[0x54] = 0x08
	h.mem[0x55] = 0
	h.mem[0x56] = 0
	h.mem[0x57] = 0
	h.mem[0x58] = fn

	putString(h, 0x80, 0, 1, 1, 1, 0)

	_, err := strdec.Print(h, tree, 0x80)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, string(h.out), "A")
	test.ExpectEquality(t, len(h.enters), 1)
	test.ExpectEquality(t, h.enters[0].addr, uint32(fn))

	// resume after the function's return: terminator follows.
	stub := h.fr.PopStub()
	test.ExpectEquality(t, stub.DestType, frame.DestResumeString)
	err = strdec.ResumeCompressed(h, tree, stub.ReturnPC, stub.DestAddr)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, h.fr.Count(), 0)
}

func TestPrintTaggedCString(t *testing.T) {
	h, table := buildTable()
	tree := strdec.BuildTree(h, table, uint32(len(h.mem)))

	h.mem[0x90] = 0xE0
	copy(h.mem[0x91:], "plain")

	pure, err := strdec.Print(h, tree, 0x90)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, pure, true)
	test.ExpectEquality(t, string(h.out), "plain")
}

func TestPrintNonString(t *testing.T) {
	h, table := buildTable()
	tree := strdec.BuildTree(h, table, uint32(len(h.mem)))

	h.mem[0x90] = 0xC0 // a function is not printable

	_, err := strdec.Print(h, tree, 0x90)
	test.ExpectFailure(t, err)
}

func TestPrintNum(t *testing.T) {
	h, _ := buildTable()

	test.ExpectSuccess(t, strdec.PrintNum(h, 12))
	test.ExpectEquality(t, string(h.out), "12")

	h.out = nil
	test.ExpectSuccess(t, strdec.PrintNum(h, -3))
	test.ExpectEquality(t, string(h.out), "-3")

	h.out = nil
	test.ExpectSuccess(t, strdec.PrintNum(h, 0))
	test.ExpectEquality(t, string(h.out), "0")

	h.out = nil
	test.ExpectSuccess(t, strdec.PrintNum(h, -2147483648))
	test.ExpectEquality(t, string(h.out), "-2147483648")
}

func TestPrintNumFilter(t *testing.T) {
	h, _ := buildTable()
	h.mode = strdec.IOSysFilter
	h.rock = 0xF00

	test.ExpectSuccess(t, strdec.PrintNum(h, 42))
	test.ExpectEquality(t, len(h.enters), 1)
	test.ExpectEquality(t, h.enters[0].args[0], uint32('4'))

	stub := h.fr.PopStub()
	test.ExpectEquality(t, stub.DestType, frame.DestResumeNumber)
	test.ExpectEquality(t, int32(stub.ReturnPC), int32(42))
	test.ExpectEquality(t, stub.DestAddr, uint32(1))

	var tree strdec.Tree
	test.ExpectSuccess(t, strdec.ResumeNum(h, tree, int32(stub.ReturnPC), stub.DestAddr))
	test.ExpectEquality(t, h.enters[1].args[0], uint32('2'))

	stub = h.fr.PopStub()
	test.ExpectSuccess(t, strdec.ResumeNum(h, tree, int32(stub.ReturnPC), stub.DestAddr))
	test.ExpectEquality(t, h.fr.Count(), 0)
	test.ExpectEquality(t, h.pc, uint32(0x999))
}
