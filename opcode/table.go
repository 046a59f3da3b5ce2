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

// Package opcode is the enumerated opcode contract: the operand-slot
// layout and handler for every recognised opcode, keyed by opcode
// number. vm/dispatch.go drives this table; it never hard-codes
// an opcode's shape itself.
package opcode

import (
	"github.com/erkyrath/glulxcore/compiler"
	"github.com/erkyrath/glulxcore/decode"
	"github.com/erkyrath/glulxcore/frame"
)

// Machine is everything a handler needs from the running VM. vm.State
// implements it; handlers never see vm.State's concrete type, the same
// dependency-inversion shape used between heap/search/strdec and vm.
type Machine interface {
	Store(f decode.Field, v uint32)

	Mem1(addr uint32) uint8
	Mem2(addr uint32) uint16
	Mem4(addr uint32) uint32
	MemW1(addr uint32, v uint8)
	MemW2(addr uint32, v uint16)
	MemW4(addr uint32, v uint32)

	PC() uint32
	SetPC(addr uint32)

	CurrentFrame() *frame.Frame
	PushStub(s frame.CallStub)

	EnterFunction(addr uint32, args []uint32) error
	TailCall(addr uint32, args []uint32) error
	Return(value uint32) error

	// Catch pushes a call stub for dest (with ReturnPC taken from the
	// current PC, which the catch handler has already advanced past the
	// instruction) and stores the resulting stack offset token through
	// dest. The branch itself is the handler's job.
	Catch(dest decode.Field)
	Throw(value, target uint32) error

	StreamChar(ch byte) error
	StreamUniChar(ch rune) error
	StreamNum(value int32) error
	StreamStr(addr uint32) error

	Gestalt(selector, extra uint32) uint32
	MemSize() uint32
	SetMemSize(newLen uint32) error

	Random(rng int32) uint32
	SetRandom(seed int32)

	MZero(length, addr uint32)
	MCopy(length, src, dest uint32)
	Protect(start, length uint32)

	StringTbl() uint32
	SetStringTbl(addr uint32)
	IOSysMode() uint32
	IOSysRock() uint32
	SetIOSys(mode, rock uint32)

	Verify() bool

	// SaveUndo and Save record the store destination of the triggering
	// opcode inside the snapshot, so that a later restore can deliver -1
	// through it (the Glulx convention for "you are here because a
	// restore happened").
	SaveUndo(destType uint8, destAddr uint32) (bool, error)
	RestoreUndo() (bool, error)
	Save(destType uint8, destAddr uint32) (bool, error)
	Restore() (bool, error)

	LinearSearch(key, keysize, start, structsize uint32, numstructs int32, keyoffset, options uint32) uint32
	BinarySearch(key, keysize, start, structsize uint32, numstructs int32, keyoffset, options uint32) uint32
	LinkedSearch(key, keysize, start, keyoffset, nextoffset, options uint32) uint32

	Malloc(size uint32) (uint32, error)
	MFree(addr uint32) error

	AccelFunc(index, addr uint32)
	AccelParam(index, value uint32)

	Glk(selector uint32, args []uint32) (uint32, bool, error)

	Quit()
	Restart() error

	StackCount() uint32
	StackPeek(i uint32) uint32
	StackSwap()
	StackCopy(n uint32)
	StackRoll(n uint32, places int32)
}

// Handler executes one decoded Micro instruction.
type Handler func(m Machine, mi compiler.Micro, loads []uint32) error

// Spec is one opcode's full contract entry: its compiler-facing shape
// (compiler.OpInfo) and its runtime handler.
type Spec struct {
	Name string
	Info compiler.OpInfo
	Run  Handler
}

var table = map[uint32]Spec{}

func register(code uint32, name string, slots []compiler.SlotKind, terminal bool, run Handler) {
	table[code] = Spec{
		Name: name,
		Info: compiler.OpInfo{Slots: slots, ArgSize: 4, Terminal: terminal},
		Run:  run,
	}
}

// registerSized is register for the two opcodes whose data accesses are
// narrower than a word (copys, copyb).
func registerSized(code uint32, name string, slots []compiler.SlotKind, argSize uint8, run Handler) {
	table[code] = Spec{
		Name: name,
		Info: compiler.OpInfo{Slots: slots, ArgSize: argSize},
		Run:  run,
	}
}

// Lookup adapts the table to compiler.Lookup.
func Lookup(code uint32) (compiler.OpInfo, bool) {
	s, ok := table[code]
	if !ok {
		return compiler.OpInfo{}, false
	}
	return s.Info, true
}

// Get returns the full Spec for an opcode, for the dispatcher to run.
func Get(code uint32) (Spec, bool) {
	s, ok := table[code]
	return s, ok
}

// Opcode numbers, following the Glulx specification's assignments.
const (
	OpNop = 0x00

	OpAdd     = 0x10
	OpSub     = 0x11
	OpMul     = 0x12
	OpDiv     = 0x13
	OpMod     = 0x14
	OpNeg     = 0x15
	OpBitAnd  = 0x18
	OpBitOr   = 0x19
	OpBitXor  = 0x1A
	OpBitNot  = 0x1B
	OpShiftL  = 0x1C
	OpSShiftR = 0x1D
	OpUShiftR = 0x1E

	OpJump = 0x20
	OpJZ   = 0x22
	OpJNZ  = 0x23
	OpJEq  = 0x24
	OpJNe  = 0x25
	OpJLt  = 0x26
	OpJGe  = 0x27
	OpJGt  = 0x28
	OpJLe  = 0x29
	OpJLtU = 0x2A
	OpJGeU = 0x2B
	OpJGtU = 0x2C
	OpJLeU = 0x2D

	OpCall     = 0x30
	OpReturn   = 0x31
	OpCatch    = 0x32
	OpThrow    = 0x33
	OpTailCall = 0x34

	OpCopy  = 0x40
	OpCopyS = 0x41
	OpCopyB = 0x42
	OpSexS  = 0x44
	OpSexB  = 0x45

	OpALoad     = 0x48
	OpALoadS    = 0x49
	OpALoadB    = 0x4A
	OpALoadBit  = 0x4B
	OpAStore    = 0x4C
	OpAStoreS   = 0x4D
	OpAStoreB   = 0x4E
	OpAStoreBit = 0x4F

	OpStkCount = 0x50
	OpStkPeek  = 0x51
	OpStkSwap  = 0x52
	OpStkRoll  = 0x53
	OpStkCopy  = 0x54

	OpStreamChar    = 0x70
	OpStreamNum     = 0x71
	OpStreamStr     = 0x72
	OpStreamUniChar = 0x73

	OpGestalt    = 0x100
	OpDebugTrap  = 0x101
	OpGetMemSize = 0x102
	OpSetMemSize = 0x103
	OpJumpAbs    = 0x104

	OpRandom    = 0x110
	OpSetRandom = 0x111

	OpQuit        = 0x120
	OpVerify      = 0x121
	OpRestart     = 0x122
	OpSave        = 0x123
	OpRestore     = 0x124
	OpSaveUndo    = 0x125
	OpRestoreUndo = 0x126
	OpProtect     = 0x127

	OpGlk = 0x130

	OpGetStringTbl = 0x140
	OpSetStringTbl = 0x141

	OpGetIOSys = 0x148
	OpSetIOSys = 0x149

	OpLinearSearch = 0x150
	OpBinarySearch = 0x151
	OpLinkedSearch = 0x152

	OpCallF    = 0x160
	OpCallFI   = 0x161
	OpCallFII  = 0x162
	OpCallFIII = 0x163

	OpMZero = 0x170
	OpMCopy = 0x171

	OpMAlloc = 0x178
	OpMFree  = 0x179

	OpAccelFunc  = 0x180
	OpAccelParam = 0x181
)
