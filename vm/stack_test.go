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

package vm_test

import (
	"testing"

	"github.com/erkyrath/glulxcore/internal/imgbuild"
	"github.com/erkyrath/glulxcore/internal/test"
	"github.com/erkyrath/glulxcore/opcode"
	"github.com/erkyrath/glulxcore/vm"
)

func TestStkCountAndPeek(t *testing.T) {
	b := imgbuild.New()
	start := b.FuncLocal(3)
	b.Instr(opcode.OpCopy, imgbuild.Imm(11), imgbuild.Stack())
	b.Instr(opcode.OpCopy, imgbuild.Imm(22), imgbuild.Stack())
	b.Instr(opcode.OpStkCount, imgbuild.Local(0))
	b.Instr(opcode.OpStkPeek, imgbuild.Imm(0), imgbuild.Local(1))
	b.Instr(opcode.OpStkPeek, imgbuild.Imm(1), imgbuild.Local(2))
	b.Instr(opcode.OpQuit)

	st, _ := runImage(t, b.Finalize(start, 0, 0))
	fr := st.CurrentFrame()
	test.ExpectEquality(t, fr.LocalGet(0), uint32(2))
	test.ExpectEquality(t, fr.LocalGet(4), uint32(22))
	test.ExpectEquality(t, fr.LocalGet(8), uint32(11))
}

func TestStkCopyAndRoll(t *testing.T) {
	b := imgbuild.New()
	start := b.FuncLocal(2)
	b.Instr(opcode.OpCopy, imgbuild.Imm(1), imgbuild.Stack())
	b.Instr(opcode.OpCopy, imgbuild.Imm(2), imgbuild.Stack())
	b.Instr(opcode.OpCopy, imgbuild.Imm(3), imgbuild.Stack())
	// duplicate the top two: 1 2 3 2 3
	b.Instr(opcode.OpStkCopy, imgbuild.Imm(2))
	// rotate the top three up by one: 1 2 3 3 2
	b.Instr(opcode.OpStkRoll, imgbuild.Imm(3), imgbuild.Imm(1))
	b.Instr(opcode.OpCopy, imgbuild.Stack(), imgbuild.Local(0))
	b.Instr(opcode.OpStkCount, imgbuild.Local(1))
	b.Instr(opcode.OpQuit)

	st, _ := runImage(t, b.Finalize(start, 0, 0))
	fr := st.CurrentFrame()

	// stack before the roll, bottom to top: 1 2 3 2 3. rolling the top
	// three by one moves the old top beneath them: 1 2 3 3 2... the
	// popped value is the new top.
	test.ExpectEquality(t, fr.LocalGet(0), uint32(2))
	test.ExpectEquality(t, fr.LocalGet(4), uint32(4))
}

func TestThrowWithoutCatchIsFatal(t *testing.T) {
	b := imgbuild.New()
	start := b.FuncLocal(0)
	b.Instr(opcode.OpThrow, imgbuild.Imm(1), imgbuild.Imm4(0x7FFC))
	b.Instr(opcode.OpQuit)

	st, err := vm.Init(b.Finalize(start, 0, 0), &recGlk{}, nil, nil)
	test.ExpectFailure(t, err)
	test.ExpectEquality(t, st.Terminated(), true)
}

func TestMemSizeOpcodes(t *testing.T) {
	b := imgbuild.New()
	start := b.FuncLocal(2)
	b.Instr(opcode.OpGetMemSize, imgbuild.Local(0))
	// grow by 512 bytes and read the size back.
	b.Instr(opcode.OpAdd, imgbuild.Local(0), imgbuild.Imm4(512), imgbuild.Stack())
	b.Instr(opcode.OpSetMemSize, imgbuild.Stack(), imgbuild.Zero())
	b.Instr(opcode.OpGetMemSize, imgbuild.Local(1))
	b.Instr(opcode.OpQuit)

	st, _ := runImage(t, b.Finalize(start, 0, 0))
	fr := st.CurrentFrame()
	test.ExpectEquality(t, fr.LocalGet(4), fr.LocalGet(0)+512)
	test.ExpectEquality(t, st.MemSize(), fr.LocalGet(4))
}
