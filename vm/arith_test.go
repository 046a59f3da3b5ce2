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

// evalBinary runs `op a, b -> local0` through the whole pipeline and
// returns local 0 after the machine quits.
func evalBinary(t *testing.T, op uint32, a, b int32) uint32 {
	t.Helper()
	bld := imgbuild.New()
	start := bld.FuncLocal(1)
	bld.Instr(op, imgbuild.Imm4(a), imgbuild.Imm4(b), imgbuild.Local(0))
	bld.Instr(opcode.OpQuit)

	st, _ := runImage(t, bld.Finalize(start, 0, 0))
	return st.CurrentFrame().LocalGet(0)
}

func evalUnary(t *testing.T, op uint32, a int32) uint32 {
	t.Helper()
	bld := imgbuild.New()
	start := bld.FuncLocal(1)
	bld.Instr(op, imgbuild.Imm4(a), imgbuild.Local(0))
	bld.Instr(opcode.OpQuit)

	st, _ := runImage(t, bld.Finalize(start, 0, 0))
	return st.CurrentFrame().LocalGet(0)
}

func TestArithmeticTruncation(t *testing.T) {
	test.ExpectEquality(t, evalBinary(t, opcode.OpAdd, -1, 1), uint32(0))
	test.ExpectEquality(t, evalBinary(t, opcode.OpAdd, 0x7FFFFFFF, 1), uint32(0x80000000))
	test.ExpectEquality(t, evalBinary(t, opcode.OpSub, 0, 1), uint32(0xFFFFFFFF))
	test.ExpectEquality(t, evalBinary(t, opcode.OpMul, 0x10000, 0x10000), uint32(0))
	test.ExpectEquality(t, evalBinary(t, opcode.OpMul, -3, 7), uint32(0xFFFFFFEB))
}

func TestDivRoundsTowardZero(t *testing.T) {
	test.ExpectEquality(t, evalBinary(t, opcode.OpDiv, -7, 2), uint32(0xFFFFFFFD)) // -3
	test.ExpectEquality(t, evalBinary(t, opcode.OpDiv, 7, -2), uint32(0xFFFFFFFD))
	test.ExpectEquality(t, evalBinary(t, opcode.OpDiv, -7, -2), uint32(3))
	test.ExpectEquality(t, evalBinary(t, opcode.OpDiv, 7, 2), uint32(3))
}

func TestModFollowsDividend(t *testing.T) {
	test.ExpectEquality(t, evalBinary(t, opcode.OpMod, -7, 2), uint32(0xFFFFFFFF)) // -1
	test.ExpectEquality(t, evalBinary(t, opcode.OpMod, 7, -2), uint32(1))
	test.ExpectEquality(t, evalBinary(t, opcode.OpMod, 7, 2), uint32(1))
}

func TestShifts(t *testing.T) {
	test.ExpectEquality(t, evalBinary(t, opcode.OpShiftL, 1, 4), uint32(16))
	test.ExpectEquality(t, evalBinary(t, opcode.OpShiftL, 1, 32), uint32(0))
	test.ExpectEquality(t, evalBinary(t, opcode.OpUShiftR, -1, 28), uint32(0xF))
	test.ExpectEquality(t, evalBinary(t, opcode.OpUShiftR, 1, 40), uint32(0))
	test.ExpectEquality(t, evalBinary(t, opcode.OpSShiftR, -16, 2), uint32(0xFFFFFFFC))
	test.ExpectEquality(t, evalBinary(t, opcode.OpSShiftR, -1, 100), uint32(0xFFFFFFFF))
	test.ExpectEquality(t, evalBinary(t, opcode.OpSShiftR, 1, 100), uint32(0))
}

func TestSignExtensionRoundTrips(t *testing.T) {
	for _, x := range []int32{0, 1, -1, 0x7F, 0x80, 0xFF, 0x7FFF, 0x8000, -32768, 123456} {
		once := evalUnary(t, opcode.OpSexS, x)
		twice := evalUnary(t, opcode.OpSexS, int32(once))
		test.ExpectEquality(t, twice, once)

		once = evalUnary(t, opcode.OpSexB, x)
		twice = evalUnary(t, opcode.OpSexB, int32(once))
		test.ExpectEquality(t, twice, once)
	}

	test.ExpectEquality(t, evalUnary(t, opcode.OpSexB, 0x80), uint32(0xFFFFFF80))
	test.ExpectEquality(t, evalUnary(t, opcode.OpSexS, 0x8000), uint32(0xFFFF8000))
}

func TestInvolutions(t *testing.T) {
	for _, x := range []int32{0, 1, -1, 42, -99999, 0x7FFFFFFF} {
		test.ExpectEquality(t, evalUnary(t, opcode.OpNeg, int32(evalUnary(t, opcode.OpNeg, x))), uint32(x))
		test.ExpectEquality(t, evalUnary(t, opcode.OpBitNot, int32(evalUnary(t, opcode.OpBitNot, x))), uint32(x))
	}
}

func TestDivisionByZeroIsFatal(t *testing.T) {
	bld := imgbuild.New()
	start := bld.FuncLocal(1)
	bld.Instr(opcode.OpDiv, imgbuild.Imm(1), imgbuild.Imm(0), imgbuild.Local(0))
	bld.Instr(opcode.OpQuit)

	st, err := vm.Init(bld.Finalize(start, 0, 0), &recGlk{}, nil, nil)
	test.ExpectFailure(t, err)
	test.ExpectEquality(t, st.Terminated(), true)
}

func TestCopyWidths(t *testing.T) {
	test.ExpectEquality(t, evalUnary(t, opcode.OpCopy, -1), uint32(0xFFFFFFFF))
	test.ExpectEquality(t, evalUnary(t, opcode.OpCopyS, -1), uint32(0xFFFF))
	test.ExpectEquality(t, evalUnary(t, opcode.OpCopyB, -1), uint32(0xFF))
}
