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

// Control-flow opcodes. Every handler here is Terminal: the path
// compiler stops decoding at a non-local control transfer, so these are
// always the last Micro in their Path.
package opcode

import (
	"github.com/erkyrath/glulxcore/compiler"
	"github.com/erkyrath/glulxcore/decode"
	"github.com/erkyrath/glulxcore/frame"
)

// branch applies the Glulx branch-offset convention: offset 0 or 1 means
// "return from the current function with that value"; otherwise jump to
// nextPC + offset - 2.
func branch(m Machine, nextPC uint32, offset int32) error {
	if offset == 0 {
		return m.Return(0)
	}
	if offset == 1 {
		return m.Return(1)
	}
	target := uint32(int64(nextPC) + int64(offset) - 2)
	m.SetPC(target)
	return nil
}

func nextPC(mi compiler.Micro) uint32 { return mi.Addr + mi.Len }

func init() {
	register(OpJump, "jump", []compiler.SlotKind{compiler.SlotLoad}, true,
		func(m Machine, mi compiler.Micro, loads []uint32) error {
			return branch(m, nextPC(mi), int32(loads[0]))
		})
	register(OpJumpAbs, "jumpabs", []compiler.SlotKind{compiler.SlotLoad}, true,
		func(m Machine, mi compiler.Micro, loads []uint32) error {
			m.SetPC(loads[0])
			return nil
		})

	cond := func(code uint32, name string, nargs int, test func(loads []uint32) bool) {
		slots := make([]compiler.SlotKind, nargs+1)
		for i := range slots {
			slots[i] = compiler.SlotLoad
		}
		register(code, name, slots, true, func(m Machine, mi compiler.Micro, loads []uint32) error {
			if test(loads[:nargs]) {
				return branch(m, nextPC(mi), int32(loads[nargs]))
			}
			m.SetPC(nextPC(mi))
			return nil
		})
	}

	cond(OpJZ, "jz", 1, func(l []uint32) bool { return l[0] == 0 })
	cond(OpJNZ, "jnz", 1, func(l []uint32) bool { return l[0] != 0 })
	cond(OpJEq, "jeq", 2, func(l []uint32) bool { return l[0] == l[1] })
	cond(OpJNe, "jne", 2, func(l []uint32) bool { return l[0] != l[1] })
	cond(OpJLt, "jlt", 2, func(l []uint32) bool { return int32(l[0]) < int32(l[1]) })
	cond(OpJGe, "jge", 2, func(l []uint32) bool { return int32(l[0]) >= int32(l[1]) })
	cond(OpJGt, "jgt", 2, func(l []uint32) bool { return int32(l[0]) > int32(l[1]) })
	cond(OpJLe, "jle", 2, func(l []uint32) bool { return int32(l[0]) <= int32(l[1]) })
	cond(OpJLtU, "jltu", 2, func(l []uint32) bool { return l[0] < l[1] })
	cond(OpJGeU, "jgeu", 2, func(l []uint32) bool { return l[0] >= l[1] })
	cond(OpJGtU, "jgtu", 2, func(l []uint32) bool { return l[0] > l[1] })
	cond(OpJLeU, "jleu", 2, func(l []uint32) bool { return l[0] <= l[1] })

	register(OpReturn, "return", []compiler.SlotKind{compiler.SlotLoad}, true,
		func(m Machine, mi compiler.Micro, loads []uint32) error {
			return m.Return(loads[0])
		})

	register(OpQuit, "quit", nil, true, func(m Machine, mi compiler.Micro, loads []uint32) error {
		m.Quit()
		return nil
	})
	register(OpRestart, "restart", nil, true, func(m Machine, mi compiler.Micro, loads []uint32) error {
		return m.Restart()
	})

	// catch stores its token and pushes its stub with the PC already
	// past the instruction, so a later throw resumes there; then it
	// branches (offsets 0 and 1 return, like any branch).
	register(OpCatch, "catch", []compiler.SlotKind{compiler.SlotStore, compiler.SlotLoad}, true,
		func(m Machine, mi compiler.Micro, loads []uint32) error {
			m.SetPC(nextPC(mi))
			m.Catch(mi.Stores[0])
			return branch(m, nextPC(mi), int32(loads[0]))
		})
	register(OpThrow, "throw", []compiler.SlotKind{compiler.SlotLoad, compiler.SlotLoad}, true,
		func(m Machine, mi compiler.Micro, loads []uint32) error {
			return m.Throw(loads[0], loads[1])
		})

	// arguments are pushed last-first, so the first argument is on top of
	// the stack: popping in order yields args[0] = first argument.
	callHandler := func(tail bool) Handler {
		return func(m Machine, mi compiler.Micro, loads []uint32) error {
			funcAddr, argc := loads[0], loads[1]
			args := make([]uint32, argc)
			fr := m.CurrentFrame()
			for i := uint32(0); i < argc; i++ {
				args[i] = fr.Pop()
			}
			if tail {
				return m.TailCall(funcAddr, args)
			}
			m.PushStub(frame.CallStub{
				DestType:   storeDestType(mi.Stores[0]),
				DestAddr:   mi.Stores[0].Value,
				ReturnPC:   nextPC(mi),
				FrameStart: fr.FrameStart,
			})
			return m.EnterFunction(funcAddr, args)
		}
	}
	register(OpCall, "call", []compiler.SlotKind{compiler.SlotLoad, compiler.SlotLoad, compiler.SlotStore}, true,
		callHandler(false))
	register(OpTailCall, "tailcall", []compiler.SlotKind{compiler.SlotLoad, compiler.SlotLoad}, true,
		callHandler(true))

	callfHandler := func(nargs int) Handler {
		return func(m Machine, mi compiler.Micro, loads []uint32) error {
			funcAddr := loads[0]
			args := append([]uint32(nil), loads[1:1+nargs]...)
			fr := m.CurrentFrame()
			m.PushStub(frame.CallStub{
				DestType:   storeDestType(mi.Stores[0]),
				DestAddr:   mi.Stores[0].Value,
				ReturnPC:   nextPC(mi),
				FrameStart: fr.FrameStart,
			})
			return m.EnterFunction(funcAddr, args)
		}
	}
	register(OpCallF, "callf", []compiler.SlotKind{compiler.SlotLoad, compiler.SlotStore}, true, callfHandler(0))
	register(OpCallFI, "callfi", []compiler.SlotKind{compiler.SlotLoad, compiler.SlotLoad, compiler.SlotStore}, true, callfHandler(1))
	register(OpCallFII, "callfii", []compiler.SlotKind{compiler.SlotLoad, compiler.SlotLoad, compiler.SlotLoad, compiler.SlotStore}, true, callfHandler(2))
	register(OpCallFIII, "callfiii", []compiler.SlotKind{compiler.SlotLoad, compiler.SlotLoad, compiler.SlotLoad, compiler.SlotLoad, compiler.SlotStore}, true, callfHandler(3))
}

// storeDestType maps a decoded store Field's addressing mode to the
// call-stub desttype encoding. destAddr, for the memory
// and local cases, is simply f.Value, already resolved to an absolute
// address (RAM-relative included) or a local byte index by decode.DecodeField.
func storeDestType(f decode.Field) uint8 {
	switch f.Mode {
	case decode.ModeConstZero:
		return frame.DestDiscard
	case decode.ModeStack:
		return frame.DestPushStack
	case decode.ModeLocal1, decode.ModeLocal2, decode.ModeLocal4:
		return frame.DestStoreLocal
	default:
		return frame.DestStoreMemory
	}
}
