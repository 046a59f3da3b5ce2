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

// The dispatcher: the main loop that selects or compiles a
// path for the current PC and runs it, plus the call-frame discipline
// that backs call/return/catch/throw.
package vm

import (
	"github.com/erkyrath/glulxcore/compiler"
	"github.com/erkyrath/glulxcore/decode"
	"github.com/erkyrath/glulxcore/frame"
	"github.com/erkyrath/glulxcore/internal/logger"
	"github.com/erkyrath/glulxcore/opcode"
)

// Store implements opcode.Machine: deliver v to the destination
// described by a decoded Field, consulting the offstack for stack-mode
// destinations.
func (s *State) Store(f decode.Field, v uint32) {
	decode.Store(s.mem, s.CurrentFrame(), s, f, v)
}

func (s *State) load(f decode.Field) uint32 {
	return decode.Load(s.mem, s.CurrentFrame(), s, f)
}

// run executes the dispatch loop until Done() or a fatal error. It is the
// engine behind both Init and Resume.
func (s *State) run() error {
	for !s.done {
		fn, err := s.currentVMFunc()
		if err != nil {
			return s.fail(err)
		}

		path, err := s.pathFor(fn, s.iosysmode, s.pc)
		if err != nil {
			return s.fail(err)
		}

		if err := s.execPath(fn, path); err != nil {
			return s.fail(err)
		}
	}
	return s.quitErr
}

func (s *State) fail(err error) error {
	s.done = true
	s.quitErr = err
	if s.options.RethrowExceptions.Get() {
		return err
	}
	logger.Logf("dispatch", "fatal: %v", err)
	return err
}

// currentVMFunc resolves the VMFunc owning the current frame through
// the frame's FuncAddr handle.
func (s *State) currentVMFunc() (*VMFunc, error) {
	return s.getVMFunc(s.CurrentFrame().FuncAddr)
}

// pathFor returns the compiled Path for (fn, iosysmode, pc), compiling
// and, for ROM addresses only, caching it if missing. RAM may have
// changed since the last visit, so RAM paths are never cached.
func (s *State) pathFor(fn *VMFunc, iosysmode uint32, pc uint32) (compiler.Path, error) {
	cache := fn.pathCache(iosysmode)
	if cache != nil {
		if p, ok := cache[pc]; ok {
			s.stats.PathHit()
			return p, nil
		}
	}

	known := func(addr uint32) bool { return fn.Known[addr] }
	p, err := compiler.Decode(s.mem, opcode.Lookup, known, pc)
	if err != nil {
		return compiler.Path{}, err
	}
	s.stats.PathCompile()

	fn.Known[pc] = true
	if cache != nil && pc < s.mem.RAMStart() {
		cache[pc] = p
	} else {
		logger.Logf("dispatch", "compiling RAM path at %#x (not cached)", pc)
	}
	return p, nil
}

// execPath runs every Micro of path in order, flushing the offstack
// immediately before the last one: every path either ends in a
// control-transfer opcode, which needs a coherent real stack, or falls
// through into a known entry point, which needs the same flush before
// the dispatcher advances the PC itself.
func (s *State) execPath(fn *VMFunc, path compiler.Path) error {
	last := len(path.Micros) - 1
	for i, mi := range path.Micros {
		if i == last {
			s.flushOffstack()
		}

		spec, ok := opcode.Get(mi.Opcode)
		if !ok {
			return fatalf("opcode", "invalid opcode %#x at %#x", mi.Opcode, mi.Addr)
		}

		loads := make([]uint32, len(mi.Loads))
		for li, f := range mi.Loads {
			loads[li] = s.load(f)
		}

		if err := spec.Run(s, mi, loads); err != nil {
			return err
		}
	}

	if path.FallsThrough {
		s.pc = path.Micros[last].Addr + path.Micros[last].Len
	}
	return nil
}

// --- call-frame discipline ---

// EnterFunction implements enter_function: resolves addr
// to a VMFunc, builds a new frame sized from it, and copies in argc
// arguments from args (already popped by the calling opcode handler, in
// left-to-right order).
func (s *State) EnterFunction(addr uint32, args []uint32) error {
	fn, err := s.getVMFunc(addr)
	if err != nil {
		return err
	}

	var framestart uint32
	if n := len(s.frames); n > 0 {
		prev := s.frames[n-1]
		framestart = prev.FrameStart + prev.FrameLen + 4*uint32(prev.Count())
	}

	locals := make([]byte, fn.AlignedLocals)
	newFrame := frame.NewFrame(locals, fn.LocalsIndex, uint32(len(s.frames)), framestart, 8+fn.RawFormatLen+fn.AlignedLocals)
	newFrame.FuncAddr = addr

	switch fn.FuncType {
	case FuncTypeStackArgs:
		for i := len(args) - 1; i >= 0; i-- {
			newFrame.Push(args[i])
		}
		newFrame.Push(uint32(len(args)))
	case FuncTypeLocalArgs:
		for i, v := range args {
			if i >= len(fn.LocalsIndex) {
				break // extra arguments are silently dropped
			}
			newFrame.LocalSet(fn.LocalsIndex[i].BytePos, v)
		}
	}

	s.frames = append(s.frames, newFrame)
	s.pc = fn.CodeStart
	return nil
}

// TailCall implements tailcall: discard the current frame before
// entering the new one, so the callee's frame replaces it rather than
// stacking on top (no intervening call stub is pushed, and nothing ever
// returns to the discarded frame).
func (s *State) TailCall(addr uint32, args []uint32) error {
	if len(s.frames) > 0 {
		s.frames = s.frames[:len(s.frames)-1]
	}
	return s.EnterFunction(addr, args)
}

// leaveFunction pops the current frame. If the stack becomes empty the
// machine terminates.
func (s *State) leaveFunction() {
	s.frames = s.frames[:len(s.frames)-1]
	if len(s.frames) == 0 {
		s.done = true
	}
}

// Return implements the return opcode and branch-offsets 0/1: leave the
// current function, delivering value to the next call stub, which
// lives on the caller's value stack beneath the frame being discarded.
func (s *State) Return(value uint32) error {
	s.leaveFunction()
	if s.done {
		return nil
	}

	fr := s.CurrentFrame()
	stub := fr.PopStub()
	if stub.FrameStart != fr.FrameStart {
		return fatalf("stack", "call stub framestart %#x does not match frame %#x on return", stub.FrameStart, fr.FrameStart)
	}
	return s.popCallStub(stub, value)
}

// popCallStub delivers value to the destination encoded by a call
// stub. It restores PC from the stub except
// when the destination re-enters the string/number printer, which owns
// the PC until the outermost string terminates. For the
// printer-resume types the value is discarded.
func (s *State) popCallStub(stub frame.CallStub, value uint32) error {
	switch stub.DestType {
	case frame.DestResumeString:
		return s.resumeStringStub(stub)
	case frame.DestStringTerminator:
		s.pc = stub.ReturnPC
		return nil
	case frame.DestResumeNumber:
		return s.resumeStreamNumStub(stub)
	case frame.DestResumeCString:
		return s.resumeCStringStub(stub, false)
	case frame.DestResumeUnicodeCStr:
		return s.resumeCStringStub(stub, true)
	default:
		s.storeDest(stub.DestType, stub.DestAddr, value)
		s.pc = stub.ReturnPC
		return nil
	}
}

// storeDest implements the desttype 0..3 cases shared by pop_callstub
// and store_operand.
func (s *State) storeDest(destType uint8, destAddr uint32, value uint32) {
	switch destType {
	case frame.DestDiscard:
	case frame.DestStoreMemory:
		s.mem.MemW4(destAddr, value)
	case frame.DestStoreLocal:
		s.CurrentFrame().LocalSet(destAddr, value)
	case frame.DestPushStack:
		s.CurrentFrame().Push(value)
	}
}

// Catch implements catch: push a call stub recording the
// given store destination (with ReturnPC already advanced past the
// catch instruction by the handler) and write the resulting post-stub
// stack offset token into that destination. The handler branches
// afterwards.
func (s *State) Catch(dest decode.Field) {
	fr := s.CurrentFrame()
	destType := catchStoreDestType(dest)

	s.PushStub(frame.CallStub{
		DestType:   destType,
		DestAddr:   dest.Value,
		ReturnPC:   s.pc,
		FrameStart: fr.FrameStart,
	})

	offset := fr.FrameStart + fr.FrameLen + 4*uint32(fr.Count())
	s.storeDest(destType, dest.Value, offset)
}

func catchStoreDestType(f decode.Field) uint8 {
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

// Throw implements throw: pop frames until the recorded
// stack offset matches target, truncate the value stack to that point,
// and deliver value through pop_callstub. Fails with a "stack"-tagged
// error if no such frame exists, or if target is below or misaligned
// with that frame's stack base.
func (s *State) Throw(value, target uint32) error {
	for i := len(s.frames) - 1; i >= 0; i-- {
		fr := s.frames[i]
		base := fr.FrameStart + fr.FrameLen
		top := base + 4*uint32(fr.Count())
		if target < base || target > top {
			continue
		}
		if (target-base)%4 != 0 {
			return fatalf("stack", "throw target %#x is not word-aligned within frame at %#x", target, fr.FrameStart)
		}

		s.frames = s.frames[:i+1]

		keep := int((target - base) / 4)
		fr.Stack = fr.Stack[:keep]

		stub := fr.PopStub()
		return s.popCallStub(stub, value)
	}
	return fatalf("stack", "throw target %#x does not match any frame on the call stack", target)
}
