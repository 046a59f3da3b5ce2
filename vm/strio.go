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

// The stream opcodes: streamchar, streamunichar, streamnum, streamstr,
// built on top of the strdec package's decoding tree walk and
// re-entrant call-stub protocol.
package vm

import (
	"strings"

	"github.com/erkyrath/glulxcore/frame"
	"github.com/erkyrath/glulxcore/strdec"
)

// Glk selectors used to deliver a single decoded character to the
// current Glk output stream when iosysmode==glk. These match the
// standard Glk selector numbers for glk_put_char and glk_put_char_uni;
// the VM core never interprets Glk's stream/window objects itself, it
// just forwards characters through the host dispatcher exactly as a
// glk opcode call would.
const (
	selGlkPutChar    uint32 = 0x0080
	selGlkPutCharUni uint32 = 0x0128
)

// strHost adapts *State to strdec.Host. It exists only because
// opcode.Machine and strdec.Host each declare an IOSysMode method with
// a different result type; everything else is the embedded State's own
// method set.
type strHost struct {
	*State
}

func (h strHost) IOSysMode() strdec.IOSysMode {
	return strdec.IOSysMode(h.State.iosysmode)
}

// PutGlk sends one decoded character to the host's current Glk output
// stream via the ordinary Glk call path.
func (h strHost) PutGlk(ch rune) error {
	sel := selGlkPutChar
	if ch > 0xFF {
		sel = selGlkPutCharUni
	}
	_, _, err := h.State.Glk(sel, []uint32{uint32(ch)})
	return err
}

// recordingHost additionally captures every character sent to Glk, so a
// pure decode of a ROM string can be memoized.
type recordingHost struct {
	strHost
	out *strings.Builder
}

func (h recordingHost) PutGlk(ch rune) error {
	h.out.WriteRune(ch)
	return h.strHost.PutGlk(ch)
}

// textEnv returns the TextEnv for the current stringtable register,
// creating and caching it on first use. RAM tables are rebuilt on every
// call, since the bytes the tree was parsed from may have changed.
func (s *State) textEnv() *strdec.TextEnv {
	if env, ok := s.textEnvs[s.stringtable]; ok {
		return env
	}
	env := strdec.NewTextEnv(strHost{s}, s.stringtable, s.mem.RAMStart())
	if env.Tree.AllROM {
		s.textEnvs[s.stringtable] = env
	}
	return env
}

// StreamChar implements streamchar: print one Latin-1 character.
func (s *State) StreamChar(ch byte) error {
	return s.streamOneChar(rune(ch))
}

// StreamUniChar implements streamunichar: print one Unicode code point.
func (s *State) StreamUniChar(ch rune) error {
	return s.streamOneChar(ch)
}

// streamOneChar dispatches a single top-level character per iosysmode:
// glk prints directly, filter invokes iosysrock with the character as
// its sole argument (under a plain string-terminator stub, since there
// is nothing to resume into), null discards it.
func (s *State) streamOneChar(ch rune) error {
	switch s.iosysmode {
	case IOSysGlk:
		return strHost{s}.PutGlk(ch)
	case IOSysFilter:
		s.PushStub(frame.CallStub{
			DestType: frame.DestStringTerminator,
			ReturnPC: s.pc,
		})
		return s.EnterFunction(s.iosysrock, []uint32{uint32(ch)})
	case IOSysNull:
		return nil
	default:
		return fatalf("strdec", "unrecognised iosysmode %d", s.iosysmode)
	}
}

// StreamNum implements streamnum: print the decimal representation of a
// signed value. The re-entry protocol carries the value
// in the resume stub itself, so nested prints need no VM-side state.
func (s *State) StreamNum(value int32) error {
	return strdec.PrintNum(strHost{s}, value)
}

// StreamStr implements streamstr: decode and print the string object at
// addr using the current stringtable's decoding tree.
// Pure prints of ROM strings under a ROM table are memoized in the
// table's TextEnv and replayed on later visits.
func (s *State) StreamStr(addr uint32) error {
	env := s.textEnv()

	if s.iosysmode == IOSysGlk && env.Tree.AllROM && addr < s.mem.RAMStart() {
		if lit, ok := env.Literal(addr); ok {
			h := strHost{s}
			for _, ch := range lit {
				if err := h.PutGlk(ch); err != nil {
					return err
				}
			}
			return nil
		}

		var out strings.Builder
		pure, err := strdec.Print(recordingHost{strHost{s}, &out}, env.Tree, addr)
		if err != nil {
			return err
		}
		if pure {
			env.Memoize(addr, out.String())
		}
		return nil
	}

	_, err := strdec.Print(strHost{s}, env.Tree, addr)
	return err
}

// resumeStringStub continues a compressed-string decode suspended by a
// DestResumeString call stub: stub.ReturnPC is the resume byte address,
// stub.DestAddr the resume bit offset within it.
func (s *State) resumeStringStub(stub frame.CallStub) error {
	return strdec.ResumeCompressed(strHost{s}, s.textEnv().Tree, stub.ReturnPC, stub.DestAddr)
}

// resumeCStringStub continues a C-string print suspended by a
// DestResumeCString or DestResumeUnicodeCStr stub.
func (s *State) resumeCStringStub(stub frame.CallStub, unicode bool) error {
	return strdec.ResumeCString(strHost{s}, s.textEnv().Tree, stub.ReturnPC, stub.DestAddr, unicode)
}

// resumeStreamNumStub continues a filter-mode streamnum suspended by a
// DestResumeNumber call stub: the stub carries the original value in
// its ReturnPC word and the next character index in DestAddr.
func (s *State) resumeStreamNumStub(stub frame.CallStub) error {
	return strdec.ResumeNum(strHost{s}, s.textEnv().Tree, int32(stub.ReturnPC), stub.DestAddr)
}
