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

// Package strdec implements the Glulx compressed-string decoder: the
// Huffman-like decoding tree, its walk over a bitstream, and the re-entrant call-stub protocol that lets a string
// invoke sub-functions and sub-strings without the host needing a
// coroutine.
//
// The printer is stackful in the VM's own call stack, never the host's:
// whenever a sub-invocation (a sub-function, a nested string, or a
// filter-mode character callback) must run, the printer pushes a resume
// stub onto the current frame and either enters the function or switches
// to the nested segment. When a segment terminates it pops the next stub
// and continues in the outer segment, until the string-terminator stub
// (pushed lazily before the first sub-invocation) is reached.
//
// The package depends only on frame (for CallStub) and a narrow Host
// interface it declares itself, so it has no knowledge of vm.State and
// cannot import it back, the same dependency-inversion shape heap and
// search use.
package strdec

import (
	"github.com/erkyrath/glulxcore/frame"
	"github.com/erkyrath/glulxcore/internal/curated"
)

// IOSysMode mirrors vm's register of the same name.
type IOSysMode int

const (
	IOSysNull IOSysMode = iota
	IOSysFilter
	IOSysGlk
)

// Node tags for the decoding tree.
const (
	NodeBranch             uint8 = 0x00
	NodeTerminator         uint8 = 0x01
	NodeChar8              uint8 = 0x02
	NodeCString            uint8 = 0x03
	NodeUnicodeChar        uint8 = 0x04
	NodeUnicodeCString     uint8 = 0x05
	NodeIndirect           uint8 = 0x08
	NodeDoubleIndirect     uint8 = 0x09
	NodeIndirectArgs       uint8 = 0x0A
	NodeDoubleIndirectArgs uint8 = 0x0B
)

// Host is the slice of VM state the decoder needs in order to read
// memory, output characters, and re-enter the call-stub discipline for
// sub-functions and filter-mode callbacks.
type Host interface {
	Mem1(addr uint32) uint8
	Mem4(addr uint32) uint32

	IOSysMode() IOSysMode
	IOSysRock() uint32

	// PC and SetPC expose the program counter: the terminator stub
	// captures the PC when it is pushed and restores it when popped.
	// By the time the printer runs, the stream opcode's handler has
	// already advanced the PC past the instruction.
	PC() uint32
	SetPC(pc uint32)

	// PutGlk sends one decoded character to the host's current Glk
	// output stream (iosysmode==glk only).
	PutGlk(ch rune) error

	// CurrentFrame returns the frame the printer pushes call stubs
	// onto and resumes from.
	CurrentFrame() *frame.Frame

	// EnterFunction performs the Glulx call-frame "enter_function"
	// operation for a sub-call triggered mid-print (an
	// indirect function reference, or a filter/callback invocation). It
	// must push a new frame and set the PC to the function's entry
	// point; printing for the current frame resumes later via the
	// call-stub machinery, not by this call returning.
	EnterFunction(addr uint32, args []uint32) error
}

// Tree locates the decoding tree for a string table. Interior nodes are
// walked directly out of memory bit by bit, so Tree only records the
// root address and whether the whole table lies in ROM (making cached
// results safe).
type Tree struct {
	Root   uint32
	AllROM bool
}

// BuildTree reads the string-table header at stringtable: total table
// length, node count, root-node address.
func BuildTree(h Host, stringtable uint32, ramStart uint32) Tree {
	length := h.Mem4(stringtable)
	root := h.Mem4(stringtable + 8)
	return Tree{
		Root:   root,
		AllROM: stringtable+length <= ramStart,
	}
}

// segment is one printing context: a compressed bitstream position, a
// position within a C-string, or a position within a number's decimal
// digits. Exactly one is live at a time; suspended outer segments live
// as call stubs on the VM value stack, not here.
type segKind int

const (
	segCompressed segKind = iota
	segCString
	segUCString
	segNum
)

type segment struct {
	kind segKind

	// compressed
	addr   uint32
	bitnum uint32

	// C-string / Unicode C-string
	base uint32
	pos  uint32

	// number
	num int32
}

// printer carries the shared state of one synchronous printing episode.
type printer struct {
	h    Host
	tree Tree

	// substring is true once any resume stub has been pushed: the
	// terminator stub is below us and termination must pop stubs.
	substring bool

	// pure stays true while no stub traffic has occurred; the caller
	// can use it to decide whether the episode was wholly synchronous
	// (and so cacheable for ROM strings).
	pure bool
}

// Print prints the tagged string object at addr at top level: 0xE0
// C-string, 0xE1 compressed, 0xE2 Unicode C-string. The
// returned bool is true when printing completed without pushing any
// call stubs (no sub-invocations, no filter callbacks).
func Print(h Host, tree Tree, addr uint32) (bool, error) {
	seg, err := taggedSegment(h, addr)
	if err != nil {
		return false, err
	}
	p := &printer{h: h, tree: tree, pure: true}
	err = p.run(seg)
	return p.pure, err
}

// PrintNum prints the signed decimal representation of value at top
// level.
func PrintNum(h Host, value int32) error {
	p := &printer{h: h}
	return p.run(segment{kind: segNum, num: value})
}

// ResumeCompressed re-enters a compressed-string decode suspended by a
// type-0x10 stub: addr/bitnum are the recorded resume position.
func ResumeCompressed(h Host, tree Tree, addr, bitnum uint32) error {
	p := &printer{h: h, tree: tree, substring: true}
	return p.run(segment{kind: segCompressed, addr: addr, bitnum: bitnum})
}

// ResumeCString re-enters a C-string print suspended by a type-0x13 or
// type-0x14 stub: base is the string's data address, pos the next
// character index.
func ResumeCString(h Host, tree Tree, base, pos uint32, unicode bool) error {
	kind := segCString
	if unicode {
		kind = segUCString
	}
	p := &printer{h: h, tree: tree, substring: true}
	return p.run(segment{kind: kind, base: base, pos: pos})
}

// ResumeNum re-enters a number print suspended by a type-0x12 stub:
// value is the number being printed (carried in the stub's ReturnPC
// word), pos the next character index.
func ResumeNum(h Host, tree Tree, value int32, pos uint32) error {
	p := &printer{h: h, tree: tree, substring: true}
	return p.run(segment{kind: segNum, num: value, pos: pos})
}

func taggedSegment(h Host, addr uint32) (segment, error) {
	switch tag := h.Mem1(addr); tag {
	case 0xE0:
		return segment{kind: segCString, base: addr + 1}, nil
	case 0xE1:
		return segment{kind: segCompressed, addr: addr + 1}, nil
	case 0xE2:
		// three padding bytes follow the tag, then 4-byte code points.
		return segment{kind: segUCString, base: addr + 4}, nil
	default:
		return segment{}, curated.Errorf("strdec", "printing non-string object at %#x (tag %#x)", addr, tag)
	}
}

// run drives segments until the whole print completes or a sub-function
// is entered. Termination of a segment pops the next call stub: either
// the terminator (restoring the PC saved when it was pushed) or the
// resume stub of the enclosing segment.
func (p *printer) run(seg segment) error {
	for {
		next, suspended, err := p.step(seg)
		if err != nil || suspended {
			return err
		}
		if next != nil {
			seg = *next
			continue
		}

		// segment finished
		if !p.substring {
			return nil
		}
		stub := p.h.CurrentFrame().PopStub()
		switch stub.DestType {
		case frame.DestStringTerminator:
			p.h.SetPC(stub.ReturnPC)
			return nil
		case frame.DestResumeString:
			seg = segment{kind: segCompressed, addr: stub.ReturnPC, bitnum: stub.DestAddr}
		case frame.DestResumeCString:
			seg = segment{kind: segCString, base: stub.ReturnPC, pos: stub.DestAddr}
		case frame.DestResumeUnicodeCStr:
			seg = segment{kind: segUCString, base: stub.ReturnPC, pos: stub.DestAddr}
		case frame.DestResumeNumber:
			seg = segment{kind: segNum, num: int32(stub.ReturnPC), pos: stub.DestAddr}
		default:
			return curated.Errorf("strdec", "unexpected call stub (type %#x) beneath a string segment", stub.DestType)
		}
	}
}

// ensureTerminator pushes the string-terminator stub before the first
// sub-invocation of a top-level print. The stub records the PC so that completion of the
// outermost string restores it.
func (p *printer) ensureTerminator() {
	if p.substring {
		return
	}
	p.substring = true
	p.pure = false
	fr := p.h.CurrentFrame()
	fr.PushStub(frame.CallStub{
		DestType:   frame.DestStringTerminator,
		ReturnPC:   p.h.PC(),
		FrameStart: fr.FrameStart,
	})
}

func (p *printer) pushResume(s frame.CallStub) {
	fr := p.h.CurrentFrame()
	s.FrameStart = fr.FrameStart
	fr.PushStub(s)
}

// step advances one segment until it terminates (nil, false), switches
// into a nested segment (next, false) with the outer resume stub
// already pushed, or suspends into a Glulx function (nil, true).
func (p *printer) step(seg segment) (*segment, bool, error) {
	switch seg.kind {
	case segCompressed:
		return p.stepCompressed(seg)
	case segCString, segUCString:
		return p.stepCString(seg)
	default:
		return p.stepNum(seg)
	}
}

func (p *printer) stepCompressed(seg segment) (*segment, bool, error) {
	r := bitReader{h: p.h, addr: seg.addr, bitnum: seg.bitnum}

	for {
		node := p.tree.Root
		for p.h.Mem1(node) == NodeBranch {
			if r.bit() == 0 {
				node = p.h.Mem4(node + 1)
			} else {
				node = p.h.Mem4(node + 5)
			}
		}

		switch tag := p.h.Mem1(node); tag {
		case NodeTerminator:
			return nil, false, nil

		case NodeChar8:
			sus, err := p.emitChar(rune(p.h.Mem1(node+1)), compressedResume(r))
			if sus || err != nil {
				return nil, sus, err
			}

		case NodeUnicodeChar:
			sus, err := p.emitChar(rune(p.h.Mem4(node+1)), compressedResume(r))
			if sus || err != nil {
				return nil, sus, err
			}

		case NodeCString:
			p.ensureTerminator()
			p.pushResume(compressedResume(r))
			return &segment{kind: segCString, base: node + 1}, false, nil

		case NodeUnicodeCString:
			p.ensureTerminator()
			p.pushResume(compressedResume(r))
			return &segment{kind: segUCString, base: node + 1}, false, nil

		case NodeIndirect, NodeDoubleIndirect, NodeIndirectArgs, NodeDoubleIndirectArgs:
			obj := p.h.Mem4(node + 1)
			if tag == NodeDoubleIndirect || tag == NodeDoubleIndirectArgs {
				obj = p.h.Mem4(obj)
			}
			var args []uint32
			if tag == NodeIndirectArgs || tag == NodeDoubleIndirectArgs {
				argc := p.h.Mem4(node + 5)
				args = make([]uint32, argc)
				for i := uint32(0); i < argc; i++ {
					args[i] = p.h.Mem4(node + 9 + i*4)
				}
			}
			return p.invokeObject(obj, args, compressedResume(r))

		default:
			return nil, false, curated.Errorf("strdec", "unknown decoding-tree node type %#x at %#x", tag, node)
		}
	}
}

// compressedResume builds the type-0x10 stub for the reader's current
// position: resume decoding at bit DestAddr of byte ReturnPC.
func compressedResume(r bitReader) frame.CallStub {
	return frame.CallStub{
		DestType: frame.DestResumeString,
		DestAddr: r.bitnum,
		ReturnPC: r.addr,
	}
}

func (p *printer) stepCString(seg segment) (*segment, bool, error) {
	width, stubType := uint32(1), frame.DestResumeCString
	read := func(a uint32) rune { return rune(p.h.Mem1(a)) }
	if seg.kind == segUCString {
		width, stubType = 4, frame.DestResumeUnicodeCStr
		read = func(a uint32) rune { return rune(p.h.Mem4(a)) }
	}

	for pos := seg.pos; ; pos++ {
		ch := read(seg.base + pos*width)
		if ch == 0 {
			return nil, false, nil
		}
		sus, err := p.emitChar(ch, frame.CallStub{
			DestType: stubType,
			DestAddr: pos + 1,
			ReturnPC: seg.base,
		})
		if sus || err != nil {
			return nil, sus, err
		}
	}
}

func (p *printer) stepNum(seg segment) (*segment, bool, error) {
	digits := decimalDigits(seg.num)
	for pos := seg.pos; pos < uint32(len(digits)); pos++ {
		sus, err := p.emitChar(digits[pos], frame.CallStub{
			DestType: frame.DestResumeNumber,
			DestAddr: pos + 1,
			ReturnPC: uint32(seg.num),
		})
		if sus || err != nil {
			return nil, sus, err
		}
	}
	return nil, false, nil
}

// emitChar delivers one character per the current iosysmode. In filter
// mode it pushes the supplied resume stub and enters the filter
// function, suspending the print.
func (p *printer) emitChar(ch rune, resume frame.CallStub) (suspended bool, err error) {
	switch p.h.IOSysMode() {
	case IOSysGlk:
		return false, p.h.PutGlk(ch)
	case IOSysNull:
		return false, nil
	case IOSysFilter:
		p.ensureTerminator()
		p.pushResume(resume)
		return true, p.h.EnterFunction(p.h.IOSysRock(), []uint32{uint32(ch)})
	default:
		return false, curated.Errorf("strdec", "unrecognised iosysmode %d", p.h.IOSysMode())
	}
}

// invokeObject resolves an indirect reference mid-decode: a string
// object continues as a nested segment, a function object is entered
// with the supplied arguments.
func (p *printer) invokeObject(obj uint32, args []uint32, resume frame.CallStub) (*segment, bool, error) {
	tag := p.h.Mem1(obj)
	switch {
	case tag >= 0xE0:
		seg, err := taggedSegment(p.h, obj)
		if err != nil {
			return nil, false, err
		}
		p.ensureTerminator()
		p.pushResume(resume)
		return &seg, false, nil
	case tag >= 0xC0 && tag <= 0xCF:
		p.ensureTerminator()
		p.pushResume(resume)
		return nil, true, p.h.EnterFunction(obj, args)
	default:
		return nil, false, curated.Errorf("strdec", "indirect reference at %#x is neither a string nor a function (tag %#x)", obj, tag)
	}
}

// bitReader walks a compressed bitstream, least-significant bit of each
// byte first, as Glulx strings are packed.
type bitReader struct {
	h      Host
	addr   uint32
	bitnum uint32
}

func (r *bitReader) bit() uint32 {
	b := (uint32(r.h.Mem1(r.addr)) >> r.bitnum) & 1
	r.bitnum++
	if r.bitnum == 8 {
		r.bitnum = 0
		r.addr++
	}
	return b
}

func decimalDigits(value int32) []rune {
	if value == 0 {
		return []rune{'0'}
	}
	var buf [12]rune
	i := len(buf)
	u := uint32(value)
	if value < 0 {
		u = uint32(-int64(value))
	}
	for u > 0 {
		i--
		buf[i] = rune('0' + u%10)
		u /= 10
	}
	if value < 0 {
		i--
		buf[i] = '-'
	}
	return append([]rune(nil), buf[i:]...)
}
