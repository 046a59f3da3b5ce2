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

// The VM ↔ host API: Init loads and validates an image and
// runs to the first suspension point; Resume re-enters after the host
// has serviced whatever caused the suspension.
package vm

import (
	"crypto/sha1"
	"encoding/hex"

	"github.com/erkyrath/glulxcore/glk"
	"github.com/erkyrath/glulxcore/heap"
	"github.com/erkyrath/glulxcore/internal/logger"
	"github.com/erkyrath/glulxcore/internal/prefs"
	"github.com/erkyrath/glulxcore/loader"
)

// Init loads the image bytes (unwrapping a Blorb container if present),
// validates the header, constructs the machine and runs it until the
// first suspension point.
func Init(raw []byte, dispatcher glk.Dispatcher, saveStore glk.SaveStore, opts *prefs.Options) (*State, error) {
	hdr, image, err := loader.Load(raw)
	if err != nil {
		return nil, err
	}

	s := New(hdr, image, dispatcher, saveStore, opts)
	logger.Logf("vm", "image loaded: version %#x, ramstart %#x, endmem %#x", hdr.Version, hdr.RAMStart, hdr.OrigEndMem)

	if err := s.EnterFunction(hdr.StartFuncAddr, nil); err != nil {
		s.terminated = true
		return s, err
	}
	return s, s.runToSuspension()
}

// Resume re-enters execution after a suspension (line input, timer
// event, and so on). Resuming a terminated machine is an error: the
// host may refuse to re-enter after termination, and that is final.
func (s *State) Resume() error {
	if s.terminated {
		return fatalf("host", "resume of a terminated machine")
	}
	s.done = false
	return s.runToSuspension()
}

// runToSuspension drives the dispatch loop and classifies how it
// stopped: an empty call stack, a quit, or a fatal error all terminate
// the machine permanently; a glk suspension leaves it resumable.
func (s *State) runToSuspension() error {
	err := s.run()
	if err != nil || s.quit || len(s.frames) == 0 {
		s.terminated = true
	}
	return err
}

// Terminated reports whether the machine has stopped for good.
func (s *State) Terminated() bool { return s.terminated }

// Version returns the image's Glulx version word.
func (s *State) Version() uint32 { return s.header.Version }

// Signature identifies the loaded game: a hash of the header and the
// first 64 bytes of the image.
func (s *State) Signature() string {
	n := 64
	if len(s.romImage) < n {
		n = len(s.romImage)
	}
	sum := sha1.Sum(s.romImage[:n])
	return hex.EncodeToString(sum[:])
}

// Glk invokes a host Glk call. A DidNotReturn result suspends execution
// at the already-saved continuation PC; the dispatcher loop then hands
// control back to the host.
func (s *State) Glk(selector uint32, args []uint32) (uint32, bool, error) {
	res, err := s.glkDisp.Call(selector, args)
	if err != nil {
		return 0, false, fatalf("host", "glk call %#x failed", selector, err)
	}

	if res == glk.DidNotReturn {
		s.done = true
		return 0, false, nil
	}

	v, ok := res.(uint32)
	if !ok {
		return 0, false, fatalf("host", "glk call %#x returned a malformed result", selector)
	}
	return v, true, nil
}

// Restart implements the restart opcode: reset memory
// from the pristine image (preserving the protected range), drop every
// frame, reset the registers, and enter the start function again.
func (s *State) Restart() error {
	protected := s.mem.CopyProtectedRange()

	initial := make([]byte, s.header.OrigEndMem)
	copy(initial, s.romImage)
	s.mem.Reset(initial)
	s.mem.PasteProtectedRange(protected)

	s.frames = s.frames[:0]
	s.off.Discard()
	s.stringtable = s.header.OrigStringTable
	s.iosysmode = IOSysNull
	s.iosysrock = 0
	s.heap = heap.New()
	s.stats.SetHeapBlocks(0)

	logger.Logf("vm", "restart")
	return s.EnterFunction(s.header.StartFuncAddr, nil)
}
