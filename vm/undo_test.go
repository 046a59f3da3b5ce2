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

	"github.com/erkyrath/glulxcore/frame"
	"github.com/erkyrath/glulxcore/internal/imgbuild"
	"github.com/erkyrath/glulxcore/internal/test"
	"github.com/erkyrath/glulxcore/loader"
	"github.com/erkyrath/glulxcore/opcode"
	"github.com/erkyrath/glulxcore/vm"
)

func TestSaveUndoRestoreUndoRoundTrip(t *testing.T) {
	st, ram := ramState(t)

	st.MemW4(ram, 0x11223344)
	st.CurrentFrame().Push(777)
	pc := st.PC()
	size := st.MemSize()

	ok, err := st.SaveUndo(frame.DestDiscard, 0)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, ok, true)

	// mutate everything the snapshot covers.
	st.MemW4(ram, 0xDEADBEEF)
	st.CurrentFrame().Push(888)
	st.SetPC(pc + 100)

	ok, err = st.RestoreUndo()
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, ok, true)

	test.ExpectEquality(t, st.Mem4(ram), uint32(0x11223344))
	test.ExpectEquality(t, st.CurrentFrame().Count(), 1)
	test.ExpectEquality(t, st.CurrentFrame().Peek(0), uint32(777))
	test.ExpectEquality(t, st.PC(), pc)
	test.ExpectEquality(t, st.MemSize(), size)
}

func TestRestoreUndoEmptyRing(t *testing.T) {
	st, _ := ramState(t)

	ok, err := st.RestoreUndo()
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, ok, false)
}

// memStore is an in-memory glk.SaveStore.
type memStore struct {
	data []byte
}

func (m *memStore) Save(data []byte) (bool, error) {
	m.data = append([]byte(nil), data...)
	return true, nil
}

func (m *memStore) Restore() ([]byte, bool, error) {
	if m.data == nil {
		return nil, false, nil
	}
	return m.data, true, nil
}

func TestSaveRestoreThroughStore(t *testing.T) {
	b := imgbuild.New()
	start := b.FuncLocal(0)
	b.Instr(opcode.OpQuit)
	img := b.Finalize(start, 0, 512)

	hdr, _, err := loader.Load(img)
	test.ExpectSuccess(t, err)
	ram := hdr.EndGameFile

	store := &memStore{}
	st, err := vm.Init(img, &recGlk{}, store, nil)
	test.ExpectSuccess(t, err)

	st.MemW4(ram, 0xFEEDF00D)
	pc := st.PC()

	ok, err := st.Save(frame.DestDiscard, 0)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, ok, true)

	st.MemW4(ram, 0)
	st.SetPC(pc + 4)

	ok, err = st.Restore()
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, ok, true)
	test.ExpectEquality(t, st.Mem4(ram), uint32(0xFEEDF00D))
	test.ExpectEquality(t, st.PC(), pc)
}

func TestRestoreWithoutStoreFails(t *testing.T) {
	st, _ := ramState(t)

	ok, err := st.Save(frame.DestDiscard, 0)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, ok, false)

	ok, err = st.Restore()
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, ok, false)
}
