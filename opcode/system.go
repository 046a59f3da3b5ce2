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

// System opcodes: gestalt queries,
// memory-size management, randomness, the heap and search primitives
// exposed as bytecode, protection range, string-table/iosys registers,
// verify, and the undo/save round trips.
package opcode

import (
	"github.com/erkyrath/glulxcore/compiler"
	"github.com/erkyrath/glulxcore/internal/curated"
)

func init() {
	register(OpNop, "nop", nil, false, func(m Machine, mi compiler.Micro, loads []uint32) error {
		return nil
	})
	register(OpDebugTrap, "debugtrap", []compiler.SlotKind{compiler.SlotLoad}, true,
		func(m Machine, mi compiler.Micro, loads []uint32) error {
			return curated.Errorf("opcode", "debugtrap hit with value %#x at %#x", loads[0], mi.Addr)
		})

	register(OpGestalt, "gestalt", lslsS(), false, func(m Machine, mi compiler.Micro, loads []uint32) error {
		m.Store(mi.Stores[0], m.Gestalt(loads[0], loads[1]))
		return nil
	})

	register(OpGetMemSize, "getmemsize", []compiler.SlotKind{compiler.SlotStore}, false,
		func(m Machine, mi compiler.Micro, loads []uint32) error {
			m.Store(mi.Stores[0], m.MemSize())
			return nil
		})
	register(OpSetMemSize, "setmemsize", lsS(), false, func(m Machine, mi compiler.Micro, loads []uint32) error {
		err := m.SetMemSize(loads[0])
		result := uint32(0)
		if err != nil {
			result = 1
		}
		m.Store(mi.Stores[0], result)
		return err
	})

	register(OpRandom, "random", lsS(), false, func(m Machine, mi compiler.Micro, loads []uint32) error {
		m.Store(mi.Stores[0], m.Random(int32(loads[0])))
		return nil
	})
	register(OpSetRandom, "setrandom", []compiler.SlotKind{compiler.SlotLoad}, false,
		func(m Machine, mi compiler.Micro, loads []uint32) error {
			m.SetRandom(int32(loads[0]))
			return nil
		})

	register(OpProtect, "protect", []compiler.SlotKind{compiler.SlotLoad, compiler.SlotLoad}, false,
		func(m Machine, mi compiler.Micro, loads []uint32) error {
			m.Protect(loads[0], loads[1])
			return nil
		})

	register(OpGetStringTbl, "getstringtbl", []compiler.SlotKind{compiler.SlotStore}, false,
		func(m Machine, mi compiler.Micro, loads []uint32) error {
			m.Store(mi.Stores[0], m.StringTbl())
			return nil
		})
	register(OpSetStringTbl, "setstringtbl", []compiler.SlotKind{compiler.SlotLoad}, false,
		func(m Machine, mi compiler.Micro, loads []uint32) error {
			m.SetStringTbl(loads[0])
			return nil
		})

	register(OpGetIOSys, "getiosys", []compiler.SlotKind{compiler.SlotStore, compiler.SlotStore}, false,
		func(m Machine, mi compiler.Micro, loads []uint32) error {
			m.Store(mi.Stores[0], m.IOSysMode())
			m.Store(mi.Stores[1], m.IOSysRock())
			return nil
		})
	// setiosys ends its path (the remainder would have been compiled under
	// the old mode), so it must advance the PC itself.
	register(OpSetIOSys, "setiosys", []compiler.SlotKind{compiler.SlotLoad, compiler.SlotLoad}, true,
		func(m Machine, mi compiler.Micro, loads []uint32) error {
			m.SetIOSys(loads[0], loads[1])
			m.SetPC(nextPC(mi))
			return nil
		})

	register(OpVerify, "verify", []compiler.SlotKind{compiler.SlotStore}, false,
		func(m Machine, mi compiler.Micro, loads []uint32) error {
			if m.Verify() {
				m.Store(mi.Stores[0], 0)
			} else {
				m.Store(mi.Stores[0], 1)
			}
			return nil
		})

	// saveundo stores 0 when the snapshot was taken, 1 on failure. The
	// snapshot is taken with the PC already past this instruction and
	// records the store destination, so a later restoreundo resumes here
	// and delivers -1 through it.
	register(OpSaveUndo, "saveundo", []compiler.SlotKind{compiler.SlotStore}, true,
		func(m Machine, mi compiler.Micro, loads []uint32) error {
			m.SetPC(nextPC(mi))
			ok, err := m.SaveUndo(storeDestType(mi.Stores[0]), mi.Stores[0].Value)
			if err != nil {
				return err
			}
			m.Store(mi.Stores[0], boolResult(ok, 0, 1))
			return nil
		})
	// restoreundo only stores here on failure (nothing to restore); on
	// success the machine state has been replaced wholesale and the saved
	// saveundo destination has already received -1, so this handler must
	// not touch the (now stale) store destination.
	register(OpRestoreUndo, "restoreundo", []compiler.SlotKind{compiler.SlotStore}, true,
		func(m Machine, mi compiler.Micro, loads []uint32) error {
			m.SetPC(nextPC(mi))
			ok, err := m.RestoreUndo()
			if err != nil {
				return err
			}
			if !ok {
				m.Store(mi.Stores[0], 1)
			}
			return nil
		})
	register(OpSave, "save", []compiler.SlotKind{compiler.SlotStore}, true,
		func(m Machine, mi compiler.Micro, loads []uint32) error {
			m.SetPC(nextPC(mi))
			ok, err := m.Save(storeDestType(mi.Stores[0]), mi.Stores[0].Value)
			if err != nil {
				return err
			}
			m.Store(mi.Stores[0], boolResult(ok, 0, 1))
			return nil
		})
	register(OpRestore, "restore", []compiler.SlotKind{compiler.SlotStore}, true,
		func(m Machine, mi compiler.Micro, loads []uint32) error {
			m.SetPC(nextPC(mi))
			ok, err := m.Restore()
			if err != nil {
				return err
			}
			if !ok {
				m.Store(mi.Stores[0], 1)
			}
			return nil
		})

	searchSlots := []compiler.SlotKind{
		compiler.SlotLoad, compiler.SlotLoad, compiler.SlotLoad, compiler.SlotLoad,
		compiler.SlotLoad, compiler.SlotLoad, compiler.SlotLoad, compiler.SlotStore,
	}
	register(OpLinearSearch, "linearsearch", searchSlots, false,
		func(m Machine, mi compiler.Micro, loads []uint32) error {
			r := m.LinearSearch(loads[0], loads[1], loads[2], loads[3], int32(loads[4]), loads[5], loads[6])
			m.Store(mi.Stores[0], r)
			return nil
		})
	register(OpBinarySearch, "binarysearch", searchSlots, false,
		func(m Machine, mi compiler.Micro, loads []uint32) error {
			r := m.BinarySearch(loads[0], loads[1], loads[2], loads[3], int32(loads[4]), loads[5], loads[6])
			m.Store(mi.Stores[0], r)
			return nil
		})
	register(OpLinkedSearch, "linkedsearch",
		[]compiler.SlotKind{compiler.SlotLoad, compiler.SlotLoad, compiler.SlotLoad, compiler.SlotLoad, compiler.SlotLoad, compiler.SlotLoad, compiler.SlotStore},
		false,
		func(m Machine, mi compiler.Micro, loads []uint32) error {
			r := m.LinkedSearch(loads[0], loads[1], loads[2], loads[3], loads[4], loads[5])
			m.Store(mi.Stores[0], r)
			return nil
		})

	register(OpMAlloc, "malloc", lsS(), false, func(m Machine, mi compiler.Micro, loads []uint32) error {
		addr, err := m.Malloc(loads[0])
		if err != nil {
			return err
		}
		m.Store(mi.Stores[0], addr)
		return nil
	})
	register(OpMFree, "mfree", []compiler.SlotKind{compiler.SlotLoad}, false,
		func(m Machine, mi compiler.Micro, loads []uint32) error {
			return m.MFree(loads[0])
		})

	register(OpAccelFunc, "accelfunc", []compiler.SlotKind{compiler.SlotLoad, compiler.SlotLoad}, false,
		func(m Machine, mi compiler.Micro, loads []uint32) error {
			m.AccelFunc(loads[0], loads[1])
			return nil
		})
	register(OpAccelParam, "accelparam", []compiler.SlotKind{compiler.SlotLoad, compiler.SlotLoad}, false,
		func(m Machine, mi compiler.Micro, loads []uint32) error {
			m.AccelParam(loads[0], loads[1])
			return nil
		})
}

func boolResult(ok bool, onTrue, onFalse uint32) uint32 {
	if ok {
		return onTrue
	}
	return onFalse
}
