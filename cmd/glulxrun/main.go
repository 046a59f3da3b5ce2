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

// glulxrun is a minimal host for the glulxcore VM: it wires a
// stdout-backed Glk dispatcher, a file-backed save store, and the
// optional stats dashboard, then runs a story file to completion. It is
// deliberately not a full Glk implementation (windows, styles and
// events are out of the core's scope) but it is enough to drive plain
// stream output and simple key-wait loops.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/pkg/term"

	"github.com/erkyrath/glulxcore/glk"
	"github.com/erkyrath/glulxcore/internal/debugdump"
	"github.com/erkyrath/glulxcore/internal/logger"
	"github.com/erkyrath/glulxcore/internal/prefs"
	"github.com/erkyrath/glulxcore/internal/vmstats"
	"github.com/erkyrath/glulxcore/vm"
)

func main() {
	seed := flag.Int("seed", 0, "deterministic RNG seed (0 uses host entropy)")
	rethrow := flag.Bool("rethrow", false, "propagate fatal errors with their full chain")
	stats := flag.String("stats", "", "serve the live stats dashboard on this address (eg. localhost:18066)")
	dumpTree := flag.String("dump-tree", "", "write the decoding tree as Graphviz dot to this file on exit")
	dumpHeap := flag.String("dump-heap", "", "write the heap block layout as Graphviz dot to this file on exit")
	saveFile := flag.String("savefile", "", "path used by the save/restore opcodes")
	verbose := flag.Bool("v", false, "echo VM log entries to stderr")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: glulxrun [flags] story.ulx\n")
		flag.PrintDefaults()
		os.Exit(2)
	}

	if *verbose {
		logger.SetSink(func(e logger.Entry) {
			fmt.Fprintf(os.Stderr, "[%s] %s\n", e.Tag, e.Message)
		})
	}

	raw, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "glulxrun: %v\n", err)
		os.Exit(1)
	}

	opts := prefs.NewOptions()
	opts.RandomSeed.Set(*seed)
	opts.RethrowExceptions.Set(*rethrow)

	host := &stdioGlk{}

	var store glk.SaveStore
	if *saveFile != "" {
		store = fileStore{path: *saveFile}
	}

	st, err := vm.Init(raw, host, store, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "glulxrun: %v\n", err)
		os.Exit(1)
	}

	var dash *vmstats.Dashboard
	if *stats != "" {
		dash = vmstats.Serve(*stats, st.Stats())
		defer dash.Stop()
	}

	for !st.Terminated() && !host.exited {
		// the story suspended (glk_select); wait for a keypress before
		// re-entering, which is as much of an event loop as a plain
		// terminal host needs.
		if err := waitKey(); err != nil {
			break
		}
		if err := st.Resume(); err != nil {
			fmt.Fprintf(os.Stderr, "glulxrun: %v\n", err)
			os.Exit(1)
		}
	}

	if *dumpTree != "" {
		f, err := os.Create(*dumpTree)
		if err == nil {
			debugdump.DumpTree(f, st, st.StringTbl())
			f.Close()
		}
	}
	if *dumpHeap != "" {
		f, err := os.Create(*dumpHeap)
		if err == nil {
			hs := st.HeapState()
			debugdump.DumpHeap(f, hs.UsedHeads, hs.FreeHeads)
			f.Close()
		}
	}
}

// waitKey reads one byte from the controlling terminal in raw mode.
func waitKey() error {
	t, err := term.Open("/dev/tty")
	if err != nil {
		return err
	}
	defer t.Close()

	if err := term.RawMode(t); err != nil {
		return err
	}
	defer t.Restore()

	buf := make([]byte, 1)
	_, err = t.Read(buf)
	return err
}

// Glk selectors the demo host services.
const (
	selExit       = 0x0001
	selSelect     = 0x00C0
	selPutChar    = 0x0080
	selPutCharUni = 0x0128
)

// stdioGlk is the minimal Glk dispatcher: characters go to stdout,
// glk_select and glk_exit suspend.
type stdioGlk struct {
	exited bool
}

func (g *stdioGlk) Call(selector uint32, args []uint32) (interface{}, error) {
	switch selector {
	case selPutChar, selPutCharUni:
		if len(args) > 0 {
			fmt.Printf("%c", rune(args[0]))
		}
		return uint32(0), nil
	case selExit:
		g.exited = true
		return glk.DidNotReturn, nil
	case selSelect:
		return glk.DidNotReturn, nil
	default:
		return uint32(0), nil
	}
}

func (g *stdioGlk) MayNotReturn(selector uint32) bool {
	return selector == selExit || selector == selSelect
}

// fileStore persists save states to a single file.
type fileStore struct {
	path string
}

func (f fileStore) Save(data []byte) (bool, error) {
	if err := os.WriteFile(f.path, data, 0644); err != nil {
		return false, err
	}
	return true, nil
}

func (f fileStore) Restore() ([]byte, bool, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}
