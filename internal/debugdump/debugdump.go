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

// Package debugdump renders VM structures as Graphviz dot for
// inspection: the compressed-string decoding tree and the heap's
// free/used block layout. Output goes through memviz, which walks the
// reconstructed Go structures reflectively.
package debugdump

import (
	"fmt"
	"io"

	"github.com/bradleyjkemp/memviz"
)

// MemReader is the byte/word read surface needed to walk structures out
// of the memory image.
type MemReader interface {
	Mem1(addr uint32) uint8
	Mem4(addr uint32) uint32
}

// TreeNode is a reconstructed decoding-tree node.
type TreeNode struct {
	Addr  uint32
	Tag   string
	Char  string    `json:",omitempty"`
	Left  *TreeNode `json:",omitempty"`
	Right *TreeNode `json:",omitempty"`
}

// maxTreeDepth bounds reconstruction against cyclic or corrupt tables.
const maxTreeDepth = 64

// StringTree reconstructs the decoding tree rooted at the string table
// at addr (the root node address lives at addr+8).
func StringTree(mem MemReader, table uint32) *TreeNode {
	root := mem.Mem4(table + 8)
	return buildNode(mem, root, 0)
}

func buildNode(mem MemReader, addr uint32, depth int) *TreeNode {
	if depth > maxTreeDepth {
		return &TreeNode{Addr: addr, Tag: "…"}
	}

	n := &TreeNode{Addr: addr}
	switch tag := mem.Mem1(addr); tag {
	case 0x00:
		n.Tag = "branch"
		n.Left = buildNode(mem, mem.Mem4(addr+1), depth+1)
		n.Right = buildNode(mem, mem.Mem4(addr+5), depth+1)
	case 0x01:
		n.Tag = "terminator"
	case 0x02:
		n.Tag = "char"
		n.Char = fmt.Sprintf("%q", rune(mem.Mem1(addr+1)))
	case 0x03:
		n.Tag = "cstring"
	case 0x04:
		n.Tag = "unichar"
		n.Char = fmt.Sprintf("%q", rune(mem.Mem4(addr+1)))
	case 0x05:
		n.Tag = "unicstring"
	case 0x08, 0x09, 0x0A, 0x0B:
		n.Tag = fmt.Sprintf("indirect(%#x)", mem.Mem4(addr+1))
	default:
		n.Tag = fmt.Sprintf("unknown(%#x)", tag)
	}
	return n
}

// DumpTree writes the decoding tree for the string table at table as
// Graphviz dot.
func DumpTree(w io.Writer, mem MemReader, table uint32) {
	memviz.Map(w, StringTree(mem, table))
}

// HeapBlock is one block in the reconstructed heap layout.
type HeapBlock struct {
	Addr uint32
	Size uint32
	Used bool
	Next *HeapBlock `json:",omitempty"`
}

// HeapLayout chains the used and free blocks into an address-ordered
// list for rendering.
func HeapLayout(used, free map[uint32]uint32) *HeapBlock {
	var addrs []uint32
	for a := range used {
		addrs = append(addrs, a)
	}
	for a := range free {
		addrs = append(addrs, a)
	}
	for i := 1; i < len(addrs); i++ {
		for j := i; j > 0 && addrs[j] < addrs[j-1]; j-- {
			addrs[j], addrs[j-1] = addrs[j-1], addrs[j]
		}
	}

	var head, tail *HeapBlock
	for _, a := range addrs {
		size, isUsed := used[a]
		if !isUsed {
			size = free[a]
		}
		b := &HeapBlock{Addr: a, Size: size, Used: isUsed}
		if head == nil {
			head = b
		} else {
			tail.Next = b
		}
		tail = b
	}
	return head
}

// DumpHeap writes the heap's block layout as Graphviz dot.
func DumpHeap(w io.Writer, used, free map[uint32]uint32) {
	layout := HeapLayout(used, free)
	if layout == nil {
		fmt.Fprintln(w, "digraph structs {}")
		return
	}
	memviz.Map(w, layout)
}
