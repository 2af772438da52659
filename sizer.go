package raonfs

import "fmt"

// SizeFunc resolves a file node's payload byte length. The Sizer never
// touches the filesystem directly so it stays testable without one;
// NewBuilder wires fileSizeFromOS by default, cmd/raonfs wires a lookup
// relative to its source directory, tests wire a fixed lookup.
type SizeFunc func(n *Node) (uint64, error)

// Size fills in Size and, for directories, MSize for every node in the
// table:
//   - file: Size = length from sizeOf
//   - dir:  MSize = Σ len(name) over children; Size = 12*n_children + MSize
//   - link: Size = byte length of the target
//   - others: Size = 0, MSize = 0
//
// Names are UTF-8 bytes; MSize and a Dentry's NameLen are byte counts, not
// code-point counts.
func Size(t *Table, sizeOf SizeFunc) error {
	for _, n := range t.Nodes {
		switch n.Type {
		case TypeFile:
			sz, err := sizeOf(n)
			if err != nil {
				return wrap(KindWalk, fmt.Sprintf("size %q", n.Path), err)
			}
			n.Size = sz
		case TypeDir:
			var msize uint64
			for name := range n.Children {
				msize += uint64(len(name))
			}
			n.MSize = msize
			n.Size = uint64(DentrySize)*uint64(len(n.Children)) + msize
		case TypeLink:
			n.Size = uint64(len(n.Link))
		default:
			n.Size = 0
			n.MSize = 0
		}
	}
	return nil
}
