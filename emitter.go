package raonfs

import (
	"fmt"
	"io"
	"math"
)

// OpenFunc resolves a file node's Path to its readable bytes. cmd/raonfs
// wires this to os.Open; tests wire it to an in-memory fixture so the
// Emitter never has to touch a real filesystem to be exercised.
type OpenFunc func(path string) (io.ReadCloser, error)

// Emitter writes every region of a RaonFS image: inodes, directory dentry
// arrays and name regions, file contents, symlink targets, and finally the
// superblock, in that order. The order only affects seek locality, never
// correctness, since every write is offset-addressed.
type Emitter struct {
	Codec     Codec
	Dst       io.WriterAt
	BlockSize uint32
	Magic     [MagicLen]byte
	FsName    [NameLen]byte
	Open      OpenFunc

	fssize uint64
}

func (e *Emitter) touch(end int64) {
	if end > 0 && uint64(end) > e.fssize {
		e.fssize = uint64(end)
	}
}

func (e *Emitter) writeAt(data []byte, offset uint64) error {
	n, err := e.Dst.WriteAt(data, int64(offset))
	if err != nil {
		return err
	}
	e.touch(int64(offset) + int64(n))
	return nil
}

// Emit writes the full image for t and records the resulting high-water
// mark on t.FsSize.
func (e *Emitter) Emit(t *Table) error {
	ids := sortedIDs(t)

	for _, id := range ids {
		if err := e.emitInode(t.Nodes[id]); err != nil {
			return err
		}
	}
	for _, id := range ids {
		n := t.Nodes[id]
		if n.Type != TypeDir {
			continue
		}
		if err := e.emitDirectory(t, n); err != nil {
			return err
		}
	}
	for _, id := range ids {
		n := t.Nodes[id]
		if n.Type != TypeFile {
			continue
		}
		if err := e.emitFile(n); err != nil {
			return err
		}
	}
	for _, id := range ids {
		n := t.Nodes[id]
		if n.Type != TypeLink {
			continue
		}
		if err := e.emitSymlink(n); err != nil {
			return err
		}
	}

	root, ok := t.Nodes[t.RootID]
	if !ok {
		return wrap(KindIO, "emit superblock", fmt.Errorf("root node %d missing from table", t.RootID))
	}
	if root.IOffset > math.MaxUint32 {
		return wrap(KindOverflow, "emit superblock", fmt.Errorf("root ioffset %d exceeds u32", root.IOffset))
	}
	sb := Superblock{
		Magic:       e.Magic,
		BlockSize:   e.BlockSize,
		RootIOffset: uint32(root.IOffset),
		FsSize:      e.fssize,
		FsName:      e.FsName,
	}
	data, err := e.Codec.PackSuperblock(sb)
	if err != nil {
		return wrap(KindIO, "emit superblock", err)
	}
	if err := e.writeAt(data, 0); err != nil {
		return wrap(KindIO, "emit superblock", err)
	}

	t.FsSize = e.fssize
	return nil
}

func (e *Emitter) emitInode(n *Node) error {
	data, err := e.Codec.PackInode(n)
	if err != nil {
		return err
	}
	if err := e.writeAt(data, n.IOffset); err != nil {
		return wrap(KindIO, fmt.Sprintf("emit inode %d", n.ID), err)
	}
	return nil
}

// emitDirectory writes a directory's dentry array at DOffset followed by
// its name region at MOffset. Children are visited in ascending
// byte-lexicographic name order; NameOffset accumulates the bytes of every
// name written so far in this directory.
func (e *Emitter) emitDirectory(t *Table, n *Node) error {
	names := sortedChildNames(n)
	if len(names) == 0 {
		return nil
	}

	var nameOffset uint32
	for i, name := range names {
		child, ok := t.Nodes[n.Children[name]]
		if !ok {
			return wrap(KindIO, fmt.Sprintf("emit dir %d", n.ID), fmt.Errorf("child %q: missing node", name))
		}
		if child.IOffset > math.MaxUint32 {
			return wrap(KindOverflow, fmt.Sprintf("emit dentry %q in dir %d", name, n.ID), fmt.Errorf("ioffset %d exceeds u32", child.IOffset))
		}
		rec := DentryRecord{
			NameOffset: nameOffset,
			NameLen:    uint16(len(name)),
			Type:       uint16(child.Type),
			IOffset:    uint32(child.IOffset),
		}
		data, err := e.Codec.PackDentry(rec)
		if err != nil {
			return wrap(KindIO, fmt.Sprintf("emit dentry %q in dir %d", name, n.ID), err)
		}
		if err := e.writeAt(data, n.DOffset+uint64(i)*DentrySize); err != nil {
			return wrap(KindIO, fmt.Sprintf("emit dentry %q in dir %d", name, n.ID), err)
		}
		nameOffset += uint32(len(name))
	}

	var off uint64
	for _, name := range names {
		if err := e.writeAt([]byte(name), n.MOffset+off); err != nil {
			return wrap(KindIO, fmt.Sprintf("emit name %q in dir %d", name, n.ID), err)
		}
		off += uint64(len(name))
	}
	return nil
}

// emitFile streams a file's contents to DOffset without buffering the
// whole file in memory, wrapping the output io.WriterAt at an offset with
// io.NewOffsetWriter before calling io.Copy.
func (e *Emitter) emitFile(n *Node) error {
	if n.Size == 0 {
		return nil
	}
	src, err := e.Open(n.Path)
	if err != nil {
		return wrap(KindIO, fmt.Sprintf("open %q", n.Path), err)
	}
	defer src.Close()

	w := io.NewOffsetWriter(e.Dst, int64(n.DOffset))
	written, err := io.Copy(w, src)
	if err != nil {
		return wrap(KindIO, fmt.Sprintf("copy %q", n.Path), err)
	}
	e.touch(int64(n.DOffset) + written)
	return nil
}

// emitSymlink writes a symlink's target bytes at DOffset, unterminated.
func (e *Emitter) emitSymlink(n *Node) error {
	if n.Size == 0 {
		return nil
	}
	if err := e.writeAt([]byte(n.Link), n.DOffset); err != nil {
		return wrap(KindIO, fmt.Sprintf("emit symlink %d", n.ID), err)
	}
	return nil
}
