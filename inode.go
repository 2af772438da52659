package raonfs

import (
	"fmt"
	"math"
)

// InodeSize is the on-disk byte width of an inode record: size(4) +
// msize(4) + rdev(4) + mode(2) + uid(2) + gid(2) + ctime(4) + mtime(4) +
// atime(4) + flags(4) + doffset(8) + moffset(8) = 48 bytes.
const InodeSize = 48

// inodeRecord is the wire shape of an inode: a Node's offsets and flags
// plus every field that fits directly in 48 bytes. Size and MSize are
// narrowed from Node's wider in-memory fields, with an explicit overflow
// check rather than a silent truncation; Rdev is already 32 bits wide.
type inodeRecord struct {
	Size    uint32
	MSize   uint32
	Rdev    uint32
	Mode    uint16
	Uid     uint16
	Gid     uint16
	Ctime   uint32
	Mtime   uint32
	Atime   uint32
	Flags   uint32
	DOffset uint64
	MOffset uint64
}

func newInodeRecord(n *Node) (inodeRecord, error) {
	if n.Size > math.MaxUint32 {
		return inodeRecord{}, wrap(KindOverflow, fmt.Sprintf("inode %d size", n.ID), fmt.Errorf("size %d exceeds u32", n.Size))
	}
	if n.MSize > math.MaxUint32 {
		return inodeRecord{}, wrap(KindOverflow, fmt.Sprintf("inode %d msize", n.ID), fmt.Errorf("msize %d exceeds u32", n.MSize))
	}
	return inodeRecord{
		Size:    uint32(n.Size),
		MSize:   uint32(n.MSize),
		Rdev:    n.Rdev,
		Mode:    n.Mode,
		Uid:     n.Uid,
		Gid:     n.Gid,
		Ctime:   n.Ctime,
		Mtime:   n.Mtime,
		Atime:   n.Atime,
		Flags:   n.Flags,
		DOffset: n.DOffset,
		MOffset: n.MOffset,
	}, nil
}

// PackInode encodes n as a 48-byte inode record using c's byte order.
func (c Codec) PackInode(n *Node) ([]byte, error) {
	rec, err := newInodeRecord(n)
	if err != nil {
		return nil, err
	}
	return c.Pack(rec.Size, rec.MSize, rec.Rdev, rec.Mode, rec.Uid, rec.Gid,
		rec.Ctime, rec.Mtime, rec.Atime, rec.Flags, rec.DOffset, rec.MOffset)
}

// UnpackInode decodes an inodeRecord from a 48-byte buffer using c's byte
// order. Packing then unpacking is the identity.
func (c Codec) UnpackInode(data []byte) (inodeRecord, error) {
	var rec inodeRecord
	err := c.Unpack(data, &rec.Size, &rec.MSize, &rec.Rdev, &rec.Mode, &rec.Uid, &rec.Gid,
		&rec.Ctime, &rec.Mtime, &rec.Atime, &rec.Flags, &rec.DOffset, &rec.MOffset)
	return rec, err
}
