package raonfs_test

import (
	"bytes"
	"encoding/binary"
	"io"
	"strings"
	"syscall"
	"testing"

	"github.com/raonfs/raonfs"
)

// memImage is an in-memory io.WriterAt that grows to fit whatever offset is
// written, standing in for the target *os.File in tests.
type memImage struct {
	buf []byte
}

func (m *memImage) WriteAt(p []byte, off int64) (int, error) {
	end := int(off) + len(p)
	if end > len(m.buf) {
		grown := make([]byte, end)
		copy(grown, m.buf)
		m.buf = grown
	}
	copy(m.buf[off:], p)
	return len(p), nil
}

func buildAndEmit(t *testing.T, entries []raonfs.WalkEntry, sizeOf raonfs.SizeFunc, open raonfs.OpenFunc, blockSize uint32, inlineStep int) (*memImage, *raonfs.Table) {
	t.Helper()

	table, err := raonfs.BuildTable(fixedWalk(entries))
	if err != nil {
		t.Fatalf("BuildTable: %s", err)
	}
	if err := raonfs.Size(table, sizeOf); err != nil {
		t.Fatalf("Size: %s", err)
	}
	raonfs.Place(table, uint64(blockSize), inlineStep)

	img := &memImage{}
	e := &raonfs.Emitter{
		Codec:     raonfs.NewCodec(binary.LittleEndian),
		Dst:       img,
		BlockSize: blockSize,
		Open:      open,
	}
	copy(e.Magic[:], "RAON")
	copy(e.FsName[:], "RAON-FS")

	if err := e.Emit(table); err != nil {
		t.Fatalf("Emit: %s", err)
	}
	return img, table
}

func TestEmitSmallTreeRoundTrips(t *testing.T) {
	entries := []raonfs.WalkEntry{
		{Path: "", Stat: raonfs.StatInfo{Ino: 1, Mode: syscall.S_IFDIR | 0o755}},
		{Path: "hello.txt", Name: "hello.txt", Parent: "", Stat: raonfs.StatInfo{Ino: 2, Mode: syscall.S_IFREG | 0o644}},
		{Path: "a-link", Name: "a-link", Parent: "", Stat: raonfs.StatInfo{Ino: 3, Mode: syscall.S_IFLNK | 0o777, Link: "hello.txt"}},
	}
	contents := map[string]string{"hello.txt": "hi there"}

	sizeOf := func(n *raonfs.Node) (uint64, error) { return uint64(len(contents[n.Path])), nil }
	open := func(path string) (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(contents[path])), nil
	}

	img, table := buildAndEmit(t, entries, sizeOf, open, 64, 2)

	c := raonfs.NewCodec(binary.LittleEndian)
	sb, err := c.UnpackSuperblock(img.buf[:raonfs.SuperblockSize])
	if err != nil {
		t.Fatalf("UnpackSuperblock: %s", err)
	}
	if string(bytes.TrimRight(sb.Magic[:], "\x00")) != "RAON" {
		t.Fatalf("magic = %q, want RAON", sb.Magic)
	}
	if sb.BlockSize != 64 {
		t.Fatalf("BlockSize = %d, want 64", sb.BlockSize)
	}
	root := table.Nodes[1]
	if sb.RootIOffset != uint32(root.IOffset) {
		t.Fatalf("RootIOffset = %d, want %d", sb.RootIOffset, root.IOffset)
	}
	if sb.FsSize == 0 || sb.FsSize != table.FsSize {
		t.Fatalf("FsSize = %d, table.FsSize = %d", sb.FsSize, table.FsSize)
	}

	// The root directory's dentry array must list children in
	// byte-lexicographic name order: "a-link" before "hello.txt".
	d0, err := c.UnpackDentry(img.buf[root.DOffset : root.DOffset+raonfs.DentrySize])
	if err != nil {
		t.Fatalf("UnpackDentry: %s", err)
	}
	link := table.Nodes[3]
	if d0.IOffset != uint32(link.IOffset) {
		t.Fatalf("first dentry ioffset = %d, want the symlink's ioffset %d (alphabetical order)", d0.IOffset, link.IOffset)
	}
	name := img.buf[root.MOffset+uint64(d0.NameOffset) : root.MOffset+uint64(d0.NameOffset)+uint64(d0.NameLen)]
	if string(name) != "a-link" {
		t.Fatalf("first dentry name = %q, want a-link", name)
	}
}

func TestEmitFileContentsStreamed(t *testing.T) {
	entries := []raonfs.WalkEntry{
		{Path: "", Stat: raonfs.StatInfo{Ino: 1, Mode: syscall.S_IFDIR | 0o755}},
		{Path: "big.bin", Name: "big.bin", Parent: "", Stat: raonfs.StatInfo{Ino: 2, Mode: syscall.S_IFREG | 0o644}},
	}
	payload := strings.Repeat("x", 500)
	sizeOf := func(n *raonfs.Node) (uint64, error) { return uint64(len(payload)), nil }
	open := func(path string) (io.ReadCloser, error) { return io.NopCloser(strings.NewReader(payload)), nil }

	img, table := buildAndEmit(t, entries, sizeOf, open, 64, 4)

	file := table.Nodes[2]
	got := string(img.buf[file.DOffset : file.DOffset+uint64(len(payload))])
	if got != payload {
		t.Fatalf("file contents at DOffset do not match: got %d bytes, want %d", len(got), len(payload))
	}
}

func TestEmitEmptyDirectoryWritesNoRegions(t *testing.T) {
	entries := []raonfs.WalkEntry{
		{Path: "", Stat: raonfs.StatInfo{Ino: 1, Mode: syscall.S_IFDIR | 0o755}},
	}
	_, table := buildAndEmit(t, entries, nil, nil, 64, 4)

	root := table.Nodes[1]
	if root.Size != 0 {
		t.Fatalf("empty directory should size to 0, got %d", root.Size)
	}
}
