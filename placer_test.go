package raonfs_test

import (
	"testing"

	"github.com/raonfs/raonfs"
)

func TestPlaceZeroSizeNodeIsInline(t *testing.T) {
	root := &raonfs.Node{ID: 1, Type: raonfs.TypeDir, Children: map[string]uint64{}}
	table := tableWith(root)

	raonfs.Place(table, 4096, 4)

	if !root.Inline() {
		t.Fatal("a zero-size node must be placed inline")
	}
	if root.IOffset != 4096 {
		t.Fatalf("IOffset = %d, want 4096 (block 0 is reserved for the superblock)", root.IOffset)
	}
	if root.DOffset != root.IOffset+raonfs.InodeSize {
		t.Fatalf("DOffset = %d, want %d", root.DOffset, root.IOffset+raonfs.InodeSize)
	}
}

func TestPlaceLargeFileGoesToExtent(t *testing.T) {
	root := &raonfs.Node{ID: 1, Type: raonfs.TypeDir, Children: map[string]uint64{"f": 2}}
	file := &raonfs.Node{ID: 2, Type: raonfs.TypeFile, Size: 10000}
	table := tableWith(root, file)

	raonfs.Place(table, 4096, 4)

	if file.Inline() {
		t.Fatal("a file too large for any inline slot must not be marked inline")
	}
	if file.DOffset%4096 != 0 {
		t.Fatalf("DOffset = %d, want a multiple of the block size", file.DOffset)
	}
	if file.IOffset == 0 {
		t.Fatal("IOffset must be assigned")
	}
}

func TestPlaceAllOffsetsDistinct(t *testing.T) {
	root := &raonfs.Node{ID: 1, Type: raonfs.TypeDir, Children: map[string]uint64{"a": 2, "b": 3, "c": 4}}
	small := &raonfs.Node{ID: 2, Type: raonfs.TypeFile, Size: 10}
	medium := &raonfs.Node{ID: 3, Type: raonfs.TypeFile, Size: 1000}
	large := &raonfs.Node{ID: 4, Type: raonfs.TypeFile, Size: 50000}
	table := tableWith(root, small, medium, large)

	raonfs.Place(table, 4096, 4)

	seen := make(map[uint64]uint64)
	for id, n := range table.Nodes {
		if other, dup := seen[n.IOffset]; dup {
			t.Fatalf("nodes %d and %d share IOffset %d", other, id, n.IOffset)
		}
		seen[n.IOffset] = id
		if n.IOffset == 0 {
			t.Fatalf("node %d has an unassigned IOffset", id)
		}
	}
}

func TestPlaceIsDeterministic(t *testing.T) {
	build := func() *raonfs.Table {
		root := &raonfs.Node{ID: 1, Type: raonfs.TypeDir, Children: map[string]uint64{"a": 2, "b": 3}}
		a := &raonfs.Node{ID: 2, Type: raonfs.TypeFile, Size: 200}
		b := &raonfs.Node{ID: 3, Type: raonfs.TypeFile, Size: 20000}
		return tableWith(root, a, b)
	}

	t1 := build()
	t2 := build()
	raonfs.Place(t1, 4096, 4)
	raonfs.Place(t2, 4096, 4)

	for id, n1 := range t1.Nodes {
		n2 := t2.Nodes[id]
		if n1.IOffset != n2.IOffset || n1.DOffset != n2.DOffset || n1.MOffset != n2.MOffset {
			t.Fatalf("node %d: placement differs between identical runs: %+v vs %+v", id, n1, n2)
		}
	}
}

func TestPlaceZeroInlineStepSkipsPassA(t *testing.T) {
	root := &raonfs.Node{ID: 1, Type: raonfs.TypeDir, Children: map[string]uint64{}}
	table := tableWith(root)

	raonfs.Place(table, 4096, 0)

	if root.Inline() {
		t.Fatal("with inlinestep=0, pass A never runs, so nothing should be marked inline")
	}
	if root.IOffset != 4096 {
		t.Fatalf("IOffset = %d, want 4096", root.IOffset)
	}
}
