package raonfs

import "sort"

// sortedIDs returns the table's node ids in ascending order. Every Placer
// pass traverses in this order, making the output a deterministic function
// of the source-walked inode numbers; inode numbers are unique within the
// table, so there are no ties to break.
func sortedIDs(t *Table) []uint64 {
	ids := make([]uint64, 0, len(t.Nodes))
	for id := range t.Nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// roundUp rounds v up to the next multiple of step. step == 0 is treated as
// "no rounding" (get_steps(bytesize, 0) has no sensible meaning; callers
// never pass a zero block size past Config.Validate).
func roundUp(v, step uint64) uint64 {
	if step == 0 || v%step == 0 {
		return v
	}
	return v + (step - v%step)
}

// Place assigns IOffset, DOffset and MOffset to every node in the table:
// inlineStep rounds of growing inline slots (pass A), then a two-subpass
// extent placement for whatever remains unassigned (pass B). This is the
// heart of the layout algorithm.
func Place(t *Table, blockSize uint64, inlineStep int) {
	ids := sortedIDs(t)

	// nodebase: block 0 is reserved for the superblock.
	cursor := blockSize

	for k := inlineStep; k >= 1; k-- {
		maxSize := blockSize >> uint(k)
		cursor += placeInline(t, ids, cursor, maxSize)
		cursor = roundUp(cursor, blockSize)
	}

	cursor = placeExtentInodes(t, ids, cursor)
	cursor = roundUp(cursor, blockSize)
	placeExtentData(t, ids, cursor, blockSize)
}

// placeInline is pass A's single refinement step at slot size maxSize: it
// places every still-unassigned node that fits (size == 0, or size small
// enough to leave room for the inode in one maxSize slot) consecutively
// starting at base, and returns the number of bytes consumed.
func placeInline(t *Table, ids []uint64, base, maxSize uint64) uint64 {
	var used uint64
	for _, id := range ids {
		n := t.Nodes[id]
		if n.IOffset != 0 {
			continue
		}
		if n.Size != 0 {
			if maxSize <= uint64(InodeSize) || n.Size > maxSize-uint64(InodeSize) {
				continue
			}
		}
		n.IOffset = base + used
		n.DOffset = n.IOffset + uint64(InodeSize)
		n.MOffset = n.DOffset + (n.Size - n.MSize)
		n.Flags |= InlineData
		used += maxSize
	}
	return used
}

// placeExtentInodes is pass B's first subpass: it packs every still-
// unassigned node's inode record contiguously starting at base and returns
// the cursor just past the last one (not yet block-aligned).
func placeExtentInodes(t *Table, ids []uint64, base uint64) uint64 {
	cursor := base
	for _, id := range ids {
		n := t.Nodes[id]
		if n.IOffset != 0 {
			continue
		}
		n.IOffset = cursor
		cursor += uint64(InodeSize)
	}
	return cursor
}

// placeExtentData is pass B's second subpass: for every node with data
// still lacking a DOffset, it assigns a block-aligned extent starting at
// base and advances by the data's block-rounded size.
func placeExtentData(t *Table, ids []uint64, base, blockSize uint64) uint64 {
	cursor := base
	for _, id := range ids {
		n := t.Nodes[id]
		if n.DOffset != 0 || n.Size == 0 {
			continue
		}
		n.DOffset = cursor
		n.MOffset = n.DOffset + (n.Size - n.MSize)
		cursor += roundUp(n.Size, blockSize)
	}
	return cursor
}
