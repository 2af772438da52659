package raonfs

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"syscall"
)

// StatInfo is the stat-like record an external directory walk yields for
// one path: inode number, raw mode bits (type plus permissions), ids,
// times, and the raw device id for block/char devices. Link carries the
// raw symlink target text and is only populated for symlinks.
type StatInfo struct {
	Ino   uint64
	Mode  uint32
	Uid   uint32
	Gid   uint32
	Ctime uint32
	Mtime uint32
	Atime uint32
	Rdev  uint32
	Link  string
}

// WalkEntry is one path visited by an external directory walk. Path is
// slash-separated and relative to the walk root; the root itself is
// visited with Path == "" and no Parent. Name is the entry's base name
// within Parent, used verbatim as a directory-entry name.
type WalkEntry struct {
	Path   string
	Name   string
	Parent string
	Stat   StatInfo
}

// WalkFunc drives an external directory walk, calling visit once per entry
// in parent-before-children order (matching path/filepath.WalkDir). The
// Walker adapter never performs filesystem I/O of its own: cmd/raonfs wires
// OSWalk as the concrete default, and tests inject a WalkFunc that replays
// a fixed entry list.
type WalkFunc func(visit func(WalkEntry) error) error

// Table is the in-memory node table the Walker adapter builds: one Node
// per distinct source inode number, plus the id of the root node. FsSize
// is filled in by the Emitter once the image has been written.
type Table struct {
	Nodes  map[uint64]*Node
	RootID uint64
	FsSize uint64
}

// BuildTable drives walk and returns the resulting node table. Two paths
// that share an inode number (hard links) collapse onto a single Node,
// since a Node's identity is its source inode number. Directory entries
// are named by the walk and keyed into the table by the child's inode
// number.
func BuildTable(walk WalkFunc) (*Table, error) {
	t := &Table{Nodes: make(map[uint64]*Node)}
	pathToID := make(map[string]uint64)
	haveRoot := false

	err := walk(func(e WalkEntry) error {
		n, ok := t.Nodes[e.Stat.Ino]
		if !ok {
			nt, err := nodeTypeFromMode(e.Stat.Mode)
			if err != nil {
				return wrap(KindUnsupported, fmt.Sprintf("walk %q", e.Path), err)
			}
			n = &Node{
				ID:    e.Stat.Ino,
				Type:  nt,
				Mode:  uint16(e.Stat.Mode),
				Uid:   uint16(e.Stat.Uid),
				Gid:   uint16(e.Stat.Gid),
				Ctime: e.Stat.Ctime,
				Mtime: e.Stat.Mtime,
				Atime: e.Stat.Atime,
				Rdev:  e.Stat.Rdev,
				Path:  e.Path,
			}
			if nt == TypeDir {
				n.Children = make(map[string]uint64)
			}
			if nt == TypeLink {
				n.Link = e.Stat.Link
			}
			t.Nodes[e.Stat.Ino] = n
		}
		pathToID[e.Path] = n.ID

		if e.Path == "" {
			t.RootID = n.ID
			haveRoot = true
			return nil
		}

		parentID, ok := pathToID[e.Parent]
		if !ok {
			return wrap(KindWalk, fmt.Sprintf("walk %q", e.Path), fmt.Errorf("parent %q not yet visited", e.Parent))
		}
		parent := t.Nodes[parentID]
		if parent.Children == nil {
			return wrap(KindWalk, fmt.Sprintf("walk %q", e.Path), fmt.Errorf("parent %q is not a directory", e.Parent))
		}
		parent.Children[e.Name] = n.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !haveRoot {
		return nil, wrap(KindWalk, "walk", fmt.Errorf("root entry was never visited"))
	}
	return t, nil
}

// OSWalk builds a WalkFunc over a real directory tree rooted at source,
// using path/filepath.WalkDir plus os.Lstat so symlinks are reported, not
// followed. rdev/uid/gid are pulled from the platform's syscall.Stat_t.
func OSWalk(source string) WalkFunc {
	return func(visit func(WalkEntry) error) error {
		return filepath.WalkDir(source, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return wrap(KindWalk, fmt.Sprintf("walk %q", path), err)
			}

			rel, err := filepath.Rel(source, path)
			if err != nil {
				return wrap(KindWalk, fmt.Sprintf("walk %q", path), err)
			}
			rel = filepath.ToSlash(rel)
			if rel == "." {
				rel = ""
			}

			fi, err := os.Lstat(path)
			if err != nil {
				return wrap(KindWalk, fmt.Sprintf("lstat %q", path), err)
			}

			st, ok := fi.Sys().(*syscall.Stat_t)
			if !ok {
				return wrap(KindWalk, fmt.Sprintf("stat %q", path), fmt.Errorf("unsupported platform: no syscall.Stat_t"))
			}

			entry := WalkEntry{
				Path: rel,
				Stat: StatInfo{
					Ino:   st.Ino,
					Mode:  uint32(st.Mode),
					Uid:   st.Uid,
					Gid:   st.Gid,
					Ctime: uint32(st.Ctim.Sec),
					Mtime: uint32(st.Mtim.Sec),
					Atime: uint32(st.Atim.Sec),
					Rdev:  uint32(st.Rdev),
				},
			}
			if fi.Mode()&fs.ModeSymlink != 0 {
				target, err := os.Readlink(path)
				if err != nil {
					return wrap(KindWalk, fmt.Sprintf("readlink %q", path), err)
				}
				entry.Stat.Link = target
			}
			if rel != "" {
				entry.Parent = parentPath(rel)
				entry.Name = filepath.Base(rel)
			}

			return visit(entry)
		})
	}
}

// parentPath returns the slash-separated parent of a relative path; the
// root's own parent is "" by construction (never queried since rel == "").
func parentPath(rel string) string {
	dir := filepath.ToSlash(filepath.Dir(rel))
	if dir == "." {
		return ""
	}
	return dir
}

// fileSizeFromOS stats n.Path, relative to the working directory, to learn
// a file node's byte length. It is the default SizeFunc NewBuilder wires
// in; cmd/raonfs and tests supply their own.
func fileSizeFromOS(n *Node) (uint64, error) {
	fi, err := os.Stat(n.Path)
	if err != nil {
		return 0, err
	}
	return uint64(fi.Size()), nil
}

// sortedChildNames returns a directory node's child names in ascending
// byte-lexicographic order, the order the Emitter writes dentries in.
func sortedChildNames(n *Node) []string {
	names := make([]string, 0, len(n.Children))
	for name := range n.Children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
