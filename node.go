package raonfs

// NodeType enumerates the eight file types RaonFS understands on disk. The
// numeric values are the wire encoding used directly as a Dentry's Type
// field and in the JSON diagnostic.
type NodeType uint16

const (
	TypeNone NodeType = iota
	TypeDir
	TypeFile
	TypeLink
	TypeBlockDev
	TypeCharDev
	TypeFifo
	TypeSocket
)

func (t NodeType) String() string {
	switch t {
	case TypeDir:
		return "dir"
	case TypeFile:
		return "file"
	case TypeLink:
		return "link"
	case TypeBlockDev:
		return "bdev"
	case TypeCharDev:
		return "cdev"
	case TypeFifo:
		return "fifo"
	case TypeSocket:
		return "sock"
	default:
		return "none"
	}
}

// InlineData is the one flag bit defined on Node.Flags: set once the Placer
// has collocated a node's inode record with its data in a single
// maxsize-bounded slot (Placer pass A).
const InlineData uint32 = 1 << 0

// Node is keyed by the source filesystem's inode number: two paths sharing
// an inode number (hard links) collapse into one Node. A Node is created
// lazily on first visit by the Walker adapter, mutated in place by the
// Sizer and the Placer, and consumed once, read-only, by the Emitter.
type Node struct {
	ID   uint64
	Type NodeType

	Mode uint16
	Uid  uint16
	Gid  uint16

	Ctime uint32
	Mtime uint32
	Atime uint32

	Rdev uint32

	// Size is the total payload byte length (file contents, dentry array
	// plus name region for directories, or symlink target length). MSize
	// is the name-region length alone; it is only nonzero for directories.
	Size  uint64
	MSize uint64

	// Path is the source path, consulted only at emission time for file
	// nodes (to read their contents) and by the Sizer (to stat their
	// length). Link holds a symlink's target text.
	Path string
	Link string

	// Children maps a directory entry's name to its child's node id. Only
	// populated for directories.
	Children map[string]uint64

	// IOffset, DOffset and MOffset are byte offsets into the output image,
	// assigned by the Placer. 0 means "unassigned" for IOffset and "no
	// data region" for DOffset/MOffset; offset 0 itself is reserved for
	// the superblock so this sentinel is unambiguous.
	IOffset uint64
	DOffset uint64
	MOffset uint64

	Flags uint32
}

// Inline reports whether the Placer collocated this node's data with its
// inode record in a single small slot.
func (n *Node) Inline() bool {
	return n.Flags&InlineData != 0
}
