package raonfs

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/renameio"
	"golang.org/x/sys/unix"
)

// NodeView is the JSON-facing projection of a Node. It adds Major/Minor
// device components the 48-byte inode record has no room for, since the
// on-disk format keeps only the combined Rdev.
type NodeView struct {
	ID    uint64 `json:"id"`
	Type  string `json:"type"`
	Mode  uint16 `json:"mode"`
	Uid   uint16 `json:"uid"`
	Gid   uint16 `json:"gid"`
	Ctime uint32 `json:"ctime"`
	Mtime uint32 `json:"mtime"`
	Atime uint32 `json:"atime"`
	Rdev  uint32 `json:"rdev,omitempty"`
	Major uint32 `json:"major,omitempty"`
	Minor uint32 `json:"minor,omitempty"`

	Size  uint64 `json:"size"`
	MSize uint64 `json:"msize,omitempty"`

	Path string `json:"path,omitempty"`
	Link string `json:"link,omitempty"`

	Children map[string]uint64 `json:"children,omitempty"`

	IOffset uint64 `json:"ioffset"`
	DOffset uint64 `json:"doffset,omitempty"`
	MOffset uint64 `json:"moffset,omitempty"`

	Inline bool `json:"inline"`
}

func newNodeView(n *Node) *NodeView {
	v := &NodeView{
		ID:       n.ID,
		Type:     n.Type.String(),
		Mode:     n.Mode,
		Uid:      n.Uid,
		Gid:      n.Gid,
		Ctime:    n.Ctime,
		Mtime:    n.Mtime,
		Atime:    n.Atime,
		Rdev:     n.Rdev,
		Size:     n.Size,
		MSize:    n.MSize,
		Path:     n.Path,
		Link:     n.Link,
		Children: n.Children,
		IOffset:  n.IOffset,
		DOffset:  n.DOffset,
		MOffset:  n.MOffset,
		Inline:   n.Inline(),
	}
	if n.Type == TypeBlockDev || n.Type == TypeCharDev {
		dev := uint64(n.Rdev)
		v.Major = uint32(unix.Major(dev))
		v.Minor = uint32(unix.Minor(dev))
	}
	return v
}

// Diagnostic mirrors the Python original's "fsinfo" document: the run's
// resolved configuration plus the root node's id and the resulting image
// size.
type Diagnostic struct {
	Magic      string `json:"magic"`
	BlockSize  uint32 `json:"blocksize"`
	InlineStep int    `json:"inlinestep"`
	FsName     string `json:"fsname"`
	RootID     uint64 `json:"rootid"`
	FsSize     uint64 `json:"fssize"`
}

// writeDiagnostic writes the configuration summary followed by the full
// node table as two independent, back-to-back JSON documents in one file,
// rather than one merged object.
func writeDiagnostic(path string, cfg Config, t *Table) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")

	diag := Diagnostic{
		Magic:      string(bytes.TrimRight(cfg.Magic[:], "\x00")),
		BlockSize:  cfg.BlockSize,
		InlineStep: cfg.InlineStep,
		FsName:     string(bytes.TrimRight(cfg.FsName[:], "\x00")),
		RootID:     t.RootID,
		FsSize:     t.FsSize,
	}
	if err := enc.Encode(diag); err != nil {
		return wrap(KindIO, "encode diagnostic config", err)
	}

	views := make(map[uint64]*NodeView, len(t.Nodes))
	for id, n := range t.Nodes {
		views[id] = newNodeView(n)
	}
	if err := enc.Encode(views); err != nil {
		return wrap(KindIO, "encode diagnostic nodes", err)
	}

	if err := renameio.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return wrap(KindIO, fmt.Sprintf("write %q", path), err)
	}
	return nil
}
