package raonfs

import (
	"fmt"

	"golang.org/x/xerrors"
)

// Kind classifies the fatal errors a build can surface. All raonfs errors
// are terminal: the pipeline never retries and never partially recovers.
type Kind int

const (
	// KindWalk means stat or readlink failed on a source path.
	KindWalk Kind = iota
	// KindUnsupported means a source entry's file type is not one of the
	// eight enumerated node types.
	KindUnsupported
	// KindConfig means the builder configuration itself is invalid (bad
	// magic length, non-aligned block size, negative inline step).
	KindConfig
	// KindIO means a seek/read/write/open on the target image or a source
	// file failed.
	KindIO
	// KindOverflow means a size or offset value does not fit the on-disk
	// field width it is destined for.
	KindOverflow
)

func (k Kind) String() string {
	switch k {
	case KindWalk:
		return "WalkError"
	case KindUnsupported:
		return "Unsupported"
	case KindConfig:
		return "ConfigError"
	case KindIO:
		return "IoError"
	case KindOverflow:
		return "Overflow"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is the concrete error type returned by every raonfs component. Op
// names the operation that failed (e.g. "walk", "place", "emit inode"), and
// Err is the underlying cause, wrapped so %w-style unwrapping keeps working.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("raonfs: %s: %s", e.Kind, e.Op)
	}
	return fmt.Sprintf("raonfs: %s: %s: %s", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// wrap builds an *Error of the given kind, attaching a stack frame via
// xerrors so the wrapped chain keeps useful context when printed with %+v.
func wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: xerrors.Errorf("%s: %w", op, err)}
}
