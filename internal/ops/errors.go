package ops

import (
	"errors"
	"fmt"
)

var (
	// ErrExists is wrapped when a destination is already taken and
	// overwriting was not allowed.
	ErrExists = errors.New("destination already exists")

	// ErrInsideSource is wrapped when a directory would be copied into
	// itself.
	ErrInsideSource = errors.New("destination is inside the source directory")

	// ErrNotRegular is wrapped when a copy source is a named pipe, socket
	// or device. Opening those can block forever.
	ErrNotRegular = errors.New("not a regular file")

	// ErrTooLarge is wrapped by View for files above the size limit.
	ErrTooLarge = errors.New("file too large to view")
)

// Kind classifies which leg of an operation failed.
type Kind int

const (
	KindOpen Kind = iota
	KindCopy
	KindRemove
	KindMkdir
	KindRename
)

// Code returns the numeric error code shown in dialogs.
func (k Kind) Code() int {
	return 15000 + int(k)
}

func (k Kind) String() string {
	switch k {
	case KindOpen:
		return "open"
	case KindCopy:
		return "copy"
	case KindRemove:
		return "remove"
	case KindMkdir:
		return "mkdir"
	case KindRename:
		return "rename"
	}
	return "unknown"
}

// OpError reports a failed file operation. Op names the user-level action
// (a failed "move" may have Kind KindRemove) and Path the entry that could
// not be handled.
type OpError struct {
	Op   string
	Kind Kind
	Path string
	Err  error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s: failed to %s %s: %v", e.Op, e.Kind, e.Path, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// KindOf returns the Kind of err when it is an *OpError.
func KindOf(err error) (Kind, bool) {
	var opErr *OpError
	if errors.As(err, &opErr) {
		return opErr.Kind, true
	}
	return 0, false
}
