//go:build !(linux || darwin || freebsd || netbsd || openbsd || windows)

package fs

import (
	"errors"
	"io"
	iofs "io/fs"
	"os"
)

// MaxPath is the longest path the primitive accepts, in bytes.
const MaxPath = 4096

// Native is a stub on platforms without a primitive implementation. Every
// operation fails with [ErrUnsupported].
type Native struct{}

// NewNative returns the native filesystem for this platform.
func NewNative() *Native {
	return &Native{}
}

func (n *Native) OpenRead(path string) (File, Info, error) {
	return nil, Info{}, unsupported("open", path)
}

func (n *Native) Stat(path string) (Info, error) {
	return Info{}, unsupported("stat", path)
}

func (n *Native) Create(path string, _ uint32) (File, error) {
	return nil, unsupported("create", path)
}

func (n *Native) Replace(path string, _ io.Reader, _ uint32) error {
	return unsupported("replace", path)
}

func (n *Native) Mkdir(path string, _ uint32) error {
	return unsupported("mkdir", path)
}

func (n *Native) Rmdir(path string) error {
	return unsupported("rmdir", path)
}

func (n *Native) Unlink(path string) error {
	return unsupported("unlink", path)
}

func (n *Native) ReadDirNames(path string) ([]string, error) {
	return nil, unsupported("readdir", path)
}

// Compile-time interface check.
var _ FS = (*Native)(nil)

func unsupported(op, path string) error {
	return &os.PathError{Op: op, Path: path, Err: ErrUnsupported}
}

func classify(err error) Kind {
	switch {
	case errors.Is(err, iofs.ErrNotExist):
		return KindNotFound
	case errors.Is(err, iofs.ErrPermission):
		return KindAccessDenied
	default:
		return KindOther
	}
}

// Errors injected by [Chaos].
var (
	errInjectAccess   = iofs.ErrPermission
	errInjectIO       = errors.New("i/o error")
	errInjectNoSpace  = errors.New("no space left on device")
	errInjectBusy     = errors.New("resource busy")
	errInjectNotEmpty = errors.New("directory not empty")
	errInjectNotDir   = errors.New("not a directory")
)
