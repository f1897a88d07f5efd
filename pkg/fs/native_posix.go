//go:build linux || darwin || freebsd || netbsd || openbsd

package fs

import (
	"errors"
	"io"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// maxRW caps a single read/write system call. Darwin rejects larger counts
// with EINVAL.
const maxRW = 1 << 30

// direntBufSize is the buffer handed to getdents/getdirentries.
const direntBufSize = 8192

// Native implements [FS] directly on POSIX system calls.
//
// OpenRead is open(2) followed by fstat(2) on the same descriptor, so the
// metadata always describes the file that was opened.
type Native struct{}

// NewNative returns the native filesystem for this platform.
func NewNative() *Native {
	return &Native{}
}

func (n *Native) OpenRead(path string) (File, Info, error) {
	fd, err := openFD(path, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, Info{}, &os.PathError{Op: "open", Path: path, Err: err}
	}

	var st unix.Stat_t

	err = ignoringEINTR(func() error { return unix.Fstat(fd, &st) })
	if err != nil {
		_ = unix.Close(fd)

		return nil, Info{}, &os.PathError{Op: "fstat", Path: path, Err: err}
	}

	return &fdFile{fd: fd, path: path}, infoFromStat(&st), nil
}

func (n *Native) Stat(path string) (Info, error) {
	var st unix.Stat_t

	err := ignoringEINTR(func() error { return unix.Stat(path, &st) })
	if err != nil {
		return Info{}, &os.PathError{Op: "stat", Path: path, Err: err}
	}

	return infoFromStat(&st), nil
}

func (n *Native) Create(path string, perm uint32) (File, error) {
	fd, err := openFD(path, unix.O_WRONLY|unix.O_CREAT|unix.O_TRUNC|unix.O_CLOEXEC, perm)
	if err != nil {
		return nil, &os.PathError{Op: "open", Path: path, Err: err}
	}

	return &fdFile{fd: fd, path: path}, nil
}

func (n *Native) Replace(path string, r io.Reader, perm uint32) error {
	return replaceFile(path, r, perm)
}

func (n *Native) Mkdir(path string, perm uint32) error {
	err := ignoringEINTR(func() error { return unix.Mkdir(path, perm) })
	if err != nil {
		return &os.PathError{Op: "mkdir", Path: path, Err: err}
	}

	return nil
}

func (n *Native) Rmdir(path string) error {
	err := ignoringEINTR(func() error { return unix.Rmdir(path) })
	if err != nil {
		return &os.PathError{Op: "rmdir", Path: path, Err: err}
	}

	return nil
}

func (n *Native) Unlink(path string) error {
	err := ignoringEINTR(func() error { return unix.Unlink(path) })
	if err != nil {
		return &os.PathError{Op: "unlink", Path: path, Err: err}
	}

	return nil
}

func (n *Native) ReadDirNames(path string) ([]string, error) {
	fd, err := openFD(path, unix.O_RDONLY|unix.O_DIRECTORY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, &os.PathError{Op: "opendir", Path: path, Err: err}
	}

	defer func() { _ = unix.Close(fd) }()

	buf := make([]byte, direntBufSize)

	var names []string

	for {
		nread, err := ignoringEINTRIO(unix.ReadDirent, fd, buf)
		if err != nil {
			return nil, &os.PathError{Op: "readdirent", Path: path, Err: err}
		}

		if nread <= 0 {
			break
		}

		// ParseDirent already drops "." and ".."; the filter below keeps the
		// contract independent of that.
		_, _, names = unix.ParseDirent(buf[:nread], -1, names)
	}

	out := names[:0]

	for _, name := range names {
		if !isDotEntry(name) {
			out = append(out, name)
		}
	}

	return out, nil
}

// Compile-time interface check.
var _ FS = (*Native)(nil)

// fdFile is a raw descriptor opened by [Native].
type fdFile struct {
	fd   int
	path string
}

func (f *fdFile) Read(p []byte) (int, error) {
	if f.fd < 0 {
		return 0, os.ErrClosed
	}

	if len(p) == 0 {
		return 0, nil
	}

	if len(p) > maxRW {
		p = p[:maxRW]
	}

	n, err := ignoringEINTRIO(unix.Read, f.fd, p)
	if err != nil {
		return 0, &os.PathError{Op: "read", Path: f.path, Err: err}
	}

	if n == 0 {
		return 0, io.EOF
	}

	return n, nil
}

func (f *fdFile) Write(p []byte) (int, error) {
	if f.fd < 0 {
		return 0, os.ErrClosed
	}

	written := 0

	for written < len(p) {
		chunk := p[written:]
		if len(chunk) > maxRW {
			chunk = chunk[:maxRW]
		}

		n, err := ignoringEINTRIO(unix.Write, f.fd, chunk)
		if err != nil {
			return written, &os.PathError{Op: "write", Path: f.path, Err: err}
		}

		if n == 0 {
			return written, io.ErrShortWrite
		}

		written += n
	}

	return written, nil
}

func (f *fdFile) Sync() error {
	if f.fd < 0 {
		return os.ErrClosed
	}

	err := ignoringEINTR(func() error { return unix.Fsync(f.fd) })
	if err != nil {
		return &os.PathError{Op: "fsync", Path: f.path, Err: err}
	}

	return nil
}

func (f *fdFile) Close() error {
	if f.fd < 0 {
		return os.ErrClosed
	}

	// close(2) must not be retried on EINTR; the descriptor is gone either way.
	err := unix.Close(f.fd)
	f.fd = -1

	if err != nil {
		return &os.PathError{Op: "close", Path: f.path, Err: err}
	}

	return nil
}

func infoFromStat(st *unix.Stat_t) Info {
	sec, nsec := st.Mtim.Unix()
	mode := uint32(st.Mode)

	return Info{
		Size:    st.Size,
		ModTime: time.Unix(sec, nsec),
		Mode:    mode,
		OwnerID: st.Uid,
		IsDir:   mode&unix.S_IFMT == unix.S_IFDIR,
	}
}

func openFD(path string, flags int, perm uint32) (int, error) {
	for {
		fd, err := unix.Open(path, flags, perm)
		if !errors.Is(err, unix.EINTR) {
			return fd, err
		}
	}
}

func ignoringEINTR(fn func() error) error {
	for {
		err := fn()
		if !errors.Is(err, unix.EINTR) {
			return err
		}
	}
}

func ignoringEINTRIO(fn func(fd int, p []byte) (int, error), fd int, p []byte) (int, error) {
	for {
		n, err := fn(fd, p)
		if !errors.Is(err, unix.EINTR) {
			if n < 0 {
				n = 0
			}

			return n, err
		}
	}
}

// classify maps POSIX errno values to a [Kind].
func classify(err error) Kind {
	switch {
	case errors.Is(err, unix.ENOENT):
		return KindNotFound
	case errors.Is(err, unix.EACCES):
		return KindAccessDenied
	default:
		return KindOther
	}
}

// Platform errors injected by [Chaos].
var (
	errInjectAccess   error = unix.EACCES
	errInjectIO       error = unix.EIO
	errInjectNoSpace  error = unix.ENOSPC
	errInjectBusy     error = unix.EBUSY
	errInjectNotEmpty error = unix.ENOTEMPTY
	errInjectNotDir   error = unix.ENOTDIR
)
