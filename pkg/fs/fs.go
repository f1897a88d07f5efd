// Package fs provides the platform file primitive used by the resource
// accessor.
//
// The main types are:
//   - [FS]: the capability interface (open, stat, create, mkdir, rmdir,
//     unlink, enumerate)
//   - [File]: an open handle returned by [FS.OpenRead] and [FS.Create]
//   - [Native]: production implementation on raw system calls
//     (golang.org/x/sys/unix on POSIX systems, golang.org/x/sys/windows on
//     Windows)
//   - [Chaos]: testing implementation that injects platform failures
//   - [TracingFS]: testing implementation that records every operation
//
// Errors returned by [Native] are *[os.PathError] values wrapping the raw
// platform error (a [syscall.Errno] on both POSIX and Windows), so
// [Classify], [errors.Is] and [os.IsNotExist] all work on them.
//
// Example usage:
//
//	fsys := fs.NewNative()
//	f, info, err := fsys.OpenRead("/etc/hosts")
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
//
//	buf := make([]byte, info.Size)
//	if err := fs.ReadFull(f, buf); err != nil {
//	    return err
//	}
package fs

import (
	"errors"
	"io"
	"time"
)

// ErrUnsupported is returned by every [Native] operation on platforms
// without a primitive implementation.
var ErrUnsupported = errors.New("platform file primitive not supported")

// Info is a metadata snapshot of a file or directory.
//
// The snapshot is taken when the handle is opened (or when [FS.Stat] runs)
// and may already be stale when it is returned. Nothing ties it to bytes read
// from the same handle afterwards.
type Info struct {
	// Size is the length in bytes.
	Size int64

	// ModTime is the last modification time.
	ModTime time.Time

	// Mode holds the raw POSIX st_mode bits, including the file type bits.
	// Always zero on Windows.
	Mode uint32

	// OwnerID is the owning user id. Always zero on Windows.
	OwnerID uint32

	// IsDir reports whether the path is a directory.
	IsDir bool
}

// File is an open handle scoped to a single transaction.
//
// Handles returned by [FS.OpenRead] are read-only; handles returned by
// [FS.Create] are write-only. Calling the other direction returns an error,
// like [os.File].
type File interface {
	io.ReadWriteCloser

	// Sync commits written data to stable storage.
	Sync() error
}

// FS defines the platform operations the resource handler needs.
//
// Paths are native platform paths (already converted from the locator). No
// implementation in this package retries, caches, or locks.
//
// Implementations must be safe for concurrent use by multiple goroutines.
type FS interface {
	// OpenRead opens path for reading and returns the handle together with a
	// metadata snapshot gathered from the same handle.
	//
	// On failure no handle is returned and nothing needs closing.
	OpenRead(path string) (File, Info, error)

	// Stat returns metadata for path without opening it for reading.
	// Used to harvest metadata for files that can be listed but not read.
	Stat(path string) (Info, error)

	// Create opens path for writing, creating it with perm (before umask) when
	// missing and truncating it otherwise.
	Create(path string, perm uint32) (File, error)

	// Replace atomically replaces the contents of path with data read from r:
	// the bytes are written to a temporary file next to path which is then
	// renamed over it. The result carries perm exactly (no umask), including
	// the setuid, setgid and sticky bits.
	Replace(path string, r io.Reader, perm uint32) error

	// Mkdir creates a single directory with perm (before umask).
	Mkdir(path string, perm uint32) error

	// Rmdir removes an empty directory.
	Rmdir(path string) error

	// Unlink removes a file.
	Unlink(path string) error

	// ReadDirNames returns the names of the entries in the directory at path
	// in platform order. The "." and ".." pseudo-entries are never included.
	ReadDirNames(path string) ([]string, error)
}

// ReadFull reads exactly len(buf) bytes from f.
//
// A short read, including hitting EOF early, returns [io.ErrUnexpectedEOF]
// (or [io.EOF] when nothing was read at all).
func ReadFull(f File, buf []byte) error {
	_, err := io.ReadFull(f, buf)

	return err
}

// WriteAll writes every byte of data to f.
//
// A write that reports fewer bytes than requested without an error returns
// [io.ErrShortWrite].
func WriteAll(f File, data []byte) error {
	for len(data) > 0 {
		n, err := f.Write(data)
		if err != nil {
			return err
		}

		if n <= 0 {
			return io.ErrShortWrite
		}

		data = data[n:]
	}

	return nil
}

// isDotEntry reports whether name is the "." or ".." pseudo-entry.
func isDotEntry(name string) bool {
	return name == "." || name == ".."
}
