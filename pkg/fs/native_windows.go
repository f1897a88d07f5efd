//go:build windows

package fs

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

// MaxPath is the longest path the primitive accepts, in bytes.
const MaxPath = windows.MAX_PATH

// maxRW caps a single ReadFile/WriteFile call; the count is a DWORD.
const maxRW = 1 << 30

// Native implements [FS] directly on Win32 calls.
//
// OpenRead is CreateFile followed by GetFileInformationByHandle on the same
// handle. Windows has no POSIX mode or numeric owner, so [Info.Mode] and
// [Info.OwnerID] are always zero.
type Native struct{}

// NewNative returns the native filesystem for this platform.
func NewNative() *Native {
	return &Native{}
}

func (n *Native) OpenRead(path string) (File, Info, error) {
	// FILE_FLAG_BACKUP_SEMANTICS lets directories be opened for metadata.
	h, err := createFile(path, windows.GENERIC_READ, windows.FILE_SHARE_READ,
		windows.OPEN_EXISTING, windows.FILE_ATTRIBUTE_NORMAL|windows.FILE_FLAG_BACKUP_SEMANTICS)
	if err != nil {
		return nil, Info{}, &os.PathError{Op: "CreateFile", Path: path, Err: err}
	}

	var fi windows.ByHandleFileInformation

	err = windows.GetFileInformationByHandle(h, &fi)
	if err != nil {
		_ = windows.CloseHandle(h)

		return nil, Info{}, &os.PathError{Op: "GetFileInformationByHandle", Path: path, Err: err}
	}

	info := Info{
		Size:    int64(fi.FileSizeHigh)<<32 | int64(fi.FileSizeLow),
		ModTime: time.Unix(0, fi.LastWriteTime.Nanoseconds()),
		IsDir:   fi.FileAttributes&windows.FILE_ATTRIBUTE_DIRECTORY != 0,
	}

	return &handleFile{h: h, path: path}, info, nil
}

func (n *Native) Stat(path string) (Info, error) {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return Info{}, &os.PathError{Op: "GetFileAttributesEx", Path: path, Err: err}
	}

	var fa windows.Win32FileAttributeData

	err = windows.GetFileAttributesEx(p, windows.GetFileExInfoStandard, (*byte)(unsafe.Pointer(&fa)))
	if err != nil {
		return Info{}, &os.PathError{Op: "GetFileAttributesEx", Path: path, Err: err}
	}

	return Info{
		Size:    int64(fa.FileSizeHigh)<<32 | int64(fa.FileSizeLow),
		ModTime: time.Unix(0, fa.LastWriteTime.Nanoseconds()),
		IsDir:   fa.FileAttributes&windows.FILE_ATTRIBUTE_DIRECTORY != 0,
	}, nil
}

// Create ignores perm apart from the owner write bit: a file created without
// it is marked read-only.
func (n *Native) Create(path string, perm uint32) (File, error) {
	attrs := uint32(windows.FILE_ATTRIBUTE_NORMAL)
	if perm&0o200 == 0 {
		attrs = windows.FILE_ATTRIBUTE_READONLY
	}

	h, err := createFile(path, windows.GENERIC_WRITE, 0, windows.CREATE_ALWAYS, attrs)
	if err != nil {
		return nil, &os.PathError{Op: "CreateFile", Path: path, Err: err}
	}

	return &handleFile{h: h, path: path}, nil
}

func (n *Native) Replace(path string, r io.Reader, perm uint32) error {
	return replaceFile(path, r, perm)
}

func (n *Native) Mkdir(path string, _ uint32) error {
	p, err := windows.UTF16PtrFromString(path)
	if err == nil {
		err = windows.CreateDirectory(p, nil)
	}

	if err != nil {
		return &os.PathError{Op: "CreateDirectory", Path: path, Err: err}
	}

	return nil
}

func (n *Native) Rmdir(path string) error {
	p, err := windows.UTF16PtrFromString(path)
	if err == nil {
		err = windows.RemoveDirectory(p)
	}

	if err != nil {
		return &os.PathError{Op: "RemoveDirectory", Path: path, Err: err}
	}

	return nil
}

func (n *Native) Unlink(path string) error {
	p, err := windows.UTF16PtrFromString(path)
	if err == nil {
		err = windows.DeleteFile(p)
	}

	if err != nil {
		return &os.PathError{Op: "DeleteFile", Path: path, Err: err}
	}

	return nil
}

func (n *Native) ReadDirNames(path string) ([]string, error) {
	p, err := windows.UTF16PtrFromString(filepath.Join(path, "*"))
	if err != nil {
		return nil, &os.PathError{Op: "FindFirstFile", Path: path, Err: err}
	}

	var data windows.Win32finddata

	h, err := windows.FindFirstFile(p, &data)
	if err != nil {
		return nil, &os.PathError{Op: "FindFirstFile", Path: path, Err: err}
	}

	defer func() { _ = windows.FindClose(h) }()

	var names []string

	for {
		name := windows.UTF16ToString(data.FileName[:])
		if !isDotEntry(name) {
			names = append(names, name)
		}

		err := windows.FindNextFile(h, &data)
		if errors.Is(err, windows.ERROR_NO_MORE_FILES) {
			return names, nil
		}

		if err != nil {
			return nil, &os.PathError{Op: "FindNextFile", Path: path, Err: err}
		}
	}
}

// Compile-time interface check.
var _ FS = (*Native)(nil)

// handleFile is a raw Win32 handle opened by [Native].
type handleFile struct {
	h    windows.Handle
	path string
}

func (f *handleFile) Read(p []byte) (int, error) {
	if f.h == windows.InvalidHandle {
		return 0, os.ErrClosed
	}

	if len(p) == 0 {
		return 0, nil
	}

	if len(p) > maxRW {
		p = p[:maxRW]
	}

	var done uint32

	err := windows.ReadFile(f.h, p, &done, nil)
	if err != nil {
		return 0, &os.PathError{Op: "ReadFile", Path: f.path, Err: err}
	}

	if done == 0 {
		return 0, io.EOF
	}

	return int(done), nil
}

func (f *handleFile) Write(p []byte) (int, error) {
	if f.h == windows.InvalidHandle {
		return 0, os.ErrClosed
	}

	written := 0

	for written < len(p) {
		chunk := p[written:]
		if len(chunk) > maxRW {
			chunk = chunk[:maxRW]
		}

		var done uint32

		err := windows.WriteFile(f.h, chunk, &done, nil)
		if err != nil {
			return written, &os.PathError{Op: "WriteFile", Path: f.path, Err: err}
		}

		if done == 0 {
			return written, io.ErrShortWrite
		}

		written += int(done)
	}

	return written, nil
}

func (f *handleFile) Sync() error {
	if f.h == windows.InvalidHandle {
		return os.ErrClosed
	}

	err := windows.FlushFileBuffers(f.h)
	if err != nil {
		return &os.PathError{Op: "FlushFileBuffers", Path: f.path, Err: err}
	}

	return nil
}

func (f *handleFile) Close() error {
	if f.h == windows.InvalidHandle {
		return os.ErrClosed
	}

	err := windows.CloseHandle(f.h)
	f.h = windows.InvalidHandle

	if err != nil {
		return &os.PathError{Op: "CloseHandle", Path: f.path, Err: err}
	}

	return nil
}

func createFile(path string, access, share, disposition, attrs uint32) (windows.Handle, error) {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return windows.InvalidHandle, err
	}

	return windows.CreateFile(p, access, share, nil, disposition, attrs, 0)
}

// classify maps Win32 error codes to a [Kind].
func classify(err error) Kind {
	switch {
	case errors.Is(err, windows.ERROR_FILE_NOT_FOUND), errors.Is(err, windows.ERROR_PATH_NOT_FOUND):
		return KindNotFound
	case errors.Is(err, windows.ERROR_ACCESS_DENIED):
		return KindAccessDenied
	default:
		return KindOther
	}
}

// Platform errors injected by [Chaos].
var (
	errInjectAccess   error = windows.ERROR_ACCESS_DENIED
	errInjectIO       error = windows.ERROR_READ_FAULT
	errInjectNoSpace  error = windows.ERROR_DISK_FULL
	errInjectBusy     error = windows.ERROR_SHARING_VIOLATION
	errInjectNotEmpty error = windows.ERROR_DIR_NOT_EMPTY
	errInjectNotDir   error = windows.ERROR_DIRECTORY
)
