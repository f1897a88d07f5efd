package urlaccess

import (
	"bytes"
	"fmt"

	"github.com/calvinalkan/urlaccess/pkg/fs"
)

// Default permissions for [FileHandler.Write] when no [KeyPosixMode] is
// given.
const (
	DefaultFileMode uint32 = 0o644
	DefaultDirMode  uint32 = 0o755
)

// maxFileProperties is the number of keys a file resource can produce.
const maxFileProperties = 6

// FileHandler serves the "file" scheme on an [fs.FS].
//
// Each call is a single synchronous filesystem transaction. FileHandler holds
// no mutable state and is safe for concurrent use.
type FileHandler struct {
	fs         fs.FS
	alloc      Allocator
	writeMode  WriteMode
	syncWrites bool
}

// NewFileHandler returns a file handler configured from opts. Nil FS and
// Allocator fields get their defaults; Handlers is ignored.
func NewFileHandler(opts Options) *FileHandler {
	opts = opts.withDefaults()

	return &FileHandler{
		fs:         opts.FS,
		alloc:      opts.Allocator,
		writeMode:  opts.WriteMode,
		syncWrites: opts.SyncWrites,
	}
}

// fetchState collects the outcome of one fetch transaction.
type fetchState struct {
	loc  Locator
	path string

	exists   bool
	info     fs.Info
	haveInfo bool

	// err is the first failure recorded. Later failures are dropped.
	err *Error
}

func (st *fetchState) fail(code Code, cause error) {
	if st.err == nil {
		st.err = newError(opFetch, st.loc, code, cause)
	}
}

// Fetch reads the resource bytes and/or its properties.
//
// The returned [Result] carries whatever was produced even when the error is
// non-nil: a fetch of an unreadable file still reports FileExists=true and,
// where the platform allows it, its metadata.
func (h *FileHandler) Fetch(loc Locator, req FetchRequest) (Result, error) {
	path, err := loc.FilesystemPath(true)
	if err != nil {
		return Result{}, newError(opFetch, loc, CodeUnknown, err)
	}

	st := &fetchState{loc: loc, path: path}

	var res Result

	if req.Data || req.Properties {
		res.Data = h.open(st, req)
	}

	if req.Properties {
		res.Properties = h.properties(st, newSelector(req.Keys))
	}

	if st.err != nil {
		return res, st.err
	}

	return res, nil
}

// open opens the path once, captures the metadata snapshot and reads the
// bytes when requested. The handle is closed before returning.
func (h *FileHandler) open(st *fetchState, req FetchRequest) []byte {
	f, info, err := h.fs.OpenRead(st.path)
	if err != nil {
		kind := fs.Classify(err)
		st.fail(codeForKind(kind), err)

		if kind == fs.KindAccessDenied {
			st.exists = true

			if req.Properties {
				if info, err := h.fs.Stat(st.path); err == nil {
					st.info, st.haveInfo = info, true
				}
			}
		}

		return nil
	}

	defer func() { _ = f.Close() }()

	st.exists = true
	st.info, st.haveInfo = info, true

	if !req.Data {
		return nil
	}

	data, err := h.read(f, info.Size)
	if err != nil {
		st.fail(CodeUnknown, err)

		return nil
	}

	return data
}

// read fills a freshly allocated buffer of exactly size bytes. On failure the
// buffer goes back to the allocator.
func (h *FileHandler) read(f fs.File, size int64) ([]byte, error) {
	n, err := allocSize(size)
	if err != nil {
		return nil, err
	}

	buf, err := h.alloc.Allocate(n)
	if err != nil {
		return nil, fmt.Errorf("allocate %d bytes: %w", n, err)
	}

	if len(buf) != n {
		h.alloc.Deallocate(buf)

		return nil, fmt.Errorf("allocate %d bytes: got %d", n, len(buf))
	}

	if err := fs.ReadFull(f, buf); err != nil {
		h.alloc.Deallocate(buf)

		return nil, fmt.Errorf("read %d bytes: %w", n, err)
	}

	return buf, nil
}

// properties builds the bag for the selected keys. A nil bag is returned
// when nothing was added and a failure was recorded.
func (h *FileHandler) properties(st *fetchState, sel selector) *Properties {
	b := NewPropertiesBuilder(maxFileProperties)

	if sel.has(KeyExists) {
		b.add(KeyExists, st.exists)
	}

	if st.exists {
		isDir := st.loc.IsDirectory()
		if st.haveInfo {
			isDir = st.info.IsDir
		}

		if isDir && sel.has(KeyDirectoryContents) {
			names, err := h.fs.ReadDirNames(st.path)
			if err != nil {
				st.fail(CodeUnknown, err)
			} else {
				if names == nil {
					names = []string{}
				}

				b.add(KeyDirectoryContents, names)
			}
		}

		if st.haveInfo {
			if sel.has(KeyLength) {
				b.add(KeyLength, st.info.Size)
			}

			if sel.has(KeyModificationTime) {
				b.add(KeyModificationTime, st.info.ModTime)
			}

			if sel.has(KeyPosixMode) {
				b.add(KeyPosixMode, st.info.Mode)
			}

			if sel.has(KeyOwnerID) {
				b.add(KeyOwnerID, st.info.OwnerID)
			}
		}
	}

	if b.Len() == 0 && st.err != nil {
		return nil
	}

	return b.Build()
}

// Destroy removes the resource: rmdir for directory locators, unlink
// otherwise. Every failure is [CodeUnknown].
func (h *FileHandler) Destroy(loc Locator) error {
	path, err := loc.FilesystemPath(true)
	if err != nil {
		return newError(opDestroy, loc, CodeUnknown, err)
	}

	if loc.IsDirectory() {
		err = h.fs.Rmdir(path)
	} else {
		err = h.fs.Unlink(path)
	}

	if err != nil {
		return newError(opDestroy, loc, CodeUnknown, err)
	}

	return nil
}

// Write creates a directory for directory locators, otherwise replaces the
// file contents with data.
//
// The permission bits of a [KeyPosixMode] property override the defaults
// ([DefaultDirMode], [DefaultFileMode]); other properties are ignored. In
// [WriteModeTruncate] the mode applies only when the file is created and is
// subject to the process umask. In [WriteModeAtomic] the data goes to a
// temporary file renamed over the target, which always ends up with exactly
// the mode. Every failure is [CodeUnknown].
func (h *FileHandler) Write(loc Locator, data []byte, props *Properties) error {
	path, err := loc.FilesystemPath(true)
	if err != nil {
		return newError(opWrite, loc, CodeUnknown, err)
	}

	isDir := loc.IsDirectory()

	mode := DefaultFileMode
	if isDir {
		mode = DefaultDirMode
	}

	if m, ok := props.PosixMode(); ok {
		mode = m & 0o7777
	}

	switch {
	case isDir:
		err = h.fs.Mkdir(path, mode)
	case h.writeMode == WriteModeAtomic:
		err = h.fs.Replace(path, bytes.NewReader(data), mode)
	default:
		err = h.writeTruncate(path, data, mode)
	}

	if err != nil {
		return newError(opWrite, loc, CodeUnknown, err)
	}

	return nil
}

func (h *FileHandler) writeTruncate(path string, data []byte, mode uint32) error {
	f, err := h.fs.Create(path, mode)
	if err != nil {
		return err
	}

	if len(data) > 0 {
		if err := fs.WriteAll(f, data); err != nil {
			_ = f.Close()

			return err
		}
	}

	if h.syncWrites {
		if err := f.Sync(); err != nil {
			_ = f.Close()

			return err
		}
	}

	return f.Close()
}

// Compile-time interface check.
var _ Handler = (*FileHandler)(nil)
