//go:build linux || darwin || freebsd || netbsd || openbsd

package fs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"golang.org/x/sys/unix"
)

func writeTestFile(t *testing.T, path string, data []byte, perm os.FileMode) {
	t.Helper()

	if err := os.WriteFile(path, data, perm); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func Test_Native_OpenRead_Returns_Handle_And_Metadata_When_File_Exists(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "a.txt")
	writeTestFile(t, path, []byte("hello"), 0o640)

	mtime := time.Date(2020, 5, 1, 12, 0, 0, 0, time.UTC)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	f, info, err := NewNative().OpenRead(path)
	if err != nil {
		t.Fatalf("OpenRead: %v", err)
	}

	defer func() { _ = f.Close() }()

	if got, want := info.Size, int64(5); got != want {
		t.Fatalf("Size=%d, want %d", got, want)
	}

	if got, want := info.ModTime.UTC(), mtime; !got.Equal(want) {
		t.Fatalf("ModTime=%v, want %v", got, want)
	}

	if got, want := info.Mode&0o777, uint32(0o640); got != want {
		t.Fatalf("perm=%#o, want %#o", got, want)
	}

	if got, want := info.Mode&unix.S_IFMT, uint32(unix.S_IFREG); got != want {
		t.Fatalf("type bits=%#o, want %#o", got, want)
	}

	if got, want := info.OwnerID, uint32(os.Getuid()); got != want {
		t.Fatalf("OwnerID=%d, want %d", got, want)
	}

	if info.IsDir {
		t.Fatalf("IsDir=true for a regular file")
	}

	buf := make([]byte, info.Size)
	if err := ReadFull(f, buf); err != nil {
		t.Fatalf("ReadFull: %v", err)
	}

	if got, want := string(buf), "hello"; got != want {
		t.Fatalf("data=%q, want %q", got, want)
	}
}

func Test_Native_OpenRead_Reports_Directory_When_Path_Is_Directory(t *testing.T) {
	t.Parallel()

	f, info, err := NewNative().OpenRead(t.TempDir())
	if err != nil {
		t.Fatalf("OpenRead: %v", err)
	}

	defer func() { _ = f.Close() }()

	if !info.IsDir {
		t.Fatalf("IsDir=false for a directory")
	}
}

func Test_Native_OpenRead_Returns_PathError_With_ENOENT_When_Path_Missing(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "missing")

	f, _, err := NewNative().OpenRead(path)
	if f != nil {
		t.Fatalf("handle returned on failure")
	}

	var pathErr *os.PathError
	if !errors.As(err, &pathErr) {
		t.Fatalf("err=%T (%v), want *os.PathError", err, err)
	}

	if got, want := pathErr.Path, path; got != want {
		t.Fatalf("PathError.Path=%q, want %q", got, want)
	}

	if !errors.Is(err, unix.ENOENT) {
		t.Fatalf("err=%v, want ENOENT", err)
	}

	if got, want := Classify(err), KindNotFound; got != want {
		t.Fatalf("Classify=%v, want %v", got, want)
	}
}

func Test_Native_OpenRead_Is_Access_Denied_When_File_Is_Unreadable(t *testing.T) {
	t.Parallel()

	if os.Geteuid() == 0 {
		t.Skip("root bypasses permission checks")
	}

	path := filepath.Join(t.TempDir(), "secret")
	writeTestFile(t, path, []byte("x"), 0o000)

	_, _, err := NewNative().OpenRead(path)
	if got, want := Classify(err), KindAccessDenied; got != want {
		t.Fatalf("Classify(%v)=%v, want %v", err, got, want)
	}

	// Metadata is still reachable through Stat.
	info, err := NewNative().Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}

	if got, want := info.Size, int64(1); got != want {
		t.Fatalf("Size=%d, want %d", got, want)
	}
}

func Test_Native_Stat_Matches_OpenRead_Metadata(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "a.txt")
	writeTestFile(t, path, []byte("0123456789"), 0o600)

	fsys := NewNative()

	f, opened, err := fsys.OpenRead(path)
	if err != nil {
		t.Fatalf("OpenRead: %v", err)
	}

	_ = f.Close()

	stated, err := fsys.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}

	if diff := cmp.Diff(opened, stated); diff != "" {
		t.Fatalf("metadata mismatch (-open +stat):\n%s", diff)
	}
}

func Test_Native_Create_Truncates_And_Writes_When_File_Exists(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "a.txt")
	writeTestFile(t, path, []byte("a much longer previous content"), 0o644)

	f, err := NewNative().Create(path, 0o644)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := WriteAll(f, []byte("new")); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}

	if err := f.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}

	if got, want := string(got), "new"; got != want {
		t.Fatalf("content=%q, want %q", got, want)
	}
}

func Test_Native_Create_Applies_Mode_When_File_Is_New(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "a.txt")

	f, err := NewNative().Create(path, 0o600)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_ = f.Close()

	st, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}

	// 0o600 survives every common umask.
	if got, want := st.Mode().Perm(), os.FileMode(0o600); got != want {
		t.Fatalf("perm=%v, want %v", got, want)
	}
}

func Test_FdFile_Close_Returns_ErrClosed_When_Called_Twice(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "a.txt")
	writeTestFile(t, path, nil, 0o644)

	f, _, err := NewNative().OpenRead(path)
	if err != nil {
		t.Fatalf("OpenRead: %v", err)
	}

	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if err := f.Close(); !errors.Is(err, os.ErrClosed) {
		t.Fatalf("second Close=%v, want os.ErrClosed", err)
	}

	if _, err := f.Read(make([]byte, 1)); !errors.Is(err, os.ErrClosed) {
		t.Fatalf("Read after Close=%v, want os.ErrClosed", err)
	}
}

func Test_FdFile_Read_Returns_EOF_When_File_Is_Exhausted(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "a.txt")
	writeTestFile(t, path, []byte("ab"), 0o644)

	f, _, err := NewNative().OpenRead(path)
	if err != nil {
		t.Fatalf("OpenRead: %v", err)
	}

	defer func() { _ = f.Close() }()

	got, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}

	if string(got) != "ab" {
		t.Fatalf("data=%q, want %q", got, "ab")
	}

	if _, err := f.Read(make([]byte, 4)); !errors.Is(err, io.EOF) {
		t.Fatalf("Read=%v, want io.EOF", err)
	}
}

func Test_Native_Mkdir_Rmdir_Unlink_Round_Trip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	file := filepath.Join(dir, "f")
	fsys := NewNative()

	if err := fsys.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}

	if err := fsys.Mkdir(sub, 0o755); !errors.Is(err, unix.EEXIST) {
		t.Fatalf("second Mkdir=%v, want EEXIST", err)
	}

	writeTestFile(t, file, []byte("x"), 0o644)

	if err := fsys.Unlink(file); err != nil {
		t.Fatalf("Unlink: %v", err)
	}

	if err := fsys.Unlink(file); Classify(err) != KindNotFound {
		t.Fatalf("second Unlink=%v, want not-found", err)
	}

	if err := fsys.Rmdir(sub); err != nil {
		t.Fatalf("Rmdir: %v", err)
	}

	if _, err := os.Stat(sub); !os.IsNotExist(err) {
		t.Fatalf("dir still exists after Rmdir: %v", err)
	}
}

func Test_Native_Rmdir_Fails_With_Other_Kind_When_Directory_Not_Empty(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "child"), nil, 0o644)

	err := NewNative().Rmdir(dir)
	if err == nil {
		t.Fatalf("Rmdir succeeded on a non-empty directory")
	}

	if got, want := Classify(err), KindOther; got != want {
		t.Fatalf("Classify(%v)=%v, want %v", err, got, want)
	}
}

func Test_Native_ReadDirNames_Excludes_Dot_Entries(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	want := []string{"a", "b.txt", "sub"}

	for _, name := range want[:2] {
		writeTestFile(t, filepath.Join(dir, name), nil, 0o644)
	}

	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	got, err := NewNative().ReadDirNames(dir)
	if err != nil {
		t.Fatalf("ReadDirNames: %v", err)
	}

	if diff := cmp.Diff(want, got, cmpopts.SortSlices(func(a, b string) bool { return a < b })); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}

func Test_Native_ReadDirNames_Returns_All_Entries_When_Directory_Exceeds_One_Buffer(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	const n = 600

	for i := range n {
		name := fmt.Sprintf("%s-%04d", strings.Repeat("x", 40), i)
		writeTestFile(t, filepath.Join(dir, name), nil, 0o644)
	}

	got, err := NewNative().ReadDirNames(dir)
	if err != nil {
		t.Fatalf("ReadDirNames: %v", err)
	}

	if got, want := len(got), n; got != want {
		t.Fatalf("len=%d, want %d", got, want)
	}
}

func Test_Native_ReadDirNames_Fails_With_ENOTDIR_When_Path_Is_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "f")
	writeTestFile(t, path, nil, 0o644)

	_, err := NewNative().ReadDirNames(path)
	if !errors.Is(err, unix.ENOTDIR) {
		t.Fatalf("err=%v, want ENOTDIR", err)
	}
}

func Test_Native_Replace_Writes_Content_With_Exact_Mode(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "a.txt")
	writeTestFile(t, path, []byte("old"), 0o600)

	if err := NewNative().Replace(path, strings.NewReader("replaced"), 0o664); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}

	if string(got) != "replaced" {
		t.Fatalf("content=%q, want %q", got, "replaced")
	}

	st, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}

	if got, want := st.Mode().Perm(), os.FileMode(0o664); got != want {
		t.Fatalf("perm=%v, want %v", got, want)
	}
}

func Test_Native_Replace_Keeps_Special_Bits_When_Perm_Has_Them(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tool")

	if err := NewNative().Replace(path, strings.NewReader("#!/bin/sh\n"), 0o4750); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		t.Fatalf("stat: %v", err)
	}

	if got, want := uint32(st.Mode)&0o7777, uint32(0o4750); got != want {
		t.Fatalf("mode=%#o, want %#o", got, want)
	}
}

func Test_FileMode_Maps_Special_Bits(t *testing.T) {
	t.Parallel()

	tests := []struct {
		perm uint32
		want os.FileMode
	}{
		{0o644, 0o644},
		{0o4755, os.ModeSetuid | 0o755},
		{0o2750, os.ModeSetgid | 0o750},
		{0o1777, os.ModeSticky | 0o777},
		{0o7000, os.ModeSetuid | os.ModeSetgid | os.ModeSticky},
	}

	for _, tt := range tests {
		if got := fileMode(tt.perm); got != tt.want {
			t.Errorf("fileMode(%#o)=%v, want=%v", tt.perm, got, tt.want)
		}
	}
}
