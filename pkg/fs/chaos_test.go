//go:build linux || darwin || freebsd || netbsd || openbsd

package fs

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"golang.org/x/sys/unix"
)

// =============================================================================
// Chaos FS Tests
//
// Chaos never injects ENOENT: missing-path errors must come from the wrapped FS.
// =============================================================================

func newChaosFixture(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.txt")
	writeTestFile(t, path, []byte(content), 0o644)

	return path
}

func assertOneOf(t *testing.T, err error, want ...error) {
	t.Helper()

	for _, e := range want {
		if errors.Is(err, e) {
			return
		}
	}

	t.Fatalf("err=%v, want one of %v", err, want)
}

func Test_Chaos_Passes_Through_When_Mode_Is_Passthrough(t *testing.T) {
	t.Parallel()

	path := newChaosFixture(t, "hello")
	chaosFS := NewChaos(NewNative(), 12345, ChaosConfig{
		OpenFailRate:      1.0,
		ReadFailRate:      1.0,
		TruncatedReadRate: 1.0,
		StatFailRate:      1.0,
	})
	chaosFS.SetMode(ChaosModePassthrough)
	chaosFS.SetPathState(path, PathIOError)

	f, info, err := chaosFS.OpenRead(path)
	if err != nil {
		t.Fatalf("OpenRead: %v", err)
	}

	defer func() { _ = f.Close() }()

	buf := make([]byte, info.Size)
	if err := ReadFull(f, buf); err != nil {
		t.Fatalf("ReadFull: %v", err)
	}

	if got, want := string(buf), "hello"; got != want {
		t.Fatalf("data=%q, want %q", got, want)
	}

	if got := chaosFS.Stats().Total(); got != 0 {
		t.Fatalf("Stats().Total()=%d, want 0", got)
	}
}

func Test_Chaos_Toggles_Injection_When_Mode_Changes(t *testing.T) {
	t.Parallel()

	path := newChaosFixture(t, "x")
	chaosFS := NewChaos(NewNative(), 12345, ChaosConfig{StatFailRate: 1.0})

	if _, err := chaosFS.Stat(path); err == nil {
		t.Fatalf("inject: expected error")
	}

	chaosFS.SetMode(ChaosModePassthrough)

	if _, err := chaosFS.Stat(path); err != nil {
		t.Fatalf("passthrough: %v", err)
	}

	chaosFS.SetMode(ChaosModeInject)

	if _, err := chaosFS.Stat(path); err == nil {
		t.Fatalf("inject again: expected error")
	}
}

func Test_Chaos_Injects_Open_Error_When_Open_Fail_Rate_Is_One(t *testing.T) {
	t.Parallel()

	path := newChaosFixture(t, "x")
	chaosFS := NewChaos(NewNative(), 7, ChaosConfig{OpenFailRate: 1.0})

	f, _, err := chaosFS.OpenRead(path)
	if f != nil {
		t.Fatalf("handle returned on injected failure")
	}

	if errors.Is(err, unix.ENOENT) {
		t.Fatalf("open should never inject ENOENT: %v", err)
	}

	var pathErr *os.PathError
	if !errors.As(err, &pathErr) {
		t.Fatalf("err should wrap *os.PathError, got %T (%v)", err, err)
	}

	if got, want := pathErr.Path, path; got != want {
		t.Fatalf("PathError.Path=%q, want %q", got, want)
	}

	if !IsInjected(err) {
		t.Fatalf("IsInjected(%v)=false", err)
	}

	assertOneOf(t, err, unix.EACCES, unix.EIO, unix.ENOTDIR)
}

func Test_Chaos_Passes_Through_Real_NotExist_Errors_When_Path_Is_Missing(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "missing")
	chaosFS := NewChaos(NewNative(), 1, ChaosConfig{})

	_, _, err := chaosFS.OpenRead(missing)
	if got, want := Classify(err), KindNotFound; got != want {
		t.Fatalf("Classify(%v)=%v, want %v", err, got, want)
	}

	if IsInjected(err) {
		t.Fatalf("real ENOENT reported as injected: %v", err)
	}
}

func Test_Chaos_Denies_Open_But_Allows_Stat_When_Path_Has_No_Permission(t *testing.T) {
	t.Parallel()

	path := newChaosFixture(t, "secret")
	chaosFS := NewChaos(NewNative(), 1, ChaosConfig{})
	chaosFS.SetPathState(path, PathNoPermission)

	_, _, err := chaosFS.OpenRead(path)
	if got, want := Classify(err), KindAccessDenied; got != want {
		t.Fatalf("Classify(OpenRead)=%v, want %v (err=%v)", got, want, err)
	}

	if _, err := chaosFS.Create(path, 0o644); Classify(err) != KindAccessDenied {
		t.Fatalf("Create=%v, want access denied", err)
	}

	info, err := chaosFS.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}

	if got, want := info.Size, int64(len("secret")); got != want {
		t.Fatalf("Size=%d, want %d", got, want)
	}

	chaosFS.SetPathState(path, PathNormal)

	f, _, err := chaosFS.OpenRead(path)
	if err != nil {
		t.Fatalf("OpenRead after clearing state: %v", err)
	}

	_ = f.Close()
}

func Test_Chaos_Fails_Everything_When_Path_Has_IO_Error(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	chaosFS := NewChaos(NewNative(), 1, ChaosConfig{})
	chaosFS.SetPathState(dir, PathIOError)

	if _, err := chaosFS.Stat(dir); !errors.Is(err, unix.EIO) {
		t.Fatalf("Stat=%v, want EIO", err)
	}

	if _, err := chaosFS.ReadDirNames(dir); !errors.Is(err, unix.EIO) {
		t.Fatalf("ReadDirNames=%v, want EIO", err)
	}

	if err := chaosFS.Rmdir(dir); !errors.Is(err, unix.EIO) {
		t.Fatalf("Rmdir=%v, want EIO", err)
	}

	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("directory should survive an injected Rmdir failure: %v", err)
	}
}

func Test_Chaos_Ignores_Rates_When_Mode_Is_StickyOnly(t *testing.T) {
	t.Parallel()

	path := newChaosFixture(t, "x")
	chaosFS := NewChaos(NewNative(), 1, ChaosConfig{StatFailRate: 1.0, OpenFailRate: 1.0})
	chaosFS.SetMode(ChaosModeStickyOnly)

	if _, err := chaosFS.Stat(path); err != nil {
		t.Fatalf("Stat: %v", err)
	}

	chaosFS.SetPathState(path, PathNoPermission)

	if _, _, err := chaosFS.OpenRead(path); Classify(err) != KindAccessDenied {
		t.Fatalf("OpenRead=%v, want sticky access denied", err)
	}
}

func Test_ChaosFile_Read_Returns_Early_EOF_When_Truncated_Read_Rate_Is_One(t *testing.T) {
	t.Parallel()

	path := newChaosFixture(t, "hello")
	chaosFS := NewChaos(NewNative(), 1, ChaosConfig{TruncatedReadRate: 1.0})

	f, info, err := chaosFS.OpenRead(path)
	if err != nil {
		t.Fatalf("OpenRead: %v", err)
	}

	defer func() { _ = f.Close() }()

	err = ReadFull(f, make([]byte, info.Size))
	if !errors.Is(err, io.EOF) {
		t.Fatalf("ReadFull=%v, want io.EOF", err)
	}

	if IsInjected(err) {
		t.Fatalf("a truncated read is not an error value: %v", err)
	}

	if got, want := chaosFS.Stats().TruncatedReads, int64(1); got != want {
		t.Fatalf("TruncatedReads=%d, want %d", got, want)
	}
}

func Test_ChaosFile_Read_Returns_EIO_When_Read_Fail_Rate_Is_One(t *testing.T) {
	t.Parallel()

	path := newChaosFixture(t, "hello")
	chaosFS := NewChaos(NewNative(), 1, ChaosConfig{ReadFailRate: 1.0})

	f, _, err := chaosFS.OpenRead(path)
	if err != nil {
		t.Fatalf("OpenRead: %v", err)
	}

	defer func() { _ = f.Close() }()

	n, err := f.Read(make([]byte, 5))
	if n != 0 || !errors.Is(err, unix.EIO) {
		t.Fatalf("Read=(%d, %v), want (0, EIO)", n, err)
	}
}

func Test_ChaosFile_Write_Returns_Prefix_And_ENOSPC_When_Partial_Write_Rate_Is_One(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out")
	chaosFS := NewChaos(NewNative(), 99, ChaosConfig{PartialWriteRate: 1.0})

	f, err := chaosFS.Create(path, 0o644)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	data := []byte("0123456789")

	n, err := f.Write(data)
	if !errors.Is(err, unix.ENOSPC) {
		t.Fatalf("Write err=%v, want ENOSPC", err)
	}

	if n <= 0 || n >= len(data) {
		t.Fatalf("Write n=%d, want a strict prefix of %d", n, len(data))
	}

	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}

	if got, want := string(got), string(data[:n]); got != want {
		t.Fatalf("content=%q, want %q", got, want)
	}
}

func Test_ChaosFile_Close_Still_Closes_File_When_Close_Fail_Rate_Is_One(t *testing.T) {
	t.Parallel()

	path := newChaosFixture(t, "x")
	chaosFS := NewChaos(NewNative(), 1, ChaosConfig{CloseFailRate: 1.0})

	f, _, err := chaosFS.OpenRead(path)
	if err != nil {
		t.Fatalf("OpenRead: %v", err)
	}

	if err := f.Close(); !IsInjected(err) {
		t.Fatalf("Close=%v, want injected error", err)
	}

	if err := f.Close(); !errors.Is(err, os.ErrClosed) {
		t.Fatalf("second Close=%v, want os.ErrClosed", err)
	}
}

func Test_Chaos_Counts_Faults_When_Faults_Are_Injected(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	chaosFS := NewChaos(NewNative(), 1, ChaosConfig{
		StatFailRate:    1.0,
		MkdirFailRate:   1.0,
		RemoveFailRate:  1.0,
		ReadDirFailRate: 1.0,
		ReplaceFailRate: 1.0,
	})

	_, _ = chaosFS.Stat(dir)
	_ = chaosFS.Mkdir(filepath.Join(dir, "sub"), 0o755)
	_ = chaosFS.Rmdir(dir)
	_ = chaosFS.Unlink(filepath.Join(dir, "f"))
	_, _ = chaosFS.ReadDirNames(dir)
	_ = chaosFS.Replace(filepath.Join(dir, "f"), strings.NewReader("x"), 0o644)

	stats := chaosFS.Stats()

	if stats.StatFails != 1 || stats.MkdirFails != 1 || stats.RemoveFails != 2 ||
		stats.ReadDirFails != 1 || stats.ReplaceFails != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	if got, want := stats.Total(), int64(6); got != want {
		t.Fatalf("Total=%d, want %d", got, want)
	}

	if _, err := os.Stat(filepath.Join(dir, "sub")); !os.IsNotExist(err) {
		t.Fatalf("injected Mkdir must not create the directory: %v", err)
	}
}

func Test_NewChaos_Panics_When_FS_Is_Nil(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()

	NewChaos(nil, 1, ChaosConfig{})
}

func Test_Chaos_Does_Not_Race_Or_Panic_When_Accessed_Concurrently(t *testing.T) {
	t.Parallel()

	path := newChaosFixture(t, "concurrent")
	chaosFS := NewChaos(NewNative(), 42, ChaosConfig{
		OpenFailRate:      0.2,
		ReadFailRate:      0.2,
		TruncatedReadRate: 0.2,
		StatFailRate:      0.2,
		CloseFailRate:     0.2,
	})

	var wg sync.WaitGroup

	for i := range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for j := range 50 {
				if (i+j)%10 == 0 {
					chaosFS.SetPathState(path, PathState((i+j)%3))
				}

				_, _ = chaosFS.Stat(path)

				f, info, err := chaosFS.OpenRead(path)
				if err != nil {
					continue
				}

				_ = ReadFull(f, make([]byte, info.Size))
				_ = f.Close()
			}
		}()
	}

	wg.Wait()
}

func Test_InjectedError_Preserves_Errors_Is_When_Wrapping_Path_Error(t *testing.T) {
	t.Parallel()

	err := injected("open", "/x", errInjectAccess)

	if !errors.Is(err, unix.EACCES) {
		t.Fatalf("errors.Is(EACCES)=false for %v", err)
	}

	if !os.IsPermission(errors.Unwrap(err)) {
		t.Fatalf("os.IsPermission=false for %v", err)
	}

	if !strings.HasPrefix(err.Error(), "chaos: open /x: ") {
		t.Fatalf("Error()=%q", err.Error())
	}

	if IsInjected(nil) {
		t.Fatalf("IsInjected(nil)=true")
	}

	if IsInjected(&os.PathError{Op: "open", Path: "/x", Err: unix.EACCES}) {
		t.Fatalf("IsInjected(real error)=true")
	}
}
