package fs

import (
	"io"
	"os"

	"github.com/natefinch/atomic"
)

// replaceFile writes r to a temp file beside path, renames it into place and
// then applies perm. The chmod happens after the rename, so a concurrent
// reader can briefly observe the temp file's mode.
func replaceFile(path string, r io.Reader, perm uint32) error {
	err := atomic.WriteFile(path, r)
	if err != nil {
		return err
	}

	err = os.Chmod(path, fileMode(perm))
	if err != nil {
		return err
	}

	return nil
}

// fileMode converts raw st_mode permission bits, including setuid, setgid
// and sticky, to an [os.FileMode].
func fileMode(perm uint32) os.FileMode {
	m := os.FileMode(perm & 0o777)

	if perm&0o4000 != 0 {
		m |= os.ModeSetuid
	}

	if perm&0o2000 != 0 {
		m |= os.ModeSetgid
	}

	if perm&0o1000 != 0 {
		m |= os.ModeSticky
	}

	return m
}
