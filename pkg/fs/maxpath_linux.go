//go:build linux

package fs

import "golang.org/x/sys/unix"

// MaxPath is the longest path the primitive accepts, in bytes (PATH_MAX).
const MaxPath = unix.PathMax
