//go:build darwin || freebsd || netbsd || openbsd

package fs

// MaxPath is the longest path the primitive accepts, in bytes (PATH_MAX).
const MaxPath = 1024
