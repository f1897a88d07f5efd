package urlaccess

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/calvinalkan/urlaccess/pkg/fs"
)

// Errors returned by [Locator.FilesystemPath].
var (
	errNotFileLocator = errors.New("not a file locator")
	errRemoteHost     = errors.New("file locator names a remote host")
	errEmptyPath      = errors.New("locator has an empty path")
	errNULInPath      = errors.New("path contains a NUL byte")
	errPathTooLong    = errors.New("path exceeds the platform maximum")
)

// Locator is an immutable resource locator: a parsed URL plus an optional
// base it is relative to.
//
// The zero Locator has no scheme.
type Locator struct {
	u    *url.URL
	base *Locator
}

// ParseLocator parses raw as an absolute or relative URL.
func ParseLocator(raw string) (Locator, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Locator{}, &Error{Op: "parse", Locator: raw, Code: CodeImproperArguments, Err: err}
	}

	return Locator{u: u}, nil
}

// ParseLocatorRelative parses raw relative to base. Scheme, host and path
// missing from raw are taken from base when the locator is resolved.
func ParseLocatorRelative(raw string, base Locator) (Locator, error) {
	loc, err := ParseLocator(raw)
	if err != nil {
		return Locator{}, err
	}

	if base.u != nil {
		b := base
		loc.base = &b
	}

	return loc, nil
}

// FileLocator returns a "file" locator for a native filesystem path.
//
// Relative paths are made absolute against the working directory. When isDir
// is set the locator gets a trailing slash, which marks it as a directory.
func FileLocator(path string, isDir bool) Locator {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	p := filepath.ToSlash(path)

	// C:/x becomes /C:/x.
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}

	if isDir && !strings.HasSuffix(p, "/") {
		p += "/"
	}

	return Locator{u: &url.URL{Scheme: "file", Path: p}}
}

// IsZero reports whether l is the zero Locator.
func (l Locator) IsZero() bool {
	return l.u == nil
}

// Base returns the base locator and whether there is one.
func (l Locator) Base() (Locator, bool) {
	if l.base == nil {
		return Locator{}, false
	}

	return *l.base, true
}

// Resolved returns l resolved against its base, with no base of its own.
func (l Locator) Resolved() Locator {
	if l.u == nil || l.base == nil {
		return l
	}

	base := l.base.Resolved()

	return Locator{u: base.u.ResolveReference(l.u)}
}

// Scheme returns the lower-cased scheme. A relative locator takes the
// scheme of its base.
func (l Locator) Scheme() (string, bool) {
	if l.u == nil {
		return "", false
	}

	if l.u.Scheme != "" {
		return strings.ToLower(l.u.Scheme), true
	}

	if l.base != nil {
		return l.base.Scheme()
	}

	return "", false
}

// IsDirectory reports whether the locator path ends in a slash.
func (l Locator) IsDirectory() bool {
	r := l.Resolved()
	if r.u == nil {
		return false
	}

	p := r.u.Path
	if p == "" && r.u.Opaque != "" {
		p = r.u.Opaque
	}

	return strings.HasSuffix(p, "/")
}

// AsDirectory returns l with a trailing slash on its path.
func (l Locator) AsDirectory() Locator {
	r := l.Resolved()
	if r.u == nil || strings.HasSuffix(r.u.Path, "/") {
		return r
	}

	u := *r.u
	u.Path += "/"

	if u.RawPath != "" {
		u.RawPath += "/"
	}

	return Locator{u: &u}
}

// FilesystemPath converts the locator to a native path.
//
// With resolveAgainstBase the locator is resolved first; otherwise a
// relative locator converts to a relative path. The path is decoded, uses
// the platform separator and has no trailing separator (except for a root).
// Conversion fails for non-file schemes, remote hosts, empty paths, paths
// containing NUL and paths of [fs.MaxPath] bytes or more.
func (l Locator) FilesystemPath(resolveAgainstBase bool) (string, error) {
	if resolveAgainstBase {
		l = l.Resolved()
	}

	if l.u == nil {
		return "", errEmptyPath
	}

	u := l.u

	if u.Scheme != "" && !strings.EqualFold(u.Scheme, "file") {
		return "", fmt.Errorf("%w: scheme %q", errNotFileLocator, u.Scheme)
	}

	if u.Host != "" && !strings.EqualFold(u.Host, "localhost") {
		return "", fmt.Errorf("%w: %q", errRemoteHost, u.Host)
	}

	p := u.Path
	if p == "" {
		p = u.Opaque
	}

	if p == "" {
		return "", errEmptyPath
	}

	if strings.IndexByte(p, 0) >= 0 {
		return "", errNULInPath
	}

	if runtime.GOOS == "windows" && len(p) >= 3 && p[0] == '/' && p[2] == ':' {
		p = p[1:]
	}

	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
		if p == "" {
			p = "/"
		}
	}

	p = filepath.FromSlash(p)

	if runtime.GOOS == "windows" && len(p) == 2 && p[1] == ':' {
		p += `\`
	}

	// The platform limit counts the terminating NUL.
	if len(p) >= fs.MaxPath {
		return "", fmt.Errorf("%w: %d bytes", errPathTooLong, len(p))
	}

	return p, nil
}

// String returns the resolved locator as a URL string.
func (l Locator) String() string {
	r := l.Resolved()
	if r.u == nil {
		return ""
	}

	return r.u.String()
}
