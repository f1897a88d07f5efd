package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/calvinalkan/urlaccess/pkg/urlaccess"
)

// locatorArg turns a command argument into a locator.
//
// Arguments containing "://" are parsed as URLs. Anything else is a path,
// resolved against the configured base directory when relative; a trailing
// separator marks a directory. forceDir marks the result as a directory
// either way.
func (a *app) locatorArg(arg string, forceDir bool) (urlaccess.Locator, error) {
	if arg == "" {
		return urlaccess.Locator{}, fmt.Errorf("%w: empty locator", urlaccess.ErrImproperArguments)
	}

	if strings.Contains(arg, "://") {
		loc, err := urlaccess.ParseLocator(arg)
		if err != nil {
			return urlaccess.Locator{}, err
		}

		if forceDir {
			loc = loc.AsDirectory()
		}

		return loc, nil
	}

	isDir := forceDir || strings.HasSuffix(arg, "/") || strings.HasSuffix(arg, string(filepath.Separator))

	path := arg
	if !filepath.IsAbs(path) {
		path = filepath.Join(a.cfg.BaseDirAbs, path)
	}

	return urlaccess.FileLocator(path, isDir), nil
}

// formatValue renders a property value. With human set, sizes, times and
// modes get a readable suffix.
func formatValue(k urlaccess.Key, v any, human bool) string {
	switch val := v.(type) {
	case bool:
		return strconv.FormatBool(val)
	case []string:
		return fmt.Sprintf("%q", val)
	case int64:
		s := strconv.FormatInt(val, 10)
		if human && val >= 0 {
			s += " (" + humanize.IBytes(uint64(val)) + ")"
		}

		return s
	case time.Time:
		s := val.UTC().Format(time.RFC3339Nano)
		if human {
			s += " (" + humanize.Time(val) + ")"
		}

		return s
	case uint32:
		if k == urlaccess.KeyPosixMode {
			s := fmt.Sprintf("%#o", val)
			if human {
				s += " (" + modeString(val) + ")"
			}

			return s
		}

		return strconv.FormatUint(uint64(val), 10)
	default:
		return fmt.Sprint(val)
	}
}

// modeString renders a raw st_mode the way ls does.
func modeString(mode uint32) string {
	const (
		typeMask = 0o170000
		typeDir  = 0o040000
		typeLink = 0o120000
	)

	m := os.FileMode(mode & 0o777)

	switch mode & typeMask {
	case typeDir:
		m |= os.ModeDir
	case typeLink:
		m |= os.ModeSymlink
	}

	return m.String()
}
