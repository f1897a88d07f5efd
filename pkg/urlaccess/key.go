package urlaccess

import (
	"fmt"
	"strings"
	"time"
)

// Key names a resource property.
//
// Keys form a closed set; the zero value is not a valid key. The file
// handler produces the six File* keys. The HTTP keys are reserved for a
// network handler and are never produced by this package.
type Key uint8

const (
	// KeyExists reports whether the resource exists. Value type: bool.
	KeyExists Key = iota + 1
	// KeyDirectoryContents lists the names inside a directory, excluding "."
	// and "..". Value type: []string.
	KeyDirectoryContents
	// KeyLength is the resource length in bytes. Value type: int64.
	KeyLength
	// KeyModificationTime is the last modification time. Value type: time.Time.
	KeyModificationTime
	// KeyPosixMode is the raw POSIX st_mode, file type bits included.
	// Value type: uint32.
	KeyPosixMode
	// KeyOwnerID is the numeric owner id. Value type: uint32.
	KeyOwnerID
	// KeyHTTPStatusCode is reserved. Value type: int.
	KeyHTTPStatusCode
	// KeyHTTPStatusLine is reserved. Value type: string.
	KeyHTTPStatusLine

	keyCount = int(KeyHTTPStatusLine)
)

var keyTokens = [...]string{
	KeyExists:            "FileExists",
	KeyDirectoryContents: "FileDirectoryContents",
	KeyLength:            "FileLength",
	KeyModificationTime:  "FileLastModificationTime",
	KeyPosixMode:         "FilePOSIXMode",
	KeyOwnerID:           "FileOwnerID",
	KeyHTTPStatusCode:    "HTTPStatusCode",
	KeyHTTPStatusLine:    "HTTPStatusLine",
}

// FileKeys returns the keys produced by the file handler, in the order they
// appear in a property bag.
func FileKeys() []Key {
	return []Key{KeyExists, KeyDirectoryContents, KeyLength, KeyModificationTime, KeyPosixMode, KeyOwnerID}
}

// Valid reports whether k is one of the declared keys.
func (k Key) Valid() bool {
	return k >= KeyExists && int(k) <= keyCount
}

// String returns the stable token for k, e.g. "FileLength".
func (k Key) String() string {
	if !k.Valid() {
		return fmt.Sprintf("Key(%d)", uint8(k))
	}

	return keyTokens[k]
}

// ParseKey returns the key whose token matches s, ignoring case.
func ParseKey(s string) (Key, error) {
	s = strings.TrimSpace(s)

	for k := KeyExists; int(k) <= keyCount; k++ {
		if strings.EqualFold(keyTokens[k], s) {
			return k, nil
		}
	}

	return 0, fmt.Errorf("%w: unknown property key %q", ErrImproperArguments, s)
}

// ParseKeys parses a list of tokens. An empty list yields an empty, non-nil
// slice (select nothing).
func ParseKeys(tokens []string) ([]Key, error) {
	keys := make([]Key, 0, len(tokens))

	for _, tok := range tokens {
		k, err := ParseKey(tok)
		if err != nil {
			return nil, err
		}

		keys = append(keys, k)
	}

	return keys, nil
}

// checkValue reports whether v has the value type of k.
func (k Key) checkValue(v any) error {
	var ok bool

	switch k {
	case KeyExists:
		_, ok = v.(bool)
	case KeyDirectoryContents:
		_, ok = v.([]string)
	case KeyLength:
		_, ok = v.(int64)
	case KeyModificationTime:
		_, ok = v.(time.Time)
	case KeyPosixMode, KeyOwnerID:
		_, ok = v.(uint32)
	case KeyHTTPStatusCode:
		_, ok = v.(int)
	case KeyHTTPStatusLine:
		_, ok = v.(string)
	default:
		return fmt.Errorf("%w: invalid property key %v", ErrImproperArguments, k)
	}

	if !ok {
		return fmt.Errorf("%w: property %v cannot hold %T", ErrImproperArguments, k, v)
	}

	return nil
}
