package urlaccess

import (
	"bytes"
	"encoding/json"
	"slices"
	"time"
)

// absoluteTimeEpoch is the reference date of [AbsoluteTime].
var absoluteTimeEpoch = time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)

// AbsoluteTime returns t as seconds relative to 2001-01-01T00:00:00Z, the
// epoch locator-native timestamps are expressed in.
func AbsoluteTime(t time.Time) float64 {
	return float64(t.Unix()-absoluteTimeEpoch.Unix()) + float64(t.Nanosecond())/1e9
}

// TimeFromAbsolute is the inverse of [AbsoluteTime].
func TimeFromAbsolute(at float64) time.Time {
	sec := int64(at)
	nsec := int64((at - float64(sec)) * 1e9)

	return time.Unix(absoluteTimeEpoch.Unix()+sec, nsec).UTC()
}

// Property is a single key/value entry of a [Properties] bag.
type Property struct {
	Key   Key
	Value any
}

// Properties is an immutable, insertion-ordered property bag with unique
// keys.
//
// A nil *Properties is a valid empty bag. Accessors return copies; nothing
// reachable from a Properties can be mutated by callers.
type Properties struct {
	entries []Property
}

// NewProperties builds a bag from props. Values are type-checked against
// their key; a repeated key keeps its first value.
func NewProperties(props ...Property) (*Properties, error) {
	b := NewPropertiesBuilder(len(props))

	for _, p := range props {
		if err := b.Add(p.Key, p.Value); err != nil {
			return nil, err
		}
	}

	return b.Build(), nil
}

// Len returns the number of entries.
func (p *Properties) Len() int {
	if p == nil {
		return 0
	}

	return len(p.entries)
}

// Has reports whether k is present.
func (p *Properties) Has(k Key) bool {
	_, ok := p.Get(k)

	return ok
}

// Get returns the value for k.
//
// Slice values are copied.
func (p *Properties) Get(k Key) (any, bool) {
	if p == nil {
		return nil, false
	}

	for _, e := range p.entries {
		if e.Key == k {
			return cloneValue(e.Value), true
		}
	}

	return nil, false
}

// Keys returns the keys in insertion order.
func (p *Properties) Keys() []Key {
	keys := make([]Key, 0, p.Len())

	if p != nil {
		for _, e := range p.entries {
			keys = append(keys, e.Key)
		}
	}

	return keys
}

// All returns a copy of the entries in insertion order.
func (p *Properties) All() []Property {
	out := make([]Property, 0, p.Len())

	if p != nil {
		for _, e := range p.entries {
			out = append(out, Property{Key: e.Key, Value: cloneValue(e.Value)})
		}
	}

	return out
}

// Exists returns the [KeyExists] value.
func (p *Properties) Exists() (bool, bool) { return typed[bool](p, KeyExists) }

// DirectoryContents returns the [KeyDirectoryContents] value.
func (p *Properties) DirectoryContents() ([]string, bool) {
	return typed[[]string](p, KeyDirectoryContents)
}

// Length returns the [KeyLength] value.
func (p *Properties) Length() (int64, bool) { return typed[int64](p, KeyLength) }

// ModificationTime returns the [KeyModificationTime] value.
func (p *Properties) ModificationTime() (time.Time, bool) {
	return typed[time.Time](p, KeyModificationTime)
}

// PosixMode returns the [KeyPosixMode] value.
func (p *Properties) PosixMode() (uint32, bool) { return typed[uint32](p, KeyPosixMode) }

// OwnerID returns the [KeyOwnerID] value.
func (p *Properties) OwnerID() (uint32, bool) { return typed[uint32](p, KeyOwnerID) }

// MarshalJSON renders the bag as a JSON object keyed by token, preserving
// insertion order. Times are RFC 3339 strings. Called directly on a nil bag
// it returns {}; encoding/json never calls it for a nil *Properties and
// writes null instead.
func (p *Properties) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	if p != nil {
		for i, e := range p.entries {
			if i > 0 {
				buf.WriteByte(',')
			}

			k, err := json.Marshal(e.Key.String())
			if err != nil {
				return nil, err
			}

			v, err := json.Marshal(e.Value)
			if err != nil {
				return nil, err
			}

			buf.Write(k)
			buf.WriteByte(':')
			buf.Write(v)
		}
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

func typed[T any](p *Properties, k Key) (T, bool) {
	var zero T

	v, ok := p.Get(k)
	if !ok {
		return zero, false
	}

	t, ok := v.(T)

	return t, ok
}

func cloneValue(v any) any {
	if s, ok := v.([]string); ok {
		return slices.Clone(s)
	}

	return v
}

// PropertiesBuilder accumulates entries for a [Properties] bag.
//
// The zero value is ready to use. A builder is not safe for concurrent use.
type PropertiesBuilder struct {
	entries []Property
}

// NewPropertiesBuilder returns a builder with room for capacity entries.
func NewPropertiesBuilder(capacity int) *PropertiesBuilder {
	return &PropertiesBuilder{entries: make([]Property, 0, capacity)}
}

// Add appends k with value v. The value must have the type documented on k.
// If k is already present the first value is kept and v is dropped.
func (b *PropertiesBuilder) Add(k Key, v any) error {
	if err := k.checkValue(v); err != nil {
		return err
	}

	b.add(k, v)

	return nil
}

// add appends without type checking.
func (b *PropertiesBuilder) add(k Key, v any) {
	for _, e := range b.entries {
		if e.Key == k {
			return
		}
	}

	b.entries = append(b.entries, Property{Key: k, Value: cloneValue(v)})
}

// Len returns the number of entries added so far.
func (b *PropertiesBuilder) Len() int {
	return len(b.entries)
}

// Build returns an immutable snapshot of the entries. The builder can keep
// being used; later additions do not affect returned bags.
func (b *PropertiesBuilder) Build() *Properties {
	return &Properties{entries: slices.Clone(b.entries)}
}
