package urlaccess

// selector is the set of keys a fetch should populate.
type selector uint16

// allKeys selects every key.
const allKeys = selector(1<<(keyCount+1) - 2)

// newSelector builds a selector from the requested keys. A nil list selects
// everything; an empty non-nil list selects nothing. Invalid keys are
// ignored.
func newSelector(keys []Key) selector {
	if keys == nil {
		return allKeys
	}

	var s selector

	for _, k := range keys {
		if k.Valid() {
			s |= 1 << k
		}
	}

	return s
}

func (s selector) has(k Key) bool {
	return k.Valid() && s&(1<<k) != 0
}

func (s selector) empty() bool {
	return s == 0
}
