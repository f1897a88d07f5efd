// Package testutil holds helpers shared by fuzz tests.
package testutil

// ByteStream turns fuzz input into a deterministic sequence of choices.
//
// Once the input is exhausted every read returns a zero value, so the same
// input always yields the same operations.
type ByteStream struct {
	data []byte
	pos  int
}

// NewByteStream creates a stream over b.
func NewByteStream(b []byte) *ByteStream {
	return &ByteStream{data: b}
}

// HasMore reports whether unread bytes remain.
func (s *ByteStream) HasMore() bool {
	return s.pos < len(s.data)
}

// NextByte returns the next byte, or 0 if exhausted.
func (s *ByteStream) NextByte() byte {
	if s.pos >= len(s.data) {
		return 0
	}

	b := s.data[s.pos]
	s.pos++

	return b
}

// NextInt returns a value in [0, n). n <= 0 yields 0.
func (s *ByteStream) NextInt(n int) int {
	if n <= 0 {
		return 0
	}

	return int(s.NextByte()) % n
}

// NextBool returns a boolean derived from the next byte.
func (s *ByteStream) NextBool() bool {
	return s.NextByte()&1 == 1
}

// NextPayload returns 0 to maxLen bytes copied from the stream. A nil result
// never occurs; an empty payload is a non-nil empty slice.
func (s *ByteStream) NextPayload(maxLen int) []byte {
	n := s.NextInt(maxLen + 1)
	out := make([]byte, n)

	for i := range out {
		out[i] = s.NextByte()
	}

	return out
}

// Pick returns one element of choices. choices must not be empty.
func Pick[T any](s *ByteStream, choices []T) T {
	return choices[s.NextInt(len(choices))]
}
