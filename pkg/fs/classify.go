package fs

// Kind is the portable class of a platform error.
type Kind uint8

const (
	// KindOther covers every platform error that is neither
	// [KindNotFound] nor [KindAccessDenied].
	KindOther Kind = iota

	// KindNotFound: ENOENT on POSIX; ERROR_FILE_NOT_FOUND or
	// ERROR_PATH_NOT_FOUND on Windows.
	KindNotFound

	// KindAccessDenied: EACCES on POSIX; ERROR_ACCESS_DENIED on Windows.
	// The path exists but the requested access was refused.
	KindAccessDenied
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not-found"
	case KindAccessDenied:
		return "access-denied"
	default:
		return "other"
	}
}

// Classify maps an error returned by an [FS] to its [Kind].
//
// Wrapped errors are unwrapped, so errors from [Chaos] and [TracingFS]
// classify exactly like the platform errors they carry. A nil error is
// [KindOther].
func Classify(err error) Kind {
	if err == nil {
		return KindOther
	}

	return classify(err)
}
