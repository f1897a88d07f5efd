package urlaccess

import (
	"errors"
	"fmt"
	"strings"

	"github.com/calvinalkan/urlaccess/pkg/fs"
)

// Code is the portable result code of an accessor call. Zero is success;
// failures are negative.
type Code int32

// Result codes.
const (
	CodeOK                      Code = 0
	CodeUnknown                 Code = -10
	CodeUnknownScheme           Code = -11
	CodeResourceNotFound        Code = -12
	CodeResourceAccessViolation Code = -13
	CodeImproperArguments       Code = -15
	CodePropertyKeyUnavailable  Code = -17
)

// Sentinel errors, one per failure [Code]. Every *[Error] matches exactly one
// of them with [errors.Is].
var (
	ErrUnknown                 = errors.New("unknown error")
	ErrUnknownScheme           = errors.New("unknown scheme")
	ErrResourceNotFound        = errors.New("resource not found")
	ErrResourceAccessViolation = errors.New("resource access violation")
	ErrImproperArguments       = errors.New("improper arguments")
	ErrPropertyKeyUnavailable  = errors.New("property key unavailable")
)

func (c Code) String() string {
	switch c {
	case CodeOK:
		return "OK"
	case CodeUnknown:
		return "UnknownError"
	case CodeUnknownScheme:
		return "UnknownSchemeError"
	case CodeResourceNotFound:
		return "ResourceNotFoundError"
	case CodeResourceAccessViolation:
		return "ResourceAccessViolationError"
	case CodeImproperArguments:
		return "ImproperArgumentsError"
	case CodePropertyKeyUnavailable:
		return "PropertyKeyUnavailableError"
	default:
		return fmt.Sprintf("Code(%d)", int32(c))
	}
}

// sentinel returns the sentinel error for c, or nil for [CodeOK].
func (c Code) sentinel() error {
	switch c {
	case CodeOK:
		return nil
	case CodeUnknownScheme:
		return ErrUnknownScheme
	case CodeResourceNotFound:
		return ErrResourceNotFound
	case CodeResourceAccessViolation:
		return ErrResourceAccessViolation
	case CodeImproperArguments:
		return ErrImproperArguments
	case CodePropertyKeyUnavailable:
		return ErrPropertyKeyUnavailable
	default:
		return ErrUnknown
	}
}

// Error is the error type returned by [Accessor] and the built-in handlers.
//
// It formats as "<op> <locator>: <code message>[: <cause>]":
//
//	fetch file:///etc/shadow: resource access violation: open /etc/shadow: permission denied
//
// [errors.Is] matches both the sentinel for Code and anything in the Err
// chain, so callers can test either the portable class or the platform
// cause:
//
//	if errors.Is(err, urlaccess.ErrResourceNotFound) { ... }
//	if errors.Is(err, syscall.ENOENT) { ... }
type Error struct {
	// Op is the accessor operation: "fetch", "destroy", "write" or "parse".
	Op string

	// Locator is the locator the operation targeted, as text.
	Locator string

	// Code is the portable result code. Never [CodeOK].
	Code Code

	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}

	var b strings.Builder

	b.WriteString(e.Op)

	if e.Locator != "" {
		b.WriteByte(' ')
		b.WriteString(e.Locator)
	}

	b.WriteString(": ")

	if s := e.Code.sentinel(); s != nil {
		b.WriteString(s.Error())
	} else {
		b.WriteString(e.Code.String())
	}

	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}

	return b.String()
}

// Unwrap returns the code's sentinel followed by the cause.
func (e *Error) Unwrap() []error {
	if e == nil {
		return nil
	}

	errs := make([]error, 0, 2)

	if s := e.Code.sentinel(); s != nil {
		errs = append(errs, s)
	}

	if e.Err != nil {
		errs = append(errs, e.Err)
	}

	return errs
}

// CodeOf returns the result code carried by err.
//
// nil is [CodeOK]. Errors that are not an *[Error] are matched against the
// sentinels; anything else is [CodeUnknown].
func CodeOf(err error) Code {
	if err == nil {
		return CodeOK
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	for _, c := range []Code{
		CodeUnknownScheme,
		CodeResourceNotFound,
		CodeResourceAccessViolation,
		CodeImproperArguments,
		CodePropertyKeyUnavailable,
	} {
		if errors.Is(err, c.sentinel()) {
			return c
		}
	}

	return CodeUnknown
}

// codeForKind translates a classified platform failure of an open.
func codeForKind(k fs.Kind) Code {
	switch k {
	case fs.KindNotFound:
		return CodeResourceNotFound
	case fs.KindAccessDenied:
		return CodeResourceAccessViolation
	default:
		return CodeUnknown
	}
}

func newError(op string, loc Locator, code Code, err error) *Error {
	return &Error{Op: op, Locator: loc.String(), Code: code, Err: err}
}
