package urlaccess

import "errors"

var errHTTPNotImplemented = errors.New("http resources are not implemented")

// HTTPHandler reserves the "http" scheme. Every operation fails with
// [CodeUnknownScheme] without touching the network or the filesystem.
type HTTPHandler struct{}

func (HTTPHandler) Fetch(loc Locator, _ FetchRequest) (Result, error) {
	return Result{}, newError(opFetch, loc, CodeUnknownScheme, errHTTPNotImplemented)
}

func (HTTPHandler) Destroy(loc Locator) error {
	return newError(opDestroy, loc, CodeUnknownScheme, errHTTPNotImplemented)
}

func (HTTPHandler) Write(loc Locator, _ []byte, _ *Properties) error {
	return newError(opWrite, loc, CodeUnknownScheme, errHTTPNotImplemented)
}

// Compile-time interface check.
var _ Handler = HTTPHandler{}
