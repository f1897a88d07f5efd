// Package urlaccess reads, writes and destroys resources named by URL-like
// locators.
//
// An [Accessor] dispatches on the locator scheme. The "file" scheme is served
// by [FileHandler] on top of the platform primitive in package fs; "http" is
// reserved and fails with [CodeUnknownScheme], as does any other scheme.
//
// Results use a uniform property bag ([Properties]) keyed by [Key] and a
// portable [Code] carried in an *[Error]. Partial results accompany errors:
//
//	acc := urlaccess.New(urlaccess.Options{})
//	loc := urlaccess.FileLocator("/etc/hosts", false)
//
//	res, err := acc.Fetch(loc, urlaccess.FetchRequest{Data: true, Properties: true})
//	if exists, _ := res.Properties.Exists(); exists && err != nil {
//	    // the file is there but could not be read
//	}
//
// Nothing in this package caches, retries, locks or logs.
package urlaccess

import (
	"errors"
	"fmt"
	"strings"

	"github.com/calvinalkan/urlaccess/pkg/fs"
)

// Operation names used in [Error.Op].
const (
	opFetch   = "fetch"
	opDestroy = "destroy"
	opWrite   = "write"
)

// WriteMode selects how [FileHandler.Write] replaces file contents.
type WriteMode uint8

const (
	// WriteModeTruncate opens the file with create+truncate and writes in
	// place.
	WriteModeTruncate WriteMode = iota

	// WriteModeAtomic writes a temporary file next to the target and renames
	// it over the target.
	WriteModeAtomic
)

func (m WriteMode) String() string {
	switch m {
	case WriteModeTruncate:
		return "truncate"
	case WriteModeAtomic:
		return "atomic"
	default:
		return fmt.Sprintf("WriteMode(%d)", uint8(m))
	}
}

// ParseWriteMode parses "truncate" or "atomic". The empty string is
// [WriteModeTruncate].
func ParseWriteMode(s string) (WriteMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "truncate":
		return WriteModeTruncate, nil
	case "atomic":
		return WriteModeAtomic, nil
	default:
		return 0, fmt.Errorf("%w: unknown write mode %q", ErrImproperArguments, s)
	}
}

// FetchRequest says what a fetch should produce.
type FetchRequest struct {
	// Data requests the resource bytes.
	Data bool

	// Properties requests a property bag.
	Properties bool

	// Keys limits the properties. nil selects every applicable key; a
	// non-nil empty slice selects none.
	Keys []Key
}

// Result is what a fetch produced. Both fields may be set alongside an
// error.
type Result struct {
	// Data holds the resource bytes, allocated by the configured
	// [Allocator]. The caller owns it.
	Data []byte

	// Properties is the property bag, or nil when none was produced.
	Properties *Properties
}

// Handler serves one locator scheme.
type Handler interface {
	Fetch(loc Locator, req FetchRequest) (Result, error)
	Destroy(loc Locator) error
	Write(loc Locator, data []byte, props *Properties) error
}

// Options configures an [Accessor].
type Options struct {
	// FS is the filesystem for the "file" scheme. Defaults to [fs.NewNative].
	FS fs.FS

	// Allocator provides fetch buffers. Defaults to [HeapAllocator].
	Allocator Allocator

	// WriteMode selects truncate-in-place (default) or atomic replace.
	WriteMode WriteMode

	// SyncWrites fsyncs written files before closing them.
	SyncWrites bool

	// Handlers adds or overrides scheme handlers. Scheme names are matched
	// case-insensitively.
	Handlers map[string]Handler
}

func (o Options) withDefaults() Options {
	if o.FS == nil {
		o.FS = fs.NewNative()
	}

	if o.Allocator == nil {
		o.Allocator = HeapAllocator{}
	}

	return o
}

// Accessor dispatches resource operations to the handler of the locator's
// scheme.
//
// An Accessor holds no mutable state and is safe for concurrent use.
// Concurrent operations on the same resource are not coordinated.
type Accessor struct {
	handlers map[string]Handler
}

// New returns an [Accessor] with the "file" and "http" handlers installed
// plus any from opts.Handlers.
func New(opts Options) *Accessor {
	opts = opts.withDefaults()

	handlers := map[string]Handler{
		"file": NewFileHandler(opts),
		"http": HTTPHandler{},
	}

	for scheme, h := range opts.Handlers {
		if h != nil {
			handlers[strings.ToLower(scheme)] = h
		}
	}

	return &Accessor{handlers: handlers}
}

// handler resolves the locator scheme. A locator without a scheme is
// [CodeImproperArguments]; an unregistered scheme is [CodeUnknownScheme].
func (a *Accessor) handler(op string, loc Locator) (Handler, error) {
	scheme, ok := loc.Scheme()
	if !ok {
		return nil, newError(op, loc, CodeImproperArguments, errors.New("locator has no scheme"))
	}

	h, ok := a.handlers[scheme]
	if !ok {
		return nil, newError(op, loc, CodeUnknownScheme, fmt.Errorf("no handler for scheme %q", scheme))
	}

	return h, nil
}

// Fetch reads the resource bytes and/or properties. See [FileHandler.Fetch]
// for the file scheme.
func (a *Accessor) Fetch(loc Locator, req FetchRequest) (Result, error) {
	h, err := a.handler(opFetch, loc)
	if err != nil {
		return Result{}, err
	}

	for _, k := range req.Keys {
		if !k.Valid() {
			return Result{}, newError(opFetch, loc, CodeImproperArguments, fmt.Errorf("invalid property key %v", k))
		}
	}

	return h.Fetch(loc, req)
}

// FetchProperty fetches a single property.
//
// A failing fetch returns its error. A fetch that succeeds without producing
// the key (directory contents of a regular file, an HTTP key on a file)
// returns [CodePropertyKeyUnavailable].
func (a *Accessor) FetchProperty(loc Locator, key Key) (any, error) {
	res, err := a.Fetch(loc, FetchRequest{Properties: true, Keys: []Key{key}})
	if err != nil {
		return nil, err
	}

	v, ok := res.Properties.Get(key)
	if !ok {
		return nil, newError(opFetch, loc, CodePropertyKeyUnavailable, fmt.Errorf("property %v", key))
	}

	return v, nil
}

// Destroy removes the resource.
func (a *Accessor) Destroy(loc Locator) error {
	h, err := a.handler(opDestroy, loc)
	if err != nil {
		return err
	}

	return h.Destroy(loc)
}

// Write creates or replaces the resource with data. props may be nil.
func (a *Accessor) Write(loc Locator, data []byte, props *Properties) error {
	h, err := a.handler(opWrite, loc)
	if err != nil {
		return err
	}

	return h.Write(loc, data, props)
}
