package fs

import (
	"errors"
	"io"
	"math/rand/v2"
	"os"
	"sync"
	"sync/atomic"
)

// ChaosConfig controls fault injection probabilities.
// Each rate is a float64 from 0.0 (never) to 1.0 (always).
//
// The zero value disables rate-based injection; sticky path states set with
// [Chaos.SetPathState] still apply.
type ChaosConfig struct {
	// OpenFailRate controls how often OpenRead and Create fail. Read opens
	// return an access-denied, I/O or not-a-directory error; write opens may
	// also return no-space.
	OpenFailRate float64

	// ReadFailRate controls how often File.Read fails with an I/O error,
	// returning zero bytes.
	ReadFailRate float64

	// TruncatedReadRate controls how often File.Read reports EOF before the
	// end of the file, as if the file shrank after it was opened.
	TruncatedReadRate float64

	// WriteFailRate controls how often File.Write fails before writing
	// anything (I/O or no-space error).
	WriteFailRate float64

	// PartialWriteRate controls how often File.Write writes a prefix of the
	// buffer and then fails with a no-space error.
	PartialWriteRate float64

	// SyncFailRate controls how often File.Sync fails with an I/O error.
	SyncFailRate float64

	// CloseFailRate controls how often File.Close reports an I/O error. The
	// underlying handle is always closed.
	CloseFailRate float64

	// StatFailRate controls how often Stat fails (access-denied or I/O).
	StatFailRate float64

	// MkdirFailRate controls how often Mkdir fails (access-denied, I/O or
	// no-space).
	MkdirFailRate float64

	// RemoveFailRate controls how often Rmdir and Unlink fail
	// (access-denied, busy or I/O).
	RemoveFailRate float64

	// ReadDirFailRate controls how often ReadDirNames fails entirely.
	ReadDirFailRate float64

	// ReplaceFailRate controls how often Replace fails (I/O or no-space).
	ReplaceFailRate float64
}

// ChaosMode controls how [Chaos] behaves.
type ChaosMode uint8

const (
	// ChaosModeInject enables fault-rate injection and sticky path state.
	// This is the default mode for a new [Chaos].
	ChaosModeInject ChaosMode = iota

	// ChaosModeStickyOnly applies only sticky path state. Fault rates are
	// disabled.
	ChaosModeStickyOnly

	// ChaosModePassthrough behaves like the underlying FS. Sticky state is not
	// cleared; it is simply not consulted while in this mode.
	ChaosModePassthrough
)

// PathState is a persistent fault attached to a path.
type PathState uint8

const (
	// PathNormal means no persistent fault. Untracked paths are normal.
	PathNormal PathState = iota

	// PathIOError makes every operation on the path fail with an I/O error,
	// like a bad sector.
	PathIOError

	// PathNoPermission makes opening the path (for reading or writing) fail
	// with access denied while Stat keeps working: the file can be listed
	// but not read.
	PathNoPermission
)

// ChaosStats contains counts of injected faults.
type ChaosStats struct {
	OpenFails      int64
	ReadFails      int64
	TruncatedReads int64
	WriteFails     int64
	PartialWrites  int64
	SyncFails      int64
	CloseFails     int64
	StatFails      int64
	MkdirFails     int64
	RemoveFails    int64
	ReadDirFails   int64
	ReplaceFails   int64
}

// Total returns the number of injected faults of every kind.
func (s ChaosStats) Total() int64 {
	return s.OpenFails + s.ReadFails + s.TruncatedReads + s.WriteFails +
		s.PartialWrites + s.SyncFails + s.CloseFails + s.StatFails +
		s.MkdirFails + s.RemoveFails + s.ReadDirFails + s.ReplaceFails
}

// InjectedError marks an error as intentionally injected by [Chaos].
//
// It wraps an *[os.PathError] carrying a real platform error, so [Classify],
// [errors.Is] and [os.IsPermission] treat it like a genuine failure, while
// [IsInjected] can still tell the two apart.
type InjectedError struct {
	Err error
}

func (e *InjectedError) Error() string {
	return "chaos: " + e.Err.Error()
}

func (e *InjectedError) Unwrap() error {
	return e.Err
}

// IsInjected reports whether err (or any wrapped error) was injected by
// [Chaos]. Returns false if err is nil.
func IsInjected(err error) bool {
	var injected *InjectedError

	return errors.As(err, &injected)
}

// Chaos wraps an [FS] and injects platform failures for testing.
//
// Chaos never injects not-found errors: whether a path exists always comes
// from the wrapped FS. Everything else the handler must survive (denied
// opens, failing reads, short files, full disks, failing directory reads) can
// be injected either randomly via [ChaosConfig] or deterministically per path
// via [Chaos.SetPathState].
type Chaos struct {
	fs     FS
	config ChaosConfig
	mode   atomic.Uint32

	rngMu sync.Mutex
	rng   *rand.Rand

	stateMu sync.RWMutex
	states  map[string]PathState

	openFails      atomic.Int64
	readFails      atomic.Int64
	truncatedReads atomic.Int64
	writeFails     atomic.Int64
	partialWrites  atomic.Int64
	syncFails      atomic.Int64
	closeFails     atomic.Int64
	statFails      atomic.Int64
	mkdirFails     atomic.Int64
	removeFails    atomic.Int64
	readDirFails   atomic.Int64
	replaceFails   atomic.Int64
}

// NewChaos creates a new [Chaos] filesystem wrapping the given [FS].
// The seed controls random fault injection for reproducibility.
// Panics if underlying is nil.
func NewChaos(underlying FS, seed uint64, config ChaosConfig) *Chaos {
	if underlying == nil {
		panic("underlying fs is nil")
	}

	return &Chaos{
		fs:     underlying,
		config: config,
		rng:    rand.New(rand.NewPCG(seed, seed)),
		states: make(map[string]PathState),
	}
}

// SetMode updates [Chaos] behavior. Safe to call concurrently with
// filesystem operations.
func (c *Chaos) SetMode(m ChaosMode) { c.mode.Store(uint32(m)) }

// SetPathState attaches a sticky fault to path. [PathNormal] clears it.
func (c *Chaos) SetPathState(path string, state PathState) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	if state == PathNormal {
		delete(c.states, path)

		return
	}

	c.states[path] = state
}

// Stats returns the current fault injection counts.
func (c *Chaos) Stats() ChaosStats {
	return ChaosStats{
		OpenFails:      c.openFails.Load(),
		ReadFails:      c.readFails.Load(),
		TruncatedReads: c.truncatedReads.Load(),
		WriteFails:     c.writeFails.Load(),
		PartialWrites:  c.partialWrites.Load(),
		SyncFails:      c.syncFails.Load(),
		CloseFails:     c.closeFails.Load(),
		StatFails:      c.statFails.Load(),
		MkdirFails:     c.mkdirFails.Load(),
		RemoveFails:    c.removeFails.Load(),
		ReadDirFails:   c.readDirFails.Load(),
		ReplaceFails:   c.replaceFails.Load(),
	}
}

func (c *Chaos) OpenRead(path string) (File, Info, error) {
	if err := c.sticky("open", path, true); err != nil {
		c.openFails.Add(1)

		return nil, Info{}, err
	}

	if c.should(c.config.OpenFailRate) {
		c.openFails.Add(1)

		return nil, Info{}, c.inject("open", path, errInjectAccess, errInjectIO, errInjectNotDir)
	}

	f, info, err := c.fs.OpenRead(path)
	if err != nil {
		return nil, Info{}, err
	}

	return &chaosFile{f: f, chaos: c, path: path}, info, nil
}

func (c *Chaos) Stat(path string) (Info, error) {
	if err := c.sticky("stat", path, false); err != nil {
		c.statFails.Add(1)

		return Info{}, err
	}

	if c.should(c.config.StatFailRate) {
		c.statFails.Add(1)

		return Info{}, c.inject("stat", path, errInjectAccess, errInjectIO)
	}

	return c.fs.Stat(path)
}

func (c *Chaos) Create(path string, perm uint32) (File, error) {
	if err := c.sticky("open", path, true); err != nil {
		c.openFails.Add(1)

		return nil, err
	}

	if c.should(c.config.OpenFailRate) {
		c.openFails.Add(1)

		return nil, c.inject("open", path, errInjectAccess, errInjectIO, errInjectNoSpace, errInjectNotDir)
	}

	f, err := c.fs.Create(path, perm)
	if err != nil {
		return nil, err
	}

	return &chaosFile{f: f, chaos: c, path: path}, nil
}

func (c *Chaos) Replace(path string, r io.Reader, perm uint32) error {
	if err := c.sticky("replace", path, true); err != nil {
		c.replaceFails.Add(1)

		return err
	}

	if c.should(c.config.ReplaceFailRate) {
		c.replaceFails.Add(1)

		return c.inject("replace", path, errInjectIO, errInjectNoSpace)
	}

	return c.fs.Replace(path, r, perm)
}

func (c *Chaos) Mkdir(path string, perm uint32) error {
	if err := c.sticky("mkdir", path, true); err != nil {
		c.mkdirFails.Add(1)

		return err
	}

	if c.should(c.config.MkdirFailRate) {
		c.mkdirFails.Add(1)

		return c.inject("mkdir", path, errInjectAccess, errInjectIO, errInjectNoSpace)
	}

	return c.fs.Mkdir(path, perm)
}

func (c *Chaos) Rmdir(path string) error {
	if err := c.sticky("rmdir", path, true); err != nil {
		c.removeFails.Add(1)

		return err
	}

	if c.should(c.config.RemoveFailRate) {
		c.removeFails.Add(1)

		return c.inject("rmdir", path, errInjectAccess, errInjectBusy, errInjectIO)
	}

	return c.fs.Rmdir(path)
}

func (c *Chaos) Unlink(path string) error {
	if err := c.sticky("unlink", path, true); err != nil {
		c.removeFails.Add(1)

		return err
	}

	if c.should(c.config.RemoveFailRate) {
		c.removeFails.Add(1)

		return c.inject("unlink", path, errInjectAccess, errInjectBusy, errInjectIO)
	}

	return c.fs.Unlink(path)
}

func (c *Chaos) ReadDirNames(path string) ([]string, error) {
	if err := c.sticky("opendir", path, true); err != nil {
		c.readDirFails.Add(1)

		return nil, err
	}

	if c.should(c.config.ReadDirFailRate) {
		c.readDirFails.Add(1)

		return nil, c.inject("opendir", path, errInjectAccess, errInjectIO)
	}

	return c.fs.ReadDirNames(path)
}

// Compile-time interface check.
var _ FS = (*Chaos)(nil)

func (c *Chaos) getMode() ChaosMode {
	v := c.mode.Load()
	if v > uint32(ChaosModePassthrough) {
		return ChaosModeInject
	}

	return ChaosMode(v)
}

// sticky returns the error dictated by the path's sticky state, if any.
// denyOnNoPermission is false for operations that only need to list the
// path (Stat), which [PathNoPermission] leaves working.
func (c *Chaos) sticky(op, path string, denyOnNoPermission bool) error {
	if c.getMode() == ChaosModePassthrough {
		return nil
	}

	c.stateMu.RLock()
	state := c.states[path]
	c.stateMu.RUnlock()

	switch state {
	case PathIOError:
		return injected(op, path, errInjectIO)
	case PathNoPermission:
		if denyOnNoPermission {
			return injected(op, path, errInjectAccess)
		}
	}

	return nil
}

// should returns true with the given probability when chaos is injecting.
func (c *Chaos) should(rate float64) bool {
	if rate <= 0 || c.getMode() != ChaosModeInject {
		return false
	}

	c.rngMu.Lock()
	v := c.rng.Float64()
	c.rngMu.Unlock()

	return v < rate
}

// inject picks one of errs at random and returns it as an injected error.
func (c *Chaos) inject(op, path string, errs ...error) error {
	c.rngMu.Lock()
	err := errs[c.rng.IntN(len(errs))]
	c.rngMu.Unlock()

	return injected(op, path, err)
}

func injected(op, path string, err error) error {
	return &InjectedError{Err: &os.PathError{Op: op, Path: path, Err: err}}
}

// chaosFile wraps a [File] and injects faults on its operations.
type chaosFile struct {
	f     File
	chaos *Chaos
	path  string
}

var _ File = (*chaosFile)(nil)

func (cf *chaosFile) Read(p []byte) (int, error) {
	if err := cf.chaos.sticky("read", cf.path, false); err != nil {
		cf.chaos.readFails.Add(1)

		return 0, err
	}

	if cf.chaos.should(cf.chaos.config.ReadFailRate) {
		cf.chaos.readFails.Add(1)

		return 0, injected("read", cf.path, errInjectIO)
	}

	if len(p) > 0 && cf.chaos.should(cf.chaos.config.TruncatedReadRate) {
		cf.chaos.truncatedReads.Add(1)

		return 0, io.EOF
	}

	return cf.f.Read(p)
}

func (cf *chaosFile) Write(p []byte) (int, error) {
	if err := cf.chaos.sticky("write", cf.path, false); err != nil {
		cf.chaos.writeFails.Add(1)

		return 0, err
	}

	if cf.chaos.should(cf.chaos.config.WriteFailRate) {
		cf.chaos.writeFails.Add(1)

		return 0, cf.chaos.inject("write", cf.path, errInjectIO, errInjectNoSpace)
	}

	if len(p) > 1 && cf.chaos.should(cf.chaos.config.PartialWriteRate) {
		cf.chaos.partialWrites.Add(1)

		cf.chaos.rngMu.Lock()
		cutoff := cf.chaos.rng.IntN(len(p)-1) + 1 // [1, len(p)-1]
		cf.chaos.rngMu.Unlock()

		n, err := cf.f.Write(p[:cutoff])
		if err != nil {
			return n, err
		}

		return n, injected("write", cf.path, errInjectNoSpace)
	}

	return cf.f.Write(p)
}

func (cf *chaosFile) Sync() error {
	if cf.chaos.should(cf.chaos.config.SyncFailRate) {
		cf.chaos.syncFails.Add(1)

		return injected("sync", cf.path, errInjectIO)
	}

	return cf.f.Sync()
}

func (cf *chaosFile) Close() error {
	err := cf.f.Close()
	if err != nil {
		return err
	}

	if cf.chaos.should(cf.chaos.config.CloseFailRate) {
		cf.chaos.closeFails.Add(1)

		return injected("close", cf.path, errInjectIO)
	}

	return nil
}
