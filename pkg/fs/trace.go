package fs

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
)

// TestBuilder is the subset of [testing.T] used by [TracingFS].
//
// This keeps [TracingFS] usable from tests in other packages without
// depending on _test.go files.
type TestBuilder interface {
	// [testing.T.Helper]
	Helper()
	// [testing.T.Cleanup]
	Cleanup(func())
	// [testing.T.Failed]
	Failed() bool
	// [testing.T.Logf]
	Logf(format string, args ...any)
}

// TracingFS wraps an [FS] and records every operation, including operations
// on the handles it returns.
//
// Tests use it to assert which primitives a call touched (and how often), and
// to dump recent operations when a test fails.
type TracingFS struct {
	fs    FS
	trace *traceLog
}

// TracingFSOptions configures a [TracingFS].
type TracingFSOptions struct {
	// FS is the underlying filesystem to wrap. Required.
	FS FS

	// Capacity is the max number of operations to keep. Older operations are
	// dropped first. Defaults to 200.
	Capacity int

	// TB, when set, logs the trace through TB.Logf if the test fails.
	TB TestBuilder
}

// NewTracingFS creates a new [TracingFS].
// Panics if opts.FS is nil.
func NewTracingFS(opts TracingFSOptions) *TracingFS {
	if opts.FS == nil {
		panic("underlying fs is nil")
	}

	capacity := opts.Capacity
	if capacity <= 0 {
		capacity = 200
	}

	t := &TracingFS{
		fs:    opts.FS,
		trace: newTraceLog(capacity),
	}

	if tb := opts.TB; tb != nil {
		tb.Helper()
		tb.Cleanup(func() {
			if tb.Failed() {
				if trace := t.Trace(); trace != "" {
					tb.Logf("fs trace:\n%s", trace)
				}
			}
		})
	}

	return t
}

// Op is a single recorded operation.
type Op struct {
	// Seq is the 1-based sequence number of the operation.
	Seq uint64
	// Name is the operation: "openread", "stat", "create", "replace",
	// "mkdir", "rmdir", "unlink", "readdirnames", or "file.read",
	// "file.write", "file.sync", "file.close" for handle operations.
	Name string
	// Path is the path the operation targeted.
	Path string
	// Err is the error the operation returned, if any.
	Err error
}

// Ops returns the recorded operations, oldest first.
func (t *TracingFS) Ops() []Op {
	events := t.trace.snapshot()
	out := make([]Op, 0, len(events))

	for _, e := range events {
		out = append(out, Op{Seq: e.seq, Name: e.op, Path: e.path, Err: e.err})
	}

	return out
}

// Count returns how many recorded operations have the given name.
func (t *TracingFS) Count(name string) int {
	n := 0

	for _, e := range t.trace.snapshot() {
		if e.op == name {
			n++
		}
	}

	return n
}

// Len returns the number of recorded operations.
func (t *TracingFS) Len() int {
	return len(t.trace.snapshot())
}

// Reset drops every recorded operation.
func (t *TracingFS) Reset() {
	t.trace.reset()
}

// Trace returns a formatted string of recent operations.
func (t *TracingFS) Trace() string {
	return t.trace.String()
}

func (t *TracingFS) OpenRead(path string) (File, Info, error) {
	f, info, err := t.fs.OpenRead(path)
	t.trace.add("openread", path, err, attr("size", strconv.FormatInt(info.Size, 10)), attr("dir", strconv.FormatBool(info.IsDir)))

	if err != nil {
		return nil, info, err
	}

	return &tracedFile{f: f, trace: t.trace, path: path}, info, nil
}

func (t *TracingFS) Stat(path string) (Info, error) {
	info, err := t.fs.Stat(path)
	t.trace.add("stat", path, err)

	return info, err
}

func (t *TracingFS) Create(path string, perm uint32) (File, error) {
	f, err := t.fs.Create(path, perm)
	t.trace.add("create", path, err, attr("perm", fmt.Sprintf("%#o", perm)))

	if err != nil {
		return nil, err
	}

	return &tracedFile{f: f, trace: t.trace, path: path}, nil
}

func (t *TracingFS) Replace(path string, r io.Reader, perm uint32) error {
	err := t.fs.Replace(path, r, perm)
	t.trace.add("replace", path, err, attr("perm", fmt.Sprintf("%#o", perm)))

	return err
}

func (t *TracingFS) Mkdir(path string, perm uint32) error {
	err := t.fs.Mkdir(path, perm)
	t.trace.add("mkdir", path, err, attr("perm", fmt.Sprintf("%#o", perm)))

	return err
}

func (t *TracingFS) Rmdir(path string) error {
	err := t.fs.Rmdir(path)
	t.trace.add("rmdir", path, err)

	return err
}

func (t *TracingFS) Unlink(path string) error {
	err := t.fs.Unlink(path)
	t.trace.add("unlink", path, err)

	return err
}

func (t *TracingFS) ReadDirNames(path string) ([]string, error) {
	names, err := t.fs.ReadDirNames(path)
	t.trace.add("readdirnames", path, err, attr("n", strconv.Itoa(len(names))))

	return names, err
}

// Interface compliance.
var _ FS = (*TracingFS)(nil)

// kv is a key-value pair for trace context.
type kv struct {
	k string
	v string
}

func attr(k, v string) kv {
	return kv{k: k, v: v}
}

// traceEvent records a single FS operation.
type traceEvent struct {
	seq      uint64
	op       string
	path     string
	err      error
	injected bool
	attrs    []kv
}

func (e traceEvent) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "#%d %s", e.seq, e.op)

	if e.path != "" {
		fmt.Fprintf(&b, " path=%q", e.path)
	}

	for _, a := range e.attrs {
		fmt.Fprintf(&b, " %s=%s", a.k, a.v)
	}

	if e.err == nil {
		b.WriteString(" ok")

		return b.String()
	}

	fmt.Fprintf(&b, " err=%v injected=%t", e.err, e.injected)

	return b.String()
}

// traceLog is a bounded circular buffer of [traceEvent].
type traceLog struct {
	mu       sync.Mutex
	capacity int
	events   []traceEvent
	next     int
	full     bool
	seq      uint64
}

func newTraceLog(capacity int) *traceLog {
	return &traceLog{
		capacity: capacity,
		events:   make([]traceEvent, 0, capacity),
	}
}

func (t *traceLog) add(op, path string, err error, attrs ...kv) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.seq++

	event := traceEvent{
		seq:      t.seq,
		op:       op,
		path:     path,
		err:      err,
		injected: IsInjected(err),
		attrs:    attrs,
	}

	if len(t.events) < t.capacity {
		t.events = append(t.events, event)

		return
	}

	t.events[t.next] = event
	t.next = (t.next + 1) % t.capacity
	t.full = true
}

func (t *traceLog) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.events = t.events[:0]
	t.next = 0
	t.full = false
}

func (t *traceLog) snapshot() []traceEvent {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.full {
		return append([]traceEvent(nil), t.events...)
	}

	out := make([]traceEvent, 0, len(t.events))
	out = append(out, t.events[t.next:]...)
	out = append(out, t.events[:t.next]...)

	return out
}

func (t *traceLog) String() string {
	events := t.snapshot()
	if len(events) == 0 {
		return ""
	}

	var b strings.Builder

	for i, e := range events {
		if i > 0 {
			b.WriteByte('\n')
		}

		b.WriteString(e.String())
	}

	return b.String()
}

// tracedFile wraps a [File] and records its operations.
type tracedFile struct {
	f     File
	trace *traceLog
	path  string
}

var _ File = (*tracedFile)(nil)

func (tf *tracedFile) Read(p []byte) (int, error) {
	n, err := tf.f.Read(p)
	tf.trace.add("file.read", tf.path, err, attr("n", strconv.Itoa(n)))

	return n, err
}

func (tf *tracedFile) Write(p []byte) (int, error) {
	n, err := tf.f.Write(p)
	tf.trace.add("file.write", tf.path, err, attr("n", strconv.Itoa(n)))

	return n, err
}

func (tf *tracedFile) Sync() error {
	err := tf.f.Sync()
	tf.trace.add("file.sync", tf.path, err)

	return err
}

func (tf *tracedFile) Close() error {
	err := tf.f.Close()
	tf.trace.add("file.close", tf.path, err)

	return err
}
