// Package fflog provides leveled logging for the feature-detection
// pipeline. Unlike a plain Printf-style shim, each stream carries its own
// log.Logger flag set tuned to how that stream is actually read: Ops and
// Diag are low-frequency and get a full date+time stamp for correlating
// against wall-clock events, while Trace fires once per seed/candidate and
// drops the date to keep per-seed/per-candidate telemetry terse. Fields lets
// a call site attach structured key=value pairs (RT index, trace count,
// charge, ...) alongside the message instead of baking them into the format
// string, so call sites that want queryable fields and call sites that just
// want a message can both use the same three streams.
package fflog

import (
	"fmt"
	"io"
	"log"
	"sort"
	"strings"
	"sync"
)

// Level represents a logging stream.
type Level int

const (
	// Ops routes to the ops stream: aborted runs, invalid parameters, lifecycle events.
	Ops Level = iota
	// Diag routes to the diag stream: per-stage diagnostics (trace counts, rejected candidates).
	Diag
	// Trace routes to the trace stream: per-seed/per-candidate telemetry, off by default.
	Trace
)

func (l Level) flags() int {
	if l == Trace {
		return log.Lmicroseconds
	}
	return log.LstdFlags | log.Lmicroseconds
}

// Writers holds the io.Writers for each logging stream.
type Writers struct {
	Ops   io.Writer
	Diag  io.Writer
	Trace io.Writer
}

// Field is one structured key=value pair attached to a log line.
type Field struct {
	Key string
	Val interface{}
}

// F builds a Field, the argument to Opskv/Diagkv/Tracekv.
func F(key string, val interface{}) Field {
	return Field{Key: key, Val: val}
}

var (
	mu          sync.RWMutex
	opsLogger   *log.Logger
	diagLogger  *log.Logger
	traceLogger *log.Logger
)

// SetWriters configures all three logging streams at once.
// Pass nil for any writer to disable that stream.
func SetWriters(w Writers) {
	mu.Lock()
	defer mu.Unlock()
	opsLogger = newLogger(Ops, w.Ops)
	diagLogger = newLogger(Diag, w.Diag)
	traceLogger = newLogger(Trace, w.Trace)
}

// SetWriter configures a single logging stream. Pass nil to disable it.
func SetWriter(level Level, w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	switch level {
	case Ops:
		opsLogger = newLogger(Ops, w)
	case Diag:
		diagLogger = newLogger(Diag, w)
	case Trace:
		traceLogger = newLogger(Trace, w)
	default:
		panic(fmt.Sprintf("fflog.SetWriter: unknown Level %d", level))
	}
}

func newLogger(level Level, w io.Writer) *log.Logger {
	if w == nil {
		return nil
	}
	return log.New(w, "[featurefinder] ", level.flags())
}

// Opsf logs to the ops stream.
func Opsf(format string, args ...interface{}) {
	printf(ops(), format, args)
}

// Diagf logs to the diag stream.
func Diagf(format string, args ...interface{}) {
	printf(diag(), format, args)
}

// Tracef logs to the trace stream.
func Tracef(format string, args ...interface{}) {
	printf(trace(), format, args)
}

// Opskv logs msg to the ops stream with structured fields appended as
// space-separated key=value pairs, sorted by key for stable output.
func Opskv(msg string, fields ...Field) {
	kv(ops(), msg, fields)
}

// Diagkv logs msg to the diag stream with structured fields appended as
// space-separated key=value pairs, sorted by key for stable output.
func Diagkv(msg string, fields ...Field) {
	kv(diag(), msg, fields)
}

// Tracekv logs msg to the trace stream with structured fields appended as
// space-separated key=value pairs, sorted by key for stable output.
func Tracekv(msg string, fields ...Field) {
	kv(trace(), msg, fields)
}

func ops() *log.Logger   { mu.RLock(); defer mu.RUnlock(); return opsLogger }
func diag() *log.Logger  { mu.RLock(); defer mu.RUnlock(); return diagLogger }
func trace() *log.Logger { mu.RLock(); defer mu.RUnlock(); return traceLogger }

func printf(l *log.Logger, format string, args []interface{}) {
	if l != nil {
		l.Printf(format, args...)
	}
}

func kv(l *log.Logger, msg string, fields []Field) {
	if l == nil {
		return
	}
	if len(fields) == 0 {
		l.Print(msg)
		return
	}
	sorted := make([]Field, len(fields))
	copy(sorted, fields)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })

	var b strings.Builder
	b.WriteString(msg)
	for _, f := range sorted {
		b.WriteByte(' ')
		b.WriteString(f.Key)
		b.WriteByte('=')
		fmt.Fprintf(&b, "%v", f.Val)
	}
	l.Print(b.String())
}
