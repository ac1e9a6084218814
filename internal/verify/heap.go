// Package verify checks heap-consistency invariants of a region-based
// relocating collector at the instant they are violated, and renders a
// structured diagnostic before the process goes down. Every predicate
// is fail-fast: it returns silently if and only if the invariant holds.
//
// The package performs read-only queries against the heap it is handed;
// it never takes locks and never mutates collector state. Concurrent
// invocations from different threads are independent.
package verify

import (
	"fmt"
	"io"
	"os"

	"caldera/internal/heap"
)

// Heap is the read-only query surface the verifier needs from the
// collector. All methods must be safe to call with arbitrary, possibly
// garbage addresses; Forwardee in particular is a raw unchecked lookup
// whose result is only trusted as far as the prevailing SafetyLevel
// allows.
type Heap interface {
	Geometry() heap.Geometry
	Contains(a heap.Addr) bool
	RegionFor(a heap.Addr) *heap.Region
	RegionIndex(a heap.Addr) int
	Region(idx int) *heap.Region
	RegionCount() int

	Forwardee(a heap.Addr) heap.Addr
	SizeWords(a heap.Addr) uint64
	TypeOf(a heap.Addr) heap.TypeInfo

	MarkedComplete(a heap.Addr) bool
	MarkedNext(a heap.Addr) bool
	AllocatedAfterCompleteMarkStart(a heap.Addr) bool
	AllocatedAfterNextMarkStart(a heap.Addr) bool

	InCollectionSet(a heap.Addr) bool
	FullMoveInProgress() bool

	// Matrix returns nil when cross-region connection tracking is
	// disabled.
	Matrix() *heap.Matrix

	RegisteredOracle() heap.Oracle
	IsAliveOracle() heap.Oracle
	ForwardedIsAliveOracle() heap.Oracle
}

// Sink receives the assembled failure report. Fatal must not return
// normally: once an invariant is violated, collector state is already
// inconsistent and further execution is unsound.
type Sink interface {
	Fatal(file string, line int, msg string)
}

// Violation is the failure payload carried by PanicSink. It records the
// caller site of the predicate that tripped, plus the full rendered
// report.
type Violation struct {
	File    string
	Line    int
	Message string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("heap invariant violated at %s:%d", v.File, v.Line)
}

// CrashSink writes the report to W (stderr when nil) and terminates the
// process. This is the sink a live collector wires in.
type CrashSink struct {
	W io.Writer
}

func (s CrashSink) Fatal(file string, line int, msg string) {
	w := s.W
	if w == nil {
		w = os.Stderr
	}
	fmt.Fprintf(w, "# heap invariant violated\n# at %s:%d\n\n%s\n", file, line, msg)
	os.Exit(2)
}

// PanicSink panics with a *Violation instead of terminating, so that a
// controlling frame (the offline sweeper, or a test) can recover it.
type PanicSink struct{}

func (PanicSink) Fatal(file string, line int, msg string) {
	panic(&Violation{File: file, Line: line, Message: msg})
}
