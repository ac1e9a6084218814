package verify

import (
	"fmt"
	"strings"

	"caldera/internal/heap"
)

// Reporter assembles the failure report for a tripped predicate and
// hands it to the sink. The report buffer is local to the call; nothing
// is shared across threads.
type Reporter struct {
	h    Heap
	r    Renderer
	sink Sink
}

// NewReporter returns a reporter over h delivering to sink.
func NewReporter(h Heap, sink Sink) *Reporter {
	return &Reporter{h: h, r: NewRenderer(h), sink: sink}
}

// Fail renders the full diagnostic for a violated invariant and hands
// it to the sink. level is the highest safety the failed check could
// establish; every dereference below is bounded by it. interior is the
// slot holding the reference (NilAddr when the reference came from a
// plain heap scan), refSite the object that owns that slot, when known.
// Fail does not return when the sink honors its contract.
func (rep *Reporter) Fail(level SafetyLevel, obj, interior, refSite heap.Addr, phase, label, file string, line int) {
	refSiteInHeap := refSite != heap.NilAddr && rep.h.Contains(refSite)
	interiorInHeap := interior != heap.NilAddr && rep.h.Contains(interior)

	var b strings.Builder
	fmt.Fprintf(&b, "%s; %s\n\n", phase, label)

	b.WriteString("Referenced from:\n")
	if interior != heap.NilAddr {
		fmt.Fprintf(&b, "  interior location: %s\n", interior)
		if refSiteInHeap {
			rep.r.Object(&b, SafetyObject, refSite)
		} else {
			rep.r.Location(&b, interior)
		}
	} else {
		b.WriteString("  no interior location recorded (probably a plain heap scan, or detached ref)\n")
	}
	b.WriteString("\n")

	b.WriteString("Object:\n")
	rep.r.Object(&b, level, obj)
	b.WriteString("\n")

	if level >= SafetyObject {
		fwd := rep.h.Forwardee(obj)
		b.WriteString("Forwardee:\n")
		if fwd != obj {
			if level >= SafetyObjectFwd {
				rep.r.Object(&b, level, fwd)
			} else {
				rep.r.ObjectSafe(&b, fwd)
			}
		} else {
			b.WriteString("  (the object itself)\n")
		}
		b.WriteString("\n")
	}

	if level >= SafetyObjectFwd {
		fwd := rep.h.Forwardee(obj)
		fwd2 := rep.h.Forwardee(fwd)
		if fwd2 != fwd {
			// A chain this long is itself a violation; never trust it
			// beyond the safe rendering.
			b.WriteString("Second forwardee:\n")
			rep.r.ObjectSafe(&b, fwd2)
			b.WriteString("\n")
		}
	}

	if refSiteInHeap && rep.h.Matrix() != nil && level == SafetyAll {
		rep.matrixConnections(&b, obj, interior, refSite, interiorInHeap)
	}

	rep.sink.Fatal(file, line, b.String())
}

func (rep *Reporter) matrixConnections(b *strings.Builder, obj, interior, refSite heap.Addr, interiorInHeap bool) {
	b.WriteString("Matrix connections:\n")

	fwdTo := rep.h.Forwardee(obj)
	fwdFrom := rep.h.Forwardee(refSite)

	fromIdx := rep.h.RegionIndex(refSite)
	toIdx := rep.h.RegionIndex(obj)
	fwdFromIdx := rep.h.RegionIndex(fwdFrom)
	fwdToIdx := rep.h.RegionIndex(fwdTo)

	matrix := rep.h.Matrix()
	row := func(name string, from, to int) {
		fmt.Fprintf(b, "  %35s %3s connected\n", name, flag(matrix.IsConnected(from, to)))
	}
	row("reference and object", fromIdx, toIdx)
	row("fwd(reference) and object", fwdFromIdx, toIdx)
	row("reference and fwd(object)", fromIdx, fwdToIdx)
	row("fwd(reference) and fwd(object)", fwdFromIdx, fwdToIdx)

	if interiorInHeap {
		interiorIdx := rep.h.RegionIndex(interior)
		row("interior-reference and object", interiorIdx, toIdx)
		row("interior-reference and fwd(object)", interiorIdx, fwdToIdx)
	}
}

func oracleID(o heap.Oracle) string {
	if o == nil {
		return "0x0"
	}
	return fmt.Sprintf("%p", o)
}

// FailOracle reports a liveness-oracle registration that does not match
// the expected phase configuration, then hands off to the sink the same
// way Fail does.
func (rep *Reporter) FailOracle(label string, actual, expected heap.Oracle, file string, line int) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", label)
	fmt.Fprintf(&b, " Actual:                  %s\n", oracleID(actual))
	fmt.Fprintf(&b, " Expected:                %s\n", oracleID(expected))
	fmt.Fprintf(&b, " heap is-alive:           %s\n", oracleID(rep.h.IsAliveOracle()))
	fmt.Fprintf(&b, " heap forwarded-is-alive: %s\n", oracleID(rep.h.ForwardedIsAliveOracle()))
	rep.sink.Fatal(file, line, b.String())
}
