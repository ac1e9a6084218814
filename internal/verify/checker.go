package verify

import (
	"runtime"

	"caldera/internal/heap"
)

// Checker is the predicate surface collector code calls inline at risk
// points: barrier paths, root scanning, relocation. Each predicate
// returns silently if and only if its invariant holds; on violation it
// reports through the sink and does not return.
//
// Predicates capture the caller's file:line themselves, so the report
// carries the provenance of the risk point, not of this package.
type Checker struct {
	h   Heap
	rep *Reporter
}

// New returns a checker over h delivering violations to sink.
func New(h Heap, sink Sink) *Checker {
	return &Checker{h: h, rep: NewReporter(h, sink)}
}

// caller returns the file:line of the predicate's call site.
func caller() (string, int) {
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		return "?", 0
	}
	return file, line
}

// InHeap checks that obj resolves into the heap address range.
func (c *Checker) InHeap(interior, obj heap.Addr) {
	file, line := caller()
	c.inHeap(interior, obj, "verify InHeap failed", file, line)
}

func (c *Checker) inHeap(interior, obj heap.Addr, phase, file string, line int) {
	if !c.h.Contains(obj) {
		c.rep.Fail(SafetyUnknown, obj, interior, heap.NilAddr, phase,
			"Reference must point into the heap", file, line)
	}
}

// Correct checks the foundational object invariants, in dependency
// order: address in heap, forwardee in heap, no forwarding during a
// full-compaction move, forwardee in another region, no multi-hop
// forwarding. Every other object predicate composes this first, so
// later checks never dereference a forwardee, bitmap, or region before
// basic address validity is established.
func (c *Checker) Correct(interior, obj heap.Addr) {
	file, line := caller()
	c.correct(interior, obj, "verify Correct failed", file, line)
}

func (c *Checker) correct(interior, obj heap.Addr, phase, file string, line int) {
	// Step 1: both the object and its forwarding word must resolve into
	// the heap. Only after this is it safe to ask for regions.
	if !c.h.Contains(obj) {
		c.rep.Fail(SafetyUnknown, obj, interior, heap.NilAddr, phase,
			"Reference must point into the heap", file, line)
	}

	fwd := c.h.Forwardee(obj)
	if !c.h.Contains(fwd) {
		c.rep.Fail(SafetyObject, obj, interior, heap.NilAddr, phase,
			"Forwardee must point into the heap", file, line)
	}

	forwarded := fwd != obj

	// While a full-compaction move is running, forwarding words are not
	// to be trusted at all. Seeing a non-self value here means someone
	// manipulated a forwarding word inside the move window.
	if forwarded && c.h.FullMoveInProgress() {
		c.rep.Fail(SafetyAll, obj, interior, heap.NilAddr, phase,
			"Non-trivial forwarding pointer during Full GC moves, probable bug.", file, line)
	}

	// Step 2: a region-based mover never relocates within one region.
	if forwarded && c.h.RegionIndex(fwd) == c.h.RegionIndex(obj) {
		c.rep.Fail(SafetyAll, obj, interior, heap.NilAddr, phase,
			"Forwardee should be self, or another region", file, line)
	}

	// Step 3: forwarding chains have length at most one.
	if forwarded {
		fwd2 := c.h.Forwardee(fwd)
		if fwd2 != fwd {
			c.rep.Fail(SafetyAll, obj, interior, heap.NilAddr, phase,
				"Multiple forwardings", file, line)
		}
	}
}

// InCorrectRegion checks that obj sits in an active region and, for
// humongous objects, that the region run matches the object size.
func (c *Checker) InCorrectRegion(interior, obj heap.Addr) {
	file, line := caller()
	phase := "verify InCorrectRegion failed"
	c.correct(interior, obj, phase, file, line)

	r := c.h.RegionFor(obj)
	if !r.IsActive() {
		c.rep.Fail(SafetyUnknown, obj, interior, heap.NilAddr, phase,
			"Object must reside in active region", file, line)
	}

	g := c.h.Geometry()
	allocWords := c.h.SizeWords(obj) + 1 // payload plus the forwarding word
	if allocWords > g.HumongousThreshold() {
		idx := r.Index
		num := g.RequiredRegions(allocWords)
		// The size word may itself be corrupt; a run reaching past the
		// region table is a shape violation, not a reason to fault while
		// diagnosing.
		if idx+num > c.h.RegionCount() {
			c.rep.Fail(SafetyObject, obj, interior, heap.NilAddr, phase,
				"Humongous continuation should be of proper size", file, line)
		}
		for i := idx; i < idx+num; i++ {
			chain := c.h.Region(i)
			if i == idx && !chain.IsHumongousStart() {
				c.rep.Fail(SafetyUnknown, obj, interior, heap.NilAddr, phase,
					"Object must reside in humongous start", file, line)
			}
			if i != idx && !chain.IsHumongousContinuation() {
				c.rep.Fail(SafetyObject, obj, interior, heap.NilAddr, phase,
					"Humongous continuation should be of proper size", file, line)
			}
		}
	}
}

// Forwarded checks that obj carries a non-self forwarding word.
func (c *Checker) Forwarded(interior, obj heap.Addr) {
	file, line := caller()
	phase := "verify Forwarded failed"
	c.correct(interior, obj, phase, file, line)

	if c.h.Forwardee(obj) == obj {
		c.rep.Fail(SafetyAll, obj, interior, heap.NilAddr, phase,
			"Object should be forwarded", file, line)
	}
}

// NotForwarded checks that obj's forwarding word is self.
func (c *Checker) NotForwarded(interior, obj heap.Addr) {
	file, line := caller()
	phase := "verify NotForwarded failed"
	c.correct(interior, obj, phase, file, line)

	if c.h.Forwardee(obj) != obj {
		c.rep.Fail(SafetyAll, obj, interior, heap.NilAddr, phase,
			"Object should not be forwarded", file, line)
	}
}

// MarkedComplete checks obj's bit in the completed cycle's bitmap.
func (c *Checker) MarkedComplete(interior, obj heap.Addr) {
	file, line := caller()
	phase := "verify MarkedComplete failed"
	c.correct(interior, obj, phase, file, line)

	if !c.h.MarkedComplete(obj) {
		c.rep.Fail(SafetyAll, obj, interior, heap.NilAddr, phase,
			"Object should be marked (complete)", file, line)
	}
}

// MarkedNext checks obj's bit in the in-progress cycle's bitmap.
func (c *Checker) MarkedNext(interior, obj heap.Addr) {
	file, line := caller()
	phase := "verify MarkedNext failed"
	c.correct(interior, obj, phase, file, line)

	if !c.h.MarkedNext(obj) {
		c.rep.Fail(SafetyAll, obj, interior, heap.NilAddr, phase,
			"Object should be marked (next)", file, line)
	}
}

// NotInCSet checks that obj does not sit in a collection-set region.
func (c *Checker) NotInCSet(interior, obj heap.Addr) {
	file, line := caller()
	phase := "verify NotInCSet failed"
	c.correct(interior, obj, phase, file, line)

	if c.h.InCollectionSet(obj) {
		c.rep.Fail(SafetyAll, obj, interior, heap.NilAddr, phase,
			"Object should not be in collection set", file, line)
	}
}

// NotInCSetLoc checks a raw slot address against the collection set,
// with no object dereference at all.
func (c *Checker) NotInCSetLoc(interior heap.Addr) {
	file, line := caller()
	if c.h.InCollectionSet(interior) {
		c.rep.Fail(SafetyUnknown, heap.NilAddr, interior, heap.NilAddr,
			"verify NotInCSetLoc failed",
			"Interior location should not be in collection set", file, line)
	}
}
