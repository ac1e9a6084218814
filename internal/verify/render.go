package verify

import (
	"fmt"
	"strings"

	"caldera/internal/heap"
)

// Renderer turns heap addresses into report text. It never assumes the
// object being described is well-formed: every dereference step is
// gated by the SafetyLevel the caller established.
type Renderer struct {
	h Heap
}

// NewRenderer returns a renderer over h.
func NewRenderer(h Heap) Renderer {
	return Renderer{h: h}
}

// flag renders the three-column "not" prefix used throughout reports.
func flag(v bool) string {
	if v {
		return ""
	}
	return "not"
}

// Object renders full object detail when level permits reading the
// header, and falls back to the safe rendering otherwise.
func (r Renderer) Object(b *strings.Builder, level SafetyLevel, a heap.Addr) {
	if level < SafetyObject {
		r.ObjectSafe(b, a)
		return
	}
	t := r.h.TypeOf(a)
	fmt.Fprintf(b, "  %s - type %#x %s\n", a, t.ID, t.Name)
	fmt.Fprintf(b, "    %3s allocated after complete mark start\n", flag(r.h.AllocatedAfterCompleteMarkStart(a)))
	fmt.Fprintf(b, "    %3s allocated after next mark start\n", flag(r.h.AllocatedAfterNextMarkStart(a)))
	fmt.Fprintf(b, "    %3s marked complete\n", flag(r.h.MarkedComplete(a)))
	fmt.Fprintf(b, "    %3s marked next\n", flag(r.h.MarkedNext(a)))
	fmt.Fprintf(b, "    %3s in collection set\n", flag(r.h.InCollectionSet(a)))
	fmt.Fprintf(b, "  region: %s\n", r.h.RegionFor(a).Summary())
}

// ObjectSafe is the minimal-risk rendering: the address, plus the
// region summary when the address resolves. Object fields are never
// touched; this is the path taken when the object's own integrity is in
// question.
func (r Renderer) ObjectSafe(b *strings.Builder, a heap.Addr) {
	fmt.Fprintf(b, "  %s - safe print, no details\n", a)
	if r.h.Contains(a) {
		if reg := r.h.RegionFor(a); reg != nil {
			fmt.Fprintf(b, "  region: %s\n", reg.Summary())
		}
	}
}

// Location renders a raw, non-validated memory slot.
func (r Renderer) Location(b *strings.Builder, a heap.Addr) {
	if r.h.Contains(a) {
		b.WriteString("  inside heap\n")
		fmt.Fprintf(b, "    %3s in collection set\n", flag(r.h.InCollectionSet(a)))
		fmt.Fprintf(b, "  region: %s\n", r.h.RegionFor(a).Summary())
	} else {
		b.WriteString("  outside of heap\n")
		fmt.Fprintf(b, "  %s - no region mapping (stack, code, or unmapped)\n", a)
	}
}
