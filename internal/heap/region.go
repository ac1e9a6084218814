package heap

import "fmt"

// RegionState describes what a region currently holds.
type RegionState uint8

const (
	// RegionEmpty is a region with no allocations.
	RegionEmpty RegionState = iota
	// RegionActive is a regular region with live allocations.
	RegionActive
	// RegionHumongousStart is the first region of a humongous run.
	RegionHumongousStart
	// RegionHumongousCont is a continuation region of a humongous run.
	RegionHumongousCont
	// RegionTrash is a region reclaimed after evacuation, awaiting recycle.
	RegionTrash
)

func (s RegionState) String() string {
	switch s {
	case RegionEmpty:
		return "empty"
	case RegionActive:
		return "active"
	case RegionHumongousStart:
		return "humongous-start"
	case RegionHumongousCont:
		return "humongous-cont"
	case RegionTrash:
		return "trash"
	}
	return "unknown"
}

// Region is one fixed-size partition of the heap address space.
// The watermark fields record the region top at the instant the
// corresponding mark cycle started; addresses at or above a watermark
// were allocated after that cycle began.
type Region struct {
	Index      int
	Start      Addr
	End        Addr // exclusive
	State      RegionState
	Used       uint64 // allocated words, including per-object forwarding words
	WMComplete Addr
	WMNext     Addr
}

// IsActive reports whether the region holds accessible allocations.
func (r *Region) IsActive() bool {
	switch r.State {
	case RegionActive, RegionHumongousStart, RegionHumongousCont:
		return true
	default:
		return false
	}
}

// IsHumongousStart reports whether the region begins a humongous run.
func (r *Region) IsHumongousStart() bool {
	return r.State == RegionHumongousStart
}

// IsHumongousContinuation reports whether the region continues a
// humongous run started in a lower-indexed region.
func (r *Region) IsHumongousContinuation() bool {
	return r.State == RegionHumongousCont
}

// Summary returns a one-line human-readable description of the region,
// safe to produce regardless of the region contents.
func (r *Region) Summary() string {
	if r == nil {
		return "<no region>"
	}
	return fmt.Sprintf("region %d [%s:%s) %s used=%d wm=%s/%s",
		r.Index, r.Start, r.End, r.State, r.Used, r.WMComplete, r.WMNext)
}
