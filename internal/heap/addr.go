package heap

import "fmt"

// Addr is a word-granular address into the managed heap address space.
// Address 0 is never a valid heap address.
type Addr uint64

// NilAddr is the zero address, outside any region.
const NilAddr Addr = 0

func (a Addr) String() string {
	return fmt.Sprintf("%#012x", uint64(a))
}

// Geometry fixes the region layout of a heap: a contiguous run of
// RegionCount regions of RegionWords words each, starting at Base.
type Geometry struct {
	Base        Addr
	RegionWords uint64
	RegionCount int
}

// Contains reports whether a falls inside the heap address range.
func (g Geometry) Contains(a Addr) bool {
	if a < g.Base {
		return false
	}
	return uint64(a-g.Base) < g.RegionWords*uint64(g.RegionCount)
}

// RegionIndex returns the index of the region holding a, or -1 when a
// is outside the heap.
func (g Geometry) RegionIndex(a Addr) int {
	if !g.Contains(a) {
		return -1
	}
	return int(uint64(a-g.Base) / g.RegionWords)
}

// RegionStart returns the first word of region idx.
func (g Geometry) RegionStart(idx int) Addr {
	return g.Base + Addr(uint64(idx)*g.RegionWords)
}

// HumongousThreshold returns the allocation size in words above which an
// object no longer fits a regular region and must take a humongous run.
func (g Geometry) HumongousThreshold() uint64 {
	return g.RegionWords
}

// RequiredRegions returns how many contiguous regions an allocation of
// the given word size occupies.
func (g Geometry) RequiredRegions(words uint64) int {
	if words == 0 {
		return 1
	}
	return int((words + g.RegionWords - 1) / g.RegionWords)
}

// TotalWords returns the word size of the whole heap range.
func (g Geometry) TotalWords() uint64 {
	return g.RegionWords * uint64(g.RegionCount)
}
