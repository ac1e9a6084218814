package heap

import (
	"fmt"
)

// TypeInfo is the type metadata recorded in an object header.
type TypeInfo struct {
	ID   uint32
	Name string
}

type object struct {
	size uint64 // payload words, excluding the forwarding word
	typ  uint32
	fwd  Addr
}

// Model is the reference in-memory heap the verifier runs against: a
// region table, an object table with one forwarding word per object,
// two mark bitmaps, a collection set, and an optional connection
// matrix. A production collector supplies its own implementation of the
// verifier's query interface; Model backs the tests and the offline
// snapshot tooling.
//
// Model is not safe for concurrent mutation. The verifier only reads.
type Model struct {
	geom     Geometry
	regions  []Region
	objects  map[Addr]*object
	byRegion [][]Addr
	types    map[uint32]string

	markComplete *Bitmap
	markNext     *Bitmap
	cset         []bool
	fullMove     bool
	matrix       *Matrix

	registered       Oracle
	isAlive          Oracle
	forwardedIsAlive Oracle
}

// NewModel returns an empty heap with the given geometry. Connection
// matrix tracking starts enabled.
func NewModel(g Geometry) *Model {
	m := &Model{
		geom:         g,
		regions:      make([]Region, g.RegionCount),
		objects:      make(map[Addr]*object, 64),
		byRegion:     make([][]Addr, g.RegionCount),
		types:        make(map[uint32]string, 8),
		markComplete: NewBitmap(g.Base, g.TotalWords()),
		markNext:     NewBitmap(g.Base, g.TotalWords()),
		cset:         make([]bool, g.RegionCount),
		matrix:       NewMatrix(g.RegionCount),
	}
	for i := range m.regions {
		start := g.RegionStart(i)
		m.regions[i] = Region{
			Index:      i,
			Start:      start,
			End:        start + Addr(g.RegionWords),
			State:      RegionEmpty,
			WMComplete: start,
			WMNext:     start,
		}
	}
	m.isAlive = &markOracle{m}
	m.forwardedIsAlive = &forwardedMarkOracle{m}
	return m
}

// Geometry returns the heap layout.
func (m *Model) Geometry() Geometry { return m.geom }

// Contains reports whether a lies inside the heap range.
func (m *Model) Contains(a Addr) bool { return m.geom.Contains(a) }

// RegionIndex returns the region index holding a, or -1 outside the heap.
func (m *Model) RegionIndex(a Addr) int { return m.geom.RegionIndex(a) }

// RegionFor returns the region holding a, or nil outside the heap.
func (m *Model) RegionFor(a Addr) *Region {
	idx := m.geom.RegionIndex(a)
	if idx < 0 {
		return nil
	}
	return &m.regions[idx]
}

// Region returns region idx. The pointer aliases the region table;
// tests use it to stage region states directly.
func (m *Model) Region(idx int) *Region { return &m.regions[idx] }

// RegionCount returns the number of regions.
func (m *Model) RegionCount() int { return m.geom.RegionCount }

// DefineType records type metadata under the given ID.
func (m *Model) DefineType(id uint32, name string) {
	m.types[id] = name
}

// TypeOf returns the type metadata of the object at a, or a zero
// TypeInfo when a carries no object header.
func (m *Model) TypeOf(a Addr) TypeInfo {
	obj, ok := m.objects[a]
	if !ok {
		return TypeInfo{}
	}
	name, ok := m.types[obj.typ]
	if !ok {
		name = "?"
	}
	return TypeInfo{ID: obj.typ, Name: name}
}

// SizeWords returns the payload word size of the object at a, or 0 when
// a carries no object header.
func (m *Model) SizeWords(a Addr) uint64 {
	if obj, ok := m.objects[a]; ok {
		return obj.size
	}
	return 0
}

// Forwardee performs the raw, unchecked forwarding lookup. Addresses
// without an object header read back as self-forwarded, matching a
// forwarding word that was never installed.
func (m *Model) Forwardee(a Addr) Addr {
	if obj, ok := m.objects[a]; ok {
		return obj.fwd
	}
	return a
}

// HasObject reports whether an object header lives at a.
func (m *Model) HasObject(a Addr) bool {
	_, ok := m.objects[a]
	return ok
}

// ObjectsIn returns the object addresses allocated in region idx, in
// allocation order.
func (m *Model) ObjectsIn(idx int) []Addr {
	if idx < 0 || idx >= len(m.byRegion) {
		return nil
	}
	return m.byRegion[idx]
}

// Alloc places an object of sizeWords payload words in region idx and
// returns its address. One extra word is reserved for the forwarding
// slot ahead of the object.
func (m *Model) Alloc(idx int, sizeWords uint64, typeID uint32) (Addr, error) {
	if idx < 0 || idx >= len(m.regions) {
		return NilAddr, fmt.Errorf("alloc: no region %d", idx)
	}
	r := &m.regions[idx]
	switch r.State {
	case RegionEmpty, RegionActive:
	default:
		return NilAddr, fmt.Errorf("alloc: region %d is %s", idx, r.State)
	}
	need := sizeWords + 1
	if need > m.geom.HumongousThreshold() {
		return NilAddr, fmt.Errorf("alloc: %d words exceeds humongous threshold, use AllocHumongous", need)
	}
	if r.Used+need > m.geom.RegionWords {
		return NilAddr, fmt.Errorf("alloc: region %d full (%d used, %d needed)", idx, r.Used, need)
	}
	addr := r.Start + Addr(r.Used) + 1 // skip the forwarding word
	r.Used += need
	r.State = RegionActive
	m.install(addr, sizeWords, typeID)
	return addr, nil
}

// AllocHumongous places an oversized object starting at region idx,
// claiming as many contiguous empty regions as the size requires.
func (m *Model) AllocHumongous(idx int, sizeWords uint64, typeID uint32) (Addr, error) {
	need := sizeWords + 1
	n := m.geom.RequiredRegions(need)
	if idx < 0 || idx+n > len(m.regions) {
		return NilAddr, fmt.Errorf("alloc humongous: %d regions from %d do not fit the heap", n, idx)
	}
	for i := idx; i < idx+n; i++ {
		if m.regions[i].State != RegionEmpty {
			return NilAddr, fmt.Errorf("alloc humongous: region %d is %s", i, m.regions[i].State)
		}
	}
	remaining := need
	for i := idx; i < idx+n; i++ {
		r := &m.regions[i]
		if i == idx {
			r.State = RegionHumongousStart
		} else {
			r.State = RegionHumongousCont
		}
		if remaining > m.geom.RegionWords {
			r.Used = m.geom.RegionWords
			remaining -= m.geom.RegionWords
		} else {
			r.Used = remaining
			remaining = 0
		}
	}
	addr := m.regions[idx].Start + 1
	m.install(addr, sizeWords, typeID)
	return addr, nil
}

// install records an object header without touching region accounting.
func (m *Model) install(a Addr, sizeWords uint64, typeID uint32) {
	m.objects[a] = &object{size: sizeWords, typ: typeID, fwd: a}
	if idx := m.geom.RegionIndex(a); idx >= 0 {
		m.byRegion[idx] = append(m.byRegion[idx], a)
	}
}

// InstallObject places an object header at an arbitrary address, with
// no region accounting. Snapshot restore and corruption fixtures use
// it; regular allocation goes through Alloc.
func (m *Model) InstallObject(a Addr, sizeWords uint64, typeID uint32) error {
	if !m.geom.Contains(a) {
		return fmt.Errorf("install object: %s outside the heap", a)
	}
	if _, ok := m.objects[a]; ok {
		return fmt.Errorf("install object: %s already holds an object", a)
	}
	m.install(a, sizeWords, typeID)
	return nil
}

// SetForwardee writes the forwarding word of the object at a. The value
// is stored as given; corrupt values are exactly what the verifier
// exists to catch.
func (m *Model) SetForwardee(a, to Addr) error {
	obj, ok := m.objects[a]
	if !ok {
		return fmt.Errorf("set forwardee: no object at %s", a)
	}
	obj.fwd = to
	return nil
}

// MarkComplete sets the complete-bitmap bit for a.
func (m *Model) MarkComplete(a Addr) { m.markComplete.Set(a) }

// MarkNext sets the next-bitmap bit for a.
func (m *Model) MarkNext(a Addr) { m.markNext.Set(a) }

// MarkedComplete reports the complete-bitmap bit for a.
func (m *Model) MarkedComplete(a Addr) bool { return m.markComplete.Get(a) }

// MarkedNext reports the next-bitmap bit for a.
func (m *Model) MarkedNext(a Addr) bool { return m.markNext.Get(a) }

// AllocatedAfterCompleteMarkStart reports whether a sits above its
// region's complete-mark watermark.
func (m *Model) AllocatedAfterCompleteMarkStart(a Addr) bool {
	r := m.RegionFor(a)
	return r != nil && a >= r.WMComplete
}

// AllocatedAfterNextMarkStart reports whether a sits above its region's
// next-mark watermark.
func (m *Model) AllocatedAfterNextMarkStart(a Addr) bool {
	r := m.RegionFor(a)
	return r != nil && a >= r.WMNext
}

// AddToCollectionSet puts region idx into the collection set.
func (m *Model) AddToCollectionSet(idx int) {
	if idx >= 0 && idx < len(m.cset) {
		m.cset[idx] = true
	}
}

// InCollectionSet reports whether a lies in a collection-set region.
// Addresses outside the heap are never in the collection set.
func (m *Model) InCollectionSet(a Addr) bool {
	idx := m.geom.RegionIndex(a)
	return idx >= 0 && m.cset[idx]
}

// CollectionSet returns the indices of collection-set regions.
func (m *Model) CollectionSet() []int {
	var out []int
	for i, in := range m.cset {
		if in {
			out = append(out, i)
		}
	}
	return out
}

// SetFullMoveInProgress flags the full-compaction move window.
func (m *Model) SetFullMoveInProgress(v bool) { m.fullMove = v }

// FullMoveInProgress reports the full-compaction move window flag.
func (m *Model) FullMoveInProgress() bool { return m.fullMove }

// Matrix returns the connection matrix, or nil when tracking is
// disabled.
func (m *Model) Matrix() *Matrix { return m.matrix }

// DisableMatrixTracking turns off connection tracking.
func (m *Model) DisableMatrixTracking() { m.matrix = nil }

// Connect records an observed cross-region reference from region
// "from" into region "to".
func (m *Model) Connect(from, to int) {
	if m.matrix != nil {
		m.matrix.SetConnected(from, to)
	}
}

// RegisterOracle installs o as the reference-processing liveness
// oracle. Passing nil removes the installed oracle.
func (m *Model) RegisterOracle(o Oracle) { m.registered = o }

// RegisteredOracle returns the currently installed liveness oracle, or
// nil when none is installed.
func (m *Model) RegisteredOracle() Oracle { return m.registered }

// IsAliveOracle returns the heap's designated is-alive oracle.
func (m *Model) IsAliveOracle() Oracle { return m.isAlive }

// ForwardedIsAliveOracle returns the heap's forwarding-aware liveness
// oracle.
func (m *Model) ForwardedIsAliveOracle() Oracle { return m.forwardedIsAlive }

// Types returns the defined type table.
func (m *Model) Types() map[uint32]string {
	out := make(map[uint32]string, len(m.types))
	for id, name := range m.types {
		out[id] = name
	}
	return out
}
