package heap

// Matrix records observed cross-region references as a region-by-region
// boolean adjacency structure. It is append-only within a cycle; the
// cycle boundary resets it wholesale.
type Matrix struct {
	count int
	bits  []uint64
}

// NewMatrix returns an empty connection matrix for count regions.
func NewMatrix(count int) *Matrix {
	cells := uint64(count) * uint64(count)
	return &Matrix{
		count: count,
		bits:  make([]uint64, (cells+63)/64),
	}
}

// RegionCount returns the dimension of the matrix.
func (m *Matrix) RegionCount() int {
	return m.count
}

func (m *Matrix) cell(from, to int) (int, uint64, bool) {
	if from < 0 || from >= m.count || to < 0 || to >= m.count {
		return 0, 0, false
	}
	off := uint64(from)*uint64(m.count) + uint64(to)
	return int(off / 64), 1 << (off % 64), true
}

// SetConnected records that a reference from region "from" into region
// "to" has been observed this cycle.
func (m *Matrix) SetConnected(from, to int) {
	if idx, mask, ok := m.cell(from, to); ok {
		m.bits[idx] |= mask
	}
}

// IsConnected reports whether a reference from region "from" into
// region "to" has been observed. Out-of-range indices read as not
// connected.
func (m *Matrix) IsConnected(from, to int) bool {
	idx, mask, ok := m.cell(from, to)
	return ok && m.bits[idx]&mask != 0
}

// Reset clears all recorded connections.
func (m *Matrix) Reset() {
	for i := range m.bits {
		m.bits[i] = 0
	}
}
