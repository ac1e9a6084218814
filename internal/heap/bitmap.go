package heap

// Bitmap is a liveness bitmap with one bit per heap word.
type Bitmap struct {
	base Addr
	bits []uint64
}

// NewBitmap returns a cleared bitmap covering words addresses from base.
func NewBitmap(base Addr, words uint64) *Bitmap {
	return &Bitmap{
		base: base,
		bits: make([]uint64, (words+63)/64),
	}
}

func (b *Bitmap) slot(a Addr) (int, uint64, bool) {
	if a < b.base {
		return 0, 0, false
	}
	off := uint64(a - b.base)
	idx := int(off / 64)
	if idx >= len(b.bits) {
		return 0, 0, false
	}
	return idx, 1 << (off % 64), true
}

// Set marks the word at a. Out-of-range addresses are ignored.
func (b *Bitmap) Set(a Addr) {
	if idx, mask, ok := b.slot(a); ok {
		b.bits[idx] |= mask
	}
}

// Clear unmarks the word at a.
func (b *Bitmap) Clear(a Addr) {
	if idx, mask, ok := b.slot(a); ok {
		b.bits[idx] &^= mask
	}
}

// Get reports whether the word at a is marked.
func (b *Bitmap) Get(a Addr) bool {
	idx, mask, ok := b.slot(a)
	return ok && b.bits[idx]&mask != 0
}

// Reset clears every bit.
func (b *Bitmap) Reset() {
	for i := range b.bits {
		b.bits[i] = 0
	}
}
