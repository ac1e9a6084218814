package heap_test

import (
	"testing"

	"caldera/internal/heap"
)

func testGeometry() heap.Geometry {
	return heap.Geometry{Base: 0x1000, RegionWords: 256, RegionCount: 8}
}

func TestGeometryContains(t *testing.T) {
	g := testGeometry()
	cases := []struct {
		addr heap.Addr
		want bool
	}{
		{0, false},
		{0xfff, false},
		{0x1000, true},
		{0x1000 + 8*256 - 1, true},
		{0x1000 + 8*256, false},
	}
	for _, tc := range cases {
		if got := g.Contains(tc.addr); got != tc.want {
			t.Errorf("Contains(%s) = %v, want %v", tc.addr, got, tc.want)
		}
	}
}

func TestGeometryRegionIndex(t *testing.T) {
	g := testGeometry()
	if got := g.RegionIndex(0x1000); got != 0 {
		t.Errorf("RegionIndex(base) = %d, want 0", got)
	}
	if got := g.RegionIndex(0x1000 + 256); got != 1 {
		t.Errorf("RegionIndex(base+256) = %d, want 1", got)
	}
	if got := g.RegionIndex(0x10); got != -1 {
		t.Errorf("RegionIndex(outside) = %d, want -1", got)
	}
}

func TestGeometryRequiredRegions(t *testing.T) {
	g := testGeometry()
	cases := []struct {
		words uint64
		want  int
	}{
		{0, 1},
		{1, 1},
		{256, 1},
		{257, 2},
		{641, 3},
	}
	for _, tc := range cases {
		if got := g.RequiredRegions(tc.words); got != tc.want {
			t.Errorf("RequiredRegions(%d) = %d, want %d", tc.words, got, tc.want)
		}
	}
}

func TestAllocPlacesObjectInRegion(t *testing.T) {
	m := heap.NewModel(testGeometry())
	addr, err := m.Alloc(2, 16, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx := m.RegionIndex(addr); idx != 2 {
		t.Errorf("object landed in region %d, want 2", idx)
	}
	if !m.HasObject(addr) {
		t.Error("no object header at the allocated address")
	}
	if got := m.SizeWords(addr); got != 16 {
		t.Errorf("SizeWords = %d, want 16", got)
	}
	if r := m.Region(2); r.State != heap.RegionActive {
		t.Errorf("region state = %s, want active", r.State)
	}
	// A fresh object is self-forwarded.
	if fwd := m.Forwardee(addr); fwd != addr {
		t.Errorf("Forwardee = %s, want self %s", fwd, addr)
	}
}

func TestAllocRejectsOversizedObject(t *testing.T) {
	m := heap.NewModel(testGeometry())
	if _, err := m.Alloc(0, 256, 1); err == nil {
		t.Error("expected error allocating past the humongous threshold")
	}
}

func TestAllocRegionFull(t *testing.T) {
	m := heap.NewModel(testGeometry())
	if _, err := m.Alloc(0, 200, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := m.Alloc(0, 200, 1); err == nil {
		t.Error("expected error when the region cannot fit the allocation")
	}
}

func TestAllocHumongousRegionRun(t *testing.T) {
	m := heap.NewModel(testGeometry())
	addr, err := m.AllocHumongous(1, 641, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx := m.RegionIndex(addr); idx != 1 {
		t.Errorf("humongous object starts in region %d, want 1", idx)
	}
	if !m.Region(1).IsHumongousStart() {
		t.Error("region 1 should be a humongous start")
	}
	for i := 2; i <= 3; i++ {
		if !m.Region(i).IsHumongousContinuation() {
			t.Errorf("region %d should be a humongous continuation", i)
		}
	}
	if m.Region(4).State != heap.RegionEmpty {
		t.Errorf("region 4 should stay empty, got %s", m.Region(4).State)
	}
}

func TestAllocHumongousNeedsEmptyRun(t *testing.T) {
	m := heap.NewModel(testGeometry())
	if _, err := m.Alloc(2, 8, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := m.AllocHumongous(1, 641, 7); err == nil {
		t.Error("expected error when the run crosses a non-empty region")
	}
}

func TestForwardeeUnknownAddressReadsSelf(t *testing.T) {
	m := heap.NewModel(testGeometry())
	a := heap.Addr(0x1042)
	if fwd := m.Forwardee(a); fwd != a {
		t.Errorf("Forwardee(%s) = %s, want self", a, fwd)
	}
}

func TestSetForwardee(t *testing.T) {
	m := heap.NewModel(testGeometry())
	a, _ := m.Alloc(0, 8, 1)
	b, _ := m.Alloc(1, 8, 1)
	if err := m.SetForwardee(a, b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fwd := m.Forwardee(a); fwd != b {
		t.Errorf("Forwardee = %s, want %s", fwd, b)
	}
	if err := m.SetForwardee(0x1999, a); err == nil {
		t.Error("expected error forwarding a non-object address")
	}
}

func TestMarkBitmaps(t *testing.T) {
	m := heap.NewModel(testGeometry())
	a, _ := m.Alloc(0, 8, 1)
	if m.MarkedComplete(a) || m.MarkedNext(a) {
		t.Fatal("fresh object should be unmarked in both bitmaps")
	}
	m.MarkComplete(a)
	if !m.MarkedComplete(a) {
		t.Error("complete bit not set")
	}
	if m.MarkedNext(a) {
		t.Error("next bit leaked from the complete bitmap")
	}
	m.MarkNext(a)
	if !m.MarkedNext(a) {
		t.Error("next bit not set")
	}
	// Bitmap queries outside the heap read as unmarked.
	if m.MarkedComplete(0x10) {
		t.Error("out-of-heap address reads as marked")
	}
}

func TestCollectionSet(t *testing.T) {
	m := heap.NewModel(testGeometry())
	a, _ := m.Alloc(3, 8, 1)
	if m.InCollectionSet(a) {
		t.Fatal("object in collection set before any region was added")
	}
	m.AddToCollectionSet(3)
	if !m.InCollectionSet(a) {
		t.Error("object should be in the collection set")
	}
	if m.InCollectionSet(0x10) {
		t.Error("out-of-heap address reads as in collection set")
	}
	if got := m.CollectionSet(); len(got) != 1 || got[0] != 3 {
		t.Errorf("CollectionSet = %v, want [3]", got)
	}
}

func TestAllocationWatermarks(t *testing.T) {
	m := heap.NewModel(testGeometry())
	a, _ := m.Alloc(0, 8, 1)
	if !m.AllocatedAfterCompleteMarkStart(a) {
		t.Error("watermark at region start should cover every allocation")
	}
	m.Region(0).WMComplete = m.Region(0).End
	if m.AllocatedAfterCompleteMarkStart(a) {
		t.Error("watermark at region end should cover nothing")
	}
	if m.AllocatedAfterNextMarkStart(0x10) {
		t.Error("out-of-heap address cannot be above a watermark")
	}
}

func TestOracleSlots(t *testing.T) {
	m := heap.NewModel(testGeometry())
	if m.RegisteredOracle() != nil {
		t.Fatal("fresh heap should have no registered oracle")
	}
	m.RegisterOracle(m.IsAliveOracle())
	if m.RegisteredOracle() != m.IsAliveOracle() {
		t.Error("registered oracle should be the designated is-alive oracle")
	}
	m.RegisterOracle(nil)
	if m.RegisteredOracle() != nil {
		t.Error("unregistering should clear the slot")
	}
	if m.IsAliveOracle() == m.ForwardedIsAliveOracle() {
		t.Error("the two designated oracles must be distinct")
	}
}

func TestOracleLiveness(t *testing.T) {
	m := heap.NewModel(testGeometry())
	a, _ := m.Alloc(0, 8, 1)
	b, _ := m.Alloc(1, 8, 1)
	if m.IsAliveOracle().IsAlive(a) {
		t.Fatal("unmarked object reported alive")
	}
	m.MarkNext(b)
	if err := m.SetForwardee(a, b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !m.IsAliveOracle().IsAlive(b) {
		t.Error("marked object reported dead")
	}
	if !m.ForwardedIsAliveOracle().IsAlive(a) {
		t.Error("forwarding-aware oracle should follow the forwardee")
	}
}
