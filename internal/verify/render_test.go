package verify_test

import (
	"strings"
	"testing"

	"caldera/internal/verify"
)

func TestRenderObjectFullDetail(t *testing.T) {
	m := testHeap()
	obj, _ := m.Alloc(0, 16, 1)
	m.MarkComplete(obj)
	m.AddToCollectionSet(0)

	r := verify.NewRenderer(m)
	var b strings.Builder
	r.Object(&b, verify.SafetyAll, obj)
	out := b.String()

	for _, want := range []string{
		obj.String(),
		"type 0x1 node",
		"allocated after complete mark start",
		"allocated after next mark start",
		"marked complete",
		"not marked next",
		"in collection set",
		"region 0 [",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("full rendering missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "not marked complete") {
		t.Errorf("object is marked complete, rendering disagrees:\n%s", out)
	}
}

func TestRenderObjectLowLevelFallsBackToSafe(t *testing.T) {
	m := testHeap()
	obj, _ := m.Alloc(0, 16, 1)
	m.MarkComplete(obj)

	r := verify.NewRenderer(m)
	var b strings.Builder
	r.Object(&b, verify.SafetyUnknown, obj)
	out := b.String()

	if !strings.Contains(out, "safe print, no details") {
		t.Fatalf("expected the safe rendering:\n%s", out)
	}
	if !strings.Contains(out, obj.String()) {
		t.Errorf("safe rendering must include the address:\n%s", out)
	}
	if !strings.Contains(out, "region 0 [") {
		t.Errorf("safe rendering should include the region summary when resolvable:\n%s", out)
	}
	for _, banned := range []string{"marked", "collection set", "type"} {
		if strings.Contains(out, banned) {
			t.Errorf("safe rendering must not include %q:\n%s", banned, out)
		}
	}
}

func TestRenderObjectSafeOutsideHeap(t *testing.T) {
	m := testHeap()
	r := verify.NewRenderer(m)
	var b strings.Builder
	r.ObjectSafe(&b, 0x10)
	out := b.String()
	if !strings.Contains(out, "safe print, no details") {
		t.Fatalf("expected the safe rendering:\n%s", out)
	}
	if strings.Contains(out, "region") {
		t.Errorf("unresolvable address must not render a region:\n%s", out)
	}
}

func TestRenderLocation(t *testing.T) {
	m := testHeap()
	obj, _ := m.Alloc(2, 16, 1)
	m.AddToCollectionSet(2)
	r := verify.NewRenderer(m)

	var in strings.Builder
	r.Location(&in, obj)
	if !strings.Contains(in.String(), "inside heap") {
		t.Errorf("expected an in-heap location:\n%s", in.String())
	}
	if !strings.Contains(in.String(), "in collection set") {
		t.Errorf("in-heap location must report collection-set membership:\n%s", in.String())
	}
	if !strings.Contains(in.String(), "region 2 [") {
		t.Errorf("in-heap location must report its region:\n%s", in.String())
	}

	var out strings.Builder
	r.Location(&out, 0x10)
	if !strings.Contains(out.String(), "outside of heap") {
		t.Errorf("expected an out-of-heap location:\n%s", out.String())
	}
}

func TestSafetyLevelOrderAndNames(t *testing.T) {
	if !(verify.SafetyUnknown < verify.SafetyObject &&
		verify.SafetyObject < verify.SafetyObjectFwd &&
		verify.SafetyObjectFwd < verify.SafetyAll) {
		t.Fatal("safety levels out of order")
	}
	for s, want := range map[string]verify.SafetyLevel{
		"unknown":    verify.SafetyUnknown,
		"object":     verify.SafetyObject,
		"object+fwd": verify.SafetyObjectFwd,
		"all":        verify.SafetyAll,
	} {
		got, ok := verify.ParseSafetyLevel(s)
		if !ok || got != want {
			t.Errorf("ParseSafetyLevel(%q) = %v, %v", s, got, ok)
		}
		if got.String() != s {
			t.Errorf("String() = %q, want %q", got.String(), s)
		}
	}
	if _, ok := verify.ParseSafetyLevel("everything"); ok {
		t.Error("unknown level name should not parse")
	}
}
