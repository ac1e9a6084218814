package verify_test

import (
	"strings"
	"testing"

	"caldera/internal/heap"
	"caldera/internal/verify"
)

func testHeap() *heap.Model {
	m := heap.NewModel(heap.Geometry{Base: 0x1000, RegionWords: 256, RegionCount: 8})
	m.DefineType(1, "node")
	m.DefineType(7, "buffer")
	return m
}

func testChecker(m *heap.Model) *verify.Checker {
	return verify.New(m, verify.PanicSink{})
}

// expectViolation runs fn, requires it to trip a check, and requires
// the report to contain label.
func expectViolation(t *testing.T, label string, fn func()) *verify.Violation {
	t.Helper()
	var got *verify.Violation
	func() {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			v, ok := r.(*verify.Violation)
			if !ok {
				panic(r)
			}
			got = v
		}()
		fn()
	}()
	if got == nil {
		t.Fatalf("expected a violation containing %q, got none", label)
	}
	if !strings.Contains(got.Message, label) {
		t.Fatalf("violation report does not contain %q:\n%s", label, got.Message)
	}
	return got
}

type stubOracle struct {
	alive bool
}

func (o *stubOracle) IsAlive(a heap.Addr) bool { return o.alive }
