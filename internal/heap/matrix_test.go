package heap_test

import (
	"testing"

	"caldera/internal/heap"
)

func TestMatrixConnections(t *testing.T) {
	m := heap.NewMatrix(8)
	if m.IsConnected(1, 2) {
		t.Fatal("fresh matrix should record nothing")
	}
	m.SetConnected(1, 2)
	if !m.IsConnected(1, 2) {
		t.Error("1->2 not recorded")
	}
	if m.IsConnected(2, 1) {
		t.Error("the matrix is directed; 2->1 must stay clear")
	}
}

func TestMatrixOutOfRange(t *testing.T) {
	m := heap.NewMatrix(4)
	m.SetConnected(-1, 2)
	m.SetConnected(2, 9)
	for from := 0; from < 4; from++ {
		for to := 0; to < 4; to++ {
			if m.IsConnected(from, to) {
				t.Fatalf("out-of-range set leaked into %d->%d", from, to)
			}
		}
	}
	if m.IsConnected(-1, 0) || m.IsConnected(0, 9) {
		t.Error("out-of-range query should read as not connected")
	}
}

func TestMatrixReset(t *testing.T) {
	m := heap.NewMatrix(4)
	m.SetConnected(0, 3)
	m.SetConnected(3, 0)
	m.Reset()
	if m.IsConnected(0, 3) || m.IsConnected(3, 0) {
		t.Error("reset should clear every connection")
	}
}
