// Package snapshot serializes a model heap to disk so captured heaps
// can be verified and inspected offline.
package snapshot

import (
	"errors"
	"fmt"
	"os"

	"fortio.org/safecast"
	"github.com/vmihailenco/msgpack/v5"

	"caldera/internal/heap"
)

// Schema version - increment when the payload format changes.
const schemaVersion uint16 = 1

var (
	// ErrSchema indicates a snapshot written by an incompatible version.
	ErrSchema = errors.New("snapshot schema mismatch")
	// ErrCorrupt indicates a payload whose internal counts disagree.
	ErrCorrupt = errors.New("snapshot payload corrupt")
)

type regionPayload struct {
	State      uint8
	Used       uint64
	WMComplete uint64
	WMNext     uint64
	InCSet     bool
}

type objectPayload struct {
	Addr uint64
	Size uint64
	Type uint32
	Fwd  uint64
}

type payload struct {
	Schema uint16

	Base        uint64
	RegionWords uint64
	RegionCount int

	FullMove      bool
	MatrixEnabled bool

	Types   map[uint32]string
	Regions []regionPayload
	Objects []objectPayload

	// ObjectCount duplicates len(Objects) as a cheap integrity check.
	ObjectCount uint32

	MarkedComplete []uint64
	MarkedNext     []uint64
	Connected      [][2]int
}

func capture(m *heap.Model) (*payload, error) {
	g := m.Geometry()
	p := &payload{
		Schema:        schemaVersion,
		Base:          uint64(g.Base),
		RegionWords:   g.RegionWords,
		RegionCount:   g.RegionCount,
		FullMove:      m.FullMoveInProgress(),
		MatrixEnabled: m.Matrix() != nil,
		Types:         m.Types(),
	}

	for i := 0; i < g.RegionCount; i++ {
		r := m.Region(i)
		p.Regions = append(p.Regions, regionPayload{
			State:      uint8(r.State),
			Used:       r.Used,
			WMComplete: uint64(r.WMComplete),
			WMNext:     uint64(r.WMNext),
			InCSet:     m.InCollectionSet(r.Start),
		})
		for _, a := range m.ObjectsIn(i) {
			p.Objects = append(p.Objects, objectPayload{
				Addr: uint64(a),
				Size: m.SizeWords(a),
				Type: m.TypeOf(a).ID,
				Fwd:  uint64(m.Forwardee(a)),
			})
			if m.MarkedComplete(a) {
				p.MarkedComplete = append(p.MarkedComplete, uint64(a))
			}
			if m.MarkedNext(a) {
				p.MarkedNext = append(p.MarkedNext, uint64(a))
			}
		}
	}

	count, err := safecast.Conv[uint32](len(p.Objects))
	if err != nil {
		return nil, fmt.Errorf("object count overflow: %w", err)
	}
	p.ObjectCount = count

	if matrix := m.Matrix(); matrix != nil {
		for from := 0; from < g.RegionCount; from++ {
			for to := 0; to < g.RegionCount; to++ {
				if matrix.IsConnected(from, to) {
					p.Connected = append(p.Connected, [2]int{from, to})
				}
			}
		}
	}
	return p, nil
}

func restore(p *payload) (*heap.Model, error) {
	if p.Schema != schemaVersion {
		return nil, fmt.Errorf("%w: got %d want %d", ErrSchema, p.Schema, schemaVersion)
	}
	if len(p.Regions) != p.RegionCount {
		return nil, fmt.Errorf("%w: %d region records for %d regions", ErrCorrupt, len(p.Regions), p.RegionCount)
	}
	if uint64(len(p.Objects)) != uint64(p.ObjectCount) {
		return nil, fmt.Errorf("%w: %d object records, header says %d", ErrCorrupt, len(p.Objects), p.ObjectCount)
	}

	m := heap.NewModel(heap.Geometry{
		Base:        heap.Addr(p.Base),
		RegionWords: p.RegionWords,
		RegionCount: p.RegionCount,
	})
	if !p.MatrixEnabled {
		m.DisableMatrixTracking()
	}
	m.SetFullMoveInProgress(p.FullMove)

	for id, name := range p.Types {
		m.DefineType(id, name)
	}
	for i, rp := range p.Regions {
		r := m.Region(i)
		r.State = heap.RegionState(rp.State)
		r.Used = rp.Used
		r.WMComplete = heap.Addr(rp.WMComplete)
		r.WMNext = heap.Addr(rp.WMNext)
		if rp.InCSet {
			m.AddToCollectionSet(i)
		}
	}
	for _, op := range p.Objects {
		if err := m.InstallObject(heap.Addr(op.Addr), op.Size, op.Type); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		if err := m.SetForwardee(heap.Addr(op.Addr), heap.Addr(op.Fwd)); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
	}
	for _, a := range p.MarkedComplete {
		m.MarkComplete(heap.Addr(a))
	}
	for _, a := range p.MarkedNext {
		m.MarkNext(heap.Addr(a))
	}
	for _, pair := range p.Connected {
		m.Connect(pair[0], pair[1])
	}
	return m, nil
}

// Write captures m into path.
func Write(path string, m *heap.Model) error {
	p, err := capture(m)
	if err != nil {
		return err
	}
	data, err := msgpack.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Read loads a model heap from path.
func Read(path string) (*heap.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var p payload
	if err := msgpack.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return restore(&p)
}
