package verify

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"caldera/internal/heap"
)

// Checks selects which predicates a full-heap sweep applies to every
// object. Correct and Region hold on any consistent heap; the marking
// and collection-set checks are phase-dependent and off by default.
type Checks uint8

const (
	// CheckCorrect runs the foundational Correct predicate.
	CheckCorrect Checks = 1 << iota
	// CheckRegion runs InCorrectRegion.
	CheckRegion
	// CheckMarkedComplete expects every object marked in the complete
	// bitmap.
	CheckMarkedComplete
	// CheckMarkedNext expects every object marked in the next bitmap.
	CheckMarkedNext
	// CheckNotInCSet expects no object in a collection-set region.
	CheckNotInCSet
)

// DefaultChecks are the phase-independent checks.
const DefaultChecks = CheckCorrect | CheckRegion

// ParseChecks maps check names to a Checks mask.
func ParseChecks(names []string) (Checks, error) {
	var cs Checks
	for _, name := range names {
		switch strings.TrimSpace(name) {
		case "correct":
			cs |= CheckCorrect
		case "region":
			cs |= CheckRegion
		case "marked-complete":
			cs |= CheckMarkedComplete
		case "marked-next":
			cs |= CheckMarkedNext
		case "not-in-cset":
			cs |= CheckNotInCSet
		case "":
		default:
			return 0, fmt.Errorf("unknown check %q (correct|region|marked-complete|marked-next|not-in-cset)", name)
		}
	}
	if cs == 0 {
		cs = DefaultChecks
	}
	return cs, nil
}

// SweepHeap is a verifiable heap that can also enumerate its objects,
// which the external query contract alone does not provide.
type SweepHeap interface {
	Heap
	ObjectsIn(idx int) []heap.Addr
}

// SweepStatus is the progress state of one region during a sweep.
type SweepStatus string

const (
	// StatusQueued means the region has not been picked up yet.
	StatusQueued SweepStatus = "queued"
	// StatusSweeping means a worker is checking the region.
	StatusSweeping SweepStatus = "sweeping"
	// StatusClean means every object in the region passed.
	StatusClean SweepStatus = "clean"
	// StatusBroken means a check tripped inside the region.
	StatusBroken SweepStatus = "broken"
)

// SweepEvent reports per-region sweep progress.
type SweepEvent struct {
	Region  int
	Status  SweepStatus
	Objects int
}

// SweepOptions configures a full-heap sweep.
type SweepOptions struct {
	// Jobs caps parallel region workers; 0 means GOMAXPROCS.
	Jobs int
	// Checks selects the predicates to apply; 0 means DefaultChecks.
	Checks Checks
	// Progress, when non-nil, receives per-region events. The caller
	// owns the channel and must drain it.
	Progress chan<- SweepEvent
}

// SweepResult summarizes a clean sweep.
type SweepResult struct {
	Regions int
	Objects int
}

// Sweep walks every object of every region and applies the configured
// checks, region-parallel. The first violation cancels the remaining
// work and is returned as a *Violation error; other errors come from
// ctx only.
func Sweep(ctx context.Context, h SweepHeap, opts SweepOptions) (SweepResult, error) {
	checks := opts.Checks
	if checks == 0 {
		checks = DefaultChecks
	}
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	count := h.RegionCount()
	counts := make([]int, count) // worker-private per index, no mutex

	c := New(h, PanicSink{})

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, max(count, 1)))

	emit := func(ev SweepEvent) {
		if opts.Progress == nil {
			return
		}
		select {
		case opts.Progress <- ev:
		case <-gctx.Done():
		}
	}

	for i := 0; i < count; i++ {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			objs := h.ObjectsIn(i)
			if len(objs) == 0 {
				emit(SweepEvent{Region: i, Status: StatusClean})
				return nil
			}
			emit(SweepEvent{Region: i, Status: StatusSweeping, Objects: len(objs)})
			if err := sweepRegion(c, checks, objs); err != nil {
				emit(SweepEvent{Region: i, Status: StatusBroken, Objects: len(objs)})
				return err
			}
			counts[i] = len(objs)
			emit(SweepEvent{Region: i, Status: StatusClean, Objects: len(objs)})
			return nil
		})
	}

	err := g.Wait()
	res := SweepResult{Regions: count}
	for _, n := range counts {
		res.Objects += n
	}
	if err != nil {
		return res, err
	}
	return res, nil
}

// sweepRegion applies the checks to every object, converting the
// checker's violation panic back into an error at the region boundary.
func sweepRegion(c *Checker, checks Checks, objs []heap.Addr) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if v, ok := r.(*Violation); ok {
				err = v
				return
			}
			panic(r)
		}
	}()
	for _, obj := range objs {
		if checks&CheckCorrect != 0 {
			c.Correct(heap.NilAddr, obj)
		}
		if checks&CheckRegion != 0 {
			c.InCorrectRegion(heap.NilAddr, obj)
		}
		if checks&CheckMarkedComplete != 0 {
			c.MarkedComplete(heap.NilAddr, obj)
		}
		if checks&CheckMarkedNext != 0 {
			c.MarkedNext(heap.NilAddr, obj)
		}
		if checks&CheckNotInCSet != 0 {
			c.NotInCSet(heap.NilAddr, obj)
		}
	}
	return nil
}
