package heap

// Oracle answers liveness queries during reference processing. The
// reference-processing subsystem holds at most one registered oracle at
// a time; phase code installs and removes it around weak-reference
// phases.
type Oracle interface {
	IsAlive(a Addr) bool
}

// markOracle answers liveness from the in-progress mark bitmap.
type markOracle struct {
	m *Model
}

func (o *markOracle) IsAlive(a Addr) bool {
	return o.m.MarkedNext(a)
}

// forwardedMarkOracle resolves forwarding before consulting the bitmap,
// for phases running after evacuation has moved objects.
type forwardedMarkOracle struct {
	m *Model
}

func (o *forwardedMarkOracle) IsAlive(a Addr) bool {
	return o.m.MarkedNext(o.m.Forwardee(a))
}
