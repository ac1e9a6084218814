package verify

// Phase-ordering guards around weak-reference processing. Installing or
// leaving behind the wrong liveness oracle is a phase bug, not an
// object-graph bug, so these check the registration slot only.

// OracleNotInstalled checks that no liveness oracle is currently
// registered with the reference-processing subsystem.
func (c *Checker) OracleNotInstalled() {
	file, line := caller()
	if actual := c.h.RegisteredOracle(); actual != nil {
		c.rep.FailOracle("verify OracleNotInstalled failed", actual, nil, file, line)
	}
}

// OracleInstalled checks that the registered liveness oracle is exactly
// the heap's designated is-alive oracle.
func (c *Checker) OracleInstalled() {
	file, line := caller()
	actual := c.h.RegisteredOracle()
	expected := c.h.IsAliveOracle()
	if actual != expected {
		c.rep.FailOracle("verify OracleInstalled failed", actual, expected, file, line)
	}
}
