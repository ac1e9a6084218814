package verify_test

import (
	"testing"
)

func TestOracleNotInstalled(t *testing.T) {
	m := testHeap()
	c := testChecker(m)

	// Nothing registered: the guard stays silent.
	c.OracleNotInstalled()

	m.RegisterOracle(&stubOracle{})
	expectViolation(t, "verify OracleNotInstalled failed", func() {
		c.OracleNotInstalled()
	})
}

func TestOracleInstalled(t *testing.T) {
	m := testHeap()
	c := testChecker(m)

	// No oracle registered counts as a mismatch too.
	expectViolation(t, "verify OracleInstalled failed", func() {
		c.OracleInstalled()
	})

	m.RegisterOracle(m.IsAliveOracle())
	c.OracleInstalled()

	// A foreign oracle is not the designated one, even if it answers
	// the same queries.
	foreign := &stubOracle{alive: true}
	m.RegisterOracle(foreign)
	v := expectViolation(t, "verify OracleInstalled failed", func() {
		c.OracleInstalled()
	})
	if v.Message == "" {
		t.Fatal("empty oracle report")
	}

	// The forwarding-aware oracle is also not the designated is-alive
	// oracle for this guard.
	m.RegisterOracle(m.ForwardedIsAliveOracle())
	expectViolation(t, "verify OracleInstalled failed", func() {
		c.OracleInstalled()
	})
}
