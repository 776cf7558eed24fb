package sliqsim

/*
Regulator defines an interface for types that regulate which jobs the pool
admits. The pool feeds every regulator its metrics on each collection tick
and gives it a chance to recover from a restricted state.

CircuitBreaker is the regulator backends use, one per simulator executable.
*/
type Regulator interface {
	// Observe lets the regulator see the pool's current metrics.
	Observe(metrics *Metrics)

	// Limit reports whether the regulated action should be restricted.
	Limit() bool

	// Renormalize attempts to return the regulator to normal operation.
	Renormalize()
}
