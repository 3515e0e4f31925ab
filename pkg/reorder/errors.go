package reorder

import (
	"errors"
	"fmt"
)

// Outward errors the Search Driver can return from Run. Run returns them
// unwrapped; comparing with errors.Is works either way.
var (
	// ErrInvalidInitialState is returned when the initial configuration
	// already violates a hard policy, before any modification is tried.
	ErrInvalidInitialState = errors.New("reorder: invalid initial state")

	// ErrTimeout is returned when the wall-clock budget expires.
	ErrTimeout = errors.New("reorder: timeout")

	// ErrAborted is returned when the caller's cancellation handle
	// fires.
	ErrAborted = errors.New("reorder: aborted")

	// ErrNoOrdering is returned when the search stack empties without
	// covering the whole pool: probably no safe ordering exists.
	ErrNoOrdering = errors.New("reorder: probably no safe ordering")

	// errCheckFailed is the underlying error wrapped by a
	// PolicyViolationError produced from PolicyEvaluator.Check
	// returning false with no step-level error to attach.
	errCheckFailed = errors.New("policy check failed")
)

// SimulatorError wraps a Simulator.ApplyModifier failure encountered
// during a probe. It carries no router set: a modification the
// simulator itself rejects never reaches policy evaluation.
type SimulatorError struct {
	Group Group
	Err   error
}

func (e *SimulatorError) Error() string {
	return fmt.Sprintf("reorder: simulator rejected group %s: %v", e.Group, e.Err)
}

func (e *SimulatorError) Unwrap() error { return e.Err }

// PolicyViolationError wraps a policy failure encountered during a
// probe. BlackHole is nil unless the violation was a forwarding
// black-hole with a reported router set.
type PolicyViolationError struct {
	Group     Group
	BlackHole []RouterID
	Err       error
}

func (e *PolicyViolationError) Error() string {
	if len(e.BlackHole) > 0 {
		return fmt.Sprintf("reorder: policy violated applying group %s: black-hole at %v: %v", e.Group, e.BlackHole, e.Err)
	}
	return fmt.Sprintf("reorder: policy violated applying group %s: %v", e.Group, e.Err)
}

func (e *PolicyViolationError) Unwrap() error { return e.Err }

// OracleError wraps a failure talking to the external LTL satisfiability
// oracle: a spawn failure, a write/read I/O failure, or a non-zero exit
// with no output at all. These are fatal: the spec
// requires oracle I/O failures to propagate as distinct errors (spec §5,
// §7), not be retried silently.
type OracleError struct {
	Op  string
	Err error
}

func (e *OracleError) Error() string {
	return fmt.Sprintf("reorder: oracle %s: %v", e.Op, e.Err)
}

func (e *OracleError) Unwrap() error { return e.Err }
