package reorder

// ForwardingState is the opaque forwarding-state value produced by a
// Simulator after a modification has been applied. This package never
// inspects it directly; it only threads it through to the
// PolicyEvaluator.
type ForwardingState interface{}

// PolicyError reports a single hard-policy violation. Kinds beyond
// forwarding-black-hole are propagated opaquely: the engine never
// interprets their contents beyond the optional router set below.
type PolicyError interface {
	error

	// BlackHoleRouters returns the set of routers observed to drop
	// traffic, if this error represents a forwarding-black-hole
	// violation. ok is false for every other violation kind.
	BlackHoleRouters() (routers []RouterID, ok bool)
}

// Simulator applies and rolls back individual modifications and reports
// the resulting forwarding state. Implementations are not required to be
// safe for concurrent use; the engine never calls a Simulator from more
// than one goroutine at a time (see spec §5, Concurrency & Resource
// Model).
type Simulator interface {
	// Clone returns an independent copy of the simulator at its
	// current state, sharing no mutable state with the receiver.
	Clone() Simulator

	// ApplyModifier applies m to the live configuration. On error the
	// simulator's state is unchanged from the caller's perspective:
	// the caller is responsible for not counting this application
	// toward its undo ledger.
	ApplyModifier(m Modification) error

	// UndoAction reverts the most recent successful ApplyModifier
	// call not yet undone.
	UndoAction() error

	// ClearUndoStack discards all undo history, fixing the current
	// state as the new undo floor. Called once, at construction, by
	// the Search Driver.
	ClearUndoStack()

	// ForwardingState returns the forwarding state resulting from the
	// modifications applied so far.
	ForwardingState() ForwardingState
}

// PolicyEvaluator steps a forwarding state and reports per-policy
// violations, including which routers black-hole traffic.
type PolicyEvaluator interface {
	// Clone returns an independent copy of the evaluator at its
	// current state.
	Clone() PolicyEvaluator

	// SetNumModsIfNone tells the evaluator the total modification
	// count, if it has not already been told. Some hard policies
	// (e.g. "every modification eventually applies") need this count
	// up front; it is a no-op on an evaluator that doesn't.
	SetNumModsIfNone(n int)

	// Step advances policy checking to the given forwarding state,
	// produced by net after its most recent ApplyModifier. Returns a
	// PolicyError if a policy was violated at this step.
	Step(net Simulator, fs ForwardingState) error

	// Check reports whether every hard policy currently holds.
	Check() bool

	// Undo reverts the most recent Step call not yet undone.
	Undo()

	// WatchErrors returns the full violation report from the most
	// recent failing Check/Step.
	WatchErrors() []PolicyError
}
