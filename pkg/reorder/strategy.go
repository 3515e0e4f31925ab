package reorder

import (
	"context"
	"time"
)

// SolvingStrategy is the capability interface the Dependency Learner's
// Solving phase depends on, rather than on a concrete search algorithm.
// This breaks the cycle that would otherwise exist between the Learner
// (which needs to search) and the Search Driver (which needs the
// Learner): any type satisfying this interface can plug into the
// Learner's Step 2 without the Learner knowing how it searches.
//
// A SolvingStrategy attempts to find one ordering of a fixed set of
// group indices, applied against a live simulator+policy pair, that
// keeps every hard policy satisfied throughout. It owns no state beyond
// a single Work call's lifetime; construct a fresh one per attempt via
// the strategy's own constructor (see NewTreeSolvingStrategy for the
// concrete shape).
type SolvingStrategy interface {
	// Work searches for a valid ordering of the strategy's configured
	// groups, honoring ctx for cancellation and timeout. It returns
	// the first ordering (as group indices) found to keep all
	// policies satisfied, or an error if none was found within ctx's
	// deadline or before cancellation.
	Work(ctx context.Context) ([]int, error)

	// Name returns a descriptive name for this strategy, used only in
	// log fields.
	Name() string
}

// solvingStrategyFactory constructs a SolvingStrategy for one Learner
// Solving-phase attempt. The Learner depends on this function type, not
// on a concrete strategy, so an alternative subordinate strategy can be
// passed to learnDependency without changing learner.go. Run always
// passes defaultSolvingStrategyFactory.
type solvingStrategyFactory func(net Simulator, policy PolicyEvaluator, pool *GroupPool, indices []int, budget time.Duration, mon *Monitor) SolvingStrategy
