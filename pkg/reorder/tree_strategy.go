package reorder

import (
	"context"
	"time"
)

// TreeSolvingStrategy is the default SolvingStrategy: it drives the Tree
// Permutator (permutator.go) over a fixed set of group indices, applying
// each permutation's modifications in order against a live
// simulator+policy pair, undoing on any failure, until either a
// satisfying permutation is found or the strategy's time budget expires.
//
// This is the Learner's Step 2 workhorse: Reduction (Step 1) narrows the
// index set down to what plausibly matters, and TreeSolvingStrategy
// attempts to find a valid internal order for exactly that set.
type TreeSolvingStrategy struct {
	net     Simulator
	policy  PolicyEvaluator
	pool    *GroupPool
	indices []int
	budget  time.Duration
	mon     *Monitor
}

// NewTreeSolvingStrategy constructs a TreeSolvingStrategy over the given
// group indices, to be tried against net/policy from whatever state they
// are in. The Learner passes fresh clones of the initial state, so every
// permutation is applied from scratch.
func NewTreeSolvingStrategy(net Simulator, policy PolicyEvaluator, pool *GroupPool, indices []int, budget time.Duration, mon *Monitor) SolvingStrategy {
	return &TreeSolvingStrategy{net: net, policy: policy, pool: pool, indices: indices, budget: budget, mon: mon}
}

// Name implements SolvingStrategy.
func (s *TreeSolvingStrategy) Name() string { return "tree" }

// Work implements SolvingStrategy by exhaustively permuting s.indices
// via the Tree Permutator, applying and undoing each candidate ordering
// in turn, until one keeps every hard policy satisfied or ctx's deadline
// (bounded additionally by s.budget) is hit.
func (s *TreeSolvingStrategy) Work(ctx context.Context) ([]int, error) {
	deadline := time.Now().Add(s.budget)
	perm := NewTreePermutator[int](s.indices)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		if time.Now().After(deadline) {
			return nil, ErrTimeout
		}

		candidate, ok := perm.Next()
		if !ok {
			return nil, ErrNoOrdering
		}

		if ordered, err := tryOrdering(s.net, s.policy, s.pool, candidate, s.mon); err == nil {
			return ordered, nil
		}
	}
}

// tryOrdering applies the groups named by order, in order, against
// net/policy; on any failure it fully undoes the partial application and
// returns an error. On success it also undoes the application (the
// caller only wants to know that a valid ordering exists; the Learner
// turns the winning ordering into a new Group, which the driver applies
// after its reset).
func tryOrdering(net Simulator, policy PolicyEvaluator, pool *GroupPool, order []int, mon *Monitor) ([]int, error) {
	numUndoSim := 0
	numUndoPolicy := 0
	var probeErr error

outer:
	for _, groupIdx := range order {
		group := pool.Group(groupIdx)
		for _, mod := range group.Mods {
			if err := net.ApplyModifier(mod); err != nil {
				probeErr = &SimulatorError{Group: group, Err: err}
				break outer
			}
			numUndoSim++

			fs := net.ForwardingState()
			stepErr := policy.Step(net, fs)
			numUndoPolicy++

			if !policy.Check() {
				if stepErr != nil {
					pv := &PolicyViolationError{Group: group, Err: stepErr}
					if pe, isPolicyErr := stepErr.(PolicyError); isPolicyErr {
						if nodes, has := pe.BlackHoleRouters(); has {
							pv.BlackHole = nodes
						}
					}
					probeErr = pv
				} else {
					probeErr = &PolicyViolationError{Group: group, Err: errCheckFailed}
				}
				break outer
			}
		}
	}

	for i := 0; i < numUndoPolicy; i++ {
		policy.Undo()
	}
	for i := 0; i < numUndoSim; i++ {
		_ = net.UndoAction()
	}

	mon.recordNode()

	if probeErr != nil {
		return nil, probeErr
	}
	return order, nil
}
