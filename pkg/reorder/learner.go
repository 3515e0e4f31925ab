package reorder

import (
	"context"
	"time"
)

// learnerCtx holds everything the Dependency Learner's three phases
// (Reduction, Solving, Expansion) share across their recursive calls:
// the replay primitive, the pool being searched, the subordinate
// SolvingStrategy factory, and bookkeeping for the search budget.
type learnerCtx struct {
	replay   *replayer
	pool     *GroupPool
	strategy solvingStrategyFactory
	cfg      *Config
	mon      *Monitor
	deadline time.Time
}

// learnDependency is invoked by the Search Driver when the Option Prober
// exhausts every remaining candidate at a frame without success. It is
// given the current good prefix (goodOrdering, as pool indices already
// proven to apply cleanly in that order) and one representative failing
// candidate, badGroup, and tries to explain the failure as an ordering
// dependency: some subset of groups that only succeeds in a particular
// relative order.
//
// On success it returns the synthesized replacement Group together with
// the pool indices it subsumes, ready to be passed to
// GroupPool.ReplaceMany. On failure (no dependency could be isolated
// within budget, or the context was canceled) it returns ok=false; the
// driver then pops the stuck frame and continues backtracking.
func learnDependency(ctx context.Context, initialNet Simulator, initialPolicy PolicyEvaluator, pool *GroupPool, goodOrdering []int, badGroup int, strategy solvingStrategyFactory, cfg *Config, mon *Monitor, deadline time.Time) (Group, []int, bool) {
	lc := &learnerCtx{
		replay:   &replayer{initialNet: initialNet, initialPolicy: initialPolicy, pool: pool, mon: mon},
		pool:     pool,
		strategy: strategy,
		cfg:      cfg,
		mon:      mon,
		deadline: deadline,
	}

	ordering := append(append([]int{}, goodOrdering...), badGroup)
	excluded := map[int]bool{}

	phase := "reduce"
	for {
		select {
		case <-ctx.Done():
			return Group{}, nil, false
		default:
		}
		if time.Now().After(lc.deadline) {
			return Group{}, nil, false
		}

		switch phase {
		case "reduce":
			reduced, removed := lc.reduce(ctx, ordering)
			for _, r := range removed {
				excluded[r] = true
			}
			ordering = reduced
			phase = "solve"

		case "solve":
			if sol, ok := lc.solve(ctx, ordering); ok {
				mon.recordLearn(ordering, len(sol))
				return lc.buildLearnedGroup(sol), sol, true
			}
			phase = "expand"

		case "expand":
			res := lc.expand(ctx, ordering, excluded)
			switch res.action {
			case expandDone:
				mon.recordLearn(ordering, len(res.ordering))
				return lc.buildLearnedGroup(res.ordering), res.ordering, true
			case expandReduce:
				for _, r := range res.removed {
					excluded[r] = true
				}
				ordering = res.ordering
				phase = "reduce"
			case expandSolve:
				ordering = res.ordering
				phase = "solve"
			default: // expandFail
				return Group{}, nil, false
			}
		}
	}
}

func (lc *learnerCtx) buildLearnedGroup(sol []int) Group {
	return Group{Mods: lc.pool.Expand(sol)}
}

// reduce is the Reduction phase (Step 1). ordering's last element is
// always the one currently failing; reduce tries removing each earlier
// element in turn, classifying the effect on the resulting probe, and
// returns the smallest ordering it can justify keeping together with the
// indices it proved were independent (and so permanently dropped).
func (lc *learnerCtx) reduce(ctx context.Context, ordering []int) ([]int, []int) {
	if len(ordering) <= 1 {
		return ordering, nil
	}

	_, target, ok := lc.replay.simulate(ctx, ordering)
	if ok {
		// Nothing to reduce: the ordering as given already works.
		return ordering, nil
	}

	var removed []int
	i := 0
	for i < len(ordering)-1 {
		select {
		case <-ctx.Done():
			return ordering, removed
		default:
		}

		probe := removeAt(ordering, i)
		pos, v, probeOK := lc.replay.simulate(ctx, probe)

		switch {
		case probeOK:
			// i is part of the solution: keep it, move on.
			i++

		case pos != len(probe)-1:
			// An earlier group failed instead: recurse on the smaller
			// prefix through that new failure.
			sub, subRemoved := lc.reduce(ctx, probe[:pos+1])
			removed = append(removed, subRemoved...)
			if len(sub) == pos+1 {
				// Recursion could not shrink it further: the removed
				// element was load-bearing after all.
				return append([]int{ordering[i]}, sub...), removed
			}
			return sub, removed

		case v.sameAs(target):
			// Identical failure with or without i: independent. Drop
			// it permanently and rescan from the same index.
			removed = append(removed, ordering[i])
			ordering = probe

		default:
			// Same position, different failure: dependent. Keep it.
			i++
		}
	}

	return ordering, removed
}

// solve is the Solving phase (Step 2): search for a permutation of
// ordering's indices that, applied from scratch, keeps every hard policy
// satisfied throughout.
func (lc *learnerCtx) solve(ctx context.Context, ordering []int) ([]int, bool) {
	if len(ordering) == 0 {
		return nil, false
	}

	remaining := time.Until(lc.deadline)
	if remaining <= 0 {
		return nil, false
	}
	k := lc.cfg.SolveFraction
	if k < 1 {
		k = 1
	}
	attemptBudget := remaining / time.Duration(k)

	net := lc.replay.initialNet.Clone()
	policy := lc.replay.initialPolicy.Clone()
	strategy := lc.strategy(net, policy, lc.pool, ordering, attemptBudget, lc.mon)

	sol, err := strategy.Work(ctx)
	if err != nil {
		return nil, false
	}
	return sol, true
}

type expandAction int

const (
	expandFail expandAction = iota
	expandDone
	expandReduce
	expandSolve
)

type expandResult struct {
	action   expandAction
	ordering []int
	removed  []int
}

// expand is the Expansion phase (Step 3): ordering (and its Reduction
// exclusions) failed to solve on their own, so try adding one group at a
// time, at every insertion position, from the groups not already
// considered.
func (lc *learnerCtx) expand(ctx context.Context, ordering []int, excluded map[int]bool) expandResult {
	_, target, ok := lc.replay.simulate(ctx, ordering)
	if ok {
		return expandResult{action: expandDone, ordering: ordering}
	}

	inOrdering := toSet(ordering)

	for _, c := range lc.pool.Indices() {
		if inOrdering[c] || excluded[c] {
			continue
		}

		for i := 0; i <= len(ordering); i++ {
			select {
			case <-ctx.Done():
				return expandResult{action: expandFail}
			default:
			}

			probe := insertAt(ordering, i, c)
			pos, v, probeOK := lc.replay.simulate(ctx, probe)

			switch {
			case probeOK:
				return expandResult{action: expandDone, ordering: probe}

			case pos != len(probe)-1:
				sub, removed := lc.reduce(ctx, probe[:pos+1])
				return expandResult{action: expandReduce, ordering: sub, removed: removed}

			case !v.sameAs(target):
				return expandResult{action: expandSolve, ordering: insertAt(ordering, i, c)}

			default:
				// Identical failure: try the next insertion position.
			}
		}
	}

	return expandResult{action: expandFail}
}
