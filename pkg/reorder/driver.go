package reorder

import (
	"context"
	"time"
)

// Run searches for a total order over mods, per the Search Driver's main
// loop (spec §4.F). net and policy must be at their true initial state —
// no modification applied yet — when Run is called; Run calls
// net.ClearUndoStack() itself once the initial policy check passes.
//
// On success the returned slice is the concatenation, in order, of the
// internal modification sequences of every group the search selected: a
// valid total order over all of mods. On failure the returned error is
// one of ErrInvalidInitialState, ErrTimeout, ErrAborted, or
// ErrNoOrdering (or a *ConfigError when cfg fails Validate, or an
// *OracleError, only when cfg.Handler is HandlerLTL and the oracle
// process itself fails).
func Run(ctx context.Context, net Simulator, policy PolicyEvaluator, mods []Modification, cfg *Config) ([]Modification, error) {
	if cfg == nil {
		cfg = DefaultConfig(0)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	mon := NewMonitor(cfg.Logger)
	pool := NewGroupPool(mods)
	policy.SetNumModsIfNone(len(mods))

	if !policy.Check() {
		return nil, ErrInvalidInitialState
	}
	net.ClearUndoStack()

	initialNet := net.Clone()
	initialPolicy := policy.Clone()

	deadline := time.Now().Add(cfg.Budget)

	var ltl *LTLHandler
	if cfg.Handler == HandlerLTL {
		runner := cfg.OracleRunner
		if runner == nil {
			runner = NewProcessOracleRunner(cfg.OraclePath, mon)
		}
		ltl = NewLTLHandler(pool.Len(), runner, mon)
	}

	stack := []*stackFrame{newStackFrame(pool.Indices(), 0, cfg.Rand)}
	currentSequence := make([]int, 0, pool.Len())

	for {
		select {
		case <-ctx.Done():
			return nil, ErrAborted
		default:
		}
		if time.Now().After(deadline) {
			return nil, ErrTimeout
		}
		if len(stack) == 0 {
			return nil, ErrNoOrdering
		}

		top := stack[len(stack)-1]

		if top.exhausted() {
			stack = stack[:len(stack)-1]
			if top.numUndo > 0 {
				for i := 0; i < top.numUndo; i++ {
					policy.Undo()
				}
				for i := 0; i < top.numUndo; i++ {
					_ = net.UndoAction()
				}
				currentSequence = currentSequence[:len(currentSequence)-1]
			}
			mon.recordBacktrack(len(stack))
			mon.action("pop", nil)
			continue
		}

		res := probeOptions(net, policy, pool, top, mon)

		if res.success {
			groupIdx := top.remGroups[res.pos]
			currentSequence = append(currentSequence, groupIdx)
			top.idx = res.pos + 1

			if len(currentSequence) == pool.Len() {
				return pool.Expand(currentSequence), nil
			}

			numUndo := pool.Group(groupIdx).Len()
			next := newStackFrame(remainingIndices(pool, currentSequence), numUndo, cfg.Rand)
			stack = append(stack, next)
			mon.recordDepth(len(stack))
			mon.action("push", nil)
			continue
		}

		stuckGroup := top.remGroups[top.idx]

		if cfg.Handler == HandlerLTL {
			seq, ok, err := ltl.Handle(ctx, pool, currentSequence, stuckGroup, res.errorNodes)
			if err != nil {
				return nil, err
			}
			if ok {
				unwindAll(net, policy, stack)
				stack = []*stackFrame{newStackFrame(seq, 0, cfg.Rand)}
				currentSequence = currentSequence[:0]
				mon.action("reset", nil)
				continue
			}
			// Unsat: no progress at this stuck point; mark the frame
			// exhausted so the next iteration pops it.
			top.idx = len(top.remGroups)
			continue
		}

		newGroup, replaced, ok := learnDependency(ctx, initialNet, initialPolicy, pool, currentSequence, stuckGroup, defaultSolvingStrategyFactory, cfg, mon, deadline)
		if !ok {
			// No dependency found: pop the stuck frame on the next
			// iteration and keep backtracking.
			top.idx = len(top.remGroups)
			continue
		}

		pool.ReplaceMany(replaced, newGroup)
		unwindAll(net, policy, stack)
		stack = []*stackFrame{newStackFrame(pool.Indices(), 0, cfg.Rand)}
		currentSequence = currentSequence[:0]
		mon.action("reset", nil)
	}
}

// remainingIndices returns every pool index not already present in used,
// in pool order.
func remainingIndices(pool *GroupPool, used []int) []int {
	usedSet := toSet(used)
	out := make([]int, 0, pool.Len()-len(used))
	for _, idx := range pool.Indices() {
		if !usedSet[idx] {
			out = append(out, idx)
		}
	}
	return out
}

// unwindAll reverts every modification currently applied by the live
// search stack, bringing net and policy back to their initial state
// ahead of a Reset action (spec §4.F, StackAction::Reset).
func unwindAll(net Simulator, policy PolicyEvaluator, stack []*stackFrame) {
	total := 0
	for _, f := range stack[1:] {
		total += f.numUndo
	}
	for i := 0; i < total; i++ {
		policy.Undo()
	}
	for i := 0; i < total; i++ {
		_ = net.UndoAction()
	}
}

func defaultSolvingStrategyFactory(net Simulator, policy PolicyEvaluator, pool *GroupPool, indices []int, budget time.Duration, mon *Monitor) SolvingStrategy {
	return NewTreeSolvingStrategy(net, policy, pool, indices, budget, mon)
}
