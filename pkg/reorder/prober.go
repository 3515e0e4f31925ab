package reorder

// probeResult is the outcome of running the Option Prober over the
// remaining candidates at a frame.
type probeResult struct {
	success    bool
	pos        int     // position in frame.remGroups that succeeded
	errorNodes []RouterID
}

// probeOptions starts at frame.idx and tries each remaining candidate
// group in order against net and policy. It returns the first success,
// applying exactly that group's modifications and leaving net/policy in
// the resulting state; every prior failed attempt at this call is fully
// rolled back before the next candidate is tried. On universal failure,
// net and policy are restored to their pre-call state and the *last*
// captured black-hole router set is returned (an empty, non-nil slice if
// none was ever captured).
func probeOptions(net Simulator, policy PolicyEvaluator, pool *GroupPool, frame *stackFrame, mon *Monitor) probeResult {
	var lastErrorNodes []RouterID

	for pos := frame.idx; pos < len(frame.remGroups); pos++ {
		groupIdx := frame.remGroups[pos]
		group := pool.Group(groupIdx)

		numUndoSim := 0
		numUndoPolicy := 0
		var errorNodes []RouterID
		ok := true

		for _, mod := range group.Mods {
			if err := net.ApplyModifier(mod); err != nil {
				ok = false
				break
			}
			numUndoSim++

			fs := net.ForwardingState()
			if err := policy.Step(net, fs); err != nil {
				if pe, isPolicyErr := err.(PolicyError); isPolicyErr {
					if nodes, has := pe.BlackHoleRouters(); has {
						errorNodes = nodes
					}
				}
			}
			numUndoPolicy++

			if !policy.Check() {
				ok = false
				break
			}
		}

		if ok {
			mon.recordNode()
			mon.recordProbe(groupIdx, pos, true)
			return probeResult{success: true, pos: pos}
		}

		// Roll back exactly the partial applies made in this probe.
		for i := 0; i < numUndoPolicy; i++ {
			policy.Undo()
		}
		for i := 0; i < numUndoSim; i++ {
			_ = net.UndoAction()
		}

		if errorNodes != nil {
			lastErrorNodes = errorNodes
		}
		mon.recordProbe(groupIdx, pos, false)
	}

	if lastErrorNodes == nil {
		lastErrorNodes = []RouterID{}
	}
	return probeResult{success: false, errorNodes: lastErrorNodes}
}
