package reorder

import (
	"context"
	"sort"
)

// violation is a comparable summary of a probe failure: the position at
// which it occurred (index into the ordering that was simulated) and
// enough of the failure's shape to decide the Reduction/Expansion
// phases' "same error" vs. "different error" classification. sameAs
// compares only the kind and (for black-hole violations) the router set:
// the probed ordering is one element shorter (Reduction) or longer
// (Expansion) than the one it is compared with, so callers decide
// "same position" themselves by checking that the failure is at the
// probe's last element.
type violation struct {
	position  int
	kind      string // "simulator-rejection", "blackhole", "policy-other", "aborted"
	blackHole []RouterID
}

func (v violation) sameAs(o violation) bool {
	if v.kind != o.kind {
		return false
	}
	return equalRouterSets(v.blackHole, o.blackHole)
}

func equalRouterSets(a, b []RouterID) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]RouterID(nil), a...)
	bs := append([]RouterID(nil), b...)
	sort.Slice(as, func(i, j int) bool { return as[i] < as[j] })
	sort.Slice(bs, func(i, j int) bool { return bs[i] < bs[j] })
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

// replayer simulates an ordering of pool group indices from scratch,
// always against a fresh clone of the pristine initial simulator and
// policy evaluator. This is the primitive both the Reduction phase and
// the Expansion phase probe with: "does this candidate sequence of
// groups, applied from the very beginning, satisfy every hard policy at
// every step?"
type replayer struct {
	initialNet    Simulator
	initialPolicy PolicyEvaluator
	pool          *GroupPool
	mon           *Monitor
}

// simulate applies the groups named by ordering, in order, against a
// fresh clone of the pristine initial state. It returns ok=true if every
// group applied and every policy held throughout. Otherwise it returns
// the position in ordering at which the first failure occurred and a
// violation describing it. Step 0 of the Dependency Learner ("error
// capture": if the simulator itself rejects a modification, synthesize
// a convergence error) is simply the simulator-rejection branch below,
// exercised the first time simulate is called on the good-ordering +
// bad-group sequence.
func (r *replayer) simulate(ctx context.Context, ordering []int) (pos int, v violation, ok bool) {
	net := r.initialNet.Clone()
	policy := r.initialPolicy.Clone()

	for i, groupIdx := range ordering {
		select {
		case <-ctx.Done():
			return i, violation{position: i, kind: "aborted"}, false
		default:
		}

		group := r.pool.Group(groupIdx)
		r.mon.recordNode()
		for _, mod := range group.Mods {
			if err := net.ApplyModifier(mod); err != nil {
				return i, violation{position: i, kind: "simulator-rejection"}, false
			}
			fs := net.ForwardingState()
			var blackHole []RouterID
			if err := policy.Step(net, fs); err != nil {
				if pe, isPolicyErr := err.(PolicyError); isPolicyErr {
					if nodes, has := pe.BlackHoleRouters(); has {
						blackHole = nodes
					}
				}
			}
			if !policy.Check() {
				if blackHole != nil {
					return i, violation{position: i, kind: "blackhole", blackHole: blackHole}, false
				}
				return i, violation{position: i, kind: "policy-other"}, false
			}
		}
	}
	return -1, violation{}, true
}

func removeAt(s []int, i int) []int {
	out := make([]int, 0, len(s)-1)
	out = append(out, s[:i]...)
	out = append(out, s[i+1:]...)
	return out
}

func insertAt(s []int, i int, v int) []int {
	out := make([]int, 0, len(s)+1)
	out = append(out, s[:i]...)
	out = append(out, v)
	out = append(out, s[i:]...)
	return out
}

func toSet(s []int) map[int]bool {
	m := make(map[int]bool, len(s))
	for _, v := range s {
		m[v] = true
	}
	return m
}
