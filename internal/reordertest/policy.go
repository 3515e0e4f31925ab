package reordertest

import (
	"fmt"
	"sort"

	"github.com/netreorder/synth/pkg/reorder"
)

// BlackHoleError reports that one or more routers cannot reach the
// destination in the forwarding state just stepped to. It implements
// reorder.PolicyError.
type BlackHoleError struct {
	Routers []reorder.RouterID
}

func (e *BlackHoleError) Error() string {
	return fmt.Sprintf("reordertest: black hole at %v", e.Routers)
}

// BlackHoleRouters implements reorder.PolicyError.
func (e *BlackHoleError) BlackHoleRouters() ([]reorder.RouterID, bool) {
	return e.Routers, true
}

// ReachabilityPolicy is a hard policy requiring every router but the
// destination to be able to reach it at every intermediate forwarding
// state. It is the only policy reordertest implements; real deployments
// would check many more.
type ReachabilityPolicy struct {
	dest    reorder.RouterID
	routers []reorder.RouterID
	numMods int
	history []*BlackHoleError // one entry per Step call, nil if that step held
}

// NewReachabilityPolicy builds a policy over the given routers, checked
// against dest. initial is the network's forwarding state before any
// modification is applied, so that a Check() called before the first
// Step still reflects the network's true starting condition (required
// to detect an already-invalid initial state).
func NewReachabilityPolicy(routers []reorder.RouterID, dest reorder.RouterID, initial reorder.ForwardingState) *ReachabilityPolicy {
	p := &ReachabilityPolicy{dest: dest, routers: append([]reorder.RouterID(nil), routers...)}
	_ = p.Step(nil, initial)
	return p
}

// Clone implements reorder.PolicyEvaluator.
func (p *ReachabilityPolicy) Clone() reorder.PolicyEvaluator {
	return &ReachabilityPolicy{
		dest:    p.dest,
		routers: append([]reorder.RouterID(nil), p.routers...),
		numMods: p.numMods,
		history: append([]*BlackHoleError(nil), p.history...),
	}
}

// SetNumModsIfNone implements reorder.PolicyEvaluator.
func (p *ReachabilityPolicy) SetNumModsIfNone(n int) {
	if p.numMods == 0 {
		p.numMods = n
	}
}

// Step implements reorder.PolicyEvaluator: it reports a BlackHoleError
// for every non-destination router absent from fs.
func (p *ReachabilityPolicy) Step(net reorder.Simulator, fs reorder.ForwardingState) error {
	reach, _ := fs.(ReachSet)

	var blackHoled []reorder.RouterID
	for _, r := range p.routers {
		if r == p.dest {
			continue
		}
		if !reach[r] {
			blackHoled = append(blackHoled, r)
		}
	}
	sort.Slice(blackHoled, func(i, j int) bool { return blackHoled[i] < blackHoled[j] })

	if len(blackHoled) == 0 {
		p.history = append(p.history, nil)
		return nil
	}
	err := &BlackHoleError{Routers: blackHoled}
	p.history = append(p.history, err)
	return err
}

// Check implements reorder.PolicyEvaluator: true unless the most recent
// Step recorded a violation.
func (p *ReachabilityPolicy) Check() bool {
	if len(p.history) == 0 {
		return true
	}
	return p.history[len(p.history)-1] == nil
}

// Undo implements reorder.PolicyEvaluator.
func (p *ReachabilityPolicy) Undo() {
	if len(p.history) == 0 {
		return
	}
	p.history = p.history[:len(p.history)-1]
}

// WatchErrors implements reorder.PolicyEvaluator: every still-recorded
// violation, oldest first.
func (p *ReachabilityPolicy) WatchErrors() []reorder.PolicyError {
	var out []reorder.PolicyError
	for _, e := range p.history {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}
