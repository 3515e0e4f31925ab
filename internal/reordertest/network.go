// Package reordertest provides small, deterministic in-memory
// collaborators — a Network implementing reorder.Simulator and a
// Policy implementing reorder.PolicyEvaluator — for use by pkg/reorder's
// own tests and by cmd/demo. Neither type is part of the public API
// contract pkg/reorder depends on; they exist only to exercise it.
package reordertest

import (
	"fmt"

	"github.com/netreorder/synth/pkg/reorder"
)

// pair is an unordered peering endpoint pair, normalized so (a, b) and
// (b, a) hash identically.
type pair struct{ a, b reorder.RouterID }

func makePair(a, b reorder.RouterID) pair {
	if a > b {
		a, b = b, a
	}
	return pair{a, b}
}

type sessionUndo struct {
	p           pair
	wasActive   bool
	hadSetEntry bool
}

type attrUndo struct {
	router    reorder.RouterID
	attr      string
	hadPrev   bool
	prevValue int
}

// undoEntry is a tagged union of the two modification kinds Network
// knows how to apply and reverse.
type undoEntry struct {
	session *sessionUndo
	attr    *attrUndo
}

// Network is a minimal peering-session + attribute simulator over a
// fixed set of routers and a single designated destination. It exists
// only to give pkg/reorder's tests something concrete to drive.
type Network struct {
	dest     reorder.RouterID
	routers  []reorder.RouterID
	sessions map[pair]bool
	attrs    map[reorder.RouterID]map[string]int
	undo     []undoEntry
}

// NewNetwork builds a Network over routers, with dest as the
// destination every other router must be able to reach, and an initial
// set of active peering sessions.
func NewNetwork(routers []reorder.RouterID, dest reorder.RouterID, initialSessions [][2]reorder.RouterID) *Network {
	n := &Network{
		dest:     dest,
		routers:  append([]reorder.RouterID(nil), routers...),
		sessions: make(map[pair]bool),
		attrs:    make(map[reorder.RouterID]map[string]int),
	}
	for _, s := range initialSessions {
		n.sessions[makePair(s[0], s[1])] = true
	}
	return n
}

// Clone implements reorder.Simulator.
func (n *Network) Clone() reorder.Simulator {
	cp := &Network{
		dest:     n.dest,
		routers:  append([]reorder.RouterID(nil), n.routers...),
		sessions: make(map[pair]bool, len(n.sessions)),
		attrs:    make(map[reorder.RouterID]map[string]int, len(n.attrs)),
		undo:     append([]undoEntry(nil), n.undo...),
	}
	for k, v := range n.sessions {
		cp.sessions[k] = v
	}
	for r, a := range n.attrs {
		cp.attrs[r] = make(map[string]int, len(a))
		for k, v := range a {
			cp.attrs[r][k] = v
		}
	}
	return cp
}

// ApplyModifier implements reorder.Simulator. It recognizes
// reorder.SessionModifier and reorder.AttributeModifier; any other
// Modification kind is rejected.
func (n *Network) ApplyModifier(m reorder.Modification) error {
	switch mod := m.(type) {
	case reorder.SessionModifier:
		p := makePair(mod.Source, mod.Target)
		wasActive, hadEntry := n.sessions[p]
		if mod.Remove && !wasActive {
			return fmt.Errorf("reordertest: cannot remove session %s: not active", mod)
		}
		if !mod.Remove && wasActive {
			return fmt.Errorf("reordertest: cannot add session %s: already active", mod)
		}
		n.undo = append(n.undo, undoEntry{session: &sessionUndo{p: p, wasActive: wasActive, hadSetEntry: hadEntry}})
		n.sessions[p] = !mod.Remove
		return nil

	case reorder.AttributeModifier:
		byRouter, ok := n.attrs[mod.Router]
		if !ok {
			byRouter = make(map[string]int)
			n.attrs[mod.Router] = byRouter
		}
		prev, hadPrev := byRouter[mod.Attr]
		n.undo = append(n.undo, undoEntry{attr: &attrUndo{router: mod.Router, attr: mod.Attr, hadPrev: hadPrev, prevValue: prev}})
		byRouter[mod.Attr] = mod.Value
		return nil

	default:
		return fmt.Errorf("reordertest: unsupported modification kind %T", m)
	}
}

// UndoAction implements reorder.Simulator.
func (n *Network) UndoAction() error {
	if len(n.undo) == 0 {
		return fmt.Errorf("reordertest: no action to undo")
	}
	last := n.undo[len(n.undo)-1]
	n.undo = n.undo[:len(n.undo)-1]

	switch {
	case last.session != nil:
		if last.session.hadSetEntry {
			n.sessions[last.session.p] = last.session.wasActive
		} else {
			delete(n.sessions, last.session.p)
		}
	case last.attr != nil:
		byRouter := n.attrs[last.attr.router]
		if last.attr.hadPrev {
			byRouter[last.attr.attr] = last.attr.prevValue
		} else {
			delete(byRouter, last.attr.attr)
		}
	}
	return nil
}

// ClearUndoStack implements reorder.Simulator.
func (n *Network) ClearUndoStack() {
	n.undo = n.undo[:0]
}

// AttrValue reports the current value attribute holds on router, for
// tests that need to see past ForwardingState (which only reflects
// session reachability, not attributes) to confirm a rollback fully
// reverted an AttributeModifier.
func (n *Network) AttrValue(router reorder.RouterID, attr string) (int, bool) {
	v, ok := n.attrs[router][attr]
	return v, ok
}

// ReachSet is the ForwardingState Network produces: the set of routers
// currently able to reach the destination over active peering sessions.
type ReachSet map[reorder.RouterID]bool

// ForwardingState implements reorder.Simulator by computing reachability
// to the destination via breadth-first search over active sessions.
func (n *Network) ForwardingState() reorder.ForwardingState {
	reach := make(ReachSet, len(n.routers))
	reach[n.dest] = true
	queue := []reorder.RouterID{n.dest}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, r := range n.routers {
			if reach[r] {
				continue
			}
			if n.sessions[makePair(cur, r)] {
				reach[r] = true
				queue = append(queue, r)
			}
		}
	}
	return reach
}
