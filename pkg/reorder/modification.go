// Package reorder searches for a total order over a set of atomic network
// configuration modifications, grouping some of them into learned
// dependency groups, such that applying the order one group at a time
// never violates a hard correctness policy at any intermediate state.
//
// The package is a library: it owns none of the network simulation or
// policy evaluation itself, only the ordering search (Tree Permutator,
// Option Prober, Dependency Learner, LTL Constraint Builder & Oracle
// Client, and the Search Driver that ties them together). Callers supply
// a Simulator and a PolicyEvaluator (see collaborators.go) that do the
// real work of applying a Modification and checking it.
package reorder

import "fmt"

// RouterID identifies a router in the network under reconfiguration. It
// is opaque beyond equality and is never interpreted by this package,
// except where a Modification exposes one as a peering endpoint for LTL
// constraint generation.
type RouterID int

// Modification is an atomic, opaque configuration change handed to the
// Simulator. Two concrete kinds are provided: SessionModifier, which
// exposes a peering pair for the LTL path, and AttributeModifier, which
// does not.
type Modification interface {
	fmt.Stringer

	// PeeringEndpoints returns the (source, target) router pair this
	// modification affects, if it represents a peering-session
	// add/remove. ok is false for modification kinds that expose no
	// such pair.
	PeeringEndpoints() (source, target RouterID, ok bool)
}

// SessionModifier adds or removes a peering session between two routers.
type SessionModifier struct {
	Source, Target RouterID
	Remove         bool // false = add, true = remove
}

func (m SessionModifier) String() string {
	verb := "add"
	if m.Remove {
		verb = "remove"
	}
	return fmt.Sprintf("%s-session(%d, %d)", verb, m.Source, m.Target)
}

// PeeringEndpoints implements Modification.
func (m SessionModifier) PeeringEndpoints() (RouterID, RouterID, bool) {
	return m.Source, m.Target, true
}

// AttributeModifier sets a scalar link or route attribute on a router.
// It exposes no peering pair.
type AttributeModifier struct {
	Router RouterID
	Attr   string
	Value  int
}

func (m AttributeModifier) String() string {
	return fmt.Sprintf("set-attr(%d, %s=%d)", m.Router, m.Attr, m.Value)
}

// PeeringEndpoints implements Modification.
func (m AttributeModifier) PeeringEndpoints() (RouterID, RouterID, bool) {
	return 0, 0, false
}

// Group is an ordered, non-empty sequence of modifications applied
// atomically by the search: it either applies cleanly in full, or is
// rolled back in full. A freshly constructed pool holds one singleton
// group per input modification; the Dependency Learner may later replace
// several groups by one longer group whose internal order is fixed.
type Group struct {
	Mods []Modification
}

// Len returns the number of modifications in the group.
func (g Group) Len() int { return len(g.Mods) }

func (g Group) String() string {
	return fmt.Sprint(g.Mods)
}

// NewSingletonGroups builds one singleton Group per input modification,
// in input order — the pool's initial state before any learning.
func NewSingletonGroups(mods []Modification) []Group {
	groups := make([]Group, len(mods))
	for i, m := range mods {
		groups[i] = Group{Mods: []Modification{m}}
	}
	return groups
}

// GroupPool is a sequence of groups, each referenced by its stable
// index. Replacement operations (performed by the Dependency Learner)
// preserve the indices of untouched groups; only the replaced indices
// are invalidated and folded into the new combined index, which is
// always one past the highest index ever issued (so a later
// replacement can never collide with an earlier, still-live index).
type GroupPool struct {
	groups  map[int]Group
	order   []int // current indices, in pool order
	nextIdx int    // next index ReplaceMany will issue
}

// NewGroupPool constructs a pool from an initial modification sequence,
// one singleton group per modification.
func NewGroupPool(mods []Modification) *GroupPool {
	singles := NewSingletonGroups(mods)
	p := &GroupPool{
		groups:  make(map[int]Group, len(singles)),
		order:   make([]int, len(singles)),
		nextIdx: len(singles),
	}
	for i, g := range singles {
		p.groups[i] = g
		p.order[i] = i
	}
	return p
}

// Len returns the number of groups currently in the pool.
func (p *GroupPool) Len() int { return len(p.order) }

// Group returns the group at the given stable index.
func (p *GroupPool) Group(idx int) Group { return p.groups[idx] }

// Indices returns every currently valid group index, in pool order.
func (p *GroupPool) Indices() []int {
	return append([]int(nil), p.order...)
}

// ReplaceMany replaces the groups at the given indices with a single new
// group. Indices not mentioned in replaced keep their original stable
// index; the replaced indices are removed and the new group is appended
// at the end of the pool under a freshly issued index, which is
// returned.
//
// replaced must be a set of valid, distinct indices into the pool.
func (p *GroupPool) ReplaceMany(replaced []int, newGroup Group) int {
	drop := make(map[int]bool, len(replaced))
	for _, idx := range replaced {
		drop[idx] = true
		delete(p.groups, idx)
	}
	kept := make([]int, 0, len(p.order)-len(replaced)+1)
	for _, idx := range p.order {
		if drop[idx] {
			continue
		}
		kept = append(kept, idx)
	}

	newIdx := p.nextIdx
	p.nextIdx++
	p.groups[newIdx] = newGroup
	kept = append(kept, newIdx)
	p.order = kept
	return newIdx
}

// Expand returns the concatenation, in order, of the internal
// modification sequences of the groups named by seq.
func (p *GroupPool) Expand(seq []int) []Modification {
	out := make([]Modification, 0, len(seq))
	for _, idx := range seq {
		out = append(out, p.groups[idx].Mods...)
	}
	return out
}

// Clone returns an independent copy of the pool, safe to mutate without
// affecting the receiver.
func (p *GroupPool) Clone() *GroupPool {
	groups := make(map[int]Group, len(p.groups))
	for idx, g := range p.groups {
		groups[idx] = g
	}
	return &GroupPool{
		groups:  groups,
		order:   append([]int(nil), p.order...),
		nextIdx: p.nextIdx,
	}
}
