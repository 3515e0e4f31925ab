// Package main demonstrates the Search Driver against a handful of
// small, hand-built networks.
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/netreorder/synth/internal/reordertest"
	"github.com/netreorder/synth/pkg/reorder"
)

func main() {
	fmt.Println("=== reorder demos ===")
	fmt.Println()

	independentModifications()
	orderingDependency()
	atomicGroup()
	invalidInitialState()
}

// independentModifications shows the driver accepting any order over
// modifications that never interfere with each other.
func independentModifications() {
	fmt.Println("1. Independent modifications:")

	routers := []reorder.RouterID{1, 2, 3, 4}
	net := reordertest.NewNetwork(routers, 4, [][2]reorder.RouterID{{1, 4}, {2, 4}, {3, 4}})
	policy := reordertest.NewReachabilityPolicy(routers, 4, net.ForwardingState())

	mods := []reorder.Modification{
		reorder.AttributeModifier{Router: 1, Attr: "med", Value: 1},
		reorder.AttributeModifier{Router: 2, Attr: "med", Value: 2},
		reorder.AttributeModifier{Router: 3, Attr: "med", Value: 3},
	}

	order, err := reorder.Run(context.Background(), net, policy, mods, reorder.DefaultConfig(time.Second))
	report(order, err)
	fmt.Println()
}

// orderingDependency shows a backup path that must come up before the
// direct path it replaces comes down.
func orderingDependency() {
	fmt.Println("2. Ordering dependency (add backup before dropping direct):")

	const a, b, c reorder.RouterID = 1, 2, 3
	net := reordertest.NewNetwork([]reorder.RouterID{a, b, c}, b, [][2]reorder.RouterID{{a, b}, {c, b}})
	policy := reordertest.NewReachabilityPolicy([]reorder.RouterID{a}, b, net.ForwardingState())

	mods := []reorder.Modification{
		reorder.AttributeModifier{Router: c, Attr: "med", Value: 5},
		reorder.SessionModifier{Source: a, Target: c, Remove: false},
		reorder.SessionModifier{Source: a, Target: b, Remove: true},
	}

	order, err := reorder.Run(context.Background(), net, policy, mods, reorder.DefaultConfig(2*time.Second))
	report(order, err)
	fmt.Println()
}

// atomicGroup shows a three-modification group with exactly one valid
// total order. Depending on the shuffle, the search may reach a stuck
// point first and hand it to the Dependency Learner.
func atomicGroup() {
	fmt.Println("3. Atomic group (transit toggle, one valid order):")

	const a, b, c reorder.RouterID = 1, 2, 3
	net := reordertest.NewNetwork([]reorder.RouterID{a, b, c}, b,
		[][2]reorder.RouterID{{a, c}, {c, b}, {a, b}})
	policy := reordertest.NewReachabilityPolicy([]reorder.RouterID{a}, b, net.ForwardingState())

	mods := []reorder.Modification{
		reorder.SessionModifier{Source: a, Target: c, Remove: true},
		reorder.SessionModifier{Source: a, Target: c, Remove: false},
		reorder.SessionModifier{Source: a, Target: b, Remove: true},
	}

	order, err := reorder.Run(context.Background(), net, policy, mods, reorder.DefaultConfig(2*time.Second))
	report(order, err)
	fmt.Println()
}

// invalidInitialState shows the driver refusing to search when the
// network is already in violation before any modification is applied.
func invalidInitialState() {
	fmt.Println("4. Invalid initial state:")

	routers := []reorder.RouterID{1, 2}
	net := reordertest.NewNetwork(routers, 2, nil) // router 1 has no path to 2
	policy := reordertest.NewReachabilityPolicy(routers, 2, net.ForwardingState())

	mods := []reorder.Modification{reorder.AttributeModifier{Router: 1, Attr: "med", Value: 1}}

	order, err := reorder.Run(context.Background(), net, policy, mods, reorder.DefaultConfig(time.Second))
	report(order, err)
}

func report(order []reorder.Modification, err error) {
	if err != nil {
		fmt.Printf("   error: %v\n", err)
		return
	}
	fmt.Printf("   order found (%d steps):\n", len(order))
	for i, m := range order {
		fmt.Printf("     %d. %s\n", i+1, m)
	}
}
