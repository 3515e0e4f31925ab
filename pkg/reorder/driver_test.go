package reorder

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netreorder/synth/internal/reordertest"
)

func testConfig(budget time.Duration, seed int64) *Config {
	cfg := DefaultConfig(budget)
	cfg.Rand = rand.New(rand.NewSource(seed))
	cfg.Logger = nil
	return cfg
}

// replayValid re-applies order, one modification at a time, against a
// fresh net/policy pair and fails t if any step violates policy. This
// backs universal property 2 (solution validity) independent of the
// driver's own bookkeeping.
func replayValid(t *testing.T, net Simulator, policy PolicyEvaluator, order []Modification) {
	t.Helper()
	for i, mod := range order {
		require.NoErrorf(t, net.ApplyModifier(mod), "step %d: %s", i, mod)
		fs := net.ForwardingState()
		require.NoErrorf(t, policy.Step(net, fs), "step %d: %s", i, mod)
		require.Truef(t, policy.Check(), "step %d: %s", i, mod)
	}
}

// TestS1_SingleModification covers scenario S1.
func TestS1_SingleModification(t *testing.T) {
	routers := []RouterID{1, 2}
	net := reordertest.NewNetwork(routers, 2, [][2]RouterID{{1, 2}})
	policy := reordertest.NewReachabilityPolicy(routers, 2, net.ForwardingState())

	mods := []Modification{AttributeModifier{Router: 1, Attr: "med", Value: 10}}

	order, err := Run(context.Background(), net, policy, mods, testConfig(time.Second, 1))
	require.NoError(t, err)
	assert.Equal(t, mods, order)
}

// TestS2_IndependentModifications covers scenario S2.
func TestS2_IndependentModifications(t *testing.T) {
	routers := []RouterID{1, 2, 3, 4}
	net := reordertest.NewNetwork(routers, 4, [][2]RouterID{{1, 4}, {2, 4}, {3, 4}})
	policy := reordertest.NewReachabilityPolicy(routers, 4, net.ForwardingState())

	mods := []Modification{
		AttributeModifier{Router: 1, Attr: "med", Value: 1},
		AttributeModifier{Router: 2, Attr: "med", Value: 2},
		AttributeModifier{Router: 3, Attr: "med", Value: 3},
	}

	order, err := Run(context.Background(), net, policy, mods, testConfig(time.Second, 2))
	require.NoError(t, err)
	assert.Len(t, order, 3)
	assert.ElementsMatch(t, mods, order)

	replayValid(t, net.Clone(), policy.Clone(), order)
}

// TestS3_OrderingDependency covers scenario S3: adding the backup path
// (A-C) must happen before dropping the direct path (A-B); the
// attribute modifier on C is unconstrained.
func TestS3_OrderingDependency(t *testing.T) {
	const a, b, c RouterID = 1, 2, 3
	net := reordertest.NewNetwork([]RouterID{a, b, c}, b, [][2]RouterID{{a, b}, {c, b}})
	policy := reordertest.NewReachabilityPolicy([]RouterID{a}, b, net.ForwardingState())

	attr := AttributeModifier{Router: c, Attr: "med", Value: 5}
	addBackup := SessionModifier{Source: a, Target: c, Remove: false}
	dropDirect := SessionModifier{Source: a, Target: b, Remove: true}
	mods := []Modification{attr, addBackup, dropDirect}

	order, err := Run(context.Background(), net, policy, mods, testConfig(2*time.Second, 3))
	require.NoError(t, err)
	require.Len(t, order, 3)

	posOf := func(m Modification) int {
		for i, x := range order {
			if x == m {
				return i
			}
		}
		t.Fatalf("modification %s missing from returned order", m)
		return -1
	}
	assert.Less(t, posOf(addBackup), posOf(dropDirect))

	replayValid(t, net.Clone(), policy.Clone(), order)
}

// TestS4_AtomicGroup covers scenario S4: the three modifications admit
// exactly one valid total order. reAddTransit can never go first (its
// precondition is violated until dropTransit has run), and dropBackup
// can only go last (removing the direct path before the transit is
// back up strands the tracked router). Run must still find the one
// order that works.
func TestS4_AtomicGroup(t *testing.T) {
	const a, b, c RouterID = 1, 2, 3
	net := reordertest.NewNetwork([]RouterID{a, b, c}, b,
		[][2]RouterID{{a, c}, {c, b}, {a, b}})
	policy := reordertest.NewReachabilityPolicy([]RouterID{a}, b, net.ForwardingState())

	dropTransit := SessionModifier{Source: a, Target: c, Remove: true}
	reAddTransit := SessionModifier{Source: a, Target: c, Remove: false}
	dropBackup := SessionModifier{Source: a, Target: b, Remove: true}

	mods := []Modification{dropTransit, reAddTransit, dropBackup}

	// reAddTransit tried first is rejected outright: a-c is already active.
	probe := net.Clone()
	assert.Error(t, probe.ApplyModifier(reAddTransit))

	// dropTransit then dropBackup (skipping the re-add) strands a: both
	// of its paths to b are gone.
	probe = net.Clone()
	ppolicy := policy.Clone()
	require.NoError(t, probe.ApplyModifier(dropTransit))
	require.NoError(t, ppolicy.Step(probe, probe.ForwardingState()))
	require.NoError(t, probe.ApplyModifier(dropBackup))
	assert.Error(t, ppolicy.Step(probe, probe.ForwardingState()))

	order, err := Run(context.Background(), net, policy, mods, testConfig(2*time.Second, 4))
	require.NoError(t, err)
	require.Len(t, order, 3)
	assert.ElementsMatch(t, mods, order)
	assert.Equal(t, []Modification{dropTransit, reAddTransit, dropBackup}, order)

	replayValid(t, net.Clone(), policy.Clone(), order)
}

// TestS5_InvalidInitialState covers scenario S5.
func TestS5_InvalidInitialState(t *testing.T) {
	routers := []RouterID{1, 2}
	net := reordertest.NewNetwork(routers, 2, nil) // no session: router 1 can't reach 2
	policy := reordertest.NewReachabilityPolicy(routers, 2, net.ForwardingState())

	mods := []Modification{AttributeModifier{Router: 1, Attr: "med", Value: 1}}

	_, err := Run(context.Background(), net, policy, mods, testConfig(time.Second, 5))
	assert.ErrorIs(t, err, ErrInvalidInitialState)
}

// TestS6_ZeroBudgetTimesOut covers scenario S6.
func TestS6_ZeroBudgetTimesOut(t *testing.T) {
	routers := []RouterID{1, 2}
	net := reordertest.NewNetwork(routers, 2, [][2]RouterID{{1, 2}})
	policy := reordertest.NewReachabilityPolicy(routers, 2, net.ForwardingState())

	mods := []Modification{AttributeModifier{Router: 1, Attr: "med", Value: 1}}

	_, err := Run(context.Background(), net, policy, mods, testConfig(0, 6))
	assert.ErrorIs(t, err, ErrTimeout)
}

// TestRun_Aborted covers the cancellation path (paired with ErrAborted
// in the error taxonomy; not itself a numbered scenario).
func TestRun_Aborted(t *testing.T) {
	routers := []RouterID{1, 2}
	net := reordertest.NewNetwork(routers, 2, [][2]RouterID{{1, 2}})
	policy := reordertest.NewReachabilityPolicy(routers, 2, net.ForwardingState())

	mods := []Modification{AttributeModifier{Router: 1, Attr: "med", Value: 1}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, net, policy, mods, testConfig(time.Second, 7))
	assert.ErrorIs(t, err, ErrAborted)
}

// TestProbeOptions_RollbackFidelity covers universal property 1: after a
// failing probe, net and policy are left exactly as they were before it.
func TestProbeOptions_RollbackFidelity(t *testing.T) {
	const a, b RouterID = 1, 2
	net := reordertest.NewNetwork([]RouterID{a, b}, b, nil) // a unreachable
	policy := reordertest.NewReachabilityPolicy([]RouterID{a}, b, net.ForwardingState())
	// Clear the seeded-invalid history entry so Check() reflects only
	// what happens inside the probe under test.
	policy.Undo()

	pool := NewGroupPool([]Modification{AttributeModifier{Router: a, Attr: "med", Value: 1}})
	frame := newStackFrame(pool.Indices(), 0, rand.New(rand.NewSource(8)))

	before := net.ForwardingState()
	res := probeOptions(net, policy, pool, frame, nil)
	assert.False(t, res.success)

	after := net.ForwardingState()
	assert.Equal(t, before, after)

	// ForwardingState alone can't see an un-reverted attribute, since it
	// only reflects session reachability: confirm the attribute itself
	// was rolled back too.
	_, hadMed := net.AttrValue(a, "med")
	assert.False(t, hadMed)
	assert.True(t, policy.Check())
}
