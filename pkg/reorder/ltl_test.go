package reorder

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netreorder/synth/internal/reordertest"
)

// fakeOracleRunner is a canned OracleRunner: tests never need a real
// solver binary on the test host.
type fakeOracleRunner struct {
	response string
	err      error
	calls    int
}

func (f *fakeOracleRunner) Run(ctx context.Context, formula string) (string, error) {
	f.calls++
	return f.response, f.err
}

func TestLTLHandler_Handle_Sat(t *testing.T) {
	const a RouterID = 1
	mods := []Modification{
		SessionModifier{Source: a, Target: 2, Remove: true},
		AttributeModifier{Router: 3, Attr: "med", Value: 1},
		SessionModifier{Source: a, Target: 2, Remove: false},
	}
	pool := NewGroupPool(mods)

	runner := &fakeOracleRunner{response: "sat\nx0\nx2\n"}
	h := NewLTLHandler(pool.Len(), runner, nil)

	seq, ok, err := h.Handle(context.Background(), pool, nil, 1, []RouterID{a})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []int{0, 2}, seq)
	assert.Equal(t, 1, runner.calls)
}

func TestLTLHandler_Handle_Unsat(t *testing.T) {
	const a RouterID = 1
	mods := []Modification{
		SessionModifier{Source: a, Target: 2, Remove: true},
		SessionModifier{Source: a, Target: 2, Remove: false},
	}
	pool := NewGroupPool(mods)

	runner := &fakeOracleRunner{response: "unsat\n"}
	h := NewLTLHandler(pool.Len(), runner, nil)

	seq, ok, err := h.Handle(context.Background(), pool, nil, 0, []RouterID{a})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, seq)
	assert.Equal(t, 1, runner.calls)
}

func TestLTLHandler_Handle_RunnerError(t *testing.T) {
	mods := []Modification{
		AttributeModifier{Router: 1, Attr: "med", Value: 1},
		AttributeModifier{Router: 2, Attr: "med", Value: 1},
	}
	pool := NewGroupPool(mods)

	wantErr := errors.New("spawn failed")
	runner := &fakeOracleRunner{err: wantErr}
	h := NewLTLHandler(pool.Len(), runner, nil)

	seq, ok, err := h.Handle(context.Background(), pool, nil, 0, nil)
	assert.Nil(t, seq)
	assert.False(t, ok)
	var oracleErr *OracleError
	require.ErrorAs(t, err, &oracleErr)
	assert.ErrorIs(t, oracleErr, wantErr)
}

// s4Topology rebuilds the TestS4_AtomicGroup network/policy/mods triple:
// the three modifications admit exactly one valid total order
// (dropTransit, reAddTransit, dropBackup), and dropBackup-then-{dropTransit,
// reAddTransit} is a genuine stuck point (both remaining candidates fail).
func s4Topology() (*reordertest.Network, *reordertest.ReachabilityPolicy, []Modification, Modification, Modification, Modification) {
	const a, b, c RouterID = 1, 2, 3
	net := reordertest.NewNetwork([]RouterID{a, b, c}, b,
		[][2]RouterID{{a, c}, {c, b}, {a, b}})
	policy := reordertest.NewReachabilityPolicy([]RouterID{a}, b, net.ForwardingState())

	dropTransit := SessionModifier{Source: a, Target: c, Remove: true}
	reAddTransit := SessionModifier{Source: a, Target: c, Remove: false}
	dropBackup := SessionModifier{Source: a, Target: b, Remove: true}

	return net, policy, []Modification{dropTransit, reAddTransit, dropBackup}, dropTransit, reAddTransit, dropBackup
}

// TestDriver_HandlerLTL_UnsatStillFindsOrder drives driver.go's HandlerLTL
// path with a fake oracle that always reports unsat. An unsat response
// carries no information the driver didn't already have: it must treat
// the stuck point as no progress and keep searching, eventually finding
// the one valid order through ordinary backtracking. Several seeds are
// tried since whether a stuck point is hit at all depends on shuffle
// order; across this many independent shuffles the oracle is exercised
// at least once with overwhelming probability.
func TestDriver_HandlerLTL_UnsatStillFindsOrder(t *testing.T) {
	totalCalls := 0
	for seed := int64(100); seed < 120; seed++ {
		net, policy, mods, dropTransit, reAddTransit, dropBackup := s4Topology()

		runner := &fakeOracleRunner{response: "unsat\n"}
		cfg := testConfig(2*time.Second, seed)
		cfg.Handler = HandlerLTL
		cfg.OracleRunner = runner

		order, err := Run(context.Background(), net, policy, mods, cfg)
		require.NoError(t, err)
		assert.Equal(t, []Modification{dropTransit, reAddTransit, dropBackup}, order)

		totalCalls += runner.calls
	}
	assert.Greater(t, totalCalls, 0, "expected the LTL oracle to be consulted at least once across all seeds")
}

// TestDriver_HandlerLTL_SatResetsToSuggestedOrder drives the same stuck
// point with a fake oracle that always reports the known valid order as
// sat. On ok=true the driver must reset the search stack to the
// suggested sequence rather than simply rejecting it.
func TestDriver_HandlerLTL_SatResetsToSuggestedOrder(t *testing.T) {
	totalCalls := 0
	for seed := int64(200); seed < 220; seed++ {
		net, policy, mods, dropTransit, reAddTransit, dropBackup := s4Topology()

		// mods is built in [dropTransit, reAddTransit, dropBackup] order,
		// and NewGroupPool assigns indices in input order: x0, x1, x2.
		runner := &fakeOracleRunner{response: "sat\nx0\nx1\nx2\n"}
		cfg := testConfig(2*time.Second, seed)
		cfg.Handler = HandlerLTL
		cfg.OracleRunner = runner

		order, err := Run(context.Background(), net, policy, mods, cfg)
		require.NoError(t, err)
		assert.Equal(t, []Modification{dropTransit, reAddTransit, dropBackup}, order)

		totalCalls += runner.calls
	}
	assert.Greater(t, totalCalls, 0, "expected the LTL oracle to be consulted at least once across all seeds")
}

// TestConfig_OracleRunnerSatisfiesValidationWithoutOraclePath covers the
// Config.Validate carve-out: an injected OracleRunner stands in for
// OraclePath.
func TestConfig_OracleRunnerSatisfiesValidationWithoutOraclePath(t *testing.T) {
	cfg := DefaultConfig(time.Second)
	cfg.Rand = rand.New(rand.NewSource(1))
	cfg.Handler = HandlerLTL
	cfg.OracleRunner = &fakeOracleRunner{response: "unsat\n"}
	assert.NoError(t, cfg.Validate())
}
