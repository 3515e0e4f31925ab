package reorder

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
)

// OracleRunner invokes the external LTL satisfiability tool, writing a
// formula to its standard input and returning whatever it wrote to
// standard output. ProcessOracleRunner is the production implementation;
// tests substitute a canned responder so they never need a real solver
// binary on the test host.
type OracleRunner interface {
	Run(ctx context.Context, formula string) (string, error)
}

// ProcessOracleRunner shells out to an external executable once per
// query via exec.CommandContext, so the driver's own budget/cancellation
// composes with the child process's lifetime.
type ProcessOracleRunner struct {
	Path string
	mon  *Monitor
}

// NewProcessOracleRunner returns an OracleRunner that launches the
// executable at path for every query. mon receives a warn-level log
// entry whenever the child exits non-zero but still produced a
// response; it may be nil.
func NewProcessOracleRunner(path string, mon *Monitor) *ProcessOracleRunner {
	return &ProcessOracleRunner{Path: path, mon: mon}
}

// Run implements OracleRunner.
func (r *ProcessOracleRunner) Run(ctx context.Context, formula string) (string, error) {
	cmd := exec.CommandContext(ctx, r.Path)
	cmd.Stdin = strings.NewReader(formula)

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	err := cmd.Run()
	if err != nil {
		if _, isExit := err.(*exec.ExitError); isExit && stdout.Len() > 0 {
			// Non-zero exit doesn't itself invalidate a response the
			// child still managed to print before exiting.
			r.mon.warnOracleNonZeroExit(err)
		} else {
			return "", err
		}
	}
	return stdout.String(), nil
}

// LTLHandler is the alternate stuck-point handler (spec §4.E): it keeps
// one cumulative formula alive across every stuck event for the life of
// a search and consults runner to extend the search frontier.
type LTLHandler struct {
	builder *ltlBuilder
	runner  OracleRunner
	mon     *Monitor
}

// NewLTLHandler constructs a handler for a pool of the given size.
func NewLTLHandler(poolSize int, runner OracleRunner, mon *Monitor) *LTLHandler {
	return &LTLHandler{builder: newLTLBuilder(poolSize), runner: runner, mon: mon}
}

// Handle folds one stuck-point event into the cumulative formula and
// queries the oracle. On a sat response it returns the extracted group
// index sequence with ok=true: the driver should reset the search stack
// and push it as a new root frame. On unsat it returns ok=false: the
// driver should treat this as no progress and pop. A non-nil error means
// the oracle process itself failed (spawn or I/O failure); this is
// always fatal and the driver does not retry.
func (h *LTLHandler) Handle(ctx context.Context, pool *GroupPool, prefix []int, stuckGroup int, blackHole []RouterID) ([]int, bool, error) {
	h.builder.update(pool, blackHole, prefix, stuckGroup)
	formula := h.builder.formula()

	out, err := h.runner.Run(ctx, formula)
	if err != nil {
		h.mon.recordOracleCall(len(formula), "error")
		return nil, false, &OracleError{Op: "run", Err: err}
	}

	sat, seq := parseOracleResponse(out)
	if sat {
		h.mon.recordOracleCall(len(formula), "sat")
		return seq, true, nil
	}
	h.mon.recordOracleCall(len(formula), "unsat")
	return nil, false, nil
}
