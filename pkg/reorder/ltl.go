package reorder

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ltlBuilder maintains the cumulative LTL formula Φ over n atomic
// propositions x0..x(n-1), one per pool group index, as described by the
// LTL Constraint Builder (spec §4.E). n is the pool's length at
// construction time: the open question of a hardcoded pool size is
// resolved by always using the actual pool length.
type ltlBuilder struct {
	n   int
	phi string
}

func newLTLBuilder(n int) *ltlBuilder {
	return &ltlBuilder{n: n, phi: baseFormula(n)}
}

// baseFormula builds Φ0 = T ∧ ⋀_i G(x_i → ⋀_{j≠i} ¬x_j) ∧ ⋀_i F x_i:
// each step activates exactly one group, and every group is eventually
// applied.
func baseFormula(n int) string {
	if n == 0 {
		return "T"
	}
	clauses := make([]string, 0, 2*n)
	for i := 0; i < n; i++ {
		notOthers := make([]string, 0, n-1)
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			notOthers = append(notOthers, fmt.Sprintf("!x%d", j))
		}
		excl := "T"
		if len(notOthers) > 0 {
			excl = strings.Join(notOthers, " & ")
		}
		clauses = append(clauses, fmt.Sprintf("G(x%d -> (%s))", i, excl))
	}
	for i := 0; i < n; i++ {
		clauses = append(clauses, fmt.Sprintf("F x%d", i))
	}
	return strings.Join(clauses, " & ")
}

// matchedGroups returns the indices of every pool group that has a
// modification exposing r as a peering endpoint.
func matchedGroups(pool *GroupPool, r RouterID) []int {
	var out []int
	for _, idx := range pool.Indices() {
		g := pool.Group(idx)
		for _, mod := range g.Mods {
			if src, tgt, ok := mod.PeeringEndpoints(); ok && (src == r || tgt == r) {
				out = append(out, idx)
				break
			}
		}
	}
	return out
}

// prefixFormula builds P = x_p0 & XF(x_p1 & XF(... x_p(L-1))), the good
// prefix's enforcement formula. The caller must not pass an empty
// prefix; use "T" directly in that case.
func prefixFormula(prefix []int) string {
	expr := fmt.Sprintf("x%d", prefix[len(prefix)-1])
	for i := len(prefix) - 2; i >= 0; i-- {
		expr = fmt.Sprintf("x%d & XF(%s)", prefix[i], expr)
	}
	return expr
}

// update folds one stuck-point event into the cumulative formula: for
// each black-hole router r, the matching, not-yet-applied, non-stuck
// group indices must not let x_stuck occur strictly before them; this
// per-router constraint is guarded behind the current good prefix and
// conjoined onto Φ's head (spec §4.E, steps 1-4).
func (b *ltlBuilder) update(pool *GroupPool, blackHole []RouterID, prefix []int, stuck int) {
	inPrefix := toSet(prefix)

	var perRouter []string
	for _, r := range blackHole {
		var disj []string
		for _, m := range matchedGroups(pool, r) {
			if m == stuck || inPrefix[m] {
				continue
			}
			// !(!x_m U x_stuck): x_stuck must not occur strictly
			// before x_m.
			disj = append(disj, fmt.Sprintf("!(!x%d U x%d)", m, stuck))
		}
		if len(disj) > 0 {
			perRouter = append(perRouter, "("+strings.Join(disj, " | ")+")")
		}
	}
	constraints := "T"
	if len(perRouter) > 0 {
		constraints = strings.Join(perRouter, " & ")
	}

	p := "T"
	if len(prefix) > 0 {
		p = prefixFormula(prefix)
	}

	b.phi = fmt.Sprintf("(%s -> (%s)) & (%s)", p, constraints, b.phi)
}

func (b *ltlBuilder) formula() string { return b.phi }

var literalToken = regexp.MustCompile(`^\(*x(\d+)`)

// parseOracleResponse scans the oracle's stdout for a status line. Any
// lines before it are header lines and are ignored. If the status line
// is exactly "sat", every subsequent line is scanned for
// positively-asserted literals (tokens of the form xN or (xN; tokens
// beginning with ! are negated and skipped), in the order encountered.
// Any other status (including none found) reports sat=false.
func parseOracleResponse(output string) (sat bool, seq []int) {
	lines := strings.Split(output, "\n")
	statusIdx := -1
	for i, line := range lines {
		switch strings.TrimSpace(line) {
		case "sat":
			sat, statusIdx = true, i
		case "unsat":
			sat, statusIdx = false, i
		default:
			continue
		}
		break
	}
	if !sat || statusIdx < 0 {
		return false, nil
	}

	for _, line := range lines[statusIdx+1:] {
		for _, tok := range strings.FieldsFunc(line, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t'
		}) {
			if strings.HasPrefix(tok, "!") {
				continue
			}
			m := literalToken.FindStringSubmatch(tok)
			if m == nil {
				continue
			}
			idx, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			seq = append(seq, idx)
		}
	}
	return true, seq
}
