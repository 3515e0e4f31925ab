package reorder

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func factorial(n int) int {
	out := 1
	for i := 2; i <= n; i++ {
		out *= i
	}
	return out
}

// TestTreePermutator_Completeness covers universal property 3: for an
// input of length n, the permutator emits exactly n! permutations, and
// the emitted set equals the full set of permutations of the input.
func TestTreePermutator_Completeness(t *testing.T) {
	for _, n := range []int{0, 1, 2, 3, 4, 5} {
		input := make([]int, n)
		for i := range input {
			input[i] = i
		}

		perm := NewTreePermutator[int](input)
		seen := map[string]bool{}
		count := 0
		for {
			p, ok := perm.Next()
			if !ok {
				break
			}
			count++
			key := fmtKey(p)
			require.Falsef(t, seen[key], "permutation %v emitted twice for n=%d", p, n)
			seen[key] = true
		}

		assert.Equalf(t, factorial(n), count, "n=%d", n)
	}
}

// TestTreePermutator_Ordering covers universal property 4: the emitted
// sequence equals lexicographic order over the sorted-index tuples.
func TestTreePermutator_Ordering(t *testing.T) {
	input := []int{10, 20, 30, 40}
	perm := NewTreePermutator[int](input)

	var got [][]int
	for {
		p, ok := perm.Next()
		if !ok {
			break
		}
		got = append(got, append([]int(nil), p...))
	}

	want := append([][]int(nil), got...)
	sort.Slice(want, func(i, j int) bool {
		for k := range want[i] {
			if want[i][k] != want[j][k] {
				return want[i][k] < want[j][k]
			}
		}
		return false
	})

	assert.Equal(t, want, got)
}

// TestTreePermutator_Pruning covers universal property 5: after
// FailPos(p), no subsequent output shares the length-(p+1) prefix with
// the output at which pruning was requested.
func TestTreePermutator_Pruning(t *testing.T) {
	perm := NewTreePermutator[int]([]int{1, 2, 3, 4})

	first, ok := perm.Next()
	require.True(t, ok)

	prunedPrefix := append([]int(nil), first[:2]...)
	perm.FailPos(1)

	for {
		p, ok := perm.Next()
		if !ok {
			break
		}
		assert.NotEqual(t, prunedPrefix, p[:2])
	}
}

// TestTreePermutator_S7 covers scenario S7 exactly: permutator on
// [A,B,C] with fail_pos(0) after the first emission.
func TestTreePermutator_S7(t *testing.T) {
	perm := NewTreePermutator[string]([]string{"A", "B", "C"})

	first, ok := perm.Next()
	require.True(t, ok)
	assert.Equal(t, []string{"A", "B", "C"}, first)

	perm.FailPos(0)

	want := [][]string{
		{"B", "A", "C"},
		{"B", "C", "A"},
		{"C", "A", "B"},
		{"C", "B", "A"},
	}
	for _, w := range want {
		got, ok := perm.Next()
		require.True(t, ok)
		assert.Equal(t, w, got)
	}

	_, ok = perm.Next()
	assert.False(t, ok)
}

func fmtKey(p []int) string {
	b := make([]byte, 0, len(p)*4)
	for _, v := range p {
		b = append(b, byte(v), byte(v>>8), ',')
	}
	return string(b)
}
