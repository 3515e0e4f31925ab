package reorder

import "math/rand"

// stackFrame is a single level of the Search Driver's exploration stack.
// It holds the candidate group indices still to try at this depth
// (shuffled once at construction), the next position to probe, and the
// number of simulator/policy undo operations needed to revert the group
// application that produced this frame's parent transition.
type stackFrame struct {
	remGroups []int // candidate group indices still to try at this depth
	idx       int   // next position in remGroups to probe
	numUndo   int   // undo operations to revert this frame's applied group
}

// newStackFrame materializes options into a slice and shuffles it
// uniformly at random using rng, matching the reference strategy's
// StackFrame::new (shuffle-on-construct, for tie-break order in the
// Option Prober). numUndo is the length of the group that produced the
// parent transition (0 for the root frame).
func newStackFrame(options []int, numUndo int, rng *rand.Rand) *stackFrame {
	rem := make([]int, len(options))
	copy(rem, options)
	rng.Shuffle(len(rem), func(i, j int) { rem[i], rem[j] = rem[j], rem[i] })
	return &stackFrame{remGroups: rem, idx: 0, numUndo: numUndo}
}

// exhausted reports whether every candidate at this depth has been
// tried.
func (f *stackFrame) exhausted() bool {
	return f.idx >= len(f.remGroups)
}
