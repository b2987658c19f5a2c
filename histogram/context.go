package histogram

import (
	"math"
	"sort"
)

// Context is the immutable, process-global bundle every Assembly in a run
// shares by reference: the constraint table, the full pairwise histogram,
// the sorted leaf universe, and a couple of derived constants used by the
// best-case/sort-key formulas. Nothing in Context is mutated after Build
// returns.
type Context struct {
	Constraints       ConstraintTable
	Histograms        PairHistogramMap
	LeavesMaster      []string // sorted, defines canonical leaf rank
	LeafRank          map[string]int
	TotalNodesToBuild int
	BestPossible      float64
	AbsoluteFreqCutoff float64
}

// Build validates the input histogram and constructs the shared Context
// for a run: the ConstraintTable (cutoff-pruned, sorted) and the full
// PairHistogramMap used later to verify derived distances.
func Build(records []PairRecord, constraintFreqCutoff, absoluteFreqCutoff float64) (*Context, error) {
	if len(records) == 0 {
		return nil, ErrEmptyInput
	}
	if constraintFreqCutoff <= 0 || constraintFreqCutoff > 1 {
		return nil, ErrBadCutoff
	}

	phm, sorted, err := buildHistogramMap(records)
	if err != nil {
		return nil, err
	}
	table := buildConstraintTable(sorted, constraintFreqCutoff)

	leafSet := make(map[string]struct{})
	for _, r := range records {
		leafSet[r.LeafA] = struct{}{}
		leafSet[r.LeafB] = struct{}{}
	}
	leaves := make([]string, 0, len(leafSet))
	for l := range leafSet {
		leaves = append(leaves, l)
	}
	sort.Strings(leaves)

	rank := make(map[string]int, len(leaves))
	for i, l := range leaves {
		rank[l] = i + 1 // 1-based, per the archive's leaf encoding contract
	}

	ctx := &Context{
		Constraints:        table,
		Histograms:         phm,
		LeavesMaster:       leaves,
		LeafRank:           rank,
		TotalNodesToBuild:  len(leaves) - 1,
		AbsoluteFreqCutoff: absoluteFreqCutoff,
	}
	ctx.BestPossible = computeBestPossible(ctx)
	return ctx, nil
}

// computeBestPossible is the best_case value of the seed state: every leaf
// is free (distance-to-root 0), so the minimum attainable distance for
// every pair is 1, and the bound is the sum of log(max observed freq at
// dist>=1) across every pair in the universe.
func computeBestPossible(ctx *Context) float64 {
	total := 0.0
	for i := 0; i < len(ctx.LeavesMaster); i++ {
		for j := i + 1; j < len(ctx.LeavesMaster); j++ {
			key := KeyOf(ctx.LeavesMaster[i], ctx.LeavesMaster[j])
			maxFreq, ok := maxFreqAtLeast(ctx.Histograms[key], 1)
			if !ok {
				return math.Inf(-1)
			}
			total += math.Log(maxFreq)
		}
	}
	return total
}

// maxFreqAtLeast returns the maximum frequency among histogram entries
// whose distance is >= minDist, or false if none exist.
func maxFreqAtLeast(byDist map[int]float64, minDist int) (float64, bool) {
	best, found := 0.0, false
	for d, f := range byDist {
		if d < minDist {
			continue
		}
		if !found || f > best {
			best, found = f, true
		}
	}
	return best, found
}

// MaxFreqAtLeast exposes maxFreqAtLeast for use by the assembly package's
// best_case computation.
func MaxFreqAtLeast(byDist map[int]float64, minDist int) (float64, bool) {
	return maxFreqAtLeast(byDist, minDist)
}
