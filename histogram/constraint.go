package histogram

import "sort"

// ConstraintTable is the ordered sequence of LPDFs an Assembly's
// constraint_idx indexes into: built once, sorted by (dist ascending,
// freq descending), and shared read-only by every Assembly in a run.
type ConstraintTable []LPDF

// buildConstraintTable takes, for each pair, observations in freq-descending
// order for as long as the cumulative frequency of those already taken is
// still strictly below cutoff (so the observation that reaches or crosses
// cutoff is itself kept), emits one LPDF per retained (dist,freq), and returns the whole
// set sorted by (dist ascending, freq descending). This explores the most
// probable short distances first and is fully deterministic.
func buildConstraintTable(sorted map[PairKey][]Observation, cutoff float64) ConstraintTable {
	var table ConstraintTable
	for pair, obs := range sorted {
		running := 0.0
		for _, o := range obs {
			if running >= cutoff {
				break
			}
			table = append(table, LPDF{Pair: pair, Dist: o.Dist, Freq: o.Freq})
			running += o.Freq
		}
	}
	sort.SliceStable(table, func(i, j int) bool {
		if table[i].Dist != table[j].Dist {
			return table[i].Dist < table[j].Dist
		}
		if table[i].Freq != table[j].Freq {
			return table[i].Freq > table[j].Freq
		}
		// sorted's map iteration order is randomized, so without this the
		// relative order of equal (Dist,Freq) entries would vary run to run.
		if table[i].Pair[0] != table[j].Pair[0] {
			return table[i].Pair[0] < table[j].Pair[0]
		}
		return table[i].Pair[1] < table[j].Pair[1]
	})
	return table
}
