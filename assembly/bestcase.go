package assembly

import (
	"math"

	"github.com/prunepath/topolenum/histogram"
)

// BestCase returns the maximum score any completion of this assembly can
// achieve, and whether that bound is reachable at all. For every pair not
// yet accounted for, the minimum attainable final distance is
// dtr(a)+dtr(b)+1; the bound adds log of the best observed frequency at or
// beyond that distance, for every such pair, to the current score. If any
// unaccounted pair has no histogram entry at or beyond its minimum
// distance, the branch is unreachable.
func (a *Assembly) BestCase() (float64, bool) {
	if a.bestCaseValid {
		return a.bestCase, a.bestCaseReachable
	}

	dtr := a.distancesToRoot()
	accounted := a.pairsAccountedFor()

	total := a.Score
	leaves := a.ctx.LeavesMaster
	for i := 0; i < len(leaves); i++ {
		for j := i + 1; j < len(leaves); j++ {
			key := histogram.KeyOf(leaves[i], leaves[j])
			if _, ok := accounted[key]; ok {
				continue
			}
			minDist := dtr[leaves[i]] + dtr[leaves[j]] + 1
			maxFreq, ok := histogram.MaxFreqAtLeast(a.ctx.Histograms[key], minDist)
			if !ok {
				a.bestCase, a.bestCaseReachable = 0, false
				a.bestCaseValid = true
				return a.bestCase, a.bestCaseReachable
			}
			total += math.Log(maxFreq)
		}
	}
	a.bestCase, a.bestCaseReachable = total, true
	a.bestCaseValid = true
	return a.bestCase, a.bestCaseReachable
}

// SortKey orders the workspace frontier: while fewer than 40% of the nodes
// this tree needs have been built, favor early diversity by weighting
// toward the global best-possible score; afterward, reward density of
// pairs already accounted for as completion nears. Both
// branches are "decreasing is worse"; the frontier sorts descending.
func (a *Assembly) SortKey() float64 {
	built := a.BuiltNodesCount()
	total := a.ctx.TotalNodesToBuild
	accounted := len(a.pairsAccountedFor())

	if total == 0 || float64(built) < 0.4*float64(total) {
		if accounted == 0 {
			return a.ctx.BestPossible
		}
		return a.ctx.BestPossible + a.Score/float64(accounted)
	}
	bc, reachable := a.BestCase()
	if !reachable {
		return math.Inf(-1)
	}
	if built == 0 {
		return bc
	}
	return bc / float64(built)
}
