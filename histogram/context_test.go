package histogram_test

import (
	"testing"

	"github.com/prunepath/topolenum/histogram"
	"github.com/stretchr/testify/require"
)

func threeLeafRecords() []histogram.PairRecord {
	return []histogram.PairRecord{
		{LeafA: "a", LeafB: "b", Observations: []histogram.Observation{{Dist: 1, Freq: 0.9}}},
		{LeafA: "b", LeafB: "c", Observations: []histogram.Observation{{Dist: 1, Freq: 0.1}, {Dist: 2, Freq: 0.9}}},
		{LeafA: "a", LeafB: "c", Observations: []histogram.Observation{{Dist: 1, Freq: 0.1}, {Dist: 2, Freq: 0.9}}},
	}
}

func TestBuild_EmptyInput(t *testing.T) {
	_, err := histogram.Build(nil, 0.9, 0.01)
	require.ErrorIs(t, err, histogram.ErrEmptyInput)
}

func TestBuild_BadCutoff(t *testing.T) {
	_, err := histogram.Build(threeLeafRecords(), 1.5, 0.01)
	require.ErrorIs(t, err, histogram.ErrBadCutoff)
}

func TestBuild_SelfPair(t *testing.T) {
	recs := []histogram.PairRecord{{LeafA: "a", LeafB: "a"}}
	_, err := histogram.Build(recs, 0.9, 0.01)
	require.ErrorIs(t, err, histogram.ErrSelfPair)
}

func TestBuild_LeavesMasterSortedWithRanks(t *testing.T) {
	ctx, err := histogram.Build(threeLeafRecords(), 1.0, 0.01)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, ctx.LeavesMaster)
	require.Equal(t, 1, ctx.LeafRank["a"])
	require.Equal(t, 2, ctx.LeafRank["b"])
	require.Equal(t, 3, ctx.LeafRank["c"])
	require.Equal(t, 2, ctx.TotalNodesToBuild)
}

func TestBuild_ConstraintTableSortedByDistThenFreqDesc(t *testing.T) {
	ctx, err := histogram.Build(threeLeafRecords(), 1.0, 0.01)
	require.NoError(t, err)

	for i := 1; i < len(ctx.Constraints); i++ {
		prev, cur := ctx.Constraints[i-1], ctx.Constraints[i]
		require.True(t, prev.Dist < cur.Dist || (prev.Dist == cur.Dist && prev.Freq >= cur.Freq))
	}
}

func TestBuild_ConstraintCutoffPrunesLowProbabilityTail(t *testing.T) {
	// cutoff of 0.5 admits only the first (highest-freq) observation per pair.
	ctx, err := histogram.Build(threeLeafRecords(), 0.5, 0.01)
	require.NoError(t, err)
	require.Len(t, ctx.Constraints, 3)
}

func TestMaxFreqAtLeast(t *testing.T) {
	m := map[int]float64{1: 0.1, 2: 0.9, 3: 0.05}
	f, ok := histogram.MaxFreqAtLeast(m, 2)
	require.True(t, ok)
	require.Equal(t, 0.9, f)

	_, ok = histogram.MaxFreqAtLeast(map[int]float64{}, 1)
	require.False(t, ok)
}
