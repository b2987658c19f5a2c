package topolenum

import (
	"context"
	"testing"
	"time"

	"github.com/prunepath/topolenum/histogram"
	"github.com/stretchr/testify/require"
)

func TestEnumerate_ThreeLeafFindsUniqueTopology(t *testing.T) {
	records := []LeafPairHistogram{
		{LeafA: "a", LeafB: "b", Observations: []histogram.Observation{{Dist: 1, Freq: 0.9}}},
		{LeafA: "b", LeafB: "c", Observations: []histogram.Observation{{Dist: 1, Freq: 0.1}, {Dist: 2, Freq: 0.9}}},
		{LeafA: "a", LeafB: "c", Observations: []histogram.Observation{{Dist: 1, Freq: 0.1}, {Dist: 2, Freq: 0.9}}},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := Enumerate(ctx, records,
		WithNumWorkers(1),
		WithNumRequestedTopologies(1),
		WithConstraintFreqCutoff(1.0),
		WithAbsoluteFreqCutoff(0.01),
		WithWorkDir(t.TempDir()),
		WithSaveDir(t.TempDir()),
	)
	require.NoError(t, err)
	require.False(t, result.Interrupted)
	require.Len(t, result.Trees, 1)
	require.Equal(t, "((a,b),c);", result.Trees[0].Newick)
}

func TestEnumerate_BadFIFOSizeFailsFast(t *testing.T) {
	records := []LeafPairHistogram{
		{LeafA: "a", LeafB: "b", Observations: []histogram.Observation{{Dist: 1, Freq: 1.0}}},
	}
	_, err := Enumerate(context.Background(), records, WithFIFOMaxFileSize("bogus"))
	require.ErrorIs(t, err, ErrBadFIFOSize)
}

func TestEnumerate_EmptyInputRejected(t *testing.T) {
	_, err := Enumerate(context.Background(), nil)
	require.ErrorIs(t, err, histogram.ErrEmptyInput)
}
