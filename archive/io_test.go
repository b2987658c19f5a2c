package archive_test

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/prunepath/topolenum/archive"
	"github.com/prunepath/topolenum/assembly"
	"github.com/prunepath/topolenum/clade"
	"github.com/prunepath/topolenum/encounter"
	"github.com/prunepath/topolenum/histogram"
	"github.com/stretchr/testify/require"
)

func threeLeafContext(t *testing.T) *histogram.Context {
	t.Helper()
	records := []histogram.PairRecord{
		{LeafA: "a", LeafB: "b", Observations: []histogram.Observation{{Dist: 1, Freq: 0.9}}},
		{LeafA: "b", LeafB: "c", Observations: []histogram.Observation{{Dist: 1, Freq: 0.1}, {Dist: 2, Freq: 0.9}}},
		{LeafA: "a", LeafB: "c", Observations: []histogram.Observation{{Dist: 1, Freq: 0.1}, {Dist: 2, Freq: 0.9}}},
	}
	ctx, err := histogram.Build(records, 1.0, 0.01)
	require.NoError(t, err)
	return ctx
}

func TestWriteRead_RoundTrip(t *testing.T) {
	ctx := threeLeafContext(t)
	arena := clade.NewArena()
	seed, err := assembly.Seed(ctx, arena)
	require.NoError(t, err)
	children := seed.GenerateExtensions(encounter.NewLocal(), nil)
	require.NotEmpty(t, children)
	partial := children[0]

	rank := ctx.LeafRank
	unfinished := []archive.UnfinishedAssembly{
		archive.FromAssembly(partial, rank),
	}
	encountered := []string{"repr-one", "repr-two"}
	accepted := []archive.AcceptedTree{
		{Score: -12.5, Newick: "((a,b),c);"},
	}
	leafEncoding := archive.InvertLeafRank(rank)

	dir := t.TempDir()
	path, err := archive.Write(dir, "save", unfinished, encountered, accepted, leafEncoding)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "save.tar.gz"), path)

	got, err := archive.Read(path)
	require.NoError(t, err)
	require.Equal(t, leafEncoding, got.LeafEncoding)
	require.Equal(t, encountered, got.Encountered)
	require.Equal(t, accepted, got.Accepted)
	require.Len(t, got.Unfinished, 1)
	require.Equal(t, unfinished[0].Score, got.Unfinished[0].Score)
	require.Equal(t, unfinished[0].NodesLeftToBuild, got.Unfinished[0].NodesLeftToBuild)
	require.Equal(t, unfinished[0].BuiltClades, got.Unfinished[0].BuiltClades)
}

func TestRead_NonexistentFile(t *testing.T) {
	dir := t.TempDir()
	_, err := archive.Read(filepath.Join(dir, "does-not-exist.tar.gz"))
	require.Error(t, err)
}

func TestWriteRead_InfiniteBestCaseSurvives(t *testing.T) {
	rank := map[string]int{"a": 1}

	u := archive.UnfinishedAssembly{
		BuiltClades:      []string{"1"},
		Score:            0,
		BestCase:         math.Inf(-1),
		NodesLeftToBuild: 2,
	}

	dir := t.TempDir()
	path, err := archive.Write(dir, "save", []archive.UnfinishedAssembly{u}, nil, nil, archive.InvertLeafRank(rank))
	require.NoError(t, err)

	got, err := archive.Read(path)
	require.NoError(t, err)
	require.Len(t, got.Unfinished, 1)
	require.True(t, math.IsInf(got.Unfinished[0].BestCase, -1))
}
