package archive_test

import (
	"testing"

	"github.com/prunepath/topolenum/archive"
	"github.com/prunepath/topolenum/assembly"
	"github.com/prunepath/topolenum/clade"
	"github.com/prunepath/topolenum/encounter"
	"github.com/stretchr/testify/require"
)

func TestFromAssembly_ToAssembly_RoundTrip(t *testing.T) {
	ctx := threeLeafContext(t)
	arena := clade.NewArena()
	seed, err := assembly.Seed(ctx, arena)
	require.NoError(t, err)
	children := seed.GenerateExtensions(encounter.NewLocal(), nil)
	require.NotEmpty(t, children)
	original := children[0]

	rank := ctx.LeafRank
	record := archive.FromAssembly(original, rank)

	rebuiltArena := clade.NewArena()
	rebuilt, err := archive.ToAssembly(record, ctx, rebuiltArena, archive.InvertLeafRank(rank))
	require.NoError(t, err)

	require.Equal(t, original.Score, rebuilt.Score)
	require.Equal(t, original.NodesLeftToBuild(), rebuilt.NodesLeftToBuild())
	require.ElementsMatch(t, original.Arena().LeafNames(original.BuiltClades[0]), rebuiltArena.LeafNames(rebuilt.BuiltClades[0]))
}

func TestFromAcceptedAssembly(t *testing.T) {
	ctx := threeLeafContext(t)
	arena := clade.NewArena()
	seed, err := assembly.Seed(ctx, arena)
	require.NoError(t, err)

	encountered := encounter.NewLocal()
	current := seed
	for i := 0; i < 10 && !current.Complete(); i++ {
		children := current.GenerateExtensions(encountered, nil)
		require.NotEmpty(t, children)
		current = children[0]
	}
	require.True(t, current.Complete())

	tree := archive.FromAcceptedAssembly(current)
	require.Equal(t, current.Score, tree.Score)
	require.Equal(t, current.Newick(), tree.Newick)
}

func TestInvertLeafRank(t *testing.T) {
	rank := map[string]int{"a": 1, "b": 2, "c": 3}
	inv := archive.InvertLeafRank(rank)
	require.Equal(t, map[int]string{1: "a", 2: "b", 3: "c"}, inv)
}
