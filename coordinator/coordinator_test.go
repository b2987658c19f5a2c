package coordinator_test

import (
	"context"
	"testing"
	"time"

	"github.com/prunepath/topolenum/archive"
	"github.com/prunepath/topolenum/assembly"
	"github.com/prunepath/topolenum/clade"
	"github.com/prunepath/topolenum/coordinator"
	"github.com/prunepath/topolenum/encounter"
	"github.com/prunepath/topolenum/histogram"
	"github.com/stretchr/testify/require"
)

func twoLeafContext(t *testing.T) *histogram.Context {
	t.Helper()
	records := []histogram.PairRecord{
		{LeafA: "a", LeafB: "b", Observations: []histogram.Observation{{Dist: 1, Freq: 1.0}}},
	}
	ctx, err := histogram.Build(records, 0.5, 0.01)
	require.NoError(t, err)
	return ctx
}

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

func baseParams(t *testing.T, ctx *histogram.Context) coordinator.Params {
	t.Helper()
	return coordinator.Params{
		Ctx:                      ctx,
		Arena:                    clade.NewArena(),
		NumWorkers:               1,
		NumRequestedTopologies:   1,
		MaxWorkspaceSize:         100,
		MaxQueueSize:             64,
		FIFOMaxFileSize:          1 << 20,
		FIFOSizeCheckDelay:       8,
		AcceptanceRatioParam:     2.0,
		AcceptanceStiffnessParam: 1.0,
		WorkDir:                 t.TempDir(),
		SaveDir:                 t.TempDir(),
	}
}

func TestRun_RejectsZeroWorkers(t *testing.T) {
	p := baseParams(t, threeLeafContext(t))
	p.NumWorkers = 0
	_, err := coordinator.Run(context.Background(), p)
	require.ErrorIs(t, err, coordinator.ErrNoWorkers)
}

func TestRun_RejectsMissingContext(t *testing.T) {
	p := baseParams(t, threeLeafContext(t))
	p.Ctx = nil
	_, err := coordinator.Run(context.Background(), p)
	require.ErrorIs(t, err, coordinator.ErrMissingContext)
}

func TestRun_ThreeLeafSingleWorkerFindsUniqueTopology(t *testing.T) {
	p := baseParams(t, threeLeafContext(t))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := coordinator.Run(ctx, p)
	require.NoError(t, err)
	require.False(t, result.Interrupted)
	require.Len(t, result.Trees, 1)
	require.Equal(t, "((a,b),c);", result.Trees[0].Newick)
}

func TestRun_TwoLeafBoundaryProducesExactlyOneTree(t *testing.T) {
	p := baseParams(t, twoLeafContext(t))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := coordinator.Run(ctx, p)
	require.NoError(t, err)
	require.False(t, result.Interrupted)
	require.Len(t, result.Trees, 1)
}

// TestRun_MoreWorkersThanAvailableSeeds exercises freshSeeds' boundary when
// requesting more distinct seeds than a small leaf universe can produce:
// the two-leaf case yields its one complete tree as a pre-accepted result
// with zero Workers ever spawned.
func TestRun_MoreWorkersThanAvailableSeeds(t *testing.T) {
	p := baseParams(t, twoLeafContext(t))
	p.NumWorkers = 5

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := coordinator.Run(ctx, p)
	require.NoError(t, err)
	require.False(t, result.Interrupted)
	require.Len(t, result.Trees, 1)
}

// TestWriteSaveLoadRestart_RoundTrip exercises the save/restart machinery
// directly (bypassing Run's own termination timing, which is inherently
// racy to drive deterministically in a test) — the save/restart
// data-preservation half of a terminate-then-resume run.
func TestWriteSaveLoadRestart_RoundTrip(t *testing.T) {
	ctx := threeLeafContext(t)
	arena := clade.NewArena()
	seed, err := assembly.Seed(ctx, arena)
	require.NoError(t, err)
	encountered := encounter.NewLocal()
	children := seed.GenerateExtensions(encountered, nil)
	require.NotEmpty(t, children)
	partial := children[0]

	saveDir := t.TempDir()
	accepted := []archive.AcceptedTree{{Score: -5, Newick: "((a,b),c);"}}
	reprs := []string{"repr-a", "repr-b"}

	path, err := archive.Write(saveDir, "mid-run", []archive.UnfinishedAssembly{
		archive.FromAssembly(partial, ctx.LeafRank),
	}, reprs, accepted, archive.InvertLeafRank(ctx.LeafRank))
	require.NoError(t, err)

	loaded, err := archive.Read(path)
	require.NoError(t, err)
	require.Equal(t, reprs, loaded.Encountered)
	require.Equal(t, accepted, loaded.Accepted)
	require.Len(t, loaded.Unfinished, 1)

	rebuiltArena := clade.NewArena()
	rebuilt, err := archive.ToAssembly(loaded.Unfinished[0], ctx, rebuiltArena, loaded.LeafEncoding)
	require.NoError(t, err)
	require.Equal(t, partial.Score, rebuilt.Score)
	require.Equal(t, partial.NodesLeftToBuild(), rebuilt.NodesLeftToBuild())

	// Now hand that same archive to a fresh Run as RestartFrom: the
	// pre-accepted tree must appear in the final result even though no
	// Worker processes it.
	p := baseParams(t, ctx)
	p.RestartFrom = path

	runCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	result, err := coordinator.Run(runCtx, p)
	require.NoError(t, err)
	require.False(t, result.Interrupted)

	var found bool
	for _, tr := range result.Trees {
		if tr.Newick == "((a,b),c);" {
			found = true
		}
	}
	require.True(t, found, "restart run must carry forward the archive's accepted tree")
}
