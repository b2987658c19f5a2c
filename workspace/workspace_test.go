package workspace_test

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/prunepath/topolenum/assembly"
	"github.com/prunepath/topolenum/clade"
	"github.com/prunepath/topolenum/encounter"
	"github.com/prunepath/topolenum/histogram"
	"github.com/prunepath/topolenum/spillfifo"
	"github.com/prunepath/topolenum/workspace"
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

func newTestWorkspace(t *testing.T, ctx *histogram.Context, arena *clade.Arena) *workspace.Workspace {
	t.Helper()
	fifo, err := spillfifo.NewShared(filepath.Join(t.TempDir(), "spill"), 1<<20, 8, nil)
	require.NoError(t, err)
	require.NoError(t, fifo.StartOutEnd())
	require.NoError(t, fifo.StartInEnd())
	t.Cleanup(func() {
		require.NoError(t, fifo.CloseConsumer())
		require.NoError(t, fifo.CloseProducer())
	})

	// No QueueLoader in this unit test: an empty, never-written inbound
	// channel means topoff always finds nothing ready, which is fine for
	// exercising Iterate without the worker package's plumbing.
	inbound := make(chan []byte)

	return workspace.New(workspace.Config{
		Ctx:                      ctx,
		Arena:                    arena,
		Encountered:              encounter.NewLocal(),
		MinScore:                 workspace.NewMinScore(math.Inf(-1)),
		FIFO:                     fifo,
		Inbound:                  inbound,
		MaxWorkspaceSize:         100,
		NumRequested:             1,
		AcceptanceRatioParam:     2.0,
		AcceptanceStiffnessParam: 1.0,
	})
}

func TestWorkspace_SeedAndIterateReachesAccepted(t *testing.T) {
	ctx := threeLeafContext(t)
	arena := clade.NewArena()
	seed, err := assembly.Seed(ctx, arena)
	require.NoError(t, err)

	ws := newTestWorkspace(t, ctx, arena)
	ws.Seed(seed)

	for i := 0; i < 5 && len(ws.Accepted()) == 0; i++ {
		require.NoError(t, ws.Iterate(nil))
	}

	accepted := ws.Accepted()
	require.Len(t, accepted, 1)
	require.Equal(t, "((a,b),c);", accepted[0].Newick())
}

func TestMinScore_BumpIsMonotone(t *testing.T) {
	m := workspace.NewMinScore(-100)
	require.True(t, m.Bump(-5))
	require.Equal(t, -5.0, m.Load())
	require.False(t, m.Bump(-10)) // lower than current: no-op
	require.Equal(t, -5.0, m.Load())
	require.True(t, m.Bump(0))
	require.Equal(t, 0.0, m.Load())
}
