package topolenum

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_MatchesSpecDefaults(t *testing.T) {
	cfg := DefaultConfig()
	require.Equal(t, DefaultNumRequestedTopologies, cfg.NumRequestedTopologies)
	require.Equal(t, DefaultConstraintFreqCutoff, cfg.ConstraintFreqCutoff)
	require.Equal(t, DefaultAbsoluteFreqCutoff, cfg.AbsoluteFreqCutoff)
	require.Equal(t, DefaultMaxWorkspaceSize, cfg.MaxWorkspaceSize)
	require.Equal(t, DefaultMaxQueueSize, cfg.MaxQueueSize)
	require.Equal(t, DefaultFIFOMaxFileSize, cfg.FIFOMaxFileSize)
	require.Equal(t, DefaultSaveFileName, cfg.SaveFileName)
	require.Equal(t, DefaultTerminatorFile, cfg.TerminatorFile)
	require.Greater(t, cfg.NumWorkers, 0)
}

func TestResolve_AppliesOptionsOverDefaults(t *testing.T) {
	_, params, err := resolve([]Option{
		WithNumWorkers(4),
		WithNumRequestedTopologies(5),
		WithFIFOMaxFileSize("2GB"),
		WithMaxQueueSize(42),
	})
	require.NoError(t, err)
	require.Equal(t, 4, params.NumWorkers)
	require.Equal(t, 5, params.NumRequestedTopologies)
	require.Equal(t, int64(2*1024*1024*1024), params.FIFOMaxFileSize)
	require.Equal(t, 42, params.MaxQueueSize)
}

func TestResolve_RejectsBadFIFOSize(t *testing.T) {
	_, _, err := resolve([]Option{WithFIFOMaxFileSize("not-a-size")})
	require.ErrorIs(t, err, ErrBadFIFOSize)
}
