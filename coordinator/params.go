package coordinator

import (
	"time"

	"github.com/prunepath/topolenum/clade"
	"github.com/prunepath/topolenum/histogram"
	"go.uber.org/zap"
)

// Tree is one scored, Newick-serialized accepted topology.
type Tree struct {
	Score  float64
	Newick string
}

// Status is what Observer is called with periodically while Run is in
// progress: a periodic elapsed-time / worst-accepted-score report.
type Status struct {
	ReportsSeen int
	MinScore    float64
	Elapsed     time.Duration
}

// Observer is a reporting hook Run consults periodically while a run is
// in progress.
type Observer func(Status)

// Result is Run's outcome: up to K scored trees sorted by score
// descending, or, when a termination trigger fired before the search
// exhausted itself, Interrupted plus the save archive's path.
type Result struct {
	Trees       []Tree
	Interrupted bool
	SavePath    string
}

// Params bundles one Run invocation's configuration, already defaulted
// and validated by the caller (the root topolenum package's Config/Option
// surface).
type Params struct {
	Ctx   *histogram.Context
	Arena *clade.Arena

	NumWorkers             int
	NumRequestedTopologies int
	MaxWorkspaceSize       int
	MaxQueueSize           int

	FIFOMaxFileSize    int64
	FIFOSizeCheckDelay int

	AcceptanceRatioParam     float64
	AcceptanceStiffnessParam float64

	// WorkDir holds every per-worker FIFO's spool directory. It is
	// entirely scratch space. When empty, Run creates a fresh temp dir and
	// removes it before returning, regardless of outcome; a caller-supplied
	// WorkDir is left in place by Run itself.
	WorkDir string

	// SaveDir is where a save archive is written on interrupt. Unlike
	// WorkDir this is never removed by Run. Defaults to ".", a
	// cwd-relative archive path.
	SaveDir string

	SaveFileName   string
	RestartFrom    string
	TerminateAfter time.Duration
	TerminatorFile string
	Observer       Observer

	Logger *zap.Logger
}
