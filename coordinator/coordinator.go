package coordinator

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/prunepath/topolenum/archive"
	"github.com/prunepath/topolenum/assembly"
	"github.com/prunepath/topolenum/encounter"
	"github.com/prunepath/topolenum/worker"
	"github.com/prunepath/topolenum/workspace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultMaxQueueSize = 10000

// Run drives one full enumeration end to end: it seeds
// NumWorkers Workers either from scratch or from a restart archive, fans
// them out with errgroup, mediates their shared min-score floor from the
// score-report stream, and on any shutdown trigger either returns the
// accumulated top-K trees or writes a save archive and reports
// Interrupted.
func Run(ctx context.Context, p Params) (*Result, error) {
	if p.NumWorkers < 1 {
		return nil, ErrNoWorkers
	}
	if p.Ctx == nil || p.Arena == nil {
		return nil, ErrMissingContext
	}
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	workDir := p.WorkDir
	ownsWorkDir := workDir == ""
	if ownsWorkDir {
		var err error
		workDir, err = os.MkdirTemp("", "topolenum-work-*")
		if err != nil {
			return nil, fmt.Errorf("coordinator: create work dir: %w", err)
		}
	}
	if ownsWorkDir {
		defer os.RemoveAll(workDir)
	}

	minScore := workspace.NewMinScore(math.Inf(-1))

	var encountered *encounter.Shared
	var unfinished []*assembly.Assembly
	var preAccepted []archive.AcceptedTree

	if p.RestartFrom != "" {
		loaded, err := loadRestart(p.RestartFrom, p.Ctx, p.Arena)
		if err != nil {
			return nil, err
		}
		encountered = preloadEncountered(loaded.Encountered)
		unfinished = loaded.Unfinished
		preAccepted = loaded.Accepted
	} else {
		encountered = encounter.NewShared()
		seeds, completed, err := freshSeeds(p.Ctx, p.Arena, encountered, p.NumWorkers)
		if err != nil {
			return nil, err
		}
		unfinished = seeds
		for _, c := range completed {
			preAccepted = append(preAccepted, archive.FromAcceptedAssembly(c))
		}
	}

	floor := newTopKFloor(p.NumRequestedTopologies)
	for _, t := range preAccepted {
		if f, have := floor.Add(t.Score); have {
			minScore.Bump(f)
		}
	}

	if len(unfinished) == 0 {
		// Nothing left to assign a single Worker, and nothing was
		// assembled pre-run either: the single-leaf boundary case.
		if len(preAccepted) == 0 {
			return &Result{}, nil
		}
		return &Result{Trees: acceptedToTrees(preAccepted, p.NumRequestedTopologies)}, nil
	}

	perWorkerSeed, surplus := splitSeeds(unfinished, p.NumWorkers)

	maxQueueSize := p.MaxQueueSize
	if maxQueueSize <= 0 {
		maxQueueSize = defaultMaxQueueSize
	}
	inbound := make(chan []byte, maxQueueSize)

	// Restart semantics: load ~10% of max_queue_size before
	// Workers are unblocked, the rest afterward under back-pressure. Fresh
	// runs rarely produce enough surplus for this split to matter, but the
	// same helper handles both paths uniformly.
	initialBatch := maxQueueSize / 10
	if initialBatch > len(surplus) {
		initialBatch = len(surplus)
	}
	for _, a := range surplus[:initialBatch] {
		payload, err := a.Compress()
		if err != nil {
			return nil, fmt.Errorf("coordinator: compress surplus seed: %w", err)
		}
		inbound <- payload
	}
	deferredSurplus := surplus[initialBatch:]

	scoreReports := make(chan float64, 256)
	workers := make([]*worker.Worker, p.NumWorkers)
	for i := 0; i < p.NumWorkers; i++ {
		var seed *assembly.Assembly
		if i < len(perWorkerSeed) {
			seed = perWorkerSeed[i]
		}
		w, err := worker.New(worker.Config{
			ID:                       fmt.Sprintf("w%d", i),
			Ctx:                      p.Ctx,
			Arena:                    p.Arena,
			Encountered:              encountered,
			MinScore:                 minScore,
			Seed:                     seed,
			MaxWorkspaceSize:         p.MaxWorkspaceSize,
			NumRequested:             p.NumRequestedTopologies,
			FIFODir:                  filepath.Join(workDir, fmt.Sprintf("w%d", i)),
			FIFOMaxFileSize:          p.FIFOMaxFileSize,
			FIFOSizeCheckDelay:       p.FIFOSizeCheckDelay,
			Inbound:                  inbound,
			AcceptanceRatioParam:     p.AcceptanceRatioParam,
			AcceptanceStiffnessParam: p.AcceptanceStiffnessParam,
			ScoreReports:             scoreReports,
			Logger:                   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("coordinator: new worker %d: %w", i, err)
		}
		workers[i] = w
	}

	stop := make(chan struct{})
	var stopOnce sync.Once
	triggerStop := func() { stopOnce.Do(func() { close(stop) }) }

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	// Deferred surplus/restart overflow streams in once Workers are
	// already consuming, so these blocking sends apply real back-pressure
	// instead of racing an empty inbound buffer at startup.
	go func() {
		for _, a := range deferredSurplus {
			payload, err := a.Compress()
			if err != nil {
				logger.Error("coordinator: compress deferred seed", zap.Error(err))
				return
			}
			select {
			case inbound <- payload:
			case <-stop:
				return
			case <-runCtx.Done():
				return
			}
		}
	}()

	if p.TerminatorFile != "" {
		go pollTerminatorFile(runCtx, p.TerminatorFile, triggerStop)
	}
	var terminateTimer *time.Timer
	if p.TerminateAfter > 0 {
		terminateTimer = time.AfterFunc(p.TerminateAfter, triggerStop)
		defer terminateTimer.Stop()
	}

	// A plain Group, not WithContext: workers run on runCtx directly and
	// must not be cancelled by a sibling's error. errgroup here is only
	// fan-out-and-collect, not fail-fast cancellation.
	var g errgroup.Group

	results := make([]workerResult, p.NumWorkers)
	for i, w := range workers {
		i, w := i, w
		g.Go(func() error {
			accepted, unf, err := w.Run(runCtx, stop)
			results[i] = workerResult{accepted: accepted, unfinished: unf}
			if err != nil {
				logger.Error("coordinator: worker failed", zap.String("worker", w.ID()), zap.Error(err))
			}
			return nil
		})
	}

	reportsDone := make(chan struct{})
	var reportsSeen int
	runStarted := time.Now()
	go func() {
		defer close(reportsDone)
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case s, ok := <-scoreReports:
				if !ok {
					return
				}
				reportsSeen++
				if f, have := floor.Add(s); have {
					minScore.Bump(f)
				}
			case <-ticker.C:
				if p.Observer != nil {
					p.Observer(Status{ReportsSeen: reportsSeen, MinScore: minScore.Load(), Elapsed: time.Since(runStarted)})
				}
			case <-runCtx.Done():
				return
			case <-stop:
				return
			}
		}
	}()

	gDone := waitGroup(&g)
	select {
	case <-ctx.Done():
		triggerStop()
	case <-stop:
	case <-gDone:
		triggerStop()
	}

	<-gDone
	<-reportsDone

	var allAccepted []*assembly.Assembly
	var allUnfinished []*assembly.Assembly
	for _, r := range results {
		allAccepted = append(allAccepted, r.accepted...)
		allUnfinished = append(allUnfinished, r.unfinished...)
	}

	trees := append([]archive.AcceptedTree{}, preAccepted...)
	for _, a := range allAccepted {
		trees = append(trees, archive.FromAcceptedAssembly(a))
	}

	interrupted := len(allUnfinished) > 0 || ctxDone(ctx)
	if !interrupted {
		return &Result{Trees: acceptedToTrees(trees, p.NumRequestedTopologies)}, nil
	}

	saveDir := p.SaveDir
	if saveDir == "" {
		saveDir = "."
	}
	stem := saveFileStem(p.SaveFileName, time.Now())
	path, err := writeSave(saveDir, stem, p.Ctx, allUnfinished, encountered.Snapshot(), trees)
	if err != nil {
		return nil, err
	}
	return &Result{Interrupted: true, SavePath: path}, nil
}

type workerResult struct {
	accepted   []*assembly.Assembly
	unfinished []*assembly.Assembly
}

// splitSeeds divides seeds into the first numWorkers (one per Worker) and
// whatever remains (surplus): one seed per Worker, any surplus routed
// through the inbound queue instead of being discarded.
func splitSeeds(seeds []*assembly.Assembly, numWorkers int) (perWorker, surplus []*assembly.Assembly) {
	if len(seeds) <= numWorkers {
		return seeds, nil
	}
	return seeds[:numWorkers], seeds[numWorkers:]
}

// acceptedToTrees sorts trees by score descending and trims to the top k
// (k <= 0 means no cap).
func acceptedToTrees(trees []archive.AcceptedTree, k int) []Tree {
	sort.Slice(trees, func(i, j int) bool { return trees[i].Score > trees[j].Score })
	if k > 0 && len(trees) > k {
		trees = trees[:k]
	}
	out := make([]Tree, len(trees))
	for i, t := range trees {
		out[i] = Tree{Score: t.Score, Newick: t.Newick}
	}
	return out
}

// pollTerminatorFile checks for p.TerminatorFile's presence every second
// until it appears, stop fires, or ctx is done — a soft shutdown trigger.
func pollTerminatorFile(ctx context.Context, path string, trigger func()) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if _, err := os.Stat(path); err == nil {
				trigger()
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func ctxDone(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// waitGroup adapts errgroup.Group's blocking Wait into a channel so it can
// sit alongside ctx.Done()/stop in a select.
func waitGroup(g *errgroup.Group) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()
	return done
}
