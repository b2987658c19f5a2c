package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prunepath/topolenum/assembly"
	"github.com/prunepath/topolenum/clade"
	"github.com/prunepath/topolenum/histogram"
	"github.com/prunepath/topolenum/spillfifo"
	"github.com/prunepath/topolenum/workspace"
	"go.uber.org/zap"
)

// Config bundles one Worker's construction-time parameters.
type Config struct {
	ID string // defaults to a fresh uuid if empty

	Ctx         *histogram.Context
	Arena       *clade.Arena
	Encountered assembly.EncounteredSet
	MinScore    *workspace.MinScore
	Seed        *assembly.Assembly

	MaxWorkspaceSize int
	NumRequested     int

	FIFODir            string
	FIFOMaxFileSize    int64
	FIFOSizeCheckDelay int

	// Inbound is the channel this Worker's QueueLoader forwards popped
	// FIFO payloads into and its Workspace tops off from. The Coordinator
	// hands every Worker the SAME channel instance so that one Worker's
	// spill overflow can be picked up by any other Worker's topoff.
	// Nil (the zero value) makes New allocate a private channel, which is
	// what a standalone single-Worker test wants.
	Inbound chan []byte

	AcceptanceRatioParam     float64
	AcceptanceStiffnessParam float64

	// ScoreReports receives the score of every newly accepted complete
	// assembly. A full channel drops the report (logged at Warn); the
	// assembly itself stays in this Worker's accepted list and is still
	// returned from Run, so a missed report only delays a floor bump, it
	// never loses a result.
	ScoreReports chan<- float64

	Logger *zap.Logger
}

// Worker runs one goroutine-local search loop: a Workspace plus the spill
// FIFO and QueueLoader that feed it.
type Worker struct {
	id      string
	ctx     *histogram.Context
	arena   *clade.Arena
	ws      *workspace.Workspace
	fifo    *spillfifo.Shared
	inbound chan []byte
	// ownsInbound is true when inbound is a private channel New allocated
	// (cfg.Inbound was nil). Only the owner's QueueLoader may close it: a
	// Coordinator-supplied shared channel is written to by every Worker's
	// QueueLoader, and closing a channel other goroutines still send on
	// panics.
	ownsInbound bool
	logger      *zap.Logger

	scoreReports chan<- float64
	reported     int
}

// New constructs a Worker: starts its spill FIFO (both ends, since the
// Workspace is the sole producer and the QueueLoader is the sole consumer)
// and seeds its Workspace if cfg.Seed is set.
func New(cfg Config) (*Worker, error) {
	id := cfg.ID
	if id == "" {
		id = uuid.NewString()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	fifo, err := spillfifo.NewShared(cfg.FIFODir, cfg.FIFOMaxFileSize, cfg.FIFOSizeCheckDelay, logger)
	if err != nil {
		return nil, fmt.Errorf("worker %s: new fifo: %w", id, err)
	}
	if err := fifo.StartOutEnd(); err != nil {
		return nil, fmt.Errorf("worker %s: start fifo out end: %w", id, err)
	}
	if err := fifo.StartInEnd(); err != nil {
		return nil, fmt.Errorf("worker %s: start fifo in end: %w", id, err)
	}

	inbound := cfg.Inbound
	ownsInbound := inbound == nil
	if ownsInbound {
		inbound = make(chan []byte, 64)
	}
	ws := workspace.New(workspace.Config{
		Ctx:                      cfg.Ctx,
		Arena:                    cfg.Arena,
		Encountered:              cfg.Encountered,
		MinScore:                 cfg.MinScore,
		FIFO:                     fifo,
		Inbound:                  inbound,
		MaxWorkspaceSize:         cfg.MaxWorkspaceSize,
		NumRequested:             cfg.NumRequested,
		AcceptanceRatioParam:     cfg.AcceptanceRatioParam,
		AcceptanceStiffnessParam: cfg.AcceptanceStiffnessParam,
		Logger:                   logger,
	})
	if cfg.Seed != nil {
		ws.Seed(cfg.Seed)
	}

	return &Worker{
		id:           id,
		ctx:          cfg.Ctx,
		arena:        cfg.Arena,
		ws:           ws,
		fifo:         fifo,
		inbound:      inbound,
		ownsInbound:  ownsInbound,
		logger:       logger.With(zap.String("worker", id)),
		scoreReports: cfg.ScoreReports,
	}, nil
}

// ID returns this Worker's correlation ID.
func (w *Worker) ID() string { return w.id }

// Run is the per-process loop: iterate until interrupted
// or genuinely out of work, reporting every newly accepted score, then
// drain remaining state to the spill and report results. Both stop and
// ctx's cancellation signal interruption; ctx additionally bounds the
// brief wait for more inbound work between iterations.
//
// The second return value is every assembly this Worker still held when it
// stopped — its in-memory frontier/cache plus whatever remained on its own
// spill disk — captured for the Coordinator's save archive before this
// Worker's own FIFO teardown discards the same data. It is empty on a
// natural finish (nothing was left to capture).
func (w *Worker) Run(ctx context.Context, stop <-chan struct{}) (accepted, unfinished []*assembly.Assembly, err error) {
	// done fires on the caller's stop signal or on this Worker hitting an
	// unrecoverable error of its own; either way the QueueLoader must
	// wind down so loaderDone is guaranteed to close.
	done := make(chan struct{})
	var doneOnce sync.Once
	closeDone := func() { doneOnce.Do(func() { close(done) }) }
	defer closeDone()
	go func() {
		select {
		case <-stop:
			closeDone()
		case <-ctx.Done():
			closeDone()
		case <-done:
		}
	}()

	loaderDone := make(chan struct{})
	go func() {
		defer close(loaderDone)
		QueueLoader(w.fifo, w.inbound, w.ownsInbound, done, w.logger)
	}()

	interrupt := func() bool {
		select {
		case <-stop:
			return true
		case <-ctx.Done():
			return true
		default:
			return false
		}
	}

	for {
		if interrupt() {
			break
		}
		if iterErr := w.ws.Iterate(interrupt); iterErr != nil {
			closeDone()
			<-loaderDone
			return w.ws.Accepted(), nil, fmt.Errorf("worker %s: iterate: %w", w.id, iterErr)
		}
		w.reportNewlyAccepted()

		if w.ws.FrontierLen() == 0 && w.ws.CacheLen() == 0 {
			if w.waitBrieflyForMoreWork(ctx, stop) {
				continue
			}
			w.logger.Info("worker finished: no work left in memory or on spill")
			break
		}
	}

	if interrupt() {
		unfinished = w.ws.Unfinished()
		if tErr := w.ws.PrepareToTerminate(); tErr != nil {
			closeDone()
			<-loaderDone
			return w.ws.Accepted(), unfinished, fmt.Errorf("worker %s: prepare to terminate: %w", w.id, tErr)
		}
	}

	closeDone()
	<-loaderDone

	// The QueueLoader has retired, so this Worker is now the sole reader
	// of its own FIFO: drain whatever is still on disk before
	// CloseProducer unlinks it, so none of it is lost from the save
	// archive.
	spilled, drainErr := w.drainOwnFIFO()
	if drainErr != nil {
		w.logger.Error("worker: drain own fifo for save", zap.Error(drainErr))
	}
	unfinished = append(unfinished, spilled...)

	if err := w.fifo.CloseProducer(); err != nil {
		return w.ws.Accepted(), unfinished, fmt.Errorf("worker %s: close fifo producer: %w", w.id, err)
	}
	return w.ws.Accepted(), unfinished, nil
}

// drainOwnFIFO pops every remaining payload off this Worker's own spill
// FIFO and decodes it, for folding into the save archive. Only safe once
// the QueueLoader goroutine (the FIFO's normal consumer) has exited.
func (w *Worker) drainOwnFIFO() ([]*assembly.Assembly, error) {
	var out []*assembly.Assembly
	for {
		data, ok, err := w.fifo.PopNow()
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		a, err := assembly.Uncompress(data, w.ctx, w.arena)
		if err != nil {
			return out, fmt.Errorf("worker %s: decode spilled payload: %w", w.id, err)
		}
		out = append(out, a)
	}
}

// waitBrieflyForMoreWork gives the QueueLoader one short window to either
// deliver an inbound item (in which case Iterate's next pass will pick it
// up via topoff) or to confirm the spill is genuinely dry.
func (w *Worker) waitBrieflyForMoreWork(ctx context.Context, stop <-chan struct{}) bool {
	select {
	case data, ok := <-w.inbound:
		if !ok {
			return false
		}
		if a := w.decodeOrDrop(data); a != nil {
			w.ws.Seed(a)
		}
		return true
	case <-stop:
		return false
	case <-ctx.Done():
		return false
	case <-time.After(50 * time.Millisecond):
		return false
	}
}

// decodeOrDrop decodes a raw inbound payload the QueueLoader forwarded
// outside Workspace's own topoff pass (this one arrived between Iterate
// calls, while the Worker was deciding whether it's truly out of work).
func (w *Worker) decodeOrDrop(data []byte) *assembly.Assembly {
	a, err := assembly.Uncompress(data, w.ctx, w.arena)
	if err != nil {
		w.logger.Error("worker: decode inbound payload", zap.Error(err))
		return nil
	}
	return a
}

func (w *Worker) reportNewlyAccepted() {
	accepted := w.ws.Accepted()
	for _, a := range accepted[w.reported:] {
		if w.scoreReports == nil {
			continue
		}
		select {
		case w.scoreReports <- a.Score:
		default:
			w.logger.Warn("score report dropped: channel full")
		}
	}
	w.reported = len(accepted)
}
