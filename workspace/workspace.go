package workspace

import (
	"fmt"
	"math"
	"sort"

	"github.com/prunepath/topolenum/assembly"
	"github.com/prunepath/topolenum/clade"
	"github.com/prunepath/topolenum/histogram"
	"github.com/prunepath/topolenum/spillfifo"
	"go.uber.org/zap"
)

// Config bundles Workspace's construction-time parameters: the shared
// search context, its Worker's already-started spill FIFO and the inbound
// channel a QueueLoader drains it into, and the sizing/acceptance knobs
// taken verbatim from the top-level configuration surface.
type Config struct {
	Ctx         *histogram.Context
	Arena       *clade.Arena
	Encountered assembly.EncounteredSet
	MinScore    *MinScore

	// FIFO is the Worker's own spill; Workspace only ever pushes to it
	// (trim, topoff's postponed re-push, PrepareToTerminate). A separate QueueLoader goroutine, owned
	// by the Worker, is the FIFO's sole consumer and feeds Inbound.
	FIFO *spillfifo.Shared
	// Inbound carries raw compressed payloads the QueueLoader popped off
	// FIFO. topoff drains it non-blockingly.
	Inbound <-chan []byte

	MaxWorkspaceSize int // user_max
	NumRequested     int // K

	AcceptanceRatioParam     float64 // accrp
	AcceptanceStiffnessParam float64 // accsp

	Logger *zap.Logger
}

// Workspace is one Worker's frontier, same-iteration cache, and accepted
// list. Its own on-disk spill is pushed to directly but
// popped only indirectly, through Inbound, so a blocking disk read never
// stalls Iterate.
type Workspace struct {
	ctx         *histogram.Context
	arena       *clade.Arena
	encountered assembly.EncounteredSet
	minScore    *MinScore
	logger      *zap.Logger

	fifo    *spillfifo.Shared
	inbound <-chan []byte

	userMax int
	k       int
	accrp   float64
	accsp   float64

	frontier []*assembly.Assembly
	cache    []*assembly.Assembly
	accepted []*assembly.Assembly

	currentMax  int
	pushCount   int64
	topoffCount int64
}

// New returns an empty Workspace seeded with cfg.
func New(cfg Config) *Workspace {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	userMax := cfg.MaxWorkspaceSize
	if userMax <= 0 {
		userMax = 10000
	}
	return &Workspace{
		ctx:         cfg.Ctx,
		arena:       cfg.Arena,
		encountered: cfg.Encountered,
		minScore:    cfg.MinScore,
		logger:      logger,
		fifo:        cfg.FIFO,
		inbound:     cfg.Inbound,
		userMax:     userMax,
		k:           cfg.NumRequested,
		accrp:       cfg.AcceptanceRatioParam,
		accsp:       cfg.AcceptanceStiffnessParam,
		currentMax:  10,
	}
}

// Seed inserts a into the frontier, e.g. the assembly the Coordinator
// handed this Worker at startup.
func (w *Workspace) Seed(a *assembly.Assembly) {
	w.frontier = append(w.frontier, a)
	w.resort()
}

// Accepted returns the accepted complete assemblies found so far, sorted
// by score descending.
func (w *Workspace) Accepted() []*assembly.Assembly {
	out := make([]*assembly.Assembly, len(w.accepted))
	copy(out, w.accepted)
	return out
}

// FrontierLen reports the current in-memory frontier size (tests,
// diagnostics, and the Worker's own finished-detection).
func (w *Workspace) FrontierLen() int { return len(w.frontier) }

// CacheLen reports the current same-iteration cache size.
func (w *Workspace) CacheLen() int { return len(w.cache) }

// Iterate runs one pass over a snapshot of the frontier: assemblies whose
// best_case can't beat the shared floor are dropped; survivors are
// expanded; complete children are routed to accepted or dropped, incomplete
// children go to the cache. At the end the cache is
// merged into the frontier, the frontier is re-sorted, and it is either
// trimmed to currentMax or topped off from the spill.
func (w *Workspace) Iterate(interrupt func() bool) error {
	snapshot := w.frontier
	w.frontier = nil

	i := 0
	for ; i < len(snapshot); i++ {
		if interrupt != nil && interrupt() {
			break
		}
		a := snapshot[i]

		// GenerateExtensions on an already complete assembly has nothing
		// left to do, so route it through checkCompletion here instead of
		// losing it to the "no children" drop below.
		if a.Complete() {
			w.checkCompletion(a)
			continue
		}

		floor := w.minScore.Load()
		bc, reachable := a.BestCase()
		if !reachable || bc < floor {
			w.encountered.Forget(a.CanonicalRepr())
			continue
		}

		children := a.GenerateExtensions(w.encountered, &floor)
		if len(children) == 0 {
			continue
		}
		for _, child := range children {
			w.checkCompletion(child)
		}
	}

	// Whatever the snapshot didn't get to (interrupted) survives untouched.
	w.frontier = append(w.frontier, snapshot[i:]...)
	w.frontier = append(w.frontier, w.cache...)
	w.cache = nil
	w.resort()

	w.recomputeCurrentMax()
	if len(w.frontier) > w.currentMax {
		return w.trim()
	}
	return w.topoff()
}

// checkCompletion routes one freshly generated child to accepted (if
// complete and it beats the floor), drops it (if complete but it doesn't),
// or stages it in the cache (if incomplete).
func (w *Workspace) checkCompletion(child *assembly.Assembly) {
	if !child.Complete() {
		w.cache = append(w.cache, child)
		return
	}
	if child.Score < w.minScore.Load() {
		w.encountered.Forget(child.CanonicalRepr())
		return
	}
	w.accepted = append(w.accepted, child)
	sort.SliceStable(w.accepted, func(i, j int) bool { return w.accepted[i].Score > w.accepted[j].Score })
	if w.k > 0 && len(w.accepted) > w.k {
		for _, dropped := range w.accepted[w.k:] {
			w.encountered.Forget(dropped.CanonicalRepr())
		}
		w.accepted = w.accepted[:w.k]
		w.minScore.Bump(w.accepted[len(w.accepted)-1].Score)
	}
}

func (w *Workspace) resort() {
	sort.SliceStable(w.frontier, func(i, j int) bool { return w.frontier[i].SortKey() > w.frontier[j].SortKey() })
}

// recomputeCurrentMax implements the adaptive sizing rule: favor
// depth-first exploration (a small cap) until K complete trees have
// been found or the frontier is shallow everywhere; afterward let the cap
// grow toward user_max, shrinking it the more a Worker is spending its
// time topping off from spill rather than making fresh progress.
func (w *Workspace) recomputeCurrentMax() {
	if w.k <= 0 || len(w.accepted) < w.k {
		anyDeep := false
		for _, a := range w.frontier {
			if a.NodesLeftToBuild() > 3 {
				anyDeep = true
				break
			}
		}
		if anyDeep {
			w.currentMax = 10
		} else {
			w.currentMax = min(100, w.userMax)
		}
		return
	}

	ratio := w.topoffRatio()
	w.currentMax = max(10, int(float64(w.userMax)/(1+ratio)))
}

func (w *Workspace) topoffRatio() float64 {
	if w.pushCount == 0 {
		return 0
	}
	return float64(w.topoffCount) / float64(w.pushCount)
}

// acceptanceThreshold is the spill-reload acceptance controller,
// including its three named boundary cases.
func (w *Workspace) acceptanceThreshold() int {
	ratio := w.topoffRatio()
	total := w.ctx.TotalNodesToBuild
	switch {
	case ratio > w.accrp:
		return total
	case ratio < 0.1:
		return 3
	default:
		frac := (w.accrp - ratio) / (w.accrp - 0.1)
		thr := float64(total) - float64(total-3)*math.Pow(frac, w.accsp)
		return int(thr)
	}
}

// trim spills the lowest-sort_key overflow (the frontier is sorted
// descending, so that's the tail) to the FIFO.
func (w *Workspace) trim() error {
	overflow := w.frontier[w.currentMax:]
	w.frontier = w.frontier[:w.currentMax]
	for _, a := range overflow {
		data, err := a.Compress()
		if err != nil {
			return fmt.Errorf("workspace: trim: compress: %w", err)
		}
		if err := w.fifo.Push(data); err != nil {
			return fmt.Errorf("workspace: trim: push: %w", err)
		}
		w.pushCount++
	}
	return nil
}

// topoff drains Inbound (populated by the Worker's QueueLoader) until the
// frontier reaches currentMax or Inbound has nothing ready right now. A
// candidate that fails the acceptance threshold is re-pushed to FIFO
// (postponed) and topoff stops for this iteration, since the loader would
// just hand it straight back on the very next receive.
func (w *Workspace) topoff() error {
	for len(w.frontier) < w.currentMax {
		var data []byte
		select {
		case d, ok := <-w.inbound:
			if !ok {
				return nil
			}
			data = d
		default:
			return nil
		}
		w.topoffCount++

		cand, err := assembly.Uncompress(data, w.ctx, w.arena)
		if err != nil {
			return fmt.Errorf("workspace: topoff: uncompress: %w", err)
		}

		floor := w.minScore.Load()
		bc, reachable := cand.BestCase()
		if !reachable || bc < floor {
			w.encountered.Forget(cand.CanonicalRepr())
			continue
		}

		threshold := w.acceptanceThreshold()
		if cand.NodesLeftToBuild() <= threshold {
			w.frontier = append(w.frontier, cand)
			w.resort()
			continue
		}

		postponed, err := cand.Compress()
		if err != nil {
			return fmt.Errorf("workspace: topoff: re-compress postponed: %w", err)
		}
		if err := w.fifo.Push(postponed); err != nil {
			return fmt.Errorf("workspace: topoff: re-push postponed: %w", err)
		}
		w.pushCount++
		break
	}
	return nil
}

// Unfinished returns a copy of every assembly still held in memory — the
// frontier plus the same-iteration cache — without removing or spilling
// them. The Worker's shutdown path calls this before PrepareToTerminate so
// the Coordinator can fold the result into a save archive; PrepareToTerminate
// itself then spills (and this Worker's own FIFO teardown discards) the
// same assemblies from the Worker's own on-disk state.
func (w *Workspace) Unfinished() []*assembly.Assembly {
	out := make([]*assembly.Assembly, 0, len(w.frontier)+len(w.cache))
	out = append(out, w.frontier...)
	out = append(out, w.cache...)
	return out
}

// PrepareToTerminate drains the frontier and cache into the FIFO so a
// later restart can pick the work back up.
func (w *Workspace) PrepareToTerminate() error {
	for _, group := range [][]*assembly.Assembly{w.frontier, w.cache} {
		for _, a := range group {
			data, err := a.Compress()
			if err != nil {
				return fmt.Errorf("workspace: prepare to terminate: compress: %w", err)
			}
			if err := w.fifo.Push(data); err != nil {
				return fmt.Errorf("workspace: prepare to terminate: push: %w", err)
			}
			w.pushCount++
		}
	}
	w.frontier = nil
	w.cache = nil
	return nil
}
