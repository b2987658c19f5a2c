package assembly

import (
	"math"
	"strconv"

	"github.com/prunepath/topolenum/clade"
	"github.com/prunepath/topolenum/histogram"
)

type extKind int

const (
	extNewPair extKind = iota
	extAttach
	extJoin
)

// bucket accumulates the evidence for one candidate Attach or Join move:
// every leaf pair the move would newly determine, which of those are
// already confirmed by a matching constraint-table entry, which conflict,
// and the score earned so far.
type bucket struct {
	kind          extKind
	cladeA        int // index into the parent's BuiltClades
	cladeB        int // index into the parent's BuiltClades, Join only; -1 otherwise
	leaf          string // Attach only

	unverified    map[histogram.PairKey]int // pair -> expected distance
	consistent    map[histogram.PairKey]struct{}
	consistentIdx map[histogram.PairKey]int // pair -> constraint_idx index that confirmed it
	inconsistent  map[int]histogram.LPDF
	score         float64
	discarded     bool
}

// checkPair folds one candidate LPDF into a bucket's consistent/inconsistent state.
func checkPair(b *bucket, p histogram.LPDF, idx int) {
	if _, ok := b.consistent[p.Pair]; ok {
		b.inconsistent[idx] = p
		return
	}
	expected, ok := b.unverified[p.Pair]
	if ok && p.Dist == expected {
		delete(b.unverified, p.Pair)
		b.consistent[p.Pair] = struct{}{}
		b.consistentIdx[p.Pair] = idx
		b.score += math.Log(p.Freq)
		return
	}
	b.inconsistent[idx] = p
}

type newPairCandidate struct {
	idx  int
	pair histogram.PairKey
	freq float64
}

// findExtensions scans the live constraint subset in order and buckets
// every live LPDF into a NewPair, Attach, or Join candidate.
func (a *Assembly) findExtensions() ([]newPairCandidate, []*bucket) {
	cladeOf := make(map[string]int, len(a.ctx.LeavesMaster))
	for ci, c := range a.BuiltClades {
		for _, leaf := range a.arena.LeafNames(c) {
			cladeOf[leaf] = ci
		}
	}
	dtr := a.distancesToRoot()

	var newPairs []newPairCandidate
	joinBuckets := make(map[[2]int]*bucket)
	attachBuckets := make(map[string]*bucket) // key: cladeIdx+leaf
	var buckets []*bucket

	for _, idx := range a.ConstraintIdx {
		p := a.ctx.Constraints[idx]

		if p.Dist == 1 {
			newPairs = append(newPairs, newPairCandidate{idx: idx, pair: p.Pair, freq: p.Freq})
			continue
		}

		ca, okA := cladeOf[p.Pair[0]]
		cb, okB := cladeOf[p.Pair[1]]
		switch {
		case !okA && !okB:
			continue
		case okA && okB && ca == cb:
			continue
		case okA && okB:
			key := [2]int{ca, cb}
			if key[0] > key[1] {
				key[0], key[1] = key[1], key[0]
			}
			b, ok := joinBuckets[key]
			if !ok {
				b = newJoinBucket(a, key[0], key[1], dtr)
				joinBuckets[key] = b
				buckets = append(buckets, b)
			}
			checkPair(b, p, idx)
		default:
			cladeIdx, leaf := ca, p.Pair[1]
			if okB {
				cladeIdx, leaf = cb, p.Pair[0]
			}
			bk := attachBucketKey(cladeIdx, leaf)
			b, ok := attachBuckets[bk]
			if !ok {
				b = newAttachBucket(a, cladeIdx, leaf, dtr)
				attachBuckets[bk] = b
				buckets = append(buckets, b)
			}
			checkPair(b, p, idx)
		}
	}
	return newPairs, buckets
}

func attachBucketKey(cladeIdx int, leaf string) string {
	return leaf + "#" + strconv.Itoa(cladeIdx)
}

func newJoinBucket(a *Assembly, ca, cb int, dtr map[string]int) *bucket {
	b := &bucket{
		kind:          extJoin,
		cladeA:        ca,
		cladeB:        cb,
		unverified:    make(map[histogram.PairKey]int),
		consistent:    make(map[histogram.PairKey]struct{}),
		consistentIdx: make(map[histogram.PairKey]int),
		inconsistent:  make(map[int]histogram.LPDF),
	}
	for _, x := range a.arena.LeafNames(a.BuiltClades[ca]) {
		for _, y := range a.arena.LeafNames(a.BuiltClades[cb]) {
			b.unverified[histogram.KeyOf(x, y)] = dtr[x] + dtr[y] + 1
		}
	}
	return b
}

func newAttachBucket(a *Assembly, cladeIdx int, leaf string, dtr map[string]int) *bucket {
	b := &bucket{
		kind:          extAttach,
		cladeA:        cladeIdx,
		cladeB:        -1,
		leaf:          leaf,
		unverified:    make(map[histogram.PairKey]int),
		consistent:    make(map[histogram.PairKey]struct{}),
		consistentIdx: make(map[histogram.PairKey]int),
		inconsistent:  make(map[int]histogram.LPDF),
	}
	for _, x := range a.arena.LeafNames(a.BuiltClades[cladeIdx]) {
		b.unverified[histogram.KeyOf(x, leaf)] = dtr[x] + 1
	}
	return b
}

// verifyRemaining resolves a bucket's still-unverified pairs against the
// full pairwise histogram, discarding the bucket if any resolve too weakly.
func verifyRemaining(ctx *histogram.Context, b *bucket) {
	for pair, expected := range b.unverified {
		freq, ok := ctx.Histograms[pair][expected]
		if !ok || freq < ctx.AbsoluteFreqCutoff {
			b.discarded = true
			return
		}
		b.score += math.Log(freq)
	}
	if len(b.consistent) == 0 {
		b.discarded = true
	}
}

// materialized is a fully-built (but not yet committed) child: the clade
// arena join has happened, so its canonical repr and best-case are
// computable, but the parent's constraint_idx has not yet been pruned.
type materialized struct {
	builtClades []clade.NodeID
	freeLeaves  map[string]struct{}
	score       float64
	consumeIdx  []int
	extraDist1  string // Attach only: leaf whose dist=1 entries also get pruned
	pairAB      histogram.PairKey
}

func (a *Assembly) materializeNewPair(c newPairCandidate) *materialized {
	leafA, leafB := c.pair[0], c.pair[1]
	newClade := a.arena.Join(a.arena.Leaf(leafA), a.arena.Leaf(leafB))

	built := append(append([]clade.NodeID(nil), a.BuiltClades...), newClade)
	free := make(map[string]struct{}, len(a.FreeLeaves)-2)
	for l := range a.FreeLeaves {
		if l != leafA && l != leafB {
			free[l] = struct{}{}
		}
	}
	return &materialized{
		builtClades: built,
		freeLeaves:  free,
		score:       math.Log(c.freq),
		consumeIdx:  []int{c.idx},
		pairAB:      c.pair,
	}
}

func (a *Assembly) materializeBucket(b *bucket) *materialized {
	consumeIdx := make([]int, 0, len(b.consistent)+len(b.inconsistent))
	for _, idx := range b.consistentIdx {
		consumeIdx = append(consumeIdx, idx)
	}
	for idx := range b.inconsistent {
		consumeIdx = append(consumeIdx, idx)
	}

	if b.kind == extJoin {
		newClade := a.arena.Join(a.BuiltClades[b.cladeA], a.BuiltClades[b.cladeB])
		built := make([]clade.NodeID, 0, len(a.BuiltClades)-1)
		for i, c := range a.BuiltClades {
			if i != b.cladeA && i != b.cladeB {
				built = append(built, c)
			}
		}
		built = append(built, newClade)
		return &materialized{
			builtClades: built,
			freeLeaves:  a.FreeLeaves,
			score:       b.score,
			consumeIdx:  consumeIdx,
		}
	}

	// Attach
	newClade := a.arena.Join(a.BuiltClades[b.cladeA], a.arena.Leaf(b.leaf))
	built := make([]clade.NodeID, len(a.BuiltClades))
	copy(built, a.BuiltClades)
	built[b.cladeA] = newClade

	free := make(map[string]struct{}, len(a.FreeLeaves)-1)
	for l := range a.FreeLeaves {
		if l != b.leaf {
			free[l] = struct{}{}
		}
	}
	return &materialized{
		builtClades: built,
		freeLeaves:  free,
		score:       b.score,
		consumeIdx:  consumeIdx,
		extraDist1:  b.leaf,
	}
}

// asAssembly builds a standalone Assembly from a materialized candidate,
// pruning constraint_idx to drop every index the move resolves or invalidates.
func (a *Assembly) asAssembly(m *materialized) *Assembly {
	var pruned []int
	for _, idx := range a.ConstraintIdx {
		if containsInt(m.consumeIdx, idx) {
			continue
		}
		p := a.ctx.Constraints[idx]
		if m.pairAB != (histogram.PairKey{}) {
			if p.Dist == 1 && touchesPair(p.Pair, m.pairAB) {
				continue
			}
			if p.Dist > 1 && p.Pair == m.pairAB {
				continue
			}
		}
		if m.extraDist1 != "" && p.Dist == 1 && (p.Pair[0] == m.extraDist1 || p.Pair[1] == m.extraDist1) {
			continue
		}
		pruned = append(pruned, idx)
	}

	child := &Assembly{
		ctx:           a.ctx,
		arena:         a.arena,
		BuiltClades:   m.builtClades,
		FreeLeaves:    m.freeLeaves,
		ConstraintIdx: pruned,
		Score:         a.Score + m.score,
	}
	return child
}

func containsInt(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

func touchesPair(p, ab histogram.PairKey) bool {
	return p[0] == ab[0] || p[0] == ab[1] || p[1] == ab[0] || p[1] == ab[1]
}

// GenerateExtensions returns every admissible one-step child of a, having
// filtered out already-encountered shapes and anything that cannot beat
// minScore. A nil minScore means no bound is active yet.
func (a *Assembly) GenerateExtensions(encountered EncounteredSet, minScore *float64) []*Assembly {
	newPairs, buckets := a.findExtensions()

	for _, b := range buckets {
		if !b.discarded {
			verifyRemaining(a.ctx, b)
		}
	}

	var survivors []*materialized
	for _, c := range newPairs {
		survivors = append(survivors, a.materializeNewPair(c))
	}
	for _, b := range buckets {
		if b.discarded {
			continue
		}
		survivors = append(survivors, a.materializeBucket(b))
	}

	type accepted struct {
		child *Assembly
		repr  string
	}
	var keep []accepted
	for _, m := range survivors {
		if minScore != nil && a.Score+m.score < *minScore {
			continue
		}
		child := a.asAssembly(m)
		repr := child.CanonicalRepr()
		if encountered.AlreadyEncountered(repr) {
			continue
		}
		bc, reachable := child.BestCase()
		if !reachable || (minScore != nil && bc < *minScore) {
			encountered.Forget(repr)
			continue
		}
		encountered.Remember(repr)
		keep = append(keep, accepted{child: child, repr: repr})
	}
	if len(keep) == 0 {
		return nil
	}

	out := make([]*Assembly, len(keep))
	for i, k := range keep {
		out[i] = k.child
	}
	// The last survivor is built in place: the parent assembly is reused
	// rather than discarded.
	*a = *keep[len(keep)-1].child
	out[len(keep)-1] = a
	return out
}
