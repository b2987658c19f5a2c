package assembly

import (
	"errors"

	"github.com/prunepath/topolenum/clade"
	"github.com/prunepath/topolenum/encounter"
	"github.com/prunepath/topolenum/histogram"
)

// Sentinel errors returned by this package's constructors and codecs.
var (
	// ErrNoLeaves is returned when Seed is called with an empty context.
	ErrNoLeaves = errors.New("assembly: no leaves in context")

	// ErrCorruptEncoding is returned by Uncompress on a malformed payload.
	ErrCorruptEncoding = errors.New("assembly: corrupt compact encoding")

	// ErrUnsupportedVersion is returned by Uncompress when the payload's
	// version header differs from the one this build writes.
	ErrUnsupportedVersion = errors.New("assembly: unsupported encoding version")
)

// EncounteredSet is the dedup contract GenerateExtensions needs. Local and
// Shared (package encounter) both satisfy it; Shared additionally splits
// the read path from the write path internally, which is invisible here.
type EncounteredSet interface {
	AlreadyEncountered(repr string) bool
	Remember(repr string)
	Forget(repr string)
}

// Assembly is a partial tree state: a forest of built clades, the leaves
// not yet assigned to any of them, and the still-live subsequence of the
// shared constraint table.
type Assembly struct {
	ctx   *histogram.Context
	arena *clade.Arena

	BuiltClades   []clade.NodeID
	FreeLeaves    map[string]struct{}
	ConstraintIdx []int
	Score         float64

	// memoized; valid only for this exact value, since every mutation
	// path (GenerateExtensions) replaces the whole struct rather than
	// touching BuiltClades/FreeLeaves/ConstraintIdx/Score in place.
	dtr               map[string]int
	dtrValid          bool
	pairsAccounted    map[histogram.PairKey]struct{}
	pairsValid        bool
	bestCase          float64
	bestCaseReachable bool
	bestCaseValid     bool
}

// Seed constructs the zeroth assembly: every leaf free, every constraint
// index live, zero score.
func Seed(ctx *histogram.Context, arena *clade.Arena) (*Assembly, error) {
	if len(ctx.LeavesMaster) == 0 {
		return nil, ErrNoLeaves
	}
	free := make(map[string]struct{}, len(ctx.LeavesMaster))
	for _, l := range ctx.LeavesMaster {
		free[l] = struct{}{}
	}
	idx := make([]int, len(ctx.Constraints))
	for i := range idx {
		idx[i] = i
	}
	return &Assembly{
		ctx:           ctx,
		arena:         arena,
		FreeLeaves:    free,
		ConstraintIdx: idx,
	}, nil
}

// Complete reports whether the assembly is a single clade spanning every
// leaf.
func (a *Assembly) Complete() bool {
	return len(a.BuiltClades) == 1 && len(a.FreeLeaves) == 0
}

// NodesLeftToBuild is |built_clades| + |free_leaves| - 1: the number of
// further joins needed to reach a single clade.
func (a *Assembly) NodesLeftToBuild() int {
	return len(a.BuiltClades) + len(a.FreeLeaves) - 1
}

// BuiltNodesCount is the complement of NodesLeftToBuild against the total
// the full tree needs, i.e. how many joins have already happened.
func (a *Assembly) BuiltNodesCount() int {
	return a.ctx.TotalNodesToBuild - a.NodesLeftToBuild()
}

// Arena exposes the shared clade arena this assembly's clades live in.
func (a *Assembly) Arena() *clade.Arena { return a.arena }

// distancesToRoot returns, for every leaf, its distance to the root of
// whichever built clade contains it (0 for leaves still free), memoized.
func (a *Assembly) distancesToRoot() map[string]int {
	if a.dtrValid {
		return a.dtr
	}
	dtr := make(map[string]int, len(a.ctx.LeavesMaster))
	for leaf := range a.FreeLeaves {
		dtr[leaf] = 0
	}
	for _, c := range a.BuiltClades {
		for _, leaf := range a.arena.LeafNames(c) {
			d, _ := a.arena.TraceDist(c, leaf)
			dtr[leaf] = d
		}
	}
	a.dtr = dtr
	a.dtrValid = true
	return dtr
}

// pairsAccountedFor returns the set of leaf pairs whose final distance is
// already fixed by the current forest: both leaves share a built clade.
func (a *Assembly) pairsAccountedFor() map[histogram.PairKey]struct{} {
	if a.pairsValid {
		return a.pairsAccounted
	}
	accounted := make(map[histogram.PairKey]struct{})
	for _, c := range a.BuiltClades {
		leaves := a.arena.LeafNames(c)
		for i := 0; i < len(leaves); i++ {
			for j := i + 1; j < len(leaves); j++ {
				accounted[histogram.KeyOf(leaves[i], leaves[j])] = struct{}{}
			}
		}
	}
	a.pairsAccounted = accounted
	a.pairsValid = true
	return accounted
}

// CanonicalRepr is the encountered-set string for the whole forest.
func (a *Assembly) CanonicalRepr() string {
	return encounter.MakeStrRepr(a.arena, a.BuiltClades, a.ctx.LeafRank)
}

// Newick renders a complete assembly's sole clade as a Newick string.
func (a *Assembly) Newick() string {
	if !a.Complete() {
		return ""
	}
	return a.arena.Newick(a.BuiltClades[0])
}
