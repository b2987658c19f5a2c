package assembly

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/prunepath/topolenum/clade"
	"github.com/prunepath/topolenum/histogram"
)

// codecVersion is the compact-encoding format version. Bump on any
// incompatible change to Compress's byte layout.
const codecVersion = uint8(1)

// Clade shape tags written by writeClade/read by readClade.
const (
	cladeTagLeaf = byte(0)
	cladeTagJoin = byte(1)
)

// Compress serializes the assembly into the compact binary form SpillFIFO
// pushes to disk: a versioned header, the free-leaf ranks, score/best-case/
// nodes-left-to-build for cheap round-trip verification, and one
// structural (shape-preserving) encoding per built clade, in place of
// ad-hoc pickling with an explicit versioned layout.
//
// Clade structure is serialized by exact shape (leaf vs. join, recursively),
// not by the sorted canonical nested-set string: the canonical string is
// rank-sorted and so loses each leaf's depth within the clade, and best_case
// depends on distance-to-root. Round-tripping through the canonical form
// would silently change best_case after a restart.
func (a *Assembly) Compress() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(codecVersion)

	bc, reachable := a.BestCase()
	if !reachable {
		bc = math.Inf(-1)
	}
	if err := binary.Write(&buf, binary.BigEndian, a.Score); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, bc); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, int32(a.NodesLeftToBuild())); err != nil {
		return nil, err
	}

	free := make([]string, 0, len(a.FreeLeaves))
	for l := range a.FreeLeaves {
		free = append(free, l)
	}
	sort.Strings(free)
	if err := writeUint32(&buf, uint32(len(free))); err != nil {
		return nil, err
	}
	for _, l := range free {
		if err := writeUint32(&buf, uint32(a.ctx.LeafRank[l])); err != nil {
			return nil, err
		}
	}

	if err := writeUint32(&buf, uint32(len(a.BuiltClades))); err != nil {
		return nil, err
	}
	for _, c := range a.BuiltClades {
		if err := writeClade(&buf, a.arena, c, a.ctx.LeafRank); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// writeClade serializes id's exact shape: a one-byte leaf/join tag, then
// either the leaf's rank or its two join children's own serializations, in
// join order.
func writeClade(buf *bytes.Buffer, arena *clade.Arena, id clade.NodeID, rank map[string]int) error {
	name := arena.RootName(id)
	if name != "" {
		if err := buf.WriteByte(cladeTagLeaf); err != nil {
			return err
		}
		return writeUint32(buf, uint32(rank[name]))
	}
	if err := buf.WriteByte(cladeTagJoin); err != nil {
		return err
	}
	for _, c := range arena.Children(id) {
		if err := writeClade(buf, arena, c, rank); err != nil {
			return err
		}
	}
	return nil
}

// Uncompress reconstructs an Assembly from Compress's byte layout, rebuilding
// clades into arena with the same leaf/join shape (so the restored clade has
// the same distances-to-root) and re-deriving constraint_idx from scratch,
// which is equivalent to the original because the pruning rules are a pure
// function of forest shape (constraint_idx is not itself serialized).
func Uncompress(data []byte, ctx *histogram.Context, arena *clade.Arena) (*Assembly, error) {
	r := bytes.NewReader(data)
	version, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptEncoding, err)
	}
	if version != codecVersion {
		return nil, ErrUnsupportedVersion
	}

	var score, bestCase float64
	var nodesLeft int32
	if err := binary.Read(r, binary.BigEndian, &score); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptEncoding, err)
	}
	if err := binary.Read(r, binary.BigEndian, &bestCase); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptEncoding, err)
	}
	if err := binary.Read(r, binary.BigEndian, &nodesLeft); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptEncoding, err)
	}

	rankToLeaf := make(map[int]string, len(ctx.LeafRank))
	for leaf, rank := range ctx.LeafRank {
		rankToLeaf[rank] = leaf
	}

	nFree, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	free := make(map[string]struct{}, nFree)
	for i := uint32(0); i < nFree; i++ {
		rank, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		leaf, ok := rankToLeaf[int(rank)]
		if !ok {
			return nil, ErrCorruptEncoding
		}
		free[leaf] = struct{}{}
	}

	nClades, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	built := make([]clade.NodeID, 0, nClades)
	for i := uint32(0); i < nClades; i++ {
		id, err := readClade(r, arena, rankToLeaf)
		if err != nil {
			return nil, err
		}
		built = append(built, id)
	}

	return FromForest(ctx, arena, built, free, score), nil
}

// FromForest reconstructs an Assembly from an already-built forest and a
// score, re-deriving constraint_idx from scratch exactly as Uncompress
// does. Used directly by callers that rebuild a forest some other way than
// Compress's binary layout, e.g. the archive package's rank-encoded Newick
// save format.
func FromForest(ctx *histogram.Context, arena *clade.Arena, built []clade.NodeID, free map[string]struct{}, score float64) *Assembly {
	a := &Assembly{
		ctx:         ctx,
		arena:       arena,
		BuiltClades: built,
		FreeLeaves:  free,
		Score:       score,
	}
	a.ConstraintIdx = rebuildConstraintIdx(a)
	return a
}

func readClade(r *bytes.Reader, arena *clade.Arena, rankToLeaf map[int]string) (clade.NodeID, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrCorruptEncoding, err)
	}
	if tag == cladeTagLeaf {
		rank, err := readUint32(r)
		if err != nil {
			return 0, err
		}
		name, ok := rankToLeaf[int(rank)]
		if !ok {
			return 0, ErrCorruptEncoding
		}
		return arena.Leaf(name), nil
	}
	if tag != cladeTagJoin {
		return 0, ErrCorruptEncoding
	}
	x, err := readClade(r, arena, rankToLeaf)
	if err != nil {
		return 0, err
	}
	y, err := readClade(r, arena, rankToLeaf)
	if err != nil {
		return 0, err
	}
	return arena.Join(x, y), nil
}

// rebuildConstraintIdx recomputes the live constraint subset for a
// recovered forest: every index whose pair is not yet accounted for and
// whose dist=1 entries (if any) don't touch an already-built leaf.
func rebuildConstraintIdx(a *Assembly) []int {
	accounted := a.pairsAccountedFor()
	inClade := make(map[string]struct{})
	for _, c := range a.BuiltClades {
		for _, l := range a.arena.LeafNames(c) {
			inClade[l] = struct{}{}
		}
	}
	var idx []int
	for i, p := range a.ctx.Constraints {
		if _, ok := accounted[p.Pair]; ok {
			continue
		}
		if p.Dist == 1 {
			_, aIn := inClade[p.Pair[0]]
			_, bIn := inClade[p.Pair[1]]
			if aIn || bIn {
				continue
			}
		}
		idx = append(idx, i)
	}
	return idx
}

func writeUint32(buf *bytes.Buffer, v uint32) error {
	return binary.Write(buf, binary.BigEndian, v)
}

func readUint32(r *bytes.Reader) (uint32, error) {
	var v uint32
	if err := binary.Read(r, binary.BigEndian, &v); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrCorruptEncoding, err)
	}
	return v, nil
}
