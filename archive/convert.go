package archive

import (
	"math"

	"github.com/prunepath/topolenum/assembly"
	"github.com/prunepath/topolenum/clade"
	"github.com/prunepath/topolenum/histogram"
)

// FromAssembly captures an in-flight assembly as an UnfinishedAssembly
// record, encoding its built clades by leaf rank under the supplied table.
func FromAssembly(a *assembly.Assembly, rank map[string]int) UnfinishedAssembly {
	arena := a.Arena()
	clades := make([]string, len(a.BuiltClades))
	for i, c := range a.BuiltClades {
		clades[i] = renderRankNewick(arena, c, rank)
	}
	bc, reachable := a.BestCase()
	if !reachable {
		bc = math.Inf(-1)
	}
	return UnfinishedAssembly{
		BuiltClades:      clades,
		Score:            a.Score,
		BestCase:         bc,
		NodesLeftToBuild: a.NodesLeftToBuild(),
	}
}

// ToAssembly rebuilds an Assembly from an UnfinishedAssembly record: it
// rebuilds the rank-encoded clades into arena under ctx's leaf universe and
// re-derives constraint_idx from scratch (assembly.FromForest), exactly as
// the compact binary codec does for an in-process spill. archivedRank maps
// the rank the record was written under back to the leaf name it stood
// for — independent of ctx's own LeafRank, which a restarted run may have
// reassigned.
func ToAssembly(u UnfinishedAssembly, ctx *histogram.Context, arena *clade.Arena, archivedRank map[int]string) (*assembly.Assembly, error) {
	built := make([]clade.NodeID, len(u.BuiltClades))
	builtLeaves := make(map[string]struct{})
	for i, s := range u.BuiltClades {
		id, err := parseRankNewick(s, arena, archivedRank)
		if err != nil {
			return nil, err
		}
		built[i] = id
		for _, l := range arena.LeafNames(id) {
			builtLeaves[l] = struct{}{}
		}
	}

	free := make(map[string]struct{}, len(ctx.LeavesMaster))
	for _, l := range ctx.LeavesMaster {
		if _, ok := builtLeaves[l]; !ok {
			free[l] = struct{}{}
		}
	}
	return assembly.FromForest(ctx, arena, built, free, u.Score), nil
}

// FromAcceptedAssembly captures a complete assembly as the final,
// real-leaf-named output record. Unlike UnfinishedAssembly, this is the
// run's user-facing result, not a restart artifact, so it is never parsed
// back.
func FromAcceptedAssembly(a *assembly.Assembly) AcceptedTree {
	return AcceptedTree{Score: a.Score, Newick: a.Newick()}
}

// InvertLeafRank returns the rank-to-name mapping for a leaf rank table,
// the form leaf_name_encoding is written/read in.
func InvertLeafRank(rank map[string]int) map[int]string {
	out := make(map[int]string, len(rank))
	for name, r := range rank {
		out[r] = name
	}
	return out
}
