package coordinator

import (
	"fmt"

	"github.com/prunepath/topolenum/archive"
	"github.com/prunepath/topolenum/assembly"
	"github.com/prunepath/topolenum/clade"
	"github.com/prunepath/topolenum/encounter"
	"github.com/prunepath/topolenum/histogram"
)

// loadedRestart is everything a save archive hands back to Run: the
// reconstituted unfinished assemblies to redistribute, the dedup set to
// preload, and whatever trees were already accepted before the save.
type loadedRestart struct {
	Unfinished  []*assembly.Assembly
	Encountered []string
	Accepted    []archive.AcceptedTree
}

// loadRestart reads path and rebuilds every unfinished assembly against
// ctx/arena, using the archive's own leaf_name_encoding table rather than
// ctx.LeafRank: a restarted run may assign leaves different ranks than the
// run that wrote the save, and rank_newick entries must be read back under
// the table they were written with.
func loadRestart(path string, ctx *histogram.Context, arena *clade.Arena) (*loadedRestart, error) {
	a, err := archive.Read(path)
	if err != nil {
		return nil, fmt.Errorf("coordinator: load restart archive: %w", err)
	}

	unfinished := make([]*assembly.Assembly, 0, len(a.Unfinished))
	for _, u := range a.Unfinished {
		asm, err := archive.ToAssembly(u, ctx, arena, a.LeafEncoding)
		if err != nil {
			return nil, fmt.Errorf("coordinator: rebuild unfinished assembly: %w", err)
		}
		unfinished = append(unfinished, asm)
	}

	return &loadedRestart{
		Unfinished:  unfinished,
		Encountered: a.Encountered,
		Accepted:    a.Accepted,
	}, nil
}

// preloadEncountered seeds a fresh Shared set from a restart archive's
// encountered_assemblies list.
func preloadEncountered(reprs []string) *encounter.Shared {
	s := encounter.NewShared()
	for _, r := range reprs {
		s.Remember(r)
	}
	return s
}
