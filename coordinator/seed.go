package coordinator

import (
	"github.com/prunepath/topolenum/assembly"
	"github.com/prunepath/topolenum/clade"
	"github.com/prunepath/topolenum/encounter"
	"github.com/prunepath/topolenum/histogram"
)

// freshSeeds expands the zeroth assembly repeatedly with GenerateExtensions
// against the run's real shared EncounteredSet until the expansion frontier
// holds at least numWorkers distinct assemblies, or there is nothing left
// to expand. An expansion that is already complete — the two-leaf boundary
// case, where the only possible extension finishes the tree in one step —
// is routed to preAccepted instead, since GenerateExtensions has nothing
// further to do with it.
//
// A single-leaf universe returns no frontier and no preAccepted: there is
// no work to do and the result is an empty list.
func freshSeeds(ctx *histogram.Context, arena *clade.Arena, encountered *encounter.Shared, numWorkers int) (frontier, preAccepted []*assembly.Assembly, err error) {
	seed, err := assembly.Seed(ctx, arena)
	if err != nil {
		return nil, nil, err
	}
	if seed.NodesLeftToBuild() <= 0 {
		return nil, nil, nil
	}

	pending := []*assembly.Assembly{seed}
	for len(pending) < numWorkers && len(pending) > 0 {
		next := pending[0]
		pending = pending[1:]

		children := next.GenerateExtensions(encountered, nil)
		for _, c := range children {
			if c.Complete() {
				preAccepted = append(preAccepted, c)
				continue
			}
			pending = append(pending, c)
		}
	}
	return pending, preAccepted, nil
}
