package topolenum

import (
	"context"
	"fmt"

	"github.com/prunepath/topolenum/clade"
	"github.com/prunepath/topolenum/coordinator"
	"github.com/prunepath/topolenum/histogram"
)

// LeafPairHistogram is one input record: a pair of leaf names and the
// observed (distance, frequency) histogram between them.
type LeafPairHistogram = histogram.PairRecord

// Enumerate is the package's single entrypoint: it builds the
// shared constraint context from records, then runs the parallel
// branch-and-bound search per cfg (DefaultConfig overridden by opts),
// returning up to K scored topologies or, on interrupt, a save archive
// path.
func Enumerate(ctx context.Context, records []LeafPairHistogram, opts ...Option) (*Result, error) {
	cfg, params, err := resolve(opts)
	if err != nil {
		return nil, err
	}

	hctx, err := histogram.Build(records, cfg.ConstraintFreqCutoff, cfg.AbsoluteFreqCutoff)
	if err != nil {
		return nil, fmt.Errorf("topolenum: build histogram context: %w", err)
	}
	params.Ctx = hctx
	params.Arena = clade.NewArena()

	out, err := coordinator.Run(ctx, params)
	if err != nil {
		return nil, err
	}

	trees := make([]Tree, len(out.Trees))
	for i, t := range out.Trees {
		trees[i] = Tree{Score: t.Score, Newick: t.Newick}
	}
	return &Result{Trees: trees, Interrupted: out.Interrupted, SavePath: out.SavePath}, nil
}
