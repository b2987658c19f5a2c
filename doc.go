// Package topolenum enumerates the top-K highest-scoring phylogenetic tree
// topologies for a fixed leaf set under a pairwise leaf-distance frequency
// constraint, using a parallel best-first branch-and-bound search.
//
// A run starts from single-leaf assemblies and repeatedly joins clades into
// larger ones, scoring each candidate join against a constraint table built
// from the observed leaf-pair distance/frequency histograms. Partial
// assemblies whose best possible completion score already falls below the
// current K-th best accepted score are pruned. The search fans out across a
// worker pool that shares a single running minimum score; each worker has
// its own spill-to-disk overflow queue so memory stays bounded regardless of
// search breadth.
//
// Subpackages:
//
//	clade/      — immutable, arena-owned clade nodes and Newick rendering
//	histogram/  — the constraint table and pairwise distance/frequency context
//	assembly/   — partial tree assemblies, extension search, best-case bound
//	encounter/  — deduplication of assemblies by canonical nested-set string
//	spillfifo/  — on-disk overflow queue for oversized workspace frontiers
//	workspace/  — per-worker frontier management and the acceptance controller
//	worker/     — the per-worker search loop
//	coordinator/ — seeding, score-floor mediation, and save/restart orchestration
//	archive/    — the gzipped-tar save/restart format
//
// Enumerate, defined in this package, ties the above together behind a
// single call.
package topolenum
