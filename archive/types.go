package archive

// Entry names inside the gzipped tar.
const (
	entryLeafEncoding = "leaf_name_encoding"
	entryUnfinished   = "unfinished_assemblies"
	entryEncountered  = "encountered_assemblies"
	entryAccepted     = "accepted_complete_assemblies"
)

// UnfinishedAssembly is one in-flight assembly as written to
// unfinished_assemblies: its built clades as rank-encoded Newick strings
// (so leaf identity survives a restart even under a differently-ranked
// LeafRank table), its score, best-case bound, and nodes left to build.
type UnfinishedAssembly struct {
	BuiltClades      []string // rank-encoded Newick, one per built clade
	Score            float64
	BestCase         float64
	NodesLeftToBuild int
}

// AcceptedTree is one accepted_complete_assemblies line: a final score and
// its Newick serialization, using real leaf names (this is the run's
// user-facing output, not an internal restart artifact).
type AcceptedTree struct {
	Score  float64
	Newick string
}

// Archive is everything Read recovers from a save file.
type Archive struct {
	// LeafEncoding maps a 1-based rank to the leaf name it stood for at
	// save time.
	LeafEncoding map[int]string
	Unfinished   []UnfinishedAssembly
	Encountered  []string
	Accepted     []AcceptedTree
}
