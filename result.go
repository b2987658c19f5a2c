package topolenum

// Tree is one scored, Newick-serialized accepted topology.
type Tree struct {
	Score  float64
	Newick string
}

// Result is Enumerate's outcome. On a clean finish, Trees holds up to K
// results sorted by score descending. On interrupt, Trees is empty,
// Interrupted is true, and SavePath names the archive a restart can
// resume from.
type Result struct {
	Trees       []Tree
	Interrupted bool
	SavePath    string
}
