package encounter

import (
	"sort"
	"strings"

	"github.com/prunepath/topolenum/clade"
)

// MakeStrRepr builds the canonical string representation of a forest of
// built clades: each clade's own canonical nested-set string, the clades
// sorted by minimum leaf rank, wrapped in brackets. Two
// differently-ordered constructions of the same forest always yield the
// same string.
func MakeStrRepr(arena *clade.Arena, clades []clade.NodeID, rank map[string]int) string {
	type entry struct {
		text string
		rank int
	}
	entries := make([]entry, len(clades))
	for i, id := range clades {
		entries[i] = entry{
			text: arena.NestedSetRepr(id, rank),
			rank: arena.MinRank(id, rank),
		}
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].rank < entries[j].rank })

	texts := make([]string, len(entries))
	for i, e := range entries {
		texts[i] = e.text
	}
	return "[" + strings.Join(texts, ",") + "]"
}
