package archive

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/prunepath/topolenum/clade"
)

// renderRankNewick mirrors clade.Arena.Newick's structure exactly, except
// every leaf is written as its rank instead of its name: the result is a
// Newick string that survives a restart even when the new run's own
// LeafRank table assigns different numbers, as long as leaf_name_encoding
// travels alongside it.
func renderRankNewick(arena *clade.Arena, id clade.NodeID, rank map[string]int) string {
	name := arena.RootName(id)
	children := arena.Children(id)

	parts := make([]string, 0, 1+len(children))
	if name != "" {
		parts = append(parts, strconv.Itoa(rank[name]))
	}
	for _, c := range children {
		parts = append(parts, renderRankNewick(arena, c, rank))
	}
	if len(parts) == 1 && len(children) == 0 {
		return parts[0]
	}
	return "(" + strings.Join(parts, ",") + ")"
}

// parseRankNewick is renderRankNewick's inverse: it rebuilds the described
// shape into arena, translating ranks back to leaf names via rankToLeaf,
// and returns the resulting clade's root. Every parenthesized group has
// exactly two components (every join in this model is binary), each
// itself either a bare rank token or a nested group.
func parseRankNewick(s string, arena *clade.Arena, rankToLeaf map[int]string) (clade.NodeID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrMalformedNewick)
	}
	if s[0] != '(' {
		rank, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrMalformedNewick, s)
		}
		name, ok := rankToLeaf[rank]
		if !ok {
			return 0, fmt.Errorf("%w: %d", ErrUnknownRank, rank)
		}
		return arena.Leaf(name), nil
	}
	if s[len(s)-1] != ')' {
		return 0, fmt.Errorf("%w: unbalanced %q", ErrMalformedNewick, s)
	}

	parts := splitTopLevelComma(s[1 : len(s)-1])
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedNewick, s)
	}

	x, err := parseRankNewick(parts[0], arena, rankToLeaf)
	if err != nil {
		return 0, err
	}
	y, err := parseRankNewick(parts[1], arena, rankToLeaf)
	if err != nil {
		return 0, err
	}
	return arena.Join(x, y), nil
}

// splitTopLevelComma splits s on commas that are not nested inside
// parentheses.
func splitTopLevelComma(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}
