package clade

import (
	"sort"
	"strconv"
	"strings"
)

// Newick renders the clade rooted at id as a parenthesized Newick string
// with unit (implicit) branch lengths, terminated with a semicolon.
func (a *Arena) Newick(id NodeID) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.newick(id) + ";"
}

func (a *Arena) newick(id NodeID) string {
	n := &a.nodes[id]
	if n.nwOnce {
		return n.newick
	}
	var parts []string
	if n.name != "" {
		parts = append(parts, n.name)
	}
	for _, c := range n.children {
		parts = append(parts, a.newick(c))
	}
	var s string
	if len(parts) == 1 && len(n.children) == 0 {
		s = parts[0]
	} else {
		s = "(" + strings.Join(parts, ",") + ")"
	}
	n.newick = s
	n.nwOnce = true
	return s
}

// NestedSetRepr renders the canonical nested-set string for the clade
// rooted at id under the given leaf rank assignment: a bare integer for a
// lone leaf, otherwise a parenthesized, rank-sorted list of sub-expressions
// (EncounteredSet's canonical form).
func (a *Arena) NestedSetRepr(id NodeID, rank map[string]int) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, _ := a.repr(id, rank)
	return s
}

func (a *Arena) repr(id NodeID, rank map[string]int) (string, int) {
	n := &a.nodes[id]
	if n.reprOnce {
		return n.repr, n.reprRank
	}

	type component struct {
		text string
		rank int
	}
	var comps []component
	if n.name != "" {
		comps = append(comps, component{text: strconv.Itoa(rank[n.name]), rank: rank[n.name]})
	}
	for _, c := range n.children {
		s, r := a.repr(c, rank)
		comps = append(comps, component{text: s, rank: r})
	}
	sort.SliceStable(comps, func(i, j int) bool { return comps[i].rank < comps[j].rank })

	minRank := comps[0].rank
	var s string
	if len(comps) == 1 && len(n.children) == 0 {
		s = comps[0].text
	} else {
		texts := make([]string, len(comps))
		for i, c := range comps {
			texts[i] = c.text
		}
		s = "(" + strings.Join(texts, ",") + ")"
	}
	n.repr = s
	n.reprRank = minRank
	n.reprOnce = true
	return s, minRank
}
