package clade_test

import (
	"testing"

	"github.com/prunepath/topolenum/clade"
	"github.com/stretchr/testify/require"
)

func TestLeaf_Dedup(t *testing.T) {
	a := clade.NewArena()
	id1 := a.Leaf("x")
	id2 := a.Leaf("x")
	require.Equal(t, id1, id2)
}

func TestJoin_NewPairDistanceIsOne(t *testing.T) {
	a := clade.NewArena()
	leafA := a.Leaf("a")
	leafB := a.Leaf("b")
	pair := a.Join(leafA, leafB)

	da, ok := a.TraceDist(pair, "a")
	require.True(t, ok)
	require.Equal(t, 1, da)

	db, ok := a.TraceDist(pair, "b")
	require.True(t, ok)
	require.Equal(t, 1, db)

	require.Equal(t, []string{"a", "b"}, a.LeafNames(pair))
}

func TestJoin_AttachDeepensBothSides(t *testing.T) {
	a := clade.NewArena()
	ab := a.Join(a.Leaf("a"), a.Leaf("b"))
	abc := a.Join(ab, a.Leaf("c"))

	da, _ := a.TraceDist(abc, "a")
	db, _ := a.TraceDist(abc, "b")
	dc, _ := a.TraceDist(abc, "c")
	require.Equal(t, 2, da) // ab's whole subtree shifts by one edge under the new root
	require.Equal(t, 2, db)
	require.Equal(t, 1, dc) // c enters fresh, one edge from the new root
}

func TestJoin_OfTwoClades(t *testing.T) {
	a := clade.NewArena()
	ab := a.Join(a.Leaf("a"), a.Leaf("b"))
	cd := a.Join(a.Leaf("c"), a.Leaf("d"))
	joined := a.Join(ab, cd)

	da, _ := a.TraceDist(joined, "a")
	db, _ := a.TraceDist(joined, "b")
	dc, _ := a.TraceDist(joined, "c")
	dd, _ := a.TraceDist(joined, "d")
	require.Equal(t, 2, da) // both original cherries shift by exactly one edge
	require.Equal(t, 2, db)
	require.Equal(t, 2, dc)
	require.Equal(t, 2, dd)
}

func TestJoin_StructuralDedup(t *testing.T) {
	a := clade.NewArena()
	ab1 := a.Join(a.Leaf("a"), a.Leaf("b"))
	ab2 := a.Join(a.Leaf("a"), a.Leaf("b"))
	require.Equal(t, ab1, ab2)
}

func TestNewick(t *testing.T) {
	a := clade.NewArena()
	ab := a.Join(a.Leaf("a"), a.Leaf("b"))
	abc := a.Join(ab, a.Leaf("c"))
	require.Equal(t, "((a,b),c);", a.Newick(abc))
}

func TestNestedSetRepr_OrderIndependent(t *testing.T) {
	rank := map[string]int{"a": 1, "b": 2, "c": 3}

	a1 := clade.NewArena()
	ab1 := a1.Join(a1.Leaf("a"), a1.Leaf("b"))
	abc1 := a1.Join(ab1, a1.Leaf("c"))

	a2 := clade.NewArena()
	ba2 := a2.Join(a2.Leaf("b"), a2.Leaf("a"))
	cba2 := a2.Join(a2.Leaf("c"), ba2)

	require.Equal(t, a1.NestedSetRepr(abc1, rank), a2.NestedSetRepr(cba2, rank))
}
