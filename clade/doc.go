// Package clade implements the minimal immutable tree representation that
// Assembly and ProposedExtension operate on: arena-owned nodes keyed by
// their structure, so structurally identical clades across different
// assemblies share the same underlying node — no weak references, no
// wrapper/clade cyclic ownership.
//
// A clade grows by joining: two existing clades (or leaves) become the two
// children of a brand-new, unnamed root. Neither operand's identity
// survives the join, so both sides' distance to the new root is exactly
// one more edge than their distance to their own former root — the bound
// the assembly package's best-case heuristic relies on.
package clade
