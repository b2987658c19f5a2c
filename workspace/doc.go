// Package workspace holds one Worker's in-memory search state: the
// sort_key-ordered frontier of partial assemblies, a same-iteration cache
// of freshly generated children, the accepted complete assemblies found so
// far, and that Worker's own on-disk spill FIFO.
package workspace
