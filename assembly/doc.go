// Package assembly implements the partial-tree-assembly state machine at
// the center of the search: Assembly holds a partial forest of built
// clades plus the still-live subset of the constraint table, and
// GenerateExtensions produces every admissible one-step child assembly.
//
// Derived quantities (distances to root, pairs accounted for, best-case
// bound, sort key) are explicitly memoized on the Assembly value that
// computed them. Assembly is otherwise grown only by replacement — every
// extension in GenerateExtensions builds a fresh child rather than mutating
// BuiltClades/FreeLeaves/ConstraintIdx/Score in place — so a memoized field
// is always valid for the value it was computed on.
package assembly
