// Package coordinator implements the process that seeds Workers, mediates
// the shared minimum-score broadcast, collects their results, and handles
// save/restart.
//
// Run owns one search end to end: it either expands the zeroth assembly
// into enough distinct seeds for every Worker (a fresh run) or reloads an
// earlier save archive (a restart), then fans Workers out with
// golang.org/x/sync/errgroup, drains their score reports into a single
// atomic floor, and on termination either returns the accepted topologies
// or writes a save archive.
package coordinator
