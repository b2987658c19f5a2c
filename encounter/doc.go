// Package encounter implements the deduplication set of canonical
// partial-assembly strings: Local for a
// single worker's own frontier, Shared for cross-worker deduplication.
package encounter
