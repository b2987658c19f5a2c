// Package archive implements the save/restart codec: a gzipped tar
// containing a leaf-rank encoding table, the in-flight (unfinished)
// assemblies, the shared encountered-set snapshot, and the accepted
// complete trees found so far, written with archive/tar and compress/gzip
// rather than shelling out to a directory-then-zip dance.
package archive
