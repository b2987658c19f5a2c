package coordinator

import (
	"fmt"
	"time"

	"github.com/prunepath/topolenum/archive"
	"github.com/prunepath/topolenum/assembly"
	"github.com/prunepath/topolenum/histogram"
)

// writeSave captures every still-unfinished assembly, the full dedup set,
// and every accepted tree into a save archive under dir, named with a
// timestamp-free, caller-supplied stem so repeated saves in tests are
// deterministic.
func writeSave(dir, name string, ctx *histogram.Context, unfinished []*assembly.Assembly, encountered []string, accepted []archive.AcceptedTree) (string, error) {
	rank := ctx.LeafRank
	records := make([]archive.UnfinishedAssembly, len(unfinished))
	for i, a := range unfinished {
		records[i] = archive.FromAssembly(a, rank)
	}
	leafEncoding := archive.InvertLeafRank(rank)

	path, err := archive.Write(dir, name, records, encountered, accepted, leafEncoding)
	if err != nil {
		return "", fmt.Errorf("coordinator: write save archive: %w", err)
	}
	return path, nil
}

// saveFileStem derives a save archive's base name: the caller-supplied
// name if set, otherwise a fixed prefix plus a UTC timestamp to the
// second, so runs saving in different seconds never collide on the same
// archive name.
func saveFileStem(configured string, now time.Time) string {
	if configured != "" {
		return configured
	}
	return "topolenum-save-" + now.UTC().Format("20060102T150405Z")
}
