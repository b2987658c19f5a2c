package archive

import "errors"

// Sentinel errors returned by Write and Read.
var (
	// ErrMalformedRecord is returned when a line of leaf_name_encoding,
	// unfinished_assemblies or accepted_complete_assemblies does not have
	// the expected tab-separated field count or a numeric field fails to
	// parse.
	ErrMalformedRecord = errors.New("archive: malformed unfinished_assemblies record")

	// ErrMalformedNewick is returned when a rank-encoded clade string
	// cannot be parsed.
	ErrMalformedNewick = errors.New("archive: malformed rank-encoded clade")

	// ErrUnknownRank is returned when a rank-encoded clade references a
	// rank absent from leaf_name_encoding.
	ErrUnknownRank = errors.New("archive: unknown leaf rank")

	// ErrMissingEntry is returned when Read finds the tar missing one of
	// the four named entries.
	ErrMissingEntry = errors.New("archive: missing required entry")
)
