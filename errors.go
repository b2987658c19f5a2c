package topolenum

import "errors"

// ErrBadFIFOSize is returned when FIFOMaxFileSize cannot be parsed as a
// human-readable byte size (e.g. "1GB", "512MB").
var ErrBadFIFOSize = errors.New("topolenum: fifo_max_file_size must be a size like \"1GB\"")
