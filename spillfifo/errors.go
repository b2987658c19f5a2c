package spillfifo

import "errors"

var (
	// ErrAlreadyStarted is returned by StartOutEnd/StartInEnd if called
	// more than once on the same FIFO.
	ErrAlreadyStarted = errors.New("spillfifo: end already started")

	// ErrOutEndNotStarted is returned by StartInEnd if called before the
	// consumer's StartOutEnd, which owns first-file creation.
	ErrOutEndNotStarted = errors.New("spillfifo: out end not started")

	// ErrNotStarted is returned by Push/Pop if called before both ends
	// have been started.
	ErrNotStarted = errors.New("spillfifo: fifo not fully started")

	// ErrPayloadTooLarge is returned by Push for a payload whose encoded
	// length would overflow the uint32 length prefix.
	ErrPayloadTooLarge = errors.New("spillfifo: payload exceeds maximum encodable size")
)
