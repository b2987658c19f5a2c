package spillfifo

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/docker/go-units"
	"go.uber.org/zap"
)

// FIFO is a single-producer/single-consumer on-disk queue of opaque binary
// payloads, spread across a rolling sequence of spool files.
// StartOutEnd (the consumer) creates the first spool file; StartInEnd (the
// producer) opens it for appending. Both must be called exactly once.
type FIFO struct {
	dir            string
	maxFileSize    int64
	sizeCheckDelay int
	logger         *zap.Logger

	mu         sync.Mutex
	seq        int
	spool      []string // oldest (reading) to newest (writing)
	startedOut bool
	startedIn  bool

	writeFile        *os.File
	writeSize        int64
	writesSinceCheck int

	readFile *os.File
}

// New returns a FIFO rooted at dir (created if absent), rolling write files
// over at maxFileSize bytes, checked every sizeCheckDelay writes.
func New(dir string, maxFileSize int64, sizeCheckDelay int, logger *zap.Logger) (*FIFO, error) {
	if sizeCheckDelay < 1 {
		sizeCheckDelay = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("spillfifo: create dir: %w", err)
	}
	return &FIFO{
		dir:            dir,
		maxFileSize:    maxFileSize,
		sizeCheckDelay: sizeCheckDelay,
		logger:         logger,
	}, nil
}

// NewFromHumanSize is New with MaxFileSize given as a human byte-size string
// ("64MiB", "512MB") per units.RAMInBytes, mirroring how FIFOMaxFileSize is
// accepted at the coordinator config surface.
func NewFromHumanSize(dir, maxFileSize string, sizeCheckDelay int, logger *zap.Logger) (*FIFO, error) {
	size, err := units.RAMInBytes(maxFileSize)
	if err != nil {
		return nil, fmt.Errorf("spillfifo: parse max file size: %w", err)
	}
	return New(dir, size, sizeCheckDelay, logger)
}

func (f *FIFO) nextFileName() string {
	name := filepath.Join(f.dir, fmt.Sprintf("spill-%06d.bin", f.seq))
	f.seq++
	return name
}

// StartOutEnd starts the consumer (read) end. It creates the first spool
// file and must be called before StartInEnd.
func (f *FIFO) StartOutEnd() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startedOut {
		return ErrAlreadyStarted
	}
	name := f.nextFileName()
	wf, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("spillfifo: create first spool file: %w", err)
	}
	wf.Close()
	rf, err := os.Open(name)
	if err != nil {
		return fmt.Errorf("spillfifo: open first spool file for read: %w", err)
	}
	f.spool = append(f.spool, name)
	f.readFile = rf
	f.startedOut = true
	return nil
}

// StartInEnd starts the producer (write) end, appending to the file
// StartOutEnd created.
func (f *FIFO) StartInEnd() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startedIn {
		return ErrAlreadyStarted
	}
	if !f.startedOut {
		return ErrOutEndNotStarted
	}
	name := f.spool[len(f.spool)-1]
	wf, err := os.OpenFile(name, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("spillfifo: open spool file for write: %w", err)
	}
	f.writeFile = wf
	f.startedIn = true
	return nil
}

// Push appends payload to the queue, rolling over to a new spool file if a
// size check (every sizeCheckDelay writes) finds the current file over
// maxFileSize.
func (f *FIFO) Push(payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.startedIn || !f.startedOut {
		return ErrNotStarted
	}
	if uint64(len(payload)) > uint64(^uint32(0)) {
		return ErrPayloadTooLarge
	}

	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(payload)))
	if _, err := f.writeFile.Write(header[:]); err != nil {
		return fmt.Errorf("spillfifo: write length prefix: %w", err)
	}
	if _, err := f.writeFile.Write(payload); err != nil {
		return fmt.Errorf("spillfifo: write payload: %w", err)
	}
	f.writeSize += int64(len(header)) + int64(len(payload))
	f.writesSinceCheck++

	if f.writesSinceCheck >= f.sizeCheckDelay {
		f.writesSinceCheck = 0
		if f.writeSize >= f.maxFileSize {
			if err := f.rollover(); err != nil {
				return err
			}
		}
	}
	return nil
}

// rollover must be called with f.mu held.
func (f *FIFO) rollover() error {
	if err := f.writeFile.Close(); err != nil {
		return fmt.Errorf("spillfifo: close rolled-over file: %w", err)
	}
	name := f.nextFileName()
	wf, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("spillfifo: create rollover file: %w", err)
	}
	f.writeFile = wf
	f.writeSize = 0
	f.spool = append(f.spool, name)
	f.logger.Debug("spillfifo rollover", zap.String("file", name), zap.String("dir", f.dir))
	return nil
}

// Pop returns the next payload, or ok=false if none is available right now
// (not end-of-stream: the producer may still write more). The spurious-EOF
// workaround seeks the read file back to its pre-read offset whenever a
// read attempt comes up short, so a later Pop can retry from the same spot
// once more bytes land on disk.
func (f *FIFO) Pop() (payload []byte, ok bool, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.startedIn || !f.startedOut {
		return nil, false, ErrNotStarted
	}

	for {
		pos, serr := f.readFile.Seek(0, io.SeekCurrent)
		if serr != nil {
			return nil, false, fmt.Errorf("spillfifo: seek current offset: %w", serr)
		}

		var header [4]byte
		if _, rerr := io.ReadFull(f.readFile, header[:]); rerr != nil {
			if rerr == io.EOF || rerr == io.ErrUnexpectedEOF {
				if advanced, aerr := f.advanceSpoolIfExhausted(); aerr != nil {
					return nil, false, aerr
				} else if advanced {
					continue
				}
				if _, serr := f.readFile.Seek(pos, io.SeekStart); serr != nil {
					return nil, false, fmt.Errorf("spillfifo: seek back after short read: %w", serr)
				}
				return nil, false, nil
			}
			return nil, false, fmt.Errorf("spillfifo: read length prefix: %w", rerr)
		}

		length := binary.BigEndian.Uint32(header[:])
		buf := make([]byte, length)
		if _, rerr := io.ReadFull(f.readFile, buf); rerr != nil {
			if _, serr := f.readFile.Seek(pos, io.SeekStart); serr != nil {
				return nil, false, fmt.Errorf("spillfifo: seek back after partial payload: %w", serr)
			}
			return nil, false, nil
		}
		return buf, true, nil
	}
}

// advanceSpoolIfExhausted discards the current read file and advances to
// the next spool file if one is already queued behind it. Must be called
// with f.mu held.
func (f *FIFO) advanceSpoolIfExhausted() (bool, error) {
	if len(f.spool) <= 1 {
		return false, nil
	}
	name := f.spool[0]
	if err := f.readFile.Close(); err != nil {
		return false, fmt.Errorf("spillfifo: close exhausted spool file: %w", err)
	}
	if err := os.Remove(name); err != nil {
		return false, fmt.Errorf("spillfifo: unlink exhausted spool file: %w", err)
	}
	f.spool = f.spool[1:]
	rf, err := os.Open(f.spool[0])
	if err != nil {
		return false, fmt.Errorf("spillfifo: open next spool file: %w", err)
	}
	f.readFile = rf
	return true, nil
}

// Close tears down every remaining spool file and the spill directory.
func (f *FIFO) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readFile != nil {
		f.readFile.Close()
	}
	if f.writeFile != nil {
		f.writeFile.Close()
	}
	for _, name := range f.spool {
		os.Remove(name)
	}
	return os.Remove(f.dir)
}
