package spillfifo

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// Shared is the cross-goroutine form of FIFO: a producer and
// a consumer running as separate goroutines rather than separate OS
// processes, but still communicating only through the queue's contract
// rather than by touching each other's state directly.
//
// Go gives a single address space no reason to hand rollover-file creation
// to a third party, but Shared keeps the original's producer/spooler
// handoff anyway: the spooler goroutine is the only thing that ever creates
// a spool file (the producer then opens it for appending), reached via a request/response channel
// pair rather than a polled pipe. That indirection is what would let a
// future out-of-process worker pool take over file creation without any
// change to Push's contract.
type Shared struct {
	dir            string
	maxFileSize    int64
	sizeCheckDelay int
	logger         *zap.Logger

	mu    sync.Mutex
	seq   int
	spool []string

	startedOut bool
	startedIn  bool

	writeFile        *os.File
	writeSize        int64
	writesSinceCheck int

	readFile *os.File

	dataAvail chan struct{}

	rolloverReq  chan struct{}
	rolloverResp chan string
	spoolerDone  chan struct{}

	shutdownMu     sync.Mutex
	shutdownCond   *sync.Cond
	consumerClosed bool
}

// NewShared returns a Shared FIFO rooted at dir and starts its spooler
// goroutine. Call Close to stop the spooler and remove dir.
func NewShared(dir string, maxFileSize int64, sizeCheckDelay int, logger *zap.Logger) (*Shared, error) {
	if sizeCheckDelay < 1 {
		sizeCheckDelay = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("spillfifo: create dir: %w", err)
	}
	s := &Shared{
		dir:            dir,
		maxFileSize:    maxFileSize,
		sizeCheckDelay: sizeCheckDelay,
		logger:         logger,
		dataAvail:      make(chan struct{}, 1),
		rolloverReq:    make(chan struct{}),
		rolloverResp:   make(chan string),
		spoolerDone:    make(chan struct{}),
	}
	s.shutdownCond = sync.NewCond(&s.shutdownMu)
	go s.spool_()
	return s, nil
}

func (s *Shared) nextFileName() string {
	name := filepath.Join(s.dir, fmt.Sprintf("spill-%06d.bin", s.seq))
	s.seq++
	return name
}

// spool_ is the spooler goroutine: the only goroutine that ever creates a
// write-side spool file. It answers rollover requests until the FIFO is
// closed.
func (s *Shared) spool_() {
	defer close(s.spoolerDone)
	for range s.rolloverReq {
		s.mu.Lock()
		name := s.nextFileName()
		s.mu.Unlock()
		if _, err := os.Create(name); err != nil {
			s.logger.Error("spillfifo spooler: create rollover file", zap.Error(err))
			s.rolloverResp <- ""
			continue
		}
		s.rolloverResp <- name
	}
}

// StartOutEnd starts the consumer end, requesting the first spool file from
// the spooler.
func (s *Shared) StartOutEnd() error {
	s.mu.Lock()
	if s.startedOut {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.mu.Unlock()

	s.rolloverReq <- struct{}{}
	name := <-s.rolloverResp
	if name == "" {
		return fmt.Errorf("spillfifo: spooler failed to create first spool file")
	}

	rf, err := os.Open(name)
	if err != nil {
		return fmt.Errorf("spillfifo: open first spool file for read: %w", err)
	}

	s.mu.Lock()
	s.spool = append(s.spool, name)
	s.readFile = rf
	s.startedOut = true
	s.mu.Unlock()
	return nil
}

// StartInEnd starts the producer end, opening the file StartOutEnd asked
// the spooler to create.
func (s *Shared) StartInEnd() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.startedIn {
		return ErrAlreadyStarted
	}
	if !s.startedOut {
		return ErrOutEndNotStarted
	}
	name := s.spool[len(s.spool)-1]
	wf, err := os.OpenFile(name, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("spillfifo: open spool file for write: %w", err)
	}
	s.writeFile = wf
	s.startedIn = true
	return nil
}

// Push appends payload and signals dataAvail. Rollover, when needed, is
// requested from the spooler goroutine rather than performed inline.
func (s *Shared) Push(payload []byte) error {
	s.mu.Lock()
	if !s.startedIn || !s.startedOut {
		s.mu.Unlock()
		return ErrNotStarted
	}
	if uint64(len(payload)) > uint64(^uint32(0)) {
		s.mu.Unlock()
		return ErrPayloadTooLarge
	}

	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(payload)))
	if _, err := s.writeFile.Write(header[:]); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("spillfifo: write length prefix: %w", err)
	}
	if _, err := s.writeFile.Write(payload); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("spillfifo: write payload: %w", err)
	}
	s.writeSize += int64(len(header)) + int64(len(payload))
	s.writesSinceCheck++

	needsRollover := s.writesSinceCheck >= s.sizeCheckDelay && s.writeSize >= s.maxFileSize
	if needsRollover {
		s.writesSinceCheck = 0
	}
	s.mu.Unlock()

	if needsRollover {
		if err := s.rollover(); err != nil {
			return err
		}
	}

	select {
	case s.dataAvail <- struct{}{}:
	default:
	}
	return nil
}

// rollover asks the spooler for a new file name, closes the old write
// file, and switches to the new one. The producer blocks briefly on this
// exchange, mirroring the pipe round-trip in the cross-process original.
func (s *Shared) rollover() error {
	s.rolloverReq <- struct{}{}
	name := <-s.rolloverResp
	if name == "" {
		return fmt.Errorf("spillfifo: spooler failed to create rollover file")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writeFile.Close(); err != nil {
		return fmt.Errorf("spillfifo: close rolled-over file: %w", err)
	}
	wf, err := os.OpenFile(name, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("spillfifo: open rollover file for write: %w", err)
	}
	s.writeFile = wf
	s.writeSize = 0
	s.spool = append(s.spool, name)
	s.logger.Debug("spillfifo rollover", zap.String("file", name), zap.String("dir", s.dir))
	return nil
}

// PopNow is a non-blocking pop: ok=false means no data right now, err set
// only on an I/O failure.
func (s *Shared) PopNow() (payload []byte, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.popLocked()
}

// PopWait blocks until a payload is available, the interrupt signal fires
// true, or stop is closed, whichever happens first.
func (s *Shared) PopWait(stop <-chan struct{}, interrupt func() bool) (payload []byte, ok bool, err error) {
	for {
		payload, ok, err = s.PopNow()
		if ok || err != nil {
			return payload, ok, err
		}
		if interrupt != nil && interrupt() {
			return nil, false, nil
		}
		select {
		case <-s.dataAvail:
		case <-stop:
			return nil, false, nil
		}
	}
}

func (s *Shared) popLocked() ([]byte, bool, error) {
	if !s.startedIn || !s.startedOut {
		return nil, false, ErrNotStarted
	}
	for {
		pos, serr := s.readFile.Seek(0, io.SeekCurrent)
		if serr != nil {
			return nil, false, fmt.Errorf("spillfifo: seek current offset: %w", serr)
		}

		var header [4]byte
		if _, rerr := io.ReadFull(s.readFile, header[:]); rerr != nil {
			if rerr == io.EOF || rerr == io.ErrUnexpectedEOF {
				if advanced, aerr := s.advanceSpoolIfExhausted(); aerr != nil {
					return nil, false, aerr
				} else if advanced {
					continue
				}
				if _, serr := s.readFile.Seek(pos, io.SeekStart); serr != nil {
					return nil, false, fmt.Errorf("spillfifo: seek back after short read: %w", serr)
				}
				return nil, false, nil
			}
			return nil, false, fmt.Errorf("spillfifo: read length prefix: %w", rerr)
		}

		length := binary.BigEndian.Uint32(header[:])
		buf := make([]byte, length)
		if _, rerr := io.ReadFull(s.readFile, buf); rerr != nil {
			if _, serr := s.readFile.Seek(pos, io.SeekStart); serr != nil {
				return nil, false, fmt.Errorf("spillfifo: seek back after partial payload: %w", serr)
			}
			return nil, false, nil
		}
		return buf, true, nil
	}
}

func (s *Shared) advanceSpoolIfExhausted() (bool, error) {
	if len(s.spool) <= 1 {
		return false, nil
	}
	name := s.spool[0]
	if err := s.readFile.Close(); err != nil {
		return false, fmt.Errorf("spillfifo: close exhausted spool file: %w", err)
	}
	if err := os.Remove(name); err != nil {
		return false, fmt.Errorf("spillfifo: unlink exhausted spool file: %w", err)
	}
	s.spool = s.spool[1:]
	rf, err := os.Open(s.spool[0])
	if err != nil {
		return false, fmt.Errorf("spillfifo: open next spool file: %w", err)
	}
	s.readFile = rf
	return true, nil
}

// CloseConsumer marks the consumer side closed and wakes ProducerClose, per
// the shutdown baton: consumer closes first, producer waits on it before
// unlinking the workspace directory.
func (s *Shared) CloseConsumer() error {
	s.mu.Lock()
	if s.readFile != nil {
		s.readFile.Close()
	}
	s.mu.Unlock()

	s.shutdownMu.Lock()
	s.consumerClosed = true
	s.shutdownCond.Broadcast()
	s.shutdownMu.Unlock()
	return nil
}

// CloseProducer waits for the consumer to close, then stops the spooler
// goroutine and removes every remaining spool file plus the workspace
// directory.
func (s *Shared) CloseProducer() error {
	s.shutdownMu.Lock()
	for !s.consumerClosed {
		s.shutdownCond.Wait()
	}
	s.shutdownMu.Unlock()

	close(s.rolloverReq)
	<-s.spoolerDone

	s.mu.Lock()
	if s.writeFile != nil {
		s.writeFile.Close()
	}
	for _, name := range s.spool {
		os.Remove(name)
	}
	s.mu.Unlock()
	return os.Remove(s.dir)
}
