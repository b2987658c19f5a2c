package spillfifo_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/prunepath/topolenum/spillfifo"
	"github.com/stretchr/testify/require"
)

func TestFIFO_PushPopOrder(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "fifo")
	f, err := spillfifo.New(dir, 1<<20, 8, nil)
	require.NoError(t, err)
	require.NoError(t, f.StartOutEnd())
	require.NoError(t, f.StartInEnd())

	require.NoError(t, f.Push([]byte("first")))
	require.NoError(t, f.Push([]byte("second")))

	got1, ok, err := f.Pop()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "first", string(got1))

	got2, ok, err := f.Pop()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "second", string(got2))

	_, ok, err = f.Pop()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestFIFO_PopOnEmptyIsAbsenceNotError(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "fifo")
	f, err := spillfifo.New(dir, 1<<20, 8, nil)
	require.NoError(t, err)
	require.NoError(t, f.StartOutEnd())
	require.NoError(t, f.StartInEnd())

	_, ok, err := f.Pop()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestFIFO_PopAfterLatePush(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "fifo")
	f, err := spillfifo.New(dir, 1<<20, 8, nil)
	require.NoError(t, err)
	require.NoError(t, f.StartOutEnd())
	require.NoError(t, f.StartInEnd())

	_, ok, err := f.Pop()
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, f.Push([]byte("late")))

	got, ok, err := f.Pop()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "late", string(got))
}

func TestFIFO_RolloverSpansMultipleFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "fifo")
	// Tiny max size + check-every-write forces a rollover on every second push.
	f, err := spillfifo.New(dir, 16, 1, nil)
	require.NoError(t, err)
	require.NoError(t, f.StartOutEnd())
	require.NoError(t, f.StartInEnd())

	payloads := []string{"alpha", "bravo", "charlie", "delta", "echo"}
	for _, p := range payloads {
		require.NoError(t, f.Push([]byte(p)))
	}
	for _, want := range payloads {
		got, ok, err := f.Pop()
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, want, string(got))
	}
}

func TestFIFO_DoubleStartRejected(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "fifo")
	f, err := spillfifo.New(dir, 1<<20, 8, nil)
	require.NoError(t, err)
	require.NoError(t, f.StartOutEnd())
	require.ErrorIs(t, f.StartOutEnd(), spillfifo.ErrAlreadyStarted)
}

func TestShared_PushPopRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shared")
	s, err := spillfifo.NewShared(dir, 1<<20, 8, nil)
	require.NoError(t, err)
	require.NoError(t, s.StartOutEnd())
	require.NoError(t, s.StartInEnd())

	require.NoError(t, s.Push([]byte("payload")))
	got, ok, err := s.PopNow()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "payload", string(got))

	require.NoError(t, s.CloseConsumer())
	require.NoError(t, s.CloseProducer())
}

func TestShared_PopWaitWakesOnPush(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shared")
	s, err := spillfifo.NewShared(dir, 1<<20, 8, nil)
	require.NoError(t, err)
	require.NoError(t, s.StartOutEnd())
	require.NoError(t, s.StartInEnd())

	stop := make(chan struct{})
	result := make(chan []byte, 1)
	go func() {
		got, ok, err := s.PopWait(stop, nil)
		if err == nil && ok {
			result <- got
		} else {
			result <- nil
		}
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, s.Push([]byte("woken")))

	select {
	case got := <-result:
		require.Equal(t, "woken", string(got))
	case <-time.After(2 * time.Second):
		t.Fatal("PopWait never returned after Push")
	}

	require.NoError(t, s.CloseConsumer())
	require.NoError(t, s.CloseProducer())
}

func TestShared_ShutdownBatonOrdersCloses(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shared")
	s, err := spillfifo.NewShared(dir, 1<<20, 8, nil)
	require.NoError(t, err)
	require.NoError(t, s.StartOutEnd())
	require.NoError(t, s.StartInEnd())

	producerDone := make(chan error, 1)
	go func() {
		producerDone <- s.CloseProducer()
	}()

	select {
	case <-producerDone:
		t.Fatal("CloseProducer returned before CloseConsumer")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, s.CloseConsumer())
	require.NoError(t, <-producerDone)
}
