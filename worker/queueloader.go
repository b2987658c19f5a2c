package worker

import (
	"github.com/prunepath/topolenum/spillfifo"
	"go.uber.org/zap"
)

// QueueLoader is the FIFO's sole consumer: it pops payloads (blocking on
// the shared "data available" event between pops) and forwards them to
// inbound for Workspace's topoff to pick up. On stop, once a pop finds
// nothing pending, it returns — this is the FIFO_EMPTY disambiguation:
// "no data" during normal running just means try again later, but "no
// data" after stop has fired means the spill is confirmed dry and this
// Worker really is finished.
//
// closeOnExit must be true only when inbound is this Worker's own private
// channel (cfg.Inbound was unset): every Worker's FIFO funnels into the
// SAME shared inbound queue so overflow from one Worker can reach another,
// and closing a channel other Workers' QueueLoaders
// still send on would panic them. A shared channel is simply left open;
// nothing further gets sent to it once this function returns.
//
// QueueLoader owns the consumer side of the shutdown baton: it always
// calls fifo.CloseConsumer before returning, however it exits.
func QueueLoader(fifo *spillfifo.Shared, inbound chan<- []byte, closeOnExit bool, stop <-chan struct{}, logger *zap.Logger) {
	if closeOnExit {
		defer close(inbound)
	}
	defer func() {
		if err := fifo.CloseConsumer(); err != nil {
			logger.Error("queue loader: close fifo consumer", zap.Error(err))
		}
	}()

	interrupted := func() bool {
		select {
		case <-stop:
			return true
		default:
			return false
		}
	}

	for {
		data, ok, err := fifo.PopWait(stop, interrupted)
		if err != nil {
			logger.Error("queue loader: pop", zap.Error(err))
			return
		}
		if !ok {
			// PopWait only comes back empty-handed once stop has fired;
			// the spill is confirmed dry for good.
			return
		}
		select {
		case inbound <- data:
		case <-stop:
			return
		}
	}
}
