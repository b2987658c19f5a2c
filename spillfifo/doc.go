// Package spillfifo is an on-disk overflow queue of length-delimited binary
// payloads, used by a Worker to spill compact assembly encodings it cannot
// currently hold in its in-memory workspace.
//
// FIFO is the single-producer/single-consumer form with no helper
// goroutine. Shared is the cross-goroutine form, and the one each Worker
// uses for its own spill: the Worker's Workspace pushes to it and the
// Worker's QueueLoader goroutine drains it.
package spillfifo
