// Package worker runs one Worker's per-process search loop: a Workspace
// wrapping a frontier of partial assemblies, a queue loader goroutine that
// drains the Worker's own spill FIFO back into its inbound channel, and the
// glue that reports accepted topologies and scores to the Coordinator.
package worker
