// ============================================================================
// Worker - simulated backend call
// ============================================================================
//
// Package: internal/worker
// File: worker.go
// Function: One unit of simulated asynchronous work. A background job spawns
//           one Worker goroutine per requested process.
//
// How it works:
//   1. Sleep for a delay drawn from the configured source
//   2. Build exactly one WorkerResult (id, service-<index>, version, payload)
//   3. Hand the result to the job's Collector through a Producer handle
//   4. Release the handle, which may close the Collector
//
// Failure Model:
//   A worker cannot fail. There is no error channel and no retry; the only
//   observable outcome is the single result.
//
// Cancellation:
//   Workers are not cancelled when the consumer goes away. Their results land
//   in the Collector buffer and are dropped with it.
//
// ============================================================================

package worker

import (
	"fmt"
	"time"

	"github.com/soundphilosopher/basic-grpc-service/pkg/types"
)

// Worker represents one simulated call to a backend service.
type Worker struct {
	index int // 1-based spawn index, used for the service name
	opts  Options
}

// New creates a Worker for the given spawn index.
func New(index int, opts Options) *Worker {
	return &Worker{
		index: index,
		opts:  opts.withDefaults(),
	}
}

// Run blocks for the simulated delay and returns the worker's result.
func (w *Worker) Run() types.WorkerResult {
	if w.opts.OnStart != nil {
		w.opts.OnStart()
	}
	start := time.Now()

	if d := w.opts.Delay(); d > 0 {
		time.Sleep(d)
	}

	result := types.WorkerResult{
		ID:      w.opts.NewID(),
		Name:    fmt.Sprintf("service-%d", w.index),
		Version: w.opts.Version,
		Data: types.ServiceData{
			Kind:  "protocol",
			Value: w.opts.Protocol(),
		},
	}

	if w.opts.OnDone != nil {
		w.opts.OnDone(time.Since(start))
	}
	return result
}

// Deliver runs the worker and sends its result through p. The handle is
// always released, even if the send is rejected.
func (w *Worker) Deliver(p *Producer) {
	defer p.Release()

	// A rejected send means the handle was already released; nothing else
	// can observe the result.
	_ = p.Send(w.Run())
}
