// ============================================================================
// Collector - fan-in of worker results
// ============================================================================
//
// Package: internal/worker
// File: collector.go
//
// Ownership:
//   N producers (one Producer handle per worker), exactly one consumer (the
//   job coordinator). The owner holds one implicit reference from
//   NewCollector until Seal.
//
// Close Semantics:
//   The result channel is closed when the last reference is released:
//
//     refs = 1 (owner)
//     Producer() x N  -> refs = N + 1
//     Seal()          -> refs = N
//     Release() x N   -> refs = 0 -> close(ch)
//
//   Next then reports ErrExhausted instead of blocking. With N = 0 the
//   channel closes at Seal.
//
// Capacity:
//   The buffer holds exactly N results, so no producer ever blocks on its
//   single Send even while the consumer is busy.
//
// ============================================================================

package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/soundphilosopher/basic-grpc-service/pkg/types"
)

var (
	// ErrExhausted reports that every producer has released its handle and
	// all buffered results have been read.
	ErrExhausted = errors.New("worker: collector exhausted")
	// ErrSealed is returned by Producer once the owner has sealed the collector.
	ErrSealed = errors.New("worker: collector sealed")
	// ErrReleased is returned by Send on a handle that was already released.
	ErrReleased = errors.New("worker: producer released")
)

// Collector aggregates results from many producers in completion order.
type Collector struct {
	ch        chan types.WorkerResult
	refs      atomic.Int64
	sealed    atomic.Bool
	sealOnce  sync.Once
	closeOnce sync.Once
}

// NewCollector creates a collector buffering up to capacity results.
func NewCollector(capacity int) *Collector {
	if capacity < 0 {
		capacity = 0
	}
	c := &Collector{
		ch: make(chan types.WorkerResult, capacity),
	}
	c.refs.Store(1)
	return c
}

// Producer hands out a new producer reference. It must be called before Seal.
func (c *Collector) Producer() (*Producer, error) {
	if c.sealed.Load() {
		return nil, ErrSealed
	}
	c.refs.Add(1)
	return &Producer{c: c}, nil
}

// Seal drops the owner's reference. Further Seal calls are no-ops.
func (c *Collector) Seal() {
	c.sealOnce.Do(func() {
		c.sealed.Store(true)
		c.release()
	})
}

// Next blocks until a result is available, the collector is exhausted, or
// ctx is done.
func (c *Collector) Next(ctx context.Context) (types.WorkerResult, error) {
	select {
	case r, ok := <-c.ch:
		if !ok {
			return types.WorkerResult{}, ErrExhausted
		}
		return r, nil
	case <-ctx.Done():
		return types.WorkerResult{}, ctx.Err()
	}
}

// Pending returns the number of results buffered but not yet read.
func (c *Collector) Pending() int {
	return len(c.ch)
}

func (c *Collector) release() {
	if c.refs.Add(-1) == 0 {
		c.closeOnce.Do(func() { close(c.ch) })
	}
}

// Producer is a single-owner send handle onto a Collector.
type Producer struct {
	c        *Collector
	released atomic.Bool
	once     sync.Once
}

// Send delivers one result. It never blocks while the number of sends stays
// within the collector's capacity.
func (p *Producer) Send(r types.WorkerResult) error {
	if p.released.Load() {
		return ErrReleased
	}
	p.c.ch <- r
	return nil
}

// Release drops this handle's reference. It is safe to call more than once.
func (p *Producer) Release() {
	p.once.Do(func() {
		p.released.Store(true)
		p.c.release()
	})
}
