// ============================================================================
// Background Job Coordinator
// ============================================================================
//
// Package: internal/controller
// File: coordinator.go
// Function: Fans a background request out to N simulated workers, fans their
//           results back in, and streams a growing snapshot after every change.
//
// Job Flow (one coordinator goroutine per job):
//
//   Start(ctx, req)
//     ├─ n = max(0, requested)
//     ├─ spawn n workers → Collector (capacity n)
//     ├─ Seal collector (owner reference dropped)
//     ├─ emit {Process, []}                       ← "job accepted"
//     ├─ for each result in completion order:
//     │     append, emit {Process, results}
//     ├─ collector exhausted
//     └─ emit {Complete, results, completedAt}
//
//   Uninterrupted jobs emit exactly n + 2 snapshots.
//
// Disconnect Handling:
//   ctx cancellation is the only stop signal. Before each emission the
//   coordinator checks ctx, and a blocked emission selects on ctx.Done().
//   Once an emission fails nothing else is emitted and the outbound channel
//   is closed. Workers already spawned are left to finish; their results
//   stay in the collector buffer.
//
// Reporting:
//   Start settles a job (tracker, metrics, log) when its snapshots enter the
//   outbound buffer. Stream settles it from what the sink accepted, so a
//   consumer lost after the buffer filled is still reported abandoned.
//
// Ownership:
//   The snapshot is created, mutated and wrapped only on the coordinator
//   goroutine. The outbound channel has exactly one writer.
//
// ============================================================================

package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/soundphilosopher/basic-grpc-service/internal/envelope"
	"github.com/soundphilosopher/basic-grpc-service/internal/worker"
	"github.com/soundphilosopher/basic-grpc-service/pkg/types"
)

// ErrTooManyJobs is returned by Stream when MaxConcurrentJobs is reached.
var ErrTooManyJobs = errors.New("controller: too many concurrent background jobs")

// Config holds coordinator settings.
type Config struct {
	ServiceVersion    string        // version reported by simulated services
	MinDelay          time.Duration // lower bound of simulated call latency
	MaxDelay          time.Duration // upper bound of simulated call latency
	MaxConcurrentJobs int64         // 0 means unlimited
}

// Wrapper turns a snapshot into the envelope written to the stream.
type Wrapper interface {
	Wrap(s *types.Snapshot) (*types.Envelope, error)
}

// Tracker observes job lifecycle transitions.
type Tracker interface {
	Start(id string, requested int)
	Progress(id string, delivered int)
	Finish(id string)
	AddError(id string, msg string)
}

// Recorder receives metric events.
type Recorder interface {
	JobStarted()
	JobCompleted(d time.Duration)
	JobAbandoned()
	SnapshotEmitted()
	WorkerStarted()
	WorkerFinished(d time.Duration)
}

// Sink is the consumer side of a stream. Send blocks while the consumer is
// not ready and fails once it has gone away.
type Sink interface {
	Send(env *types.Envelope) error
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(env *types.Envelope) error

// Send calls f(env).
func (f SinkFunc) Send(env *types.Envelope) error { return f(env) }

// Coordinator runs background jobs. It holds no per-job state and is safe
// for concurrent use.
type Coordinator struct {
	cfg      Config
	clock    func() time.Time
	newID    func() string
	delay    func() time.Duration
	protocol func() string
	wrapper  Wrapper
	tracker  Tracker
	recorder Recorder
	admit    *semaphore.Weighted
	logger   *slog.Logger
}

// Option customizes a Coordinator.
type Option func(*Coordinator)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.clock = now }
}

// WithIDSource overrides the generator for job and result ids.
func WithIDSource(newID func() string) Option {
	return func(c *Coordinator) { c.newID = newID }
}

// WithDelay overrides the simulated call latency source.
func WithDelay(delay func() time.Duration) Option {
	return func(c *Coordinator) { c.delay = delay }
}

// WithProtocol overrides the worker payload value source.
func WithProtocol(pick func() string) Option {
	return func(c *Coordinator) { c.protocol = pick }
}

// WithWrapper overrides the envelope adapter.
func WithWrapper(w Wrapper) Option {
	return func(c *Coordinator) { c.wrapper = w }
}

// WithTracker registers a lifecycle observer.
func WithTracker(t Tracker) Option {
	return func(c *Coordinator) { c.tracker = t }
}

// WithRecorder registers a metrics sink.
func WithRecorder(r Recorder) Option {
	return func(c *Coordinator) { c.recorder = r }
}

// WithLogger overrides the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// New creates a Coordinator.
func New(cfg Config, opts ...Option) *Coordinator {
	if cfg.ServiceVersion == "" {
		cfg.ServiceVersion = worker.DefaultVersion
	}
	if cfg.MinDelay == 0 && cfg.MaxDelay == 0 {
		cfg.MinDelay, cfg.MaxDelay = worker.DefaultMinDelay, worker.DefaultMaxDelay
	}

	c := &Coordinator{
		cfg:      cfg,
		clock:    time.Now,
		newID:    uuid.NewString,
		protocol: worker.RandomProtocol,
		wrapper:  envelope.NewAdapter(),
		tracker:  nopTracker{},
		recorder: nopRecorder{},
		logger:   slog.Default().With("component", "coordinator"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.delay == nil {
		c.delay = worker.UniformDelay(cfg.MinDelay, cfg.MaxDelay)
	}
	if cfg.MaxConcurrentJobs > 0 {
		c.admit = semaphore.NewWeighted(cfg.MaxConcurrentJobs)
	}
	return c
}

// errDisconnected marks a job whose consumer went away.
var errDisconnected = errors.New("consumer disconnected")

// job is one run of the fan-out. err, results, startedAt and completedAt are
// written by run before out is closed.
type job struct {
	id  string
	n   int
	out chan *types.Envelope

	// buffered settles the job when its last snapshot enters out. Otherwise
	// the consumer settles it from what it actually delivered.
	buffered bool

	err         error
	results     int
	startedAt   time.Time
	completedAt time.Time
}

// Start launches a job and returns its id and outbound snapshot channel.
// The channel is buffered to the normalized requested count and closed after
// the final snapshot or once ctx is done. Start has no view of the reader,
// so the job is reported complete once its final snapshot is buffered.
func (c *Coordinator) Start(ctx context.Context, req types.JobRequest) (string, <-chan *types.Envelope) {
	j := c.launch(ctx, req, true)
	return j.id, j.out
}

// Stream runs a job and forwards every snapshot to sink in order. The first
// failed Send cancels the job and Stream returns nil: a departed consumer is
// not an error. Stream only fails when the job cannot be admitted.
//
// Metrics and the tracker follow what sink accepted: the job completes only
// once the Complete snapshot has been sent.
func (c *Coordinator) Stream(ctx context.Context, req types.JobRequest, sink Sink) error {
	if c.admit != nil {
		if !c.admit.TryAcquire(1) {
			return ErrTooManyJobs
		}
		defer c.admit.Release(1)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	j := c.launch(ctx, req, false)
	sent := 0
	for env := range j.out {
		if ctx.Err() != nil {
			continue // run is stopping; drain until it closes out
		}
		if err := sink.Send(env); err != nil {
			cancel()
			c.abandon(j.id, delivered(sent, j.n), fmt.Errorf("%w: %w", errDisconnected, err))
			return nil
		}
		sent++
		c.recorder.SnapshotEmitted()
		if r := sent - 1; r >= 1 && r <= j.n {
			c.tracker.Progress(j.id, r)
		}
	}

	// out is closed: run has finished writing j.
	err := j.err
	if err == nil && sent < j.n+2 {
		err = ctx.Err()
	}
	if err != nil {
		c.abandon(j.id, delivered(sent, j.n), err)
		return nil
	}
	c.finish(j.id, j.results, c.clock().Sub(j.startedAt))
	return nil
}

// delivered converts a count of sent snapshots into a count of sent results.
func delivered(sent, n int) int {
	return min(max(sent-1, 0), n)
}

func (c *Coordinator) launch(ctx context.Context, req types.JobRequest, buffered bool) *job {
	n := req.Normalized().RequestedCount
	j := &job{
		id:       c.newID(),
		n:        n,
		out:      make(chan *types.Envelope, n),
		buffered: buffered,
	}
	go c.run(ctx, j)
	return j
}

func (c *Coordinator) run(ctx context.Context, j *job) {
	defer close(j.out)
	defer func() {
		if !j.buffered {
			return
		}
		if j.err != nil {
			c.abandon(j.id, j.results, j.err)
			return
		}
		c.finish(j.id, j.results, j.completedAt.Sub(j.startedAt))
	}()

	snap := &types.Snapshot{State: types.StatePending}

	// 1. Fan out.
	collector := worker.NewCollector(j.n)
	opts := c.workerOptions()
	for i := 1; i <= j.n; i++ {
		p, err := collector.Producer()
		if err != nil {
			j.err = fmt.Errorf("register worker %d: %w", i, err)
			return
		}
		go worker.New(i, opts).Deliver(p)
	}
	collector.Seal()

	snap.State = types.StateProcess
	snap.StartedAt = c.clock()
	snap.Results = make([]types.WorkerResult, 0, j.n)
	j.startedAt = snap.StartedAt

	c.tracker.Start(j.id, j.n)
	c.recorder.JobStarted()
	c.logger.Info("Background job started", "job_id", j.id, "requested", j.n)

	defer func() {
		if j.err != nil && collector.Pending() > 0 {
			c.logger.Debug("Results left in collector",
				"job_id", j.id,
				"buffered", collector.Pending())
		}
	}()

	if j.err = c.emit(ctx, j, snap); j.err != nil {
		return
	}

	// 2. Fan in, one snapshot per result.
	for {
		result, err := collector.Next(ctx)
		if errors.Is(err, worker.ErrExhausted) {
			break
		}
		if err != nil {
			j.err = err
			return
		}

		snap.Results = append(snap.Results, result)
		if j.err = c.emit(ctx, j, snap); j.err != nil {
			return
		}
		j.results = len(snap.Results)
		if j.buffered {
			c.tracker.Progress(j.id, j.results)
		}
	}

	// 3. Finish.
	completedAt := c.clock()
	snap.State = types.StateComplete
	snap.CompletedAt = &completedAt
	j.completedAt = completedAt

	j.err = c.emit(ctx, j, snap)
}

// emit wraps snap and hands it to j.out, unless ctx is done first.
func (c *Coordinator) emit(ctx context.Context, j *job, snap *types.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env, err := c.wrapper.Wrap(snap)
	if err != nil {
		return fmt.Errorf("wrap snapshot: %w", err)
	}

	select {
	case j.out <- env:
		if j.buffered {
			c.recorder.SnapshotEmitted()
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Coordinator) finish(jobID string, results int, d time.Duration) {
	c.tracker.Finish(jobID)
	c.recorder.JobCompleted(d)
	c.logger.Info("Background job completed",
		"job_id", jobID,
		"delivered", results,
		"duration", d)
}

func (c *Coordinator) abandon(jobID string, results int, cause error) {
	msg := errDisconnected.Error()
	if !errors.Is(cause, errDisconnected) &&
		!errors.Is(cause, context.Canceled) &&
		!errors.Is(cause, context.DeadlineExceeded) {
		msg = cause.Error()
	}
	c.tracker.AddError(jobID, msg)
	c.recorder.JobAbandoned()
	c.logger.Warn("Background job stopped early",
		"job_id", jobID,
		"delivered", results,
		"error", cause)
}

func (c *Coordinator) workerOptions() worker.Options {
	return worker.Options{
		Version:  c.cfg.ServiceVersion,
		Delay:    c.delay,
		NewID:    c.newID,
		Protocol: c.protocol,
		OnStart:  c.recorder.WorkerStarted,
		OnDone:   c.recorder.WorkerFinished,
	}
}

type nopTracker struct{}

func (nopTracker) Start(string, int)       {}
func (nopTracker) Progress(string, int)    {}
func (nopTracker) Finish(string)           {}
func (nopTracker) AddError(string, string) {}

type nopRecorder struct{}

func (nopRecorder) JobStarted()                  {}
func (nopRecorder) JobCompleted(time.Duration)   {}
func (nopRecorder) JobAbandoned()                {}
func (nopRecorder) SnapshotEmitted()             {}
func (nopRecorder) WorkerStarted()               {}
func (nopRecorder) WorkerFinished(time.Duration) {}
