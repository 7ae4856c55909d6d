// ============================================================================
// Job Registry - background job status lookup
// ============================================================================
//
// Package: internal/registry
// File: registry.go
// Function: Tracks the lifecycle of every background job so it can be looked
//           up outside of the stream that produced it.
//
// State Machine:
//   Process (Start)
//      ↓ Progress() after every delivered result
//   Complete (Finish)
//
//   AddError ends a job that has not completed: it keeps the Process state
//   of its last snapshot, gains Abandoned and StoppedAt, and ignores Finish.
//
// Retention:
//   In memory only. When the number of entries exceeds the limit, the oldest
//   ended job (complete or abandoned) is evicted first; if none has ended,
//   the oldest job is.
//
// Concurrency:
//   sync.RWMutex guards the map; reads take RLock.
//
// ============================================================================

package registry

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/soundphilosopher/basic-grpc-service/pkg/types"
)

// DefaultLimit bounds the number of tracked jobs.
const DefaultLimit = 1024

var (
	// ErrJobNotFound is returned when no job is tracked under the id.
	ErrJobNotFound = errors.New("registry: job not found")
)

// JobStatus is a point-in-time view of one job.
type JobStatus struct {
	ID          string      `json:"id"`
	State       types.State `json:"state"`
	Requested   int         `json:"requested"`
	Delivered   int         `json:"delivered"`
	StartedAt   time.Time   `json:"started_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
	Abandoned   bool        `json:"abandoned,omitempty"`
	StoppedAt   *time.Time  `json:"stopped_at,omitempty"`
	Errors      []string    `json:"errors,omitempty"`
}

func (s *JobStatus) ended() bool {
	return s.State == types.StateComplete || s.Abandoned
}

func (s *JobStatus) clone() JobStatus {
	c := *s
	c.Errors = append([]string(nil), s.Errors...)
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		c.CompletedAt = &t
	}
	if s.StoppedAt != nil {
		t := *s.StoppedAt
		c.StoppedAt = &t
	}
	return c
}

// Registry is an in-memory job status table.
type Registry struct {
	mu    sync.RWMutex
	jobs  map[string]*JobStatus
	limit int
	now   func() time.Time
}

// New creates a Registry holding at most limit jobs. A non-positive limit
// selects DefaultLimit.
func New(limit int) *Registry {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Registry{
		jobs:  make(map[string]*JobStatus),
		limit: limit,
		now:   time.Now,
	}
}

// Start records a newly accepted job.
func (r *Registry) Start(id string, requested int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.jobs[id] = &JobStatus{
		ID:        id,
		State:     types.StateProcess,
		Requested: requested,
		StartedAt: r.now(),
	}
	if len(r.jobs) > r.limit {
		r.evictLocked(id)
	}
}

// Progress records how many results the job has delivered so far.
func (r *Registry) Progress(id string, delivered int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if job, ok := r.jobs[id]; ok && delivered > job.Delivered {
		job.Delivered = delivered
	}
}

// Finish marks the job complete.
func (r *Registry) Finish(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok || job.ended() {
		return
	}
	now := r.now()
	job.State = types.StateComplete
	job.CompletedAt = &now
}

// AddError appends an error message to the job and, unless it already
// completed, marks it abandoned.
func (r *Registry) AddError(id string, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return
	}
	job.Errors = append(job.Errors, msg)
	if !job.ended() {
		now := r.now()
		job.Abandoned = true
		job.StoppedAt = &now
	}
}

// Get returns a copy of the job's status.
func (r *Registry) Get(id string) (JobStatus, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	if !ok {
		return JobStatus{}, ErrJobNotFound
	}
	return job.clone(), nil
}

// HasErrors reports whether any error was recorded for the job.
func (r *Registry) HasErrors(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	return ok && len(job.Errors) > 0
}

// Errors returns the errors recorded for the job, or nil.
func (r *Registry) Errors(id string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if job, ok := r.jobs[id]; ok {
		return append([]string(nil), job.Errors...)
	}
	return nil
}

// List returns every tracked job ordered by start time, oldest first.
func (r *Registry) List() []JobStatus {
	r.mu.RLock()
	out := make([]JobStatus, 0, len(r.jobs))
	for _, job := range r.jobs {
		out = append(out, job.clone())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}

func (r *Registry) size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}

// evictLocked drops one entry other than keep. Caller holds mu.
func (r *Registry) evictLocked(keep string) {
	var victim *JobStatus
	for id, job := range r.jobs {
		if id == keep {
			continue
		}
		if victim == nil || better(job, victim) {
			victim = job
		}
	}
	if victim != nil {
		delete(r.jobs, victim.ID)
	}
}

// better reports whether a is a better eviction candidate than b.
func better(a, b *JobStatus) bool {
	aDone, bDone := a.ended(), b.ended()
	if aDone != bDone {
		return aDone
	}
	return a.StartedAt.Before(b.StartedAt)
}
