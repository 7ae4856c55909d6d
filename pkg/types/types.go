// Package types defines the domain model shared by the background job engine,
// the gRPC surface and the CLI client.
package types

import (
	"time"
)

// State is the lifecycle state carried by every snapshot.
type State string

// Snapshot states. Pending is the zero state and never leaves the coordinator.
const (
	StatePending  State = "pending"
	StateProcess  State = "process"
	StateComplete State = "complete"
)

// JobRequest asks for RequestedCount units of simulated work.
type JobRequest struct {
	RequestedCount int `json:"requested_count"`
}

// Normalized returns the request with a negative count clamped to zero.
func (r JobRequest) Normalized() JobRequest {
	if r.RequestedCount < 0 {
		return JobRequest{RequestedCount: 0}
	}
	return r
}

// ServiceData is the opaque payload a worker reports.
type ServiceData struct {
	Kind  string `json:"type"`
	Value string `json:"value"`
}

// WorkerResult is produced exactly once by a worker and never mutated afterwards.
type WorkerResult struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Data    ServiceData `json:"data"`
}

// Snapshot is the aggregate state of one background job.
//
// CompletedAt is set if and only if State is StateComplete. Results only grows.
type Snapshot struct {
	State       State          `json:"state"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	Results     []WorkerResult `json:"responses"`
}

// Envelope is a CloudEvents-shaped wrapper around an encoded payload.
// The engine treats it as opaque.
type Envelope struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	SpecVersion string    `json:"spec_version"`
	Type        string    `json:"type"`
	Time        time.Time `json:"time"`
	Payload     []byte    `json:"payload"`
}
