// Package basicv1 holds the wire messages and service definition for
// basic.v1.BasicService. See basic.proto for the schema.
package basicv1

import (
	"time"

	"github.com/soundphilosopher/basic-grpc-service/pkg/types"
)

type HelloRequest struct {
	Message string `json:"message"`
}

type HelloResponse struct {
	CloudEvent *CloudEvent `json:"cloud_event,omitempty"`
}

type TalkRequest struct {
	Message string `json:"message"`
}

type TalkResponse struct {
	Answer string `json:"answer"`
}

type BackgroundRequest struct {
	Processes int32 `json:"processes"`
}

type BackgroundResponse struct {
	CloudEvent *CloudEvent `json:"cloud_event,omitempty"`
}

// CloudEvent is the wire form of types.Envelope. ProtoData holds a
// protobuf-encoded google.protobuf.Any.
type CloudEvent struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	SpecVersion string    `json:"spec_version"`
	Type        string    `json:"type"`
	Time        time.Time `json:"time"`
	ProtoData   []byte    `json:"proto_data,omitempty"`
}

// NewCloudEvent converts an envelope to its wire form.
func NewCloudEvent(env *types.Envelope) *CloudEvent {
	if env == nil {
		return nil
	}
	return &CloudEvent{
		ID:          env.ID,
		Source:      env.Source,
		SpecVersion: env.SpecVersion,
		Type:        env.Type,
		Time:        env.Time,
		ProtoData:   env.Payload,
	}
}

// Envelope converts the wire form back to an envelope.
func (e *CloudEvent) Envelope() *types.Envelope {
	if e == nil {
		return nil
	}
	return &types.Envelope{
		ID:          e.ID,
		Source:      e.Source,
		SpecVersion: e.SpecVersion,
		Type:        e.Type,
		Time:        e.Time,
		Payload:     e.ProtoData,
	}
}
