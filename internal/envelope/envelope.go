// Package envelope wraps snapshots and greetings into CloudEvents-shaped
// envelopes. Payloads are protobuf-encoded google.protobuf.Any values whose
// content is a google.protobuf.Struct rendering of the event.
package envelope

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/anypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/soundphilosopher/basic-grpc-service/pkg/types"
)

// CloudEvents attributes used by the service.
const (
	SpecVersion = "1.0"

	BackgroundSource       = "basic.v1/Background"
	BackgroundType         = "type.googleapis.com/basic.service.v1.BackgroundResponse"
	BackgroundEventTypeURL = "type.googleapis.com/basic.service.v1.BackgroundResponseEvent"

	HelloSource       = "/basic/hello"
	HelloType         = "io.basic.hello"
	HelloEventTypeURL = "basic.service.v1.HelloResponseEvent"
)

var (
	// ErrUnexpectedType is returned when an envelope carries a different event.
	ErrUnexpectedType = errors.New("envelope: unexpected payload type")
	// ErrMalformed is returned when a payload cannot be decoded.
	ErrMalformed = errors.New("envelope: malformed payload")
)

// Adapter builds envelopes. It is safe for concurrent use.
type Adapter struct {
	now   func() time.Time
	newID func() string
}

// NewAdapter returns an Adapter using the wall clock and random UUIDs.
func NewAdapter() *Adapter {
	return &Adapter{now: time.Now, newID: uuid.NewString}
}

// NewAdapterWith returns an Adapter with injected clock and id source.
func NewAdapterWith(now func() time.Time, newID func() string) *Adapter {
	return &Adapter{now: now, newID: newID}
}

// Wrap encodes s into a background envelope. s is read synchronously and not
// retained.
func (a *Adapter) Wrap(s *types.Snapshot) (*types.Envelope, error) {
	st, err := structpb.NewStruct(snapshotFields(s))
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return a.seal(BackgroundSource, BackgroundType, BackgroundEventTypeURL, st)
}

// WrapGreeting encodes a hello greeting into an envelope.
func (a *Adapter) WrapGreeting(greeting string) (*types.Envelope, error) {
	st, err := structpb.NewStruct(map[string]any{"greeting": greeting})
	if err != nil {
		return nil, fmt.Errorf("encode greeting: %w", err)
	}
	return a.seal(HelloSource, HelloType, HelloEventTypeURL, st)
}

func (a *Adapter) seal(source, typ, typeURL string, st *structpb.Struct) (*types.Envelope, error) {
	value, err := proto.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	payload, err := proto.Marshal(&anypb.Any{TypeUrl: typeURL, Value: value})
	if err != nil {
		return nil, fmt.Errorf("marshal any: %w", err)
	}

	return &types.Envelope{
		ID:          a.newID(),
		Source:      source,
		SpecVersion: SpecVersion,
		Type:        typ,
		Time:        a.now().UTC(),
		Payload:     payload,
	}, nil
}

// Decode reverses Wrap.
func Decode(env *types.Envelope) (*types.Snapshot, error) {
	st, err := open(env, BackgroundEventTypeURL)
	if err != nil {
		return nil, err
	}
	return snapshotFromStruct(st)
}

// DecodeGreeting reverses WrapGreeting.
func DecodeGreeting(env *types.Envelope) (string, error) {
	st, err := open(env, HelloEventTypeURL)
	if err != nil {
		return "", err
	}
	return st.GetFields()["greeting"].GetStringValue(), nil
}

func open(env *types.Envelope, typeURL string) (*structpb.Struct, error) {
	if env == nil {
		return nil, fmt.Errorf("%w: nil envelope", ErrMalformed)
	}
	var a anypb.Any
	if err := proto.Unmarshal(env.Payload, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if a.GetTypeUrl() != typeURL {
		return nil, fmt.Errorf("%w: %q", ErrUnexpectedType, a.GetTypeUrl())
	}
	var st structpb.Struct
	if err := proto.Unmarshal(a.GetValue(), &st); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &st, nil
}

func snapshotFields(s *types.Snapshot) map[string]any {
	responses := make([]any, 0, len(s.Results))
	for _, r := range s.Results {
		responses = append(responses, map[string]any{
			"id":      r.ID,
			"name":    r.Name,
			"version": r.Version,
			"data": map[string]any{
				"type":  r.Data.Kind,
				"value": r.Data.Value,
			},
		})
	}

	fields := map[string]any{
		"state":      string(s.State),
		"started_at": s.StartedAt.UTC().Format(time.RFC3339Nano),
		"responses":  responses,
	}
	if s.CompletedAt != nil {
		fields["completed_at"] = s.CompletedAt.UTC().Format(time.RFC3339Nano)
	}
	return fields
}

func snapshotFromStruct(st *structpb.Struct) (*types.Snapshot, error) {
	f := st.GetFields()

	startedAt, err := time.Parse(time.RFC3339Nano, f["started_at"].GetStringValue())
	if err != nil {
		return nil, fmt.Errorf("%w: started_at: %v", ErrMalformed, err)
	}

	s := &types.Snapshot{
		State:     types.State(f["state"].GetStringValue()),
		StartedAt: startedAt,
	}

	if v, ok := f["completed_at"]; ok {
		completedAt, err := time.Parse(time.RFC3339Nano, v.GetStringValue())
		if err != nil {
			return nil, fmt.Errorf("%w: completed_at: %v", ErrMalformed, err)
		}
		s.CompletedAt = &completedAt
	}

	values := f["responses"].GetListValue().GetValues()
	s.Results = make([]types.WorkerResult, 0, len(values))
	for _, v := range values {
		rf := v.GetStructValue().GetFields()
		df := rf["data"].GetStructValue().GetFields()
		s.Results = append(s.Results, types.WorkerResult{
			ID:      rf["id"].GetStringValue(),
			Name:    rf["name"].GetStringValue(),
			Version: rf["version"].GetStringValue(),
			Data: types.ServiceData{
				Kind:  df["type"].GetStringValue(),
				Value: df["value"].GetStringValue(),
			},
		})
	}
	return s, nil
}
