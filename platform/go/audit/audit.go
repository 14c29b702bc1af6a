package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/zenGate-Global/mealvote/platform/go/requesttrace"
)

// Event is one audit record. Sinks receive it after the mutation committed.
type Event struct {
	Action    string         `json:"action"`
	Entity    string         `json:"entity"`
	ActorID   string         `json:"actorId"`
	ActorKind string         `json:"actorKind"`
	TargetID  string         `json:"targetId"`
	TenantID  uuid.UUID      `json:"tenantId"`
	RequestID string         `json:"requestId,omitempty"`
	Meta      map[string]any `json:"meta,omitempty"`
	At        time.Time      `json:"at"`
}

// Sink records audit events. Implementations must not block the caller on
// delivery and must never fail the operation that produced the event.
type Sink interface {
	Record(ctx context.Context, e Event)
}

// Recorder stamps events with the request trace before handing them to a sink.
type Recorder struct {
	sink Sink
	now  func() time.Time
}

// NewRecorder wraps sink. A nil sink discards events.
func NewRecorder(sink Sink) *Recorder {
	if sink == nil {
		sink = Nop{}
	}
	return &Recorder{sink: sink, now: func() time.Time { return time.Now().UTC() }}
}

// Record emits action on entity/targetID for tenantID. A nil *Recorder is a no-op.
func (r *Recorder) Record(ctx context.Context, tenantID uuid.UUID, action, entity, targetID string, meta map[string]any) {
	if r == nil {
		return
	}
	trace := requesttrace.FromContextOrSystem(ctx)
	r.sink.Record(ctx, Event{
		Action:    action,
		Entity:    entity,
		ActorID:   trace.UserID,
		ActorKind: string(trace.ActorKind),
		TargetID:  targetID,
		TenantID:  tenantID,
		RequestID: trace.RequestID,
		Meta:      meta,
		At:        r.now(),
	})
}

// Nop discards events.
type Nop struct{}

func (Nop) Record(context.Context, Event) {}

// Multi fans an event out to several sinks in order.
type Multi []Sink

func (m Multi) Record(ctx context.Context, e Event) {
	for _, s := range m {
		if s != nil {
			s.Record(ctx, e)
		}
	}
}
