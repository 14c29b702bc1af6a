package audit

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats-server/v2/server"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zenGate-Global/mealvote/platform/go/requesttrace"
)

type captureSink struct {
	mu     sync.Mutex
	events []Event
}

func (c *captureSink) Record(_ context.Context, e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func TestRecorderStampsTrace(t *testing.T) {
	sink := &captureSink{}
	rec := NewRecorder(sink)
	tenantID := uuid.New()

	ctx := requesttrace.IntoContext(context.Background(), requesttrace.Trace{
		ActorKind: requesttrace.ActorKindUser,
		UserID:    "cook-1",
		RequestID: "req-9",
	})
	rec.Record(ctx, tenantID, "create", "adjustment", "adj-1", map[string]any{"note": "walk-ins"})
	rec.Record(context.Background(), tenantID, "seed", "role", "admin", nil)

	require.Len(t, sink.events, 2)
	require.Equal(t, "cook-1", sink.events[0].ActorID)
	require.Equal(t, "req-9", sink.events[0].RequestID)
	require.Equal(t, tenantID, sink.events[0].TenantID)
	require.Equal(t, "system", sink.events[1].ActorKind)
	require.False(t, sink.events[1].At.IsZero())
}

func TestNilRecorderAndMulti(t *testing.T) {
	var rec *Recorder
	rec.Record(context.Background(), uuid.New(), "a", "b", "c", nil)

	a, b := &captureSink{}, &captureSink{}
	NewRecorder(Multi{a, nil, b}).Record(context.Background(), uuid.New(), "vote", "suggestion", "s-1", nil)
	require.Len(t, a.events, 1)
	require.Len(t, b.events, 1)
}

func TestLogSink(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	NewLogSink(zap.New(core)).Record(context.Background(), Event{Action: "update", Entity: "role", TargetID: "kitchen"})

	entries := logs.FilterMessage("audit event").All()
	require.Len(t, entries, 1)
	require.Equal(t, "kitchen", entries[0].ContextMap()["target_id"])
}

func TestNATSSinkPublishes(t *testing.T) {
	ns, err := server.NewServer(&server.Options{Port: -1, NoLog: true, NoSigs: true})
	require.NoError(t, err)
	go ns.Start()
	t.Cleanup(ns.Shutdown)
	require.True(t, ns.ReadyForConnections(5*time.Second))

	conn, err := Connect(ns.ClientURL(), "mealvote-test", nil)
	require.NoError(t, err)
	t.Cleanup(conn.Close)

	tenantID := uuid.New()
	sink := NewNATSSink(conn, "", nil)
	event := Event{Action: "create", Entity: "external adjustment", TargetID: "adj-7", TenantID: tenantID}
	require.Equal(t, "mealvote.audit."+tenantID.String()+".external_adjustment.create", sink.Subject(event))

	sub, err := conn.SubscribeSync(DefaultSubjectPrefix + ".>")
	require.NoError(t, err)
	require.NoError(t, conn.Flush())

	sink.Record(context.Background(), event)

	msg, err := sub.NextMsg(2 * time.Second)
	require.NoError(t, err)

	var got Event
	require.NoError(t, json.Unmarshal(msg.Data, &got))
	require.Equal(t, "adj-7", got.TargetID)
	require.Equal(t, tenantID, got.TenantID)

}
