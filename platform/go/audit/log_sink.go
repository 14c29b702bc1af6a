package audit

import (
	"context"

	"go.uber.org/zap"
)

// LogSink writes events to a zap logger at info level.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink builds a LogSink; a nil logger discards.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger.Named("audit")}
}

func (s *LogSink) Record(_ context.Context, e Event) {
	s.logger.Info("audit event",
		zap.String("action", e.Action),
		zap.String("entity", e.Entity),
		zap.String("actor_id", e.ActorID),
		zap.String("actor_kind", e.ActorKind),
		zap.String("target_id", e.TargetID),
		zap.String("tenant_id", e.TenantID.String()),
		zap.String("request_id", e.RequestID),
		zap.Any("meta", e.Meta),
	)
}
