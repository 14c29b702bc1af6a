package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// DefaultSubjectPrefix roots every audit subject: <prefix>.<tenant>.<entity>.<action>.
const DefaultSubjectPrefix = "mealvote.audit"

// NATSSink publishes events as JSON on core NATS. Publish only buffers, so a
// slow or absent server never stalls the request path; failures are logged.
type NATSSink struct {
	conn   *nats.Conn
	prefix string
	logger *zap.Logger
}

// Connect dials url with reconnect settings suited to a long-running API.
func Connect(url, name string, logger *zap.Logger) (*nats.Conn, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("audit nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("audit nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return conn, nil
}

// NewNATSSink publishes through conn. An empty prefix selects DefaultSubjectPrefix.
func NewNATSSink(conn *nats.Conn, prefix string, logger *zap.Logger) *NATSSink {
	if conn == nil {
		panic("nats sink requires a connection")
	}
	prefix = strings.Trim(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NATSSink{conn: conn, prefix: prefix, logger: logger}
}

// Subject returns the subject an event is published on.
func (s *NATSSink) Subject(e Event) string {
	return fmt.Sprintf("%s.%s.%s.%s", s.prefix, e.TenantID, token(e.Entity), token(e.Action))
}

func (s *NATSSink) Record(ctx context.Context, e Event) {
	data, err := json.Marshal(e)
	if err != nil {
		s.logger.Error("marshal audit event", zap.Error(err))
		return
	}
	if err := s.conn.Publish(s.Subject(e), data); err != nil {
		s.logger.Warn("publish audit event", zap.String("action", e.Action), zap.Error(err))
	}
}

func token(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return "unknown"
	}
	return strings.NewReplacer(".", "_", " ", "_", "*", "_", ">", "_").Replace(s)
}
