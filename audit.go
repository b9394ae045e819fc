package authkeep

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// AuditEventType names a security-relevant engine outcome.
type AuditEventType string

const (
	AuditLogin             AuditEventType = "login"
	AuditLoginFailed       AuditEventType = "login_failed"
	AuditLogout            AuditEventType = "logout"
	AuditRefreshRejected   AuditEventType = "refresh_rejected"
	AuditRegister          AuditEventType = "register"
	AuditAccountSetup      AuditEventType = "account_setup"
	AuditPasswordReset     AuditEventType = "password_reset"
	AuditPasswordChanged   AuditEventType = "password_changed"
	AuditEmailVerified     AuditEventType = "email_verified"
	AuditUserStatusChanged AuditEventType = "user_status_changed"
	AuditUserDeleted       AuditEventType = "user_deleted"
)

// AuditEvent is one entry of the audit trail. IP and UserAgent come from the request
// context (WithClientIP, WithUserAgent).
type AuditEvent struct {
	Timestamp time.Time      `json:"timestamp"`
	Type      AuditEventType `json:"type"`
	UserID    string         `json:"userId,omitempty"`
	IP        string         `json:"ip,omitempty"`
	UserAgent string         `json:"userAgent,omitempty"`
	Success   bool           `json:"success"`
	Reason    string         `json:"reason,omitempty"`
}

// AuditSink consumes audit events. Record runs on the dispatcher goroutine, never on
// the request path.
type AuditSink interface {
	Record(event AuditEvent)
}

// LogAuditSink writes each event as a structured log line.
type LogAuditSink struct {
	logger zerolog.Logger
}

func NewLogAuditSink(logger zerolog.Logger) *LogAuditSink {
	return &LogAuditSink{logger: logger.With().Str("component", "audit").Logger()}
}

func (s *LogAuditSink) Record(ev AuditEvent) {
	entry := s.logger.Info()
	if !ev.Success {
		entry = s.logger.Warn()
	}
	entry.
		Time("at", ev.Timestamp).
		Str("event", string(ev.Type)).
		Str("user_id", ev.UserID).
		Str("ip", ev.IP).
		Str("user_agent", ev.UserAgent).
		Bool("success", ev.Success).
		Str("reason", ev.Reason).
		Msg("audit")
}

// ChannelAuditSink hands events to a buffered channel. A full channel drops the event.
type ChannelAuditSink struct {
	events chan AuditEvent
}

func NewChannelAuditSink(buffer int) *ChannelAuditSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelAuditSink{events: make(chan AuditEvent, buffer)}
}

func (s *ChannelAuditSink) Record(ev AuditEvent) {
	select {
	case s.events <- ev:
	default:
	}
}

func (s *ChannelAuditSink) Events() <-chan AuditEvent {
	return s.events
}

// emitAudit queues an event when a sink is configured.
func (e *Engine) emitAudit(ctx context.Context, typ AuditEventType, userID string, success bool, reason string) {
	if e == nil || e.audit == nil {
		return
	}
	ev := AuditEvent{
		Timestamp: e.now().UTC(),
		Type:      typ,
		UserID:    userID,
		IP:        clientIPFromContext(ctx),
		UserAgent: userAgentFromContext(ctx),
		Success:   success,
		Reason:    reason,
	}
	if !e.audit.Emit(ev) {
		e.metricInc(MetricAuditDropped)
	}
}

// auditReason is the public message of err.
func auditReason(err error) string {
	if err == nil {
		return ""
	}
	return AsError(err).Message
}

// AuditDropped returns how many audit events were discarded because the buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// Close flushes pending audit events and stops the dispatcher. The engine stays usable
// but emits no further audit events.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}
