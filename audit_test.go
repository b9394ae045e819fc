package authkeep_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/MrEthical07/authkeep"
	"github.com/MrEthical07/authkeep/internal/authtest"
	"github.com/rs/zerolog"
)

func drain(sink *authkeep.ChannelAuditSink) []authkeep.AuditEvent {
	var out []authkeep.AuditEvent
	for {
		select {
		case ev := <-sink.Events():
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestAuditTrailRecordsSessionLifecycle(t *testing.T) {
	sink := authkeep.NewChannelAuditSink(32)
	env := authtest.New(t, authtest.WithAuditSink(sink))
	ctx := authkeep.WithUserAgent(authkeep.WithClientIP(context.Background(), "203.0.113.7"), "curl/8")

	u := env.VerifiedUser(t, "bob", "bob@example.com", "Secret123", authkeep.RoleUser)
	if _, err := env.Engine.Login(ctx, "bob", "wrong-pass"); err == nil {
		t.Fatal("expected login failure")
	}
	res, err := env.Engine.Login(ctx, "bob", "Secret123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if _, err := env.Engine.Refresh(ctx, "garbage"); err == nil {
		t.Fatal("expected refresh rejection")
	}
	if err := env.Engine.Logout(ctx, res.AccessToken, u.ID); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	env.Engine.Close()

	events := drain(sink)
	want := []authkeep.AuditEventType{
		authkeep.AuditLoginFailed,
		authkeep.AuditLogin,
		authkeep.AuditRefreshRejected,
		authkeep.AuditLogout,
	}
	if len(events) != len(want) {
		t.Fatalf("expected %d events, got %+v", len(want), events)
	}
	for i, ev := range events {
		if ev.Type != want[i] {
			t.Fatalf("event %d: expected %s, got %s", i, want[i], ev.Type)
		}
		if ev.IP != "203.0.113.7" || ev.UserAgent != "curl/8" {
			t.Fatalf("event %d missing request metadata: %+v", i, ev)
		}
		if ev.Timestamp.IsZero() {
			t.Fatalf("event %d has no timestamp", i)
		}
	}
	if events[0].Success || events[0].Reason != "Invalid credentials" {
		t.Fatalf("unexpected failure event %+v", events[0])
	}
	if !events[1].Success || events[1].UserID != u.ID {
		t.Fatalf("unexpected login event %+v", events[1])
	}
	if events[2].Reason != "Invalid refresh token" {
		t.Fatalf("unexpected refresh event %+v", events[2])
	}
}

func TestAuditTrailRecordsAdminActions(t *testing.T) {
	sink := authkeep.NewChannelAuditSink(32)
	env := authtest.New(t, authtest.WithAuditSink(sink))
	ctx := context.Background()

	a := env.VerifiedUser(t, "ann", "ann@example.com", "Secret123", authkeep.RoleUser)
	b := env.VerifiedUser(t, "ben", "ben@example.com", "Secret123", authkeep.RoleUser)

	if _, _, err := env.Engine.ToggleUserStatus(ctx, a.ID); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if _, err := env.Engine.DeleteUser(ctx, b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	env.Engine.Close()

	events := drain(sink)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %+v", events)
	}
	if events[0].Type != authkeep.AuditUserStatusChanged || events[0].UserID != a.ID || events[0].Reason != "deactivated" {
		t.Fatalf("unexpected status event %+v", events[0])
	}
	if events[1].Type != authkeep.AuditUserDeleted || events[1].UserID != b.ID {
		t.Fatalf("unexpected delete event %+v", events[1])
	}
}

func TestAuditDisabledWithoutSink(t *testing.T) {
	env := authtest.New(t)
	env.VerifiedUser(t, "bob", "bob@example.com", "Secret123", authkeep.RoleUser)
	if _, err := env.Engine.Login(context.Background(), "bob", "Secret123"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if env.Engine.AuditDropped() != 0 {
		t.Fatal("no events should be counted without a sink")
	}
	env.Engine.Close()
}

func TestLogAuditSinkWritesStructuredLine(t *testing.T) {
	var buf bytes.Buffer
	sink := authkeep.NewLogAuditSink(zerolog.New(&buf))
	sink.Record(authkeep.AuditEvent{Type: authkeep.AuditLoginFailed, Reason: "Invalid credentials"})

	line := buf.String()
	for _, want := range []string{`"level":"warn"`, `"event":"login_failed"`, `"component":"audit"`, `"success":false`} {
		if !strings.Contains(line, want) {
			t.Fatalf("log line %q missing %s", line, want)
		}
	}
}
