package audit

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func newCaptureLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	return logger, &buf
}

func TestAuditor_LogEvent(t *testing.T) {
	logger, buf := newCaptureLogger()
	auditor := NewAuditor(logger, true)

	auditor.LogEvent(Event{
		Type:    EventSuspiciousRequest,
		Message: "test event",
		Request: RequestContext{
			RequestID: "req-1",
			Method:    "POST",
			Path:      "/api/products",
			ClientIP:  "10.0.0.1",
		},
		Details: map[string]any{"signature": "sql_injection"},
	})

	out := buf.String()
	for _, want := range []string{
		"security_audit",
		"event_type=" + EventSuspiciousRequest,
		"request_id=req-1",
		"path=/api/products",
		"client_ip=10.0.0.1",
		"sql_injection",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("audit output missing %q:\n%s", want, out)
		}
	}

	if !strings.Contains(out, "event_id=") {
		t.Error("audit output should contain a generated event_id")
	}
}

func TestAuditor_Disabled(t *testing.T) {
	logger, buf := newCaptureLogger()
	auditor := NewAuditor(logger, false)

	auditor.LogRateLimitExceeded(RequestContext{ClientIP: "10.0.0.1"}, time.Second)

	if buf.Len() != 0 {
		t.Errorf("disabled auditor should not write events, got: %s", buf.String())
	}
}

func TestAuditor_NilLogger(t *testing.T) {
	auditor := NewAuditor(nil, true)
	if auditor.logger == nil {
		t.Error("auditor should fall back to the default logger")
	}
}

func TestAuditor_TypedHelpers(t *testing.T) {
	tests := []struct {
		name     string
		log      func(a *Auditor)
		wantType string
	}{
		{
			name:     "rate limit",
			log:      func(a *Auditor) { a.LogRateLimitExceeded(RequestContext{}, 5*time.Second) },
			wantType: EventRateLimitExceeded,
		},
		{
			name:     "lockout",
			log:      func(a *Auditor) { a.LogLockout(RequestContext{}, 6, time.Minute) },
			wantType: EventLockout,
		},
		{
			name:     "suspicious request",
			log:      func(a *Auditor) { a.LogSuspiciousRequest(RequestContext{}, "xss", "body", false) },
			wantType: EventSuspiciousRequest,
		},
		{
			name:     "csrf failure",
			log:      func(a *Auditor) { a.LogCSRFFailure(RequestContext{}, "missing header token") },
			wantType: EventCSRFFailure,
		},
		{
			name:     "login success",
			log:      func(a *Auditor) { a.LogLoginSuccess(RequestContext{}, "alice") },
			wantType: EventLoginSuccess,
		},
		{
			name:     "login failure",
			log:      func(a *Auditor) { a.LogLoginFailure(RequestContext{}, "alice", "bad password") },
			wantType: EventLoginFailure,
		},
		{
			name:     "token issued",
			log:      func(a *Auditor) { a.LogTokenIssued(RequestContext{}, "alice") },
			wantType: EventTokenIssued,
		},
		{
			name:     "logout",
			log:      func(a *Auditor) { a.LogLogout(RequestContext{}) },
			wantType: EventLogout,
		},
		{
			name:     "panic recovered",
			log:      func(a *Auditor) { a.LogPanicRecovered(RequestContext{}, "nil pointer") },
			wantType: EventPanicRecovered,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := newCaptureLogger()
			tt.log(NewAuditor(logger, true))
			if !strings.Contains(buf.String(), "event_type="+tt.wantType) {
				t.Errorf("expected event_type %q in output:\n%s", tt.wantType, buf.String())
			}
		})
	}
}

func TestAuditor_HashesUsernames(t *testing.T) {
	logger, buf := newCaptureLogger()
	auditor := NewAuditor(logger, true)

	auditor.LogLoginFailure(RequestContext{}, "alice@example.com", "bad password")

	if strings.Contains(buf.String(), "alice@example.com") {
		t.Error("audit trail must not contain raw usernames")
	}
}

func TestHashForLogging(t *testing.T) {
	if got := hashForLogging(""); got != "<empty>" {
		t.Errorf("hashForLogging(\"\") = %q, want <empty>", got)
	}
	h1 := hashForLogging("alice")
	h2 := hashForLogging("alice")
	if h1 != h2 {
		t.Error("hashForLogging should be deterministic")
	}
	if len(h1) != 16 {
		t.Errorf("hash length = %d, want 16", len(h1))
	}
}
