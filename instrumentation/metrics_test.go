package instrumentation

import (
	"context"
	"testing"
)

func testMetrics(t *testing.T) *Metrics {
	t.Helper()
	inst, err := New(Config{Enabled: true, ServiceName: "test"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return inst.Metrics()
}

func TestNewMetrics_AllInstrumentsCreated(t *testing.T) {
	m := testMetrics(t)

	if m.HTTPRequestsTotal == nil {
		t.Error("HTTPRequestsTotal is nil")
	}
	if m.HTTPRequestDuration == nil {
		t.Error("HTTPRequestDuration is nil")
	}
	if m.StageTerminations == nil {
		t.Error("StageTerminations is nil")
	}
	if m.RateLimitExceeded == nil {
		t.Error("RateLimitExceeded is nil")
	}
	if m.Lockouts == nil {
		t.Error("Lockouts is nil")
	}
	if m.SentinelMatches == nil {
		t.Error("SentinelMatches is nil")
	}
	if m.CSRFFailures == nil {
		t.Error("CSRFFailures is nil")
	}
	if m.LoginAttempts == nil {
		t.Error("LoginAttempts is nil")
	}
	if m.TokensIssued == nil {
		t.Error("TokensIssued is nil")
	}
	if m.AuditEventsTotal == nil {
		t.Error("AuditEventsTotal is nil")
	}
	if m.StoreWindowsCount == nil {
		t.Error("StoreWindowsCount is nil")
	}
	if m.StoreAttemptsCount == nil {
		t.Error("StoreAttemptsCount is nil")
	}
}

// The record helpers must not panic with either real or no-op providers.
func TestRecordHelpers(t *testing.T) {
	for _, enabled := range []bool{true, false} {
		inst, err := New(Config{Enabled: enabled, ServiceName: "test"})
		if err != nil {
			t.Fatal(err)
		}
		m := inst.Metrics()
		ctx := context.Background()

		m.RecordHTTPRequest(ctx, "POST", "/api/login", 200, 12.5)
		m.RecordStageTermination(ctx, "rate_limit", "rate_limited")
		m.RecordRateLimitExceeded(ctx)
		m.RecordLockout(ctx)
		m.RecordSentinelMatch(ctx, "sql_injection", "body", true)
		m.RecordCSRFFailure(ctx)
		m.RecordLoginAttempt(ctx, true)
		m.RecordLoginAttempt(ctx, false)
		m.RecordTokenIssued(ctx)
		m.RecordAuditEvent(ctx, "login_success")
	}
}
