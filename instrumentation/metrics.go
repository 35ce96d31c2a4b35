package instrumentation

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all metric instruments for the security pipeline
type Metrics struct {
	// HTTP Layer Metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram

	// Pipeline Metrics
	StageTerminations metric.Int64Counter

	// Security Metrics
	RateLimitExceeded metric.Int64Counter
	Lockouts          metric.Int64Counter
	SentinelMatches   metric.Int64Counter
	CSRFFailures      metric.Int64Counter

	// Login Flow Metrics
	LoginAttempts metric.Int64Counter
	TokensIssued  metric.Int64Counter

	// Audit Metrics
	AuditEventsTotal metric.Int64Counter

	// Storage Metrics
	StoreWindowsCount  metric.Int64ObservableGauge
	StoreAttemptsCount metric.Int64ObservableGauge
}

// newMetrics creates and registers all metric instruments
func newMetrics(inst *Instrumentation) (*Metrics, error) {
	m := &Metrics{}

	httpMeter := inst.Meter("http")
	pipelineMeter := inst.Meter("pipeline")
	securityMeter := inst.Meter("security")
	storageMeter := inst.Meter("storage")

	var err error
	m.HTTPRequestsTotal, err = httpMeter.Int64Counter(
		"shopguard.http.requests.total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http.requests.total counter: %w", err)
	}

	m.HTTPRequestDuration, err = httpMeter.Float64Histogram(
		"shopguard.http.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http.request.duration histogram: %w", err)
	}

	m.StageTerminations, err = pipelineMeter.Int64Counter(
		"shopguard.pipeline.stage.terminations",
		metric.WithDescription("Requests terminated by a pipeline stage"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline.stage.terminations counter: %w", err)
	}

	m.RateLimitExceeded, err = securityMeter.Int64Counter(
		"shopguard.ratelimit.exceeded",
		metric.WithDescription("Requests rejected by the rate limiter"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ratelimit.exceeded counter: %w", err)
	}

	m.Lockouts, err = securityMeter.Int64Counter(
		"shopguard.bruteforce.lockouts",
		metric.WithDescription("Requests rejected by the brute-force guard"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create bruteforce.lockouts counter: %w", err)
	}

	m.SentinelMatches, err = securityMeter.Int64Counter(
		"shopguard.sentinel.matches",
		metric.WithDescription("Requests matching an attack signature"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sentinel.matches counter: %w", err)
	}

	m.CSRFFailures, err = securityMeter.Int64Counter(
		"shopguard.csrf.failures",
		metric.WithDescription("Requests failing CSRF validation"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create csrf.failures counter: %w", err)
	}

	m.LoginAttempts, err = securityMeter.Int64Counter(
		"shopguard.login.attempts",
		metric.WithDescription("Login attempts by outcome"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create login.attempts counter: %w", err)
	}

	m.TokensIssued, err = securityMeter.Int64Counter(
		"shopguard.tokens.issued",
		metric.WithDescription("Session tokens issued"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tokens.issued counter: %w", err)
	}

	m.AuditEventsTotal, err = securityMeter.Int64Counter(
		"shopguard.audit.events.total",
		metric.WithDescription("Security audit events emitted"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create audit.events.total counter: %w", err)
	}

	m.StoreWindowsCount, err = storageMeter.Int64ObservableGauge(
		"shopguard.storage.windows.count",
		metric.WithDescription("Rate-limit windows currently tracked"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage.windows.count gauge: %w", err)
	}

	m.StoreAttemptsCount, err = storageMeter.Int64ObservableGauge(
		"shopguard.storage.attempts.count",
		metric.WithDescription("Login attempt records currently tracked"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage.attempts.count gauge: %w", err)
	}

	return m, nil
}

// Helper methods for common metric recording patterns

// RecordHTTPRequest records an HTTP request metric
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, endpoint string, statusCode int, durationMs float64) {
	attrs := []attribute.KeyValue{
		attribute.String("method", method),
		attribute.String("endpoint", endpoint),
		attribute.Int("status", statusCode),
	}

	m.HTTPRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.HTTPRequestDuration.Record(ctx, durationMs, metric.WithAttributes(attribute.String("endpoint", endpoint)))
}

// RecordStageTermination records a request terminated by a pipeline stage
func (m *Metrics) RecordStageTermination(ctx context.Context, stage, code string) {
	m.StageTerminations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("code", code),
	))
}

// RecordRateLimitExceeded records a rate limit rejection
func (m *Metrics) RecordRateLimitExceeded(ctx context.Context) {
	m.RateLimitExceeded.Add(ctx, 1)
}

// RecordLockout records a brute-force lockout rejection
func (m *Metrics) RecordLockout(ctx context.Context) {
	m.Lockouts.Add(ctx, 1)
}

// RecordSentinelMatch records an attack signature match
func (m *Metrics) RecordSentinelMatch(ctx context.Context, signature, surface string, blocked bool) {
	m.SentinelMatches.Add(ctx, 1, metric.WithAttributes(
		attribute.String("signature", signature),
		attribute.String("surface", surface),
		attribute.Bool("blocked", blocked),
	))
}

// RecordCSRFFailure records a CSRF validation failure
func (m *Metrics) RecordCSRFFailure(ctx context.Context) {
	m.CSRFFailures.Add(ctx, 1)
}

// RecordLoginAttempt records a login attempt by outcome
func (m *Metrics) RecordLoginAttempt(ctx context.Context, success bool) {
	m.LoginAttempts.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("success", success),
	))
}

// RecordTokenIssued records a session token issuance
func (m *Metrics) RecordTokenIssued(ctx context.Context) {
	m.TokensIssued.Add(ctx, 1)
}

// RecordAuditEvent records an audit event emission
func (m *Metrics) RecordAuditEvent(ctx context.Context, eventType string) {
	m.AuditEventsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event_type", eventType),
	))
}
