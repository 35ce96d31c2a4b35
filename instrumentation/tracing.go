package instrumentation

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Common span attribute keys
//
// SECURITY WARNING: Never log actual sensitive values (session tokens,
// passwords, CSRF tokens) in traces or metrics. Only log metadata such as
// stage names, verdicts, and validation results. Traces are persisted for
// extended periods and replicated across monitoring infrastructure.
const (
	// Pipeline attributes
	AttrStageName = "pipeline.stage"      // Pipeline stage name
	AttrErrorCode = "pipeline.error_code" // Security error code on termination
	AttrVerdict   = "pipeline.verdict"    // Sentinel verdict (allow/log/block)
	AttrSignature = "pipeline.signature"  // Matched signature name
	AttrSurface   = "pipeline.surface"    // Matched request surface

	// Security attributes
	AttrClientIP       = "security.client_ip"
	AttrAuditEventType = "security.audit.event_type"
	AttrLoginSuccess   = "security.login.success"

	// Storage attributes
	AttrStorageOperation = "storage.operation"
	AttrStorageResult    = "storage.result"
	AttrStorageType      = "storage.type"

	// HTTP attributes (in addition to standard semantic conventions)
	AttrHTTPEndpoint   = "http.endpoint"
	AttrHTTPMethod     = "http.method"
	AttrHTTPStatusCode = "http.status_code"
)

// RecordError records an error on a span with proper status codes (nil-safe)
func RecordError(span trace.Span, err error) {
	if span != nil && err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanSuccess marks a span as successful (nil-safe)
func SetSpanSuccess(span trace.Span) {
	if span != nil {
		span.SetStatus(codes.Ok, "")
	}
}

// SetSpanError marks a span as failed with a message (nil-safe)
func SetSpanError(span trace.Span, message string) {
	if span != nil {
		span.SetStatus(codes.Error, message)
	}
}

// SetSpanAttributes sets attributes on a span (nil-safe)
func SetSpanAttributes(span trace.Span, attrs ...attribute.KeyValue) {
	if span != nil {
		span.SetAttributes(attrs...)
	}
}

// AddStageAttributes adds pipeline stage attributes to a span
func AddStageAttributes(span trace.Span, stage, errorCode string) {
	SetSpanAttributes(span,
		attribute.String(AttrStageName, stage),
		attribute.String(AttrErrorCode, errorCode),
	)
}

// AddSentinelAttributes adds signature match attributes to a span
func AddSentinelAttributes(span trace.Span, verdict, signature, surface string) {
	SetSpanAttributes(span,
		attribute.String(AttrVerdict, verdict),
		attribute.String(AttrSignature, signature),
		attribute.String(AttrSurface, surface),
	)
}

// AddHTTPAttributes adds HTTP request attributes to a span
func AddHTTPAttributes(span trace.Span, method, endpoint string, statusCode int) {
	SetSpanAttributes(span,
		attribute.String(AttrHTTPMethod, method),
		attribute.String(AttrHTTPEndpoint, endpoint),
		attribute.Int(AttrHTTPStatusCode, statusCode),
	)
}

// AddStorageAttributes adds storage operation attributes to a span
func AddStorageAttributes(span trace.Span, operation, storageType string) {
	SetSpanAttributes(span,
		attribute.String(AttrStorageOperation, operation),
		attribute.String(AttrStorageType, storageType),
	)
}
