package instrumentation

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestSpanHelpers_NilSafe(t *testing.T) {
	// All helpers must tolerate a nil span.
	RecordError(nil, errors.New("boom"))
	SetSpanSuccess(nil)
	SetSpanError(nil, "failed")
	SetSpanAttributes(nil, attribute.String("k", "v"))
	AddStageAttributes(nil, "csrf", "invalid_csrf_token")
	AddSentinelAttributes(nil, "block", "sql_injection", "body")
	AddHTTPAttributes(nil, "POST", "/api/login", 401)
	AddStorageAttributes(nil, "incr", "memory")
}

func TestSpanHelpers_WithSpan(t *testing.T) {
	inst, err := New(Config{Enabled: true, ServiceName: "test"})
	if err != nil {
		t.Fatal(err)
	}

	_, span := inst.Tracer("pipeline").Start(context.Background(), "stage")
	defer span.End()

	RecordError(span, errors.New("boom"))
	RecordError(span, nil)
	SetSpanSuccess(span)
	SetSpanError(span, "failed")
	AddStageAttributes(span, "sentinel", "suspicious_request_blocked")
	AddSentinelAttributes(span, "log", "xss", "body")
	AddHTTPAttributes(span, "GET", "/api/products", 200)
	AddStorageAttributes(span, "get", "valkey")
}
