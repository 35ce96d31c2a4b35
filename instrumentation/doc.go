// Package instrumentation provides OpenTelemetry (OTEL) instrumentation for
// the shopguard security pipeline.
//
// It exposes metrics (request counts and latency, stage terminations,
// rate-limit rejections, lockouts, sentinel matches, CSRF failures, token
// issuance) and tracing helpers for request flows across the pipeline.
//
// # Quick Start
//
//	inst, err := instrumentation.New(instrumentation.Config{
//		ServiceName:    "storefront-api",
//		ServiceVersion: "1.0.0",
//		Enabled:        true,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer inst.Shutdown(context.Background())
//
//	server.SetInstrumentation(inst)
//
// When Enabled is false, all providers are no-ops and recording has zero
// overhead. Exporter wiring (Prometheus, OTLP) is done by the caller via
// the Resource and provider accessors; see examples/prometheus.
package instrumentation
