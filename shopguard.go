// Package shopguard is a request-security layer for storefront HTTP APIs.
// It composes secure response headers, a brute-force login guard, a
// fixed-window rate limiter, a pattern sentinel, and double-submit CSRF
// validation into one middleware pipeline, and provides signed session
// tokens and credential hashing for the login flow behind it.
package shopguard

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/merchantkit/shopguard/audit"
	"github.com/merchantkit/shopguard/bruteforce"
	"github.com/merchantkit/shopguard/credentials"
	"github.com/merchantkit/shopguard/instrumentation"
	"github.com/merchantkit/shopguard/sentinel"
	"github.com/merchantkit/shopguard/storage"
	"github.com/merchantkit/shopguard/throttle"
	"github.com/merchantkit/shopguard/token"
)

// maxScanBodyBytes caps how much of a request body the sentinel reads.
// Bodies larger than this are scanned up to the cap and passed through
// untouched beyond it.
const maxScanBodyBytes = 1 << 20

// Server wires the security components together. It owns the pipeline
// stages and the login endpoints; request routing stays with the caller.
type Server struct {
	codec    *token.Codec
	hasher   *credentials.Hasher
	limiter  *throttle.Limiter
	guard    *bruteforce.Guard
	sentinel *sentinel.Sentinel
	csrf     *csrfGuard
	auditor  *audit.Auditor
	users    UserStore
	metrics  *instrumentation.Metrics
	logger   *slog.Logger
	config   *Config
}

// NewServer creates a security server over the given user store and counter
// stores. The window store backs the rate limiter and the attempt store
// backs the brute-force guard, so multi-process deployments can point both
// at a shared backend.
func NewServer(
	users UserStore,
	windowStore storage.WindowStore,
	attemptStore storage.AttemptStore,
	config *Config,
) (*Server, error) {
	if users == nil {
		return nil, fmt.Errorf("user store is required")
	}
	if windowStore == nil {
		return nil, fmt.Errorf("window store is required")
	}
	if attemptStore == nil {
		return nil, fmt.Errorf("attempt store is required")
	}
	if config == nil {
		config = &Config{}
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	config = applySecureDefaults(config, logger)

	codec, err := token.NewCodec(config.Token.Secret, config.Token.TTL,
		token.WithClockSkew(config.Token.ClockSkewGracePeriod))
	if err != nil {
		return nil, fmt.Errorf("token codec: %w", err)
	}

	return &Server{
		codec:    codec,
		hasher:   credentials.NewHasher(credentials.DefaultIterations),
		limiter:  throttle.NewLimiter(windowStore, config.RateLimit.MaxRequests, config.RateLimit.Window, logger),
		guard:    bruteforce.NewGuard(attemptStore, config.BruteForce.MaxAttempts, config.BruteForce.Lockout, logger),
		sentinel: sentinel.New(config.Sentinel.Signatures, logger),
		csrf:     newCSRFGuard(config.CSRF),
		auditor:  audit.NewAuditor(logger, config.EnableAuditLogging),
		users:    users,
		logger:   logger,
		config:   config,
	}, nil
}

// SetInstrumentation attaches OpenTelemetry metrics to the server.
func (s *Server) SetInstrumentation(inst *instrumentation.Instrumentation) {
	if inst != nil {
		s.metrics = inst.Metrics()
	}
}

// Codec returns the token codec, for callers that verify tokens on routes
// outside this server's handlers.
func (s *Server) Codec() *token.Codec { return s.codec }

// Hasher returns the credential hasher, for account-creation flows.
func (s *Server) Hasher() *credentials.Hasher { return s.hasher }

// Pipeline builds the security pipeline with its stages in fixed order.
// Header stages run first so terminal responses from later stages still
// carry the security headers.
func (s *Server) Pipeline() *Pipeline {
	p := NewPipeline([]Stage{
		{Name: "secure_headers", Check: secureHeadersStage(s.config.CSRF.CookieSecure)},
		{Name: "xss_filter", Check: xssFilterStage()},
		{Name: "csp", Check: cspStage()},
		{Name: "brute_force", Check: s.bruteForceStage},
		{Name: "rate_limit", Check: s.rateLimitStage},
		{Name: "sentinel", Check: s.sentinelStage},
		{Name: "csrf", Check: s.csrfStage},
	})
	if s.metrics != nil {
		p.OnTerminate(s.metrics.RecordStageTermination)
	}
	return p
}

// Middleware wraps next with request-ID propagation, panic recovery, and
// the full security pipeline, outermost first.
func (s *Server) Middleware(next http.Handler) http.Handler {
	return RequestIDMiddleware(s.Recovery(s.httpMetrics(s.Pipeline().Middleware(next))))
}

// httpMetrics records request counts and latency when instrumentation is
// attached; otherwise it is a pass-through.
func (s *Server) httpMetrics(next http.Handler) http.Handler {
	if s.metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.metrics.RecordHTTPRequest(r.Context(), r.Method, r.URL.Path, sw.status,
			float64(time.Since(start))/float64(time.Millisecond))
	})
}

// statusWriter captures the response status for metrics.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// clientIP resolves the client identity used as the limiter and guard key.
func (s *Server) clientIP(r *http.Request) string {
	return ClientIP(r, s.config.TrustProxy, s.config.TrustedProxyCount)
}

// requestContext captures the request fields attached to audit events.
func (s *Server) requestContext(r *http.Request) audit.RequestContext {
	return audit.RequestContext{
		RequestID: GetRequestID(r.Context()),
		Method:    r.Method,
		Path:      r.URL.Path,
		ClientIP:  s.clientIP(r),
	}
}

// bruteForceStage counts requests to guarded paths and rejects clients that
// are locked out. Counting is per client, per request, regardless of whether
// the underlying login succeeds; HandleLogin resets the counter on success
// when ResetOnSuccess is set.
func (s *Server) bruteForceStage(w http.ResponseWriter, r *http.Request) *SecurityError {
	if !s.guardedPath(r.URL.Path) {
		return nil
	}

	key := s.clientIP(r)
	d, err := s.guard.Attempt(r.Context(), key)
	if err != nil {
		s.logger.Error("brute-force guard store failure", "error", err)
		return ErrServerError()
	}
	if d.Allowed {
		return nil
	}

	s.auditor.LogLockout(s.requestContext(r), d.Attempts, d.RetryAfter)
	if s.metrics != nil {
		s.metrics.RecordLockout(r.Context())
	}
	return ErrTooManyAttempts(d.RetryAfter)
}

func (s *Server) guardedPath(path string) bool {
	for _, p := range s.config.BruteForce.GuardedPaths {
		if path == p {
			return true
		}
	}
	return false
}

// rateLimitStage enforces the per-client request budget.
func (s *Server) rateLimitStage(w http.ResponseWriter, r *http.Request) *SecurityError {
	key := s.clientIP(r)
	d, err := s.limiter.Allow(r.Context(), key)
	if err != nil {
		s.logger.Error("rate limiter store failure", "error", err)
		return ErrServerError()
	}
	if d.Allowed {
		return nil
	}

	s.auditor.LogRateLimitExceeded(s.requestContext(r), d.RetryAfter)
	if s.metrics != nil {
		s.metrics.RecordRateLimitExceeded(r.Context())
	}
	return ErrRateLimited(d.RetryAfter)
}

// sentinelStage scans the request path, query, and body for attack
// signatures. The body is re-buffered so downstream handlers still read it.
func (s *Server) sentinelStage(w http.ResponseWriter, r *http.Request) *SecurityError {
	var body string
	if !s.config.Sentinel.DisableBodyScan && r.Body != nil && r.Body != http.NoBody {
		buf, err := io.ReadAll(io.LimitReader(r.Body, maxScanBodyBytes))
		if err != nil {
			s.logger.Error("failed to read request body for scanning", "error", err)
			return ErrServerError()
		}
		r.Body = struct {
			io.Reader
			io.Closer
		}{io.MultiReader(bytes.NewReader(buf), r.Body), r.Body}
		body = string(buf)
	}

	result := s.sentinel.Scan(r.URL.Path, r.URL.RawQuery, body)
	if result.Verdict == sentinel.VerdictAllow {
		return nil
	}

	blocked := result.Verdict == sentinel.VerdictBlock
	s.auditor.LogSuspiciousRequest(s.requestContext(r), result.Signature, result.Surface, blocked)
	if s.metrics != nil {
		s.metrics.RecordSentinelMatch(r.Context(), result.Signature, result.Surface, blocked)
	}
	if blocked {
		return ErrSuspiciousRequest()
	}
	return nil
}

// csrfStage validates state-changing requests with the double-submit check.
func (s *Server) csrfStage(w http.ResponseWriter, r *http.Request) *SecurityError {
	serr := s.csrf.check(r)
	if serr == nil {
		return nil
	}

	s.auditor.LogCSRFFailure(s.requestContext(r), "double-submit validation failed")
	if s.metrics != nil {
		s.metrics.RecordCSRFFailure(r.Context())
	}
	return serr
}
