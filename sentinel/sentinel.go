// Package sentinel scans inbound request surfaces against an ordered list of
// named attack signatures. Each signature carries a severity that decides
// whether a match blocks the request outright or only records it, so noisy
// low-confidence patterns can stay observable without breaking traffic.
package sentinel

import (
	"log/slog"
	"regexp"
)

// Verdict is the outcome of a scan.
type Verdict int

const (
	// VerdictAllow means no signature matched; the request proceeds.
	VerdictAllow Verdict = iota

	// VerdictLog means a low-severity signature matched; the request
	// proceeds but the match is recorded.
	VerdictLog

	// VerdictBlock means a high-severity signature matched; the request
	// must be rejected.
	VerdictBlock
)

func (v Verdict) String() string {
	switch v {
	case VerdictAllow:
		return "allow"
	case VerdictLog:
		return "log"
	case VerdictBlock:
		return "block"
	default:
		return "unknown"
	}
}

// Severity classifies how a matching signature is handled.
type Severity int

const (
	// SeverityLow matches are recorded and the request proceeds.
	SeverityLow Severity = iota

	// SeverityHigh matches block the request.
	SeverityHigh
)

func (s Severity) String() string {
	if s == SeverityHigh {
		return "high"
	}
	return "low"
}

// Surfaces a signature can match on.
const (
	SurfacePath  = "path"
	SurfaceQuery = "query"
	SurfaceBody  = "body"
)

// Signature is one named pattern with its severity.
type Signature struct {
	Name     string
	Severity Severity
	pattern  *regexp.Regexp
}

// NewSignature builds a signature from a compiled pattern.
func NewSignature(name string, severity Severity, pattern *regexp.Regexp) Signature {
	return Signature{Name: name, Severity: severity, pattern: pattern}
}

// Result describes the first match found by a scan, if any.
type Result struct {
	Verdict Verdict

	// Signature is the name of the matching signature. Empty when the
	// verdict is allow.
	Signature string

	// Surface names which input the signature matched on.
	Surface string
}

// Sentinel holds the ordered signature list. Order matters: the first
// matching signature decides the verdict, so put the most specific and most
// severe patterns first.
type Sentinel struct {
	signatures []Signature
	logger     *slog.Logger
}

// New creates a sentinel over the given signatures. Pass nil signatures to
// use DefaultSignatures.
func New(signatures []Signature, logger *slog.Logger) *Sentinel {
	if signatures == nil {
		signatures = DefaultSignatures()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sentinel{signatures: signatures, logger: logger}
}

// Scan checks path, query, and body against each signature in order. The
// first signature that matches any surface wins: its severity decides the
// verdict and later signatures are not consulted.
func (s *Sentinel) Scan(path, query, body string) Result {
	surfaces := [...]struct {
		name  string
		value string
	}{
		{SurfacePath, path},
		{SurfaceQuery, query},
		{SurfaceBody, body},
	}

	for _, sig := range s.signatures {
		for _, surface := range surfaces {
			if surface.value == "" || !sig.pattern.MatchString(surface.value) {
				continue
			}
			verdict := VerdictLog
			if sig.Severity == SeverityHigh {
				verdict = VerdictBlock
			}
			s.logger.Debug("signature matched",
				"signature", sig.Name,
				"surface", surface.name,
				"severity", sig.Severity.String(),
				"verdict", verdict.String())
			return Result{Verdict: verdict, Signature: sig.Name, Surface: surface.name}
		}
	}
	return Result{Verdict: VerdictAllow}
}

// Signatures returns the configured signature list in scan order.
func (s *Sentinel) Signatures() []Signature {
	out := make([]Signature, len(s.signatures))
	copy(out, s.signatures)
	return out
}
