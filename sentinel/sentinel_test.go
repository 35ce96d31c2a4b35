package sentinel

import (
	"regexp"
	"testing"
)

func mustPattern(t *testing.T, expr string) *regexp.Regexp {
	t.Helper()
	re, err := regexp.Compile(expr)
	if err != nil {
		t.Fatalf("compile %q: %v", expr, err)
	}
	return re
}

func TestScan_DefaultSignatures(t *testing.T) {
	s := New(nil, nil)

	tests := []struct {
		name      string
		path      string
		query     string
		body      string
		verdict   Verdict
		signature string
		surface   string
	}{
		{
			name:    "clean request",
			path:    "/api/products",
			query:   "category=books&page=2",
			body:    `{"quantity": 3}`,
			verdict: VerdictAllow,
		},
		{
			name:      "path traversal blocked",
			path:      "/files/../../etc/passwd",
			verdict:   VerdictBlock,
			signature: SignaturePathTraversal,
			surface:   SurfacePath,
		},
		{
			name:      "sql tautology in body blocked",
			path:      "/api/login",
			body:      `{"username": "admin' OR 1=1 --"}`,
			verdict:   VerdictBlock,
			signature: SignatureSQLInjection,
			surface:   SurfaceBody,
		},
		{
			name:      "union select in query blocked",
			path:      "/api/search",
			query:     "q=1 UNION SELECT password FROM users",
			verdict:   VerdictBlock,
			signature: SignatureSQLInjection,
			surface:   SurfaceQuery,
		},
		{
			name:      "script tag logged not blocked",
			path:      "/api/comments",
			body:      `{"text": "<script>alert(1)</script>"}`,
			verdict:   VerdictLog,
			signature: SignatureXSS,
			surface:   SurfaceBody,
		},
		{
			name:      "event handler attribute logged",
			path:      "/api/comments",
			body:      `<img src=x onerror=alert(1)>`,
			verdict:   VerdictLog,
			signature: SignatureXSS,
			surface:   SurfaceBody,
		},
		{
			name:      "remote code lookup in query blocked",
			path:      "/api/render",
			query:     "file=/etc/passwd",
			verdict:   VerdictBlock,
			signature: SignatureRemoteCode,
			surface:   SurfaceQuery,
		},
		{
			name:      "cms probe logged",
			path:      "/wp-login.php",
			verdict:   VerdictLog,
			signature: SignatureCMSProbe,
			surface:   SurfacePath,
		},
		{
			name:      "template injection logged",
			path:      "/api/profile",
			body:      `{"name": "{{7*7}}"}`,
			verdict:   VerdictLog,
			signature: SignatureTemplateInjection,
			surface:   SurfaceBody,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Scan(tt.path, tt.query, tt.body)
			if got.Verdict != tt.verdict {
				t.Errorf("Scan() verdict = %v, want %v", got.Verdict, tt.verdict)
			}
			if got.Signature != tt.signature {
				t.Errorf("Scan() signature = %q, want %q", got.Signature, tt.signature)
			}
			if got.Surface != tt.surface {
				t.Errorf("Scan() surface = %q, want %q", got.Surface, tt.surface)
			}
		})
	}
}

func TestScan_FirstMatchWins(t *testing.T) {
	s := New(nil, nil)

	// Traversal toward /etc/passwd matches both path_traversal and
	// remote_code; the earlier signature in the list must win.
	got := s.Scan("/files/../../etc/passwd", "", "")
	if got.Signature != SignaturePathTraversal {
		t.Errorf("Scan() signature = %q, want %q", got.Signature, SignaturePathTraversal)
	}
	if got.Verdict != VerdictBlock {
		t.Errorf("Scan() verdict = %v, want %v", got.Verdict, VerdictBlock)
	}
}

func TestScan_SurfaceOrder(t *testing.T) {
	s := New(nil, nil)

	// The same signature matching several surfaces reports the earliest one
	// in path, query, body order.
	got := s.Scan("/wp-admin", "page=wp-admin", "wp-admin")
	if got.Surface != SurfacePath {
		t.Errorf("Scan() surface = %q, want %q", got.Surface, SurfacePath)
	}
}

func TestScan_CaseInsensitive(t *testing.T) {
	s := New(nil, nil)

	got := s.Scan("", "q=1 uNiOn SeLeCt *", "")
	if got.Verdict != VerdictBlock {
		t.Errorf("Scan() verdict = %v, want %v", got.Verdict, VerdictBlock)
	}
}

func TestScan_CustomSignatures(t *testing.T) {
	custom := []Signature{
		NewSignature("debug_header", SeverityHigh, mustPattern(t, `x-debug`)),
	}
	s := New(custom, nil)

	if got := s.Scan("/x-debug", "", ""); got.Verdict != VerdictBlock {
		t.Errorf("custom signature verdict = %v, want %v", got.Verdict, VerdictBlock)
	}
	// Default signatures are not consulted when a custom list is given.
	if got := s.Scan("/files/../../etc/passwd", "", ""); got.Verdict != VerdictAllow {
		t.Errorf("default signature applied with custom list: %+v", got)
	}
}

func TestScan_EmptySurfacesSkipped(t *testing.T) {
	s := New(nil, nil)
	got := s.Scan("", "", "")
	if got.Verdict != VerdictAllow {
		t.Errorf("Scan() on empty surfaces = %v, want %v", got.Verdict, VerdictAllow)
	}
}

func TestVerdictString(t *testing.T) {
	tests := []struct {
		verdict Verdict
		want    string
	}{
		{VerdictAllow, "allow"},
		{VerdictLog, "log"},
		{VerdictBlock, "block"},
		{Verdict(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.verdict.String(); got != tt.want {
			t.Errorf("Verdict(%d).String() = %q, want %q", tt.verdict, got, tt.want)
		}
	}
}
