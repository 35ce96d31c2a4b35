package shopguard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestPipeline_RunsStagesInOrder(t *testing.T) {
	var order []string
	stage := func(name string) Stage {
		return Stage{Name: name, Check: func(w http.ResponseWriter, r *http.Request) *SecurityError {
			order = append(order, name)
			return nil
		}}
	}

	p := NewPipeline([]Stage{stage("first"), stage("second"), stage("third")})

	handlerCalled := false
	h := p.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	if !handlerCalled {
		t.Fatal("handler not reached")
	}
	want := []string{"first", "second", "third"}
	if len(order) != len(want) {
		t.Fatalf("ran %d stages, want %d", len(order), len(want))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("stage[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestPipeline_TerminationShortCircuits(t *testing.T) {
	var ran []string
	p := NewPipeline([]Stage{
		{Name: "pass", Check: func(w http.ResponseWriter, r *http.Request) *SecurityError {
			ran = append(ran, "pass")
			return nil
		}},
		{Name: "reject", Check: func(w http.ResponseWriter, r *http.Request) *SecurityError {
			ran = append(ran, "reject")
			return ErrSuspiciousRequest()
		}},
		{Name: "after", Check: func(w http.ResponseWriter, r *http.Request) *SecurityError {
			ran = append(ran, "after")
			return nil
		}},
	})

	var terminatedStage, terminatedCode string
	p.OnTerminate(func(ctx context.Context, stage, code string) {
		terminatedStage, terminatedCode = stage, code
	})

	handlerCalled := false
	h := p.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	if handlerCalled {
		t.Error("handler reached after termination")
	}
	if len(ran) != 2 || ran[1] != "reject" {
		t.Errorf("ran stages %v, want [pass reject]", ran)
	}
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
	if terminatedStage != "reject" || terminatedCode != ErrorCodeSuspiciousRequest {
		t.Errorf("OnTerminate got (%q, %q), want (reject, %s)", terminatedStage, terminatedCode, ErrorCodeSuspiciousRequest)
	}
}

func TestWriteSecurityError(t *testing.T) {
	w := httptest.NewRecorder()
	writeSecurityError(w, ErrRateLimited(1500*time.Millisecond))

	if w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	// Fractional seconds round up so clients never retry early.
	if ra := w.Header().Get("Retry-After"); ra != "2" {
		t.Errorf("Retry-After = %q, want 2", ra)
	}

	var body ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body.Error != ErrorCodeRateLimited {
		t.Errorf("body.Error = %q, want %q", body.Error, ErrorCodeRateLimited)
	}
	if body.ErrorDescription == "" {
		t.Error("body.ErrorDescription is empty")
	}
}

func TestWriteSecurityError_NoRetryAfter(t *testing.T) {
	w := httptest.NewRecorder()
	writeSecurityError(w, ErrInvalidCSRFToken())

	if ra := w.Header().Get("Retry-After"); ra != "" {
		t.Errorf("Retry-After = %q, want unset", ra)
	}
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}

func TestPipeline_Stages(t *testing.T) {
	p := NewPipeline([]Stage{
		{Name: "a"}, {Name: "b"},
	})
	names := p.Stages()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("Stages() = %v, want [a b]", names)
	}
}
