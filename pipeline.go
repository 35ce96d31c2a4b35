package shopguard

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

// StageFunc is one security check. A nil return continues the chain; a
// non-nil SecurityError terminates the request with that error.
type StageFunc func(w http.ResponseWriter, r *http.Request) *SecurityError

// Stage is a named security check in the pipeline.
type Stage struct {
	Name  string
	Check StageFunc
}

// Pipeline runs an ordered list of stages ahead of a protected handler.
// Stages execute in list order for every request; the first stage returning
// an error short-circuits the rest of the chain and the handler.
type Pipeline struct {
	stages      []Stage
	onTerminate func(ctx context.Context, stage, code string)
}

// NewPipeline creates a pipeline over the given stages.
func NewPipeline(stages []Stage) *Pipeline {
	return &Pipeline{stages: stages}
}

// OnTerminate registers a hook called whenever a stage terminates a request,
// with the stage name and the error code it produced.
func (p *Pipeline) OnTerminate(fn func(ctx context.Context, stage, code string)) {
	p.onTerminate = fn
}

// Stages returns the stage names in execution order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name
	}
	return names
}

// Middleware wraps next with the pipeline's checks.
func (p *Pipeline) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, stage := range p.stages {
			if serr := stage.Check(w, r); serr != nil {
				if p.onTerminate != nil {
					p.onTerminate(r.Context(), stage.Name, serr.Code)
				}
				writeSecurityError(w, serr)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// writeSecurityError converts a SecurityError into the HTTP response the
// client sees: status, optional Retry-After, and a generic JSON body.
func writeSecurityError(w http.ResponseWriter, serr *SecurityError) {
	w.Header().Set("Content-Type", "application/json")
	if serr.RetryAfter > 0 {
		seconds := int64(serr.RetryAfter / time.Second)
		if serr.RetryAfter%time.Second > 0 {
			seconds++
		}
		w.Header().Set("Retry-After", strconv.FormatInt(seconds, 10))
	}
	w.WriteHeader(serr.Status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:            serr.Code,
		ErrorDescription: serr.Message,
	})
}
