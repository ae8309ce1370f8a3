package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"traveldocs-relay/internal/contextutil"
	"traveldocs-relay/internal/llm"
)

// ProviderChecker reports whether the LLM client can make a call.
type ProviderChecker interface {
	Check() error
}

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	checker ProviderChecker
	now     func() time.Time
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(checker ProviderChecker) *HealthHandler {
	return &HealthHandler{
		checker: checker,
		now:     time.Now,
	}
}

// HealthResponse represents the health check response.
//
// swagger:model HealthResponse
type HealthResponse struct {
	// Overall health status: "healthy" or "unhealthy"
	Status string `json:"status"`

	// Timestamp of the health check
	Timestamp string `json:"timestamp"`

	// Individual check results
	Checks map[string]string `json:"checks"`

	// List of issues (only present if status is unhealthy)
	Issues []string `json:"issues,omitempty"`
}

// ServeHTTP handles HTTP requests for health checks.
//
// swagger:route GET /health healthCheck
//
// # Health check endpoint
//
// Reports whether the LLM provider is supported and an API key is configured.
// No request is sent to the provider.
//
// ---
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: System is healthy
//	  schema:
//	    "$ref": "#/definitions/HealthResponse"
//	'503':
//	  description: System is unhealthy
//	  schema:
//	    "$ref": "#/definitions/HealthResponse"
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	checks := map[string]string{
		"provider": "ok",
		"api_key":  "ok",
	}
	var issues []string

	if err := h.checker.Check(); err != nil {
		logger.WarnContext(ctx, "health check failed", "error", err)
		kind, _ := llm.KindOf(err)
		switch kind {
		case llm.KindUnsupportedProvider:
			checks["provider"] = "error"
			issues = append(issues, "provider_not_supported")
		case llm.KindConfiguration:
			checks["api_key"] = "error"
			issues = append(issues, "api_key_missing")
		default:
			issues = append(issues, err.Error())
		}
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if len(issues) > 0 {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: h.now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Issues:    issues,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.ErrorContext(ctx, "failed to encode health response", "error", err)
	}
}
