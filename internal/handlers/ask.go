package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"traveldocs-relay/internal/contextutil"
	"traveldocs-relay/internal/domain"
	"traveldocs-relay/internal/llm"
	"traveldocs-relay/internal/service"
)

// AskHandler handles HTTP requests for travel-documentation questions.
type AskHandler struct {
	askService service.AskService
}

// NewAskHandler creates a new AskHandler.
func NewAskHandler(askService service.AskService) *AskHandler {
	return &AskHandler{
		askService: askService,
	}
}

// AskRequest represents the HTTP request payload for a question.
//
// swagger:model AskRequest
type AskRequest struct {
	Question    string               `json:"question"`
	ChatHistory []domain.ChatMessage `json:"chat_history,omitempty"`
}

// AskResponse represents the HTTP response payload for an answered question.
//
// swagger:model AskResponse
type AskResponse struct {
	// The question exactly as submitted
	Question string `json:"question"`

	// The Markdown answer generated by the provider
	Answer string `json:"answer"`

	// The provider's complete response body, or null
	Raw json.RawMessage `json:"raw"`
}

// ErrorResponse represents an error response.
//
// swagger:model ErrorResponse
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// ServeHTTP handles HTTP requests for questions.
//
// swagger:route POST /ask askQuestion
//
// # Ask a travel-documentation question
//
// Relays the question and up to the last six chat_history messages to the LLM
// and returns the structured Markdown answer.
//
// ---
// consumes:
// - application/json
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Successful response with the answer and raw provider payload
//	  schema:
//	    "$ref": "#/definitions/AskResponse"
//	'400':
//	  description: Question is empty or body is not valid JSON
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'500':
//	  description: Configuration, provider or transport failure
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *AskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	svcResp, err := h.askService.Ask(ctx, service.AskRequest{
		Question:    req.Question,
		ChatHistory: req.ChatHistory,
	})
	if err != nil {
		h.handleServiceError(ctx, w, err)
		return
	}

	resp := AskResponse{
		Question: svcResp.Question,
		Answer:   svcResp.Answer,
		Raw:      svcResp.Raw,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// handleServiceError maps validation errors to 400 and every other failure to 500.
func (h *AskHandler) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	logger := contextutil.LoggerFromContext(ctx)

	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		logger.WarnContext(ctx, "rejected ask request", "error", err)
		writeError(w, http.StatusBadRequest, validationErr.Message)
		return
	}

	logger.ErrorContext(ctx, "ask request failed", "error", err)

	detail := err.Error()
	var llmErr *llm.Error
	if errors.As(err, &llmErr) {
		detail = llmErr.Error()
	}
	writeError(w, http.StatusInternalServerError, detail)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Detail: message,
	})
}
