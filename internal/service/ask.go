package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_llm_client.go -package=mocks traveldocs-relay/internal/service LLMClient
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_ask_service.go -package=mocks -mock_names=AskService=MockAskService traveldocs-relay/internal/service AskService

import (
	"context"
	"encoding/json"
	"strings"

	"traveldocs-relay/internal/answer"
	"traveldocs-relay/internal/contextutil"
	"traveldocs-relay/internal/domain"
	"traveldocs-relay/internal/llm"
)

// LLMClient is an interface for interacting with an LLM API.
// This interface is defined from the service layer's perspective (consumer-first).
type LLMClient interface {
	// Ask sends the question with its chat history and returns the answer and raw payload.
	Ask(ctx context.Context, question string, history []domain.ChatMessage) (llm.Answer, error)
}

// AnswerInspector reports on the structure of a generated answer.
type AnswerInspector interface {
	Inspect(markdown string) answer.Report
}

// AskRequest represents a travel-documentation question in the domain layer.
type AskRequest struct {
	Question    string
	ChatHistory []domain.ChatMessage
}

// AskResponse represents an answered question in the domain layer.
type AskResponse struct {
	Question string
	Answer   string
	Raw      json.RawMessage
}

// AskService answers travel-documentation questions.
type AskService interface {
	// Ask validates the question and relays it to the LLM.
	Ask(ctx context.Context, req AskRequest) (AskResponse, error)
}

// askService implements AskService.
type askService struct {
	llmClient LLMClient
	inspector AnswerInspector
}

// NewAskService creates a new AskService. inspector may be nil.
func NewAskService(llmClient LLMClient, inspector AnswerInspector) AskService {
	return &askService{
		llmClient: llmClient,
		inspector: inspector,
	}
}

// Ask processes a question. The returned question is the caller's original text.
func (s *askService) Ask(ctx context.Context, req AskRequest) (AskResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if strings.TrimSpace(req.Question) == "" {
		logger.WarnContext(ctx, "empty question in ask request")
		return AskResponse{}, &ValidationError{
			Field:   "question",
			Message: "Question is empty",
		}
	}

	result, err := s.llmClient.Ask(ctx, req.Question, req.ChatHistory)
	if err != nil {
		kind, _ := llm.KindOf(err)
		logger.ErrorContext(ctx, "failed to get LLM response", "error", err, "kind", string(kind))
		return AskResponse{}, WrapError(err, "failed to get LLM response")
	}

	if s.inspector != nil {
		if report := s.inspector.Inspect(result.Text); !report.Complete() {
			logger.WarnContext(ctx, "answer is missing required sections", "missing", report.Missing)
		}
	}

	logger.InfoContext(ctx, "ask request processed successfully",
		"question_length", len(req.Question),
		"history_messages", len(req.ChatHistory),
		"answer_length", len(result.Text),
	)
	return AskResponse{
		Question: req.Question,
		Answer:   result.Text,
		Raw:      result.Raw,
	}, nil
}
