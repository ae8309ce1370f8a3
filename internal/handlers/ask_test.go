package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"traveldocs-relay/internal/answer"
	"traveldocs-relay/internal/domain"
	"traveldocs-relay/internal/llm"
	"traveldocs-relay/internal/service"
	"traveldocs-relay/internal/service/mocks"

	"go.uber.org/mock/gomock"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestNewAskHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAskService := mocks.NewMockAskService(ctrl)
	handler := NewAskHandler(mockAskService)

	if handler == nil {
		t.Fatal("NewAskHandler() returned nil")
	}
	if handler.askService != mockAskService {
		t.Error("NewAskHandler() askService not set correctly")
	}
}

func TestAskHandler_ServeHTTP(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	history := []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "I am Canadian."},
		{Role: domain.RoleAssistant, Content: "Understood."},
	}

	tests := []struct {
		name       string
		method     string
		body       string
		mockSetup  func(*mocks.MockAskService)
		wantStatus int
		wantDetail string
		check      func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:   "successful POST request",
			method: http.MethodPost,
			body:   `{"question":"Visa for Brazil?","chat_history":[{"role":"user","content":"I am Canadian."},{"role":"assistant","content":"Understood."}]}`,
			mockSetup: func(m *mocks.MockAskService) {
				m.EXPECT().
					Ask(gomock.Any(), service.AskRequest{Question: "Visa for Brazil?", ChatHistory: history}).
					Return(service.AskResponse{
						Question: "Visa for Brazil?",
						Answer:   "## Summary\nNo visa needed.",
						Raw:      json.RawMessage(`{"candidates":[]}`),
					}, nil)
			},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp AskResponse
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Fatalf("failed to decode response: %v", err)
				}
				if resp.Question != "Visa for Brazil?" || resp.Answer != "## Summary\nNo visa needed." {
					t.Errorf("unexpected response: %+v", resp)
				}
				if string(resp.Raw) != `{"candidates":[]}` {
					t.Errorf("raw = %s", resp.Raw)
				}
			},
		},
		{
			name:   "nil raw encodes as null",
			method: http.MethodPost,
			body:   `{"question":"Visa for Chile?"}`,
			mockSetup: func(m *mocks.MockAskService) {
				m.EXPECT().
					Ask(gomock.Any(), service.AskRequest{Question: "Visa for Chile?"}).
					Return(service.AskResponse{Question: "Visa for Chile?", Answer: "No."}, nil)
			},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				if !strings.Contains(w.Body.String(), `"raw":null`) {
					t.Errorf("expected raw null, got %s", w.Body.String())
				}
			},
		},
		{
			name:       "method not allowed",
			method:     http.MethodGet,
			mockSetup:  func(m *mocks.MockAskService) {},
			wantStatus: http.StatusMethodNotAllowed,
		},
		{
			name:       "invalid JSON body",
			method:     http.MethodPost,
			body:       "invalid json",
			mockSetup:  func(m *mocks.MockAskService) {},
			wantStatus: http.StatusBadRequest,
			wantDetail: "Invalid request body",
		},
		{
			name:   "validation error",
			method: http.MethodPost,
			body:   `{"question":"   "}`,
			mockSetup: func(m *mocks.MockAskService) {
				m.EXPECT().
					Ask(gomock.Any(), service.AskRequest{Question: "   "}).
					Return(service.AskResponse{}, &service.ValidationError{Field: "question", Message: "Question is empty"})
			},
			wantStatus: http.StatusBadRequest,
			wantDetail: "Question is empty",
		},
		{
			name:   "llm error",
			method: http.MethodPost,
			body:   `{"question":"Visa for Peru?"}`,
			mockSetup: func(m *mocks.MockAskService) {
				m.EXPECT().
					Ask(gomock.Any(), gomock.Any()).
					Return(service.AskResponse{}, service.WrapError(
						&llm.Error{Kind: llm.KindTransport, Message: "request to LLM provider timed out after 30s"},
						"failed to get LLM response",
					))
			},
			wantStatus: http.StatusInternalServerError,
			wantDetail: "request to LLM provider timed out after 30s",
		},
		{
			name:   "unclassified error",
			method: http.MethodPost,
			body:   `{"question":"Visa for Peru?"}`,
			mockSetup: func(m *mocks.MockAskService) {
				m.EXPECT().
					Ask(gomock.Any(), gomock.Any()).
					Return(service.AskResponse{}, errors.New("service error"))
			},
			wantStatus: http.StatusInternalServerError,
			wantDetail: "service error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockAskService := mocks.NewMockAskService(ctrl)
			tt.mockSetup(mockAskService)

			handler := NewAskHandler(mockAskService)

			req := httptest.NewRequest(tt.method, "/ask", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("ServeHTTP() status = %v, want %v", w.Code, tt.wantStatus)
			}
			if tt.wantDetail != "" {
				var errResp ErrorResponse
				if err := json.NewDecoder(w.Body).Decode(&errResp); err != nil {
					t.Fatalf("failed to decode error response: %v", err)
				}
				if errResp.Detail != tt.wantDetail {
					t.Errorf("ServeHTTP() detail = %q, want %q", errResp.Detail, tt.wantDetail)
				}
			}
			if tt.check != nil {
				tt.check(t, w)
			}
		})
	}
}

const upstreamBody = `{"candidates":[{"content":{"parts":[{"text":"Paris requires..."}],"role":"model"},"finishReason":"STOP","index":0}],"usageMetadata":{"promptTokenCount":210,"candidatesTokenCount":48,"totalTokenCount":258}}`

// newEndToEndHandler wires the real service and LLM client against upstream.
func newEndToEndHandler(upstream string, mutate func(*llm.Settings)) *AskHandler {
	settings := llm.Settings{
		Provider:   llm.ProviderGemini,
		APIKey:     "test-key",
		BaseURL:    upstream,
		APIVersion: "v1beta",
		Model:      "gemini-pro",
		Timeout:    2 * time.Second,
	}
	if mutate != nil {
		mutate(&settings)
	}
	svc := service.NewAskService(llm.NewClient(settings), answer.NewInspector())
	return NewAskHandler(svc)
}

func TestAskHandler_EndToEnd(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		upstream   func(w http.ResponseWriter, r *http.Request)
		mutate     func(*llm.Settings)
		wantStatus int
		wantDetail string
		wantCalls  int32
		check      func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name: "successful answer",
			body: `{"question":"Do I need a visa for Paris?"}`,
			upstream: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(upstreamBody))
			},
			wantStatus: http.StatusOK,
			wantCalls:  1,
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp AskResponse
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Fatalf("failed to decode response: %v", err)
				}
				if resp.Answer != "Paris requires..." {
					t.Errorf("answer = %q, want %q", resp.Answer, "Paris requires...")
				}
				if resp.Question != "Do I need a visa for Paris?" {
					t.Errorf("question = %q", resp.Question)
				}
				var got, want any
				_ = json.Unmarshal(resp.Raw, &got)
				_ = json.Unmarshal([]byte(upstreamBody), &want)
				gotJSON, _ := json.Marshal(got)
				wantJSON, _ := json.Marshal(want)
				if !bytes.Equal(gotJSON, wantJSON) {
					t.Errorf("raw = %s, want %s", gotJSON, wantJSON)
				}
			},
		},
		{
			name:       "empty question",
			body:       `{"question":""}`,
			wantStatus: http.StatusBadRequest,
			wantDetail: "Question is empty",
		},
		{
			name:       "blank question",
			body:       `{"question":"   "}`,
			wantStatus: http.StatusBadRequest,
			wantDetail: "Question is empty",
		},
		{
			name:       "missing API key",
			body:       `{"question":"Visa for Spain?"}`,
			mutate:     func(s *llm.Settings) { s.APIKey = "" },
			wantStatus: http.StatusInternalServerError,
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				if !strings.Contains(w.Body.String(), "API key") {
					t.Errorf("detail should mention the missing key, got %s", w.Body.String())
				}
			},
		},
		{
			name: "upstream unavailable",
			body: `{"question":"Visa for Italy?"}`,
			upstream: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"error":{"code":503,"status":"UNAVAILABLE"}}`))
			},
			wantStatus: http.StatusInternalServerError,
			wantCalls:  1,
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				var errResp ErrorResponse
				if err := json.NewDecoder(w.Body).Decode(&errResp); err != nil {
					t.Fatalf("failed to decode error response: %v", err)
				}
				if !strings.Contains(errResp.Detail, "503") {
					t.Errorf("detail = %q, want it to contain 503", errResp.Detail)
				}
			},
		},
		{
			name:       "unsupported provider",
			body:       `{"question":"Visa for Greece?"}`,
			mutate:     func(s *llm.Settings) { s.Provider = "openai" },
			wantStatus: http.StatusInternalServerError,
		},
		{
			name: "malformed success body",
			body: `{"question":"Visa for Egypt?"}`,
			upstream: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"promptFeedback":{"blockReason":"SAFETY"}}`))
			},
			wantStatus: http.StatusInternalServerError,
			wantCalls:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				if tt.upstream != nil {
					tt.upstream(w, r)
					return
				}
				_, _ = w.Write([]byte(upstreamBody))
			}))
			defer server.Close()

			handler := newEndToEndHandler(server.URL, tt.mutate)

			req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %v, want %v (body: %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if got := calls.Load(); got != tt.wantCalls {
				t.Errorf("upstream calls = %d, want %d", got, tt.wantCalls)
			}
			if tt.wantDetail != "" {
				var errResp ErrorResponse
				if err := json.NewDecoder(w.Body).Decode(&errResp); err != nil {
					t.Fatalf("failed to decode error response: %v", err)
				}
				if errResp.Detail != tt.wantDetail {
					t.Errorf("detail = %q, want %q", errResp.Detail, tt.wantDetail)
				}
			}
			if tt.check != nil {
				tt.check(t, w)
			}
		})
	}
}
