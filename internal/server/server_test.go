package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mdelehaye/cvchat/internal/chat"
	"github.com/mdelehaye/cvchat/internal/config"
	"github.com/mdelehaye/cvchat/internal/session"
	"github.com/mdelehaye/cvchat/pkg/types"
)

type stubLLM struct {
	answer      string
	unavailable error
}

func (s *stubLLM) Name() string  { return "stub" }
func (s *stubLLM) Model() string { return "stub-model" }

func (s *stubLLM) Complete(ctx context.Context, system string, messages []types.Message) (string, error) {
	return s.answer, nil
}

func (s *stubLLM) Available(ctx context.Context) error { return s.unavailable }
func (s *stubLLM) Close() error                        { return nil }

type stubEmbedder struct{}

func (s *stubEmbedder) Name() string { return "stub" }

func (s *stubEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func (s *stubEmbedder) Dimensions() int                  { return 3 }
func (s *stubEmbedder) MaxBatchSize() int                { return 100 }
func (s *stubEmbedder) Warmup(ctx context.Context) error { return nil }
func (s *stubEmbedder) Close() error                     { return nil }

type stubStore struct{}

func (s *stubStore) Name() string { return "stub" }

func (s *stubStore) Add(ctx context.Context, docs []*types.DocumentWithEmbedding) error {
	return nil
}

func (s *stubStore) Search(ctx context.Context, queryVec []float32, k int) ([]*types.SearchResult, error) {
	return []*types.SearchResult{
		{Document: &types.Document{Title: "Technical Skills", Content: "Go and Python", Source: "cv"}},
	}, nil
}

func (s *stubStore) Stats(ctx context.Context) (*types.StoreStats, error) {
	return &types.StoreStats{Documents: 1, Dimensions: 3}, nil
}

func (s *stubStore) Close() error { return nil }

func newTestServer(t *testing.T, llm *stubLLM) (*Server, session.Store) {
	t.Helper()

	sessions := session.NewMemoryStore(time.Hour)
	t.Cleanup(func() { sessions.Close() })

	engine := chat.New(chat.Config{
		Store:     &stubStore{},
		Embedding: &stubEmbedder{},
		LLM:       llm,
		Sessions:  sessions,
	})

	return New(Config{
		Config:   config.DefaultConfig(),
		Engine:   engine,
		Sessions: sessions,
		LLM:      llm,
	}), sessions
}

func do(s *Server, method, target string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func TestIndex(t *testing.T) {
	srv, _ := newTestServer(t, &stubLLM{})

	rec := do(srv, http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET / status = %d, want 200", rec.Code)
	}

	var body map[string]any
	decode(t, rec, &body)
	if body["version"] != config.Version {
		t.Errorf("version = %v, want %s", body["version"], config.Version)
	}
	if body["docs"] != "/docs" {
		t.Errorf("docs = %v, want /docs", body["docs"])
	}

	rec = do(srv, http.MethodGet, "/docs", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("GET /docs status = %d, want 200", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		llm        *stubLLM
		wantStatus int
		wantField  string
	}{
		{"healthy", &stubLLM{}, http.StatusOK, "healthy"},
		{"llm unavailable", &stubLLM{unavailable: errors.New("OPENAI_API_KEY not set")}, http.StatusServiceUnavailable, "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, tt.llm)

			rec := do(srv, http.MethodGet, "/health", nil)
			if rec.Code != tt.wantStatus {
				t.Fatalf("GET /health status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var body map[string]any
			decode(t, rec, &body)
			if body["status"] != tt.wantField {
				t.Errorf("status = %v, want %s", body["status"], tt.wantField)
			}
		})
	}
}

func TestChatEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, &stubLLM{answer: "I studied physics."})

	payload, _ := json.Marshal(chatRequest{Message: "What did you study?"})
	rec := do(srv, http.MethodPost, "/chat", payload)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /chat status = %d, body %s", rec.Code, rec.Body.String())
	}

	var body chatResponse
	decode(t, rec, &body)
	if body.Response != "I studied physics." {
		t.Errorf("response = %q", body.Response)
	}
	if body.SessionID == "" {
		t.Error("no session_id minted")
	}
	if body.ConversationID != body.SessionID {
		t.Errorf("conversation_id = %q, want session_id %q", body.ConversationID, body.SessionID)
	}
	if len(body.Sources) != 1 || body.Sources[0] != "Technical Skills" {
		t.Errorf("sources = %v, want [Technical Skills]", body.Sources)
	}
}

func TestChatEndpointKeepsSession(t *testing.T) {
	srv, _ := newTestServer(t, &stubLLM{answer: "ok"})

	payload, _ := json.Marshal(chatRequest{Message: "first question"})
	rec := do(srv, http.MethodPost, "/chat", payload)

	var first chatResponse
	decode(t, rec, &first)

	payload, _ = json.Marshal(chatRequest{Message: "follow up", SessionID: first.SessionID})
	rec = do(srv, http.MethodPost, "/chat", payload)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /chat follow-up status = %d", rec.Code)
	}

	var second chatResponse
	decode(t, rec, &second)
	if second.SessionID != first.SessionID {
		t.Errorf("follow-up session = %q, want %q", second.SessionID, first.SessionID)
	}
}

func TestChatEndpointValidation(t *testing.T) {
	srv, _ := newTestServer(t, &stubLLM{})

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", "{not json"},
		{"empty message", `{"message": ""}`},
		{"whitespace message", `{"message": "   "}`},
		{"too long", `{"message": "` + strings.Repeat("a", 1001) + `"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(srv, http.MethodPost, "/chat", []byte(tt.body))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("POST /chat status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestSampleQuestions(t *testing.T) {
	srv, _ := newTestServer(t, &stubLLM{})

	rec := do(srv, http.MethodGet, "/sample-questions", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /sample-questions status = %d", rec.Code)
	}

	var body struct {
		Questions []string `json:"sample_questions"`
	}
	decode(t, rec, &body)
	if len(body.Questions) == 0 {
		t.Error("no sample questions returned")
	}
}

func TestResetSession(t *testing.T) {
	srv, sessions := newTestServer(t, &stubLLM{})
	ctx := context.Background()

	if err := sessions.Put(ctx, &session.Session{ID: "abc"}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	rec := do(srv, http.MethodPost, "/reset-session?session_id=abc", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /reset-session status = %d", rec.Code)
	}

	got, err := sessions.Get(ctx, "abc")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != nil {
		t.Error("session still present after reset")
	}
}

func TestResetSessionMissingParam(t *testing.T) {
	srv, _ := newTestServer(t, &stubLLM{})

	rec := do(srv, http.MethodPost, "/reset-session", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("POST /reset-session without param status = %d, want 400", rec.Code)
	}
}

func TestResetSessionUnknown(t *testing.T) {
	srv, _ := newTestServer(t, &stubLLM{})

	rec := do(srv, http.MethodPost, "/reset-session?session_id=ghost", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /reset-session unknown status = %d, want 200", rec.Code)
	}

	var body map[string]string
	decode(t, rec, &body)
	if !strings.Contains(body["message"], "not found") {
		t.Errorf("message = %q, want not-found wording", body["message"])
	}
}

func TestActiveSessions(t *testing.T) {
	srv, sessions := newTestServer(t, &stubLLM{})
	ctx := context.Background()

	rec := do(srv, http.MethodGet, "/active-sessions", nil)
	var empty struct {
		ActiveSessions []string `json:"active_sessions"`
		Count          int      `json:"count"`
	}
	decode(t, rec, &empty)
	if empty.Count != 0 || len(empty.ActiveSessions) != 0 {
		t.Errorf("expected no active sessions, got %+v", empty)
	}

	for _, id := range []string{"a", "b"} {
		if err := sessions.Put(ctx, &session.Session{ID: id}); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
	}

	rec = do(srv, http.MethodGet, "/active-sessions", nil)
	var body struct {
		ActiveSessions []string `json:"active_sessions"`
		Count          int      `json:"count"`
	}
	decode(t, rec, &body)
	if body.Count != 2 || len(body.ActiveSessions) != 2 {
		t.Errorf("expected 2 active sessions, got %+v", body)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, &stubLLM{})

	rec := do(srv, http.MethodGet, "/chat", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /chat status = %d, want 405", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t, &stubLLM{})

	req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got == "" {
		t.Error("preflight response missing Access-Control-Allow-Origin")
	}
}
