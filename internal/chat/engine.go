// Package chat implements the conversational retrieval pipeline: question
// condensing, vector retrieval, and answer synthesis over a session's
// conversation window.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/mdelehaye/cvchat/internal/session"
	"github.com/mdelehaye/cvchat/pkg/provider"
	"github.com/mdelehaye/cvchat/pkg/types"
)

// Default values
const (
	DefaultTopK             = 4
	DefaultMemoryWindow     = 10
	DefaultMaxMessageLength = 1000
)

// condensePrompt rewrites a follow-up question into a standalone question
// given the conversation so far.
const condensePrompt = `Given the following conversation and a follow up question, rephrase the follow up question to be a standalone question, in its original language.

Chat History:
%s
Follow Up Input: %s
Standalone question:`

// answerSystemPrompt instructs the model to answer from retrieved CV context.
const answerSystemPrompt = `You are an assistant answering questions about Mathieu Delehaye's CV. Use the following pieces of CV content to answer the question at the end. If you don't know the answer from the context, say that you don't know; don't try to make up an answer.

CV content:
%s`

// Engine handles conversational retrieval over the CV.
type Engine struct {
	store     provider.VectorStore
	embedding provider.EmbeddingProvider
	llm       provider.LLMProvider
	sessions  session.Store

	topK             int
	memoryWindow     int
	maxMessageLength int
}

// Config contains chat engine configuration.
type Config struct {
	Store     provider.VectorStore
	Embedding provider.EmbeddingProvider
	LLM       provider.LLMProvider
	Sessions  session.Store

	TopK             int
	MemoryWindow     int
	MaxMessageLength int
}

// New creates a new chat engine.
func New(cfg Config) *Engine {
	if cfg.TopK == 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.MemoryWindow == 0 {
		cfg.MemoryWindow = DefaultMemoryWindow
	}
	if cfg.MaxMessageLength == 0 {
		cfg.MaxMessageLength = DefaultMaxMessageLength
	}

	return &Engine{
		store:            cfg.Store,
		embedding:        cfg.Embedding,
		llm:              cfg.LLM,
		sessions:         cfg.Sessions,
		topK:             cfg.TopK,
		memoryWindow:     cfg.MemoryWindow,
		maxMessageLength: cfg.MaxMessageLength,
	}
}

// Chat runs one conversational retrieval turn. A session ID is minted when
// none is given; the returned result always carries the effective ID.
func (e *Engine) Chat(ctx context.Context, sessionID, message string) (*types.ChatResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, types.ErrEmptyMessage
	}
	// Length is in characters, not bytes
	if n := utf8.RuneCountInString(message); n > e.maxMessageLength {
		return nil, fmt.Errorf("%w: %d chars (max %d)", types.ErrMessageTooLong, n, e.maxMessageLength)
	}

	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	sess, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if sess == nil {
		sess = &session.Session{ID: sessionID}
	}

	// Condense a follow-up into a standalone question. The first turn of a
	// session is already standalone.
	standalone := message
	if len(sess.History) > 0 {
		standalone, err = e.condense(ctx, sess.History, message)
		if err != nil {
			return nil, err
		}
	}

	results, err := e.retrieve(ctx, standalone)
	if err != nil {
		return nil, err
	}

	answer, err := e.synthesize(ctx, sess.History, results, message)
	if err != nil {
		return nil, err
	}

	sess.History = append(sess.History,
		types.Message{Role: types.RoleUser, Content: message},
		types.Message{Role: types.RoleAssistant, Content: answer},
	)
	sess.Trim(e.memoryWindow)

	if err := e.sessions.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	sources := sourceTitles(results)
	slog.Info("chat turn",
		"session", sessionID,
		"question_len", len(message),
		"answer_len", len(answer),
		"sources", sources,
	)

	return &types.ChatResult{
		Answer:    answer,
		Sources:   sources,
		SessionID: sessionID,
	}, nil
}

// Ask runs retrieval QA for a single question with no session.
func (e *Engine) Ask(ctx context.Context, question string) (*types.ChatResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, types.ErrEmptyMessage
	}

	results, err := e.retrieve(ctx, question)
	if err != nil {
		return nil, err
	}

	answer, err := e.synthesize(ctx, nil, results, question)
	if err != nil {
		return nil, err
	}

	return &types.ChatResult{
		Answer:  answer,
		Sources: sourceTitles(results),
	}, nil
}

// condense rewrites a follow-up question into a standalone one.
func (e *Engine) condense(ctx context.Context, history []types.Message, question string) (string, error) {
	prompt := fmt.Sprintf(condensePrompt, transcript(history), question)

	standalone, err := e.llm.Complete(ctx, "", []types.Message{
		{Role: types.RoleUser, Content: prompt},
	})
	if err != nil {
		return "", fmt.Errorf("failed to condense question: %w", err)
	}

	standalone = strings.TrimSpace(standalone)
	if standalone == "" {
		return question, nil
	}
	return standalone, nil
}

// retrieve embeds the question and searches the vector store.
func (e *Engine) retrieve(ctx context.Context, question string) ([]*types.SearchResult, error) {
	embeddings, err := e.embedding.Embed(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, types.ErrEmbeddingFailed
	}

	results, err := e.store.Search(ctx, embeddings[0], e.topK)
	if err != nil {
		return nil, fmt.Errorf("retrieval failed: %w", err)
	}
	return results, nil
}

// synthesize asks the LLM for an answer grounded in the retrieved context.
func (e *Engine) synthesize(ctx context.Context, history []types.Message, results []*types.SearchResult, question string) (string, error) {
	var contextParts []string
	for _, r := range results {
		contextParts = append(contextParts, r.Document.Content)
	}

	system := fmt.Sprintf(answerSystemPrompt, strings.Join(contextParts, "\n\n"))

	messages := make([]types.Message, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, types.Message{Role: types.RoleUser, Content: question})

	answer, err := e.llm.Complete(ctx, system, messages)
	if err != nil {
		return "", fmt.Errorf("answer synthesis failed: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

// transcript formats history for the condense prompt.
func transcript(history []types.Message) string {
	var b strings.Builder
	for _, m := range history {
		switch m.Role {
		case types.RoleAssistant:
			b.WriteString("Assistant: ")
		default:
			b.WriteString("Human: ")
		}
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return b.String()
}

// sourceTitles deduplicates the section titles of retrieved documents,
// preserving retrieval order.
func sourceTitles(results []*types.SearchResult) []string {
	seen := make(map[string]bool, len(results))
	var titles []string
	for _, r := range results {
		title := r.Document.Title
		if title == "" {
			title = "CV Section"
		}
		if !seen[title] {
			seen[title] = true
			titles = append(titles, title)
		}
	}
	return titles
}
