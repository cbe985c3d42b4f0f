package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/pagevec/internal/core/domain"
	"github.com/custodia-labs/pagevec/internal/core/ports/driven"
	"github.com/custodia-labs/pagevec/internal/core/ports/driving"
	"github.com/custodia-labs/pagevec/internal/logger"
)

// Ensure QueryService implements the interfaces.
var (
	_ driving.QueryService    = (*QueryService)(nil)
	_ driven.PromptStoreAware = (*QueryService)(nil)
)

const (
	answerMaxTokens   = 1024
	answerTemperature = 0.2
	fallbackSnippet   = 400
)

// DefaultAskSystemPrompt is used when no prompt store overrides it.
const DefaultAskSystemPrompt = "You answer questions about indexed PDF documents. " +
	"Use only the numbered passages provided. Cite passages as [n]. " +
	"If the passages do not contain the answer, say so."

// QueryService retrieves indexed pages by similarity and optionally
// synthesizes an answer from them.
type QueryService struct {
	embedder  driven.MultimodalEmbedder
	store     driven.VectorStore
	llm       driven.LLMService
	prompts   driven.PromptStore
	namespace string
	topK      int
}

// NewQueryService creates a query service.
// llm is optional - if nil, Ask returns the retrieved passages only.
func NewQueryService(
	embedder driven.MultimodalEmbedder,
	store driven.VectorStore,
	llm driven.LLMService,
	cfg domain.VectorConfig,
) *QueryService {
	return &QueryService{
		embedder:  embedder,
		store:     store,
		llm:       llm,
		namespace: cfg.Namespace,
		topK:      domain.DefaultTopK,
	}
}

// Search embeds query and returns the topK most similar pages.
func (s *QueryService) Search(ctx context.Context, query string, topK int) ([]domain.QueryMatch, error) {
	logger.Section("Search")
	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, returning no results")
		return []domain.QueryMatch{}, nil
	}
	if topK <= 0 {
		topK = s.topK
	}

	vec, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	logger.Debug("Query embedded (%d dimensions)", len(vec))

	matches, err := s.store.Query(ctx, domain.VectorQuery{
		Vector:          vec,
		TopK:            topK,
		Namespace:       s.namespace,
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: query: %w", domain.ErrVectorStore, err)
	}

	logger.Info("Found %d matches", len(matches))
	return matches, nil
}

// Ask retrieves passages for question and asks the LLM to answer from
// them. Without an LLM the answer text lists the passages.
func (s *QueryService) Ask(ctx context.Context, question string, topK int) (*domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}

	matches, err := s.Search(ctx, question, topK)
	if err != nil {
		return nil, err
	}

	answer := &domain.Answer{Question: question, Sources: matches}
	if s.llm == nil {
		logger.Debug("No LLM configured, returning passages")
		answer.Text = passagesText(matches, fallbackSnippet)
		return answer, nil
	}
	if len(matches) == 0 {
		answer.Text = "No indexed passages matched the question."
		return answer, nil
	}

	logger.Section("Answer Synthesis")
	text, err := s.llm.Chat(ctx, []driven.ChatMessage{
		{Role: "system", Content: s.systemPrompt()},
		{Role: "user", Content: "Passages:\n" + passagesText(matches, 0) + "\nQuestion: " + question},
	}, driven.ChatOptions{MaxTokens: answerMaxTokens, Temperature: answerTemperature})
	if err != nil {
		return nil, fmt.Errorf("synthesize answer: %w", err)
	}

	answer.Text = strings.TrimSpace(text)
	answer.Model = s.llm.ModelName()
	return answer, nil
}

// SetPromptStore sets the store used to load the answer system prompt.
func (s *QueryService) SetPromptStore(store driven.PromptStore) {
	s.prompts = store
}

func (s *QueryService) systemPrompt() string {
	if s.prompts == nil {
		return DefaultAskSystemPrompt
	}
	prompt, err := s.prompts.Load(driven.PromptAskSystem)
	if err != nil || strings.TrimSpace(prompt) == "" {
		logger.Debug("Using built-in ask prompt")
		return DefaultAskSystemPrompt
	}
	return prompt
}

// passagesText renders matches as numbered passages. A positive limit
// truncates each passage to that many runes.
func passagesText(matches []domain.QueryMatch, limit int) string {
	var b strings.Builder
	for i, m := range matches {
		text := m.Metadata.Text
		if r := []rune(text); limit > 0 && len(r) > limit {
			text = string(r[:limit]) + "..."
		}
		fmt.Fprintf(&b, "[%d] %s, page %d (score %.3f)\n%s\n", i+1,
			m.Metadata.DocSource, m.Metadata.PageNumber, m.Score, text)
		if m.Metadata.HasImage() {
			fmt.Fprintf(&b, "Image: %s\n", m.Metadata.ImageReference)
		}
		b.WriteString("\n")
	}
	return b.String()
}
