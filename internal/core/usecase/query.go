package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/raglab/docquery/internal/core/domain"
	"github.com/raglab/docquery/internal/core/ports"
)

const noContextAnswer = "I could not find relevant information in the indexed documents."

type QueryUseCase struct {
	retriever  ports.FusionRetriever
	chunkIndex ports.ChunkIndex
	expander   ports.QueryExpander
	generator  ports.AnswerGenerator
	chat       ports.ChatStore
	logger     *slog.Logger

	defaultTopK int
}

func NewQueryUseCase(
	retriever ports.FusionRetriever,
	chunkIndex ports.ChunkIndex,
	expander ports.QueryExpander,
	generator ports.AnswerGenerator,
	chat ports.ChatStore,
	logger *slog.Logger,
	defaultTopK int,
) *QueryUseCase {
	if defaultTopK <= 0 {
		defaultTopK = 7
	}
	return &QueryUseCase{
		retriever:   retriever,
		chunkIndex:  chunkIndex,
		expander:    expander,
		generator:   generator,
		chat:        chat,
		logger:      logger,
		defaultTopK: defaultTopK,
	}
}

func (uc *QueryUseCase) Answer(ctx context.Context, req domain.QueryRequest) (*domain.Answer, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "answer query", errors.New("empty question"))
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	if _, err := uc.chat.EnsureSession(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("ensure chat session: %w", err)
	}
	if err := uc.chat.AppendMessage(ctx, domain.ChatMessage{
		SessionID: sessionID,
		Role:      "user",
		Content:   question,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		return nil, fmt.Errorf("save user message: %w", err)
	}

	// A broken expander degrades to the raw question instead of failing the
	// whole query.
	searchQuery := question
	if expanded, err := uc.expander.Expand(ctx, question); err != nil {
		uc.logger.Warn("query_expansion_failed", slog.String("error", err.Error()))
	} else if strings.TrimSpace(expanded) != "" {
		searchQuery = expanded
	}

	topK := req.TopK
	if topK <= 0 {
		topK = uc.defaultTopK
	}

	scored, err := uc.retriever.Retrieve(ctx, searchQuery, topK)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}

	retrieved, sources, err := uc.resolveChunks(ctx, scored)
	if err != nil {
		return nil, err
	}

	var answerText string
	if len(retrieved) == 0 {
		answerText = noContextAnswer
	} else {
		answerText, err = uc.generator.GenerateAnswer(ctx, req.Model, question, retrieved)
		if err != nil {
			return nil, fmt.Errorf("generate answer: %w", err)
		}
	}

	if err := uc.chat.AppendMessage(ctx, domain.ChatMessage{
		SessionID: sessionID,
		Role:      "assistant",
		Content:   answerText,
		Sources:   sources,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		return nil, fmt.Errorf("save assistant message: %w", err)
	}

	return &domain.Answer{
		Text:      answerText,
		Sources:   sources,
		SessionID: sessionID,
	}, nil
}

func (uc *QueryUseCase) resolveChunks(ctx context.Context, scored []domain.ScoredChunk) ([]domain.RetrievedChunk, []domain.Source, error) {
	if len(scored) == 0 {
		return nil, nil, nil
	}

	ids := make([]string, len(scored))
	scoreByID := make(map[string]float64, len(scored))
	for i, s := range scored {
		ids[i] = s.ChunkID
		scoreByID[s.ChunkID] = s.CombinedScore
	}

	chunks, err := uc.chunkIndex.Resolve(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve chunks: %w", err)
	}

	retrieved := make([]domain.RetrievedChunk, 0, len(chunks))
	sources := make([]domain.Source, 0, len(chunks))
	for _, chunk := range chunks {
		score := scoreByID[chunk.ID]
		retrieved = append(retrieved, domain.RetrievedChunk{Chunk: chunk, Score: score})
		sources = append(sources, domain.Source{
			ChunkID:      chunk.ID,
			DocumentName: chunk.DocumentName,
			PageNumber:   chunk.PageNumber,
			SectionName:  chunk.SectionName,
			Score:        score,
		})
	}
	return retrieved, sources, nil
}
