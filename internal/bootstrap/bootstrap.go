// Package bootstrap wires configuration, infrastructure and use cases into a
// runnable application for both the api and worker binaries.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/raglab/docquery/internal/config"
	"github.com/raglab/docquery/internal/core/ports"
	"github.com/raglab/docquery/internal/core/retrieval"
	"github.com/raglab/docquery/internal/core/usecase"
	"github.com/raglab/docquery/internal/infrastructure/chunking"
	"github.com/raglab/docquery/internal/infrastructure/extractor/pdfx"
	"github.com/raglab/docquery/internal/infrastructure/index/memchunk"
	"github.com/raglab/docquery/internal/infrastructure/keywords"
	"github.com/raglab/docquery/internal/infrastructure/llm/ollama"
	"github.com/raglab/docquery/internal/infrastructure/queue/nats"
	"github.com/raglab/docquery/internal/infrastructure/repository/postgres"
	"github.com/raglab/docquery/internal/infrastructure/resilience"
	"github.com/raglab/docquery/internal/infrastructure/storage/localfs"
	"github.com/raglab/docquery/internal/infrastructure/vector/chroma"
	"github.com/raglab/docquery/internal/observability/logging"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue     ports.MessageQueue
	Repo      ports.DocumentRepository
	Chat      ports.ChatStore
	Generator ports.AnswerGenerator
	Pinger    *ollama.Client

	IngestUC  ports.DocumentIngestor
	ProcessUC ports.DocumentProcessor
	QueryUC   ports.DocumentQueryService
	RemoveUC  ports.DocumentRemover

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, service string) (*App, error) {
	logger := logging.NewJSONLogger(service, cfg.LogLevel)
	slog.SetDefault(logger)

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	chunkRepo := postgres.NewChunkRepository(db)
	chatRepo := postgres.NewChatRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ollamaClient := ollama.NewWithExecutor(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, executor)
	embedder := ollama.NewEmbedder(ollamaClient)
	generator := ollama.NewGenerator(ollamaClient)

	similarityIndex := chroma.New(cfg.ChromaURL, cfg.ChromaCollection, embedder)

	chunkIndex := memchunk.New(chunkRepo, time.Duration(cfg.ChunkIndexRefreshSeconds)*time.Second, logger)
	keywordExtractor := keywords.NewExtractor()

	engine, err := retrieval.NewEngine(
		[]retrieval.Strategy{
			retrieval.NewEmbeddingStrategy(similarityIndex),
			retrieval.NewKeyphraseStrategy(chunkIndex, keywordExtractor),
		},
		retrieval.Config{
			Alpha:             cfg.RAGAlpha,
			MaxCosineDistance: cfg.RAGMaxCosineDistance,
			CombinedThreshold: cfg.RAGCombinedThreshold,
		},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("build retrieval engine: %w", err)
	}

	var expander ports.QueryExpander = usecase.NoopExpander{}
	if cfg.ExpansionEnabled {
		expander = usecase.NewCompressionUpscalingExpander(generator, cfg.ExpansionMinWords, cfg.ExpansionMaxWords)
	}

	chunker := chunking.NewParagraphChunker(cfg.ChunkMaxChars)
	extractor := pdfx.NewExtractor(storage)

	ingestUC := usecase.NewIngestDocumentUseCase(repo, storage, queue)
	processUC := usecase.NewProcessDocumentUseCase(repo, chunkRepo, extractor, chunker, keywordExtractor, embedder, similarityIndex, chunkIndex.Invalidate)
	queryUC := usecase.NewQueryUseCase(engine, chunkIndex, expander, generator, chatRepo, logger, cfg.RAGTopK)
	removeUC := usecase.NewRemoveDocumentUseCase(repo, chunkRepo, storage, similarityIndex, chunkIndex.Invalidate)

	return &App{
		Config: cfg,
		Logger: logger,

		Queue:     queue,
		Repo:      repo,
		Chat:      chatRepo,
		Generator: generator,
		Pinger:    ollamaClient,

		IngestUC:  ingestUC,
		ProcessUC: processUC,
		QueryUC:   queryUC,
		RemoveUC:  removeUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
