package bootstrap

import (
	"context"
	"fmt"

	"github.com/doclab/doclab/internal/config"
	"github.com/doclab/doclab/internal/core/ports"
	"github.com/doclab/doclab/internal/core/usecase"
	"github.com/doclab/doclab/internal/infrastructure/analyzer"
	"github.com/doclab/doclab/internal/infrastructure/queue/nats"
	"github.com/doclab/doclab/internal/infrastructure/repository/postgres"
	"github.com/doclab/doclab/internal/infrastructure/resilience"
	"github.com/doclab/doclab/internal/infrastructure/storage/localfs"
)

type App struct {
	Config config.Config

	Queue ports.MessageQueue

	UploadUC  ports.DocumentUploader
	ProcessUC ports.DocumentProcessor
	ReadUC    ports.DocumentReader
	DeleteUC  ports.DocumentAdmin

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init blob storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	nlp := analyzer.New(cfg.AnalyzerURL, cfg.AnalyzerTimeout, executor)

	uploadUC := usecase.NewSaveDocumentUseCase(repo, storage)
	processUC := usecase.NewProcessDocumentUseCase(repo, storage, nlp)
	readUC := usecase.NewReadDocumentUseCase(repo, storage)
	deleteUC := usecase.NewDeleteDocumentUseCase(repo, storage)

	return &App{
		Config: cfg,
		Queue:  queue,

		UploadUC:  uploadUC,
		ProcessUC: processUC,
		ReadUC:    readUC,
		DeleteUC:  deleteUC,

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
