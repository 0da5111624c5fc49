package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/doclab/doclab/internal/core/domain"
	"github.com/doclab/doclab/internal/core/ports"
)

// ProcessDocumentUseCase drives one processing pass. Every pass ends with the
// document in a terminal state: PROCESSED, or FAILED with lastError set.
// Analyzer and mapping failures are absorbed into persisted state; only
// repository failures (document vanished, status write refused) propagate.
type ProcessDocumentUseCase struct {
	repo     ports.DocumentRepository
	storage  ports.BlobStorage
	analyzer ports.Analyzer
	mapper   ResultMapper
}

func NewProcessDocumentUseCase(
	repo ports.DocumentRepository,
	storage ports.BlobStorage,
	analyzer ports.Analyzer,
) *ProcessDocumentUseCase {
	return &ProcessDocumentUseCase{
		repo:     repo,
		storage:  storage,
		analyzer: analyzer,
	}
}

func (uc *ProcessDocumentUseCase) ProcessByID(ctx context.Context, documentID string) error {
	// Fresh load so repeated passes never act on a stale in-memory copy.
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("fetch document by id: %w", err)
	}

	// Persist PROCESSING first so concurrent readers see the pass in flight.
	if err := uc.repo.UpdateStatus(ctx, doc.ID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	if strings.TrimSpace(doc.FilePath) == "" {
		return uc.markFailed(ctx, doc.ID, errors.New("missing file path for document"))
	}

	result, err := uc.analyze(ctx, doc)
	if err != nil {
		return uc.markFailed(ctx, doc.ID, err)
	}

	docType := doc.DocType
	if result.Meta != nil && strings.TrimSpace(result.Meta.DocType) != "" {
		docType = strings.TrimSpace(result.Meta.DocType)
	}

	summary := uc.mapper.ToSummary(doc, result)
	fields := uc.mapper.ToFields(doc, result)

	// One transaction: append summary, replace fields, clear lastError,
	// land on PROCESSED. A crash before commit leaves PROCESSING state only.
	if err := uc.repo.SaveAnalysis(ctx, doc.ID, docType, summary, fields); err != nil {
		return uc.markFailed(ctx, doc.ID, err)
	}

	return nil
}

func (uc *ProcessDocumentUseCase) analyze(ctx context.Context, doc *domain.Document) (*domain.AnalysisResult, error) {
	blob, err := uc.storage.Open(ctx, doc.FilePath)
	if err != nil {
		return nil, fmt.Errorf("open stored file: %w", err)
	}
	defer blob.Close()

	result, err := uc.analyzer.Analyze(ctx, doc.FileName, blob)
	if err != nil {
		return nil, fmt.Errorf("analyze document: %w", err)
	}
	return result, nil
}

// markFailed records the processing failure as document state. It returns an
// error only when that status write itself fails.
func (uc *ProcessDocumentUseCase) markFailed(ctx context.Context, documentID string, cause error) error {
	msg := cause.Error()
	if strings.TrimSpace(msg) == "" {
		msg = fmt.Sprintf("%T", cause)
	}
	msg = domain.TruncateErrorMessage(msg)

	if err := uc.repo.UpdateStatus(ctx, documentID, domain.StatusFailed, msg); err != nil {
		return fmt.Errorf("mark failed status: %w", err)
	}
	return nil
}
