package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/doclab/doclab/internal/core/ports"
)

// DeleteDocumentUseCase removes a document; summaries and extracted fields go
// with it via the repository cascade. The stored blob is removed best-effort
// after the record delete commits: a leftover file is preferable to a record
// pointing at nothing, and the remove failure is logged, never surfaced.
type DeleteDocumentUseCase struct {
	repo    ports.DocumentRepository
	storage ports.BlobStorage
}

func NewDeleteDocumentUseCase(repo ports.DocumentRepository, storage ports.BlobStorage) *DeleteDocumentUseCase {
	return &DeleteDocumentUseCase{repo: repo, storage: storage}
}

func (uc *DeleteDocumentUseCase) Delete(ctx context.Context, id string) error {
	doc, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}

	if strings.TrimSpace(doc.FilePath) != "" {
		if err := uc.storage.Remove(ctx, doc.FilePath); err != nil {
			slog.Warn("blob_remove_failed", "document_id", id, "path", doc.FilePath, "error", err)
		}
	}
	return nil
}
