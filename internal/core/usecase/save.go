package usecase

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/doclab/doclab/internal/core/domain"
	"github.com/doclab/doclab/internal/core/ports"
)

// SaveDocumentUseCase accepts a validated upload: blob first, record second.
// A blob write failure leaves no partial state behind.
type SaveDocumentUseCase struct {
	repo    ports.DocumentRepository
	storage ports.BlobStorage
}

func NewSaveDocumentUseCase(repo ports.DocumentRepository, storage ports.BlobStorage) *SaveDocumentUseCase {
	return &SaveDocumentUseCase{repo: repo, storage: storage}
}

func (uc *SaveDocumentUseCase) Save(
	ctx context.Context,
	filename, mimeType, docType string,
	body io.Reader,
) (*domain.Document, error) {
	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))
	now := time.Now().UTC()

	if err := uc.storage.Save(ctx, storageKey, body); err != nil {
		return nil, fmt.Errorf("save to blob storage: %w", err)
	}

	doc := &domain.Document{
		ID:         id,
		FileName:   filename,
		FilePath:   storageKey,
		FileType:   mimeType,
		DocType:    docType,
		Status:     domain.StatusUploaded,
		UploadedAt: now,
		UpdatedAt:  now,
	}

	if err := uc.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document record: %w", err)
	}

	return doc, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "document.bin"
	}
	return base
}
