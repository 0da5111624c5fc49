package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/doclab/doclab/internal/core/domain"
	"github.com/doclab/doclab/internal/core/ports"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ReadDocumentUseCase is the query side: detail, download resolution, listing.
type ReadDocumentUseCase struct {
	repo    ports.DocumentRepository
	storage ports.BlobStorage
}

func NewReadDocumentUseCase(repo ports.DocumentRepository, storage ports.BlobStorage) *ReadDocumentUseCase {
	return &ReadDocumentUseCase{repo: repo, storage: storage}
}

func (uc *ReadDocumentUseCase) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	return uc.repo.GetByID(ctx, id)
}

func (uc *ReadDocumentUseCase) GetDetail(ctx context.Context, id string) (*domain.DocumentDetail, error) {
	detail, err := uc.repo.GetDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	detail.Downloadable = strings.TrimSpace(detail.FilePath) != "" && uc.storage.Exists(ctx, detail.FilePath)
	return detail, nil
}

// ResolveFile returns a streamable handle only when the record exists, has a
// stored path, and the blob is still a regular file. The three miss cases map
// to distinct error kinds so logs can tell them apart; clients see 404 either way.
func (uc *ReadDocumentUseCase) ResolveFile(ctx context.Context, id string) (*domain.FileHandle, error) {
	doc, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(doc.FilePath) == "" {
		return nil, domain.WrapError(domain.ErrFileUnavailable, "resolve file", errors.New("document has no stored path"))
	}
	if !uc.storage.Exists(ctx, doc.FilePath) {
		return nil, domain.WrapError(domain.ErrFileUnavailable, "resolve file", errors.New("stored blob is missing"))
	}

	blob, err := uc.storage.Open(ctx, doc.FilePath)
	if err != nil {
		return nil, domain.WrapError(domain.ErrFileUnavailable, "resolve file", err)
	}

	return &domain.FileHandle{
		FileName: doc.FileName,
		FileType: doc.FileType,
		Content:  blob,
	}, nil
}

func (uc *ReadDocumentUseCase) List(ctx context.Context, filter domain.ListFilter) (*domain.Page[domain.Document], error) {
	if filter.Page < 0 {
		filter.Page = 0
	}
	if filter.Size <= 0 {
		filter.Size = defaultPageSize
	}
	if filter.Size > maxPageSize {
		filter.Size = maxPageSize
	}
	filter.Query = strings.TrimSpace(filter.Query)

	page, err := uc.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return page, nil
}
