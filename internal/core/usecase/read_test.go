package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/doclab/doclab/internal/core/domain"
)

func TestResolveFileMissingDocument(t *testing.T) {
	repo := &repoFake{getErr: domain.WrapError(domain.ErrDocumentNotFound, "get", errors.New("id=missing"))}
	uc := NewReadDocumentUseCase(repo, &storageFake{exists: true})

	_, err := uc.ResolveFile(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestResolveFileBlankPath(t *testing.T) {
	repo := &repoFake{doc: &domain.Document{ID: "doc-1", FileName: "a.pdf"}}
	uc := NewReadDocumentUseCase(repo, &storageFake{exists: true})

	_, err := uc.ResolveFile(context.Background(), "doc-1")
	if !domain.IsKind(err, domain.ErrFileUnavailable) {
		t.Fatalf("expected file-unavailable, got %v", err)
	}
}

func TestResolveFileBlobGone(t *testing.T) {
	repo := &repoFake{doc: &domain.Document{ID: "doc-1", FileName: "a.pdf", FilePath: "doc-1_a.pdf"}}
	uc := NewReadDocumentUseCase(repo, &storageFake{exists: false})

	_, err := uc.ResolveFile(context.Background(), "doc-1")
	if !domain.IsKind(err, domain.ErrFileUnavailable) {
		t.Fatalf("expected file-unavailable, got %v", err)
	}
}

func TestResolveFileSuccess(t *testing.T) {
	repo := &repoFake{doc: &domain.Document{
		ID: "doc-1", FileName: "a.pdf", FileType: "application/pdf", FilePath: "doc-1_a.pdf",
	}}
	storage := &storageFake{exists: true}
	uc := NewReadDocumentUseCase(repo, storage)

	handle, err := uc.ResolveFile(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("ResolveFile() error = %v", err)
	}
	defer handle.Content.Close()
	if handle.FileName != "a.pdf" || handle.FileType != "application/pdf" {
		t.Fatalf("unexpected handle: %+v", handle)
	}
	if storage.openedKey != "doc-1_a.pdf" {
		t.Fatalf("expected blob open by stored key, got %q", storage.openedKey)
	}
}

func TestGetDetailComputesDownloadable(t *testing.T) {
	repo := &repoFake{detail: &domain.DocumentDetail{ID: "doc-1", FilePath: "doc-1_a.pdf"}}
	uc := NewReadDocumentUseCase(repo, &storageFake{exists: true})

	detail, err := uc.GetDetail(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("GetDetail() error = %v", err)
	}
	if !detail.Downloadable {
		t.Fatalf("expected downloadable detail")
	}

	uc = NewReadDocumentUseCase(repo, &storageFake{exists: false})
	detail, err = uc.GetDetail(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("GetDetail() error = %v", err)
	}
	if detail.Downloadable {
		t.Fatalf("expected not downloadable when blob is gone")
	}
}

func TestListNormalizesPaging(t *testing.T) {
	repo := &repoFake{}
	uc := NewReadDocumentUseCase(repo, &storageFake{})

	if _, err := uc.List(context.Background(), domain.ListFilter{Page: -3, Size: 0, Query: "  q  "}); err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if repo.listFilter.Page != 0 || repo.listFilter.Size != defaultPageSize {
		t.Fatalf("expected normalized paging, got %+v", repo.listFilter)
	}
	if repo.listFilter.Query != "q" {
		t.Fatalf("expected trimmed query, got %q", repo.listFilter.Query)
	}

	if _, err := uc.List(context.Background(), domain.ListFilter{Size: 10_000}); err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if repo.listFilter.Size != maxPageSize {
		t.Fatalf("expected size cap, got %d", repo.listFilter.Size)
	}
}
