package ports

import (
	"context"
	"io"

	"github.com/doclab/doclab/internal/core/domain"
)

// DocumentUploader is the inbound contract for accepting validated uploads.
type DocumentUploader interface {
	Save(ctx context.Context, filename, mimeType, docType string, body io.Reader) (*domain.Document, error)
}

// DocumentProcessor drives a saved document through its processing lifecycle.
// Processing failures end as persisted FAILED state, not as returned errors.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}

// DocumentReader is the inbound read model.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	GetDetail(ctx context.Context, id string) (*domain.DocumentDetail, error)
	ResolveFile(ctx context.Context, id string) (*domain.FileHandle, error)
	List(ctx context.Context, filter domain.ListFilter) (*domain.Page[domain.Document], error)
}

// DocumentAdmin removes documents and their children.
type DocumentAdmin interface {
	Delete(ctx context.Context, id string) error
}
