package ports

import (
	"context"
	"io"

	"github.com/doclab/doclab/internal/core/domain"
)

// DocumentRepository persists and reads document state together with the
// summaries and extracted fields owned by each document.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	GetDetail(ctx context.Context, id string) (*domain.DocumentDetail, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, lastError string) error
	// SaveAnalysis appends one summary and replaces the document's field set,
	// updates doc type and terminal status, all in a single transaction.
	SaveAnalysis(ctx context.Context, id string, docType string, summary domain.SummaryDraft, fields []domain.FieldDraft) error
	List(ctx context.Context, filter domain.ListFilter) (*domain.Page[domain.Document], error)
	Delete(ctx context.Context, id string) error
}

// BlobStorage stores raw uploaded bytes under a generated key.
type BlobStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Exists reports whether the key resolves to a regular file.
	Exists(ctx context.Context, key string) bool
	Remove(ctx context.Context, key string) error
}

// Analyzer sends stored document bytes to the external NLP service.
type Analyzer interface {
	Analyze(ctx context.Context, filename string, data io.Reader) (*domain.AnalysisResult, error)
}

// MessageQueue publishes/consumes reprocess requests.
type MessageQueue interface {
	PublishReprocessRequested(ctx context.Context, documentID string) error
	SubscribeReprocessRequested(ctx context.Context, handler func(context.Context, string) error) error
}
