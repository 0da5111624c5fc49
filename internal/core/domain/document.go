package domain

import (
	"io"
	"time"
)

type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "UPLOADED"
	StatusProcessing DocumentStatus = "PROCESSING"
	StatusProcessed  DocumentStatus = "PROCESSED"
	StatusFailed     DocumentStatus = "FAILED"
)

// MaxLastErrorLen bounds the persisted error message; longer messages are
// truncated with an ellipsis marker before hitting the column.
const MaxLastErrorLen = 1990

// Document is one uploaded file and its processing state. FilePath is set at
// creation and never changes; it is not exposed to clients directly.
type Document struct {
	ID         string         `json:"id"`
	FileName   string         `json:"fileName"`
	FilePath   string         `json:"-"`
	FileType   string         `json:"fileType"`
	DocType    string         `json:"docType,omitempty"`
	Status     DocumentStatus `json:"status"`
	LastError  string         `json:"lastError,omitempty"`
	UploadedAt time.Time      `json:"uploadedAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

// Summary is one analysis pass's derived title and narrative text. Summaries
// accumulate per document; they are never rewritten.
type Summary struct {
	ID          string    `json:"-"`
	DocumentID  string    `json:"-"`
	Title       string    `json:"title"`
	SummaryText string    `json:"summaryText"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ExtractedField is one labeled value derived from analysis. The full set for
// a document is replaced on every processing pass.
type ExtractedField struct {
	ID         string `json:"-"`
	DocumentID string `json:"-"`
	FieldName  string `json:"fieldName"`
	FieldValue string `json:"fieldValue"`
	PageNumber *int   `json:"pageNumber,omitempty"`
}

// DocumentDetail is the read projection returned by the detail endpoint.
type DocumentDetail struct {
	ID           string           `json:"id"`
	FileName     string           `json:"fileName"`
	FilePath     string           `json:"-"`
	FileType     string           `json:"fileType"`
	DocType      string           `json:"docType,omitempty"`
	Status       DocumentStatus   `json:"status"`
	LastError    string           `json:"lastError,omitempty"`
	UploadedAt   time.Time        `json:"uploadedAt"`
	Summaries    []Summary        `json:"summaries"`
	Fields       []ExtractedField `json:"fields"`
	Downloadable bool             `json:"downloadable"`
}

// FileHandle is a resolved stored blob ready to stream. It resolves only when
// the record exists, its path is set, and the blob is present on disk.
type FileHandle struct {
	FileName string
	FileType string
	Content  io.ReadCloser
}

// TruncateErrorMessage caps a processing error message for storage.
func TruncateErrorMessage(msg string) string {
	if len(msg) > MaxLastErrorLen {
		return msg[:MaxLastErrorLen] + "..."
	}
	return msg
}
