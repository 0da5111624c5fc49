package domain

// AnalysisResult is the parsed response from the external analyzer service.
type AnalysisResult struct {
	Title    string        `json:"title,omitempty"`
	Summary  string        `json:"summary"`
	Meta     *AnalysisMeta `json:"meta,omitempty"`
	Entities []NamedEntity `json:"entities"`
}

// AnalysisMeta carries the analyzer's detected document type and model info.
type AnalysisMeta struct {
	DocType string `json:"docType,omitempty"`
	Model   string `json:"model,omitempty"`
}

// NamedEntity is one labeled text span reported by the analyzer,
// e.g. {label: "PERSON", text: "Jane Doe"}.
type NamedEntity struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// SummaryDraft and FieldDraft are the mapper's outputs before persistence.
type SummaryDraft struct {
	Title       string
	SummaryText string
}

type FieldDraft struct {
	FieldName  string
	FieldValue string
	PageNumber *int
}

// ListFilter drives the paginated document list. Query may be a document id
// (exact match) or a free-text substring against file name / doc type.
type ListFilter struct {
	Query   string
	Page    int
	Size    int
	SortAsc bool
}

// Page is a generic offset-paginated result.
type Page[T any] struct {
	Items         []T   `json:"items"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	Last          bool  `json:"last"`
}
