package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/doclab/doclab/internal/core/domain"
)

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *DocumentRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083001)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	file_name TEXT NOT NULL,
	file_path TEXT NOT NULL,
	file_type TEXT NOT NULL,
	doc_type TEXT,
	status TEXT NOT NULL,
	last_error TEXT,
	uploaded_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS summaries (
	id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	title TEXT NOT NULL,
	summary_text TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS extracted_fields (
	id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	field_name TEXT NOT NULL,
	field_value TEXT NOT NULL,
	page_number INTEGER
);

CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);
CREATE INDEX IF NOT EXISTS idx_documents_uploaded_at ON documents(uploaded_at DESC);
CREATE INDEX IF NOT EXISTS idx_summaries_document ON summaries(document_id, created_at);
CREATE INDEX IF NOT EXISTS idx_fields_document ON extracted_fields(document_id);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO documents (
	id, file_name, file_path, file_type, doc_type, status, last_error, uploaded_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`,
		doc.ID, doc.FileName, doc.FilePath, doc.FileType, nullable(doc.DocType),
		string(doc.Status), nullable(doc.LastError), doc.UploadedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

const documentColumns = `id, file_name, file_path, file_type, doc_type, status, last_error, uploaded_at, updated_at`

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+documentColumns+`
FROM documents
WHERE id = $1
`, id)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	return doc, nil
}

func (r *DocumentRepository) GetDetail(ctx context.Context, id string) (*domain.DocumentDetail, error) {
	doc, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &domain.DocumentDetail{
		ID:         doc.ID,
		FileName:   doc.FileName,
		FilePath:   doc.FilePath,
		FileType:   doc.FileType,
		DocType:    doc.DocType,
		Status:     doc.Status,
		LastError:  doc.LastError,
		UploadedAt: doc.UploadedAt,
		Summaries:  []domain.Summary{},
		Fields:     []domain.ExtractedField{},
	}

	if err := r.loadSummaries(ctx, detail); err != nil {
		return nil, err
	}
	if err := r.loadFields(ctx, detail); err != nil {
		return nil, err
	}
	return detail, nil
}

func (r *DocumentRepository) loadSummaries(ctx context.Context, detail *domain.DocumentDetail) error {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, document_id, title, summary_text, created_at
FROM summaries
WHERE document_id = $1
ORDER BY created_at
`, detail.ID)
	if err != nil {
		return fmt.Errorf("query summaries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s domain.Summary
		if err := rows.Scan(&s.ID, &s.DocumentID, &s.Title, &s.SummaryText, &s.CreatedAt); err != nil {
			return fmt.Errorf("scan summary: %w", err)
		}
		detail.Summaries = append(detail.Summaries, s)
	}
	return rows.Err()
}

func (r *DocumentRepository) loadFields(ctx context.Context, detail *domain.DocumentDetail) error {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, document_id, field_name, field_value, page_number
FROM extracted_fields
WHERE document_id = $1
ORDER BY field_name
`, detail.ID)
	if err != nil {
		return fmt.Errorf("query extracted fields: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var f domain.ExtractedField
		var page sql.NullInt32
		if err := rows.Scan(&f.ID, &f.DocumentID, &f.FieldName, &f.FieldValue, &page); err != nil {
			return fmt.Errorf("scan extracted field: %w", err)
		}
		if page.Valid {
			n := int(page.Int32)
			f.PageNumber = &n
		}
		detail.Fields = append(detail.Fields, f)
	}
	return rows.Err()
}

func (r *DocumentRepository) UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, lastError string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE documents
SET status = $2, last_error = $3, updated_at = $4
WHERE id = $1
`, id, string(status), nullable(lastError), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	return checkTouched(res, id)
}

// SaveAnalysis lands one processing pass atomically: append a summary, replace
// the field set, record the doc type, and finish PROCESSED with lastError cleared.
func (r *DocumentRepository) SaveAnalysis(
	ctx context.Context,
	id string,
	docType string,
	summary domain.SummaryDraft,
	fields []domain.FieldDraft,
) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin analysis tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO summaries (id, document_id, title, summary_text, created_at)
VALUES ($1,$2,$3,$4,$5)
`, uuid.NewString(), id, summary.Title, summary.SummaryText, now); err != nil {
		return fmt.Errorf("insert summary: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM extracted_fields WHERE document_id = $1`, id); err != nil {
		return fmt.Errorf("clear extracted fields: %w", err)
	}

	for _, f := range fields {
		var page sql.NullInt32
		if f.PageNumber != nil {
			page = sql.NullInt32{Int32: int32(*f.PageNumber), Valid: true}
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO extracted_fields (id, document_id, field_name, field_value, page_number)
VALUES ($1,$2,$3,$4,$5)
`, uuid.NewString(), id, f.FieldName, f.FieldValue, page); err != nil {
			return fmt.Errorf("insert extracted field: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx, `
UPDATE documents
SET doc_type = $2, status = $3, last_error = NULL, updated_at = $4
WHERE id = $1
`, id, nullable(docType), string(domain.StatusProcessed), now)
	if err != nil {
		return fmt.Errorf("finalize document: %w", err)
	}
	if err := checkTouched(res, id); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit analysis tx: %w", err)
	}
	return nil
}

// List returns one page. A query that parses as a UUID short-circuits to an
// exact id lookup; anything else is a case-insensitive substring match on
// file name or doc type.
func (r *DocumentRepository) List(ctx context.Context, filter domain.ListFilter) (*domain.Page[domain.Document], error) {
	if filter.Query != "" {
		if _, err := uuid.Parse(filter.Query); err == nil {
			return r.listByID(ctx, filter)
		}
	}

	where := ""
	args := []any{}
	if filter.Query != "" {
		where = `WHERE file_name ILIKE $1 OR doc_type ILIKE $1`
		args = append(args, "%"+filter.Query+"%")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents `+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}

	order := "DESC"
	if filter.SortAsc {
		order = "ASC"
	}
	query := fmt.Sprintf(`
SELECT %s
FROM documents
%s
ORDER BY uploaded_at %s
LIMIT $%d OFFSET $%d
`, documentColumns, where, order, len(args)+1, len(args)+2)
	args = append(args, filter.Size, filter.Page*filter.Size)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	items := []domain.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document row: %w", err)
		}
		items = append(items, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate document rows: %w", err)
	}

	return newPage(items, filter, total), nil
}

func (r *DocumentRepository) listByID(ctx context.Context, filter domain.ListFilter) (*domain.Page[domain.Document], error) {
	doc, err := r.GetByID(ctx, filter.Query)
	if err != nil {
		if domain.IsKind(err, domain.ErrDocumentNotFound) {
			return newPage([]domain.Document{}, filter, 0), nil
		}
		return nil, err
	}
	return newPage([]domain.Document{*doc}, filter, 1), nil
}

func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return checkTouched(res, id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	var docType, lastError sql.NullString
	var status string

	err := row.Scan(
		&doc.ID, &doc.FileName, &doc.FilePath, &doc.FileType, &docType,
		&status, &lastError, &doc.UploadedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	doc.DocType = docType.String
	doc.LastError = lastError.String
	doc.Status = domain.DocumentStatus(status)
	return &doc, nil
}

func newPage(items []domain.Document, filter domain.ListFilter, total int64) *domain.Page[domain.Document] {
	totalPages := 0
	if filter.Size > 0 {
		totalPages = int((total + int64(filter.Size) - 1) / int64(filter.Size))
	}
	return &domain.Page[domain.Document]{
		Items:         items,
		Page:          filter.Page,
		Size:          filter.Size,
		TotalElements: total,
		TotalPages:    totalPages,
		Last:          filter.Page >= totalPages-1,
	}
}

func nullable(s string) sql.NullString {
	if strings.TrimSpace(s) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func checkTouched(res sql.Result, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrDocumentNotFound, "update document", fmt.Errorf("id=%s", id))
	}
	return nil
}
