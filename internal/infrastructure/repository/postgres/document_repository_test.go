package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/doclab/doclab/internal/core/domain"
)

func newRepoWithMock(t *testing.T) (*DocumentRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewDocumentRepository(db), mock
}

func documentRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "file_name", "file_path", "file_type", "doc_type",
		"status", "last_error", "uploaded_at", "updated_at",
	})
}

func TestGetByIDMapsNullColumns(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery("FROM documents").
		WithArgs("d-1").
		WillReturnRows(documentRows().
			AddRow("d-1", "loan.pdf", "d-1_loan.pdf", "application/pdf", nil,
				string(domain.StatusUploaded), nil, time.Now(), time.Now()))

	doc, err := repo.GetByID(context.Background(), "d-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if doc.DocType != "" || doc.LastError != "" {
		t.Fatalf("expected empty doc_type/last_error, got %q / %q", doc.DocType, doc.LastError)
	}
	if doc.Status != domain.StatusUploaded {
		t.Fatalf("status = %q", doc.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery("FROM documents").
		WithArgs("missing").
		WillReturnRows(documentRows())

	_, err := repo.GetByID(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected not-found kind, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetDetailLoadsChildren(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery("FROM documents").
		WithArgs("d-1").
		WillReturnRows(documentRows().
			AddRow("d-1", "loan.pdf", "d-1_loan.pdf", "application/pdf", "LOAN_AGREEMENT",
				string(domain.StatusProcessed), nil, time.Now(), time.Now()))

	mock.ExpectQuery("FROM summaries").
		WithArgs("d-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "document_id", "title", "summary_text", "created_at"}).
			AddRow("s-1", "d-1", "loan", "first pass", time.Now()).
			AddRow("s-2", "d-1", "loan", "second pass", time.Now()))

	mock.ExpectQuery("FROM extracted_fields").
		WithArgs("d-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "document_id", "field_name", "field_value", "page_number"}).
			AddRow("f-1", "d-1", "PRINCIPAL_AMOUNT", "$10,000.00", nil))

	detail, err := repo.GetDetail(context.Background(), "d-1")
	if err != nil {
		t.Fatalf("GetDetail() error = %v", err)
	}
	if len(detail.Summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(detail.Summaries))
	}
	if len(detail.Fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(detail.Fields))
	}
	if detail.Fields[0].PageNumber != nil {
		t.Fatalf("expected nil page number")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateStatusNotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec("UPDATE documents").
		WithArgs("missing", string(domain.StatusFailed), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "missing", domain.StatusFailed, "boom")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected not-found kind, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveAnalysisAppendsSummaryAndReplacesFields(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	page := 2
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO summaries").
		WithArgs(sqlmock.AnyArg(), "d-1", "loan", "a summary", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("DELETE FROM extracted_fields").
		WithArgs("d-1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO extracted_fields").
		WithArgs(sqlmock.AnyArg(), "d-1", "PRINCIPAL_AMOUNT", "$10,000.00", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE documents").
		WithArgs("d-1", "LOAN_AGREEMENT", string(domain.StatusProcessed), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.SaveAnalysis(context.Background(), "d-1", "LOAN_AGREEMENT",
		domain.SummaryDraft{Title: "loan", SummaryText: "a summary"},
		[]domain.FieldDraft{{FieldName: "PRINCIPAL_AMOUNT", FieldValue: "$10,000.00", PageNumber: &page}},
	)
	if err != nil {
		t.Fatalf("SaveAnalysis() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveAnalysisRollsBackWhenDocumentMissing(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO summaries").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("DELETE FROM extracted_fields").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("UPDATE documents").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.SaveAnalysis(context.Background(), "missing", "",
		domain.SummaryDraft{Title: "x", SummaryText: ""}, nil)
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected not-found kind, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListSubstringSearch(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("%loan%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery("FROM documents").
		WithArgs("%loan%", 2, 2).
		WillReturnRows(documentRows().
			AddRow("d-3", "loan3.pdf", "p", "application/pdf", nil,
				string(domain.StatusUploaded), nil, time.Now(), time.Now()))

	page, err := repo.List(context.Background(), domain.ListFilter{Query: "loan", Page: 1, Size: 2})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if page.TotalElements != 3 || page.TotalPages != 2 {
		t.Fatalf("totals = %d/%d", page.TotalElements, page.TotalPages)
	}
	if !page.Last {
		t.Fatalf("expected last page")
	}
	if len(page.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(page.Items))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListUUIDQueryExactMatch(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	id := "0b6f3f68-4c8d-4a7c-9a64-54c2f7a1d111"
	mock.ExpectQuery("FROM documents").
		WithArgs(id).
		WillReturnRows(documentRows().
			AddRow(id, "loan.pdf", "p", "application/pdf", nil,
				string(domain.StatusUploaded), nil, time.Now(), time.Now()))

	page, err := repo.List(context.Background(), domain.ListFilter{Query: id, Page: 0, Size: 20})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].ID != id {
		t.Fatalf("expected exact match page, got %+v", page.Items)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListUUIDQueryMissingReturnsEmptyPage(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	id := "0b6f3f68-4c8d-4a7c-9a64-54c2f7a1d222"
	mock.ExpectQuery("FROM documents").
		WithArgs(id).
		WillReturnRows(documentRows())

	page, err := repo.List(context.Background(), domain.ListFilter{Query: id, Page: 0, Size: 20})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(page.Items) != 0 || page.TotalElements != 0 {
		t.Fatalf("expected empty page, got %+v", page)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDeleteNotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec("DELETE FROM documents").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected not-found kind, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
