package usecase

import (
	"context"
	"io"
	"strings"

	"github.com/doclab/doclab/internal/core/domain"
)

type statusCall struct {
	status    domain.DocumentStatus
	lastError string
}

type analysisCall struct {
	docType string
	summary domain.SummaryDraft
	fields  []domain.FieldDraft
}

type repoFake struct {
	doc    *domain.Document
	detail *domain.DocumentDetail
	page   *domain.Page[domain.Document]

	getErr      error
	statusErr   error
	analysisErr error
	deleteErr   error

	statusCalls  []statusCall
	analysisCall *analysisCall
	createdDoc   *domain.Document
	deletedID    string
	listFilter   domain.ListFilter
}

func (f *repoFake) Create(_ context.Context, doc *domain.Document) error {
	copyDoc := *doc
	f.createdDoc = &copyDoc
	return nil
}

func (f *repoFake) GetByID(context.Context, string) (*domain.Document, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	copyDoc := *f.doc
	return &copyDoc, nil
}

func (f *repoFake) GetDetail(context.Context, string) (*domain.DocumentDetail, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	copyDetail := *f.detail
	return &copyDetail, nil
}

func (f *repoFake) UpdateStatus(_ context.Context, _ string, status domain.DocumentStatus, lastError string) error {
	f.statusCalls = append(f.statusCalls, statusCall{status: status, lastError: lastError})
	return f.statusErr
}

func (f *repoFake) SaveAnalysis(_ context.Context, _ string, docType string, summary domain.SummaryDraft, fields []domain.FieldDraft) error {
	if f.analysisErr != nil {
		return f.analysisErr
	}
	f.analysisCall = &analysisCall{docType: docType, summary: summary, fields: fields}
	return nil
}

func (f *repoFake) List(_ context.Context, filter domain.ListFilter) (*domain.Page[domain.Document], error) {
	f.listFilter = filter
	if f.page != nil {
		return f.page, nil
	}
	return &domain.Page[domain.Document]{Items: []domain.Document{}}, nil
}

func (f *repoFake) Delete(_ context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletedID = id
	return nil
}

type storageFake struct {
	saveErr error
	openErr error
	exists  bool

	savedKey   string
	savedBody  string
	openedKey  string
	removedKey string
	removeErr  error
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.savedKey = key
	f.savedBody = string(raw)
	return nil
}

func (f *storageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	f.openedKey = key
	return io.NopCloser(strings.NewReader("file-bytes")), nil
}

func (f *storageFake) Exists(context.Context, string) bool { return f.exists }

func (f *storageFake) Remove(_ context.Context, key string) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	f.removedKey = key
	return nil
}

type analyzerFake struct {
	result   *domain.AnalysisResult
	err      error
	called   bool
	filename string
}

func (f *analyzerFake) Analyze(_ context.Context, filename string, _ io.Reader) (*domain.AnalysisResult, error) {
	f.called = true
	f.filename = filename
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}
