package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/doclab/doclab/internal/core/domain"
	"github.com/doclab/doclab/internal/infrastructure/resilience"
)

const DefaultTimeout = 8 * time.Second

// Client talks to the NLP analyzer service. Analysis is a single multipart
// upload of the original document bytes to /process.
type Client struct {
	baseURL    string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL string, timeout time.Duration, executor *resilience.Executor) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		executor:   executor,
	}
}

type processResponse struct {
	Title    string       `json:"title"`
	Summary  string       `json:"summary"`
	Meta     *processMeta `json:"meta"`
	Entities []wireEntity `json:"entities"`
}

type processMeta struct {
	DocType string `json:"docType"`
	Type    string `json:"type"`
	Model   string `json:"model"`
}

type wireEntity struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

func (c *Client) Analyze(ctx context.Context, filename string, data io.Reader) (*domain.AnalysisResult, error) {
	// The body is replayed on retry, so buffer it up front.
	payload, err := io.ReadAll(data)
	if err != nil {
		return nil, fmt.Errorf("read document for analysis: %w", err)
	}

	var response processResponse
	call := func(ctx context.Context) error {
		return c.process(ctx, filename, payload, &response)
	}

	if c.executor != nil {
		err = c.executor.Execute(ctx, "analyzer_process", call, classifyAnalyzerError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, wrapTemporaryIfNeeded("analyze document", err)
	}

	return toDomain(response), nil
}

func (c *Client) process(ctx context.Context, filename string, payload []byte, out *processResponse) error {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("create multipart part: %w", err)
	}
	if _, err := part.Write(payload); err != nil {
		return fmt.Errorf("write multipart part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/process", &body)
	if err != nil {
		return fmt.Errorf("create process request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("analyzer process request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &HTTPStatusError{
			Operation:  "process",
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(excerpt),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode process response: %w", err)
	}
	return nil
}

func toDomain(response processResponse) *domain.AnalysisResult {
	result := &domain.AnalysisResult{
		Title:   response.Title,
		Summary: response.Summary,
	}
	if response.Meta != nil {
		docType := response.Meta.DocType
		if docType == "" {
			docType = response.Meta.Type
		}
		result.Meta = &domain.AnalysisMeta{
			DocType: docType,
			Model:   response.Meta.Model,
		}
	}
	for _, e := range response.Entities {
		result.Entities = append(result.Entities, domain.NamedEntity{Label: e.Label, Text: e.Text})
	}
	return result
}
