package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/doclab/doclab/internal/core/domain"
)

var allowedMIMETypes = map[string]struct{}{
	"application/pdf": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
	"text/plain": {},
}

type uploadRequest struct {
	FileName string
	DocType  string
}

func (req uploadRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.FileName,
			validation.Required.Error("file name is required"),
			validation.Length(1, 255),
		),
		validation.Field(&req.DocType, validation.Length(0, 64)),
	)
}

type documentResponse struct {
	ID          string    `json:"id"`
	FileName    string    `json:"fileName"`
	FileType    string    `json:"fileType"`
	DocType     string    `json:"docType,omitempty"`
	Status      string    `json:"status"`
	LastError   string    `json:"lastError,omitempty"`
	UploadedAt  time.Time `json:"uploadedAt"`
	DownloadURL string    `json:"downloadUrl"`
}

func toDocumentResponse(doc *domain.Document) documentResponse {
	return documentResponse{
		ID:          doc.ID,
		FileName:    doc.FileName,
		FileType:    doc.FileType,
		DocType:     doc.DocType,
		Status:      string(doc.Status),
		LastError:   doc.LastError,
		UploadedAt:  doc.UploadedAt,
		DownloadURL: fmt.Sprintf("/api/documents/%s/download", doc.ID),
	}
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	// Slack for multipart framing around the payload limit.
	r.Body = http.MaxBytesReader(w, r.Body, rt.cfg.MaxUploadBytes+(64<<10))

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "file exceeds the upload size limit")
			return
		}
		writeError(w, r, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	if fileHeader.Size == 0 {
		writeError(w, r, http.StatusBadRequest, "uploaded file is empty")
		return
	}
	if fileHeader.Size > rt.cfg.MaxUploadBytes {
		writeError(w, r, http.StatusRequestEntityTooLarge, "file exceeds the upload size limit")
		return
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	if parsed, _, err := mime.ParseMediaType(mimeType); err == nil {
		mimeType = parsed
	}
	if _, ok := allowedMIMETypes[mimeType]; !ok {
		writeError(w, r, http.StatusUnsupportedMediaType,
			fmt.Sprintf("unsupported file type %q", mimeType))
		return
	}

	req := uploadRequest{
		FileName: filepath.Base(strings.TrimSpace(fileHeader.Filename)),
		DocType:  strings.TrimSpace(r.FormValue("docType")),
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	doc, err := rt.uploader.Save(r.Context(), req.FileName, mimeType, req.DocType, file)
	if rt.metrics != nil {
		rt.metrics.RecordUpload("api", fileHeader.Size, err)
	}
	if err != nil {
		slog.Error("upload_save_failed", "trace_id", traceIDFromContext(r.Context()), "error", err)
		writeError(w, r, mapErrorToHTTPStatus(err), "failed to store document")
		return
	}

	// Processing failures land in the document as FAILED; only the re-fetch
	// can turn this request into a server error.
	if err := rt.processor.ProcessByID(r.Context(), doc.ID); err != nil {
		slog.Error("upload_process_failed", "trace_id", traceIDFromContext(r.Context()),
			"document_id", doc.ID, "error", err)
	}

	fresh, err := rt.reader.GetByID(r.Context(), doc.ID)
	if err != nil {
		writeError(w, r, mapErrorToHTTPStatus(err), "failed to load document after processing")
		return
	}
	writeJSON(w, http.StatusOK, toDocumentResponse(fresh))
}

func (rt *Router) getDocument(w http.ResponseWriter, r *http.Request, id string) {
	detail, err := rt.reader.GetDetail(r.Context(), id)
	if err != nil {
		writeError(w, r, mapErrorToHTTPStatus(err), "document not found")
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (rt *Router) downloadDocument(w http.ResponseWriter, r *http.Request, id string) {
	handle, err := rt.reader.ResolveFile(r.Context(), id)
	if err != nil {
		slog.Warn("download_unavailable", "trace_id", traceIDFromContext(r.Context()),
			"document_id", id, "error", err)
		writeError(w, r, mapErrorToHTTPStatus(err), "file not available")
		return
	}
	defer handle.Content.Close()

	contentType := handle.FileType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition",
		mime.FormatMediaType("attachment", map[string]string{"filename": handle.FileName}))
	if _, err := io.Copy(w, handle.Content); err != nil {
		slog.Warn("download_interrupted", "document_id", id, "error", err)
	}
}

func (rt *Router) listDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	query := r.URL.Query()
	filter := domain.ListFilter{
		Query:   query.Get("q"),
		Page:    parseIntParam(query.Get("page"), 0),
		Size:    parseIntParam(query.Get("size"), 0),
		SortAsc: strings.EqualFold(query.Get("sort"), "uploadedAt,asc"),
	}

	page, err := rt.reader.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, mapErrorToHTTPStatus(err), "failed to list documents")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (rt *Router) deleteDocument(w http.ResponseWriter, r *http.Request, id string) {
	if err := rt.admin.Delete(r.Context(), id); err != nil {
		writeError(w, r, mapErrorToHTTPStatus(err), "document not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) reprocessDocument(w http.ResponseWriter, r *http.Request, id string) {
	doc, err := rt.reader.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, mapErrorToHTTPStatus(err), "document not found")
		return
	}

	if err := rt.queue.PublishReprocessRequested(r.Context(), doc.ID); err != nil {
		slog.Error("reprocess_publish_failed", "trace_id", traceIDFromContext(r.Context()),
			"document_id", doc.ID, "error", err)
		writeError(w, r, mapErrorToHTTPStatus(err), "failed to schedule reprocessing")
		return
	}
	writeJSON(w, http.StatusAccepted, toDocumentResponse(doc))
}

func parseIntParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error":   message,
		"traceId": traceIDFromContext(r.Context()),
	})
}
