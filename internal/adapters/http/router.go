package httpadapter

import (
	"net/http"
	"strings"

	"github.com/rs/cors"

	"github.com/doclab/doclab/internal/core/ports"
	"github.com/doclab/doclab/internal/observability/metrics"
)

type Config struct {
	MaxUploadBytes int64
	AllowedOrigins []string
}

type Router struct {
	uploader  ports.DocumentUploader
	processor ports.DocumentProcessor
	reader    ports.DocumentReader
	admin     ports.DocumentAdmin
	queue     ports.MessageQueue
	metrics   *metrics.HTTPServerMetrics
	cfg       Config
}

func NewRouter(
	uploader ports.DocumentUploader,
	processor ports.DocumentProcessor,
	reader ports.DocumentReader,
	admin ports.DocumentAdmin,
	queue ports.MessageQueue,
	serverMetrics *metrics.HTTPServerMetrics,
	cfg Config,
) *Router {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10 << 20
	}
	return &Router{
		uploader:  uploader,
		processor: processor,
		reader:    reader,
		admin:     admin,
		queue:     queue,
		metrics:   serverMetrics,
		cfg:       cfg,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}
	mux.HandleFunc("/api/documents", rt.listDocuments)
	mux.HandleFunc("/api/documents/upload", rt.uploadDocument)
	mux.HandleFunc("/api/documents/", rt.documentSubtree)

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware("api", handler)
	}
	handler = accessLogMiddleware(handler)
	handler = traceIDMiddleware(handler)
	handler = cors.New(cors.Options{
		AllowedOrigins: rt.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type", traceIDHeader},
		ExposedHeaders: []string{traceIDHeader, "Content-Disposition"},
	}).Handler(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// documentSubtree dispatches /api/documents/{id}[...] by hand; the upload
// route is registered as an exact pattern and never lands here.
func (rt *Router) documentSubtree(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/documents/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		writeError(w, r, http.StatusBadRequest, "document id is required")
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		rt.getDocument(w, r, id)
	case action == "" && r.Method == http.MethodDelete:
		rt.deleteDocument(w, r, id)
	case action == "download" && r.Method == http.MethodGet:
		rt.downloadDocument(w, r, id)
	case action == "reprocess" && r.Method == http.MethodPost:
		rt.reprocessDocument(w, r, id)
	case action == "" || action == "download" || action == "reprocess":
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	default:
		writeError(w, r, http.StatusNotFound, "not found")
	}
}
