package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ANALYZER_URL", "")
	t.Setenv("ANALYZER_TIMEOUT", "")
	t.Setenv("MAX_UPLOAD_BYTES", "")
	t.Setenv("CORS_ORIGINS", "")
	t.Setenv("NATS_SUBJECT", "")

	cfg := Load()
	if cfg.AnalyzerURL != "http://localhost:8000" {
		t.Fatalf("expected default analyzer url, got %q", cfg.AnalyzerURL)
	}
	if cfg.AnalyzerTimeout != 8*time.Second {
		t.Fatalf("expected 8s analyzer timeout, got %v", cfg.AnalyzerTimeout)
	}
	if cfg.MaxUploadBytes != 10<<20 {
		t.Fatalf("expected 10MB upload limit, got %d", cfg.MaxUploadBytes)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Fatalf("expected wildcard cors origin, got %v", cfg.CORSOrigins)
	}
	if cfg.NATSSubject != "documents.reprocess" {
		t.Fatalf("expected reprocess subject, got %q", cfg.NATSSubject)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("ANALYZER_TIMEOUT", "15s")
	t.Setenv("MAX_UPLOAD_BYTES", "1048576")
	t.Setenv("CORS_ORIGINS", "https://app.example.com, https://admin.example.com")

	cfg := Load()
	if cfg.AnalyzerTimeout != 15*time.Second {
		t.Fatalf("expected 15s timeout, got %v", cfg.AnalyzerTimeout)
	}
	if cfg.MaxUploadBytes != 1<<20 {
		t.Fatalf("expected 1MB limit, got %d", cfg.MaxUploadBytes)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://admin.example.com" {
		t.Fatalf("unexpected origins %v", cfg.CORSOrigins)
	}
}

func TestLoadRejectsMalformedNumbers(t *testing.T) {
	t.Setenv("MAX_UPLOAD_BYTES", "ten")
	t.Setenv("ANALYZER_TIMEOUT", "-3s")

	cfg := Load()
	if cfg.MaxUploadBytes != 10<<20 {
		t.Fatalf("expected fallback upload limit, got %d", cfg.MaxUploadBytes)
	}
	if cfg.AnalyzerTimeout != 8*time.Second {
		t.Fatalf("expected fallback timeout, got %v", cfg.AnalyzerTimeout)
	}
}
