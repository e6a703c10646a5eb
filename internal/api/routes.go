package api

import (
	"net/http"

	"repoviz/internal/version"
)

// registerRoutes registers all API routes
func (s *Server) registerRoutes() {
	// Health and readiness checks
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)

	// Scans
	s.router.HandleFunc("POST /api/scans", s.handleUpload)
	s.router.HandleFunc("POST /api/scans/url", s.handleScanURL)
	s.router.HandleFunc("GET /api/scans", s.handleListScans)
	s.router.HandleFunc("GET /api/scans/{id}", s.handleGetScan)
	s.router.HandleFunc("DELETE /api/scans/{id}", s.handleDeleteScan)
	s.router.HandleFunc("GET /api/scans/{id}/graph", s.handleGraph)
	s.router.HandleFunc("GET /api/scans/{id}/files", s.handleFiles)

	// Model
	s.router.HandleFunc("POST /api/scans/{id}/ask", s.handleAsk)
	s.router.HandleFunc("POST /api/scans/{id}/docs", s.handleDocs)

	s.router.HandleFunc("GET /{$}", s.handleRoot)
}

// handleRoot lists the endpoints.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, map[string]interface{}{
		"name":    "repoviz HTTP API",
		"version": version.Version,
		"endpoints": []string{
			"GET /health - Health check",
			"GET /ready - Readiness check",
			"POST /api/scans - Scan an uploaded .zip or .tar.gz (multipart field \"archive\" or raw body)",
			"POST /api/scans/url - Clone and scan a git URL",
			"GET /api/scans?limit=n - List stored scans",
			"GET /api/scans/:id - Full scan result",
			"DELETE /api/scans/:id - Delete a scan",
			"GET /api/scans/:id/graph - Dependency graph nodes, edges and analysis",
			"GET /api/scans/:id/files?path=p - File records, or one file with content",
			"POST /api/scans/:id/ask - Ask a question about a scan",
			"POST /api/scans/:id/docs - Generate documentation for a scan",
		},
	}, http.StatusOK)
}
