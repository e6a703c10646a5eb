package api

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"repoviz/internal/version"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Uptime    string    `json:"uptime"`
}

// ReadyResponse represents the readiness check response
type ReadyResponse struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components map[string]bool   `json:"components"`
	Details    map[string]string `json:"details,omitempty"`
	Memory     *MemoryInfo       `json:"memory,omitempty"`
}

// MemoryInfo contains memory usage information
type MemoryInfo struct {
	AllocMB      float64 `json:"allocMb"`
	SysMB        float64 `json:"sysMb"`
	NumGC        uint32  `json:"numGc"`
	NumGoroutine int     `json:"numGoroutine"`
}

// handleHealth responds to health check requests (simple liveness check)
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   version.Version,
		Uptime:    time.Since(s.started).Round(time.Second).String(),
	}, http.StatusOK)
}

// handleReady reports whether the store answers and which optional
// components are configured. Only the store is required.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	components := map[string]bool{
		"store":   false,
		"archive": s.opts.Archives != nil,
		"git":     s.opts.Git != nil,
		"llm":     s.opts.Assistant.Available(),
	}
	details := map[string]string{}

	if s.opts.Store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if _, err := s.opts.Store.List(ctx, 1); err != nil {
			details["store"] = err.Error()
		} else {
			components["store"] = true
		}
	} else {
		details["store"] = "not configured"
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	resp := ReadyResponse{
		Status:     "ready",
		Timestamp:  time.Now().UTC(),
		Components: components,
		Memory: &MemoryInfo{
			AllocMB:      float64(m.Alloc) / (1 << 20),
			SysMB:        float64(m.Sys) / (1 << 20),
			NumGC:        m.NumGC,
			NumGoroutine: runtime.NumGoroutine(),
		},
	}
	if len(details) > 0 {
		resp.Details = details
	}

	status := http.StatusOK
	if !components["store"] {
		resp.Status = "not_ready"
		status = http.StatusServiceUnavailable
	}
	WriteJSON(w, resp, status)
}
