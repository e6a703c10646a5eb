package api

import (
	"net/http"
)

// AskRequest is the body of POST /api/scans/{id}/ask.
type AskRequest struct {
	Question string `json:"question"`
}

// handleAsk answers a question about a stored scan.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	result, err := s.lookup(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	var req AskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	answer, err := s.opts.Assistant.Ask(r.Context(), result, req.Question)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, answer, http.StatusOK)
}

// handleDocs generates documentation for a stored scan.
func (s *Server) handleDocs(w http.ResponseWriter, r *http.Request) {
	result, err := s.lookup(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	answer, err := s.opts.Assistant.Document(r.Context(), result)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, answer, http.StatusOK)
}
