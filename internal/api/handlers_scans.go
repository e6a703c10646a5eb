package api

import (
	"net/http"
	"strings"

	"repoviz/internal/codebase"
	"repoviz/internal/depgraph"
	"repoviz/internal/errors"
	"repoviz/internal/scan"
	"repoviz/internal/source"
)

// ScanURLRequest is the body of POST /api/scans/url.
type ScanURLRequest struct {
	URL string `json:"url"`
}

// ScanListResponse is the response for GET /api/scans.
type ScanListResponse struct {
	Scans []scan.Header `json:"scans"`
	Count int           `json:"count"`
}

// GraphResponse is the payload the graph view draws.
type GraphResponse struct {
	ScanID   string             `json:"scanId"`
	Nodes    []*depgraph.Node   `json:"nodes"`
	Edges    []*depgraph.Edge   `json:"edges"`
	Analysis *depgraph.Analysis `json:"analysis,omitempty"`
}

// FilesResponse is the response for GET /api/scans/{id}/files.
type FilesResponse struct {
	ScanID string                 `json:"scanId"`
	Files  []*codebase.SourceFile `json:"files"`
	Count  int                    `json:"count"`
}

// FileResponse is one file with its content and graph neighbours.
type FileResponse struct {
	*codebase.SourceFile
	Content    string   `json:"content"`
	Imports    []string `json:"imports"`
	ImportedBy []string `json:"importedBy"`
}

// handleScanURL clones a git URL and scans it.
func (s *Server) handleScanURL(w http.ResponseWriter, r *http.Request) {
	if s.opts.Git == nil {
		WriteError(w, errors.New(errors.CloneFailed, "cloning is not enabled on this server", nil))
		return
	}

	var req ScanURLRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}
	req.URL = strings.TrimSpace(req.URL)
	if err := s.opts.Git.ValidateURL(req.URL); err != nil {
		WriteError(w, err)
		return
	}

	inputs, snap, err := s.opts.Git.Load(r.Context(), req.URL)
	if err != nil {
		WriteError(w, err)
		return
	}
	s.runScan(w, r, inputs, snap)
}

// runScan runs the pipeline over loaded inputs, stores the result and
// writes it with 201.
func (s *Server) runScan(w http.ResponseWriter, r *http.Request, inputs []codebase.FileInput, snap source.Snapshot) {
	result, err := s.opts.Pipeline.Run(r.Context(), inputs, scan.Options{
		Source:  snap.Origin,
		Commit:  snap.Commit,
		Skipped: snap.Skipped,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	if s.opts.Store != nil {
		if err := s.opts.Store.Save(r.Context(), result); err != nil {
			s.logger.Error("Failed to store scan", "scan", result.ID, "error", err)
			WriteError(w, err)
			return
		}
	}

	w.Header().Set("Location", "/api/scans/"+result.ID)
	WriteJSON(w, result, http.StatusCreated)
}

// handleListScans lists stored scans, newest first.
func (s *Server) handleListScans(w http.ResponseWriter, r *http.Request) {
	if s.opts.Store == nil {
		WriteJSON(w, ScanListResponse{Scans: []scan.Header{}}, http.StatusOK)
		return
	}
	limit := QueryParamInt(r, "limit", 50)
	headers, err := s.opts.Store.List(r.Context(), limit)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, ScanListResponse{Scans: headers, Count: len(headers)}, http.StatusOK)
}

// handleGetScan returns the full scan result.
func (s *Server) handleGetScan(w http.ResponseWriter, r *http.Request) {
	result, err := s.lookup(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, result, http.StatusOK)
}

// handleDeleteScan removes a stored scan.
func (s *Server) handleDeleteScan(w http.ResponseWriter, r *http.Request) {
	id, err := scanID(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	if s.opts.Store == nil {
		WriteError(w, errors.Newf(errors.ScanNotFound, "scan %s not found", id))
		return
	}
	if err := s.opts.Store.Delete(r.Context(), id); err != nil {
		WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGraph returns the dependency graph of a scan.
func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	result, err := s.lookup(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	resp := GraphResponse{
		ScanID:   result.ID,
		Nodes:    []*depgraph.Node{},
		Edges:    []*depgraph.Edge{},
		Analysis: result.Analysis,
	}
	if result.Graph != nil {
		resp.Nodes = result.Graph.Nodes
		resp.Edges = result.Graph.Edges
	}
	WriteJSON(w, resp, http.StatusOK)
}

// handleFiles lists file records, or returns one file with its content
// when ?path= is given.
func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	result, err := s.lookup(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	if p := r.URL.Query().Get("path"); p != "" {
		f, ok := result.File(p)
		if !ok {
			WriteError(w, errors.Newf(errors.InvalidInput, "file %s is not part of scan %s", p, result.ID))
			return
		}
		resp := FileResponse{SourceFile: f, Content: f.Content, Imports: []string{}, ImportedBy: []string{}}
		if result.Graph != nil {
			resp.Imports = append(resp.Imports, result.Graph.Imports(f.Path)...)
			resp.ImportedBy = append(resp.ImportedBy, result.Graph.ImportedBy(f.Path)...)
		}
		WriteJSON(w, resp, http.StatusOK)
		return
	}

	files := result.Files
	if lang := r.URL.Query().Get("language"); lang != "" {
		files = make([]*codebase.SourceFile, 0, len(result.Files))
		for _, f := range result.Files {
			if strings.EqualFold(f.Language(), lang) || strings.EqualFold(f.Extension, lang) {
				files = append(files, f)
			}
		}
	}
	WriteJSON(w, FilesResponse{ScanID: result.ID, Files: files, Count: len(files)}, http.StatusOK)
}

func (s *Server) lookup(r *http.Request) (*scan.Result, error) {
	id, err := scanID(r)
	if err != nil {
		return nil, err
	}
	if s.opts.Store == nil {
		return nil, errors.Newf(errors.ScanNotFound, "scan %s not found", id)
	}
	return s.opts.Store.Get(r.Context(), id)
}
