package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/openpress/ftsearch/pkg/search"
	"github.com/openpress/ftsearch/pkg/version"
)

func (s *Server) HandleSearch(w http.ResponseWriter, r *http.Request) {
	query, err := search.ParseParams(r.URL.Query(), s.perPage)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid parameters", err.Error())
		return
	}

	result, err := s.searchService.Search(r.Context(), query)
	if err != nil {
		// internal detail is already logged; callers get the opaque message
		s.writeError(w, http.StatusInternalServerError, "Search failed", search.ErrSearchFailed.Error())
		return
	}

	totalPages := 0
	if result.PerPage > 0 {
		totalPages = (result.Total + result.PerPage - 1) / result.PerPage
	}
	s.writeJSON(w, http.StatusOK, SearchResponse{
		Result:     result,
		TotalPages: totalPages,
		HasMore:    result.Page < totalPages,
	})
}

func (s *Server) HandleListContexts(w http.ResponseWriter, r *http.Request) {
	contexts, err := s.reader.Contexts(r.Context())
	if err != nil {
		s.logger.Errorf("listing contexts: %v", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to list contexts", "could not enumerate contexts")
		return
	}

	response := ListContextsResponse{Contexts: []ContextResponse{}}
	for _, c := range contexts {
		response.Contexts = append(response.Contexts, ContextResponse{ID: c.ID, Name: c.Name})
	}
	response.Count = len(response.Contexts)
	s.writeJSON(w, http.StatusOK, response)
}

func (s *Server) HandleRebuild(w http.ResponseWriter, r *http.Request) {
	// an empty body means "rebuild everything"
	var req RebuildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	jobID := s.coordinator.RebuildAsync(req.ContextIDs)
	s.writeJSON(w, http.StatusAccepted, RebuildResponse{
		JobID:      jobID,
		ContextIDs: req.ContextIDs,
	})
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   version.APIVersion(),
	})
}
