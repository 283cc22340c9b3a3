// Package api exposes the search and administration surface over HTTP for
// deployments running the standalone server.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/openpress/ftsearch/pkg/host"
	"github.com/openpress/ftsearch/pkg/lifecycle"
	"github.com/openpress/ftsearch/pkg/log"
	"github.com/openpress/ftsearch/pkg/search"
)

type Server struct {
	searchService *search.Service
	coordinator   *lifecycle.Coordinator
	reader        host.Reader
	perPage       int
	logger        *log.Logger
}

func NewServer(searchService *search.Service, coordinator *lifecycle.Coordinator, reader host.Reader, perPage int) *Server {
	return &Server{
		searchService: searchService,
		coordinator:   coordinator,
		reader:        reader,
		perPage:       perPage,
		logger:        log.ForService("api"),
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Errorf("encoding JSON response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, error, message string) {
	s.writeJSON(w, status, ErrorResponse{
		Error:   error,
		Message: message,
	})
}
