package api

import (
	"net/http"
)

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/search", s.HandleSearch)
	mux.HandleFunc("GET /api/contexts", s.HandleListContexts)
	mux.HandleFunc("POST /api/rebuild", s.HandleRebuild)
	mux.HandleFunc("GET /health", s.HandleHealth)
}
