package api

import (
	"time"

	"github.com/openpress/ftsearch/pkg/search"
)

type SearchResponse struct {
	search.Result
	TotalPages int  `json:"total_pages"`
	HasMore    bool `json:"has_more"`
}

type ContextResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type ListContextsResponse struct {
	Contexts []ContextResponse `json:"contexts"`
	Count    int               `json:"count"`
}

type RebuildRequest struct {
	ContextIDs []int64 `json:"context_ids"`
}

type RebuildResponse struct {
	JobID      string  `json:"job_id"`
	ContextIDs []int64 `json:"context_ids,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}
