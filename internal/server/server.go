// Package server exposes the latest annotated snapshot and cache statistics
// over HTTP, for previewing watch output in a second browser tab.
package server

import (
	"net/http"
	"sync"

	"github.com/davestewart/bskyinfo/pkg/store"
)

type Server struct {
	db *store.DB

	mu   sync.RWMutex
	page string
}

func New(db *store.DB) *Server {
	return &Server{db: db}
}

// SetPage swaps in the latest annotated snapshot.
func (s *Server) SetPage(html string) {
	s.mu.Lock()
	s.page = html
	s.mu.Unlock()
}

func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", s.handlePage)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	return http.ListenAndServe(addr, mux)
}
