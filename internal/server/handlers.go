package server

import (
	"encoding/json"
	"net/http"
)

const placeholder = `<!DOCTYPE html>
<html><body><p>Waiting for the first annotated snapshot...</p></body></html>`

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	page := s.page
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if page == "" {
		page = placeholder
	}
	w.Write([]byte(page))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.db.GetStats(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"profiles": stats.Profiles,
		"fetched":  stats.Fetched,
		"oldest":   stats.Oldest,
		"newest":   stats.Newest,
	})
}
