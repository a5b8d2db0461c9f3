package web

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/joestump/variantdocs/internal/config"
	"github.com/joestump/variantdocs/internal/releases"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("writeJSON: encode error: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// handleAPIHealth returns a simple health check response.
func (s *Server) handleAPIHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIHealth{Status: "ok", Version: config.Version, Releases: s.col.Len()})
}

// handleAPIListReleases returns the aggregated releases grouped by date,
// newest first, optionally restricted to one assembly.
func (s *Server) handleAPIListReleases(w http.ResponseWriter, r *http.Request) {
	var only releases.Assembly
	if v := r.URL.Query().Get("assembly"); v != "" {
		a, err := releases.ParseAssembly(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		only = a
	}

	// A throwaway board assigns the same node ids the pages use.
	board := releases.NewBoard(s.col, nil)
	writeJSON(w, http.StatusOK, toAPIReleases(board.Panels(), only))
}
