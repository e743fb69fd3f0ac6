package api

import (
	"errors"
	"net/http"

	"github.com/cwstack/keyerd/internal/persist"
)

// handleSave writes every parameter to the backing store and reports
// how many keys were written.
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if s.persist == nil {
		writeUnavailable(w, "persistence not configured")
		return
	}

	saved, err := s.persist.SaveAll(r.Context())
	if err != nil {
		if errors.Is(err, persist.ErrStoreUnavailable) {
			writeUnavailable(w, "backing store unavailable")
			return
		}
		writeInternalError(w, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"saved":      saved,
		"generation": s.st.Generation(),
	})
}

// handleLoad reloads every parameter from the backing store. Keys that
// are missing or fail validation are skipped; their in-memory values
// stand.
func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	if s.persist == nil {
		writeUnavailable(w, "persistence not configured")
		return
	}

	loaded, err := s.persist.LoadAll(r.Context())
	if err != nil {
		if errors.Is(err, persist.ErrStoreUnavailable) {
			writeUnavailable(w, "backing store unavailable")
			return
		}
		writeInternalError(w, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"loaded":     loaded,
		"generation": s.st.Generation(),
	})
}
