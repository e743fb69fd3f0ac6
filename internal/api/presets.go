package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cwstack/keyerd/internal/preset"
	"github.com/cwstack/keyerd/internal/store"
)

// presetSlotJSON is the wire representation of one preset slot.
type presetSlotJSON struct {
	Slot   int               `json:"slot"`
	Fields map[string]string `json:"fields"`
}

// handleListPresets returns every preset slot with its field values
// and the active slot index.
func (s *Server) handleListPresets(w http.ResponseWriter, _ *http.Request) {
	if s.bank == nil {
		writeNotFound(w, "presets not configured")
		return
	}

	slots := make([]presetSlotJSON, 0, s.bank.Count())
	for slot := 0; slot < s.bank.Count(); slot++ {
		fields := make(map[string]string, len(s.bank.Template()))
		for _, p := range s.bank.Template() {
			h, err := s.bank.Field(slot, p.Name)
			if err != nil {
				continue
			}
			fields[p.Name] = formatFieldValue(h)
		}
		slots = append(slots, presetSlotJSON{Slot: slot, Fields: fields})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":  s.bank.Count(),
		"active": s.bank.Active(),
		"slots":  slots,
	})
}

// handleActivatePreset switches the active preset slot.
func (s *Server) handleActivatePreset(w http.ResponseWriter, r *http.Request) {
	if s.bank == nil {
		writeNotFound(w, "presets not configured")
		return
	}

	slot, err := strconv.Atoi(chi.URLParam(r, "slot"))
	if err != nil {
		writeBadRequest(w, "slot must be an integer")
		return
	}

	if err := s.bank.Activate(slot); err != nil {
		if errors.Is(err, preset.ErrBadSlot) {
			writeError(w, http.StatusBadRequest, ErrCodeOutOfRange, err.Error())
			return
		}
		writeInternalError(w, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"active": s.bank.Active(),
	})
}

// formatFieldValue renders a preset field the same way the console
// formats parameters.
func formatFieldValue(h store.Handle) string {
	switch h.Kind() {
	case store.KindBool:
		if h.Bool() {
			return "true"
		}
		return "false"
	case store.KindEnum:
		return h.Enum()
	case store.KindString:
		return h.String()
	case store.KindFloat:
		return strconv.FormatFloat(float64(h.Float()), 'g', -1, 32)
	default:
		return strconv.FormatUint(uint64(h.Word()), 10)
	}
}
