package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/cwstack/keyerd/internal/console"
	"github.com/cwstack/keyerd/internal/store"
)

// paramJSON is the wire representation of one parameter.
type paramJSON struct {
	Path   string   `json:"path"`
	Name   string   `json:"name"`
	Bare   string   `json:"bare"`
	Family string   `json:"family"`
	Kind   string   `json:"kind"`
	Value  string   `json:"value"`
	Min    uint32   `json:"min"`
	Max    uint32   `json:"max"`
	Enum   []string `json:"enum,omitempty"`
}

func descriptorJSON(d *console.Descriptor) paramJSON {
	return paramJSON{
		Path:   d.FullPath,
		Name:   d.Name,
		Bare:   d.Bare,
		Family: d.Family,
		Kind:   d.Kind.String(),
		Value:  d.Format(d.Get()),
		Min:    d.Min,
		Max:    d.Max,
		Enum:   d.Enum,
	}
}

// handleListParams returns every parameter with its current value, in
// declaration order.
func (s *Server) handleListParams(w http.ResponseWriter, _ *http.Request) {
	params := s.registry.Params()
	out := make([]paramJSON, 0, len(params))
	for i := range params {
		out = append(out, descriptorJSON(&params[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"params":     out,
		"generation": s.st.Generation(),
	})
}

// handleGetParam returns a single parameter by full path, bare name,
// or external identifier.
func (s *Server) handleGetParam(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	d, err := s.registry.Find(name)
	if err != nil {
		writeNotFound(w, "unknown parameter: "+name)
		return
	}

	writeJSON(w, http.StatusOK, descriptorJSON(d))
}

// setParamRequest is the body of PUT /params/{name}.
type setParamRequest struct {
	Value string `json:"value"`
}

// handleSetParam applies a validated write to a single parameter and
// returns its new state.
func (s *Server) handleSetParam(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req setParamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.registry.Set(name, req.Value); err != nil {
		writeConsoleError(w, name, err)
		return
	}

	d, err := s.registry.Find(name)
	if err != nil {
		writeInternalError(w, "parameter vanished after write")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"param":      descriptorJSON(d),
		"generation": s.st.Generation(),
	})
}

// handleMeta returns the JSON parameter description document.
func (s *Server) handleMeta(w http.ResponseWriter, _ *http.Request) {
	if s.metaTab == nil {
		writeNotFound(w, "metadata not available")
		return
	}

	doc, err := s.metaTab.Export()
	if err != nil {
		writeInternalError(w, "metadata export failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // Best-effort write to response
	w.Write(doc)
}

// writeConsoleError maps a registry write failure to an HTTP response.
func writeConsoleError(w http.ResponseWriter, name string, err error) {
	switch {
	case errors.Is(err, console.ErrUnknownParameter):
		writeNotFound(w, "unknown parameter: "+name)
	case errors.Is(err, console.ErrOutOfRange):
		writeError(w, http.StatusBadRequest, ErrCodeOutOfRange, err.Error())
	case errors.Is(err, console.ErrInvalidValue), errors.Is(err, store.ErrBadValue):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
	default:
		writeInternalError(w, err.Error())
	}
}
