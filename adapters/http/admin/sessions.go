package admin

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/artpar/cmsdesk/app"
	"github.com/artpar/cmsdesk/core/formatter"
	"github.com/artpar/cmsdesk/domain/node"
	"github.com/artpar/cmsdesk/domain/path"
)

// -----------------------------------------------------------------------------
// Request/Response Types
// -----------------------------------------------------------------------------

// OpenSessionRequest is the body of POST /sessions.
type OpenSessionRequest struct {
	EntryID string `json:"entry_id"`
}

// SessionResponse describes the state of a session.
type SessionResponse struct {
	ID      string   `json:"id"`
	EntryID string   `json:"entry_id"`
	ModelID string   `json:"model_id"`
	Dirty   bool     `json:"dirty"`
	CanUndo bool     `json:"can_undo"`
	CanRedo bool     `json:"can_redo"`
	Missing []string `json:"missing,omitempty"`
}

// PathRequest names one path.
type PathRequest struct {
	Path string `json:"path"`
}

// ValueRequest is the body of PUT /sessions/{id}/value and POST
// /sessions/{id}/append. Value holds a JSON value; Raw holds user text
// coerced by the field definition at the path. Set takes exactly one;
// append takes Value or nothing.
type ValueRequest struct {
	Path  string          `json:"path"`
	Value json.RawMessage `json:"value,omitempty"`
	Raw   *string         `json:"raw,omitempty"`
}

// DepthRequest is the body of POST /sessions/{id}/expand.
type DepthRequest struct {
	Depth int `json:"depth"`
}

// ToggleResponse reports the new expansion state of a path.
type ToggleResponse struct {
	Path     string `json:"path"`
	Expanded bool   `json:"expanded"`
}

// ValueResponse carries the value at a path.
type ValueResponse struct {
	Path  string     `json:"path"`
	Value node.Value `json:"value"`
}

func sessionResponse(s *app.Session) SessionResponse {
	e := s.Entry()
	return SessionResponse{
		ID:      s.ID(),
		EntryID: e.ID,
		ModelID: e.ModelID,
		Dirty:   s.Dirty(),
		CanUndo: s.CanUndo(),
		CanRedo: s.CanRedo(),
		Missing: s.Missing(),
	}
}

// session resolves {id}, writing the error response when it is unknown.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*app.Session, bool) {
	s, err := h.editor.Session(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return nil, false
	}
	return s, true
}

// -----------------------------------------------------------------------------
// Handlers
// -----------------------------------------------------------------------------

// ListSessions handles GET /sessions.
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids := h.editor.Sessions()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(ids),
		"data":  ids,
	})
}

// OpenSession handles POST /sessions.
func (h *Handler) OpenSession(w http.ResponseWriter, r *http.Request) {
	var req OpenSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.EntryID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "entry_id is required")
		return
	}

	s, err := h.editor.Open(r.Context(), req.EntryID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse(s))
}

// SessionState handles GET /sessions/{id}.
func (h *Handler) SessionState(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(s))
}

// CloseSession handles DELETE /sessions/{id}.
func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	if err := h.editor.Close(chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Rows handles GET /sessions/{id}/rows.
func (h *Handler) Rows(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	rows := s.Rows()
	h.render(w, func(f formatter.Formatter, opts formatter.FormatOptions) error {
		return f.FormatRows(w, rows, opts)
	})
}

// Toggle handles POST /sessions/{id}/toggle.
func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req PathRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := path.Parse(req.Path)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	expanded, err := s.Toggle(p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ToggleResponse{Path: p.String(), Expanded: expanded})
}

// ExpandAll handles POST /sessions/{id}/expand. A missing or negative depth
// opens everything.
func (h *Handler) ExpandAll(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	req := DepthRequest{Depth: -1}
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	s.ExpandAll(req.Depth)
	h.Rows(w, r)
}

// CollapseAll handles POST /sessions/{id}/collapse.
func (h *Handler) CollapseAll(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.CollapseAll()
	h.Rows(w, r)
}

// GetValue handles GET /sessions/{id}/value?path=.
func (h *Handler) GetValue(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	p, err := path.Parse(r.URL.Query().Get("path"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	v, err := s.Get(p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ValueResponse{Path: p.String(), Value: v})
}

// SetValue handles PUT /sessions/{id}/value.
func (h *Handler) SetValue(w http.ResponseWriter, r *http.Request) {
	s, req, p, ok := h.valueRequest(w, r)
	if !ok {
		return
	}
	if (req.Raw == nil) == (len(req.Value) == 0) {
		writeError(w, http.StatusBadRequest, "invalid_request", "exactly one of value or raw is required")
		return
	}

	var err error
	if req.Raw != nil {
		err = s.SetRaw(p, *req.Raw)
	} else {
		var v node.Value
		if v, ok = parseValue(w, req.Value); !ok {
			return
		}
		err = s.Set(p, v)
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(s))
}

// AppendValue handles POST /sessions/{id}/append. Without a value the list
// gets a new element built from its field definition.
func (h *Handler) AppendValue(w http.ResponseWriter, r *http.Request) {
	s, req, p, ok := h.valueRequest(w, r)
	if !ok {
		return
	}
	if req.Raw != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "raw is not supported here")
		return
	}

	v := s.NewItem(p)
	if len(req.Value) > 0 {
		if v, ok = parseValue(w, req.Value); !ok {
			return
		}
	}
	if err := s.Append(p, v); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(s))
}

// valueRequest resolves the session and decodes a ValueRequest with its path.
func (h *Handler) valueRequest(w http.ResponseWriter, r *http.Request) (*app.Session, ValueRequest, path.Path, bool) {
	var req ValueRequest
	s, ok := h.session(w, r)
	if !ok {
		return nil, req, nil, false
	}
	if !decodeJSON(w, r, &req) {
		return nil, req, nil, false
	}
	p, err := path.Parse(req.Path)
	if err != nil {
		h.fail(w, r, err)
		return nil, req, nil, false
	}
	return s, req, p, true
}

func parseValue(w http.ResponseWriter, raw json.RawMessage) (node.Value, bool) {
	v, err := node.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_value", err.Error())
		return node.Value{}, false
	}
	return v, true
}

// DeleteValue handles DELETE /sessions/{id}/value?path=.
func (h *Handler) DeleteValue(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	p, err := path.Parse(r.URL.Query().Get("path"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := s.Delete(p); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(s))
}

// Undo handles POST /sessions/{id}/undo.
func (h *Handler) Undo(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if !s.Undo() {
		writeError(w, http.StatusConflict, "nothing_to_undo", "nothing to undo")
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(s))
}

// Redo handles POST /sessions/{id}/redo.
func (h *Handler) Redo(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if !s.Redo() {
		writeError(w, http.StatusConflict, "nothing_to_redo", "nothing to redo")
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(s))
}

// Discard handles POST /sessions/{id}/discard.
func (h *Handler) Discard(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Discard()
	writeJSON(w, http.StatusOK, sessionResponse(s))
}

// Pending handles GET /sessions/{id}/pending.
func (h *Handler) Pending(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	results := s.Pending()
	h.render(w, func(f formatter.Formatter, opts formatter.FormatOptions) error {
		return f.FormatDiff(w, results, opts)
	})
}

// Save handles POST /sessions/{id}/save.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	e, err := s.Save(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, func(f formatter.Formatter, opts formatter.FormatOptions) error {
		return f.FormatEntry(w, e, opts)
	})
}
