// Package admin provides the local HTTP API over the editor service.
package admin

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/artpar/cmsdesk/adapters/remote"
	"github.com/artpar/cmsdesk/app"
	"github.com/artpar/cmsdesk/core/formatter"
	"github.com/artpar/cmsdesk/domain/content"
	"github.com/artpar/cmsdesk/domain/edit"
	"github.com/artpar/cmsdesk/domain/field"
	"github.com/artpar/cmsdesk/domain/path"
	"github.com/artpar/cmsdesk/ports"
)

// Handler provides the local API endpoints.
type Handler struct {
	editor   *app.Editor
	logger   zerolog.Logger
	out      formatter.Formatter
	pageSize int
}

// Deps contains dependencies for the handler.
type Deps struct {
	Editor   *app.Editor
	Logger   zerolog.Logger
	PageSize int // default list page size
}

// NewHandler creates a new API handler.
func NewHandler(deps Deps) *Handler {
	return &Handler{
		editor:   deps.Editor,
		logger:   deps.Logger,
		out:      formatter.NewJSONFormatter(),
		pageSize: deps.PageSize,
	}
}

// Router returns the API router.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()

	// Models
	r.Get("/models", h.ListModels)
	r.Get("/models/{id}", h.GetModel)
	r.Get("/models/{id}/entries", h.ListEntries)
	r.Get("/models/{id}/export", h.Export)
	r.Post("/import", h.Import)

	// Entries
	r.Get("/entries/{id}", h.GetEntry)
	r.Delete("/entries/{id}", h.DeleteEntry)
	r.Get("/entries/{id}/history", h.History)

	// Sessions
	r.Get("/sessions", h.ListSessions)
	r.Post("/sessions", h.OpenSession)
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/", h.SessionState)
		r.Delete("/", h.CloseSession)
		r.Get("/rows", h.Rows)
		r.Post("/toggle", h.Toggle)
		r.Post("/expand", h.ExpandAll)
		r.Post("/collapse", h.CollapseAll)
		r.Get("/value", h.GetValue)
		r.Put("/value", h.SetValue)
		r.Delete("/value", h.DeleteValue)
		r.Post("/append", h.AppendValue)
		r.Post("/undo", h.Undo)
		r.Post("/redo", h.Redo)
		r.Post("/discard", h.Discard)
		r.Get("/pending", h.Pending)
		r.Post("/save", h.Save)
	})

	// Diff
	r.Get("/diff", h.Diff)

	return r
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

// missingFieldsBody carries the names of empty required fields.
type missingFieldsBody struct {
	Error struct {
		Code    string   `json:"code"`
		Message string   `json:"message"`
		Fields  []string `json:"fields"`
	} `json:"error"`
}

// fail maps service errors to status codes.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var coerceErr *field.CoerceError
	var missingErr *app.MissingFieldsError
	var remoteErr *remote.RemoteError

	switch {
	case errors.Is(err, edit.ErrInvalidPath), errors.Is(err, path.ErrSyntax):
		writeError(w, http.StatusBadRequest, "invalid_path", err.Error())
	case errors.As(err, &coerceErr):
		writeError(w, http.StatusBadRequest, "invalid_value", err.Error())
	case errors.As(err, &missingErr):
		var body missingFieldsBody
		body.Error.Code = "missing_fields"
		body.Error.Message = err.Error()
		body.Error.Fields = missingErr.Fields
		writeJSON(w, http.StatusUnprocessableEntity, body)
	case errors.Is(err, app.ErrSaveInProgress):
		writeError(w, http.StatusConflict, "save_in_progress", err.Error())
	case errors.Is(err, ports.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case remote.IsUnauthorized(err):
		writeError(w, http.StatusBadGateway, "cms_unauthorized", err.Error())
	case errors.As(err, &remoteErr):
		writeError(w, http.StatusBadGateway, "cms_error", err.Error())
	default:
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

// render writes a formatter result with status 200.
func (h *Handler) render(w http.ResponseWriter, fn func(formatter.Formatter, formatter.FormatOptions) error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := fn(h.out, formatter.FormatOptions{Compact: true}); err != nil {
		h.logger.Error().Err(err).Msg("render response")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return false
	}
	return true
}

func parseIntQuery(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

func parseBoolQuery(r *http.Request, name string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return v
}

func (h *Handler) page(r *http.Request) content.Page {
	return content.Page{
		Limit:  parseIntQuery(r, "limit", h.pageSize),
		Offset: parseIntQuery(r, "offset", 0),
	}.Normalize()
}

func setTotal(w http.ResponseWriter, total int) {
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
}
