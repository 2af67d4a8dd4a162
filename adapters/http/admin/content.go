package admin

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/artpar/cmsdesk/core/formatter"
	"github.com/artpar/cmsdesk/domain/content"
	"github.com/artpar/cmsdesk/domain/diff"
)

// maxBundleSize bounds import request bodies.
const maxBundleSize = 32 << 20

// ListModels handles GET /models.
func (h *Handler) ListModels(w http.ResponseWriter, r *http.Request) {
	res, err := h.editor.Models(r.Context(), h.page(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	setTotal(w, res.Total)
	h.render(w, func(f formatter.Formatter, opts formatter.FormatOptions) error {
		return f.FormatModels(w, res.Items, opts)
	})
}

// GetModel handles GET /models/{id}.
func (h *Handler) GetModel(w http.ResponseWriter, r *http.Request) {
	m, err := h.editor.Model(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, func(f formatter.Formatter, opts formatter.FormatOptions) error {
		return f.FormatModel(w, m, opts)
	})
}

// ListEntries handles GET /models/{id}/entries?q=&limit=&offset=.
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	res, err := h.editor.Search(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("q"), h.page(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	setTotal(w, res.Total)
	h.render(w, func(f formatter.Formatter, opts formatter.FormatOptions) error {
		return f.FormatEntries(w, res.Items, opts)
	})
}

// Export handles GET /models/{id}/export?format=json|yaml.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	b, err := h.editor.Export(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	format := content.FormatJSON
	contentType := "application/json"
	if r.URL.Query().Get("format") == string(content.FormatYAML) {
		format = content.FormatYAML
		contentType = "application/yaml"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if err := content.EncodeBundle(w, b, format); err != nil {
		h.logger.Error().Err(err).Msg("encode export")
	}
}

// Import handles POST /import?dry_run=true with a bundle body.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	format := content.FormatJSON
	if ct := r.Header.Get("Content-Type"); ct == "application/yaml" || ct == "application/x-yaml" {
		format = content.FormatYAML
	}

	b, err := content.DecodeBundle(io.LimitReader(r.Body, maxBundleSize), format)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_bundle", err.Error())
		return
	}

	report, err := h.editor.Import(r.Context(), b, parseBoolQuery(r, "dry_run"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, func(f formatter.Formatter, opts formatter.FormatOptions) error {
		return f.FormatImport(w, report, opts)
	})
}

// GetEntry handles GET /entries/{id}.
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	e, err := h.editor.Entry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, func(f formatter.Formatter, opts formatter.FormatOptions) error {
		return f.FormatEntry(w, e, opts)
	})
}

// DeleteEntry handles DELETE /entries/{id}.
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := h.editor.DeleteEntry(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// History handles GET /entries/{id}/history.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	snaps, err := h.editor.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, func(f formatter.Formatter, opts formatter.FormatOptions) error {
		return f.FormatSnapshots(w, snaps, opts)
	})
}

// Diff handles GET /diff?left=&right= and GET /diff?left=&snapshot=.
// changes_only=true leaves equal paths out.
func (h *Handler) Diff(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	left, right, snapshot := q.Get("left"), q.Get("right"), q.Get("snapshot")
	if left == "" || (right == "" && snapshot == "") {
		writeError(w, http.StatusBadRequest, "invalid_request", "left and one of right or snapshot are required")
		return
	}

	var results []diff.Result
	var err error
	if snapshot != "" {
		results, err = h.editor.CompareSnapshot(r.Context(), left, snapshot)
	} else {
		results, err = h.editor.Compare(r.Context(), left, right)
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}

	changesOnly := parseBoolQuery(r, "changes_only")
	h.render(w, func(f formatter.Formatter, opts formatter.FormatOptions) error {
		opts.ChangesOnly = changesOnly
		return f.FormatDiff(w, results, opts)
	})
}
