package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"

	"github.com/gorilla/schema"

	"subgrid/internal/query"
	"subgrid/pkg/model"
	"subgrid/pkg/paths"
)

// PatchRequest addresses a single field of a subscription by dotted path.
type PatchRequest struct {
	Path  string `json:"path"`
	Value any    `json:"value"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	var params query.ListParams
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	if err := decoder.Decode(&params, r.URL.Query()); err != nil {
		slog.Warn("List: invalid query parameters", "error", err)
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "Invalid query parameters")
		return
	}

	page, contentRange, err := h.engine.List(r.Context(), params)
	if err != nil {
		writeModelError(w, err)
		return
	}

	if contentRange != nil {
		w.Header().Set("Content-Range", contentRange.String())
	}
	if page == nil {
		page = []model.Subscription{}
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	sub, err := h.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeModelError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// handlePaths lists every dotted path addressable inside the serialized
// record. Consumers use it to discover which fields are individually
// mutable before issuing a patch.
func (h *Handler) handlePaths(w http.ResponseWriter, r *http.Request) {
	sub, err := h.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeModelError(w, err)
		return
	}

	tree, err := sub.AsTree()
	if err != nil {
		writeModelError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, paths.Enumerate(tree))
}

func (h *Handler) handlePatch(w http.ResponseWriter, r *http.Request) {
	var req PatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "Invalid request body")
		return
	}
	if req.Path == "" {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "Path is required")
		return
	}

	sub, err := h.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeModelError(w, err)
		return
	}

	tree, err := sub.AsTree()
	if err != nil {
		writeModelError(w, err)
		return
	}

	if !slices.Contains(paths.Enumerate(tree), req.Path) {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "Path is not editable: "+req.Path)
		return
	}

	if err := paths.UpdateIn(tree, req.Path, req.Value, paths.DefaultSep); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "Cannot update path: "+req.Path)
		return
	}

	updated, err := model.FromTree(tree)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "Value does not fit field at path: "+req.Path)
		return
	}
	updated.SearchText = sub.SearchText

	if err := h.store.Upsert(r.Context(), updated); err != nil {
		writeModelError(w, err)
		return
	}

	if err := h.events.PublishUpdated(r.Context(), updated, req.Path); err != nil {
		slog.Warn("Patch: event publish failed", "subscription_id", updated.SubscriptionID, "error", err)
	}

	writeJSON(w, http.StatusOK, updated)
}
