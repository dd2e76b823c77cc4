package rest

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/stridewear/shop-backend/internal/domain"
)

// collectionStore defines the store operations exposed over REST.
type collectionStore interface {
	Add(ctx context.Context, userID string, p domain.CardProduct) error
	Remove(ctx context.Context, userID string, productID int) error
	Clear(ctx context.Context, userID string) error
	List(ctx context.Context, userID string) []domain.CardProduct
}

// reconcileService prunes ghost items from a user's list.
type reconcileService interface {
	Reconcile(ctx context.Context, userID string, ids []int) error
}

// CollectionHandler serves one collection store (cart, wishlist, or
// recently viewed) over REST. The reconciler is optional; it is wired
// only for the recently-viewed store.
type CollectionHandler struct {
	store      collectionStore
	reconciler reconcileService
	log        *slog.Logger
}

// NewCollectionHandler creates a CollectionHandler for the named store.
func NewCollectionHandler(name string, store collectionStore, reconciler reconcileService, logger *slog.Logger) *CollectionHandler {
	return &CollectionHandler{
		store:      store,
		reconciler: reconciler,
		log:        logger.With("handler", name),
	}
}

// listResponse wraps a user's list.
type listResponse struct {
	Items []domain.CardProduct `json:"items"`
}

// maxCollectionBody bounds collection request bodies.
const maxCollectionBody = 16 << 10

// List handles GET /api/<store>/{userID}.
func (h *CollectionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")

	items := h.store.List(r.Context(), userID)
	writeJSON(w, http.StatusOK, listResponse{Items: items})
}

// Add handles POST /api/<store>/{userID}. The body is a CardProduct.
// Re-adding an existing product id is accepted and changes nothing.
func (h *CollectionHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")

	var p domain.CardProduct
	if err := json.NewDecoder(io.LimitReader(r.Body, maxCollectionBody)).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid product payload")
		return
	}
	if p.ID <= 0 {
		writeError(w, http.StatusBadRequest, "product id must be positive")
		return
	}

	if err := h.store.Add(r.Context(), userID, p); err != nil {
		h.log.ErrorContext(r.Context(), "add item", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, listResponse{Items: h.store.List(r.Context(), userID)})
}

// Remove handles DELETE /api/<store>/{userID}/items/{productID}.
func (h *CollectionHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")

	productID, err := strconv.Atoi(r.PathValue("productID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	if err := h.store.Remove(r.Context(), userID, productID); err != nil {
		h.log.ErrorContext(r.Context(), "remove item", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, listResponse{Items: h.store.List(r.Context(), userID)})
}

// Clear handles DELETE /api/<store>/{userID}.
func (h *CollectionHandler) Clear(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")

	if err := h.store.Clear(r.Context(), userID); err != nil {
		h.log.ErrorContext(r.Context(), "clear list", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type reconcileRequest struct {
	IDs []int `json:"ids"`
}

type reconcileResponse struct {
	Checked bool                 `json:"checked"`
	Items   []domain.CardProduct `json:"items"`
}

// Reconcile handles POST /api/<store>/{userID}/reconcile. An empty id
// list performs no catalog lookup. A failed lookup leaves the list
// untouched and reports checked=false.
func (h *CollectionHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	if h.reconciler == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	userID := r.PathValue("userID")

	var req reconcileRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxCollectionBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid reconcile payload")
		return
	}

	checked := len(req.IDs) > 0
	if err := h.reconciler.Reconcile(r.Context(), userID, req.IDs); err != nil {
		// Lookup failures are not surfaced as hard errors: the list is
		// simply left as-is until a later check succeeds.
		checked = false
	}

	writeJSON(w, http.StatusOK, reconcileResponse{
		Checked: checked,
		Items:   h.store.List(r.Context(), userID),
	})
}
