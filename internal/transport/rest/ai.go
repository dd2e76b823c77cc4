package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/stridewear/shop-backend/internal/domain"
	"github.com/stridewear/shop-backend/internal/service/aifilter"
)

// aiService defines the minimal interface needed by AIHandler.
type aiService interface {
	FiltersFromQuery(ctx context.Context, query string) (*aifilter.FilterResult, error)
	GenerateDescription(ctx context.Context, req aifilter.DescriptionRequest) (*aifilter.Description, error)
}

// AIHandler serves the AI REST endpoints.
type AIHandler struct {
	svc aiService
	log *slog.Logger
}

// NewAIHandler creates an AIHandler.
func NewAIHandler(svc aiService, logger *slog.Logger) *AIHandler {
	return &AIHandler{svc: svc, log: logger.With("handler", "ai")}
}

// maxAIBody bounds AI request bodies.
const maxAIBody = 64 << 10

// Filters handles POST /api/ai/filters. The request body is the
// customer's free-text query as plain text.
//
// Responses: 200 {redirectUrl, explain_short}; 400 on missing input;
// 422 on unparseable model output; any other failure degrades to a
// 200 root redirect.
func (h *AIHandler) Filters(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxAIBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Some required field is missing")
		return
	}

	result, err := h.svc.FiltersFromQuery(r.Context(), string(body))
	switch {
	case errors.Is(err, domain.ErrMissingField):
		writeError(w, http.StatusBadRequest, "Some required field is missing")
		return
	case errors.Is(err, domain.ErrInvalidAIResponse):
		writeError(w, http.StatusUnprocessableEntity, "Invalid AI response")
		return
	case err != nil:
		h.log.ErrorContext(r.Context(), "filters from query", slog.String("error", err.Error()))
		writeJSON(w, http.StatusOK, aifilter.FilterResult{RedirectURL: "/"})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Description handles POST /api/ai/description.
//
// Responses: 200 {name, isBranded, description, confidence}; 400 on a
// missing field; 422 when both attempts produced invalid JSON; 500 on
// anything else.
func (h *AIHandler) Description(w http.ResponseWriter, r *http.Request) {
	var req aifilter.DescriptionRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxAIBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Some required field is missing")
		return
	}

	desc, err := h.svc.GenerateDescription(r.Context(), req)
	switch {
	case errors.Is(err, domain.ErrMissingField):
		writeError(w, http.StatusBadRequest, "Some required field is missing")
		return
	case errors.Is(err, domain.ErrAIGeneration):
		writeError(w, http.StatusUnprocessableEntity, "Failed to generate structured JSON")
		return
	case err != nil:
		h.log.ErrorContext(r.Context(), "generate description", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "Error generating description")
		return
	}

	writeJSON(w, http.StatusOK, desc)
}
