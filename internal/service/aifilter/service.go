// Package aifilter turns free-text shopping queries into validated,
// catalog-consistent product filters via a text-generation model, and
// generates structured product descriptions with a bounded retry.
package aifilter

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/stridewear/shop-backend/internal/domain"
)

// textGenerator is the external text-generation collaborator.
type textGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// optionSource supplies the catalog's valid filter values.
type optionSource interface {
	Options(ctx context.Context) (*domain.FilterOptions, error)
}

// Service orchestrates the AI flows.
type Service struct {
	gen     textGenerator
	catalog optionSource
	log     *slog.Logger
}

// NewService creates the AI filter service.
func NewService(gen textGenerator, catalog optionSource, logger *slog.Logger) *Service {
	return &Service{
		gen:     gen,
		catalog: catalog,
		log:     logger.With("service", "aifilter"),
	}
}

// FilterResult is the outcome of a filters-from-query run.
type FilterResult struct {
	RedirectURL  string `json:"redirectUrl"`
	ExplainShort string `json:"explain_short"`
}

// maxSearchTermLen caps the searchTerm passed through to the listing page.
const maxSearchTermLen = 200

// filterDraft is the JSON shape the model is asked to produce.
// Prices are kept raw: a missing or non-numeric price is dropped,
// never coerced to zero and never a reason to reject the draft.
type filterDraft struct {
	Brands       []string        `json:"brands"`
	Categories   []string        `json:"categories"`
	Colors       []string        `json:"colors"`
	Sizes        []float64       `json:"sizes"`
	Genders      []string        `json:"genders"`
	PriceMin     json.RawMessage `json:"price_min"`
	PriceMax     json.RawMessage `json:"price_max"`
	SearchTerm   string          `json:"searchTerm"`
	ExplainShort string          `json:"explain_short"`
}

// FiltersFromQuery converts a free-text query into a listing redirect URL.
//
// A missing query is rejected up front with ErrMissingField. Model output
// that does not parse into the draft shape yields ErrInvalidAIResponse;
// there is no retry at this layer. Any other failure (catalog read, model
// call) degrades to a root redirect rather than propagating.
func (s *Service) FiltersFromQuery(ctx context.Context, query string) (*FilterResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrMissingField
	}

	opts, err := s.catalog.Options(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "load filter options", slog.String("error", err.Error()))
		return &FilterResult{RedirectURL: "/"}, nil
	}

	raw, err := s.gen.Generate(ctx, buildFilterPrompt(query, opts))
	if err != nil {
		s.log.ErrorContext(ctx, "filter generation call failed", slog.String("error", err.Error()))
		return &FilterResult{RedirectURL: "/"}, nil
	}

	jsonStr, err := extractJSON(raw)
	if err != nil {
		return nil, domain.ErrInvalidAIResponse
	}

	var draft filterDraft
	if err := json.Unmarshal([]byte(jsonStr), &draft); err != nil {
		return nil, domain.ErrInvalidAIResponse
	}

	filters := narrow(draft, opts)

	s.log.InfoContext(ctx, "filters generated",
		slog.String("search_term", filters.SearchTerm),
		slog.Int("brands", len(filters.Brands)),
		slog.Int("colors", len(filters.Colors)),
	)

	return &FilterResult{
		RedirectURL:  EncodeFilters(filters),
		ExplainShort: draft.ExplainShort,
	}, nil
}

// extractJSON strips Markdown code fences and returns the first complete
// JSON object in the text.
func extractJSON(s string) (string, error) {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end <= start {
		return "", domain.ErrInvalidAIResponse
	}
	return s[start : end+1], nil
}

// clampSearchTerm trims and truncates a search term to maxSearchTermLen runes.
func clampSearchTerm(s string) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) > maxSearchTermLen {
		return string(runes[:maxSearchTermLen])
	}
	return s
}

// parsePrice returns the numeric value of a raw JSON price, or nil when
// the field is absent, null, or not a number.
func parsePrice(raw json.RawMessage) *float64 {
	if len(raw) == 0 {
		return nil
	}
	var v *float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}
