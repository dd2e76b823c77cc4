package aifilter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/stridewear/shop-backend/internal/domain"
)

// DescriptionRequest is the input for description generation.
// All fields are required.
type DescriptionRequest struct {
	Name        string `json:"name"`
	Brand       string `json:"brand"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Gender      string `json:"gender"`
}

// Description is the structured model output for a product description.
type Description struct {
	Name        string  `json:"name"`
	IsBranded   bool    `json:"isBranded"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
}

func (r DescriptionRequest) validate() error {
	for _, f := range []string{r.Name, r.Brand, r.Category, r.Description, r.Gender} {
		if strings.TrimSpace(f) == "" {
			return domain.ErrMissingField
		}
	}
	return nil
}

// GenerateDescription produces a structured description for a product.
// Unlike the filters flow, a malformed first response is retried exactly
// once with a stricter prompt; a second malformed response yields
// ErrAIGeneration.
func (s *Service) GenerateDescription(ctx context.Context, req DescriptionRequest) (*Description, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	raw, err := s.gen.Generate(ctx, buildDescriptionPrompt(req, false))
	if err != nil {
		return nil, fmt.Errorf("description call: %w", err)
	}

	if d, ok := parseDescription(raw); ok {
		return d, nil
	}

	s.log.WarnContext(ctx, "malformed description output, retrying",
		slog.String("name", req.Name),
	)

	raw, err = s.gen.Generate(ctx, buildDescriptionPrompt(req, true))
	if err != nil {
		return nil, fmt.Errorf("description retry call: %w", err)
	}

	d, ok := parseDescription(raw)
	if !ok {
		return nil, domain.ErrAIGeneration
	}
	return d, nil
}

func parseDescription(raw string) (*Description, bool) {
	jsonStr, err := extractJSON(raw)
	if err != nil {
		return nil, false
	}

	var d Description
	if err := json.Unmarshal([]byte(jsonStr), &d); err != nil {
		return nil, false
	}
	if d.Name == "" || d.Description == "" {
		return nil, false
	}
	return &d, true
}
