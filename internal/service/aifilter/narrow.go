package aifilter

import (
	"strings"

	"github.com/stridewear/shop-backend/internal/domain"
)

// narrow cross-validates a model draft against the catalog's real option
// lists. Values the catalog doesn't know are silently dropped: this is a
// best-effort narrowing, not a correctness gate. String matching is
// case-insensitive; the surviving value takes the option list's casing,
// not the model's. Sizes must match a catalog size exactly.
func narrow(draft filterDraft, opts *domain.FilterOptions) domain.ProductFilters {
	return domain.ProductFilters{
		Brands:     narrowLabels(draft.Brands, opts.Brands),
		Categories: narrowLabels(draft.Categories, opts.Categories),
		Colors:     narrowLabels(draft.Colors, opts.Colors),
		Sizes:      narrowSizes(draft.Sizes, opts.Sizes),
		Genders:    narrowLabels(draft.Genders, opts.Genders),
		PriceMin:   parsePrice(draft.PriceMin),
		PriceMax:   parsePrice(draft.PriceMax),
		SearchTerm: clampSearchTerm(draft.SearchTerm),
	}
}

func narrowLabels(proposed []string, options []domain.Option) []string {
	if len(proposed) == 0 {
		return nil
	}

	byLower := make(map[string]string, len(options))
	for _, o := range options {
		byLower[strings.ToLower(o.Label)] = o.Label
	}

	var out []string
	seen := make(map[string]struct{})
	for _, p := range proposed {
		label, ok := byLower[strings.ToLower(strings.TrimSpace(p))]
		if !ok {
			continue
		}
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	return out
}

func narrowSizes(proposed []float64, options []domain.SizeOption) []float64 {
	if len(proposed) == 0 {
		return nil
	}

	valid := make(map[float64]struct{}, len(options))
	for _, o := range options {
		valid[o.Label] = struct{}{}
	}

	var out []float64
	seen := make(map[float64]struct{})
	for _, p := range proposed {
		if _, ok := valid[p]; !ok {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
