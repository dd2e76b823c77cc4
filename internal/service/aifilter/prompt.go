package aifilter

import (
	"fmt"
	"strings"

	"github.com/stridewear/shop-backend/internal/domain"
)

// buildFilterPrompt creates the natural-language-to-JSON prompt for the
// filters flow, embedding the catalog's real option labels.
func buildFilterPrompt(query string, opts *domain.FilterOptions) string {
	return fmt.Sprintf(`You are a shopping assistant for a shoe store.

Given a customer's free-text query, produce a structured filter object in JSON format.

Customer query: %q

Valid filter values:
- brands: %s
- categories: %s
- colors: %s
- sizes: %s
- genders: %s

Output ONLY a valid JSON object matching this exact schema:
{
  "brands": ["<brand>", ...],
  "categories": ["<category>", ...],
  "colors": ["<color>", ...],
  "sizes": [<number>, ...],
  "genders": ["<gender>", ...],
  "price_min": <number or omit>,
  "price_max": <number or omit>,
  "searchTerm": "<short free-text term for anything not covered by the filters, e.g. a model name>",
  "explain_short": "<one short sentence explaining the chosen filters to the customer>"
}

Rules:
- Use only values from the valid filter lists above
- Omit price_min/price_max unless the query constrains price
- Use empty arrays for dimensions the query does not mention
- Output ONLY the JSON, no markdown, no explanations`,
		query,
		joinLabels(opts.Brands),
		joinLabels(opts.Categories),
		joinLabels(opts.Colors),
		joinSizes(opts.Sizes),
		joinLabels(opts.Genders),
	)
}

// buildDescriptionPrompt creates the prompt for the description flow.
// strict regenerates with a harder "only valid JSON" instruction after a
// malformed first attempt.
func buildDescriptionPrompt(req DescriptionRequest, strict bool) string {
	preamble := "You are a copywriter for a shoe store."
	if strict {
		preamble = "You are a copywriter for a shoe store. Your previous answer was not valid JSON. Return ONLY valid JSON this time, with no surrounding text."
	}

	return fmt.Sprintf(`%s

Write a product description for this shoe:
- name: %q
- brand: %q
- category: %q
- gender: %q
- current description: %q

Output ONLY a valid JSON object matching this exact schema:
{
  "name": "<improved product name>",
  "isBranded": <true if the brand is a well-known shoe brand>,
  "description": "<2-3 sentence marketing description>",
  "confidence": <number between 0 and 1>
}

Rules:
- Keep the name close to the original, fixing casing and obvious typos
- Do not invent technical specs not implied by the inputs
- Output ONLY the JSON, no markdown, no explanations`,
		preamble, req.Name, req.Brand, req.Category, req.Gender, req.Description)
}

func joinLabels(options []domain.Option) string {
	labels := make([]string, len(options))
	for i, o := range options {
		labels[i] = o.Label
	}
	return strings.Join(labels, ", ")
}

func joinSizes(options []domain.SizeOption) string {
	labels := make([]string, len(options))
	for i, o := range options {
		labels[i] = formatNumber(o.Label)
	}
	return strings.Join(labels, ", ")
}
