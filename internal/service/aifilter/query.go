package aifilter

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/stridewear/shop-backend/internal/domain"
)

// EncodeFilters serializes filters into the canonical listing query
// string. An empty filter set serializes to "/". Array fields emit one
// repeated parameter per element, in array order; prices are emitted
// only when set. Parameter order is fixed: searchTerm, brand,
// categories, color, size, gender, priceMin, priceMax.
func EncodeFilters(f domain.ProductFilters) string {
	if f.IsEmpty() {
		return "/"
	}

	var params []string
	add := func(key, value string) {
		params = append(params, key+"="+url.QueryEscape(value))
	}

	if f.SearchTerm != "" {
		add("searchTerm", f.SearchTerm)
	}
	for _, v := range f.Brands {
		add("brand", v)
	}
	for _, v := range f.Categories {
		add("categories", v)
	}
	for _, v := range f.Colors {
		add("color", v)
	}
	for _, v := range f.Sizes {
		add("size", formatNumber(v))
	}
	for _, v := range f.Genders {
		add("gender", v)
	}
	if f.PriceMin != nil {
		add("priceMin", formatNumber(*f.PriceMin))
	}
	if f.PriceMax != nil {
		add("priceMax", formatNumber(*f.PriceMax))
	}

	return "/?" + strings.Join(params, "&")
}

// formatNumber renders a float without a trailing ".0" for whole values.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
