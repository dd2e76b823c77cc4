package domain

// CardProduct is the lightweight product reference held by the per-user
// collection stores (cart, wishlist, recently viewed). It carries just
// enough to render a product card without another catalog round trip.
//
// Identity is ID alone: two records with the same ID but different price
// or image are still considered the same product for dedup purposes.
type CardProduct struct {
	ID       int      `json:"id"`
	Name     string   `json:"name"`
	Price    float64  `json:"price"`
	Image    string   `json:"image"`
	Gender   string   `json:"gender"`
	Size     *float64 `json:"size,omitempty"`
	Quantity *int     `json:"quantity,omitempty"`
}

// Option is one selectable value of a filter dimension (brand, color,
// category, gender). Label is what the shopper sees; Value is the
// catalog row id.
type Option struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

// SizeOption is a selectable shoe size. Sizes have numeric labels.
type SizeOption struct {
	Label float64 `json:"label"`
	Value int     `json:"value"`
}

// FilterOptions holds the catalog's valid values for every filter
// dimension. The AI pipeline narrows model output against these.
type FilterOptions struct {
	Brands     []Option
	Categories []Option
	Colors     []Option
	Sizes      []SizeOption
	Genders    []Option
}

// ProductFilters is the validated filter set produced by the AI pipeline,
// destined for serialization into the listing page query string.
// Nil PriceMin/PriceMax mean "not constrained", never zero.
type ProductFilters struct {
	Brands     []string
	Categories []string
	Colors     []string
	Sizes      []float64
	Genders    []string
	PriceMin   *float64
	PriceMax   *float64
	SearchTerm string
}

// IsEmpty reports whether no filter dimension is set.
func (f ProductFilters) IsEmpty() bool {
	return len(f.Brands) == 0 &&
		len(f.Categories) == 0 &&
		len(f.Colors) == 0 &&
		len(f.Sizes) == 0 &&
		len(f.Genders) == 0 &&
		f.PriceMin == nil &&
		f.PriceMax == nil &&
		f.SearchTerm == ""
}
