package unwrangle

// Product is a raw product record as returned by the Unwrangle scrapers.
// The upstream schema is wide (60+ fields on the detail side) and drifts
// without notice, so it is kept as an open mapping with typed accessors
// for the handful of fields the lookup pipeline dispatches on.
type Product map[string]any

// SearchResponse is the body of a fergusonhome_search call.
type SearchResponse struct {
	Success      bool           `json:"success"`
	TotalResults int            `json:"total_results"`
	TotalPages   int            `json:"no_of_pages"`
	ResultCount  int            `json:"result_count"`
	Results      []Product      `json:"results"`
	MetaData     map[string]any `json:"meta_data"`
	CreditsUsed  int            `json:"credits_used"`
}

// DetailResponse is the body of a fergusonhome_detail call.
type DetailResponse struct {
	Success     bool    `json:"success"`
	ResultCount int     `json:"result_count"`
	Detail      Product `json:"detail"`
	CreditsUsed int     `json:"credits_used"`
}

// Str returns the named field as a string, or "" when absent or not a
// string.
func (p Product) Str(field string) string {
	s, _ := p[field].(string)
	return s
}

// Int returns the named field as an int, tolerating the float64 values
// encoding/json produces for JSON numbers.
func (p Product) Int(field string) int {
	switch v := p[field].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// ModelNo returns the product's model number.
func (p Product) ModelNo() string {
	return p.Str("model_no")
}

// URL returns the product's detail-page URL.
func (p Product) URL() string {
	return p.Str("url")
}

// Variants returns the product's variant records, if any.
func (p Product) Variants() []Product {
	raw, ok := p["variants"].([]any)
	if !ok {
		return nil
	}
	out := make([]Product, 0, len(raw))
	for _, v := range raw {
		if m, ok := v.(map[string]any); ok {
			out = append(out, Product(m))
		}
	}
	return out
}
