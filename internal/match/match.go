package match

import "strings"

// Tier is the confidence bucket a variant match falls into.
// Exact outranks variation outranks partial; substring matching is last
// because it false-positives on short alphanumeric codes.
type Tier string

const (
	TierExact     Tier = "exact"
	TierVariation Tier = "variation"
	TierPartial   Tier = "partial"
	TierNone      Tier = "none"
)

// Variant is one orderable SKU (color/finish/size) under a catalog product.
type Variant struct {
	ModelNumber string
	URL         string
}

// Product is one search-result product with its variants.
type Product struct {
	ModelNumber string
	URL         string
	Variants    []Variant
}

// Result is the outcome of variant matching. URL is empty iff Tier is
// TierNone.
type Result struct {
	URL         string
	ModelNumber string
	Tier        Tier
}

// Matched reports whether any variant was found.
func (r Result) Matched() bool {
	return r.Tier != TierNone
}

// Matcher finds catalog variants for model numbers. The zero value is not
// usable; construct with New.
type Matcher struct {
	prefixes []string
}

// New creates a Matcher. An empty prefix list falls back to
// DefaultPrefixes.
func New(prefixes []string) *Matcher {
	if len(prefixes) == 0 {
		prefixes = DefaultPrefixes
	}
	return &Matcher{prefixes: prefixes}
}

// Variations generates format variations of model using this matcher's
// prefix set.
func (m *Matcher) Variations(model string) []string {
	return generateVariations(model, m.prefixes)
}

// FindVariant resolves target to the best matching variant in the catalog.
// Tiers are evaluated strictly in order (exact/variation first, then
// partial), first match wins within a tier, catalog order breaks ties.
// An empty catalog falls through to TierNone.
func (m *Matcher) FindVariant(products []Product, target string, fuzzy bool) Result {
	candidates := []string{target}
	if fuzzy {
		candidates = m.Variations(target)
	}

	targetKey := canon(target)

	for _, candidate := range candidates {
		key := canon(candidate)
		for _, product := range products {
			for _, variant := range product.Variants {
				if canon(variant.ModelNumber) != key {
					continue
				}
				// Exact means the candidate is the input verbatim, not
				// just equal after trimming and case folding.
				tier := TierVariation
				if candidate == target {
					tier = TierExact
				}
				return Result{URL: variant.URL, ModelNumber: variant.ModelNumber, Tier: tier}
			}
		}
	}

	if fuzzy {
		for _, product := range products {
			for _, variant := range product.Variants {
				vKey := canon(variant.ModelNumber)
				if vKey == "" {
					continue
				}
				if strings.Contains(vKey, targetKey) || strings.Contains(targetKey, vKey) {
					return Result{URL: variant.URL, ModelNumber: variant.ModelNumber, Tier: TierPartial}
				}
			}
		}
	}

	return Result{Tier: TierNone}
}

// FindVariant resolves target against the catalog using the default
// prefix set.
func FindVariant(products []Product, target string, fuzzy bool) Result {
	return New(nil).FindVariant(products, target, fuzzy)
}

func canon(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
