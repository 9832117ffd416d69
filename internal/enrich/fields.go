package enrich

import "github.com/cxc-ai/catalog-bot/internal/model"

// DefaultCriticalFields lists the per-portal fields that must clear the
// two-source bar before they are trusted.
var DefaultCriticalFields = map[model.Portal][]string{
	model.PortalCatalog: {
		"upc_gtin", "model_number", "product_title", "brand",
		"country_of_origin", "release_year", "warranty",
		"finish_color", "series_collection",
	},
	model.PortalParts: {
		"upc", "part_number", "part_name", "brand",
		"condition", "is_oem", "warranty",
	},
	model.PortalHomeProducts: {
		"upc_gtin", "model_number", "product_title", "brand",
		"material", "assembly_required", "warranty",
		"care_instructions",
	},
}

// DefaultAuthorizedSources is the retailer allow-list for source
// corroboration, ordered by research priority.
var DefaultAuthorizedSources = []string{
	"ferguson",
	"manufacturer",
	"ajmadison",
	"bestbuy",
	"costco",
	"homedepot",
	"lowes",
}

// CompletenessScore reports the percentage of fields in an enriched
// record that carry data, walking nested objects and object lists. Nulls
// and empty collections count against the score.
func CompletenessScore(data map[string]any) float64 {
	total, populated := countFields(data)
	if total == 0 {
		return 0
	}
	return float64(populated) / float64(total) * 100
}

func countFields(obj any) (total, populated int) {
	switch v := obj.(type) {
	case map[string]any:
		for _, value := range v {
			total++
			if !emptyField(value) {
				populated++
			}
			t, p := countFields(value)
			total += t
			populated += p
		}
	case []any:
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				t, p := countFields(m)
				total += t
				populated += p
			}
		}
	}
	return total, populated
}

func emptyField(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}
