package ferguson

import "github.com/cxc-ai/catalog-bot/pkg/unwrangle"

// The Unwrangle search and detail scrapers return overlapping but not
// identical schemas for the same item. The merged record enumerates the
// union explicitly: fields both sides report prefer the detail value,
// fields only one side reports pass through from that side.

// detailFirstFields prefer the detail snapshot and fall back to search.
var detailFirstFields = []string{
	"id",
	"name",
	"brand",
	"price",
	"currency",
	"variants",
	"variant_count",
	"has_in_stock_variants",
	"all_variants_in_stock",
	"total_inventory_quantity",
	"in_stock_variant_count",
	"is_configurable",
	"images",
	"category",
	"rating",
	"collection",
}

// detailOnlyFields exist only in the detail schema.
var detailOnlyFields = []string{
	"upc",
	"barcode",
	"brand_url",
	"brand_logo",
	"url",
	"product_type",
	"application",
	"base_type",
	"price_range",
	"shipping_fee",
	"has_free_installation",
	"has_variant_groups",
	"configuration_type",
	"videos",
	"description",
	"is_discontinued",
	"specifications",
	"features",
	"feature_groups",
	"dimensions",
	"attribute_ids",
	"certifications",
	"country_of_origin",
	"warranty",
	"manufacturer_warranty",
	"resources",
	"categories",
	"base_category",
	"business_category",
	"related_categories",
	"review_count",
	"questions_count",
	"is_by_appointment_only",
	"has_recommended_options",
	"recommended_options",
	"has_accessories",
	"has_replacement_parts",
	"replacement_parts_url",
	// Written by uid-variant promotion before the merge runs.
	"finish",
	"variant_model_number",
	"variant_name",
	"variant_color",
	"variant_price",
	"variant_images",
	"variant_in_stock",
	"variant_url",
}

// searchOnlyFields exist only in the search schema.
var searchOnlyFields = []string{
	"family_id",
	"price_min",
	"price_max",
	"unit_price",
	"price_type",
	"all_variants_restricted",
	"is_square_footage_based",
	"total_ratings",
	"is_quick_ship",
	"shipping_info",
	"is_appointment_only_brand",
}

// MergeProducts combines a search snapshot and a detail snapshot of the
// same catalog item into one record. Detail data takes priority when a
// field exists on both sides. Either snapshot may be nil and the merge
// degrades to the other side alone.
func MergeProducts(search, detail unwrangle.Product) unwrangle.Product {
	merged := make(unwrangle.Product, len(detailFirstFields)+len(detailOnlyFields)+len(searchOnlyFields)+3)

	for _, f := range detailFirstFields {
		merged[f] = pick(detail[f], search[f])
	}
	for _, f := range detailOnlyFields {
		merged[f] = detail[f]
	}
	for _, f := range searchOnlyFields {
		merged[f] = search[f]
	}

	// The detail scraper reports model_number or model_no depending on
	// the page template.
	merged["model_number"] = pick(detail["model_number"], detail["model_no"])
	// Search counts all ratings; detail counts only written reviews.
	merged["total_reviews"] = pick(detail["total_reviews"], search["total_ratings"])
	// Thumbnail is the one field where the search snapshot wins.
	merged["thumbnail"] = pick(search["thumbnail"], detail["thumbnail"])

	return merged
}

// pick returns primary unless it is null or empty, then fallback.
func pick(primary, fallback any) any {
	if !isEmptyValue(primary) {
		return primary
	}
	return fallback
}

func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}
