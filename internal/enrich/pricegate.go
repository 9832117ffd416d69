package enrich

import (
	"github.com/cxc-ai/catalog-bot/internal/model"
	"github.com/cxc-ai/catalog-bot/internal/verify"
)

// PartsPriceSources is the allow-list for part pricing claims. It differs
// from the retail MSRP list because parts pricing lives on OEM and repair
// channels rather than consumer retailers.
var PartsPriceSources = []string{
	"oem",
	"manufacturer",
	"appliancepartspros",
	"partselect",
	"repairclinic",
	"reliableparts",
	"ferguson",
	"ajmadison",
}

// enforcePriceGate applies the two-authorized-source pricing rule to the
// section of the record carrying the model's price claim. Unlike critical
// field verification this always nulls a failing price, strict mode or
// not: a wrong price is worse than a missing one.
func (e *Enricher) enforcePriceGate(portal model.Portal, record map[string]any) {
	var section, field, prefix string
	var allow []string

	switch portal {
	case model.PortalHomeProducts:
		section, field, prefix = "product_identity", "msrp_price", "msrp"
		allow = e.opts.AuthorizedSources
	case model.PortalParts:
		section, field, prefix = "core_identification", "price", "price"
		allow = PartsPriceSources
	default:
		return
	}

	obj, ok := record[section].(map[string]any)
	if !ok {
		return
	}
	applyPriceGate(obj, field, prefix, allow)
}

// applyPriceGate rewrites the price claim and its metadata in place.
func applyPriceGate(obj map[string]any, field, prefix string, allow []string) {
	info := verify.ExtractSourceInfo(obj, prefix)
	valid := verify.FilterAuthorized(info.Sources, allow)

	if len(valid) < 2 {
		obj[field] = nil
		obj[prefix+"_confidence"] = nil
		obj[prefix+"_sources"] = []string{}
		obj[prefix+"_source_count"] = 0
		obj[prefix+"_verified"] = false
		return
	}

	obj[prefix+"_sources"] = valid
	obj[prefix+"_confidence"] = "verified"
	obj[prefix+"_source_count"] = len(valid)
	obj[prefix+"_verified"] = true
}
