package verify

import "math"

// Options controls whole-record validation.
type Options struct {
	// Portal names the record family (catalog, parts, home_products).
	// Informational only; carried into the report.
	Portal string
	// CriticalFields lists the dot-path fields requiring 2-source
	// corroboration. Fields outside this list are never touched.
	CriticalFields []string
	// AuthorizedSources, when non-empty, restricts which source names
	// count toward the 2-source bar.
	AuthorizedSources []string
	// Strict nulls unverified values instead of merely flagging them.
	Strict bool
}

// FieldDetail is the per-field entry in a Report.
type FieldDetail struct {
	Verified    bool     `json:"verified"`
	SourceCount int      `json:"source_count"`
	Sources     []string `json:"sources,omitempty"`
	Confidence  string   `json:"confidence,omitempty"`
	Status      Status   `json:"status"`
}

// Report aggregates verification results over one record.
type Report struct {
	Portal              string                 `json:"portal"`
	TotalCriticalFields int                    `json:"total_critical_fields"`
	VerifiedFields      int                    `json:"verified_fields"`
	UnverifiedFields    int                    `json:"unverified_fields"`
	MissingFields       int                    `json:"missing_fields"`
	VerificationRate    float64                `json:"verification_rate"`
	Strict              bool                   `json:"strict_mode"`
	Fields              map[string]FieldDetail `json:"field_details"`
}

// ValidateRecord validates every critical field of an AI-enriched record
// and returns a copy with policy applied plus the aggregate report. The
// input map is never mutated. Nested fields are addressed by dot path.
func ValidateRecord(data map[string]any, opts Options) (map[string]any, *Report) {
	report := &Report{
		Portal:              opts.Portal,
		TotalCriticalFields: len(opts.CriticalFields),
		Strict:              opts.Strict,
		Fields:              make(map[string]FieldDetail, len(opts.CriticalFields)),
	}

	validated := deepCopyMap(data)

	for _, path := range opts.CriticalFields {
		value := getPath(data, path)

		// Source metadata lives as flat siblings keyed by the leaf name.
		info := ExtractSourceInfo(flatten(data, path), leafName(path))
		info = AuthorizeInfo(info, opts.AuthorizedSources)

		outcome := ValidateField(value, info, opts.Strict)

		switch outcome.Status {
		case StatusVerified:
			report.VerifiedFields++
		case StatusNoData:
			report.MissingFields++
		default:
			report.UnverifiedFields++
		}

		report.Fields[path] = FieldDetail{
			Verified:    outcome.Verified,
			SourceCount: outcome.SourceCount,
			Sources:     outcome.Sources,
			Confidence:  outcome.Confidence,
			Status:      outcome.Status,
		}

		if opts.Strict && !outcome.Verified && value != nil {
			setPath(validated, path, nil)
		}
	}

	if report.TotalCriticalFields > 0 {
		rate := float64(report.VerifiedFields) / float64(report.TotalCriticalFields) * 100
		report.VerificationRate = math.Round(rate*100) / 100
	}

	return validated, report
}

// flatten returns the map holding the metadata siblings of path: the parent
// object for nested fields, the record itself for top-level fields.
func flatten(data map[string]any, path string) map[string]any {
	parent := parentPath(path)
	if parent == "" {
		return data
	}
	if m, ok := getPath(data, parent).(map[string]any); ok {
		return m
	}
	return data
}
