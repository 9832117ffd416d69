package verify

import "fmt"

// Severity buckets a verification rate for human-facing summaries.
// It never gates behavior.
type Severity string

const (
	SeverityGood    Severity = "good"
	SeverityWarning Severity = "warning"
	SeverityPoor    Severity = "poor"
)

// RateSeverity maps a verification rate to its severity tier.
func RateSeverity(rate float64) Severity {
	switch {
	case rate >= 80:
		return SeverityGood
	case rate >= 60:
		return SeverityWarning
	default:
		return SeverityPoor
	}
}

// Summary renders the one-line human-readable verification summary.
func (r *Report) Summary() string {
	return fmt.Sprintf("%d/%d critical fields verified (%g%%)",
		r.VerifiedFields, r.TotalCriticalFields, r.VerificationRate)
}

// Severity returns the severity tier for this report's rate.
func (r *Report) Severity() Severity {
	return RateSeverity(r.VerificationRate)
}

// Metadata is the verification block attached to API responses.
type Metadata struct {
	Summary             string                 `json:"summary"`
	Severity            Severity               `json:"severity"`
	Rate                float64                `json:"rate"`
	VerifiedCount       int                    `json:"verified_count"`
	TotalCriticalFields int                    `json:"total_critical_fields"`
	Strict              bool                   `json:"strict_mode"`
	FieldDetails        map[string]FieldDetail `json:"field_details,omitempty"`
}

// Meta builds the response metadata block from a report.
func (r *Report) Meta() Metadata {
	return Metadata{
		Summary:             r.Summary(),
		Severity:            r.Severity(),
		Rate:                r.VerificationRate,
		VerifiedCount:       r.VerifiedFields,
		TotalCriticalFields: r.TotalCriticalFields,
		Strict:              r.Strict,
		FieldDetails:        r.Fields,
	}
}
