// Package verify enforces the two-source evidentiary bar on AI-enriched
// product records. Every critical field must be corroborated by at least
// two independent authorized sources before it is trusted; anything weaker
// is flagged and, in strict mode, nulled.
package verify

import (
	"fmt"
	"strings"
)

// Status classifies the verification outcome for a single field.
type Status string

const (
	// StatusVerified means 2+ corroborating sources were found.
	StatusVerified Status = "verified"
	// StatusInsufficientSources means exactly one source was found.
	StatusInsufficientSources Status = "insufficient_sources"
	// StatusNoSourceTracking means no source metadata was supplied at all.
	StatusNoSourceTracking Status = "no_source_tracking"
	// StatusNoData means the field itself was absent or empty on input.
	StatusNoData Status = "no_data"
)

// SourceInfo holds the per-field source metadata the asserter supplied.
type SourceInfo struct {
	Count      int      `json:"source_count"`
	Sources    []string `json:"sources"`
	Confidence string   `json:"confidence,omitempty"`
	Declared   bool     `json:"declared"`
}

// Outcome is the result of validating one field against the 2-source policy.
type Outcome struct {
	Value       any      `json:"value"`
	Verified    bool     `json:"verified"`
	Confidence  string   `json:"confidence,omitempty"`
	SourceCount int      `json:"source_count"`
	Sources     []string `json:"sources"`
	Status      Status   `json:"status"`
}

// ExtractSourceInfo pulls source metadata for a field out of a raw AI
// response. It looks for <field>_source_count, <field>_sources,
// <field>_confidence and <field>_verified siblings, then retries with
// progressively shortened field prefixes so "msrp_sources" serves
// "msrp_price"; when nothing matches it falls back to splitting a
// free-text verified_by string on commas.
func ExtractSourceInfo(data map[string]any, field string) SourceInfo {
	for prefix := field; prefix != ""; prefix = dropLastSegment(prefix) {
		info := SourceInfo{
			Count:      toInt(data[prefix+"_source_count"]),
			Sources:    toStringSlice(data[prefix+"_sources"]),
			Confidence: toString(data[prefix+"_confidence"]),
			Declared:   toBool(data[prefix+"_verified"]),
		}
		if info.Count == 0 && len(info.Sources) > 0 {
			info.Count = len(info.Sources)
		}
		if info.Count > 0 || len(info.Sources) > 0 {
			return info
		}
	}

	// No explicit metadata: infer from a "verified_by" summary string.
	var info SourceInfo
	if by := toString(data["verified_by"]); by != "" {
		for _, s := range strings.Split(by, ",") {
			if s = strings.TrimSpace(s); s != "" {
				info.Sources = append(info.Sources, s)
			}
		}
		info.Count = len(info.Sources)
	}
	return info
}

// dropLastSegment trims the final underscore-delimited word, so
// "msrp_price" becomes "msrp". Single-word names trim to nothing.
func dropLastSegment(name string) string {
	i := strings.LastIndexByte(name, '_')
	if i < 0 {
		return ""
	}
	return name[:i]
}

// ValidateField applies the 2-source policy to a single field value.
// It never fails: malformed input degrades to no_source_tracking.
func ValidateField(value any, info SourceInfo, strict bool) Outcome {
	if isEmpty(value) {
		return Outcome{Status: StatusNoData, Sources: []string{}}
	}

	switch {
	case info.Count >= 2:
		conf := info.Confidence
		if conf == "" {
			conf = string(StatusVerified)
		}
		return Outcome{
			Value:       value,
			Verified:    true,
			Confidence:  conf,
			SourceCount: info.Count,
			Sources:     orEmpty(info.Sources),
			Status:      StatusVerified,
		}
	case info.Count == 1:
		return Outcome{
			Value:       keepUnlessStrict(value, strict),
			Confidence:  "single-source",
			SourceCount: 1,
			Sources:     orEmpty(info.Sources),
			Status:      StatusInsufficientSources,
		}
	default:
		return Outcome{
			Value:   keepUnlessStrict(value, strict),
			Sources: []string{},
			Status:  StatusNoSourceTracking,
		}
	}
}

// FilterAuthorized reduces a source-name list to names matching the
// authorized allow-list. Names are normalized (lowercased, spaces and dots
// stripped) and kept when they contain any allow-list entry, so
// "Home Depot (homedepot.com)" clears "homedepot". Padding the list with
// unrecognized retailers does not help an asserter reach the 2-source bar.
func FilterAuthorized(sources, allowlist []string) []string {
	var kept []string
	for _, s := range sources {
		norm := normalizeSource(s)
		for _, auth := range allowlist {
			if auth != "" && strings.Contains(norm, normalizeSource(auth)) {
				kept = append(kept, s)
				break
			}
		}
	}
	return kept
}

// AuthorizeInfo rewrites SourceInfo counting only authorized source names.
// A field citing three sources of which one is authorized validates as a
// single-source claim, not a three-source one.
func AuthorizeInfo(info SourceInfo, allowlist []string) SourceInfo {
	if len(allowlist) == 0 {
		return info
	}
	valid := FilterAuthorized(info.Sources, allowlist)
	return SourceInfo{
		Count:      len(valid),
		Sources:    valid,
		Confidence: info.Confidence,
		Declared:   info.Declared && len(valid) >= 2,
	}
}

func normalizeSource(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "")
	return strings.ReplaceAll(s, ".", "")
}

func keepUnlessStrict(value any, strict bool) any {
	if strict {
		return nil
	}
	return value
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// isEmpty reports whether a decoded JSON value carries no data.
func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	case []string:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	default:
		return false
	}
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func toBool(v any) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return false
}

func toStringSlice(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			out = append(out, fmt.Sprintf("%v", e))
		}
		return out
	default:
		return nil
	}
}
