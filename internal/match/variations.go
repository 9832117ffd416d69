// Package match resolves loosely-formatted model numbers against a catalog
// of product variants. Manufacturers are inconsistent about punctuation
// ("K2362" vs "K-2362-8"), so matching first generates plausible format
// variations of the input, then walks the catalog tier by tier.
package match

import "strings"

// DefaultPrefixes are the single-letter brand-style prefixes tried during
// variation generation. Overridable through Matcher configuration.
var DefaultPrefixes = []string{"K-", "G-", "M-", "A-", "UC-", "T-", "R-", "B-", "C-", "D-"}

// GenerateVariations produces format variations of a model number using the
// default prefix set. The trimmed original is always first; the result is
// de-duplicated case-insensitively preserving first-seen order.
func GenerateVariations(model string) []string {
	return generateVariations(model, DefaultPrefixes)
}

func generateVariations(model string, prefixes []string) []string {
	model = strings.TrimSpace(model)
	variations := []string{model}
	upper := strings.ToUpper(model)

	// Brand prefixes: "2362" under a Kohler-style catalog is really "K-2362".
	for _, prefix := range prefixes {
		p := strings.ToUpper(prefix)
		if strings.HasPrefix(upper, p[:1]) && !strings.HasPrefix(upper, p) {
			variations = append(variations, prefix+model)
		}
	}

	if strings.Contains(model, "-") {
		variations = append(variations, strings.ReplaceAll(model, "-", ""))
		if last := strings.LastIndex(model, "-"); last > 0 {
			variations = append(variations, model[:last]+model[last+1:])
		}
	} else if len(model) > 4 {
		// G9104BNI → G-9104-BNI and G-9104BNI.
		if isAlpha(model[0]) && allDigits(model[1:5]) {
			variations = append(variations,
				model[:1]+"-"+model[1:5]+"-"+model[5:],
				model[:1]+"-"+model[1:])
		}

		// Hyphenate every letter/digit boundary: UC15IP → UC15-IP, 97621SHP → 97621-SHP.
		for i := 2; i < len(model)-1; i++ {
			if isAlpha(model[i]) && isDigit(model[i-1]) {
				variations = append(variations, model[:i]+"-"+model[i:])
			}
			if isDigit(model[i]) && isAlpha(model[i-1]) {
				variations = append(variations, model[:i]+"-"+model[i:])
			}
		}
	}

	seen := make(map[string]struct{}, len(variations))
	unique := variations[:0]
	for _, v := range variations {
		key := strings.ToUpper(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, v)
	}
	return unique
}

func isAlpha(b byte) bool {
	return b >= 'A' && b <= 'Z' || b >= 'a' && b <= 'z'
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return len(s) > 0
}
