package registry

import "strings"

// ClassifyBusinessType maps a portal label to its closed-set tag. Labels
// vary in capitalization and punctuation across filing eras, so matching is
// on normalized substrings. Returns false for anything outside the set.
func ClassifyBusinessType(label string) (BusinessType, bool) {
	norm := strings.ToLower(strings.Join(strings.Fields(label), " "))
	norm = strings.NewReplacer("–", "-", "—", "-").Replace(norm)
	if norm == "" {
		return "", false
	}

	foreign := strings.Contains(norm, "foreign")

	switch {
	case strings.Contains(norm, "assumed name"):
		return TypeAssumedName, true
	case strings.Contains(norm, "service mark"):
		return TypeServiceMark, true
	case strings.Contains(norm, "trademark"):
		return TypeTrademark, true
	case strings.Contains(norm, "nonprofit") || strings.Contains(norm, "non-profit"):
		return TypeNonprofit, true
	case strings.Contains(norm, "business corporation") || strings.Contains(norm, "corporation ("):
		if foreign {
			return TypeCorporationForeign, true
		}
		return TypeCorporationDomestic, true
	case strings.Contains(norm, "limited liability company") || strings.HasPrefix(norm, "llc"):
		if foreign {
			return TypeLLCForeign, true
		}
		return TypeLLCDomestic, true
	case strings.Contains(norm, "limited partnership"):
		return TypeLimitedPartnership, true
	case strings.Contains(norm, "cooperative"):
		return TypeCooperative, true
	}
	return "", false
}
