// Package reconcile decides, field by field, whether a scraped value should
// replace what is already stored. Scraped pages are full of placeholder
// values that are less informative than curated data, so every field runs
// through a rule before anything is written.
package reconcile

import (
	"strings"
	"time"
)

// Decision is the outcome of a single reconciliation rule. When ShouldUpdate
// is true, Value holds the normalized value to persist.
type Decision struct {
	ShouldUpdate bool
	Value        any
}

func keep(v any) Decision { return Decision{ShouldUpdate: true, Value: v} }
func skip() Decision      { return Decision{} }

// isGenericDate reports whether a date is the 1st-of-January placeholder that
// sources emit when only the birth year is known.
func isGenericDate(d time.Time) bool {
	return d.Month() == time.January && d.Day() == 1
}

// DateOfBirth never replaces a specific stored date with a generic
// 1-January placeholder.
func DateOfBirth(existing *time.Time, scraped time.Time) Decision {
	if existing == nil || existing.IsZero() {
		return keep(scraped)
	}
	if isGenericDate(scraped) {
		if isGenericDate(*existing) && !scraped.Equal(*existing) {
			return keep(scraped)
		}
		return skip()
	}
	if isGenericDate(*existing) {
		return keep(scraped)
	}
	if !scraped.Equal(*existing) {
		return keep(scraped)
	}
	return skip()
}

// TeamName reconciles a club name, resolving ambiguous short names through
// the alias table using the player's stored country. The same rule serves
// the loan-origin club.
func TeamName(existing, scraped, country string) Decision {
	scrapedUnknown := isUnknownTeam(scraped)
	existingUnknown := isUnknownTeam(existing)

	if strings.TrimSpace(existing) == "" {
		if scrapedUnknown {
			return skip()
		}
		return keep(resolveTeamAlias(scraped, country))
	}

	if scrapedUnknown {
		return skip()
	}

	resolved := resolveTeamAlias(scraped, country)
	if existingUnknown || resolved != existing {
		return keep(resolved)
	}

	return skip()
}

// Position strips generic category prefixes before comparing. A bare
// category name never replaces a more specific stored position.
func Position(existing, scraped string) Decision {
	cleaned := strings.TrimSpace(scraped)
	for _, prefix := range positionPrefixes {
		cleaned = strings.TrimPrefix(cleaned, prefix)
	}
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return skip()
	}

	generic := genericPositions[strings.ToLower(cleaned)]

	if strings.TrimSpace(existing) == "" {
		return keep(cleaned)
	}
	if generic {
		return skip()
	}
	if cleaned != existing {
		return keep(cleaned)
	}

	return skip()
}

// Height bounds for a plausible adult player, in centimeters.
const (
	minValidHeight = 140
	maxValidHeight = 220
)

// Height discards implausible values and otherwise writes on change.
func Height(existing, scraped int) Decision {
	if scraped < minValidHeight || scraped > maxValidHeight {
		return skip()
	}
	if existing <= 0 || scraped != existing {
		return keep(scraped)
	}
	return skip()
}

// Nationality applies the spelling-correction table unconditionally. The
// second return is false when the field should be dropped.
func Nationality(scraped string) (string, bool) {
	trimmed := strings.TrimSpace(scraped)
	if trimmed == "" {
		return "", false
	}
	if canonical, ok := nationalityCorrections[strings.ToLower(trimmed)]; ok {
		if canonical == "" {
			return "", false
		}
		return canonical, true
	}
	return trimmed, true
}

// NationalTier normalizes national-team tier spellings the same way, over
// the youth-tier table.
func NationalTier(scraped string) (string, bool) {
	trimmed := strings.TrimSpace(scraped)
	if trimmed == "" {
		return "", false
	}
	if canonical, ok := tierCorrections[strings.ToLower(trimmed)]; ok {
		if canonical == "" {
			return "", false
		}
		return canonical, true
	}
	return trimmed, true
}

// Agency discards generic non-values and strips trailing truncation markers.
func Agency(existing, scraped string) Decision {
	cleaned := strings.TrimSpace(scraped)
	cleaned = strings.TrimRight(cleaned, ".…")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" || agencyGenerics[strings.ToLower(strings.TrimSpace(scraped))] {
		return skip()
	}

	if strings.TrimSpace(existing) == "" || cleaned != existing {
		return keep(cleaned)
	}

	return skip()
}
