package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Plausibility bounds for parsed values. Out-of-range results are rejected
// rather than returned as nonsense.
const (
	minBirthYear = 1900
	minHeightCm  = 50
	maxHeightCm  = 300
)

var monthNames = map[string]time.Month{
	// Spanish
	"enero": time.January, "febrero": time.February, "marzo": time.March,
	"abril": time.April, "mayo": time.May, "junio": time.June,
	"julio": time.July, "agosto": time.August, "septiembre": time.September,
	"octubre": time.October, "noviembre": time.November, "diciembre": time.December,
	"ene": time.January, "feb": time.February, "mar": time.March,
	"abr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "ago": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dic": time.December,
	// English
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "june": time.June, "july": time.July,
	"august": time.August, "september": time.September, "october": time.October,
	"november": time.November, "december": time.December,
	"jan": time.January, "apr": time.April, "aug": time.August, "dec": time.December,
}

var (
	numericDateRe = regexp.MustCompile(`(\d{1,2})[/.](\d{1,2})[/.](\d{4})`)
	spanishDateRe = regexp.MustCompile(`(?i)(\d{1,2})\s+(?:de\s+)?([\p{L}]+)\.?\s+(?:de\s+)?(\d{4})`)
	englishDateRe = regexp.MustCompile(`(?i)([\p{L}]+)\.?\s+(\d{1,2}),\s*(\d{4})`)
	ageSuffixRe   = regexp.MustCompile(`\s*\(\d+\)\s*$`)
)

// ParseDate parses a scraped date string. Accepted forms: DD/MM/YYYY,
// DD.MM.YYYY, "12 mar. 1998", "12 de marzo de 1998", "Mar 12, 1998". A
// trailing "(age)" suffix is stripped. Invalid or out-of-range dates are
// rejected.
func ParseDate(s string) (time.Time, bool) {
	s = ageSuffixRe.ReplaceAllString(strings.TrimSpace(s), "")
	if s == "" {
		return time.Time{}, false
	}

	if m := numericDateRe.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		return makeDate(year, time.Month(month), day)
	}

	if m := spanishDateRe.FindStringSubmatch(s); m != nil {
		if month, ok := lookupMonth(m[2]); ok {
			day, _ := strconv.Atoi(m[1])
			year, _ := strconv.Atoi(m[3])
			return makeDate(year, month, day)
		}
	}

	if m := englishDateRe.FindStringSubmatch(s); m != nil {
		if month, ok := lookupMonth(m[1]); ok {
			day, _ := strconv.Atoi(m[2])
			year, _ := strconv.Atoi(m[3])
			return makeDate(year, month, day)
		}
	}

	return time.Time{}, false
}

func lookupMonth(name string) (time.Month, bool) {
	month, ok := monthNames[strings.ToLower(strings.TrimSuffix(name, "."))]
	return month, ok
}

// makeDate validates the components by round-tripping through time.Date:
// an overflowing day (e.g. 31/02) normalizes to a different month.
func makeDate(year int, month time.Month, day int) (time.Time, bool) {
	if year < minBirthYear || year > time.Now().Year()+1 {
		return time.Time{}, false
	}
	if month < time.January || month > time.December || day < 1 || day > 31 {
		return time.Time{}, false
	}

	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if d.Day() != day || d.Month() != month {
		return time.Time{}, false
	}

	return d, true
}

var (
	heightMetersRe = regexp.MustCompile(`(\d)[,.](\d{1,2})\s*m`)
	heightCmRe     = regexp.MustCompile(`(\d{2,3})\s*cm`)
)

// ParseHeight parses a height string into centimeters. Accepts meter-decimal
// forms ("1,85 m", "1.85 m") and plain centimeters ("185 cm").
func ParseHeight(s string) (int, bool) {
	s = strings.TrimSpace(s)

	if m := heightMetersRe.FindStringSubmatch(s); m != nil {
		meters, err := strconv.ParseFloat(m[1]+"."+m[2], 64)
		if err == nil {
			return validHeight(int(meters*100 + 0.5))
		}
	}

	if m := heightCmRe.FindStringSubmatch(s); m != nil {
		cm, err := strconv.Atoi(m[1])
		if err == nil {
			return validHeight(cm)
		}
	}

	return 0, false
}

func validHeight(cm int) (int, bool) {
	if cm < minHeightCm || cm > maxHeightCm {
		return 0, false
	}
	return cm, true
}

var marketValueRe = regexp.MustCompile(`(?i)([\d.,]+)\s*(mill?\.?|mio\.?|m\b|mil\b|k)?`)

// ParseMarketValue parses a market value string into whole euros. Resolves
// "k"/"mil" (thousands) and "mill."/"mio."/"m" (millions) suffixes and
// European decimal/thousands separators: "1.500.000" -> 1500000,
// "1,5 mill. €" -> 1500000, "350 k€" -> 350000.
func ParseMarketValue(s string) (int64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, "€", ""))
	if s == "" || strings.EqualFold(s, "-") {
		return 0, false
	}

	m := marketValueRe.FindStringSubmatch(s)
	if m == nil || m[1] == "" {
		return 0, false
	}

	value, ok := parseEuropeanNumber(m[1])
	if !ok {
		return 0, false
	}

	switch suffix := strings.ToLower(strings.TrimSuffix(m[2], ".")); suffix {
	case "mill", "mio", "m":
		value *= 1_000_000
	case "mil", "k":
		value *= 1_000
	}

	if value < 0 {
		return 0, false
	}

	return int64(value + 0.5), true
}

// parseEuropeanNumber handles "1.500.000" (dot thousands), "1,5" (comma
// decimal) and mixed "1.234,56" forms.
func parseEuropeanNumber(s string) (float64, bool) {
	hasDot := strings.Contains(s, ".")
	hasComma := strings.Contains(s, ",")

	switch {
	case hasDot && hasComma:
		// Dots group thousands, comma marks the decimal.
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case hasComma:
		s = strings.Replace(s, ",", ".", 1)
	case hasDot:
		// A single trailing group of three is a thousands separator
		// ("1.500"); anything else ("1.5") is a decimal point.
		parts := strings.Split(s, ".")
		if len(parts) > 2 || len(parts[len(parts)-1]) == 3 {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}

	return value, true
}
