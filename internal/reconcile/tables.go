package reconcile

import (
	"fmt"
	"strings"
)

// unknownTeamMarkers flag a team value as a placeholder. Matching is a
// case-insensitive substring test.
var unknownTeamMarkers = []string{
	"unknown",
	"none",
	"unk",
	"unknown club",
	"sin club",
	"without club",
}

// teamAliases disambiguates short club names that collide across countries.
// Keyed by lowercased scraped name, then lowercased country.
var teamAliases = map[string]map[string]string{
	"independiente": {
		"argentina": "CA Independiente",
	},
	"nacional": {
		"uruguay":  "Club Nacional de Football",
		"paraguay": "Club Nacional Asunción",
		"colombia": "Atlético Nacional",
	},
	"river plate": {
		"argentina": "CA River Plate",
		"uruguay":   "River Plate Montevideo",
	},
	"liverpool": {
		"uruguay": "Liverpool Montevideo",
	},
	"everton": {
		"chile": "Everton de Viña del Mar",
	},
	"barcelona": {
		"ecuador": "Barcelona SC",
	},
	"atletico": {
		"spain": "Atlético de Madrid",
	},
}

// positionPrefixes are generic category markers stripped from scraped
// positions before comparison.
var positionPrefixes = []string{
	"Defender - ",
	"Midfield - ",
	"Midfielder - ",
	"Attack - ",
	"Goalkeeper - ",
}

// genericPositions are bare category names that carry no information beyond
// what the prefix already said.
var genericPositions = map[string]bool{
	"defender":   true,
	"midfield":   true,
	"midfielder": true,
	"attack":     true,
	"striker":    true,
	"forward":    true,
	"goalkeeper": true,
}

// nationalityCorrections maps alternate and localized spellings to canonical
// English country names. Keys are lowercase.
var nationalityCorrections = map[string]string{
	"españa":               "Spain",
	"alemania":             "Germany",
	"francia":              "France",
	"inglaterra":           "England",
	"italia":               "Italy",
	"países bajos":         "Netherlands",
	"holanda":              "Netherlands",
	"estados unidos":       "United States",
	"costa de marfil":      "Ivory Coast",
	"cote d'ivoire":        "Ivory Coast",
	"turquía":              "Turkey",
	"türkiye":              "Turkey",
	"korea, south":         "South Korea",
	"corea del sur":        "South Korea",
	"bosnia-herzegovina":   "Bosnia and Herzegovina",
	"bosnia y herzegovina": "Bosnia and Herzegovina",
	"the gambia":           "Gambia",
	"cabo verde":           "Cape Verde",
	"brasil":               "Brazil",
	"méxico":               "Mexico",
	"marruecos":            "Morocco",
	"suiza":                "Switzerland",
	"gales":                "Wales",
	"escocia":              "Scotland",
	"irlanda":              "Ireland",
	"irlanda del norte":    "Northern Ireland",
}

// tierCorrections normalizes national-team tier spellings. Keys are
// lowercase; an empty value drops the field. Youth-tier variants for U15
// through U23 are generated in init.
var tierCorrections = map[string]string{
	"absoluta":        "Senior",
	"senior":          "Senior",
	"selección":       "Senior",
	"primera":         "Senior",
	"sub-20 femenina": "U20",
	"olímpica":        "U23",
	"olimpica":        "U23",
	"sin convocar":    "",
	"ninguna":         "",
}

func init() {
	for tier := 15; tier <= 23; tier++ {
		canonical := fmt.Sprintf("U%d", tier)
		for _, variant := range []string{
			fmt.Sprintf("u%d", tier),
			fmt.Sprintf("u-%d", tier),
			fmt.Sprintf("sub-%d", tier),
			fmt.Sprintf("sub %d", tier),
		} {
			tierCorrections[variant] = canonical
		}
	}
}

// agencyGenerics are non-informative agency values that are discarded
// outright. Keys are lowercase.
var agencyGenerics = map[string]bool{
	"no agent":           true,
	"sin agente":         true,
	"unknown":            true,
	"n/a":                true,
	"-":                  true,
	"...":                true,
	"to be confirmed":    true,
	"player is a minor":  true,
	"jugador menor":      true,
	"family member":      true,
	"relatives":          true,
	"no representative":  true,
	"sin representante":  true,
	"agente desconocido": true,
}

func isUnknownTeam(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "" {
		return true
	}
	for _, marker := range unknownTeamMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// resolveTeamAlias maps an ambiguous club name to its canonical form for the
// given country. Unambiguous names pass through unchanged.
func resolveTeamAlias(name, country string) string {
	byCountry, ok := teamAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return name
	}
	if canonical, ok := byCountry[strings.ToLower(strings.TrimSpace(country))]; ok {
		return canonical
	}
	return name
}
