package reconcile

import (
	"time"

	"github.com/scoutdeck/enricher/internal/domain"
)

// Apply runs every applicable rule against the extracted field set, mutating
// it in place: entries that a rule rejects are deleted, entries a rule
// normalizes are replaced. Fields with no guarding rule (advisor, foot,
// contract end, market value, photo) pass through untouched.
func Apply(player *domain.Player, fields domain.FieldMap) {
	if scraped, ok := fields[domain.FieldDateOfBirth].(time.Time); ok {
		resolve(fields, domain.FieldDateOfBirth, DateOfBirth(player.DateOfBirth, scraped))
	}

	country := deref(player.TeamCountry)

	if scraped, ok := fields[domain.FieldTeamName].(string); ok {
		resolve(fields, domain.FieldTeamName, TeamName(deref(player.TeamName), scraped, country))
	}

	if scraped, ok := fields[domain.FieldTeamLoanFrom].(string); ok {
		resolve(fields, domain.FieldTeamLoanFrom, TeamName(deref(player.TeamLoanFrom), scraped, country))
	}

	if scraped, ok := fields[domain.FieldPosition].(string); ok {
		resolve(fields, domain.FieldPosition, Position(deref(player.Position), scraped))
	}

	if scraped, ok := fields[domain.FieldHeight].(int); ok {
		existing := 0
		if player.Height != nil {
			existing = *player.Height
		}
		resolve(fields, domain.FieldHeight, Height(existing, scraped))
	}

	for _, key := range []string{domain.FieldNationality1, domain.FieldNationality2} {
		if scraped, ok := fields[key].(string); ok {
			if corrected, keep := Nationality(scraped); keep {
				fields[key] = corrected
			} else {
				delete(fields, key)
			}
		}
	}

	if scraped, ok := fields[domain.FieldNationalTier].(string); ok {
		if corrected, keep := NationalTier(scraped); keep {
			fields[domain.FieldNationalTier] = corrected
		} else {
			delete(fields, domain.FieldNationalTier)
		}
	}

	if scraped, ok := fields[domain.FieldAgency].(string); ok {
		resolve(fields, domain.FieldAgency, Agency(deref(player.Agency), scraped))
	}
}

func resolve(fields domain.FieldMap, key string, d Decision) {
	if d.ShouldUpdate {
		fields[key] = d.Value
	} else {
		delete(fields, key)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
