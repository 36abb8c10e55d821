package domain

import "time"

// Player is the projection of a player record needed to run one scrape pass:
// identity, the profile URL to fetch, and the stored values the reconciliation
// rules compare against. The players table is owned by the scouting platform;
// this service only reads this projection and writes partial updates.
type Player struct {
	ID         string `db:"id" json:"id"`
	Name       string `db:"name" json:"name"`
	ProfileURL string `db:"profile_url" json:"profile_url"`

	DateOfBirth  *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	TeamName     *string    `db:"team_name" json:"team_name,omitempty"`
	TeamCountry  *string    `db:"team_country" json:"team_country,omitempty"`
	TeamLoanFrom *string    `db:"team_loan_from" json:"team_loan_from,omitempty"`
	Position     *string    `db:"position" json:"position,omitempty"`
	Height       *int       `db:"height" json:"height,omitempty"`
	Agency       *string    `db:"agency" json:"agency,omitempty"`
}

// FieldMap is a flat set of column name -> value pairs. The extractor produces
// candidate values; the orchestrator persists only the entries that survive
// reconciliation.
type FieldMap map[string]any

// Field names shared between the extractor, the reconciliation rules and the
// player repository.
const (
	FieldAdvisor      = "advisor"
	FieldAdvisorURL   = "advisor_url"
	FieldDateOfBirth  = "date_of_birth"
	FieldTeamName     = "team_name"
	FieldTeamLoanFrom = "team_loan_from"
	FieldPosition     = "position"
	FieldFoot         = "foot"
	FieldHeight       = "height"
	FieldNationality1 = "nationality_1"
	FieldNationality2 = "nationality_2"
	FieldNationalTier = "national_tier"
	FieldAgency       = "agency"
	FieldContractEnd  = "contract_end"
	FieldMarketValue  = "market_value"
	FieldPhotoURL     = "photo_url"
)
