package extract_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoutdeck/enricher/internal/domain"
	"github.com/scoutdeck/enricher/internal/extract"
	"github.com/scoutdeck/enricher/internal/logger"
)

const profilePage = `<!DOCTYPE html>
<html>
<body>
  <header class="data-header">
    <img class="data-header__profile-image" src="https://img.example.com/portrait/header/12345-1680000000.jpg">
    <span class="data-header__club">
      <a href="/fc-example/startseite/verein/987" title="FC Example">FC Example</a>
    </span>
    <div class="data-header__market-value-wrapper">
      1,5 mill. €
      <p class="data-header__last-update">Last update: 01/06/2026</p>
    </div>
  </header>
  <div class="info-table">
    <span class="info-table__content info-table__content--regular">F. Nacim./Edad:</span>
    <span class="info-table__content info-table__content--bold">12/03/1998 (28)</span>
    <span class="info-table__content info-table__content--regular">Altura:</span>
    <span class="info-table__content info-table__content--bold">1,85 m</span>
    <span class="info-table__content info-table__content--regular">Posición:</span>
    <span class="info-table__content info-table__content--bold">Defender - Centre-Back</span>
    <span class="info-table__content info-table__content--regular">Pie:</span>
    <span class="info-table__content info-table__content--bold">izquierdo</span>
    <span class="info-table__content info-table__content--regular">Nacionalidad:</span>
    <span class="info-table__content info-table__content--bold">
      <img class="flaggenrahmen" title="España"> <img class="flaggenrahmen" title="Argentina">
    </span>
    <span class="info-table__content info-table__content--regular">Selección nacional:</span>
    <span class="info-table__content info-table__content--bold">España U21</span>
    <span class="info-table__content info-table__content--regular">Cedido de:</span>
    <span class="info-table__content info-table__content--bold">
      <a href="/otro/startseite/verein/55" title="CA Example II">CA Example II</a>
    </span>
    <span class="info-table__content info-table__content--regular">Agencia:</span>
    <span class="info-table__content info-table__content--bold">Pro Football Agency</span>
    <span class="info-table__content info-table__content--regular">Contrato hasta:</span>
    <span class="info-table__content info-table__content--bold">30/06/2027</span>
    <span class="info-table__content info-table__content--regular">Agente:</span>
    <span class="info-table__content info-table__content--bold">
      <a href="/pro-football/berater/321">Jane Smith</a>
    </span>
  </div>
</body>
</html>`

func TestExtractFullProfile(t *testing.T) {
	e := extract.New("https://www.transfermarkt.es", logger.NewNoop())

	fields, err := e.Extract([]byte(profilePage))
	require.NoError(t, err)

	assert.Equal(t, "Jane Smith", fields[domain.FieldAdvisor])
	assert.Equal(t, "https://www.transfermarkt.es/pro-football/berater/321", fields[domain.FieldAdvisorURL])
	assert.Equal(t, time.Date(1998, 3, 12, 0, 0, 0, 0, time.UTC), fields[domain.FieldDateOfBirth])
	assert.Equal(t, "FC Example", fields[domain.FieldTeamName])
	assert.Equal(t, "CA Example II", fields[domain.FieldTeamLoanFrom])
	assert.Equal(t, "Defender - Centre-Back", fields[domain.FieldPosition])
	assert.Equal(t, "izquierdo", fields[domain.FieldFoot])
	assert.Equal(t, 185, fields[domain.FieldHeight])
	assert.Equal(t, "España", fields[domain.FieldNationality1])
	assert.Equal(t, "Argentina", fields[domain.FieldNationality2])
	assert.Equal(t, "España U21", fields[domain.FieldNationalTier])
	assert.Equal(t, "Pro Football Agency", fields[domain.FieldAgency])
	assert.Equal(t, time.Date(2027, 6, 30, 0, 0, 0, 0, time.UTC), fields[domain.FieldContractEnd])
	assert.Equal(t, int64(1_500_000), fields[domain.FieldMarketValue])
	assert.Equal(t, "https://img.example.com/portrait/header/12345-1680000000.jpg", fields[domain.FieldPhotoURL])
}

func TestExtractSparseProfileOmitsMissingFields(t *testing.T) {
	page := `<html><body>
	  <div class="info-table">
	    <span class="info-table__content info-table__content--regular">Altura:</span>
	    <span class="info-table__content info-table__content--bold">1,70 m</span>
	  </div>
	</body></html>`

	e := extract.New("https://www.transfermarkt.es", logger.NewNoop())

	fields, err := e.Extract([]byte(page))
	require.NoError(t, err)

	assert.Equal(t, 170, fields[domain.FieldHeight])
	assert.NotContains(t, fields, domain.FieldTeamName)
	assert.NotContains(t, fields, domain.FieldDateOfBirth)
	assert.NotContains(t, fields, domain.FieldMarketValue)
}

func TestExtractRejectsPlaceholderPhoto(t *testing.T) {
	page := `<html><body>
	  <header class="data-header">
	    <img class="data-header__profile-image" src="https://img.example.com/portrait/default.jpg">
	  </header>
	</body></html>`

	e := extract.New("https://www.transfermarkt.es", logger.NewNoop())

	fields, err := e.Extract([]byte(page))
	require.NoError(t, err)
	assert.NotContains(t, fields, domain.FieldPhotoURL)
}

func TestExtractRejectsUnparseableValues(t *testing.T) {
	page := `<html><body>
	  <div class="info-table">
	    <span class="info-table__content info-table__content--regular">F. Nacim./Edad:</span>
	    <span class="info-table__content info-table__content--bold">31/02/1998</span>
	    <span class="info-table__content info-table__content--regular">Altura:</span>
	    <span class="info-table__content info-table__content--bold">desconocida</span>
	  </div>
	</body></html>`

	e := extract.New("https://www.transfermarkt.es", logger.NewNoop())

	fields, err := e.Extract([]byte(page))
	require.NoError(t, err)
	assert.NotContains(t, fields, domain.FieldDateOfBirth)
	assert.NotContains(t, fields, domain.FieldHeight)
}

func TestExtractInvalidHTMLStillParses(t *testing.T) {
	e := extract.New("https://www.transfermarkt.es", logger.NewNoop())

	fields, err := e.Extract([]byte("not <html at all"))
	require.NoError(t, err)
	assert.Empty(t, fields)
}
