// Package extract pulls player profile fields out of fetched HTML pages.
package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/scoutdeck/enricher/internal/domain"
	"github.com/scoutdeck/enricher/internal/logger"
)

// Info-table labels vary with the site language, so every helper matches
// against both the Spanish and English variants.

// Extractor parses a player profile page into a field map. Fields that are
// absent from the page or fail to parse are simply left out of the result.
type Extractor struct {
	baseURL string
	logger  logger.Interface
}

// New creates an Extractor. baseURL is used to resolve relative links found
// on the page.
func New(baseURL string, log logger.Interface) *Extractor {
	return &Extractor{baseURL: baseURL, logger: log}
}

// Extract parses the page body and returns every field it could recover.
func (e *Extractor) Extract(body []byte) (domain.FieldMap, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	fields := domain.FieldMap{}

	if name, href := extractAdvisor(doc); name != "" {
		fields[domain.FieldAdvisor] = name
		if href != "" {
			fields[domain.FieldAdvisorURL] = e.resolveURL(href)
		}
	}

	if raw := extractBirthDate(doc); raw != "" {
		if dob, ok := ParseDate(raw); ok {
			fields[domain.FieldDateOfBirth] = dob
		} else {
			e.logger.Debug("unparseable birth date", "raw", raw)
		}
	}

	if team := extractTeamName(doc); team != "" {
		fields[domain.FieldTeamName] = team
	}

	if loan := extractLoanFrom(doc); loan != "" {
		fields[domain.FieldTeamLoanFrom] = loan
	}

	if pos := extractPosition(doc); pos != "" {
		fields[domain.FieldPosition] = pos
	}

	if foot := extractFoot(doc); foot != "" {
		fields[domain.FieldFoot] = foot
	}

	if raw := extractHeight(doc); raw != "" {
		if cm, ok := ParseHeight(raw); ok {
			fields[domain.FieldHeight] = cm
		} else {
			e.logger.Debug("unparseable height", "raw", raw)
		}
	}

	if nats := extractNationalities(doc); len(nats) > 0 {
		fields[domain.FieldNationality1] = nats[0]
		if len(nats) > 1 {
			fields[domain.FieldNationality2] = nats[1]
		}
	}

	if tier := extractNationalTier(doc); tier != "" {
		fields[domain.FieldNationalTier] = tier
	}

	if agency := extractAgency(doc); agency != "" {
		fields[domain.FieldAgency] = agency
	}

	if raw := extractContractEnd(doc); raw != "" {
		if end, ok := ParseDate(raw); ok {
			fields[domain.FieldContractEnd] = end
		}
	}

	if raw := extractMarketValue(doc); raw != "" {
		if value, ok := ParseMarketValue(raw); ok {
			fields[domain.FieldMarketValue] = value
		}
	}

	if photo := extractPhotoURL(doc); photo != "" {
		fields[domain.FieldPhotoURL] = e.resolveURL(photo)
	}

	return fields, nil
}

func (e *Extractor) resolveURL(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}

	base, err := url.Parse(e.baseURL)
	if err != nil {
		return href
	}

	ref, err := url.Parse(href)
	if err != nil {
		return href
	}

	return base.ResolveReference(ref).String()
}

// infoTableValue finds the bold value span that follows a matching label span
// in the profile info table.
func infoTableValue(doc *goquery.Document, labels ...string) *goquery.Selection {
	var found *goquery.Selection

	doc.Find("span.info-table__content--regular").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		label := strings.TrimSpace(s.Text())
		for _, want := range labels {
			if strings.EqualFold(label, want) {
				found = s.NextFiltered("span.info-table__content--bold")
				return false
			}
		}
		return true
	})

	return found
}

func infoTableText(doc *goquery.Document, labels ...string) string {
	if s := infoTableValue(doc, labels...); s != nil {
		return collapseWhitespace(s.Text())
	}
	return ""
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func extractAdvisor(doc *goquery.Document) (name, href string) {
	link := doc.Find(`a[href*="/berater/"]`).First()
	if link.Length() == 0 {
		if s := infoTableValue(doc, "Agente:", "Player agent:"); s != nil {
			link = s.Find("a").First()
		}
	}
	if link == nil || link.Length() == 0 {
		return "", ""
	}

	name = collapseWhitespace(link.Text())
	if name == "" {
		name = strings.TrimSpace(link.AttrOr("title", ""))
	}
	href = link.AttrOr("href", "")

	return name, href
}

func extractBirthDate(doc *goquery.Document) string {
	if s := doc.Find(`span[itemprop="birthDate"]`).First(); s.Length() > 0 {
		return collapseWhitespace(s.Text())
	}
	return infoTableText(doc, "F. Nacim./Edad:", "Fecha de nacimiento:", "Date of birth/Age:", "Date of birth:")
}

func extractTeamName(doc *goquery.Document) string {
	link := doc.Find(`.data-header__club a[href*="/startseite/verein/"]`).First()
	if link.Length() > 0 {
		if title := strings.TrimSpace(link.AttrOr("title", "")); title != "" {
			return title
		}
		return collapseWhitespace(link.Text())
	}

	if s := infoTableValue(doc, "Club actual:", "Current club:"); s != nil {
		if a := s.Find("a").Last(); a.Length() > 0 {
			if title := strings.TrimSpace(a.AttrOr("title", "")); title != "" {
				return title
			}
			return collapseWhitespace(a.Text())
		}
		return collapseWhitespace(s.Text())
	}

	return ""
}

func extractLoanFrom(doc *goquery.Document) string {
	if s := infoTableValue(doc, "Cedido de:", "On loan from:"); s != nil {
		if a := s.Find("a").Last(); a.Length() > 0 {
			if title := strings.TrimSpace(a.AttrOr("title", "")); title != "" {
				return title
			}
			return collapseWhitespace(a.Text())
		}
		return collapseWhitespace(s.Text())
	}
	return ""
}

func extractPosition(doc *goquery.Document) string {
	if pos := infoTableText(doc, "Posición:", "Position:"); pos != "" {
		return pos
	}
	return collapseWhitespace(doc.Find(".data-header__position").First().Text())
}

func extractFoot(doc *goquery.Document) string {
	return infoTableText(doc, "Pie:", "Foot:")
}

func extractHeight(doc *goquery.Document) string {
	if s := doc.Find(`span[itemprop="height"]`).First(); s.Length() > 0 {
		return collapseWhitespace(s.Text())
	}
	return infoTableText(doc, "Altura:", "Height:")
}

func extractNationalities(doc *goquery.Document) []string {
	s := infoTableValue(doc, "Nacionalidad:", "Citizenship:")
	if s == nil {
		return nil
	}

	var nats []string
	seen := map[string]bool{}

	add := func(name string) {
		name = collapseWhitespace(name)
		if name != "" && !seen[name] {
			seen[name] = true
			nats = append(nats, name)
		}
	}

	s.Find("img.flaggenrahmen").Each(func(_ int, img *goquery.Selection) {
		add(img.AttrOr("title", ""))
	})

	if len(nats) == 0 {
		for _, part := range strings.Split(s.Text(), ",") {
			add(part)
		}
	}

	return nats
}

func extractNationalTier(doc *goquery.Document) string {
	return infoTableText(doc, "Selección nacional:", "Current international:", "Former International:")
}

func extractAgency(doc *goquery.Document) string {
	return infoTableText(doc, "Agencia:", "Agente:", "Player agent:")
}

func extractContractEnd(doc *goquery.Document) string {
	return infoTableText(doc, "Contrato hasta:", "Contract expires:")
}

func extractMarketValue(doc *goquery.Document) string {
	wrapper := doc.Find(".data-header__market-value-wrapper").First()
	if wrapper.Length() == 0 {
		return ""
	}

	// Drop the "Last update" sub-element before reading the value text.
	clone := wrapper.Clone()
	clone.Find("p, .data-header__last-update").Remove()

	return collapseWhitespace(clone.Text())
}

// defaultPhotoMarkers identify placeholder portraits that must not be stored.
var defaultPhotoMarkers = []string{"default.jpg", "platzhalter", "placeholder", "photo-missing"}

func extractPhotoURL(doc *goquery.Document) string {
	img := doc.Find("img.data-header__profile-image").First()
	if img.Length() == 0 {
		return ""
	}

	src := strings.TrimSpace(img.AttrOr("src", ""))
	if src == "" {
		src = strings.TrimSpace(img.AttrOr("data-src", ""))
	}

	lower := strings.ToLower(src)
	for _, marker := range defaultPhotoMarkers {
		if strings.Contains(lower, marker) {
			return ""
		}
	}

	return src
}
