package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/ratewalk/models"
)

// RateSelectors locate the pay figures on the results screen.
type RateSelectors struct {
	// BaseRate matches the element holding the base hourly rate.
	BaseRate string

	// PenaltyRows matches one element per penalty row.
	PenaltyRows string

	// PenaltyName and PenaltyRate are evaluated inside each row.
	PenaltyName string
	PenaltyRate string
}

// RateTable is what the results screen yields for one combination.
type RateTable struct {
	HourlyRate string
	Penalties  []models.Penalty
	Markdown   string
}

// Rates parses the base rate and penalty rows out of the results page HTML.
// Rows without a name are skipped. It fails with EXTRACTION_FAILED when the
// page carries neither a base rate nor any penalty.
func Rates(rawHTML string, sel RateSelectors) (*RateTable, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, models.NewWalkError(models.ErrCodeExtraction, "failed to parse results page", err)
	}

	table := &RateTable{
		HourlyRate: CleanLabel(doc.Find(sel.BaseRate).First().Text()),
		Penalties:  []models.Penalty{},
	}

	doc.Find(sel.PenaltyRows).Each(func(_ int, row *goquery.Selection) {
		name := CleanLabel(row.Find(sel.PenaltyName).First().Text())
		if name == "" {
			return
		}
		table.Penalties = append(table.Penalties, models.Penalty{
			Name: name,
			Rate: CleanLabel(row.Find(sel.PenaltyRate).First().Text()),
		})
	})

	if table.HourlyRate == "" && len(table.Penalties) == 0 {
		return nil, models.NewWalkError(models.ErrCodeExtraction, "results page has no rates", nil)
	}
	return table, nil
}
