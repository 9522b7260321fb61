package walker

import (
	"context"

	"github.com/use-agent/ratewalk/extract"
	"github.com/use-agent/ratewalk/models"
)

// Form is the browser side of a walk. The rod implementation lives in the
// scraper package.
type Form interface {
	// Start loads the first screen, discarding any previous answers.
	Start(ctx context.Context, url string) error

	// Click clicks selector and, when navigate is set, waits for the page
	// load it triggers.
	Click(ctx context.Context, selector string, navigate bool) error

	// Select picks the option with the given value among the inputs
	// matching selector.
	Select(ctx context.Context, selector, value string) error

	// Options lists the values of the inputs matching selector, in display
	// order.
	Options(ctx context.Context, selector string) ([]string, error)

	// Rates reads the results screen.
	Rates(ctx context.Context, sel extract.RateSelectors, tableSelector string) (*extract.RateTable, error)
}

// Sink receives captured entries.
type Sink interface {
	Write(ctx context.Context, entry *models.Entry) error
}
