package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/use-agent/ratewalk/config"
	"github.com/use-agent/ratewalk/extract"
	"github.com/use-agent/ratewalk/models"
	"github.com/use-agent/ratewalk/walker"
)

// RodForm drives the calculator in a single browser page. It is not safe
// for concurrent use.
type RodForm struct {
	page *rod.Page
	cfg  config.WalkerConfig
}

var _ walker.Form = (*RodForm)(nil)

func newRodForm(page *rod.Page, cfg config.WalkerConfig) *RodForm {
	return &RodForm{page: page, cfg: cfg}
}

// Start navigates to url and waits for the load event.
func (f *RodForm) Start(ctx context.Context, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, f.cfg.NavigationTimeout)
	defer cancel()

	p := f.page.Context(navCtx)
	if err := p.Navigate(url); err != nil {
		return categorizeError(err, models.ErrCodeNavigation, "navigation to start page failed")
	}
	if err := p.WaitLoad(); err != nil {
		return categorizeError(err, models.ErrCodeNavigation, "start page did not load")
	}
	return nil
}

// Click pauses for a human-like delay, then clicks selector.
func (f *RodForm) Click(ctx context.Context, selector string, navigate bool) error {
	if err := humanPause(ctx, f.cfg.ClickDelayMin, f.cfg.ClickDelayMax); err != nil {
		return categorizeError(err, models.ErrCodeActionFailed, "walk canceled")
	}

	actionCtx, cancel := context.WithTimeout(ctx, f.cfg.ActionTimeout)
	defer cancel()

	if err := clickElement(f.page.Context(actionCtx), selector, navigate, f.cfg.NavigationTimeout); err != nil {
		return categorizeError(err, models.ErrCodeActionFailed, fmt.Sprintf("click on %q failed", selector))
	}
	return nil
}

// Select clicks the input matching selector whose value is value.
func (f *RodForm) Select(ctx context.Context, selector, value string) error {
	return f.Click(ctx, valueSelector(selector, value), false)
}

// Options waits for the inputs matching selector to render and returns
// their values.
func (f *RodForm) Options(ctx context.Context, selector string) ([]string, error) {
	actionCtx, cancel := context.WithTimeout(ctx, f.cfg.ActionTimeout)
	defer cancel()

	p := f.page.Context(actionCtx)
	if err := waitElements(p, selector); err != nil {
		return nil, categorizeError(err, models.ErrCodeNavigation, fmt.Sprintf("no options matching %q", selector))
	}

	rawHTML, err := p.HTML()
	if err != nil {
		return nil, categorizeError(err, models.ErrCodeNavigation, "failed to read page HTML")
	}

	options, err := extract.OptionValues(rawHTML, selector)
	if err != nil {
		return nil, models.NewWalkError(models.ErrCodeExtraction, "failed to list options", err)
	}
	return options, nil
}

// Rates waits for the results screen to settle and parses it. The rendered
// Markdown of tableSelector is attached when it matches.
func (f *RodForm) Rates(ctx context.Context, sel extract.RateSelectors, tableSelector string) (*extract.RateTable, error) {
	actionCtx, cancel := context.WithTimeout(ctx, f.cfg.ActionTimeout)
	defer cancel()

	p := f.page.Context(actionCtx)
	if err := waitElements(p, sel.BaseRate); err != nil {
		return nil, categorizeError(err, models.ErrCodeNavigation, "results screen did not render")
	}
	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM",
			"error", err,
		)
	}

	rawHTML, err := p.HTML()
	if err != nil {
		return nil, categorizeError(err, models.ErrCodeNavigation, "failed to read results HTML")
	}

	table, err := extract.Rates(rawHTML, sel)
	if err != nil {
		return nil, err
	}

	if tableSelector != "" {
		md, mdErr := extract.TableMarkdown(rawHTML, tableSelector)
		if mdErr != nil {
			slog.Warn("rates table markdown failed", "error", mdErr)
		}
		table.Markdown = md
	}
	return table, nil
}

// categorizeError wraps raw errors into typed WalkErrors so the walker can
// tell timeouts from page failures.
func categorizeError(err error, code, msg string) *models.WalkError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewWalkError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewWalkError(models.ErrCodeCanceled, "walk canceled", err)
	default:
		return models.NewWalkError(code, msg, err)
	}
}
