package walker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/use-agent/ratewalk/config"
	"github.com/use-agent/ratewalk/enumerator"
	"github.com/use-agent/ratewalk/extract"
	"github.com/use-agent/ratewalk/models"
	"golang.org/x/time/rate"
)

// Summary describes a finished (or aborted) walk.
type Summary struct {
	Combinations int
	Retries      int
	Duration     time.Duration
	Exhausted    bool
}

// Walker drives a Form through every combination of a Plan.
//
// A Walker can run several walks concurrently as long as each uses its own
// Form; the step pacing is per walk.
type Walker struct {
	cfg           config.WalkerConfig
	retryInterval time.Duration
}

// New creates a Walker.
func New(cfg config.WalkerConfig) *Walker {
	return &Walker{
		cfg:           cfg,
		retryInterval: time.Second,
	}
}

// Run enumerates every combination of plan's stages, writing one entry per
// combination to sink.
//
// Each pass starts from the first screen. Stages the enumerator already knows
// get their recorded choice; the first unknown stage is listed from the page
// and discovered. After the capture step the entry is written and the
// enumerator advanced. A failing pass is retried with exponential backoff; a
// discovery made during a failed pass stays valid for the retry.
func (w *Walker) Run(ctx context.Context, plan *Plan, form Form, sink Sink) (*Summary, error) {
	if err := plan.Validate(); err != nil {
		return nil, models.NewWalkError(models.ErrCodeInvalidInput, err.Error(), err)
	}

	start := time.Now()
	summary := &Summary{}
	en := enumerator.New(plan.Stages()...)
	limiter := w.newLimiter()

	for {
		var entry *models.Entry
		attempt := 0
		op := func() error {
			attempt++
			e, err := w.pass(ctx, plan, form, en, limiter)
			if err != nil {
				if isPermanent(ctx, err) {
					return backoff.Permanent(err)
				}
				slog.Warn("pass failed, retrying",
					"award", plan.Award,
					"combination", summary.Combinations+1,
					"attempt", attempt,
					"error", err,
				)
				return err
			}
			entry = e
			return nil
		}

		if err := backoff.Retry(op, w.newBackOff(ctx)); err != nil {
			summary.Duration = time.Since(start)
			if ctxErr := ctx.Err(); ctxErr != nil {
				return summary, categorizeError(ctxErr, "walk canceled")
			}
			return summary, err
		}
		summary.Retries += attempt - 1

		if err := sink.Write(ctx, entry); err != nil {
			summary.Duration = time.Since(start)
			return summary, models.NewWalkError(models.ErrCodeDataset, "failed to write entry", err)
		}
		summary.Combinations++

		slog.Debug("combination captured",
			"award", plan.Award,
			"choices", entry.Choices,
			"hourlyRate", entry.HourlyRate,
		)

		if en.Exhausted() {
			summary.Exhausted = true
			break
		}
		if plan.Limit > 0 && summary.Combinations >= plan.Limit {
			break
		}
		if err := en.Advance(); err != nil {
			summary.Duration = time.Since(start)
			return summary, models.NewWalkError(models.ErrCodeEnumeration, "failed to advance", err)
		}
	}

	summary.Duration = time.Since(start)
	slog.Info("walk finished",
		"award", plan.Award,
		"combinations", summary.Combinations,
		"retries", summary.Retries,
		"exhausted", summary.Exhausted,
		"duration", summary.Duration.Round(time.Millisecond).String(),
	)
	return summary, nil
}

// pass runs the plan once from the first screen and returns the captured entry.
func (w *Walker) pass(ctx context.Context, plan *Plan, form Form, en *enumerator.Enumerator, limiter *rate.Limiter) (*models.Entry, error) {
	if err := form.Start(ctx, plan.StartURL); err != nil {
		return nil, err
	}

	var entry *models.Entry
	stage := 0
	for _, step := range plan.Steps {
		if err := limiter.Wait(ctx); err != nil {
			return nil, categorizeError(err, "walk canceled")
		}

		switch step.Kind {
		case StepClick:
			if err := form.Click(ctx, step.Selector, false); err != nil {
				return nil, err
			}

		case StepFixed:
			if err := form.Select(ctx, step.Selector, step.Value); err != nil {
				return nil, err
			}

		case StepChoose:
			label, err := w.choice(ctx, form, en, stage, step)
			if err != nil {
				return nil, err
			}
			if err := form.Select(ctx, step.Selector, label); err != nil {
				return nil, err
			}
			stage++

		case StepCapture:
			for _, c := range step.Clicks {
				if err := form.Click(ctx, c.Selector, c.Navigate); err != nil {
					return nil, err
				}
			}
			table, err := form.Rates(ctx, plan.Rates, plan.RatesTable)
			if err != nil {
				return nil, err
			}
			combo, err := en.Combination()
			if err != nil {
				return nil, models.NewWalkError(models.ErrCodeEnumeration, "capture reached before every stage was chosen", err)
			}
			entry = newEntry(plan.Award, combo, table)
		}

		if step.Next {
			if err := form.Click(ctx, plan.NextButton, true); err != nil {
				return nil, err
			}
		}
	}

	if entry == nil {
		return nil, models.NewWalkError(models.ErrCodeInternal, "plan finished without a capture", nil)
	}
	return entry, nil
}

// choice returns the label to select for the stage at index i, discovering
// the stage from the page first when the enumerator does not know it yet.
func (w *Walker) choice(ctx context.Context, form Form, en *enumerator.Enumerator, i int, step Step) (string, error) {
	if label, ok := en.Choice(i); ok {
		return label, nil
	}

	options, err := form.Options(ctx, step.Selector)
	if err != nil {
		return "", err
	}
	if err := en.Discover(options); err != nil {
		return "", models.NewWalkError(models.ErrCodeEnumeration,
			fmt.Sprintf("failed to discover %s options", step.Name), err)
	}
	slog.Debug("stage discovered", "stage", step.Name, "options", len(options))

	label, _ := en.Choice(i)
	return label, nil
}

// ListAwards runs plan up to its first enumerated step and returns the
// options offered there.
func (w *Walker) ListAwards(ctx context.Context, plan *Plan, form Form) ([]string, error) {
	if plan.StartURL == "" {
		return nil, models.NewWalkError(models.ErrCodeInvalidInput, "start URL is required", nil)
	}
	if err := form.Start(ctx, plan.StartURL); err != nil {
		return nil, err
	}

	for _, step := range plan.Steps {
		switch step.Kind {
		case StepChoose:
			return form.Options(ctx, step.Selector)
		case StepClick:
			if err := form.Click(ctx, step.Selector, false); err != nil {
				return nil, err
			}
		case StepFixed:
			if err := form.Select(ctx, step.Selector, step.Value); err != nil {
				return nil, err
			}
		}
		if step.Next {
			if err := form.Click(ctx, plan.NextButton, true); err != nil {
				return nil, err
			}
		}
	}
	return nil, models.NewWalkError(models.ErrCodeInvalidInput, "plan has no listing step", nil)
}

func (w *Walker) newLimiter() *rate.Limiter {
	if w.cfg.StepsPerSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(w.cfg.StepsPerSecond), 1)
}

func (w *Walker) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = w.retryInterval
	b.MaxElapsedTime = 0

	retries := w.cfg.PassRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}

// isPermanent reports errors a new pass cannot fix. A step timing out is
// retried unless the walk itself is over. An empty option list is not
// permanent either: the page is queried again on the next pass.
func isPermanent(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	var walkErr *models.WalkError
	if errors.As(err, &walkErr) {
		switch walkErr.Code {
		case models.ErrCodeInvalidInput, models.ErrCodeBrowserCrash:
			return true
		case models.ErrCodeEnumeration:
			return !errors.Is(err, enumerator.ErrInvalidOptionSet)
		}
	}
	return false
}

func newEntry(award string, combo enumerator.Combination, table *extract.RateTable) *models.Entry {
	classification, _ := combo.Label(StageClassification)
	age, _ := combo.Label(StageAge)
	return &models.Entry{
		Award:          award,
		Classification: classification,
		Age:            age,
		HourlyRate:     table.HourlyRate,
		Penalties:      table.Penalties,
		Choices:        combo.Map(),
		RatesMarkdown:  table.Markdown,
		CapturedAt:     time.Now().Unix(),
	}
}

// categorizeError wraps context errors into WalkErrors.
func categorizeError(err error, msg string) *models.WalkError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewWalkError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewWalkError(models.ErrCodeCanceled, "walk canceled", err)
	default:
		return models.NewWalkError(models.ErrCodeInternal, msg, err)
	}
}
