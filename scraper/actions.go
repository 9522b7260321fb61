package scraper

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// clickElement finds the element matching selector and clicks it. When
// navigate is set it also waits for the load event of the page the click
// opens; the waiter is registered before the click so a fast navigation
// is not missed.
func clickElement(p *rod.Page, selector string, navigate bool, navTimeout time.Duration) error {
	el, err := p.Element(selector)
	if err != nil {
		return fmt.Errorf("element %q not found: %w", selector, err)
	}

	if !navigate {
		return el.Click(proto.InputMouseButtonLeft, 1)
	}

	np := p.Timeout(navTimeout)
	defer np.CancelTimeout()

	wait := np.WaitNavigation(proto.PageLifecycleEventNameLoad)
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return err
	}
	wait()
	return np.GetContext().Err()
}

// waitElements waits for at least one element matching selector.
func waitElements(p *rod.Page, selector string) error {
	return p.WaitElementsMoreThan(selector, 0)
}

// valueSelector narrows selector to the input whose value attribute is value.
func valueSelector(selector, value string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(value)
	return selector + "[value='" + escaped + "']"
}

// humanPause sleeps for a random duration in [lo, hi], or until ctx is done.
func humanPause(ctx context.Context, lo, hi time.Duration) error {
	d := lo
	if hi > lo {
		d += rand.N(hi - lo)
	}
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
