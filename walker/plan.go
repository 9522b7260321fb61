package walker

import (
	"fmt"

	"github.com/use-agent/ratewalk/enumerator"
	"github.com/use-agent/ratewalk/extract"
)

// StepKind says what the walker does on a screen.
type StepKind string

const (
	// StepClick clicks a fixed element.
	StepClick StepKind = "click"

	// StepFixed selects the input whose value is Step.Value.
	StepFixed StepKind = "fixed"

	// StepChoose is an enumerated stage: its options are listed from the
	// page and every one of them is eventually selected.
	StepChoose StepKind = "choose"

	// StepCapture runs Step.Clicks and reads the results screen.
	StepCapture StepKind = "capture"

	// StepNone does nothing besides the optional Next.
	StepNone StepKind = "none"
)

// Click is one click in a capture sequence. Navigate waits for the page
// load the click triggers.
type Click struct {
	Selector string
	Navigate bool
}

// Step describes one screen of the form.
type Step struct {
	Name string
	Kind StepKind

	// Selector is the clicked element for StepClick, and the option inputs
	// for StepFixed and StepChoose.
	Selector string

	// Value is the option selected by StepFixed.
	Value string

	// Clicks is the sequence run by StepCapture before reading the rates.
	Clicks []Click

	// Next presses the plan's next button once the step is done.
	Next bool
}

// Plan is a complete pass through the form.
type Plan struct {
	Award      string
	StartURL   string
	NextButton string
	Steps      []Step

	Rates      extract.RateSelectors
	RatesTable string

	// Limit stops the walk after this many captured combinations; 0 walks
	// everything.
	Limit int
}

// Stages returns the enumerated stages in screen order.
func (p *Plan) Stages() []enumerator.Stage {
	var stages []enumerator.Stage
	for _, s := range p.Steps {
		if s.Kind == StepChoose {
			stages = append(stages, enumerator.Stage(s.Name))
		}
	}
	return stages
}

// Validate checks the plan before any browser work starts.
func (p *Plan) Validate() error {
	if p.StartURL == "" {
		return fmt.Errorf("plan: start URL is required")
	}
	if err := extract.ValidateSelector(p.NextButton); err != nil {
		return fmt.Errorf("plan: next button: %w", err)
	}

	seen := make(map[string]struct{}, len(p.Steps))
	captures := 0
	for i, s := range p.Steps {
		if s.Name == "" {
			return fmt.Errorf("plan: step %d has no name", i)
		}
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("plan: duplicate step name %q", s.Name)
		}
		seen[s.Name] = struct{}{}

		switch s.Kind {
		case StepClick, StepChoose:
			if err := extract.ValidateSelector(s.Selector); err != nil {
				return fmt.Errorf("plan: step %q: %w", s.Name, err)
			}
		case StepFixed:
			if err := extract.ValidateSelector(s.Selector); err != nil {
				return fmt.Errorf("plan: step %q: %w", s.Name, err)
			}
			if s.Value == "" {
				return fmt.Errorf("plan: step %q: fixed step needs a value", s.Name)
			}
		case StepCapture:
			captures++
			if i != len(p.Steps)-1 {
				return fmt.Errorf("plan: capture step %q must be last", s.Name)
			}
			for _, c := range s.Clicks {
				if err := extract.ValidateSelector(c.Selector); err != nil {
					return fmt.Errorf("plan: step %q: %w", s.Name, err)
				}
			}
		case StepNone:
		default:
			return fmt.Errorf("plan: step %q: unknown kind %q", s.Name, s.Kind)
		}
	}

	if len(p.Stages()) == 0 {
		return fmt.Errorf("plan: no enumerated steps")
	}
	if captures != 1 {
		return fmt.Errorf("plan: exactly one capture step is required")
	}
	return nil
}
