// Package enumerator walks every combination of choices across an ordered
// sequence of dependent stages.
//
// The options of a stage are only known once every earlier stage has a
// committed choice, so the enumerator discovers them lazily and forgets them
// again whenever an earlier choice changes. It behaves like a mixed-radix
// odometer whose radix per digit is learned on demand: the last stage is the
// least significant digit, and a carry out of a stage clears that stage so the
// caller must rediscover it under the new prefix.
//
// An Enumerator performs no I/O and is not safe for concurrent use.
package enumerator

import "fmt"

// Stage identifies one decision point.
type Stage string

// Choice is the label selected for a stage.
type Choice struct {
	Stage Stage
	Label string
}

// Combination is one full assignment of labels, in stage order.
type Combination []Choice

// Label returns the label chosen for stage.
func (c Combination) Label(stage Stage) (string, bool) {
	for _, ch := range c {
		if ch.Stage == stage {
			return ch.Label, true
		}
	}
	return "", false
}

// Map returns the combination keyed by stage name.
func (c Combination) Map() map[string]string {
	m := make(map[string]string, len(c))
	for _, ch := range c {
		m[string(ch.Stage)] = ch.Label
	}
	return m
}

// Enumerator holds the selection state for an ordered list of stages.
type Enumerator struct {
	stages  []Stage
	options [][]string // nil = not yet discovered
	current []int      // -1 = unset
	cursor  int        // last discovered stage, -1 before the first

	exploring bool
	exhausted bool
}

// New returns an Enumerator over stages with nothing discovered yet.
//
// With no stages the Enumerator never becomes ready: Exploring stays true,
// Discover fails with ErrNoNextStage, Advance with ErrIncompleteDiscovery and
// Combination with ErrNoCurrentCombination. Callers pass at least one stage.
func New(stages ...Stage) *Enumerator {
	e := &Enumerator{
		stages:    append([]Stage(nil), stages...),
		options:   make([][]string, len(stages)),
		current:   make([]int, len(stages)),
		cursor:    -1,
		exploring: true,
	}
	for i := range e.current {
		e.current[i] = -1
	}
	return e
}

// Stages returns the stage sequence.
func (e *Enumerator) Stages() []Stage {
	return append([]Stage(nil), e.stages...)
}

// Cursor returns the index of the most recently discovered stage, or -1.
func (e *Enumerator) Cursor() int { return e.cursor }

// Exploring reports whether some stage still has to be discovered.
func (e *Enumerator) Exploring() bool { return e.exploring }

// Exhausted reports whether the final combination has been selected.
func (e *Enumerator) Exhausted() bool { return e.exhausted }

// NextStage returns the stage Discover will fill next.
func (e *Enumerator) NextStage() (Stage, bool) {
	next := e.cursor + 1
	if next >= len(e.stages) {
		return "", false
	}
	return e.stages[next], true
}

// Choice returns the current label of the stage at index i. ok is false
// when that stage has not been discovered.
func (e *Enumerator) Choice(i int) (label string, ok bool) {
	if i < 0 || i >= len(e.stages) || e.current[i] < 0 {
		return "", false
	}
	return e.options[i][e.current[i]], true
}

// Options returns the discovered option list of the stage at index i, or nil.
func (e *Enumerator) Options(i int) []string {
	if i < 0 || i >= len(e.stages) || e.options[i] == nil {
		return nil
	}
	return append([]string(nil), e.options[i]...)
}

// Discover records the options of the stage following the cursor and selects
// its first option.
func (e *Enumerator) Discover(listing []string) error {
	if e.exhausted {
		return ErrAlreadyExhausted
	}
	next := e.cursor + 1
	if next >= len(e.stages) {
		return ErrNoNextStage
	}
	if len(listing) == 0 {
		return fmt.Errorf("stage %q: %w", e.stages[next], ErrInvalidOptionSet)
	}

	e.options[next] = append([]string(nil), listing...)
	e.current[next] = 0
	e.cursor = next
	if next == len(e.stages)-1 {
		e.exploring = false
	}
	e.exhausted = e.exhaustionCheck()
	return nil
}

// Advance selects the next combination in odometer order.
//
// When a stage runs out of options it is cleared and the carry moves to the
// stage before it; the cursor then rests on the stage whose choice changed
// and Exploring reports true until the cleared stages are rediscovered.
func (e *Enumerator) Advance() error {
	if e.exhausted {
		return ErrAlreadyExhausted
	}
	if e.exploring {
		if next, ok := e.NextStage(); ok {
			return fmt.Errorf("stage %q: %w", next, ErrIncompleteDiscovery)
		}
		return ErrIncompleteDiscovery
	}

	// Find the rightmost stage that can still move before touching anything,
	// so a carry past the first stage leaves the state intact.
	pivot := len(e.stages) - 1
	for pivot >= 0 && e.current[pivot] == len(e.options[pivot])-1 {
		pivot--
	}
	if pivot < 0 {
		e.exhausted = e.exhaustionCheck()
		return nil
	}

	e.current[pivot]++
	for i := pivot + 1; i < len(e.stages); i++ {
		e.options[i] = nil
		e.current[i] = -1
	}
	if pivot < len(e.stages)-1 {
		e.cursor = pivot
		e.exploring = true
	}
	e.exhausted = e.exhaustionCheck()
	return nil
}

// Combination returns the selected label of every stage.
func (e *Enumerator) Combination() (Combination, error) {
	if e.exploring {
		return nil, ErrNoCurrentCombination
	}
	combo := make(Combination, len(e.stages))
	for i, s := range e.stages {
		if e.current[i] < 0 {
			return nil, fmt.Errorf("stage %q: %w", s, ErrNoCurrentCombination)
		}
		combo[i] = Choice{Stage: s, Label: e.options[i][e.current[i]]}
	}
	return combo, nil
}

// exhaustionCheck is true when every stage sits on its last option. An
// undiscovered stage never counts as exhausted.
func (e *Enumerator) exhaustionCheck() bool {
	if len(e.stages) == 0 {
		return false
	}
	for i := range e.stages {
		if e.options[i] == nil || e.current[i] != len(e.options[i])-1 {
			return false
		}
	}
	return true
}
