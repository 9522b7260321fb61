package enumerator

import "errors"

// Contract violations. They are always returned wrapped with the stage they
// concern (when there is one); match them with errors.Is.
var (
	ErrInvalidOptionSet     = errors.New("option list is empty")
	ErrNoNextStage          = errors.New("no stage left to discover")
	ErrIncompleteDiscovery  = errors.New("advance called before every stage was discovered")
	ErrAlreadyExhausted     = errors.New("enumeration already exhausted")
	ErrNoCurrentCombination = errors.New("no complete combination selected")
)
