// ABOUTME: Error taxonomy for the experiment assignment engine
// ABOUTME: Sentinels for every failure kind plus the partial setup error carrying committed rounds
package campaign

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidGeneratorComposition means a referenced variable generator is missing or has no variables.
	ErrInvalidGeneratorComposition = errors.New("invalid generator composition")
	// ErrEmptyVariableBank means an arm has no candidate variables.
	ErrEmptyVariableBank = errors.New("empty variable bank")
	// ErrCustomerNotFound means a pooled customer no longer resolves to a stored document.
	ErrCustomerNotFound = errors.New("customer not found")
	// ErrInsufficientCustomers means the pool cannot fill a round.
	ErrInsufficientCustomers = errors.New("insufficient customers")
	ErrMissingCountry        = errors.New("country is required")
	ErrInvalidRequest        = errors.New("invalid request")
)

// PartialSetupError reports a setup that stopped after Committed of Requested
// rounds. Committed rounds stay persisted.
type PartialSetupError struct {
	Committed int
	Requested int
	Err       error
}

func (e *PartialSetupError) Error() string {
	return fmt.Sprintf("setup stopped after %d of %d rounds: %v", e.Committed, e.Requested, e.Err)
}

func (e *PartialSetupError) Unwrap() error {
	return e.Err
}
