package plan

import (
	"errors"
	"fmt"
)

// ErrMissingRouterAddress means the spender address could not be
// resolved from configuration.
var ErrMissingRouterAddress = errors.New("router address is not configured")

// InsufficientLPBalanceError is raised before any call is issued when a
// removal asks for more LP tokens than the caller holds.
type InsufficientLPBalanceError struct {
	Requested string
	Available string
}

func (e *InsufficientLPBalanceError) Error() string {
	return fmt.Sprintf("insufficient LP balance: requested %s, have %s", e.Requested, e.Available)
}
