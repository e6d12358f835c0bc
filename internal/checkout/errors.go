package checkout

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart   = errors.New("cart is empty, nothing to checkout")
	ErrNoSession   = errors.New("not signed in")
	ErrNoLastOrder = errors.New("no completed order for this session")
)

// ValidationError rejects a form field before any write happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
