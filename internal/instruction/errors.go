package instruction

import "fmt"

// UnknownTokenError reports a symbol with no registry entry. Not retried;
// the caller shows it to the user.
type UnknownTokenError struct {
	Symbol string
}

func (e *UnknownTokenError) Error() string {
	return fmt.Sprintf("unknown token: %s", e.Symbol)
}

// InvalidAmountFormatError reports an amount that failed the decimal
// pattern after thousands separators were stripped.
type InvalidAmountFormatError struct {
	Raw string
}

func (e *InvalidAmountFormatError) Error() string {
	return fmt.Sprintf("invalid amount format: %q", e.Raw)
}

// MissingFieldError reports a field the chosen variant requires.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field: %s", e.Field)
}
