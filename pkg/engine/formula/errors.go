package formula

import (
	"errors"
	"fmt"
)

var (
	// ErrDivisionByZero is returned when a divisor evaluates to zero.
	ErrDivisionByZero = errors.New("division by zero")

	// ErrNonFinite is returned when evaluation produces NaN or an infinity.
	ErrNonFinite = errors.New("result is not a finite number")

	// ErrEmpty is returned for blank formulas.
	ErrEmpty = errors.New("empty formula")
)

// SyntaxError reports a formula that does not match the grammar.
type SyntaxError struct {
	Formula string
	Pos     int // Byte offset of the offending token
	Message string
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at offset %d in %q: %s", e.Pos, e.Formula, e.Message)
}

// UnknownIdentifierError reports an identifier with no binding.
type UnknownIdentifierError struct {
	Name string
}

// Error implements the error interface.
func (e *UnknownIdentifierError) Error() string {
	return fmt.Sprintf("unknown identifier %q", e.Name)
}
