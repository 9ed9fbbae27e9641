package errors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedOperator is wrapped by ConfigurationError for unknown leaf operators.
	ErrUnsupportedOperator = errors.New("unsupported operator")

	// ErrUnknownPracticeType is wrapped by ConfigurationError for practice types outside the closed set.
	ErrUnknownPracticeType = errors.New("unknown practice type")

	// ErrMalformedCondition is wrapped by ConfigurationError for composites with bad arity.
	ErrMalformedCondition = errors.New("malformed condition")
)

// ValidationError reports a malformed rule or project document.
type ValidationError struct {
	File    string
	RuleID  string
	Field   string
	Message string
}

// NewValidationError creates a validation error.
func NewValidationError(file, ruleID, field, message string) *ValidationError {
	return &ValidationError{File: file, RuleID: ruleID, Field: field, Message: message}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation error")
	if e.File != "" {
		sb.WriteString(" in ")
		sb.WriteString(e.File)
	}
	if e.RuleID != "" {
		sb.WriteString(fmt.Sprintf(" (rule %s)", e.RuleID))
	}
	if e.Field != "" {
		sb.WriteString(fmt.Sprintf(": field %q", e.Field))
	}
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	return sb.String()
}

// ConfigurationError reports a rule the engine cannot execute.
type ConfigurationError struct {
	File       string
	RuleID     string
	Constraint string
	Err        error
}

// NewConfigurationError creates a configuration error wrapping one of the sentinel errors.
func NewConfigurationError(ruleID, constraint string, err error) *ConfigurationError {
	return &ConfigurationError{RuleID: ruleID, Constraint: constraint, Err: err}
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	var sb strings.Builder
	sb.WriteString("configuration error")
	if e.File != "" {
		sb.WriteString(" in ")
		sb.WriteString(e.File)
	}
	if e.RuleID != "" {
		sb.WriteString(fmt.Sprintf(" (rule %s)", e.RuleID))
	}
	sb.WriteString(": ")
	sb.WriteString(e.Constraint)
	return sb.String()
}

// Unwrap returns the underlying sentinel error.
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// WithFile returns a copy of the error annotated with the source file.
func (e *ConfigurationError) WithFile(file string) *ConfigurationError {
	cp := *e
	cp.File = file
	return &cp
}

// ErrorList collects multiple load-time errors.
type ErrorList struct {
	Errors []error
}

// NewErrorList creates an empty error list.
func NewErrorList() *ErrorList {
	return &ErrorList{Errors: make([]error, 0)}
}

// Add appends an error to the list. Nil errors are ignored.
func (el *ErrorList) Add(err error) {
	if err == nil {
		return
	}
	el.Errors = append(el.Errors, err)
}

// AddValidation creates and adds a ValidationError.
func (el *ErrorList) AddValidation(file, ruleID, field, message string) {
	el.Add(NewValidationError(file, ruleID, field, message))
}

// HasErrors returns true if the list is not empty.
func (el *ErrorList) HasErrors() bool {
	return len(el.Errors) > 0
}

// Count returns the number of errors in the list.
func (el *ErrorList) Count() int {
	return len(el.Errors)
}

// Error implements the error interface.
func (el *ErrorList) Error() string {
	if !el.HasErrors() {
		return ""
	}
	if len(el.Errors) == 1 {
		return el.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("found %d error(s):", el.Count()))
	for _, err := range el.Errors {
		sb.WriteString("\n  - ")
		sb.WriteString(err.Error())
	}
	return sb.String()
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (el *ErrorList) Unwrap() []error {
	return el.Errors
}

// ToError returns nil if the list is empty, otherwise the list itself.
func (el *ErrorList) ToError() error {
	if !el.HasErrors() {
		return nil
	}
	return el
}

// IsConfiguration reports whether err is or wraps a ConfigurationError.
func IsConfiguration(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var valErr *ValidationError
	return errors.As(err, &valErr)
}
