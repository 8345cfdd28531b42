package sizing

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfig      = errors.New("invalid system configuration")
	ErrNonPositive        = errors.New("value must be greater than zero")
	ErrOutOfRange         = errors.New("value out of range")
	ErrUnknownChemistry   = errors.New("unknown battery chemistry")
	ErrUnsupportedVoltage = errors.New("unsupported system voltage")

	ErrInvalidLoad     = errors.New("invalid load")
	ErrNegativeValue   = errors.New("value must not be negative")
	ErrHoursOutOfRange = errors.New("hours per day must be within [0, 24]")
	ErrNotFinite       = errors.New("value must be a finite number")
)

// ConfigValidationError reports a system parameter that would break a sizing
// formula. It matches ErrInvalidConfig and its specific cause with errors.Is.
type ConfigValidationError struct {
	Field string
	Value any
	Err   error
}

func (e *ConfigValidationError) Error() string {
	return fmt.Sprintf("config %s=%v: %v", e.Field, e.Value, e.Err)
}

func (e *ConfigValidationError) Unwrap() []error {
	return []error{ErrInvalidConfig, e.Err}
}

// InputDataError reports a load record that cannot be sized.
type InputDataError struct {
	Index int
	Name  string
	Field string
	Value float64
	Err   error
}

func (e *InputDataError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s=%v: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("load #%d (%q) %s=%v: %v", e.Index, e.Name, e.Field, e.Value, e.Err)
}

func (e *InputDataError) Unwrap() []error {
	return []error{ErrInvalidLoad, e.Err}
}

func configErr(field string, value any, err error) error {
	return &ConfigValidationError{Field: field, Value: value, Err: err}
}
