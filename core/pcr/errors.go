package pcr

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownPolymerase = errors.New("unknown polymerase")
	ErrUnknownPreset     = errors.New("unknown thermocycler preset")
	ErrUnknownParam      = errors.New("unknown thermocycler parameter")
	ErrBadValue          = errors.New("invalid value")
)

// ConfigError reports a construction-time misconfiguration. It unwraps to one
// of the sentinel errors above or to a quantity error.
type ConfigError struct {
	Field string
	Value string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("pcr: %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("pcr: %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func configErr(field, value string, err error) error {
	return &ConfigError{Field: field, Value: value, Err: err}
}
