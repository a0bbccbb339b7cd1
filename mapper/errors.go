package mapper

import (
	"errors"
	"fmt"
)

// ErrConfiguration classifies every ConfigurationError.
var ErrConfiguration = errors.New("mapper configuration error")

// ConfigurationError reports a query the mapper refuses to answer: an LP
// order mismatch, an empty mandatory candidate set or unusable parameters.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "mapper: " + e.Reason
}

// Is lets errors.Is(err, ErrConfiguration) match any ConfigurationError.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

func configError(format string, args ...interface{}) error {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}
