package codebook

import (
	"errors"
	"fmt"
)

// Format errors.
var (
	// ErrFormat classifies every FormatError.
	ErrFormat = errors.New("codebook format error")

	// ErrLabelTooLong indicates a label that does not fit the header's label width.
	ErrLabelTooLong = errors.New("label longer than codebook label width")

	// ErrEntryOrder indicates an entry whose envelope length differs from the LP order.
	ErrEntryOrder = errors.New("entry envelope length does not match LP order")

	// ErrInvalidHeader indicates header fields that cannot describe a codebook.
	ErrInvalidHeader = errors.New("invalid codebook header")
)

// FormatError reports a corrupt, truncated or inconsistent codebook file.
type FormatError struct {
	Path   string
	Offset int64
	Reason string
}

func (e *FormatError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("codebook: %s (offset %d)", e.Reason, e.Offset)
	}
	return fmt.Sprintf("codebook %s: %s (offset %d)", e.Path, e.Reason, e.Offset)
}

// Is lets errors.Is(err, ErrFormat) match any FormatError.
func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

func formatError(offset int64, format string, args ...interface{}) *FormatError {
	return &FormatError{Offset: offset, Reason: fmt.Sprintf(format, args...)}
}
