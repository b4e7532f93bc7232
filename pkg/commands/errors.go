package commands

import (
	"errors"
	"fmt"
)

const (
	ErrorUnknownCommand   = "unknown_command"
	ErrorInvalidArguments = "invalid_arguments"
	ErrorUnavailable      = "unavailable"
	ErrorInternal         = "internal_error"
)

// Error is a categorised command failure. Detail is safe to show to the
// sender.
type Error struct {
	Category string
	Detail   string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Detail == "" {
		return e.Category
	}

	return fmt.Sprintf("%s: %s", e.Category, e.Detail)
}

// NewError creates a categorised command error.
func NewError(category string, detail string) error {
	return &Error{Category: category, Detail: detail}
}

// Usage reports invalid arguments together with the expected usage line.
func Usage(usage string) error {
	return NewError(ErrorInvalidArguments, "usage: "+usage)
}

// CategoryFromError returns the stable category for an error when available.
func CategoryFromError(err error) string {
	if err == nil {
		return ""
	}

	var categorized *Error
	if errors.As(err, &categorized) {
		return categorized.Category
	}

	return ErrorInternal
}

// userMessage is the text shown to the sender for a categorised failure.
func userMessage(err error) string {
	var categorized *Error
	if !errors.As(err, &categorized) {
		return "command failed"
	}
	if categorized.Detail != "" {
		return categorized.Detail
	}

	return categorized.Category
}
