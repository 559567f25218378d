package models

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var ErrValidation = errors.New("validation failed")

// ValidationError describes a form field rejected before dispatch.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// optionalFloat parses s when it is non-blank. Blank input yields nil.
func optionalFloat(field, s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := parseNumber(field, s)
	if err != nil {
		return nil, err
	}
	if v < 0 {
		return nil, invalid(field, "must not be negative")
	}
	return &v, nil
}

// parseNumber accepts finite decimal numbers only; NaN and Inf cannot be
// encoded as JSON.
func parseNumber(field, s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, invalid(field, "must be a number")
	}
	return v, nil
}

func optionalInt(field, s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, invalid(field, "must be a whole number")
	}
	if v < 0 {
		return nil, invalid(field, "must not be negative")
	}
	return &v, nil
}

func optionalString(s string) string {
	return strings.TrimSpace(s)
}
