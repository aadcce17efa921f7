package models

import (
	"errors"
	"strings"
)

// ErrEmptyNiche is reported when the niche is empty or only whitespace.
var ErrEmptyNiche = errors.New("niche must not be empty")

// ValidationError is a user input problem that is resolved locally,
// without contacting the AI service.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Niche is the market segment under analysis. The zero value is not valid.
type Niche string

// NewNiche trims the raw input and rejects blank values.
func NewNiche(raw string) (Niche, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", &ValidationError{Field: "niche", Err: ErrEmptyNiche}
	}
	return Niche(trimmed), nil
}

func (n Niche) String() string {
	return string(n)
}

// PainPoint is a summarized customer problem with a verbatim complaint.
type PainPoint struct {
	Summary string `json:"summary" validate:"required,nonempty"`
	Quote   string `json:"quote" validate:"required,nonempty"`
}

// ProductIdea is a digital product that addresses one pain point.
type ProductIdea struct {
	Name        string `json:"name" validate:"required,nonempty"`
	Description string `json:"description" validate:"required,nonempty"`
}

// SellingAngle is one persuasive marketing phrase or short paragraph.
type SellingAngle = string
