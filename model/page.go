package model

import (
	"fmt"
	"strings"
)

// Unit is one page of a PDF or one slide of a presentation.
type Unit struct {
	// Number is 1-based.
	Number int            `json:"number" yaml:"number"`
	Text   string         `json:"text" yaml:"text"`
	Tables []Table        `json:"tables,omitempty" yaml:"tables,omitempty"`
	Images []ImageOutcome `json:"images,omitempty" yaml:"images,omitempty"`

	// Failure is set when the unit could not be processed; Text then holds
	// the inline annotation.
	Failure *Failure `json:"error,omitempty" yaml:"error,omitempty"`
}

// Empty reports whether the unit carries no text, tables or images.
func (u Unit) Empty() bool {
	return strings.TrimSpace(u.Text) == "" && len(u.Tables) == 0 && len(u.Images) == 0
}

// FailedUnit builds the placeholder for a unit that could not be processed.
// The annotation is kept in Text so the failure stays at the unit's position
// in the concatenated output.
func FailedUnit(label string, number int, err error) Unit {
	unitErr := &Error{Kind: KindExtractionFailure, Unit: fmt.Sprintf("%s %d", label, number), Err: err}
	var cause string
	if err != nil {
		cause = err.Error()
	}
	return Unit{
		Number:  number,
		Text:    fmt.Sprintf("[%s %d: extraction failed: %s]", label, number, cause),
		Failure: FailureOf(unitErr),
	}
}
