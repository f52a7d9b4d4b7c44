package model

import (
	"encoding/json"
	"fmt"
)

// ImageOutcome records what happened to one embedded or standalone image.
// It is a tagged variant: exactly one of Content (Extracted) or Reason
// (Failed) is meaningful, selected by Status.
type ImageOutcome struct {
	// Index is the 1-based position of the image among all images of its
	// document (or slide, for PPTX).
	Index int
	// Position is the number of text blocks that precede the image, which
	// anchors it within the surrounding narrative.
	Position int
	// Name is the archive part the image was read from, when known.
	Name string

	Status  ImageStatus
	Content string
	Reason  string
	// Recognizer names the recognition path that produced Content.
	Recognizer string
}

// ImageStatus tags an ImageOutcome.
type ImageStatus int

const (
	// ImageExtracted marks a successfully recognized image.
	ImageExtracted ImageStatus = iota + 1
	// ImageFailed marks an image whose extraction failed.
	ImageFailed
)

// Extracted builds a successful outcome.
func Extracted(content string) ImageOutcome {
	return ImageOutcome{Status: ImageExtracted, Content: content}
}

// Failed builds a failed outcome.
func Failed(reason string) ImageOutcome {
	return ImageOutcome{Status: ImageFailed, Reason: reason}
}

// FailedErr builds a failed outcome from an error.
func FailedErr(err error) ImageOutcome {
	if err == nil {
		return Failed("unknown error")
	}
	return Failed(err.Error())
}

// OK reports whether the image was extracted.
func (o ImageOutcome) OK() bool {
	return o.Status == ImageExtracted
}

// String renders the outcome for logs and text views.
func (o ImageOutcome) String() string {
	if o.OK() {
		return o.Content
	}
	return fmt.Sprintf("[image %d: extraction failed: %s]", o.Index, o.Reason)
}

type imageOutcomeJSON struct {
	Type             string  `json:"type" yaml:"type"`
	Index            int     `json:"index" yaml:"index"`
	Position         int     `json:"position" yaml:"position"`
	Name             string  `json:"name,omitempty" yaml:"name,omitempty"`
	Recognizer       string  `json:"recognizer,omitempty" yaml:"recognizer,omitempty"`
	ExtractedContent *string `json:"extracted_content,omitempty" yaml:"extracted_content,omitempty"`
	Error            *string `json:"error,omitempty" yaml:"error,omitempty"`
}

func (o ImageOutcome) wire() imageOutcomeJSON {
	w := imageOutcomeJSON{
		Type:       "embedded_image",
		Index:      o.Index,
		Position:   o.Position,
		Name:       o.Name,
		Recognizer: o.Recognizer,
	}
	if o.OK() {
		content := o.Content
		w.ExtractedContent = &content
	} else {
		reason := o.Reason
		w.Error = &reason
	}
	return w
}

// MarshalJSON emits either extracted_content or error, never both.
func (o ImageOutcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.wire())
}

// UnmarshalJSON restores the variant from its wire form.
func (o *ImageOutcome) UnmarshalJSON(data []byte) error {
	var w imageOutcomeJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch {
	case w.ExtractedContent != nil:
		*o = Extracted(*w.ExtractedContent)
	case w.Error != nil:
		*o = Failed(*w.Error)
	default:
		return fmt.Errorf("image outcome: neither extracted_content nor error present")
	}
	o.Index, o.Position, o.Name, o.Recognizer = w.Index, w.Position, w.Name, w.Recognizer
	return nil
}

// MarshalYAML mirrors the JSON wire form.
func (o ImageOutcome) MarshalYAML() (any, error) {
	return o.wire(), nil
}
