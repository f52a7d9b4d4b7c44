// Package model provides the normalized representation of extracted document
// content.
//
// Every extractor in gleaner produces a [Result]. Paginated formats (PDF and
// PPTX) split their content into [Unit] values, one per page or slide, and the
// top-level [Result.Text] is exactly the non-empty unit texts joined with
// [BlockSeparator]. Images and DOCX documents have no units and populate the
// top-level fields directly.
//
// # Failures
//
// Failures are values, not strings. A call-level failure is an [*Error] whose
// [Kind] is one of [KindUnsupportedFormat], [KindDependencyUnavailable] or
// [KindMalformedInput]; it is returned to the caller and also recorded in
// [Result.Failure]. A unit-level failure ([KindExtractionFailure]) is recorded
// inline on the unit or image it belongs to and never aborts the document.
//
// # Embedded images
//
// Each discovered image yields exactly one [ImageOutcome], either
// [Extracted] or [Failed], in document order:
//
//	for _, img := range result.AllImages() {
//	    if img.OK() {
//	        fmt.Println(img.Content)
//	    } else {
//	        log.Println("image failed:", img.Reason)
//	    }
//	}
package model
