package model

import "errors"

// Fatal discovery errors. Anything else in the pipeline degrades the
// affected unit of work instead of aborting the run.
var (
	// ErrNoCandidates means the triggering interaction produced no
	// observable network calls, so there is nothing to probe.
	ErrNoCandidates = errors.New("no candidate requests captured")

	// ErrEndpointNotFound means the probe budget was exhausted without
	// any candidate producing a row-bearing JSON payload.
	ErrEndpointNotFound = errors.New("listing endpoint not found")
)

// Center is one listed training center. Code is unique across a run;
// Email is attached after detail extraction and stays empty when no
// address could be found.
type Center struct {
	Code      string
	Name      string
	DetailURL string
	Email     string
}

// Rendered is the outcome of rendering one detail page: the document
// both as visible text and raw markup, plus any JSON payloads the page
// fetched asynchronously while rendering.
type Rendered struct {
	Text       string
	HTML       string
	JSONBodies []string
}

// Diagnostics summarizes one pagination run.
type Diagnostics struct {
	DeclaredTotal int  `json:"declaredTotal"` // -1 when the backend never reported one
	Fetched       int  `json:"fetched"`
	Pages         int  `json:"pages"`
	Stalled       bool `json:"stalled"` // backend repeated a page instead of advancing
}

// ProbeAttempt records one replayed candidate during discovery.
type ProbeAttempt struct {
	URL    string `json:"url"`
	Status int    `json:"status"`
}
