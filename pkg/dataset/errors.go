// Package dataset loads the matched-conversation payload and holds
// the canonical in-memory set for the session.
package dataset

import "errors"

var (
	// ErrNoData indicates the payload could not be fetched or decoded
	ErrNoData = errors.New("dataset: no data")

	// ErrNotLoaded indicates an operation before a successful load
	ErrNotLoaded = errors.New("dataset: not loaded")

	// ErrNotFound indicates an unknown conversation ID
	ErrNotFound = errors.New("dataset: conversation not found")
)

// RemediationMessage is the fixed user-facing message surfaced when a
// load fails.
const RemediationMessage = "No data found. Ensure output/matched_conversations.json exists and " +
	"run the matching pipeline first, then restart the viewer."
