// Package notifications classifies availability changes and dispatches the
// resulting alerts.
//
// Flow: detect bulk increases → build message → post to the social channel →
// forward the same message to the direct alert channel.
package notifications

import "context"

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

// BulkThreshold is the per-location increase, in appointments, that must be
// exceeded before a change is worth announcing.
const BulkThreshold = 5

// --------------------------------------------------------------------------
// Channels
// --------------------------------------------------------------------------

// Poster publishes a public status update.
type Poster interface {
	Post(ctx context.Context, text string) error
}

// Alerter delivers a message straight to the operators.
type Alerter interface {
	Alert(ctx context.Context, service, message string) error
}
