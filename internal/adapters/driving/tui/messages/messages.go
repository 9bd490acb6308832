// Package messages defines Bubbletea message types for the review view.
package messages

import "github.com/custodia-labs/litreview/internal/core/ports/driving"

// FactReviewed is sent after each fact finishes, successfully or not.
type FactReviewed struct {
	Progress driving.ReviewProgress
}

// ReviewFinished is sent once the review pass returns.
type ReviewFinished struct {
	Summary *driving.ReviewSummary
	Err     error
}
