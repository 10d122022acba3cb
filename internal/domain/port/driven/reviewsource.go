// Package driven defines secondary port interfaces for external adapters.
package driven

import "context"

// ReviewSource retrieves the chronological review history of a pull request
// from the hosting platform. Implementations must return bodies oldest first:
// the classification engine's most-recent-marker rule depends on that order.
type ReviewSource interface {
	// FetchReviewBodies returns the markdown bodies of all reviews and
	// PR-level comments authored by any of the given bot usernames
	// (case-insensitive match), sorted by submission time ascending.
	FetchReviewBodies(ctx context.Context, repoFullName string, prNumber int, botUsernames []string) ([]string, error)
}
