package tracker

import "errors"

var (
	// ErrStoreCorrupt means a key that must resolve to exactly one stored
	// row matched zero or several. The write is abandoned.
	ErrStoreCorrupt = errors.New("store may be corrupt")

	// ErrNothingPending means there are no pending updates to review.
	ErrNothingPending = errors.New("there are no pending updates")

	// ErrNoPostings means the view has nothing to show, either because the
	// posting table was never written or because no posting matches.
	ErrNoPostings = errors.New("no postings found")

	// ErrInvalidTransition means the requested status is not reachable from
	// the posting's current status.
	ErrInvalidTransition = errors.New("invalid status transition")
)
