package model

import (
	"slices"

	"github.com/rotisserie/eris"
)

// Status is the user-assigned triage state of a posting.
type Status string

const (
	StatusNew        Status = "new"
	StatusInterested Status = "interested"
	StatusMaybe      Status = "maybe"
	StatusIgnore     Status = "ignore"
	StatusApplied    Status = "applied"
	StatusDeleted    Status = "deleted"
)

// Statuses lists every valid status.
var Statuses = []Status{StatusNew, StatusInterested, StatusMaybe, StatusIgnore, StatusApplied, StatusDeleted}

// TrackedStatuses are the statuses whose postings are re-diffed on ingestion.
var TrackedStatuses = []Status{StatusInterested, StatusMaybe}

var statusTransitions = map[Status][]Status{
	StatusNew:        {StatusInterested, StatusMaybe, StatusIgnore, StatusDeleted},
	StatusInterested: {StatusMaybe, StatusApplied, StatusIgnore, StatusDeleted},
	StatusMaybe:      {StatusInterested, StatusApplied, StatusIgnore, StatusDeleted},
	StatusApplied:    {StatusInterested, StatusIgnore},
	StatusIgnore:     {StatusInterested, StatusMaybe},
}

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !slices.Contains(Statuses, st) {
		return "", eris.Errorf("unknown status %q", s)
	}
	return st, nil
}

// CanTransition reports whether a user may move a posting from s to next.
func (s Status) CanTransition(next Status) bool {
	return slices.Contains(statusTransitions[s], next)
}

// Tracked reports whether the status is one the diff engine compares.
func (s Status) Tracked() bool {
	return slices.Contains(TrackedStatuses, s)
}
