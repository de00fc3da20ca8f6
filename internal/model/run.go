package model

import "time"

// IngestOutcome describes which branch of the ingestion flow a run took.
type IngestOutcome string

const (
	IngestInitial     IngestOutcome = "initial"
	IngestFirstOrigin IngestOutcome = "first_origin"
	IngestMerged      IngestOutcome = "merged"
	IngestFailed      IngestOutcome = "failed"
)

// IngestRun records one ingestion attempt.
type IngestRun struct {
	ID        string        `json:"id"`
	Origin    string        `json:"origin"`
	File      string        `json:"file,omitempty"`
	Outcome   IngestOutcome `json:"outcome"`
	Rows      int           `json:"rows"`
	Added     int           `json:"added"`
	Staged    int           `json:"staged"`
	Skipped   int           `json:"skipped"`
	Message   string        `json:"message,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	EndedAt   time.Time     `json:"ended_at"`
}
