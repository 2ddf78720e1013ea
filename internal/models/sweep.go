package models

import "time"

// SweepRun records one scheduled (or manually triggered) fetch-and-store pass.
type SweepRun struct {
	ID            string         `json:"id"`
	Categories    []string       `json:"categories"`
	Fetched       int            `json:"fetched"`
	Stored        int            `json:"stored"`
	FailedSources []FailedSource `json:"failed_sources,omitempty"`
	StartedAt     time.Time      `json:"started_at"`
	FinishedAt    time.Time      `json:"finished_at"`
}

// FailedSource records a source that could not be fetched during a run.
type FailedSource struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}
