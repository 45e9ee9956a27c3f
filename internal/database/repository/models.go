package repository

import "time"

// Snapshot is a persisted view-state snapshot row.
type Snapshot struct {
	Key       string
	Data      []byte
	UpdatedAt time.Time
}

// Export records one CSV export.
type Export struct {
	ID        string
	Path      string
	Rows      int
	CreatedAt time.Time
}
