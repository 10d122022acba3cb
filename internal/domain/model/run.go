package model

import "time"

// ClassificationRun is a persisted record of one classification of a pull
// request's review history.
type ClassificationRun struct {
	ID           int64
	RepoFullName string
	PRNumber     int
	ReviewCount  int // How many review bodies were classified.
	Result       ClassificationResult
	CreatedAt    time.Time
}
