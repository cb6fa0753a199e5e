package entity

import (
	"time"

	"github.com/google/uuid"
)

type FileStatus int

const (
	StatusPending FileStatus = iota
	StatusSkipped
	StatusDownloaded
	StatusFailed
)

func (s FileStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSkipped:
		return "skipped"
	case StatusDownloaded:
		return "downloaded"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Succeeded reports whether the file is present and verified after processing.
func (s FileStatus) Succeeded() bool {
	return s == StatusSkipped || s == StatusDownloaded
}

type RunSummary struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Folders    int
	Skipped    int
	Downloaded int
	Failed     int
}

func NewRunSummary() *RunSummary {
	return &RunSummary{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
	}
}

func (s *RunSummary) Add(status FileStatus) {
	switch status {
	case StatusSkipped:
		s.Skipped++
	case StatusDownloaded:
		s.Downloaded++
	case StatusFailed:
		s.Failed++
	}
}

func (s *RunSummary) Total() int {
	return s.Skipped + s.Downloaded + s.Failed
}
