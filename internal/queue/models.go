package queue

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle of a job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var allStatuses = []Status{StatusPending, StatusProcessing, StatusCompleted, StatusFailed}

// ErrDuplicate reports a source that already has a pending or processing job.
var ErrDuplicate = errors.New("job already queued")

// ParseStatus converts user input into a Status.
func ParseStatus(value string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, candidate := range allStatuses {
		if status == candidate {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown job status %q", value)
}

// Spec describes a conversion to enqueue.
type Spec struct {
	SourcePath  string
	Model       string
	MaxChars    int
	MaxDuration float64
	OutputDir   string
}

// Job is one queued conversion.
type Job struct {
	ID            int64
	SourcePath    string
	OutputPath    string
	OutputDir     string
	Status        Status
	Model         string
	MaxChars      int
	MaxDuration   float64
	Attempts      int
	ErrorKind     string
	ErrorMessage  string
	CorrelationID string
	Cues          int
	NotBefore     time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Active reports whether the job still awaits or holds a worker.
func (j *Job) Active() bool {
	return j != nil && (j.Status == StatusPending || j.Status == StatusProcessing)
}

// HealthSummary aggregates job counts by lifecycle bucket.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Completed  int
	Failed     int
}
