package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"audiosrt/internal/queue"
)

type jobView struct {
	ID            int64   `json:"id"`
	SourcePath    string  `json:"source_path"`
	OutputPath    string  `json:"output_path,omitempty"`
	Status        string  `json:"status"`
	Model         string  `json:"model"`
	MaxChars      int     `json:"max_chars"`
	MaxDuration   float64 `json:"max_duration"`
	Attempts      int     `json:"attempts"`
	Cues          int     `json:"cues,omitempty"`
	ErrorKind     string  `json:"error_kind,omitempty"`
	ErrorMessage  string  `json:"error_message,omitempty"`
	CorrelationID string  `json:"correlation_id,omitempty"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

func buildJobViews(jobs []*queue.Job) []jobView {
	views := make([]jobView, 0, len(jobs))
	for _, job := range jobs {
		views = append(views, jobView{
			ID:            job.ID,
			SourcePath:    job.SourcePath,
			OutputPath:    job.OutputPath,
			Status:        string(job.Status),
			Model:         job.Model,
			MaxChars:      job.MaxChars,
			MaxDuration:   job.MaxDuration,
			Attempts:      job.Attempts,
			Cues:          job.Cues,
			ErrorKind:     job.ErrorKind,
			ErrorMessage:  job.ErrorMessage,
			CorrelationID: job.CorrelationID,
			CreatedAt:     job.CreatedAt.UTC().Format(time.RFC3339),
			UpdatedAt:     job.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}
	return views
}

func buildQueueListRows(jobs []*queue.Job) [][]string {
	rows := make([][]string, 0, len(jobs))
	for _, job := range jobs {
		rows = append(rows, []string{
			strconv.FormatInt(job.ID, 10),
			filepath.Base(job.SourcePath),
			string(job.Status),
			job.Model,
			strconv.Itoa(job.Attempts),
			jobResult(job),
		})
	}
	return rows
}

func jobResult(job *queue.Job) string {
	switch {
	case job.Status == queue.StatusCompleted:
		return fmt.Sprintf("%s (%d cues)", job.OutputPath, job.Cues)
	case job.ErrorKind != "":
		return fmt.Sprintf("%s: %s", job.ErrorKind, job.ErrorMessage)
	default:
		return ""
	}
}

func buildQueueStatusRows(health queue.HealthSummary) [][]string {
	entries := []struct {
		label string
		count int
	}{
		{"Pending", health.Pending},
		{"Processing", health.Processing},
		{"Completed", health.Completed},
		{"Failed", health.Failed},
	}
	rows := make([][]string, 0, len(entries)+1)
	for _, e := range entries {
		if e.count == 0 {
			continue
		}
		rows = append(rows, []string{e.label, strconv.Itoa(e.count)})
	}
	rows = append(rows, []string{"Total", strconv.Itoa(health.Total)})
	return rows
}
