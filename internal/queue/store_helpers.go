package queue

import (
	"database/sql"
	"errors"
	"strings"
	"time"
)

const jobColumns = "id, source_path, output_path, output_dir, status, model, max_chars, max_duration, attempts, error_kind, error_message, correlation_id, cue_count, not_before, created_at, updated_at"

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		job           Job
		outputPath    sql.NullString
		outputDir     sql.NullString
		statusStr     string
		errorKind     sql.NullString
		errorMessage  sql.NullString
		correlationID sql.NullString
		notBefore     int64
		createdRaw    string
		updatedRaw    string
	)
	if err := scanner.Scan(
		&job.ID,
		&job.SourcePath,
		&outputPath,
		&outputDir,
		&statusStr,
		&job.Model,
		&job.MaxChars,
		&job.MaxDuration,
		&job.Attempts,
		&errorKind,
		&errorMessage,
		&correlationID,
		&job.Cues,
		&notBefore,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	job.Status = Status(statusStr)
	job.OutputPath = outputPath.String
	job.OutputDir = outputDir.String
	job.ErrorKind = errorKind.String
	job.ErrorMessage = errorMessage.String
	job.CorrelationID = correlationID.String
	if notBefore > 0 {
		job.NotBefore = time.UnixMilli(notBefore).UTC()
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		job.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		job.UpdatedAt = updated
	}
	return &job, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339Nano, value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", count), ",")
}

func int64Args(ids []int64) []any {
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	return args
}
