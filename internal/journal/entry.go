package journal

import (
	"context"
	"fmt"
	"time"
)

// Status is the outcome of a journaled request.
type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// Entry is one journaled request.
type Entry struct {
	Seq             int64             `json:"seq" yaml:"seq"`
	ID              string            `json:"id" yaml:"id"`
	Kind            string            `json:"kind" yaml:"kind"`
	Query           string            `json:"query" yaml:"query"`
	Status          Status            `json:"status" yaml:"status"`
	Error           string            `json:"error,omitempty" yaml:"error,omitempty"`
	StartedAt       time.Time         `json:"startedAt" yaml:"startedAt"`
	Duration        time.Duration     `json:"duration" yaml:"duration"`
	ResponseHeaders map[string]string `json:"responseHeaders,omitempty" yaml:"responseHeaders,omitempty"`
}

// Record appends e and returns it with its assigned sequence number.
func (j *Journal) Record(ctx context.Context, e Entry) (Entry, error) {
	headers, err := marshalHeaders(e.ResponseHeaders)
	if err != nil {
		return Entry{}, fmt.Errorf("journal: encode headers: %w", err)
	}

	e.Seq = j.clock.next()
	_, err = j.db.ExecContext(ctx, `
		INSERT INTO requests (seq, request_id, kind, query, status, error, started_at, duration_us, response_headers)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Seq, e.ID, e.Kind, e.Query, string(e.Status), e.Error,
		e.StartedAt.UTC().Format(time.RFC3339Nano), e.Duration.Microseconds(), string(headers),
	)
	if err != nil {
		return Entry{}, fmt.Errorf("journal: insert entry %d: %w", e.Seq, err)
	}
	return e, nil
}

// Recent returns up to limit entries, newest first. A limit of zero or less
// returns every entry.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT seq, request_id, kind, query, status, error, started_at, duration_us, response_headers
		FROM requests
		ORDER BY seq DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: query recent: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			status    string
			startedAt string
			micros    int64
			headers   string
		)
		if err := rows.Scan(&e.Seq, &e.ID, &e.Kind, &e.Query, &status, &e.Error, &startedAt, &micros, &headers); err != nil {
			return nil, fmt.Errorf("journal: scan entry: %w", err)
		}
		e.Status = Status(status)
		e.Duration = time.Duration(micros) * time.Microsecond
		if e.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, fmt.Errorf("journal: entry %d start time: %w", e.Seq, err)
		}
		if e.ResponseHeaders, err = unmarshalHeaders(headers); err != nil {
			return nil, fmt.Errorf("journal: entry %d headers: %w", e.Seq, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal: iterate entries: %w", err)
	}
	return entries, nil
}
