package journal

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/pneff/databorg-client/exchange"
	"github.com/pneff/databorg-client/sparql"
)

// Stage is an exchange stage that records every request passing through
// it. Journal write failures are logged and never change the request
// outcome.
type Stage struct {
	journal    *Journal
	now        func() time.Time
	logger     *slog.Logger
	serializer exchange.Serializer
}

// StageOption configures a Stage.
type StageOption func(*Stage)

// WithClock sets the wall clock used for start times and durations.
func WithClock(now func() time.Time) StageOption {
	return func(s *Stage) { s.now = now }
}

// WithLogger sets the logger for journal write failures.
func WithLogger(logger *slog.Logger) StageOption {
	return func(s *Stage) { s.logger = logger }
}

// WithSerializer sets how recorded query text is rendered. It should match
// the serializer of the transport stage.
func WithSerializer(serializer exchange.Serializer) StageOption {
	return func(s *Stage) { s.serializer = serializer }
}

// NewStage creates a Stage writing to j.
func NewStage(j *Journal, opts ...StageOption) *Stage {
	s := &Stage{
		journal:    j,
		now:        time.Now,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		serializer: sparql.DefaultGenerator,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Execute implements exchange.Exchange.
func (s *Stage) Execute(ctx context.Context, req *exchange.Request, next exchange.Next) (*exchange.Result, error) {
	start := s.now()
	res, err := exchange.Forward(ctx, req, next)
	entry := Entry{
		ID:        req.ID,
		Kind:      req.Kind(),
		Query:     s.queryText(req.Query),
		Status:    StatusOK,
		StartedAt: start,
		Duration:  s.now().Sub(start),
	}
	if err != nil {
		entry.Status = StatusError
		entry.Error = err.Error()
		var herr *exchange.HTTPError
		if errors.As(err, &herr) {
			entry.ResponseHeaders = herr.Headers
		}
	} else if res != nil {
		entry.ResponseHeaders = res.ResponseHeaders
	}

	if _, werr := s.journal.Record(ctx, entry); werr != nil {
		s.logger.WarnContext(ctx, "journal write failed", "id", req.ID, "error", werr)
	}
	return res, err
}

func (s *Stage) queryText(doc sparql.Document) string {
	if doc == nil {
		return ""
	}
	text, err := s.serializer.Generate(doc)
	if err != nil {
		return ""
	}
	return text
}
