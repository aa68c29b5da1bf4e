package exchange

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LoggingStage logs every request once the rest of the chain has finished.
type LoggingStage struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewLoggingStage creates a LoggingStage. A nil logger discards output.
func NewLoggingStage(logger *slog.Logger) *LoggingStage {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &LoggingStage{logger: logger, now: time.Now}
}

// Execute implements Exchange.
func (s *LoggingStage) Execute(ctx context.Context, req *Request, next Next) (*Result, error) {
	start := s.now()
	res, err := Forward(ctx, req, next)
	attrs := []slog.Attr{
		slog.String("id", req.ID),
		slog.String("kind", req.Kind()),
		slog.Duration("duration", s.now().Sub(start)),
	}
	if err != nil {
		attrs = append(attrs, slog.Any("error", err))
		s.logger.LogAttrs(ctx, slog.LevelWarn, "sparql request failed", attrs...)
		return nil, err
	}
	s.logger.LogAttrs(ctx, slog.LevelDebug, "sparql request", attrs...)
	return res, nil
}

// MetricsStage records request counts and latency for the rest of the
// chain.
//
// Metrics:
//   - databorg_client_requests_total{kind, outcome}
//   - databorg_client_request_duration_seconds{kind}
type MetricsStage struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetricsStage creates a MetricsStage and registers its collectors with
// reg. Collectors already registered by another MetricsStage are reused.
func NewMetricsStage(reg prometheus.Registerer) (*MetricsStage, error) {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "databorg",
		Subsystem: "client",
		Name:      "requests_total",
		Help:      "SPARQL requests by kind and outcome.",
	}, []string{"kind", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "databorg",
		Subsystem: "client",
		Name:      "request_duration_seconds",
		Help:      "SPARQL request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"kind"})

	var err error
	if requests, err = register(reg, requests); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	return &MetricsStage{requests: requests, duration: duration}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("exchange: register metrics: %w", err)
	}
	return c, nil
}

// Execute implements Exchange.
func (s *MetricsStage) Execute(ctx context.Context, req *Request, next Next) (*Result, error) {
	kind := req.Kind()
	timer := prometheus.NewTimer(s.duration.WithLabelValues(kind))
	res, err := Forward(ctx, req, next)
	timer.ObserveDuration()

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	s.requests.WithLabelValues(kind, outcome).Inc()
	return res, err
}
