package cli

import (
	"errors"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	databorg "github.com/pneff/databorg-client"
	"github.com/pneff/databorg-client/exchange"
	"github.com/pneff/databorg-client/internal/catalog"
	"github.com/pneff/databorg-client/internal/config"
	"github.com/pneff/databorg-client/internal/journal"
	"github.com/pneff/databorg-client/internal/logging"
	"github.com/pneff/databorg-client/sparql"
)

// session bundles what a networked command needs: configuration, logger,
// client, and the optional request journal and metrics registry.
type session struct {
	cfg     config.Config
	logger  *slog.Logger
	client  *databorg.Client
	journal *journal.Journal
	metrics *prometheus.Registry
}

func loadConfig(opts *RootOptions) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return config.Config{}, nil, WrapExitError(ExitCommandError, "invalid log level", err)
	}
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger, err := logging.New(level, cfg.Log.Format)
	if err != nil {
		return config.Config{}, nil, WrapExitError(ExitCommandError, "invalid log format", err)
	}
	return cfg, logger, nil
}

// openSession builds a client. The journal stage is placed first so it
// sees the outcome of the whole chain.
func openSession(opts *RootOptions, cmd *cobra.Command) (*session, error) {
	cfg, logger, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid config", err)
	}

	s := &session{cfg: cfg, logger: logger}
	clientCfg := cfg.Client()
	clientCfg.Logger = logger
	clientCfg.Serializer = sparql.DefaultGenerator

	if cfg.Journal.Path != "" {
		j, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		s.journal = j
		clientCfg.Stages = append(clientCfg.Stages, journal.NewStage(j,
			journal.WithLogger(logger),
			journal.WithSerializer(clientCfg.Serializer)))
	}
	if cfg.Metrics.Path != "" {
		reg := prometheus.NewRegistry()
		stage, err := exchange.NewMetricsStage(reg)
		if err != nil {
			s.Close()
			return nil, WrapExitError(ExitCommandError, "failed to register metrics", err)
		}
		s.metrics = reg
		clientCfg.Stages = append(clientCfg.Stages, stage)
	}
	clientCfg.Stages = append(clientCfg.Stages, exchange.NewLoggingStage(logger))

	client, err := databorg.New(clientCfg)
	if err != nil {
		s.Close()
		return nil, WrapExitError(ExitCommandError, "failed to create client", err)
	}
	s.client = client
	logger.Debug("session ready", "endpoint", cfg.Endpoint.Query, "journal", cfg.Journal.Path)
	return s, nil
}

// Close writes the metrics textfile, if configured, and closes the journal.
func (s *session) Close() error {
	var errs []error
	if s.metrics != nil {
		if err := prometheus.WriteToTextfile(s.cfg.Metrics.Path, s.metrics); err != nil {
			s.logger.Warn("metrics write failed", "path", s.cfg.Metrics.Path, "error", err)
			errs = append(errs, err)
		}
	}
	if s.journal != nil {
		errs = append(errs, s.journal.Close())
	}
	return errors.Join(errs...)
}

// fail reports err through f and converts it to an ExitError. Errors that
// already carry an exit code keep it.
func fail(f *OutputFormatter, message string, err error) error {
	code, exit := classify(err)
	_ = f.Error(code, message+": "+err.Error(), details(err))
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	return WrapExitError(exit, message, err)
}

// details exposes the endpoint reply of an HTTP failure in structured
// output.
func details(err error) any {
	var httpErr *exchange.HTTPError
	if errors.As(err, &httpErr) {
		return map[string]any{"status": httpErr.StatusCode, "endpoint": httpErr.Endpoint, "body": httpErr.Body}
	}
	return nil
}

// Error codes reported in structured output.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeConfig      = "E002" // Configuration could not be loaded
	ErrCodeQuery       = "E003" // Query text could not be parsed or rendered
	ErrCodeTransport   = "E004" // Endpoint returned an error or was unreachable
	ErrCodeResults     = "E005" // Response could not be normalized
	ErrCodeCatalog     = "E006" // Catalog could not be loaded or entry missing
	ErrCodeJournal     = "E007" // Journal could not be read
	ErrCodeWriteFailed = "E008" // File write error
	ErrCodeUsage       = "E009" // Invalid flags or arguments
)

func classify(err error) (code string, exit int) {
	var (
		exitErr *ExitError
		usage   *usageError
	)
	switch {
	case errors.As(err, &usage):
		return ErrCodeUsage, ExitCommandError
	case sparql.IsParseError(err), errors.Is(err, databorg.ErrNoQuery):
		return ErrCodeQuery, ExitCommandError
	case catalog.IsLoadError(err):
		return ErrCodeCatalog, ExitCommandError
	case exchange.IsHTTPError(err):
		return ErrCodeTransport, ExitFailure
	case exchange.IsResultParseError(err):
		return ErrCodeResults, ExitFailure
	case errors.As(err, &exitErr):
		return ErrCodeGeneric, exitErr.Code
	default:
		return ErrCodeGeneric, ExitFailure
	}
}

type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }
