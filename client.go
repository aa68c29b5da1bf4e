package databorg

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"maps"
	"net/http"

	"github.com/pneff/databorg-client/exchange"
	"github.com/pneff/databorg-client/substitute"
)

// Client identity defaults, sent as the User-Agent.
const (
	DefaultName    = "DataborgClient"
	DefaultVersion = "1.0.0"
)

// ErrNoEndpoint is returned by New when neither an endpoint nor a custom
// Exchange is configured.
var ErrNoEndpoint = errors.New("databorg: query endpoint is required")

// Config configures a Client. It is copied by New and not modified
// afterwards.
type Config struct {
	QueryEndpoint string `mapstructure:"queryEndpoint" yaml:"queryEndpoint"`
	// UpdateEndpoint defaults to QueryEndpoint.
	UpdateEndpoint string            `mapstructure:"updateEndpoint" yaml:"updateEndpoint,omitempty"`
	Headers        map[string]string `mapstructure:"headers" yaml:"headers,omitempty"`
	Prefixes       map[string]string `mapstructure:"prefixes" yaml:"prefixes,omitempty"`
	Name           string            `mapstructure:"name" yaml:"name,omitempty"`
	Version        string            `mapstructure:"version" yaml:"version,omitempty"`

	HTTPClient *http.Client        `mapstructure:"-" yaml:"-"`
	// Serializer renders query trees for the transport. It defaults to
	// sparql.DefaultGenerator.
	Serializer exchange.Serializer `mapstructure:"-" yaml:"-"`

	// Exchange replaces the default pipeline entirely.
	Exchange exchange.Executor `mapstructure:"-" yaml:"-"`
	// Stages run before the default transport and parse stages.
	Stages []exchange.Exchange `mapstructure:"-" yaml:"-"`

	// IDGenerator defaults to UUIDv7Generator.
	IDGenerator IDGenerator  `mapstructure:"-" yaml:"-"`
	Logger      *slog.Logger `mapstructure:"-" yaml:"-"`
}

// Request is the input of Query and Update.
type Request struct {
	// Query is SPARQL text or a sparql.Document.
	Query     any
	Variables substitute.Variables
	Options   exchange.Options
}

// Client runs parameterized SPARQL requests. A Client is safe for
// concurrent use; it holds no per-request state.
type Client struct {
	cfg     Config
	manager *QueryManager
	exec    exchange.Executor
	ids     IDGenerator
	logger  *slog.Logger
}

// New creates a Client.
func New(cfg Config) (*Client, error) {
	if cfg.QueryEndpoint == "" && cfg.Exchange == nil {
		return nil, ErrNoEndpoint
	}
	if cfg.UpdateEndpoint == "" {
		cfg.UpdateEndpoint = cfg.QueryEndpoint
	}
	if cfg.Name == "" {
		cfg.Name = DefaultName
	}
	if cfg.Version == "" {
		cfg.Version = DefaultVersion
	}
	cfg.Headers = maps.Clone(cfg.Headers)
	cfg.Prefixes = maps.Clone(cfg.Prefixes)

	c := &Client{
		cfg:     cfg,
		manager: NewQueryManager(cfg.Prefixes),
		ids:     cfg.IDGenerator,
		logger:  cfg.Logger,
	}
	if c.ids == nil {
		c.ids = UUIDv7Generator{}
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if cfg.Exchange != nil {
		c.exec = cfg.Exchange
		return c, nil
	}

	headers := map[string]string{"User-Agent": cfg.Name + "/" + cfg.Version}
	maps.Copy(headers, cfg.Headers)

	stages := append([]exchange.Exchange(nil), cfg.Stages...)
	stages = append(stages,
		exchange.NewHTTPStage(exchange.HTTPConfig{
			QueryEndpoint:  cfg.QueryEndpoint,
			UpdateEndpoint: cfg.UpdateEndpoint,
			Headers:        headers,
			Client:         cfg.HTTPClient,
			Serializer:     cfg.Serializer,
		}),
		exchange.NewParseStage(cfg.Prefixes),
	)
	chain, err := exchange.From(stages...)
	if err != nil {
		return nil, err
	}
	c.exec = chain
	return c, nil
}

// Query runs a read request.
func (c *Client) Query(ctx context.Context, req Request) (*exchange.Result, error) {
	return c.execute(ctx, req, false)
}

// Update runs a write request.
func (c *Client) Update(ctx context.Context, req Request) (*exchange.Result, error) {
	return c.execute(ctx, req, true)
}

// Prepare parses and substitutes req without running it.
func (c *Client) Prepare(req Request) (string, error) {
	doc, err := c.manager.Transform(req.Query, req.Variables)
	if err != nil {
		return "", err
	}
	return c.manager.QueryToString(doc)
}

// QueryManager returns the manager used to build query trees.
func (c *Client) QueryManager() *QueryManager {
	return c.manager
}

// Prefixes returns a copy of the configured prefixes.
func (c *Client) Prefixes() map[string]string {
	return maps.Clone(c.cfg.Prefixes)
}

// Name returns the client name and version.
func (c *Client) Name() (name, version string) {
	return c.cfg.Name, c.cfg.Version
}

func (c *Client) execute(ctx context.Context, req Request, update bool) (*exchange.Result, error) {
	doc, err := c.manager.Transform(req.Query, req.Variables)
	if err != nil {
		return nil, err
	}

	ereq := &exchange.Request{
		ID:      c.ids.Generate(),
		Query:   doc,
		Update:  update,
		Options: req.Options,
	}
	c.logger.DebugContext(ctx, "dispatching request", "id", ereq.ID, "kind", ereq.Kind())
	return c.exec.Execute(ctx, ereq)
}
