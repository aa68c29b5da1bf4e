package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pneff/databorg-client/sparql"
)

// SPARQL protocol media types.
const (
	MediaTypeQuery  = "application/sparql-query"
	MediaTypeUpdate = "application/sparql-update"
	MediaTypeJSON   = "application/json"
)

// Serializer turns a query tree into query text.
type Serializer interface {
	Generate(doc sparql.Document) (string, error)
}

// HTTPConfig configures an HTTPStage.
type HTTPConfig struct {
	QueryEndpoint string
	// UpdateEndpoint defaults to QueryEndpoint.
	UpdateEndpoint string
	// Headers are sent with every request and override the protocol
	// defaults on conflict.
	Headers map[string]string
	// Client defaults to http.DefaultClient.
	Client *http.Client
	// Serializer defaults to sparql.DefaultGenerator.
	Serializer Serializer
}

// HTTPStage sends the request to a SPARQL protocol endpoint and forwards
// the raw response.
//
// A 204 response forwards a nil Response. A JSON content type forwards the
// body as json.RawMessage; any other content type forwards it as a string.
// Non-2xx responses fail with *HTTPError. Response header names are
// lowercased.
type HTTPStage struct {
	queryEndpoint  string
	updateEndpoint string
	headers        map[string]string
	client         *http.Client
	serializer     Serializer
}

// NewHTTPStage creates an HTTPStage.
func NewHTTPStage(cfg HTTPConfig) *HTTPStage {
	s := &HTTPStage{
		queryEndpoint:  cfg.QueryEndpoint,
		updateEndpoint: cfg.UpdateEndpoint,
		headers:        cfg.Headers,
		client:         cfg.Client,
		serializer:     cfg.Serializer,
	}
	if s.updateEndpoint == "" {
		s.updateEndpoint = s.queryEndpoint
	}
	if s.client == nil {
		s.client = http.DefaultClient
	}
	if s.serializer == nil {
		s.serializer = sparql.DefaultGenerator
	}
	return s
}

// Execute implements Exchange.
func (s *HTTPStage) Execute(ctx context.Context, req *Request, next Next) (*Result, error) {
	text, err := s.serializer.Generate(req.Query)
	if err != nil {
		return nil, err
	}

	endpoint, contentType := s.queryEndpoint, MediaTypeQuery
	if req.Update {
		endpoint, contentType = s.updateEndpoint, MediaTypeUpdate
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("exchange: build request: %w", err)
	}
	httpReq.Header.Set("Accept", MediaTypeJSON)
	httpReq.Header.Set("Content-Type", contentType)
	for k, v := range s.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("exchange: read response: %w", err)
	}
	headers := flattenHeaders(resp.Header)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Endpoint:   endpoint,
			Body:       string(body),
			Headers:    headers,
		}
	}

	out := *req
	out.ResponseHeaders = headers
	switch {
	case resp.StatusCode == http.StatusNoContent || len(body) == 0:
		out.Response = nil
	case strings.Contains(resp.Header.Get("Content-Type"), "json"):
		out.Response = json.RawMessage(body)
	default:
		out.Response = string(body)
	}
	return Forward(ctx, &out, next)
}

func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[strings.ToLower(k)] = strings.Join(v, ", ")
	}
	return out
}
