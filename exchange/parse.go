package exchange

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/pneff/databorg-client/results"
)

// ParseStage normalizes the transport response according to the request
// options. Failures are returned as *ResultParseError carrying the raw
// response.
type ParseStage struct {
	prefixes  map[string]string
	compactor *results.Compactor
}

// NewParseStage creates a ParseStage. prefixes extend the default
// namespace table used for compaction and become the JSON-LD context of
// framed graph results.
func NewParseStage(prefixes map[string]string) *ParseStage {
	return &ParseStage{
		prefixes:  prefixes,
		compactor: results.NewCompactor(prefixes),
	}
}

// Execute implements Exchange.
func (s *ParseStage) Execute(ctx context.Context, req *Request, next Next) (*Result, error) {
	if req.Options.RawResults {
		return Forward(ctx, req, next)
	}

	parsed, err := s.parse(req.Response, req.Options)
	if err != nil {
		return nil, &ResultParseError{Err: err, Response: req.Response}
	}
	out := *req
	out.Response = parsed
	return Forward(ctx, &out, next)
}

func (s *ParseStage) parse(response any, opts Options) (any, error) {
	switch v := response.(type) {
	case nil:
		return nil, nil
	case string:
		return results.ParseGraph(v, s.prefixes, opts.Frame)
	case json.RawMessage:
		return s.parseJSON(v, opts)
	case []byte:
		return s.parseJSON(v, opts)
	default:
		// Already decoded by a custom transport.
		return response, nil
	}
}

func (s *ParseStage) parseJSON(raw []byte, opts Options) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if isEmptyObject(trimmed) {
		return json.RawMessage(raw), nil
	}

	res, err := results.Decode(trimmed)
	if err != nil {
		return nil, err
	}
	normalized, err := results.Normalize(res, opts.Parsing, s.compactor)
	if err != nil {
		return nil, err
	}
	if _, isBool := normalized.(bool); opts.IncludeRawResults && !isBool {
		return results.WithRaw{Results: normalized, Raw: json.RawMessage(raw)}, nil
	}
	return normalized, nil
}

func isEmptyObject(raw []byte) bool {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return false
	}
	return len(obj) == 0
}
