package exchange

import (
	"context"

	"github.com/pneff/databorg-client/sparql"
)

// Request is the state carried through one pipeline run.
type Request struct {
	// ID identifies the request in logs and the journal.
	ID string

	Query   sparql.Document
	Update  bool
	Options Options

	// Response and ResponseHeaders are empty until a transport stage has
	// run.
	Response        any
	ResponseHeaders map[string]string
}

// Result is what a pipeline run returns to the caller.
type Result struct {
	ID              string            `json:"id,omitempty"`
	Query           sparql.Document   `json:"-"`
	Update          bool              `json:"update"`
	Response        any               `json:"response"`
	ResponseHeaders map[string]string `json:"responseHeaders,omitempty"`
}

// Result snapshots r as a Result.
func (r *Request) Result() *Result {
	return &Result{
		ID:              r.ID,
		Query:           r.Query,
		Update:          r.Update,
		Response:        r.Response,
		ResponseHeaders: r.ResponseHeaders,
	}
}

// Kind is "update" or "query".
func (r *Request) Kind() string {
	if r.Update {
		return "update"
	}
	return "query"
}

// Next runs the remainder of a chain.
type Next func(ctx context.Context, req *Request) (*Result, error)

// Exchange is one pipeline stage.
type Exchange interface {
	Execute(ctx context.Context, req *Request, next Next) (*Result, error)
}

// Func adapts a function to the Exchange interface.
type Func func(ctx context.Context, req *Request, next Next) (*Result, error)

// Execute calls f.
func (f Func) Execute(ctx context.Context, req *Request, next Next) (*Result, error) {
	return f(ctx, req, next)
}

// Executor runs a request through a complete pipeline.
type Executor interface {
	Execute(ctx context.Context, req *Request) (*Result, error)
}

// Forward hands req to next, or returns it as the result when there is no
// next stage.
func Forward(ctx context.Context, req *Request, next Next) (*Result, error) {
	if next == nil {
		return req.Result(), nil
	}
	return next(ctx, req)
}
