package exchange

import (
	"context"
	"errors"
)

// ErrEmptyChain is returned when a chain with no stages is built or run.
var ErrEmptyChain = errors.New("exchange: chain has no stages")

// Chain runs stages in order.
type Chain struct {
	stages []Exchange
}

// From builds a chain from stages. At least one stage is required.
func From(stages ...Exchange) (*Chain, error) {
	if len(stages) == 0 {
		return nil, ErrEmptyChain
	}
	return &Chain{stages: append([]Exchange(nil), stages...)}, nil
}

// Concat appends stage after the current last stage and returns c.
func (c *Chain) Concat(stage Exchange) *Chain {
	c.stages = append(c.stages, stage)
	return c
}

// Len reports the number of stages.
func (c *Chain) Len() int {
	return len(c.stages)
}

// Execute runs req through the chain. The result of the stage that stops
// forwarding (normally the last) is returned.
func (c *Chain) Execute(ctx context.Context, req *Request) (*Result, error) {
	if c == nil || len(c.stages) == 0 {
		return nil, ErrEmptyChain
	}
	return c.run(ctx, req, 0)
}

func (c *Chain) run(ctx context.Context, req *Request, i int) (*Result, error) {
	var next Next
	if i+1 < len(c.stages) {
		next = func(ctx context.Context, req *Request) (*Result, error) {
			return c.run(ctx, req, i+1)
		}
	}
	return c.stages[i].Execute(ctx, req, next)
}
