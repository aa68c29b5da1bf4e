package exchange

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder appends its name to calls and forwards.
func recorder(name string, calls *[]string) Exchange {
	return Func(func(ctx context.Context, req *Request, next Next) (*Result, error) {
		*calls = append(*calls, name)
		return Forward(ctx, req, next)
	})
}

func TestFrom_Empty(t *testing.T) {
	_, err := From()
	assert.ErrorIs(t, err, ErrEmptyChain)
}

func TestChain_ExecuteNil(t *testing.T) {
	var c *Chain
	_, err := c.Execute(context.Background(), &Request{})
	assert.ErrorIs(t, err, ErrEmptyChain)
}

func TestChain_RunsEachStageOnceInOrder(t *testing.T) {
	var calls []string
	chain, err := From(recorder("a", &calls), recorder("b", &calls))
	require.NoError(t, err)
	chain.Concat(recorder("c", &calls)).Concat(recorder("d", &calls))

	res, err := chain.Execute(context.Background(), &Request{ID: "r1"})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c", "d"}, calls)
	assert.Equal(t, 4, chain.Len())
	assert.Equal(t, "r1", res.ID)
}

func TestChain_TerminalStageOutputIsReturned(t *testing.T) {
	terminal := Func(func(ctx context.Context, req *Request, next Next) (*Result, error) {
		assert.Nil(t, next, "last stage must not receive a next")
		res := req.Result()
		res.Response = "done"
		return res, nil
	})
	chain, err := From(Func(func(ctx context.Context, req *Request, next Next) (*Result, error) {
		req.Response = "seen by terminal"
		return next(ctx, req)
	}), terminal)
	require.NoError(t, err)

	res, err := chain.Execute(context.Background(), &Request{})
	require.NoError(t, err)
	assert.Equal(t, "done", res.Response)
}

func TestChain_StageWithoutNextReturnsDirectly(t *testing.T) {
	var calls []string
	chain, err := From(recorder("only", &calls))
	require.NoError(t, err)

	res, err := chain.Execute(context.Background(), &Request{Update: true, Response: 42})
	require.NoError(t, err)

	assert.Equal(t, []string{"only"}, calls)
	assert.True(t, res.Update)
	assert.Equal(t, 42, res.Response)
}

func TestChain_ShortCircuit(t *testing.T) {
	var calls []string
	stop := Func(func(ctx context.Context, req *Request, next Next) (*Result, error) {
		calls = append(calls, "stop")
		return &Result{Response: "cached"}, nil
	})
	chain, err := From(recorder("a", &calls), stop, recorder("never", &calls))
	require.NoError(t, err)

	res, err := chain.Execute(context.Background(), &Request{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "stop"}, calls)
	assert.Equal(t, "cached", res.Response)
}

func TestChain_ErrorsPropagateUnchanged(t *testing.T) {
	boom := errors.New("boom")
	var calls []string
	chain, err := From(recorder("a", &calls), Func(func(context.Context, *Request, Next) (*Result, error) {
		return nil, boom
	}), recorder("never", &calls))
	require.NoError(t, err)

	_, err = chain.Execute(context.Background(), &Request{})
	assert.Same(t, boom, err)
	assert.Equal(t, []string{"a"}, calls)
}

func TestFrom_CopiesStages(t *testing.T) {
	var calls []string
	stages := []Exchange{recorder("a", &calls)}
	chain, err := From(stages...)
	require.NoError(t, err)

	stages[0] = recorder("replaced", &calls)
	_, err = chain.Execute(context.Background(), &Request{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, calls)
}
