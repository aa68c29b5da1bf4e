package journal

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pneff/databorg-client/exchange"
	"github.com/pneff/databorg-client/internal/testutil"
	"github.com/pneff/databorg-client/sparql"
)

func respond(headers map[string]string, err error) exchange.Exchange {
	return exchange.Func(func(ctx context.Context, req *exchange.Request, next exchange.Next) (*exchange.Result, error) {
		if err != nil {
			return nil, err
		}
		res := req.Result()
		res.ResponseHeaders = headers
		return res, nil
	})
}

func TestStage_RecordsSuccess(t *testing.T) {
	j, _ := openTemp(t)
	clock := testutil.NewStepClock(started, 40*time.Millisecond)

	chain, err := exchange.From(NewStage(j, WithClock(clock.Now)), respond(map[string]string{"server": "virtuoso"}, nil))
	require.NoError(t, err)

	res, err := chain.Execute(context.Background(), &exchange.Request{
		ID:    "req-1",
		Query: sparql.MustParse("SELECT * WHERE { ?s ?p ?o }"),
	})
	require.NoError(t, err)
	assert.Equal(t, "req-1", res.ID)

	entries, err := j.Recent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, "req-1", e.ID)
	assert.Equal(t, "query", e.Kind)
	assert.Equal(t, "SELECT *\nWHERE { ?s ?p ?o. }", e.Query)
	assert.Equal(t, StatusOK, e.Status)
	assert.Equal(t, started, e.StartedAt)
	assert.Equal(t, 40*time.Millisecond, e.Duration)
	assert.Equal(t, map[string]string{"server": "virtuoso"}, e.ResponseHeaders)
}

func TestStage_RecordsFailureAndKeepsError(t *testing.T) {
	j, _ := openTemp(t)
	herr := &exchange.HTTPError{StatusCode: 503, Status: "503 Service Unavailable", Headers: map[string]string{"retry-after": "5"}}

	chain, err := exchange.From(NewStage(j), respond(nil, herr))
	require.NoError(t, err)

	_, err = chain.Execute(context.Background(), &exchange.Request{ID: "req-2", Update: true, Query: sparql.MustParse("CLEAR ALL")})
	assert.Same(t, herr, err)

	entries, err := j.Recent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, StatusError, entries[0].Status)
	assert.Equal(t, "update", entries[0].Kind)
	assert.Equal(t, "CLEAR ALL", entries[0].Query)
	assert.Contains(t, entries[0].Error, "503")
	assert.Equal(t, map[string]string{"retry-after": "5"}, entries[0].ResponseHeaders)
}

func TestStage_JournalFailureDoesNotChangeOutcome(t *testing.T) {
	j, _ := openTemp(t)
	require.NoError(t, j.Close())

	boom := errors.New("boom")
	chain, err := exchange.From(NewStage(j), respond(nil, boom))
	require.NoError(t, err)

	_, err = chain.Execute(context.Background(), &exchange.Request{ID: "x"})
	assert.Same(t, boom, err)
}

type upperSerializer struct{}

func (upperSerializer) Generate(doc sparql.Document) (string, error) {
	text, err := sparql.Generate(doc)
	return strings.ToUpper(text), err
}

func TestStage_UsesConfiguredSerializer(t *testing.T) {
	j, _ := openTemp(t)

	chain, err := exchange.From(NewStage(j, WithSerializer(upperSerializer{})), respond(nil, nil))
	require.NoError(t, err)

	_, err = chain.Execute(context.Background(), &exchange.Request{
		ID:    "req-1",
		Query: sparql.MustParse("select * where { ?s ?p ?o }"),
	})
	require.NoError(t, err)

	entries, err := j.Recent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "SELECT *\nWHERE { ?S ?P ?O. }", entries[0].Query)
}
